package utils

import (
	"path/filepath"
	"strings"
)

// IsPathWithin reports whether path resolves to a location under any of
// the given roots. Symlinks are resolved on both sides so a link cannot
// smuggle a file from outside the scan roots.
func IsPathWithin(path string, roots []string) bool {
	absPath, err := resolveAbs(path)
	if err != nil {
		return false
	}
	for _, root := range roots {
		absRoot, err := resolveAbs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absRoot, absPath)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func resolveAbs(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	return filepath.Abs(resolved)
}
