package scanner

import (
	"path/filepath"
	"strings"
)

var defaultExcludedDirs = []string{
	".git", ".hg", ".svn",
	"__pycache__", ".pytest_cache", ".mypy_cache",
	"venv", ".venv", "env",
	".idea", ".vscode",
	"node_modules",
}

var defaultExcludedExts = []string{
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico",
	".pyc", ".pyo", ".exe", ".dll", ".so", ".dylib",
	".zip", ".tar", ".gz",
	".woff", ".woff2", ".ttf", ".eot",
	".pdf",
}

// ExclusionRules decides which directories are descended into and which
// files are opened. Decisions use names and extensions only; content and
// size are never consulted. The value is read-only after construction so
// concurrent scans can share or diverge without locking.
type ExclusionRules struct {
	dirs map[string]struct{}
	exts map[string]struct{}
}

// NewExclusionRules builds rules from explicit directory and extension
// lists. Extensions are normalized to lowercase with a leading dot.
func NewExclusionRules(dirs, exts []string) ExclusionRules {
	r := ExclusionRules{
		dirs: make(map[string]struct{}, len(dirs)),
		exts: make(map[string]struct{}, len(exts)),
	}
	for _, d := range dirs {
		if d != "" {
			r.dirs[d] = struct{}{}
		}
	}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		r.exts[e] = struct{}{}
	}
	return r
}

// DefaultExclusions returns the built-in rule set, optionally extended
// with additional directory names and extensions.
func DefaultExclusions(extraDirs, extraExts []string) ExclusionRules {
	dirs := append(append([]string(nil), defaultExcludedDirs...), extraDirs...)
	exts := append(append([]string(nil), defaultExcludedExts...), extraExts...)
	return NewExclusionRules(dirs, exts)
}

// ShouldDescend reports whether a directory with the given base name is
// traversed.
func (r ExclusionRules) ShouldDescend(name string) bool {
	_, excluded := r.dirs[name]
	return !excluded
}

// ShouldRead reports whether a file at the given path is opened for
// scanning, based on its extension.
func (r ExclusionRules) ShouldRead(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return true
	}
	_, excluded := r.exts[ext]
	return !excluded
}
