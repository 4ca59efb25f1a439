package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
)

// walker enumerates a tree depth-first. Each Walk call owns a fresh
// traversal frontier, so walks are restartable and independent.
type walker interface {
	Walk(ctx context.Context, root string, fn fs.WalkDirFunc) error
}

// dfsWalker is an iterative depth-first walker. Directory read errors are
// reported to fn and traversal continues. Symbolic links are never
// descended: entries from os.ReadDir report symlinks as non-directories,
// which also makes link cycles unreachable.
type dfsWalker struct{}

func (w dfsWalker) Walk(ctx context.Context, root string, fn fs.WalkDirFunc) error {
	info, err := os.Stat(root)
	if err != nil {
		return fn(root, nil, err)
	}

	type frame struct {
		path  string
		entry fs.DirEntry
	}
	stack := []frame{{path: root, entry: fs.FileInfoToDirEntry(info)}}

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := fn(current.path, current.entry, nil); err != nil {
			if err == fs.SkipDir {
				continue
			}
			return err
		}
		if !current.entry.IsDir() {
			continue
		}

		entries, err := os.ReadDir(current.path)
		if err != nil {
			if ferr := fn(current.path, current.entry, err); ferr != nil && ferr != fs.SkipDir {
				return ferr
			}
			continue
		}
		for i := range entries {
			child := entries[i]
			stack = append(stack, frame{
				path:  filepath.Join(current.path, child.Name()),
				entry: child,
			})
		}
	}
	return nil
}

func newWalker() walker {
	return dfsWalker{}
}
