package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func TestWalkYieldsEveryFileExactlyOnce(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.txt":           "a",
		"sub/b.txt":       "b",
		"sub/deep/c.txt":  "c",
		"other/d.txt":     "d",
		"other/e/f/g.txt": "g",
	})

	seen := map[string]int{}
	err := newWalker().Walk(context.Background(), dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			t.Fatalf("walk error at %s: %v", path, err)
		}
		if !d.IsDir() {
			seen[path]++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 files, saw %d: %v", len(seen), seen)
	}
	for path, count := range seen {
		if count != 1 {
			t.Fatalf("%s yielded %d times", path, count)
		}
	}
}

func TestWalkSkipDir(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"keep.txt":      "x",
		"skipme/a.txt":  "x",
		"skipme/b/ceal": "x",
	})

	var files []string
	err := newWalker().Walk(context.Background(), dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && d.Name() == "skipme" {
			return fs.SkipDir
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "keep.txt" {
		t.Fatalf("files: %v", files)
	}
}

func TestWalkMissingRootReportsError(t *testing.T) {
	var gotErr error
	err := newWalker().Walk(context.Background(), filepath.Join(t.TempDir(), "missing"), func(path string, d fs.DirEntry, err error) error {
		gotErr = err
		return nil
	})
	if err != nil {
		t.Fatalf("walk should absorb fn's nil: %v", err)
	}
	if gotErr == nil {
		t.Fatal("expected access error delivered to fn")
	}
}

func TestWalkDoesNotFollowSymlinkedDirs(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"real/a.txt": "x"})
	if err := os.Symlink(filepath.Join(dir, "real"), filepath.Join(dir, "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	var files []string
	err := newWalker().Walk(context.Background(), dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("symlinked dir contents duplicated: %v", files)
	}
}

func TestWalkRestartable(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.txt": "x", "b.txt": "y"})

	w := newWalker()
	for run := 0; run < 2; run++ {
		count := 0
		err := w.Walk(context.Background(), dir, func(path string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() {
				count++
			}
			return nil
		})
		if err != nil {
			t.Fatalf("walk %d: %v", run, err)
		}
		if count != 2 {
			t.Fatalf("walk %d saw %d files", run, count)
		}
	}
}

func TestWalkHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.txt": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newWalker().Walk(ctx, dir, func(path string, d fs.DirEntry, err error) error {
		return nil
	})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
