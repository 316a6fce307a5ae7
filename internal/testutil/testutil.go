// Package testutil provides shared test helpers for setting up wiki trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/wikigraph/internal/storage"
)

// WriteTree writes files (slash-separated relative path -> content) under root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// TestWiki creates a temporary page tree with the given files and a storage.FS over it.
func TestWiki(t *testing.T, files map[string]string, opts ...storage.Option) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	WriteTree(t, dir, files)
	store, err := storage.NewFS(dir, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
