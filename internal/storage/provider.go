// Package storage defines read access to a wiki's page and media trees.
package storage

// WalkFunc receives one directory at a time: its slash-separated path
// relative to the tree root ("" for the root itself), the names of its
// subdirectories and the names of its files.
type WalkFunc func(dir string, subdirs, files []string) error

// Lister walks a directory tree depth-first, parents before children.
type Lister interface {
	Walk(fn WalkFunc) error
}

// Reader returns the decoded text of a file relative to the tree root.
type Reader interface {
	ReadText(path string) (string, error)
}

// Provider is the read-only view of a wiki page tree.
type Provider interface {
	Lister
	Reader
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
