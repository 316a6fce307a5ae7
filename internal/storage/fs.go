package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/starford/wikigraph/internal/apperr"
)

// Encoding names accepted by WithEncoding.
const (
	EncodingUTF8        = "utf-8"
	EncodingLatin1      = "iso-8859-1"
	EncodingWindows1252 = "windows-1252"
)

// Option configures an FS.
type Option func(*FS) error

// WithEncoding sets the character encoding of the files. The default is UTF-8.
func WithEncoding(name string) Option {
	return func(f *FS) error {
		enc, err := LookupEncoding(name)
		if err != nil {
			return err
		}
		f.encoding = enc
		return nil
	}
}

// WithIgnore skips files and directories matching any of the glob patterns.
// A pattern without "/" is matched against the entry's base name at any
// depth, so "*.bak" and "attic" apply in every namespace. Other patterns are
// matched against the whole relative path, where "*" does not cross "/" and
// "**" does.
func WithIgnore(patterns ...string) Option {
	return func(f *FS) error {
		for _, p := range patterns {
			g, err := glob.Compile(p, '/')
			if err != nil {
				return fmt.Errorf("storage: ignore pattern %q: %w", p, err)
			}
			f.ignore = append(f.ignore, ignoreRule{glob: g, base: !strings.Contains(p, "/")})
		}
		return nil
	}
}

type ignoreRule struct {
	glob glob.Glob
	base bool // match path.Base(rel) only
}

// FS implements Provider backed by the local file system.
type FS struct {
	root     string // absolute path to the tree root
	encoding encoding.Encoding
	ignore   []ignoreRule
}

// NewFS creates a new FS rooted at the given directory.
// The directory must already exist.
func NewFS(root string, opts ...Option) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	f := &FS{root: abs}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string {
	return f.root
}

// LookupEncoding maps a configured encoding name to a decoder.
// A nil Encoding means UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf8":
		return nil, nil
	case EncodingLatin1, "latin-1", "latin1":
		return charmap.ISO8859_1, nil
	case EncodingWindows1252, "cp1252", "1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("storage: %w: %s", apperr.ErrUnsupportedEncoding, name)
	}
}

// safePath resolves a relative path against the root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes root: %s", rel)
	}
	return abs, nil
}

func (f *FS) ignored(rel string) bool {
	for _, r := range f.ignore {
		name := rel
		if r.base {
			name = path.Base(rel)
		}
		if r.glob.Match(name) {
			return true
		}
	}
	return false
}

// Walk visits every directory under the root, parents first, with entries
// in lexical order. Ignored entries are never reported and ignored
// directories are not descended into.
func (f *FS) Walk(fn WalkFunc) error {
	return f.walk("", fn)
}

func (f *FS) walk(dir string, fn WalkFunc) error {
	abs, err := f.safePath(dir)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return fmt.Errorf("storage: read dir %q: %w", dir, err)
	}

	var subdirs, files []string
	for _, e := range entries {
		if f.ignored(path.Join(dir, e.Name())) {
			continue
		}
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
		} else if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}

	if err := fn(dir, subdirs, files); err != nil {
		return err
	}
	for _, sub := range subdirs {
		if err := f.walk(path.Join(dir, sub), fn); err != nil {
			return err
		}
	}
	return nil
}

// Files returns the slash-separated relative path of every non-ignored file, sorted.
func (f *FS) Files() ([]string, error) {
	var out []string
	err := f.Walk(func(dir string, _, files []string) error {
		for _, name := range files {
			out = append(out, path.Join(dir, name))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Read returns the raw bytes of a file.
func (f *FS) Read(rel string) ([]byte, error) {
	abs, err := f.safePath(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return data, nil
}

// ReadText reads a file and decodes it with the configured encoding.
// Invalid UTF-8 is reported as apperr.ErrDecode rather than replaced.
func (f *FS) ReadText(rel string) (string, error) {
	data, err := f.Read(rel)
	if err != nil {
		return "", err
	}
	var out []byte
	if f.encoding == nil {
		out, _, err = transform.Bytes(encoding.UTF8Validator, data)
	} else {
		out, err = f.encoding.NewDecoder().Bytes(data)
	}
	if err != nil {
		return "", fmt.Errorf("storage: %w: %s: %v", apperr.ErrDecode, rel, err)
	}
	return string(out), nil
}
