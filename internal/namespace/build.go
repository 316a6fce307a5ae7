package namespace

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/wikigraph/internal/storage"
)

// DefaultTemplatePrefixes are the reserved page-name prefixes of template files.
var DefaultTemplatePrefixes = []string{"fr_", "f_", "_", "n_"}

// IsTemplate reports whether a page name starts with one of prefixes.
func IsTemplate(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// PageName strips the extension from a file name. A name that is only an
// extension, such as ".hidden", is kept whole.
func PageName(file string) string {
	ext := path.Ext(file)
	if ext == file {
		return file
	}
	return strings.TrimSuffix(file, ext)
}

// Build mirrors the directory tree reported by lister. Every file becomes a
// page of its directory's namespace unless its page name is a template.
func Build(lister storage.Lister, templatePrefixes []string, logger *slog.Logger) (*Tree, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := New()
	err := lister.Walk(func(dir string, subdirs, files []string) error {
		id := t.Ensure(dir)
		for _, sub := range subdirs {
			t.child(id, sub)
		}

		t.nodes[id].pages = nil
		t.nodes[id].files = len(files)
		for _, f := range files {
			entry := PageEntry{Name: PageName(f), Path: path.Join(dir, f)}
			if IsTemplate(entry.Name, templatePrefixes) {
				t.skipped = append(t.skipped, entry)
				logger.Debug("namespace: template skipped", slog.String("path", entry.Path))
				continue
			}
			t.nodes[id].pages = append(t.nodes[id].pages, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("namespace: build: %w", err)
	}
	logger.Info("namespace: tree built",
		slog.Int("namespaces", t.Len()),
		slog.Int("pages", t.PageCount()),
		slog.Int("templates_skipped", len(t.skipped)))
	return t, nil
}

// Render writes an indented outline of the tree: namespaces in upper case,
// their pages beneath them.
func (t *Tree) Render(w io.Writer) error {
	return t.Walk(func(id ID) error {
		depth := len(t.Segments(id))
		indent := strings.Repeat("    ", depth)
		label := strings.ToUpper(t.Name(id))
		if id == Root {
			label = ":"
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, label); err != nil {
			return err
		}
		for _, p := range t.nodes[id].pages {
			if _, err := fmt.Fprintf(w, "%s  * %s\n", indent, p.Name); err != nil {
				return err
			}
		}
		return nil
	})
}
