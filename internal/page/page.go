// Package page defines the wiki page entity and how its links become
// canonical page identifiers.
package page

import (
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/starford/wikigraph/internal/checksum"
	"github.com/starford/wikigraph/internal/linkres"
	"github.com/starford/wikigraph/internal/markup"
	"github.com/starford/wikigraph/internal/namespace"
)

// Descriptor identifies a page file without its contents.
type Descriptor struct {
	Name string `json:"name"`
	Path string `json:"path"` // slash-separated, relative to the page tree root
}

// Describe returns an unpopulated page descriptor.
func Describe(name, relPath string) Descriptor {
	return Descriptor{Name: name, Path: path.Clean(strings.ReplaceAll(relPath, "\\", "/"))}
}

// CanonicalPath is the absolute page identifier derived from the file path,
// e.g. "ns/sub/page.txt" becomes ":ns:sub:page". Case is preserved.
func (d Descriptor) CanonicalPath() string {
	dir, file := path.Split(d.Path)
	return ":" + strings.ReplaceAll(dir, "/", ":") + namespace.PageName(file)
}

// Namespace is the canonical prefix shared by pages in the same directory:
// ":" at the root, ":ns:sub:" below it.
func (d Descriptor) Namespace() string {
	dir := path.Dir(d.Path)
	if dir == "." || dir == "/" {
		return ":"
	}
	return ":" + strings.ReplaceAll(dir, "/", ":") + ":"
}

// Page is a populated wiki page.
type Page struct {
	Descriptor
	Checksum string
	Links    map[markup.RawLink]struct{}
	Media    map[string]struct{}
}

// Populate extracts links and media from src. The returned page is not
// modified afterwards.
func Populate(d Descriptor, src string, ex *markup.Extractor) *Page {
	res := ex.Extract(src)
	return &Page{
		Descriptor: d,
		Checksum:   checksum.SumString(src),
		Links:      res.Links,
		Media:      res.Media,
	}
}

// InternalLinks resolves every raw link and returns the distinct canonical
// paths of the pages it targets. Relative targets are placed under the
// page's own namespace; ".." is not resolved upwards, only diagnosed.
func (p *Page) InternalLinks(r *linkres.Resolver, logger *slog.Logger) []string {
	set := make(map[string]struct{})
	for raw := range p.Links {
		l := r.Resolve(raw.Link)
		switch l.Kind {
		case linkres.Absolute:
			set[l.Target] = struct{}{}
		case linkres.Relative:
			if strings.Contains(l.Target, "..") && logger != nil {
				logger.Warn("page: relative link with '..'",
					slog.String("page", p.CanonicalPath()),
					slog.String("link", l.Target))
			}
			set[Qualify(p.Namespace(), l.Target)] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// ExternalLinks returns the distinct external link strings of the page.
func (p *Page) ExternalLinks(r *linkres.Resolver) []string {
	set := make(map[string]struct{})
	for raw := range p.Links {
		if l := r.Resolve(raw.Link); l.Kind == linkres.External {
			set[l.Target] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// MediaRefs returns the raw media references sorted.
func (p *Page) MediaRefs() []string {
	return sortedKeys(p.Media)
}

// Qualify composes a relative target with a namespace prefix by dropping the
// target's leading marker segment: (":ns:", ".:sub:page") -> ":ns:sub:page".
func Qualify(ns, relative string) string {
	_, rest, _ := strings.Cut(relative, ":")
	return ns + rest
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
