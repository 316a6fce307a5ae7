// Package media normalises embedded media references and audits them
// against the media files present on disk.
package media

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/starford/wikigraph/internal/page"
	"github.com/starford/wikigraph/internal/storage"
)

// Kind tells how a media reference is served.
type Kind int

const (
	Local Kind = iota
	External
	Gallery
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case External:
		return "external"
	case Gallery:
		return "gallery"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for _, c := range []Kind{Local, External, Gallery} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("media: unknown kind %q", b)
}

// Ref is a normalised media reference. Local IDs are colon-separated,
// lower-case and carry no leading colon, e.g. "ns:sub:image.png".
type Ref struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
}

var transliterate = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

// Normalizer cleans raw media references.
type Normalizer struct {
	mediaURL string
}

// NewNormalizer creates a Normalizer. When baseURL is set, absolute URLs under
// its "_media/" path count as local files.
func NewNormalizer(baseURL string) *Normalizer {
	n := &Normalizer{}
	if baseURL != "" {
		n.mediaURL = strings.TrimSuffix(baseURL, "/") + "/_media/"
	}
	return n
}

// Normalize classifies and cleans one raw reference.
func (n *Normalizer) Normalize(raw string) Ref {
	m := strings.TrimSpace(raw)
	switch {
	case strings.Contains(m, "gallery>"):
		return Ref{ID: m, Kind: Gallery}
	case strings.Contains(m, "http") || strings.Contains(m, "www."):
		if n.mediaURL == "" || !strings.HasPrefix(m, n.mediaURL) {
			return Ref{ID: m, Kind: External}
		}
		m = strings.ReplaceAll(strings.TrimPrefix(m, n.mediaURL), "/", ":")
	}
	m = transliterate.Replace(strings.ToLower(m))
	m = strings.TrimPrefix(strings.TrimSpace(m), ":")
	return Ref{ID: m, Kind: Local}
}

// FileID converts a slash-separated media file path to its media ID.
func FileID(rel string) string {
	return strings.ToLower(strings.ReplaceAll(path.Clean(rel), "/", ":"))
}

// Inventory lists the media IDs of every file below the media root, sorted.
func Inventory(l storage.Lister) ([]string, error) {
	var out []string
	err := l.Walk(func(dir string, _, files []string) error {
		for _, f := range files {
			out = append(out, FileID(path.Join(dir, f)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// PageSource yields the pages whose media references are audited.
// *pagegraph.Graph satisfies it.
type PageSource interface {
	Vertices() []string
	Vertex(path string) (*page.Page, bool)
}

// Usage is a non-local reference and the pages embedding it.
type Usage struct {
	Ref   string   `json:"ref"`
	Pages []string `json:"pages"`
}

// Report is the result of an audit.
type Report struct {
	// Missing maps referenced local IDs with no file to their pages.
	Missing map[string][]string `json:"missing"`
	// Unused lists files no page embeds.
	Unused    []string `json:"unused"`
	Galleries []Usage  `json:"galleries"`
	External  []Usage  `json:"external"`

	used map[string][]string
}

// Audit compares the media embedded by the pages of src against inventory.
func Audit(src PageSource, inventory []string, n *Normalizer) *Report {
	used := map[string][]string{}
	galleries := map[string][]string{}
	external := map[string][]string{}

	for _, p := range src.Vertices() {
		pg, ok := src.Vertex(p)
		if !ok {
			continue
		}
		for _, raw := range pg.MediaRefs() {
			ref := n.Normalize(raw)
			switch ref.Kind {
			case Gallery:
				galleries[ref.ID] = appendOnce(galleries[ref.ID], p)
			case External:
				external[ref.ID] = appendOnce(external[ref.ID], p)
			default:
				used[ref.ID] = appendOnce(used[ref.ID], p)
			}
		}
	}

	onDisk := make(map[string]struct{}, len(inventory))
	for _, id := range inventory {
		onDisk[id] = struct{}{}
	}

	r := &Report{Missing: map[string][]string{}, used: used}
	for id, pages := range used {
		if _, ok := onDisk[id]; !ok {
			r.Missing[id] = pages
		}
	}
	for _, id := range inventory {
		if _, ok := used[id]; !ok {
			r.Unused = append(r.Unused, id)
		}
	}
	r.Galleries = usages(galleries)
	r.External = usages(external)
	return r
}

// Referencing returns, for every file under prefix, the pages that still
// embed it. Files nobody embeds are left out, so the result names the files
// that must be kept if the prefix is cleaned up.
func (r *Report) Referencing(prefix string, inventory []string) map[string][]string {
	prefix = strings.TrimPrefix(strings.ToLower(prefix), ":")
	out := map[string][]string{}
	for _, id := range inventory {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if pages := r.used[id]; len(pages) > 0 {
			out[id] = pages
		}
	}
	return out
}

// appendOnce relies on pages being visited in sorted order.
func appendOnce(s []string, v string) []string {
	if len(s) > 0 && s[len(s)-1] == v {
		return s
	}
	return append(s, v)
}

func usages(m map[string][]string) []Usage {
	out := make([]Usage, 0, len(m))
	for ref, pages := range m {
		out = append(out, Usage{Ref: ref, Pages: pages})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	return out
}
