// Package pagegraph builds and queries the directed link graph of a wiki.
package pagegraph

import (
	"sort"

	"github.com/starford/wikigraph/internal/page"
)

// Edge is a directed link from one page to a canonical target path.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is a directed graph keyed by canonical page path. Vertices are the
// pages found on disk; edge targets may be paths with no vertex ("wanted"
// pages). Self links are kept, parallel links collapse into one edge.
//
// A Graph is read-only once Build returns and may be shared between goroutines.
type Graph struct {
	pages   map[string]*page.Page
	out     map[string]map[string]struct{}
	in      map[string]map[string]struct{}
	edges   int
	skipped []page.Descriptor
}

func newGraph() *Graph {
	return &Graph{
		pages: make(map[string]*page.Page),
		out:   make(map[string]map[string]struct{}),
		in:    make(map[string]map[string]struct{}),
	}
}

func (g *Graph) addVertex(p *page.Page) {
	key := p.CanonicalPath()
	// Files that differ only by extension share a path; the lexically first
	// file wins so the result does not depend on build order.
	if cur, ok := g.pages[key]; !ok || p.Path < cur.Path {
		g.pages[key] = p
	}
}

func (g *Graph) addEdge(from, to string) {
	succ, ok := g.out[from]
	if !ok {
		succ = make(map[string]struct{})
		g.out[from] = succ
	}
	if _, dup := succ[to]; dup {
		return
	}
	succ[to] = struct{}{}

	pred, ok := g.in[to]
	if !ok {
		pred = make(map[string]struct{})
		g.in[to] = pred
	}
	pred[from] = struct{}{}
	g.edges++
}

// Vertex returns the page stored at path.
func (g *Graph) Vertex(path string) (*page.Page, bool) {
	p, ok := g.pages[path]
	return p, ok
}

// HasVertex reports whether a page exists at path.
func (g *Graph) HasVertex(path string) bool {
	_, ok := g.pages[path]
	return ok
}

// Referenced reports whether path is the target of at least one edge.
func (g *Graph) Referenced(path string) bool {
	return len(g.in[path]) > 0
}

// Successors returns the targets path links to, sorted.
func (g *Graph) Successors(path string) []string {
	return keys(g.out[path])
}

// Predecessors returns the pages linking to path, sorted.
func (g *Graph) Predecessors(path string) []string {
	return keys(g.in[path])
}

// Vertices returns every page path, sorted.
func (g *Graph) Vertices() []string {
	out := make([]string, 0, len(g.pages))
	for k := range g.pages {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Edges returns every edge ordered by source then target.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for _, from := range keys(g.out) {
		for _, to := range keys(g.out[from]) {
			out = append(out, Edge{From: from, To: to})
		}
	}
	return out
}

// Wanted returns edge targets that have no vertex, sorted.
func (g *Graph) Wanted() []string {
	var out []string
	for to := range g.in {
		if _, ok := g.pages[to]; !ok {
			out = append(out, to)
		}
	}
	sort.Strings(out)
	return out
}

// Order returns the number of vertices.
func (g *Graph) Order() int {
	return len(g.pages)
}

// Size returns the number of edges.
func (g *Graph) Size() int {
	return g.edges
}

// Skipped returns pages left out because their source could not be read.
func (g *Graph) Skipped() []page.Descriptor {
	return append([]page.Descriptor(nil), g.skipped...)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
