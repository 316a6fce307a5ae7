// Package analysis derives reports from a built page graph: rankings,
// orphaned pages, wanted pages and link clusters.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Default ranking parameters.
const (
	DefaultDamping   = 0.85
	DefaultTolerance = 1e-6
)

// Graph is the read interface the analyses need. *pagegraph.Graph satisfies it.
type Graph interface {
	Vertices() []string
	Successors(path string) []string
	Predecessors(path string) []string
	HasVertex(path string) bool
	Wanted() []string
}

// Score pairs a page path with a ranking value.
type Score struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// HubAuthority holds the HITS scores of a page.
type HubAuthority struct {
	Path      string  `json:"path"`
	Hub       float64 `json:"hub"`
	Authority float64 `json:"authority"`
}

// WantedPage is a link target with no page behind it.
type WantedPage struct {
	Path      string   `json:"path"`
	Referrers []string `json:"referrers"`
}

// projection maps the page graph onto gonum node IDs. Wanted targets are
// included so rank can flow into them; self loops are left out because
// simple graphs cannot hold them.
type projection struct {
	g     *simple.DirectedGraph
	ids   map[string]int64
	paths []string
}

func project(g Graph) *projection {
	paths := append(g.Vertices(), g.Wanted()...)
	sort.Strings(paths)

	p := &projection{
		g:     simple.NewDirectedGraph(),
		ids:   make(map[string]int64, len(paths)),
		paths: paths,
	}
	for i, path := range paths {
		p.ids[path] = int64(i)
		p.g.AddNode(simple.Node(i))
	}
	for _, from := range g.Vertices() {
		fid := p.ids[from]
		for _, to := range g.Successors(from) {
			tid, ok := p.ids[to]
			if !ok || tid == fid {
				continue
			}
			p.g.SetEdge(simple.Edge{F: simple.Node(fid), T: simple.Node(tid)})
		}
	}
	return p
}

// PageRank scores every page and wanted target.
func PageRank(g Graph, damping, tol float64) []Score {
	p := project(g)
	if len(p.paths) == 0 {
		return nil
	}
	ranks := network.PageRank(p.g, damping, tol)
	out := make([]Score, 0, len(ranks))
	for id, r := range ranks {
		out = append(out, Score{Path: p.paths[id], Score: r})
	}
	SortScores(out)
	return out
}

// HITS computes hub and authority scores, ordered by authority.
func HITS(g Graph, tol float64) []HubAuthority {
	p := project(g)
	if len(p.paths) == 0 {
		return nil
	}
	out := make([]HubAuthority, 0, len(p.paths))
	// HITS normalises by the score vector length, which is zero without edges.
	if p.g.Edges().Len() == 0 {
		for _, path := range p.paths {
			out = append(out, HubAuthority{Path: path})
		}
		return out
	}
	for id, ha := range network.HITS(p.g, tol) {
		out = append(out, HubAuthority{Path: p.paths[id], Hub: ha.Hub, Authority: ha.Authority})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Authority != out[j].Authority {
			return out[i].Authority > out[j].Authority
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// InDegree ranks pages by the number of distinct other pages linking to them.
func InDegree(g Graph) []Score {
	var out []Score
	for _, v := range g.Vertices() {
		n := 0
		for _, from := range g.Predecessors(v) {
			if from != v {
				n++
			}
		}
		out = append(out, Score{Path: v, Score: float64(n)})
	}
	SortScores(out)
	return out
}

// Orphans returns pages no other page links to, sorted.
func Orphans(g Graph) []string {
	var out []string
	for _, v := range g.Vertices() {
		linked := false
		for _, from := range g.Predecessors(v) {
			if from != v {
				linked = true
				break
			}
		}
		if !linked {
			out = append(out, v)
		}
	}
	return out
}

// Wanted lists missing link targets with the pages referring to them.
func Wanted(g Graph) []WantedPage {
	var out []WantedPage
	for _, w := range g.Wanted() {
		out = append(out, WantedPage{Path: w, Referrers: g.Predecessors(w)})
	}
	return out
}

// Backlinks returns the pages linking to path, sorted.
func Backlinks(g Graph, path string) []string {
	return g.Predecessors(path)
}

// Clusters groups existing pages into weakly connected components, largest
// first. Links to wanted pages do not join clusters.
func Clusters(g Graph) [][]string {
	vertices := g.Vertices()
	ids := make(map[string]int64, len(vertices))
	u := simple.NewUndirectedGraph()
	for i, v := range vertices {
		ids[v] = int64(i)
		u.AddNode(simple.Node(i))
	}
	for _, from := range vertices {
		for _, to := range g.Successors(from) {
			tid, ok := ids[to]
			if !ok || tid == ids[from] {
				continue
			}
			u.SetEdge(simple.Edge{F: simple.Node(ids[from]), T: simple.Node(tid)})
		}
	}

	var out [][]string
	for _, comp := range topo.ConnectedComponents(u) {
		paths := make([]string, 0, len(comp))
		for _, n := range comp {
			paths = append(paths, vertices[n.ID()])
		}
		sort.Strings(paths)
		out = append(out, paths)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i][0] < out[j][0]
	})
	return out
}

// SortScores orders scores descending, ties by path.
func SortScores(s []Score) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].Path < s[j].Path
	})
}
