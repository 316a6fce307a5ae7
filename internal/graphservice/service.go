// Package graphservice owns the current wiki graph snapshot and answers
// queries against it for the CLI, the REST API and the MCP server.
package graphservice

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/wikigraph/internal/analysis"
	"github.com/starford/wikigraph/internal/apperr"
	"github.com/starford/wikigraph/internal/linkres"
	"github.com/starford/wikigraph/internal/markup"
	"github.com/starford/wikigraph/internal/media"
	"github.com/starford/wikigraph/internal/namespace"
	"github.com/starford/wikigraph/internal/page"
	"github.com/starford/wikigraph/internal/pagegraph"
	"github.com/starford/wikigraph/internal/storage"
)

// Ranking algorithms accepted by Rank.
const (
	RankPageRank  = "pagerank"
	RankAuthority = "authority"
	RankHub       = "hub"
	RankInDegree  = "indegree"
)

// Options configures a Service.
type Options struct {
	TemplatePrefixes   []string
	BaseURL            string
	SignatureExclusion string
	Workers            int
	OnReadError        string
	ResolverCacheSize  int
	Logger             *slog.Logger
}

// Snapshot is one immutable build of the wiki.
type Snapshot struct {
	Tree    *namespace.Tree
	Graph   *pagegraph.Graph
	Media   []string // media inventory; nil without a media store
	BuiltAt time.Time
	Took    time.Duration
	// Changes compares this build with the one it replaced; nil for the first build.
	Changes *ChangeSet
}

// ChangeSet lists pages that appeared, disappeared or whose source checksum
// differs between two snapshots.
type ChangeSet struct {
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// Empty reports whether nothing changed.
func (c *ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

func diff(prev, next *pagegraph.Graph) *ChangeSet {
	c := &ChangeSet{Added: []string{}, Removed: []string{}, Modified: []string{}}
	for _, v := range next.Vertices() {
		old, ok := prev.Vertex(v)
		if !ok {
			c.Added = append(c.Added, v)
			continue
		}
		if cur, _ := next.Vertex(v); cur.Checksum != old.Checksum {
			c.Modified = append(c.Modified, v)
		}
	}
	for _, v := range prev.Vertices() {
		if !next.HasVertex(v) {
			c.Removed = append(c.Removed, v)
		}
	}
	return c
}

// Stats summarises a snapshot.
type Stats struct {
	Pages      int        `json:"pages"`
	Links      int        `json:"links"`
	Wanted     int        `json:"wanted"`
	Namespaces int        `json:"namespaces"`
	Templates  int        `json:"templates"`
	Skipped    int        `json:"skipped"`
	MediaFiles int        `json:"media_files"`
	BuiltAt    time.Time  `json:"built_at"`
	TookMs     int64      `json:"took_ms"`
	Changes    *ChangeSet `json:"changes,omitempty"`
}

// PageDetail is the full view of one page.
type PageDetail struct {
	Path      string      `json:"path"`
	Name      string      `json:"name"`
	File      string      `json:"file"`
	Namespace string      `json:"namespace"`
	Checksum  string      `json:"checksum"`
	Links     []string    `json:"links"`
	Wanted    []string    `json:"wanted"`
	Backlinks []string    `json:"backlinks"`
	External  []string    `json:"external"`
	Media     []media.Ref `json:"media"`
}

// ResolvedLink explains how a raw link body is understood.
type ResolvedLink struct {
	Raw    string       `json:"raw"`
	Kind   linkres.Kind `json:"kind"`
	Target string       `json:"target"`
	Page   string       `json:"page,omitempty"`
	Exists bool         `json:"exists"`
}

// Service rebuilds and queries the wiki graph. Queries read the latest
// snapshot without locking; rebuilds are serialised.
type Service struct {
	pages      storage.Provider
	media      storage.Lister
	extractor  *markup.Extractor
	resolver   *linkres.Resolver
	normalizer *media.Normalizer
	opts       Options
	logger     *slog.Logger

	buildMu sync.Mutex
	current atomic.Pointer[Snapshot]
}

// New creates a Service. mediaStore may be nil when no media directory is configured.
func New(pages storage.Provider, mediaStore storage.Lister, opts Options) (*Service, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TemplatePrefixes == nil {
		opts.TemplatePrefixes = namespace.DefaultTemplatePrefixes
	}
	r, err := linkres.New(
		linkres.WithBaseURL(opts.BaseURL),
		linkres.WithLogger(opts.Logger),
		linkres.WithCacheSize(opts.ResolverCacheSize),
	)
	if err != nil {
		return nil, fmt.Errorf("graphservice: %w", err)
	}
	return &Service{
		pages:      pages,
		media:      mediaStore,
		extractor:  markup.NewExtractor(opts.SignatureExclusion),
		resolver:   r,
		normalizer: media.NewNormalizer(opts.BaseURL),
		opts:       opts,
		logger:     opts.Logger,
	}, nil
}

// Rebuild walks the page tree, builds a fresh graph and publishes it.
// On failure the previous snapshot stays current.
func (s *Service) Rebuild(ctx context.Context) (*Snapshot, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()
	tree, err := namespace.Build(s.pages, s.opts.TemplatePrefixes, s.logger)
	if err != nil {
		return nil, fmt.Errorf("graphservice: %w", err)
	}
	g, err := pagegraph.NewBuilder(s.pages, s.extractor, s.resolver, pagegraph.Options{
		Workers:     s.opts.Workers,
		OnReadError: s.opts.OnReadError,
		Logger:      s.logger,
	}).Build(ctx, tree)
	if err != nil {
		return nil, fmt.Errorf("graphservice: %w", err)
	}

	var inventory []string
	if s.media != nil {
		inventory, err = media.Inventory(s.media)
		if err != nil {
			return nil, fmt.Errorf("graphservice: media inventory: %w", err)
		}
	}

	snap := &Snapshot{Tree: tree, Graph: g, Media: inventory, BuiltAt: time.Now(), Took: time.Since(start)}
	if prev := s.current.Load(); prev != nil {
		snap.Changes = diff(prev.Graph, g)
	}
	s.current.Store(snap)
	attrs := []any{
		slog.Int("pages", g.Order()),
		slog.Int("links", g.Size()),
		slog.Duration("took", snap.Took),
	}
	if snap.Changes != nil {
		attrs = append(attrs,
			slog.Int("added", len(snap.Changes.Added)),
			slog.Int("removed", len(snap.Changes.Removed)),
			slog.Int("modified", len(snap.Changes.Modified)))
	}
	s.logger.Info("graphservice: snapshot published", attrs...)
	return snap, nil
}

// Snapshot returns the current snapshot or apperr.ErrNotReady.
func (s *Service) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperr.ErrNotReady
	}
	return snap, nil
}

// Stats summarises the current snapshot.
func (s *Service) Stats(_ context.Context) (*Stats, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return &Stats{
		Pages:      snap.Graph.Order(),
		Links:      snap.Graph.Size(),
		Wanted:     len(snap.Graph.Wanted()),
		Namespaces: snap.Tree.Len(),
		Templates:  len(snap.Tree.Skipped()),
		Skipped:    len(snap.Graph.Skipped()),
		MediaFiles: len(snap.Media),
		BuiltAt:    snap.BuiltAt,
		TookMs:     snap.Took.Milliseconds(),
		Changes:    snap.Changes,
	}, nil
}

// Canonical turns user input such as "ns:page" or "/ns/page" into a
// canonical page path. Case is preserved.
func Canonical(p string) string {
	p = strings.TrimSpace(p)
	if strings.Contains(p, "/") && !strings.Contains(p, ":") {
		p = strings.ReplaceAll(strings.Trim(p, "/"), "/", ":")
	}
	if !strings.HasPrefix(p, ":") {
		p = ":" + p
	}
	return p
}

// Page returns the detail view of an existing page.
func (s *Service) Page(_ context.Context, path string) (*PageDetail, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	path = Canonical(path)
	pg, ok := snap.Graph.Vertex(path)
	if !ok {
		return nil, fmt.Errorf("page %s: %w", path, apperr.ErrNotFound)
	}

	links := snap.Graph.Successors(path)
	wanted := []string{}
	for _, l := range links {
		if !snap.Graph.HasVertex(l) {
			wanted = append(wanted, l)
		}
	}
	refs := []media.Ref{}
	for _, raw := range pg.MediaRefs() {
		refs = append(refs, s.normalizer.Normalize(raw))
	}
	return &PageDetail{
		Path:      path,
		Name:      pg.Name,
		File:      pg.Path,
		Namespace: pg.Namespace(),
		Checksum:  pg.Checksum,
		Links:     links,
		Wanted:    wanted,
		Backlinks: nonNil(snap.Graph.Predecessors(path)),
		External:  pg.ExternalLinks(s.resolver),
		Media:     refs,
	}, nil
}

// Links returns the outgoing link targets of a page.
func (s *Service) Links(_ context.Context, path string) ([]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	path = Canonical(path)
	if !snap.Graph.HasVertex(path) {
		return nil, fmt.Errorf("page %s: %w", path, apperr.ErrNotFound)
	}
	return snap.Graph.Successors(path), nil
}

// Backlinks returns the pages linking to path. Wanted pages have backlinks too.
func (s *Service) Backlinks(_ context.Context, path string) ([]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	path = Canonical(path)
	if !snap.Graph.HasVertex(path) && !snap.Graph.Referenced(path) {
		return nil, fmt.Errorf("page %s: %w", path, apperr.ErrNotFound)
	}
	return nonNil(analysis.Backlinks(snap.Graph, path)), nil
}

// Edges returns the full edge list.
func (s *Service) Edges(_ context.Context) ([]string, []pagegraph.Edge, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, nil, err
	}
	return snap.Graph.Vertices(), snap.Graph.Edges(), nil
}

// Rank scores pages with the named algorithm and returns the top limit
// entries; limit <= 0 returns all.
func (s *Service) Rank(_ context.Context, algorithm string, limit int) ([]analysis.Score, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	algorithm = strings.ToLower(algorithm)
	var scores []analysis.Score
	switch algorithm {
	case "", RankPageRank:
		scores = analysis.PageRank(snap.Graph, analysis.DefaultDamping, analysis.DefaultTolerance)
	case RankInDegree:
		scores = analysis.InDegree(snap.Graph)
	case RankAuthority, RankHub:
		hits := analysis.HITS(snap.Graph, analysis.DefaultTolerance)
		scores = make([]analysis.Score, 0, len(hits))
		for _, h := range hits {
			v := h.Authority
			if algorithm == RankHub {
				v = h.Hub
			}
			scores = append(scores, analysis.Score{Path: h.Path, Score: v})
		}
		analysis.SortScores(scores)
	default:
		return nil, fmt.Errorf("ranking %q: %w", algorithm, apperr.ErrInvalidArgument)
	}
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return nonNil(scores), nil
}

// Orphans returns pages no other page links to.
func (s *Service) Orphans(_ context.Context) ([]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return nonNil(analysis.Orphans(snap.Graph)), nil
}

// Wanted returns link targets without a page, with their referrers.
func (s *Service) Wanted(_ context.Context) ([]analysis.WantedPage, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return nonNil(analysis.Wanted(snap.Graph)), nil
}

// Clusters returns groups of pages connected by links.
func (s *Service) Clusters(_ context.Context) ([][]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return nonNil(analysis.Clusters(snap.Graph)), nil
}

// Resolve explains how raw would be resolved on the page from. An empty
// from resolves relative links against the root namespace.
func (s *Service) Resolve(_ context.Context, raw, from string) (*ResolvedLink, error) {
	l := s.resolver.Resolve(raw)
	out := &ResolvedLink{Raw: raw, Kind: l.Kind, Target: l.Target}
	switch l.Kind {
	case linkres.Absolute:
		out.Page = l.Target
	case linkres.Relative:
		ns := ":"
		if from != "" {
			from = Canonical(from)
			ns = from[:strings.LastIndex(from, ":")+1]
		}
		out.Page = page.Qualify(ns, l.Target)
	}
	if out.Page != "" {
		if snap, err := s.Snapshot(); err == nil {
			out.Exists = snap.Graph.HasVertex(out.Page)
		}
	}
	return out, nil
}

// MediaAudit compares embedded media with the media inventory. When prefix
// is set, Referencing lists the files under it still in use.
func (s *Service) MediaAudit(_ context.Context, prefix string) (*MediaReport, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	r := media.Audit(snap.Graph, snap.Media, s.normalizer)
	out := &MediaReport{Report: r}
	if prefix != "" {
		out.Prefix = prefix
		out.Referencing = r.Referencing(prefix, snap.Media)
	}
	return out, nil
}

// MediaReport is a media audit with the optional prefix check.
type MediaReport struct {
	*media.Report
	Prefix      string              `json:"prefix,omitempty"`
	Referencing map[string][]string `json:"referencing,omitempty"`
}

// NamespaceInfo describes one namespace.
type NamespaceInfo struct {
	Namespace string                `json:"namespace"`
	Pages     []namespace.PageEntry `json:"pages"`
}

// Tree renders the namespace outline.
func (s *Service) Tree(_ context.Context) (string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := snap.Tree.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Namespaces lists every namespace in pre-order.
func (s *Service) Namespaces(_ context.Context) ([]NamespaceInfo, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	var out []NamespaceInfo
	_ = snap.Tree.Walk(func(id namespace.ID) error {
		out = append(out, NamespaceInfo{
			Namespace: snap.Tree.Namespace(id),
			Pages:     nonNil(snap.Tree.Pages(id)),
		})
		return nil
	})
	return out, nil
}

// EmptyNamespaces lists namespaces whose directory holds no files.
func (s *Service) EmptyNamespaces(_ context.Context) ([]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, id := range snap.Tree.Empty() {
		out = append(out, snap.Tree.Namespace(id))
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
