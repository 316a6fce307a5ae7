package pagegraph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/wikigraph/internal/linkres"
	"github.com/starford/wikigraph/internal/markup"
	"github.com/starford/wikigraph/internal/namespace"
	"github.com/starford/wikigraph/internal/page"
	"github.com/starford/wikigraph/internal/storage"
)

// Read error policies.
const (
	OnReadErrorAbort = "abort"
	OnReadErrorSkip  = "skip"
)

// Options tunes a Build.
type Options struct {
	// Workers bounds concurrent page construction; values below 1 mean 1.
	Workers int
	// OnReadError is OnReadErrorAbort (default) or OnReadErrorSkip.
	OnReadError string
	Logger      *slog.Logger
}

// Builder turns a namespace tree into a page graph.
type Builder struct {
	src       storage.Reader
	extractor *markup.Extractor
	resolver  *linkres.Resolver
	opts      Options
}

// NewBuilder creates a Builder reading page sources from src.
func NewBuilder(src storage.Reader, ex *markup.Extractor, r *linkres.Resolver, opts Options) *Builder {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.OnReadError == "" {
		opts.OnReadError = OnReadErrorAbort
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Builder{src: src, extractor: ex, resolver: r, opts: opts}
}

// Build visits the tree in pre-order and adds one vertex per page and one
// edge per distinct internal link. Pages are read and resolved concurrently;
// graph insertion is serialised, so the result does not depend on order.
func (b *Builder) Build(ctx context.Context, tree *namespace.Tree) (*Graph, error) {
	var descs []page.Descriptor
	_ = tree.Walk(func(id namespace.ID) error {
		for _, e := range tree.Pages(id) {
			descs = append(descs, page.Describe(e.Name, e.Path))
		}
		return nil
	})

	g := newGraph()
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.opts.Workers)
	for _, d := range descs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			p, links, err := b.load(d)
			if err != nil {
				if b.opts.OnReadError == OnReadErrorSkip {
					b.opts.Logger.Warn("pagegraph: page skipped",
						slog.String("path", d.Path),
						slog.String("error", err.Error()))
					mu.Lock()
					g.skipped = append(g.skipped, d)
					mu.Unlock()
					return nil
				}
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			g.addVertex(p)
			for _, to := range links {
				g.addEdge(p.CanonicalPath(), to)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(g.skipped, func(i, j int) bool { return g.skipped[i].Path < g.skipped[j].Path })
	b.opts.Logger.Info("pagegraph: built",
		slog.Int("vertices", g.Order()),
		slog.Int("edges", g.Size()),
		slog.Int("wanted", len(g.Wanted())),
		slog.Int("skipped", len(g.skipped)))
	return g, nil
}

func (b *Builder) load(d page.Descriptor) (*page.Page, []string, error) {
	src, err := b.src.ReadText(d.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("pagegraph: read %s: %w", d.Path, err)
	}
	p := page.Populate(d, src, b.extractor)
	return p, p.InternalLinks(b.resolver, b.opts.Logger), nil
}
