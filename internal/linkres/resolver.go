// Package linkres classifies raw wiki links and normalises internal ones into
// canonical page identifiers, following DokuWiki's page-id cleaning and
// namespace rules (https://www.dokuwiki.org/namespaces).
package linkres

import (
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	externalMarkers = []string{"https://", "http://", "www.", "@"}

	transliterate = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

	// Applied one after another, so a "__" produced by an earlier step is
	// collapsed by a later one but "___" may still leave "__" behind.
	underscored = []string{"&", `"`, "+", "'", " ", "__", "___"}
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseURL makes links starting with the wiki's own URL resolve as internal absolute links.
func WithBaseURL(u string) Option {
	return func(r *Resolver) {
		r.baseURL = u
	}
}

// WithLogger sets the logger used for input diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithCacheSize memoises up to n results. Zero disables the cache.
func WithCacheSize(n int) Option {
	return func(r *Resolver) {
		r.cacheSize = n
	}
}

// Resolver turns raw link bodies into classified, normalised links.
// It is safe for concurrent use.
type Resolver struct {
	baseURL   string
	logger    *slog.Logger
	cacheSize int
	cache     *lru.Cache[string, Link]
}

// New creates a Resolver.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.cacheSize > 0 {
		c, err := lru.New[string, Link](r.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("linkres: create cache: %w", err)
		}
		r.cache = c
	}
	return r, nil
}

// Resolve classifies raw and, for page links, returns the normalised target.
// Relative targets keep their leading "." marker; composing them with the
// linking page's namespace is left to the caller.
func (r *Resolver) Resolve(raw string) Link {
	if r.cache != nil {
		if l, ok := r.cache.Get(raw); ok {
			return l
		}
	}
	l := r.resolve(raw)
	if r.cache != nil {
		r.cache.Add(raw, l)
	}
	return l
}

func (r *Resolver) resolve(raw string) Link {
	link := raw
	kind := classify(link)

	if kind == External && r.baseURL != "" && strings.HasPrefix(link, r.baseURL) {
		link = ":" + strings.TrimPrefix(link, r.baseURL)
		kind = kindInternal
	}

	if kind == kindInternal {
		link, kind = r.normalize(link)
		if kind == kindInternal {
			panic(fmt.Sprintf("linkres: %q left unclassified after normalisation", raw))
		}
	}

	return Link{Target: strings.TrimSpace(link), Kind: kind}
}

func classify(link string) Kind {
	for _, m := range externalMarkers {
		if strings.Contains(link, m) {
			return External
		}
	}
	switch {
	case strings.HasPrefix(link, "#"):
		return Section
	case strings.Contains(link, ">"):
		return Interwiki
	default:
		return kindInternal
	}
}

func (r *Resolver) normalize(link string) (string, Kind) {
	link = strings.ToLower(link)

	parts := strings.Split(link, ":")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	link = strings.Join(parts, ":")

	link = transliterate.Replace(link)
	link = strings.ReplaceAll(link, `"`, "")
	for _, s := range underscored {
		link = strings.ReplaceAll(link, s, "_")
	}
	if !strings.HasPrefix(link, "/") {
		link = strings.ReplaceAll(link, "/", "_")
	}
	if strings.HasSuffix(link, ".") || strings.HasSuffix(link, "]") {
		link = link[:len(link)-1]
	}

	if n := strings.Count(link, "#"); n > 0 {
		if n > 1 {
			r.logger.Warn("linkres: multiple section markers", slog.String("link", link))
		}
		link, _, _ = strings.Cut(link, "#")
	}

	kind := kindInternal
	switch {
	case strings.HasPrefix(link, "/"), strings.HasPrefix(link, ":"):
		kind = Absolute
	case !strings.HasPrefix(link, ".") && strings.Contains(link, ":"):
		kind = Absolute
	default:
		kind = Relative
	}

	switch kind {
	case Absolute:
		link = strings.TrimPrefix(link, "/")
		if !strings.HasPrefix(link, ":") {
			link = ":" + link
		}
	case Relative:
		if !strings.HasPrefix(link, ".") {
			link = ".:" + link
		}
	}

	if strings.HasSuffix(link, ":") {
		link += "start"
	}
	return link, kind
}
