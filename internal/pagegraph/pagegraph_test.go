package pagegraph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/starford/wikigraph/internal/linkres"
	"github.com/starford/wikigraph/internal/markup"
	"github.com/starford/wikigraph/internal/namespace"
	"github.com/starford/wikigraph/internal/storage"
	"github.com/starford/wikigraph/internal/testutil"
)

var quiet = slog.New(slog.NewJSONHandler(io.Discard, nil))

func build(t *testing.T, store storage.Provider, opts Options) (*Graph, error) {
	t.Helper()
	tree, err := namespace.Build(store, namespace.DefaultTemplatePrefixes, quiet)
	if err != nil {
		t.Fatalf("namespace.Build: %v", err)
	}
	r, err := linkres.New(linkres.WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	if opts.Logger == nil {
		opts.Logger = quiet
	}
	return NewBuilder(store, markup.NewExtractor(""), r, opts).Build(context.Background(), tree)
}

func mustBuild(t *testing.T, files map[string]string, opts Options) *Graph {
	t.Helper()
	_, store := testutil.TestWiki(t, files)
	g, err := build(t, store, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestBuild_RelativeLinkEdge(t *testing.T) {
	g := mustBuild(t, map[string]string{
		"ns/a.txt": "see [[b]]",
		"ns/b.txt": "nothing",
	}, Options{})

	if got := g.Successors(":ns:a"); !reflect.DeepEqual(got, []string{":ns:b"}) {
		t.Errorf("Successors(:ns:a) = %v", got)
	}
	if !g.HasVertex(":ns:b") {
		t.Error("vertex :ns:b missing")
	}
	if len(g.Wanted()) != 0 {
		t.Errorf("Wanted = %v, want none", g.Wanted())
	}
	if got := g.Predecessors(":ns:b"); !reflect.DeepEqual(got, []string{":ns:a"}) {
		t.Errorf("Predecessors(:ns:b) = %v", got)
	}
}

func TestBuild_DanglingLinkIsWanted(t *testing.T) {
	g := mustBuild(t, map[string]string{
		"start.txt": "[[missing:page]] [[missing:page|again]]",
	}, Options{})

	if got := g.Successors(":start"); !reflect.DeepEqual(got, []string{":missing:page"}) {
		t.Errorf("Successors = %v", got)
	}
	if g.HasVertex(":missing:page") {
		t.Error("dangling target must not become a vertex")
	}
	if got := g.Wanted(); !reflect.DeepEqual(got, []string{":missing:page"}) {
		t.Errorf("Wanted = %v", got)
	}
	if !g.Referenced(":missing:page") {
		t.Error("wanted page should be referenced")
	}
	if g.Size() != 1 {
		t.Errorf("Size = %d, want 1", g.Size())
	}
}

func TestBuild_TemplatesExcluded(t *testing.T) {
	g := mustBuild(t, map[string]string{
		"start.txt":     "[[_tpl]]",
		"_tpl.txt":      "[[start]]",
		"ns/fr_form.txt": "",
	}, Options{})

	if !reflect.DeepEqual(g.Vertices(), []string{":start"}) {
		t.Errorf("Vertices = %v", g.Vertices())
	}
	if g.Referenced(":start") {
		t.Error("template links must not produce edges")
	}
}

func TestBuild_NonPageLinksIgnored(t *testing.T) {
	g := mustBuild(t, map[string]string{
		"a.txt": "[[https://go.dev]] [[#top]] [[doku>wiki]] [[mail@example.org]]",
	}, Options{})
	if g.Size() != 0 {
		t.Errorf("edges = %v, want none", g.Edges())
	}
}

func TestBuild_SelfLinkKept(t *testing.T) {
	g := mustBuild(t, map[string]string{"ns/a.txt": "[[a]]"}, Options{})
	if !reflect.DeepEqual(g.Edges(), []Edge{{":ns:a", ":ns:a"}}) {
		t.Errorf("Edges = %v", g.Edges())
	}
}

func TestBuild_OrderIndependent(t *testing.T) {
	files := map[string]string{
		"start.txt":        "[[ns:a]] [[ns:]] [[wiki:x]]",
		"ns/start.txt":     "[[a]] [[:start]]",
		"ns/a.txt":         "[[b]] [[..:c]] [[sub:d]]",
		"ns/b.txt":         "[[.:a]]",
		"ns/sub/d.txt":     "[[e]] [[:ns:a]]",
		"other/x.txt":      "[[:ns:b]] [[y]]",
		"other/deep/y.txt": "[[..:x]]",
	}
	serial := mustBuild(t, files, Options{Workers: 1})
	parallel := mustBuild(t, files, Options{Workers: 8})

	if !reflect.DeepEqual(serial.Vertices(), parallel.Vertices()) {
		t.Errorf("vertices differ:\n%v\n%v", serial.Vertices(), parallel.Vertices())
	}
	if !reflect.DeepEqual(serial.Edges(), parallel.Edges()) {
		t.Errorf("edges differ:\n%v\n%v", serial.Edges(), parallel.Edges())
	}
	if !reflect.DeepEqual(serial.Wanted(), parallel.Wanted()) {
		t.Errorf("wanted differ")
	}
	if serial.Order() != 7 {
		t.Errorf("Order = %d, want 7", serial.Order())
	}
}

func TestBuild_ReadErrorAbort(t *testing.T) {
	dir, store := testutil.TestWiki(t, map[string]string{"good.txt": "[[x]]"})
	if err := os.WriteFile(filepath.Join(dir, "bad.txt"), []byte{0xff, 0xfe, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := build(t, store, Options{})
	if err == nil {
		t.Fatal("expected build to fail on undecodable page")
	}
}

func TestBuild_ReadErrorSkip(t *testing.T) {
	dir, store := testutil.TestWiki(t, map[string]string{"good.txt": "[[bad]]"})
	if err := os.WriteFile(filepath.Join(dir, "bad.txt"), []byte("[[good]] \xff"), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := build(t, store, Options{OnReadError: OnReadErrorSkip})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.HasVertex(":bad") {
		t.Error("skipped page must not be a vertex")
	}
	if g.Referenced(":good") {
		t.Error("skipped page must not contribute edges")
	}
	if len(g.Skipped()) != 1 || g.Skipped()[0].Path != "bad.txt" {
		t.Errorf("Skipped = %v", g.Skipped())
	}
	if !reflect.DeepEqual(g.Wanted(), []string{":bad"}) {
		t.Errorf("Wanted = %v", g.Wanted())
	}
}

func TestBuild_Cancelled(t *testing.T) {
	_, store := testutil.TestWiki(t, map[string]string{"a.txt": "", "b.txt": ""})
	tree, err := namespace.Build(store, nil, quiet)
	if err != nil {
		t.Fatal(err)
	}
	r, _ := linkres.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewBuilder(store, markup.NewExtractor(""), r, Options{Logger: quiet}).Build(ctx, tree)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBuild_ExtensionCollisionDeterministic(t *testing.T) {
	g := mustBuild(t, map[string]string{
		"a.md":  "[[x]]",
		"a.txt": "[[y]]",
	}, Options{Workers: 4})
	p, ok := g.Vertex(":a")
	if !ok || p.Path != "a.md" {
		t.Errorf("Vertex(:a) = %+v", p)
	}
	if !reflect.DeepEqual(g.Successors(":a"), []string{":x", ":y"}) {
		t.Errorf("Successors = %v", g.Successors(":a"))
	}
}
