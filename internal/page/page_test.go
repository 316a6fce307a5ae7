package page

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/wikigraph/internal/linkres"
	"github.com/starford/wikigraph/internal/markup"
)

func resolver(t *testing.T, opts ...linkres.Option) *linkres.Resolver {
	t.Helper()
	r, err := linkres.New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestDescriptor_Paths(t *testing.T) {
	tests := []struct {
		rel, canonical, ns string
	}{
		{"start.txt", ":start", ":"},
		{"ns/a.txt", ":ns:a", ":ns:"},
		{"Fahrzeug/Aero/Flügel.txt", ":Fahrzeug:Aero:Flügel", ":Fahrzeug:Aero:"},
		{"v1.2/notes.txt", ":v1.2:notes", ":v1.2:"},
	}
	for _, tt := range tests {
		d := Describe("", tt.rel)
		if got := d.CanonicalPath(); got != tt.canonical {
			t.Errorf("CanonicalPath(%q) = %q, want %q", tt.rel, got, tt.canonical)
		}
		if got := d.Namespace(); got != tt.ns {
			t.Errorf("Namespace(%q) = %q, want %q", tt.rel, got, tt.ns)
		}
	}
}

func TestPopulate(t *testing.T) {
	d := Describe("a", "ns/a.txt")
	p := Populate(d, "[[b]] [[b]] [[:c|C]] {{img.png}}", markup.NewExtractor(""))
	if len(p.Links) != 2 {
		t.Errorf("links = %v", p.Links)
	}
	if !reflect.DeepEqual(p.MediaRefs(), []string{"img.png"}) {
		t.Errorf("media = %v", p.MediaRefs())
	}
	if p.Checksum == "" {
		t.Error("checksum not set")
	}
	if p.Name != "a" || p.Path != "ns/a.txt" {
		t.Errorf("descriptor = %+v", p.Descriptor)
	}
}

func TestInternalLinks_RelativeComposedWithNamespace(t *testing.T) {
	src := strings.Join([]string{
		"[[b]]",
		"[[.:c]]",
		"[[sub:d]]",
		"[[:top]]",
		"[[.sub:e]]",
		"[[https://example.org]]",
		"[[#section]]",
		"[[doku>syntax]]",
		"[[Other NS:]]",
	}, "\n")
	p := Populate(Describe("a", "ns/a.txt"), src, markup.NewExtractor(""))

	got := p.InternalLinks(resolver(t), nil)
	want := []string{":ns:b", ":ns:c", ":ns:e", ":other_ns:start", ":sub:d", ":top"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InternalLinks = %v\nwant %v", got, want)
	}
}

func TestInternalLinks_RootPage(t *testing.T) {
	p := Populate(Describe("start", "start.txt"), "[[wiki]] [[.:x]]", markup.NewExtractor(""))
	got := p.InternalLinks(resolver(t), nil)
	want := []string{":wiki", ":x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InternalLinks = %v, want %v", got, want)
	}
}

func TestInternalLinks_DotDotDiagnosed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	p := Populate(Describe("a", "ns/sub/a.txt"), "[[..:up]]", markup.NewExtractor(""))

	got := p.InternalLinks(resolver(t), logger)
	if !reflect.DeepEqual(got, []string{":ns:sub:up"}) {
		t.Errorf("InternalLinks = %v", got)
	}
	if !strings.Contains(buf.String(), "relative link with '..'") {
		t.Errorf("missing diagnostic: %q", buf.String())
	}
}

func TestInternalLinks_BaseURL(t *testing.T) {
	p := Populate(Describe("a", "a.txt"), "[[https://wiki.example.org/ns:page|here]]", markup.NewExtractor(""))
	r := resolver(t, linkres.WithBaseURL("https://wiki.example.org/"))
	if got := p.InternalLinks(r, nil); !reflect.DeepEqual(got, []string{":ns:page"}) {
		t.Errorf("InternalLinks = %v", got)
	}
	if got := p.ExternalLinks(r); len(got) != 0 {
		t.Errorf("ExternalLinks = %v", got)
	}
}

func TestExternalLinks(t *testing.T) {
	p := Populate(Describe("a", "a.txt"), "[[https://go.dev|Go]] [[http://x.org]] [[local]]", markup.NewExtractor(""))
	got := p.ExternalLinks(resolver(t))
	want := []string{"http://x.org", "https://go.dev"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExternalLinks = %v, want %v", got, want)
	}
}

func TestQualify(t *testing.T) {
	tests := []struct{ ns, rel, want string }{
		{":ns:", ".:page", ":ns:page"},
		{":", ".:page", ":page"},
		{":ns:", "..:page", ":ns:page"},
		{":ns:", "..ns1:ns2:page", ":ns:ns2:page"},
		{":ns:", ".nocolon", ":ns:"},
	}
	for _, tt := range tests {
		if got := Qualify(tt.ns, tt.rel); got != tt.want {
			t.Errorf("Qualify(%q, %q) = %q, want %q", tt.ns, tt.rel, got, tt.want)
		}
	}
}
