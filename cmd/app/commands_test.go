package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/wikigraph/internal/graphservice"
	"github.com/starford/wikigraph/internal/testutil"
)

func builtService(t *testing.T) *graphservice.Service {
	t.Helper()
	_, store := testutil.TestWiki(t, map[string]string{
		"start.txt": "[[ns:a]] [[todo]]",
		"ns/a.txt":  "[[b]] [[:start]] [[:todo]]",
		"ns/b.txt":  "",
		"old/x.txt": "",
	})
	svc, err := graphservice.New(store, nil, graphservice.Options{
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestPrintOrphans(t *testing.T) {
	var out bytes.Buffer
	if err := printOrphans(context.Background(), nil, builtService(t), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), ":old:x\n") {
		t.Errorf("orphans = %q", out.String())
	}
}

func TestPrintWanted(t *testing.T) {
	var out bytes.Buffer
	if err := printWanted(context.Background(), nil, builtService(t), &out); err != nil {
		t.Fatal(err)
	}
	if got, want := out.String(), ":todo\t:ns:a :start\n"; got != want {
		t.Errorf("wanted = %q, want %q", got, want)
	}
}

func TestPrintStats(t *testing.T) {
	var out bytes.Buffer
	if err := printStats(context.Background(), nil, builtService(t), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"wanted": 1`) {
		t.Errorf("stats = %s", out.String())
	}
}

func TestPrintLines(t *testing.T) {
	var out bytes.Buffer
	if err := printLines(&out, []string{":a", ":b"}); err != nil {
		t.Fatal(err)
	}
	if out.String() != ":a\n:b\n" {
		t.Errorf("out = %q", out.String())
	}
}
