package internal

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/wikigraph/internal/testutil"
)

func TestNewService_WithMedia(t *testing.T) {
	root := t.TempDir()
	pages := filepath.Join(root, "pages")
	mediaDir := filepath.Join(root, "media")
	testutil.WriteTree(t, pages, map[string]string{
		"start.txt": "{{logo.png}} {{gone.png}}",
	})
	testutil.WriteTree(t, mediaDir, map[string]string{
		"logo.png": "png",
	})

	cfg := NewDefaultConfig()
	cfg.Wiki.PagesDir = pages
	cfg.Wiki.MediaDir = mediaDir
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	svc, err := NewService(cfg, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	rep, err := svc.MediaAudit(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rep.Missing["gone.png"]; !ok || len(rep.Missing) != 1 {
		t.Errorf("missing = %v, want only gone.png", rep.Missing)
	}
}

func TestNewService_MissingPagesDir(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Wiki.PagesDir = filepath.Join(t.TempDir(), "nope")
	if _, err := NewService(cfg, nil); err == nil {
		t.Fatal("expected error for missing pages dir")
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}
