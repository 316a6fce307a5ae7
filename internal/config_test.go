package internal

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/starford/wikigraph/internal/testutil"
	pkgconfig "github.com/starford/wikigraph/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if len(cfg.Wiki.TemplatePrefixes) != 4 {
		t.Errorf("template prefixes = %v", cfg.Wiki.TemplatePrefixes)
	}
}

func TestWikiConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WikiConfig)
		wantErr bool
	}{
		{"missing pages dir", func(c *WikiConfig) { c.PagesDir = "" }, true},
		{"latin-1", func(c *WikiConfig) { c.Encoding = "iso-8859-1" }, false},
		{"unknown encoding", func(c *WikiConfig) { c.Encoding = "ebcdic" }, true},
		{"skip policy", func(c *WikiConfig) { c.OnReadError = "skip" }, false},
		{"bad policy", func(c *WikiConfig) { c.OnReadError = "retry" }, true},
		{"negative workers", func(c *WikiConfig) { c.Workers = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig().Wiki
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWikiConfig_EmptyPolicyDefaultsAbort(t *testing.T) {
	cfg := NewDefaultConfig().Wiki
	cfg.OnReadError = ""
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.OnReadError != "abort" {
		t.Errorf("OnReadError = %q, want abort", cfg.OnReadError)
	}
}

func TestWatchConfig_NegativeDebounce(t *testing.T) {
	cfg := WatchConfig{Debounce: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative debounce should fail")
	}
}

func TestShippedConfig_IgnoresNestedEntries(t *testing.T) {
	t.Setenv("WIKI_MEDIA_DIR", "")
	t.Setenv("WIKI_BASE_URL", "")
	t.Setenv("AUTH_MODE", "")
	t.Setenv("AUTH_TOKEN", "")

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load("../config/config.yaml", cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	_, store := testutil.TestWiki(t, map[string]string{
		"start.txt":      "",
		"ns/page.txt":    "",
		"ns/page.bak":    "",
		"ns/attic/x.txt": "",
	}, cfg.Wiki.StorageOptions()...)
	files, err := store.Files()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"ns/page.txt", "start.txt"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("files = %v, want %v", files, want)
	}
}
