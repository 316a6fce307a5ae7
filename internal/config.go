package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/wikigraph/internal/namespace"
	"github.com/starford/wikigraph/internal/pagegraph"
	"github.com/starford/wikigraph/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Wiki  WikiConfig        `yaml:"wiki"`
	Watch WatchConfig       `yaml:"watch"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Wiki.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WikiConfig describes the wiki data directories and how pages are read.
type WikiConfig struct {
	PagesDir string `yaml:"pages_dir"`
	// MediaDir is optional; without it media files are not inventoried.
	MediaDir           string   `yaml:"media_dir"`
	Encoding           string   `yaml:"encoding"`
	TemplatePrefixes   []string `yaml:"template_prefixes"`
	BaseURL            string   `yaml:"base_url"`
	SignatureExclusion string   `yaml:"signature_exclusion"`
	Ignore             []string `yaml:"ignore"`
	Workers            int      `yaml:"workers"`
	OnReadError        string   `yaml:"on_read_error"`
	ResolverCacheSize  int      `yaml:"resolver_cache_size"`
}

// Validate validates the wiki configuration.
func (c *WikiConfig) Validate() error {
	if c.OnReadError == "" {
		c.OnReadError = pagegraph.OnReadErrorAbort
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.PagesDir, validation.Required),
		validation.Field(&c.Workers, validation.Min(0), validation.Max(256)),
		validation.Field(&c.OnReadError, validation.In(pagegraph.OnReadErrorAbort, pagegraph.OnReadErrorSkip)),
		validation.Field(&c.ResolverCacheSize, validation.Min(0)),
	); err != nil {
		return err
	}
	if _, err := storage.LookupEncoding(c.Encoding); err != nil {
		return fmt.Errorf("wiki: %w", err)
	}
	return nil
}

// StorageOptions returns the page store options derived from the configuration.
func (c *WikiConfig) StorageOptions() []storage.Option {
	return []storage.Option{
		storage.WithEncoding(c.Encoding),
		storage.WithIgnore(c.Ignore...),
	}
}

// WatchConfig controls live rebuilds in serve mode.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
	// GraphThrottle is the minimum gap between graph.updated events.
	GraphThrottle time.Duration `yaml:"graph_throttle"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&c.GraphThrottle, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Wiki: WikiConfig{
			PagesDir:          "./data/pages",
			Encoding:          storage.EncodingUTF8,
			TemplatePrefixes:  append([]string(nil), namespace.DefaultTemplatePrefixes...),
			Workers:           4,
			OnReadError:       pagegraph.OnReadErrorAbort,
			ResolverCacheSize: 4096,
		},
		Watch: WatchConfig{
			Enabled:       true,
			Debounce:      500 * time.Millisecond,
			GraphThrottle: 2 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
