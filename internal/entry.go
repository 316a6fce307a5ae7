// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/wikigraph/internal/api"
	"github.com/starford/wikigraph/internal/graphservice"
	"github.com/starford/wikigraph/internal/mcpserver"
	"github.com/starford/wikigraph/internal/sse"
	"github.com/starford/wikigraph/internal/storage"
	"github.com/starford/wikigraph/internal/watch"
)

// NewLogger returns the structured JSON logger for cfg. Logs go to stderr;
// stdout is reserved for command output and the MCP stdio transport.
func NewLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// NewService opens the page and media stores described by cfg and returns
// a graph service with no snapshot yet.
func NewService(cfg *Config, logger *slog.Logger) (*graphservice.Service, error) {
	pages, err := storage.NewFS(cfg.Wiki.PagesDir, cfg.Wiki.StorageOptions()...)
	if err != nil {
		return nil, fmt.Errorf("init page storage: %w", err)
	}

	var mediaStore storage.Lister
	if cfg.Wiki.MediaDir != "" {
		fs, err := storage.NewFS(cfg.Wiki.MediaDir, storage.WithIgnore(cfg.Wiki.Ignore...))
		if err != nil {
			return nil, fmt.Errorf("init media storage: %w", err)
		}
		mediaStore = fs
	}

	return graphservice.New(pages, mediaStore, graphservice.Options{
		TemplatePrefixes:   cfg.Wiki.TemplatePrefixes,
		BaseURL:            cfg.Wiki.BaseURL,
		SignatureExclusion: cfg.Wiki.SignatureExclusion,
		Workers:            cfg.Wiki.Workers,
		OnReadError:        cfg.Wiki.OnReadError,
		ResolverCacheSize:  cfg.Wiki.ResolverCacheSize,
		Logger:             logger,
	})
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = NewLogger(app.config)
	}
	slog.SetDefault(app.logger)
	return app, nil
}

// Run starts the HTTP server with the given options and keeps the graph
// current while the wiki changes on disk.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("pages_dir", cfg.Wiki.PagesDir),
		slog.String("media_dir", cfg.Wiki.MediaDir),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, err := NewService(cfg, logger)
	if err != nil {
		return err
	}

	// Initial build. The server still starts on failure and reports not ready
	// until a later rebuild succeeds.
	if _, err := svc.Rebuild(ctx); err != nil {
		logger.Warn("initial build failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(cfg.Watch.GraphThrottle, sse.WithHeartbeat(30*time.Second))
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.Snapshot(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"building"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	if cfg.Watch.Enabled {
		roots := []string{cfg.Wiki.PagesDir}
		if cfg.Wiki.MediaDir != "" {
			roots = append(roots, cfg.Wiki.MediaDir)
		}
		g.Go(func() error {
			return watch.Watch(gCtx, roots, func(ctx context.Context) error {
				snap, err := svc.Rebuild(ctx)
				if err != nil {
					return err
				}
				if snap.Changes != nil && snap.Changes.Empty() {
					return nil
				}
				stats, err := svc.Stats(ctx)
				if err != nil {
					return err
				}
				broker.PublishGraph(stats)
				return nil
			}, watch.Options{
				Debounce: cfg.Watch.Debounce,
				Logger:   logger,
				OnChange: broker.PublishChange,
			})
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP builds the graph and serves MCP tools over stdio until stdin closes.
// With watching enabled the graph is rebuilt in the background as files change.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	svc, err := NewService(cfg, logger)
	if err != nil {
		return err
	}
	if _, err := svc.Rebuild(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Watch.Enabled {
		go func() {
			err := watch.Watch(watchCtx, []string{cfg.Wiki.PagesDir}, func(ctx context.Context) error {
				_, err := svc.Rebuild(ctx)
				return err
			}, watch.Options{Debounce: cfg.Watch.Debounce, Logger: logger})
			if err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
		}()
	}

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}
