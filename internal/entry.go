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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultpress/internal/api"
	"github.com/starford/vaultpress/internal/ledger"
	"github.com/starford/vaultpress/internal/mcpserver"
	"github.com/starford/vaultpress/internal/press"
	"github.com/starford/vaultpress/internal/sse"
	"github.com/starford/vaultpress/internal/storage"
	"github.com/starford/vaultpress/internal/vault"
)

// App holds the wired components of one vaultpress process.
type App struct {
	cfg    *Config
	log    *slog.Logger
	site   *storage.FS
	ledger *ledger.DB
	cache  *vault.Cache
	broker *sse.Broker
	press  *press.Service
}

// New opens the site, the ledger and the vault and wires the press service.
func New(opts ...Option) (*App, error) {
	app := &application{logOutput: os.Stderr}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := NewLogger(cfg.App, app.logOutput)
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("site_root", cfg.Site.Root),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.String("policy", cfg.Site.Policy),
		slog.String("log_level", cfg.App.LogLevel.String()))

	a := &App{cfg: cfg, log: logger}
	if err := a.open(app); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) open(app *application) error {
	cfg := a.cfg

	// Ensure site directory exists.
	if err := os.MkdirAll(cfg.Site.Root, 0o755); err != nil {
		return fmt.Errorf("create site dir: %w", err)
	}

	site, err := storage.NewFS(cfg.Site.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	a.site = site

	if err := os.MkdirAll(filepath.Dir(cfg.Ledger.Path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	a.ledger, err = ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}

	// SSE broker.
	a.broker = sse.NewBroker(2 * time.Second)

	pressOpts := []press.Option{
		press.WithNotifier(a.broker),
		press.WithLogger(a.log),
	}
	if app.picker != nil {
		pressOpts = append(pressOpts, press.WithPicker(app.picker))
	}

	if cfg.Vault.Path != "" {
		locOpts := []vault.Option{vault.WithLogger(a.log)}
		if cfg.Vault.CachePath != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.Vault.CachePath), 0o755); err != nil {
				return fmt.Errorf("create cache dir: %w", err)
			}
			a.cache, err = vault.OpenCache(cfg.Vault.CachePath)
			if err != nil {
				return fmt.Errorf("init location cache: %w", err)
			}
			locOpts = append(locOpts, vault.WithCache(a.cache))
		}
		loc, err := vault.NewLocator(cfg.Vault.Path, locOpts...)
		if err != nil {
			return fmt.Errorf("init vault: %w", err)
		}
		pressOpts = append(pressOpts, press.WithVault(loc))
	} else {
		a.log.Warn("no vault configured, images will not be copied")
	}

	a.press = press.New(site, a.ledger, press.Layout{
		ContentDir: cfg.Site.ContentDir,
		Section:    cfg.Site.Section,
		AssetsDir:  cfg.Site.AssetsDir,
		Author:     cfg.Site.Author,
		BaseURL:    cfg.Site.BaseURL,
		Policy:     cfg.Site.Policy,
	}, pressOpts...)
	return nil
}

// Press returns the press service.
func (a *App) Press() *press.Service { return a.press }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.log }

// Close releases the broker, the location cache and the ledger.
func (a *App) Close() {
	if a.broker != nil {
		a.broker.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("close location cache", slog.String("error", err.Error()))
		}
	}
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.log.Warn("close ledger", slog.String("error", err.Error()))
		}
	}
}

// Handler builds the HTTP handler: health checks plus the API under /api.
func (a *App) Handler() http.Handler {
	apiRouter := api.NewRouter(a.press, a.cfg.Auth.AuthEnabled(), a.cfg.Auth.Token, a.broker, a.site)

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
		if _, err := a.ledger.ListRuns(1); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)
	return r
}

// Watch publishes drafts from the configured drafts directory until ctx is
// cancelled.
func (a *App) Watch(ctx context.Context, cb press.WatchCallback) error {
	dir := a.cfg.Vault.Drafts()
	if dir == "" {
		return fmt.Errorf("vault.drafts_dir is not configured")
	}
	return a.press.Watch(ctx, dir, press.WatchOptions{Callback: cb})
}

// ServeMCP serves the MCP tools on stdin/stdout.
func (a *App) ServeMCP() error {
	return mcpserver.New(a.press).ServeStdio()
}

// Serve runs the HTTP server, plus the drafts watcher when one is
// configured, until ctx is cancelled or a shutdown signal arrives.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.log

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: a.Handler(),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	// Start the drafts watcher; events reach SSE clients through the broker.
	if cfg.Vault.Drafts() != "" {
		g.Go(func() error {
			err := a.Watch(gCtx, func(path string, rep *press.Report, err error) {
				if err != nil {
					logger.Warn("draft publish failed", slog.String("path", path), slog.String("error", err.Error()))
				}
			})
			if err != nil && gCtx.Err() == nil {
				logger.Error("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
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
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
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

// Run opens the application and serves HTTP until shutdown.
func Run(ctx context.Context, opts ...Option) error {
	app, err := New(opts...)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Serve(ctx)
}
