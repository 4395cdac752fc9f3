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

	"github.com/starford/versedraft/internal/api"
	"github.com/starford/versedraft/internal/draftservice"
	"github.com/starford/versedraft/internal/mcpserver"
	"github.com/starford/versedraft/internal/resolver"
	"github.com/starford/versedraft/internal/sse"
	"github.com/starford/versedraft/internal/storage"
	"github.com/starford/versedraft/internal/store"
)

// runtime bundles the components shared by every command.
type runtime struct {
	logger *slog.Logger
	vault  *storage.FS
	db     *store.DB
	svc    *draftservice.Service
}

func (app *application) start(ctx context.Context, opts ...draftservice.Option) (*runtime, error) {
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("database", cfg.Database.Driver()),
		slog.String("resolver", cfg.Drafts.Resolver),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	vault, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := store.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	if err := store.Sync(ctx, db, vault, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	policy, err := resolver.ByName(cfg.Drafts.Resolver)
	if err != nil {
		db.Close()
		return nil, err
	}
	svcOpts := append([]draftservice.Option{
		draftservice.WithPolicy(policy),
		draftservice.WithCacheSize(cfg.Drafts.CacheSize),
		draftservice.WithLogger(logger),
	}, opts...)
	svc, err := draftservice.New(db, vault, svcOpts...)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &runtime{logger: logger, vault: vault, db: db, svc: svc}, nil
}

// Run starts the HTTP server, the vault watcher and the event broker.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)

	broker := sse.NewBroker(throttle(app.config))
	defer broker.Close()

	rt, err := app.start(ctx, draftservice.WithNotifier(broker.PublishDraftEvent))
	if err != nil {
		return err
	}
	defer rt.db.Close()

	cfg := app.config
	logger := rt.logger

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.db.Ping(pingCtx); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Vault.Watch {
		g.Go(func() error {
			if err := store.Watch(gCtx, rt.db, rt.vault, rt.vault.Root(), logger, broker.PublishSourceEvent); err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdio. Logs go to app.logOut, which must
// not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))

	rt, err := app.start(ctx)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	rt.logger.Info("MCP server starting on stdio", slog.String("version", app.version))
	return mcpserver.New(rt.svc, app.version).ServeStdio()
}

func throttle(cfg *Config) time.Duration {
	if cfg == nil {
		return 0
	}
	return cfg.Vault.EventThrottle
}
