package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/torwatch/backoffice/adapters/rest"
	"github.com/torwatch/backoffice/config"
	"github.com/torwatch/backoffice/core"
	"github.com/torwatch/backoffice/session"
	"github.com/torwatch/backoffice/ui"
)

func main() {
	debug := flag.Bool("debug", false, "Enable backend request debug logging")
	flag.Parse()

	// Set DEBUG environment variable if -debug flag is used
	if *debug {
		os.Setenv("DEBUG", "true")
	}

	cfg := config.LoadConfig()
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("backoffice stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, closeStore, err := openStore(cfg.Session)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions, err := session.NewAdapter(cfg.APIURL, store,
		session.WithTimeout(cfg.HTTP.RequestTimeout),
		session.WithCookieName(cfg.Session.CookieName),
		session.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	adapter, err := rest.New(cfg.APIURL,
		rest.WithTimeout(cfg.HTTP.RequestTimeout),
		rest.WithCookieName(cfg.Session.CookieName),
		rest.WithRateLimit(cfg.HTTP.RateLimitRPS, 1),
		rest.WithLogger(logger),
		rest.WithDebug(cfg.DebugEnabled),
	)
	if err != nil {
		return err
	}

	admin := core.New(adapter, sessions)
	admin.GetConfig().ItemsPerPage = cfg.PageSize

	admin.RegisterResource(core.ResourceIPs).
		WithPluralName("IPs").
		WithDefaultSort("ID", core.SortAsc)

	admin.RegisterResource(core.ResourceUsers).
		WithDefaultSort("Name", core.SortAsc)

	admin.RegisterResource(core.ResourceCountryCodes).
		Hidden(true)

	server := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: ui.Handler(admin, sessions, ui.Options{
			CORSOrigins:    cfg.HTTP.CORSOrigins,
			RequestTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
			Logger:         logger,
			CookieSecure:   cfg.Session.CookieSecure,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin API listening", "addr", cfg.ListenAddr, "backend", cfg.APIURL,
			"session_store", cfg.Session.Store, "cors_origins", cfg.HTTP.CORSOrigins)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore builds the configured session store and a function releasing it
func openStore(cfg *config.SessionConfig) (session.Store, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		return session.NewMemoryStore(), func() {}, nil
	case config.StoreSQLite:
		store, err := session.OpenSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		store, err := session.NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.DebugEnabled {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
