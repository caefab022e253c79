// Package app wires configuration into a running docpersona server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dgallion1/docpersona/internal/api"
	"github.com/dgallion1/docpersona/internal/config"
	"github.com/dgallion1/docpersona/internal/metrics"
	"github.com/dgallion1/docpersona/internal/parser"
	"github.com/dgallion1/docpersona/internal/pathstore"
	"github.com/dgallion1/docpersona/internal/pipeline"
	"github.com/dgallion1/docpersona/internal/ranker"
	"github.com/dgallion1/docpersona/internal/service"
	"github.com/dgallion1/docpersona/internal/store"
)

// NewLogger returns the JSON logger used by every entry point.
func NewLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// OpenStore connects the configured document store backend.
func OpenStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return store.NewMemory(), nil
	case config.BackendPostgres:
		pg, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.BackendRedis:
		rd, err := store.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return rd, nil
	case config.BackendPathstore:
		return store.NewPathstore(pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// NewService builds the extract/rank service on top of st.
func NewService(cfg config.Config, st store.Store, m *metrics.Metrics, log *slog.Logger) *service.Service {
	rk := ranker.New(ranker.Options{
		TopSections: cfg.RankTopSections,
		TopExcerpts: cfg.RankTopExcerpts,
	})
	opts := parser.Options{MaxPages: cfg.MaxPages, MaxLinesPerPage: cfg.MaxLinesPerPage}
	return service.New(st, rk, opts, m, log)
}

// Run serves the HTTP API until ctx is cancelled, then drains the ingest
// workers and closes the store.
func Run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer st.Close()

	m := metrics.New(time.Hour)
	svc := NewService(cfg, st, m, log)

	orch := pipeline.NewOrchestrator(cfg, svc, st, m, log)
	orch.Start(ctx)
	defer orch.Stop()

	srv := api.NewServer(svc, orch, m, log, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting docpersona", "port", cfg.Port, "store", cfg.StoreBackend)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
