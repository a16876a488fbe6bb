package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/thepwagner/madison/pkg/cache"
	"github.com/thepwagner/madison/pkg/madison"
)

// Run serves the web report until ctx is done, rebuilding the mapping in the background.
func Run(ctx context.Context, configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	src, err := BuildSource(cfg)
	if err != nil {
		return err
	}
	key, err := madison.KeyFuncByName(cfg.Key)
	if err != nil {
		return err
	}

	store := madison.NewStore()
	responses, err := cache.NewResponseCache(cfg.Cache.Responses)
	if err != nil {
		return err
	}
	var metrics *Metrics
	if cfg.Metrics {
		metrics = NewMetrics(responses)
	}

	h, err := NewHandler(store, responses, metrics)
	if err != nil {
		return err
	}

	refresher := madison.NewRefresher(src, store,
		madison.WithInterval(cfg.RefreshInterval),
		madison.WithBuildOptions(madison.WithKeyFunc(key)),
		madison.WithBuildHook(metrics.ObserveBuild),
	)
	go func() {
		_ = refresher.Run(ctx)
	}()

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: h,
	}

	go func() {
		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down")
		_ = srv.Shutdown(context.Background())
	}()

	slog.Info("listening", slog.String("addr", cfg.Addr), slog.Bool("metrics", cfg.Metrics))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Report builds the mapping once and renders the table for packages.
func Report(ctx context.Context, cfg *Config, packages []string, filter string) (string, error) {
	src, err := BuildSource(cfg)
	if err != nil {
		return "", err
	}
	key, err := madison.KeyFuncByName(cfg.Key)
	if err != nil {
		return "", err
	}

	if _, err := src.Update(ctx); err != nil {
		return "", fmt.Errorf("updating listings: %w", err)
	}
	m, err := madison.Build(ctx, src, madison.WithKeyFunc(key))
	if err != nil {
		return "", fmt.Errorf("building mapping: %w", err)
	}
	return madison.RenderTable(madison.Query(m, packages, filter)), nil
}
