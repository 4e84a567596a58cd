package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"whitkirk-services/internal/airtable"
	"whitkirk-services/internal/cache"
	"whitkirk-services/internal/config"
	"whitkirk-services/internal/service"
	"whitkirk-services/internal/tasks"
	"whitkirk-services/internal/web"
)

func main() {
	logger := config.NewLogger(nil, os.Getenv("VERBOSE") != "")

	cfg, err := config.Load(os.Getenv("WHITKIRK_CONFIG"))
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		logger.Fatal("invalid environment", "err", err)
	}
	if err := cfg.ValidateAirtable(); err != nil {
		logger.Fatal("airtable not configured", "err", err)
	}

	// Initialize cache
	cacheDir := filepath.Join(cfg.Paths.CacheDir, "server")
	c, err := cache.New[[]service.Summary](cacheDir, cfg.Server.CacheTTL)
	if err != nil {
		logger.Fatal("failed to initialize cache", "err", err)
	}

	engine, err := service.NewEngine(service.Settings{
		Overrides:         cfg.Overrides(),
		DefaultPlaylistID: cfg.YouTube.DefaultPlaylistID,
		ThumbnailDir:      cfg.Paths.DefaultThumbnailDir,
		ServiceImageDir:   cfg.Paths.ServiceImageDir,
		BaseID:            cfg.Airtable.BaseID,
		TableID:           cfg.Airtable.ServicesTableID,
	})
	if err != nil {
		logger.Fatal("failed to build service engine", "err", err)
	}

	runner := &tasks.Runner{
		Engine: engine,
		Records: airtable.NewClient(airtable.Options{
			APIKey:            cfg.Airtable.APIKey,
			BaseID:            cfg.Airtable.BaseID,
			TableID:           cfg.Airtable.ServicesTableID,
			RequestsPerSecond: cfg.Airtable.RequestsPerSecond,
			Logger:            logger,
		}),
		Logger: logger,
	}

	handler := web.New(runner, c, logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting", "port", cfg.Server.Port, "cache_dir", cacheDir, "cache_ttl", cfg.Server.CacheTTL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", "err", err)
	}
}
