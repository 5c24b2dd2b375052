package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"reelforge/server/internal/adapter/repo"
	"reelforge/server/internal/coordinator"
	"reelforge/server/internal/http/handlers"
	"reelforge/server/internal/http/httpapi"
	"reelforge/server/internal/infra"
	"reelforge/server/internal/infra/credentials"
	"reelforge/server/internal/infra/geoip"
	"reelforge/server/internal/middleware"
	"reelforge/server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	credStore := credentials.NewStore(runner)
	if err := credStore.Overlay(ctx, cfg); err != nil {
		logger.Warn().Err(err).Msg("api: failed to load stored provider keys")
	}

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	fileStore, err := storage.NewFileStore(storagePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}

	// The API only needs the capability snapshot; generation work happens in
	// the worker process.
	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}
	registry := coordinator.FromConfig(cfg, httpClient, &logger)

	var lookup middleware.CountryLookup
	if resolver, err := geoip.NewResolver(cfg.GeoIPDBPath); err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := &handlers.App{
		SQL:          runner,
		Generations:  repo.NewGenerationRepository(runner),
		Assets:       repo.NewAssetRepository(runner),
		Credentials:  credStore,
		Capabilities: registry.Capabilities(),
		Logger:       logger,
		AdminToken:   cfg.AdminToken,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.AllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       fileStore.BasePath(),
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: shutdown failed")
	}
	logger.Info().Msg("api: stopped")
}
