package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"reelforge/server/internal/adapter/repo"
	"reelforge/server/internal/coordinator"
	"reelforge/server/internal/domain"
	"reelforge/server/internal/infra"
	"reelforge/server/internal/infra/credentials"
	"reelforge/server/internal/storage"
)

const (
	claimPollInterval = 2 * time.Second
	staleAfterSeconds = 900
	staleSweepEvery   = time.Minute
)

type worker struct {
	generations *repo.GenerationRepositoryPG
	coord       *coordinator.Coordinator
	logger      infra.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	credStore := credentials.NewStore(runner)
	if err := credStore.Overlay(ctx, cfg); err != nil {
		logger.Warn().Err(err).Msg("worker: failed to load stored provider keys")
	}

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	fileStore, err := storage.NewFileStore(storagePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}
	registry := coordinator.FromConfig(cfg, httpClient, &logger)
	caps := registry.Capabilities()
	logger.Info().
		Bool("selfhosted", caps.SelfHosted).
		Int("premium", len(caps.Premium)).
		Int("free", len(caps.Free)).
		Msg("worker: provider capabilities")

	generations := repo.NewGenerationRepository(runner)
	w := &worker{
		generations: generations,
		coord: coordinator.New(coordinator.Options{
			Registry: registry,
			Repo:     generations,
			Assets:   repo.NewAssetRepository(runner),
			Store:    fileStore,
			Logger:   logger,
		}),
		logger: logger,
	}

	if err := w.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *worker) run(ctx context.Context) error {
	w.logger.Info().Msg("worker: started")
	lastSweep := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if time.Since(lastSweep) >= staleSweepEvery {
			w.requeueStale(ctx)
			lastSweep = time.Now()
		}

		rec, err := w.generations.Claim(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				sleep(ctx, claimPollInterval)
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error().Err(err).Msg("worker: claim failed")
			sleep(ctx, claimPollInterval)
			continue
		}

		if err := w.coord.Run(ctx, rec); err != nil {
			w.logger.Error().Err(err).Str("generation_id", rec.ID).Msg("worker: generation errored")
		}
	}
}

// requeueStale returns generations abandoned by a crashed worker to the
// queue. Claimed rows carry RUNNING with a stale updated_at.
func (w *worker) requeueStale(ctx context.Context) {
	ids, err := w.generations.RequeueStale(ctx, staleAfterSeconds)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: stale sweep failed")
		return
	}
	for _, id := range ids {
		w.logger.Warn().Str("generation_id", id).Msg("worker: requeued stale generation")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
