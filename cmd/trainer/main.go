// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Package main is the Shelfrank offline trainer.
//
// One run reads the rating table and product catalog, builds the three
// serving artifacts (neighbor index, latent factor model, popularity
// ranking) concurrently, and persists them as a new version in the
// artifact store. The three builds are independent, so a fixed SVD seed
// stays reproducible regardless of scheduling.
//
// Old artifact versions are pruned per the models.keep_versions setting.
// Held-out RMSE/MAE for the factor model are logged and stored in the
// artifact metadata; they never block the save.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/ingest"
	"github.com/tomtom215/shelfrank/internal/logging"
	"github.com/tomtom215/shelfrank/internal/metrics"
	"github.com/tomtom215/shelfrank/internal/recommend"
	"github.com/tomtom215/shelfrank/internal/recommend/algorithms"
	"github.com/tomtom215/shelfrank/internal/recommend/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Warn().Str("signal", sig.String()).Msg("Aborting training run")
		cancel()
	}()

	startedAt := time.Now()

	ratings, err := ingest.LoadRatings(cfg.Data.RatingsPath, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load rating table")
	}
	entries, err := ingest.LoadCatalog(cfg.Data.CatalogPath, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load product catalog")
	}
	catalog := recommend.NewCatalog(entries, logger)

	users := make(map[string]struct{})
	items := make(map[string]struct{})
	for _, r := range ratings {
		users[r.UserID] = struct{}{}
		items[r.ItemID] = struct{}{}
	}
	logging.Info().
		Int("ratings", len(ratings)).
		Int("users", len(users)).
		Int("items", len(items)).
		Int("catalog_items", catalog.Len()).
		Msg("Training inputs loaded")

	store, err := storage.NewStore(cfg.Models.Dir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open artifact store")
	}

	baseMeta := storage.ArtifactMetadata{
		TrainedAt:   startedAt,
		RatingCount: len(ratings),
		ItemCount:   len(items),
		UserCount:   len(users),
	}

	var (
		index *recommend.NeighborIndex
		model *recommend.FactorModel
		eval  algorithms.Evaluation
		pop   *recommend.PopularityRanking

		indexDuration time.Duration
		svdDuration   time.Duration
		popDuration   time.Duration
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		var err error
		index, err = algorithms.BuildNeighborIndex(gctx, ratings, catalog, algorithms.SimilarityConfig{
			K:          cfg.Similarity.K,
			NumWorkers: cfg.Similarity.NumWorkers,
		}, logger)
		indexDuration = time.Since(start)
		return err
	})

	g.Go(func() error {
		start := time.Now()
		var err error
		model, eval, err = algorithms.TrainSVD(gctx, ratings, algorithms.SVDConfig{
			Factors:        cfg.SVD.Factors,
			Epochs:         cfg.SVD.Epochs,
			LearningRate:   cfg.SVD.LearningRate,
			Regularization: cfg.SVD.Regularization,
			TestFraction:   cfg.SVD.TestFraction,
			Seed:           cfg.SVD.Seed,
			MinRating:      cfg.SVD.MinRating,
			MaxRating:      cfg.SVD.MaxRating,
		}, logger)
		svdDuration = time.Since(start)
		return err
	})

	g.Go(func() error {
		start := time.Now()
		var err error
		pop, err = algorithms.BuildPopularity(ratings)
		popDuration = time.Since(start)
		return err
	})

	if err := g.Wait(); err != nil {
		logging.Fatal().Err(err).Msg("Model build failed")
	}

	logging.Info().
		Float64("rmse", eval.RMSE).
		Float64("mae", eval.MAE).
		Int("train_size", eval.TrainSize).
		Int("test_size", eval.TestSize).
		Msg("Factor model evaluation")

	save(ctx, store, storage.ArtifactNeighbors, index, baseMeta, indexDuration, cfg.Models.KeepVersions)

	svdMeta := baseMeta
	svdMeta.RMSE = eval.RMSE
	svdMeta.MAE = eval.MAE
	save(ctx, store, storage.ArtifactSVD, model, svdMeta, svdDuration, cfg.Models.KeepVersions)

	save(ctx, store, storage.ArtifactPopularity, pop, baseMeta, popDuration, cfg.Models.KeepVersions)

	logging.Info().
		Dur("elapsed", time.Since(startedAt)).
		Msg("Training run complete")
}

// save persists one artifact as the next version and prunes old ones.
//
//nolint:gocritic // meta passed by value is intentional, each save mutates its copy
func save(ctx context.Context, store *storage.Store, name string, artifact interface{},
	meta storage.ArtifactMetadata, buildDuration time.Duration, keepVersions int) {
	version := 1
	if latest, ok := store.LatestVersion(name); ok {
		version = latest + 1
	}

	meta.BuildDurationMS = buildDuration.Milliseconds()
	saved, err := store.Save(ctx, name, version, artifact, meta)
	if err != nil {
		logging.Fatal().Err(err).Str("artifact", name).Msg("Failed to save artifact")
	}
	if err := store.Prune(ctx, name, keepVersions); err != nil {
		logging.Warn().Err(err).Str("artifact", name).Msg("Failed to prune old versions")
	}

	metrics.RecordTraining(name, buildDuration, version, saved.SizeBytes)

	logging.Info().
		Str("artifact", name).
		Int("version", version).
		Int64("size_bytes", saved.SizeBytes).
		Dur("build_duration", buildDuration).
		Msg("Artifact saved")
}
