// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Package main is the Shelfrank query server.
//
// The server loads the latest artifact set built by the trainer (neighbor
// index, latent factor model, popularity ranking) plus the rating table,
// and serves read-only recommendation queries over HTTP. It holds no
// mutable state: refreshing models means rerunning the trainer and
// restarting the server.
//
// Startup order:
//
//  1. Configuration: defaults, optional config.yaml, SHELFRANK_* env vars
//  2. Logging: zerolog, JSON or console format
//  3. Artifact store: load the latest version of all three artifacts
//  4. Rating table: needed to exclude already-rated items per user
//  5. HTTP server: Chi router with graceful shutdown on SIGINT/SIGTERM
//
// A missing or partial artifact set is fatal; run the trainer first.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/shelfrank/internal/api"
	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/ingest"
	"github.com/tomtom215/shelfrank/internal/logging"
	"github.com/tomtom215/shelfrank/internal/recommend"
	"github.com/tomtom215/shelfrank/internal/recommend/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config is not available yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("models_dir", cfg.Models.Dir).
		Str("ratings_path", cfg.Data.RatingsPath).
		Int("port", cfg.Server.Port).
		Msg("Starting Shelfrank server")

	store, err := storage.NewStore(cfg.Models.Dir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open artifact store")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	set, err := store.LoadLatest(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load artifacts (run the trainer first)")
	}
	logging.Info().
		Int("neighbors_version", set.IndexMeta.Version).
		Int("svd_version", set.ModelMeta.Version).
		Int("popularity_version", set.PopularityMeta.Version).
		Float64("rmse", set.ModelMeta.RMSE).
		Msg("Artifacts loaded")

	ratings, err := ingest.LoadRatings(cfg.Data.RatingsPath, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load rating table")
	}

	svc, err := recommend.NewService(set.Index, set.Model, set.Popularity, ratings,
		recommend.ServiceConfig{MaxCandidates: cfg.Limits.MaxCandidates}, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build recommendation service")
	}

	artifacts := []storage.ArtifactMetadata{*set.IndexMeta, *set.ModelMeta, *set.PopularityMeta}
	handler := api.NewHandler(svc, cfg.Limits, artifacts, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}

	logging.Info().Msg("Server stopped gracefully")
}
