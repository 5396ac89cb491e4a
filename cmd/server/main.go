// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Command server runs the SecureCrop backend: the recommendation
// pipeline, the HTTP API and the background weather poller, all under
// one supervision tree.
//
// Configuration is read from config.yaml (or the file named by
// SECURECROP_CONFIG) with SECURECROP_* environment overrides; see
// internal/config.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/securecrop/securecrop/internal/api"
	"github.com/securecrop/securecrop/internal/audit"
	"github.com/securecrop/securecrop/internal/config"
	"github.com/securecrop/securecrop/internal/database"
	"github.com/securecrop/securecrop/internal/explain"
	"github.com/securecrop/securecrop/internal/guide"
	"github.com/securecrop/securecrop/internal/logging"
	"github.com/securecrop/securecrop/internal/market"
	"github.com/securecrop/securecrop/internal/ml"
	"github.com/securecrop/securecrop/internal/notify"
	"github.com/securecrop/securecrop/internal/recommend"
	"github.com/securecrop/securecrop/internal/screening"
	"github.com/securecrop/securecrop/internal/supervisor"
	"github.com/securecrop/securecrop/internal/supervisor/services"
	"github.com/securecrop/securecrop/internal/weather"
)

func main() {
	// Configuration first; logging settings live in it.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("models_dir", cfg.Models.Dir).
		Bool("weather_poll", cfg.Weather.PollEnabled).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	auditStore := audit.NewDuckDBStore(db.Conn())
	if err := auditStore.CreateTable(context.Background()); err != nil {
		logging.Fatal().Err(err).Msg("Failed to create audit schema")
	}

	// Model artifacts are loaded once; the registry is immutable afterwards.
	registry, err := ml.LoadRegistry(cfg.Models.Dir, ml.DetectorOptions{
		Contamination:   cfg.Screening.AnomalyContamination,
		TrainingSamples: cfg.Screening.AnomalyTrainingSamples,
		Seed:            cfg.Screening.AnomalySeed,
	})
	if err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.Models.Dir).Msg("Failed to load model artifacts")
	}
	logging.Info().Msg("Model registry loaded")

	recorder := audit.NewRecorder(auditStore)
	screener := screening.New(registry, recorder, cfg.Screening.ConfidenceThreshold)
	pipeline := recommend.NewPipeline(db, screener, recorder, registry,
		explain.NewGenerator(registry), guide.NewClient(cfg.Guide))

	// Badger backs the market search cache. A failure here is non-fatal:
	// the market client degrades to uncached fetches.
	var cacheDB *badger.DB
	cacheDB, err = badger.Open(badger.DefaultOptions(cfg.Database.CachePath).WithLogger(nil))
	if err != nil {
		logging.Warn().Err(err).Str("path", cfg.Database.CachePath).Msg("Cache store unavailable, running uncached")
		cacheDB = nil
	} else {
		defer func() {
			if err := cacheDB.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing cache store")
			}
		}()
	}

	weatherClient := weather.NewClient(cfg.Weather)
	defer weatherClient.Close()
	marketClient := market.NewClient(cfg.Market, cacheDB)
	webhook := notify.NewWebhookNotifier(cfg.Notify)
	pipeline.SetAuditNotifier(webhook)

	router := api.NewRouter(cfg, db, pipeline, auditStore, registry, weatherClient, marketClient)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// sutureslog needs an slog logger; bridge it to zerolog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	if cfg.Weather.PollEnabled {
		tree.AddBackgroundService(weather.NewPoller(weatherClient, db, webhook, cfg.Weather))
		logging.Info().Dur("interval", cfg.Weather.PollInterval).Msg("Weather poller service added")
	}
	tree.AddBackgroundService(services.NewMaintenanceService(db, auditStore, cacheDB, 10*time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the channel so all children have stopped before closing stores.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Stopped gracefully")
}
