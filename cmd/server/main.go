// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/takbridge/internal/api"
	"github.com/tomtom215/takbridge/internal/bootstrap"
	"github.com/tomtom215/takbridge/internal/cache"
	"github.com/tomtom215/takbridge/internal/config"
	"github.com/tomtom215/takbridge/internal/datasync"
	"github.com/tomtom215/takbridge/internal/eventbus"
	"github.com/tomtom215/takbridge/internal/logging"
	"github.com/tomtom215/takbridge/internal/store"
	"github.com/tomtom215/takbridge/internal/supervisor"
	"github.com/tomtom215/takbridge/internal/supervisor/services"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Caller:  cfg.Logging.Caller,
		Service: "takbridge",
		Host:    cfg.TAK.Host,
	})

	logging.Info().
		Str("auth_mode", cfg.TAK.AuthMode).
		Bool("stream", cfg.Stream.Enabled).
		Bool("sync", cfg.Sync.Enabled).
		Bool("events", cfg.Events.Enabled).
		Msg("Starting TAKBridge with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.Open(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	client, err := bootstrap.Client(ctx, &cfg.TAK)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize TAK management client")
	}

	var publisher services.EventPublisher
	if cfg.Events.Enabled {
		bus, err := eventbus.Open(cfg.Events)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open event bus")
		}
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event bus")
			}
		}()
		publisher = bus
		logging.Info().Str("topic", bus.Topic()).Msg("Event bus initialized")
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.Timeout + 5*time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	var (
		streams []api.StreamInfo
		tracks  api.TrackSource
	)
	if cfg.Stream.Enabled {
		sc, err := bootstrap.Stream(cfg)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize stream client")
		}
		if _, err := bootstrap.RegisterSubscriber(ctx, db, cfg); err != nil {
			logging.Fatal().Err(err).Msg("Failed to register stream subscriber")
		}
		table := cache.NewTracks(cfg.Stream.TrackTTL)
		tree.AddStreamService(table)
		tracks = table
		tree.AddStreamService(services.NewStreamService(sc, services.Publishers{publisher, table}, cfg.Stream.ReconnectDelay))
		streams = append(streams, sc)
		logging.Info().Str("addr", bootstrap.Endpoint(&cfg.TAK).StreamAddr()).Msg("Stream service added to supervisor tree")
	}

	var scheduler api.Scheduler
	if cfg.Sync.Enabled {
		reconciler := datasync.NewReconciler(client, db, datasync.WithMaxLayers(cfg.Sync.MaxLayers))
		rs := services.NewReconcileService(db, reconciler, cfg.Sync.Interval)
		tree.AddSyncService(rs)
		scheduler = rs
		logging.Info().Dur("interval", cfg.Sync.Interval).Msg("Reconcile scheduler added to supervisor tree")
	}

	handler := api.NewHandler(streams, scheduler, client, tracks)
	server := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: api.NewRouter(handler, api.RouterConfig{
			RateLimitRequests: cfg.Server.RateLimitRequests,
			RateLimitWindow:   cfg.Server.RateLimitWindow,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
