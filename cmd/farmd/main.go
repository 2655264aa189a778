// Package main provides the farm daemon: it generates the world, loads the
// skill catalog, connects the character store and runs the periodic
// regeneration ticker until signalled.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/farmspot/internal/app"
	"github.com/cory-johannsen/farmspot/internal/config"
	"github.com/cory-johannsen/farmspot/internal/observability"
	"github.com/cory-johannsen/farmspot/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "farmd")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting farm daemon",
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("grid_size", cfg.World.GridSize),
	)

	a, err := app.Build(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("building application", zap.Error(err))
	}
	defer a.Close()

	if _, err := a.Farm.ClearStaleCombat(ctx); err != nil {
		logger.Fatal("clearing stale combat flags", zap.Error(err))
	}

	lifecycle := server.NewLifecycle(logger)
	if a.Regen != nil {
		lifecycle.Add("regen", server.NewContextService(a.Regen.Run))
	}
	if cfg.Storage.Driver == config.DriverPostgres {
		lifecycle.Add("store-health", server.NewContextService(func(ctx context.Context) error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := a.Health(ctx); err != nil && ctx.Err() == nil {
						logger.Warn("store health check failed", zap.Error(err))
					}
				}
			}
		}))
	}

	logger.Info("farm daemon initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Bool("regen", a.Regen != nil),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
