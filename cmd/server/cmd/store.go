package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/metrics"
	"github.com/Togather-Foundation/eventboard/internal/storage/memory"
	"github.com/Togather-Foundation/eventboard/internal/storage/postgres"
	"github.com/rs/zerolog"
)

const dbMetricsInterval = 15 * time.Second

// openRepository returns the event store selected by cfg.Database and a
// function releasing it. Postgres is migrated first when MigrateOnStart is set.
func openRepository(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (events.Repository, func(), error) {
	if cfg.UsesMemoryStore() {
		logger.Warn().Msg("using in-memory event store; data is lost on restart")
		return memory.NewEventRepository(), func() {}, nil
	}

	if cfg.MigrateOnStart {
		connString, err := cfg.ConnString()
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.MigrateUp(connString); err != nil {
			return nil, nil, err
		}
		logger.Info().Msg("database migrations applied")
	}

	pool, err := postgres.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	repo, err := postgres.NewEventRepository(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	collectorCtx, cancel := context.WithCancel(context.Background())
	go metrics.NewDBCollector(pool).Start(collectorCtx, dbMetricsInterval)
	logger.Info().Msg("database metrics collector started")

	return repo, func() {
		cancel()
		pool.Close()
	}, nil
}
