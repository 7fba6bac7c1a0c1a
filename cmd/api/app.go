package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/persistence"
	"github.com/spec-kit/ticket-desk/internal/repository"
	"github.com/spec-kit/ticket-desk/internal/sla"
)

// runtime holds process-wide dependencies shared by every command.
type runtime struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *observability.Metrics
	postgres   *persistence.Postgres
	redis      *persistence.Redis
	store      repository.Store
	dispatcher events.Dispatcher
	sink       events.Sink
}

func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logger, metrics: observability.NewMetrics()}

	rt.postgres, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pool := rt.postgres.PoolHandle(); pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			rt.postgres.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	rt.store = rt.postgres.Store()

	rt.redis = persistence.NewRedis(cfg.Redis, logger)
	rt.dispatcher = events.NewInMemoryDispatcher(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		rt.sink = events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info("publishing events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	return rt, nil
}

func (rt *runtime) sweeper() *sla.Sweeper {
	deps := sla.SweeperDependencies{
		Tickets:    rt.store.Repositories().Tickets,
		Dispatcher: rt.dispatcher,
		Logger:     rt.logger,
		Metrics:    rt.metrics,
	}
	if rt.redis != nil {
		deps.Locker = rt.redis
	}
	return sla.NewSweeper(deps)
}

func (rt *runtime) close() {
	if rt.sink != nil {
		if err := rt.sink.Close(); err != nil {
			rt.logger.Warn("close event sink", zap.Error(err))
		}
	}
	rt.redis.Close()
	rt.postgres.Close()
	_ = rt.logger.Sync()
}
