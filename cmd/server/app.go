package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"nicgate/internal/nic/domain"
	nichandler "nicgate/internal/nic/handler"
	nicmetrics "nicgate/internal/nic/metrics"
	"nicgate/internal/nic/service"
	"nicgate/internal/nic/store/attempts"
	"nicgate/internal/nic/store/record"
	"nicgate/internal/platform/config"
	"nicgate/internal/platform/httpserver"
	httpmetrics "nicgate/internal/platform/metrics"
	"nicgate/internal/platform/postgres"
	"nicgate/internal/platform/redis"
	"nicgate/pkg/platform/audit/publisher"
	auditkafka "nicgate/pkg/platform/audit/store/kafka"
	auditmemory "nicgate/pkg/platform/audit/store/memory"
	auditpostgres "nicgate/pkg/platform/audit/store/postgres"
	"nicgate/pkg/platform/circuit"
)

// app holds the wired server and the resources that must be released on
// shutdown.
type app struct {
	router    http.Handler
	service   *service.Service
	publisher *publisher.Publisher

	// memAttempts is set when attempts live in process memory and need pruning.
	memAttempts *attempts.InMemoryStore

	closers []func()
}

// newApp connects the configured backends and wires the NIC feature. Any
// backend left unconfigured falls back to its in-memory store.
func newApp(ctx context.Context, cfg config.Server, log *slog.Logger, reg *prometheus.Registry) (*app, error) {
	a := &app{}
	checks := map[string]httpserver.HealthCheck{}

	pool, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pool != nil {
		a.closers = append(a.closers, pool.Close)
		checks["postgres"] = pool.Ping
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		checks["redis"] = redisClient.Health
	}

	records, err := newRecordStore(ctx, pool, log)
	if err != nil {
		a.close()
		return nil, err
	}

	var attemptStore service.AttemptStore
	if redisClient != nil {
		attemptStore = attempts.NewRedis(redisClient.Client, cfg.NIC.AttemptWindow)
		log.Info("attempt store: redis")
	} else {
		a.memAttempts = attempts.New(cfg.NIC.AttemptWindow)
		attemptStore = a.memAttempts
		log.Info("attempt store: memory")
	}

	auditStore, err := a.newAuditStore(ctx, cfg.Kafka, pool, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.publisher = publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
		publisher.WithLogger(log),
		publisher.WithCircuitBreaker(circuit.New("audit-store")),
	)
	// Drain the publisher before the sinks it writes to are closed.
	a.closers = append([]func(){a.publisher.Close}, a.closers...)

	a.service = service.New(
		service.WithLogger(log),
		service.WithMetrics(nicmetrics.NewWithRegisterer(reg)),
		service.WithAuditPublisher(a.publisher),
		service.WithRecordStore(records),
		service.WithAttemptStore(attemptStore),
		service.WithAttemptPolicy(service.AttemptPolicy{
			MaxFailures:  cfg.NIC.MaxFailedAttempts,
			LockDuration: cfg.NIC.LockoutDuration,
		}),
		service.WithValidator(domain.NewValidator(domain.WithDateTolerance(cfg.NIC.DateToleranceDays))),
	)

	a.router = httpserver.NewRouter(httpserver.RouterConfig{
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        httpmetrics.NewWithRegisterer(reg),
		Gatherer:       reg,
		HealthChecks:   checks,
	}, nichandler.New(a.service, log))

	return a, nil
}

func newRecordStore(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) (service.RecordStore, error) {
	if pool == nil {
		log.Info("record store: memory")
		return record.New(), nil
	}
	store := record.NewPostgres(pool)
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate record store: %w", err)
	}
	log.Info("record store: postgres")
	return store, nil
}

// newAuditStore prefers Kafka, then Postgres, then memory.
func (a *app) newAuditStore(ctx context.Context, cfg config.KafkaConfig, pool *pgxpool.Pool, log *slog.Logger) (publisher.Store, error) {
	switch {
	case len(cfg.Brokers) > 0:
		store, err := auditkafka.New(cfg.Brokers, cfg.AuditTopic)
		if err != nil {
			return nil, fmt.Errorf("create kafka audit sink: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		log.Info("audit store: kafka", "topic", cfg.AuditTopic)
		return store, nil
	case pool != nil:
		store := auditpostgres.New(pool)
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate audit store: %w", err)
		}
		log.Info("audit store: postgres")
		return store, nil
	default:
		log.Info("audit store: memory")
		return auditmemory.NewInMemoryStore(), nil
	}
}

// pruneAttempts drops expired in-memory attempt records until ctx is done.
func (a *app) pruneAttempts(ctx context.Context, every time.Duration, log *slog.Logger) error {
	if a.memAttempts == nil {
		return nil
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := a.memAttempts.Prune(ctx, now); n > 0 {
				log.Debug("pruned attempt records", "count", n)
			}
		}
	}
}

func (a *app) close() {
	for _, c := range a.closers {
		c()
	}
	a.closers = nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
