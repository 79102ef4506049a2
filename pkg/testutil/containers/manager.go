//go:build integration

// Package containers starts shared testcontainers for integration suites.
// Each container is started once per test binary and reused by every suite.
package containers

import (
	"sync"
	"testing"
)

// Manager holds the lazily started containers.
type Manager struct {
	postgresOnce sync.Once
	postgres     *PostgresContainer

	redisOnce sync.Once
	redis     *RedisContainer

	redpandaOnce sync.Once
	redpanda     *RedpandaContainer
}

var manager = &Manager{}

// GetPostgresContainer returns the shared PostgreSQL container.
func GetPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	manager.postgresOnce.Do(func() {
		manager.postgres = NewPostgresContainer(t)
	})
	if manager.postgres == nil {
		t.Fatal("postgres container failed to start earlier in this run")
	}
	return manager.postgres
}

// GetRedisContainer returns the shared Redis container.
func GetRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	manager.redisOnce.Do(func() {
		manager.redis = NewRedisContainer(t)
	})
	if manager.redis == nil {
		t.Fatal("redis container failed to start earlier in this run")
	}
	return manager.redis
}

// GetRedpandaContainer returns the shared Redpanda container.
func GetRedpandaContainer(t *testing.T) *RedpandaContainer {
	t.Helper()
	manager.redpandaOnce.Do(func() {
		manager.redpanda = NewRedpandaContainer(t)
	})
	if manager.redpanda == nil {
		t.Fatal("redpanda container failed to start earlier in this run")
	}
	return manager.redpanda
}
