package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nicgate/internal/platform/config"
)

func TestNew_EmptyURLMeansNotConfigured(t *testing.T) {
	pool, err := New(context.Background(), config.DatabaseConfig{})
	require.NoError(t, err)
	assert.Nil(t, pool)
}

func TestPoolConfig(t *testing.T) {
	cfg, err := PoolConfig(config.DatabaseConfig{
		URL:             "postgres://nicgate:nicgate@db:5432/nicgate?sslmode=disable",
		MaxConns:        20,
		MinConns:        2,
		MaxConnLifetime: 30 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(20), cfg.MaxConns)
	assert.Equal(t, int32(2), cfg.MinConns)
	assert.Equal(t, 30*time.Minute, cfg.MaxConnLifetime)
	assert.Equal(t, "db", cfg.ConnConfig.Host)
	assert.Equal(t, "nicgate", cfg.ConnConfig.Database)
	assert.Equal(t, pgx.QueryExecModeCacheStatement, cfg.ConnConfig.DefaultQueryExecMode)
}

func TestPoolConfig_InvalidURL(t *testing.T) {
	_, err := PoolConfig(config.DatabaseConfig{URL: "postgres://%zz"})
	require.Error(t, err)
}
