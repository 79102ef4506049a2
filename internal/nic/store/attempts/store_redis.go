package attempts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nicgate/internal/nic/models"
	"nicgate/pkg/platform/sentinel"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "nicgate:attempts:"

	// maxTxRetries bounds optimistic retries when another writer touches the key
	// between WATCH and EXEC.
	maxTxRetries = 10

	minTTL = time.Second
)

// RedisStore keeps attempt records as JSON values that expire once neither
// the counting window nor the lock is active.
type RedisStore struct {
	client redis.UniversalClient
	window time.Duration
}

func NewRedis(client redis.UniversalClient, window time.Duration) *RedisStore {
	return &RedisStore{client: client, window: window}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*models.AttemptRecord, error) {
	record, err := load(ctx, s.client, redisKey(key))
	if err != nil {
		return nil, fmt.Errorf("get attempt record: %w", err)
	}
	return record, nil
}

// RecordFailure increments the counter under WATCH so concurrent failures on
// the same number are never lost.
func (s *RedisStore) RecordFailure(ctx context.Context, key string, now time.Time) (*models.AttemptRecord, error) {
	rk := redisKey(key)
	var updated *models.AttemptRecord

	txf := func(tx *redis.Tx) error {
		record, err := load(ctx, tx, rk)
		if err != nil {
			return err
		}
		if record == nil {
			record = &models.AttemptRecord{Key: key}
		}
		record.RegisterFailure(now, s.window)

		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, data, s.ttl(record))
			return nil
		})
		if err != nil {
			return err
		}
		updated = record
		return nil
	}

	for range maxTxRetries {
		err := s.client.Watch(ctx, txf, rk)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("record failure: %w", err)
	}
	return nil, fmt.Errorf("record failure: %w", sentinel.ErrConflict)
}

func (s *RedisStore) Update(ctx context.Context, record *models.AttemptRecord) error {
	if record == nil {
		return errNilRecord
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal attempt record: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(record.Key), data, s.ttl(record)).Err(); err != nil {
		return fmt.Errorf("update attempt record: %w", err)
	}
	return nil
}

// Clear deletes the record under WATCH unless it is locked at now, so a lock
// written by a concurrent failure is never erased.
func (s *RedisStore) Clear(ctx context.Context, key string, now time.Time) (bool, error) {
	rk := redisKey(key)
	var cleared bool

	txf := func(tx *redis.Tx) error {
		record, err := load(ctx, tx, rk)
		if err != nil {
			return err
		}
		if record.IsLockedAt(now) {
			cleared = false
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, rk)
			return nil
		})
		if err != nil {
			return err
		}
		cleared = true
		return nil
	}

	for range maxTxRetries {
		err := s.client.Watch(ctx, txf, rk)
		if err == nil {
			return cleared, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, fmt.Errorf("clear attempt record: %w", err)
	}
	return false, fmt.Errorf("clear attempt record: %w", sentinel.ErrConflict)
}

// ttl is measured from the last failure rather than the wall clock so records
// written with request-scoped time keep a consistent lifetime.
func (s *RedisStore) ttl(record *models.AttemptRecord) time.Duration {
	return max(record.ExpiresAt(s.window).Sub(record.LastFailureAt), minTTL)
}

func redisKey(key string) string {
	return keyPrefix + key
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, c getter, rk string) (*models.AttemptRecord, error) {
	data, err := c.Get(ctx, rk).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record models.AttemptRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode attempt record: %w", err)
	}
	return &record, nil
}
