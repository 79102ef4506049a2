package attempts

import (
	"context"
	"sync"
	"testing"
	"time"

	"nicgate/internal/nic/models"

	"github.com/stretchr/testify/suite"
)

type InMemoryAttemptStoreSuite struct {
	suite.Suite
	store  *InMemoryStore
	window time.Duration
	base   time.Time
}

func TestInMemoryAttemptStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryAttemptStoreSuite))
}

func (s *InMemoryAttemptStoreSuite) SetupTest() {
	s.window = 15 * time.Minute
	s.store = New(s.window)
	s.base = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryAttemptStoreSuite) TestGet() {
	ctx := context.Background()

	s.Run("missing key returns nil without error", func() {
		record, err := s.store.Get(ctx, "unknown")
		s.NoError(err)
		s.Nil(record)
	})

	s.Run("existing record is returned as a copy", func() {
		_, err := s.store.RecordFailure(ctx, "hash-a", s.base)
		s.Require().NoError(err)

		record, err := s.store.Get(ctx, "hash-a")
		s.Require().NoError(err)
		s.Require().NotNil(record)
		s.Equal(1, record.Failures)

		record.Failures = 99
		again, err := s.store.Get(ctx, "hash-a")
		s.Require().NoError(err)
		s.Equal(1, again.Failures)
	})
}

func (s *InMemoryAttemptStoreSuite) TestRecordFailure() {
	ctx := context.Background()

	s.Run("first failure creates record", func() {
		record, err := s.store.RecordFailure(ctx, "new", s.base)
		s.Require().NoError(err)
		s.Equal("new", record.Key)
		s.Equal(1, record.Failures)
		s.Equal(s.base, record.FirstFailureAt)
		s.Equal(s.base, record.LastFailureAt)
		s.Nil(record.LockedUntil)
	})

	s.Run("subsequent failures in window increment", func() {
		_, err := s.store.RecordFailure(ctx, "repeat", s.base)
		s.Require().NoError(err)
		record, err := s.store.RecordFailure(ctx, "repeat", s.base.Add(time.Minute))
		s.Require().NoError(err)
		s.Equal(2, record.Failures)
		s.Equal(s.base, record.FirstFailureAt)
	})

	s.Run("failure after window restarts count", func() {
		_, err := s.store.RecordFailure(ctx, "slow", s.base)
		s.Require().NoError(err)
		record, err := s.store.RecordFailure(ctx, "slow", s.base.Add(s.window+time.Second))
		s.Require().NoError(err)
		s.Equal(1, record.Failures)
	})

	s.Run("concurrent failures are all counted", func() {
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.store.RecordFailure(ctx, "burst", s.base)
				s.NoError(err)
			}()
		}
		wg.Wait()

		record, err := s.store.Get(ctx, "burst")
		s.Require().NoError(err)
		s.Equal(20, record.Failures)
	})
}

func (s *InMemoryAttemptStoreSuite) TestUpdateAndClear() {
	ctx := context.Background()

	s.Run("nil record is rejected", func() {
		s.Error(s.store.Update(ctx, nil))
	})

	s.Run("update persists lock", func() {
		record, err := s.store.RecordFailure(ctx, "locked", s.base)
		s.Require().NoError(err)
		record.ApplyLock(time.Hour, s.base)
		s.Require().NoError(s.store.Update(ctx, record))

		got, err := s.store.Get(ctx, "locked")
		s.Require().NoError(err)
		s.True(got.IsLockedAt(s.base.Add(30 * time.Minute)))
	})

	s.Run("clear keeps an active lock", func() {
		cleared, err := s.store.Clear(ctx, "locked", s.base.Add(30*time.Minute))
		s.Require().NoError(err)
		s.False(cleared)
		got, err := s.store.Get(ctx, "locked")
		s.Require().NoError(err)
		s.NotNil(got)
	})

	s.Run("clear removes record once the lock ended", func() {
		cleared, err := s.store.Clear(ctx, "locked", s.base.Add(time.Hour))
		s.Require().NoError(err)
		s.True(cleared)
		got, err := s.store.Get(ctx, "locked")
		s.NoError(err)
		s.Nil(got)
	})

	s.Run("clear of missing key is not an error", func() {
		cleared, err := s.store.Clear(ctx, "never-existed", s.base)
		s.NoError(err)
		s.True(cleared)
	})
}

func (s *InMemoryAttemptStoreSuite) TestPrune() {
	ctx := context.Background()
	_, err := s.store.RecordFailure(ctx, "old", s.base)
	s.Require().NoError(err)

	locked, err := s.store.RecordFailure(ctx, "locked", s.base)
	s.Require().NoError(err)
	locked.ApplyLock(time.Hour, s.base)
	s.Require().NoError(s.store.Update(ctx, locked))

	removed := s.store.Prune(ctx, s.base.Add(s.window))
	s.Equal(1, removed)

	got, err := s.store.Get(ctx, "locked")
	s.Require().NoError(err)
	s.NotNil(got)

	var record *models.AttemptRecord
	record, err = s.store.Get(ctx, "old")
	s.NoError(err)
	s.Nil(record)
}
