package record

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"nicgate/internal/nic/domain"
	"nicgate/internal/nic/models"

	"github.com/stretchr/testify/suite"
)

type InMemoryRecordStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	base  time.Time
}

func TestInMemoryRecordStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryRecordStoreSuite))
}

func (s *InMemoryRecordStoreSuite) SetupTest() {
	s.store = New()
	s.base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryRecordStoreSuite) record(nic string, offset time.Duration) *models.ValidationRecord {
	result := domain.Validate(domain.Claim{
		IdentityNumber:     nic,
		ClaimedGender:      "male",
		ClaimedDateOfBirth: "1992-12-10",
	})
	return models.NewValidationRecord(nic, result, "203.0.113.7", "", s.base.Add(offset))
}

func (s *InMemoryRecordStoreSuite) TestSave() {
	ctx := context.Background()

	s.Run("nil record is rejected", func() {
		s.Error(s.store.Save(ctx, nil))
	})

	s.Run("stored copy is isolated from caller mutation", func() {
		r := s.record("923455123V", 0)
		s.Require().NoError(s.store.Save(ctx, r))
		r.Reason = "mutated"

		got, err := s.store.FindByHash(ctx, r.NumberHash)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Empty(got[0].Reason)
	})
}

func (s *InMemoryRecordStoreSuite) TestListRecent() {
	ctx := context.Background()
	for i := range 5 {
		s.Require().NoError(s.store.Save(ctx, s.record("923455123V", time.Duration(i)*time.Minute)))
	}

	s.Run("returns newest first up to limit", func() {
		got, err := s.store.ListRecent(ctx, 3)
		s.Require().NoError(err)
		s.Require().Len(got, 3)
		s.Equal(s.base.Add(4*time.Minute), got[0].CheckedAt)
		s.Equal(s.base.Add(2*time.Minute), got[2].CheckedAt)
	})

	s.Run("limit above size returns everything", func() {
		got, err := s.store.ListRecent(ctx, 100)
		s.Require().NoError(err)
		s.Len(got, 5)
	})

	s.Run("non-positive limit returns nothing", func() {
		got, err := s.store.ListRecent(ctx, 0)
		s.Require().NoError(err)
		s.Empty(got)

		got, err = s.store.ListRecent(ctx, -1)
		s.Require().NoError(err)
		s.Empty(got)
	})
}

func (s *InMemoryRecordStoreSuite) TestFindByHash() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, s.record("923455123V", 0)))
	s.Require().NoError(s.store.Save(ctx, s.record("199212312345", time.Minute)))
	s.Require().NoError(s.store.Save(ctx, s.record("923455123v", 2*time.Minute)))

	got, err := s.store.FindByHash(ctx, models.NumberKey("923455123V"))
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(s.base.Add(2*time.Minute), got[0].CheckedAt)

	none, err := s.store.FindByHash(ctx, models.NumberKey("000000000V"))
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *InMemoryRecordStoreSuite) TestConcurrentSaves() {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			nic := fmt.Sprintf("9234551%02dV", i)
			s.NoError(s.store.Save(ctx, s.record(nic, time.Duration(i)*time.Second)))
		}()
	}
	wg.Wait()

	got, err := s.store.ListRecent(ctx, 100)
	s.Require().NoError(err)
	s.Len(got, 50)
}
