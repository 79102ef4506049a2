//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	audit "nicgate/pkg/platform/audit"
	"nicgate/pkg/platform/privacy"
	"nicgate/pkg/testutil/containers"

	"github.com/stretchr/testify/suite"
)

type PostgresAuditStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
}

func TestPostgresAuditStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresAuditStoreSuite))
}

func (s *PostgresAuditStoreSuite) SetupSuite() {
	s.pg = containers.GetPostgresContainer(s.T())
	s.store = New(s.pg.Pool)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresAuditStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "nic_audit_events"))
}

func (s *PostgresAuditStoreSuite) TestAppendAndListBySubject() {
	ctx := context.Background()
	subject := privacy.HashIdentifier("923455123V")
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: base.Add(time.Minute),
		Subject:   subject,
		Action:    string(audit.EventNICAttemptsLocked),
		Decision:  "locked",
		Reason:    "gender_mismatch",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: base,
		Subject:   subject,
		Action:    string(audit.EventNICValidationFailed),
		Decision:  "invalid",
		Reason:    "gender_mismatch",
		RequestID: "req-1",
		ClientIP:  "203.0.113.0",
		Device:    "Chrome on Windows",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: base,
		Subject:   privacy.HashIdentifier("199212312345"),
		Action:    string(audit.EventNICDecoded),
	}))

	events, err := s.store.ListBySubject(ctx, subject)
	s.Require().NoError(err)
	s.Require().Len(events, 2)

	first := events[0]
	s.Equal(string(audit.EventNICValidationFailed), first.Action)
	s.Equal(audit.CategoryCompliance, first.Category)
	s.Equal(base, first.Timestamp)
	s.Equal("req-1", first.RequestID)
	s.Equal("203.0.113.0", first.ClientIP)
	s.Equal("Chrome on Windows", first.Device)

	s.Equal(audit.CategorySecurity, events[1].Category)
}

func (s *PostgresAuditStoreSuite) TestListRecent() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := range 3 {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Subject:   privacy.HashIdentifier("923455123V"),
			Action:    string(audit.EventNICDecoded),
		}))
	}

	events, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(base.Add(2*time.Minute), events[0].Timestamp)
	s.Equal(base.Add(time.Minute), events[1].Timestamp)
}
