package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	audit "nicgate/pkg/platform/audit"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

const eventColumns = `category, occurred_at, subject, action, decision, reason, request_id, client_ip, device`

// Store keeps audit events in PostgreSQL so they can be queried per subject.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL audit store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the audit table and its indexes when missing.
func (s *Store) Migrate(ctx context.Context) error {
	for stmt := range strings.SplitSeq(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate audit events: %w", err)
		}
	}
	return nil
}

// Append inserts one event. The category is always derived from the action.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO nic_audit_events (id, ` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.pool.Exec(ctx, query,
		uuid.New(),
		string(audit.AuditEvent(event.Action).Category()),
		event.Timestamp,
		event.Subject,
		event.Action,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns a subject's events, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM nic_audit_events
		WHERE subject = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.pool.Query(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("list audit events by subject: %w", err)
	}
	return collectEvents(rows)
}

// ListRecent returns the most recent events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM nic_audit_events
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]audit.Event, error) {
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (audit.Event, error) {
		var (
			e        audit.Event
			category string
		)
		err := row.Scan(
			&category,
			&e.Timestamp,
			&e.Subject,
			&e.Action,
			&e.Decision,
			&e.Reason,
			&e.RequestID,
			&e.ClientIP,
			&e.Device,
		)
		e.Category = audit.EventCategory(category)
		e.Timestamp = e.Timestamp.UTC()
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan audit events: %w", err)
	}
	return events, nil
}
