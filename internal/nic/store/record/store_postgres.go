package record

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"nicgate/internal/nic/domain"
	"nicgate/internal/nic/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

var errNilRecord = errors.New("validation record is required")

const recordColumns = `id, number_hash, format, outcome, failure, reason, client_ip, device, checked_at`

// PostgresStore persists validation records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the records table and its indexes when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for stmt := range strings.SplitSeq(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate validation records: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, record *models.ValidationRecord) error {
	if record == nil {
		return errNilRecord
	}
	query := `
		INSERT INTO nic_validation_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		record.ID,
		record.NumberHash,
		string(record.Format),
		string(record.Outcome),
		string(record.Failure),
		record.Reason,
		record.ClientIP,
		record.Device,
		record.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("save validation record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*models.ValidationRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM nic_validation_records
		ORDER BY checked_at DESC, id
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("list validation records: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("scan validation records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) FindByHash(ctx context.Context, numberHash string) ([]*models.ValidationRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM nic_validation_records
		WHERE number_hash = $1
		ORDER BY checked_at DESC, id
	`
	rows, err := s.pool.Query(ctx, query, numberHash)
	if err != nil {
		return nil, fmt.Errorf("find validation records: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("scan validation records: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.CollectableRow) (*models.ValidationRecord, error) {
	var (
		r                        models.ValidationRecord
		format, outcome, failure string
	)
	err := row.Scan(
		&r.ID,
		&r.NumberHash,
		&format,
		&outcome,
		&failure,
		&r.Reason,
		&r.ClientIP,
		&r.Device,
		&r.CheckedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Format = domain.Format(format)
	r.Outcome = domain.Outcome(outcome)
	r.Failure = domain.FailureKind(failure)
	r.CheckedAt = r.CheckedAt.UTC()
	return &r, nil
}
