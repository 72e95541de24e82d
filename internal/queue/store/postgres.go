package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"commission/internal/platform/postgres"
	"commission/internal/queue/models"
	"commission/pkg/platform/sentinel"
)

const entryColumns = `id, entity_type, entity_id, entity_name, status, submitted_at, submitted_by_id, submitted_by_name, payload`

// PostgresStore persists queue entries with their payload as JSONB keyed by
// entity_type.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, e *models.Entry) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal queue payload: %w", err)
	}
	_, err = postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO audit_queue (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			entity_type = EXCLUDED.entity_type,
			entity_id = EXCLUDED.entity_id,
			entity_name = EXCLUDED.entity_name,
			status = EXCLUDED.status,
			submitted_at = EXCLUDED.submitted_at,
			submitted_by_id = EXCLUDED.submitted_by_id,
			submitted_by_name = EXCLUDED.submitted_by_name,
			payload = EXCLUDED.payload`,
		e.ID, string(e.EntityType), e.EntityID, e.EntityName, e.Status, e.SubmittedAt,
		e.SubmittedByID, e.SubmittedByName, string(payload),
	)
	if err != nil {
		return fmt.Errorf("upsert queue entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, id string) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM audit_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete queue entry: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete queue entry rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("queue entry %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

// FindByID returns the entry. A row whose entity_type is not a known payload
// kind is returned with a nil payload so dispatch can report it.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Entry, error) {
	e, err := scanEntry(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM audit_queue WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("queue entry %s: %w", id, sentinel.ErrNotFound)
	}
	return e, err
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM audit_queue WHERE status = $1`
	args := []any{models.StatusPending}
	if filter.EntityType != "" {
		query += ` AND entity_type = $2`
		args = append(args, string(filter.EntityType))
	}
	query += ` ORDER BY submitted_at DESC, id`

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()

	out := []*models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT count(*) FROM audit_queue WHERE status = $1`, models.StatusPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count queue: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		e          models.Entry
		entityType string
		payload    []byte
	)
	err := row.Scan(&e.ID, &entityType, &e.EntityID, &e.EntityName, &e.Status, &e.SubmittedAt,
		&e.SubmittedByID, &e.SubmittedByName, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan queue entry: %w", err)
	}
	e.EntityType = models.EntityType(entityType)
	p, err := models.DecodePayload(e.EntityType, payload)
	switch {
	case errors.Is(err, sentinel.ErrInvalidState):
		// Payload stays nil; Dispatch reports the entry as invalid.
	case err != nil:
		return nil, err
	default:
		e.Payload = p
	}
	return &e, nil
}
