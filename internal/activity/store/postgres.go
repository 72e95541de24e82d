package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"commission/internal/activity/models"
	"commission/internal/platform/postgres"
)

// PostgresStore persists the activity trail. Rows are insert-only; the
// serial seq column breaks ties between entries sharing a timestamp.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry *models.Entry) error {
	var details []byte
	if len(entry.Details) > 0 {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal activity details: %w", err)
		}
	}
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO activity_log (id, actor_id, actor_name, action, entity_type, entity_id, entity_name, details, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.ActorID, entry.ActorName, entry.Action, string(entry.EntityType),
		entry.EntityID, entry.EntityName, nullJSON(details), entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Entry, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Actor != "" {
		p := arg(filter.Actor)
		where = append(where, fmt.Sprintf("(actor_id = %s OR lower(actor_name) = lower(%s))", p, p))
	}
	if filter.EntityType != "" {
		where = append(where, "entity_type = "+arg(string(filter.EntityType)))
	}
	if !filter.From.IsZero() {
		where = append(where, "timestamp >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "timestamp <= "+arg(filter.To))
	}
	if filter.Search != "" {
		p := arg(postgres.ContainsPattern(filter.Search))
		where = append(where, fmt.Sprintf(
			`(lower(action) LIKE %[1]s ESCAPE '\' OR lower(entity_name) LIKE %[1]s ESCAPE '\' OR lower(coalesce(details->>'notes', '')) LIKE %[1]s ESCAPE '\')`, p))
	}

	query := `SELECT id, actor_id, actor_name, action, entity_type, entity_id, entity_name, details, timestamp FROM activity_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, seq DESC"

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := []*models.Entry{}
	for rows.Next() {
		var (
			e          models.Entry
			entityType string
			details    []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.Action, &entityType,
			&e.EntityID, &e.EntityName, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		e.EntityType = models.EntityType(entityType)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal activity details: %w", err)
			}
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return out, nil
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
