package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	employee "commission/internal/employee/models"
	"commission/internal/platform/postgres"
	"commission/internal/proposal/models"
	"commission/pkg/platform/sentinel"
)

const proposalColumns = `id, employee_id, employee_name, submitted_by_id, submitted_by_name, submitted_at,
	status, changes, snapshot, reason, resolved_at, reviewer_id, reviewer_name, notes`

// PostgresStore persists proposals. Changes and the submission snapshot are
// stored as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Proposal) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	args, err := proposalArgs(p)
	if err != nil {
		return err
	}
	_, err = postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO edit_proposals (`+proposalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		args...,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("proposal %s already exists: %w", p.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

// Execute locks the row with FOR UPDATE, validates and writes the result.
func (s *PostgresStore) Execute(ctx context.Context, id string, validate func(*models.Proposal) error, mutate func(*models.Proposal)) (*models.Proposal, error) {
	conn := postgres.Conn(ctx, s.db)
	current, err := scanProposal(conn.QueryRowContext(ctx,
		`SELECT `+proposalColumns+` FROM edit_proposals WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(current.Clone()); err != nil {
			return nil, err
		}
	}
	mutate(current)
	args, err := proposalArgs(current)
	if err != nil {
		return nil, err
	}
	_, err = conn.ExecContext(ctx, `
		UPDATE edit_proposals SET
			employee_id = $2, employee_name = $3, submitted_by_id = $4, submitted_by_name = $5,
			submitted_at = $6, status = $7, changes = $8, snapshot = $9, reason = $10,
			resolved_at = $11, reviewer_id = $12, reviewer_name = $13, notes = $14
		WHERE id = $1`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update proposal: %w", err)
	}
	return current, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Proposal, error) {
	return scanProposal(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+proposalColumns+` FROM edit_proposals WHERE id = $1`, id))
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Proposal, error) {
	var (
		where []string
		args  []any
	)
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + proposalColumns + ` FROM edit_proposals`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY submitted_at DESC, id"

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	out := []*models.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	return out, nil
}

func proposalArgs(p *models.Proposal) ([]any, error) {
	changes, err := json.Marshal(p.Changes)
	if err != nil {
		return nil, fmt.Errorf("marshal proposal changes: %w", err)
	}
	snapshot, err := json.Marshal(p.Current)
	if err != nil {
		return nil, fmt.Errorf("marshal proposal snapshot: %w", err)
	}
	var resolvedAt sql.NullTime
	if p.ResolvedAt != nil {
		resolvedAt = sql.NullTime{Time: *p.ResolvedAt, Valid: true}
	}
	return []any{
		p.ID, p.EmployeeID, p.EmployeeName, p.SubmittedByID, p.SubmittedByName, p.SubmittedAt,
		string(p.Status), string(changes), string(snapshot), p.Reason, resolvedAt,
		p.ReviewerID, p.ReviewerName, p.Notes,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (*models.Proposal, error) {
	var (
		p          models.Proposal
		status     string
		changes    []byte
		snapshot   []byte
		resolvedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.EmployeeID, &p.EmployeeName, &p.SubmittedByID, &p.SubmittedByName,
		&p.SubmittedAt, &status, &changes, &snapshot, &p.Reason, &resolvedAt,
		&p.ReviewerID, &p.ReviewerName, &p.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("proposal not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan proposal: %w", err)
	}
	p.Status = models.Status(status)
	if err := json.Unmarshal(changes, &p.Changes); err != nil {
		return nil, fmt.Errorf("unmarshal proposal changes: %w", err)
	}
	p.Current = &employee.Employee{}
	if err := json.Unmarshal(snapshot, p.Current); err != nil {
		return nil, fmt.Errorf("unmarshal proposal snapshot: %w", err)
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		p.ResolvedAt = &t
	}
	return &p, nil
}
