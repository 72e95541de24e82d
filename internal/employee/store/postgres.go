package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"commission/internal/employee/models"
	"commission/internal/platform/postgres"
	"commission/pkg/platform/sentinel"
)

const employeeColumns = `id, name, email, position, department, employment_date, retirement_date, phone, status`

// PostgresStore persists employees in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed employee store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, e *models.Employee) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = models.StatusActive
	}
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Name, e.Email, e.Position, e.Department,
		e.EmploymentDate, e.RetirementDate, e.Phone, e.Status,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("employee already exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

// Update locks the row, merges changes and writes the merged record back.
func (s *PostgresStore) Update(ctx context.Context, id string, changes models.Changes) (*models.Employee, error) {
	conn := postgres.Conn(ctx, s.db)
	current, err := scanEmployee(conn.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	merged := changes.Apply(current)
	_, err = conn.ExecContext(ctx, `
		UPDATE employees
		SET name = $2, email = $3, position = $4, department = $5,
		    employment_date = $6, retirement_date = $7, phone = $8, status = $9
		WHERE id = $1`,
		merged.ID, merged.Name, merged.Email, merged.Position, merged.Department,
		merged.EmploymentDate, merged.RetirementDate, merged.Phone, merged.Status,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, fmt.Errorf("employee email already used: %w", sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return merged, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete employee rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("employee %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	return scanEmployee(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Employee, error) {
	var (
		where []string
		args  []any
	)
	if filter.Department != "" {
		args = append(args, filter.Department)
		where = append(where, fmt.Sprintf("lower(department) = lower($%d)", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("lower(status) = lower($%d)", len(args)))
	}
	if filter.Search != "" {
		args = append(args, postgres.ContainsPattern(filter.Search))
		where = append(where, fmt.Sprintf(`(lower(name) LIKE $%[1]d ESCAPE '\' OR lower(email) LIKE $%[1]d ESCAPE '\')`, len(args)))
	}
	query := `SELECT ` + employeeColumns + ` FROM employees`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	out := []*models.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*models.Employee, error) {
	var e models.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Position, &e.Department,
		&e.EmploymentDate, &e.RetirementDate, &e.Phone, &e.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan employee: %w", err)
	}
	return &e, nil
}
