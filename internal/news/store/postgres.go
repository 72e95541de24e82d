package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"commission/internal/news/models"
	"commission/internal/platform/postgres"
	"commission/pkg/platform/sentinel"
)

const articleColumns = `id, title, summary, content, category, image_url, tags, status,
	author_id, author_name, created_at, updated_at, submitted_at, submission_notes,
	published_at, published_by_id, published_by_name, approval_notes, rejection_notes`

// PostgresStore persists articles in PostgreSQL. Tags are a text[] column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Article) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO news_articles (`+articleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		articleArgs(a)...,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("article %s already exists: %w", a.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// Execute locks the row with FOR UPDATE for the rest of the surrounding
// transaction, then validates and writes the mutated article.
func (s *PostgresStore) Execute(ctx context.Context, id string, validate func(*models.Article) error, mutate func(*models.Article)) (*models.Article, error) {
	conn := postgres.Conn(ctx, s.db)
	current, err := scanArticle(conn.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM news_articles WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(current.Clone()); err != nil {
			return nil, err
		}
	}
	mutate(current)
	_, err = conn.ExecContext(ctx, `
		UPDATE news_articles SET
			title = $2, summary = $3, content = $4, category = $5, image_url = $6, tags = $7,
			status = $8, author_id = $9, author_name = $10, created_at = $11, updated_at = $12,
			submitted_at = $13, submission_notes = $14, published_at = $15, published_by_id = $16,
			published_by_name = $17, approval_notes = $18, rejection_notes = $19
		WHERE id = $1`,
		articleArgs(current)...,
	)
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	return current, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Article, error) {
	return scanArticle(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM news_articles WHERE id = $1`, id))
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Article, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		where = append(where, fmt.Sprintf("author_id = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("lower(category) = lower($%d)", len(args)))
	}
	query := `SELECT ` + articleColumns + ` FROM news_articles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id"

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	out := []*models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return out, nil
}

func articleArgs(a *models.Article) []any {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{
		a.ID, a.Title, a.Summary, a.Content, a.Category, a.ImageURL, pq.Array(tags), string(a.Status),
		a.AuthorID, a.AuthorName, a.CreatedAt, a.UpdatedAt, nullTime(a.SubmittedAt), a.SubmissionNotes,
		nullTime(a.PublishedAt), a.PublishedByID, a.PublishedByName, a.ApprovalNotes, a.RejectionNotes,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var (
		a           models.Article
		status      string
		tags        pq.StringArray
		submittedAt sql.NullTime
		publishedAt sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Title, &a.Summary, &a.Content, &a.Category, &a.ImageURL, &tags, &status,
		&a.AuthorID, &a.AuthorName, &a.CreatedAt, &a.UpdatedAt, &submittedAt, &a.SubmissionNotes,
		&publishedAt, &a.PublishedByID, &a.PublishedByName, &a.ApprovalNotes, &a.RejectionNotes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	a.Status = models.Status(status)
	a.Tags = []string(tags)
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if submittedAt.Valid {
		t := submittedAt.Time
		a.SubmittedAt = &t
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		a.PublishedAt = &t
	}
	return &a, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
