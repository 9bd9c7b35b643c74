package jobstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rsilvagit/go-vacancies/internal/model"
)

//go:embed schema.sql
var schema string

// ChangeNotifier broadcasts collection changes between processes.
type ChangeNotifier interface {
	Publish(ctx context.Context, op, id string) error
	Watch(ctx context.Context) (Feed, error)
}

// PostgresStore keeps postings in the jobs table. Writes are announced on
// the notifier so every process watching the collection re-reads it.
type PostgresStore struct {
	pool     *pgxpool.Pool
	notifier ChangeNotifier
}

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("jobstore: pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("jobstore: postgres ping failed: %w", err)
	}

	return pool, nil
}

func NewPostgresStore(pool *pgxpool.Pool, notifier ChangeNotifier) *PostgresStore {
	return &PostgresStore{pool: pool, notifier: notifier}
}

// Migrate creates the jobs table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("jobstore: migrate: %w", err)
	}
	return nil
}

const selectPosting = `SELECT id, title, description, salary, user_id, user_email, status, created_at FROM jobs`

func (s *PostgresStore) List(ctx context.Context) ([]model.LocalJobPosting, error) {
	rows, err := s.pool.Query(ctx, selectPosting+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("jobstore: list: %w", err)
	}
	defer rows.Close()

	out := make([]model.LocalJobPosting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("jobstore: list scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jobstore: list: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (model.LocalJobPosting, error) {
	p, err := scanPosting(s.pool.QueryRow(ctx, selectPosting+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LocalJobPosting{}, ErrNotFound
	}
	if err != nil {
		return model.LocalJobPosting{}, fmt.Errorf("jobstore: get %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) Insert(ctx context.Context, p model.LocalJobPosting) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, title, description, salary, user_id, user_email, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Title, p.Description, p.Salary, p.CreatedBy, p.CreatorMail, string(p.Status), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("jobstore: insert: %w", err)
	}
	s.announce(ctx, "create", p.ID)
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("jobstore: delete %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.announce(ctx, "delete", id)
	return nil
}

func (s *PostgresStore) Watch(ctx context.Context) (Feed, error) {
	return s.notifier.Watch(ctx)
}

// announce publishes a change; failure is non-fatal since the write succeeded.
func (s *PostgresStore) announce(ctx context.Context, op, id string) {
	if err := s.notifier.Publish(ctx, op, id); err != nil {
		slog.Warn("change notification failed", "component", "jobstore", "op", op, "id", id, "err", err)
	}
}

func scanPosting(row pgx.Row) (model.LocalJobPosting, error) {
	var (
		p      model.LocalJobPosting
		status string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Salary, &p.CreatedBy, &p.CreatorMail, &status, &p.CreatedAt)
	p.Status = model.PostingStatus(status)
	return p, err
}
