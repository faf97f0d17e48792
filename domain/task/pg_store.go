package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id           BIGSERIAL PRIMARY KEY,
	title        VARCHAR(200)  NOT NULL,
	description  VARCHAR(1000),
	is_completed BOOLEAN       NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ,
	user_id      BIGINT,
	version      BIGINT        NOT NULL DEFAULT 1
)`

const taskColumns = `id, title, description, is_completed, created_at, updated_at, user_id, version`

// PgStore is a Store backed by a pgx connection pool.
type PgStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PgStore)(nil)

// NewPgStore wraps an existing pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// OpenPostgres connects to databaseURL, verifies the connection and
// migrates the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewPgStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tasks table if it does not exist.
func (s *PgStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("failed to migrate tasks table: %w", err)
	}
	return nil
}

// Insert lets the database default created_at when the caller left it zero.
func (s *PgStore) Insert(ctx context.Context, t *Task) error {
	var createdAt *time.Time
	if !t.CreatedAt.IsZero() {
		c := t.CreatedAt.UTC()
		createdAt = &c
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, is_completed, created_at, user_id, version)
		VALUES ($1, $2, $3, COALESCE($4::timestamptz, NOW()), $5, 1)
		RETURNING id, created_at`,
		t.Title, t.Description, t.IsCompleted, createdAt, t.UserID,
	)
	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.Version = 1
	return nil
}

func (s *PgStore) Get(ctx context.Context, id int64) (*Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

func (s *PgStore) List(ctx context.Context) ([]*Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *PgStore) Update(ctx context.Context, t *Task) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, is_completed = $3, updated_at = $4, user_id = $5, version = version + 1
		WHERE id = $6 AND version = $7`,
		t.Title, t.Description, t.IsCompleted, t.UpdatedAt, t.UserID, t.ID, t.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	t.Version++
	return nil
}

func (s *PgStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check task: %w", err)
	}
	return exists, nil
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PgStore) Close() error {
	s.pool.Close()
	return nil
}

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.IsCompleted,
		&t.CreatedAt, &t.UpdatedAt, &t.UserID, &t.Version,
	); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	if t.UpdatedAt != nil {
		u := t.UpdatedAt.UTC()
		t.UpdatedAt = &u
	}
	return &t, nil
}
