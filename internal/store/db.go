package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgxpool.Pool the repositories use.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connect establishes a Postgres connection pool, retrying while the
// database comes up.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	maxRetries := 5
	retryInterval := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(ctx, url)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
		}
		log.Printf("db connect attempt %d/%d failed: %v, retrying in %s", i+1, maxRetries, err, retryInterval)
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
}

// Migrate creates the tables if they don't exist. attendance rows carry a
// serial id so reads have a deterministic insert order to dedup against.
func Migrate(ctx context.Context, db Querier) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id BIGSERIAL PRIMARY KEY,
		student_id TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('Present', 'Absent')),
		date TEXT NOT NULL,
		month TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS user_credentials (
		api_key TEXT NOT NULL,
		device_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_month ON attendance(month);
	CREATE INDEX IF NOT EXISTS idx_attendance_student_date ON attendance(student_id, date);
	`
	if _, err := db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}
	return nil
}
