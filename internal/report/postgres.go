package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karienad/dental-insurance-ai-agent/internal/verification"
)

const ddlSummaries = `
CREATE TABLE IF NOT EXISTS verification_summaries (
    id          BIGSERIAL    PRIMARY KEY,
    session_id  TEXT         NOT NULL,
    status      TEXT         NOT NULL,
    collected   JSONB        NOT NULL DEFAULT '{}',
    missing     JSONB        NOT NULL DEFAULT '[]',
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_verification_summaries_session_id
    ON verification_summaries (session_id);

CREATE INDEX IF NOT EXISTS idx_verification_summaries_created_at
    ON verification_summaries (created_at);
`

// PostgresWriter archives one row per completed or abandoned session.
// Safe for concurrent use.
type PostgresWriter struct {
	pool *pgxpool.Pool
}

// NewPostgresWriter connects to dsn. Callers own the writer and must Close it.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("report: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("report: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("report: ping: %w", err)
	}
	return &PostgresWriter{pool: pool}, nil
}

// NewPostgresWriterWithPool wraps an existing pool. Close closes the pool.
func NewPostgresWriterWithPool(pool *pgxpool.Pool) *PostgresWriter {
	return &PostgresWriter{pool: pool}
}

// Migrate creates or ensures the summaries table exists. Idempotent.
func (w *PostgresWriter) Migrate(ctx context.Context) error {
	if _, err := w.pool.Exec(ctx, ddlSummaries); err != nil {
		return fmt.Errorf("report: migrate: %w", err)
	}
	return nil
}

// Write inserts one summary row for sessionID.
func (w *PostgresWriter) Write(ctx context.Context, sessionID string, summary verification.Summary) error {
	collected, err := json.Marshal(summary.Collected)
	if err != nil {
		return fmt.Errorf("report: marshal collected: %w", err)
	}
	missing, err := json.Marshal(summary.Missing)
	if err != nil {
		return fmt.Errorf("report: marshal missing: %w", err)
	}

	const q = `
		INSERT INTO verification_summaries (session_id, status, collected, missing, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := w.pool.Exec(ctx, q, sessionID, summary.Status, collected, missing, summary.Timestamp); err != nil {
		return fmt.Errorf("report: insert summary: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (w *PostgresWriter) Close() {
	w.pool.Close()
}

var _ Writer = (*PostgresWriter)(nil)
