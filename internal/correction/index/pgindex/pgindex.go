// Package pgindex is the pgvector-backed correction index. Lookup-table
// entries are embedded once at seed time; each incoming utterance is embedded
// once per lookup and matched by cosine distance against the stored vectors.
//
// The pgvector extension must be available in the target database;
// [Index.Migrate] installs it via CREATE EXTENSION IF NOT EXISTS.
package pgindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/karienad/dental-insurance-ai-agent/internal/correction/index"
	"github.com/karienad/dental-insurance-ai-agent/pkg/provider/embeddings"
)

// ddlCorrections returns the lookup-table DDL with the embedding dimension
// substituted. The vector dimension is baked into the column type at schema
// creation time; changing the embedding model later requires a reseed.
func ddlCorrections(dimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS correction_entries (
    id          BIGSERIAL    PRIMARY KEY,
    misheard    TEXT         NOT NULL,
    correction  TEXT         NOT NULL,
    context     TEXT         NOT NULL DEFAULT '',
    embedding   vector(%d),
    UNIQUE (misheard, context)
);

CREATE INDEX IF NOT EXISTS idx_correction_entries_embedding
    ON correction_entries USING hnsw (embedding vector_cosine_ops);
`, dimensions)
}

// Index is a correction index stored in PostgreSQL. All methods are safe for
// concurrent use; the pool handles its own synchronisation.
type Index struct {
	pool     *pgxpool.Pool
	embedder embeddings.Provider
}

// New connects to dsn and returns an Index using embedder for both seeding
// and lookups. Callers own the returned Index and must Close it.
func New(ctx context.Context, dsn string, embedder embeddings.Provider) (*Index, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgindex: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgindex: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgindex: ping: %w", err)
	}
	return &Index{pool: pool, embedder: embedder}, nil
}

// NewWithPool wraps an existing pool. Close on the returned Index closes
// pool, so callers sharing the pool should not call Close here.
func NewWithPool(pool *pgxpool.Pool, embedder embeddings.Provider) *Index {
	return &Index{pool: pool, embedder: embedder}
}

// Migrate creates or ensures the lookup table and its HNSW index exist.
// Idempotent and safe to call on every start.
func (idx *Index) Migrate(ctx context.Context) error {
	if _, err := idx.pool.Exec(ctx, ddlCorrections(idx.embedder.Dimensions())); err != nil {
		return fmt.Errorf("pgindex: migrate: %w", err)
	}
	return nil
}

// Seed embeds all entries in one batch and upserts them. Existing rows with
// the same (misheard, context) pair are replaced, so reseeding after a
// lookup-table edit is safe.
func (idx *Index) Seed(ctx context.Context, entries []index.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Misheard
	}
	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("pgindex: embed entries: %w", err)
	}
	if len(vectors) != len(entries) {
		return fmt.Errorf("pgindex: embedder returned %d vectors for %d entries", len(vectors), len(entries))
	}

	const q = `
		INSERT INTO correction_entries (misheard, correction, context, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (misheard, context) DO UPDATE SET
		    correction = EXCLUDED.correction,
		    embedding  = EXCLUDED.embedding`

	batch := &pgx.Batch{}
	for i, e := range entries {
		batch.Queue(q, e.Misheard, e.Correction, e.Context, pgvector.NewVector(vectors[i]))
	}
	if err := idx.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("pgindex: seed: %w", err)
	}
	return nil
}

// Lookup embeds utterance and returns the row nearest by cosine distance.
func (idx *Index) Lookup(ctx context.Context, utterance string) (index.Match, bool, error) {
	vec, err := idx.embedder.Embed(ctx, utterance)
	if err != nil {
		return index.Match{}, false, fmt.Errorf("pgindex: embed utterance: %w", err)
	}

	const q = `
		SELECT misheard, correction, context,
		       embedding <=> $1 AS distance
		FROM   correction_entries
		ORDER  BY distance
		LIMIT  1`

	var m index.Match
	err = idx.pool.QueryRow(ctx, q, pgvector.NewVector(vec)).
		Scan(&m.Misheard, &m.Correction, &m.Context, &m.Distance)
	if errors.Is(err, pgx.ErrNoRows) {
		return index.Match{}, false, nil
	}
	if err != nil {
		return index.Match{}, false, fmt.Errorf("pgindex: lookup: %w", err)
	}
	return m, true, nil
}

// Close releases the connection pool.
func (idx *Index) Close() {
	idx.pool.Close()
}

var _ index.Index = (*Index)(nil)
