// Package catalog persists operational records of ingestion and index
// builds to PostgreSQL: one row per ingested document and one row per
// completed index build. It is grounded on the teacher's ingestion
// publisher, adapted from a per-request document insert into a
// batch-oriented corpus/build-history recorder, and wrapped in a circuit
// breaker since it sits on the ingest/build hot path.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/elias-vance/lexishard/pkg/errors"
	"github.com/elias-vance/lexishard/pkg/postgres"
	"github.com/elias-vance/lexishard/pkg/resilience"
)

// Catalog records ingestion and build history in Postgres.
type Catalog struct {
	db      *postgres.Client
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

// New creates a Catalog backed by db, guarded by a circuit breaker. Any
// observers (e.g. *metrics.Metrics) are notified of the breaker's state on
// every transition.
func New(db *postgres.Client, observers ...resilience.StateObserver) *Catalog {
	return &Catalog{
		db:      db,
		breaker: resilience.NewCircuitBreaker("catalog-db", resilience.CircuitBreakerConfig{FailureThreshold: 5, ResetTimeout: 30 * time.Second}, observers...),
		logger:  slog.Default().With("component", "catalog"),
	}
}

// RecordDocument inserts one row for a document written by the ingest
// adapter. path is relative to the index input directory.
func (c *Catalog) RecordDocument(ctx context.Context, path string, bytes int) error {
	return c.breaker.Execute(func() error {
		return c.db.InTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO documents (path, byte_size, ingested_at) VALUES ($1, $2, $3)
				 ON CONFLICT (path) DO UPDATE SET byte_size = EXCLUDED.byte_size, ingested_at = EXCLUDED.ingested_at`,
				path, bytes, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("catalog: recording document %s: %w", path, err)
			}
			return nil
		})
	})
}

// BuildRecord describes one completed build_index + shard write pass.
type BuildRecord struct {
	DocCount   int
	TermCount  int
	ShardCount int
	BuiltAt    time.Time
}

// RecordBuild inserts one row describing a completed index build.
func (c *Catalog) RecordBuild(ctx context.Context, rec BuildRecord) error {
	return c.breaker.Execute(func() error {
		return c.db.InTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO index_builds (doc_count, term_count, shard_count, built_at) VALUES ($1, $2, $3, $4)`,
				rec.DocCount, rec.TermCount, rec.ShardCount, rec.BuiltAt)
			if err != nil {
				return fmt.Errorf("catalog: recording build: %w", err)
			}
			return nil
		})
	})
}

// LatestBuild returns the most recently recorded build, or ErrDocumentNotFound
// if no build has been recorded yet.
func (c *Catalog) LatestBuild(ctx context.Context) (BuildRecord, error) {
	var rec BuildRecord
	err := c.db.DB.QueryRowContext(ctx,
		`SELECT doc_count, term_count, shard_count, built_at FROM index_builds ORDER BY built_at DESC LIMIT 1`,
	).Scan(&rec.DocCount, &rec.TermCount, &rec.ShardCount, &rec.BuiltAt)
	if err == sql.ErrNoRows {
		return BuildRecord{}, fmt.Errorf("catalog: no build recorded: %w", apperrors.ErrDocumentNotFound)
	}
	if err != nil {
		return BuildRecord{}, fmt.Errorf("catalog: querying latest build: %w", err)
	}
	return rec, nil
}

// Schema is the DDL catalog expects to exist; callers run it via their
// migration tooling of choice. Kept here as the single source of truth for
// the two tables catalog reads and writes.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	path TEXT PRIMARY KEY,
	byte_size INTEGER NOT NULL,
	ingested_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS index_builds (
	id SERIAL PRIMARY KEY,
	doc_count INTEGER NOT NULL,
	term_count INTEGER NOT NULL,
	shard_count INTEGER NOT NULL,
	built_at TIMESTAMPTZ NOT NULL
);
`
