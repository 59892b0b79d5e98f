// Package ingestreport persists IngestReport rows so the ingest() port
// contract (§6.1) has somewhere real to land without the engine
// implementing the ingestion pipeline itself.
package ingestreport

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/secondbrain/engine/contracts"
)

// Store appends and lists IngestReport rows in Postgres.
type Store struct {
	db *sql.DB
}

// New builds a Store over an already-open, already-migrated database
// handle. Call Migrate(db) once at startup before constructing a Store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes one IngestReport row. If r.ID is empty, a new UUID is
// assigned and returned on the stored copy.
func (s *Store) Append(ctx context.Context, r contracts.IngestReport) (contracts.IngestReport, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	errsJSON, err := json.Marshal(r.Errors)
	if err != nil {
		return contracts.IngestReport{}, fmt.Errorf("ingestreport: marshal errors: %w", err)
	}

	const q = `
		INSERT INTO ingest_reports
			(id, documents_total, documents_failed, chunks_written, errors, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = s.db.ExecContext(ctx, q, r.ID, r.DocumentsTotal, r.DocumentsFailed, r.ChunksWritten, errsJSON, r.StartedAt, r.FinishedAt)
	if err != nil {
		return contracts.IngestReport{}, fmt.Errorf("ingestreport: insert: %w", err)
	}
	return r, nil
}

// List returns the most recent reports, newest first, bounded by limit.
func (s *Store) List(ctx context.Context, limit int) ([]contracts.IngestReport, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT id, documents_total, documents_failed, chunks_written, errors, started_at, finished_at
		FROM ingest_reports
		ORDER BY started_at DESC
		LIMIT $1`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("ingestreport: query: %w", err)
	}
	defer rows.Close()

	var reports []contracts.IngestReport
	for rows.Next() {
		var r contracts.IngestReport
		var errsJSON []byte
		if err := rows.Scan(&r.ID, &r.DocumentsTotal, &r.DocumentsFailed, &r.ChunksWritten, &errsJSON, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("ingestreport: scan: %w", err)
		}
		if len(errsJSON) > 0 {
			if err := json.Unmarshal(errsJSON, &r.Errors); err != nil {
				return nil, fmt.Errorf("ingestreport: unmarshal errors: %w", err)
			}
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ingestreport: rows: %w", err)
	}
	return reports, nil
}
