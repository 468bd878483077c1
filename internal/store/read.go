package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iatromantis91/semiocore-v1/internal/ir"
)

// ErrNotFound reports a missing run or artifact.
var ErrNotFound = errors.New("not found in archive")

// RunRecord is one archived run.
type RunRecord struct {
	ID          string
	Kind        RunKind
	ProgramFile string
	WorldFile   string
	ProgramHash string
	WorldHash   string
	Seed        *uint32
	CreatedSeq  int64
}

// GetArtifact returns the stored body for (runID, name), verifying the
// stored digest against the body before returning it.
func (s *Store) GetArtifact(ctx context.Context, runID, name string) ([]byte, error) {
	var body, digest string
	err := s.db.QueryRowContext(ctx, `
		SELECT body, digest FROM artifacts WHERE run_id = ? AND name = ?
	`, runID, name).Scan(&body, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artifact %s/%s: %w", runID, name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact %s/%s: %w", runID, name, err)
	}

	if got := ir.HashBytes([]byte(body)); got != digest {
		return nil, fmt.Errorf("artifact %s/%s: stored digest %s does not match body hash %s",
			runID, name, digest, got)
	}
	return []byte(body), nil
}

// ListRuns returns the archived runs matching f in logical sequence
// order.
func (s *Store) ListRuns(ctx context.Context, f RunFilter) ([]RunRecord, error) {
	query, params := buildRunQuery(f)
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec  RunRecord
			kind string
			seed sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.ProgramFile, &rec.WorldFile,
			&rec.ProgramHash, &rec.WorldHash, &seed, &rec.CreatedSeq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Kind = RunKind(kind)
		if seed.Valid {
			v := uint32(seed.Int64)
			rec.Seed = &v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}
