package store

import (
	"context"
	"fmt"

	"github.com/iatromantis91/semiocore-v1/internal/ir"
	"github.com/iatromantis91/semiocore-v1/internal/manifest"
)

// RunKind categorizes archived runs.
type RunKind string

const (
	KindRun     RunKind = "run"
	KindCtxScan RunKind = "ctxscan"
	KindReplay  RunKind = "replay"
)

// RecordRun inserts a run row built from its manifest. Idempotent on
// run ID: re-recording an already archived run is silently ignored.
func (s *Store) RecordRun(ctx context.Context, kind RunKind, mf *manifest.Manifest) error {
	var seed any
	if mf.Seed != nil {
		seed = int64(*mf.Seed)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, kind, program_file, world_file, program_hash, world_hash, seed, created_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		mf.RunID,
		string(kind),
		mf.ProgramFile,
		mf.WorldFile,
		mf.ProgramHash,
		mf.WorldHash,
		seed,
		s.clock.next(),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", mf.RunID, err)
	}
	return nil
}

// PutArtifact stores one emitted JSON document under (runID, name).
// The body must be the exact emitted bytes; the digest is computed
// here so archive consumers can verify integrity without re-emitting.
// Idempotent: a second write of the same (runID, name) is ignored.
func (s *Store) PutArtifact(ctx context.Context, runID, name string, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (run_id, name, body, digest)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, name) DO NOTHING
	`,
		runID,
		name,
		string(body),
		ir.HashBytes(body),
	)
	if err != nil {
		return fmt.Errorf("put artifact %s/%s: %w", runID, name, err)
	}
	return nil
}
