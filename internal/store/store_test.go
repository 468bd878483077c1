package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iatromantis91/semiocore-v1/internal/manifest"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func testManifest(t *testing.T, runID string, seed *uint32) *manifest.Manifest {
	t.Helper()
	dir := t.TempDir()
	prog := filepath.Join(dir, "p.semio")
	world := filepath.Join(dir, "w.json")
	require.NoError(t, os.WriteFile(prog, []byte("context Sign {\n tick 1.0\n x := sense ch\n commit x\n out := summarize\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(world, []byte(`{"channels": {"ch": 0.3}}`), 0o644))

	mf, err := manifest.Build(prog, world, seed, manifest.FixedGenerator{ID: runID})
	require.NoError(t, err)
	return mf
}

func TestRecordRun_AndList(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	seed := uint32(12345)

	require.NoError(t, s.RecordRun(ctx, KindRun, testManifest(t, "run-1", &seed)))
	require.NoError(t, s.RecordRun(ctx, KindCtxScan, testManifest(t, "run-2", nil)))

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, KindRun, runs[0].Kind)
	require.NotNil(t, runs[0].Seed)
	assert.Equal(t, uint32(12345), *runs[0].Seed)
	assert.Len(t, runs[0].ProgramHash, 64)

	assert.Equal(t, "run-2", runs[1].ID)
	assert.Equal(t, KindCtxScan, runs[1].Kind)
	assert.Nil(t, runs[1].Seed)
	assert.Greater(t, runs[1].CreatedSeq, runs[0].CreatedSeq, "logical sequence orders runs")
}

func TestRecordRun_Idempotent(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	mf := testManifest(t, "run-dup", nil)

	require.NoError(t, s.RecordRun(ctx, KindRun, mf))
	require.NoError(t, s.RecordRun(ctx, KindRun, mf))

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestPutArtifact_RoundTripWithDigestCheck(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.RecordRun(ctx, KindRun, testManifest(t, "run-a", nil)))

	body := []byte("{\n  \"summary\": {\n    \"N\": 1\n  }\n}\n")
	require.NoError(t, s.PutArtifact(ctx, "run-a", "trace.json", body))

	got, err := s.GetArtifact(ctx, "run-a", "trace.json")
	require.NoError(t, err)
	assert.Equal(t, body, got, "archived bytes come back exactly")
}

func TestPutArtifact_Idempotent(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.RecordRun(ctx, KindRun, testManifest(t, "run-b", nil)))

	first := []byte(`{"v": 1}`)
	require.NoError(t, s.PutArtifact(ctx, "run-b", "report.json", first))
	require.NoError(t, s.PutArtifact(ctx, "run-b", "report.json", []byte(`{"v": 2}`)))

	got, err := s.GetArtifact(ctx, "run-b", "report.json")
	require.NoError(t, err)
	assert.Equal(t, first, got, "first write wins; artifacts are write-once")
}

func TestGetArtifact_NotFound(t *testing.T) {
	s, _ := openTestStore(t)

	_, err := s.GetArtifact(context.Background(), "ghost", "trace.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_ResumesSequenceAcrossReopen(t *testing.T) {
	s, path := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.RecordRun(ctx, KindRun, testManifest(t, "run-1", nil)))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.RecordRun(ctx, KindRun, testManifest(t, "run-2", nil)))

	runs, err := s2.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Greater(t, runs[1].CreatedSeq, runs[0].CreatedSeq,
		"sequence must stay monotonic across restarts")
}
