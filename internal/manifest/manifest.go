// Package manifest records the full provenance of a run (content hashes
// of program and world, the RNG specification, a run identifier) and
// replays a manifest back into a byte-identical trace.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/iatromantis91/semiocore-v1/internal/contracts"
	"github.com/iatromantis91/semiocore-v1/internal/engine"
	"github.com/iatromantis91/semiocore-v1/internal/ir"
	"github.com/iatromantis91/semiocore-v1/internal/parser"
	"github.com/iatromantis91/semiocore-v1/internal/world"
)

// SchemaManifest identifies the manifest envelope version.
const SchemaManifest = "semiocore.manifest.v1"

// Version strings recorded for provenance.
const (
	SemioVersion  = "1.0.0"
	StdlibVersion = "1.0.0"
)

// epochTimestamp keeps manifests reproducible: provenance hashing would
// break if each emission carried the wall clock.
const epochTimestamp = "1970-01-01T00:00:00+00:00"

// replayNote is attached to replayed traces. Replay over unchanged
// inputs must match the originally emitted trace exactly under the
// fixed seed and the LCG32 specification.
const replayNote = "Replay output must match the original trace exactly under fixed seed and LCG32 spec."

// RNGSpec pins the generator a replay must reproduce.
type RNGSpec struct {
	Type   string `json:"type"`
	A      uint64 `json:"a"`
	C      uint64 `json:"c"`
	M      uint64 `json:"m"`
	State0 uint32 `json:"state0"`
}

// Manifest describes one run's inputs completely.
type Manifest struct {
	Schema        string   `json:"schema"`
	SemioVersion  string   `json:"semio_version"`
	StdlibVersion string   `json:"stdlib_version"`
	ProgramFile   string   `json:"program_file"`
	ProgramHash   string   `json:"program_hash_sha256"`
	WorldFile     string   `json:"world_file"`
	WorldHash     string   `json:"world_hash_sha256"`
	Protocol      string   `json:"protocol"`
	Seed          *uint32  `json:"seed"`
	RNG           *RNGSpec `json:"rng"`
	RunID         string   `json:"run_id"`
	Timestamp     string   `json:"timestamp"`
}

// RunIDGenerator produces run identifiers. UUIDGenerator is the
// production implementation; FixedGenerator pins IDs in tests so
// emitted manifests stay golden-comparable.
type RunIDGenerator interface {
	Generate() string
}

// UUIDGenerator generates time-sortable UUIDv7 run IDs.
type UUIDGenerator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator always returns the same ID.
type FixedGenerator struct{ ID string }

func (g FixedGenerator) Generate() string { return g.ID }

// Build hashes the input files and assembles a manifest. gen may be nil,
// defaulting to UUIDv7 run IDs.
func Build(programFile, worldFile string, seed *uint32, gen RunIDGenerator) (*Manifest, error) {
	if gen == nil {
		gen = UUIDGenerator{}
	}

	progHash, err := ir.HashFile(programFile)
	if err != nil {
		return nil, fmt.Errorf("hash program: %w", err)
	}
	worldHash, err := ir.HashFile(worldFile)
	if err != nil {
		return nil, fmt.Errorf("hash world: %w", err)
	}

	var rng *RNGSpec
	if seed != nil {
		rng = &RNGSpec{
			Type:   "LCG32",
			A:      engine.LCGMultiplier,
			C:      engine.LCGIncrement,
			M:      engine.LCGModulus,
			State0: *seed,
		}
	}

	return &Manifest{
		Schema:        SchemaManifest,
		SemioVersion:  SemioVersion,
		StdlibVersion: StdlibVersion,
		ProgramFile:   programFile,
		ProgramHash:   progHash,
		WorldFile:     worldFile,
		WorldHash:     worldHash,
		Protocol:      "Strict",
		Seed:          seed,
		RNG:           rng,
		RunID:         gen.Generate(),
		Timestamp:     epochTimestamp,
	}, nil
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if err := contracts.ValidateManifest(doc); err != nil {
		return nil, err
	}

	var mf Manifest
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if mf.ProgramFile == "" {
		return nil, fmt.Errorf("manifest missing 'program_file'")
	}
	if mf.WorldFile == "" {
		return nil, fmt.Errorf("manifest missing 'world_file'")
	}
	return &mf, nil
}

// Replay re-executes the run a manifest describes. The manifest seed
// overrides any seed in the program source, so a replay is pinned to
// the recorded RNG state even if the program file changed its seed line.
func Replay(mf *Manifest) (*engine.Trace, error) {
	prog, err := parser.ParseFile(mf.ProgramFile)
	if err != nil {
		return nil, err
	}
	if mf.Seed != nil {
		prog = prog.WithSeed(*mf.Seed)
	}

	w, err := world.Load(mf.WorldFile)
	if err != nil {
		return nil, err
	}

	tr, err := engine.Run(prog, w, mf.ProgramFile)
	if err != nil {
		return nil, err
	}
	tr.Note = replayNote
	return tr, nil
}
