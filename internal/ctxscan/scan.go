package ctxscan

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/iatromantis91/semiocore-v1/internal/emit"
	"github.com/iatromantis91/semiocore-v1/internal/engine"
	"github.com/iatromantis91/semiocore-v1/internal/ir"
)

// SchemaReport identifies the scan report envelope version.
const SchemaReport = "semiocore.ctxscan.v1"

// Options configure a scan.
type Options struct {
	// MaxPerms truncates the permutation list after dedupe, sort and
	// baseline anchoring. 0 means no limit.
	MaxPerms int

	// EmitDir, when non-empty, receives one trace file per permutation
	// (perm_00.trace.json, perm_01.trace.json, ...).
	EmitDir string

	// Parallel fans per-permutation engine runs out over workers.
	// Reports are byte-identical to serial scans; only wall time changes.
	Parallel bool
}

// Witness records the first permutation whose outcome sequence diverges
// from the baseline's.
type Witness struct {
	PermIndex   int    `json:"perm_i"`
	Ctx         string `json:"ctx"`
	DiffStep    int    `json:"diff_step"` // 1-based
	BaselineObj string `json:"baseline_obj"`
	Obj         string `json:"obj"`
}

// PermEntry is one permutation's evaluation in the report.
type PermEntry struct {
	Index     int            `json:"i"`
	Ctx       string         `json:"ctx"`
	Summary   engine.Summary `json:"summary"`
	DKappa    float64        `json:"dkappa"`
	TraceFile *string        `json:"trace_file"`
}

// Report is the write-once scan result.
type Report struct {
	Schema          string         `json:"schema"`
	ProgramFile     string         `json:"program_file"`
	WorldFile       string         `json:"world_file"`
	Protocol        string         `json:"protocol"`
	BaselineCtx     string         `json:"baseline_ctx"`
	BaselineSummary engine.Summary `json:"baseline_summary"`
	Noncontextual   bool           `json:"noncontextual"`
	DKappaMax       float64        `json:"dkappa_max"`
	Witness         *Witness       `json:"witness"`
	Permutations    []PermEntry    `json:"permutations"`
}

// signature extracts the ordered outcome labels of a trace. Labels are
// compared as opaque tokens, deliberately independent of context-string
// formatting.
func signature(tr *engine.Trace) []string {
	sig := make([]string, len(tr.Events))
	for i, ev := range tr.Events {
		sig[i] = ev.Obj
	}
	return sig
}

// Scan runs the engine under every unique reordering of prog's context
// and reports whether the observed outcome sequence is order-sensitive.
//
// Any permutation's execution error aborts the whole scan; there is no
// partial report.
func Scan(prog ir.Program, w ir.World, programFile, worldFile string, opts Options) (*Report, error) {
	baseOps := prog.Context.Ops

	perms := uniquePermutations(baseOps)
	perms = anchorBaseline(perms, baseOps)
	if opts.MaxPerms > 0 && len(perms) > opts.MaxPerms {
		perms = perms[:opts.MaxPerms]
	}

	slog.Debug("scanning context permutations",
		"baseline", ir.CanonicalContext(prog.Context), "permutations", len(perms))

	traces, err := runAll(prog, w, programFile, perms, opts.Parallel)
	if err != nil {
		return nil, err
	}

	baseTrace := traces[0]
	baseSig := signature(baseTrace)
	kappaBase := baseTrace.Summary.Kappa

	entries := make([]PermEntry, len(perms))
	var witness *Witness
	dkappaMax := 0.0

	// Deterministic fold over the fixed index order: witness selection
	// must never depend on which permutation finished first.
	for i, ops := range perms {
		tr := traces[i]
		ctxStr := ir.CanonicalContext(ir.Context{}.WithOps(ops))

		var traceFile *string
		if opts.EmitDir != "" {
			path := filepath.Join(opts.EmitDir, fmt.Sprintf("perm_%02d.trace.json", i))
			if err := emit.WriteFile(path, tr); err != nil {
				return nil, fmt.Errorf("persist permutation %d: %w", i, err)
			}
			traceFile = &path
		}

		dk := math.Abs(tr.Summary.Kappa - kappaBase)
		if dk > dkappaMax {
			dkappaMax = dk
		}

		entries[i] = PermEntry{
			Index:     i,
			Ctx:       ctxStr,
			Summary:   tr.Summary,
			DKappa:    dk,
			TraceFile: traceFile,
		}

		if witness == nil {
			if step, ok := firstDivergence(baseSig, signature(tr)); ok {
				witness = &Witness{
					PermIndex:   i,
					Ctx:         ctxStr,
					DiffStep:    step,
					BaselineObj: baseSig[step-1],
					Obj:         signature(tr)[step-1],
				}
			}
		}
	}

	return &Report{
		Schema:          SchemaReport,
		ProgramFile:     programFile,
		WorldFile:       worldFile,
		Protocol:        "Strict",
		BaselineCtx:     ir.CanonicalContext(prog.Context),
		BaselineSummary: baseTrace.Summary,
		Noncontextual:   witness == nil,
		DKappaMax:       dkappaMax,
		Witness:         witness,
		Permutations:    entries,
	}, nil
}

// firstDivergence returns the 1-based index of the first position where
// the signatures disagree, comparing overlapping positions only. A
// length difference with an equal shared prefix is not a divergence.
func firstDivergence(base, other []string) (int, bool) {
	n := len(base)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if base[i] != other[i] {
			return i + 1, true
		}
	}
	return 0, false
}

// runAll executes the engine once per permutation, serially or across a
// bounded worker pool. Results land in index-addressed slots so the
// caller's fold order is independent of completion order. The first
// error wins deterministically: the lowest failing index is reported.
func runAll(prog ir.Program, w ir.World, programFile string, perms [][]ir.Op, parallel bool) ([]*engine.Trace, error) {
	traces := make([]*engine.Trace, len(perms))
	errs := make([]error, len(perms))

	runOne := func(i int) {
		derived := prog.WithContext(prog.Context.WithOps(perms[i]))
		traces[i], errs[i] = engine.Run(derived, w, programFile)
	}

	if !parallel || len(perms) < 2 {
		for i := range perms {
			runOne(i)
			if errs[i] != nil {
				break
			}
		}
	} else {
		workers := runtime.NumCPU()
		if workers > len(perms) {
			workers = len(perms)
		}
		var wg sync.WaitGroup
		idx := make(chan int)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range idx {
					runOne(i)
				}
			}()
		}
		for i := range perms {
			idx <- i
		}
		close(idx)
		wg.Wait()
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("permutation %d: %w", i, err)
		}
	}
	return traces, nil
}
