// Package plasticity computes windowed stability and divergence metrics
// over one or more execution traces, classifying how plastic (order- and
// noise-sensitive) an observed outcome stream is.
//
// Like the rest of the toolchain this is a deterministic batch
// computation: stable merge ordering, explicit thresholds, evidence
// digests. No randomness anywhere.
package plasticity

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/iatromantis91/semiocore-v1/internal/engine"
	"github.com/iatromantis91/semiocore-v1/internal/ir"
)

// SchemaReport identifies the plasticity report envelope version.
const SchemaReport = "semiocore.plasticity.v1"

// Decision thresholds. These are contract semantics, not tunables:
// golden reports depend on them.
const (
	minPartitionStability = 0.85
	maxNoiseSensitivity   = 2.0
	maxIndeterminacyRate  = 0.05
	maxCoherenceLoss      = 0.05

	fragileStabilityFloor     = 0.70
	fragileIndeterminacyCeil  = 0.20
	trendBand                 = 0.05
	confidenceSaturationCount = 50.0
)

// Request selects and windows the events to analyze.
type Request struct {
	Ctx         string
	Channel     string
	WindowSize  int
	WindowStep  int
	ProgramFile string
	// TraceDigests carries the sha-256 of each input trace file for the
	// evidence block. AnalyzeFiles fills this; direct Analyze callers
	// may leave it empty.
	TraceDigests []string
}

// Windowing echoes the window parameters in the report.
type Windowing struct {
	Mode string `json:"mode"`
	Size int    `json:"size"`
	Step int    `json:"step"`
}

// Metrics are the four stability/divergence measures.
type Metrics struct {
	PartitionStability float64 `json:"partition_stability"`
	NoiseSensitivity   float64 `json:"noise_sensitivity"`
	IndeterminacyRate  float64 `json:"indeterminacy_rate"`
	CoherenceLoss      float64 `json:"coherence_loss"`
}

// Verdict classifies the metrics against the fixed thresholds.
type Verdict struct {
	PlasticityState string   `json:"plasticity_state"` // stable | fragile | degraded
	Trend           string   `json:"trend"`            // improving | stable | declining
	Confidence      float64  `json:"confidence"`
	Reasons         []string `json:"reasons"`
}

// Evidence records audit provenance for the inputs.
type Evidence struct {
	NTraces      int      `json:"N_traces"`
	NEvents      int      `json:"N_events"`
	TraceDigests []string `json:"trace_digests"`
}

// Report is the write-once analyzer output.
type Report struct {
	Schema      string    `json:"schema"`
	ProgramFile string    `json:"program_file"`
	Protocol    string    `json:"protocol"`
	Ctx         string    `json:"ctx"`
	Channel     string    `json:"channel"`
	Windowing   Windowing `json:"windowing"`
	Metrics     Metrics   `json:"metrics"`
	Verdict     Verdict   `json:"verdict"`
	Evidence    Evidence  `json:"evidence"`
}

// mergedEvent carries the sort key alongside the event.
type mergedEvent struct {
	t    float64
	step int
	ord  int // trace_index*1e6 + event_index, the final tie-breaker
	ev   engine.Event
}

// Analyze merges the matching events of traces and computes the report.
//
// Fails on empty input, non-positive window parameters, or zero events
// matching the requested (ctx, channel) pair.
func Analyze(traces []engine.Trace, req Request) (*Report, error) {
	if req.WindowSize <= 0 || req.WindowStep <= 0 {
		return nil, fmt.Errorf("window size and step must be > 0, got size=%d step=%d", req.WindowSize, req.WindowStep)
	}
	if len(traces) == 0 {
		return nil, fmt.Errorf("at least one trace is required")
	}

	programFile := req.ProgramFile
	if programFile == "" {
		programFile = traces[0].ProgramFile
	}

	// One deterministic merged sequence even when traces overlap in
	// simulated time: order by (t, step, input position).
	var merged []mergedEvent
	for ti, tr := range traces {
		for ei, ev := range tr.Events {
			if ev.Ctx != req.Ctx || ev.Channel != req.Channel {
				continue
			}
			merged = append(merged, mergedEvent{t: ev.T, step: ev.Step, ord: ti*1_000_000 + ei, ev: ev})
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].t != merged[j].t {
			return merged[i].t < merged[j].t
		}
		if merged[i].step != merged[j].step {
			return merged[i].step < merged[j].step
		}
		return merged[i].ord < merged[j].ord
	})

	if len(merged) == 0 {
		return nil, fmt.Errorf("no events for ctx=%q channel=%q in provided traces", req.Ctx, req.Channel)
	}

	n := len(merged)
	objs := make([]string, n)
	sigs := make([]float64, n)
	kappas := make([]float64, 0, n)
	undetermined := 0

	for i, m := range merged {
		objs[i] = m.ev.Obj
		// The physical signal prefers the raw committed value; the trace
		// format always carries r_raw, so the fallback chain ends there.
		sigs[i] = m.ev.RRaw
		kappas = append(kappas, m.ev.KappaLoc)

		switch strings.ToUpper(m.ev.Obj) {
		case "UNDETERMINED", "UNKNOWN":
			undetermined++
		}
	}

	metrics := Metrics{
		PartitionStability: partitionStability(objs, req.WindowSize, req.WindowStep),
		NoiseSensitivity:   noiseSensitivity(objs, sigs),
		IndeterminacyRate:  float64(undetermined) / float64(n),
		CoherenceLoss:      variance(kappas),
	}

	reasons := []string{}
	if metrics.PartitionStability < minPartitionStability {
		reasons = append(reasons, "low_partition_stability")
	}
	if metrics.NoiseSensitivity > maxNoiseSensitivity {
		reasons = append(reasons, "high_noise_sensitivity")
	}
	if metrics.IndeterminacyRate > maxIndeterminacyRate {
		reasons = append(reasons, "high_indeterminacy_rate")
	}
	if metrics.CoherenceLoss > maxCoherenceLoss {
		reasons = append(reasons, "high_coherence_loss")
	}

	state := "stable"
	if len(reasons) > 0 {
		if metrics.PartitionStability >= fragileStabilityFloor && metrics.IndeterminacyRate <= fragileIndeterminacyCeil {
			state = "fragile"
		} else {
			state = "degraded"
		}
	}

	confidence := float64(n) / confidenceSaturationCount
	if confidence > 1.0 {
		confidence = 1.0
	}

	digests := req.TraceDigests
	if digests == nil {
		digests = []string{}
	}

	return &Report{
		Schema:      SchemaReport,
		ProgramFile: programFile,
		Protocol:    "Strict",
		Ctx:         req.Ctx,
		Channel:     req.Channel,
		Windowing:   Windowing{Mode: "fixed", Size: req.WindowSize, Step: req.WindowStep},
		Metrics:     metrics,
		Verdict: Verdict{
			PlasticityState: state,
			Trend:           trend(objs),
			Confidence:      confidence,
			Reasons:         reasons,
		},
		Evidence: Evidence{
			NTraces:      len(traces),
			NEvents:      n,
			TraceDigests: digests,
		},
	}, nil
}

// AnalyzeFiles loads the trace files, records their content digests,
// and analyzes the merged event stream.
func AnalyzeFiles(paths []string, req Request) (*Report, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one trace file is required")
	}

	traces := make([]engine.Trace, 0, len(paths))
	digests := make([]string, 0, len(paths))
	for _, p := range paths {
		digest, err := ir.HashFile(p)
		if err != nil {
			return nil, err
		}
		digests = append(digests, digest)

		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read trace: %w", err)
		}
		var tr engine.Trace
		if err := json.Unmarshal(data, &tr); err != nil {
			return nil, fmt.Errorf("decode trace %s: %w", p, err)
		}
		traces = append(traces, tr)
	}

	req.TraceDigests = digests
	return Analyze(traces, req)
}

// majorityFraction computes the fraction of labels equal to the
// majority label, ties broken by the lexicographically smallest label.
// Empty segments count as perfectly stable.
func majorityFraction(labels []string) float64 {
	if len(labels) == 0 {
		return 1.0
	}
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	best := ""
	bestCount := -1
	for l, c := range counts {
		if c > bestCount || (c == bestCount && l < best) {
			best, bestCount = l, c
		}
	}
	return float64(bestCount) / float64(len(labels))
}

// partitionStability slides windows of size w every s events and
// averages per-window majority fractions. No windows means 1.0.
func partitionStability(objs []string, w, s int) float64 {
	var fractions []float64
	for start := 0; start < len(objs); start += s {
		end := start + w
		if end > len(objs) {
			end = len(objs)
		}
		window := objs[start:end]
		if len(window) == 0 {
			continue
		}
		fractions = append(fractions, majorityFraction(window))
	}
	if len(fractions) == 0 {
		return 1.0
	}
	sum := 0.0
	for _, f := range fractions {
		sum += f
	}
	return sum / float64(len(fractions))
}

// noiseSensitivity divides the count of adjacent label changes by the
// total signal movement. The epsilon keeps a flat signal from dividing
// by zero. Fewer than 2 events means 0.
func noiseSensitivity(objs []string, sigs []float64) float64 {
	if len(objs) < 2 {
		return 0.0
	}
	deltaP := 0.0
	denom := 0.0
	for i := 1; i < len(objs); i++ {
		if objs[i] != objs[i-1] {
			deltaP++
		}
		d := sigs[i] - sigs[i-1]
		if d < 0 {
			d = -d
		}
		denom += d
	}
	return deltaP / (denom + 1e-9)
}

// variance computes population variance; 0.0 for empty input.
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0.0
	}
	mu := 0.0
	for _, x := range xs {
		mu += x
	}
	mu /= float64(len(xs))
	sum := 0.0
	for _, x := range xs {
		sum += (x - mu) * (x - mu)
	}
	return sum / float64(len(xs))
}

// trend compares majority stability of the first half against the
// second half, with a +/-0.05 dead band.
func trend(objs []string) string {
	half := len(objs) / 2
	first := majorityFraction(objs[:half])
	second := majorityFraction(objs[half:])
	switch {
	case second < first-trendBand:
		return "declining"
	case second > first+trendBand:
		return "improving"
	default:
		return "stable"
	}
}
