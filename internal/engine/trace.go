package engine

import "math"

// Outcome labels for committed events.
const (
	ObjAffirm = "AFFIRM"
	ObjNegate = "NEGATE"
)

// SchemaTrace identifies the trace envelope version.
const SchemaTrace = "semiocore.trace.v1"

// Event is one committed observation.
//
// Quantization is asymmetric and contractual: when Noise is nil the
// numeric fields (T, S, RRaw, REff, KappaLoc) are rounded to 10 decimal
// digits at construction; when the context applied JitterU, Noise is set
// and every field keeps full precision. Golden fixtures depend on both
// shapes exactly as they are.
type Event struct {
	Step        int      `json:"step"` // 1-based commit counter
	T           float64  `json:"t"`
	Ctx         string   `json:"ctx"`
	Channel     string   `json:"ch"`
	S           float64  `json:"s"`
	RRaw        float64  `json:"r_raw"`
	Noise       *float64 `json:"noise,omitempty"`
	REff        float64  `json:"r_eff"`
	Obj         string   `json:"obj"`
	ExpectedObj string   `json:"expected_obj"`
	KappaLoc    float64  `json:"kappa_loc"`
}

// Summary aggregates a run. Always quantized to 10 decimals.
type Summary struct {
	N      int     `json:"N"`
	DeltaT float64 `json:"deltaT"`
	Rho    float64 `json:"rho"`
	Kappa  float64 `json:"kappa"`
}

// Trace is the write-once output of one engine run. Note is empty
// except on replay, where it names the byte-identity expectation.
type Trace struct {
	Schema      string  `json:"schema"`
	ProgramFile string  `json:"program_file"`
	Events      []Event `json:"events"`
	Summary     Summary `json:"summary"`
	Note        string  `json:"note,omitempty"`
}

// quantize rounds to 10 decimal digits, absorbing the binary artefacts
// of decimal addition so fixtures stay stable across platforms.
func quantize(x float64) float64 {
	return math.Round(x*1e10) / 1e10
}
