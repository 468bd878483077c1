package engine

import (
	"log/slog"

	"github.com/iatromantis91/semiocore-v1/internal/ir"
)

// binding records what a sensed variable currently refers to.
type binding struct {
	channel string
	value   float64
}

// Run interprets prog against w and returns the trace.
//
// State threaded through interpretation: simulated time t (starts at 0),
// the overwritable bias (each do_add_bias replaces the previous value,
// it does not accumulate), the sensed-variable bindings, the optional
// LCG32 state, and the 1-based commit step counter.
//
// programFile is provenance carried into the trace envelope; it is
// never opened here.
func Run(prog ir.Program, w ir.World, programFile string) (*Trace, error) {
	var (
		t     float64
		bias  float64
		rng   *uint32
		step  int
		bound = make(map[string]binding)
	)

	if prog.Seed != nil {
		state := *prog.Seed
		rng = &state
	}

	ctxStr := ir.CanonicalContext(prog.Context)
	events := []Event{}

	for _, st := range prog.Body {
		switch st.Kind {
		case ir.StmtTick:
			if st.X <= 0 {
				return nil, newRuntimeError(ErrCodeNonPositiveTick, "tick dt must be > 0, got %v", st.X)
			}
			t += st.X

		case ir.StmtSense:
			s, ok := w.Channels[st.Channel]
			if !ok {
				return nil, newRuntimeError(ErrCodeUnknownChannel, "unknown channel in world: %s", st.Channel)
			}
			bound[st.Var] = binding{channel: st.Channel, value: s}

		case ir.StmtAddBias:
			bias = st.X

		case ir.StmtCommit:
			b, ok := bound[st.Var]
			if !ok {
				return nil, newRuntimeError(ErrCodeCommitUnsensed, "commit %s before sensing it", st.Var)
			}

			rRaw := b.value + bias
			rEff, rngNext, noise, err := applyContext(rRaw, prog.Context, rng)
			if err != nil {
				if re, ok := err.(*RuntimeError); ok {
					re.Step = step + 1
				}
				return nil, err
			}
			rng = rngNext

			obj := ObjNegate
			if rEff > 0 {
				obj = ObjAffirm
			}
			// Ground truth ignores bias and context: the undisturbed
			// sensed value alone decides the expected outcome.
			expected := ObjNegate
			if b.value > 0 {
				expected = ObjAffirm
			}
			kappaLoc := 0.0
			if obj == expected {
				kappaLoc = 1.0
			}

			step++
			ev := Event{
				Step:        step,
				T:           t,
				Ctx:         ctxStr,
				Channel:     b.channel,
				S:           b.value,
				RRaw:        rRaw,
				Noise:       noise,
				REff:        rEff,
				Obj:         obj,
				ExpectedObj: expected,
				KappaLoc:    kappaLoc,
			}
			if noise == nil {
				ev.T = quantize(ev.T)
				ev.S = quantize(ev.S)
				ev.RRaw = quantize(ev.RRaw)
				ev.REff = quantize(ev.REff)
				ev.KappaLoc = quantize(ev.KappaLoc)
			}
			events = append(events, ev)

		case ir.StmtSummarize:
			// Structural marker; the parser requires it, execution skips it.

		default:
			return nil, newRuntimeError(ErrCodeUnknownStmt, "unknown statement kind: %s", st.Kind)
		}
	}

	if t <= 0 {
		return nil, newRuntimeError(ErrCodeNonPositiveTime, "total elapsed time must be > 0 to compute rho, got %v", t)
	}

	n := len(events)
	rho := 0.0
	kappa := 0.0
	if n > 0 {
		rho = float64(n) / t
		sum := 0.0
		for _, ev := range events {
			sum += ev.KappaLoc
		}
		kappa = sum / float64(n)
	}

	slog.Debug("engine run complete", "ctx", ctxStr, "events", n, "deltaT", t)

	return &Trace{
		Schema:      SchemaTrace,
		ProgramFile: programFile,
		Events:      events,
		Summary: Summary{
			N:      n,
			DeltaT: quantize(t),
			Rho:    quantize(rho),
			Kappa:  quantize(kappa),
		},
	}, nil
}
