package engine

import "github.com/iatromantis91/semiocore-v1/internal/ir"

// applyContext runs the operator pipeline over r in declared order,
// threading the optional RNG state. Returns the effective value, the
// advanced RNG state, and the jitter noise if JitterU was applied.
//
// Operator names and arities are re-validated here even though the
// parser already did: the scanner derives contexts programmatically, so
// the pipeline cannot trust that every context passed through parsing.
func applyContext(r float64, ctx ir.Context, rng *uint32) (float64, *uint32, *float64, error) {
	var noiseOut *float64

	for _, op := range ctx.Ops {
		switch op.Name {
		case ir.OpAdd:
			if op.Arg == nil {
				return 0, nil, nil, newRuntimeError(ErrCodeBadOperatorArg, "Add requires an argument")
			}
			r += *op.Arg

		case ir.OpSign:
			// r == 0 maps to -1.
			if r > 0 {
				r = 1.0
			} else {
				r = -1.0
			}

		case ir.OpJitterU:
			if op.Arg == nil {
				return 0, nil, nil, newRuntimeError(ErrCodeBadOperatorArg, "JitterU requires an argument")
			}
			if rng == nil {
				return 0, nil, nil, newRuntimeError(ErrCodeRNGRequired, "JitterU requires a seeded program")
			}
			u, next := lcgU01(*rng)
			rng = &next
			noise := (2.0*u - 1.0) * *op.Arg
			r += noise
			noiseOut = &noise

		default:
			return 0, nil, nil, newRuntimeError(ErrCodeUnknownOperator, "unknown operator: %s", op.Name)
		}
	}

	return r, rng, noiseOut, nil
}
