package engine

// LCG32 constants. Fixed by the trace contract: replaying a manifest
// with the same state0 must reproduce every draw bit-for-bit.
const (
	LCGMultiplier = 1664525
	LCGIncrement  = 1013904223
	LCGModulus    = 1 << 32
)

// lcgNext advances the 32-bit linear congruential generator one step.
// Pure function of its input; the engine threads the state explicitly
// through interpretation and never holds a shared generator instance.
func lcgNext(state uint32) uint32 {
	return uint32((LCGMultiplier*uint64(state) + LCGIncrement) & 0xFFFFFFFF)
}

// lcgU01 draws one uniform value in [0, 1), returning it with the
// advanced state.
func lcgU01(state uint32) (float64, uint32) {
	next := lcgNext(state)
	return float64(next) / float64(LCGModulus), next
}
