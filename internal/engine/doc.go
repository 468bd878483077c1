// Package engine interprets a sensing program against a world and
// produces an ordered event trace with summary statistics.
//
// The interpreter is a pure batch computation: simulated time, the
// overwritable bias, sensed bindings, the LCG32 state and the step
// counter are all locals of one Run call, never shared. Identical
// (program, world, seed) inputs always yield byte-identical traces;
// that determinism is the system's central correctness invariant and
// is what lets the scanner and replay compare outputs structurally.
//
// Execution is all-or-nothing. Any statement-level violation aborts the
// run with a *RuntimeError naming the exact invariant; no partial trace
// is ever returned.
package engine
