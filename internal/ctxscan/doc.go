// Package ctxscan enumerates reorderings of a program's context chain
// and re-executes the engine under each to detect contextuality: an
// observable divergence of outcomes under reordering of non-commuting
// operators.
//
// Everything about the scan is deterministic by construction. The
// permutation list is deduplicated on (name, arg rounded to 12 decimals)
// keys, sorted by those keys, and anchored with the as-written baseline
// at index 0, so "the first diverging permutation" is a well-defined,
// reproducible artifact rather than an execution-order accident.
// Per-permutation runs are independent pure computations and may fan
// out across workers; witness selection is always a sequential fold
// over the fixed index order afterwards.
package ctxscan
