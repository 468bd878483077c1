// Package store provides a durable SQLite archive of runs and their
// emitted artifacts (traces, scan reports, plasticity reports).
//
// The archive is an audit surface, not a cache: artifacts are stored as
// the exact emitted JSON text together with its sha-256 digest, so a
// stored trace can be compared byte-for-byte against a later replay.
// Writes are idempotent; re-recording the same run or artifact is a
// no-op rather than an error.
package store
