package store

import "strings"

// RunFilter narrows a run listing. The zero value matches every run.
type RunFilter struct {
	// Kind restricts the listing to one run kind. Empty matches all.
	Kind RunKind

	// Since is the minimum created_seq, inclusive. 0 matches all.
	Since int64

	// Limit caps the number of records returned. 0 means no limit.
	Limit int
}

// buildRunQuery compiles a filter into parameterized SQL. Every listing
// carries an ORDER BY on created_seq so results are deterministic, and
// values are always parameterized, never interpolated.
func buildRunQuery(f RunFilter) (string, []any) {
	var (
		where  []string
		params []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		params = append(params, string(f.Kind))
	}
	if f.Since > 0 {
		where = append(where, "created_seq >= ?")
		params = append(params, f.Since)
	}

	q := `SELECT id, kind, program_file, world_file, program_hash, world_hash, seed, created_seq FROM runs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_seq"
	if f.Limit > 0 {
		q += " LIMIT ?"
		params = append(params, f.Limit)
	}
	return q, params
}
