package ctxscan

import (
	"sort"

	"github.com/iatromantis91/semiocore-v1/internal/ir"
)

// keyTuple is the permutation identity: per-position op keys.
type keyTuple []ir.Key

func keysOf(ops []ir.Op) keyTuple {
	ks := make(keyTuple, len(ops))
	for i, op := range ops {
		ks[i] = ir.OpKey(op)
	}
	return ks
}

func (k keyTuple) equal(other keyTuple) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

func (k keyTuple) less(other keyTuple) bool {
	n := len(k)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if k[i] != other[i] {
			return k[i].Less(other[i])
		}
	}
	return len(k) < len(other)
}

// uniquePermutations enumerates every ordering of ops, deduplicated by
// key tuple so repeated identical operators do not inflate the count,
// sorted by key tuple for platform-independent order. A chain of one
// operator permutes only to itself.
func uniquePermutations(ops []ir.Op) [][]ir.Op {
	if len(ops) <= 1 {
		cp := make([]ir.Op, len(ops))
		copy(cp, ops)
		return [][]ir.Op{cp}
	}

	var (
		out  [][]ir.Op
		seen = make(map[string]bool)
		cur  = make([]ir.Op, 0, len(ops))
		used = make([]bool, len(ops))
	)

	var walk func()
	walk = func() {
		if len(cur) == len(ops) {
			sig := fingerprint(keysOf(cur))
			if !seen[sig] {
				seen[sig] = true
				cp := make([]ir.Op, len(cur))
				copy(cp, cur)
				out = append(out, cp)
			}
			return
		}
		for i := range ops {
			if used[i] {
				continue
			}
			used[i] = true
			cur = append(cur, ops[i])
			walk()
			cur = cur[:len(cur)-1]
			used[i] = false
		}
	}
	walk()

	sort.Slice(out, func(i, j int) bool {
		return keysOf(out[i]).less(keysOf(out[j]))
	})
	return out
}

// fingerprint renders a key tuple as a map key. Uses the canonical
// formatter for the rounded arg, so equal keys collide exactly.
func fingerprint(ks keyTuple) string {
	s := ""
	for _, k := range ks {
		s += k.Name
		if k.HasArg {
			s += "(" + ir.FormatArg(k.Arg) + ")"
		}
		s += "|"
	}
	return s
}

// anchorBaseline moves the permutation whose key tuple matches base to
// index 0, preserving the sorted order of the rest. The baseline is
// always present because enumeration covers every unique ordering.
func anchorBaseline(perms [][]ir.Op, base []ir.Op) [][]ir.Op {
	baseKeys := keysOf(base)
	for i, p := range perms {
		if keysOf(p).equal(baseKeys) {
			if i != 0 {
				moved := perms[i]
				perms = append(perms[:i], perms[i+1:]...)
				perms = append([][]ir.Op{moved}, perms...)
			}
			return perms
		}
	}
	return perms
}
