package ir

import (
	"strconv"
	"strings"
)

// CanonicalContext renders a context as "Op1>>Op2>>...". Argument-less
// operators render as their bare name; operators with an argument render
// as Name(arg) with the shortest decimal form that round-trips (0.5
// stays "0.5", never "0.500000").
//
// The string is format-stable across platforms and serves as the audit
// identity of a context in traces and reports. It is NOT a semantic
// equality key; use OpKey for that.
func CanonicalContext(c Context) string {
	parts := make([]string, len(c.Ops))
	for i, op := range c.Ops {
		if op.Arg == nil {
			parts[i] = string(op.Name)
			continue
		}
		parts[i] = string(op.Name) + "(" + FormatArg(*op.Arg) + ")"
	}
	return strings.Join(parts, ">>")
}

// FormatArg renders an operator argument in shortest round-trip form.
func FormatArg(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
