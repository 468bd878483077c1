package ir

import (
	"fmt"
	"math"
)

// OpName identifies a context operator. The set is closed: the parser
// rejects unknown names and the engine re-validates at apply time.
type OpName string

const (
	// OpAdd shifts the value by a constant. Requires an argument.
	OpAdd OpName = "Add"

	// OpSign collapses the value to +1 or -1. Takes no argument.
	// Zero maps to -1; this boundary is load-bearing for fixtures.
	OpSign OpName = "Sign"

	// OpJitterU adds uniform noise in [-eps, +eps] drawn from the run's
	// LCG32 state. Requires an argument and a seeded program.
	OpJitterU OpName = "JitterU"
)

// Op is one operator in a context chain. Arg is nil for operators that
// take no argument.
type Op struct {
	Name OpName   `json:"name"`
	Arg  *float64 `json:"arg,omitempty"`
}

// NewOp builds an argument-less operator.
func NewOp(name OpName) Op {
	return Op{Name: name}
}

// NewOpArg builds an operator carrying an argument.
func NewOpArg(name OpName, arg float64) Op {
	return Op{Name: name, Arg: &arg}
}

// Validate checks that the operator name is known and its arity matches.
func (o Op) Validate() error {
	switch o.Name {
	case OpAdd, OpJitterU:
		if o.Arg == nil {
			return fmt.Errorf("operator %s requires an argument", o.Name)
		}
	case OpSign:
		if o.Arg != nil {
			return fmt.Errorf("operator %s takes no argument", o.Name)
		}
	default:
		return fmt.Errorf("unknown operator: %s", o.Name)
	}
	return nil
}

// Key is the dedupe/sort identity of an operator: the name plus the
// argument rounded to 12 decimals. Two ops with the same Key are
// interchangeable for permutation purposes even if their canonical
// strings differ under float formatting noise.
type Key struct {
	Name   string
	HasArg bool
	Arg    float64
}

// OpKey computes the permutation identity of op. Negative zero
// normalizes to zero so Add(0) and Add(-0) share a key.
func OpKey(op Op) Key {
	k := Key{Name: string(op.Name)}
	if op.Arg != nil {
		k.HasArg = true
		k.Arg = roundTo(*op.Arg, 12)
		if k.Arg == 0 {
			k.Arg = 0
		}
	}
	return k
}

// Less orders keys by (name, has-arg, arg). Used to sort permutations
// into a platform-independent order.
func (k Key) Less(other Key) bool {
	if k.Name != other.Name {
		return k.Name < other.Name
	}
	if k.HasArg != other.HasArg {
		return !k.HasArg
	}
	return k.Arg < other.Arg
}

func roundTo(x float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(x*p) / p
}

// Context is an ordered, non-empty operator chain. Order is semantically
// significant: operators generally do not commute.
type Context struct {
	Ops []Op `json:"ops"`
}

// WithOps returns a new Context carrying ops. The input slice is copied;
// the receiver is never mutated.
func (c Context) WithOps(ops []Op) Context {
	cp := make([]Op, len(ops))
	copy(cp, ops)
	return Context{Ops: cp}
}

// Validate checks that the chain is non-empty and every operator is
// well-formed.
func (c Context) Validate() error {
	if len(c.Ops) == 0 {
		return fmt.Errorf("context must contain at least one operator")
	}
	for i, op := range c.Ops {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operator %d: %w", i, err)
		}
	}
	return nil
}

// StmtKind tags the statement variants of the sensing language.
type StmtKind string

const (
	StmtTick      StmtKind = "tick"
	StmtSense     StmtKind = "sense"
	StmtCommit    StmtKind = "commit"
	StmtAddBias   StmtKind = "do_add_bias"
	StmtSummarize StmtKind = "out_summarize"
)

// Stmt is one statement of a program body. Field use per kind:
//
//	tick          X=dt
//	sense         Var, Channel
//	commit        Var
//	do_add_bias   X=bias
//	out_summarize (marker only)
type Stmt struct {
	Kind    StmtKind `json:"kind"`
	Var     string   `json:"var,omitempty"`
	Channel string   `json:"channel,omitempty"`
	X       float64  `json:"x,omitempty"`
}

// Program is a parsed sensing program. Programs are created once by the
// parser and read-only thereafter; the scanner derives siblings via
// WithContext without touching the original.
type Program struct {
	Seed    *uint32 `json:"seed,omitempty"`
	Context Context `json:"context"`
	Body    []Stmt  `json:"body"`
}

// WithContext returns a copy of p with the context replaced. Body and
// seed are shared structurally; Body is never mutated after parse.
func (p Program) WithContext(ctx Context) Program {
	p.Context = ctx
	return p
}

// WithSeed returns a copy of p with the seed replaced. Used by replay
// to apply a manifest's seed override.
func (p Program) WithSeed(seed uint32) Program {
	p.Seed = &seed
	return p
}

// World maps channel names to their current signal values. Loading and
// descriptor coercion live in the world package; the engine only reads.
type World struct {
	Channels map[string]float64 `json:"channels"`
}
