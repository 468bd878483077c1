package parser

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/iatromantis91/semiocore-v1/internal/ir"
)

// ParseError reports a structural violation at a source location.
type ParseError struct {
	Path string
	Line int // 1-based; 0 when the error is not tied to one line
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func errAt(path string, line int, format string, args ...any) *ParseError {
	return &ParseError{Path: path, Line: line, Msg: fmt.Sprintf(format, args...)}
}

var (
	reSeed      = regexp.MustCompile(`(?i)^seed\s+(\d+)\s*;?$`)
	reCtxOpen   = regexp.MustCompile(`(?i)^context\s+(.+?)\s*\{$`)
	reCtxClose  = regexp.MustCompile(`^\}$`)
	reTick      = regexp.MustCompile(`(?i)^tick\s+([0-9]*\.?[0-9]+)\s*;?$`)
	reSense     = regexp.MustCompile(`(?i)^([A-Za-z_]\w*)\s*:=\s*sense\s+([A-Za-z_]\w*)\s*;?$`)
	reCommit    = regexp.MustCompile(`(?i)^commit\s+([A-Za-z_]\w*)\s*;?$`)
	reAddBias   = regexp.MustCompile(`(?i)^do\s+add_bias\(\s*([+-]?[0-9]*\.?[0-9]+)\s*\)\s*;?$`)
	reSummarize = regexp.MustCompile(`(?i)^out\s*:=\s*summarize\s*;?$`)
	reOp        = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?:\(\s*([+-]?[0-9]*\.?[0-9]+)\s*\))?$`)
)

// stripComment drops everything from '#' to end of line and trims space.
func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// ParseChain parses a ">>"-separated operator chain such as
// "Add(0.5)>>Sign" into a context. Operator names and arities are
// validated here; the engine re-validates at apply time because the
// scanner can rebuild contexts programmatically.
func ParseChain(spec string) (ir.Context, error) {
	var ops []ir.Op
	for _, part := range strings.Split(spec, ">>") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m := reOp.FindStringSubmatch(part)
		if m == nil {
			return ir.Context{}, fmt.Errorf("invalid operator in context: %q", part)
		}
		op := ir.Op{Name: ir.OpName(m[1])}
		if m[2] != "" {
			arg, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return ir.Context{}, fmt.Errorf("invalid operator argument %q: %v", m[2], err)
			}
			op.Arg = &arg
		}
		if err := op.Validate(); err != nil {
			return ir.Context{}, err
		}
		ops = append(ops, op)
	}
	if len(ops) == 0 {
		return ir.Context{}, fmt.Errorf("context must contain at least one operator")
	}
	return ir.Context{Ops: ops}, nil
}

// Parse consumes program source and returns the immutable program.
// path is used for error locations only.
func Parse(text, path string) (ir.Program, error) {
	var (
		seed  *uint32
		ctx   *ir.Context
		body  []ir.Stmt
		inCtx bool
	)

	lines := strings.Split(text, "\n")
	for n, raw := range lines {
		lineNo := n + 1
		line := stripComment(raw)
		if line == "" {
			continue
		}

		if m := reSeed.FindStringSubmatch(line); m != nil && !inCtx {
			v, err := strconv.ParseUint(m[1], 10, 64)
			if err != nil {
				return ir.Program{}, errAt(path, lineNo, "invalid seed %q: %v", m[1], err)
			}
			s := uint32(v & 0xFFFFFFFF)
			seed = &s
			continue
		}

		if m := reCtxOpen.FindStringSubmatch(line); m != nil && !inCtx {
			if ctx != nil {
				return ir.Program{}, errAt(path, lineNo, "duplicate context block")
			}
			parsed, err := ParseChain(m[1])
			if err != nil {
				return ir.Program{}, errAt(path, lineNo, "%v", err)
			}
			ctx = &parsed
			inCtx = true
			continue
		}

		if reCtxClose.MatchString(line) && inCtx {
			inCtx = false
			continue
		}

		if !inCtx {
			// A trailing summarize outside the block is accepted for
			// compatibility with older program files.
			if reSummarize.MatchString(line) {
				body = append(body, ir.Stmt{Kind: ir.StmtSummarize})
				continue
			}
			return ir.Program{}, errAt(path, lineNo, "unexpected top-level statement: %s", line)
		}

		switch {
		case reTick.MatchString(line):
			m := reTick.FindStringSubmatch(line)
			dt, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return ir.Program{}, errAt(path, lineNo, "invalid tick duration %q", m[1])
			}
			body = append(body, ir.Stmt{Kind: ir.StmtTick, X: dt})

		case reSense.MatchString(line):
			m := reSense.FindStringSubmatch(line)
			body = append(body, ir.Stmt{Kind: ir.StmtSense, Var: m[1], Channel: m[2]})

		case reCommit.MatchString(line):
			m := reCommit.FindStringSubmatch(line)
			body = append(body, ir.Stmt{Kind: ir.StmtCommit, Var: m[1]})

		case reAddBias.MatchString(line):
			m := reAddBias.FindStringSubmatch(line)
			x, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return ir.Program{}, errAt(path, lineNo, "invalid bias value %q", m[1])
			}
			body = append(body, ir.Stmt{Kind: ir.StmtAddBias, X: x})

		case reSummarize.MatchString(line):
			body = append(body, ir.Stmt{Kind: ir.StmtSummarize})

		default:
			return ir.Program{}, errAt(path, lineNo, "unrecognized statement: %s", line)
		}
	}

	if inCtx {
		return ir.Program{}, errAt(path, 0, "unclosed context block")
	}
	if ctx == nil {
		return ir.Program{}, errAt(path, 0, "missing 'context ... { ... }' block")
	}

	hasSummarize := false
	for _, st := range body {
		if st.Kind == ir.StmtSummarize {
			hasSummarize = true
			break
		}
	}
	if !hasSummarize {
		return ir.Program{}, errAt(path, 0, "missing 'out := summarize'")
	}

	// Forward check: every commit must name a variable sensed earlier in
	// program order. Single pass, not dataflow analysis.
	sensed := make(map[string]bool)
	for _, st := range body {
		switch st.Kind {
		case ir.StmtSense:
			sensed[st.Var] = true
		case ir.StmtCommit:
			if !sensed[st.Var] {
				return ir.Program{}, errAt(path, 0, "commit %s before sensing it", st.Var)
			}
		}
	}

	return ir.Program{Seed: seed, Context: *ctx, Body: body}, nil
}

// ParseFile reads and parses the program at path.
func ParseFile(path string) (ir.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ir.Program{}, fmt.Errorf("read program: %w", err)
	}
	return Parse(string(data), path)
}
