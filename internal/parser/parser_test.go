package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iatromantis91/semiocore-v1/internal/ir"
)

const validProgram = `
# affirmation under shifted sign
seed 12345
context Add(0.5)>>Sign {
  tick 1.0
  x := sense ch_a   # bind x to channel ch_a
  do add_bias(0.1)
  commit x
  out := summarize
}
`

func TestParse_ValidProgram(t *testing.T) {
	prog, err := Parse(validProgram, "valid.semio")
	require.NoError(t, err)

	require.NotNil(t, prog.Seed)
	assert.Equal(t, uint32(12345), *prog.Seed)

	require.Len(t, prog.Context.Ops, 2)
	assert.Equal(t, "Add(0.5)>>Sign", ir.CanonicalContext(prog.Context))

	require.Len(t, prog.Body, 5)
	assert.Equal(t, ir.StmtTick, prog.Body[0].Kind)
	assert.Equal(t, 1.0, prog.Body[0].X)
	assert.Equal(t, ir.StmtSense, prog.Body[1].Kind)
	assert.Equal(t, "x", prog.Body[1].Var)
	assert.Equal(t, "ch_a", prog.Body[1].Channel)
	assert.Equal(t, ir.StmtAddBias, prog.Body[2].Kind)
	assert.Equal(t, 0.1, prog.Body[2].X)
	assert.Equal(t, ir.StmtCommit, prog.Body[3].Kind)
	assert.Equal(t, ir.StmtSummarize, prog.Body[4].Kind)
}

func TestParse_SummarizeOutsideBlock(t *testing.T) {
	src := `
context Sign {
  tick 1.0
  x := sense ch
  commit x
}
out := summarize
`
	prog, err := Parse(src, "trailing.semio")
	require.NoError(t, err)
	assert.Equal(t, ir.StmtSummarize, prog.Body[len(prog.Body)-1].Kind)
}

func TestParse_NoSeedIsAllowed(t *testing.T) {
	src := `
context Sign {
  tick 1.0
  x := sense ch
  commit x
  out := summarize
}
`
	prog, err := Parse(src, "unseeded.semio")
	require.NoError(t, err)
	assert.Nil(t, prog.Seed)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "unclosed context block",
			src:     "context Sign {\n tick 1.0\n x := sense ch\n commit x\n out := summarize\n",
			wantErr: "unclosed context block",
		},
		{
			name:    "missing context block",
			src:     "out := summarize\n",
			wantErr: "missing 'context",
		},
		{
			name:    "missing summarize",
			src:     "context Sign {\n tick 1.0\n x := sense ch\n commit x\n}\n",
			wantErr: "missing 'out := summarize'",
		},
		{
			name:    "commit before sense",
			src:     "context Sign {\n tick 1.0\n commit x\n x := sense ch\n out := summarize\n}\n",
			wantErr: "commit x before sensing it",
		},
		{
			name:    "empty operator chain",
			src:     "context >> {\n tick 1.0\n out := summarize\n}\n",
			wantErr: "at least one operator",
		},
		{
			name:    "unknown operator",
			src:     "context Negate {\n tick 1.0\n out := summarize\n}\n",
			wantErr: "unknown operator",
		},
		{
			name:    "operator missing argument",
			src:     "context Add {\n tick 1.0\n out := summarize\n}\n",
			wantErr: "requires an argument",
		},
		{
			name:    "operator with unexpected argument",
			src:     "context Sign(2) {\n tick 1.0\n out := summarize\n}\n",
			wantErr: "takes no argument",
		},
		{
			name:    "unrecognized statement",
			src:     "context Sign {\n warp 9\n out := summarize\n}\n",
			wantErr: "unrecognized statement",
		},
		{
			name:    "top-level statement outside context",
			src:     "tick 1.0\ncontext Sign {\n out := summarize\n}\n",
			wantErr: "unexpected top-level statement",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, "bad.semio")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_ErrorCarriesLocation(t *testing.T) {
	src := "context Sign {\n tick 1.0\n warp 9\n out := summarize\n}\n"
	_, err := Parse(src, "prog.semio")
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "prog.semio", pe.Path)
	assert.Equal(t, 3, pe.Line)
}

func TestParseChain_CanonicalRoundTrip(t *testing.T) {
	chains := []string{
		"Sign",
		"Add(0.5)",
		"Add(0.5)>>Sign",
		"Add(-0.3)>>Sign>>JitterU(0.05)",
		"Add(2)>>Add(0.5)",
	}

	for _, chain := range chains {
		t.Run(chain, func(t *testing.T) {
			ctx, err := ParseChain(chain)
			require.NoError(t, err)
			assert.Equal(t, chain, ir.CanonicalContext(ctx), "canonical string must round-trip")
		})
	}
}

func TestParse_CaseInsensitiveKeywords(t *testing.T) {
	src := `
SEED 7
CONTEXT Sign {
  TICK 0.5
  x := SENSE ch
  COMMIT x
  OUT := SUMMARIZE
}
`
	prog, err := Parse(src, "caps.semio")
	require.NoError(t, err)
	require.NotNil(t, prog.Seed)
	assert.Equal(t, uint32(7), *prog.Seed)
	require.Len(t, prog.Body, 4)
}
