package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iatromantis91/semiocore-v1/internal/ir"
)

// progAddSign is the worked non-commutativity example: one tick, one
// sense, one commit under Add(0.5)>>Sign.
func progAddSign(seed *uint32) ir.Program {
	return ir.Program{
		Seed: seed,
		Context: ir.Context{Ops: []ir.Op{
			ir.NewOpArg(ir.OpAdd, 0.5),
			ir.NewOp(ir.OpSign),
		}},
		Body: []ir.Stmt{
			{Kind: ir.StmtTick, X: 1.0},
			{Kind: ir.StmtSense, Var: "x", Channel: "ch"},
			{Kind: ir.StmtCommit, Var: "x"},
			{Kind: ir.StmtSummarize},
		},
	}
}

func worldWith(value float64) ir.World {
	return ir.World{Channels: map[string]float64{"ch": value}}
}

func TestRun_NonCommutingExample(t *testing.T) {
	// s=-0.3: Add(0.5)>>Sign gives -0.3 -> 0.2 -> +1 -> AFFIRM.
	tr, err := Run(progAddSign(nil), worldWith(-0.3), "p.semio")
	require.NoError(t, err)
	require.Len(t, tr.Events, 1)

	ev := tr.Events[0]
	assert.Equal(t, 1, ev.Step)
	assert.Equal(t, "Add(0.5)>>Sign", ev.Ctx)
	assert.Equal(t, -0.3, ev.S)
	assert.Equal(t, -0.3, ev.RRaw)
	assert.Equal(t, 1.0, ev.REff)
	assert.Equal(t, ObjAffirm, ev.Obj)
	assert.Equal(t, ObjNegate, ev.ExpectedObj, "ground truth comes from the raw sensed value")
	assert.Equal(t, 0.0, ev.KappaLoc)

	// Permuted Sign>>Add(0.5): sign(-0.3)=-1 -> -0.5 -> NEGATE.
	permuted := progAddSign(nil).WithContext(ir.Context{Ops: []ir.Op{
		ir.NewOp(ir.OpSign),
		ir.NewOpArg(ir.OpAdd, 0.5),
	}})
	tr2, err := Run(permuted, worldWith(-0.3), "p.semio")
	require.NoError(t, err)
	assert.Equal(t, ObjNegate, tr2.Events[0].Obj)
	assert.Equal(t, -0.5, tr2.Events[0].REff)
}

func TestRun_CommutingExample(t *testing.T) {
	// s=0.3: both orders of Add(0.5) and Sign end AFFIRM.
	tr, err := Run(progAddSign(nil), worldWith(0.3), "p.semio")
	require.NoError(t, err)
	assert.Equal(t, ObjAffirm, tr.Events[0].Obj)

	permuted := progAddSign(nil).WithContext(ir.Context{Ops: []ir.Op{
		ir.NewOp(ir.OpSign),
		ir.NewOpArg(ir.OpAdd, 0.5),
	}})
	tr2, err := Run(permuted, worldWith(0.3), "p.semio")
	require.NoError(t, err)
	assert.Equal(t, ObjAffirm, tr2.Events[0].Obj)
	assert.Equal(t, 1.5, tr2.Events[0].REff)
}

func TestRun_SignZeroMapsToNegate(t *testing.T) {
	prog := progAddSign(nil).WithContext(ir.Context{Ops: []ir.Op{ir.NewOp(ir.OpSign)}})

	tr, err := Run(prog, worldWith(0.0), "p.semio")
	require.NoError(t, err)
	assert.Equal(t, -1.0, tr.Events[0].REff, "Sign(0) collapses to -1, not +1")
	assert.Equal(t, ObjNegate, tr.Events[0].Obj)
}

func TestRun_BiasOverwritesNotAccumulates(t *testing.T) {
	prog := ir.Program{
		Context: ir.Context{Ops: []ir.Op{ir.NewOpArg(ir.OpAdd, 0.0)}},
		Body: []ir.Stmt{
			{Kind: ir.StmtTick, X: 1.0},
			{Kind: ir.StmtSense, Var: "x", Channel: "ch"},
			{Kind: ir.StmtAddBias, X: 0.4},
			{Kind: ir.StmtAddBias, X: 0.1},
			{Kind: ir.StmtCommit, Var: "x"},
			{Kind: ir.StmtSummarize},
		},
	}

	tr, err := Run(prog, worldWith(0.2), "p.semio")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, tr.Events[0].RRaw, 1e-12, "second add_bias replaces the first")
}

func TestRun_SenseRebindsVariable(t *testing.T) {
	prog := ir.Program{
		Context: ir.Context{Ops: []ir.Op{ir.NewOp(ir.OpSign)}},
		Body: []ir.Stmt{
			{Kind: ir.StmtTick, X: 1.0},
			{Kind: ir.StmtSense, Var: "x", Channel: "neg"},
			{Kind: ir.StmtSense, Var: "x", Channel: "pos"},
			{Kind: ir.StmtCommit, Var: "x"},
			{Kind: ir.StmtSummarize},
		},
	}
	w := ir.World{Channels: map[string]float64{"neg": -1.0, "pos": 1.0}}

	tr, err := Run(prog, w, "p.semio")
	require.NoError(t, err)
	assert.Equal(t, "pos", tr.Events[0].Channel, "later sense overwrites the binding")
	assert.Equal(t, ObjAffirm, tr.Events[0].Obj)
}

func TestRun_Quantization_NonJittered(t *testing.T) {
	prog := ir.Program{
		Context: ir.Context{Ops: []ir.Op{ir.NewOpArg(ir.OpAdd, 0.2)}},
		Body: []ir.Stmt{
			{Kind: ir.StmtTick, X: 0.1},
			{Kind: ir.StmtTick, X: 0.2}, // 0.1+0.2 leaves binary dust
			{Kind: ir.StmtSense, Var: "x", Channel: "ch"},
			{Kind: ir.StmtCommit, Var: "x"},
			{Kind: ir.StmtSummarize},
		},
	}

	tr, err := Run(prog, worldWith(0.1), "p.semio")
	require.NoError(t, err)

	ev := tr.Events[0]
	assert.Nil(t, ev.Noise)
	assert.Equal(t, 0.3, ev.T, "t must be quantized to 10 decimals")
	assert.Equal(t, 0.3, ev.REff, "0.1+0.2 must be quantized to 10 decimals")
	assert.Equal(t, 0.3, tr.Summary.DeltaT)
}

func TestRun_Jitter_KeepsFullPrecision(t *testing.T) {
	seed := uint32(12345)
	prog := ir.Program{
		Seed: &seed,
		Context: ir.Context{Ops: []ir.Op{
			ir.NewOpArg(ir.OpJitterU, 0.05),
		}},
		Body: []ir.Stmt{
			{Kind: ir.StmtTick, X: 0.1},
			{Kind: ir.StmtTick, X: 0.2},
			{Kind: ir.StmtSense, Var: "x", Channel: "ch"},
			{Kind: ir.StmtCommit, Var: "x"},
			{Kind: ir.StmtSummarize},
		},
	}

	tr, err := Run(prog, worldWith(0.1), "p.semio")
	require.NoError(t, err)

	ev := tr.Events[0]
	require.NotNil(t, ev.Noise)
	assert.LessOrEqual(t, *ev.Noise, 0.05)
	assert.GreaterOrEqual(t, *ev.Noise, -0.05)
	assert.Equal(t, 0.1+0.2, ev.T, "jittered events keep unrounded time")
	assert.Equal(t, 0.1+*ev.Noise, ev.REff)
	// Summary stays quantized regardless.
	assert.Equal(t, 0.3, tr.Summary.DeltaT)
}

func TestRun_RNGReproducibility(t *testing.T) {
	seed := uint32(12345)
	prog := ir.Program{
		Seed:    &seed,
		Context: ir.Context{Ops: []ir.Op{ir.NewOpArg(ir.OpJitterU, 0.05)}},
		Body: []ir.Stmt{
			{Kind: ir.StmtTick, X: 1.0},
			{Kind: ir.StmtSense, Var: "x", Channel: "ch"},
			{Kind: ir.StmtCommit, Var: "x"},
			{Kind: ir.StmtSummarize},
		},
	}

	tr1, err := Run(prog, worldWith(0.1), "p.semio")
	require.NoError(t, err)
	tr2, err := Run(prog, worldWith(0.1), "p.semio")
	require.NoError(t, err)
	assert.Equal(t, *tr1.Events[0].Noise, *tr2.Events[0].Noise, "same seed, same noise")
	assert.Equal(t, tr1, tr2, "engine runs are deterministic")

	other := prog.WithSeed(54321)
	tr3, err := Run(other, worldWith(0.1), "p.semio")
	require.NoError(t, err)
	assert.NotEqual(t, *tr1.Events[0].Noise, *tr3.Events[0].Noise, "different seed, different noise")
}

func TestRun_MultipleJitterDrawsAdvanceState(t *testing.T) {
	seed := uint32(7)
	prog := ir.Program{
		Seed:    &seed,
		Context: ir.Context{Ops: []ir.Op{ir.NewOpArg(ir.OpJitterU, 0.5)}},
		Body: []ir.Stmt{
			{Kind: ir.StmtTick, X: 1.0},
			{Kind: ir.StmtSense, Var: "x", Channel: "ch"},
			{Kind: ir.StmtCommit, Var: "x"},
			{Kind: ir.StmtCommit, Var: "x"},
			{Kind: ir.StmtSummarize},
		},
	}

	tr, err := Run(prog, worldWith(0.1), "p.semio")
	require.NoError(t, err)
	require.Len(t, tr.Events, 2)
	assert.NotEqual(t, *tr.Events[0].Noise, *tr.Events[1].Noise, "state must thread across commits")
}

func TestRun_SummaryIdentities(t *testing.T) {
	prog := ir.Program{
		Context: ir.Context{Ops: []ir.Op{ir.NewOp(ir.OpSign)}},
		Body: []ir.Stmt{
			{Kind: ir.StmtTick, X: 2.0},
			{Kind: ir.StmtSense, Var: "x", Channel: "ch"},
			{Kind: ir.StmtCommit, Var: "x"},
			{Kind: ir.StmtCommit, Var: "x"},
			{Kind: ir.StmtTick, X: 2.0},
			{Kind: ir.StmtCommit, Var: "x"},
			{Kind: ir.StmtSummarize},
		},
	}

	tr, err := Run(prog, worldWith(0.4), "p.semio")
	require.NoError(t, err)

	assert.Equal(t, 3, tr.Summary.N)
	assert.InDelta(t, float64(tr.Summary.N)/tr.Summary.DeltaT, tr.Summary.Rho, 1e-9)

	sum := 0.0
	for _, ev := range tr.Events {
		sum += ev.KappaLoc
	}
	assert.InDelta(t, sum/float64(len(tr.Events)), tr.Summary.Kappa, 1e-9)
}

func TestRun_Errors(t *testing.T) {
	base := progAddSign(nil)

	tests := []struct {
		name     string
		prog     ir.Program
		world    ir.World
		wantCode RuntimeErrorCode
	}{
		{
			name: "non-positive tick",
			prog: ir.Program{
				Context: base.Context,
				Body: []ir.Stmt{
					{Kind: ir.StmtTick, X: 0},
					{Kind: ir.StmtSummarize},
				},
			},
			world:    worldWith(0.1),
			wantCode: ErrCodeNonPositiveTick,
		},
		{
			name:     "unknown channel",
			prog:     base,
			world:    ir.World{Channels: map[string]float64{"other": 1}},
			wantCode: ErrCodeUnknownChannel,
		},
		{
			name: "commit unsensed variable",
			prog: ir.Program{
				Context: base.Context,
				Body: []ir.Stmt{
					{Kind: ir.StmtTick, X: 1.0},
					{Kind: ir.StmtCommit, Var: "ghost"},
					{Kind: ir.StmtSummarize},
				},
			},
			world:    worldWith(0.1),
			wantCode: ErrCodeCommitUnsensed,
		},
		{
			name: "jitter without seed",
			prog: ir.Program{
				Context: ir.Context{Ops: []ir.Op{ir.NewOpArg(ir.OpJitterU, 0.05)}},
				Body:    base.Body,
			},
			world:    worldWith(0.1),
			wantCode: ErrCodeRNGRequired,
		},
		{
			name:     "unknown operator rebuilt programmatically",
			prog:     base.WithContext(ir.Context{Ops: []ir.Op{{Name: "Negate"}}}),
			world:    worldWith(0.1),
			wantCode: ErrCodeUnknownOperator,
		},
		{
			name:     "add missing argument rebuilt programmatically",
			prog:     base.WithContext(ir.Context{Ops: []ir.Op{{Name: ir.OpAdd}}}),
			world:    worldWith(0.1),
			wantCode: ErrCodeBadOperatorArg,
		},
		{
			name: "no elapsed time",
			prog: ir.Program{
				Context: base.Context,
				Body: []ir.Stmt{
					{Kind: ir.StmtSense, Var: "x", Channel: "ch"},
					{Kind: ir.StmtCommit, Var: "x"},
					{Kind: ir.StmtSummarize},
				},
			},
			world:    worldWith(0.1),
			wantCode: ErrCodeNonPositiveTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Run(tt.prog, tt.world, "p.semio")
			require.Error(t, err)
			assert.Nil(t, tr, "failed runs must not return a partial trace")
			assert.Equal(t, tt.wantCode, ErrorCode(err))
		})
	}
}

func TestLCG_KnownSequence(t *testing.T) {
	// Transition is state' = (1664525*state + 1013904223) mod 2^32.
	assert.Equal(t, uint32(1013904223), lcgNext(0))
	assert.Equal(t, uint32((1664525*12345+1013904223)&0xFFFFFFFF), lcgNext(12345))

	u, next := lcgU01(12345)
	assert.Equal(t, lcgNext(12345), next)
	assert.GreaterOrEqual(t, u, 0.0)
	assert.Less(t, u, 1.0)
}
