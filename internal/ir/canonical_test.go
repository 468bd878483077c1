package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
		want string
	}{
		{
			name: "bare operator",
			ctx:  Context{Ops: []Op{NewOp(OpSign)}},
			want: "Sign",
		},
		{
			name: "operator with arg keeps minimal digits",
			ctx:  Context{Ops: []Op{NewOpArg(OpAdd, 0.5)}},
			want: "Add(0.5)",
		},
		{
			name: "chain",
			ctx: Context{Ops: []Op{
				NewOpArg(OpAdd, 0.5),
				NewOp(OpSign),
				NewOpArg(OpJitterU, 0.05),
			}},
			want: "Add(0.5)>>Sign>>JitterU(0.05)",
		},
		{
			name: "negative arg",
			ctx:  Context{Ops: []Op{NewOpArg(OpAdd, -0.3)}},
			want: "Add(-0.3)",
		},
		{
			name: "integral arg",
			ctx:  Context{Ops: []Op{NewOpArg(OpAdd, 2)}},
			want: "Add(2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalContext(tt.ctx))
		})
	}
}

func TestHashBytes_Stable(t *testing.T) {
	assert.Equal(t, HashBytes([]byte("semio")), HashBytes([]byte("semio")))
	assert.NotEqual(t, HashBytes([]byte("semio")), HashBytes([]byte("core")))
	assert.Len(t, HashBytes(nil), 64)
}
