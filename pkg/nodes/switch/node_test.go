package switchnode

import (
	"context"
	"testing"

	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwitchNode_Schema(t *testing.T) {
	t.Parallel()

	node := NewSwitchNodeType()

	assert.Len(t, node.Inputs(), 2+Cases)
	assert.Len(t, node.Outputs(), 1+Cases)
	assert.True(t, node.Inputs()[2].HasLiteral())
}

func TestSwitchNode_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		inputs    []any
		want      []any
		wantError bool
	}{
		{
			name:   "second case",
			inputs: []any{true, "b", "a", "b", "c"},
			want:   []any{true, false, true, false},
		},
		{
			name:   "int value against literal",
			inputs: []any{true, 7, "7", "", ""},
			want:   []any{true, true, false, false},
		},
		{
			name:   "first match wins",
			inputs: []any{true, "a", "a", "a", ""},
			want:   []any{true, true, false, false},
		},
		{
			name:   "no match",
			inputs: []any{true, "z", "a", "b", "c"},
			want:   []any{false, false, false, false},
		},
		{
			name:   "empty cases never match",
			inputs: []any{true, "", "", "", ""},
			want:   []any{false, false, false, false},
		},
		{
			name:   "closed gate",
			inputs: []any{false, "a", "a", "", ""},
			want:   []any{false, false, false, false},
		},
		{
			name:      "uncomparable value",
			inputs:    []any{true, []int{1}, "a", "", ""},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outputs, err := NewSwitchNodeType().Run(context.Background(), protocol.Call{Inputs: tt.inputs})
			if tt.wantError {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, outputs)
		})
	}
}
