package add

import (
	"context"
	"testing"

	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		inputs    []any
		want      []any
		wantError bool
	}{
		{name: "literal text", inputs: []any{"3", "4"}, want: []any{true, 7}},
		{name: "upstream integers", inputs: []any{10, -3}, want: []any{true, 7}},
		{name: "mixed", inputs: []any{"5", 0}, want: []any{true, 5}},
		{name: "zero sum keeps the gate open", inputs: []any{"2", "-2"}, want: []any{true, 0}},
		{name: "not a number", inputs: []any{"three", "4"}, wantError: true},
		{name: "empty literal", inputs: []any{"", "4"}, wantError: true},
		{name: "absent value", inputs: []any{nil, "4"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outputs, err := NewAddNodeType().Run(context.Background(), protocol.Call{Inputs: tt.inputs})
			if tt.wantError {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, outputs)
		})
	}
}

func TestAddNode_Schema(t *testing.T) {
	node := NewAddNodeType()

	assert.Equal(t, "Add", node.ID())
	require.Len(t, node.Inputs(), 2)
	require.Len(t, node.Outputs(), 2)
	assert.True(t, node.Inputs()[0].HasLiteral())
}
