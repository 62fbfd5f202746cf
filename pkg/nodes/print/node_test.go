package print

import (
	"bytes"
	"context"
	"testing"

	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintNode_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		inputs []any
		want   string
	}{
		{name: "open gate prints integer", inputs: []any{true, 7}, want: "7\n"},
		{name: "open gate prints string", inputs: []any{true, "hello"}, want: "hello\n"},
		{name: "closed gate", inputs: []any{false, "hello"}, want: ""},
		{name: "absent gate", inputs: []any{nil, "hello"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			node := NewPrintNodeTypeWithWriter(&out)

			outputs, err := node.Run(context.Background(), protocol.Call{Inputs: tt.inputs})
			require.NoError(t, err)
			assert.Equal(t, []any{true}, outputs)
			assert.Equal(t, tt.want, out.String())
		})
	}
}
