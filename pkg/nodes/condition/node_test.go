package condition

import (
	"context"
	"testing"

	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIfNode_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		inputs    []any
		want      []any
		wantError bool
	}{
		{name: "true literal", inputs: []any{true, "true"}, want: []any{true}},
		{name: "false literal", inputs: []any{true, "false"}, want: []any{false}},
		{name: "upstream bool", inputs: []any{true, true}, want: []any{true}},
		{name: "closed gate", inputs: []any{false, "true"}, want: []any{false}},
		{name: "invalid literal", inputs: []any{true, "maybe"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outputs, err := NewIfNodeType().Run(context.Background(), protocol.Call{Inputs: tt.inputs})
			if tt.wantError {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, outputs)
		})
	}
}
