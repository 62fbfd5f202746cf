package merge

import (
	"context"
	"testing"

	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeNode_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		inputs    []any
		want      bool
		wantError bool
	}{
		{name: "all open", inputs: []any{true, true, true, ""}, want: true},
		{name: "all with one closed", inputs: []any{true, false, true, "all"}, want: false},
		{name: "unconnected paths ignored", inputs: []any{true, nil, true, ""}, want: true},
		{name: "nothing connected", inputs: []any{nil, nil, nil, ""}, want: false},
		{name: "any with one open", inputs: []any{false, true, nil, " ANY "}, want: true},
		{name: "any with none open", inputs: []any{false, false, false, "any"}, want: false},
		{name: "unknown mode", inputs: []any{true, true, true, "first"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outputs, err := NewMergeNodeType().Run(context.Background(), protocol.Call{Inputs: tt.inputs})
			if tt.wantError {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, []any{tt.want}, outputs)
		})
	}
}
