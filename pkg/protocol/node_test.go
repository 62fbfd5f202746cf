package protocol_test

import (
	"testing"

	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
)

func TestCall_Gate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		inputs []any
		want   bool
	}{
		{name: "true opens", inputs: []any{true}, want: true},
		{name: "false closes", inputs: []any{false}, want: false},
		{name: "absent closes", inputs: []any{nil}, want: false},
		{name: "missing closes", inputs: nil, want: false},
		{name: "truthy string closes", inputs: []any{"true"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			call := protocol.Call{Inputs: tt.inputs}
			assert.Equal(t, tt.want, call.Gate(0))
		})
	}
}

func TestCall_Input(t *testing.T) {
	t.Parallel()

	call := protocol.Call{Inputs: []any{1, "two"}}
	assert.Equal(t, 1, call.Input(0))
	assert.Equal(t, "two", call.Input(1))
	assert.Nil(t, call.Input(2))
	assert.Nil(t, call.Input(-1))
}
