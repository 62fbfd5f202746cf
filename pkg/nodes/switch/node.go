// Package switchnode provides the Switch node, which routes its gate to the
// output of the first case matching its value.
package switchnode

import (
	"context"
	"fmt"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/spf13/cast"
)

// Cases is the number of case pins a Switch node carries.
const Cases = 3

// SwitchNode compares its value with each case literal in order. The first
// output reports whether any case matched, so an unmatched value halts the run.
type SwitchNode struct{}

// NewSwitchNodeType creates the Switch node type.
func NewSwitchNodeType() protocol.NodeType {
	return &SwitchNode{}
}

func (n *SwitchNode) ID() string {
	return "Switch"
}

func (n *SwitchNode) Name() string {
	return "Switch"
}

func (n *SwitchNode) Description() string {
	return "Opens the gate of the first case equal to the value; stops the run when none matches"
}

func (n *SwitchNode) Inputs() []models.PinSchema {
	pins := []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "value", Kind: models.KindDynamic, Editable: true},
	}

	for i := range Cases {
		pins = append(pins, models.PinSchema{Name: fmt.Sprintf("case %d", i+1), Kind: models.KindString, Editable: true})
	}

	return pins
}

func (n *SwitchNode) Outputs() []models.PinSchema {
	pins := []models.PinSchema{{Name: "matched", Kind: models.KindGate}}

	for i := range Cases {
		pins = append(pins, models.PinSchema{Name: fmt.Sprintf("case %d", i+1), Kind: models.KindGate})
	}

	return pins
}

func (n *SwitchNode) Run(_ context.Context, call protocol.Call) ([]any, error) {
	outputs := make([]any, Cases+1)
	for i := range outputs {
		outputs[i] = false
	}

	if !call.Gate(0) {
		return outputs, nil
	}

	value, err := cast.ToStringE(call.Input(1))
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}

	for i := range Cases {
		// Empty cases are unused.
		candidate, _ := call.Input(2 + i).(string)
		if candidate == "" || candidate != value {
			continue
		}

		outputs[0] = true
		outputs[1+i] = true

		break
	}

	return outputs, nil
}
