// Package condition provides the If node, which closes the gate on a false condition.
package condition

import (
	"context"
	"fmt"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/spf13/cast"
)

// IfNode passes its gate through only when the condition holds.
type IfNode struct{}

// NewIfNodeType creates the If node type.
func NewIfNodeType() protocol.NodeType {
	return &IfNode{}
}

func (n *IfNode) ID() string {
	return "If"
}

func (n *IfNode) Name() string {
	return "If"
}

func (n *IfNode) Description() string {
	return "Stops the run when the condition is false"
}

func (n *IfNode) Inputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "condition", Kind: models.KindBool, Editable: true},
	}
}

func (n *IfNode) Outputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
	}
}

func (n *IfNode) Run(_ context.Context, call protocol.Call) ([]any, error) {
	if !call.Gate(0) {
		return []any{false}, nil
	}

	condition, err := cast.ToBoolE(call.Input(1))
	if err != nil {
		return nil, fmt.Errorf("condition: %w", err)
	}

	return []any{condition}, nil
}
