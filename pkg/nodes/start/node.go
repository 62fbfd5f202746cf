// Package start provides the entry node that opens the first gate of a run.
package start

import (
	"context"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
)

// TypeID is the reserved entry type. The scheduler runs it ahead of other roots.
const TypeID = "Start"

// StartNode emits an open gate.
type StartNode struct{}

// NewStartNodeType creates the Start node type.
func NewStartNodeType() protocol.NodeType {
	return &StartNode{}
}

func (n *StartNode) ID() string {
	return TypeID
}

func (n *StartNode) Name() string {
	return "Start"
}

func (n *StartNode) Description() string {
	return "Entry point of a graph. Emits an open gate."
}

func (n *StartNode) Inputs() []models.PinSchema {
	return nil
}

func (n *StartNode) Outputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
	}
}

func (n *StartNode) Run(context.Context, protocol.Call) ([]any, error) {
	return []any{true}, nil
}
