// Package add provides the integer addition node.
package add

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/spf13/cast"
)

// AddNode sums two integers. Literal text is parsed here, not by the executor.
type AddNode struct{}

// NewAddNodeType creates the Add node type.
func NewAddNodeType() protocol.NodeType {
	return &AddNode{}
}

func (n *AddNode) ID() string {
	return "Add"
}

func (n *AddNode) Name() string {
	return "Add(int)"
}

func (n *AddNode) Description() string {
	return "Adds two integers"
}

func (n *AddNode) Inputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "a", Kind: models.KindInt, Editable: true},
		{Name: "b", Kind: models.KindInt, Editable: true},
	}
}

func (n *AddNode) Outputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "sum", Kind: models.KindInt},
	}
}

func (n *AddNode) Run(_ context.Context, call protocol.Call) ([]any, error) {
	sum := 0

	for i := range n.Inputs() {
		value, err := toInt(call.Input(i))
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}

		sum += value
	}

	return []any{true, sum}, nil
}

func toInt(value any) (int, error) {
	if value == nil || value == "" {
		return 0, errors.New("no value")
	}

	return cast.ToIntE(value)
}
