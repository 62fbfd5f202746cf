// Package typechange provides the node that converts a value between scalar kinds.
package typechange

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/spf13/cast"
)

// ErrUnresolvedOutput is returned when the output pin was never given a concrete kind.
var ErrUnresolvedOutput = errors.New("output kind is not resolved")

// TypeChangeNode converts its value input to the kind chosen on its value output.
type TypeChangeNode struct{}

// NewTypeChangeNodeType creates the TypeChange node type.
func NewTypeChangeNodeType() protocol.NodeType {
	return &TypeChangeNode{}
}

func (n *TypeChangeNode) ID() string {
	return "TypeChange"
}

func (n *TypeChangeNode) Name() string {
	return "Type change"
}

func (n *TypeChangeNode) Description() string {
	return "Converts a value to the kind selected on the output pin"
}

func (n *TypeChangeNode) Inputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "value", Kind: models.KindDynamic, Editable: true},
	}
}

func (n *TypeChangeNode) Outputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "value", Kind: models.KindDynamic, Editable: true},
	}
}

// Run closes the gate, and so halts the run, when its own gate is not open.
func (n *TypeChangeNode) Run(_ context.Context, call protocol.Call) ([]any, error) {
	if !call.Gate(0) {
		return []any{false, nil}, nil
	}

	kind := models.KindDynamic
	if len(call.OutputKinds) > 1 {
		kind = call.OutputKinds[1]
	}

	value, err := Convert(call.Input(1), kind)
	if err != nil {
		return nil, err
	}

	return []any{true, value}, nil
}

// Convert coerces value to kind.
func Convert(value any, kind models.DataKind) (any, error) {
	var (
		converted any
		err       error
	)

	switch kind {
	case models.KindInt:
		converted, err = cast.ToIntE(value)
	case models.KindString:
		converted, err = cast.ToStringE(value)
	case models.KindBool:
		converted, err = cast.ToBoolE(value)
	case models.KindFloat:
		converted, err = cast.ToFloat64E(value)
	case models.KindDynamic:
		return nil, ErrUnresolvedOutput
	default:
		return nil, fmt.Errorf("cannot convert to %s", kind)
	}

	if err != nil {
		return nil, fmt.Errorf("cannot convert %v to %s: %w", value, kind, err)
	}

	return converted, nil
}
