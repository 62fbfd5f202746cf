// Package protocol defines the contract every node type implements.
package protocol

import (
	"context"
	"log/slog"

	"github.com/dukex/nodeflow/pkg/models"
)

// NodeType is a catalog entry: an identifier, an ordered pin schema and a computation.
type NodeType interface {
	// ID returns the unique identifier for this node type
	ID() string

	// Name returns the human-readable label for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Inputs returns the ordered input pin schema
	Inputs() []models.PinSchema

	// Outputs returns the ordered output pin schema
	Outputs() []models.PinSchema

	// Run computes the output vector from the input vector. The returned slice
	// must have one value per output pin.
	Run(ctx context.Context, call Call) ([]any, error)
}

// Call is the per-invocation input handed to NodeType.Run.
type Call struct {
	NodeID int
	Label  string
	Inputs []any

	// Resolved kinds of the node's pins. Dynamic pins that were never
	// resolved report models.KindDynamic.
	InputKinds  []models.DataKind
	OutputKinds []models.DataKind

	Logger *slog.Logger
}

// Input returns the i-th input value, or nil when out of range.
func (c Call) Input(i int) any {
	if i < 0 || i >= len(c.Inputs) {
		return nil
	}

	return c.Inputs[i]
}

// Gate reports whether the i-th input opens a gate. Only the boolean true does.
func (c Call) Gate(i int) bool {
	open, ok := c.Input(i).(bool)

	return ok && open
}

// Info describes a node type for listings.
func Info(t NodeType) models.NodeTypeInfo {
	return models.NodeTypeInfo{
		ID:          t.ID(),
		Name:        t.Name(),
		Description: t.Description(),
		Inputs:      t.Inputs(),
		Outputs:     t.Outputs(),
	}
}
