// Package merge provides the Merge node, which joins several gate paths.
package merge

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
)

const (
	ModeAll = "all"
	ModeAny = "any"

	// Paths is the number of gate inputs a Merge node joins.
	Paths = 3
)

// MergeNode runs after every node feeding it. Unconnected paths are ignored;
// the mode decides whether all or any connected path must be open.
type MergeNode struct{}

// NewMergeNodeType creates the Merge node type.
func NewMergeNodeType() protocol.NodeType {
	return &MergeNode{}
}

func (n *MergeNode) ID() string {
	return "Merge"
}

func (n *MergeNode) Name() string {
	return "Merge"
}

func (n *MergeNode) Description() string {
	return "Joins gate paths; mode 'all' (default) needs every connected path open, 'any' needs one"
}

func (n *MergeNode) Inputs() []models.PinSchema {
	pins := make([]models.PinSchema, 0, Paths+1)
	for i := range Paths {
		pins = append(pins, models.PinSchema{Name: fmt.Sprintf("path %d", i+1), Kind: models.KindGate})
	}

	return append(pins, models.PinSchema{Name: "mode", Kind: models.KindString, Editable: true})
}

func (n *MergeNode) Outputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
	}
}

func (n *MergeNode) Run(_ context.Context, call protocol.Call) ([]any, error) {
	mode, _ := call.Input(Paths).(string)

	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = ModeAll
	}

	if mode != ModeAll && mode != ModeAny {
		return nil, fmt.Errorf("unknown merge mode %q", mode)
	}

	connected, open := 0, 0

	for i := range Paths {
		if call.Input(i) == nil {
			continue
		}

		connected++

		if call.Gate(i) {
			open++
		}
	}

	if mode == ModeAny {
		return []any{open > 0}, nil
	}

	return []any{connected > 0 && open == connected}, nil
}
