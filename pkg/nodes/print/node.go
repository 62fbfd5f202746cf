// Package print provides the node that writes a value to an output stream.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
)

// PrintNode writes its value input when its gate is open.
type PrintNode struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrintNodeType creates the Print node type writing to stdout.
func NewPrintNodeType() protocol.NodeType {
	return NewPrintNodeTypeWithWriter(os.Stdout)
}

// NewPrintNodeTypeWithWriter creates the Print node type writing to out.
func NewPrintNodeTypeWithWriter(out io.Writer) protocol.NodeType {
	return &PrintNode{out: out}
}

func (n *PrintNode) ID() string {
	return "Print"
}

func (n *PrintNode) Name() string {
	return "Print"
}

func (n *PrintNode) Description() string {
	return "Prints its value input when the gate is open"
}

func (n *PrintNode) Inputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
		{Name: "value", Kind: models.KindDynamic, Editable: true},
	}
}

func (n *PrintNode) Outputs() []models.PinSchema {
	return []models.PinSchema{
		{Name: "gate", Kind: models.KindGate},
	}
}

// Run always reports completion, printed or not.
func (n *PrintNode) Run(_ context.Context, call protocol.Call) ([]any, error) {
	if call.Gate(0) {
		n.mu.Lock()
		defer n.mu.Unlock()

		if _, err := fmt.Fprintln(n.out, call.Input(1)); err != nil {
			return nil, fmt.Errorf("failed to print: %w", err)
		}
	}

	return []any{true}, nil
}
