package workflow

import (
	"errors"
	"fmt"

	"github.com/dukex/nodeflow/pkg/graph"
)

// ErrOutputArity is returned when a node computation returns a different
// number of values than the node has output pins.
var ErrOutputArity = errors.New("output count does not match output pins")

// ErrNodePanic is returned when a node computation panics.
var ErrNodePanic = errors.New("node computation panicked")

// NodeError is a fault raised while running one node.
type NodeError struct {
	NodeID graph.NodeID
	TypeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %d (%s): %v", e.NodeID, e.TypeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
