package workflow

import (
	"time"

	"github.com/dukex/nodeflow/pkg/graph"
	"github.com/dukex/nodeflow/pkg/models"
	"github.com/google/uuid"
)

// Result is what one run produced. It is never reused by later runs.
type Result struct {
	ExecutionID uuid.UUID
	Status      models.RunStatus

	Order    []graph.NodeID
	Executed []graph.NodeID
	Excluded []graph.NodeID
	HaltedAt *graph.NodeID

	// Values is the value table: the last value stored in each output pin.
	// Pins of nodes that never ran hold nil.
	Values map[graph.PinID]any

	// Inputs and Outputs hold the vectors each invoked node saw and returned.
	Inputs  map[graph.NodeID][]any
	Outputs map[graph.NodeID][]any

	StartedAt  time.Time
	FinishedAt time.Time
}

func newResult(order, excluded []graph.NodeID) *Result {
	return &Result{
		ExecutionID: uuid.New(),
		Status:      models.RunStatusRunning,
		Order:       order,
		Executed:    []graph.NodeID{},
		Excluded:    excluded,
		Values:      make(map[graph.PinID]any),
		Inputs:      make(map[graph.NodeID][]any),
		Outputs:     make(map[graph.NodeID][]any),
		StartedAt:   time.Now().UTC(),
	}
}

// Completed reports whether every node in the order ran.
func (r *Result) Completed() bool {
	return r.Status == models.RunStatusCompleted
}

func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}

	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Result) finish(status models.RunStatus) {
	r.Status = status
	r.FinishedAt = time.Now().UTC()
}
