// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"slices"

	"github.com/dukex/nodeflow/pkg/graph"
	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/workflow"
)

// WorkflowRequest is the body of POST /workflows and PUT /workflows/:id.
// ID is honored on create only.
type WorkflowRequest struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	Document    models.Document `json:"document"`
}

// RunRequest is the body of POST /run.
type RunRequest struct {
	Document models.Document `json:"document"`
}

// RunResponse reports one run. Node numbers are document indices.
type RunResponse struct {
	ExecutionID string           `json:"execution_id"`
	Status      models.RunStatus `json:"status"`
	Order       []int            `json:"order"`
	Executed    []int            `json:"executed"`
	Excluded    []int            `json:"excluded"`
	HaltedAt    *int             `json:"halted_at,omitempty"`
	Outputs     map[int][]any    `json:"outputs"`
	Error       string           `json:"error,omitempty"`
	DurationMs  int64            `json:"duration_ms"`
}

// RunAcceptedResponse answers an asynchronous run request.
type RunAcceptedResponse struct {
	EventID    string `json:"event_id"`
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"`
}

// NewRunResponse transforms an executor result. A freshly decoded document
// numbers its nodes by list position, so node IDs are document indices.
func NewRunResponse(result *workflow.Result, runErr error) RunResponse {
	response := RunResponse{
		ExecutionID: result.ExecutionID.String(),
		Status:      result.Status,
		Order:       toInts(result.Order),
		Executed:    toInts(result.Executed),
		Excluded:    toInts(result.Excluded),
		Outputs:     make(map[int][]any, len(result.Outputs)),
		DurationMs:  result.Duration().Milliseconds(),
	}

	if result.HaltedAt != nil {
		halted := int(*result.HaltedAt)
		response.HaltedAt = &halted
	}

	for id, outputs := range result.Outputs {
		response.Outputs[int(id)] = slices.Clone(outputs)
	}

	if runErr != nil {
		response.Error = runErr.Error()
	}

	return response
}

func toInts(ids []graph.NodeID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}

	return out
}
