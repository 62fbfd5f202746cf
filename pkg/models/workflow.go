package models

import "time"

// Workflow is a named, stored document.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"        validate:"required,min=3"`
	Description string    `json:"description"`
	Document    Document  `json:"document"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RunStatus is the outcome of one execution of a graph.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusHalted    RunStatus = "halted" // A node emitted false as its first output
	RunStatusFailed    RunStatus = "failed"
)

// NodeTypeInfo describes a registered node type.
type NodeTypeInfo struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Inputs      []PinSchema `json:"inputs"`
	Outputs     []PinSchema `json:"outputs"`
}
