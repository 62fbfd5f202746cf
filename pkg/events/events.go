// Package events defines the run lifecycle events published on the event bus.
package events

import (
	"time"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

const Topic = "nodeflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Requests.
	RunRequestedEvent EventType = "run.requested"

	// Run lifecycle.
	RunStartedEvent   EventType = "run.started"
	RunCompletedEvent EventType = "run.completed"
	RunHaltedEvent    EventType = "run.halted"
	RunFailedEvent    EventType = "run.failed"

	// Node lifecycle.
	NodeExecutedEvent EventType = "node.executed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// RunRequested asks a worker to run a stored workflow.
type RunRequested struct {
	BaseEvent

	RequestedBy string `json:"requested_by"`
}

func (r RunRequested) GetType() EventType {
	return RunRequestedEvent
}

type RunStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Order       []int  `json:"order"`
	Excluded    []int  `json:"excluded,omitempty"`
}

func (r RunStarted) GetType() EventType {
	return RunStartedEvent
}

type NodeExecuted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      int    `json:"node_id"`
	NodeType    string `json:"node_type"`
	Label       string `json:"label"`
	Outputs     []any  `json:"outputs"`
	DurationMs  int64  `json:"duration_ms"`
}

func (n NodeExecuted) GetType() EventType {
	return NodeExecutedEvent
}

type RunCompleted struct {
	BaseEvent

	ExecutionID string           `json:"execution_id"`
	Status      models.RunStatus `json:"status"`
	Executed    int              `json:"executed"`
	Duration    time.Duration    `json:"duration"`
}

func (r RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

// RunHalted reports a run stopped by a node emitting false as its first output.
type RunHalted struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	NodeID      int           `json:"node_id"`
	NodeType    string        `json:"node_type"`
	Executed    int           `json:"executed"`
	Duration    time.Duration `json:"duration"`
}

func (r RunHalted) GetType() EventType {
	return RunHaltedEvent
}

type RunFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	NodeID      *int          `json:"node_id,omitempty"`
	NodeType    string        `json:"node_type,omitempty"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (r RunFailed) GetType() EventType {
	return RunFailedEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}
