package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/nodeflow/pkg/document"
	"github.com/dukex/nodeflow/pkg/eventbus"
	"github.com/dukex/nodeflow/pkg/events"
	"github.com/dukex/nodeflow/pkg/graph"
	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/persistence"
	"github.com/dukex/nodeflow/pkg/scheduler"
	"github.com/dukex/nodeflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
)

type Workflow struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	catalog     graph.Catalog
	executor    *workflow.Executor
	publisher   eventbus.EventPublisher
	validate    *validator.Validate
}

// NewWorkflow creates a new workflow service. publisher may be nil, in which
// case RequestRun fails with ErrPublisherUnavailable.
func NewWorkflow(
	logger *slog.Logger,
	persistence persistence.Persistence,
	catalog graph.Catalog,
	executor *workflow.Executor,
	publisher eventbus.EventPublisher,
) *Workflow {
	return &Workflow{
		logger:      logger.With("module", "workflow_service"),
		persistence: persistence,
		catalog:     catalog,
		executor:    executor,
		publisher:   publisher,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// Get retrieves a workflow by its ID.
func (w *Workflow) Get(ctx context.Context, id string) (*models.Workflow, error) {
	if err := persistence.ValidateID(id); err != nil {
		return nil, err
	}

	stored, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if stored == nil {
		return nil, ErrWorkflowNotFound
	}

	return stored, nil
}

// Create stores a new workflow. The ID is generated unless one is given.
func (w *Workflow) Create(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	if err := w.check(ctx, "Create", wf); err != nil {
		return nil, err
	}

	if wf.ID != "" {
		existing, err := w.Get(ctx, wf.ID)
		if err != nil && !errors.Is(err, ErrWorkflowNotFound) {
			return nil, err
		}

		if existing != nil {
			return nil, &ServiceError{
				Op:      "Create",
				Code:    "WORKFLOW_EXISTS",
				Message: fmt.Sprintf("workflow '%s' already exists", wf.ID),
				Err:     ErrWorkflowExists,
			}
		}
	}

	wf.CreatedAt = time.Time{}

	if err := w.persistence.SaveWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "workflow created", "workflow_id", wf.ID, "nodes", len(wf.Document.Nodes))

	return wf, nil
}

// Update replaces the name, description and document of a stored workflow.
func (w *Workflow) Update(ctx context.Context, workflowID string, wf *models.Workflow) (*models.Workflow, error) {
	if err := w.check(ctx, "Update", wf); err != nil {
		return nil, err
	}

	existing, err := w.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	wf.ID = workflowID
	wf.CreatedAt = existing.CreatedAt

	if err := w.persistence.SaveWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "workflow updated", "workflow_id", wf.ID)

	return wf, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	if err := persistence.ValidateID(workflowID); err != nil {
		return err
	}

	if err := w.persistence.DeleteWorkflow(ctx, workflowID); err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return ErrWorkflowNotFound
		}

		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "workflow deleted", "workflow_id", workflowID)

	return nil
}

// Plan is the execution order of a document. Node numbers are document
// indices.
type Plan struct {
	Order    []int                        `json:"order"`
	Excluded []int                        `json:"excluded"`
	Pins     []PinStep                    `json:"pins"`
	Skipped  []document.SkippedConnection `json:"skipped"`
}

type PinStep struct {
	Node      int              `json:"node"`
	Index     int              `json:"index"`
	Direction models.Direction `json:"direction"`
}

// Plan schedules a stored workflow without running it.
func (w *Workflow) Plan(ctx context.Context, workflowID string) (*Plan, error) {
	stored, err := w.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return w.PlanDocument(ctx, stored.Document)
}

func (w *Workflow) PlanDocument(ctx context.Context, doc models.Document) (*Plan, error) {
	g, report, err := w.decode(ctx, "Plan", doc)
	if err != nil {
		return nil, err
	}

	snapshot := g.Snapshot()
	index := snapshot.Index()
	schedule := scheduler.Schedule(snapshot)

	plan := &Plan{
		Order:    indices(index, schedule.Order),
		Excluded: indices(index, schedule.Excluded),
		Pins:     []PinStep{},
		Skipped:  report.Skipped,
	}

	for _, visit := range scheduler.PinOrder(snapshot, schedule.Order) {
		plan.Pins = append(plan.Pins, PinStep{Node: index[visit.Node], Index: visit.Index, Direction: visit.Direction})
	}

	return plan, nil
}

// Run decodes a stored workflow and executes it once.
func (w *Workflow) Run(ctx context.Context, workflowID string) (*workflow.Result, error) {
	stored, err := w.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return w.run(ctx, workflowID, stored.Document)
}

// RunDocument executes a document that is not stored.
func (w *Workflow) RunDocument(ctx context.Context, doc models.Document) (*workflow.Result, error) {
	return w.run(ctx, "", doc)
}

func (w *Workflow) run(ctx context.Context, workflowID string, doc models.Document) (*workflow.Result, error) {
	g, _, err := w.decode(ctx, "Run", doc)
	if err != nil {
		return nil, err
	}

	return w.executor.RunSnapshot(ctx, g.Snapshot(), workflowID)
}

// RequestRun publishes a run.requested event for a stored workflow and
// returns the event ID. A worker performs the run.
func (w *Workflow) RequestRun(ctx context.Context, workflowID, requestedBy string) (string, error) {
	if w.publisher == nil {
		return "", ErrPublisherUnavailable
	}

	if _, err := w.Get(ctx, workflowID); err != nil {
		return "", err
	}

	event := events.RunRequested{
		BaseEvent:   events.NewBaseEvent(events.RunRequestedEvent, workflowID),
		RequestedBy: requestedBy,
	}

	if err := w.publisher.Publish(ctx, workflowID, event); err != nil {
		return "", fmt.Errorf("failed to publish run request: %w", err)
	}

	w.logger.InfoContext(ctx, "run requested", "workflow_id", workflowID, "event_id", event.ID)

	return event.ID, nil
}

// check validates the workflow fields and decodes its document against the
// catalog. Skipped connections are logged, not rejected.
func (w *Workflow) check(ctx context.Context, op string, wf *models.Workflow) error {
	if wf == nil {
		return ErrWorkflowNil
	}

	if wf.Name == "" {
		return NewValidationError(op, "NAME_REQUIRED", "workflow name is required", ErrWorkflowNameRequired)
	}

	if err := w.validate.Struct(wf); err != nil {
		return NewValidationError(op, "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	if wf.ID != "" {
		if err := persistence.ValidateID(wf.ID); err != nil {
			return NewValidationError(op, "INVALID_ID", err.Error(), err)
		}
	}

	_, _, err := w.decode(ctx, op, wf.Document)

	return err
}

func (w *Workflow) decode(ctx context.Context, op string, doc models.Document) (*graph.Graph, *document.Report, error) {
	g, report, err := document.Decode(ctx, doc, w.catalog, w.logger)
	if err != nil {
		return nil, nil, NewValidationError(op, "INVALID_DOCUMENT", err.Error(), fmt.Errorf("%w: %w", ErrInvalidDocument, err))
	}

	if len(report.Skipped) > 0 || report.IgnoredChoices > 0 || report.IgnoredLiterals > 0 {
		w.logger.WarnContext(ctx, "document restored partially",
			"skipped_connections", len(report.Skipped), "ignored_choices", report.IgnoredChoices,
			"ignored_literals", report.IgnoredLiterals)
	}

	return g, report, nil
}

func indices(index map[graph.NodeID]int, ids []graph.NodeID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = index[id]
	}

	return out
}
