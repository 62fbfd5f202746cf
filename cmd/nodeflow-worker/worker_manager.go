package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/nodeflow/pkg/eventbus"
	"github.com/dukex/nodeflow/pkg/events"
	"github.com/dukex/nodeflow/pkg/services"
	"github.com/dukex/nodeflow/pkg/triggers"
	"github.com/dukex/nodeflow/pkg/workflow"
)

const stopTimeout = 30 * time.Second

var errNoSources = errors.New("worker has no event bus and no triggers")

// WorkerManager runs stored workflows when a run.requested event arrives or
// one of its triggers fires.
type WorkerManager struct {
	id        string
	logger    *slog.Logger
	workflows *services.Workflow
	eventBus  eventbus.EventBus
	triggers  []triggers.Trigger
}

// NewWorkerManager creates a worker. eventBus may be nil when the worker is
// driven by triggers only.
func NewWorkerManager(
	id string,
	workflows *services.Workflow,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	runTriggers ...triggers.Trigger,
) *WorkerManager {
	return &WorkerManager{
		id:        id,
		logger:    logger.With("module", "nodeflow-worker", "worker_id", id),
		workflows: workflows,
		eventBus:  eventBus,
		triggers:  runTriggers,
	}
}

// Start blocks until ctx is done, then stops the triggers.
func (w *WorkerManager) Start(ctx context.Context) error {
	if w.eventBus == nil && len(w.triggers) == 0 {
		return errNoSources
	}

	w.logger.InfoContext(ctx, "Starting worker manager", "triggers", len(w.triggers))

	if w.eventBus != nil {
		err := w.eventBus.Handle(events.RunRequestedEvent, w.handleRunRequested)
		if err != nil {
			return err
		}

		err = w.eventBus.Subscribe(ctx)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

			return err
		}
	}

	started := make([]triggers.Trigger, 0, len(w.triggers))

	for _, trigger := range w.triggers {
		if err := trigger.Start(ctx, w.runWorkflow); err != nil {
			w.stopTriggers(ctx, started)

			return fmt.Errorf("failed to start trigger: %w", err)
		}

		started = append(started, trigger)
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	<-ctx.Done()
	w.logger.InfoContext(context.WithoutCancel(ctx), "Shutting down worker...")

	w.stopTriggers(ctx, started)

	return nil
}

func (w *WorkerManager) stopTriggers(ctx context.Context, started []triggers.Trigger) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()

	for _, trigger := range started {
		if err := trigger.Stop(stopCtx); err != nil {
			w.logger.ErrorContext(stopCtx, "Failed to stop trigger", "error", err)
		}
	}
}

func (w *WorkerManager) handleRunRequested(ctx context.Context, event any) error {
	requested, ok := event.(*events.RunRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for RunRequested")

		return nil
	}

	logger := w.logger.With(
		"workflow_id", requested.WorkflowID,
		"event_id", requested.ID,
		"requested_by", requested.RequestedBy,
	)
	logger.InfoContext(ctx, "Processing run requested event")

	err := w.runWorkflow(ctx, requested.WorkflowID)
	if err == nil {
		return nil
	}

	// Redelivery cannot fix these; the run itself already reported run.failed.
	var nodeErr *workflow.NodeError
	if errors.As(err, &nodeErr) || services.IsNotFoundError(err) || services.IsValidationError(err) {
		logger.WarnContext(ctx, "Dropping run request", "error", err)

		return nil
	}

	return err
}

// runWorkflow is the trigger callback shared by every run source.
func (w *WorkerManager) runWorkflow(ctx context.Context, workflowID string) error {
	result, err := w.workflows.Run(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("workflow %s: %w", workflowID, err)
	}

	w.logger.InfoContext(ctx, "Workflow run finished",
		"workflow_id", workflowID,
		"execution_id", result.ExecutionID.String(),
		"status", result.Status,
		"executed", len(result.Executed),
	)

	return nil
}
