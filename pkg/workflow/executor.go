// Package workflow runs graphs: it walks the scheduler's order, propagates
// values through the value table and applies the short-circuit rule.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/nodeflow/pkg/eventbus"
	"github.com/dukex/nodeflow/pkg/events"
	"github.com/dukex/nodeflow/pkg/graph"
	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/otelhelper"
	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/dukex/nodeflow/pkg/scheduler"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Executor struct {
	logger    *slog.Logger
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
}

type Option func(*Executor)

// WithPublisher publishes run lifecycle events.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Executor) {
		e.publisher = publisher
	}
}

// WithTracer opens a span per run and a child span per node.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

func NewExecutor(logger *slog.Logger, opts ...Option) *Executor {
	e := &Executor{
		logger:    logger.With("module", "executor"),
		publisher: eventbus.Discard,
		tracer:    otelhelper.NoopTracer(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run executes the graph as it is now. Edits made while the run is in
// progress do not affect it.
func (e *Executor) Run(ctx context.Context, g *graph.Graph) (*Result, error) {
	return e.RunSnapshot(ctx, g.Snapshot(), "")
}

// RunSnapshot executes a snapshot. workflowID only labels logs, spans and events.
//
// A node error, an output count mismatch or a cancelled context abort the run
// with status failed; the partial result is returned with the error. A node
// whose first output is false halts the run without error.
func (e *Executor) RunSnapshot(ctx context.Context, snapshot *graph.Snapshot, workflowID string) (*Result, error) {
	plan := scheduler.Schedule(snapshot)
	result := newResult(plan.Order, plan.Excluded)

	logger := e.logger.With("execution_id", result.ExecutionID.String())
	if workflowID != "" {
		logger = logger.With("workflow_id", workflowID)
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.run",
		attribute.String(otelhelper.ExecutionIDKey, result.ExecutionID.String()),
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	if len(plan.Excluded) > 0 {
		logger.DebugContext(ctx, "nodes excluded by a cycle", "nodes", plan.Excluded)
	}

	logger.InfoContext(ctx, "run started", "nodes", len(plan.Order))
	e.publish(ctx, logger, workflowID, &events.RunStarted{
		BaseEvent:   events.NewBaseEvent(events.RunStartedEvent, workflowID),
		ExecutionID: result.ExecutionID.String(),
		Order:       nodeIDs(plan.Order),
		Excluded:    nodeIDs(plan.Excluded),
	})

	for _, id := range plan.Order {
		node, err := snapshot.Node(id)
		if err != nil {
			return e.fail(ctx, span, logger, workflowID, result, nil, err)
		}

		for _, pinID := range node.Outputs() {
			result.Values[pinID] = nil
		}
	}

	for _, id := range plan.Order {
		if err := ctx.Err(); err != nil {
			return e.fail(ctx, span, logger, workflowID, result, nil, err)
		}

		node, err := snapshot.Node(id)
		if err != nil {
			return e.fail(ctx, span, logger, workflowID, result, nil, err)
		}

		started := time.Now()

		outputs, err := e.runNode(ctx, logger, snapshot, node, result)
		if err != nil {
			return e.fail(ctx, span, logger, workflowID, result, node, &NodeError{NodeID: id, TypeID: node.TypeID(), Err: err})
		}

		result.Executed = append(result.Executed, id)
		result.Outputs[id] = outputs

		e.publish(ctx, logger, workflowID, &events.NodeExecuted{
			BaseEvent:   events.NewBaseEvent(events.NodeExecutedEvent, workflowID),
			ExecutionID: result.ExecutionID.String(),
			NodeID:      int(id),
			NodeType:    node.TypeID(),
			Label:       node.Label(),
			Outputs:     outputs,
			DurationMs:  time.Since(started).Milliseconds(),
		})

		if halts(outputs) {
			haltedAt := id
			result.HaltedAt = &haltedAt
			result.finish(models.RunStatusHalted)

			logger.InfoContext(ctx, "run halted", "node_id", id, "node_type", node.TypeID(), "executed", len(result.Executed))
			span.SetAttributes(attribute.String(otelhelper.RunStatusKey, string(result.Status)))
			e.publish(ctx, logger, workflowID, &events.RunHalted{
				BaseEvent:   events.NewBaseEvent(events.RunHaltedEvent, workflowID),
				ExecutionID: result.ExecutionID.String(),
				NodeID:      int(id),
				NodeType:    node.TypeID(),
				Executed:    len(result.Executed),
				Duration:    result.Duration(),
			})

			return result, nil
		}

		pins := node.Outputs()
		if len(outputs) != len(pins) {
			err := fmt.Errorf("%w: got %d, want %d", ErrOutputArity, len(outputs), len(pins))

			return e.fail(ctx, span, logger, workflowID, result, node, &NodeError{NodeID: id, TypeID: node.TypeID(), Err: err})
		}

		for i, pinID := range pins {
			result.Values[pinID] = outputs[i]
		}
	}

	result.finish(models.RunStatusCompleted)

	logger.InfoContext(ctx, "run completed", "executed", len(result.Executed), "duration", result.Duration())
	span.SetAttributes(attribute.String(otelhelper.RunStatusKey, string(result.Status)))
	e.publish(ctx, logger, workflowID, &events.RunCompleted{
		BaseEvent:   events.NewBaseEvent(events.RunCompletedEvent, workflowID),
		ExecutionID: result.ExecutionID.String(),
		Status:      result.Status,
		Executed:    len(result.Executed),
		Duration:    result.Duration(),
	})

	return result, nil
}

func (e *Executor) runNode(ctx context.Context, logger *slog.Logger, snapshot *graph.Snapshot, node *graph.Node, result *Result) ([]any, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
		attribute.Int(otelhelper.NodeIDKey, int(node.ID())),
		attribute.String(otelhelper.NodeTypeKey, node.TypeID()),
		attribute.String(otelhelper.NodeLabelKey, node.Label()),
	)
	defer span.End()

	call := protocol.Call{
		NodeID: int(node.ID()),
		Label:  node.Label(),
		Logger: logger.With("node_id", node.ID(), "node_type", node.TypeID()),
	}

	for _, pinID := range node.Inputs() {
		pin, err := snapshot.Pin(pinID)
		if err != nil {
			return nil, err
		}

		call.Inputs = append(call.Inputs, inputValue(snapshot, pin, result.Values))
		call.InputKinds = append(call.InputKinds, pin.Kind())
	}

	for _, pinID := range node.Outputs() {
		pin, err := snapshot.Pin(pinID)
		if err != nil {
			return nil, err
		}

		call.OutputKinds = append(call.OutputKinds, pin.Kind())
	}

	result.Inputs[node.ID()] = call.Inputs

	outputs, err := invoke(ctx, node.Type(), call)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	call.Logger.DebugContext(ctx, "node executed", "inputs", call.Inputs, "outputs", outputs)

	return outputs, nil
}

// invoke calls the node computation, turning a panic into ErrNodePanic.
func invoke(ctx context.Context, nodeType protocol.NodeType, call protocol.Call) (outputs []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			outputs = nil
			err = fmt.Errorf("%w: %v", ErrNodePanic, r)
		}
	}()

	return nodeType.Run(ctx, call)
}

// inputValue resolves one input: the upstream output's current value when
// connected, the literal text when the pin carries one, nil otherwise.
func inputValue(snapshot *graph.Snapshot, pin *graph.Pin, values map[graph.PinID]any) any {
	if upstream, ok := snapshot.Upstream(pin.ID()); ok {
		return values[upstream.ID()]
	}

	if literal, ok := pin.Literal(); ok {
		return literal
	}

	return nil
}

// halts reports whether an output vector stops the whole run: its first
// element is exactly the boolean false.
func halts(outputs []any) bool {
	if len(outputs) == 0 {
		return false
	}

	value, ok := outputs[0].(bool)

	return ok && !value
}

func (e *Executor) fail(
	ctx context.Context,
	span trace.Span,
	logger *slog.Logger,
	workflowID string,
	result *Result,
	node *graph.Node,
	err error,
) (*Result, error) {
	result.finish(models.RunStatusFailed)

	event := &events.RunFailed{
		BaseEvent:   events.NewBaseEvent(events.RunFailedEvent, workflowID),
		ExecutionID: result.ExecutionID.String(),
		Error:       err.Error(),
		Duration:    result.Duration(),
	}

	if node != nil {
		id := int(node.ID())
		event.NodeID = &id
		event.NodeType = node.TypeID()
	}

	logger.ErrorContext(ctx, "run failed", "error", err, "executed", len(result.Executed))
	otelhelper.SetError(span, err, attribute.String(otelhelper.RunStatusKey, string(result.Status)))

	// The run context may already be cancelled; the failure is still reported.
	e.publish(context.WithoutCancel(ctx), logger, workflowID, event)

	return result, err
}

func (e *Executor) publish(ctx context.Context, logger *slog.Logger, workflowID string, event eventbus.Event) {
	if err := e.publisher.Publish(ctx, workflowID, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func nodeIDs(ids []graph.NodeID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}

	return out
}
