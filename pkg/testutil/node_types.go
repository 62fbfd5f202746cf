// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
)

// RunFunc is the computation of a test node type.
type RunFunc func(ctx context.Context, call protocol.Call) ([]any, error)

// NodeType is a configurable protocol.NodeType that records its invocations.
type NodeType struct {
	id      string
	name    string
	inputs  []models.PinSchema
	outputs []models.PinSchema
	run     RunFunc

	mu    sync.Mutex
	calls []protocol.Call
}

// NewNodeType creates a test node type with default values that can be overridden.
// Without WithRun it returns true followed by nil for every other output.
func NewNodeType(id string, overrides ...func(*NodeType)) *NodeType {
	t := &NodeType{id: id, name: id}

	for _, override := range overrides {
		override(t)
	}

	return t
}

// WithInputs sets the input pin schema.
func WithInputs(pins ...models.PinSchema) func(*NodeType) {
	return func(t *NodeType) {
		t.inputs = pins
	}
}

// WithOutputs sets the output pin schema.
func WithOutputs(pins ...models.PinSchema) func(*NodeType) {
	return func(t *NodeType) {
		t.outputs = pins
	}
}

// WithRun sets the computation.
func WithRun(run RunFunc) func(*NodeType) {
	return func(t *NodeType) {
		t.run = run
	}
}

// WithName sets the display label.
func WithName(name string) func(*NodeType) {
	return func(t *NodeType) {
		t.name = name
	}
}

// Returning makes the node return the given outputs on every call.
func Returning(outputs ...any) func(*NodeType) {
	return WithRun(func(context.Context, protocol.Call) ([]any, error) {
		return outputs, nil
	})
}

// Pin is a shorthand for a pin schema.
func Pin(kind models.DataKind, editable bool) models.PinSchema {
	return models.PinSchema{Kind: kind, Editable: editable}
}

func (t *NodeType) ID() string { return t.id }
func (t *NodeType) Name() string { return t.name }
func (t *NodeType) Description() string { return "test node " + t.id }
func (t *NodeType) Inputs() []models.PinSchema { return t.inputs }
func (t *NodeType) Outputs() []models.PinSchema { return t.outputs }

func (t *NodeType) Run(ctx context.Context, call protocol.Call) ([]any, error) {
	t.mu.Lock()
	t.calls = append(t.calls, call)
	t.mu.Unlock()

	if t.run != nil {
		return t.run(ctx, call)
	}

	outputs := make([]any, len(t.outputs))
	if len(outputs) > 0 {
		outputs[0] = true
	}

	return outputs, nil
}

// Calls returns every recorded invocation.
func (t *NodeType) Calls() []protocol.Call {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]protocol.Call(nil), t.calls...)
}

// Catalog is a map-backed node type lookup.
type Catalog map[string]protocol.NodeType

// NewCatalog builds a catalog from node types.
func NewCatalog(types ...protocol.NodeType) Catalog {
	catalog := Catalog{}
	for _, t := range types {
		catalog[t.ID()] = t
	}

	return catalog
}

func (c Catalog) Lookup(id string) (protocol.NodeType, error) {
	t, ok := c[id]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", id)
	}

	return t, nil
}
