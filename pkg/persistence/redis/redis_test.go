package redis

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nodeflow:workflow:adder", WorkflowKey("adder"))
}

func TestNewPersistence_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := NewPersistence(context.Background(), slog.New(slog.DiscardHandler), "postgres://localhost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")
}

func TestDecode(t *testing.T) {
	t.Parallel()

	workflow, err := decode("adder", `{"id":"adder","name":"Adder","document":{"nodes":[{"node_type":"Add"}],"connections":[]}}`)
	require.NoError(t, err)
	assert.Equal(t, "Adder", workflow.Name)
	assert.Equal(t, "Add", workflow.Document.Nodes[0].NodeType)

	_, err = decode("broken", "{")
	require.Error(t, err)
}
