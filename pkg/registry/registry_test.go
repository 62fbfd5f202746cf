package registry

import (
	"log/slog"
	"testing"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefaultNodes(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaultNodes()

	expected := []string{
		"Add",
		"HTTPRequest",
		"If",
		"Log",
		"Merge",
		"Print",
		"ReadImage",
		"Start",
		"Switch",
		"Template",
		"TypeChange",
	}

	ids := make([]string, 0, len(expected))
	for _, nodeType := range registry.NodeTypes() {
		ids = append(ids, nodeType.ID())
	}

	assert.Equal(t, expected, ids)

	for _, info := range registry.Describe() {
		for _, pin := range append(info.Inputs, info.Outputs...) {
			assert.True(t, pin.Kind.Valid(), "%s declares invalid kind %q", info.ID, pin.Kind)
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	registry := NewRegistry(slog.Default())

	_, err := registry.Lookup("Start")
	require.ErrorIs(t, err, ErrNodeTypeNotFound)
	assert.Contains(t, err.Error(), "'Start'")

	_, healthy := registry.HealthCheck()
	assert.False(t, healthy)

	first := testutil.NewNodeType("Custom", testutil.WithOutputs(testutil.Pin(models.KindGate, false)))
	second := testutil.NewNodeType("Custom")

	registry.Register(first)
	registry.Register(second)

	found, err := registry.Lookup("Custom")
	require.NoError(t, err)
	assert.Same(t, second, found)

	message, healthy := registry.HealthCheck()
	assert.True(t, healthy)
	assert.Equal(t, "1 node types registered", message)
}
