package start

import (
	"context"
	"testing"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartNode(t *testing.T) {
	node := NewStartNodeType()

	assert.Equal(t, "Start", node.ID())
	assert.Empty(t, node.Inputs())
	require.Len(t, node.Outputs(), 1)
	assert.Equal(t, models.KindGate, node.Outputs()[0].Kind)

	outputs, err := node.Run(context.Background(), protocol.Call{})
	require.NoError(t, err)
	assert.Equal(t, []any{true}, outputs)
}
