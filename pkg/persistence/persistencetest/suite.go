// Package persistencetest holds the behaviour every persistence backend must share.
package persistencetest

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Workflow returns a stored-workflow fixture holding a Start -> Print document.
func Workflow(name string) *models.Workflow {
	return &models.Workflow{
		Name:        name,
		Description: "prints the sum of two numbers",
		Document: models.Document{
			Nodes: []models.NodeRecord{
				{Name: "Start", X: 0, Y: 0, NodeType: "Start", InputPinValues: []string{}, OutputPinValues: []string{""}, InputPinComboValues: []string{}, OutputPinComboValues: []string{""}},
				{Name: "Add(int)", X: 120, Y: 40, NodeType: "Add", InputPinValues: []string{"3", "4"}, OutputPinValues: []string{"", ""}, InputPinComboValues: []string{"", ""}, OutputPinComboValues: []string{"", ""}},
			},
			Connections: []models.ConnectionRecord{
				{StartNode: 0, EndNode: 1, StartPin: 0, EndPin: 0, Color: "#ffffff"},
			},
		},
	}
}

// Run exercises p through the whole Persistence contract. p must start empty.
func Run(t *testing.T, p persistence.Persistence) {
	t.Helper()

	ctx := context.Background()

	require.NoError(t, p.HealthCheck(ctx))

	workflows, err := p.Workflows(ctx)
	require.NoError(t, err)
	assert.Empty(t, workflows)

	missing, err := p.WorkflowByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	first := Workflow("first")
	require.NoError(t, p.SaveWorkflow(ctx, first))
	require.NotEmpty(t, first.ID)
	require.False(t, first.CreatedAt.IsZero())

	time.Sleep(5 * time.Millisecond)

	second := Workflow("second")
	second.ID = "second-flow"
	require.NoError(t, p.SaveWorkflow(ctx, second))
	assert.Equal(t, "second-flow", second.ID)

	loaded, err := p.WorkflowByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, first.Name, loaded.Name)
	assert.Equal(t, first.Description, loaded.Description)
	assert.Equal(t, first.Document, loaded.Document)
	assert.WithinDuration(t, first.CreatedAt, loaded.CreatedAt, time.Millisecond)

	workflows, err = p.Workflows(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, "second-flow", workflows[0].ID, "newest first")
	assert.Equal(t, first.ID, workflows[1].ID)

	created := loaded.CreatedAt
	loaded.Name = "renamed"

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, p.SaveWorkflow(ctx, loaded))

	updated, err := p.WorkflowByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "renamed", updated.Name)
	assert.WithinDuration(t, created, updated.CreatedAt, time.Millisecond)
	assert.True(t, updated.UpdatedAt.After(created))

	require.NoError(t, p.DeleteWorkflow(ctx, first.ID))

	deleted, err := p.WorkflowByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, deleted)

	err = p.DeleteWorkflow(ctx, first.ID)
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	workflows, err = p.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, workflows, 1)

	err = p.SaveWorkflow(ctx, &models.Workflow{ID: "../escape", Name: "bad"})
	require.ErrorIs(t, err, persistence.ErrInvalidWorkflowID)
}
