package services_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/nodeflow/pkg/eventbus"
	"github.com/dukex/nodeflow/pkg/events"
	"github.com/dukex/nodeflow/pkg/mocks"
	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/nodes/add"
	printnode "github.com/dukex/nodeflow/pkg/nodes/print"
	"github.com/dukex/nodeflow/pkg/nodes/start"
	"github.com/dukex/nodeflow/pkg/persistence"
	"github.com/dukex/nodeflow/pkg/services"
	"github.com/dukex/nodeflow/pkg/testutil"
	"github.com/dukex/nodeflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	persistence *mocks.MockPersistence
	bus         *mocks.MockEventBus
	out         *bytes.Buffer
	service     *services.Workflow
}

func newFixture(t *testing.T, withBus bool) *fixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	out := &bytes.Buffer{}
	catalog := testutil.NewCatalog(
		start.NewStartNodeType(),
		add.NewAddNodeType(),
		printnode.NewPrintNodeTypeWithWriter(out),
	)

	f := &fixture{persistence: mocks.NewMockPersistence(), out: out}

	var publisher eventbus.EventPublisher
	if withBus {
		f.bus = &mocks.MockEventBus{}
		publisher = f.bus
	}

	f.service = services.NewWorkflow(logger, f.persistence, catalog, workflow.NewExecutor(logger), publisher)

	return f
}

// sumDocument adds 3 and 4 and prints the sum.
func sumDocument() models.Document {
	return models.Document{
		Nodes: []models.NodeRecord{
			{NodeType: "Start"},
			{NodeType: "Add", InputPinValues: []string{"3", "4"}},
			{NodeType: "Print"},
		},
		Connections: []models.ConnectionRecord{
			{StartNode: 1, EndNode: 2, StartPin: 0, EndPin: 0},
			{StartNode: 1, EndNode: 2, StartPin: 1, EndPin: 1},
		},
	}
}

func storedWorkflow(id string) *models.Workflow {
	return &models.Workflow{
		ID:        id,
		Name:      "Sum",
		Document:  sumDocument(),
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestWorkflow_Create(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.persistence.On("SaveWorkflow", mock.Anything, mock.AnythingOfType("*models.Workflow")).Return(nil)

	created, err := f.service.Create(t.Context(), &models.Workflow{Name: "Sum", Document: sumDocument()})
	require.NoError(t, err)
	assert.Equal(t, "Sum", created.Name)

	f.persistence.AssertExpectations(t)
}

func TestWorkflow_Create_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		workflow *models.Workflow
		want     error
	}{
		{name: "nil", workflow: nil, want: services.ErrWorkflowNil},
		{name: "missing name", workflow: &models.Workflow{}, want: services.ErrWorkflowNameRequired},
		{name: "short name", workflow: &models.Workflow{Name: "ab"}, want: services.ErrInvalidRequest},
		{name: "bad id", workflow: &models.Workflow{ID: "../x", Name: "Sum"}, want: persistence.ErrInvalidWorkflowID},
		{
			name:     "unknown node type",
			workflow: &models.Workflow{Name: "Sum", Document: models.Document{Nodes: []models.NodeRecord{{NodeType: "Nope"}}}},
			want:     services.ErrInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, false)

			_, err := f.service.Create(t.Context(), tt.workflow)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, services.IsValidationError(err))

			f.persistence.AssertNotCalled(t, "SaveWorkflow", mock.Anything, mock.Anything)
		})
	}
}

func TestWorkflow_Create_ExistingID(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.persistence.On("WorkflowByID", mock.Anything, "sum").Return(storedWorkflow("sum"), nil)

	_, err := f.service.Create(t.Context(), storedWorkflow("sum"))
	require.ErrorIs(t, err, services.ErrWorkflowExists)
	assert.True(t, services.IsConflictError(err))

	var serviceErr *services.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "WORKFLOW_EXISTS", serviceErr.Code)
}

func TestWorkflow_Get(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.persistence.On("WorkflowByID", mock.Anything, "sum").Return(storedWorkflow("sum"), nil)
	f.persistence.On("WorkflowByID", mock.Anything, "missing").Return(nil, nil)
	f.persistence.On("WorkflowByID", mock.Anything, "broken").Return(nil, errors.New("disk on fire"))

	got, err := f.service.Get(t.Context(), "sum")
	require.NoError(t, err)
	assert.Equal(t, "sum", got.ID)

	_, err = f.service.Get(t.Context(), "missing")
	require.ErrorIs(t, err, services.ErrWorkflowNotFound)
	assert.True(t, services.IsNotFoundError(err))

	_, err = f.service.Get(t.Context(), "broken")
	require.Error(t, err)
	assert.False(t, services.IsNotFoundError(err))
	assert.False(t, services.IsValidationError(err))
}

func TestWorkflow_Update(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	existing := storedWorkflow("sum")
	f.persistence.On("WorkflowByID", mock.Anything, "sum").Return(existing, nil)
	f.persistence.On("SaveWorkflow", mock.Anything, mock.AnythingOfType("*models.Workflow")).Return(nil)

	updated, err := f.service.Update(t.Context(), "sum", &models.Workflow{ID: "other", Name: "Renamed", Document: sumDocument()})
	require.NoError(t, err)
	assert.Equal(t, "sum", updated.ID)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, existing.CreatedAt, updated.CreatedAt)
}

func TestWorkflow_Update_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.persistence.On("WorkflowByID", mock.Anything, "sum").Return(nil, nil)

	_, err := f.service.Update(t.Context(), "sum", &models.Workflow{Name: "Renamed"})
	require.ErrorIs(t, err, services.ErrWorkflowNotFound)
	f.persistence.AssertNotCalled(t, "SaveWorkflow", mock.Anything, mock.Anything)
}

func TestWorkflow_Delete(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.persistence.On("DeleteWorkflow", mock.Anything, "sum").Return(nil)
	f.persistence.On("DeleteWorkflow", mock.Anything, "missing").
		Return(persistence.NewWorkflowError("delete", "missing", persistence.ErrWorkflowNotFound))

	require.NoError(t, f.service.Delete(t.Context(), "sum"))
	require.ErrorIs(t, f.service.Delete(t.Context(), "missing"), services.ErrWorkflowNotFound)
}

func TestWorkflow_Run(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.persistence.On("WorkflowByID", mock.Anything, "sum").Return(storedWorkflow("sum"), nil)

	result, err := f.service.Run(t.Context(), "sum")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, result.Status)
	assert.Len(t, result.Executed, 3)
	assert.Equal(t, "7\n", f.out.String())
}

func TestWorkflow_RunDocument_InvalidDocument(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	_, err := f.service.RunDocument(t.Context(), models.Document{Nodes: []models.NodeRecord{{NodeType: "Nope"}}})
	require.ErrorIs(t, err, services.ErrInvalidDocument)
}

func TestWorkflow_RunDocument_Cancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	result, err := f.service.RunDocument(ctx, sumDocument())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.RunStatusFailed, result.Status)
	assert.Empty(t, f.out.String())
}

func TestWorkflow_Plan(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	doc := sumDocument()
	doc.Connections = append(doc.Connections, models.ConnectionRecord{StartNode: 0, EndNode: 9})
	f.persistence.On("WorkflowByID", mock.Anything, "sum").Return(&models.Workflow{ID: "sum", Name: "Sum", Document: doc}, nil)

	plan, err := f.service.Plan(t.Context(), "sum")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, plan.Order)
	assert.Empty(t, plan.Excluded)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, 2, plan.Skipped[0].Index)

	// Start has one output, Add two inputs and two outputs, Print two inputs and one output.
	require.Len(t, plan.Pins, 8)
	assert.Equal(t, services.PinStep{Node: 0, Index: 0, Direction: models.DirectionOutput}, plan.Pins[0])
	assert.Equal(t, services.PinStep{Node: 2, Index: 0, Direction: models.DirectionOutput}, plan.Pins[7])
}

func TestWorkflow_RequestRun(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.persistence.On("WorkflowByID", mock.Anything, "sum").Return(storedWorkflow("sum"), nil)
	f.bus.On("Publish", mock.Anything, "sum", mock.MatchedBy(func(event eventbus.Event) bool {
		requested, ok := event.(events.RunRequested)

		return ok && requested.WorkflowID == "sum" && requested.RequestedBy == "api"
	})).Return(nil)

	id, err := f.service.RequestRun(t.Context(), "sum", "api")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Empty(t, f.out.String())

	f.bus.AssertExpectations(t)
}

func TestWorkflow_RequestRun_WithoutBus(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	_, err := f.service.RequestRun(t.Context(), "sum", "api")
	require.ErrorIs(t, err, services.ErrPublisherUnavailable)
}

func TestWorkflow_HealthCheck(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.persistence.On("HealthCheck", mock.Anything).Return(nil).Once()
	f.persistence.On("HealthCheck", mock.Anything).Return(errors.New("gone")).Once()

	message, healthy := f.service.HealthCheck(t.Context())
	assert.True(t, healthy)
	assert.Equal(t, "Persistence layer is healthy", message)

	message, healthy = f.service.HealthCheck(t.Context())
	assert.False(t, healthy)
	assert.Contains(t, message, "gone")
}
