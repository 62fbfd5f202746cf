package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukex/nodeflow/pkg/eventbus"
	"github.com/dukex/nodeflow/pkg/mocks"
	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/nodes/add"
	printnode "github.com/dukex/nodeflow/pkg/nodes/print"
	"github.com/dukex/nodeflow/pkg/nodes/start"
	"github.com/dukex/nodeflow/pkg/persistence/file"
	"github.com/dukex/nodeflow/pkg/registry"
	"github.com/dukex/nodeflow/pkg/services"
	"github.com/dukex/nodeflow/pkg/web"
	"github.com/dukex/nodeflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	app     *fiber.App
	service *services.Workflow
	out     *bytes.Buffer
}

func setupTestApp(t *testing.T, publisher eventbus.EventPublisher) *testApp {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	out := &bytes.Buffer{}

	registryInstance := registry.NewRegistry(logger)
	registryInstance.Register(start.NewStartNodeType())
	registryInstance.Register(add.NewAddNodeType())
	registryInstance.Register(printnode.NewPrintNodeTypeWithWriter(out))

	workflowService := services.NewWorkflow(
		logger,
		file.NewPersistence(t.TempDir()),
		registryInstance,
		workflow.NewExecutor(logger),
		publisher,
	)

	handlers := web.NewAPIHandlers(workflowService, validator.New(validator.WithRequiredStructEnabled()), registryInstance)

	app := fiber.New()
	app.Get("/health", handlers.HealthCheck)
	app.Get("/node-types", handlers.GetNodeTypes)
	app.Post("/run", handlers.RunDocument)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Get("/:id/plan", handlers.GetWorkflowPlan)
	w.Post("/:id/run", handlers.RunWorkflow)

	return &testApp{app: app, service: workflowService, out: out}
}

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

func (a *testApp) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func (a *testApp) create(t *testing.T, id string) *models.Workflow {
	t.Helper()

	created, err := a.service.Create(t.Context(), &models.Workflow{ID: id, Name: "Sum workflow", Document: sumDocument()})
	require.NoError(t, err)

	return created
}

func problemType(t *testing.T, body []byte) string {
	t.Helper()

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))

	typ, _ := problem["type"].(string)

	return typ
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		validateResult func(t *testing.T, body []byte)
	}{
		{
			name:           "successful creation",
			requestBody:    web.WorkflowRequest{Name: "Sum workflow", Description: "adds", Document: sumDocument()},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				var wf models.Workflow
				require.NoError(t, json.Unmarshal(body, &wf))
				assert.NotEmpty(t, wf.ID)
				assert.Equal(t, "Sum workflow", wf.Name)
				assert.Equal(t, "adds", wf.Description)
				assert.Len(t, wf.Document.Nodes, 3)
				assert.False(t, wf.CreatedAt.IsZero())
			},
		},
		{
			name:           "missing name",
			requestBody:    web.WorkflowRequest{Document: sumDocument()},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "name too short",
			requestBody:    web.WorkflowRequest{Name: "Su", Document: sumDocument()},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown node type",
			requestBody: web.WorkflowRequest{
				Name:     "Broken workflow",
				Document: models.Document{Nodes: []models.NodeRecord{{NodeType: "Teleport"}}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid id",
			requestBody:    web.WorkflowRequest{ID: "../etc", Name: "Sum workflow"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t, nil)

			status, body := app.do(t, http.MethodPost, "/workflows", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, status)

			if tt.validateResult != nil {
				tt.validateResult(t, body)
			} else {
				assert.Equal(t, "validation_error", problemType(t, body))
			}
		})
	}
}

func TestAPIHandlers_CreateWorkflow_Conflict(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)
	app.create(t, "sum")

	status, body := app.do(t, http.MethodPost, "/workflows", web.WorkflowRequest{ID: "sum", Name: "Sum workflow"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", problemType(t, body))
}

func TestAPIHandlers_GetWorkflow(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)
	created := app.create(t, "sum")

	status, body := app.do(t, http.MethodGet, "/workflows/sum", nil)
	require.Equal(t, http.StatusOK, status)

	var wf models.Workflow
	require.NoError(t, json.Unmarshal(body, &wf))
	assert.Equal(t, created.ID, wf.ID)
	assert.Equal(t, created.Document, wf.Document)

	status, body = app.do(t, http.MethodGet, "/workflows/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "workflow_not_found", problemType(t, body))
}

func TestAPIHandlers_GetWorkflows(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)
	app.create(t, "first")
	app.create(t, "second")

	status, body := app.do(t, http.MethodGet, "/workflows", nil)
	require.Equal(t, http.StatusOK, status)

	var response struct {
		Workflows  []models.Workflow `json:"workflows"`
		TotalCount int               `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, 2, response.TotalCount)
	assert.Len(t, response.Workflows, 2)
}

func TestAPIHandlers_UpdateWorkflow(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)
	created := app.create(t, "sum")

	status, body := app.do(t, http.MethodPut, "/workflows/sum", web.WorkflowRequest{Name: "Renamed workflow", Document: sumDocument()})
	require.Equal(t, http.StatusOK, status)

	var wf models.Workflow
	require.NoError(t, json.Unmarshal(body, &wf))
	assert.Equal(t, "sum", wf.ID)
	assert.Equal(t, "Renamed workflow", wf.Name)
	assert.True(t, created.CreatedAt.Equal(wf.CreatedAt))

	status, _ = app.do(t, http.MethodPut, "/workflows/missing", web.WorkflowRequest{Name: "Renamed workflow"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_DeleteWorkflow(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)
	app.create(t, "sum")

	status, _ := app.do(t, http.MethodDelete, "/workflows/sum", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = app.do(t, http.MethodDelete, "/workflows/sum", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_GetWorkflowPlan(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)
	app.create(t, "sum")

	status, body := app.do(t, http.MethodGet, "/workflows/sum/plan", nil)
	require.Equal(t, http.StatusOK, status)

	var plan services.Plan
	require.NoError(t, json.Unmarshal(body, &plan))
	assert.Equal(t, []int{0, 1, 2}, plan.Order)
	assert.Empty(t, plan.Excluded)
	assert.Len(t, plan.Pins, 8)
	assert.Empty(t, app.out.String())
}

func TestAPIHandlers_RunWorkflow(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)
	app.create(t, "sum")

	status, body := app.do(t, http.MethodPost, "/workflows/sum/run", nil)
	require.Equal(t, http.StatusOK, status)

	var response web.RunResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, models.RunStatusCompleted, response.Status)
	assert.Equal(t, []int{0, 1, 2}, response.Executed)
	assert.Equal(t, []any{true, float64(7)}, response.Outputs[1])
	assert.Empty(t, response.Error)
	assert.Equal(t, "7\n", app.out.String())

	status, _ = app.do(t, http.MethodPost, "/workflows/missing/run", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = app.do(t, http.MethodPost, "/workflows/sum/run?async=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIHandlers_RunWorkflow_Async(t *testing.T) {
	t.Parallel()

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "sum", mock.Anything).Return(nil)

	app := setupTestApp(t, bus)
	app.create(t, "sum")

	status, body := app.do(t, http.MethodPost, "/workflows/sum/run?async=true", nil)
	require.Equal(t, http.StatusAccepted, status)

	var response web.RunAcceptedResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, "sum", response.WorkflowID)
	assert.Equal(t, "accepted", response.Status)
	assert.NotEmpty(t, response.EventID)
	assert.Empty(t, app.out.String())

	bus.AssertExpectations(t)
}

func TestAPIHandlers_RunWorkflow_AsyncWithoutBus(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)
	app.create(t, "sum")

	status, body := app.do(t, http.MethodPost, "/workflows/sum/run?async=true", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "event_bus_unavailable", problemType(t, body))
}

func TestAPIHandlers_RunDocument(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	doc := sumDocument()
	doc.Nodes[1].InputPinValues = []string{"3", "four"}

	status, body := app.do(t, http.MethodPost, "/run", web.RunRequest{Document: doc})
	require.Equal(t, http.StatusOK, status)

	var response web.RunResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, models.RunStatusFailed, response.Status)
	assert.Equal(t, []int{0}, response.Executed)
	assert.Contains(t, response.Error, "node 1 (Add)")
	assert.Empty(t, app.out.String())

	status, _ = app.do(t, http.MethodPost, "/run", web.RunRequest{
		Document: models.Document{Nodes: []models.NodeRecord{{NodeType: "Teleport"}}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIHandlers_GetNodeTypes(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	status, body := app.do(t, http.MethodGet, "/node-types", nil)
	require.Equal(t, http.StatusOK, status)

	var types []models.NodeTypeInfo
	require.NoError(t, json.Unmarshal(body, &types))
	require.Len(t, types, 3)
	assert.Equal(t, "Add", types[0].ID)
	assert.Equal(t, "Print", types[1].ID)
	assert.Equal(t, "Start", types[2].ID)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	status, body := app.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"status":"healthy"`)
}
