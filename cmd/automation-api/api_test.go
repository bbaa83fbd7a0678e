package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomandco/automation/pkg/capabilities/logcap"
	"github.com/bloomandco/automation/pkg/capability"
	gochan "github.com/bloomandco/automation/pkg/channels/gochannel"
	"github.com/bloomandco/automation/pkg/eventbus"
	"github.com/bloomandco/automation/pkg/idempotency"
	"github.com/bloomandco/automation/pkg/models"
	"github.com/bloomandco/automation/pkg/persistence/file"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())

	registry := capability.NewRegistry(slog.Default())
	registry.Register(logcap.NewFactory())

	pub, sub, err := gochan.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	guard := idempotency.NewGuard(idempotency.NewMemoryStore(), "test-api", slog.Default())

	api := NewAPI(slog.Default(), persistence, registry, bus, guard)

	return api.App()
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)

		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	t.Cleanup(func() { _ = resp.Body.Close() })

	decoded := map[string]any{}

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if len(data) > 0 {
		_ = json.Unmarshal(data, &decoded)
	}

	return resp, decoded
}

func createPayload() map[string]any {
	return map[string]any{
		"name":         "Order follow-up",
		"trigger_type": models.TriggerTypeOrderPlaced,
		"nodes": []map[string]any{
			{"id": "t1", "type": "trigger", "label": "Order placed"},
			{"id": "a1", "type": "action", "label": "Note", "config": map[string]any{
				"capability": "log",
				"args":       map[string]any{"message": "order from {{.data.customer_id}}"},
			}},
		},
		"edges": []map[string]any{
			{"source_id": "t1", "target_id": "a1"},
		},
	}
}

func createWorkflow(t *testing.T, app *fiber.App) string {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/workflows", createPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	return id
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Automation API", string(body))
}

func TestAPI_Liveness(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_CreateWorkflow(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows", createPayload())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "draft", body["status"])
	assert.Equal(t, "Order follow-up", body["name"])
}

func TestAPI_CreateWorkflow_Invalid(t *testing.T) {
	app := setupTestApp(t)

	payload := createPayload()
	payload["name"] = "ab" // below the minimum length

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetWorkflows(t *testing.T) {
	app := setupTestApp(t)
	createWorkflow(t, app)

	resp, body := doJSON(t, app, http.MethodGet, "/workflows", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	workflows, ok := body["workflows"].([]any)
	require.True(t, ok)
	assert.Len(t, workflows, 1)
}

func TestAPI_GetWorkflow_NotFound(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/workflows/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_Lifecycle(t *testing.T) {
	app := setupTestApp(t)
	id := createWorkflow(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/activate", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "active", body["status"])

	resp, body = doJSON(t, app, http.MethodPost, "/workflows/"+id+"/pause", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "paused", body["status"])

	resp, body = doJSON(t, app, http.MethodPost, "/workflows/"+id+"/archive", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "archived", body["status"])
	assert.NotEmpty(t, body["archived_at"])

	// Archived is terminal.
	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+id+"/activate", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_Activate_InvalidDefinition(t *testing.T) {
	app := setupTestApp(t)

	payload := createPayload()
	payload["nodes"] = []map[string]any{
		{"id": "a1", "type": "action", "label": "Orphan", "config": map[string]any{"capability": "log"}},
	}
	payload["edges"] = []map[string]any{}

	resp, body := doJSON(t, app, http.MethodPost, "/workflows", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+id+"/activate", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ExecuteWorkflow(t *testing.T) {
	app := setupTestApp(t)
	id := createWorkflow(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	runBody := map[string]any{"custom_data": map[string]any{"customer_id": "cust-1", "total": 99.0}}

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/execute", runBody)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	jobID, _ := body["job_id"].(string)
	assert.NotEmpty(t, jobID)
	assert.Equal(t, id, body["workflow_id"])
	assert.Equal(t, "Order follow-up", body["workflow_name"])

	// The identical request inside the cool-down window is rejected.
	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+id+"/execute", runBody)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// The running execution record is visible immediately.
	resp, body = doJSON(t, app, http.MethodGet, "/workflows/"+id+"/executions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	executions, ok := body["executions"].([]any)
	require.True(t, ok)
	require.Len(t, executions, 1)

	execution, ok := executions[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, jobID, execution["id"])
	assert.Equal(t, "running", execution["status"])
}

func TestAPI_ExecuteWorkflow_Archived(t *testing.T) {
	app := setupTestApp(t)
	id := createWorkflow(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+id+"/archive", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+id+"/execute", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_TestRunWorkflow(t *testing.T) {
	app := setupTestApp(t)
	id := createWorkflow(t, app)

	runBody := map[string]any{"custom_data": map[string]any{"customer_id": "cust-1"}}

	// Test runs work even on drafts and are never deduplicated.
	for range 2 {
		resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/test-run", runBody)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		summary, ok := body["summary"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "success", summary["status"])

		trace, ok := body["trace"].([]any)
		require.True(t, ok)
		assert.Len(t, trace, 2)
	}

	// Dry runs leave no execution records behind.
	resp, body := doJSON(t, app, http.MethodGet, "/workflows/"+id+"/executions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	executions, ok := body["executions"].([]any)
	require.True(t, ok)
	assert.Empty(t, executions)
}

func TestAPI_DispatchEvent(t *testing.T) {
	app := setupTestApp(t)
	id := createWorkflow(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+id+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	eventBody := map[string]any{
		"type":    models.TriggerTypeOrderPlaced,
		"payload": map[string]any{"customer_id": "cust-9", "total": 120.0},
	}

	resp, body := doJSON(t, app, http.MethodPost, "/events", eventBody)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	jobIDs, ok := body["job_ids"].([]any)
	require.True(t, ok)
	require.Len(t, jobIDs, 1)

	// The same event replayed inside the cool-down window is suppressed.
	resp, _ = doJSON(t, app, http.MethodPost, "/events", eventBody)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/workflows/"+id+"/executions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	executions, ok := body["executions"].([]any)
	require.True(t, ok)
	assert.Len(t, executions, 1)
}

func TestAPI_DispatchEvent_NoType(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/events", map[string]any{
		"payload": map[string]any{"total": 10.0},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetCapabilities(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/capabilities", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	capabilities, ok := body["capabilities"].([]any)
	require.True(t, ok)
	require.Len(t, capabilities, 1)

	descriptor, ok := capabilities[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "log", descriptor["id"])
}

func TestAPI_DeleteWorkflow(t *testing.T) {
	app := setupTestApp(t)
	id := createWorkflow(t, app)

	req := httptest.NewRequest(http.MethodDelete, "/workflows/"+id, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	getResp, _ := doJSON(t, app, http.MethodGet, "/workflows/"+id, nil)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}
