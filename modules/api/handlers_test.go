package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/CodeineSolm/taskmaster/domain/task"
	taskmod "github.com/CodeineSolm/taskmaster/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

// mockTaskService implements TaskService for testing
type mockTaskService struct {
	err error
}

func (m *mockTaskService) List(context.Context) ([]domain.View, error) { return nil, m.err }
func (m *mockTaskService) Get(context.Context, int64) (domain.View, error) {
	return domain.View{}, m.err
}
func (m *mockTaskService) Create(context.Context, domain.CreateInput) (domain.View, error) {
	return domain.View{}, m.err
}
func (m *mockTaskService) Update(context.Context, int64, domain.UpdateInput) error { return m.err }
func (m *mockTaskService) Toggle(context.Context, int64) (domain.View, error) {
	return domain.View{}, m.err
}
func (m *mockTaskService) Delete(context.Context, int64) error { return m.err }

func newTestApp(t *testing.T, service TaskService) (*Module, *fiber.App) {
	t.Helper()
	m := NewModule(0, "*", &mockLogger{})
	return m, m.newApp(service)
}

func newServiceApp(t *testing.T) *fiber.App {
	t.Helper()

	store, err := domain.OpenSQLite(context.Background(), ":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, app := newTestApp(t, taskmod.NewService(store, nil, nil, &mockLogger{}))
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

// wireView mirrors the JSON shape so null fields can be asserted.
type wireView struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsCompleted bool    `json:"isCompleted"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   *string `json:"updatedAt"`
}

func decodeView(t *testing.T, data []byte) wireView {
	t.Helper()
	var v wireView
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestTaskLifecycle(t *testing.T) {
	app := newServiceApp(t)

	resp, body := doRequest(t, app, http.MethodPost, "/tasks", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decodeView(t, body)
	assert.Equal(t, "/tasks/1", resp.Header.Get("Location"))
	assert.Equal(t, "Buy milk", created.Title)
	assert.False(t, created.IsCompleted)
	assert.Nil(t, created.Description)
	assert.Nil(t, created.UpdatedAt)
	assert.Contains(t, string(body), `"description":null`)
	assert.Contains(t, string(body), `"updatedAt":null`)
	assert.True(t, strings.HasSuffix(created.CreatedAt, "Z"), created.CreatedAt)

	resp, body = doRequest(t, app, http.MethodPatch, "/tasks/1/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.True(t, decodeView(t, body).IsCompleted)

	resp, body = doRequest(t, app, http.MethodPut, "/tasks/1",
		`{"title":"Buy oat milk","description":"2%","isCompleted":false}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))
	assert.Empty(t, body)

	resp, body = doRequest(t, app, http.MethodGet, "/tasks/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeView(t, body)
	assert.Equal(t, "Buy oat milk", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "2%", *got.Description)
	assert.False(t, got.IsCompleted)
	assert.NotNil(t, got.UpdatedAt)

	resp, _ = doRequest(t, app, http.MethodDelete, "/tasks/1", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doRequest(t, app, http.MethodGet, "/tasks/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Task with id 1 not found"}`, string(body))
}

func TestListTasks(t *testing.T) {
	app := newServiceApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	doRequest(t, app, http.MethodPost, "/tasks", `{"title":"first"}`)
	doRequest(t, app, http.MethodPost, "/tasks", `{"title":"second"}`)

	resp, body = doRequest(t, app, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var views []wireView
	require.NoError(t, json.Unmarshal(body, &views))
	require.Len(t, views, 2)
	assert.Equal(t, "first", views[0].Title)
	assert.Equal(t, "second", views[1].Title)
}

func TestAPIAlias(t *testing.T) {
	app := newServiceApp(t)

	resp, body := doRequest(t, app, http.MethodPost, "/api/tasks", `{"title":"via alias"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "/api/tasks/1", resp.Header.Get("Location"))

	resp, _ = doRequest(t, app, http.MethodGet, "/tasks/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidationErrors(t *testing.T) {
	app := newServiceApp(t)
	doRequest(t, app, http.MethodPost, "/tasks", `{"title":"Buy milk"}`)

	tests := []struct {
		name         string
		method       string
		path         string
		body         string
		expectedBody string
	}{
		{
			name:         "create without title",
			method:       http.MethodPost,
			path:         "/tasks",
			body:         `{"description":"no title"}`,
			expectedBody: `{"message":"One or more validation errors occurred.","errors":{"title":["Title is required"]}}`,
		},
		{
			name:         "create with blank title",
			method:       http.MethodPost,
			path:         "/tasks",
			body:         `{"title":"   "}`,
			expectedBody: `{"message":"One or more validation errors occurred.","errors":{"title":["Title is required"]}}`,
		},
		{
			name:         "update with short title",
			method:       http.MethodPut,
			path:         "/tasks/1",
			body:         `{"title":"ab","isCompleted":true}`,
			expectedBody: `{"message":"One or more validation errors occurred.","errors":{"title":["Title must be between 3 and 200 characters"]}}`,
		},
		{
			name:         "update with long description",
			method:       http.MethodPut,
			path:         "/tasks/1",
			body:         `{"title":"valid","description":"` + strings.Repeat("d", 1001) + `"}`,
			expectedBody: `{"message":"One or more validation errors occurred.","errors":{"description":["Description cannot exceed 1000 characters"]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.JSONEq(t, tt.expectedBody, string(body))
		})
	}

	resp, body := doRequest(t, app, http.MethodGet, "/tasks/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeView(t, body)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Nil(t, got.UpdatedAt)
}

func TestNotFoundResponses(t *testing.T) {
	app := newServiceApp(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "get", method: http.MethodGet, path: "/tasks/42"},
		{name: "update", method: http.MethodPut, path: "/tasks/42", body: `{"title":"valid"}`},
		{name: "toggle", method: http.MethodPatch, path: "/tasks/42/toggle"},
		{name: "delete", method: http.MethodDelete, path: "/tasks/42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.JSONEq(t, `{"message":"Task with id 42 not found"}`, string(body))
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		serviceErr     error
		method         string
		path           string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "invalid id",
			method:         http.MethodGet,
			path:           "/tasks/abc",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"message":"Invalid task id"}`,
		},
		{
			name:           "malformed body",
			method:         http.MethodPost,
			path:           "/tasks",
			body:           `{"title":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"message":"Invalid request body"}`,
		},
		{
			name:           "conflict surfaces as server error",
			serviceErr:     domain.ErrConflict,
			method:         http.MethodPut,
			path:           "/tasks/5",
			body:           `{"title":"valid"}`,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"message":"The task was modified by another request"}`,
		},
		{
			name:           "storage failure",
			serviceErr:     errors.New("disk on fire"),
			method:         http.MethodGet,
			path:           "/tasks",
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"message":"An unexpected error occurred"}`,
		},
		{
			name:           "unknown route",
			method:         http.MethodGet,
			path:           "/nope",
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"message":"Cannot GET /nope"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, app := newTestApp(t, &mockTaskService{err: tt.serviceErr})

			resp, body := doRequest(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.JSONEq(t, tt.expectedBody, string(body))
		})
	}
}

func TestRequestID(t *testing.T) {
	_, app := newTestApp(t, &mockTaskService{})

	resp, _ := doRequest(t, app, http.MethodGet, "/tasks", "")
	assert.Len(t, resp.Header.Get(fiber.HeaderXRequestID), 36)
}

type stubHealth struct {
	name    string
	healthy bool
}

func (s stubHealth) Name() string { return s.name }
func (s stubHealth) Health(context.Context) mono.HealthStatus {
	return mono.HealthStatus{Healthy: s.healthy}
}

func TestHealthHandler(t *testing.T) {
	m, app := newTestApp(t, &mockTaskService{})
	m.AddHealthSource(stubHealth{name: "task", healthy: true})

	resp, body := doRequest(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)

	m.AddHealthSource(stubHealth{name: "cache", healthy: false})
	resp, body = doRequest(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"unhealthy"`)
}

func TestModule_StartRequiresTaskModule(t *testing.T) {
	m := NewModule(0, "*", &mockLogger{})
	assert.Equal(t, "api", m.Name())
	assert.Equal(t, []string{"task"}, m.Dependencies())
	assert.Error(t, m.Start(context.Background()))
	assert.NoError(t, m.Stop(context.Background()))
	assert.False(t, m.Health(context.Background()).Healthy)
}
