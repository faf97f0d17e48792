package api

import "github.com/go-monolith/mono"

// CreateTaskRequest is the HTTP request for creating a task.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// UpdateTaskRequest is the HTTP request for a full update.
type UpdateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsCompleted bool    `json:"isCompleted"`
}

// ErrorResponse is the HTTP error body.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse carries per-field validation messages.
type ValidationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// HealthResponse is the HTTP response for health checks.
type HealthResponse struct {
	Status  string                       `json:"status"`
	Modules map[string]mono.HealthStatus `json:"modules"`
}
