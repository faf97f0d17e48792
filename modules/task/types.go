package task

import (
	domain "github.com/CodeineSolm/taskmaster/domain/task"
)

// ListTasksRequest is the request for listing tasks.
type ListTasksRequest struct{}

// ListTasksResponse is the response for listing tasks.
type ListTasksResponse struct {
	Tasks []domain.View `json:"tasks"`
	Total int           `json:"total"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	ID int64 `json:"id"`
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// UpdateTaskRequest is the request for a full update.
type UpdateTaskRequest struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsCompleted bool    `json:"isCompleted"`
}

// UpdateTaskResponse is the response for a full update.
type UpdateTaskResponse struct {
	Updated bool `json:"updated"`
}

// ToggleTaskRequest is the request for toggling completion.
type ToggleTaskRequest struct {
	ID int64 `json:"id"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	ID int64 `json:"id"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}
