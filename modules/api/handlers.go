package api

import (
	"context"
	"strconv"
	"strings"

	domain "github.com/CodeineSolm/taskmaster/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// TaskService is the port driven by the HTTP handlers.
type TaskService interface {
	List(ctx context.Context) ([]domain.View, error)
	Get(ctx context.Context, id int64) (domain.View, error)
	Create(ctx context.Context, in domain.CreateInput) (domain.View, error)
	Update(ctx context.Context, id int64, in domain.UpdateInput) error
	Toggle(ctx context.Context, id int64) (domain.View, error)
	Delete(ctx context.Context, id int64) error
}

// Handlers serves the task resource.
type Handlers struct {
	service TaskService
	logger  types.Logger
}

// NewHandlers creates handlers over the task service.
func NewHandlers(service TaskService, logger types.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// register mounts the task routes on r.
func (h *Handlers) register(r fiber.Router) {
	r.Get("/", h.listTasks)
	r.Post("/", h.createTask)
	r.Get("/:id", h.getTask)
	r.Put("/:id", h.updateTask)
	r.Patch("/:id/toggle", h.toggleTask)
	r.Delete("/:id", h.deleteTask)
}

func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: message})
}

// listTasks handles GET /tasks.
func (h *Handlers) listTasks(c *fiber.Ctx) error {
	views, err := h.service.List(c.UserContext())
	if err != nil {
		return writeTaskError(c, h.logger, 0, err)
	}
	return c.JSON(views)
}

// getTask handles GET /tasks/:id.
func (h *Handlers) getTask(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, msgInvalidID)
	}

	view, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeTaskError(c, h.logger, id, err)
	}
	return c.JSON(view)
}

// createTask handles POST /tasks.
func (h *Handlers) createTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}

	view, err := h.service.Create(c.UserContext(), domain.CreateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return writeTaskError(c, h.logger, 0, err)
	}

	c.Location(strings.TrimSuffix(c.Path(), "/") + "/" + strconv.FormatInt(view.ID, 10))
	return c.Status(fiber.StatusCreated).JSON(view)
}

// updateTask handles PUT /tasks/:id.
func (h *Handlers) updateTask(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, msgInvalidID)
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}

	err := h.service.Update(c.UserContext(), id, domain.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		return writeTaskError(c, h.logger, id, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// toggleTask handles PATCH /tasks/:id/toggle.
func (h *Handlers) toggleTask(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, msgInvalidID)
	}

	view, err := h.service.Toggle(c.UserContext(), id)
	if err != nil {
		return writeTaskError(c, h.logger, id, err)
	}
	return c.JSON(view)
}

// deleteTask handles DELETE /tasks/:id.
func (h *Handlers) deleteTask(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, msgInvalidID)
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return writeTaskError(c, h.logger, id, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
