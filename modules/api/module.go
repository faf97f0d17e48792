package api

import (
	"context"
	"errors"
	"fmt"

	taskmod "github.com/CodeineSolm/taskmaster/modules/task"
	"github.com/bytedance/sonic"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// HealthSource is a module whose health is reported on /health.
type HealthSource interface {
	Name() string
	Health(ctx context.Context) mono.HealthStatus
}

// Module is the HTTP driving adapter for the task service.
type Module struct {
	port        int
	corsOrigins string
	logger      types.Logger

	taskModule    *taskmod.Module
	healthSources []HealthSource

	app *fiber.App
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the API module.
func NewModule(port int, corsOrigins string, logger types.Logger) *Module {
	return &Module{
		port:        port,
		corsOrigins: corsOrigins,
		logger:      logger,
	}
}

func (m *Module) Name() string {
	return "api"
}

// SetTaskModule sets the task module dependency.
func (m *Module) SetTaskModule(tm *taskmod.Module) {
	m.taskModule = tm
}

// Dependencies returns the list of module dependencies.
// The framework starts the task module before this one.
func (m *Module) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer is a no-op: handlers call the task service
// in-process through the module set by SetTaskModule.
func (m *Module) SetDependencyServiceContainer(_ string, _ mono.ServiceContainer) {}

// AddHealthSource includes a module in the /health report.
func (m *Module) AddHealthSource(s HealthSource) {
	m.healthSources = append(m.healthSources, s)
}

// Start builds the Fiber app and starts listening.
func (m *Module) Start(_ context.Context) error {
	if m.taskModule == nil {
		return errors.New("task module not set")
	}
	service := m.taskModule.Service()
	if service == nil {
		return errors.New("task service not available")
	}

	m.app = m.newApp(service)

	go func() {
		addr := fmt.Sprintf(":%d", m.port)
		if err := m.app.Listen(addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "port", m.port)
	return nil
}

// newApp wires middleware and routes around service.
func (m *Module) newApp(service TaskService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "TaskMaster",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.corsOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	app.Get("/health", m.healthHandler)

	h := NewHandlers(service, m.logger)
	h.register(app.Group("/tasks"))
	h.register(app.Group("/api/tasks"))

	return app
}

// Stop shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	return m.app.ShutdownWithContext(ctx)
}

func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.port,
		},
	}
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:  "healthy",
		Modules: make(map[string]mono.HealthStatus, len(m.healthSources)),
	}
	code := fiber.StatusOK

	for _, s := range m.healthSources {
		status := s.Health(c.UserContext())
		resp.Modules[s.Name()] = status
		if !status.Healthy {
			resp.Status = "unhealthy"
			code = fiber.StatusServiceUnavailable
		}
	}

	return c.Status(code).JSON(resp)
}
