package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/CodeineSolm/taskmaster/domain/task"
	"github.com/CodeineSolm/taskmaster/events"
	"github.com/CodeineSolm/taskmaster/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StoreOptions selects and configures the task store.
type StoreOptions struct {
	Driver      string
	DBPath      string
	DatabaseURL string
	Debug       bool
}

// Module owns the task store and exposes the task service, both in-process
// and as request-reply services on the bus.
type Module struct {
	opts        StoreOptions
	logger      types.Logger
	cacheModule *cache.Module
	eventBus    mono.EventBus

	store   domain.Store
	service *Service
}

var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)

// NewModule creates a task module.
func NewModule(opts StoreOptions, logger types.Logger) *Module {
	return &Module{
		opts:   opts,
		logger: logger,
	}
}

func (m *Module) Name() string {
	return "task"
}

// SetCacheModule wires the cache. Without it reads always hit the store.
func (m *Module) SetCacheModule(c *cache.Module) {
	m.cacheModule = c
}

// Dependencies lists the cache module when one is wired, so it is started
// before this module.
func (m *Module) Dependencies() []string {
	if m.cacheModule == nil {
		return nil
	}
	return []string{m.cacheModule.Name()}
}

// SetDependencyServiceContainer is a no-op: the cache is used in-process and
// registers no services.
func (m *Module) SetDependencyServiceContainer(_ string, _ mono.ServiceContainer) {}

func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskToggledV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

// Service returns the task service. It is nil until Start has run.
func (m *Module) Service() *Service {
	return m.service
}

// Start opens the configured store and builds the service.
func (m *Module) Start(ctx context.Context) error {
	store, err := openStore(ctx, m.opts)
	if err != nil {
		return err
	}
	m.store = store

	var c cache.CacheService
	if m.cacheModule != nil {
		c = m.cacheModule.Cache()
	}
	if m.eventBus == nil {
		m.logger.Warn("Event bus not set, task events will not be published")
	}
	m.service = NewService(store, c, m.eventBus, m.logger)

	m.logger.Info("Task module started", "driver", m.opts.Driver)
	return nil
}

func openStore(ctx context.Context, opts StoreOptions) (domain.Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		s, err := domain.OpenSQLite(ctx, opts.DBPath, opts.Debug)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		s, err := domain.OpenPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

// Stop closes the store.
func (m *Module) Stop(_ context.Context) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Close(); err != nil {
		return fmt.Errorf("failed to close task store: %w", err)
	}
	m.logger.Info("Task store closed")
	return nil
}

// Health pings the store.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "store not initialized",
		}
	}

	if err := m.store.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("store ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.opts.Driver,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
// The framework prefixes service names with "services.task.".
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "toggle", json.Unmarshal, json.Marshal, m.toggleTask,
	); err != nil {
		return fmt.Errorf("failed to register toggle service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	m.logger.Info("Registered services", "services", "list, get, create, update, toggle, delete")
	return nil
}

var errNotStarted = errors.New("task service not started")

func (m *Module) listTasks(ctx context.Context, _ ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	if m.service == nil {
		return ListTasksResponse{}, errNotStarted
	}
	views, err := m.service.List(ctx)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{Tasks: views, Total: len(views)}, nil
}

func (m *Module) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (domain.View, error) {
	if m.service == nil {
		return domain.View{}, errNotStarted
	}
	return m.service.Get(ctx, req.ID)
}

func (m *Module) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (domain.View, error) {
	if m.service == nil {
		return domain.View{}, errNotStarted
	}
	return m.service.Create(ctx, domain.CreateInput{
		Title:       req.Title,
		Description: req.Description,
	})
}

func (m *Module) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (UpdateTaskResponse, error) {
	if m.service == nil {
		return UpdateTaskResponse{}, errNotStarted
	}
	err := m.service.Update(ctx, req.ID, domain.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		return UpdateTaskResponse{}, err
	}
	return UpdateTaskResponse{Updated: true}, nil
}

func (m *Module) toggleTask(ctx context.Context, req ToggleTaskRequest, _ *mono.Msg) (domain.View, error) {
	if m.service == nil {
		return domain.View{}, errNotStarted
	}
	return m.service.Toggle(ctx, req.ID)
}

func (m *Module) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if m.service == nil {
		return DeleteTaskResponse{}, errNotStarted
	}
	if err := m.service.Delete(ctx, req.ID); err != nil {
		return DeleteTaskResponse{Deleted: false}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}
