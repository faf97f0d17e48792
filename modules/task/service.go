package task

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	domain "github.com/CodeineSolm/taskmaster/domain/task"
	"github.com/CodeineSolm/taskmaster/events"
	"github.com/CodeineSolm/taskmaster/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/singleflight"
)

// Clock returns the current time.
type Clock func() time.Time

const cacheKeyList = "list"

func cacheKeyByID(id int64) string {
	return "id:" + strconv.FormatInt(id, 10)
}

// Service implements the task operations on top of a Store.
//
// Reads go through the cache; every successful write invalidates the
// affected keys and publishes an event. Neither cache nor event failures
// fail the operation.
type Service struct {
	store    domain.Store
	cache    cache.CacheService
	eventBus mono.EventBus
	logger   types.Logger
	now      Clock
	sfGroup  singleflight.Group
}

// NewService creates a task service. c may be nil to disable caching and
// bus may be nil to disable events.
func NewService(store domain.Store, c cache.CacheService, bus mono.EventBus, logger types.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		store:    store,
		cache:    c,
		eventBus: bus,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(clock Clock) {
	s.now = clock
}

// List returns every task in storage order.
func (s *Service) List(ctx context.Context) ([]domain.View, error) {
	var cached []domain.View
	found, err := s.cache.Get(ctx, cacheKeyList, &cached)
	if err != nil {
		s.logger.Warn("Cache read failed", "key", cacheKeyList, "error", err)
	}
	if found && cached != nil {
		return cached, nil
	}

	val, err := s.load(ctx, cacheKeyList, func(ctx context.Context) (any, error) {
		tasks, err := s.store.List(ctx)
		if err != nil {
			return nil, err
		}
		return domain.Views(tasks), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return val.([]domain.View), nil
}

// Get returns a single task or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (domain.View, error) {
	key := cacheKeyByID(id)

	var cached domain.View
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("Cache read failed", "key", key, "error", err)
	}
	if found {
		return cached, nil
	}

	val, err := s.load(ctx, key, func(ctx context.Context) (any, error) {
		t, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return t.View(), nil
	})
	if err != nil {
		return domain.View{}, fmt.Errorf("failed to get task %d: %w", id, err)
	}
	return val.(domain.View), nil
}

// Create validates in and stores a new, incomplete task.
func (s *Service) Create(ctx context.Context, in domain.CreateInput) (domain.View, error) {
	if err := in.Validate(); err != nil {
		return domain.View{}, err
	}

	t := &domain.Task{
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return domain.View{}, fmt.Errorf("failed to create task: %w", err)
	}

	s.invalidate(ctx)
	s.logger.Info("Task created", "id", t.ID)

	if s.eventBus != nil {
		event := events.TaskCreatedEvent{
			TaskID:    t.ID,
			Title:     t.Title,
			CreatedAt: t.CreatedAt,
		}
		if err := events.TaskCreatedV1.Publish(s.eventBus, event, nil); err != nil {
			s.logger.Warn("Failed to publish TaskCreated event", "id", t.ID, "error", err)
		}
	}

	return t.View(), nil
}

// Update overwrites title, description and completion of an existing task.
// Input is validated before the store is touched.
func (s *Service) Update(ctx context.Context, id int64, in domain.UpdateInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	t, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", id, err)
	}

	t.Apply(in, s.now())
	if err := s.save(ctx, t); err != nil {
		return fmt.Errorf("failed to update task %d: %w", id, err)
	}

	s.invalidate(ctx, id)
	s.logger.Info("Task updated", "id", id, "version", t.Version)

	if s.eventBus != nil {
		event := events.TaskUpdatedEvent{
			TaskID:      t.ID,
			Title:       t.Title,
			IsCompleted: t.IsCompleted,
			UpdatedAt:   *t.UpdatedAt,
		}
		if err := events.TaskUpdatedV1.Publish(s.eventBus, event, nil); err != nil {
			s.logger.Warn("Failed to publish TaskUpdated event", "id", id, "error", err)
		}
	}
	return nil
}

// Toggle flips the completion flag and returns the updated task.
func (s *Service) Toggle(ctx context.Context, id int64) (domain.View, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.View{}, fmt.Errorf("failed to toggle task %d: %w", id, err)
	}

	t.Toggle(s.now())
	if err := s.save(ctx, t); err != nil {
		return domain.View{}, fmt.Errorf("failed to toggle task %d: %w", id, err)
	}

	s.invalidate(ctx, id)
	s.logger.Info("Task toggled", "id", id, "completed", t.IsCompleted)

	if s.eventBus != nil {
		event := events.TaskToggledEvent{
			TaskID:      t.ID,
			IsCompleted: t.IsCompleted,
			ToggledAt:   *t.UpdatedAt,
		}
		if err := events.TaskToggledV1.Publish(s.eventBus, event, nil); err != nil {
			s.logger.Warn("Failed to publish TaskToggled event", "id", id, "error", err)
		}
	}

	return t.View(), nil
}

// Delete permanently removes a task.
func (s *Service) Delete(ctx context.Context, id int64) error {
	exists, err := s.store.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("failed to delete task %d: %w", id, domain.ErrNotFound)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}

	s.invalidate(ctx, id)
	s.logger.Info("Task deleted", "id", id)

	if s.eventBus != nil {
		event := events.TaskDeletedEvent{
			TaskID:    id,
			DeletedAt: s.now().UTC(),
		}
		if err := events.TaskDeletedV1.Publish(s.eventBus, event, nil); err != nil {
			s.logger.Warn("Failed to publish TaskDeleted event", "id", id, "error", err)
		}
	}
	return nil
}

// save performs the versioned write. A conflict on a row that no longer
// exists is reported as not found.
func (s *Service) save(ctx context.Context, t *domain.Task) error {
	err := s.store.Update(ctx, t)
	if !errors.Is(err, domain.ErrConflict) {
		return err
	}

	exists, xerr := s.store.Exists(ctx, t.ID)
	if xerr != nil {
		return fmt.Errorf("conflict recheck failed: %w", xerr)
	}
	if !exists {
		return domain.ErrNotFound
	}
	s.logger.Warn("Concurrent modification detected", "id", t.ID, "version", t.Version)
	return err
}

// load reads key from the store once per concurrent burst of misses and
// fills the cache with the result. The fill is dropped when a write
// invalidated key after the read began. A caller whose ctx ends stops
// waiting without cancelling the shared read.
func (s *Service) load(ctx context.Context, key string, read func(context.Context) (any, error)) (any, error) {
	ch := s.sfGroup.DoChan(key, func() (any, error) {
		ctx := context.WithoutCancel(ctx)

		gen, genErr := s.cache.Generation(ctx, key)
		if genErr != nil {
			s.logger.Warn("Cache read failed", "key", key, "error", genErr)
		}

		val, err := read(ctx)
		if err != nil || genErr != nil {
			return val, err
		}

		stored, err := s.cache.SetIfUnchanged(ctx, key, gen, val)
		if err != nil {
			s.logger.Warn("Cache write failed", "key", key, "error", err)
		} else if !stored {
			s.logger.Debug("Cache fill skipped, entry invalidated during read", "key", key)
		}
		return val, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// invalidate drops the list and the given per-task entries. Reads already in
// flight for those keys are detached so later callers reload from the store.
func (s *Service) invalidate(ctx context.Context, ids ...int64) {
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, cacheKeyList)
	for _, id := range ids {
		keys = append(keys, cacheKeyByID(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Cache invalidation failed", "keys", keys, "error", err)
	}
	for _, key := range keys {
		s.sfGroup.Forget(key)
	}
}
