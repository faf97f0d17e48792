// Package task holds the Task entity, its input rules and the persistence
// contract shared by the storage backends.
package task

import "time"

// Task is a single tracked to-do item.
//
// Version is the optimistic-concurrency token. It starts at 1 and is
// incremented by every successful write; it is never exposed on the wire.
type Task struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Title       string     `gorm:"size:200;not null"`
	Description *string    `gorm:"size:1000"`
	IsCompleted bool       `gorm:"not null"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false"`
	UserID      *int64
	Version     int64 `gorm:"not null"`
}

// TableName returns the table name for Task.
func (Task) TableName() string {
	return "tasks"
}

// Toggle flips the completion flag and stamps UpdatedAt.
func (t *Task) Toggle(now time.Time) {
	t.IsCompleted = !t.IsCompleted
	t.touch(now)
}

// Apply overwrites the mutable fields from a full update.
func (t *Task) Apply(in UpdateInput, now time.Time) {
	t.Title = in.Title
	t.Description = in.Description
	t.IsCompleted = in.IsCompleted
	t.touch(now)
}

// touch never moves UpdatedAt before CreatedAt, even with a skewed clock.
func (t *Task) touch(now time.Time) {
	now = now.UTC()
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	t.UpdatedAt = &now
}

// View is the response shape of a task.
type View struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	IsCompleted bool       `json:"isCompleted"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
}

// View maps the stored task to its response view.
func (t *Task) View() View {
	v := View{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt.UTC(),
	}
	if t.UpdatedAt != nil {
		u := t.UpdatedAt.UTC()
		v.UpdatedAt = &u
	}
	return v
}

// Views maps a slice of tasks. The result is never nil.
func Views(tasks []*Task) []View {
	views := make([]View, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, t.View())
	}
	return views
}
