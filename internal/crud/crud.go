// Package crud coordinates single-task create, update, delete and completion
// changes between the editor form and the task store.
package crud

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tgienger/stask/internal/form"
	"github.com/tgienger/stask/internal/models"
	"github.com/tgienger/stask/internal/notify"
	"github.com/tgienger/stask/internal/result"
	"github.com/tgienger/stask/internal/store"
)

// Coordinator runs single-task operations. Every operation returns a
// result.Result and publishes the same value to the notification queue.
type Coordinator struct {
	store  store.TaskStore
	form   *form.Form
	queue  *notify.Queue
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending *models.Task
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithClock overrides the clock used to stamp new tasks
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New creates a coordinator. queue and logger may be nil.
func New(st store.TaskStore, f *form.Form, queue *notify.Queue, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		store:  st,
		form:   f,
		queue:  queue,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Form returns the editor form this coordinator saves from
func (c *Coordinator) Form() *form.Form {
	return c.form
}

// SaveTask creates a task in create mode and updates the selected task in
// edit mode.
func (c *Coordinator) SaveTask(ctx context.Context) result.Result {
	if c.form.IsEditMode() {
		return c.Update(ctx)
	}
	return c.Create(ctx)
}

// Create inserts a task from the form values and closes the form on success
func (c *Coordinator) Create(ctx context.Context) result.Result {
	if verr := c.form.Validate(); verr != nil {
		return c.invalid("create", verr)
	}
	title, description := c.form.Values()

	id, err := c.store.Insert(ctx, models.Task{
		Title:       title,
		Description: description,
		CreatedAt:   c.now().UTC(),
	})
	if err != nil {
		return c.failed("create", result.FromStore("Failed to create task", err))
	}

	c.form.Close()
	c.logger.Info("task created", slog.Int64("id", id))
	return c.report(result.Success{Text: "Task created"})
}

// Update writes the form values over the task being edited and closes the
// form on success. Completion state and creation time are kept.
func (c *Coordinator) Update(ctx context.Context) result.Result {
	id, ok := c.form.SelectedTaskID()
	if !ok {
		return c.invalid("update", result.Invalid("No task selected for editing"))
	}
	if verr := c.form.Validate(); verr != nil {
		return c.invalid("update", verr)
	}
	title, description := c.form.Values()

	task, err := c.store.GetByID(ctx, id)
	if err != nil {
		return c.failed("update", result.FromStore("Failed to update task", err))
	}
	task.Title = title
	task.Description = description
	if err := c.store.Update(ctx, task); err != nil {
		return c.failed("update", result.FromStore("Failed to update task", err))
	}

	c.form.Close()
	c.logger.Info("task updated", slog.Int64("id", id))
	return c.report(result.Success{Text: "Task updated"})
}

// ToggleCompletion flips the completed flag of task
func (c *Coordinator) ToggleCompletion(ctx context.Context, task models.Task) result.Result {
	if !task.Persisted() {
		return c.invalid("toggle", result.Invalid("Invalid task id %d", task.ID))
	}
	task.IsCompleted = !task.IsCompleted
	if err := c.store.Update(ctx, task); err != nil {
		return c.failed("toggle", result.FromStore("Failed to update task", err))
	}

	msg := "Task marked as active"
	if task.IsCompleted {
		msg = "Task marked as completed"
	}
	c.logger.Info("task completion toggled", slog.Int64("id", task.ID), slog.Bool("completed", task.IsCompleted))
	return c.report(result.Success{Text: msg})
}

// Delete removes task immediately. The Success carries an undo that puts
// back the exact value that was deleted.
func (c *Coordinator) Delete(ctx context.Context, task models.Task) result.Result {
	if !task.Persisted() {
		return c.invalid("delete", result.Invalid("Invalid task id %d", task.ID))
	}
	if err := c.store.Delete(ctx, task); err != nil {
		return c.failed("delete", result.FromStore("Failed to delete task", err))
	}

	staged := task
	c.logger.Info("task deleted", slog.Int64("id", task.ID))
	return c.report(result.Success{
		Text: "Task deleted",
		Undo: &result.Undo{
			Label: "Undo",
			Tasks: []models.Task{staged},
			Run: func(ctx context.Context) result.Result {
				return c.Restore(ctx, staged)
			},
		},
	})
}

// Restore reinserts task with its original id and creation time
func (c *Coordinator) Restore(ctx context.Context, task models.Task) result.Result {
	if !task.Persisted() {
		return c.invalid("restore", result.Invalid("Invalid task id %d", task.ID))
	}
	if err := c.store.Upsert(ctx, task); err != nil {
		return c.failed("restore", result.FromStore("Failed to restore task", err))
	}
	c.logger.Info("task restored", slog.Int64("id", task.ID))
	return c.report(result.Success{Text: "Task restored"})
}

// RequestDelete stages task for deletion until ConfirmDelete or CancelDelete.
// A second request replaces the first.
func (c *Coordinator) RequestDelete(task models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := task
	c.pending = &t
}

// PendingDelete returns the staged task, if any
func (c *Coordinator) PendingDelete() (models.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return models.Task{}, false
	}
	return *c.pending, true
}

// ConfirmDelete deletes the staged task. The staged value is cleared before
// the store call so a repeated confirm does nothing. Returns nil when
// nothing was staged.
func (c *Coordinator) ConfirmDelete(ctx context.Context) result.Result {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if pending == nil {
		return nil
	}
	return c.Delete(ctx, *pending)
}

// CancelDelete drops the staged task without touching the store
func (c *Coordinator) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

func (c *Coordinator) invalid(op string, verr *result.ValidationError) result.Result {
	if verr.Field == result.FieldTitle {
		c.form.SetTitleError(verr.Text)
	}
	c.logger.Debug("task validation failed", slog.String("op", op), slog.String("error", verr.Text))
	return c.report(verr)
}

func (c *Coordinator) failed(op string, serr *result.StoreError) result.Result {
	c.logger.Error("task store call failed", slog.String("op", op), slog.Any("error", serr.Err))
	return c.report(serr)
}

func (c *Coordinator) report(r result.Result) result.Result {
	if c.queue != nil {
		c.queue.Publish(r)
	}
	return r
}
