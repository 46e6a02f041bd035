// Package bulk turns the current selection into batched store writes and
// manages the confirm/undo lifecycle of bulk deletes.
package bulk

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/tgienger/stask/internal/models"
	"github.com/tgienger/stask/internal/notify"
	"github.com/tgienger/stask/internal/result"
	"github.com/tgienger/stask/internal/selection"
	"github.com/tgienger/stask/internal/store"
)

// DefaultMaxSize bounds how many tasks a single bulk write may touch. It is
// intentionally tighter than selection.DefaultMaxSize.
const DefaultMaxSize = 500

// Coordinator runs bulk operations over a Selection
type Coordinator struct {
	store     store.TaskStore
	selection *selection.Selection
	queue     *notify.Queue
	logger    *slog.Logger
	maxSize   int

	mu      sync.Mutex
	pending []models.Task
}

// New creates a coordinator. maxSize <= 0 uses DefaultMaxSize. queue and
// logger may be nil.
func New(st store.TaskStore, sel *selection.Selection, queue *notify.Queue, logger *slog.Logger, maxSize int) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Coordinator{
		store:     st,
		selection: sel,
		queue:     queue,
		logger:    logger,
		maxSize:   maxSize,
	}
}

// MaxSize returns the bulk write bound
func (c *Coordinator) MaxSize() int {
	return c.maxSize
}

// MarkCompleted marks every selected task completed
func (c *Coordinator) MarkCompleted(ctx context.Context) result.Result {
	return c.setCompleted(ctx, true)
}

// MarkActive marks every selected task not completed
func (c *Coordinator) MarkActive(ctx context.Context) result.Result {
	return c.setCompleted(ctx, false)
}

func (c *Coordinator) setCompleted(ctx context.Context, completed bool) result.Result {
	ids, verr := c.selectedIDs()
	if verr != nil {
		return c.invalid("set completed", verr)
	}

	if err := c.store.BulkSetCompleted(ctx, ids, completed); err != nil {
		return c.failed("set completed", result.FromStore("Failed to update tasks", err))
	}
	c.selection.Clear()

	state := "active"
	if completed {
		state = "completed"
	}
	c.logger.Info("tasks updated", slog.Int("count", len(ids)), slog.Bool("completed", completed))
	return c.report(result.Success{Text: plural(len(ids)) + " marked as " + state})
}

// RequestDelete stages the selected tasks for deletion. The staged values
// are resolved from allTasks; a selected id missing from allTasks means the
// snapshot is stale and nothing is staged.
func (c *Coordinator) RequestDelete(allTasks []models.Task) result.Result {
	ids, verr := c.selectedIDs()
	if verr != nil {
		return c.invalid("request delete", verr)
	}

	byID := make(map[int64]models.Task, len(allTasks))
	for _, t := range allTasks {
		byID[t.ID] = t
	}
	staged := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return c.invalid("request delete", result.Invalid("Selected task %d not found", id))
		}
		staged = append(staged, t)
	}

	c.mu.Lock()
	c.pending = staged
	c.mu.Unlock()
	c.logger.Debug("bulk delete requested", slog.Int("count", len(staged)))
	return nil
}

// Pending returns a copy of the staged tasks
func (c *Coordinator) Pending() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.pending)
}

// HasPending reports whether a bulk delete awaits confirmation
func (c *Coordinator) HasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// ConfirmDelete deletes the staged tasks. The staged set is cleared before
// the store is called, so a repeated confirm does nothing and a failed
// delete does not re-arm confirmation. Returns nil when nothing is staged.
func (c *Coordinator) ConfirmDelete(ctx context.Context) result.Result {
	c.mu.Lock()
	staged := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(staged) == 0 {
		return nil
	}

	if err := c.store.BulkDelete(ctx, models.IDs(staged)); err != nil {
		return c.failed("delete", result.FromStore("Failed to delete tasks", err))
	}
	c.selection.Clear()

	c.logger.Info("tasks deleted", slog.Int("count", len(staged)))
	return c.report(result.Success{
		Text: plural(len(staged)) + " deleted",
		Undo: &result.Undo{
			Label: "Undo",
			Tasks: staged,
			Run: func(ctx context.Context) result.Result {
				return c.Restore(ctx, staged)
			},
		},
	})
}

// CancelDelete drops the staged tasks without calling the store
func (c *Coordinator) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// Restore reinserts tasks exactly as they were, ids and creation times
// included.
func (c *Coordinator) Restore(ctx context.Context, tasks []models.Task) result.Result {
	if len(tasks) == 0 {
		return c.invalid("restore", result.Invalid("No tasks to restore"))
	}
	if err := c.store.BulkUpsert(ctx, tasks); err != nil {
		return c.failed("restore", result.FromStore("Failed to restore tasks", err))
	}
	c.logger.Info("tasks restored", slog.Int("count", len(tasks)))
	return c.report(result.Success{Text: plural(len(tasks)) + " restored"})
}

// selectedIDs classifies the selection and applies the bulk bound
func (c *Coordinator) selectedIDs() ([]int64, *result.ValidationError) {
	var ids []int64
	switch v := c.selection.Validate().(type) {
	case selection.Empty:
		return nil, result.Invalid("No tasks selected")
	case selection.SingleItem:
		ids = []int64{v.ID}
	case selection.MultipleItems:
		ids = v.IDs
	}
	if len(ids) > c.maxSize {
		return nil, result.Invalid("Cannot modify more than %d tasks at once", c.maxSize)
	}
	return ids, nil
}

func (c *Coordinator) invalid(op string, verr *result.ValidationError) result.Result {
	c.logger.Debug("bulk validation failed", slog.String("op", op), slog.String("error", verr.Text))
	return c.report(verr)
}

func (c *Coordinator) failed(op string, serr *result.StoreError) result.Result {
	c.logger.Error("bulk store call failed", slog.String("op", op), slog.Any("error", serr.Err))
	return c.report(serr)
}

func (c *Coordinator) report(r result.Result) result.Result {
	if c.queue != nil {
		c.queue.Publish(r)
	}
	return r
}

func plural(n int) string {
	if n == 1 {
		return "1 task"
	}
	return strconv.Itoa(n) + " tasks"
}
