package crud

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/stask/internal/form"
	"github.com/tgienger/stask/internal/models"
	"github.com/tgienger/stask/internal/notify"
	"github.com/tgienger/stask/internal/result"
	"github.com/tgienger/stask/internal/store"
)

var errDisk = errors.New("disk full")

// failingStore reads from memory but fails every write
type failingStore struct {
	*store.Memory
}

func (failingStore) Insert(context.Context, models.Task) (int64, error) { return 0, errDisk }
func (failingStore) Update(context.Context, models.Task) error          { return errDisk }
func (failingStore) Delete(context.Context, models.Task) error          { return errDisk }
func (failingStore) Upsert(context.Context, models.Task) error          { return errDisk }

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func setup(t *testing.T, st store.TaskStore) (*Coordinator, *notify.Queue) {
	t.Helper()
	q := notify.NewQueue(0, nil)
	t.Cleanup(q.Close)
	c := New(st, form.New(), q, nil, WithClock(func() time.Time { return fixedNow }))
	return c, q
}

func nextNotification(t *testing.T, q *notify.Queue) notify.Notification {
	t.Helper()
	select {
	case n := <-q.Events():
		return n
	default:
		require.Fail(t, "expected a notification")
		return notify.Notification{}
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	c, q := setup(t, mem)

	c.Form().StartCreate()
	c.Form().SetTitle("  Buy milk ")
	c.Form().SetDescription("semi-skimmed")

	res := c.SaveTask(ctx)
	require.IsType(t, result.Success{}, res)
	assert.Equal(t, "Task created", res.Message())
	assert.False(t, c.Form().IsOpen(), "form closes after a successful create")

	tasks, err := mem.All(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, "semi-skimmed", tasks[0].Description)
	assert.Equal(t, fixedNow, tasks[0].CreatedAt)
	assert.False(t, tasks[0].IsCompleted)

	n := nextNotification(t, q)
	assert.Equal(t, notify.LevelInfo, n.Level)
	assert.False(t, n.HasUndo())
}

func TestCreate_ValidationNeverReachesStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	c, q := setup(t, mem)

	c.Form().StartCreate()
	c.Form().SetTitle("   ")

	res := c.Create(ctx)
	var verr *result.ValidationError
	require.ErrorAs(t, res.(error), &verr)
	assert.Equal(t, "Title cannot be empty", verr.Message())
	assert.Equal(t, "Title cannot be empty", c.Form().TitleError())
	assert.True(t, c.Form().IsOpen(), "form stays open so the user can fix it")

	tasks, _ := mem.All(ctx)
	assert.Empty(t, tasks)
	assert.Equal(t, notify.LevelWarning, nextNotification(t, q).Level)

	c.Form().SetTitle(strings.Repeat("x", 101))
	res = c.Create(ctx)
	assert.Equal(t, "Title must be at most 100 characters", res.Message())
}

func TestUpdate_KeepsCompletionAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	id, err := mem.Insert(ctx, models.Task{Title: "Old", IsCompleted: true, CreatedAt: created})
	require.NoError(t, err)
	c, _ := setup(t, mem)

	task, err := mem.GetByID(ctx, id)
	require.NoError(t, err)
	c.Form().StartEdit(task)
	c.Form().SetTitle("New")

	res := c.SaveTask(ctx)
	assert.Equal(t, result.Success{Text: "Task updated"}, res)
	assert.False(t, c.Form().IsOpen())

	got, err := mem.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, created, got.CreatedAt)
}

func TestUpdate_MissingTaskIsStoreError(t *testing.T) {
	c, _ := setup(t, store.NewMemory())
	c.Form().StartEdit(models.Task{ID: 99, Title: "ghost"})
	c.Form().SetTitle("still a ghost")

	res := c.Update(context.Background())
	var serr *result.StoreError
	require.ErrorAs(t, res.(error), &serr)
	assert.ErrorIs(t, serr, store.ErrNotFound)
	assert.True(t, strings.HasPrefix(serr.Message(), "Failed to update task: "))
	assert.True(t, c.Form().IsOpen())
}

func TestUpdate_WithoutSelectedTask(t *testing.T) {
	c, _ := setup(t, store.NewMemory())
	c.Form().StartCreate()
	c.Form().SetTitle("x")

	res := c.Update(context.Background())
	assert.IsType(t, &result.ValidationError{}, res)
}

func TestToggleCompletion(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	id, err := mem.Insert(ctx, models.Task{Title: "Buy milk", CreatedAt: fixedNow})
	require.NoError(t, err)
	c, _ := setup(t, mem)

	task, _ := mem.GetByID(ctx, id)
	res := c.ToggleCompletion(ctx, task)
	assert.Equal(t, "Task marked as completed", res.Message())

	task, _ = mem.GetByID(ctx, id)
	assert.True(t, task.IsCompleted)

	res = c.ToggleCompletion(ctx, task)
	assert.Equal(t, "Task marked as active", res.Message())

	res = c.ToggleCompletion(ctx, models.Task{Title: "unsaved"})
	assert.IsType(t, &result.ValidationError{}, res)
}

func TestDeleteAndUndo(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	created := time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC)
	id, err := mem.Insert(ctx, models.Task{Title: "Keep me", Description: "d", CreatedAt: created})
	require.NoError(t, err)
	c, q := setup(t, mem)

	task, _ := mem.GetByID(ctx, id)
	res := c.Delete(ctx, task)
	success, ok := res.(result.Success)
	require.True(t, ok)
	require.NotNil(t, success.Undo)
	assert.Equal(t, []models.Task{task}, success.Undo.Tasks)

	_, err = mem.GetByID(ctx, id)
	require.ErrorIs(t, err, store.ErrNotFound)

	n := nextNotification(t, q)
	require.True(t, n.HasUndo())

	undone := n.Undo.Run(ctx)
	assert.Equal(t, "Task restored", undone.Message())

	got, err := mem.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, task, got)
}

func TestPendingDelete(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	id, _ := mem.Insert(ctx, models.Task{Title: "a", CreatedAt: fixedNow})
	task, _ := mem.GetByID(ctx, id)
	c, _ := setup(t, mem)

	assert.Nil(t, c.ConfirmDelete(ctx), "nothing staged")

	c.RequestDelete(task)
	staged, ok := c.PendingDelete()
	require.True(t, ok)
	assert.Equal(t, task, staged)

	c.CancelDelete()
	_, ok = c.PendingDelete()
	assert.False(t, ok)
	_, err := mem.GetByID(ctx, id)
	require.NoError(t, err, "cancel leaves the store alone")

	c.RequestDelete(task)
	assert.True(t, result.IsSuccess(c.ConfirmDelete(ctx)))
	assert.Nil(t, c.ConfirmDelete(ctx), "a repeated confirm is a no-op")

	_, err = mem.GetByID(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreFailures(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	id, _ := mem.Insert(ctx, models.Task{Title: "a", CreatedAt: fixedNow})
	task, _ := mem.GetByID(ctx, id)
	c, q := setup(t, failingStore{mem})

	tests := []struct {
		name   string
		run    func() result.Result
		prefix string
	}{
		{"create", func() result.Result {
			c.Form().StartCreate()
			c.Form().SetTitle("new")
			return c.Create(ctx)
		}, "Failed to create task"},
		{"toggle", func() result.Result { return c.ToggleCompletion(ctx, task) }, "Failed to update task"},
		{"delete", func() result.Result { return c.Delete(ctx, task) }, "Failed to delete task"},
		{"restore", func() result.Result { return c.Restore(ctx, task) }, "Failed to restore task"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.run()
			var serr *result.StoreError
			require.ErrorAs(t, res.(error), &serr)
			assert.Equal(t, tt.prefix+": disk full", serr.Message())
			assert.ErrorIs(t, serr, errDisk)
			assert.Equal(t, notify.LevelError, nextNotification(t, q).Level)
		})
	}

	assert.True(t, c.Form().IsOpen(), "a failed create keeps the form open")
}
