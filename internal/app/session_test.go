package app

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/stask/internal/models"
	"github.com/tgienger/stask/internal/notify"
	"github.com/tgienger/stask/internal/result"
	"github.com/tgienger/stask/internal/store"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func startSession(t *testing.T, mem *store.Memory, opts Options) *Session {
	t.Helper()
	s := New(mem, opts)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func visibleTitles(s *Session) []string {
	var out []string
	for _, task := range s.Visible() {
		out = append(out, task.Title)
	}
	return out
}

func hasVisible(s *Session, title string) func() bool {
	return func() bool { return slices.Contains(visibleTitles(s), title) }
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := startSession(t, mem, Options{Settings: mem})

	s.StartCreate()
	s.Form.SetTitle("Buy milk")
	require.True(t, result.IsSuccess(s.SaveTask(ctx)))
	require.Eventually(t, hasVisible(s, "Buy milk"), waitFor, tick)

	s.UpdateQuery("milk")
	require.Eventually(t, hasVisible(s, "Buy milk"), waitFor, tick)

	s.UpdateQuery("bread")
	require.Eventually(t, func() bool { return len(s.Visible()) == 0 }, waitFor, tick)

	s.ClearSearch()
	assert.Equal(t, []string{"Buy milk"}, visibleTitles(s), "clear applies without waiting")

	s.SetFilter(models.FilterCompleted)
	assert.Empty(t, s.Visible())

	s.SetFilter(models.FilterAll)
	task := s.Visible()[0]
	require.True(t, result.IsSuccess(s.ToggleCompletion(ctx, task)))

	s.SetFilter(models.FilterCompleted)
	require.Eventually(t, hasVisible(s, "Buy milk"), waitFor, tick)
}

func TestSelectAllVisibleAndBulkDeleteUndo(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	for _, title := range []string{"one", "two", "three"} {
		_, err := mem.Insert(ctx, models.Task{Title: title, CreatedAt: time.Now()})
		require.NoError(t, err)
	}
	s := startSession(t, mem, Options{})
	require.Eventually(t, func() bool { return len(s.Visible()) == 3 }, waitFor, tick)

	s.UpdateQuery("t")
	require.NoError(t, s.SelectAllVisible())
	assert.Equal(t, 2, s.Selection.Count())
	assert.True(t, s.Composer.View().SelectionMode())

	assert.Nil(t, s.RequestBulkDelete())
	assert.Len(t, s.State().PendingBulkDelete, 2)

	res := s.ConfirmBulkDelete(ctx)
	require.True(t, result.IsSuccess(res))
	assert.False(t, s.Selection.HasSelection())

	s.ClearSearch()
	require.Eventually(t, func() bool { return len(s.Visible()) == 1 }, waitFor, tick)

	var n notify.Notification
	for n = range s.Notifications.Events() {
		if n.HasUndo() {
			break
		}
	}
	require.True(t, n.HasUndo())
	require.True(t, result.IsSuccess(s.Undo(ctx, n)))
	require.Eventually(t, func() bool { return len(s.Visible()) == 3 }, waitFor, tick)
}

func TestSelectAllVisible_EmptyListIsReported(t *testing.T) {
	s := startSession(t, store.NewMemory(), Options{})

	err := s.SelectAllVisible()
	var verr *result.ValidationError
	require.ErrorAs(t, err, &verr)

	n := <-s.Notifications.Events()
	assert.Equal(t, notify.LevelWarning, n.Level)
	assert.Equal(t, "Selection cannot be empty", n.Text)
}

func TestPendingDeletesAreExclusive(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	id, err := mem.Insert(ctx, models.Task{Title: "a", CreatedAt: time.Now()})
	require.NoError(t, err)
	task, _ := mem.GetByID(ctx, id)

	s := startSession(t, mem, Options{})
	require.Eventually(t, func() bool { return len(s.Visible()) == 1 }, waitFor, tick)

	s.RequestDelete(task)
	require.NotNil(t, s.State().PendingDelete)

	require.NoError(t, s.EnterSelection(id))
	assert.Nil(t, s.RequestBulkDelete())
	st := s.State()
	assert.Nil(t, st.PendingDelete, "a bulk request cancels the single one")
	assert.Len(t, st.PendingBulkDelete, 1)

	s.RequestDelete(task)
	st = s.State()
	assert.NotNil(t, st.PendingDelete)
	assert.Empty(t, st.PendingBulkDelete, "a single request cancels the bulk one")

	s.CancelDelete()
	assert.Nil(t, s.State().PendingDelete)
	assert.Nil(t, s.ConfirmDelete(ctx))
}

func TestPreferencesPersist(t *testing.T) {
	mem := store.NewMemory()
	sort := models.TaskSort{Key: models.SortByTitle, Direction: models.Ascending, Grouping: models.GroupCompletedLast}

	first := startSession(t, mem, Options{Settings: mem})
	first.SetFilter(models.FilterActive)
	first.SetSort(sort)
	first.Close()

	second := New(mem, Options{Settings: mem, Filter: models.FilterCompleted})
	defer second.Close()
	assert.Equal(t, models.FilterActive, second.Composer.Filter())
	assert.Equal(t, sort, second.Composer.Sort())
}

func TestPreferences_BadValuesKeepDefaults(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.SetSetting(settingFilter, "someday"))
	require.NoError(t, mem.SetSetting(settingSortKey, "priority"))

	s := New(mem, Options{Settings: mem, Filter: models.FilterActive})
	defer s.Close()
	assert.Equal(t, models.FilterActive, s.Composer.Filter())
	assert.Equal(t, models.DefaultSort(), s.Composer.Sort())
}

func TestChangesKeepsLatest(t *testing.T) {
	s := startSession(t, store.NewMemory(), Options{})

	s.UpdateQuery("a")
	s.UpdateQuery("ab")
	s.SetFilter(models.FilterCompleted)

	require.Eventually(t, func() bool {
		select {
		case st := <-s.Changes():
			return st.View.Filter == models.FilterCompleted && st.Query == "ab"
		default:
			return false
		}
	}, waitFor, tick)
}

func TestClose(t *testing.T) {
	s := New(store.NewMemory(), Options{})
	require.NoError(t, s.Start(context.Background()))
	s.Close()
	s.Close()

	// both channels may still hold a buffered value before reporting closed
	for range s.Changes() {
	}
	for range s.Notifications.Events() {
	}
	_, open := <-s.Changes()
	assert.False(t, open)
}
