package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/stask/internal/models"
)

func newTask(title string) models.Task {
	return models.Task{Title: title, CreatedAt: time.Now().UTC()}
}

func TestMemory_InsertAssignsIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id1, err := m.Insert(ctx, newTask("one"))
	require.NoError(t, err)
	id2, err := m.Insert(ctx, newTask("two"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	got, err := m.GetByID(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, "two", got.Title)
}

func TestMemory_InsertRejectsID(t *testing.T) {
	m := NewMemory()
	_, err := m.Insert(context.Background(), models.Task{ID: 4, Title: "x"})
	assert.Error(t, err)
}

func TestMemory_UpdateMissing(t *testing.T) {
	m := NewMemory()
	err := m.Update(context.Background(), models.Task{ID: 9, Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	err = m.Update(context.Background(), models.Task{ID: 0, Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestMemory_DeleteAndUpsertKeepsValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id, err := m.Insert(ctx, newTask("keep me"))
	require.NoError(t, err)
	original, err := m.GetByID(ctx, id)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, original))
	_, err = m.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Upsert(ctx, original))
	restored, err := m.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, original, restored)

	// the id sequence moves past restored ids
	next, err := m.Insert(ctx, newTask("after"))
	require.NoError(t, err)
	assert.Greater(t, next, id)
}

func TestMemory_BulkOperations(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var ids []int64
	for _, title := range []string{"a", "b", "c"} {
		id, err := m.Insert(ctx, newTask(title))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.NoError(t, m.BulkSetCompleted(ctx, ids[:2], true))
	got, err := m.GetByIDs(ctx, ids)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].IsCompleted)
	assert.True(t, got[1].IsCompleted)
	assert.False(t, got[2].IsCompleted)

	require.NoError(t, m.BulkDelete(ctx, ids[:2]))
	all, err := m.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "c", all[0].Title)

	require.NoError(t, m.BulkUpsert(ctx, got[:2]))
	all, err = m.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids, models.IDs(all))

	assert.ErrorIs(t, m.BulkDelete(ctx, []int64{-1}), ErrInvalidID)
	assert.ErrorIs(t, m.BulkSetCompleted(ctx, []int64{0}, true), ErrInvalidID)
}

func TestMemory_SubscribeAllDeliversLatest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	feed, err := m.SubscribeAll(ctx)
	require.NoError(t, err)

	first := <-feed
	assert.Empty(t, first)

	for _, title := range []string{"a", "b", "c"} {
		_, err := m.Insert(ctx, newTask(title))
		require.NoError(t, err)
	}

	// intermediate snapshots were replaced, only the newest is buffered
	latest := <-feed
	assert.Len(t, latest, 3)

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-feed
		return !ok
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, m.feed.Len())
}

func TestMemory_Settings(t *testing.T) {
	m := NewMemory()
	v, err := m.GetSetting("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, m.SetSetting("sort", "title"))
	v, err = m.GetSetting("sort")
	require.NoError(t, err)
	assert.Equal(t, "title", v)
}
