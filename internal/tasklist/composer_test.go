package tasklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/stask/internal/models"
)

func TestComposer_RecomputesOnEveryInput(t *testing.T) {
	c := NewComposer(models.FilterAll, models.DefaultSort())
	var views []View
	c.Subscribe(func(v View) { views = append(views, v) })

	c.SetTasks([]models.Task{
		task(1, "Buy milk", 1, false),
		task(2, "Bake bread", 2, true),
	})
	assert.Equal(t, []string{"Bake bread", "Buy milk"}, titles(c.View().Visible))

	c.SetQuery("milk")
	assert.Equal(t, []string{"Buy milk"}, titles(c.View().Visible))

	c.SetQuery("")
	c.SetFilter(models.FilterCompleted)
	assert.Equal(t, []string{"Bake bread"}, titles(c.View().Visible))

	c.SetFilter(models.FilterAll)
	c.SetSort(models.TaskSort{Key: models.SortByTitle, Direction: models.Descending})
	assert.Equal(t, []string{"Buy milk", "Bake bread"}, titles(c.View().Visible))

	c.SetSelection([]int64{2})
	v := c.View()
	assert.True(t, v.SelectionMode())
	assert.True(t, v.IsSelected(2))
	assert.False(t, v.IsSelected(1))

	require.Len(t, views, 7)
	assert.Equal(t, v, views[len(views)-1])
}

func TestComposer_Accessors(t *testing.T) {
	sort := models.TaskSort{Key: models.SortByTitle}
	c := NewComposer(models.FilterActive, sort)

	assert.Equal(t, models.FilterActive, c.Filter())
	assert.Equal(t, sort, c.Sort())
	assert.Empty(t, c.Tasks())
	assert.False(t, c.View().SelectionMode())

	snapshot := []models.Task{task(1, "x", 1, false)}
	c.SetTasks(snapshot)
	assert.Equal(t, snapshot, c.Tasks())
	assert.Equal(t, 1, c.View().Total)
}
