package tasklist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tgienger/stask/internal/models"
)

func TestFilterByStatus(t *testing.T) {
	tasks := []models.Task{task(1, "open", 1, false), task(2, "closed", 2, true)}

	tests := []struct {
		filter models.StatusFilter
		want   []string
	}{
		{models.FilterAll, []string{"open", "closed"}},
		{models.FilterActive, []string{"open"}},
		{models.FilterCompleted, []string{"closed"}},
	}
	for _, tt := range tests {
		t.Run(tt.filter.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, titles(FilterByStatus(tasks, tt.filter)))
		})
	}
}

func TestFilterBySearch(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Title: "Buy milk"},
		{ID: 2, Title: "Call mom", Description: "ask about MILK prices"},
		{ID: 3, Title: "Bread"},
	}

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"blank returns all", "", []int64{1, 2, 3}},
		{"whitespace returns all", "   ", []int64{1, 2, 3}},
		{"title or description, any case", "Milk", []int64{1, 2}},
		{"trimmed before matching", "  bread ", []int64{3}},
		{"no match", "eggs", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.IDs(FilterBySearch(tasks, tt.query)))
		})
	}
}

func TestDerive_NeverDropsMatchingTasks(t *testing.T) {
	tasks := []models.Task{
		task(1, "milk run", 1, false),
		task(2, "milk done", 2, true),
		task(3, "bread", 3, false),
		task(4, "MILK again", 4, false),
	}

	for _, s := range allSorts() {
		for _, f := range []models.StatusFilter{models.FilterAll, models.FilterActive, models.FilterCompleted} {
			v := Derive(Inputs{Tasks: tasks, Query: "milk", Filter: f, Sort: s})

			var want []int64
			for _, tk := range FilterBySearch(FilterByStatus(tasks, f), "milk") {
				want = append(want, tk.ID)
			}
			assert.ElementsMatch(t, want, models.IDs(v.Visible), "%s %s", f, s)
		}
	}
}

func TestDerive_CompletedFilterWithGroupingIsNoop(t *testing.T) {
	tasks := []models.Task{task(1, "a", 1, true), task(2, "b", 2, true), task(3, "c", 3, false)}

	grouped := Derive(Inputs{Tasks: tasks, Filter: models.FilterCompleted, Sort: models.TaskSort{Grouping: models.GroupCompletedLast}})
	plain := Derive(Inputs{Tasks: tasks, Filter: models.FilterCompleted, Sort: models.TaskSort{}})

	assert.Equal(t, models.IDs(plain.Visible), models.IDs(grouped.Visible))
	assert.Equal(t, 3, grouped.Total)
}
