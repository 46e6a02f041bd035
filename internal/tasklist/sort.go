// Package tasklist derives the visible task list from the stored tasks and
// the current search query, status filter and sort.
package tasklist

import (
	"cmp"
	"slices"
	"strings"

	"github.com/tgienger/stask/internal/models"
)

// SortTasks returns a sorted copy of tasks. The input is never modified.
func SortTasks(tasks []models.Task, sort models.TaskSort) []models.Task {
	compare := comparator(sort.Key, sort.Direction)

	if sort.Grouping == models.GroupNone {
		out := slices.Clone(tasks)
		slices.SortStableFunc(out, compare)
		return out
	}

	var completed, active []models.Task
	for _, t := range tasks {
		if t.IsCompleted {
			completed = append(completed, t)
		} else {
			active = append(active, t)
		}
	}
	slices.SortStableFunc(completed, compare)
	slices.SortStableFunc(active, compare)

	out := make([]models.Task, 0, len(tasks))
	if sort.Grouping == models.GroupCompletedFirst {
		out = append(out, completed...)
		return append(out, active...)
	}
	out = append(out, active...)
	return append(out, completed...)
}

func comparator(key models.SortKey, dir models.SortDirection) func(a, b models.Task) int {
	switch key {
	case models.SortByTitle:
		return func(a, b models.Task) int {
			c := compareTitles(a.Title, b.Title)
			if dir == models.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
			// ties: newest first regardless of direction
			return b.CreatedAt.Compare(a.CreatedAt)
		}
	default:
		return func(a, b models.Task) int {
			if dir == models.Ascending {
				return a.CreatedAt.Compare(b.CreatedAt)
			}
			return b.CreatedAt.Compare(a.CreatedAt)
		}
	}
}

func compareTitles(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}
