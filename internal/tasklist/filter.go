package tasklist

import (
	"strings"

	"github.com/tgienger/stask/internal/models"
)

// FilterByStatus keeps tasks matching filter. FilterAll returns tasks as is.
func FilterByStatus(tasks []models.Task, filter models.StatusFilter) []models.Task {
	switch filter {
	case models.FilterActive:
		return keep(tasks, func(t models.Task) bool { return !t.IsCompleted })
	case models.FilterCompleted:
		return keep(tasks, func(t models.Task) bool { return t.IsCompleted })
	}
	return tasks
}

// FilterBySearch keeps tasks whose title or description contains query,
// ignoring case. A blank query returns tasks unchanged.
func FilterBySearch(tasks []models.Task, query string) []models.Task {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return tasks
	}
	return keep(tasks, func(t models.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q)
	})
}

func keep(tasks []models.Task, pred func(models.Task) bool) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}
