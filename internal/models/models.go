package models

import (
	"fmt"
	"strings"
	"time"
)

// Title and description limits, counted in characters after trimming.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Task represents a single to-do item
type Task struct {
	ID          int64
	Title       string
	Description string
	IsCompleted bool
	CreatedAt   time.Time
}

// Persisted reports whether the task carries a store-assigned id.
func (t Task) Persisted() bool {
	return t.ID > 0
}

// SortKey is the primary field a task list is ordered by
type SortKey int

const (
	SortByCreatedAt SortKey = iota
	SortByTitle
)

func (k SortKey) String() string {
	switch k {
	case SortByCreatedAt:
		return "created_at"
	case SortByTitle:
		return "title"
	}
	return "unknown"
}

// ParseSortKey converts a config/settings value into a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "created_at", "created", "":
		return SortByCreatedAt, nil
	case "title":
		return SortByTitle, nil
	}
	return SortByCreatedAt, fmt.Errorf("unknown sort key %q", s)
}

// SortDirection is ascending or descending
type SortDirection int

const (
	Descending SortDirection = iota
	Ascending
)

func (d SortDirection) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	}
	return "unknown"
}

// ParseSortDirection converts a config/settings value into a SortDirection.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Ascending, nil
	case "desc", "":
		return Descending, nil
	}
	return Descending, fmt.Errorf("unknown sort direction %q", s)
}

// CompletedGrouping clusters completed tasks at one end of a sorted list
type CompletedGrouping int

const (
	GroupNone CompletedGrouping = iota
	GroupCompletedFirst
	GroupCompletedLast
)

func (g CompletedGrouping) String() string {
	switch g {
	case GroupNone:
		return "none"
	case GroupCompletedFirst:
		return "completed_first"
	case GroupCompletedLast:
		return "completed_last"
	}
	return "unknown"
}

// ParseCompletedGrouping converts a config/settings value into a CompletedGrouping.
func ParseCompletedGrouping(s string) (CompletedGrouping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return GroupNone, nil
	case "completed_first":
		return GroupCompletedFirst, nil
	case "completed_last":
		return GroupCompletedLast, nil
	}
	return GroupNone, fmt.Errorf("unknown completed grouping %q", s)
}

// TaskSort describes how a task list is ordered. The zero value is the
// default ordering: newest first, no grouping.
type TaskSort struct {
	Key       SortKey
	Direction SortDirection
	Grouping  CompletedGrouping
}

// DefaultSort returns the default ordering
func DefaultSort() TaskSort {
	return TaskSort{Key: SortByCreatedAt, Direction: Descending, Grouping: GroupNone}
}

func (s TaskSort) String() string {
	return s.Key.String() + " " + s.Direction.String() + " " + s.Grouping.String()
}

// StatusFilter narrows a task list by completion state
type StatusFilter int

const (
	FilterAll StatusFilter = iota
	FilterActive
	FilterCompleted
)

func (f StatusFilter) String() string {
	switch f {
	case FilterAll:
		return "all"
	case FilterActive:
		return "active"
	case FilterCompleted:
		return "completed"
	}
	return "unknown"
}

// Next cycles all -> active -> completed -> all
func (f StatusFilter) Next() StatusFilter {
	switch f {
	case FilterAll:
		return FilterActive
	case FilterActive:
		return FilterCompleted
	}
	return FilterAll
}

// ParseStatusFilter converts a config/settings value into a StatusFilter.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return FilterAll, nil
	case "active":
		return FilterActive, nil
	case "completed", "done":
		return FilterCompleted, nil
	}
	return FilterAll, fmt.Errorf("unknown status filter %q", s)
}

// IDs returns the ids of tasks in order
func IDs(tasks []Task) []int64 {
	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}
