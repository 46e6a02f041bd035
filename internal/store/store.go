// Package store defines the persistence boundary for tasks.
package store

import (
	"context"
	"errors"

	"github.com/tgienger/stask/internal/models"
)

var (
	// ErrNotFound is returned when no task exists for an id.
	ErrNotFound = errors.New("task not found")

	// ErrInvalidID is returned when an operation needs an existing task but got id <= 0.
	ErrInvalidID = errors.New("invalid task id")
)

// TaskStore is durable storage of tasks. Every mutation causes subscribers
// of SubscribeAll to receive a fresh snapshot.
type TaskStore interface {
	// SubscribeAll returns a stream of full task snapshots. The current
	// snapshot is delivered first. A slow reader only ever sees the latest
	// snapshot. The channel is closed when ctx is done.
	SubscribeAll(ctx context.Context) (<-chan []models.Task, error)

	All(ctx context.Context) ([]models.Task, error)
	GetByID(ctx context.Context, id int64) (models.Task, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.Task, error)

	// Insert stores a task without an id and returns the assigned id.
	Insert(ctx context.Context, t models.Task) (int64, error)
	// Update replaces an existing task. Returns ErrNotFound if id is absent.
	Update(ctx context.Context, t models.Task) error
	Delete(ctx context.Context, t models.Task) error
	// Upsert inserts or replaces a task keeping its id.
	Upsert(ctx context.Context, t models.Task) error

	BulkSetCompleted(ctx context.Context, ids []int64, completed bool) error
	BulkDelete(ctx context.Context, ids []int64) error
	BulkUpsert(ctx context.Context, tasks []models.Task) error
}

// Settings is a small key/value store for view preferences.
type Settings interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}
