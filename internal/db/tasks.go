package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/stask/internal/models"
	"github.com/tgienger/stask/internal/store"
)

const taskColumns = "id, title, description, is_completed, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (models.Task, error) {
	var t models.Task
	var completed int
	var createdAt int64
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &completed, &createdAt); err != nil {
		return models.Task{}, err
	}
	t.IsCompleted = completed == 1
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SubscribeAll streams task snapshots, starting with the current one
func (db *DB) SubscribeAll(ctx context.Context) (<-chan []models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tasks, err := db.All(ctx)
	if err != nil {
		return nil, err
	}
	return db.feed.Subscribe(ctx, tasks), nil
}

// All returns every task ordered by id
func (db *DB) All(ctx context.Context) ([]models.Task, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetByID retrieves a task by ID
func (db *DB) GetByID(ctx context.Context, id int64) (models.Task, error) {
	if id <= 0 {
		return models.Task{}, store.ErrInvalidID
	}
	t, err := scanTask(db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, store.ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// GetByIDs retrieves the tasks that exist for ids, ordered by id
func (db *DB) GetByIDs(ctx context.Context, ids []int64) ([]models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	rows, err := db.QueryContext(ctx, query, idArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Insert creates a new task and returns its id
func (db *DB) Insert(ctx context.Context, t models.Task) (int64, error) {
	if t.ID != 0 {
		return 0, fmt.Errorf("insert task: id must be unset, got %d", t.ID)
	}
	var id int64
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (title, description, is_completed, created_at) VALUES (?, ?, ?, ?)
		`, t.Title, t.Description, boolToInt(t.IsCompleted), t.CreatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("task id: %w", err)
		}
		return nil
	})
	return id, err
}

// Update replaces title, description and completion of an existing task.
// created_at is never rewritten.
func (db *DB) Update(ctx context.Context, t models.Task) error {
	if t.ID <= 0 {
		return store.ErrInvalidID
	}
	return db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE tasks SET title = ?, description = ?, is_completed = ?
			WHERE id = ?
		`, t.Title, t.Description, boolToInt(t.IsCompleted), t.ID)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		return requireAffected(res)
	})
}

// Delete deletes a task
func (db *DB) Delete(ctx context.Context, t models.Task) error {
	if t.ID <= 0 {
		return store.ErrInvalidID
	}
	return db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", t.ID)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return requireAffected(res)
	})
}

// Upsert inserts a task with its own id, replacing any row with that id
func (db *DB) Upsert(ctx context.Context, t models.Task) error {
	if t.ID <= 0 {
		return store.ErrInvalidID
	}
	return db.inTx(ctx, func(tx *sql.Tx) error {
		return upsertTask(ctx, tx, t)
	})
}

// BulkUpsert upserts every task in one transaction
func (db *DB) BulkUpsert(ctx context.Context, tasks []models.Task) error {
	for _, t := range tasks {
		if t.ID <= 0 {
			return store.ErrInvalidID
		}
	}
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tasks {
			if err := upsertTask(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

// BulkSetCompleted sets the completion flag on every listed task
func (db *DB) BulkSetCompleted(ctx context.Context, ids []int64, completed bool) error {
	if err := checkIDs(ids); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return db.inTx(ctx, func(tx *sql.Tx) error {
		args := append([]any{boolToInt(completed)}, idArgs(ids)...)
		_, err := tx.ExecContext(ctx,
			`UPDATE tasks SET is_completed = ? WHERE id IN (`+placeholders(len(ids))+`)`, args...)
		if err != nil {
			return fmt.Errorf("bulk update tasks: %w", err)
		}
		return nil
	})
}

// BulkDelete deletes every listed task
func (db *DB) BulkDelete(ctx context.Context, ids []int64) error {
	if err := checkIDs(ids); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM tasks WHERE id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
		if err != nil {
			return fmt.Errorf("bulk delete tasks: %w", err)
		}
		return nil
	})
}

func upsertTask(ctx context.Context, tx *sql.Tx, t models.Task) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, is_completed, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			is_completed = excluded.is_completed,
			created_at = excluded.created_at
	`, t.ID, t.Title, t.Description, boolToInt(t.IsCompleted), t.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert task %d: %w", t.ID, err)
	}
	return nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func checkIDs(ids []int64) error {
	for _, id := range ids {
		if id <= 0 {
			return store.ErrInvalidID
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
