package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tgienger/stask/internal/models"
)

// Memory is a TaskStore kept entirely in process memory. Used for
// throwaway sessions and tests.
type Memory struct {
	mu     sync.Mutex
	tasks  map[int64]models.Task
	nextID int64
	feed   *Broadcaster

	settings map[string]string
}

var (
	_ TaskStore = (*Memory)(nil)
	_ Settings  = (*Memory)(nil)
)

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		tasks:    make(map[int64]models.Task),
		nextID:   1,
		feed:     NewBroadcaster(),
		settings: make(map[string]string),
	}
}

func (m *Memory) SubscribeAll(ctx context.Context) (<-chan []models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.feed.Subscribe(ctx, m.snapshotLocked()), nil
}

func (m *Memory) All(_ context.Context) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(), nil
}

func (m *Memory) GetByID(_ context.Context, id int64) (models.Task, error) {
	if id <= 0 {
		return models.Task{}, ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return models.Task{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) GetByIDs(_ context.Context, ids []int64) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, id := range ids {
		if t, ok := m.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) Insert(_ context.Context, t models.Task) (int64, error) {
	if t.ID != 0 {
		return 0, fmt.Errorf("insert task: id must be unset, got %d", t.ID)
	}
	m.mu.Lock()
	t.ID = m.nextID
	m.nextID++
	m.tasks[t.ID] = t
	m.mu.Unlock()

	m.publish()
	return t.ID, nil
}

func (m *Memory) Update(_ context.Context, t models.Task) error {
	if t.ID <= 0 {
		return ErrInvalidID
	}
	m.mu.Lock()
	if _, ok := m.tasks[t.ID]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.tasks[t.ID] = t
	m.mu.Unlock()

	m.publish()
	return nil
}

func (m *Memory) Delete(_ context.Context, t models.Task) error {
	if t.ID <= 0 {
		return ErrInvalidID
	}
	m.mu.Lock()
	if _, ok := m.tasks[t.ID]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.tasks, t.ID)
	m.mu.Unlock()

	m.publish()
	return nil
}

func (m *Memory) Upsert(_ context.Context, t models.Task) error {
	if t.ID <= 0 {
		return ErrInvalidID
	}
	m.mu.Lock()
	m.putLocked(t)
	m.mu.Unlock()

	m.publish()
	return nil
}

func (m *Memory) BulkSetCompleted(_ context.Context, ids []int64, completed bool) error {
	if err := checkIDs(ids); err != nil {
		return err
	}
	m.mu.Lock()
	for _, id := range ids {
		if t, ok := m.tasks[id]; ok {
			t.IsCompleted = completed
			m.tasks[id] = t
		}
	}
	m.mu.Unlock()

	m.publish()
	return nil
}

func (m *Memory) BulkDelete(_ context.Context, ids []int64) error {
	if err := checkIDs(ids); err != nil {
		return err
	}
	m.mu.Lock()
	for _, id := range ids {
		delete(m.tasks, id)
	}
	m.mu.Unlock()

	m.publish()
	return nil
}

func (m *Memory) BulkUpsert(_ context.Context, tasks []models.Task) error {
	for _, t := range tasks {
		if t.ID <= 0 {
			return ErrInvalidID
		}
	}
	m.mu.Lock()
	for _, t := range tasks {
		m.putLocked(t)
	}
	m.mu.Unlock()

	m.publish()
	return nil
}

func (m *Memory) GetSetting(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings[key], nil
}

func (m *Memory) SetSetting(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *Memory) putLocked(t models.Task) {
	m.tasks[t.ID] = t
	if t.ID >= m.nextID {
		m.nextID = t.ID + 1
	}
}

func (m *Memory) snapshotLocked() []models.Task {
	out := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// publish holds mu across the broadcast so snapshots reach subscribers in
// mutation order.
func (m *Memory) publish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feed.Publish(m.snapshotLocked())
}

func checkIDs(ids []int64) error {
	for _, id := range ids {
		if id <= 0 {
			return ErrInvalidID
		}
	}
	return nil
}
