package store

import (
	"context"
	"sync"

	"github.com/tgienger/stask/internal/models"
)

// Broadcaster fans task snapshots out to subscribers. Each subscriber has a
// one-slot buffer; publishing replaces an unread snapshot instead of blocking.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan []models.Task
	nextID int
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan []models.Task)}
}

// Subscribe registers a subscriber and queues initial as its first snapshot.
func (b *Broadcaster) Subscribe(ctx context.Context, initial []models.Task) <-chan []models.Task {
	ch := make(chan []models.Task, 1)
	ch <- clone(initial)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

// Publish delivers tasks to every subscriber, dropping any snapshot a
// subscriber has not read yet.
func (b *Broadcaster) Publish(tasks []models.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		ch <- clone(tasks)
	}
}

// Len returns the number of active subscribers
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func clone(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	return out
}
