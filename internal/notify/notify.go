// Package notify delivers one-shot, snackbar-style notifications to a single
// consumer.
package notify

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tgienger/stask/internal/result"
)

// Level tells the renderer how to style a notification
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// Notification is a user-facing message, optionally with an undo action
type Notification struct {
	ID    string
	Text  string
	Level Level
	Undo  *result.Undo
}

// HasUndo reports whether the notification offers an undo action
func (n Notification) HasUndo() bool {
	return n.Undo != nil && n.Undo.Run != nil
}

// FromResult converts an operation outcome into a notification
func FromResult(r result.Result) Notification {
	n := Notification{ID: uuid.NewString(), Text: r.Message()}
	switch r := r.(type) {
	case result.Success:
		n.Level = LevelInfo
		n.Undo = r.Undo
	case *result.ValidationError:
		n.Level = LevelWarning
	case *result.StoreError:
		n.Level = LevelError
	}
	return n
}

// DefaultCapacity is the number of undelivered notifications kept
const DefaultCapacity = 16

// Queue buffers notifications for one reader. When full, the oldest
// notification is discarded so publishers never block.
type Queue struct {
	mu     sync.Mutex
	ch     chan Notification
	closed bool
	logger *slog.Logger
}

// NewQueue creates a queue holding up to capacity notifications
func NewQueue(capacity int, logger *slog.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{ch: make(chan Notification, capacity), logger: logger}
}

// Publish converts r into a notification and enqueues it
func (q *Queue) Publish(r result.Result) Notification {
	n := FromResult(r)
	q.Send(n)
	return n
}

// Send enqueues n
func (q *Queue) Send(n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	for {
		select {
		case q.ch <- n:
			return
		default:
		}
		select {
		case dropped := <-q.ch:
			q.logger.Warn("notification dropped", slog.String("text", dropped.Text))
		default:
		}
	}
}

// Events returns the channel the single consumer reads from
func (q *Queue) Events() <-chan Notification {
	return q.ch
}

// Close stops delivery and closes the events channel
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
