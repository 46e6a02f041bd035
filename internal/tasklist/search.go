package tasklist

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a typed query is applied
const DefaultDebounce = 350 * time.Millisecond

// AfterFunc schedules f after d and returns a function that cancels it.
// Search uses time.AfterFunc unless a test replaces it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Search holds the raw query as typed and the debounced query consumers
// filter with. Every Update restarts the timer so only the latest query fires.
type Search struct {
	mu        sync.Mutex
	query     string
	debounced string
	quiet     time.Duration
	after     AfterFunc
	stop      func() bool
	gen       uint64
	onChange  func(string)
}

// SearchOption configures a Search
type SearchOption func(*Search)

// WithAfterFunc replaces the timer implementation
func WithAfterFunc(fn AfterFunc) SearchOption {
	return func(s *Search) { s.after = fn }
}

// NewSearch creates a Search with the given quiet period. A quiet period
// <= 0 applies every update immediately.
func NewSearch(quiet time.Duration, opts ...SearchOption) *Search {
	s := &Search{quiet: quiet, after: realAfterFunc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers the callback invoked with each new debounced query.
func (s *Search) OnChange(fn func(string)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Update replaces the raw query and restarts the quiet period
func (s *Search) Update(q string) {
	s.mu.Lock()
	s.query = q
	s.gen++
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	if s.quiet <= 0 {
		notify := s.applyLocked(q)
		s.mu.Unlock()
		notify()
		return
	}
	gen := s.gen
	s.stop = s.after(s.quiet, func() { s.fire(gen) })
	s.mu.Unlock()
}

// Clear resets both queries to empty right away, cancelling any pending fire.
func (s *Search) Clear() {
	s.mu.Lock()
	s.query = ""
	s.gen++
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	notify := s.applyLocked("")
	s.mu.Unlock()
	notify()
}

// Query returns the raw query as typed
func (s *Search) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Debounced returns the query currently applied to the list
func (s *Search) Debounced() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debounced
}

// Pending reports whether a typed query has not been applied yet
func (s *Search) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Stop cancels any pending fire
func (s *Search) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

func (s *Search) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		// superseded by a later Update or Clear
		s.mu.Unlock()
		return
	}
	s.stop = nil
	notify := s.applyLocked(s.query)
	s.mu.Unlock()
	notify()
}

// applyLocked sets the debounced query and returns the callback invocation
// to run after mu is released.
func (s *Search) applyLocked(q string) func() {
	if s.debounced == q || s.onChange == nil {
		s.debounced = q
		return func() {}
	}
	s.debounced = q
	fn := s.onChange
	return func() { fn(q) }
}
