// Package app wires the task services into a single session that the UI
// drives.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tgienger/stask/internal/bulk"
	"github.com/tgienger/stask/internal/crud"
	"github.com/tgienger/stask/internal/form"
	"github.com/tgienger/stask/internal/models"
	"github.com/tgienger/stask/internal/notify"
	"github.com/tgienger/stask/internal/result"
	"github.com/tgienger/stask/internal/selection"
	"github.com/tgienger/stask/internal/store"
	"github.com/tgienger/stask/internal/tasklist"
)

// Options configures a Session. The zero value is usable.
type Options struct {
	Filter         models.StatusFilter
	Sort           models.TaskSort
	SearchDebounce time.Duration
	MaxSelection   int
	MaxBulk        int

	// Settings persists the filter and sort. Stored values override
	// Filter and Sort at construction.
	Settings store.Settings
	Logger   *slog.Logger

	SearchOptions []tasklist.SearchOption
	CRUDOptions   []crud.Option
}

// State is everything the renderer needs after any change
type State struct {
	View              tasklist.View
	Query             string
	PendingDelete     *models.Task
	PendingBulkDelete []models.Task
}

// Session owns every service for one run of the application
type Session struct {
	store    store.TaskStore
	settings store.Settings
	logger   *slog.Logger

	Selection     *selection.Selection
	Search        *tasklist.Search
	Composer      *tasklist.Composer
	Form          *form.Form
	CRUD          *crud.Coordinator
	Bulk          *bulk.Coordinator
	Notifications *notify.Queue

	emitMu  sync.Mutex
	changes chan State
	closed  bool

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New builds a session over st. Call Start to begin receiving snapshots.
func New(st store.TaskStore, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	filter, sort := loadPrefs(opts.Settings, opts.Filter, opts.Sort, logger)

	s := &Session{
		store:         st,
		settings:      opts.Settings,
		logger:        logger,
		Selection:     selection.New(opts.MaxSelection),
		Search:        tasklist.NewSearch(opts.SearchDebounce, opts.SearchOptions...),
		Composer:      tasklist.NewComposer(filter, sort),
		Form:          form.New(),
		Notifications: notify.NewQueue(notify.DefaultCapacity, logger),
		changes:       make(chan State, 1),
	}
	s.CRUD = crud.New(st, s.Form, s.Notifications, logger.With(slog.String("component", "crud")), opts.CRUDOptions...)
	s.Bulk = bulk.New(st, s.Selection, s.Notifications, logger.With(slog.String("component", "bulk")), opts.MaxBulk)

	s.Selection.Subscribe(s.Composer.SetSelection)
	s.Search.OnChange(s.Composer.SetQuery)
	s.Composer.Subscribe(func(tasklist.View) { s.emit() })
	return s
}

// Start subscribes to the store and feeds every snapshot into the list
// composer until ctx is done or Close is called.
func (s *Session) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	feed, err := s.store.SubscribeAll(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to tasks: %w", err)
	}
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for tasks := range feed {
			s.Composer.SetTasks(tasks)
		}
	}()
	s.logger.Debug("session started")
	return nil
}

// Close stops the snapshot feed, the search timer and both output streams
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
		s.Search.Stop()
		s.Notifications.Close()

		s.emitMu.Lock()
		s.closed = true
		close(s.changes)
		s.emitMu.Unlock()
	})
}

// Changes streams the combined state. Only the latest unread state is kept.
func (s *Session) Changes() <-chan State {
	return s.changes
}

// State returns the current combined state
func (s *Session) State() State {
	st := State{
		View:              s.Composer.View(),
		Query:             s.Search.Query(),
		PendingBulkDelete: s.Bulk.Pending(),
	}
	if t, ok := s.CRUD.PendingDelete(); ok {
		st.PendingDelete = &t
	}
	return st
}

// Visible returns the currently displayed tasks
func (s *Session) Visible() []models.Task {
	return s.Composer.View().Visible
}

func (s *Session) emit() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.closed {
		return
	}
	st := s.State()
	select {
	case <-s.changes:
	default:
	}
	s.changes <- st
}

// Search

// UpdateQuery records a keystroke. The list follows after the quiet period.
func (s *Session) UpdateQuery(q string) {
	s.Search.Update(q)
	s.emit()
}

// ClearSearch empties the query and updates the list immediately
func (s *Session) ClearSearch() {
	s.Search.Clear()
	s.emit()
}

// Filter and sort

func (s *Session) SetFilter(f models.StatusFilter) {
	s.Composer.SetFilter(f)
	saveFilter(s.settings, f, s.logger)
}

// CycleFilter advances all -> active -> completed -> all
func (s *Session) CycleFilter() {
	s.SetFilter(s.Composer.Filter().Next())
}

func (s *Session) SetSort(sort models.TaskSort) {
	s.Composer.SetSort(sort)
	saveSort(s.settings, sort, s.logger)
}

// Selection

func (s *Session) EnterSelection(id int64) error {
	return s.selectionResult(s.Selection.Enter(id))
}

func (s *Session) ToggleSelection(id int64) error {
	return s.selectionResult(s.Selection.Toggle(id))
}

// SelectAllVisible selects every task in the current visible list
func (s *Session) SelectAllVisible() error {
	return s.selectionResult(s.Selection.SelectAll(models.IDs(s.Visible())))
}

func (s *Session) ClearSelection() {
	s.Selection.Clear()
}

func (s *Session) selectionResult(err error) error {
	var verr *result.ValidationError
	if errors.As(err, &verr) {
		s.Notifications.Publish(verr)
	}
	return err
}

// Single task operations

func (s *Session) StartCreate() {
	s.Form.StartCreate()
}

func (s *Session) StartEdit(task models.Task) {
	s.Form.StartEdit(task)
}

func (s *Session) SaveTask(ctx context.Context) result.Result {
	return s.CRUD.SaveTask(ctx)
}

func (s *Session) ToggleCompletion(ctx context.Context, task models.Task) result.Result {
	return s.CRUD.ToggleCompletion(ctx, task)
}

// RequestDelete stages task and cancels any staged bulk delete
func (s *Session) RequestDelete(task models.Task) {
	s.Bulk.CancelDelete()
	s.CRUD.RequestDelete(task)
	s.emit()
}

func (s *Session) ConfirmDelete(ctx context.Context) result.Result {
	r := s.CRUD.ConfirmDelete(ctx)
	s.emit()
	return r
}

func (s *Session) CancelDelete() {
	s.CRUD.CancelDelete()
	s.emit()
}

// Bulk operations

func (s *Session) MarkSelectedCompleted(ctx context.Context) result.Result {
	return s.Bulk.MarkCompleted(ctx)
}

func (s *Session) MarkSelectedActive(ctx context.Context) result.Result {
	return s.Bulk.MarkActive(ctx)
}

// RequestBulkDelete stages the selection against the latest full snapshot
// and cancels any staged single delete.
func (s *Session) RequestBulkDelete() result.Result {
	s.CRUD.CancelDelete()
	r := s.Bulk.RequestDelete(slices.Clone(s.Composer.Tasks()))
	s.emit()
	return r
}

func (s *Session) ConfirmBulkDelete(ctx context.Context) result.Result {
	r := s.Bulk.ConfirmDelete(ctx)
	s.emit()
	return r
}

func (s *Session) CancelBulkDelete() {
	s.Bulk.CancelDelete()
	s.emit()
}

// Undo runs the undo action carried by n, if any
func (s *Session) Undo(ctx context.Context, n notify.Notification) result.Result {
	if !n.HasUndo() {
		return nil
	}
	return n.Undo.Run(ctx)
}
