// Package selection tracks the set of task ids chosen for bulk operations.
package selection

import (
	"errors"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tgienger/stask/internal/result"
)

// DefaultMaxSize bounds how many ids can be selected at once
const DefaultMaxSize = 1000

var validate = validator.New()

// selectAllRequest carries the validation rules for SelectAll. The size
// bound is applied separately because it is configurable.
type selectAllRequest struct {
	IDs []int64 `validate:"min=1,unique,dive,gt=0"`
}

// Validation classifies the current selection. It is exactly one of
// Empty, SingleItem or MultipleItems.
type Validation interface {
	isValidation()
}

// Empty means nothing is selected
type Empty struct{}

// SingleItem means exactly one id is selected
type SingleItem struct {
	ID int64
}

// MultipleItems means two or more ids are selected
type MultipleItems struct {
	IDs []int64
}

func (Empty) isValidation()         {}
func (SingleItem) isValidation()    {}
func (MultipleItems) isValidation() {}

// Selection is the multi-select state machine. Selection mode is derived
// from the set being non-empty and is never stored.
type Selection struct {
	mu        sync.Mutex
	ids       map[int64]struct{}
	maxSize   int
	listeners []func([]int64)
}

// New creates an empty selection. maxSize <= 0 uses DefaultMaxSize.
func New(maxSize int) *Selection {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Selection{ids: make(map[int64]struct{}), maxSize: maxSize}
}

// Subscribe registers fn to receive the sorted ids after every change
func (s *Selection) Subscribe(fn func(ids []int64)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Enter replaces any prior selection with just id. This is how selection
// mode starts.
func (s *Selection) Enter(id int64) error {
	if id <= 0 {
		return invalidID(id)
	}
	return s.change(func(ids map[int64]struct{}) error {
		clear(ids)
		ids[id] = struct{}{}
		return nil
	})
}

// Toggle adds id if absent and removes it if present
func (s *Selection) Toggle(id int64) error {
	if id <= 0 {
		return invalidID(id)
	}
	return s.change(func(ids map[int64]struct{}) error {
		if _, ok := ids[id]; ok {
			delete(ids, id)
			return nil
		}
		if len(ids) >= s.maxSize {
			return result.Invalid("Cannot select more than %d tasks", s.maxSize)
		}
		ids[id] = struct{}{}
		return nil
	})
}

// SelectAll replaces the selection with ids. ids must be non-empty,
// positive, free of duplicates and within the size bound.
func (s *Selection) SelectAll(ids []int64) error {
	if err := s.validateAll(ids); err != nil {
		return err
	}
	return s.change(func(set map[int64]struct{}) error {
		clear(set)
		for _, id := range ids {
			set[id] = struct{}{}
		}
		return nil
	})
}

// Clear empties the selection. Clearing an empty selection does nothing.
func (s *Selection) Clear() {
	s.mu.Lock()
	if len(s.ids) == 0 {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.change(func(ids map[int64]struct{}) error {
		clear(ids)
		return nil
	})
}

// HasSelection reports whether selection mode is active
func (s *Selection) HasSelection() bool {
	return s.Count() > 0
}

// Count returns the number of selected ids
func (s *Selection) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IsSelected reports whether id is selected
func (s *Selection) IsSelected(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected ids in ascending order
func (s *Selection) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// MaxSize returns the selection size bound
func (s *Selection) MaxSize() int {
	return s.maxSize
}

// Validate classifies the current selection
func (s *Selection) Validate() Validation {
	ids := s.IDs()
	switch len(ids) {
	case 0:
		return Empty{}
	case 1:
		return SingleItem{ID: ids[0]}
	}
	return MultipleItems{IDs: ids}
}

func (s *Selection) validateAll(ids []int64) error {
	if len(ids) > s.maxSize {
		return result.Invalid("Cannot select more than %d tasks", s.maxSize)
	}
	err := validate.Struct(selectAllRequest{IDs: ids})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return result.Invalid("Invalid selection: %v", err)
	}
	switch verrs[0].Tag() {
	case "min":
		return result.Invalid("Selection cannot be empty")
	case "unique":
		return result.Invalid("Selection contains duplicate task ids")
	case "gt":
		return invalidID(verrs[0].Value())
	}
	return result.Invalid("Invalid selection: %s", verrs[0].Error())
}

// change applies mutate under the lock and notifies listeners if it
// succeeded.
func (s *Selection) change(mutate func(map[int64]struct{}) error) error {
	s.mu.Lock()
	if err := mutate(s.ids); err != nil {
		s.mu.Unlock()
		return err
	}
	ids := s.sortedLocked()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ids)
	}
	return nil
}

func (s *Selection) sortedLocked() []int64 {
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func invalidID(id any) error {
	return result.Invalid("Invalid task id %v", id)
}
