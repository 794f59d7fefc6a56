// Package doubles provides test doubles for the datastore interfaces:
// a persistence strategy spy, a logger spy, and a queueing dispatcher.
package doubles

import (
	"context"
	"sync"
)

// StrategySpy is a datastore.Strategy implementation that records every load
// and save call and can be primed with items to return or errors to inject.
type StrategySpy[T any] struct {
	mu sync.Mutex

	loadItems []T
	loadErr   error
	saveErr   error

	loadCalls int
	saveCalls int
	saved     [][]T
}

// NewStrategySpy creates a spy that loads the given items.
func NewStrategySpy[T any](loadItems ...T) *StrategySpy[T] {
	return &StrategySpy[T]{loadItems: loadItems}
}

// FailLoadsWith makes every subsequent LoadAll return err.
func (s *StrategySpy[T]) FailLoadsWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// FailSavesWith makes every subsequent SaveAll return err.
func (s *StrategySpy[T]) FailSavesWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// LoadAll implements datastore.Strategy.
func (s *StrategySpy[T]) LoadAll(_ context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadCalls++

	if s.loadErr != nil {
		return nil, s.loadErr
	}

	items := make([]T, len(s.loadItems))
	copy(items, s.loadItems)

	return items, nil
}

// SaveAll implements datastore.Strategy.
func (s *StrategySpy[T]) SaveAll(_ context.Context, items []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveCalls++

	if s.saveErr != nil {
		return s.saveErr
	}

	snapshot := make([]T, len(items))
	copy(snapshot, items)
	s.saved = append(s.saved, snapshot)

	return nil
}

// LoadCalls returns how often LoadAll was called.
func (s *StrategySpy[T]) LoadCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadCalls
}

// SaveCalls returns how often SaveAll was called, including failed saves.
func (s *StrategySpy[T]) SaveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveCalls
}

// LastSaved returns the items of the most recent successful save, or nil when
// nothing was saved yet.
func (s *StrategySpy[T]) LastSaved() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.saved) == 0 {
		return nil
	}

	last := s.saved[len(s.saved)-1]
	snapshot := make([]T, len(last))
	copy(snapshot, last)

	return snapshot
}
