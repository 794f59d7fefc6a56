package datastore

import (
	"fmt"
	"reflect"
	"sync"
)

const (
	logMsgItemAdded        = "item added"
	logMsgItemsAdded       = "items added"
	logMsgItemRemoved      = "item removed"
	logMsgStoreCleared     = "store cleared"
	logMsgContentsReplaced = "store contents replaced"
	logAttrItemCount       = "item_count"
	logAttrStoreSize       = "store_size"
)

// EqualityComparer reports whether two items are considered equal.
type EqualityComparer[T any] func(a, b T) bool

// Store is a generic, concurrency-safe, ordered collection of items of one
// entity type. It owns the mutation lock and the change-event stream.
//
// All structural mutation goes through the store's internal lock; mutations
// are serialized and observers see a monotonically growing history of events
// consistent with that serialization. The item view returned by Items is a
// point-in-time snapshot that never changes after return.
type Store[T any] struct {
	mu          sync.Mutex
	entries     []*storeEntry[T]
	comparer    EqualityComparer[T]
	rejectDupes bool
	handlers    map[int]ChangeHandler[T]
	nextHandler int
	dispatcher  Dispatcher
	logger      Logger
}

// storeEntry tracks one contained item together with its observable-item
// subscription state. The removed flag closes the race between an item being
// removed and its subscription still being established outside the lock.
type storeEntry[T any] struct {
	item    T
	unsub   func()
	removed bool
}

// StoreOption defines a functional option for configuring a Store.
type StoreOption[T any] func(*Store[T]) error

// WithComparer sets the equality comparer for the Store and enables duplicate
// rejection: Add and AddRange fail with ErrDuplicateItem when the comparer
// considers the new item equal to one already present.
//
// Supplying a nil comparer is equivalent to "use default equality" and is not
// an error; without a configured comparer duplicates are allowed and
// Remove/Contains match via reflect.DeepEqual.
func WithComparer[T any](comparer EqualityComparer[T]) StoreOption[T] {
	return func(s *Store[T]) error {
		if comparer == nil {
			return nil
		}

		s.comparer = comparer
		s.rejectDupes = true

		return nil
	}
}

// WithDispatcher sets the execution context change handlers are marshalled
// onto. When configured, handler invocations are dispatched fire-and-forget
// instead of running on the mutating goroutine.
func WithDispatcher[T any](dispatcher Dispatcher) StoreOption[T] {
	return func(s *Store[T]) error {
		s.dispatcher = dispatcher
		return nil
	}
}

// WithLogger sets the logger for the Store.
// Mutations are logged at debug level; the store never logs at error level
// because all failures are returned to the caller.
func WithLogger[T any](logger Logger) StoreOption[T] {
	return func(s *Store[T]) error {
		s.logger = logger
		return nil
	}
}

// NewStore creates a new, empty Store with optional configuration.
func NewStore[T any](options ...StoreOption[T]) (*Store[T], error) {
	s := &Store[T]{
		handlers: make(map[int]ChangeHandler[T]),
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Add appends item to the store.
//
// When an equality comparer is configured and an equal item already exists,
// the call fails with ErrDuplicateItem and the store is unchanged. On success
// a single ChangeKindAdd event carrying the item is raised after the locked
// section, before Add returns.
func (s *Store[T]) Add(item T) error {
	entry := &storeEntry[T]{item: item}

	s.mu.Lock()

	if s.rejectDupes && s.indexOfLocked(item) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w (type %T)", ErrDuplicateItem, item)
	}

	s.entries = append(s.entries, entry)
	size := len(s.entries)
	handlers := s.handlersLocked()

	s.mu.Unlock()

	s.attach(entry)
	s.logMutation(logMsgItemAdded, logAttrStoreSize, size)
	s.publish(handlers, ChangeEvent[T]{Kind: ChangeKindAdd, Items: []T{item}})

	return nil
}

// AddRange appends all items, in input order, as one atomic mutation.
//
// Duplicate rejection applies against the items already present and against
// earlier items of the same batch; a rejection leaves the store unchanged
// (no partial insert). One ChangeKindBulkAdd event carrying all newly added
// items is raised, even for an empty batch.
func (s *Store[T]) AddRange(items []T) error {
	added := make([]T, len(items))
	copy(added, items)

	entries := make([]*storeEntry[T], 0, len(added))
	for _, item := range added {
		entries = append(entries, &storeEntry[T]{item: item})
	}

	s.mu.Lock()

	if s.rejectDupes {
		if err := s.checkBatchLocked(added); err != nil {
			s.mu.Unlock()
			return err
		}
	}

	s.entries = append(s.entries, entries...)
	size := len(s.entries)
	handlers := s.handlersLocked()

	s.mu.Unlock()

	s.attachAll(entries)
	s.logMutation(logMsgItemsAdded, logAttrItemCount, len(added), logAttrStoreSize, size)
	s.publish(handlers, ChangeEvent[T]{Kind: ChangeKindBulkAdd, Items: added})

	return nil
}

// Remove removes the first item the configured comparer considers equal to
// the given one and reports whether a removal occurred. A ChangeKindRemove
// event is raised only if something was removed.
func (s *Store[T]) Remove(item T) bool {
	s.mu.Lock()

	idx := s.indexOfLocked(item)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	entry := s.entries[idx]
	entry.removed = true
	unsub := entry.unsub
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	size := len(s.entries)
	handlers := s.handlersLocked()

	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}

	s.logMutation(logMsgItemRemoved, logAttrStoreSize, size)
	s.publish(handlers, ChangeEvent[T]{Kind: ChangeKindRemove, Items: []T{entry.item}})

	return true
}

// Clear removes all items and raises a ChangeKindClear event carrying the
// previously held items. The event is raised even when the store was already
// empty, so that observers see exactly one event per mutating call.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	previous, unsubs, handlers := s.clearLocked()
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}

	s.logMutation(logMsgStoreCleared, logAttrItemCount, len(previous))
	s.publish(handlers, ChangeEvent[T]{Kind: ChangeKindClear, Items: previous})
}

// ReplaceAll atomically replaces the entire contents of the store with the
// given items, equivalent to Clear followed by AddRange under one mutation
// lock. Observers receive a ChangeKindClear event with the previous items
// followed by a ChangeKindBulkAdd event with the new ones.
func (s *Store[T]) ReplaceAll(items []T) error {
	added := make([]T, len(items))
	copy(added, items)

	entries := make([]*storeEntry[T], 0, len(added))
	for _, item := range added {
		entries = append(entries, &storeEntry[T]{item: item})
	}

	s.mu.Lock()

	if s.rejectDupes {
		if err := s.checkNewBatchLocked(added); err != nil {
			s.mu.Unlock()
			return err
		}
	}

	previous, unsubs, handlers := s.clearLocked()
	s.entries = append(s.entries, entries...)

	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}

	s.attachAll(entries)
	s.logMutation(logMsgContentsReplaced, logAttrItemCount, len(added))
	s.publish(handlers, ChangeEvent[T]{Kind: ChangeKindClear, Items: previous})
	s.publish(handlers, ChangeEvent[T]{Kind: ChangeKindBulkAdd, Items: added})

	return nil
}

// Contains reports whether an item equal to the given one (per the configured
// comparer) exists in the store.
func (s *Store[T]) Contains(item T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.indexOfLocked(item) >= 0
}

// Items returns a consistent point-in-time read-only view of the store's
// contents. The returned slice is a copy and never reflects subsequent
// mutations.
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := make([]T, 0, len(s.entries))
	for _, entry := range s.entries {
		view = append(view, entry.item)
	}

	return view
}

// Len returns the current number of items in the store.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Subscribe registers a change handler and returns a function that cancels
// the subscription. A nil handler yields a no-op cancellation.
func (s *Store[T]) Subscribe(handler ChangeHandler[T]) func() {
	if handler == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextHandler
	s.nextHandler++
	s.handlers[id] = handler
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// clearLocked empties the store and hands back everything the caller needs
// to finish the mutation outside the lock.
func (s *Store[T]) clearLocked() (previous []T, unsubs []func(), handlers []ChangeHandler[T]) {
	previous = make([]T, 0, len(s.entries))

	for _, entry := range s.entries {
		previous = append(previous, entry.item)
		entry.removed = true

		if entry.unsub != nil {
			unsubs = append(unsubs, entry.unsub)
		}
	}

	s.entries = nil

	return previous, unsubs, s.handlersLocked()
}

// checkBatchLocked rejects a batch that collides with existing items or with
// earlier items of the same batch.
func (s *Store[T]) checkBatchLocked(batch []T) error {
	for i, item := range batch {
		if s.indexOfLocked(item) >= 0 {
			return fmt.Errorf("%w (type %T)", ErrDuplicateItem, item)
		}

		for j := 0; j < i; j++ {
			if s.comparer(batch[j], item) {
				return fmt.Errorf("%w (type %T)", ErrDuplicateItem, item)
			}
		}
	}

	return nil
}

// checkNewBatchLocked rejects duplicates within a replacement batch, ignoring
// the current contents since they are about to be discarded.
func (s *Store[T]) checkNewBatchLocked(batch []T) error {
	for i, item := range batch {
		for j := 0; j < i; j++ {
			if s.comparer(batch[j], item) {
				return fmt.Errorf("%w (type %T)", ErrDuplicateItem, item)
			}
		}
	}

	return nil
}

func (s *Store[T]) indexOfLocked(item T) int {
	equal := s.comparer
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}

	for i, entry := range s.entries {
		if equal(entry.item, item) {
			return i
		}
	}

	return -1
}

func (s *Store[T]) handlersLocked() []ChangeHandler[T] {
	if len(s.handlers) == 0 {
		return nil
	}

	snapshot := make([]ChangeHandler[T], 0, len(s.handlers))
	for _, handler := range s.handlers {
		snapshot = append(snapshot, handler)
	}

	return snapshot
}

// publish delivers one event to every handler, either inline on the mutating
// goroutine or marshalled onto the configured dispatcher.
func (s *Store[T]) publish(handlers []ChangeHandler[T], event ChangeEvent[T]) {
	for _, handler := range handlers {
		if s.dispatcher != nil {
			handler := handler
			s.dispatcher.Dispatch(func() { handler(event) })
			continue
		}

		handler(event)
	}
}

// attach subscribes to an entry's change notifications if the item type
// declares the ObservableItem capability.
//
// SubscribeChanged runs strictly outside the store's locked sections: the
// item may guard its subscriber list with its own lock and notify handlers
// while holding it, and calling into the item while holding s.mu would invert
// the lock order against the ItemUpdated closure below. If the entry was
// removed while the subscription was being established, the subscription is
// cancelled right away so it never outlives membership.
func (s *Store[T]) attach(entry *storeEntry[T]) {
	observable, ok := any(entry.item).(ObservableItem)
	if !ok {
		return
	}

	item := entry.item
	unsub := observable.SubscribeChanged(func() {
		s.mu.Lock()
		handlers := s.handlersLocked()
		s.mu.Unlock()

		s.publish(handlers, ChangeEvent[T]{Kind: ChangeKindItemUpdated, Items: []T{item}})
	})

	s.mu.Lock()
	if entry.removed {
		s.mu.Unlock()
		unsub()

		return
	}
	entry.unsub = unsub
	s.mu.Unlock()
}

func (s *Store[T]) attachAll(entries []*storeEntry[T]) {
	for _, entry := range entries {
		s.attach(entry)
	}
}

// logMutation logs mutation information at debug level if the logger is configured.
func (s *Store[T]) logMutation(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
