package datastore

import (
	"fmt"
	"reflect"
	"sync"
)

// TypedStore is the mutation and read surface shared by *Store and
// *PersistentStore, so that globally registered stores may be plain or
// decorated with persistence without consumers noticing.
type TypedStore[T any] interface {
	Add(item T) error
	AddRange(items []T) error
	Remove(item T) bool
	Clear()
	ReplaceAll(items []T) error
	Contains(item T) bool
	Items() []T
	Len() int
	Subscribe(handler ChangeHandler[T]) func()
}

// Registry is a process-wide mapping from an entity type to exactly one
// global store instance. A type may be registered at most once for the
// lifetime of the registry; a second registration is a programming error.
//
// The registry is an explicit object with an injectable lifetime rather than
// package-level state, constructed once at startup and passed through the
// composition root.
type Registry struct {
	mu     sync.RWMutex
	stores map[reflect.Type]any
}

// NewRegistry creates a new, empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[reflect.Type]any),
	}
}

// Register binds the given store to the entity type T.
//
// It fails with ErrDuplicateRegistration, carrying the offending type, if a
// store is already bound for T. Registration is safe under concurrent
// callers: of N concurrent registrations for one type exactly one succeeds.
func Register[T any](r *Registry, store TypedStore[T]) error {
	if r == nil {
		return ErrNilRegistry
	}

	if store == nil {
		return ErrNilStore
	}

	key := typeKey[T]()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, bound := r.stores[key]; bound {
		return fmt.Errorf("%w: %s", ErrDuplicateRegistration, key)
	}

	r.stores[key] = store

	return nil
}

// Resolve returns the global store bound for the entity type T.
// It fails with ErrStoreNotRegistered, carrying the requested type, if none
// is bound.
func Resolve[T any](r *Registry) (TypedStore[T], error) {
	if r == nil {
		return nil, ErrNilRegistry
	}

	key := typeKey[T]()

	r.mu.RLock()
	entry, bound := r.stores[key]
	r.mu.RUnlock()

	if !bound {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotRegistered, key)
	}

	return entry.(TypedStore[T]), nil
}

// TryResolve is the non-failing variant of Resolve; the boolean reports
// whether a store is bound for T.
func TryResolve[T any](r *Registry) (TypedStore[T], bool) {
	store, err := Resolve[T](r)
	if err != nil {
		return nil, false
	}

	return store, true
}

// each invokes fn for every registered store, in no particular order, against
// a snapshot taken under the read lock.
func (r *Registry) each(fn func(entry any)) {
	r.mu.RLock()
	entries := make([]any, 0, len(r.stores))
	for _, entry := range r.stores {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	for _, entry := range entries {
		fn(entry)
	}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
