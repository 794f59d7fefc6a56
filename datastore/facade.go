package datastore

// DataStore is the single entry point consumers use to obtain global stores,
// create independent local stores, or copy a filtered snapshot of a global
// store. It is pure composition over the Registry and the store constructors
// and adds no invariants of its own.
type DataStore struct {
	registry *Registry
}

// NewDataStore creates a facade over the given Registry.
func NewDataStore(registry *Registry) (*DataStore, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}

	return &DataStore{registry: registry}, nil
}

// Registry returns the registry this facade composes, for use by the
// composition root (registrars, bootstrap).
func (ds *DataStore) Registry() *Registry {
	return ds.registry
}

// GetGlobal resolves the global store for the entity type T, failing with
// ErrStoreNotRegistered if none is bound.
func GetGlobal[T any](ds *DataStore) (TypedStore[T], error) {
	if ds == nil {
		return nil, ErrNilFacade
	}

	return Resolve[T](ds.registry)
}

// CreateLocal returns a brand-new, empty, unregistered store, fully
// independent from any global store of the same type and not subject to the
// registry's uniqueness rule.
func CreateLocal[T any](ds *DataStore, options ...StoreOption[T]) (*Store[T], error) {
	if ds == nil {
		return nil, ErrNilFacade
	}

	return NewStore[T](options...)
}

// CreateLocalSnapshotFromGlobal resolves the global store for T and copies
// the subset of its current items matching predicate (all items when the
// predicate is nil) into a new local store.
//
// The copy is a one-time snapshot: subsequent changes to the global store do
// not propagate to the snapshot, and vice versa.
func CreateLocalSnapshotFromGlobal[T any](ds *DataStore, predicate func(item T) bool, options ...StoreOption[T]) (*Store[T], error) {
	if ds == nil {
		return nil, ErrNilFacade
	}

	global, resolveErr := Resolve[T](ds.registry)
	if resolveErr != nil {
		return nil, resolveErr
	}

	local, newStoreErr := NewStore[T](options...)
	if newStoreErr != nil {
		return nil, newStoreErr
	}

	matching := make([]T, 0)
	for _, item := range global.Items() {
		if predicate == nil || predicate(item) {
			matching = append(matching, item)
		}
	}

	if addErr := local.AddRange(matching); addErr != nil {
		return nil, addErr
	}

	return local, nil
}
