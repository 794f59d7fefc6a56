package datastore

import (
	"context"
)

// Strategy is the persistence collaborator consumed by PersistentStore.
//
// Implementations persist a full snapshot of a store's items to some backing
// medium; there is no partial or incremental save contract. Each SaveAll is a
// full-state overwrite of whatever was persisted before, and must be safe to
// call with an empty snapshot, producing an empty persisted result.
type Strategy[T any] interface {
	// LoadAll returns the full persisted item set. Absence of prior data is
	// not an error: implementations return an empty slice and a nil error.
	LoadAll(ctx context.Context) ([]T, error)

	// SaveAll overwrites any prior persisted snapshot with exactly the given
	// items.
	SaveAll(ctx context.Context, items []T) error
}
