package datastore

// ChangeKind identifies the kind of mutation a ChangeEvent describes.
type ChangeKind string

const (
	ChangeKindAdd         ChangeKind = "Add"
	ChangeKindBulkAdd     ChangeKind = "BulkAdd"
	ChangeKindRemove      ChangeKind = "Remove"
	ChangeKindClear       ChangeKind = "Clear"
	ChangeKindItemUpdated ChangeKind = "ItemUpdated"
)

// ChangeEvent is an immutable record of one mutation of a Store.
//
// It is emitted synchronously, once per mutating call, after the mutation is
// visible in the store's item view. Items holds exactly the items affected by
// that specific mutation: the single added or removed item, all items added
// by one bulk add, or the full set of items a clear removed.
type ChangeEvent[T any] struct {
	Kind  ChangeKind
	Items []T
}

// ChangeHandler is the subscriber callback invoked for every ChangeEvent.
type ChangeHandler[T any] func(event ChangeEvent[T])

// Dispatcher marshals change handler invocations onto a caller-supplied
// execution context, e.g. a UI-thread affine run loop. Dispatch must not
// block the caller; the mutating call returns without waiting for the
// handler to run.
type Dispatcher interface {
	Dispatch(fn func())
}

// ObservableItem is an optional capability an item type may declare to report
// in-place changes to its properties. A store attaches to an observable item
// when it is added and detaches when it is removed or cleared, so that
// subscriptions never outlive membership. While attached, an item change is
// surfaced as a ChangeKindItemUpdated event on the owning store.
//
// The store never calls SubscribeChanged or the returned unsubscribe function
// while holding its own mutation lock, so implementations are free to guard
// their subscriber list with an item-level lock and to invoke handlers
// synchronously while holding it.
type ObservableItem interface {
	SubscribeChanged(handler func()) (unsubscribe func())
}
