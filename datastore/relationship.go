package datastore

import (
	"sync"
)

// FilterPredicate decides whether a candidate child belongs to a parent.
type FilterPredicate[TParent any, TChild any] func(parent TParent, candidate TChild) bool

// Relationship maintains a derived, read-on-demand child collection for one
// parent entity: given a filter predicate and a chosen child data source, it
// keeps an owned local store (Childs) holding the currently matching subset.
//
// A relationship starts unbound. Binding a data source - the live global
// child store via UseGlobalDataSource, or a one-time local snapshot of it via
// UseSnapshotFromGlobal - happens once per relationship. Refresh is only
// valid once bound.
//
// Childs is not kept in sync automatically: it only ever contains items that
// satisfied the filter at the time of the last Refresh. Staleness between
// refreshes is accepted; callers decide when to re-evaluate.
type Relationship[TParent any, TChild any] struct {
	facade *DataStore
	parent TParent
	filter FilterPredicate[TParent, TChild]

	mu     sync.Mutex
	source TypedStore[TChild]
	childs *Store[TChild]
}

// NewRelationship creates an unbound relationship for the given parent and
// filter predicate. The facade, parent, and predicate are stored immutably
// for the relationship's lifetime; a nil facade or predicate is a synchronous
// argument error.
func NewRelationship[TParent any, TChild any](
	ds *DataStore,
	parent TParent,
	filter FilterPredicate[TParent, TChild],
) (*Relationship[TParent, TChild], error) {

	if ds == nil {
		return nil, ErrNilFacade
	}

	if filter == nil {
		return nil, ErrNilFilter
	}

	childs, err := NewStore[TChild]()
	if err != nil {
		return nil, err
	}

	return &Relationship[TParent, TChild]{
		facade: ds,
		parent: parent,
		filter: filter,
		childs: childs,
	}, nil
}

// UseGlobalDataSource binds the live global child store as the data source.
// Refreshes read it live, not copied, so items added to the global store
// between refreshes are visible to the next Refresh.
func (r *Relationship[TParent, TChild]) UseGlobalDataSource() error {
	source, err := GetGlobal[TChild](r.facade)
	if err != nil {
		return err
	}

	return r.bind(source)
}

// UseSnapshotFromGlobal binds a newly created local snapshot of the global
// child store, optionally pre-filtered by predicate, as the data source. This
// decouples later Refresh calls from concurrent mutation of the global store.
func (r *Relationship[TParent, TChild]) UseSnapshotFromGlobal(predicate func(item TChild) bool) error {
	source, err := CreateLocalSnapshotFromGlobal[TChild](r.facade, predicate)
	if err != nil {
		return err
	}

	return r.bind(source)
}

// Refresh evaluates the filter predicate against every item currently in the
// data source and atomically replaces the entire contents of Childs with
// exactly the matching items. It fails with ErrRelationshipUnbound while no
// data source is bound.
func (r *Relationship[TParent, TChild]) Refresh() error {
	r.mu.Lock()
	source := r.source
	r.mu.Unlock()

	if source == nil {
		return ErrRelationshipUnbound
	}

	matching := make([]TChild, 0)
	for _, candidate := range source.Items() {
		if r.filter(r.parent, candidate) {
			matching = append(matching, candidate)
		}
	}

	return r.childs.ReplaceAll(matching)
}

// DataSource returns the currently bound data source, failing with
// ErrRelationshipUnbound while unbound.
func (r *Relationship[TParent, TChild]) DataSource() (TypedStore[TChild], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.source == nil {
		return nil, ErrRelationshipUnbound
	}

	return r.source, nil
}

// Parent returns the parent entity this relationship was created for.
func (r *Relationship[TParent, TChild]) Parent() TParent {
	return r.parent
}

// Childs returns the owned local store holding the matching subset as of the
// last Refresh. It is never the same instance as the data source: mutating it
// directly does not affect the data source, and the next Refresh discards any
// such direct mutation.
func (r *Relationship[TParent, TChild]) Childs() *Store[TChild] {
	return r.childs
}

func (r *Relationship[TParent, TChild]) bind(source TypedStore[TChild]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.source != nil {
		return ErrDataSourceAlreadyBound
	}

	r.source = source

	return nil
}
