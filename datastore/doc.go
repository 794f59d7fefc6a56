// Package datastore provides a typed, observable, optionally persisted
// in-memory collection abstraction for applications that need shared mutable
// state with consistent change notification.
//
// The package is built around a small number of components:
//   - Store: a generic, concurrency-safe, ordered collection that emits a
//     ChangeEvent for every mutation
//   - Registry: a process-wide mapping from an entity type to exactly one
//     globally shared store
//   - DataStore: the facade consumers use to resolve global stores, create
//     local stores, or copy filtered snapshots of a global store
//   - PersistentStore: a decorator that layers asynchronous initial load and
//     fire-and-forget save-on-change around any Store
//   - Relationship: a derived parent/child view that keeps a filtered subset
//     of another store, refreshed on demand
//
// Persistence is pluggable through the Strategy interface; ready-made
// implementations live in the jsonfileengine, sqliteengine, and
// postgresengine subpackages.
//
// Common usage pattern:
//
//	registry := datastore.NewRegistry()
//	ds, _ := datastore.NewDataStore(registry)
//
//	orders, _ := datastore.NewStore[Order]()
//	_ = datastore.Register[Order](registry, orders)
//
//	rel, _ := datastore.NewRelationship(ds, customer,
//		func(c Customer, o Order) bool { return o.CustomerID == c.ID })
//	_ = rel.UseGlobalDataSource()
//	_ = rel.Refresh()
//	matching := rel.Childs().Items()
package datastore
