// Package sqliteengine persists a store's full item set in an embedded
// SQLite document table, using the pure-Go modernc.org/sqlite driver.
//
// Items are serialized to JSON and stored one row per item in a table with an
// auto-assigned numeric identifier. Every save is a full-state overwrite
// executed in one transaction: delete all rows, then insert the new snapshot.
// Loading from a database that holds no rows returns an empty item set.
package sqliteengine
