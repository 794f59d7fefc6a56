// Package postgresengine persists a store's full item set in a PostgreSQL
// document table with a jsonb payload column and an auto-assigned numeric
// identifier.
//
// The strategy works with pgxpool.Pool, sql.DB, or sqlx.DB connections via
// the factory functions NewStrategyFromPGXPool, NewStrategyFromSQLDB, and
// NewStrategyFromSQLX.
//
// Every save is a full-state overwrite: all rows are deleted, then the new
// snapshot is inserted. The package makes no crash-consistency promise beyond
// "the last successful save is what loads back"; callers needing stricter
// durability should front the table with their own transaction management.
package postgresengine
