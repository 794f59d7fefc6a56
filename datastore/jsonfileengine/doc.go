// Package jsonfileengine persists a store's full item set as one JSON array
// in a single file.
//
// Saves are atomic at the file level: the snapshot is written to a uniquely
// named temporary file next to the target and renamed over it, so a reader
// never observes a partially written file and the last successful save wins.
// Loading a file that does not exist yet returns an empty item set, not an
// error.
package jsonfileengine
