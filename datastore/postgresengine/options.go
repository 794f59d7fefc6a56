package postgresengine

import (
	"github.com/sharedstate/datastore-go/datastore"
)

// Option defines a functional option for configuring a Strategy.
type Option[T any] func(*Strategy[T]) error

// WithTableName sets the document table name for the Strategy.
func WithTableName[T any](tableName string) Option[T] {
	return func(s *Strategy[T]) error {
		if tableName == "" {
			return datastore.ErrEmptyTableName
		}

		s.tableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Strategy.
// The logger receives SQL failures at error level and load/save completions
// with timing at debug level.
func WithLogger[T any](logger datastore.Logger) Option[T] {
	return func(s *Strategy[T]) error {
		s.logger = logger
		return nil
	}
}
