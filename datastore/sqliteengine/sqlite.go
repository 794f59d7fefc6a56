package sqliteengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect import
	jsoniter "github.com/json-iterator/go"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/sharedstate/datastore-go/datastore"
)

const (
	driverName       = "sqlite"
	dialectSQLite    = "sqlite3"
	defaultTableName = "documents"
	colID            = "id"
	colPayload       = "payload"

	logMsgItemsLoaded     = "items loaded from sqlite"
	logMsgItemsSaved      = "items saved to sqlite"
	logMsgBuildSQLFailed  = "failed to build sql statement"
	logMsgQueryFailed     = "database query execution failed"
	logMsgScanRowFailed   = "failed to scan database row"
	logMsgMarshalFailed   = "failed to marshal item to json"
	logMsgUnmarshalFailed = "failed to unmarshal item from json"
	logAttrError          = "error"
	logAttrTable          = "table"
	logAttrItemCount      = "item_count"
	logAttrDurationMS     = "duration_ms"
)

// Strategy implements datastore.Strategy over an embedded SQLite document table.
type Strategy[T any] struct {
	db        *sql.DB
	tableName string
	logger    datastore.Logger
	ownsDB    bool
}

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
func WithLogger[T any](logger datastore.Logger) Option[T] {
	return func(s *Strategy[T]) error {
		s.logger = logger
		return nil
	}
}

// NewStrategy opens (or creates) the SQLite database file at path and returns
// a strategy persisting to it. The document table is created when absent.
// Close releases the underlying connection.
func NewStrategy[T any](path string, options ...Option[T]) (*Strategy[T], error) {
	if path == "" {
		return nil, datastore.ErrEmptyFilePath
	}

	db, openErr := sql.Open(driverName, path)
	if openErr != nil {
		return nil, fmt.Errorf("open sqlite: %w", openErr)
	}

	s, newErr := newStrategy[T](db, true, options...)
	if newErr != nil {
		_ = db.Close()
		return nil, newErr
	}

	return s, nil
}

// NewStrategyFromSQLDB returns a strategy persisting to an existing sql.DB
// opened with a SQLite driver. The caller keeps ownership of the connection.
func NewStrategyFromSQLDB[T any](db *sql.DB, options ...Option[T]) (*Strategy[T], error) {
	if db == nil {
		return nil, datastore.ErrNilDatabaseConnection
	}

	return newStrategy[T](db, false, options...)
}

func newStrategy[T any](db *sql.DB, ownsDB bool, options ...Option[T]) (*Strategy[T], error) {
	s := &Strategy[T]{
		db:        db,
		tableName: defaultTableName,
		ownsDB:    ownsDB,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	if err := s.ensureSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database connection if this strategy opened it.
func (s *Strategy[T]) Close() error {
	if !s.ownsDB {
		return nil
	}

	return s.db.Close()
}

// LoadAll reads the full persisted item set, in insertion order.
func (s *Strategy[T]) LoadAll(ctx context.Context) ([]T, error) {
	start := time.Now()

	selectSQL, _, buildErr := goqu.Dialect(dialectSQLite).
		From(s.tableName).
		Select(colPayload).
		Order(goqu.I(colID).Asc()).
		ToSQL()
	if buildErr != nil {
		s.logError(logMsgBuildSQLFailed, buildErr)
		return nil, errors.Join(datastore.ErrLoadingItemsFailed, buildErr)
	}

	rows, queryErr := s.db.QueryContext(ctx, selectSQL)
	if queryErr != nil {
		s.logError(logMsgQueryFailed, queryErr)
		return nil, errors.Join(datastore.ErrLoadingItemsFailed, queryErr)
	}
	defer func() { _ = rows.Close() }()

	items := make([]T, 0)

	for rows.Next() {
		var payload []byte
		if scanErr := rows.Scan(&payload); scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr)
			return nil, errors.Join(datastore.ErrLoadingItemsFailed, scanErr)
		}

		var item T
		if unmarshalErr := jsoniter.ConfigFastest.Unmarshal(payload, &item); unmarshalErr != nil {
			s.logError(logMsgUnmarshalFailed, unmarshalErr)
			return nil, errors.Join(datastore.ErrLoadingItemsFailed, unmarshalErr)
		}

		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, errors.Join(datastore.ErrLoadingItemsFailed, rowsErr)
	}

	s.logDebug(logMsgItemsLoaded,
		logAttrTable, s.tableName,
		logAttrItemCount, len(items),
		logAttrDurationMS, time.Since(start).Milliseconds())

	return items, nil
}

// SaveAll overwrites the document table with exactly the given items, in one
// transaction. An empty snapshot leaves an empty table.
func (s *Strategy[T]) SaveAll(ctx context.Context, items []T) (retErr error) {
	start := time.Now()

	deleteSQL, _, buildErr := goqu.Dialect(dialectSQLite).
		Delete(s.tableName).
		ToSQL()
	if buildErr != nil {
		s.logError(logMsgBuildSQLFailed, buildErr)
		return errors.Join(datastore.ErrSavingItemsFailed, buildErr)
	}

	tx, beginErr := s.db.BeginTx(ctx, nil)
	if beginErr != nil {
		return errors.Join(datastore.ErrSavingItemsFailed, beginErr)
	}

	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, execErr := tx.ExecContext(ctx, deleteSQL); execErr != nil {
		retErr = errors.Join(datastore.ErrSavingItemsFailed, execErr)
		return retErr
	}

	if len(items) > 0 {
		insertSQL, args, insertErr := s.buildInsert(items)
		if insertErr != nil {
			retErr = insertErr
			return retErr
		}

		if _, execErr := tx.ExecContext(ctx, insertSQL, args...); execErr != nil {
			retErr = errors.Join(datastore.ErrSavingItemsFailed, execErr)
			return retErr
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		retErr = errors.Join(datastore.ErrSavingItemsFailed, commitErr)
		return retErr
	}

	s.logDebug(logMsgItemsSaved,
		logAttrTable, s.tableName,
		logAttrItemCount, len(items),
		logAttrDurationMS, time.Since(start).Milliseconds())

	return nil
}

// buildInsert builds one prepared multi-row insert for the full snapshot.
func (s *Strategy[T]) buildInsert(items []T) (string, []any, error) {
	vals := make([][]interface{}, 0, len(items))

	for _, item := range items {
		payload, marshalErr := jsoniter.ConfigFastest.Marshal(item)
		if marshalErr != nil {
			s.logError(logMsgMarshalFailed, marshalErr)
			return "", nil, errors.Join(datastore.ErrSavingItemsFailed, marshalErr)
		}

		vals = append(vals, goqu.Vals{payload})
	}

	insertSQL, args, buildErr := goqu.Dialect(dialectSQLite).
		Insert(s.tableName).
		Cols(colPayload).
		Vals(vals...).
		Prepared(true).
		ToSQL()
	if buildErr != nil {
		s.logError(logMsgBuildSQLFailed, buildErr)
		return "", nil, errors.Join(datastore.ErrSavingItemsFailed, buildErr)
	}

	return insertSQL, args, nil
}

func (s *Strategy[T]) ensureSchema() error {
	createTable := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (%s INTEGER PRIMARY KEY AUTOINCREMENT, %s BLOB NOT NULL)`,
		s.tableName, colID, colPayload)

	if _, execErr := s.db.Exec(createTable); execErr != nil {
		return fmt.Errorf("create document table: %w", execErr)
	}

	return nil
}

func (s *Strategy[T]) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Strategy[T]) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, logAttrError, err.Error(), logAttrTable, s.tableName)
	}
}

var _ datastore.Strategy[struct{}] = (*Strategy[struct{}])(nil)
