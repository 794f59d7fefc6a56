package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/sharedstate/datastore-go/datastore"
	"github.com/sharedstate/datastore-go/datastore/postgresengine/internal/adapters"
)

const (
	defaultTableName = "documents"
	dialectPostgres  = "postgres"
	colID            = "id"
	colPayload       = "payload"
	castJsonb        = "?::jsonb"

	logMsgItemsLoaded     = "items loaded from postgres"
	logMsgItemsSaved      = "items saved to postgres"
	logMsgBuildSQLFailed  = "failed to build sql statement"
	logMsgQueryFailed     = "database query execution failed"
	logMsgExecFailed      = "database execution failed"
	logMsgBeginTxFailed   = "failed to begin transaction"
	logMsgCommitTxFailed  = "failed to commit transaction"
	logMsgCloseRowsFailed = "failed to close database rows"
	logMsgScanRowFailed   = "failed to scan database row"
	logMsgMarshalFailed   = "failed to marshal item to json"
	logMsgUnmarshalFailed = "failed to unmarshal item from json"
	logAttrError          = "error"
	logAttrTable          = "table"
	logAttrItemCount      = "item_count"
	logAttrReplacedCount  = "replaced_count"
	logAttrDurationMS     = "duration_ms"
)

// Strategy implements datastore.Strategy over a PostgreSQL jsonb document table.
type Strategy[T any] struct {
	db        adapters.DBAdapter
	tableName string
	logger    datastore.Logger
}

// NewStrategyFromPGXPool creates a new Strategy using a pgx pool with optional configuration.
func NewStrategyFromPGXPool[T any](pool *pgxpool.Pool, options ...Option[T]) (*Strategy[T], error) {
	if pool == nil {
		return nil, datastore.ErrNilDatabaseConnection
	}

	return newStrategy[T](adapters.NewPGXAdapter(pool), options...)
}

// NewStrategyFromSQLDB creates a new Strategy using a sql.DB with optional configuration.
func NewStrategyFromSQLDB[T any](db *sql.DB, options ...Option[T]) (*Strategy[T], error) {
	if db == nil {
		return nil, datastore.ErrNilDatabaseConnection
	}

	return newStrategy[T](adapters.NewSQLAdapter(db), options...)
}

// NewStrategyFromSQLX creates a new Strategy using a sqlx.DB with optional configuration.
func NewStrategyFromSQLX[T any](db *sqlx.DB, options ...Option[T]) (*Strategy[T], error) {
	if db == nil {
		return nil, datastore.ErrNilDatabaseConnection
	}

	return newStrategy[T](adapters.NewSQLXAdapter(db), options...)
}

func newStrategy[T any](db adapters.DBAdapter, options ...Option[T]) (*Strategy[T], error) {
	s := &Strategy[T]{
		db:        db,
		tableName: defaultTableName,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// EnsureSchema creates the document table when it does not exist yet.
// Intended for tests and simple deployments; managed schemas can skip it.
func (s *Strategy[T]) EnsureSchema(ctx context.Context) error {
	createTable := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (%s BIGSERIAL PRIMARY KEY, %s JSONB NOT NULL)`,
		s.tableName, colID, colPayload)

	if _, execErr := s.db.Exec(ctx, createTable); execErr != nil {
		return fmt.Errorf("create document table: %w", execErr)
	}

	return nil
}

// LoadAll reads the full persisted item set, in insertion order.
func (s *Strategy[T]) LoadAll(ctx context.Context) ([]T, error) {
	start := time.Now()

	selectSQL, _, buildErr := goqu.Dialect(dialectPostgres).
		From(s.tableName).
		Select(colPayload).
		Order(goqu.I(colID).Asc()).
		ToSQL()
	if buildErr != nil {
		s.logError(logMsgBuildSQLFailed, buildErr)
		return nil, errors.Join(datastore.ErrLoadingItemsFailed, buildErr)
	}

	rows, queryErr := s.db.Query(ctx, selectSQL)
	if queryErr != nil {
		s.logError(logMsgQueryFailed, queryErr)
		return nil, errors.Join(datastore.ErrLoadingItemsFailed, queryErr)
	}
	defer s.closeRows(rows)

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

// SaveAll overwrites the document table with exactly the given items: all
// rows are deleted, then the new snapshot is inserted, in one transaction.
// A failure rolls back, so the previously persisted snapshot stays intact.
// An empty snapshot leaves an empty table.
func (s *Strategy[T]) SaveAll(ctx context.Context, items []T) (retErr error) {
	start := time.Now()

	deleteSQL, _, buildErr := goqu.Dialect(dialectPostgres).
		Delete(s.tableName).
		ToSQL()
	if buildErr != nil {
		s.logError(logMsgBuildSQLFailed, buildErr)
		return errors.Join(datastore.ErrSavingItemsFailed, buildErr)
	}

	tx, beginErr := s.db.Begin(ctx)
	if beginErr != nil {
		s.logError(logMsgBeginTxFailed, beginErr)
		return errors.Join(datastore.ErrSavingItemsFailed, beginErr)
	}

	defer func() {
		if retErr != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	deleteResult, execErr := tx.Exec(ctx, deleteSQL)
	if execErr != nil {
		s.logError(logMsgExecFailed, execErr)
		retErr = errors.Join(datastore.ErrSavingItemsFailed, execErr)

		return retErr
	}

	if len(items) > 0 {
		insertSQL, insertErr := s.buildInsert(items)
		if insertErr != nil {
			retErr = insertErr
			return retErr
		}

		if _, insertExecErr := tx.Exec(ctx, insertSQL); insertExecErr != nil {
			s.logError(logMsgExecFailed, insertExecErr)
			retErr = errors.Join(datastore.ErrSavingItemsFailed, insertExecErr)

			return retErr
		}
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		s.logError(logMsgCommitTxFailed, commitErr)
		retErr = errors.Join(datastore.ErrSavingItemsFailed, commitErr)

		return retErr
	}

	replaced, _ := deleteResult.RowsAffected()

	s.logDebug(logMsgItemsSaved,
		logAttrTable, s.tableName,
		logAttrItemCount, len(items),
		logAttrReplacedCount, replaced,
		logAttrDurationMS, time.Since(start).Milliseconds())

	return nil
}

// buildInsert builds one multi-row insert for the full snapshot, casting each
// serialized item to jsonb.
func (s *Strategy[T]) buildInsert(items []T) (string, error) {
	vals := make([][]interface{}, 0, len(items))

	for _, item := range items {
		payload, marshalErr := jsoniter.ConfigFastest.Marshal(item)
		if marshalErr != nil {
			s.logError(logMsgMarshalFailed, marshalErr)
			return "", errors.Join(datastore.ErrSavingItemsFailed, marshalErr)
		}

		vals = append(vals, goqu.Vals{goqu.L(castJsonb, string(payload))})
	}

	insertSQL, _, buildErr := goqu.Dialect(dialectPostgres).
		Insert(s.tableName).
		Cols(colPayload).
		Vals(vals...).
		ToSQL()
	if buildErr != nil {
		s.logError(logMsgBuildSQLFailed, buildErr)
		return "", errors.Join(datastore.ErrSavingItemsFailed, buildErr)
	}

	return insertSQL, nil
}

// closeRows safely closes database rows and logs any errors.
func (s *Strategy[T]) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
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
