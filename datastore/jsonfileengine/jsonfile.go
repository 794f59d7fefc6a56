package jsonfileengine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/sharedstate/datastore-go/datastore"
)

const (
	tempFilePrefix = ".tmp-"
	fileMode       = 0o600

	logMsgItemsLoaded      = "items loaded from json file"
	logMsgItemsSaved       = "items saved to json file"
	logMsgMarshalFailed    = "failed to marshal items to json"
	logMsgUnmarshalFailed  = "failed to unmarshal items from json"
	logMsgWriteFileFailed  = "failed to write temporary json file"
	logMsgRenameFileFailed = "failed to move temporary json file into place"
	logAttrError           = "error"
	logAttrPath            = "path"
	logAttrItemCount       = "item_count"
	logAttrDurationMS      = "duration_ms"
)

type jsonAPI = jsoniter.API

// Strategy implements datastore.Strategy over a single JSON file.
type Strategy[T any] struct {
	path   string
	codec  jsonAPI
	logger datastore.Logger
}

// Option defines a functional option for configuring a Strategy.
type Option[T any] func(*Strategy[T]) error

// WithLogger sets the logger for the Strategy.
// Load/save completions are logged at debug level, failures at error level.
func WithLogger[T any](logger datastore.Logger) Option[T] {
	return func(s *Strategy[T]) error {
		s.logger = logger
		return nil
	}
}

// WithIndent makes saves pretty-print the JSON array, trading file size for
// readability of the persisted snapshot.
func WithIndent[T any]() Option[T] {
	return func(s *Strategy[T]) error {
		s.codec = jsoniter.Config{IndentionStep: 2, SortMapKeys: true}.Froze()
		return nil
	}
}

// NewStrategy creates a JSON file persistence strategy for the given path
// with optional configuration.
func NewStrategy[T any](path string, options ...Option[T]) (*Strategy[T], error) {
	if path == "" {
		return nil, datastore.ErrEmptyFilePath
	}

	s := &Strategy[T]{
		path:  path,
		codec: jsoniter.ConfigFastest,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// LoadAll reads the full persisted item set from the file. A missing file
// yields an empty item set and no error.
func (s *Strategy[T]) LoadAll(_ context.Context) ([]T, error) {
	start := time.Now()

	data, readErr := os.ReadFile(s.path)
	if readErr != nil {
		if errors.Is(readErr, fs.ErrNotExist) {
			return []T{}, nil
		}

		return nil, errors.Join(datastore.ErrLoadingItemsFailed, readErr)
	}

	var items []T
	if unmarshalErr := s.codec.Unmarshal(data, &items); unmarshalErr != nil {
		s.logError(logMsgUnmarshalFailed, unmarshalErr)
		return nil, errors.Join(datastore.ErrLoadingItemsFailed, unmarshalErr)
	}

	if items == nil {
		items = []T{}
	}

	s.logDebug(logMsgItemsLoaded,
		logAttrPath, s.path,
		logAttrItemCount, len(items),
		logAttrDurationMS, time.Since(start).Milliseconds())

	return items, nil
}

// SaveAll overwrites the file with exactly the given items, via a temporary
// file and an atomic rename.
func (s *Strategy[T]) SaveAll(_ context.Context, items []T) error {
	start := time.Now()

	if items == nil {
		items = []T{}
	}

	data, marshalErr := s.codec.Marshal(items)
	if marshalErr != nil {
		s.logError(logMsgMarshalFailed, marshalErr)
		return errors.Join(datastore.ErrSavingItemsFailed, marshalErr)
	}

	tempPath := s.path + tempFilePrefix + uuid.NewString()

	if writeErr := os.WriteFile(tempPath, data, fileMode); writeErr != nil {
		s.logError(logMsgWriteFileFailed, writeErr)
		return errors.Join(datastore.ErrSavingItemsFailed, writeErr)
	}

	if renameErr := os.Rename(tempPath, s.path); renameErr != nil {
		s.logError(logMsgRenameFileFailed, renameErr)
		_ = os.Remove(tempPath)

		return errors.Join(datastore.ErrSavingItemsFailed, renameErr)
	}

	s.logDebug(logMsgItemsSaved,
		logAttrPath, s.path,
		logAttrItemCount, len(items),
		logAttrDurationMS, time.Since(start).Milliseconds())

	return nil
}

// Path returns the file path this strategy persists to.
func (s *Strategy[T]) Path() string {
	return s.path
}

func (s *Strategy[T]) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Strategy[T]) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, logAttrError, err.Error(), logAttrPath, s.path)
	}
}

var _ datastore.Strategy[struct{}] = (*Strategy[struct{}])(nil)
