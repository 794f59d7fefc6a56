package datastore

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	logMsgInitialLoadCompleted = "initial load completed"
	logMsgInitialLoadFailed    = "initial load failed"
	logMsgSnapshotSaved        = "snapshot saved"
	logMsgSnapshotSaveFailed   = "snapshot save failed"
	logAttrDurationMS          = "duration_ms"
	logAttrError               = "error"

	metricSaveDuration = "datastore_save_duration"
	metricSaveFailures = "datastore_save_failures"
	metricLabelStatus  = "status"
	statusOK           = "ok"
	statusError        = "error"
)

// PersistentStore decorates exactly one Store with one persistence Strategy,
// adding a one-time asynchronous initial load and fire-and-forget
// save-on-change without blocking the synchronous mutation API.
//
// The wrapped store is never exposed directly: all mutation goes through the
// decorator, which forwards to the inner store and then, when auto-save is
// enabled, schedules a save of the current full item snapshot. Rapid
// mutations may coalesce into fewer physical saves, but the state after the
// last mutation is always the last state saved.
type PersistentStore[T any] struct {
	inner    *Store[T]
	strategy Strategy[T]
	logger   Logger
	metrics  MetricsCollector

	autoLoad         bool
	autoSaveOnChange bool

	initMu      sync.Mutex
	initialized bool

	saveSignal chan struct{}
	done       chan struct{}
	saverDone  chan struct{}
	closeOnce  sync.Once
}

// PersistentStoreOption defines a functional option for configuring a PersistentStore.
type PersistentStoreOption[T any] func(*PersistentStore[T]) error

// WithAutoLoad enables the one-time initial load performed by Initialize.
// Without this option Initialize never calls the strategy, regardless of call count.
func WithAutoLoad[T any]() PersistentStoreOption[T] {
	return func(ps *PersistentStore[T]) error {
		ps.autoLoad = true
		return nil
	}
}

// WithAutoSaveOnChange enables asynchronous saving of the full item snapshot
// after every successful mutation made through the decorator.
func WithAutoSaveOnChange[T any]() PersistentStoreOption[T] {
	return func(ps *PersistentStore[T]) error {
		ps.autoSaveOnChange = true
		return nil
	}
}

// WithPersistenceLogger sets the logger for the PersistentStore.
// Save failures are reported here at error level since they are deliberately
// not surfaced to mutation callers.
func WithPersistenceLogger[T any](logger Logger) PersistentStoreOption[T] {
	return func(ps *PersistentStore[T]) error {
		ps.logger = logger
		return nil
	}
}

// WithPersistenceMetrics sets the metrics collector for the PersistentStore.
// The collector receives save durations and save failure counts.
func WithPersistenceMetrics[T any](collector MetricsCollector) PersistentStoreOption[T] {
	return func(ps *PersistentStore[T]) error {
		ps.metrics = collector
		return nil
	}
}

// NewPersistentStore creates a decorator around inner and strategy with
// optional configuration. A nil inner store or nil strategy is a synchronous
// argument error.
func NewPersistentStore[T any](inner *Store[T], strategy Strategy[T], options ...PersistentStoreOption[T]) (*PersistentStore[T], error) {
	if inner == nil {
		return nil, ErrNilInnerStore
	}

	if strategy == nil {
		return nil, ErrNilStrategy
	}

	ps := &PersistentStore[T]{
		inner:      inner,
		strategy:   strategy,
		saveSignal: make(chan struct{}, 1),
		done:       make(chan struct{}),
		saverDone:  make(chan struct{}),
	}

	for _, option := range options {
		if err := option(ps); err != nil {
			return nil, err
		}
	}

	if ps.autoSaveOnChange {
		// In-place item updates bypass the decorator's mutation methods, so
		// they are picked up from the inner store's event stream instead.
		ps.inner.Subscribe(func(event ChangeEvent[T]) {
			if event.Kind == ChangeKindItemUpdated {
				ps.scheduleSave()
			}
		})

		go ps.saveLoop()
	} else {
		close(ps.saverDone)
	}

	return ps, nil
}

// Initialize performs the one-time initial load when auto-load is enabled:
// it loads the full item set from the strategy and replaces the inner store's
// contents as one bulk mutation. At most one load is attempted for the
// lifetime of the decorator; subsequent calls are no-ops.
//
// A load failure propagates to the caller wrapped in ErrInitialLoadFailed;
// the store stays usable but may be empty. Cancelling ctx aborts the load
// before any items are applied.
func (ps *PersistentStore[T]) Initialize(ctx context.Context) error {
	ps.initMu.Lock()
	defer ps.initMu.Unlock()

	if !ps.autoLoad || ps.initialized {
		return nil
	}

	ps.initialized = true

	start := time.Now()
	items, loadErr := ps.strategy.LoadAll(ctx)
	if loadErr != nil {
		ps.logError(logMsgInitialLoadFailed, loadErr)
		return errors.Join(ErrInitialLoadFailed, loadErr)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if replaceErr := ps.inner.ReplaceAll(items); replaceErr != nil {
		return replaceErr
	}

	ps.logOperation(logMsgInitialLoadCompleted,
		logAttrItemCount, len(items),
		logAttrDurationMS, toMilliseconds(time.Since(start)))

	return nil
}

// Close stops the background saver after flushing a pending save, so the
// state of the last mutation is persisted before Close returns. It is safe to
// call Close more than once.
func (ps *PersistentStore[T]) Close() {
	ps.closeOnce.Do(func() {
		close(ps.done)
	})

	<-ps.saverDone
}

// Add forwards to the inner store and schedules a save on success.
func (ps *PersistentStore[T]) Add(item T) error {
	if err := ps.inner.Add(item); err != nil {
		return err
	}

	ps.scheduleSave()

	return nil
}

// AddRange forwards to the inner store and schedules a save on success.
func (ps *PersistentStore[T]) AddRange(items []T) error {
	if err := ps.inner.AddRange(items); err != nil {
		return err
	}

	ps.scheduleSave()

	return nil
}

// Remove forwards to the inner store and schedules a save if a removal occurred.
func (ps *PersistentStore[T]) Remove(item T) bool {
	removed := ps.inner.Remove(item)
	if removed {
		ps.scheduleSave()
	}

	return removed
}

// Clear forwards to the inner store and schedules a save.
func (ps *PersistentStore[T]) Clear() {
	ps.inner.Clear()
	ps.scheduleSave()
}

// ReplaceAll forwards to the inner store and schedules a save on success.
func (ps *PersistentStore[T]) ReplaceAll(items []T) error {
	if err := ps.inner.ReplaceAll(items); err != nil {
		return err
	}

	ps.scheduleSave()

	return nil
}

// Contains forwards to the inner store.
func (ps *PersistentStore[T]) Contains(item T) bool {
	return ps.inner.Contains(item)
}

// Items forwards to the inner store.
func (ps *PersistentStore[T]) Items() []T {
	return ps.inner.Items()
}

// Len forwards to the inner store.
func (ps *PersistentStore[T]) Len() int {
	return ps.inner.Len()
}

// Subscribe forwards to the inner store's change-event stream.
func (ps *PersistentStore[T]) Subscribe(handler ChangeHandler[T]) func() {
	return ps.inner.Subscribe(handler)
}

// scheduleSave signals the background saver without blocking. The signal
// channel has capacity one, so bursts of mutations coalesce; the saver reads
// the current snapshot when it runs, which keeps the final state covered.
func (ps *PersistentStore[T]) scheduleSave() {
	if !ps.autoSaveOnChange {
		return
	}

	select {
	case ps.saveSignal <- struct{}{}:
	default:
	}
}

func (ps *PersistentStore[T]) saveLoop() {
	defer close(ps.saverDone)

	for {
		select {
		case <-ps.saveSignal:
			ps.saveSnapshot()

		case <-ps.done:
			// flush a pending signal before shutting down
			select {
			case <-ps.saveSignal:
				ps.saveSnapshot()
			default:
			}

			return
		}
	}
}

// saveSnapshot persists the current full item view. Failures are logged and
// counted but never surfaced to mutation callers; the decorator does not
// retry failed saves.
func (ps *PersistentStore[T]) saveSnapshot() {
	snapshot := ps.inner.Items()

	start := time.Now()
	saveErr := ps.strategy.SaveAll(context.Background(), snapshot)
	duration := time.Since(start)

	if saveErr != nil {
		ps.logError(logMsgSnapshotSaveFailed, saveErr, logAttrItemCount, len(snapshot))
		ps.recordSaveMetrics(duration, statusError)

		return
	}

	ps.logOperation(logMsgSnapshotSaved,
		logAttrItemCount, len(snapshot),
		logAttrDurationMS, toMilliseconds(duration))
	ps.recordSaveMetrics(duration, statusOK)
}

func (ps *PersistentStore[T]) recordSaveMetrics(duration time.Duration, status string) {
	if ps.metrics == nil {
		return
	}

	labels := map[string]string{metricLabelStatus: status}
	ps.metrics.RecordDuration(metricSaveDuration, duration, labels)

	if status == statusError {
		ps.metrics.IncrementCounter(metricSaveFailures, labels)
	}
}

// logOperation logs operational information at info level if the logger is configured.
func (ps *PersistentStore[T]) logOperation(msg string, args ...any) {
	if ps.logger != nil {
		ps.logger.Info(msg, args...)
	}
}

// logError logs error information at error level if the logger is configured.
func (ps *PersistentStore[T]) logError(msg string, err error, args ...any) {
	if ps.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		ps.logger.Error(msg, allArgs...)
	}
}
