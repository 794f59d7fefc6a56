package datastore

import (
	"errors"
	"math"
	"time"
)

var ErrNilStore = errors.New("nil store supplied")
var ErrNilRegistry = errors.New("nil registry supplied")
var ErrNilFacade = errors.New("nil data store facade supplied")
var ErrNilFilter = errors.New("nil filter predicate supplied")
var ErrNilRegistrar = errors.New("nil registrar supplied")
var ErrNilInnerStore = errors.New("nil inner store supplied")
var ErrNilStrategy = errors.New("nil persistence strategy supplied")
var ErrNilDatabaseConnection = errors.New("nil database connection supplied")

var ErrDuplicateItem = errors.New("an equal item already exists in the store")
var ErrDuplicateRegistration = errors.New("a global store is already registered for this type")
var ErrStoreNotRegistered = errors.New("no global store is registered for this type")
var ErrRelationshipUnbound = errors.New("no data source has been bound to this relationship")
var ErrDataSourceAlreadyBound = errors.New("a data source has already been bound to this relationship")

var ErrEmptyFilePath = errors.New("empty file path supplied")
var ErrEmptyTableName = errors.New("empty table name supplied")
var ErrInitialLoadFailed = errors.New("initial load from the persistence strategy failed")
var ErrLoadingItemsFailed = errors.New("loading items from the persistence medium failed")
var ErrSavingItemsFailed = errors.New("saving items to the persistence medium failed")

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
