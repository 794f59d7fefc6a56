package postgresengine_test

import (
	"database/sql"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedstate/datastore-go/datastore"
	"github.com/sharedstate/datastore-go/datastore/postgresengine"
	"github.com/sharedstate/datastore-go/testutil/fixtures"
	"github.com/sharedstate/datastore-go/testutil/pgconfig"
)

// sql.Open does not dial, so factory and option behavior is testable without a
// running database.
func lazySQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("postgres", pgconfig.PostgresDSN())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func Test_Factories_NilConnectionFails(t *testing.T) {
	_, err := postgresengine.NewStrategyFromPGXPool[fixtures.Order](nil)
	assert.ErrorIs(t, err, datastore.ErrNilDatabaseConnection)

	_, err = postgresengine.NewStrategyFromSQLDB[fixtures.Order](nil)
	assert.ErrorIs(t, err, datastore.ErrNilDatabaseConnection)

	_, err = postgresengine.NewStrategyFromSQLX[fixtures.Order](nil)
	assert.ErrorIs(t, err, datastore.ErrNilDatabaseConnection)
}

func Test_Factories_WithEmptyTableNameFails(t *testing.T) {
	_, err := postgresengine.NewStrategyFromSQLDB[fixtures.Order](lazySQLDB(t),
		postgresengine.WithTableName[fixtures.Order](""))

	require.ErrorIs(t, err, datastore.ErrEmptyTableName)
}

func Test_Factories_DefaultConfigurationSucceeds(t *testing.T) {
	strategy, err := postgresengine.NewStrategyFromSQLDB[fixtures.Order](lazySQLDB(t))

	require.NoError(t, err)
	require.NotNil(t, strategy)
}

func Test_Factories_CustomTableNameSucceeds(t *testing.T) {
	strategy, err := postgresengine.NewStrategyFromSQLDB[fixtures.Order](lazySQLDB(t),
		postgresengine.WithTableName[fixtures.Order]("orders"))

	require.NoError(t, err)
	require.NotNil(t, strategy)
}
