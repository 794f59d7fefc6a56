package datastore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedstate/datastore-go/datastore"
	"github.com/sharedstate/datastore-go/testutil/fixtures"
)

func ordersOfCustomer(parent fixtures.Customer, candidate fixtures.Order) bool {
	return candidate.CustomerID == parent.ID
}

func newOrderWorld(t *testing.T) (*datastore.DataStore, *datastore.Store[fixtures.Order]) {
	t.Helper()

	registry := datastore.NewRegistry()
	facade, err := datastore.NewDataStore(registry)
	require.NoError(t, err)

	orders, err := datastore.NewStore[fixtures.Order](
		datastore.WithComparer(fixtures.SameOrderID))
	require.NoError(t, err)
	require.NoError(t, datastore.Register[fixtures.Order](registry, orders))

	return facade, orders
}

func Test_NewRelationship_Validation(t *testing.T) {
	facade, _ := newOrderWorld(t)

	_, err := datastore.NewRelationship[fixtures.Customer, fixtures.Order](
		nil, fixtures.Customer{ID: 1}, ordersOfCustomer)
	assert.ErrorIs(t, err, datastore.ErrNilFacade)

	_, err = datastore.NewRelationship[fixtures.Customer, fixtures.Order](
		facade, fixtures.Customer{ID: 1}, nil)
	assert.ErrorIs(t, err, datastore.ErrNilFilter)
}

func Test_Relationship_UnboundOperationsFail(t *testing.T) {
	facade, _ := newOrderWorld(t)

	relationship, err := datastore.NewRelationship(
		facade, fixtures.Customer{ID: 1, Name: "Ada"}, ordersOfCustomer)
	require.NoError(t, err)

	require.ErrorIs(t, relationship.Refresh(), datastore.ErrRelationshipUnbound)

	_, sourceErr := relationship.DataSource()
	require.ErrorIs(t, sourceErr, datastore.ErrRelationshipUnbound)

	assert.Zero(t, relationship.Childs().Len(), "childs stay empty while unbound")
}

func Test_Relationship_RefreshFiltersGlobalSource(t *testing.T) {
	facade, orders := newOrderWorld(t)

	parent := fixtures.Customer{ID: 1, Name: "Ada"}
	mine := fixtures.NewOrder(1, 10)
	alsoMine := fixtures.NewOrder(1, 20)
	theirs := fixtures.NewOrder(2, 30)
	require.NoError(t, orders.AddRange([]fixtures.Order{mine, theirs, alsoMine}))

	relationship, err := datastore.NewRelationship(facade, parent, ordersOfCustomer)
	require.NoError(t, err)
	require.NoError(t, relationship.UseGlobalDataSource())
	require.NoError(t, relationship.Refresh())

	assert.Equal(t, []fixtures.Order{mine, alsoMine}, relationship.Childs().Items())
	assert.Equal(t, parent, relationship.Parent())
}

func Test_Relationship_GlobalSourceIsLive(t *testing.T) {
	facade, orders := newOrderWorld(t)

	relationship, err := datastore.NewRelationship(
		facade, fixtures.Customer{ID: 1}, ordersOfCustomer)
	require.NoError(t, err)
	require.NoError(t, relationship.UseGlobalDataSource())
	require.NoError(t, relationship.Refresh())
	require.Zero(t, relationship.Childs().Len())

	// added after binding, picked up by the next refresh
	require.NoError(t, orders.Add(fixtures.NewOrder(1, 42)))
	assert.Zero(t, relationship.Childs().Len(), "no refresh happened yet")

	require.NoError(t, relationship.Refresh())
	assert.Equal(t, 1, relationship.Childs().Len())
}

func Test_Relationship_SnapshotSourceIsDecoupledFromGlobal(t *testing.T) {
	facade, orders := newOrderWorld(t)

	initial := fixtures.NewOrder(1, 10)
	require.NoError(t, orders.Add(initial))

	relationship, err := datastore.NewRelationship(
		facade, fixtures.Customer{ID: 1}, ordersOfCustomer)
	require.NoError(t, err)
	require.NoError(t, relationship.UseSnapshotFromGlobal(nil))

	require.NoError(t, orders.Add(fixtures.NewOrder(1, 20)))
	require.NoError(t, relationship.Refresh())

	assert.Equal(t, []fixtures.Order{initial}, relationship.Childs().Items(),
		"global mutation after binding is invisible to a snapshot source")
}

func Test_Relationship_SnapshotSourceCanPreFilter(t *testing.T) {
	facade, orders := newOrderWorld(t)

	cheap := fixtures.NewOrder(1, 5)
	pricey := fixtures.NewOrder(1, 500)
	require.NoError(t, orders.AddRange([]fixtures.Order{cheap, pricey}))

	relationship, err := datastore.NewRelationship(
		facade, fixtures.Customer{ID: 1}, ordersOfCustomer)
	require.NoError(t, err)
	require.NoError(t, relationship.UseSnapshotFromGlobal(
		func(order fixtures.Order) bool { return order.Amount >= 100 }))
	require.NoError(t, relationship.Refresh())

	assert.Equal(t, []fixtures.Order{pricey}, relationship.Childs().Items())
}

func Test_Relationship_BindingIsSetOnce(t *testing.T) {
	facade, _ := newOrderWorld(t)

	relationship, err := datastore.NewRelationship(
		facade, fixtures.Customer{ID: 1}, ordersOfCustomer)
	require.NoError(t, err)

	require.NoError(t, relationship.UseGlobalDataSource())

	assert.ErrorIs(t, relationship.UseGlobalDataSource(), datastore.ErrDataSourceAlreadyBound)
	assert.ErrorIs(t, relationship.UseSnapshotFromGlobal(nil), datastore.ErrDataSourceAlreadyBound)
}

func Test_Relationship_ChildsIsNeverTheDataSource(t *testing.T) {
	facade, orders := newOrderWorld(t)
	require.NoError(t, orders.Add(fixtures.NewOrder(1, 10)))

	relationship, err := datastore.NewRelationship(
		facade, fixtures.Customer{ID: 1}, ordersOfCustomer)
	require.NoError(t, err)
	require.NoError(t, relationship.UseGlobalDataSource())

	source, err := relationship.DataSource()
	require.NoError(t, err)

	assert.NotSame(t, source.(*datastore.Store[fixtures.Order]), relationship.Childs())
}

func Test_Relationship_DirectChildsMutationIsDiscardedOnRefresh(t *testing.T) {
	facade, orders := newOrderWorld(t)

	real := fixtures.NewOrder(1, 10)
	require.NoError(t, orders.Add(real))

	relationship, err := datastore.NewRelationship(
		facade, fixtures.Customer{ID: 1}, ordersOfCustomer)
	require.NoError(t, err)
	require.NoError(t, relationship.UseGlobalDataSource())
	require.NoError(t, relationship.Refresh())

	// direct mutation of the derived view
	rogue := fixtures.NewOrder(1, 999)
	require.NoError(t, relationship.Childs().Add(rogue))
	require.Equal(t, 2, relationship.Childs().Len())

	require.NoError(t, relationship.Refresh())

	assert.Equal(t, []fixtures.Order{real}, relationship.Childs().Items())
	assert.False(t, orders.Contains(rogue), "the data source never sees direct childs mutation")
}

func Test_Relationship_ChildsReplacementIsObservable(t *testing.T) {
	facade, orders := newOrderWorld(t)
	require.NoError(t, orders.Add(fixtures.NewOrder(1, 10)))

	relationship, err := datastore.NewRelationship(
		facade, fixtures.Customer{ID: 1}, ordersOfCustomer)
	require.NoError(t, err)
	require.NoError(t, relationship.UseGlobalDataSource())

	var kinds []datastore.ChangeKind
	relationship.Childs().Subscribe(func(event datastore.ChangeEvent[fixtures.Order]) {
		kinds = append(kinds, event.Kind)
	})

	require.NoError(t, relationship.Refresh())

	assert.Equal(t,
		[]datastore.ChangeKind{datastore.ChangeKindClear, datastore.ChangeKindBulkAdd},
		kinds)
}
