package datastore_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedstate/datastore-go/datastore"
	"github.com/sharedstate/datastore-go/testutil/fixtures"
)

func Test_Registry_RegisterAndResolve(t *testing.T) {
	registry := datastore.NewRegistry()

	customers, err := datastore.NewStore[fixtures.Customer]()
	require.NoError(t, err)

	require.NoError(t, datastore.Register[fixtures.Customer](registry, customers))

	resolved, err := datastore.Resolve[fixtures.Customer](registry)
	require.NoError(t, err)
	assert.Same(t, customers, resolved.(*datastore.Store[fixtures.Customer]))
}

func Test_Registry_StoresAreKeyedByItemType(t *testing.T) {
	registry := datastore.NewRegistry()

	customers, err := datastore.NewStore[fixtures.Customer]()
	require.NoError(t, err)
	orders, err := datastore.NewStore[fixtures.Order]()
	require.NoError(t, err)

	require.NoError(t, datastore.Register[fixtures.Customer](registry, customers))
	require.NoError(t, datastore.Register[fixtures.Order](registry, orders))

	resolvedCustomers, err := datastore.Resolve[fixtures.Customer](registry)
	require.NoError(t, err)
	resolvedOrders, err := datastore.Resolve[fixtures.Order](registry)
	require.NoError(t, err)

	assert.Same(t, customers, resolvedCustomers.(*datastore.Store[fixtures.Customer]))
	assert.Same(t, orders, resolvedOrders.(*datastore.Store[fixtures.Order]))
}

func Test_Registry_DuplicateRegistrationFails(t *testing.T) {
	registry := datastore.NewRegistry()

	first, err := datastore.NewStore[fixtures.Customer]()
	require.NoError(t, err)
	second, err := datastore.NewStore[fixtures.Customer]()
	require.NoError(t, err)

	require.NoError(t, datastore.Register[fixtures.Customer](registry, first))

	registerErr := datastore.Register[fixtures.Customer](registry, second)
	require.ErrorIs(t, registerErr, datastore.ErrDuplicateRegistration)

	resolved, err := datastore.Resolve[fixtures.Customer](registry)
	require.NoError(t, err)
	assert.Same(t, first, resolved.(*datastore.Store[fixtures.Customer]), "first registration stays authoritative")
}

func Test_Registry_ResolveUnregisteredFails(t *testing.T) {
	registry := datastore.NewRegistry()

	_, err := datastore.Resolve[fixtures.Customer](registry)
	require.ErrorIs(t, err, datastore.ErrStoreNotRegistered)
}

func Test_Registry_TryResolve(t *testing.T) {
	registry := datastore.NewRegistry()

	_, ok := datastore.TryResolve[fixtures.Customer](registry)
	assert.False(t, ok)

	customers, err := datastore.NewStore[fixtures.Customer]()
	require.NoError(t, err)
	require.NoError(t, datastore.Register[fixtures.Customer](registry, customers))

	resolved, ok := datastore.TryResolve[fixtures.Customer](registry)
	require.True(t, ok)
	assert.Same(t, customers, resolved.(*datastore.Store[fixtures.Customer]))
}

func Test_Registry_NilArgumentsFail(t *testing.T) {
	registry := datastore.NewRegistry()

	customers, err := datastore.NewStore[fixtures.Customer]()
	require.NoError(t, err)

	assert.ErrorIs(t,
		datastore.Register[fixtures.Customer](nil, customers),
		datastore.ErrNilRegistry)
	assert.ErrorIs(t,
		datastore.Register[fixtures.Customer](registry, nil),
		datastore.ErrNilStore)

	_, resolveErr := datastore.Resolve[fixtures.Customer](nil)
	assert.ErrorIs(t, resolveErr, datastore.ErrNilRegistry)
}

func Test_Registry_ConcurrentRegistration_ExactlyOneWins(t *testing.T) {
	registry := datastore.NewRegistry()

	const contenders = 16

	var wg sync.WaitGroup
	results := make([]error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			store, err := datastore.NewStore[fixtures.Customer]()
			if err != nil {
				results[slot] = err
				return
			}
			results[slot] = datastore.Register[fixtures.Customer](registry, store)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, datastore.ErrDuplicateRegistration)
		}
	}
	assert.Equal(t, 1, succeeded)

	_, err := datastore.Resolve[fixtures.Customer](registry)
	assert.NoError(t, err)
}
