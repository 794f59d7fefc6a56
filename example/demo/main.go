// A small end-to-end demo: a customer store persisted to a JSON file, a plain
// order store, a parent/child relationship view, and structured logging wired
// through the slog adapter.
//
// Run it twice to see the customer store reload its previous state:
//
//	go run ./example/demo
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sharedstate/datastore-go/datastore"
	"github.com/sharedstate/datastore-go/datastore/jsonfileengine"
	"github.com/sharedstate/datastore-go/datastore/oteladapters"
)

type Customer struct {
	ID   int
	Name string
}

type Order struct {
	OrderID    string
	CustomerID int
	Amount     float64
}

func main() {
	logger := oteladapters.NewSlogLogger(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))

	statePath := filepath.Join(os.TempDir(), "datastore-demo-customers.json")

	registry := datastore.NewRegistry()
	store, err := datastore.NewDataStore(registry)
	if err != nil {
		log.Fatalf("failed to create facade: %v", err)
	}

	customerRegistrar := datastore.RegistrarFunc(func(registry *datastore.Registry) error {
		inner, newErr := datastore.NewStore[Customer](
			datastore.WithComparer(func(a, b Customer) bool { return a.ID == b.ID }),
			datastore.WithLogger[Customer](logger))
		if newErr != nil {
			return newErr
		}

		strategy, newErr := jsonfileengine.NewStrategy[Customer](statePath,
			jsonfileengine.WithIndent[Customer](),
			jsonfileengine.WithLogger[Customer](logger))
		if newErr != nil {
			return newErr
		}

		customers, newErr := datastore.NewPersistentStore(inner, strategy,
			datastore.WithAutoLoad[Customer](),
			datastore.WithAutoSaveOnChange[Customer](),
			datastore.WithPersistenceLogger[Customer](logger))
		if newErr != nil {
			return newErr
		}

		return datastore.Register[Customer](registry, customers)
	})

	orderRegistrar := datastore.RegistrarFunc(func(registry *datastore.Registry) error {
		orders, newErr := datastore.NewStore[Order](
			datastore.WithComparer(func(a, b Order) bool { return a.OrderID == b.OrderID }))
		if newErr != nil {
			return newErr
		}

		return datastore.Register[Order](registry, orders)
	})

	if err = datastore.Bootstrap(context.Background(), store, customerRegistrar, orderRegistrar); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}

	customers, err := datastore.GetGlobal[Customer](store)
	if err != nil {
		log.Fatalf("failed to resolve customer store: %v", err)
	}

	fmt.Printf("customers loaded from %s: %d\n", statePath, customers.Len())

	ada := Customer{ID: 1, Name: "Ada"}
	if addErr := customers.Add(ada); addErr != nil {
		fmt.Printf("customer %d already known: %v\n", ada.ID, addErr)
	}

	orders, err := datastore.GetGlobal[Order](store)
	if err != nil {
		log.Fatalf("failed to resolve order store: %v", err)
	}

	seedOrders(orders)

	relationship, err := datastore.NewRelationship(store, ada,
		func(parent Customer, candidate Order) bool { return candidate.CustomerID == parent.ID })
	if err != nil {
		log.Fatalf("failed to create relationship: %v", err)
	}

	if err = relationship.UseGlobalDataSource(); err != nil {
		log.Fatalf("failed to bind data source: %v", err)
	}

	if err = relationship.Refresh(); err != nil {
		log.Fatalf("failed to refresh relationship: %v", err)
	}

	for _, order := range relationship.Childs().Items() {
		fmt.Printf("order %s for customer %d: %.2f\n", order.OrderID, order.CustomerID, order.Amount)
	}

	// flush the pending save before exiting
	if persistent, ok := customers.(*datastore.PersistentStore[Customer]); ok {
		persistent.Close()
	}
}

func seedOrders(orders datastore.TypedStore[Order]) {
	seed := []Order{
		{OrderID: "ord-1001", CustomerID: 1, Amount: 19.99},
		{OrderID: "ord-1002", CustomerID: 2, Amount: 120.00},
		{OrderID: "ord-1003", CustomerID: 1, Amount: 42.50},
	}

	if err := orders.AddRange(seed); err != nil {
		log.Fatalf("failed to seed orders: %v", err)
	}
}
