// Package fixtures provides the shared entity types used by the test suites:
// a small customer/order domain plus an observable note type that exercises
// the per-item change-notification capability.
package fixtures

import (
	"sync"

	"github.com/google/uuid"
)

// Customer is the parent entity of the test domain.
type Customer struct {
	ID   int
	Name string
}

// Order is the child entity of the test domain. OrderID carries a uuid so
// orders with identical customer data stay distinguishable.
type Order struct {
	OrderID    string
	CustomerID int
	Amount     float64
}

// NewOrder creates an order for the given customer with a fresh OrderID.
func NewOrder(customerID int, amount float64) Order {
	return Order{
		OrderID:    uuid.NewString(),
		CustomerID: customerID,
		Amount:     amount,
	}
}

// SameOrderID is an equality comparer matching orders by OrderID only.
func SameOrderID(a, b Order) bool {
	return a.OrderID == b.OrderID
}

// Note is an item type that declares the observable-item capability: callers
// can change its text in place and every attached subscriber is notified.
type Note struct {
	mu       sync.Mutex
	text     string
	handlers map[int]func()
	nextID   int
}

// NewNote creates a Note with the given initial text.
func NewNote(text string) *Note {
	return &Note{
		text:     text,
		handlers: make(map[int]func()),
	}
}

// Text returns the note's current text.
func (n *Note) Text() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.text
}

// SetText changes the note's text and notifies all attached subscribers.
func (n *Note) SetText(text string) {
	n.mu.Lock()
	n.text = text
	handlers := make([]func(), 0, len(n.handlers))
	for _, handler := range n.handlers {
		handlers = append(handlers, handler)
	}
	n.mu.Unlock()

	for _, handler := range handlers {
		handler()
	}
}

// SubscribeChanged implements datastore.ObservableItem.
func (n *Note) SubscribeChanged(handler func()) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.handlers[id] = handler
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.handlers, id)
		n.mu.Unlock()
	}
}

// SubscriberCount returns how many subscribers are currently attached.
func (n *Note) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.handlers)
}
