package doubles

import (
	"sync"
)

// QueueDispatcher is a datastore.Dispatcher that queues dispatched functions
// instead of running them, so tests can observe that handler invocation was
// marshalled off the mutating goroutine and then run the queue deterministically.
type QueueDispatcher struct {
	mu    sync.Mutex
	queue []func()
}

// NewQueueDispatcher creates a new, empty QueueDispatcher.
func NewQueueDispatcher() *QueueDispatcher {
	return &QueueDispatcher{}
}

// Dispatch queues fn without running it; it never blocks.
func (d *QueueDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.queue = append(d.queue, fn)
}

// Pending returns the number of queued, not yet drained functions.
func (d *QueueDispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.queue)
}

// Drain runs all queued functions in dispatch order and empties the queue.
func (d *QueueDispatcher) Drain() {
	d.mu.Lock()
	queued := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, fn := range queued {
		fn()
	}
}
