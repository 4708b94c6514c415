package grid

import "sync"

// Scheduler runs continuations on the next UI tick.
type Scheduler interface {
	Defer(fn func())
}

// Immediate is a Scheduler that runs continuations inline.
type Immediate struct{}

// Defer runs fn before returning.
func (Immediate) Defer(fn func()) { fn() }

// TickQueue is a Scheduler whose continuations run when the owner calls
// Flush, once per rendered frame. The zero value is ready to use.
type TickQueue struct {
	mu      sync.Mutex
	pending []func()
}

// Defer queues fn for the next Flush.
func (q *TickQueue) Defer(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Len returns the number of queued continuations.
func (q *TickQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush runs queued continuations in order until the queue is empty,
// including any deferred while flushing, and returns how many ran.
func (q *TickQueue) Flush() int {
	ran := 0
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			fn()
			ran++
		}
	}
}
