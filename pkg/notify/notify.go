// Package notify publishes version bumps to observers.
//
// State holders embed a Notifier and call Bump after every mutation. Readers
// either compare Version against a value they saw earlier or Subscribe to be
// called back with each new version, so they never need to poll the state
// itself.
package notify

import (
	"sort"
	"sync"
)

// Notifier is a monotonically increasing version counter with subscribers.
// The zero value is ready to use.
type Notifier struct {
	mu      sync.Mutex
	version uint64
	nextID  int
	subs    map[int]func(uint64)
}

// Version returns the current version.
func (n *Notifier) Version() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.version
}

// Subscribe registers fn to be called with every new version. The returned
// function removes the subscription; calling it more than once is harmless.
func (n *Notifier) Subscribe(fn func(version uint64)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(uint64))
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Bump increments the version and calls subscribers in subscription order.
// Subscribers run on the caller's goroutine after the internal lock is
// released, so they may read the state that was just changed.
func (n *Notifier) Bump() uint64 {
	n.mu.Lock()
	n.version++
	v := n.version
	ids := make([]int, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(uint64), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, n.subs[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
	return v
}
