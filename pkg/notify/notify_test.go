package notify

import (
	"reflect"
	"sync"
	"testing"
)

func TestNotifierBump(t *testing.T) {
	var n Notifier
	if n.Version() != 0 {
		t.Fatalf("zero value version = %d", n.Version())
	}

	var got []uint64
	unsub := n.Subscribe(func(v uint64) { got = append(got, v) })

	n.Bump()
	n.Bump()
	unsub()
	unsub()
	n.Bump()

	if !reflect.DeepEqual(got, []uint64{1, 2}) {
		t.Errorf("observed %v, want [1 2]", got)
	}
	if n.Version() != 3 {
		t.Errorf("Version() = %d, want 3", n.Version())
	}
}

func TestNotifierOrderAndReentry(t *testing.T) {
	var n Notifier
	var order []string
	n.Subscribe(func(uint64) { order = append(order, "first") })
	n.Subscribe(func(v uint64) {
		// Reading back inside a callback must not deadlock.
		if n.Version() != v {
			t.Errorf("Version() = %d inside callback for %d", n.Version(), v)
		}
		order = append(order, "second")
	})

	n.Bump()
	if !reflect.DeepEqual(order, []string{"first", "second"}) {
		t.Errorf("order = %v", order)
	}
}

func TestNotifierConcurrentBump(t *testing.T) {
	var n Notifier
	var mu sync.Mutex
	calls := 0
	n.Subscribe(func(uint64) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Bump()
		}()
	}
	wg.Wait()

	if n.Version() != 50 || calls != 50 {
		t.Errorf("version = %d, calls = %d, want 50/50", n.Version(), calls)
	}
}
