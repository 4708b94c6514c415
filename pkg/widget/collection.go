package widget

import (
	"sync"

	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/notify"
)

// Collection is an ordered set of widgets, unique by id.
type Collection struct {
	mu       sync.RWMutex
	items    []*Widget
	notifier notify.Notifier
}

// NewCollection creates a collection holding ws. Later duplicates of an id
// are dropped.
func NewCollection(ws ...*Widget) *Collection {
	c := &Collection{}
	c.items = appendUnique(nil, ws)
	return c
}

func appendUnique(dst []*Widget, ws []*Widget) []*Widget {
	seen := make(map[layout.ID]struct{}, len(dst)+len(ws))
	for _, w := range dst {
		seen[w.ID()] = struct{}{}
	}
	for _, w := range ws {
		if w == nil {
			continue
		}
		if _, dup := seen[w.ID()]; dup {
			continue
		}
		seen[w.ID()] = struct{}{}
		dst = append(dst, w)
	}
	return dst
}

// List returns the widgets in order.
func (c *Collection) List() []*Widget {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Widget(nil), c.items...)
}

// Len returns the number of widgets.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// IDs returns the widget ids in order.
func (c *Collection) IDs() []layout.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]layout.ID, len(c.items))
	for i, w := range c.items {
		ids[i] = w.ID()
	}
	return ids
}

// ByID returns the widget with the given id.
func (c *Collection) ByID(id layout.ID) (*Widget, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, w := range c.items {
		if w.ID() == id {
			return w, true
		}
	}
	return nil, false
}

// Contains reports whether a widget with the given id is present.
func (c *Collection) Contains(id layout.ID) bool {
	_, ok := c.ByID(id)
	return ok
}

// Add appends widgets whose id is not yet present.
func (c *Collection) Add(ws ...*Widget) {
	c.mu.Lock()
	n := len(c.items)
	c.items = appendUnique(c.items, ws)
	changed := len(c.items) != n
	c.mu.Unlock()

	if changed {
		c.notifier.Bump()
	}
}

// Take removes the widgets whose id is in ids and returns them in
// collection order.
func (c *Collection) Take(ids map[layout.ID]struct{}) []*Widget {
	c.mu.Lock()
	var taken []*Widget
	kept := c.items[:0:0]
	for _, w := range c.items {
		if _, ok := ids[w.ID()]; ok {
			taken = append(taken, w)
			continue
		}
		kept = append(kept, w)
	}
	c.items = kept
	c.mu.Unlock()

	if len(taken) > 0 {
		c.notifier.Bump()
	}
	return taken
}

// Replace sets the collection's content.
func (c *Collection) Replace(ws ...*Widget) {
	c.mu.Lock()
	c.items = appendUnique(nil, ws)
	c.mu.Unlock()
	c.notifier.Bump()
}

// Overrides returns the breakpoint overrides of every widget that has some.
func (c *Collection) Overrides() layout.OverridesMap {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(layout.OverridesMap)
	for _, w := range c.items {
		if len(w.BreakpointOverrides) > 0 {
			out[w.ID()] = w.BreakpointOverrides
		}
	}
	return out
}

// Version returns a counter bumped on every membership change.
func (c *Collection) Version() uint64 { return c.notifier.Version() }

// Subscribe registers fn to be called after every membership change.
func (c *Collection) Subscribe(fn func(version uint64)) (unsubscribe func()) {
	return c.notifier.Subscribe(fn)
}
