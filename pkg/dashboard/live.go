package dashboard

import (
	"sync"

	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/notify"
)

// LiveGrid is the layout currently rendered for the active breakpoint.
//
// Subscribers are called synchronously after every SetLayout and must not
// call back into the drag and drop coordinator, which may hold its lock
// while setting the layout.
type LiveGrid struct {
	mu       sync.RWMutex
	l        layout.Layout
	notifier notify.Notifier
}

// NewLiveGrid creates a live grid showing a copy of l.
func NewLiveGrid(l layout.Layout) *LiveGrid {
	return &LiveGrid{l: layout.Copy(l)}
}

// Layout returns a copy of the live layout.
func (g *LiveGrid) Layout() layout.Layout {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return layout.Copy(g.l)
}

// SetLayout replaces the live layout with a copy of l.
func (g *LiveGrid) SetLayout(l layout.Layout) {
	cp := layout.Copy(l)
	g.mu.Lock()
	g.l = cp
	g.mu.Unlock()
	g.notifier.Bump()
}

// Version returns a counter bumped on every SetLayout.
func (g *LiveGrid) Version() uint64 { return g.notifier.Version() }

// Subscribe registers fn to be called after every SetLayout.
func (g *LiveGrid) Subscribe(fn func(version uint64)) (unsubscribe func()) {
	return g.notifier.Subscribe(fn)
}
