// Package persist saves and restores the dashboard arrangement: the layout of
// every breakpoint, the design breakpoint and which widgets sit on the
// dashboard versus the palette.
package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/observability"
	"github.com/matzehuels/gridboard/pkg/storage"
)

// Key is the storage key of the snapshot.
const Key = "dashboard-layout-v2"

// Snapshot is the persisted dashboard arrangement.
type Snapshot struct {
	BreakpointLayouts  map[layout.Breakpoint]layout.Layout `json:"breakpointLayouts"`
	DesignBreakpoint   layout.Breakpoint                   `json:"designBreakpoint"`
	DashboardWidgetIDs []layout.ID                         `json:"dashboardWidgetIds"`
	PaletteWidgetIDs   []layout.ID                         `json:"paletteWidgetIds"`
}

// DashboardSet returns the dashboard widget ids as a set.
func (s *Snapshot) DashboardSet() map[layout.ID]struct{} {
	out := make(map[layout.ID]struct{}, len(s.DashboardWidgetIDs))
	for _, id := range s.DashboardWidgetIDs {
		out[id] = struct{}{}
	}
	return out
}

// Store reads and writes the snapshot in a storage backend.
type Store struct {
	backend storage.Backend
	logger  *log.Logger
}

// NewStore creates a Store. A nil logger means log.Default().
func NewStore(b storage.Backend, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{backend: b, logger: logger}
}

// Save writes the snapshot. Every item is written with exactly the persisted
// field set; the input is not retained.
func (s *Store) Save(ctx context.Context, layouts map[layout.Breakpoint]layout.Layout, design layout.Breakpoint, dashboardIDs, paletteIDs []layout.ID) error {
	snap := Snapshot{
		BreakpointLayouts:  make(map[layout.Breakpoint]layout.Layout, len(layouts)),
		DesignBreakpoint:   design,
		DashboardWidgetIDs: append([]layout.ID{}, dashboardIDs...),
		PaletteWidgetIDs:   append([]layout.ID{}, paletteIDs...),
	}
	for bp, l := range layouts {
		snap.BreakpointLayouts[bp] = layout.Copy(l)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	err = s.backend.Set(ctx, Key, data)
	observability.Store().OnSave(ctx, Key, len(data), err)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Debug("saved dashboard layout", "breakpoints", len(layouts), "widgets", len(dashboardIDs))
	return nil
}

// legacyShape detects the single-layout format that preceded per-breakpoint
// layouts.
type legacyShape struct {
	GridLayout        json.RawMessage `json:"gridLayout"`
	BreakpointLayouts json.RawMessage `json:"breakpointLayouts"`
}

// Load returns the stored snapshot, or nil when there is none. A legacy
// snapshot is deleted and reported as none. A malformed one is reported as
// none and left in place. Only backend failures are errors.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	data, ok, err := s.backend.Get(ctx, Key)
	observability.Store().OnLoad(ctx, Key, ok, err)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}

	var shape legacyShape
	if err := json.Unmarshal(data, &shape); err != nil {
		s.discard(ctx, "malformed", err)
		return nil, nil
	}
	if isSet(shape.GridLayout) && !isSet(shape.BreakpointLayouts) {
		s.discard(ctx, "legacy", nil)
		if err := s.backend.Delete(ctx, Key); err != nil {
			return nil, fmt.Errorf("delete legacy snapshot: %w", err)
		}
		return nil, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.discard(ctx, "malformed", err)
		return nil, nil
	}
	return &snap, nil
}

func (s *Store) discard(ctx context.Context, reason string, err error) {
	s.logger.Warn("ignoring stored dashboard layout", "reason", reason, "err", err)
	observability.Store().OnDiscard(ctx, Key, reason)
}

// isSet reports whether a raw JSON field was present with a truthy value.
func isSet(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// Clear removes the stored snapshot.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, Key); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// Has reports whether a snapshot is stored, regardless of its validity.
func (s *Store) Has(ctx context.Context) (bool, error) {
	_, ok, err := s.backend.Get(ctx, Key)
	return ok, err
}
