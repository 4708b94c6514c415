package grid

import (
	"github.com/matzehuels/gridboard/pkg/errors"
	"github.com/matzehuels/gridboard/pkg/layout"
)

// Default grid settings.
const (
	DefaultColumnCount = 12
	DefaultRowHeight   = 40
	DefaultGap         = 16
)

// Config describes the responsive grid.
type Config struct {
	// Columns is the column count per breakpoint.
	Columns          layout.Columns    `json:"cols"`
	// Thresholds is the minimum viewport width per breakpoint, in pixels.
	Thresholds       layout.Thresholds `json:"breakpoints"`
	// RowHeight is the height of one grid row, in pixels.
	RowHeight        int               `json:"rowHeight"`
	// Margin is the [horizontal, vertical] gap between cells, in pixels.
	Margin           [2]int            `json:"margin"`
	// DesignBreakpoint is the breakpoint the widgets' base layouts are authored for.
	DesignBreakpoint layout.Breakpoint `json:"designBreakpoint"`
}

// DefaultConfig returns the stock grid configuration.
func DefaultConfig() Config {
	return ConfigFor(DefaultColumnCount)
}

// ConfigFor returns the stock configuration with columnCount columns at the
// widest breakpoint.
func ConfigFor(columnCount int) Config {
	return Config{
		Columns:          layout.ColumnsFor(columnCount),
		Thresholds:       layout.DefaultThresholds(),
		RowHeight:        DefaultRowHeight,
		Margin:           [2]int{DefaultGap, DefaultGap},
		DesignBreakpoint: layout.LG,
	}
}

// Validate checks that every breakpoint with a threshold also has a positive
// column count and that the design breakpoint is one of them.
func (c Config) Validate() error {
	if len(c.Thresholds) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "grid config has no breakpoints")
	}
	for bp := range c.Thresholds {
		if c.Columns[bp] < 1 {
			return errors.New(errors.ErrCodeInvalidConfig, "breakpoint %s needs a positive column count, got %d", bp, c.Columns[bp])
		}
	}
	if _, ok := c.Thresholds[c.DesignBreakpoint]; !ok {
		return errors.New(errors.ErrCodeInvalidConfig, "design breakpoint %q has no threshold", c.DesignBreakpoint)
	}
	if c.RowHeight < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "row height must be positive, got %d", c.RowHeight)
	}
	if c.Margin[0] < 0 || c.Margin[1] < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "margin must not be negative, got %v", c.Margin)
	}
	return nil
}
