// Package theme stores the dashboard's colour preferences and derives chart
// colours from them.
package theme

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridboard/pkg/errors"
	"github.com/matzehuels/gridboard/pkg/observability"
	"github.com/matzehuels/gridboard/pkg/storage"
)

// Key is the storage key of the theme preferences.
const Key = "dashboard-theme"

// Defaults.
const (
	DefaultPrimary = "azia"
	DefaultSurface = "slate"
	DefaultDark    = true
)

// Config is the persisted theme choice.
type Config struct {
	Primary string `json:"primary"`
	Surface string `json:"surface"`
	IsDark  bool   `json:"isDark"`
}

// Default returns the default theme.
func Default() Config {
	return Config{Primary: DefaultPrimary, Surface: DefaultSurface, IsDark: DefaultDark}
}

// Validate reports unknown palette names.
func (c Config) Validate() error {
	if _, ok := findPalette(Primaries, c.Primary); !ok {
		return errors.New(errors.ErrCodeInvalidTheme, "unknown primary palette %q", c.Primary)
	}
	if _, ok := findPalette(Surfaces, c.Surface); !ok {
		return errors.New(errors.ErrCodeInvalidTheme, "unknown surface palette %q", c.Surface)
	}
	return nil
}

// Charts returns the chart palette for the primary colour.
func (c Config) Charts() ChartPalette { return ChartPaletteFor(c.Primary) }

// ChartColor returns the i-th colour of the combined main and light palettes,
// cycling.
func (c Config) ChartColor(i int) string {
	p := c.Charts()
	all := make([]string, 0, len(p.Main)+len(p.Light))
	all = append(append(all, p.Main...), p.Light...)
	return all[mod(i, len(all))]
}

// LightChartColor returns the i-th light colour, cycling.
func (c Config) LightChartColor(i int) string {
	p := c.Charts()
	return p.Light[mod(i, len(p.Light))]
}

// MainPalette returns a copy of the main chart colours.
func (c Config) MainPalette() []string {
	return append([]string(nil), c.Charts().Main...)
}

func mod(i, n int) int {
	return ((i % n) + n) % n
}

// Store reads and writes theme preferences.
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

// storedConfig keeps fields optional so each can fall back on its own.
type storedConfig struct {
	Primary *string `json:"primary"`
	Surface *string `json:"surface"`
	IsDark  *bool   `json:"isDark"`
}

// Load returns the stored theme. Missing or malformed preferences yield the
// default, and each unknown or mistyped field falls back to its default
// independently. A backend failure is returned together with the default.
func (s *Store) Load(ctx context.Context) (Config, error) {
	cfg := Default()
	data, ok, err := s.backend.Get(ctx, Key)
	observability.Store().OnLoad(ctx, Key, ok, err)
	if err != nil {
		return cfg, fmt.Errorf("load theme: %w", err)
	}
	if !ok {
		return cfg, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("ignoring stored theme", "reason", "malformed", "err", err)
		observability.Store().OnDiscard(ctx, Key, "malformed")
		return cfg, nil
	}
	var stored storedConfig
	decodeField(raw, "primary", &stored.Primary)
	decodeField(raw, "surface", &stored.Surface)
	decodeField(raw, "isDark", &stored.IsDark)

	if stored.Primary != nil {
		if _, ok := findPalette(Primaries, *stored.Primary); ok {
			cfg.Primary = *stored.Primary
		}
	}
	if stored.Surface != nil {
		if _, ok := findPalette(Surfaces, *stored.Surface); ok {
			cfg.Surface = *stored.Surface
		}
	}
	if stored.IsDark != nil {
		cfg.IsDark = *stored.IsDark
	}
	return cfg, nil
}

// decodeField decodes raw[name] into dst, leaving dst nil on a type mismatch.
func decodeField[T any](raw map[string]json.RawMessage, name string, dst **T) {
	v, ok := raw[name]
	if !ok {
		return
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil || string(v) == "null" {
		return
	}
	*dst = &out
}

// Save validates and writes cfg.
func (s *Store) Save(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	err = s.backend.Set(ctx, Key, data)
	observability.Store().OnSave(ctx, Key, len(data), err)
	if err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}
