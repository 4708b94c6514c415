// Package config loads gridboard's TOML configuration file.
//
// The file lives at $XDG_CONFIG_HOME/gridboard/config.toml (falling back to
// ~/.config/gridboard/config.toml). Every field is optional:
//
//	[grid]
//	row_height = 40
//	margin = [16, 16]
//	design_breakpoint = "lg"
//
//	[grid.columns]
//	lg = 12
//	xs = 4
//
//	[storage]
//	kind = "redis"
//	namespace = "team-a:"
//
//	[storage.redis]
//	addr = "cache.internal:6379"
//
//	[server]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gridboard/pkg/errors"
	"github.com/matzehuels/gridboard/pkg/grid"
	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/storage"
)

// AppName names the config and data directories.
const AppName = "gridboard"

// DefaultAddr is the server's default listen address.
const DefaultAddr = "127.0.0.1:8080"

// Grid overrides parts of the stock grid configuration.
type Grid struct {
	Columns          map[string]int `toml:"columns"`
	Thresholds       map[string]int `toml:"thresholds"`
	RowHeight        int            `toml:"row_height"`
	Margin           []int          `toml:"margin"`
	DesignBreakpoint string         `toml:"design_breakpoint"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
	// Concurrency caps concurrent widget initializers per dashboard.
	Concurrency int `toml:"concurrency"`
	// Latency adds simulated fetch latency to the sample widgets, e.g. "300ms".
	Latency string `toml:"latency"`
}

// Config is the whole file.
type Config struct {
	Grid    Grid           `toml:"grid"`
	Storage storage.Config `toml:"storage"`
	Server  Server         `toml:"server"`
}

// Default returns the configuration used when no file exists: file storage
// under the data directory and the stock grid.
func Default() Config {
	cfg := Config{
		Storage: storage.Config{Kind: storage.KindFile},
		Server:  Server{Addr: DefaultAddr},
	}
	if dir, err := DataDir(); err == nil {
		cfg.Storage.Dir = filepath.Join(dir, "store")
	}
	return cfg
}

// Load reads path over the defaults. A missing file is not an error. An
// empty path means the default location.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the grid and server sections.
func (c Config) Validate() error {
	if _, err := c.GridConfig(); err != nil {
		return err
	}
	if c.Server.Addr != "" {
		if err := errors.ValidateAddr(c.Server.Addr); err != nil {
			return err
		}
	}
	if c.Server.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server concurrency must not be negative")
	}
	return nil
}

// GridConfig merges the [grid] section into the stock grid configuration.
func (c Config) GridConfig() (grid.Config, error) {
	out := grid.DefaultConfig()
	g := c.Grid

	for name, n := range g.Columns {
		bp, err := layout.ParseBreakpoint(name)
		if err != nil {
			return out, err
		}
		out.Columns[bp] = n
	}
	for name, px := range g.Thresholds {
		bp, err := layout.ParseBreakpoint(name)
		if err != nil {
			return out, err
		}
		out.Thresholds[bp] = px
	}
	if g.RowHeight != 0 {
		out.RowHeight = g.RowHeight
	}
	switch len(g.Margin) {
	case 0:
	case 1:
		out.Margin = [2]int{g.Margin[0], g.Margin[0]}
	case 2:
		out.Margin = [2]int{g.Margin[0], g.Margin[1]}
	default:
		return out, errors.New(errors.ErrCodeInvalidConfig, "grid margin takes one or two values, got %d", len(g.Margin))
	}
	if g.DesignBreakpoint != "" {
		bp, err := layout.ParseBreakpoint(g.DesignBreakpoint)
		if err != nil {
			return out, err
		}
		out.DesignBreakpoint = bp
	}
	return out, out.Validate()
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// DataDir returns the data directory ($XDG_DATA_HOME/gridboard, or
// ~/.local/share/gridboard).
func DataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}
