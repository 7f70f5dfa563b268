// Package config holds the desktop configuration: the viewport, dock,
// animation timing, per-application window settings and keybindings.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
)

// Config is the full desktop configuration.
type Config struct {
	Desktop     DesktopConfig           `toml:"desktop"`
	Dock        DockConfig              `toml:"dock"`
	Animation   AnimationConfig         `toml:"animation"`
	Logging     LoggingConfig           `toml:"logging"`
	Apps        map[string]WindowConfig `toml:"apps"`
	Keybindings KeybindingsConfig       `toml:"keybindings"`
}

// DesktopConfig sizes the virtual desktop. Geometry is kept in pixels;
// terminal renderers convert with the cell size.
type DesktopConfig struct {
	Width        float64 `toml:"width"`
	Height       float64 `toml:"height"`
	TopBarHeight float64 `toml:"top_bar_height"`
	CellWidth    float64 `toml:"cell_width"`
	CellHeight   float64 `toml:"cell_height"`
	// Theme is a bubbletint theme id. Empty keeps the built-in palette.
	Theme string `toml:"theme,omitempty"`
}

// DockConfig lays out the dock at the bottom of the desktop.
type DockConfig struct {
	ItemWidth float64 `toml:"item_width"`
	Gap       float64 `toml:"gap"`
	Height    float64 `toml:"height"`
}

// AnimationConfig holds window transition timing.
type AnimationConfig struct {
	Enabled        bool     `toml:"enabled"`
	Move           Duration `toml:"move"`
	FadeOut        Duration `toml:"fade_out"`
	FadeIn         Duration `toml:"fade_in"`
	MinimizeSettle Duration `toml:"minimize_settle"`
	RestoreSettle  Duration `toml:"restore_settle"`
}

// LoggingConfig sets the log level used when --debug is not given.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// WindowConfig is the static configuration of one application window.
type WindowConfig struct {
	Title     string  `toml:"title"`
	Width     float64 `toml:"width"`
	Height    float64 `toml:"height"`
	MinWidth  float64 `toml:"min_width,omitempty"`
	MinHeight float64 `toml:"min_height,omitempty"`
	Resizable bool    `toml:"resizable"`
}

// KeybindingsConfig maps actions to keys.
type KeybindingsConfig struct {
	Desktop map[string][]string `toml:"desktop"`
}

// Duration is a time.Duration written as "600ms" in TOML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	*d = Duration(v)
	return nil
}

// DefaultMinSize applies when a window sets no minimum.
const DefaultMinSize = 300

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	return &Config{
		Desktop: DesktopConfig{
			Width:        1440,
			Height:       900,
			TopBarHeight: 24,
			CellWidth:    10,
			CellHeight:   20,
		},
		Dock: DockConfig{
			ItemWidth: 80,
			Gap:       10,
			Height:    60,
		},
		Animation: AnimationConfig{
			Enabled:        true,
			Move:           Duration(600 * time.Millisecond),
			FadeOut:        Duration(500 * time.Millisecond),
			FadeIn:         Duration(600 * time.Millisecond),
			MinimizeSettle: Duration(500 * time.Millisecond),
			RestoreSettle:  Duration(700 * time.Millisecond),
		},
		Logging: LoggingConfig{Level: "info"},
		Apps: map[string]WindowConfig{
			"terminal":           {Title: "Terminal", Width: 600, Height: 400, Resizable: true},
			"finder":             {Title: "Finder", Width: 800, Height: 500, Resizable: true},
			"chrome":             {Title: "Chrome", Width: 900, Height: 600, Resizable: true},
			"aboutThisMac":       {Title: "About This Mac", Width: 480, Height: 300},
			"aboutThisDeveloper": {Title: "About This Developer", Width: 520, Height: 420},
		},
		Keybindings: KeybindingsConfig{
			Desktop: defaultDesktopKeys(),
		},
	}
}

// Window returns the configuration for app id.
func (c *Config) Window(id string) (WindowConfig, bool) {
	w, ok := c.Apps[id]
	return w, ok
}

// AppIDs returns the configured app ids in sorted order.
func (c *Config) AppIDs() []string {
	ids := make([]string, 0, len(c.Apps))
	for id := range c.Apps {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MinSize returns the effective minimum size of a window.
func (w WindowConfig) MinSize() (float64, float64) {
	mw, mh := w.MinWidth, w.MinHeight
	if mw == 0 {
		mw = DefaultMinSize
	}
	if mh == 0 {
		mh = DefaultMinSize
	}
	return mw, mh
}

// LogLevel parses Logging.Level, falling back to info.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Validate reports every problem in the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Desktop.Width <= 0 || c.Desktop.Height <= 0 {
		errs = append(errs, fmt.Errorf("desktop size must be positive, got %gx%g", c.Desktop.Width, c.Desktop.Height))
	}
	if c.Desktop.CellWidth <= 0 || c.Desktop.CellHeight <= 0 {
		errs = append(errs, errors.New("desktop cell size must be positive"))
	}
	if c.Dock.ItemWidth <= 0 || c.Dock.Gap < 0 {
		errs = append(errs, errors.New("dock item width must be positive and gap non-negative"))
	}
	a := c.Animation
	for name, d := range map[string]Duration{
		"move": a.Move, "fade_out": a.FadeOut, "fade_in": a.FadeIn,
		"minimize_settle": a.MinimizeSettle, "restore_settle": a.RestoreSettle,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("animation.%s must not be negative", name))
		}
	}
	for _, id := range c.AppIDs() {
		w := c.Apps[id]
		if w.Width <= 0 || w.Height <= 0 {
			errs = append(errs, fmt.Errorf("apps.%s: size must be positive", id))
			continue
		}
		mw, mh := w.MinSize()
		if w.Resizable && (w.Width < mw || w.Height < mh) {
			errs = append(errs, fmt.Errorf("apps.%s: %gx%g is below the minimum %gx%g", id, w.Width, w.Height, mw, mh))
		}
	}
	return errors.Join(errs...)
}
