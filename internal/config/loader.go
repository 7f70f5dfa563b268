package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override, e.g. DESKOS_WIDTH.
const EnvPrefix = "deskos"

// GetConfigPath returns the path of the user configuration file, creating
// its directory if needed.
func GetConfigPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("deskos", "config.toml"))
}

// LoadUserConfig loads the user configuration from its default location. A
// missing file is created with the defaults.
func LoadUserConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("could not determine config path: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := WriteDefault(path); err != nil {
			return nil, err
		}
	}
	return Load(path)
}

// Load reads the configuration at path over the defaults and then applies
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// fileConfig mirrors Config with optional fields so a partial file only
// overrides what it sets.
type fileConfig struct {
	Desktop   *DesktopConfig        `toml:"desktop"`
	Dock      *DockConfig           `toml:"dock"`
	Animation *animationFile        `toml:"animation"`
	Logging   *LoggingConfig        `toml:"logging"`
	Apps      map[string]windowFile `toml:"apps"`

	Keybindings struct {
		Desktop map[string][]string `toml:"desktop"`
	} `toml:"keybindings"`
}

type animationFile struct {
	Enabled        *bool     `toml:"enabled"`
	Move           *Duration `toml:"move"`
	FadeOut        *Duration `toml:"fade_out"`
	FadeIn         *Duration `toml:"fade_in"`
	MinimizeSettle *Duration `toml:"minimize_settle"`
	RestoreSettle  *Duration `toml:"restore_settle"`
}

type windowFile struct {
	Title     *string  `toml:"title"`
	Width     *float64 `toml:"width"`
	Height    *float64 `toml:"height"`
	MinWidth  *float64 `toml:"min_width"`
	MinHeight *float64 `toml:"min_height"`
	Resizable *bool    `toml:"resizable"`
}

// Parse decodes TOML over DefaultConfig. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var f fileConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("invalid config at line %d, column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg := DefaultConfig()
	if f.Desktop != nil {
		mergeDesktop(&cfg.Desktop, *f.Desktop)
	}
	if f.Dock != nil {
		mergeDock(&cfg.Dock, *f.Dock)
	}
	if f.Logging != nil && f.Logging.Level != "" {
		cfg.Logging.Level = f.Logging.Level
	}
	if a := f.Animation; a != nil {
		set(&cfg.Animation.Enabled, a.Enabled)
		set(&cfg.Animation.Move, a.Move)
		set(&cfg.Animation.FadeOut, a.FadeOut)
		set(&cfg.Animation.FadeIn, a.FadeIn)
		set(&cfg.Animation.MinimizeSettle, a.MinimizeSettle)
		set(&cfg.Animation.RestoreSettle, a.RestoreSettle)
	}
	for id, wf := range f.Apps {
		w := cfg.Apps[id]
		set(&w.Title, wf.Title)
		set(&w.Width, wf.Width)
		set(&w.Height, wf.Height)
		set(&w.MinWidth, wf.MinWidth)
		set(&w.MinHeight, wf.MinHeight)
		set(&w.Resizable, wf.Resizable)
		if w.Title == "" {
			w.Title = id
		}
		cfg.Apps[id] = w
	}
	for action, keys := range f.Keybindings.Desktop {
		cfg.Keybindings.Desktop[action] = keys
	}
	return cfg, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func mergeDesktop(dst *DesktopConfig, src DesktopConfig) {
	if src.Width > 0 {
		dst.Width = src.Width
	}
	if src.Height > 0 {
		dst.Height = src.Height
	}
	if src.TopBarHeight > 0 {
		dst.TopBarHeight = src.TopBarHeight
	}
	if src.CellWidth > 0 {
		dst.CellWidth = src.CellWidth
	}
	if src.CellHeight > 0 {
		dst.CellHeight = src.CellHeight
	}
	if src.Theme != "" {
		dst.Theme = src.Theme
	}
}

func mergeDock(dst *DockConfig, src DockConfig) {
	if src.ItemWidth > 0 {
		dst.ItemWidth = src.ItemWidth
	}
	if src.Gap > 0 {
		dst.Gap = src.Gap
	}
	if src.Height > 0 {
		dst.Height = src.Height
	}
}

// envOverrides are read from DESKOS_* variables. Unset variables leave the
// file value alone.
type envOverrides struct {
	Width          *float64       `envconfig:"WIDTH"`
	Height         *float64       `envconfig:"HEIGHT"`
	Animations     *bool          `envconfig:"ANIMATIONS"`
	MinimizeSettle *time.Duration `envconfig:"MINIMIZE_SETTLE"`
	RestoreSettle  *time.Duration `envconfig:"RESTORE_SETTLE"`
	LogLevel       *string        `envconfig:"LOG_LEVEL"`
	Theme          *string        `envconfig:"THEME"`
}

// ApplyEnv applies DESKOS_* environment overrides to cfg.
func ApplyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	set(&cfg.Desktop.Width, env.Width)
	set(&cfg.Desktop.Height, env.Height)
	set(&cfg.Animation.Enabled, env.Animations)
	set(&cfg.Logging.Level, env.LogLevel)
	set(&cfg.Desktop.Theme, env.Theme)
	if env.MinimizeSettle != nil {
		cfg.Animation.MinimizeSettle = Duration(*env.MinimizeSettle)
	}
	if env.RestoreSettle != nil {
		cfg.Animation.RestoreSettle = Duration(*env.RestoreSettle)
	}
	return nil
}

// Marshal encodes cfg as a commented TOML document.
func Marshal(cfg *Config, path string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# deskos configuration file\n")
	buf.WriteString("# Window sizes are in pixels of the virtual desktop.\n")
	buf.WriteString("# Durations use Go syntax, e.g. \"600ms\".\n")
	buf.WriteString("# Any DESKOS_* environment variable overrides the matching value.\n")
	if path != "" {
		buf.WriteString("#\n# Configuration location: " + path + "\n")
	}
	buf.WriteString("\n")

	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes cfg to path.
func Save(cfg *Config, path string) error {
	data, err := Marshal(cfg, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	return Save(DefaultConfig(), path)
}
