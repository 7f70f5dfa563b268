package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Default Configuration Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}

	if cfg.Animation.RestoreSettle.Std() != 700*time.Millisecond {
		t.Errorf("Expected restore settle 700ms, got %v", cfg.Animation.RestoreSettle.Std())
	}
	if cfg.Animation.MinimizeSettle.Std() != 500*time.Millisecond {
		t.Errorf("Expected minimize settle 500ms, got %v", cfg.Animation.MinimizeSettle.Std())
	}
}

func TestDefaultApps(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		id        string
		width     float64
		height    float64
		resizable bool
	}{
		{"terminal", 600, 400, true},
		{"finder", 800, 500, true},
		{"chrome", 900, 600, true},
		{"aboutThisMac", 480, 300, false},
		{"aboutThisDeveloper", 520, 420, false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			w, ok := cfg.Window(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.width, w.Width)
			assert.Equal(t, tt.height, w.Height)
			assert.Equal(t, tt.resizable, w.Resizable)
			assert.NotEmpty(t, w.Title)
		})
	}
}

func TestMinSizeDefaults(t *testing.T) {
	mw, mh := config.WindowConfig{Width: 500, Height: 500}.MinSize()
	assert.Equal(t, float64(config.DefaultMinSize), mw)
	assert.Equal(t, float64(config.DefaultMinSize), mh)

	mw, mh = config.WindowConfig{MinWidth: 100, MinHeight: 50}.MinSize()
	assert.Equal(t, 100.0, mw)
	assert.Equal(t, 50.0, mh)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Desktop.Width = 0
	cfg.Apps["terminal"] = config.WindowConfig{Width: 100, Height: 100, Resizable: true}
	cfg.Animation.FadeIn = config.Duration(-time.Second)

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "desktop size")
	assert.Contains(t, msg, "apps.terminal")
	assert.Contains(t, msg, "animation.fade_in")
}

// =============================================================================
// Loader Tests
// =============================================================================

func TestParsePartialFileKeepsDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`
[animation]
restore_settle = "1s"

[apps.terminal]
width = 700

[apps.spotify]
width = 400
height = 350
resizable = true

[keybindings.desktop]
quit = ["ctrl+q"]
`))
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Animation.RestoreSettle.Std())
	assert.Equal(t, 600*time.Millisecond, cfg.Animation.Move.Std())
	assert.True(t, cfg.Animation.Enabled)

	term := cfg.Apps["terminal"]
	assert.Equal(t, 700.0, term.Width)
	assert.Equal(t, 400.0, term.Height)
	assert.True(t, term.Resizable)
	assert.Equal(t, "Terminal", term.Title)

	spotify := cfg.Apps["spotify"]
	assert.Equal(t, "spotify", spotify.Title)
	assert.True(t, spotify.Resizable)

	assert.Equal(t, []string{"ctrl+q"}, cfg.Keybindings.Desktop[config.ActionQuit])
	assert.Equal(t, []string{"m"}, cfg.Keybindings.Desktop[config.ActionMinimizeWindow])
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown key", "[desktop]\nwallpaper = \"night.png\"\n"},
		{"bad duration", "[animation]\nmove = \"fast\"\n"},
		{"syntax", "[desktop\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deskos", "config.toml")
	cfg := config.DefaultConfig()
	cfg.Dock.Gap = 4
	cfg.Apps["finder"] = config.WindowConfig{Title: "Files", Width: 820, Height: 520, Resizable: true}

	require.NoError(t, config.Save(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# deskos configuration file"))
	assert.Contains(t, string(data), "restore_settle")
	assert.Contains(t, string(data), "700ms")

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DESKOS_WIDTH", "1920")
	t.Setenv("DESKOS_RESTORE_SETTLE", "250ms")
	t.Setenv("DESKOS_ANIMATIONS", "false")

	cfg := config.DefaultConfig()
	require.NoError(t, config.ApplyEnv(cfg))

	assert.Equal(t, 1920.0, cfg.Desktop.Width)
	assert.Equal(t, 900.0, cfg.Desktop.Height)
	assert.Equal(t, 250*time.Millisecond, cfg.Animation.RestoreSettle.Std())
	assert.False(t, cfg.Animation.Enabled)
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv("DESKOS_HEIGHT", "tall")
	assert.Error(t, config.ApplyEnv(config.DefaultConfig()))
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, config.WriteDefault(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- config.Watch(ctx, path, 20*time.Millisecond, func(cfg *config.Config, err error) {
			if err == nil {
				reloaded <- cfg
			}
		})
	}()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	cfg := config.DefaultConfig()
	cfg.Dock.ItemWidth = 96
	require.NoError(t, config.Save(cfg, path))

	select {
	case got := <-reloaded:
		assert.Equal(t, 96.0, got.Dock.ItemWidth)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	require.NoError(t, <-done)
}

// =============================================================================
// KeybindRegistry Tests
// =============================================================================

func TestKeybindRegistry_GetKeys(t *testing.T) {
	registry := config.NewKeybindRegistry(config.DefaultConfig())

	keys := registry.GetKeys(config.ActionMinimizeWindow)
	if len(keys) == 0 {
		t.Error("Expected minimize_window to have keys")
	}
}

func TestKeybindRegistry_GetAction(t *testing.T) {
	registry := config.NewKeybindRegistry(config.DefaultConfig())

	tests := []struct {
		key    string
		action string
	}{
		{"m", config.ActionMinimizeWindow},
		{"M", config.ActionRestoreAll},
		{"shift+m", config.ActionRestoreAll},
		{"Ctrl+C", config.ActionQuit},
		{"return", config.ActionToggleMaximize},
		{"shift+tab", config.ActionPrevWindow},
		{"3", config.ActionOpenApp(3)},
		{"ctrl+shift+alt+super+hyper+x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.action, registry.GetAction(tt.key))
		})
	}
}

func TestKeybindRegistry_GetKeysForDisplay(t *testing.T) {
	registry := config.NewKeybindRegistry(config.DefaultConfig())

	assert.Equal(t, "q, Ctrl+c", registry.GetKeysForDisplay(config.ActionQuit))
	assert.Empty(t, registry.GetKeysForDisplay("nonexistent_action"))
}

func TestGetKeybindingsSections(t *testing.T) {
	sections := config.GetKeybindings(nil)
	require.NotEmpty(t, sections)

	titles := make([]string, len(sections))
	for i, s := range sections {
		titles[i] = s.Title
	}
	assert.Equal(t, []string{"WINDOWS", "DOCK", "GENERAL", "MOUSE"}, titles)
	assert.Len(t, sections[1].Bindings, 5)
}

// =============================================================================
// Key Normalizer Tests
// =============================================================================

func TestKeyNormalizer(t *testing.T) {
	normalizer := config.NewKeyNormalizer()

	tests := []struct {
		input    string
		expected string
	}{
		{"ctrl+a", "ctrl+a"},
		{"Ctrl+A", "ctrl+a"},
		{"CTRL+A", "ctrl+a"},
		{"return", "enter"},
		{"escape", "esc"},
		{"control+b", "ctrl+b"},
		{"M", "shift+m"},
		{"shift+m", "M"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := normalizer.NormalizeKey(tc.input)
			assert.Contains(t, got, tc.expected)
		})
	}
}

func TestKeyNormalizer_ValidateKey(t *testing.T) {
	normalizer := config.NewKeyNormalizer()

	tests := []struct {
		input   string
		isValid bool
	}{
		{"ctrl+a", true},
		{"n", true},
		{"enter", true},
		{"option+x", true},
		{"hyper+x", false},
		{"ctrl+", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			valid, _ := normalizer.ValidateKey(tc.input)
			if valid != tc.isValid {
				t.Errorf("ValidateKey(%q) = %v, want %v", tc.input, valid, tc.isValid)
			}
		})
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkKeybindRegistry_GetAction(b *testing.B) {
	registry := config.NewKeybindRegistry(config.DefaultConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = registry.GetAction("m")
	}
}
