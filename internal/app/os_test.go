package app

import (
	"io"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gaurav-Gosain/deskos/internal/apps"
	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/geometry"
	"github.com/Gaurav-Gosain/deskos/internal/session"
	"github.com/Gaurav-Gosain/deskos/internal/ui"
)

func newTestOS(t *testing.T, cfg *config.Config) *OS {
	t.Helper()
	logger := log.New(io.Discard)
	surf := NewSurface(session.Viewport(cfg))
	mgr := session.NewManager(surf, cfg, session.WithLogger(logger))
	t.Cleanup(func() { _ = mgr.Close() })
	o := New(mgr, surf, cfg, WithLogger(logger))
	t.Cleanup(o.Cleanup)
	o.Update(tea.WindowSizeMsg{Width: 144, Height: 45})
	return o
}

func staticConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Animation.Enabled = false
	return cfg
}

func TestCellMapping(t *testing.T) {
	o := newTestOS(t, staticConfig())

	cw, ch := o.CellSize()
	assert.Equal(t, 10.0, cw)
	assert.Equal(t, 20.0, ch)
	assert.Equal(t, 1, o.TopBarRows())
	assert.Equal(t, 3, o.DockRows())

	x, y := o.ToPixels(3, 4)
	assert.Equal(t, 35.0, x)
	assert.Equal(t, 90.0, y)

	assert.Equal(t, CellRect{X: 42, Y: 13, Width: 60, Height: 20},
		o.ToCells(ui.Rect{X: 420, Y: 250, Width: 600, Height: 400}))

	// before the terminal reports a size, the configured cell size is used
	o.Width, o.Height = 0, 0
	cw, ch = o.CellSize()
	assert.Equal(t, 10.0, cw)
	assert.Equal(t, 20.0, ch)
}

func TestCellMappingScalesSmallTerminals(t *testing.T) {
	o := newTestOS(t, staticConfig())
	o.Update(tea.WindowSizeMsg{Width: 72, Height: 30})

	cw, ch := o.CellSize()
	assert.Equal(t, 20.0, cw)
	assert.Equal(t, 30.0, ch)
	assert.Equal(t, 2, o.DockRows())
}

func TestButtonAt(t *testing.T) {
	tests := []struct {
		x, y int
		want Button
	}{
		{2, 1, CloseButton},
		{4, 1, MinimizeButton},
		{6, 1, MaximizeButton},
		{3, 1, NoButton},
		{2, 0, NoButton},
		{2, 2, NoButton},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ButtonAt(tt.x, tt.y), "(%d,%d)", tt.x, tt.y)
	}
}

func TestRenderDesktop(t *testing.T) {
	o := newTestOS(t, staticConfig())
	o.Activate(apps.Finder)

	out := o.Render(time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC))
	lines := ansi.Strip(out)

	assert.Equal(t, 45, len(splitLines(out)))
	for _, l := range splitLines(out) {
		assert.Equal(t, 144, ansi.StringWidth(l))
	}
	assert.Contains(t, lines, "deskos  Finder")
	assert.Contains(t, lines, "Mon Mar 2 09:05")
	assert.Contains(t, lines, "●")
	for _, title := range []string{"Terminal", "Chrome"} {
		assert.Contains(t, lines, title, "dock label")
	}
}

func TestRenderSkipsMinimized(t *testing.T) {
	o := newTestOS(t, staticConfig())
	o.Activate(apps.Chrome)
	require.Contains(t, ansi.Strip(o.Render(time.Now())), "╭")

	o.MinimizeWindow(apps.Chrome)
	assert.NotContains(t, ansi.Strip(o.Render(time.Now())), "╭")
	assert.Contains(t, ansi.Strip(o.Render(time.Now())), "◦")
}

func TestRenderHelpOverlay(t *testing.T) {
	o := newTestOS(t, staticConfig())
	o.ShowHelp = true

	out := ansi.Strip(o.Render(time.Now()))
	assert.Contains(t, out, "WINDOWS")
	assert.Contains(t, out, "Minimize window")
	assert.Contains(t, out, "press ? or esc to close")
}

func TestRejectedCommandShowsNotification(t *testing.T) {
	o := newTestOS(t, staticConfig())

	o.CloseWindow(apps.Terminal)
	require.Len(t, o.Notifications, 1)
	assert.Equal(t, "error", o.Notifications[0].Type)
	assert.Contains(t, ansi.Strip(o.Render(time.Now())), "not open")
}

func TestNotificationsExpire(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	o := newTestOS(t, staticConfig())
	o.now = func() time.Time { return now }

	o.ShowNotification("hello", "info", time.Second)
	o.CleanupNotifications()
	require.Len(t, o.Notifications, 1)

	now = now.Add(2 * time.Second)
	o.Update(TickerMsg(now))
	assert.Empty(t, o.Notifications)
}

func TestSessionEventRefreshesSnapshot(t *testing.T) {
	o := newTestOS(t, staticConfig())
	require.NoError(t, o.Manager.OpenWindow(t.Context(), apps.Terminal))

	var ev session.Event
	select {
	case ev = <-o.events:
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	assert.Equal(t, session.EventOpened, ev.Type)

	o.Update(SessionEventMsg{Event: ev})
	assert.True(t, o.Snapshot.IsOpen(apps.Terminal))
}

func TestApplyConfig(t *testing.T) {
	o := newTestOS(t, staticConfig())

	cfg := staticConfig()
	cfg.Keybindings.Desktop[config.ActionToggleHelp] = []string{"h"}
	o.Update(ConfigReloadMsg{Config: cfg})

	assert.Same(t, cfg, o.Config)
	assert.Equal(t, config.ActionToggleHelp, o.KeybindRegistry.GetAction("h"))
	require.NotEmpty(t, o.Notifications)
	assert.Equal(t, "Configuration reloaded", o.Notifications[len(o.Notifications)-1].Message)
}

func TestAnimationFramesStopWhenSettled(t *testing.T) {
	cfg := config.DefaultConfig()
	o := newTestOS(t, cfg)
	o.Activate(apps.Terminal)
	o.MinimizeWindow(apps.Terminal)

	require.True(t, o.Surface.Animating(time.Now()))
	assert.NotNil(t, o.animate())
	assert.Nil(t, o.animate(), "one frame loop at a time")

	o.now = func() time.Time { return time.Now().Add(time.Second) }
	_, cmd := o.Update(FrameMsg(o.now()))
	assert.Nil(t, cmd)
	assert.False(t, o.animating)

	g, err := o.Surface.Geometry(apps.Terminal)
	require.NoError(t, err)
	assert.Equal(t, geometry.Rect(500, 900, 300, 300), g)
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}
