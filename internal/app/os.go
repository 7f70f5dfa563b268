// Package app provides the Bubble Tea desktop: it renders session snapshots
// and turns keyboard and mouse input into session commands.
package app

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/geometry"
	"github.com/Gaurav-Gosain/deskos/internal/registry"
	"github.com/Gaurav-Gosain/deskos/internal/session"
	"github.com/Gaurav-Gosain/deskos/internal/theme"
	"github.com/Gaurav-Gosain/deskos/internal/ui"
)

// NotificationDuration is how long a notification stays in the top bar.
const NotificationDuration = 3 * time.Second

// eventBuffer bounds the queue between the session bus and the UI loop.
// Events only trigger a snapshot refresh, so dropping one is harmless.
const eventBuffer = 64

// OS represents the desktop state seen by one terminal.
// It owns no window state itself; every change goes through the session
// manager and comes back as a snapshot.
type OS struct {
	Manager         *session.Manager
	Surface         *Surface
	Config          *config.Config
	KeybindRegistry *config.KeybindRegistry
	Logger          *log.Logger

	Width    int // terminal columns
	Height   int // terminal rows
	Snapshot session.Snapshot
	ShowHelp bool

	Dragging     bool
	DragWindowID string
	DragOffsetX  float64 // pixels between the window origin and the pointer
	DragOffsetY  float64
	LastMouseX   int
	LastMouseY   int

	Notifications []Notification

	animating   bool
	ctx         context.Context
	events      chan session.Event
	unsubscribe session.UnsubscribeFunc
	now         func() time.Time
}

// Notification represents a temporary message in the top bar.
type Notification struct {
	ID        string
	Message   string
	Type      string // "info", "error"
	StartTime time.Time
	Duration  time.Duration
}

// Option configures an OS.
type Option func(*OS)

// WithContext bounds every session command issued by the desktop.
func WithContext(ctx context.Context) Option {
	return func(m *OS) { m.ctx = ctx }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *OS) { m.Logger = l }
}

// WithClock replaces the time source used for animation sampling.
func WithClock(now func() time.Time) Option {
	return func(m *OS) { m.now = now }
}

// New builds the desktop model for a manager rendering onto surf.
func New(mgr *session.Manager, surf *Surface, cfg *config.Config, opts ...Option) *OS {
	m := &OS{
		Manager:         mgr,
		Surface:         surf,
		Config:          cfg,
		KeybindRegistry: config.NewKeybindRegistry(cfg),
		Logger:          log.Default(),
		ctx:             context.Background(),
		events:          make(chan session.Event, eventBuffer),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.unsubscribe = mgr.Subscribe(func(ev session.Event) {
		select {
		case m.events <- ev:
		default:
		}
	})
	m.Refresh()
	return m
}

// Now returns the desktop clock.
func (m *OS) Now() time.Time {
	return m.now()
}

// Refresh reloads the snapshot from the manager.
func (m *OS) Refresh() {
	snap, err := m.Manager.Snapshot(m.ctx)
	if err != nil {
		m.Logger.Debug("snapshot failed", "err", err)
		return
	}
	m.Snapshot = snap
}

// Cleanup detaches the desktop from the session bus.
func (m *OS) Cleanup() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// ShowNotification displays a temporary notification.
func (m *OS) ShowNotification(message, notifType string, duration time.Duration) {
	m.Notifications = append(m.Notifications, Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Type:      notifType,
		StartTime: m.now(),
		Duration:  duration,
	})
}

// CleanupNotifications removes expired notifications.
func (m *OS) CleanupNotifications() {
	now := m.now()
	var active []Notification
	for _, n := range m.Notifications {
		if now.Sub(n.StartTime) < n.Duration {
			active = append(active, n)
		}
	}
	m.Notifications = active
}

// report surfaces a command result. Rejections are expected user mistakes
// and show up as notifications; anything else is logged too.
func (m *OS) report(err error) {
	m.Refresh()
	if err == nil {
		return
	}
	var nf *registry.NotFoundError
	if errors.As(err, &nf) {
		m.Logger.Debug("command rejected", "err", err)
	} else {
		m.Logger.Warn("command failed", "err", err)
	}
	m.ShowNotification(err.Error(), "error", NotificationDuration)
}

// FocusedWindow returns the snapshot of the focused window.
func (m *OS) FocusedWindow() (session.WindowSnapshot, bool) {
	if m.Snapshot.Focused == "" {
		return session.WindowSnapshot{}, false
	}
	return m.Snapshot.Window(m.Snapshot.Focused)
}

// Activate is the dock behaviour: open a closed app, restore a minimized
// one, or bring an open one to the front.
func (m *OS) Activate(id string) {
	w, open := m.Snapshot.Window(id)
	switch {
	case !open:
		m.report(m.Manager.OpenWindow(m.ctx, id))
	case w.Minimized:
		m.report(m.Manager.RestoreWindow(m.ctx, id))
	case !w.Focused:
		m.report(m.Manager.FocusWindow(m.ctx, id))
	}
}

// ActivateDockItem activates the n-th dock item, 1-based.
func (m *OS) ActivateDockItem(n int) {
	if n < 1 || n > len(m.Snapshot.DockOrder) {
		return
	}
	m.Activate(m.Snapshot.DockOrder[n-1])
}

// FocusWindow raises id unless it is already on top.
func (m *OS) FocusWindow(id string) {
	if m.Snapshot.Focused == id {
		return
	}
	m.report(m.Manager.FocusWindow(m.ctx, id))
}

// CloseWindow closes id.
func (m *OS) CloseWindow(id string) {
	m.report(m.Manager.CloseWindow(m.ctx, id))
}

// MinimizeWindow sends id to the dock.
func (m *OS) MinimizeWindow(id string) {
	m.report(m.Manager.MinimizeWindow(m.ctx, id))
}

// ToggleMaximize maximizes or unmaximizes id.
func (m *OS) ToggleMaximize(id string) {
	m.report(m.Manager.ToggleMaximize(m.ctx, id))
}

// RestoreAll brings every minimized window back.
func (m *OS) RestoreAll() {
	m.report(m.Manager.RestoreAll(m.ctx))
}

// CycleFocus moves focus through the visible windows.
func (m *OS) CycleFocus(forward bool) {
	m.report(m.Manager.CycleFocus(m.ctx, forward))
}

// ApplyConfig swaps in a reloaded configuration.
func (m *OS) ApplyConfig(cfg *config.Config) {
	if err := m.Manager.UpdateConfig(m.ctx, cfg); err != nil {
		m.report(err)
		return
	}
	if cfg.Desktop.Theme != m.Config.Desktop.Theme && !theme.Initialize(cfg.Desktop.Theme) {
		m.Logger.Warn("unknown theme, using default", "theme", cfg.Desktop.Theme)
	}
	m.Config = cfg
	m.KeybindRegistry = config.NewKeybindRegistry(cfg)
	m.Surface.SetViewport(session.Viewport(cfg))
	m.ShowNotification("Configuration reloaded", "info", NotificationDuration)
	m.Refresh()
}

// CellSize returns how many pixels one terminal cell covers. The whole
// desktop viewport is scaled into the terminal.
func (m *OS) CellSize() (float64, float64) {
	vp := session.Viewport(m.Config)
	if m.Width > 0 && m.Height > 0 {
		return vp.Width / float64(m.Width), vp.Height / float64(m.Height)
	}
	return m.Config.Desktop.CellWidth, m.Config.Desktop.CellHeight
}

// ToPixels maps the center of a cell to desktop pixels.
func (m *OS) ToPixels(x, y int) (float64, float64) {
	cw, ch := m.CellSize()
	return (float64(x) + 0.5) * cw, (float64(y) + 0.5) * ch
}

// CellRect is a rectangle in terminal cells.
type CellRect struct {
	X, Y, Width, Height int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r CellRect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// ToCells maps a pixel rectangle onto the cell grid.
func (m *OS) ToCells(r ui.Rect) CellRect {
	cw, ch := m.CellSize()
	x0 := int(math.Round(r.X / cw))
	y0 := int(math.Round(r.Y / ch))
	x1 := int(math.Round((r.X + r.Width) / cw))
	y1 := int(math.Round((r.Y + r.Height) / ch))
	return CellRect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// TopBarRows is the height of the top bar in cells.
func (m *OS) TopBarRows() int {
	_, ch := m.CellSize()
	return max(1, int(math.Round(m.Config.Desktop.TopBarHeight/ch)))
}

// DockRows is the height of the dock in cells.
func (m *OS) DockRows() int {
	_, ch := m.CellSize()
	return max(1, int(math.Round(m.Config.Dock.Height/ch)))
}

// WindowBox returns where id is drawn at now.
func (m *OS) WindowBox(id string, now time.Time) (CellRect, FrameState, bool) {
	f, ok := m.Surface.Frame(id, now)
	if !ok {
		return CellRect{}, FrameState{}, false
	}
	return m.ToCells(f.Rect), f, true
}

// WindowAt returns the topmost visible window under the cell (x, y).
func (m *OS) WindowAt(x, y int) (string, bool) {
	now := m.now()
	for i := len(m.Snapshot.Windows) - 1; i >= 0; i-- {
		w := m.Snapshot.Windows[i]
		if w.Minimized {
			continue
		}
		box, _, ok := m.WindowBox(w.ID, now)
		if ok && box.Contains(x, y) {
			return w.ID, true
		}
	}
	return "", false
}

// DockItemAt returns the dock app under the cell (x, y).
func (m *OS) DockItemAt(x, y int) (string, bool) {
	if y < m.Height-m.DockRows() {
		return "", false
	}
	px, _ := m.ToPixels(x, y)
	vp := m.Snapshot.Viewport
	for _, id := range m.Snapshot.DockOrder {
		slot, ok := m.Snapshot.DockSlots[id]
		if !ok {
			continue
		}
		// the dock strip spans every row, so only x decides
		if slot.Contains(px, slot.Y, vp) {
			return id, true
		}
	}
	return "", false
}

// Button is a traffic light on a window's title bar.
type Button int

const (
	NoButton Button = iota
	CloseButton
	MinimizeButton
	MaximizeButton
)

// titleRow is the title bar row inside a window box; buttons sit on it.
const titleRow = 1

var buttonColumns = map[int]Button{
	2: CloseButton,
	4: MinimizeButton,
	6: MaximizeButton,
}

// ButtonAt returns the traffic light at a position relative to the window
// box origin.
func ButtonAt(localX, localY int) Button {
	if localY != titleRow {
		return NoButton
	}
	return buttonColumns[localX]
}

// InTitleBar reports whether a position relative to the window box origin
// grabs the title bar.
func InTitleBar(localX, localY int, box CellRect) bool {
	return localY <= titleRow && localX > 0 && localX < box.Width-1
}

// StartDrag begins moving id with the pointer at cell (x, y).
func (m *OS) StartDrag(id string, x, y int) {
	g, err := m.Surface.Geometry(id)
	if err != nil {
		return
	}
	px, py := m.ToPixels(x, y)
	m.Dragging = true
	m.DragWindowID = id
	m.DragOffsetX = px - g.X
	m.DragOffsetY = py - g.Y
	m.LastMouseX, m.LastMouseY = x, y
}

// DragTo moves the dragged window so the grab point follows the pointer.
// The top edge never goes above the top bar.
func (m *OS) DragTo(x, y int) {
	if !m.Dragging {
		return
	}
	px, py := m.ToPixels(x, y)
	p := geometry.Point{
		X: geometry.Round(px - m.DragOffsetX),
		Y: geometry.Round(max(py-m.DragOffsetY, m.Config.Desktop.TopBarHeight)),
	}
	if err := m.Surface.Drag(m.DragWindowID, p); err != nil {
		m.Logger.Debug("drag target vanished", "window", m.DragWindowID, "err", err)
		m.Dragging = false
		return
	}
	m.LastMouseX, m.LastMouseY = x, y
}

// StopDrag reports the final position to the session manager.
func (m *OS) StopDrag() {
	if !m.Dragging {
		return
	}
	id := m.DragWindowID
	m.Dragging = false
	m.DragWindowID = ""
	g, err := m.Surface.Geometry(id)
	if err != nil {
		return
	}
	m.report(m.Manager.DragStop(m.ctx, id, g))
}
