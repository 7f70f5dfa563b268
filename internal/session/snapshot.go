package session

import (
	"context"
	"slices"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/apps"
	"github.com/Gaurav-Gosain/deskos/internal/geometry"
	"github.com/Gaurav-Gosain/deskos/internal/window"
)

// WindowSnapshot is the read-only state of one open window.
type WindowSnapshot struct {
	ID            string
	Title         string
	ZIndex        int
	Focused       bool
	Minimized     bool
	Phase         window.Phase
	Maximized     bool
	Resizable     bool
	Geometry      geometry.Geometry
	PendingSettle bool
	OpenedAt      time.Time
	View          apps.View
}

// Snapshot is a consistent copy of the session state taken between two
// commands.
type Snapshot struct {
	SessionID string
	Viewport  geometry.Viewport
	// Windows are sorted by ascending z-index.
	Windows   []WindowSnapshot
	Minimized []string
	Focused   string
	DockOrder []string
	DockSlots map[string]geometry.Geometry
}

// Window returns the snapshot of id.
func (s Snapshot) Window(id string) (WindowSnapshot, bool) {
	for _, w := range s.Windows {
		if w.ID == id {
			return w, true
		}
	}
	return WindowSnapshot{}, false
}

// IsOpen reports whether id is open.
func (s Snapshot) IsOpen(id string) bool {
	_, ok := s.Window(id)
	return ok
}

// Stacking returns the open ids by ascending z-index.
func (s Snapshot) Stacking() []string {
	ids := make([]string, len(s.Windows))
	for i, w := range s.Windows {
		ids[i] = w.ID
	}
	return ids
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := m.do(ctx, func() error {
		snap = m.snapshot()
		return nil
	})
	return snap, err
}

func (m *Manager) snapshot() Snapshot {
	focused, _ := m.reg.Focused()
	snap := Snapshot{
		SessionID: m.id,
		Viewport:  Viewport(m.cfg),
		Minimized: m.reg.Minimized(),
		Focused:   focused,
		DockOrder: slices.Clone(m.dockOrder),
		DockSlots: DockSlots(m.cfg, m.dockOrder),
	}
	for _, rec := range m.reg.Records() {
		ws := m.windows[rec.ID]
		phase := ws.ctrl.Phase()
		_, maximized := phase.(window.Maximized)
		g, err := m.surface.Geometry(rec.ID)
		if err != nil {
			m.logger.Warn("snapshot geometry", "window", rec.ID, "err", err)
		}
		snap.Windows = append(snap.Windows, WindowSnapshot{
			ID:            rec.ID,
			Title:         ws.cfg.Title,
			ZIndex:        rec.ZIndex,
			Focused:       rec.Focused,
			Minimized:     m.reg.IsMinimized(rec.ID),
			Phase:         phase,
			Maximized:     maximized,
			Resizable:     ws.ctrl.Resizable(),
			Geometry:      g,
			PendingSettle: ws.ctrl.PendingSettle(),
			OpenedAt:      ws.openedAt,
			View:          ws.view,
		})
	}
	slices.SortFunc(snap.Windows, func(a, b WindowSnapshot) int {
		return a.ZIndex - b.ZIndex
	})
	return snap
}

// Validate checks the registry invariants between commands.
func (m *Manager) Validate(ctx context.Context) error {
	return m.do(ctx, func() error {
		return m.reg.Validate()
	})
}
