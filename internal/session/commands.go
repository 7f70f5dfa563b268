package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/apps"
	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/geometry"
	"github.com/Gaurav-Gosain/deskos/internal/registry"
	"github.com/Gaurav-Gosain/deskos/internal/window"
)

// OpenWindow opens id centered in the viewport, focused and on top.
func (m *Manager) OpenWindow(ctx context.Context, id string) error {
	return m.command(ctx, "open", id, func() (bool, error) {
		if m.reg.IsOpen(id) {
			return false, &registry.AlreadyOpenError{ID: id}
		}
		wc, ok := m.cfg.Window(id)
		if !ok {
			return false, fmt.Errorf("%w: %s", apps.ErrUnknownApp, id)
		}
		view, err := m.apps.Lookup(id)
		if err != nil && !errors.Is(err, apps.ErrUnknownApp) {
			return false, err
		}

		initial := geometry.Centered(geometry.PxSize(wc.Width, wc.Height), Viewport(m.cfg))
		if err := m.surface.Mount(id, initial); err != nil {
			return false, fmt.Errorf("mount %s: %w", id, err)
		}
		if err := m.surface.SetResizable(id, wc.Resizable); err != nil {
			_ = m.surface.Unmount(id)
			return false, fmt.Errorf("mount %s: %w", id, err)
		}

		timing := timingFrom(m.cfg)
		m.windows[id] = &windowState{
			id: id,
			ctrl: window.New(id, m.surface, window.Options{
				Resizable: wc.Resizable,
				Timing:    &timing,
				Scheduler: m.loopScheduler(id),
			}),
			cfg:      wc,
			view:     view,
			openedAt: time.Now(),
		}
		if err := m.reg.Open(id); err != nil {
			return false, err
		}
		m.metrics.AddWindows(1, 0)
		m.publish(EventOpened, id)
		return true, nil
	})
}

// CloseWindow closes id, cancelling any pending animation, and moves focus
// to the next visible window.
func (m *Manager) CloseWindow(ctx context.Context, id string) error {
	return m.command(ctx, "close", id, func() (bool, error) {
		if err := m.reg.CanClose(id); err != nil {
			return false, err
		}
		minimized := m.reg.IsMinimized(id)
		ws := m.windows[id]
		if _, err := ws.ctrl.Handle(window.Close{}); err != nil {
			return false, err
		}
		if err := m.reg.Close(id); err != nil {
			return false, err
		}
		delete(m.windows, id)
		if err := m.surface.Unmount(id); err != nil {
			m.logger.Warn("unmount failed", "window", id, "err", err)
		}
		m.metrics.AddWindows(-1, -boolInt(minimized))
		m.publish(EventClosed, id)
		return true, nil
	})
}

// MinimizeWindow collapses id into its dock slot. Minimizing a minimized
// window does nothing.
func (m *Manager) MinimizeWindow(ctx context.Context, id string) error {
	return m.command(ctx, "minimize", id, func() (bool, error) {
		return m.minimize(id)
	})
}

func (m *Manager) minimize(id string) (bool, error) {
	if err := m.reg.CanMinimize(id); err != nil {
		return false, err
	}
	target := geometry.MinimizedTarget(m.dockSlot(id), Viewport(m.cfg))
	changed, err := m.windows[id].ctrl.Handle(window.Minimize{Target: target})
	if err != nil || !changed {
		return false, err
	}
	if err := m.reg.Minimize(id); err != nil {
		return false, err
	}
	m.metrics.AddWindows(0, 1)
	m.publish(EventMinimized, id)
	return true, nil
}

// RestoreWindow brings a minimized window back to where it was, focused and
// on top.
func (m *Manager) RestoreWindow(ctx context.Context, id string) error {
	return m.command(ctx, "restore", id, func() (bool, error) {
		return m.restore(id)
	})
}

func (m *Manager) restore(id string) (bool, error) {
	if err := m.reg.CanRestore(id); err != nil {
		return false, err
	}
	if _, err := m.windows[id].ctrl.Handle(window.Float{}); err != nil {
		return false, err
	}
	if err := m.reg.Restore(id); err != nil {
		return false, err
	}
	m.metrics.AddWindows(0, -1)
	m.publish(EventRestored, id)
	return true, nil
}

// RestoreAll restores every minimized window in dock order.
func (m *Manager) RestoreAll(ctx context.Context) error {
	return m.command(ctx, "restore_all", "", func() (bool, error) {
		var errs []error
		restored := false
		for _, id := range m.reg.Minimized() {
			ok, err := m.restore(id)
			if err != nil {
				errs = append(errs, err)
			}
			restored = restored || ok
		}
		return restored, errors.Join(errs...)
	})
}

// ToggleMaximize maximizes a floating window or puts a maximized one back.
// Windows that are not resizable ignore it, as do minimized windows. A window
// that changes state is focused.
func (m *Manager) ToggleMaximize(ctx context.Context, id string) error {
	return m.command(ctx, "maximize", id, func() (bool, error) {
		if err := m.reg.CanClose(id); err != nil {
			return false, err
		}
		ctrl := m.windows[id].ctrl
		changed, err := ctrl.Handle(window.Maximize{Bounds: MaximizedBounds(m.cfg)})
		if errors.Is(err, registry.ErrUnsupported) {
			m.logger.Debug("maximize ignored", "window", id, "reason", err)
			return false, nil
		}
		if err != nil || !changed {
			return false, err
		}
		if err := m.reg.Focus(id); err != nil {
			return false, err
		}
		if _, ok := ctrl.Phase().(window.Maximized); ok {
			m.publish(EventMaximized, id)
		} else {
			m.publish(EventUnmaximized, id)
		}
		return true, nil
	})
}

// FocusWindow raises id above every other window and focuses it.
func (m *Manager) FocusWindow(ctx context.Context, id string) error {
	return m.command(ctx, "focus", id, func() (bool, error) {
		if err := m.reg.Focus(id); err != nil {
			return false, err
		}
		m.publish(EventFocused, id)
		return true, nil
	})
}

// DragStop is reported by a surface when the user releases a dragged
// window. The window is focused and g is recorded on the surface as its
// live geometry.
func (m *Manager) DragStop(ctx context.Context, id string, g geometry.Geometry) error {
	return m.command(ctx, "drag_stop", id, func() (bool, error) {
		if err := m.reg.CanFocus(id); err != nil {
			return false, err
		}
		g.X, g.Y = geometry.Round(g.X), geometry.Round(g.Y)
		if err := m.surface.SetPosition(id, g.Point()); err != nil {
			return false, fmt.Errorf("drag %s: %w", id, err)
		}
		if err := m.surface.SetSize(id, g.Size()); err != nil {
			return false, fmt.Errorf("drag %s: %w", id, err)
		}
		if err := m.reg.Focus(id); err != nil {
			return false, err
		}
		m.publishMoved(id, g)
		return true, nil
	})
}

// CycleFocus walks the visible windows by stacking order. Forward brings
// the bottom-most window to the top; backward focuses the window directly
// below the focused one.
func (m *Manager) CycleFocus(ctx context.Context, forward bool) error {
	return m.command(ctx, "cycle_focus", "", func() (bool, error) {
		var visible []string
		for _, id := range m.reg.Stacking() {
			if !m.reg.IsMinimized(id) {
				visible = append(visible, id)
			}
		}
		var next string
		_, focused := m.reg.Focused()
		switch {
		case len(visible) == 0:
			return false, nil
		case !focused:
			next = visible[len(visible)-1]
		case len(visible) == 1:
			return false, nil
		case forward:
			next = visible[0]
		default:
			next = visible[len(visible)-2]
		}
		if err := m.reg.Focus(next); err != nil {
			return false, err
		}
		m.publish(EventFocused, next)
		return true, nil
	})
}

// UpdateConfig applies a reloaded configuration to the open windows.
// Geometry of open windows is left alone; sizes apply to the next open.
func (m *Manager) UpdateConfig(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	return m.command(ctx, "update_config", "", func() (bool, error) {
		m.cfg = cfg
		m.dockOrder = m.computeDockOrder()
		timing := timingFrom(cfg)
		for id, ws := range m.windows {
			wc, ok := cfg.Window(id)
			if !ok {
				continue
			}
			ws.cfg = wc
			ws.ctrl.SetTiming(timing)
			ws.ctrl.SetResizable(wc.Resizable)
			if _, floating := ws.ctrl.Phase().(window.Floating); floating {
				if err := m.surface.SetResizable(id, wc.Resizable); err != nil {
					return false, err
				}
			}
		}
		m.publish(EventConfig, "")
		return true, nil
	})
}

func (m *Manager) dockSlot(id string) geometry.Geometry {
	return DockSlots(m.cfg, m.dockOrder)[id]
}
