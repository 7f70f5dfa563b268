package session

import (
	"slices"

	"github.com/Gaurav-Gosain/deskos/internal/apps"
	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/geometry"
)

// Viewport returns the desktop viewport described by cfg.
func Viewport(cfg *config.Config) geometry.Viewport {
	return geometry.Viewport{Width: cfg.Desktop.Width, Height: cfg.Desktop.Height}
}

// DockOrder lists the dock items: registered apps first, then any other
// configured ids. Apps without a window configuration are left out.
func DockOrder(cfg *config.Config, reg *apps.Registry) []string {
	ids := slices.Clone(reg.IDs())
	for _, id := range cfg.AppIDs() {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return slices.DeleteFunc(ids, func(id string) bool {
		_, ok := cfg.Window(id)
		return !ok
	})
}

// DockSlots lays out one dock item per app, centered along the bottom edge.
func DockSlots(cfg *config.Config, ids []string) map[string]geometry.Geometry {
	slots := make(map[string]geometry.Geometry, len(ids))
	n := float64(len(ids))
	if n == 0 {
		return slots
	}
	item, gap := cfg.Dock.ItemWidth, cfg.Dock.Gap
	total := n*item + (n-1)*gap
	startX := geometry.Round((cfg.Desktop.Width - total) / 2)
	y := cfg.Desktop.Height - cfg.Dock.Height
	for i, id := range ids {
		x := startX + float64(i)*(item+gap)
		slots[id] = geometry.Rect(x, y, item, cfg.Dock.Height)
	}
	return slots
}

// MaximizedBounds is the area between the top bar and the dock.
func MaximizedBounds(cfg *config.Config) geometry.Geometry {
	top := cfg.Desktop.TopBarHeight
	return geometry.Rect(0, top, cfg.Desktop.Width, cfg.Desktop.Height-top-cfg.Dock.Height)
}
