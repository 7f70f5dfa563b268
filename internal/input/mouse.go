package input

import (
	tea "charm.land/bubbletea/v2"

	"github.com/Gaurav-Gosain/deskos/internal/app"
)

// handleMouseClick handles mouse click events
func handleMouseClick(msg tea.MouseClickMsg, o *app.OS) (*app.OS, tea.Cmd) {
	mouse := msg.Mouse()
	if mouse.Button != tea.MouseLeft {
		return o, nil
	}
	X, Y := mouse.X, mouse.Y

	if o.ShowHelp {
		o.ShowHelp = false
		return o, nil
	}

	// Dock clicks open or restore
	if id, ok := o.DockItemAt(X, Y); ok {
		o.Activate(id)
		return o, nil
	}

	if Y < o.TopBarRows() {
		return o, nil
	}

	id, ok := o.WindowAt(X, Y)
	if !ok {
		// Consume the event even if no window is hit
		return o, nil
	}
	o.FocusWindow(id)

	box, _, ok := o.WindowBox(id, o.Now())
	if !ok {
		return o, nil
	}
	localX, localY := X-box.X, Y-box.Y

	switch app.ButtonAt(localX, localY) {
	case app.CloseButton:
		o.CloseWindow(id)
		return o, nil
	case app.MinimizeButton:
		o.MinimizeWindow(id)
		return o, nil
	case app.MaximizeButton:
		o.ToggleMaximize(id)
		return o, nil
	}

	// Maximized windows stay put
	if w, ok := o.Snapshot.Window(id); ok && !w.Maximized && app.InTitleBar(localX, localY, box) {
		o.StartDrag(id, X, Y)
	}
	return o, nil
}

// handleMouseMotion moves the dragged window
func handleMouseMotion(msg tea.MouseMotionMsg, o *app.OS) (*app.OS, tea.Cmd) {
	if !o.Dragging {
		return o, nil
	}
	mouse := msg.Mouse()
	if mouse.X == o.LastMouseX && mouse.Y == o.LastMouseY {
		return o, nil
	}
	o.DragTo(mouse.X, mouse.Y)
	return o, nil
}

// handleMouseRelease finishes a drag
func handleMouseRelease(_ tea.MouseReleaseMsg, o *app.OS) (*app.OS, tea.Cmd) {
	o.StopDrag()
	return o, nil
}
