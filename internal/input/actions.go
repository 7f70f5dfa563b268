package input

import (
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/Gaurav-Gosain/deskos/internal/app"
	"github.com/Gaurav-Gosain/deskos/internal/config"
)

// maxDockShortcuts is how many open_app_N actions are registered.
const maxDockShortcuts = 9

// ActionHandler is a function that handles a specific action
type ActionHandler func(msg tea.KeyPressMsg, o *app.OS) (*app.OS, tea.Cmd)

// ActionDispatcher maps action names to handler functions
type ActionDispatcher struct {
	handlers map[string]ActionHandler
}

// NewActionDispatcher creates a new action dispatcher with all handlers registered
func NewActionDispatcher() *ActionDispatcher {
	d := &ActionDispatcher{
		handlers: make(map[string]ActionHandler),
	}
	d.registerHandlers()
	return d
}

func (d *ActionDispatcher) registerHandlers() {
	// Window management
	d.Register(config.ActionCloseWindow, handleCloseWindow)
	d.Register(config.ActionMinimizeWindow, handleMinimizeWindow)
	d.Register(config.ActionToggleMaximize, handleToggleMaximize)
	d.Register(config.ActionRestoreAll, handleRestoreAll)
	d.Register(config.ActionNextWindow, handleNextWindow)
	d.Register(config.ActionPrevWindow, handlePrevWindow)

	// Dock shortcuts (1-9)
	for i := 1; i <= maxDockShortcuts; i++ {
		d.Register(config.ActionOpenApp(i), makeOpenAppHandler(i))
	}

	d.Register(config.ActionToggleHelp, handleToggleHelp)
	d.Register(config.ActionQuit, handleQuit)
}

// Register adds an action handler
func (d *ActionDispatcher) Register(action string, handler ActionHandler) {
	d.handlers[action] = handler
}

// Dispatch executes the handler for a given action
func (d *ActionDispatcher) Dispatch(action string, msg tea.KeyPressMsg, o *app.OS) (*app.OS, tea.Cmd) {
	if handler, ok := d.handlers[action]; ok {
		return handler(msg, o)
	}
	return o, nil
}

// HasAction checks if an action is registered
func (d *ActionDispatcher) HasAction(action string) bool {
	_, ok := d.handlers[action]
	return ok
}

// Global action dispatcher instance
var globalDispatcher = NewActionDispatcher()

// GetDispatcher returns the global action dispatcher
func GetDispatcher() *ActionDispatcher {
	return globalDispatcher
}

func handleCloseWindow(_ tea.KeyPressMsg, o *app.OS) (*app.OS, tea.Cmd) {
	if w, ok := o.FocusedWindow(); ok {
		o.CloseWindow(w.ID)
	}
	return o, nil
}

func handleMinimizeWindow(_ tea.KeyPressMsg, o *app.OS) (*app.OS, tea.Cmd) {
	if w, ok := o.FocusedWindow(); ok {
		o.MinimizeWindow(w.ID)
	}
	return o, nil
}

func handleToggleMaximize(_ tea.KeyPressMsg, o *app.OS) (*app.OS, tea.Cmd) {
	if w, ok := o.FocusedWindow(); ok {
		o.ToggleMaximize(w.ID)
	}
	return o, nil
}

func handleRestoreAll(_ tea.KeyPressMsg, o *app.OS) (*app.OS, tea.Cmd) {
	if len(o.Snapshot.Minimized) == 0 {
		o.ShowNotification("Nothing to restore", "info", app.NotificationDuration)
		return o, nil
	}
	o.RestoreAll()
	return o, nil
}

func handleNextWindow(_ tea.KeyPressMsg, o *app.OS) (*app.OS, tea.Cmd) {
	o.CycleFocus(true)
	return o, nil
}

func handlePrevWindow(_ tea.KeyPressMsg, o *app.OS) (*app.OS, tea.Cmd) {
	o.CycleFocus(false)
	return o, nil
}

func makeOpenAppHandler(n int) ActionHandler {
	return func(_ tea.KeyPressMsg, o *app.OS) (*app.OS, tea.Cmd) {
		if n > len(o.Snapshot.DockOrder) {
			o.ShowNotification(fmt.Sprintf("No app in dock slot %d", n), "info", app.NotificationDuration)
			return o, nil
		}
		o.ActivateDockItem(n)
		return o, nil
	}
}

func handleToggleHelp(_ tea.KeyPressMsg, o *app.OS) (*app.OS, tea.Cmd) {
	o.ShowHelp = !o.ShowHelp
	return o, nil
}

func handleQuit(_ tea.KeyPressMsg, o *app.OS) (*app.OS, tea.Cmd) {
	// Close help if showing
	if o.ShowHelp {
		o.ShowHelp = false
		return o, nil
	}
	o.Cleanup()
	return o, tea.Quit
}
