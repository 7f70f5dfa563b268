// Package input turns keyboard and mouse events into desktop actions.
package input

import (
	tea "charm.land/bubbletea/v2"

	"github.com/Gaurav-Gosain/deskos/internal/app"
	"github.com/Gaurav-Gosain/deskos/internal/config"
)

// HandleInput is registered with app.SetInputHandler.
func HandleInput(msg tea.Msg, o *app.OS) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return HandleKey(msg, o)
	case tea.MouseClickMsg:
		return handleMouseClick(msg, o)
	case tea.MouseMotionMsg:
		return handleMouseMotion(msg, o)
	case tea.MouseReleaseMsg:
		return handleMouseRelease(msg, o)
	}
	return o, nil
}

// HandleKey resolves a key press through the keybinding registry.
func HandleKey(msg tea.KeyPressMsg, o *app.OS) (*app.OS, tea.Cmd) {
	key := msg.String()

	// The help overlay swallows everything except its own close keys
	if o.ShowHelp {
		if key == "esc" || o.KeybindRegistry.GetAction(key) == config.ActionToggleHelp {
			o.ShowHelp = false
		}
		return o, nil
	}

	action := o.KeybindRegistry.GetAction(key)
	if action == "" {
		return o, nil
	}
	o.Logger.Debug("key", "key", key, "action", action)
	return GetDispatcher().Dispatch(action, msg, o)
}
