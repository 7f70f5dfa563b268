package app

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/session"
)

const (
	// NormalFPS drives animations and drags.
	NormalFPS = 60
	// IdleFPS keeps the clock and notifications current.
	IdleFPS = 2
)

// TickerMsg is the slow periodic tick that keeps the clock current.
type TickerMsg time.Time

// FrameMsg drives animation frames while something moves.
type FrameMsg time.Time

// SessionEventMsg carries an event published by the session manager.
type SessionEventMsg struct {
	Event session.Event
}

// ConfigReloadMsg delivers a configuration read after the file changed.
type ConfigReloadMsg struct {
	Config *config.Config
	Err    error
}

// InputHandler is a function type that handles input messages.
// This allows the Update method to delegate to the input package without creating a circular dependency.
type InputHandler func(msg tea.Msg, o *OS) (tea.Model, tea.Cmd)

// inputHandler is the registered input handler function.
var inputHandler InputHandler

// SetInputHandler registers the input handler function.
// This must be called during initialization before the Update loop runs.
func SetInputHandler(handler InputHandler) {
	inputHandler = handler
}

// Init starts the tick timer and listens for session events.
func (m *OS) Init() tea.Cmd {
	return tea.Batch(
		TickCmd(),
		ListenForEvents(m.events),
	)
}

// ListenForEvents creates a command that waits for the next session event.
func ListenForEvents(ch <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return SessionEventMsg{Event: ev}
	}
}

// TickCmd creates a command that generates tick messages at IdleFPS.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second/IdleFPS, func(t time.Time) tea.Msg {
		return TickerMsg(t)
	})
}

// FrameCmd schedules the next animation frame.
func FrameCmd() tea.Cmd {
	return tea.Tick(time.Second/NormalFPS, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// animate starts the frame loop if a surface is moving and no loop runs.
func (m *OS) animate() tea.Cmd {
	if m.animating || !m.Surface.Animating(m.now()) {
		return nil
	}
	m.animating = true
	return FrameCmd()
}

// Update handles all incoming messages and updates the desktop state.
func (m *OS) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickerMsg:
		m.CleanupNotifications()
		return m, TickCmd()

	case FrameMsg:
		if m.Surface.Animating(m.now()) {
			return m, FrameCmd()
		}
		m.animating = false
		return m, nil

	case SessionEventMsg:
		m.Refresh()
		return m, tea.Batch(ListenForEvents(m.events), m.animate())

	case ConfigReloadMsg:
		if msg.Err != nil {
			m.Logger.Warn("config reload failed", "err", msg.Err)
			m.ShowNotification("Config error: "+msg.Err.Error(), "error", NotificationDuration)
			return m, nil
		}
		m.ApplyConfig(msg.Config)
		return m, m.animate()

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyPressMsg, tea.MouseClickMsg, tea.MouseMotionMsg, tea.MouseReleaseMsg:
		if inputHandler != nil {
			model, cmd := inputHandler(msg, m)
			return model, tea.Batch(cmd, m.animate())
		}
		return m, nil
	}

	return m, nil
}
