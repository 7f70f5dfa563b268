package window

import (
	"github.com/Gaurav-Gosain/deskos/internal/geometry"
)

// Phase is the state of a window controller. It is one of Floating,
// Minimized, Maximized or Closed.
type Phase interface {
	isPhase()
	String() string
}

// Floating is the normal, freely positioned state.
type Floating struct{}

// Minimized is collapsed into the dock. CameFrom is the phase it was
// minimized from, either Floating or Maximized.
type Minimized struct {
	CameFrom Phase
}

// Maximized fills the available bounds with resizing disabled.
type Maximized struct{}

// Closed is terminal.
type Closed struct{}

func (Floating) isPhase()  {}
func (Minimized) isPhase() {}
func (Maximized) isPhase() {}
func (Closed) isPhase()    {}

func (Floating) String() string  { return "floating" }
func (Maximized) String() string { return "maximized" }
func (Closed) String() string    { return "closed" }

func (m Minimized) String() string {
	if m.CameFrom == nil {
		return "minimized"
	}
	return "minimized (from " + m.CameFrom.String() + ")"
}

// Event drives a controller transition.
type Event interface {
	isEvent()
}

// Minimize collapses the window toward Target, normally the result of
// geometry.MinimizedTarget for its dock slot.
type Minimize struct {
	Target geometry.Geometry
}

// Float brings a minimized window back to its saved floating geometry.
type Float struct{}

// Maximize toggles between floating and Bounds.
type Maximize struct {
	Bounds geometry.Geometry
}

// Close ends the controller.
type Close struct{}

func (Minimize) isEvent() {}
func (Float) isEvent()    {}
func (Maximize) isEvent() {}
func (Close) isEvent()    {}
