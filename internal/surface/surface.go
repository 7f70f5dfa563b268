// Package surface defines the capability the session manager uses to move,
// resize and fade window surfaces, along with an in-memory implementation.
package surface

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/geometry"
)

// ErrUnknownSurface is returned for operations on an id that is not mounted.
var ErrUnknownSurface = errors.New("unknown surface")

// Controller abstracts the rendering surface of every window. The manager
// never draws anything itself; it only issues these commands.
type Controller interface {
	Mount(id string, initial geometry.Geometry) error
	Unmount(id string) error

	SetPosition(id string, p geometry.Point) error
	SetSize(id string, s geometry.Size) error
	SetOpacity(id string, v float64) error
	SetTransition(id string, t Transition) error
	SetResizable(id string, resizable bool) error

	// Geometry returns the geometry the surface is rendered at right now.
	Geometry(id string) (geometry.Geometry, error)
}

// TransitionProperty names an animatable surface property.
type TransitionProperty string

const (
	PropWidth     TransitionProperty = "width"
	PropHeight    TransitionProperty = "height"
	PropTransform TransitionProperty = "transform"
	PropOpacity   TransitionProperty = "opacity"
)

// TransitionEntry animates one property over a duration.
type TransitionEntry struct {
	Property TransitionProperty
	Duration time.Duration
}

// Transition is a CSS-like transition list. The zero value means no
// transition: changes apply instantly.
type Transition []TransitionEntry

// NoTransition clears any active transition.
var NoTransition Transition

// IsNone reports whether t animates nothing.
func (t Transition) IsNone() bool {
	return len(t) == 0
}

// Duration returns how long the longest entry runs.
func (t Transition) Duration() time.Duration {
	var d time.Duration
	for _, e := range t {
		d = max(d, e.Duration)
	}
	return d
}

// For returns the duration for a property, or zero if it is not animated.
func (t Transition) For(p TransitionProperty) time.Duration {
	for _, e := range t {
		if e.Property == p {
			return e.Duration
		}
	}
	return 0
}

// String renders the transition the way a style attribute would, e.g.
// "height .6s, width .6s, transform .6s, opacity .5s". The empty transition
// renders as "none".
func (t Transition) String() string {
	if t.IsNone() {
		return "none"
	}
	parts := make([]string, 0, len(t))
	for _, e := range t {
		parts = append(parts, fmt.Sprintf("%s %s", e.Property, formatSeconds(e.Duration)))
	}
	return strings.Join(parts, ", ")
}

func formatSeconds(d time.Duration) string {
	s := fmt.Sprintf("%g", d.Seconds())
	s = strings.TrimPrefix(s, "0")
	return s + "s"
}

// GeometryTransition animates size, position and opacity. The opacity fade
// can run on its own duration.
func GeometryTransition(move, fade time.Duration) Transition {
	return Transition{
		{Property: PropHeight, Duration: move},
		{Property: PropWidth, Duration: move},
		{Property: PropTransform, Duration: move},
		{Property: PropOpacity, Duration: fade},
	}
}

// Apply sets position and size in one go, the order the window expects:
// size first so a position clamp sees the final size.
func Apply(c Controller, id string, g geometry.Geometry) error {
	if err := c.SetSize(id, g.Size()); err != nil {
		return err
	}
	return c.SetPosition(id, g.Point())
}
