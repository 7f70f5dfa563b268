// Package window implements the per-window state machine that moves a
// surface between floating, minimized and maximized.
package window

import (
	"errors"
	"fmt"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/geometry"
	"github.com/Gaurav-Gosain/deskos/internal/registry"
	"github.com/Gaurav-Gosain/deskos/internal/surface"
)

// ErrControllerClosed is returned for events sent after Close.
var ErrControllerClosed = errors.New("window controller closed")

// Timing holds the animation constants of the transitions.
type Timing struct {
	// Move animates size and position.
	Move time.Duration
	// FadeOut and FadeIn animate opacity on minimize and restore.
	FadeOut time.Duration
	FadeIn  time.Duration
	// MinimizeSettle and RestoreSettle are how long a transition stays set
	// before it is cleared.
	MinimizeSettle time.Duration
	RestoreSettle  time.Duration
}

// DefaultTiming returns the desktop's stock animation timing.
func DefaultTiming() Timing {
	return Timing{
		Move:           600 * time.Millisecond,
		FadeOut:        500 * time.Millisecond,
		FadeIn:         600 * time.Millisecond,
		MinimizeSettle: 500 * time.Millisecond,
		RestoreSettle:  700 * time.Millisecond,
	}
}

// Options configures a Controller. A nil Timing uses DefaultTiming.
type Options struct {
	Resizable bool
	Timing    *Timing
	Scheduler Scheduler
}

// Controller drives one window's surface through its phases. It owns the
// geometry to return to and a single settle timer.
//
// Controller is not safe for concurrent use. Its scheduler must deliver
// callbacks on the goroutine that calls Handle.
type Controller struct {
	id        string
	surface   surface.Controller
	sched     Scheduler
	timing    Timing
	resizable bool

	phase    Phase
	saved    geometry.Geometry
	hasSaved bool

	settle    Timer
	settleGen uint64
}

// New returns a floating controller for the surface id.
func New(id string, sc surface.Controller, opts Options) *Controller {
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler{}
	}
	timing := DefaultTiming()
	if opts.Timing != nil {
		timing = *opts.Timing
	}
	return &Controller{
		id:        id,
		surface:   sc,
		sched:     opts.Scheduler,
		timing:    timing,
		resizable: opts.Resizable,
		phase:     Floating{},
	}
}

func (c *Controller) ID() string { return c.id }

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Resizable reports whether the window may be maximized.
func (c *Controller) Resizable() bool { return c.resizable }

// SetResizable changes whether future Maximize events are honored. A
// maximized window keeps its state.
func (c *Controller) SetResizable(v bool) { c.resizable = v }

// SetTiming replaces the animation timing used by later transitions.
func (c *Controller) SetTiming(t Timing) { c.timing = t }

// SavedGeometry returns the floating geometry the window returns to when it
// leaves minimized or maximized. ok is false until the first capture.
func (c *Controller) SavedGeometry() (geometry.Geometry, bool) {
	return c.saved, c.hasSaved
}

func (c *Controller) save(g geometry.Geometry) {
	c.saved = g
	c.hasSaved = true
}

// PendingSettle reports whether a transition is waiting to be cleared.
func (c *Controller) PendingSettle() bool {
	return c.settle != nil
}

// Handle applies ev. It reports whether the phase changed. Events that make
// no sense for the current phase are ignored and report false.
func (c *Controller) Handle(ev Event) (bool, error) {
	if _, closed := c.phase.(Closed); closed {
		return false, ErrControllerClosed
	}
	switch ev := ev.(type) {
	case Minimize:
		return c.minimize(ev.Target)
	case Float:
		return c.float()
	case Maximize:
		return c.maximize(ev.Bounds)
	case Close:
		c.cancelSettle()
		c.phase = Closed{}
		return true, nil
	default:
		return false, fmt.Errorf("window %s: unknown event %T", c.id, ev)
	}
}

func (c *Controller) minimize(target geometry.Geometry) (bool, error) {
	var (
		from     Phase
		captured geometry.Geometry
	)
	switch c.phase.(type) {
	case Minimized:
		return false, nil
	case Floating:
		g, err := geometry.Capture(c.surface, c.id)
		if err != nil {
			return false, err
		}
		captured = g
		from = Floating{}
	case Maximized:
		// saved already holds the pre-maximize floating geometry
		from = Maximized{}
	}

	c.cancelSettle()
	tr := c.transition(c.timing.FadeOut)
	if err := c.apply(tr, 0, target); err != nil {
		return false, fmt.Errorf("minimize %s: %w", c.id, err)
	}
	if _, ok := from.(Floating); ok {
		c.save(captured)
	}
	c.phase = Minimized{CameFrom: from}
	c.scheduleSettle(tr, c.timing.MinimizeSettle)
	return true, nil
}

func (c *Controller) float() (bool, error) {
	m, ok := c.phase.(Minimized)
	if !ok {
		return false, nil
	}

	c.cancelSettle()
	tr := c.transition(c.timing.FadeIn)
	if err := c.apply(tr, 1, c.saved); err != nil {
		return false, fmt.Errorf("restore %s: %w", c.id, err)
	}
	if _, wasMax := m.CameFrom.(Maximized); wasMax {
		if err := c.surface.SetResizable(c.id, true); err != nil {
			return false, fmt.Errorf("restore %s: %w", c.id, err)
		}
	}
	c.phase = Floating{}
	c.scheduleSettle(tr, c.timing.RestoreSettle)
	return true, nil
}

func (c *Controller) maximize(bounds geometry.Geometry) (bool, error) {
	if !c.resizable {
		return false, &registry.UnsupportedOperationError{ID: c.id, Op: "maximize"}
	}
	switch c.phase.(type) {
	case Floating:
		g, err := geometry.Capture(c.surface, c.id)
		if err != nil {
			return false, err
		}
		c.cancelSettle()
		if err := c.snap(geometry.Maximized(bounds), false); err != nil {
			return false, fmt.Errorf("maximize %s: %w", c.id, err)
		}
		c.save(g)
		c.phase = Maximized{}
		return true, nil
	case Maximized:
		c.cancelSettle()
		if err := c.snap(c.saved, true); err != nil {
			return false, fmt.Errorf("unmaximize %s: %w", c.id, err)
		}
		c.phase = Floating{}
		return true, nil
	}
	return false, nil
}

// apply runs an animated move: transition first so the surface animates the
// opacity and geometry changes that follow.
func (c *Controller) apply(tr surface.Transition, opacity float64, g geometry.Geometry) error {
	if err := c.surface.SetTransition(c.id, tr); err != nil {
		return err
	}
	if err := c.surface.SetOpacity(c.id, opacity); err != nil {
		return err
	}
	return surface.Apply(c.surface, c.id, g)
}

// snap moves the surface instantly.
func (c *Controller) snap(g geometry.Geometry, resizable bool) error {
	if err := c.surface.SetTransition(c.id, surface.NoTransition); err != nil {
		return err
	}
	if err := c.surface.SetResizable(c.id, resizable); err != nil {
		return err
	}
	return surface.Apply(c.surface, c.id, g)
}

func (c *Controller) cancelSettle() {
	if c.settle != nil {
		c.settle.Stop()
		c.settle = nil
	}
	// invalidates callbacks that fired but have not run yet
	c.settleGen++
}

// transition returns the animated transition for a minimize or restore, or
// NoTransition when animations are turned off.
func (c *Controller) transition(fade time.Duration) surface.Transition {
	if c.timing.Move == 0 && fade == 0 {
		return surface.NoTransition
	}
	return surface.GeometryTransition(c.timing.Move, fade)
}

func (c *Controller) scheduleSettle(tr surface.Transition, d time.Duration) {
	if tr.IsNone() {
		return
	}
	gen := c.settleGen
	c.settle = c.sched.AfterFunc(d, func() {
		c.clearTransition(gen)
	})
}

func (c *Controller) clearTransition(gen uint64) {
	if c.settle == nil || c.settleGen != gen {
		return
	}
	c.settle = nil
	if _, closed := c.phase.(Closed); closed {
		return
	}
	// the surface may be gone; nothing left to clear then
	_ = c.surface.SetTransition(c.id, surface.NoTransition)
}
