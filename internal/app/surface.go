package app

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/geometry"
	"github.com/Gaurav-Gosain/deskos/internal/surface"
	"github.com/Gaurav-Gosain/deskos/internal/ui"
)

// Surface is the terminal implementation of surface.Controller. Every
// command retargets a per-window tween frame; the renderer samples the
// frames on each tick.
type Surface struct {
	mu      sync.Mutex
	vp      geometry.Viewport
	now     func() time.Time
	windows map[string]*surfaceWindow
}

type surfaceWindow struct {
	target     geometry.Geometry
	opacity    float64
	transition surface.Transition
	resizable  bool
	frame      ui.Frame
}

// FrameState is one window's rendered state at a point in time.
type FrameState struct {
	ID        string
	Rect      ui.Rect
	Opacity   float64
	Resizable bool
}

// NewSurface returns a surface for a desktop of the given viewport.
func NewSurface(vp geometry.Viewport) *Surface {
	return &Surface{
		vp:      vp,
		now:     time.Now,
		windows: make(map[string]*surfaceWindow),
	}
}

// SetClock replaces the time source. Tests use it to sample frames.
func (s *Surface) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetViewport changes the reference used to resolve relative sizes.
func (s *Surface) SetViewport(vp geometry.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vp = vp
}

func (s *Surface) get(id string) (*surfaceWindow, error) {
	w, ok := s.windows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", surface.ErrUnknownSurface, id)
	}
	return w, nil
}

func (s *Surface) resolve(g geometry.Geometry) ui.Rect {
	return ui.Rect{
		X:      g.X,
		Y:      g.Y,
		Width:  g.Width.Resolve(s.vp.Width),
		Height: g.Height.Resolve(s.vp.Height),
	}
}

// resolveRect converts g to pixels against the current viewport.
func (s *Surface) resolveRect(g geometry.Geometry) ui.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(g)
}

func (s *Surface) Mount(id string, initial geometry.Geometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.windows[id]; ok {
		return fmt.Errorf("surface %s already mounted", id)
	}
	s.windows[id] = &surfaceWindow{
		target:  initial,
		opacity: 1,
		frame:   ui.NewFrame(s.resolve(initial), 1),
	}
	return nil
}

func (s *Surface) Unmount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(id); err != nil {
		return err
	}
	delete(s.windows, id)
	return nil
}

func (s *Surface) SetPosition(id string, p geometry.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.get(id)
	if err != nil {
		return err
	}
	now := s.now()
	d := w.transition.For(surface.PropTransform)
	w.target = w.target.WithPoint(p)
	w.frame.X = w.frame.X.Retarget(p.X, d, now)
	w.frame.Y = w.frame.Y.Retarget(p.Y, d, now)
	return nil
}

func (s *Surface) SetSize(id string, sz geometry.Size) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.get(id)
	if err != nil {
		return err
	}
	now := s.now()
	w.target = w.target.WithSize(sz)
	w.frame.Width = w.frame.Width.Retarget(sz.Width.Resolve(s.vp.Width), w.transition.For(surface.PropWidth), now)
	w.frame.Height = w.frame.Height.Retarget(sz.Height.Resolve(s.vp.Height), w.transition.For(surface.PropHeight), now)
	return nil
}

func (s *Surface) SetOpacity(id string, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.get(id)
	if err != nil {
		return err
	}
	w.opacity = v
	w.frame.Opacity = w.frame.Opacity.Retarget(v, w.transition.For(surface.PropOpacity), s.now())
	return nil
}

// SetTransition replaces the transition used by later commands. Clearing
// it ends any running animation at its target, as a browser does when a
// transition property is removed mid-flight.
func (s *Surface) SetTransition(id string, t surface.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.get(id)
	if err != nil {
		return err
	}
	w.transition = slices.Clone(t)
	if t.IsNone() {
		w.frame = ui.NewFrame(s.resolve(w.target), w.opacity)
	}
	return nil
}

func (s *Surface) SetResizable(id string, resizable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.get(id)
	if err != nil {
		return err
	}
	w.resizable = resizable
	return nil
}

// Geometry returns the geometry last set on the surface. Animations toward
// it may still be running.
func (s *Surface) Geometry(id string) (geometry.Geometry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.get(id)
	if err != nil {
		return geometry.Geometry{}, err
	}
	return w.target, nil
}

// Drag moves a window immediately, bypassing any transition. The session
// manager learns about the final position through DragStop.
func (s *Surface) Drag(id string, p geometry.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.get(id)
	if err != nil {
		return err
	}
	w.target = w.target.WithPoint(p)
	w.frame.X = ui.Still(p.X)
	w.frame.Y = ui.Still(p.Y)
	return nil
}

// Frame samples one window at now.
func (s *Surface) Frame(id string, now time.Time) (FrameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[id]
	if !ok {
		return FrameState{}, false
	}
	return FrameState{
		ID:        id,
		Rect:      w.frame.Rect(now),
		Opacity:   w.frame.Opacity.Value(now),
		Resizable: w.resizable,
	}, true
}

// Animating reports whether any window is still moving at now.
func (s *Surface) Animating(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.windows {
		if !w.frame.Done(now) {
			return true
		}
	}
	return false
}

var _ surface.Controller = (*Surface)(nil)
