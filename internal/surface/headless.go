package surface

import (
	"fmt"
	"sync"

	"github.com/Gaurav-Gosain/deskos/internal/geometry"
)

// OpKind identifies a recorded surface command.
type OpKind string

const (
	OpMount      OpKind = "mount"
	OpUnmount    OpKind = "unmount"
	OpPosition   OpKind = "position"
	OpSize       OpKind = "size"
	OpOpacity    OpKind = "opacity"
	OpTransition OpKind = "transition"
	OpResizable  OpKind = "resizable"
)

// Op is one command received by a Headless surface.
type Op struct {
	Kind       OpKind
	ID         string
	Point      geometry.Point
	Size       geometry.Size
	Opacity    float64
	Transition Transition
	Resizable  bool
}

func (o Op) String() string {
	switch o.Kind {
	case OpPosition:
		return fmt.Sprintf("%s %s (%g,%g)", o.Kind, o.ID, o.Point.X, o.Point.Y)
	case OpSize:
		return fmt.Sprintf("%s %s %s×%s", o.Kind, o.ID, o.Size.Width, o.Size.Height)
	case OpOpacity:
		return fmt.Sprintf("%s %s %g", o.Kind, o.ID, o.Opacity)
	case OpTransition:
		return fmt.Sprintf("%s %s %s", o.Kind, o.ID, o.Transition)
	case OpResizable:
		return fmt.Sprintf("%s %s %t", o.Kind, o.ID, o.Resizable)
	default:
		return fmt.Sprintf("%s %s", o.Kind, o.ID)
	}
}

// State is the current rendered state of one headless surface.
type State struct {
	Geometry   geometry.Geometry
	Opacity    float64
	Transition Transition
	Resizable  bool
}

// Headless keeps surfaces in memory and applies every command instantly. It
// records each command so callers can inspect the choreography.
type Headless struct {
	mu       sync.Mutex
	surfaces map[string]*State
	ops      []Op
}

// NewHeadless returns an empty in-memory surface controller.
func NewHeadless() *Headless {
	return &Headless{surfaces: make(map[string]*State)}
}

func (h *Headless) record(op Op) {
	h.ops = append(h.ops, op)
}

func (h *Headless) get(id string) (*State, error) {
	s, ok := h.surfaces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSurface, id)
	}
	return s, nil
}

func (h *Headless) Mount(id string, initial geometry.Geometry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.surfaces[id] = &State{Geometry: initial, Opacity: 1, Resizable: true}
	h.record(Op{Kind: OpMount, ID: id, Point: initial.Point(), Size: initial.Size()})
	return nil
}

func (h *Headless) Unmount(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.get(id); err != nil {
		return err
	}
	delete(h.surfaces, id)
	h.record(Op{Kind: OpUnmount, ID: id})
	return nil
}

func (h *Headless) SetPosition(id string, p geometry.Point) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.get(id)
	if err != nil {
		return err
	}
	s.Geometry = s.Geometry.WithPoint(p)
	h.record(Op{Kind: OpPosition, ID: id, Point: p})
	return nil
}

func (h *Headless) SetSize(id string, sz geometry.Size) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.get(id)
	if err != nil {
		return err
	}
	s.Geometry = s.Geometry.WithSize(sz)
	h.record(Op{Kind: OpSize, ID: id, Size: sz})
	return nil
}

func (h *Headless) SetOpacity(id string, v float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.get(id)
	if err != nil {
		return err
	}
	s.Opacity = v
	h.record(Op{Kind: OpOpacity, ID: id, Opacity: v})
	return nil
}

func (h *Headless) SetTransition(id string, t Transition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.get(id)
	if err != nil {
		return err
	}
	s.Transition = t
	h.record(Op{Kind: OpTransition, ID: id, Transition: t})
	return nil
}

func (h *Headless) SetResizable(id string, resizable bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.get(id)
	if err != nil {
		return err
	}
	s.Resizable = resizable
	h.record(Op{Kind: OpResizable, ID: id, Resizable: resizable})
	return nil
}

func (h *Headless) Geometry(id string) (geometry.Geometry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.get(id)
	if err != nil {
		return geometry.Geometry{}, err
	}
	return s.Geometry, nil
}

// Drag moves a surface as the user would, without going through the
// manager. It stands in for a pointer drag in tests and scripts.
func (h *Headless) Drag(id string, p geometry.Point) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.get(id)
	if err != nil {
		return err
	}
	s.Geometry = s.Geometry.WithPoint(p)
	return nil
}

// State returns a copy of the surface state for id.
func (h *Headless) State(id string) (State, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[id]
	if !ok {
		return State{}, false
	}
	return *s, true
}

// Ops returns a copy of every recorded command.
func (h *Headless) Ops() []Op {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Op(nil), h.ops...)
}

// OpsFor returns the recorded commands for one surface.
func (h *Headless) OpsFor(id string) []Op {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Op
	for _, op := range h.ops {
		if op.ID == id {
			out = append(out, op)
		}
	}
	return out
}

// ResetOps clears the command log.
func (h *Headless) ResetOps() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = nil
}
