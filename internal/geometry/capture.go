package geometry

import "fmt"

// MinimizedSize is the fixed size a window collapses to on its way into the
// dock.
var MinimizedSize = PxSize(300, 300)

// LiveSource reads the geometry a surface is currently rendered at.
type LiveSource interface {
	Geometry(id string) (Geometry, error)
}

// Capture reads the live geometry of the surface for id. It never uses a
// cached value: the window may have been dragged since the last capture.
func Capture(src LiveSource, id string) (Geometry, error) {
	g, err := src.Geometry(id)
	if err != nil {
		return Geometry{}, fmt.Errorf("capture %s: %w", id, err)
	}
	return g, nil
}

// MinimizedTarget returns where a minimizing window animates to. The x
// coordinate follows the dock slot's left edge; y sits at the bottom of the
// viewport so the surface ends fully out of view behind the dock.
func MinimizedTarget(dockSlot Geometry, vp Viewport) Geometry {
	return Geometry{
		X:      dockSlot.X,
		Y:      vp.Height,
		Width:  MinimizedSize.Width,
		Height: MinimizedSize.Height,
	}
}

// Centered places a window of the given size in the middle of the viewport.
func Centered(size Size, vp Viewport) Geometry {
	w := size.Width.Resolve(vp.Width)
	h := size.Height.Resolve(vp.Height)
	return Geometry{
		X:      Round(vp.Width/2 - w/2),
		Y:      Round(vp.Height/2 - h/2),
		Width:  size.Width,
		Height: size.Height,
	}
}

// Maximized returns the geometry filling the available bounds.
func Maximized(bounds Geometry) Geometry {
	return bounds
}
