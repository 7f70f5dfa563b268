// Package geometry holds the position and size values exchanged with window
// surfaces and the pure helpers that capture and derive them.
package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dimension is a width or height. It is either a pixel count or a CSS-like
// length string ("300px", "50%") that the surface interprets.
type Dimension struct {
	px  float64
	css string
}

// Px returns a pixel dimension.
func Px(v float64) Dimension {
	return Dimension{px: v}
}

// CSS returns a dimension expressed as a CSS-like length. A plain "<n>px"
// string is normalized to a pixel dimension.
func CSS(s string) Dimension {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "px") {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64); err == nil {
			return Px(v)
		}
	}
	return Dimension{css: s}
}

// IsPixels reports whether the dimension is a plain pixel value.
func (d Dimension) IsPixels() bool {
	return d.css == ""
}

// Pixels returns the pixel value and whether the dimension is in pixels.
func (d Dimension) Pixels() (float64, bool) {
	return d.px, d.css == ""
}

// Resolve converts the dimension to pixels against a reference length.
// Percentages are taken of ref; unknown units resolve to ref.
func (d Dimension) Resolve(ref float64) float64 {
	if d.css == "" {
		return d.px
	}
	if strings.HasSuffix(d.css, "%") {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(d.css, "%"), 64); err == nil {
			return ref * v / 100
		}
	}
	return ref
}

func (d Dimension) String() string {
	if d.css != "" {
		return d.css
	}
	return strconv.FormatFloat(d.px, 'f', -1, 64) + "px"
}

// MarshalText encodes the dimension the way String prints it.
func (d Dimension) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts anything String produces.
func (d *Dimension) UnmarshalText(b []byte) error {
	*d = CSS(string(b))
	return nil
}

// Point is a surface position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a surface size.
type Size struct {
	Width  Dimension `json:"width"`
	Height Dimension `json:"height"`
}

// PxSize is shorthand for a pixel size.
func PxSize(w, h float64) Size {
	return Size{Width: Px(w), Height: Px(h)}
}

// Geometry is the position and size of a window's rendered surface.
type Geometry struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  Dimension `json:"width"`
	Height Dimension `json:"height"`
}

// Rect is shorthand for a pixel geometry.
func Rect(x, y, w, h float64) Geometry {
	return Geometry{X: x, Y: y, Width: Px(w), Height: Px(h)}
}

// Point returns the position part of g.
func (g Geometry) Point() Point {
	return Point{X: g.X, Y: g.Y}
}

// Size returns the size part of g.
func (g Geometry) Size() Size {
	return Size{Width: g.Width, Height: g.Height}
}

// WithPoint returns g moved to p.
func (g Geometry) WithPoint(p Point) Geometry {
	g.X, g.Y = p.X, p.Y
	return g
}

// WithSize returns g resized to s.
func (g Geometry) WithSize(s Size) Geometry {
	g.Width, g.Height = s.Width, s.Height
	return g
}

// Contains reports whether (x, y) lies inside g once resolved against vp.
func (g Geometry) Contains(x, y float64, vp Viewport) bool {
	w := g.Width.Resolve(vp.Width)
	h := g.Height.Resolve(vp.Height)
	return x >= g.X && x < g.X+w && y >= g.Y && y < g.Y+h
}

func (g Geometry) String() string {
	return fmt.Sprintf("%s×%s@(%s,%s)", g.Width, g.Height,
		strconv.FormatFloat(g.X, 'f', -1, 64), strconv.FormatFloat(g.Y, 'f', -1, 64))
}

// Viewport is the visible desktop area.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Round snaps a coordinate to a whole pixel.
func Round(v float64) float64 {
	return math.Round(v)
}
