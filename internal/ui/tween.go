// Package ui holds the tween engine that animates window surfaces between
// the geometries the window controllers set.
package ui

import (
	"math"
	"time"
)

// Easing maps linear progress in [0,1] to eased progress.
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// EaseInOutCubic accelerates for the first half and decelerates for the second.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	p := 2*t - 2
	return 1 + p*p*p/2
}

// Lerp interpolates between start and end.
func Lerp(start, end, progress float64) float64 {
	return start + (end-start)*progress
}

// Interpolate is Lerp on whole cells.
func Interpolate(start, end int, progress float64) int {
	return start + int(math.Round(float64(end-start)*progress))
}

// Tween animates one value from From to To starting at Start.
type Tween struct {
	From     float64
	To       float64
	Start    time.Time
	Duration time.Duration
	Ease     Easing
}

// Still returns a tween resting at v.
func Still(v float64) Tween {
	return Tween{From: v, To: v}
}

// Progress returns the linear progress at now, clamped to [0,1].
func (t Tween) Progress(now time.Time) float64 {
	if t.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(t.Start)) / float64(t.Duration)
	return math.Max(0, math.Min(1, p))
}

// Value returns the eased value at now.
func (t Tween) Value(now time.Time) float64 {
	p := t.Progress(now)
	if p >= 1 {
		return t.To
	}
	ease := t.Ease
	if ease == nil {
		ease = EaseInOutCubic
	}
	return Lerp(t.From, t.To, ease(p))
}

// Done reports whether the tween has reached To.
func (t Tween) Done(now time.Time) bool {
	return t.From == t.To || t.Progress(now) >= 1
}

// Retarget starts a new tween toward to from wherever t is at now. A zero
// duration jumps straight to the target.
func (t Tween) Retarget(to float64, d time.Duration, now time.Time) Tween {
	if d <= 0 {
		return Still(to)
	}
	return Tween{
		From:     t.Value(now),
		To:       to,
		Start:    now,
		Duration: d,
		Ease:     t.Ease,
	}
}

// Rect is a resolved pixel rectangle.
type Rect struct {
	X, Y, Width, Height float64
}

// Frame animates a window's rectangle and opacity.
type Frame struct {
	X, Y, Width, Height, Opacity Tween
}

// NewFrame returns a frame resting at r.
func NewFrame(r Rect, opacity float64) Frame {
	return Frame{
		X:       Still(r.X),
		Y:       Still(r.Y),
		Width:   Still(r.Width),
		Height:  Still(r.Height),
		Opacity: Still(opacity),
	}
}

// Rect returns the rectangle at now.
func (f Frame) Rect(now time.Time) Rect {
	return Rect{
		X:      f.X.Value(now),
		Y:      f.Y.Value(now),
		Width:  f.Width.Value(now),
		Height: f.Height.Value(now),
	}
}

// Done reports whether every track has finished.
func (f Frame) Done(now time.Time) bool {
	return f.X.Done(now) && f.Y.Done(now) && f.Width.Done(now) &&
		f.Height.Done(now) && f.Opacity.Done(now)
}
