package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEaseInOutCubic(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{0.25, 0.0625},
		{0.5, 0.5},
		{0.75, 0.9375},
		{1, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, EaseInOutCubic(tt.in), 1e-9, "ease(%v)", tt.in)
	}
}

func TestInterpolate(t *testing.T) {
	assert.Equal(t, 10, Interpolate(10, 20, 0))
	assert.Equal(t, 15, Interpolate(10, 20, 0.5))
	assert.Equal(t, 20, Interpolate(10, 20, 1))
	assert.Equal(t, 5, Interpolate(10, 0, 0.5))
}

func TestTweenValue(t *testing.T) {
	start := time.Unix(0, 0)
	tw := Tween{From: 0, To: 100, Start: start, Duration: time.Second}

	assert.Equal(t, 0.0, tw.Value(start))
	assert.Equal(t, 0.0, tw.Value(start.Add(-time.Second)))
	assert.InDelta(t, 50, tw.Value(start.Add(500*time.Millisecond)), 1e-9)
	assert.Equal(t, 100.0, tw.Value(start.Add(time.Second)))
	assert.False(t, tw.Done(start.Add(999*time.Millisecond)))
	assert.True(t, tw.Done(start.Add(time.Second)))
}

func TestTweenLinearEase(t *testing.T) {
	start := time.Unix(0, 0)
	tw := Tween{From: 0, To: 100, Start: start, Duration: time.Second, Ease: Linear}
	assert.InDelta(t, 25, tw.Value(start.Add(250*time.Millisecond)), 1e-9)
}

func TestTweenRetargetContinuesFromCurrentValue(t *testing.T) {
	start := time.Unix(0, 0)
	tw := Tween{From: 0, To: 100, Start: start, Duration: time.Second, Ease: Linear}

	mid := start.Add(400 * time.Millisecond)
	next := tw.Retarget(0, time.Second, mid)
	assert.InDelta(t, 40, next.From, 1e-9)
	assert.InDelta(t, 40, next.Value(mid), 1e-9)
	assert.Equal(t, 0.0, next.Value(mid.Add(time.Second)))

	jump := tw.Retarget(7, 0, mid)
	assert.Equal(t, 7.0, jump.Value(mid))
	assert.True(t, jump.Done(mid))
}

func TestFrame(t *testing.T) {
	now := time.Unix(0, 0)
	f := NewFrame(Rect{X: 1, Y: 2, Width: 3, Height: 4}, 1)
	assert.True(t, f.Done(now))
	assert.Equal(t, Rect{X: 1, Y: 2, Width: 3, Height: 4}, f.Rect(now))

	f.X = f.X.Retarget(11, 100*time.Millisecond, now)
	assert.False(t, f.Done(now))
	assert.True(t, f.Done(now.Add(100*time.Millisecond)))
	assert.Equal(t, 11.0, f.Rect(now.Add(time.Second)).X)
}
