package window_test

import (
	"testing"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/geometry"
	"github.com/Gaurav-Gosain/deskos/internal/registry"
	"github.com/Gaurav-Gosain/deskos/internal/surface"
	"github.com/Gaurav-Gosain/deskos/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	g1      = geometry.Rect(120, 80, 600, 400)
	bounds  = geometry.Rect(0, 24, 1440, 800)
	dockMin = geometry.MinimizedTarget(geometry.Rect(500, 850, 48, 48), geometry.Viewport{Width: 1440, Height: 900})
)

type fixture struct {
	surf  *surface.Headless
	sched *window.ManualScheduler
	ctrl  *window.Controller
}

func newFixture(t *testing.T, resizable bool) *fixture {
	t.Helper()
	surf := surface.NewHeadless()
	require.NoError(t, surf.Mount("terminal", g1))
	sched := window.NewManualScheduler()
	ctrl := window.New("terminal", surf, window.Options{Resizable: resizable, Scheduler: sched})
	surf.ResetOps()
	return &fixture{surf: surf, sched: sched, ctrl: ctrl}
}

func (f *fixture) handle(t *testing.T, ev window.Event) bool {
	t.Helper()
	changed, err := f.ctrl.Handle(ev)
	require.NoError(t, err)
	return changed
}

func (f *fixture) live(t *testing.T) geometry.Geometry {
	t.Helper()
	g, err := f.surf.Geometry("terminal")
	require.NoError(t, err)
	return g
}

func TestMaximizeToggleRestoresGeometry(t *testing.T) {
	f := newFixture(t, true)

	assert.True(t, f.handle(t, window.Maximize{Bounds: bounds}))
	assert.Equal(t, window.Maximized{}, f.ctrl.Phase())
	assert.Equal(t, bounds, f.live(t))
	st, _ := f.surf.State("terminal")
	assert.False(t, st.Resizable)

	assert.True(t, f.handle(t, window.Maximize{Bounds: bounds}))
	assert.Equal(t, window.Floating{}, f.ctrl.Phase())
	assert.Equal(t, g1, f.live(t))
	st, _ = f.surf.State("terminal")
	assert.True(t, st.Resizable)
}

func TestMinimizeAfterMaximizeKeepsFloatingGeometry(t *testing.T) {
	f := newFixture(t, true)

	f.handle(t, window.Maximize{Bounds: bounds})
	f.handle(t, window.Minimize{Target: dockMin})
	assert.Equal(t, window.Minimized{CameFrom: window.Maximized{}}, f.ctrl.Phase())

	saved, ok := f.ctrl.SavedGeometry()
	require.True(t, ok)
	assert.Equal(t, g1, saved)

	f.handle(t, window.Float{})
	assert.Equal(t, window.Floating{}, f.ctrl.Phase())
	assert.Equal(t, g1, f.live(t))
	st, _ := f.surf.State("terminal")
	assert.True(t, st.Resizable)
	assert.Equal(t, 1.0, st.Opacity)
}

func TestMinimizeFloatRoundTrip(t *testing.T) {
	f := newFixture(t, true)

	f.handle(t, window.Minimize{Target: dockMin})
	assert.Equal(t, dockMin, f.live(t))
	st, _ := f.surf.State("terminal")
	assert.Zero(t, st.Opacity)
	assert.Equal(t, "height .6s, width .6s, transform .6s, opacity .5s", st.Transition.String())

	f.handle(t, window.Float{})
	assert.Equal(t, g1, f.live(t))
	st, _ = f.surf.State("terminal")
	assert.Equal(t, "height .6s, width .6s, transform .6s, opacity .6s", st.Transition.String())
}

func TestCaptureReadsLiveGeometry(t *testing.T) {
	f := newFixture(t, true)

	f.handle(t, window.Minimize{Target: dockMin})
	f.handle(t, window.Float{})
	f.sched.Advance(time.Second)

	dragged := geometry.Point{X: 300, Y: 200}
	require.NoError(t, f.surf.Drag("terminal", dragged))

	f.handle(t, window.Minimize{Target: dockMin})
	f.handle(t, window.Float{})
	assert.Equal(t, g1.WithPoint(dragged), f.live(t))
}

func TestRepeatedMinimizeIsNoop(t *testing.T) {
	f := newFixture(t, true)
	f.handle(t, window.Minimize{Target: dockMin})
	f.surf.ResetOps()

	assert.False(t, f.handle(t, window.Minimize{Target: dockMin}))
	assert.Empty(t, f.surf.Ops())
	assert.Equal(t, window.Minimized{CameFrom: window.Floating{}}, f.ctrl.Phase())
}

func TestMaximizeNonResizableIsUnsupported(t *testing.T) {
	f := newFixture(t, false)

	changed, err := f.ctrl.Handle(window.Maximize{Bounds: bounds})
	assert.False(t, changed)
	assert.ErrorIs(t, err, registry.ErrUnsupported)
	assert.Empty(t, f.surf.Ops())
	assert.Equal(t, window.Floating{}, f.ctrl.Phase())
}

func TestMaximizeWhileMinimizedIsIgnored(t *testing.T) {
	f := newFixture(t, true)
	f.handle(t, window.Minimize{Target: dockMin})
	f.surf.ResetOps()

	assert.False(t, f.handle(t, window.Maximize{Bounds: bounds}))
	assert.Empty(t, f.surf.Ops())
}

func TestFloatWhenNotMinimizedIsIgnored(t *testing.T) {
	f := newFixture(t, true)
	assert.False(t, f.handle(t, window.Float{}))
	assert.Empty(t, f.surf.Ops())
}

func TestSettleTimerClearsTransition(t *testing.T) {
	f := newFixture(t, true)
	f.handle(t, window.Minimize{Target: dockMin})
	require.True(t, f.ctrl.PendingSettle())

	f.sched.Advance(499 * time.Millisecond)
	assert.True(t, f.ctrl.PendingSettle())

	f.sched.Advance(time.Millisecond)
	assert.False(t, f.ctrl.PendingSettle())
	st, _ := f.surf.State("terminal")
	assert.True(t, st.Transition.IsNone())

	f.handle(t, window.Float{})
	f.sched.Advance(699 * time.Millisecond)
	assert.True(t, f.ctrl.PendingSettle())
	f.sched.Advance(time.Millisecond)
	assert.False(t, f.ctrl.PendingSettle())
}

func TestMinimizeCancelsRestoreSettle(t *testing.T) {
	f := newFixture(t, true)
	f.handle(t, window.Minimize{Target: dockMin})
	f.sched.Advance(time.Second)

	f.handle(t, window.Float{})
	require.Equal(t, 1, f.sched.Pending())
	f.handle(t, window.Minimize{Target: dockMin})
	require.Equal(t, 1, f.sched.Pending(), "restore settle must be replaced")
	f.surf.ResetOps()

	// the aborted restore would have cleared at 700ms
	f.sched.Advance(499 * time.Millisecond)
	assert.Empty(t, f.surf.Ops())
	st, _ := f.surf.State("terminal")
	assert.Equal(t, "height .6s, width .6s, transform .6s, opacity .5s", st.Transition.String())

	f.sched.Advance(time.Millisecond)
	ops := f.surf.Ops()
	require.Len(t, ops, 1)
	assert.Equal(t, surface.OpTransition, ops[0].Kind)
	assert.True(t, ops[0].Transition.IsNone())

	f.sched.Advance(time.Second)
	assert.Len(t, f.surf.Ops(), 1)
}

func TestStaleSettleCallbackIsIgnored(t *testing.T) {
	surf := surface.NewHeadless()
	require.NoError(t, surf.Mount("finder", g1))

	// a timer whose Stop always loses the race, like a callback already
	// queued behind the current event
	var fired []func()
	racy := window.SchedulerFunc(func(_ time.Duration, f func()) window.Timer {
		fired = append(fired, f)
		return lostRace{}
	})
	ctrl := window.New("finder", surf, window.Options{Resizable: true, Scheduler: racy})

	_, err := ctrl.Handle(window.Minimize{Target: dockMin})
	require.NoError(t, err)
	_, err = ctrl.Handle(window.Float{})
	require.NoError(t, err)
	require.Len(t, fired, 2)

	surf.ResetOps()
	fired[0]()
	assert.Empty(t, surf.Ops())
	assert.True(t, ctrl.PendingSettle())

	fired[1]()
	assert.Len(t, surf.Ops(), 1)
	assert.False(t, ctrl.PendingSettle())
}

type lostRace struct{}

func (lostRace) Stop() bool { return false }

func TestCloseCancelsTimerAndRejectsEvents(t *testing.T) {
	f := newFixture(t, true)
	f.handle(t, window.Minimize{Target: dockMin})
	require.True(t, f.ctrl.PendingSettle())

	assert.True(t, f.handle(t, window.Close{}))
	assert.False(t, f.ctrl.PendingSettle())
	assert.Zero(t, f.sched.Pending())
	assert.Equal(t, window.Closed{}, f.ctrl.Phase())

	_, err := f.ctrl.Handle(window.Float{})
	assert.ErrorIs(t, err, window.ErrControllerClosed)
	_, err = f.ctrl.Handle(window.Close{})
	assert.ErrorIs(t, err, window.ErrControllerClosed)
}

func TestCaptureFailureLeavesStateUnchanged(t *testing.T) {
	surf := surface.NewHeadless()
	ctrl := window.New("ghost", surf, window.Options{Resizable: true, Scheduler: window.NewManualScheduler()})

	_, err := ctrl.Handle(window.Minimize{Target: dockMin})
	assert.ErrorIs(t, err, surface.ErrUnknownSurface)
	assert.Equal(t, window.Floating{}, ctrl.Phase())
	_, ok := ctrl.SavedGeometry()
	assert.False(t, ok)
	assert.False(t, ctrl.PendingSettle())
}

func TestPhaseStrings(t *testing.T) {
	assert.Equal(t, "floating", window.Floating{}.String())
	assert.Equal(t, "minimized (from maximized)", window.Minimized{CameFrom: window.Maximized{}}.String())
	assert.Equal(t, "closed", window.Closed{}.String())
}

func TestDisabledAnimationsSkipSettle(t *testing.T) {
	surf := surface.NewHeadless()
	require.NoError(t, surf.Mount("chrome", g1))
	sched := window.NewManualScheduler()
	ctrl := window.New("chrome", surf, window.Options{
		Resizable: true,
		Scheduler: sched,
		Timing:    &window.Timing{},
	})

	_, err := ctrl.Handle(window.Minimize{Target: dockMin})
	require.NoError(t, err)
	assert.False(t, ctrl.PendingSettle())
	assert.Zero(t, sched.Pending())

	st, _ := surf.State("chrome")
	assert.True(t, st.Transition.IsNone())
	assert.Equal(t, dockMin, st.Geometry)
}
