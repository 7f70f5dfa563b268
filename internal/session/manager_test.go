package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/apps"
	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/geometry"
	"github.com/Gaurav-Gosain/deskos/internal/metrics"
	"github.com/Gaurav-Gosain/deskos/internal/registry"
	"github.com/Gaurav-Gosain/deskos/internal/session"
	"github.com/Gaurav-Gosain/deskos/internal/surface"
	"github.com/Gaurav-Gosain/deskos/internal/window"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	terminal = apps.Terminal
	finder   = apps.Finder
	chrome   = apps.Chrome
	aboutMac = apps.AboutThisMac
)

type harness struct {
	surf  *surface.Headless
	sched *window.ManualScheduler
	m     *session.Manager
	ctx   context.Context
}

func newHarness(t *testing.T, opts ...session.Option) *harness {
	t.Helper()
	surf := surface.NewHeadless()
	sched := window.NewManualScheduler()
	opts = append([]session.Option{session.WithScheduler(sched)}, opts...)
	m := session.NewManager(surf, config.DefaultConfig(), opts...)
	t.Cleanup(func() { _ = m.Close() })
	return &harness{surf: surf, sched: sched, m: m, ctx: context.Background()}
}

func (h *harness) open(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, h.m.OpenWindow(h.ctx, id))
	}
	h.valid(t)
}

func (h *harness) valid(t *testing.T) {
	t.Helper()
	require.NoError(t, h.m.Validate(h.ctx))
}

func (h *harness) snap(t *testing.T) session.Snapshot {
	t.Helper()
	s, err := h.m.Snapshot(h.ctx)
	require.NoError(t, err)
	return s
}

func (h *harness) window(t *testing.T, id string) session.WindowSnapshot {
	t.Helper()
	w, ok := h.snap(t).Window(id)
	require.True(t, ok, "%s is not open", id)
	return w
}

func (h *harness) live(t *testing.T, id string) geometry.Geometry {
	t.Helper()
	g, err := h.surf.Geometry(id)
	require.NoError(t, err)
	return g
}

// advance moves the virtual clock and waits for the posted callbacks.
func (h *harness) advance(t *testing.T, d time.Duration) {
	t.Helper()
	h.sched.Advance(d)
	h.snap(t)
}

func TestOpenCentersAndFocuses(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal)

	w := h.window(t, terminal)
	assert.True(t, w.Focused)
	assert.Equal(t, 1, w.ZIndex)
	assert.Equal(t, "Terminal", w.Title)
	assert.Equal(t, window.Floating{}, w.Phase)
	assert.True(t, w.Resizable)
	assert.Equal(t, geometry.Rect(420, 250, 600, 400), w.Geometry)
	assert.NotNil(t, w.View)
}

func TestFocusMinimizeRestoreScenario(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal, finder, chrome)
	assert.Equal(t, []string{terminal, finder, chrome}, h.snap(t).Stacking())

	require.NoError(t, h.m.FocusWindow(h.ctx, terminal))
	s := h.snap(t)
	assert.Equal(t, terminal, s.Focused)
	assert.Equal(t, []string{finder, chrome, terminal}, s.Stacking())

	require.NoError(t, h.m.MinimizeWindow(h.ctx, terminal))
	h.valid(t)
	s = h.snap(t)
	assert.Equal(t, chrome, s.Focused)
	assert.Equal(t, []string{terminal}, s.Minimized)

	require.NoError(t, h.m.RestoreWindow(h.ctx, terminal))
	h.valid(t)
	w := h.window(t, terminal)
	assert.True(t, w.Focused)
	assert.Equal(t, 5, w.ZIndex)
	assert.Empty(t, h.snap(t).Minimized)
}

func TestMinimizeTargetsDockSlot(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal, finder)

	require.NoError(t, h.m.MinimizeWindow(h.ctx, finder))
	s := h.snap(t)
	slot := s.DockSlots[finder]
	assert.Equal(t, float64(590), slot.X)

	w, _ := s.Window(finder)
	assert.Equal(t, geometry.Rect(590, 900, 300, 300), w.Geometry)
	assert.Equal(t, window.Minimized{CameFrom: window.Floating{}}, w.Phase)
	assert.True(t, w.Minimized)

	st, _ := h.surf.State(finder)
	assert.Equal(t, 0.0, st.Opacity)
	assert.Equal(t, "height .6s, width .6s, transform .6s, opacity .5s", st.Transition.String())
}

func TestRestoreReturnsToDraggedGeometry(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal)

	dragged := geometry.Rect(10, 40, 600, 400)
	require.NoError(t, h.surf.Drag(terminal, dragged.Point()))
	require.NoError(t, h.m.DragStop(h.ctx, terminal, dragged))

	require.NoError(t, h.m.MinimizeWindow(h.ctx, terminal))
	require.NoError(t, h.m.RestoreWindow(h.ctx, terminal))
	assert.Equal(t, dragged, h.live(t, terminal))

	st, _ := h.surf.State(terminal)
	assert.Equal(t, 1.0, st.Opacity)
	assert.Equal(t, "height .6s, width .6s, transform .6s, opacity .6s", st.Transition.String())
}

func TestMaximizeMinimizeRestoreLandsOnFloating(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal)
	g1 := h.live(t, terminal)

	require.NoError(t, h.m.ToggleMaximize(h.ctx, terminal))
	w := h.window(t, terminal)
	assert.True(t, w.Maximized)
	assert.Equal(t, geometry.Rect(0, 24, 1440, 816), w.Geometry)

	require.NoError(t, h.m.MinimizeWindow(h.ctx, terminal))
	assert.Equal(t, window.Minimized{CameFrom: window.Maximized{}}, h.window(t, terminal).Phase)

	require.NoError(t, h.m.RestoreWindow(h.ctx, terminal))
	w = h.window(t, terminal)
	assert.Equal(t, window.Floating{}, w.Phase)
	assert.Equal(t, g1, w.Geometry)
	st, _ := h.surf.State(terminal)
	assert.True(t, st.Resizable)
}

func TestToggleMaximizeTwiceRestores(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal, finder)
	g1 := h.live(t, terminal)

	require.NoError(t, h.m.ToggleMaximize(h.ctx, terminal))
	assert.Equal(t, terminal, h.snap(t).Focused)
	require.NoError(t, h.m.ToggleMaximize(h.ctx, terminal))
	assert.Equal(t, g1, h.live(t, terminal))
	assert.False(t, h.window(t, terminal).Maximized)
	h.valid(t)
}

func TestToggleMaximizeNotResizableIsNoop(t *testing.T) {
	h := newHarness(t)
	h.open(t, aboutMac)
	before := h.live(t, aboutMac)
	h.surf.ResetOps()

	require.NoError(t, h.m.ToggleMaximize(h.ctx, aboutMac))
	assert.Equal(t, before, h.live(t, aboutMac))
	assert.Empty(t, h.surf.Ops())
	assert.Equal(t, window.Floating{}, h.window(t, aboutMac).Phase)
}

func TestRepeatedMinimizeIsNoop(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal)
	require.NoError(t, h.m.MinimizeWindow(h.ctx, terminal))
	h.surf.ResetOps()

	require.NoError(t, h.m.MinimizeWindow(h.ctx, terminal))
	assert.Empty(t, h.surf.Ops())
	assert.Equal(t, []string{terminal}, h.snap(t).Minimized)
}

func TestCommandErrors(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal, finder)
	require.NoError(t, h.m.MinimizeWindow(h.ctx, finder))
	before := h.snap(t)

	tests := []struct {
		name   string
		run    func() error
		target error
		reason string
	}{
		{
			name:   "open twice",
			run:    func() error { return h.m.OpenWindow(h.ctx, terminal) },
			target: registry.ErrAlreadyOpen,
		},
		{
			name:   "close unknown",
			run:    func() error { return h.m.CloseWindow(h.ctx, chrome) },
			target: registry.ErrNotFound,
			reason: "not open",
		},
		{
			name:   "minimize unknown",
			run:    func() error { return h.m.MinimizeWindow(h.ctx, chrome) },
			target: registry.ErrNotFound,
			reason: "not open",
		},
		{
			name:   "restore not minimized",
			run:    func() error { return h.m.RestoreWindow(h.ctx, terminal) },
			target: registry.ErrNotFound,
			reason: "not minimized",
		},
		{
			name:   "focus minimized",
			run:    func() error { return h.m.FocusWindow(h.ctx, finder) },
			target: registry.ErrNotFound,
			reason: "minimized",
		},
		{
			name:   "maximize unknown",
			run:    func() error { return h.m.ToggleMaximize(h.ctx, chrome) },
			target: registry.ErrNotFound,
			reason: "not open",
		},
		{
			name:   "drag minimized",
			run:    func() error { return h.m.DragStop(h.ctx, finder, geometry.Rect(0, 0, 10, 10)) },
			target: registry.ErrNotFound,
			reason: "minimized",
		},
		{
			name:   "unknown app",
			run:    func() error { return h.m.OpenWindow(h.ctx, "notepad") },
			target: apps.ErrUnknownApp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			if tt.reason != "" {
				var nf *registry.NotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, tt.reason, nf.Reason)
			}
			after := h.snap(t)
			assert.Equal(t, before.Stacking(), after.Stacking())
			assert.Equal(t, before.Focused, after.Focused)
			assert.Equal(t, before.Minimized, after.Minimized)
			h.valid(t)
		})
	}
}

func TestAlreadyOpenErrorCarriesID(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal)

	err := h.m.OpenWindow(h.ctx, terminal)
	var ao *registry.AlreadyOpenError
	require.True(t, errors.As(err, &ao))
	assert.Equal(t, terminal, ao.ID)
}

func TestCloseTransfersFocusAndUnmounts(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal, finder, chrome)
	require.NoError(t, h.m.MinimizeWindow(h.ctx, finder))

	require.NoError(t, h.m.CloseWindow(h.ctx, chrome))
	h.valid(t)
	assert.Equal(t, terminal, h.snap(t).Focused)
	_, err := h.surf.Geometry(chrome)
	assert.ErrorIs(t, err, surface.ErrUnknownSurface)

	require.NoError(t, h.m.CloseWindow(h.ctx, finder))
	assert.Empty(t, h.snap(t).Minimized)
}

func TestSettleTimerClearsTransition(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal)

	require.NoError(t, h.m.MinimizeWindow(h.ctx, terminal))
	assert.True(t, h.window(t, terminal).PendingSettle)

	h.advance(t, 499*time.Millisecond)
	assert.True(t, h.window(t, terminal).PendingSettle)

	h.advance(t, time.Millisecond)
	assert.False(t, h.window(t, terminal).PendingSettle)
	st, _ := h.surf.State(terminal)
	assert.True(t, st.Transition.IsNone())

	require.NoError(t, h.m.RestoreWindow(h.ctx, terminal))
	h.advance(t, 699*time.Millisecond)
	assert.True(t, h.window(t, terminal).PendingSettle)
	h.advance(t, time.Millisecond)
	assert.False(t, h.window(t, terminal).PendingSettle)
}

func TestCloseCancelsPendingSettle(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal)
	require.NoError(t, h.m.MinimizeWindow(h.ctx, terminal))
	require.NoError(t, h.m.CloseWindow(h.ctx, terminal))

	assert.Zero(t, h.sched.Pending())
	h.advance(t, time.Second)
	assert.False(t, h.snap(t).IsOpen(terminal))
}

func TestDisabledAnimationsSnap(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Animation.Enabled = false
	surf := surface.NewHeadless()
	sched := window.NewManualScheduler()
	m := session.NewManager(surf, cfg, session.WithScheduler(sched))
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.OpenWindow(ctx, terminal))
	require.NoError(t, m.MinimizeWindow(ctx, terminal))
	st, _ := surf.State(terminal)
	assert.True(t, st.Transition.IsNone())
	assert.Zero(t, sched.Pending())
}

func TestDragStopFocusesAndRecords(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal, finder)

	g := geometry.Rect(33.4, 51.6, 600, 400)
	require.NoError(t, h.m.DragStop(h.ctx, terminal, g))
	w := h.window(t, terminal)
	assert.True(t, w.Focused)
	assert.Equal(t, geometry.Rect(33, 52, 600, 400), w.Geometry)
}

func TestRestoreAllInDockOrder(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal, finder, chrome)
	require.NoError(t, h.m.MinimizeWindow(h.ctx, chrome))
	require.NoError(t, h.m.MinimizeWindow(h.ctx, terminal))

	require.NoError(t, h.m.RestoreAll(h.ctx))
	h.valid(t)
	s := h.snap(t)
	assert.Empty(t, s.Minimized)
	assert.Equal(t, []string{finder, chrome, terminal}, s.Stacking())
	assert.Equal(t, terminal, s.Focused)
}

func TestCycleFocus(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal, finder, chrome)

	require.NoError(t, h.m.CycleFocus(h.ctx, true))
	assert.Equal(t, terminal, h.snap(t).Focused)
	require.NoError(t, h.m.CycleFocus(h.ctx, true))
	assert.Equal(t, finder, h.snap(t).Focused)

	require.NoError(t, h.m.CycleFocus(h.ctx, false))
	assert.Equal(t, terminal, h.snap(t).Focused)

	require.NoError(t, h.m.MinimizeWindow(h.ctx, chrome))
	require.NoError(t, h.m.CycleFocus(h.ctx, true))
	assert.Equal(t, finder, h.snap(t).Focused)
	h.valid(t)
}

func TestUpdateConfigChangesResizable(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal)

	cfg := config.DefaultConfig()
	wc := cfg.Apps[terminal]
	wc.Resizable = false
	cfg.Apps[terminal] = wc
	require.NoError(t, h.m.UpdateConfig(h.ctx, cfg))

	require.NoError(t, h.m.ToggleMaximize(h.ctx, terminal))
	assert.False(t, h.window(t, terminal).Maximized)
	st, _ := h.surf.State(terminal)
	assert.False(t, st.Resizable)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	h := newHarness(t, session.WithSessionID("s-1"))
	events := make(chan session.Event, 16)
	unsubscribe := h.m.Subscribe(func(ev session.Event) { events <- ev })

	h.open(t, terminal)
	require.NoError(t, h.m.MinimizeWindow(h.ctx, terminal))
	h.advance(t, 500*time.Millisecond)
	_ = h.m.FocusWindow(h.ctx, terminal)

	want := []session.EventType{session.EventOpened, session.EventMinimized, session.EventSettled}
	for _, typ := range want {
		select {
		case ev := <-events:
			assert.Equal(t, typ, ev.Type)
			assert.Equal(t, terminal, ev.WindowID)
			assert.Equal(t, "s-1", ev.SessionID)
		case <-time.After(time.Second):
			t.Fatalf("no %s event", typ)
		}
	}

	unsubscribe()
	require.NoError(t, h.m.RestoreWindow(h.ctx, terminal))
	require.NoError(t, h.m.Close())
	assert.Empty(t, events)
}

func TestCloseUnmountsAndRejects(t *testing.T) {
	h := newHarness(t)
	h.open(t, terminal, finder)
	require.NoError(t, h.m.MinimizeWindow(h.ctx, terminal))

	require.NoError(t, h.m.Close())
	assert.Zero(t, h.sched.Pending())
	_, err := h.surf.Geometry(terminal)
	assert.ErrorIs(t, err, surface.ErrUnknownSurface)

	assert.ErrorIs(t, h.m.OpenWindow(h.ctx, chrome), session.ErrManagerClosed)
	_, err = h.m.Snapshot(h.ctx)
	assert.ErrorIs(t, err, session.ErrManagerClosed)
	assert.NoError(t, h.m.Close())
}

func TestCancelledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, h.m.OpenWindow(ctx, terminal), context.Canceled)
	assert.False(t, h.snap(t).IsOpen(terminal))
}

func TestConcurrentCommandsKeepInvariants(t *testing.T) {
	h := newHarness(t)
	ids := []string{terminal, finder, chrome, aboutMac, apps.AboutThisDeveloper}
	h.open(t, ids...)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				id := ids[(i+j)%len(ids)]
				switch j % 4 {
				case 0:
					_ = h.m.FocusWindow(h.ctx, id)
				case 1:
					_ = h.m.MinimizeWindow(h.ctx, id)
				case 2:
					_ = h.m.RestoreWindow(h.ctx, id)
				default:
					_ = h.m.ToggleMaximize(h.ctx, id)
				}
			}
		}()
	}
	wg.Wait()
	h.valid(t)
}

func TestMetricsRecordCommands(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt := metrics.New(reg)
	h := newHarness(t, session.WithMetrics(mt))

	h.open(t, terminal, finder)
	require.NoError(t, h.m.MinimizeWindow(h.ctx, terminal))
	require.NoError(t, h.m.MinimizeWindow(h.ctx, terminal))
	require.Error(t, h.m.FocusWindow(h.ctx, chrome))

	assert.Equal(t, 2.0, testutil.ToFloat64(mt.Commands.WithLabelValues("open", metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.Commands.WithLabelValues("minimize", metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.Commands.WithLabelValues("minimize", metrics.ResultNoop)))
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.Commands.WithLabelValues("focus", metrics.ResultRejected)))
	assert.Equal(t, 2.0, testutil.ToFloat64(mt.WindowsOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.WindowsMinimized))
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.SessionsActive))

	require.NoError(t, h.m.Close())
	assert.Zero(t, testutil.ToFloat64(mt.WindowsOpen))
	assert.Zero(t, testutil.ToFloat64(mt.WindowsMinimized))
	assert.Zero(t, testutil.ToFloat64(mt.SessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.SettleTimers.WithLabelValues("cancelled")))
}

func TestDockSlotsCentered(t *testing.T) {
	cfg := config.DefaultConfig()
	slots := session.DockSlots(cfg, []string{"a", "b"})
	assert.Equal(t, geometry.Rect(625, 840, 80, 60), slots["a"])
	assert.Equal(t, geometry.Rect(715, 840, 80, 60), slots["b"])
	assert.Empty(t, session.DockSlots(cfg, nil))
	assert.Equal(t, geometry.Rect(0, 24, 1440, 816), session.MaximizedBounds(cfg))
}

func TestDockOrder(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, []string{terminal, finder, chrome, aboutMac, apps.AboutThisDeveloper},
		session.DockOrder(cfg, apps.Builtin()))

	delete(cfg.Apps, chrome)
	cfg.Apps["notes"] = config.WindowConfig{Title: "Notes", Width: 400, Height: 300}
	assert.Equal(t, []string{terminal, finder, aboutMac, apps.AboutThisDeveloper, "notes"},
		session.DockOrder(cfg, apps.Builtin()))
}
