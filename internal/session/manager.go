// Package session composes the window registry and the per-window
// controllers into one desktop session driven by a serialized event loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/apps"
	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/geometry"
	"github.com/Gaurav-Gosain/deskos/internal/metrics"
	"github.com/Gaurav-Gosain/deskos/internal/registry"
	"github.com/Gaurav-Gosain/deskos/internal/surface"
	"github.com/Gaurav-Gosain/deskos/internal/window"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ErrManagerClosed is returned for commands sent after Close.
var ErrManagerClosed = errors.New("session manager closed")

// taskQueueSize bounds how many commands and timer callbacks may wait for
// the loop before senders block.
const taskQueueSize = 64

// Manager owns one desktop session. Every command and every settle-timer
// callback runs on a single goroutine, one at a time, in submission order,
// so the registry invariants hold between any two of them.
type Manager struct {
	id      string
	surface surface.Controller
	apps    *apps.Registry
	base    window.Scheduler
	logger  *log.Logger
	metrics *metrics.Metrics

	tasks     chan func()
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	events    *bus

	// loop-owned state
	cfg       *config.Config
	reg       *registry.Registry
	windows   map[string]*windowState
	dockOrder []string
	closed    bool
}

type windowState struct {
	id       string
	ctrl     *window.Controller
	cfg      config.WindowConfig
	view     apps.View
	openedAt time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithScheduler sets the clock settle timers run on. Callbacks are always
// delivered through the event loop.
func WithScheduler(s window.Scheduler) Option {
	return func(m *Manager) {
		if s != nil {
			m.base = s
		}
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records command metrics.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithApps sets the application views mounted into windows.
func WithApps(r *apps.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.apps = r
		}
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(m *Manager) {
		if id != "" {
			m.id = id
		}
	}
}

// NewManager starts a session rendering through sc. A nil cfg uses the
// defaults.
func NewManager(sc surface.Controller, cfg *config.Config, opts ...Option) *Manager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		id:      uuid.NewString(),
		surface: sc,
		apps:    apps.Builtin(),
		base:    window.SystemScheduler{},
		logger:  log.New(io.Discard),
		tasks:   make(chan func(), taskQueueSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		cfg:     cfg,
		reg:     registry.New(),
		windows: make(map[string]*windowState),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("session", shortID(m.id))
	m.dockOrder = m.computeDockOrder()
	m.events = newBus()
	m.metrics.SessionStarted()

	go m.run()
	m.logger.Debug("session started", "apps", len(m.dockOrder))
	return m
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ID returns the session id.
func (m *Manager) ID() string { return m.id }

// Subscribe registers h for every event published after a successful
// command. Handlers must not call Close.
func (m *Manager) Subscribe(h Handler) UnsubscribeFunc {
	return m.events.subscribe(h)
}

func (m *Manager) run() {
	defer close(m.done)
	for {
		select {
		case <-m.ctx.Done():
			return
		case task := <-m.tasks:
			task()
		}
	}
}

// post queues f on the loop. It drops f once the loop has stopped.
func (m *Manager) post(f func()) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.tasks <- f:
		return true
	case <-m.done:
		return false
	}
}

// do runs fn on the loop and waits for it. If ctx ends first the command may
// still complete; the caller just stops waiting.
func (m *Manager) do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res := make(chan error, 1)
	task := func() {
		if m.closed {
			res <- ErrManagerClosed
			return
		}
		res <- fn()
	}

	select {
	case <-m.done:
		return ErrManagerClosed
	default:
	}
	select {
	case m.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrManagerClosed
	}

	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		select {
		case err := <-res:
			return err
		default:
			return ErrManagerClosed
		}
	}
}

// command runs a window command on the loop with logging and metrics.
func (m *Manager) command(ctx context.Context, op, id string, fn func() (bool, error)) error {
	start := time.Now()
	var changed bool
	err := m.do(ctx, func() error {
		var err error
		changed, err = fn()
		return err
	})

	result := metrics.ResultOK
	switch {
	case err != nil:
		result = metrics.ResultRejected
		m.logger.Warn("command rejected", "op", op, "window", id, "err", err)
	case !changed:
		result = metrics.ResultNoop
		m.logger.Debug("command ignored", "op", op, "window", id)
	default:
		m.logger.Debug("command", "op", op, "window", id)
	}
	m.metrics.ObserveCommand(op, result, time.Since(start))
	return err
}

func (m *Manager) publish(t EventType, id string) {
	m.events.publish(Event{Type: t, WindowID: id, SessionID: m.id, Time: time.Now()})
}

func (m *Manager) publishMoved(id string, g geometry.Geometry) {
	m.events.publish(Event{Type: EventMoved, WindowID: id, SessionID: m.id, Time: time.Now(), Geometry: &g})
}

// loopScheduler delivers the settle-timer callbacks of window id through the
// event loop.
func (m *Manager) loopScheduler(id string) window.Scheduler {
	return window.SchedulerFunc(func(d time.Duration, f func()) window.Timer {
		t := m.base.AfterFunc(d, func() {
			m.post(func() {
				m.metrics.SettleFired()
				ws, ok := m.windows[id]
				if !ok {
					f()
					return
				}
				pending := ws.ctrl.PendingSettle()
				f()
				if pending && !ws.ctrl.PendingSettle() {
					m.publish(EventSettled, id)
				}
			})
		})
		return &loopTimer{Timer: t, metrics: m.metrics}
	})
}

type loopTimer struct {
	window.Timer
	metrics *metrics.Metrics
}

func (t *loopTimer) Stop() bool {
	stopped := t.Timer.Stop()
	if stopped {
		t.metrics.SettleCancelled()
	}
	return stopped
}

func (m *Manager) computeDockOrder() []string {
	return DockOrder(m.cfg, m.apps)
}

func timingFrom(cfg *config.Config) window.Timing {
	a := cfg.Animation
	if !a.Enabled {
		return window.Timing{}
	}
	return window.Timing{
		Move:           a.Move.Std(),
		FadeOut:        a.FadeOut.Std(),
		FadeIn:         a.FadeIn.Std(),
		MinimizeSettle: a.MinimizeSettle.Std(),
		RestoreSettle:  a.RestoreSettle.Std(),
	}
}

// Close stops the session: pending settle timers are cancelled, every
// surface is unmounted and later commands fail with ErrManagerClosed.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		finished := make(chan error, 1)
		if m.post(func() { finished <- m.shutdown() }) {
			err = <-finished
		}
		m.cancel()
		<-m.done
		m.events.close()
		m.metrics.SessionEnded()
		m.logger.Debug("session closed")
	})
	return err
}

func (m *Manager) shutdown() error {
	var errs []error
	for _, id := range m.reg.Stacking() {
		ws := m.windows[id]
		minimized := m.reg.IsMinimized(id)
		if _, err := ws.ctrl.Handle(window.Close{}); err != nil {
			errs = append(errs, err)
		}
		if err := m.surface.Unmount(id); err != nil {
			errs = append(errs, fmt.Errorf("unmount %s: %w", id, err))
		}
		if err := m.reg.Close(id); err != nil {
			errs = append(errs, err)
		}
		delete(m.windows, id)
		m.metrics.AddWindows(-1, -boolInt(minimized))
	}
	m.closed = true
	return errors.Join(errs...)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
