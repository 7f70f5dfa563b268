// Package metrics exposes Prometheus collectors for desktop sessions.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Command results.
const (
	ResultOK       = "ok"
	ResultNoop     = "noop"
	ResultRejected = "rejected"
)

// Metrics holds the session collectors. One Metrics is shared by every
// session of a process; gauges move by deltas so sessions do not overwrite
// each other.
type Metrics struct {
	Commands         *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	WindowsOpen      prometheus.Gauge
	WindowsMinimized prometheus.Gauge
	SessionsActive   prometheus.Gauge
	SessionsTotal    prometheus.Counter
	SettleTimers     *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Commands: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskos_commands_total",
				Help: "Session commands by operation and result",
			},
			[]string{"op", "result"},
		),
		CommandDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskos_command_duration_seconds",
				Help:    "Time from command submission to completion",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"op"},
		),
		WindowsOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "deskos_windows_open",
			Help: "Open windows across all sessions",
		}),
		WindowsMinimized: f.NewGauge(prometheus.GaugeOpts{
			Name: "deskos_windows_minimized",
			Help: "Minimized windows across all sessions",
		}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "deskos_sessions_active",
			Help: "Running desktop sessions",
		}),
		SessionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "deskos_sessions_total",
			Help: "Desktop sessions started",
		}),
		SettleTimers: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskos_settle_timers_total",
				Help: "Transition settle timers by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveCommand records one command. A nil receiver is a no-op so callers
// need not check whether metrics are enabled.
func (m *Metrics) ObserveCommand(op, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(op, result).Inc()
	m.CommandDuration.WithLabelValues(op).Observe(d.Seconds())
}

// AddWindows moves the window gauges by the given deltas.
func (m *Metrics) AddWindows(open, minimized int) {
	if m == nil {
		return
	}
	m.WindowsOpen.Add(float64(open))
	m.WindowsMinimized.Add(float64(minimized))
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// SettleFired counts a settle timer that cleared its transition.
func (m *Metrics) SettleFired() {
	if m == nil {
		return
	}
	m.SettleTimers.WithLabelValues("fired").Inc()
}

// SettleCancelled counts a settle timer stopped before it ran.
func (m *Metrics) SettleCancelled() {
	if m == nil {
		return
	}
	m.SettleTimers.WithLabelValues("cancelled").Inc()
}

// Serve exposes g on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
