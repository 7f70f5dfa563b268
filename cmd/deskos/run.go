package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Gaurav-Gosain/deskos/internal/app"
	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/input"
	"github.com/Gaurav-Gosain/deskos/internal/metrics"
	"github.com/Gaurav-Gosain/deskos/internal/server"
	"github.com/Gaurav-Gosain/deskos/internal/tape"
	"github.com/Gaurav-Gosain/deskos/internal/theme"
)

var recordPath string

// filterMouseMotion drops mouse motion unless a window is being dragged.
func filterMouseMotion(model tea.Model, msg tea.Msg) tea.Msg {
	if _, ok := msg.(tea.MouseMotionMsg); !ok {
		return msg
	}

	desktop, ok := model.(*app.OS)
	if !ok {
		return msg
	}

	if desktop.Dragging {
		return msg
	}
	return nil
}

// loadConfig loads the user configuration, falling back to the defaults
// when the file cannot be used.
func loadConfig(logger *log.Logger) (*config.Config, string) {
	path, err := config.GetConfigPath()
	if err != nil {
		logger.Warn("could not determine config path", "err", err)
	}
	cfg, err := config.LoadUserConfig()
	if err != nil {
		logger.Warn("failed to load config, using defaults", "err", err)
		cfg = config.DefaultConfig()
	}
	if themeName != "" {
		cfg.Desktop.Theme = themeName
	}
	return cfg, path
}

// newLogger returns the process logger writing to w.
func newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "deskos",
	})
	if debugMode {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// applyLogLevel uses the configured level unless --debug was given.
func applyLogLevel(logger *log.Logger, cfg *config.Config) {
	if !debugMode {
		logger.SetLevel(cfg.LogLevel())
	}
}

// startMetrics serves a fresh registry on --metrics-addr. It returns nil
// when metrics are disabled.
func startMetrics(ctx context.Context, logger *log.Logger) *metrics.Metrics {
	if metricsAddr == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	mt := metrics.New(reg)
	go func() {
		if err := metrics.Serve(ctx, metricsAddr, reg, logger.WithPrefix("metrics")); err != nil {
			logger.Error("metrics server", "err", err)
		}
	}()
	return mt
}

// openLogFile opens the log file the TUI writes to. The terminal itself is
// owned by the desktop while it runs.
func openLogFile() (*os.File, error) {
	path, err := xdg.StateFile("deskos/deskos.log")
	if err != nil {
		return nil, fmt.Errorf("could not determine log path: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func runLocal(ctx context.Context) error {
	logOut := io.Writer(os.Stderr)
	if f, err := openLogFile(); err == nil {
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut)

	cfg, cfgPath := loadConfig(logger)
	applyLogLevel(logger, cfg)
	logger.Debug("configuration", "path", cfgPath)

	if !theme.Initialize(cfg.Desktop.Theme) {
		logger.Warn("unknown theme, using default", "theme", cfg.Desktop.Theme)
	}

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				logger.Warn("failed to close CPU profile file", "err", closeErr)
			}
		}()

		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app.SetInputHandler(input.HandleInput)

	mt := startMetrics(ctx, logger)
	desktop := server.NewDesktop(ctx, cfg, "", logger, mt)

	var recorder *tape.Recorder
	if recordPath != "" {
		recorder = tape.NewRecorder()
		recorder.Start()
		unsubscribe := desktop.Manager.Subscribe(recorder.Handle)
		defer unsubscribe()
	}

	p := tea.NewProgram(
		desktop,
		tea.WithFPS(app.NormalFPS),
		tea.WithoutSignalHandler(),
		tea.WithFilter(filterMouseMotion),
	)

	go func() {
		<-ctx.Done()
		p.Send(tea.QuitMsg{})
	}()

	if cfgPath != "" {
		go func() {
			err := config.Watch(ctx, cfgPath, config.DefaultReloadDebounce, func(c *config.Config, err error) {
				if c != nil && themeName != "" {
					c.Desktop.Theme = themeName
				}
				p.Send(app.ConfigReloadMsg{Config: c, Err: err})
			})
			if err != nil {
				logger.Warn("config hot reload disabled", "err", err)
			}
		}()
	}

	finalModel, err := p.Run()

	if finalOS, ok := finalModel.(*app.OS); ok {
		finalOS.Cleanup()
	}
	if closeErr := desktop.Manager.Close(); closeErr != nil {
		logger.Warn("closing session", "err", closeErr)
	}

	if recorder != nil {
		recorder.Stop()
		header := fmt.Sprintf("deskos session recorded %s", time.Now().Format(time.RFC1123))
		if werr := recorder.WriteToFile(recordPath, header); werr != nil {
			return fmt.Errorf("failed to write recording: %w", werr)
		}
		fmt.Printf("Recorded %d commands to %s\n", recorder.CommandCount(), recordPath)
	}

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

func runSSHServer(ctx context.Context, sshHost, sshPort, sshKeyPath string) error {
	logger := newLogger(os.Stderr)
	cfg, _ := loadConfig(logger)
	applyLogLevel(logger, cfg)

	if !theme.Initialize(cfg.Desktop.Theme) {
		logger.Warn("unknown theme, using default", "theme", cfg.Desktop.Theme)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := server.StartSSHServer(ctx, server.SSHServerConfig{
		Host:    sshHost,
		Port:    sshPort,
		KeyPath: sshKeyPath,
		Config:  cfg,
		Logger:  logger,
		Metrics: startMetrics(ctx, logger),
	})
	if err != nil {
		return fmt.Errorf("SSH server error: %w", err)
	}
	return nil
}
