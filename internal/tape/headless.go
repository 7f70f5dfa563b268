package tape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/session"
	"github.com/Gaurav-Gosain/deskos/internal/surface"
	"github.com/Gaurav-Gosain/deskos/internal/window"
	"github.com/charmbracelet/log"
)

// HeadlessRunner runs a tape script against a fresh session rendered on an
// in-memory surface. Sleep commands advance a virtual clock unless RealTime
// is set, so a script with long settles still finishes instantly.
type HeadlessRunner struct {
	commands   []Command
	cfg        *config.Config
	logger     *log.Logger
	output     strings.Builder
	outputLock sync.Mutex
	verbose    bool
	startTime  time.Time
	executed   int
	failed     int

	// RealTime makes Sleep wait on the wall clock.
	RealTime bool
	// ContinueOnError keeps playing after a failed command.
	ContinueOnError bool
}

// NewHeadlessRunner creates a new headless script runner. A nil cfg uses
// the defaults.
func NewHeadlessRunner(commands []Command, cfg *config.Config) *HeadlessRunner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &HeadlessRunner{
		commands:  commands,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// SetVerbose enables verbose output logging
func (hr *HeadlessRunner) SetVerbose(verbose bool) {
	hr.verbose = verbose
}

// SetLogger passes l to the session.
func (hr *HeadlessRunner) SetLogger(l *log.Logger) {
	hr.logger = l
}

// Run executes all commands in the script sequentially and returns the final
// session state.
func (hr *HeadlessRunner) Run(ctx context.Context) (session.Snapshot, error) {
	hr.startTime = time.Now()
	sched := window.NewManualScheduler()
	surf := surface.NewHeadless()

	opts := []session.Option{session.WithLogger(hr.logger)}
	if !hr.RealTime {
		opts = append(opts, session.WithScheduler(sched))
	}
	m := session.NewManager(surf, hr.cfg, opts...)
	defer m.Close()

	player := NewPlayer(hr.commands)
	player.ContinueOnError = hr.ContinueOnError
	if !hr.RealTime {
		player.SetSleep(func(ctx context.Context, d time.Duration) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sched.Advance(d)
			// queued settle callbacks run before the next command
			_, err := m.Snapshot(ctx)
			return err
		})
	}
	hr.executed, hr.failed = 0, 0
	player.OnStep = func(i int, cmd Command, err error) {
		hr.executed++
		if err != nil {
			hr.failed++
		}
		if !hr.verbose {
			return
		}
		status := "ok"
		if err != nil {
			status = err.Error()
		}
		hr.logf("[%d/%d] %-32s %s\n", i+1, len(hr.commands), cmd.String(), status)
	}

	if hr.verbose {
		hr.logf("Starting headless script execution with %d commands\n", len(hr.commands))
	}
	runErr := player.Run(ctx, m)

	snap, err := m.Snapshot(ctx)
	if err != nil && runErr == nil {
		runErr = err
	}
	if hr.verbose {
		hr.logf("Script execution completed in %v\n", time.Since(hr.startTime).Round(time.Microsecond))
	}
	return snap, runErr
}

// GetOutput returns the captured output
func (hr *HeadlessRunner) GetOutput() string {
	hr.outputLock.Lock()
	defer hr.outputLock.Unlock()
	return hr.output.String()
}

// WriteOutput writes the output to a writer
func (hr *HeadlessRunner) WriteOutput(w io.Writer) error {
	hr.outputLock.Lock()
	defer hr.outputLock.Unlock()
	_, err := io.WriteString(w, hr.output.String())
	return err
}

// logf logs a message to the internal output buffer
func (hr *HeadlessRunner) logf(format string, args ...any) {
	hr.outputLock.Lock()
	defer hr.outputLock.Unlock()
	fmt.Fprintf(&hr.output, format, args...)
}

// ScriptExecutionStats contains statistics about a script execution
type ScriptExecutionStats struct {
	TotalCommands int
	ExecutedCount int
	FailedCount   int
	ExecutedTime  time.Duration
	StartTime     time.Time
	EndTime       time.Time
	Success       bool
	ErrorMessage  string
	Final         session.Snapshot
}

// ScriptExecutor runs a script headlessly and tracks statistics
type ScriptExecutor struct {
	runner *HeadlessRunner
	stats  ScriptExecutionStats
}

// NewScriptExecutor creates a new script executor
func NewScriptExecutor(commands []Command, cfg *config.Config) *ScriptExecutor {
	return &ScriptExecutor{
		runner: NewHeadlessRunner(commands, cfg),
		stats: ScriptExecutionStats{
			TotalCommands: len(commands),
		},
	}
}

// Runner exposes the underlying runner for configuration.
func (se *ScriptExecutor) Runner() *HeadlessRunner {
	return se.runner
}

// Execute runs the script and collects statistics
func (se *ScriptExecutor) Execute(ctx context.Context) ScriptExecutionStats {
	se.runner.SetVerbose(true)
	se.stats.StartTime = time.Now()

	snap, err := se.runner.Run(ctx)
	se.stats.EndTime = time.Now()
	se.stats.ExecutedTime = se.stats.EndTime.Sub(se.stats.StartTime)
	se.stats.Final = snap
	se.stats.ExecutedCount = se.runner.executed
	se.stats.FailedCount = se.runner.failed

	if err != nil {
		se.stats.Success = false
		se.stats.ErrorMessage = err.Error()
	} else {
		se.stats.Success = true
	}

	return se.stats
}

// GetStats returns execution statistics
func (se *ScriptExecutor) GetStats() ScriptExecutionStats {
	return se.stats
}

// GetOutput returns the execution output
func (se *ScriptExecutor) GetOutput() string {
	return se.runner.GetOutput()
}

// WriteOutput writes the execution output to a writer
func (se *ScriptExecutor) WriteOutput(w io.Writer) error {
	return se.runner.WriteOutput(w)
}

// ValidateScript checks if a tape script is valid (parses without errors)
func ValidateScript(content string) (bool, []string) {
	commands, errs := ParseFile(content)
	if len(errs) > 0 {
		return false, errs
	}
	if len(commands) == 0 {
		return false, []string{"no commands found in script"}
	}
	return true, nil
}

// IsExpectationFailure reports whether err came from a failed Expect.
func IsExpectationFailure(err error) bool {
	var ee *ExpectationError
	return errors.As(err, &ee)
}
