package tape

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/geometry"
	"github.com/Gaurav-Gosain/deskos/internal/session"
	"github.com/Gaurav-Gosain/deskos/internal/window"
)

// Executor runs session commands. *session.Manager implements it.
type Executor interface {
	OpenWindow(ctx context.Context, id string) error
	CloseWindow(ctx context.Context, id string) error
	MinimizeWindow(ctx context.Context, id string) error
	RestoreWindow(ctx context.Context, id string) error
	ToggleMaximize(ctx context.Context, id string) error
	FocusWindow(ctx context.Context, id string) error
	DragStop(ctx context.Context, id string, g geometry.Geometry) error
	RestoreAll(ctx context.Context) error
	CycleFocus(ctx context.Context, forward bool) error
	Snapshot(ctx context.Context) (session.Snapshot, error)
}

var _ Executor = (*session.Manager)(nil)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits on a real timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExpectationError reports a failed Expect command.
type ExpectationError struct {
	Line    int
	Subject ExpectSubject
	Want    string
	Got     string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("line %d: expect %s: want %s, got %s", e.Line, e.Subject, e.Want, e.Got)
}

// CommandError wraps an error returned while executing a command.
type CommandError struct {
	Command Command
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Command.Line, e.Command.String(), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// StepFunc is called after each command with its index and outcome.
type StepFunc func(index int, cmd Command, err error)

// Player manages script playback
type Player struct {
	commands []Command
	index    int  // Current command index
	finished bool // Whether all commands have been played

	sleep SleepFunc
	// ContinueOnError keeps playing after a failed command.
	ContinueOnError bool
	// OnStep observes each executed command.
	OnStep StepFunc
}

// NewPlayer creates a new script player from a list of commands
func NewPlayer(commands []Command) *Player {
	return &Player{
		commands: commands,
		sleep:    Sleep,
		finished: len(commands) == 0,
	}
}

// SetSleep replaces how Sleep commands and @delays wait.
func (p *Player) SetSleep(fn SleepFunc) {
	if fn != nil {
		p.sleep = fn
	}
}

// NextCommand returns the next command to execute without advancing the player state
func (p *Player) NextCommand() *Command {
	if p.index >= len(p.commands) {
		return nil
	}
	return &p.commands[p.index]
}

// Advance moves to the next command
func (p *Player) Advance() {
	if p.index < len(p.commands) {
		p.index++
	}
	if p.index >= len(p.commands) {
		p.finished = true
	}
}

// IsFinished returns true if all commands have been executed
func (p *Player) IsFinished() bool {
	return p.finished
}

// Reset resets the player to the beginning
func (p *Player) Reset() {
	p.index = 0
	p.finished = len(p.commands) == 0
}

// CurrentIndex returns the current command index
func (p *Player) CurrentIndex() int {
	return p.index
}

// TotalCommands returns the total number of commands
func (p *Player) TotalCommands() int {
	return len(p.commands)
}

// Progress returns a value between 0 and 100 representing playback progress
func (p *Player) Progress() int {
	if len(p.commands) == 0 {
		return 100
	}
	return (p.index * 100) / len(p.commands)
}

// CommandStr returns a string representation of the current command for display
func (p *Player) CommandStr() string {
	if p.index >= len(p.commands) {
		return "Script finished"
	}
	cmd := p.commands[p.index]
	return cmd.String()
}

// Run plays the remaining commands against exec. It stops at the first
// failure unless ContinueOnError is set, in which case the failures are
// returned together.
func (p *Player) Run(ctx context.Context, exec Executor) error {
	var failures []error
	for !p.finished {
		cmd := p.NextCommand()
		if cmd == nil {
			break
		}
		err := p.Step(ctx, exec, *cmd)
		if p.OnStep != nil {
			p.OnStep(p.index, *cmd, err)
		}
		if err != nil {
			if ctx.Err() != nil || !p.ContinueOnError {
				return err
			}
			failures = append(failures, err)
		}
		p.Advance()
	}
	return errors.Join(failures...)
}

// Step executes a single command, then waits for its @delay.
func (p *Player) Step(ctx context.Context, exec Executor, cmd Command) error {
	var err error
	switch cmd.Type {
	case CommandType_Open:
		err = exec.OpenWindow(ctx, cmd.Window())
	case CommandType_Close:
		err = exec.CloseWindow(ctx, cmd.Window())
	case CommandType_Focus:
		err = exec.FocusWindow(ctx, cmd.Window())
	case CommandType_Minimize:
		err = exec.MinimizeWindow(ctx, cmd.Window())
	case CommandType_Restore:
		err = exec.RestoreWindow(ctx, cmd.Window())
	case CommandType_Maximize:
		err = exec.ToggleMaximize(ctx, cmd.Window())
	case CommandType_DragStop:
		err = p.dragStop(ctx, exec, cmd)
	case CommandType_RestoreAll:
		err = exec.RestoreAll(ctx)
	case CommandType_NextWindow:
		err = exec.CycleFocus(ctx, true)
	case CommandType_PrevWindow:
		err = exec.CycleFocus(ctx, false)
	case CommandType_Sleep:
		return p.sleep(ctx, cmd.Delay)
	case CommandType_Expect:
		return p.expect(ctx, exec, cmd)
	default:
		err = fmt.Errorf("unknown command %q", cmd.Type)
	}
	if err != nil {
		return &CommandError{Command: cmd, Err: err}
	}
	return p.sleep(ctx, cmd.Delay)
}

func (p *Player) dragStop(ctx context.Context, exec Executor, cmd Command) error {
	nums, err := parseFloats(cmd.Args[1:])
	if err != nil {
		return err
	}
	snap, err := exec.Snapshot(ctx)
	if err != nil {
		return err
	}
	g := geometry.Rect(nums[0], nums[1], 0, 0)
	if w, ok := snap.Window(cmd.Window()); ok {
		g = g.WithSize(w.Geometry.Size())
	}
	if len(nums) == 4 {
		g = g.WithSize(geometry.PxSize(nums[2], nums[3]))
	}
	return exec.DragStop(ctx, cmd.Window(), g)
}

func (p *Player) expect(ctx context.Context, exec Executor, cmd Command) error {
	snap, err := exec.Snapshot(ctx)
	if err != nil {
		return &CommandError{Command: cmd, Err: err}
	}
	subject := ExpectSubject(cmd.Args[0])
	args := cmd.Args[1:]
	fail := func(want, got string) error {
		return &ExpectationError{Line: cmd.Line, Subject: subject, Want: want, Got: got}
	}

	switch subject {
	case ExpectFocused:
		got := snap.Focused
		if got == "" {
			got = "none"
		}
		if got != args[0] {
			return fail(args[0], got)
		}
	case ExpectMinimized:
		if !slices.Equal(snap.Minimized, args) {
			return fail(list(args), list(snap.Minimized))
		}
	case ExpectZOrder:
		if got := snap.Stacking(); !slices.Equal(got, args) {
			return fail(list(args), list(got))
		}
	case ExpectOpen, ExpectClosed:
		want := subject == ExpectOpen
		for _, id := range args {
			if snap.IsOpen(id) != want {
				return fail(fmt.Sprintf("%s %s", id, subject), list(snap.Stacking()))
			}
		}
	case ExpectPhase:
		w, ok := snap.Window(args[0])
		if !ok {
			return fail(args[1], "closed")
		}
		if got := phaseName(w.Phase); got != args[1] {
			return fail(args[1], got)
		}
	case ExpectGeometry:
		w, ok := snap.Window(args[0])
		if !ok {
			return fail(strings.Join(args[1:], " "), "closed")
		}
		nums, err := parseFloats(args[1:])
		if err != nil {
			return err
		}
		want := geometry.Rect(nums[0], nums[1], nums[2], nums[3])
		if !sameGeometry(w.Geometry, want, snap.Viewport) {
			return fail(want.String(), w.Geometry.String())
		}
	}
	return nil
}

func phaseName(ph window.Phase) string {
	switch ph.(type) {
	case window.Floating:
		return "floating"
	case window.Minimized:
		return "minimized"
	case window.Maximized:
		return "maximized"
	default:
		return "closed"
	}
}

func sameGeometry(a, b geometry.Geometry, vp geometry.Viewport) bool {
	eq := func(x, y float64) bool { return math.Abs(x-y) < 0.5 }
	return eq(a.X, b.X) && eq(a.Y, b.Y) &&
		eq(a.Width.Resolve(vp.Width), b.Width.Resolve(vp.Width)) &&
		eq(a.Height.Resolve(vp.Height), b.Height.Resolve(vp.Height))
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func list(ids []string) string {
	if len(ids) == 0 {
		return "[]"
	}
	return "[" + strings.Join(ids, " ") + "]"
}

// String returns a debug string representation
func (p *Player) String() string {
	return fmt.Sprintf(
		"Player{index=%d/%d, finished=%v}",
		p.index, len(p.commands), p.finished,
	)
}
