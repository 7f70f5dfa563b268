package tape

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Gaurav-Gosain/deskos/internal/session"
)

// Recorder records session events as tape commands
type Recorder struct {
	mu            sync.Mutex
	commands      []Command
	startTime     time.Time
	lastEventTime time.Time
	enabled       bool
	minSleep      time.Duration // Gaps shorter than this are not written as Sleep
}

// NewRecorder creates a new tape recorder
func NewRecorder() *Recorder {
	return &Recorder{
		commands:      []Command{},
		startTime:     time.Now(),
		lastEventTime: time.Now(),
		minSleep:      100 * time.Millisecond,
	}
}

// Start begins recording
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = true
	r.startTime = time.Now()
	r.lastEventTime = r.startTime
	r.commands = []Command{} // Reset commands
}

// Stop ends recording
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
}

// IsRecording returns whether recording is active
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// Handle records ev. It has the session.Handler signature so a Recorder can
// be subscribed to a session directly.
func (r *Recorder) Handle(ev session.Event) {
	cmd := eventToCommand(ev)
	if cmd == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}

	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}
	cmd.Delay = at.Sub(r.lastEventTime)
	cmd.Line = len(r.commands) + 1
	cmd.Column = 1
	cmd.Raw = cmd.String()
	r.commands = append(r.commands, *cmd)
	r.lastEventTime = at
}

// RecordSleep explicitly records a sleep command
func (r *Recorder) RecordSleep(duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}

	cmd := Command{
		Type:   CommandType_Sleep,
		Args:   []string{duration.String()},
		Delay:  duration,
		Line:   len(r.commands) + 1,
		Column: 1,
		Raw:    fmt.Sprintf("Sleep %v", duration),
	}

	r.commands = append(r.commands, cmd)
	r.lastEventTime = time.Now()
}

// GetCommands returns all recorded commands
func (r *Recorder) GetCommands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// WriteToFile saves the recorded tape to a file
func (r *Recorder) WriteToFile(filename string, header string) error {
	return os.WriteFile(filename, []byte(r.String(header)), 0o644)
}

// String returns the tape content as a formatted string
func (r *Recorder) String(header string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder
	if header != "" {
		fmt.Fprintf(&sb, "# %s\n", header)
		fmt.Fprintf(&sb, "# Recorded: %s\n\n", r.startTime.Format(time.RFC3339))
	}

	for _, cmd := range r.commands {
		if cmd.Type != CommandType_Sleep && cmd.Delay >= r.minSleep {
			fmt.Fprintf(&sb, "Sleep %v\n", cmd.Delay.Round(time.Millisecond))
		}
		sb.WriteString(cmd.Raw + "\n")
	}

	return sb.String()
}

// CommandCount returns the number of recorded commands
func (r *Recorder) CommandCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.commands)
}

// eventToCommand converts a session event to the command that replays it
func eventToCommand(ev session.Event) *Command {
	var cmdType CommandType
	args := []string{ev.WindowID}

	switch ev.Type {
	case session.EventOpened:
		cmdType = CommandType_Open
	case session.EventClosed:
		cmdType = CommandType_Close
	case session.EventFocused:
		cmdType = CommandType_Focus
	case session.EventMinimized:
		cmdType = CommandType_Minimize
	case session.EventRestored:
		cmdType = CommandType_Restore
	case session.EventMaximized, session.EventUnmaximized:
		cmdType = CommandType_Maximize
	case session.EventMoved:
		if ev.Geometry == nil {
			return nil
		}
		cmdType = CommandType_DragStop
		g := *ev.Geometry
		args = append(args, formatFloat(g.X), formatFloat(g.Y))
		w, wok := g.Width.Pixels()
		h, hok := g.Height.Pixels()
		if wok && hok {
			args = append(args, formatFloat(w), formatFloat(h))
		}
	default:
		// Settle and config events have no script form
		return nil
	}

	return &Command{Type: cmdType, Args: args}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RecordingStats contains statistics about the recording
type RecordingStats struct {
	CommandCount int
	Duration     time.Duration
	IsRecording  bool
}

// GetStats returns recording statistics
func (r *Recorder) GetStats() RecordingStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RecordingStats{
		CommandCount: len(r.commands),
		Duration:     time.Since(r.startTime),
		IsRecording:  r.enabled,
	}
}

// Clear clears all recorded commands
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = []Command{}
	r.startTime = time.Now()
	r.lastEventTime = r.startTime
}
