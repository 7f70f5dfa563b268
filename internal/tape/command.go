package tape

import (
	"fmt"
	"strings"
	"time"
)

// CommandType represents the type of a tape command
type CommandType string

const (
	// Window lifecycle
	CommandType_Open     CommandType = "Open"
	CommandType_Close    CommandType = "Close"
	CommandType_Focus    CommandType = "Focus"
	CommandType_Minimize CommandType = "Minimize"
	CommandType_Restore  CommandType = "Restore"
	CommandType_Maximize CommandType = "Maximize"
	CommandType_DragStop CommandType = "DragStop"

	// Session
	CommandType_RestoreAll CommandType = "RestoreAll"
	CommandType_NextWindow CommandType = "NextWindow"
	CommandType_PrevWindow CommandType = "PrevWindow"

	// Synchronization
	CommandType_Sleep  CommandType = "Sleep"
	CommandType_Expect CommandType = "Expect"
)

// ExpectSubject names what an Expect command checks.
type ExpectSubject string

const (
	// Expect focused <id|none>
	ExpectFocused ExpectSubject = "focused"
	// Expect minimized <id>... in dock order
	ExpectMinimized ExpectSubject = "minimized"
	// Expect zorder <id>... bottom to top
	ExpectZOrder ExpectSubject = "zorder"
	// Expect open <id>...
	ExpectOpen ExpectSubject = "open"
	// Expect closed <id>...
	ExpectClosed ExpectSubject = "closed"
	// Expect phase <id> floating|minimized|maximized
	ExpectPhase ExpectSubject = "phase"
	// Expect geometry <id> x y width height
	ExpectGeometry ExpectSubject = "geometry"
)

// IsValid reports whether s is a known subject.
func (s ExpectSubject) IsValid() bool {
	switch s {
	case ExpectFocused, ExpectMinimized, ExpectZOrder, ExpectOpen, ExpectClosed,
		ExpectPhase, ExpectGeometry:
		return true
	}
	return false
}

// Command represents a parsed tape command
type Command struct {
	Type   CommandType
	Args   []string      // Command arguments
	Delay  time.Duration // Delay after this command
	Line   int           // Source line number
	Column int           // Source column number
	Raw    string        // Original raw command text
}

// Window returns the window id a lifecycle command targets
func (c *Command) Window() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// String returns a string representation of the command
func (c *Command) String() string {
	if len(c.Args) == 0 {
		return string(c.Type)
	}
	return fmt.Sprintf("%s %s", c.Type, strings.Join(c.Args, " "))
}

// IsCommand returns true if the command type is a valid command
func (ct CommandType) IsCommand() bool {
	switch ct {
	case CommandType_Open, CommandType_Close, CommandType_Focus,
		CommandType_Minimize, CommandType_Restore, CommandType_Maximize,
		CommandType_DragStop,
		CommandType_RestoreAll, CommandType_NextWindow, CommandType_PrevWindow,
		CommandType_Sleep, CommandType_Expect:
		return true
	}
	return false
}

// ParseDuration parses a duration string (e.g., "500ms", "1s")
func ParseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
