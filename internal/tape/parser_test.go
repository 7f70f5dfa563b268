package tape

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScript(t *testing.T) {
	script := `# open two windows
Open terminal
Open@250ms finder
Minimize "terminal"
DragStop finder 10 -20
DragStop finder 10 20 640 480
Sleep 800ms
RestoreAll
NextWindow
PrevWindow
Expect focused terminal
Expect minimized
Expect zorder finder terminal
Expect phase finder floating
Expect geometry finder 10 20 640 480
`
	commands, errs := ParseFile(script)
	require.Empty(t, errs)
	require.Len(t, commands, 14)

	tests := []struct {
		index int
		typ   CommandType
		args  []string
		delay time.Duration
		line  int
	}{
		{0, CommandType_Open, []string{"terminal"}, 0, 2},
		{1, CommandType_Open, []string{"finder"}, 250 * time.Millisecond, 3},
		{2, CommandType_Minimize, []string{"terminal"}, 0, 4},
		{3, CommandType_DragStop, []string{"finder", "10", "-20"}, 0, 5},
		{4, CommandType_DragStop, []string{"finder", "10", "20", "640", "480"}, 0, 6},
		{5, CommandType_Sleep, []string{"800ms"}, 800 * time.Millisecond, 7},
		{6, CommandType_RestoreAll, nil, 0, 8},
		{7, CommandType_NextWindow, nil, 0, 9},
		{8, CommandType_PrevWindow, nil, 0, 10},
		{9, CommandType_Expect, []string{"focused", "terminal"}, 0, 11},
		{10, CommandType_Expect, []string{"minimized"}, 0, 12},
		{11, CommandType_Expect, []string{"zorder", "finder", "terminal"}, 0, 13},
	}
	for _, tt := range tests {
		cmd := commands[tt.index]
		assert.Equal(t, tt.typ, cmd.Type, "command %d", tt.index)
		assert.Equal(t, tt.args, cmd.Args, "command %d", tt.index)
		assert.Equal(t, tt.delay, cmd.Delay, "command %d", tt.index)
		assert.Equal(t, tt.line, cmd.Line, "command %d", tt.index)
	}
	assert.Equal(t, "DragStop finder 10 -20", commands[3].Raw)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{"missing window", "Open", "Open expects a window id"},
		{"extra argument", "Close terminal finder", "unexpected argument"},
		{"sleep without duration", "Sleep 5", "Sleep expects a duration"},
		{"bad delay", "Focus@ terminal", "expected duration after @"},
		{"drag without coordinates", "DragStop terminal 10", "expects x y [width height]"},
		{"unknown command", "Launch terminal", "unexpected token"},
		{"unknown subject", "Expect visible terminal", "unknown subject"},
		{"focused arity", "Expect focused a b", "focused expects one window id"},
		{"unknown phase", "Expect phase terminal hidden", "unknown phase"},
		{"geometry arity", "Expect geometry terminal 1 2", "geometry expects"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commands, errs := ParseFile(tt.input)
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Contains(t, errs[0], tt.errMsg)
			assert.True(t, strings.HasPrefix(errs[0], "line 1: "), errs[0])
			assert.Empty(t, commands)
		})
	}
}

func TestParseCollectsErrorsWithLineNumbers(t *testing.T) {
	script := "Open terminal\nSleep\nFocus terminal\nExpect nothing\n"
	commands, err := Parse(script)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2:")
	assert.Contains(t, err.Error(), "line 4:")
	assert.Len(t, commands, 2)
}

func TestValidateScript(t *testing.T) {
	ok, errs := ValidateScript("Open terminal\n")
	assert.True(t, ok)
	assert.Empty(t, errs)

	ok, errs = ValidateScript("# nothing here\n")
	assert.False(t, ok)
	assert.Equal(t, []string{"no commands found in script"}, errs)
}
