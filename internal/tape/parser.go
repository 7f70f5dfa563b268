package tape

import (
	"errors"
	"fmt"
	"strconv"
)

// Parser parses .tape files into commands
type Parser struct {
	lexer   *Lexer
	curTok  Token
	peekTok Token
	errors  []string
}

// NewParser creates a new parser from a lexer
func NewParser(l *Lexer) *Parser {
	p := &Parser{
		lexer:  l,
		errors: []string{},
	}
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token
func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.lexer.NextToken()
}

// Parse parses the entire tape file and returns all commands
func (p *Parser) Parse() []Command {
	var commands []Command

	for p.curTok.Type != TOKEN_EOF {
		// Skip newlines
		if p.curTok.Type == TOKEN_NEWLINE {
			p.nextToken()
			continue
		}

		cmd, ok := p.parseCommand()
		if !ok {
			continue
		}

		commands = append(commands, cmd)
	}

	return commands
}

// parseCommand parses a single command
func (p *Parser) parseCommand() (Command, bool) {
	switch tt := p.curTok.Type; tt {
	case TOKEN_OPEN:
		return p.parseWindowCommand(CommandType_Open)
	case TOKEN_CLOSE:
		return p.parseWindowCommand(CommandType_Close)
	case TOKEN_FOCUS:
		return p.parseWindowCommand(CommandType_Focus)
	case TOKEN_MINIMIZE:
		return p.parseWindowCommand(CommandType_Minimize)
	case TOKEN_RESTORE:
		return p.parseWindowCommand(CommandType_Restore)
	case TOKEN_MAXIMIZE:
		return p.parseWindowCommand(CommandType_Maximize)
	case TOKEN_DRAGSTOP:
		return p.parseDragStopCommand()
	case TOKEN_RESTORE_ALL:
		return p.parseBasicCommand(CommandType_RestoreAll)
	case TOKEN_NEXT_WINDOW:
		return p.parseBasicCommand(CommandType_NextWindow)
	case TOKEN_PREV_WINDOW:
		return p.parseBasicCommand(CommandType_PrevWindow)
	case TOKEN_SLEEP:
		return p.parseSleepCommand()
	case TOKEN_EXPECT:
		return p.parseExpectCommand()
	default:
		p.addError(fmt.Sprintf("unexpected token: %v %q", tt, p.curTok.Literal))
		p.skipToNextLine()
		return Command{}, false
	}
}

// newCommand starts a command at the current token and consumes it
func (p *Parser) newCommand(cmdType CommandType) Command {
	cmd := Command{
		Type:   cmdType,
		Line:   p.curTok.Line,
		Column: p.curTok.Column,
	}
	p.nextToken()
	return cmd
}

// parseDelay parses the optional @<duration> modifier
func (p *Parser) parseDelay(cmd *Command) bool {
	if p.curTok.Type != TOKEN_AT {
		return true
	}
	p.nextToken()
	if p.curTok.Type != TOKEN_DURATION {
		p.addError("expected duration after @")
		return false
	}
	duration, err := ParseDuration(p.curTok.Literal)
	if err != nil {
		p.addError(fmt.Sprintf("invalid duration: %s", p.curTok.Literal))
		return false
	}
	cmd.Delay = duration
	p.nextToken()
	return true
}

// endCommand requires the rest of the line to be empty
func (p *Parser) endCommand(cmd Command) (Command, bool) {
	if p.curTok.Type != TOKEN_NEWLINE && p.curTok.Type != TOKEN_EOF {
		p.addError(fmt.Sprintf("%s: unexpected argument %q", cmd.Type, p.curTok.Literal))
		p.skipToNextLine()
		return cmd, false
	}
	cmd.Raw = cmd.String()
	return cmd, true
}

// fail records msg and drops the rest of the line
func (p *Parser) fail(cmd Command, msg string) (Command, bool) {
	p.addError(fmt.Sprintf("%s %s", cmd.Type, msg))
	p.skipToNextLine()
	return cmd, false
}

// parseBasicCommand parses commands without arguments
func (p *Parser) parseBasicCommand(cmdType CommandType) (Command, bool) {
	cmd := p.newCommand(cmdType)
	if !p.parseDelay(&cmd) {
		p.skipToNextLine()
		return cmd, false
	}
	return p.endCommand(cmd)
}

// parseWindowCommand parses <Command>[@delay] <window>
func (p *Parser) parseWindowCommand(cmdType CommandType) (Command, bool) {
	cmd := p.newCommand(cmdType)
	if !p.parseDelay(&cmd) {
		p.skipToNextLine()
		return cmd, false
	}

	id, ok := p.parseWindowID()
	if !ok {
		return p.fail(cmd, fmt.Sprintf("expects a window id, got %v", p.curTok.Type))
	}
	cmd.Args = []string{id}
	return p.endCommand(cmd)
}

// parseDragStopCommand parses DragStop <window> <x> <y> [<width> <height>]
func (p *Parser) parseDragStopCommand() (Command, bool) {
	cmd := p.newCommand(CommandType_DragStop)
	if !p.parseDelay(&cmd) {
		p.skipToNextLine()
		return cmd, false
	}

	id, ok := p.parseWindowID()
	if !ok {
		return p.fail(cmd, fmt.Sprintf("expects a window id, got %v", p.curTok.Type))
	}
	cmd.Args = []string{id}

	for p.curTok.Type == TOKEN_NUMBER {
		cmd.Args = append(cmd.Args, p.curTok.Literal)
		p.nextToken()
	}
	if n := len(cmd.Args) - 1; n != 2 && n != 4 {
		return p.fail(cmd, fmt.Sprintf("expects x y [width height], got %d numbers", n))
	}
	return p.endCommand(cmd)
}

// parseSleepCommand parses Sleep <duration> commands
func (p *Parser) parseSleepCommand() (Command, bool) {
	cmd := p.newCommand(CommandType_Sleep)

	if p.curTok.Type != TOKEN_DURATION {
		return p.fail(cmd, fmt.Sprintf("expects a duration, got %v", p.curTok.Type))
	}
	duration, err := ParseDuration(p.curTok.Literal)
	if err != nil {
		return p.fail(cmd, fmt.Sprintf("invalid duration: %s", p.curTok.Literal))
	}
	cmd.Args = []string{p.curTok.Literal}
	cmd.Delay = duration
	p.nextToken()

	return p.endCommand(cmd)
}

// parseExpectCommand parses Expect <subject> <args...>
func (p *Parser) parseExpectCommand() (Command, bool) {
	cmd := p.newCommand(CommandType_Expect)

	subject := ExpectSubject(p.curTok.Literal)
	if p.curTok.Type != TOKEN_IDENTIFIER || !subject.IsValid() {
		return p.fail(cmd, fmt.Sprintf("unknown subject %q", p.curTok.Literal))
	}
	cmd.Args = []string{string(subject)}
	p.nextToken()

	for p.curTok.Type != TOKEN_NEWLINE && p.curTok.Type != TOKEN_EOF {
		switch p.curTok.Type {
		case TOKEN_IDENTIFIER, TOKEN_STRING, TOKEN_NUMBER:
			cmd.Args = append(cmd.Args, p.curTok.Literal)
			p.nextToken()
		default:
			return p.fail(cmd, fmt.Sprintf("unexpected %v %q", p.curTok.Type, p.curTok.Literal))
		}
	}

	args := cmd.Args[1:]
	switch subject {
	case ExpectFocused:
		if len(args) != 1 {
			return p.fail(cmd, "focused expects one window id or none")
		}
	case ExpectOpen, ExpectClosed:
		if len(args) == 0 {
			return p.fail(cmd, fmt.Sprintf("%s expects at least one window id", subject))
		}
	case ExpectPhase:
		if len(args) != 2 {
			return p.fail(cmd, "phase expects a window id and a phase")
		}
		switch args[1] {
		case "floating", "minimized", "maximized":
		default:
			return p.fail(cmd, fmt.Sprintf("unknown phase %q", args[1]))
		}
	case ExpectGeometry:
		if len(args) != 5 {
			return p.fail(cmd, "geometry expects a window id, x, y, width and height")
		}
		for _, a := range args[1:] {
			if _, err := strconv.ParseFloat(a, 64); err != nil {
				return p.fail(cmd, fmt.Sprintf("geometry: %q is not a number", a))
			}
		}
	}
	return p.endCommand(cmd)
}

// parseWindowID accepts a bare identifier or a quoted string
func (p *Parser) parseWindowID() (string, bool) {
	switch p.curTok.Type {
	case TOKEN_IDENTIFIER, TOKEN_STRING:
		id := p.curTok.Literal
		p.nextToken()
		return id, id != ""
	}
	return "", false
}

// skipToNextLine skips tokens until the next newline
func (p *Parser) skipToNextLine() {
	for p.curTok.Type != TOKEN_NEWLINE && p.curTok.Type != TOKEN_EOF {
		p.nextToken()
	}
}

// addError adds an error to the parser's error list
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("line %d: %s", p.curTok.Line, msg))
}

// Errors returns the list of parser errors
func (p *Parser) Errors() []string {
	return p.errors
}

// Err joins the parser errors, or returns nil when there were none
func (p *Parser) Err() error {
	if len(p.errors) == 0 {
		return nil
	}
	errs := make([]error, len(p.errors))
	for i, msg := range p.errors {
		errs[i] = errors.New(msg)
	}
	return errors.Join(errs...)
}

// ParseFile parses a tape file from a string
func ParseFile(content string) ([]Command, []string) {
	l := New(content)
	p := NewParser(l)
	commands := p.Parse()
	return commands, p.Errors()
}

// Parse parses content and returns every syntax error joined.
func Parse(content string) ([]Command, error) {
	p := NewParser(New(content))
	commands := p.Parse()
	return commands, p.Err()
}
