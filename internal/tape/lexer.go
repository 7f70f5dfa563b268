package tape

import (
	"strings"
	"unicode"
)

// Lexer splits a tape script into tokens. Line and column are 1-based and
// always describe the byte at off.
type Lexer struct {
	src  string
	off  int
	line int
	col  int
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	return &Lexer{src: input, line: 1, col: 1}
}

// at returns the byte k positions ahead, or 0 past the end.
func (l *Lexer) at(k int) byte {
	if l.off+k >= len(l.src) {
		return 0
	}
	return l.src[l.off+k]
}

func (l *Lexer) advance() {
	if l.off >= len(l.src) {
		return
	}
	if l.src[l.off] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.off++
}

// readWhile consumes bytes while keep holds and returns them.
func (l *Lexer) readWhile(keep func(byte) bool) string {
	start := l.off
	for l.off < len(l.src) && keep(l.src[l.off]) {
		l.advance()
	}
	return l.src[start:l.off]
}

// readQuoted consumes a quoted literal. Backslash escapes the next byte, with
// \n and \t mapped to control characters. An unterminated literal ends at
// the line break.
func (l *Lexer) readQuoted() string {
	quote := l.at(0)
	l.advance()

	var sb strings.Builder
	for c := l.at(0); c != 0 && c != quote && c != '\n'; c = l.at(0) {
		if c == '\\' && l.at(1) != 0 {
			l.advance()
			c = l.at(0)
			switch c {
			case 'n':
				c = '\n'
			case 't':
				c = '\t'
			}
		}
		sb.WriteByte(c)
		l.advance()
	}
	if l.at(0) == quote {
		l.advance()
	}
	return sb.String()
}

// readNumeric consumes a number and, when a unit follows directly, the unit
// as well, returning a duration token.
func (l *Lexer) readNumeric() (TokenType, string) {
	start := l.off
	if l.at(0) == '-' {
		l.advance()
	}
	l.readWhile(func(c byte) bool { return isDigit(c) || c == '.' })
	if !isLetter(l.at(0)) {
		return TOKEN_NUMBER, l.src[start:l.off]
	}
	l.readWhile(isIdentifierChar)
	return TOKEN_DURATION, l.src[start:l.off]
}

// NextToken returns the next token in the input
func (l *Lexer) NextToken() Token {
	for {
		l.readWhile(func(c byte) bool { return c == ' ' || c == '\t' || c == '\r' })
		if l.at(0) != '#' {
			break
		}
		l.readWhile(func(c byte) bool { return c != '\n' })
	}

	tok := Token{Line: l.line, Column: l.col}
	c := l.at(0)
	switch {
	case c == 0:
		tok.Type = TOKEN_EOF
	case c == '\n':
		tok.Type, tok.Literal = TOKEN_NEWLINE, "\n"
		l.advance()
	case c == '@':
		tok.Type, tok.Literal = TOKEN_AT, "@"
		l.advance()
	case c == '"' || c == '\'' || c == '`':
		tok.Type, tok.Literal = TOKEN_STRING, l.readQuoted()
	case isDigit(c) || (c == '-' && isDigit(l.at(1))):
		tok.Type, tok.Literal = l.readNumeric()
	case isIdentifierChar(c):
		tok.Literal = l.readWhile(isIdentifierChar)
		tok.Type = LookupKeyword(tok.Literal)
	default:
		tok.Type, tok.Literal = TOKEN_ILLEGAL, string(c)
		l.advance()
	}
	return tok
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return unicode.IsLetter(rune(c)) }

// isIdentifierChar accepts window ids such as "aboutThisMac" or "my-app".
func isIdentifierChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '-' || c == '.'
}

// Tokenize returns all tokens from the input, ending with TOKEN_EOF.
func Tokenize(input string) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TOKEN_EOF {
			return tokens
		}
	}
}
