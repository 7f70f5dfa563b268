package tape

// TokenType represents the type of a token in a .tape file
type TokenType string

const (
	// Special tokens
	TOKEN_EOF     TokenType = "EOF"
	TOKEN_ILLEGAL TokenType = "ILLEGAL"
	TOKEN_NEWLINE TokenType = "NEWLINE"

	// Literals
	TOKEN_STRING     TokenType = "STRING"
	TOKEN_NUMBER     TokenType = "NUMBER"
	TOKEN_DURATION   TokenType = "DURATION"
	TOKEN_IDENTIFIER TokenType = "IDENTIFIER"

	// Symbols
	TOKEN_AT TokenType = "AT"

	// Commands - Window lifecycle
	TOKEN_OPEN     TokenType = "Open"
	TOKEN_CLOSE    TokenType = "Close"
	TOKEN_FOCUS    TokenType = "Focus"
	TOKEN_MINIMIZE TokenType = "Minimize"
	TOKEN_RESTORE  TokenType = "Restore"
	TOKEN_MAXIMIZE TokenType = "Maximize"
	TOKEN_DRAGSTOP TokenType = "DragStop"

	// Commands - Session
	TOKEN_RESTORE_ALL TokenType = "RestoreAll"
	TOKEN_NEXT_WINDOW TokenType = "NextWindow"
	TOKEN_PREV_WINDOW TokenType = "PrevWindow"

	// Commands - Synchronization
	TOKEN_SLEEP  TokenType = "Sleep"
	TOKEN_EXPECT TokenType = "Expect"
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// IsCommand returns true if the token type is a command
func (tt TokenType) IsCommand() bool {
	switch tt {
	case TOKEN_OPEN, TOKEN_CLOSE, TOKEN_FOCUS, TOKEN_MINIMIZE, TOKEN_RESTORE,
		TOKEN_MAXIMIZE, TOKEN_DRAGSTOP,
		TOKEN_RESTORE_ALL, TOKEN_NEXT_WINDOW, TOKEN_PREV_WINDOW,
		TOKEN_SLEEP, TOKEN_EXPECT:
		return true
	}
	return false
}

// TakesWindow returns true if the command's first argument is a window id
func (tt TokenType) TakesWindow() bool {
	switch tt {
	case TOKEN_OPEN, TOKEN_CLOSE, TOKEN_FOCUS, TOKEN_MINIMIZE, TOKEN_RESTORE,
		TOKEN_MAXIMIZE, TOKEN_DRAGSTOP:
		return true
	}
	return false
}

// KeywordTokenMap maps string keywords to token types
var KeywordTokenMap = map[string]TokenType{
	// Window lifecycle
	"Open":     TOKEN_OPEN,
	"Close":    TOKEN_CLOSE,
	"Focus":    TOKEN_FOCUS,
	"Minimize": TOKEN_MINIMIZE,
	"Restore":  TOKEN_RESTORE,
	"Maximize": TOKEN_MAXIMIZE,
	"DragStop": TOKEN_DRAGSTOP,

	// Session
	"RestoreAll": TOKEN_RESTORE_ALL,
	"NextWindow": TOKEN_NEXT_WINDOW,
	"PrevWindow": TOKEN_PREV_WINDOW,

	// Synchronization
	"Sleep":  TOKEN_SLEEP,
	"Expect": TOKEN_EXPECT,
}

// LookupKeyword returns the token type for a keyword, or TOKEN_IDENTIFIER if not a keyword
func LookupKeyword(ident string) TokenType {
	if tt, ok := KeywordTokenMap[ident]; ok {
		return tt
	}
	return TOKEN_IDENTIFIER
}
