package irtext

import "fmt"

// TokenType is the type of a lexical token of the IR notation.
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL

	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	SEMICOLON // ;
	COLON     // :

	VARIABLE // $name
	BUILTIN  // @name
	TEXT     // "quoted"
	ATOM     // op tags, keywords, numbers, ranges
)

var tokenNames = [...]string{
	EOF:       "EOF",
	ILLEGAL:   "ILLEGAL",
	LPAREN:    "LPAREN",
	RPAREN:    "RPAREN",
	LBRACE:    "LBRACE",
	RBRACE:    "RBRACE",
	LBRACKET:  "LBRACKET",
	RBRACKET:  "RBRACKET",
	SEMICOLON: "SEMICOLON",
	COLON:     "COLON",
	VARIABLE:  "VARIABLE",
	BUILTIN:   "BUILTIN",
	TEXT:      "TEXT",
	ATOM:      "ATOM",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is one lexeme with its position.
type Token struct {
	Type   TokenType
	Value  string // unquoted for TEXT, without sigil for VARIABLE and BUILTIN
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Value, t.Line, t.Column)
}
