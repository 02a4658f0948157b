package irtext

import (
	"fmt"
	"strconv"
)

// ASCII classification tables
var (
	isSpace     [128]bool
	isNamePart  [128]bool
	isAtomPart  [128]bool
	punctuation [128]TokenType
)

func init() {
	for i := range 128 {
		ch := byte(i)
		isSpace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
		isNamePart[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9') || ch == '_'
		isAtomPart[i] = isNamePart[i] || ch == '-' || ch == '.'
		punctuation[i] = ILLEGAL
	}
	punctuation['('] = LPAREN
	punctuation[')'] = RPAREN
	punctuation['{'] = LBRACE
	punctuation['}'] = RBRACE
	punctuation['['] = LBRACKET
	punctuation[']'] = RBRACKET
	punctuation[';'] = SEMICOLON
	punctuation[':'] = COLON
}

// Lexer splits IR notation into tokens. Comments run from # to the end of
// the line.
type Lexer struct {
	input  string
	pos    int
	line   int
	column int
}

// NewLexer creates a lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, column: 1}
}

func (l *Lexer) peekByte() byte {
	if l.pos < len(l.input) {
		return l.input[l.pos]
	}
	return 0
}

func (l *Lexer) advance() byte {
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.peekByte()
		switch {
		case ch < 128 && isSpace[ch]:
			l.advance()
		case ch == '#':
			for l.pos < len(l.input) && l.peekByte() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// Next returns the next token, EOF at the end and ILLEGAL with an error
// message as its value on malformed input.
func (l *Lexer) Next() Token {
	l.skipSpaceAndComments()
	tok := Token{Line: l.line, Column: l.column}
	if l.pos >= len(l.input) {
		tok.Type = EOF
		return tok
	}

	ch := l.peekByte()
	switch {
	case ch == '"':
		return l.text(tok)
	case ch == '$' || ch == '@':
		l.advance()
		tok.Type = VARIABLE
		if ch == '@' {
			tok.Type = BUILTIN
		}
		tok.Value = l.run(isNamePart[:])
		if tok.Value == "" {
			return illegal(tok, "empty name after %q", ch)
		}
		return tok
	case ch < 128 && isAtomPart[ch]:
		tok.Type = ATOM
		tok.Value = l.atom()
		return tok
	case ch < 128 && punctuation[ch] != ILLEGAL:
		l.advance()
		tok.Type = punctuation[ch]
		tok.Value = string(ch)
		return tok
	}
	l.advance()
	return illegal(tok, "unexpected character %q", ch)
}

func illegal(tok Token, format string, args ...any) Token {
	tok.Type = ILLEGAL
	tok.Value = fmt.Sprintf(format, args...)
	return tok
}

func (l *Lexer) run(class []bool) string {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.peekByte()
		if ch >= 128 || !class[ch] {
			break
		}
		l.advance()
	}
	return l.input[start:l.pos]
}

// atom reads a bare word. A bracket directly attached to a word belongs to
// it, as in at[List].
func (l *Lexer) atom() string {
	start := l.pos
	l.run(isAtomPart[:])
	for l.peekByte() == '[' {
		end := l.pos + 1
		for end < len(l.input) && l.input[end] != ']' && l.input[end] < 128 && isNamePart[l.input[end]] {
			end++
		}
		if end >= len(l.input) || l.input[end] != ']' {
			break
		}
		for l.pos <= end {
			l.advance()
		}
	}
	return l.input[start:l.pos]
}

func (l *Lexer) text(tok Token) Token {
	start := l.pos
	l.advance()
	for l.pos < len(l.input) {
		ch := l.advance()
		if ch == '\\' && l.pos < len(l.input) {
			l.advance()
			continue
		}
		if ch == '"' {
			v, err := strconv.Unquote(l.input[start:l.pos])
			if err != nil {
				return illegal(tok, "malformed text literal: %v", err)
			}
			tok.Type = TEXT
			tok.Value = v
			return tok
		}
	}
	return illegal(tok, "unterminated text literal")
}
