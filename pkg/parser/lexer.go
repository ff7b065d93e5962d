package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the kind of token.
type TokenType int

const (
	EOF TokenType = iota

	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	LBRACE   // "{"
	RBRACE   // "}"

	QUOTE      // "'"
	QUASIQUOTE // "`"
	UNQUOTE    // ","
	SPLICE     // ",@"

	SYMBOL
	KEYWORD // ":name"
	STRING
	FSTRING // f"..." with {expr} holes
	INTEGER
	FLOAT
)

// Token carries a lexeme and its source position.
type Token struct {
	Type TokenType
	Text string
	Line int
	Col  int
}

// LexError reports a lexical failure with position.
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// Lexer walks the source rune by rune.
type Lexer struct {
	src  string
	cur  int
	line int
	col  int
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

func (l *Lexer) err(msg string) error {
	return &LexError{Line: l.line, Col: l.col, Msg: msg}
}

func (l *Lexer) atEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() rune {
	if l.atEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.cur:])
	return r
}

func (l *Lexer) peekAt(offset int) rune {
	pos := l.cur
	for i := 0; i < offset; i++ {
		if pos >= len(l.src) {
			return 0
		}
		_, w := utf8.DecodeRuneInString(l.src[pos:])
		pos += w
	}
	if pos >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[pos:])
	return r
}

func (l *Lexer) advance() rune {
	if l.atEnd() {
		return 0
	}
	r, w := utf8.DecodeRuneInString(l.src[l.cur:])
	l.cur += w
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		r := l.peek()
		switch {
		case r == ';':
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		case unicode.IsSpace(r):
			l.advance()
		default:
			return
		}
	}
}

func isSymbolRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '+', '-', '*', '/', '<', '>', '=', '!', '?', '_', '&', '%', '|', '.', '@', '$', '^', '~':
		return true
	}
	return false
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// Tokens lexes the whole source.
func (l *Lexer) Tokens() ([]Token, error) {
	var out []Token
	for {
		l.skipWhitespaceAndComments()
		if l.atEnd() {
			out = append(out, Token{Type: EOF, Line: l.line, Col: l.col})
			return out, nil
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
}

func (l *Lexer) next() (Token, error) {
	line, col := l.line, l.col
	r := l.peek()
	switch r {
	case '(':
		l.advance()
		return Token{Type: LPAREN, Text: "(", Line: line, Col: col}, nil
	case ')':
		l.advance()
		return Token{Type: RPAREN, Text: ")", Line: line, Col: col}, nil
	case '[':
		l.advance()
		return Token{Type: LBRACKET, Text: "[", Line: line, Col: col}, nil
	case ']':
		l.advance()
		return Token{Type: RBRACKET, Text: "]", Line: line, Col: col}, nil
	case '{':
		l.advance()
		return Token{Type: LBRACE, Text: "{", Line: line, Col: col}, nil
	case '}':
		l.advance()
		return Token{Type: RBRACE, Text: "}", Line: line, Col: col}, nil
	case '\'':
		l.advance()
		return Token{Type: QUOTE, Text: "'", Line: line, Col: col}, nil
	case '`':
		l.advance()
		return Token{Type: QUASIQUOTE, Text: "`", Line: line, Col: col}, nil
	case ',':
		l.advance()
		if l.peek() == '@' {
			l.advance()
			return Token{Type: SPLICE, Text: ",@", Line: line, Col: col}, nil
		}
		return Token{Type: UNQUOTE, Text: ",", Line: line, Col: col}, nil
	case '"':
		text, err := l.scanString()
		if err != nil {
			return Token{}, err
		}
		return Token{Type: STRING, Text: text, Line: line, Col: col}, nil
	case ':':
		l.advance()
		name := l.scanSymbolText()
		if name == "" {
			return Token{}, l.err("expected keyword name after ':'")
		}
		return Token{Type: KEYWORD, Text: name, Line: line, Col: col}, nil
	}

	// f-strings: f"..." keeps the raw body; the reader splits the holes.
	if r == 'f' && l.peekAt(1) == '"' {
		l.advance()
		text, err := l.scanString()
		if err != nil {
			return Token{}, err
		}
		return Token{Type: FSTRING, Text: text, Line: line, Col: col}, nil
	}

	if isDigit(r) || (r == '-' && isDigit(l.peekAt(1))) {
		return l.scanNumber(line, col)
	}
	if isSymbolRune(r) {
		name := l.scanSymbolText()
		return Token{Type: SYMBOL, Text: name, Line: line, Col: col}, nil
	}
	return Token{}, l.err(fmt.Sprintf("unexpected character %q", r))
}

func (l *Lexer) scanSymbolText() string {
	var b strings.Builder
	for !l.atEnd() && isSymbolRune(l.peek()) {
		b.WriteRune(l.advance())
	}
	return b.String()
}

func (l *Lexer) scanString() (string, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.atEnd() {
			return "", l.err("unterminated string")
		}
		r := l.advance()
		if r == '"' {
			return b.String(), nil
		}
		if r != '\\' {
			b.WriteRune(r)
			continue
		}
		esc := l.advance()
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case '{':
			// Escaped brace inside f-strings.
			b.WriteString("\\{")
		default:
			return "", l.err(fmt.Sprintf("unknown escape '\\%c'", esc))
		}
	}
}

func (l *Lexer) scanNumber(line, col int) (Token, error) {
	var b strings.Builder
	if l.peek() == '-' {
		b.WriteRune(l.advance())
	}
	isFloat := false
	for !l.atEnd() {
		r := l.peek()
		if isDigit(r) {
			b.WriteRune(l.advance())
			continue
		}
		if r == '.' && isDigit(l.peekAt(1)) && !isFloat {
			isFloat = true
			b.WriteRune(l.advance())
			continue
		}
		if (r == 'e' || r == 'E') && (isDigit(l.peekAt(1)) || l.peekAt(1) == '-') {
			isFloat = true
			b.WriteRune(l.advance())
			if l.peek() == '-' {
				b.WriteRune(l.advance())
			}
			continue
		}
		break
	}
	tt := INTEGER
	if isFloat {
		tt = FLOAT
	}
	return Token{Type: tt, Text: b.String(), Line: line, Col: col}, nil
}
