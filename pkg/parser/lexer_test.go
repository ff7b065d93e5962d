package parser

import (
	"testing"
)

func lex(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := NewLexer(src).Tokens()
	if err != nil {
		t.Fatalf("lex %q: %v", src, err)
	}
	return toks
}

func expectTypes(t *testing.T, toks []Token, types ...TokenType) {
	t.Helper()
	if len(toks) != len(types) {
		t.Fatalf("expected %d tokens, got %d: %v", len(types), len(toks), toks)
	}
	for i, tt := range types {
		if toks[i].Type != tt {
			t.Fatalf("token %d: expected type %d, got %d (%q)", i, tt, toks[i].Type, toks[i].Text)
		}
	}
}

func TestLexDelimiters(t *testing.T) {
	expectTypes(t, lex(t, "( ) [ ] { }"),
		LPAREN, RPAREN, LBRACKET, RBRACKET, LBRACE, RBRACE, EOF)
}

func TestLexQuoteFamily(t *testing.T) {
	toks := lex(t, "'x `y ,z ,@w")
	expectTypes(t, toks, QUOTE, SYMBOL, QUASIQUOTE, SYMBOL, UNQUOTE, SYMBOL, SPLICE, SYMBOL, EOF)
	if toks[6].Text != ",@" {
		t.Fatalf("expected splice lexeme, got %q", toks[6].Text)
	}
}

func TestLexNumbers(t *testing.T) {
	toks := lex(t, "42 -7 3.5 -0.25 1e3")
	expectTypes(t, toks, INTEGER, INTEGER, FLOAT, FLOAT, FLOAT, EOF)
	if toks[1].Text != "-7" {
		t.Fatalf("expected -7, got %q", toks[1].Text)
	}
	if toks[4].Text != "1e3" {
		t.Fatalf("expected 1e3, got %q", toks[4].Text)
	}
}

func TestLexMinusAloneIsSymbol(t *testing.T) {
	toks := lex(t, "(- 1 2)")
	expectTypes(t, toks, LPAREN, SYMBOL, INTEGER, INTEGER, RPAREN, EOF)
	if toks[1].Text != "-" {
		t.Fatalf("expected minus symbol, got %q", toks[1].Text)
	}
}

func TestLexKeywords(t *testing.T) {
	toks := lex(t, ":name :as")
	expectTypes(t, toks, KEYWORD, KEYWORD, EOF)
	if toks[0].Text != "name" || toks[1].Text != "as" {
		t.Fatalf("unexpected keyword texts %q %q", toks[0].Text, toks[1].Text)
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks := lex(t, `"a\nb\t\"c\""`)
	expectTypes(t, toks, STRING, EOF)
	if toks[0].Text != "a\nb\t\"c\"" {
		t.Fatalf("unexpected string %q", toks[0].Text)
	}
}

func TestLexFString(t *testing.T) {
	toks := lex(t, `f"hi {name}"`)
	expectTypes(t, toks, FSTRING, EOF)
	if toks[0].Text != "hi {name}" {
		t.Fatalf("unexpected f-string body %q", toks[0].Text)
	}
}

func TestLexFPrefixWithoutQuoteIsSymbol(t *testing.T) {
	toks := lex(t, "first")
	expectTypes(t, toks, SYMBOL, EOF)
	if toks[0].Text != "first" {
		t.Fatalf("expected symbol first, got %q", toks[0].Text)
	}
}

func TestLexCommentsSkipped(t *testing.T) {
	toks := lex(t, "1 ; trailing comment\n; full line\n2")
	expectTypes(t, toks, INTEGER, INTEGER, EOF)
}

func TestLexOperatorSymbols(t *testing.T) {
	toks := lex(t, "|> |>? ||> even? str/join")
	expectTypes(t, toks, SYMBOL, SYMBOL, SYMBOL, SYMBOL, SYMBOL, EOF)
	if toks[1].Text != "|>?" || toks[2].Text != "||>" {
		t.Fatalf("unexpected operator lexemes %q %q", toks[1].Text, toks[2].Text)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := NewLexer(`"open`).Tokens()
	le, ok := err.(*LexError)
	if !ok {
		t.Fatalf("expected LexError, got %v", err)
	}
	if le.Msg != "unterminated string" {
		t.Fatalf("unexpected message %q", le.Msg)
	}
}

func TestLexUnknownEscapeFails(t *testing.T) {
	if _, err := NewLexer(`"\q"`).Tokens(); err == nil {
		t.Fatalf("expected unknown escape error")
	}
}

func TestLexPositions(t *testing.T) {
	toks := lex(t, "a\n  b")
	if toks[0].Line != 1 || toks[0].Col != 1 {
		t.Fatalf("unexpected position for a: %d:%d", toks[0].Line, toks[0].Col)
	}
	if toks[1].Line != 2 || toks[1].Col != 3 {
		t.Fatalf("unexpected position for b: %d:%d", toks[1].Line, toks[1].Col)
	}
}
