package lexer

import (
	"testing"

	"github.com/loxi-lang/loxi/token"
)

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestLexPunctuationAndOperators(t *testing.T) {
	tokens, err := Lex("(){},.-+;*%^[]:!= == <= >= != / \\")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	want := []token.Kind{
		token.LEFTPAREN, token.RIGHTPAREN, token.LEFTBRACE, token.RIGHTBRACE,
		token.COMMA, token.DOT, token.MINUS, token.PLUS, token.SEMICOLON,
		token.STAR, token.PERCENT, token.CARET, token.LEFTBRACKET, token.RIGHTBRACKET,
		token.COLON, token.BANGEQUAL, token.EQUALEQUAL, token.LESSEQUAL,
		token.GREATEREQUAL, token.BANGEQUAL, token.SLASH, token.BACKSLASH, token.EOF,
	}
	got := kinds(tokens)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexStringEscapes(t *testing.T) {
	tokens, err := Lex(`"a\nb\t\"c\\d"`)
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if tokens[0].Kind != token.STRING {
		t.Fatalf("got kind %v, want STRING", tokens[0].Kind)
	}
	want := "a\nb\t\"c\\d"
	if tokens[0].Literal != want {
		t.Errorf("got literal %q, want %q", tokens[0].Literal, want)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := Lex(`"unterminated`)
	if err == nil {
		t.Fatal("expected an error for an unterminated string")
	}
}

func TestLexNumberAndIdentifier(t *testing.T) {
	tokens, err := Lex("12 3.5 foo_bar and")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if tokens[0].Kind != token.NUMBER || tokens[0].Literal != 12.0 {
		t.Errorf("got %v, want NUMBER 12", tokens[0])
	}
	if tokens[1].Kind != token.NUMBER || tokens[1].Literal != 3.5 {
		t.Errorf("got %v, want NUMBER 3.5", tokens[1])
	}
	if tokens[2].Kind != token.IDENT {
		t.Errorf("got %v, want IDENT", tokens[2])
	}
	if tokens[3].Kind != token.AND {
		t.Errorf("got %v, want AND keyword", tokens[3])
	}
}

func TestLexInvalidNumberContinuesAndReportsError(t *testing.T) {
	tokens, err := Lex("12abc + 1;")
	if err == nil {
		t.Fatal("expected an error for 12abc")
	}
	// lexing continues past the error (spec.md §4.1).
	found := false
	for _, tok := range tokens {
		if tok.Kind == token.PLUS {
			found = true
		}
	}
	if !found {
		t.Errorf("expected lexer to continue past the bad number, got %v", tokens)
	}
}

func TestLexLineCommentsAndWhitespace(t *testing.T) {
	tokens, err := Lex("var x = 1; // a comment\nvar y = 2;")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	var lines []int
	for _, tok := range tokens {
		lines = append(lines, tok.Line)
	}
	if tokens[len(tokens)-2].Line != 2 {
		t.Errorf("expected token before EOF on line 2, got line %d (%v)", tokens[len(tokens)-2].Line, lines)
	}
}
