package diag

import (
	"errors"
	"testing"

	"github.com/loxi-lang/loxi/token"
)

func TestSinkErrJoinsAndUnwraps(t *testing.T) {
	var s Sink
	tok1 := token.Token{Kind: token.IDENT, Lexeme: "x", Line: 1}
	tok2 := token.Token{Kind: token.IDENT, Lexeme: "y", Line: 2}
	s.Report(New(LexError, tok1, "bad token %q", "x"))
	s.Report(New(ParseError, tok2, "unexpected %q", "y"))

	err := s.Err()
	if err == nil {
		t.Fatal("expected a non-nil joined error")
	}

	var target At
	if !errors.As(err, &target) {
		t.Fatal("expected errors.As to find an individual diag.At inside the joined error")
	}
	if target.Kind != LexError {
		t.Errorf("errors.As found Kind = %v, want the first-reported LexError", target.Kind)
	}
}

func TestSinkErrNilWhenEmpty(t *testing.T) {
	var s Sink
	if err := s.Err(); err != nil {
		t.Errorf("Err() = %v, want nil for an empty sink", err)
	}
}
