// Package diag formats and batches the diagnostics produced by every
// stage of the pipeline: lexer, parser, resolver, and interpreter.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/loxi-lang/loxi/token"
)

// Kind classifies a diagnostic by the stage that raised it, per
// spec.md §7.
type Kind int

const (
	LexError Kind = iota
	ParseError
	ResolutionError
	RuntimeError
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case ParseError:
		return "parse error"
	case ResolutionError:
		return "resolution error"
	case RuntimeError:
		return "runtime error"
	default:
		return "error"
	}
}

// At wraps err with the source position of where, matching the
// teacher's utils.ErrorAt: "at end: msg" for EOF, "at line: `lexeme`, msg"
// otherwise.
type At struct {
	Kind  Kind
	Where token.Token
	Err   error
}

func (e At) Error() string {
	if e.Where.Kind == token.EOF {
		return fmt.Sprintf("%s at end: %s", e.Kind, e.Err.Error())
	}
	return fmt.Sprintf("%s at line %d: `%s`, %s", e.Kind, e.Where.Line, e.Where.Lexeme, e.Err.Error())
}

func (e At) Unwrap() error {
	return e.Err
}

// New builds an At diagnostic with a formatted message.
func New(kind Kind, where token.Token, format string, args ...any) At {
	return At{Kind: kind, Where: where, Err: fmt.Errorf(format, args...)}
}

// Excerpt renders the source line the token is on with a caret under
// its column, for a human-readable diagnostic. source is the full
// source text the token was lexed from.
func Excerpt(source string, where token.Token) string {
	lines := strings.Split(source, "\n")
	if where.Line < 1 || where.Line > len(lines) {
		return ""
	}
	line := lines[where.Line-1]
	col := where.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}
	caret := strings.Repeat(" ", col-1) + "^"
	return fmt.Sprintf("%s\n%s", line, caret)
}

// Sink batches diagnostics across a stage that continues past errors
// (lexer, parser panic-mode recovery, resolver's full-program pass)
// instead of failing fast on the first one.
type Sink struct {
	diags []At
}

func (s *Sink) Report(d At) {
	s.diags = append(s.diags, d)
}

func (s *Sink) HasErrors() bool {
	return len(s.diags) > 0
}

func (s *Sink) Diagnostics() []At {
	return s.diags
}

// Err joins every collected diagnostic into a single error via
// errors.Join, or returns nil if none were reported. Each At stays
// reachable through errors.As/errors.Is on the result instead of being
// collapsed into one opaque message.
func (s *Sink) Err() error {
	if len(s.diags) == 0 {
		return nil
	}
	errs := make([]error, len(s.diags))
	for i, d := range s.diags {
		errs[i] = d
	}
	return errors.Join(errs...)
}
