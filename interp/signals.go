package interp

import (
	"fmt"

	"github.com/loxi-lang/loxi/diag"
	"github.com/loxi-lang/loxi/token"
)

// The three non-local control transfers of spec.md §4.4/§5 are each
// modeled as a distinct error type, unwound by the nearest handler that
// understands it (call frame, loop, try/except) and never allowed to
// reach the driver as a regular error.

type returnSignal struct{ Value Value }

func (r *returnSignal) Error() string { return "return outside a function call (internal)" }

func asReturn(err error) (*returnSignal, bool) {
	sig, ok := err.(*returnSignal)
	return sig, ok
}

type breakSignal struct{}

func (breakSignal) Error() string { return "break outside a loop (internal)" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue outside a loop (internal)" }

// LoxException is a user-raised exception (`throw`), catchable from
// within the language by a matching try/except (spec.md §4.4 "Exceptions").
type LoxException struct {
	Value Value
	Where token.Token
}

func (e *LoxException) Error() string {
	return fmt.Sprintf("uncaught exception: %s", Stringify(e.Value))
}

// RuntimeError is a host-detected failure: type error, arity mismatch,
// divide-by-zero, undefined name, bad key/index (spec.md §7). Unlike
// LoxException it is never catchable by `try`/`except`.
type RuntimeError struct {
	diag.At
}

func RuntimeErrorf(where token.Token, format string, args ...any) error {
	return &RuntimeError{diag.New(diag.RuntimeError, where, format, args...)}
}
