// Package driver wires the four pipeline stages together, gating each
// stage on the previous one succeeding (spec.md §7), grounded on the
// teacher's PassRunner.RunSource (driver/run.go): lex, then try to
// parse, and only advance past a stage with zero collected diagnostics.
package driver

import (
	"log"

	"github.com/loxi-lang/loxi/ast"
	"github.com/loxi-lang/loxi/interp"
	"github.com/loxi-lang/loxi/lexer"
	"github.com/loxi-lang/loxi/parser"
	"github.com/loxi-lang/loxi/resolver"
)

// Mode distinguishes REPL execution (bare expressions auto-print,
// top-level declarations are overridable) from file execution, mirroring
// the teacher's main.go RunPrompt/RunFile split.
type Mode int

const (
	ModeFile Mode = iota
	ModeREPL
)

// ExitCode mirrors spec.md §6's process contract.
type ExitCode int

const (
	ExitOK      ExitCode = 0
	ExitStatic  ExitCode = 65
	ExitRuntime ExitCode = 70
)

// Runner holds interpreter state across multiple Run calls, so a REPL
// session accumulates globals and loop-imported modules across lines.
type Runner struct {
	Interp *interp.Interpreter
}

func NewRunner() *Runner {
	return &Runner{Interp: interp.New()}
}

// Run executes source through Lex -> Parse -> Resolve -> Interpret. It
// returns the process exit code spec.md §6 specifies and the first
// error encountered, if any.
func (r *Runner) Run(source string, mode Mode) (ExitCode, error) {
	log.Printf("driver: lex: %d bytes", len(source))
	tokens, err := lexer.Lex(source)
	if err != nil {
		return ExitStatic, err
	}

	log.Printf("driver: parse: %d tokens", len(tokens))
	p := parser.NewParser(tokens)
	program, parseErr := p.Parse()
	if p.HasErrors() {
		return ExitStatic, parseErr
	}

	log.Printf("driver: resolve: %d statements", len(program))
	locals, err := resolver.Resolve(program)
	if err != nil {
		return ExitStatic, err
	}

	log.Printf("driver: interpret: %d locals resolved", len(locals))
	if mode == ModeREPL {
		return r.runREPL(program, locals)
	}

	if err := r.Interp.Interpret(program, locals); err != nil {
		return ExitRuntime, err
	}
	return ExitOK, nil
}

// runREPL auto-prints a trailing bare expression statement
// (SPEC_FULL.md §4 item 6), executing every earlier statement normally.
func (r *Runner) runREPL(program []ast.Stmt, locals resolver.Locals) (ExitCode, error) {
	for i, stmt := range program {
		var err error
		if i == len(program)-1 {
			err = r.Interp.InterpretREPLStmt(stmt, locals)
		} else {
			err = r.Interp.Interpret([]ast.Stmt{stmt}, locals)
		}
		if err != nil {
			return ExitRuntime, err
		}
	}
	return ExitOK, nil
}
