// Package resolver performs static lexical-scope resolution over the
// AST, annotating each variable reference with its scope distance and
// enforcing the static checks of spec.md §4.3.
package resolver

import (
	"github.com/loxi-lang/loxi/ast"
	"github.com/loxi-lang/loxi/diag"
	"github.com/loxi-lang/loxi/token"
)

// Locals maps a resolved expression node to the number of scope hops
// between its use and its declaring scope. An expression absent from
// the map is a global, looked up dynamically by name at runtime
// (spec.md §4.3, §4.4).
type Locals map[ast.Expr]int

type functionContext int

const (
	fnNone functionContext = iota
	fnFunction
	fnMethod
	fnInitializer
	fnLambda
)

type classContext int

const (
	classNone classContext = iota
	classClass
	classSubclass
)

type loopContext int

const (
	loopNone loopContext = iota
	loopLoop
)

// scope maps a local name to whether it has finished being defined.
// Grounded on the teacher's env{parent, table} (nameresolve/resolve.go)
// and its scoped(func()) push/pop helper (rename.go); here the table
// value is a bool (defined?) instead of a fresh integer id, because the
// resolver records distance, not a renamed identity.
type scope map[string]bool

// Resolver walks the AST maintaining a stack of non-global scopes.
type Resolver struct {
	scopes  []scope
	locals  Locals
	sink    diag.Sink
	currentFunction functionContext
	currentClass    classContext
	currentLoop     loopContext
}

func New() *Resolver {
	return &Resolver{locals: make(Locals)}
}

// Resolve resolves every statement in program and returns the
// accumulated distance map. The caller must not interpret the AST if
// the returned error is non-nil (spec.md §4.3, §7).
func Resolve(program []ast.Stmt) (Locals, error) {
	r := New()
	r.resolveStmts(program)
	return r.locals, r.sink.Err()
}

func (r *Resolver) errorf(where token.Token, format string, args ...any) {
	r.sink.Report(diag.New(diag.ResolutionError, where, format, args...))
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, scope{})
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) scoped(f func()) {
	r.beginScope()
	f()
	r.endScope()
}

func (r *Resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return // globals are exempt from duplicate checks.
	}
	s := r.scopes[len(r.scopes)-1]
	if _, ok := s[name.Lexeme]; ok {
		r.errorf(name, "already a variable named %q in this scope", name.Lexeme)
	}
	s[name.Lexeme] = false
}

func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}

// resolveLocal records the distance from the innermost scope to the
// scope that declares name, if any local scope does.
func (r *Resolver) resolveLocal(expr ast.Expr, name token.Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
	// unresolved: falls back to a dynamic global lookup at runtime.
}

func (r *Resolver) resolveStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		r.resolveExpr(s.Expr)
	case *ast.PrintStmt:
		r.resolveExpr(s.Expr)
	case *ast.VarStmt:
		r.declare(s.Name)
		if s.Initializer != nil {
			r.resolveExpr(s.Initializer)
		}
		r.define(s.Name)
	case *ast.BlockStmt:
		r.scoped(func() { r.resolveStmts(s.Stmts) })
	case *ast.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}
	case *ast.WhileStmt:
		r.resolveExpr(s.Cond)
		enclosingLoop := r.currentLoop
		r.currentLoop = loopLoop
		r.resolveStmt(s.Body)
		r.currentLoop = enclosingLoop
	case *ast.FunctionStmt:
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveFunction(s, fnFunction)
	case *ast.ReturnStmt:
		if r.currentFunction == fnNone {
			r.errorf(s.Keyword, "can't return from top-level code")
		}
		if s.Value != nil {
			if r.currentFunction == fnInitializer {
				r.errorf(s.Keyword, "can't return a value from an initializer")
			}
			r.resolveExpr(s.Value)
		}
	case *ast.BreakStmt:
		if r.currentLoop == loopNone {
			r.errorf(s.Keyword, "can't use 'break' outside a loop")
		}
	case *ast.ContinueStmt:
		if r.currentLoop == loopNone {
			r.errorf(s.Keyword, "can't use 'continue' outside a loop")
		}
	case *ast.ClassStmt:
		r.resolveClass(s)
	case *ast.ThrowStmt:
		r.resolveExpr(s.Value)
	case *ast.TryStmt:
		r.resolveStmt(s.TryBlock)
		for _, ex := range s.ExceptBlocks {
			r.scoped(func() {
				r.declare(ex.Name)
				r.define(ex.Name)
				r.resolveStmt(ex.Block)
			})
		}
		if s.Finally != nil {
			r.resolveStmt(s.Finally)
		}
	case *ast.ImportStmt:
		// import paths are resolved at runtime; nothing to bind here.
	default:
		r.errorf(token.Token{}, "resolver: unhandled statement %T", s)
	}
}

func (r *Resolver) resolveClass(s *ast.ClassStmt) {
	enclosingClass := r.currentClass
	r.currentClass = classClass

	r.declare(s.Name)
	r.define(s.Name)

	if s.Superclass != nil {
		if s.Superclass.Name.Lexeme == s.Name.Lexeme {
			r.errorf(s.Superclass.Name, "a class can't inherit from itself")
		}
		r.resolveExpr(s.Superclass)

		r.beginScope()
		r.scopes[len(r.scopes)-1]["super"] = true
		r.currentClass = classSubclass
	}

	r.beginScope()
	r.scopes[len(r.scopes)-1]["this"] = true

	for _, method := range s.Methods {
		fc := fnMethod
		if method.Name.Lexeme == "init" {
			fc = fnInitializer
		}
		r.resolveFunction(method, fc)
	}

	r.endScope() // "this"

	if s.Superclass != nil {
		r.endScope() // "super"
	}

	r.currentClass = enclosingClass
}

func (r *Resolver) resolveFunction(fn *ast.FunctionStmt, fc functionContext) {
	enclosingFunction := r.currentFunction
	enclosingLoop := r.currentLoop
	r.currentFunction = fc
	r.currentLoop = loopNone

	r.scoped(func() {
		for _, p := range fn.Params {
			r.declare(p)
			r.define(p)
		}
		r.resolveStmts(fn.Body)
	})

	r.currentFunction = enclosingFunction
	r.currentLoop = enclosingLoop
}

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Literal:
		// no references
	case *ast.Variable:
		if len(r.scopes) > 0 {
			if defined, ok := r.scopes[len(r.scopes)-1][e.Name.Lexeme]; ok && !defined {
				r.errorf(e.Name, "can't read local variable %q in its own initializer", e.Name.Lexeme)
			}
		}
		r.resolveLocal(e, e.Name)
	case *ast.Assign:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name)
	case *ast.Unary:
		r.resolveExpr(e.Right)
	case *ast.Binary:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.Logical:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.Grouping:
		r.resolveExpr(e.Inner)
	case *ast.Call:
		r.resolveExpr(e.Callee)
		for _, a := range e.Args {
			r.resolveExpr(a)
		}
	case *ast.Get:
		r.resolveExpr(e.Object)
	case *ast.Set:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)
	case *ast.This:
		if r.currentClass == classNone {
			r.errorf(e.Keyword, "can't use 'this' outside a class")
			return
		}
		r.resolveLocal(e, e.Keyword)
	case *ast.Super:
		switch r.currentClass {
		case classNone:
			r.errorf(e.Keyword, "can't use 'super' outside a class")
		case classClass:
			r.errorf(e.Keyword, "can't use 'super' in a class with no superclass")
		}
		r.resolveLocal(e, e.Keyword)
	case *ast.Lambda:
		enclosingFunction := r.currentFunction
		enclosingLoop := r.currentLoop
		r.currentFunction = fnLambda
		r.currentLoop = loopNone
		r.scoped(func() {
			for _, p := range e.Params {
				r.declare(p)
				r.define(p)
			}
			r.resolveStmts(e.Body)
		})
		r.currentFunction = enclosingFunction
		r.currentLoop = enclosingLoop
	case *ast.List:
		for _, elem := range e.Elements {
			r.resolveExpr(elem)
		}
	case *ast.Dict:
		for _, pair := range e.Pairs {
			r.resolveExpr(pair.Key)
			r.resolveExpr(pair.Value)
		}
	case *ast.Index:
		r.resolveExpr(e.Object)
		r.resolveExpr(e.Key)
	case *ast.IndexSet:
		r.resolveExpr(e.Object)
		r.resolveExpr(e.Key)
		r.resolveExpr(e.Value)
	default:
		r.errorf(token.Token{}, "resolver: unhandled expression %T", e)
	}
}
