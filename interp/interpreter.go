// Package interp implements the tree-walking evaluator of spec.md §4.4:
// two environment pointers (globals and current), direct dispatch by
// AST node type, and the three non-local control signals (return,
// break/continue, exception) implemented as internal error values.
package interp

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/loxi-lang/loxi/ast"
	"github.com/loxi-lang/loxi/resolver"
	"github.com/loxi-lang/loxi/token"
)

// Interpreter walks an annotated AST, producing effects and values.
type Interpreter struct {
	Globals *Environment
	env     *Environment
	locals  resolver.Locals
	Stdout  io.Writer
	Stdin   io.Reader
	Loader  *ModuleLoader
}

func New() *Interpreter {
	globals := NewEnvironment(nil)
	it := &Interpreter{
		Globals: globals,
		env:     globals,
		Stdout:  os.Stdout,
		Stdin:   os.Stdin,
	}
	it.Loader = NewModuleLoader(it)
	installBuiltins(it, globals)
	return it
}

// Interpret executes program against the resolver's locals map. A
// returned error is a *RuntimeError; an uncaught LoxException is
// converted into one. Either way execution stops at the top level.
func (it *Interpreter) Interpret(program []ast.Stmt, locals resolver.Locals) error {
	it.locals = locals
	for _, stmt := range program {
		if err := it.execute(stmt); err != nil {
			return it.unwrapTopLevel(err)
		}
	}
	return nil
}

// InterpretREPLStmt runs one REPL-entered statement, auto-printing the
// value of a bare expression statement (SPEC_FULL.md §4 item 6).
func (it *Interpreter) InterpretREPLStmt(stmt ast.Stmt, locals resolver.Locals) error {
	it.locals = locals
	if exprStmt, ok := stmt.(*ast.ExpressionStmt); ok {
		v, err := it.eval(exprStmt.Expr)
		if err != nil {
			return it.unwrapTopLevel(err)
		}
		fmt.Fprintln(it.Stdout, Stringify(v))
		return nil
	}
	if err := it.execute(stmt); err != nil {
		return it.unwrapTopLevel(err)
	}
	return nil
}

func (it *Interpreter) unwrapTopLevel(err error) error {
	if exc, ok := err.(*LoxException); ok {
		return RuntimeErrorf(exc.Where, "uncaught exception: %s", Stringify(exc.Value))
	}
	return err
}

// ---- statement execution ----

func (it *Interpreter) execute(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		_, err := it.eval(s.Expr)
		return err

	case *ast.PrintStmt:
		v, err := it.eval(s.Expr)
		if err != nil {
			return err
		}
		fmt.Fprintln(it.Stdout, Stringify(v))
		return nil

	case *ast.VarStmt:
		var v Value = NilVal
		if s.Initializer != nil {
			var err error
			v, err = it.eval(s.Initializer)
			if err != nil {
				return err
			}
		}
		it.env.Define(s.Name.Lexeme, v)
		return nil

	case *ast.BlockStmt:
		_, err := it.executeBlock(s.Stmts, NewEnvironment(it.env))
		return err

	case *ast.IfStmt:
		cond, err := it.eval(s.Cond)
		if err != nil {
			return err
		}
		if Truthy(cond) {
			return it.execute(s.Then)
		} else if s.Else != nil {
			return it.execute(s.Else)
		}
		return nil

	case *ast.WhileStmt:
		return it.execWhile(s)

	case *ast.FunctionStmt:
		fn := &Function{Name: s.Name.Lexeme, Params: s.Params, Body: s.Body, Closure: it.env}
		it.env.Define(s.Name.Lexeme, fn)
		return nil

	case *ast.ReturnStmt:
		var v Value = NilVal
		if s.Value != nil {
			var err error
			v, err = it.eval(s.Value)
			if err != nil {
				return err
			}
		}
		return &returnSignal{Value: v}

	case *ast.BreakStmt:
		return breakSignal{}

	case *ast.ContinueStmt:
		return continueSignal{}

	case *ast.ClassStmt:
		return it.execClass(s)

	case *ast.ThrowStmt:
		v, err := it.eval(s.Value)
		if err != nil {
			return err
		}
		return &LoxException{Value: v, Where: s.Keyword}

	case *ast.TryStmt:
		return it.execTry(s)

	case *ast.ImportStmt:
		return it.Loader.Import(s.Path, it.Globals)

	default:
		return RuntimeErrorf(token.Token{}, "interp: unhandled statement %T", s)
	}
}

// executeBlock runs stmts in a freshly-entered environment, restoring
// it.env to its pre-call value on every exit path (spec.md §8 invariant).
func (it *Interpreter) executeBlock(stmts []ast.Stmt, env *Environment) (Value, error) {
	previous := it.env
	it.env = env
	defer func() { it.env = previous }()

	for _, stmt := range stmts {
		if err := it.execute(stmt); err != nil {
			return NilVal, err
		}
	}
	return NilVal, nil
}

func (it *Interpreter) execWhile(s *ast.WhileStmt) error {
	for {
		cond, err := it.eval(s.Cond)
		if err != nil {
			return err
		}
		if !Truthy(cond) {
			return nil
		}

		err = it.execute(s.Body)
		switch {
		case err == nil:
			// s.Body already runs the retained increment for a
			// desugared for-loop (spec.md §4.2 forStmt desugaring),
			// since the parser wraps body+increment together unless
			// a continue short-circuits it below.
		case isBreak(err):
			return nil
		case isContinue(err):
			if s.IsForDesugared && s.Increment != nil {
				// The increment was resolved inside the body+increment
				// block, one scope below the loop's own scope.
				previous := it.env
				it.env = NewEnvironment(previous)
				_, err := it.eval(s.Increment)
				it.env = previous
				if err != nil {
					return err
				}
			}
			continue
		default:
			return err
		}
	}
}

func isBreak(err error) bool {
	_, ok := err.(breakSignal)
	return ok
}

func isContinue(err error) bool {
	_, ok := err.(continueSignal)
	return ok
}

func (it *Interpreter) execClass(s *ast.ClassStmt) error {
	var super *Class
	if s.Superclass != nil {
		v, err := it.eval(s.Superclass)
		if err != nil {
			return err
		}
		sc, ok := v.(*Class)
		if !ok {
			return RuntimeErrorf(s.Superclass.Name, "superclass must be a class")
		}
		super = sc
	}

	it.env.Define(s.Name.Lexeme, NilVal)

	classEnv := it.env
	if super != nil {
		classEnv = NewEnvironment(it.env)
		classEnv.Define("super", super)
	}

	methods := make(map[string]*Function)
	for _, m := range s.Methods {
		methods[m.Name.Lexeme] = &Function{
			Name:          m.Name.Lexeme,
			Params:        m.Params,
			Body:          m.Body,
			Closure:       classEnv,
			IsInitializer: m.Name.Lexeme == "init",
		}
	}

	class := &Class{Name: s.Name.Lexeme, Superclass: super, Methods: methods}
	it.env.Assign(s.Name.Lexeme, class)
	return nil
}

// execTry implements spec.md §4.4 "Exceptions": finally runs on every
// exit path, and an exception raised inside finally replaces any
// in-flight one.
func (it *Interpreter) execTry(s *ast.TryStmt) (err error) {
	err = it.execute(s.TryBlock)

	if exc, ok := err.(*LoxException); ok {
		for _, clause := range s.ExceptBlocks {
			env := NewEnvironment(it.env)
			env.Define(clause.Name.Lexeme, exc.Value)
			_, handlerErr := it.executeBlock([]ast.Stmt{clause.Block}, env)
			err = handlerErr
			break
		}
	}

	if s.Finally != nil {
		if finallyErr := it.execute(s.Finally); finallyErr != nil {
			err = finallyErr
		}
	}

	return err
}

// ---- expression evaluation ----

func (it *Interpreter) eval(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return literalValue(e.Value), nil

	case *ast.Grouping:
		return it.eval(e.Inner)

	case *ast.Variable:
		return it.lookUpVariable(e.Name, e)

	case *ast.Assign:
		v, err := it.eval(e.Value)
		if err != nil {
			return nil, err
		}
		if dist, ok := it.locals[e]; ok {
			it.env.AssignAt(dist, e.Name.Lexeme, v)
		} else if !it.Globals.Assign(e.Name.Lexeme, v) {
			return nil, RuntimeErrorf(e.Name, "undefined variable %q", e.Name.Lexeme)
		}
		return v, nil

	case *ast.Unary:
		return it.evalUnary(e)

	case *ast.Binary:
		return it.evalBinary(e)

	case *ast.Logical:
		return it.evalLogical(e)

	case *ast.Call:
		return it.evalCall(e)

	case *ast.Get:
		return it.evalGet(e)

	case *ast.Set:
		return it.evalSet(e)

	case *ast.This:
		return it.lookUpVariable(e.Keyword, e)

	case *ast.Super:
		return it.evalSuper(e)

	case *ast.Lambda:
		return &Function{Params: e.Params, Body: e.Body, Closure: it.env}, nil

	case *ast.List:
		elems := make([]Value, len(e.Elements))
		for i, elExpr := range e.Elements {
			v, err := it.eval(elExpr)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &List{Elements: elems}, nil

	case *ast.Dict:
		d := NewDict()
		for _, pair := range e.Pairs {
			k, err := it.eval(pair.Key)
			if err != nil {
				return nil, err
			}
			v, err := it.eval(pair.Value)
			if err != nil {
				return nil, err
			}
			if err := d.Set(k, v); err != nil {
				return nil, err
			}
		}
		return d, nil

	case *ast.Index:
		return it.evalIndex(e)

	case *ast.IndexSet:
		return it.evalIndexSet(e)

	default:
		return nil, RuntimeErrorf(token.Token{}, "interp: unhandled expression %T", e)
	}
}

func literalValue(v any) Value {
	switch v := v.(type) {
	case nil:
		return NilVal
	case bool:
		return Bool(v)
	case float64:
		return Number(v)
	case string:
		return String(v)
	default:
		return NilVal
	}
}

func (it *Interpreter) lookUpVariable(name token.Token, expr ast.Expr) (Value, error) {
	if dist, ok := it.locals[expr]; ok {
		v, ok := it.env.GetAt(dist, name.Lexeme)
		if !ok {
			return nil, RuntimeErrorf(name, "undefined variable %q", name.Lexeme)
		}
		return v, nil
	}
	v, ok := it.Globals.Get(name.Lexeme)
	if !ok {
		return nil, RuntimeErrorf(name, "undefined variable %q", name.Lexeme)
	}
	return v, nil
}

func (it *Interpreter) evalUnary(e *ast.Unary) (Value, error) {
	right, err := it.eval(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.MINUS:
		n, ok := right.(Number)
		if !ok {
			return nil, RuntimeErrorf(e.Op, "operand must be a number")
		}
		return -n, nil
	case token.BANG:
		return Bool(!Truthy(right)), nil
	default:
		return nil, RuntimeErrorf(e.Op, "unknown unary operator %q", e.Op.Lexeme)
	}
}

func (it *Interpreter) evalLogical(e *ast.Logical) (Value, error) {
	left, err := it.eval(e.Left)
	if err != nil {
		return nil, err
	}

	if e.Op.Kind == token.OR {
		if Truthy(left) {
			return left, nil
		}
	} else { // AND
		if !Truthy(left) {
			return left, nil
		}
	}

	return it.eval(e.Right)
}

func (it *Interpreter) evalBinary(e *ast.Binary) (Value, error) {
	left, err := it.eval(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := it.eval(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.PLUS:
		if ln, ok := left.(Number); ok {
			if rn, ok := right.(Number); ok {
				return ln + rn, nil
			}
		}
		if ls, ok := left.(String); ok {
			if rs, ok := right.(String); ok {
				return ls + rs, nil
			}
		}
		return nil, RuntimeErrorf(e.Op, "operands must be two numbers or two strings")

	case token.MINUS, token.STAR, token.SLASH, token.BACKSLASH, token.PERCENT, token.CARET:
		ln, lok := left.(Number)
		rn, rok := right.(Number)
		if !lok || !rok {
			return nil, RuntimeErrorf(e.Op, "operands must be numbers")
		}
		return it.arith(e.Op, ln, rn)

	case token.GREATER, token.GREATEREQUAL, token.LESS, token.LESSEQUAL:
		return it.compare(e.Op, left, right)

	case token.EQUALEQUAL:
		return Bool(Equal(left, right)), nil
	case token.BANGEQUAL:
		return Bool(!Equal(left, right)), nil

	default:
		return nil, RuntimeErrorf(e.Op, "unknown binary operator %q", e.Op.Lexeme)
	}
}

func (it *Interpreter) arith(op token.Token, l, r Number) (Value, error) {
	switch op.Kind {
	case token.MINUS:
		return l - r, nil
	case token.STAR:
		return l * r, nil
	case token.SLASH:
		if r == 0 {
			return nil, RuntimeErrorf(op, "division by zero")
		}
		return l / r, nil
	case token.BACKSLASH:
		if r == 0 {
			return nil, RuntimeErrorf(op, "division by zero")
		}
		return Number(math.Floor(float64(l / r))), nil
	case token.PERCENT:
		if r == 0 {
			return nil, RuntimeErrorf(op, "division by zero")
		}
		return Number(math.Mod(float64(l), float64(r))), nil
	case token.CARET:
		return Number(math.Pow(float64(l), float64(r))), nil
	default:
		return nil, RuntimeErrorf(op, "unknown arithmetic operator %q", op.Lexeme)
	}
}

func (it *Interpreter) compare(op token.Token, left, right Value) (Value, error) {
	if ln, ok := left.(Number); ok {
		rn, ok := right.(Number)
		if !ok {
			return nil, RuntimeErrorf(op, "cannot compare number with %s", TypeName(right))
		}
		switch op.Kind {
		case token.GREATER:
			return Bool(ln > rn), nil
		case token.GREATEREQUAL:
			return Bool(ln >= rn), nil
		case token.LESS:
			return Bool(ln < rn), nil
		case token.LESSEQUAL:
			return Bool(ln <= rn), nil
		}
	}
	if ls, ok := left.(String); ok {
		rs, ok := right.(String)
		if !ok {
			return nil, RuntimeErrorf(op, "cannot compare string with %s", TypeName(right))
		}
		switch op.Kind {
		case token.GREATER:
			return Bool(ls > rs), nil
		case token.GREATEREQUAL:
			return Bool(ls >= rs), nil
		case token.LESS:
			return Bool(ls < rs), nil
		case token.LESSEQUAL:
			return Bool(ls <= rs), nil
		}
	}
	return nil, RuntimeErrorf(op, "operands must be two numbers or two strings")
}

func (it *Interpreter) evalCall(e *ast.Call) (Value, error) {
	calleeVal, err := it.eval(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := it.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	callee, ok := calleeVal.(Callable)
	if !ok {
		return nil, RuntimeErrorf(e.ClosingParen, "can only call functions and classes")
	}

	if arity := callee.Arity(); arity >= 0 && arity != len(args) {
		return nil, RuntimeErrorf(e.ClosingParen, "expected %d arguments but got %d", arity, len(args))
	}

	return callee.Call(it, e.ClosingParen, args)
}

func (it *Interpreter) evalGet(e *ast.Get) (Value, error) {
	obj, err := it.eval(e.Object)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *Instance:
		if v, ok := o.Get(e.Name.Lexeme); ok {
			return v, nil
		}
		return nil, RuntimeErrorf(e.Name, "undefined property %q", e.Name.Lexeme)
	case *List:
		return listMember(o, e.Name.Lexeme)
	case *Dict:
		return dictMember(o, e.Name.Lexeme)
	case String:
		return stringMember(o, e.Name.Lexeme)
	default:
		return nil, RuntimeErrorf(e.Name, "only instances have properties")
	}
}

func (it *Interpreter) evalSet(e *ast.Set) (Value, error) {
	obj, err := it.eval(e.Object)
	if err != nil {
		return nil, err
	}

	instance, ok := obj.(*Instance)
	if !ok {
		return nil, RuntimeErrorf(e.Name, "only instances have fields")
	}

	v, err := it.eval(e.Value)
	if err != nil {
		return nil, err
	}
	instance.Fields[e.Name.Lexeme] = v
	return v, nil
}

func (it *Interpreter) evalSuper(e *ast.Super) (Value, error) {
	dist, ok := it.locals[e]
	if !ok {
		return nil, RuntimeErrorf(e.Keyword, "'super' used outside a method")
	}
	superVal, _ := it.env.GetAt(dist, "super")
	super, ok := superVal.(*Class)
	if !ok {
		return nil, RuntimeErrorf(e.Keyword, "'super' is not bound to a class")
	}

	thisVal, _ := it.env.GetAt(dist-1, "this")
	this, ok := thisVal.(*Instance)
	if !ok {
		return nil, RuntimeErrorf(e.Keyword, "'this' is not bound")
	}

	method, ok := super.FindMethod(e.Method.Lexeme)
	if !ok {
		return nil, RuntimeErrorf(e.Method, "undefined property %q", e.Method.Lexeme)
	}
	return method.Bind(this), nil
}

func (it *Interpreter) evalIndex(e *ast.Index) (Value, error) {
	obj, err := it.eval(e.Object)
	if err != nil {
		return nil, err
	}
	key, err := it.eval(e.Key)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *List:
		idx, err := indexFor(e.Bracket, key, len(o.Elements))
		if err != nil {
			return nil, err
		}
		return o.Elements[idx], nil
	case *Dict:
		v, found, err := o.Get(key)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, RuntimeErrorf(e.Bracket, "key not found: %s", Stringify(key))
		}
		return v, nil
	case String:
		idx, err := indexFor(e.Bracket, key, len([]rune(o)))
		if err != nil {
			return nil, err
		}
		return String([]rune(o)[idx]), nil
	default:
		return nil, RuntimeErrorf(e.Bracket, "%s is not indexable", TypeName(obj))
	}
}

func (it *Interpreter) evalIndexSet(e *ast.IndexSet) (Value, error) {
	obj, err := it.eval(e.Object)
	if err != nil {
		return nil, err
	}
	key, err := it.eval(e.Key)
	if err != nil {
		return nil, err
	}
	val, err := it.eval(e.Value)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *List:
		idx, err := indexFor(e.Bracket, key, len(o.Elements))
		if err != nil {
			return nil, err
		}
		o.Elements[idx] = val
		return val, nil
	case *Dict:
		if err := o.Set(key, val); err != nil {
			return nil, err
		}
		return val, nil
	default:
		return nil, RuntimeErrorf(e.Bracket, "%s does not support index assignment", TypeName(obj))
	}
}

func indexFor(where token.Token, key Value, length int) (int, error) {
	n, ok := key.(Number)
	if !ok || !n.IsInt() {
		return 0, RuntimeErrorf(where, "index must be an integer")
	}
	idx := int(n)
	if idx < 0 || idx >= length {
		return 0, RuntimeErrorf(where, "index %d out of range (length %d)", idx, length)
	}
	return idx, nil
}
