package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/loxi-lang/loxi/ast"
	"github.com/loxi-lang/loxi/token"
)

// Value is the runtime value union of spec.md §3: Nil, Bool, Number,
// String, List, Dict, Callable, Class, Instance. Grounded on the
// teacher's Value interface (eval/value.go) — kept as a Stringer
// interface over concrete Go types, minus the teacher's pattern-matching
// method (`match`), which is specific to anma and has no Lox
// counterpart.
type Value interface {
	fmt.Stringer
}

// Nil is Lox's nil. There is exactly one instance, NilVal.
type Nil struct{}

func (Nil) String() string { return "nil" }

var NilVal = Nil{}

type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

type Number float64

func (n Number) String() string {
	f := float64(n)
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// IsInt reports whether n has no fractional part. Indexing uses it to
// reject non-integral indexes; `\`, floor and ceil accept any number.
func (n Number) IsInt() bool {
	return float64(n) == math.Trunc(float64(n))
}

type String string

func (s String) String() string { return string(s) }

// List is Lox's reference-shared, mutable, ordered array (spec.md §3).
type List struct {
	Elements []Value
}

func NewList() *List { return &List{} }

func (l *List) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = Stringify(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Dict is Lox's insertion-ordered mapping keyed by hashable values
// (spec.md §3). Keys are canonicalized to a comparable Go key via
// hashKey; the original Value is retained in keys for printing and
// for keys()/values() iteration order.
type Dict struct {
	order  []string
	keys   map[string]Value
	values map[string]Value
}

func NewDict() *Dict {
	return &Dict{keys: make(map[string]Value), values: make(map[string]Value)}
}

func hashKey(v Value) (string, error) {
	switch v := v.(type) {
	case Nil:
		return "nil", nil
	case Bool:
		return "b:" + v.String(), nil
	case Number:
		return "n:" + strconv.FormatFloat(float64(v), 'g', -1, 64), nil
	case String:
		return "s:" + string(v), nil
	default:
		return "", RuntimeErrorf(token.Token{}, "unhashable key: %s", TypeName(v))
	}
}

func (d *Dict) Set(key, value Value) error {
	hk, err := hashKey(key)
	if err != nil {
		return err
	}
	if _, exists := d.keys[hk]; !exists {
		d.order = append(d.order, hk)
	}
	d.keys[hk] = key
	d.values[hk] = value
	return nil
}

func (d *Dict) Get(key Value) (Value, bool, error) {
	hk, err := hashKey(key)
	if err != nil {
		return nil, false, err
	}
	v, ok := d.values[hk]
	return v, ok, nil
}

func (d *Dict) Has(key Value) (bool, error) {
	hk, err := hashKey(key)
	if err != nil {
		return false, err
	}
	_, ok := d.values[hk]
	return ok, nil
}

func (d *Dict) Keys() []Value {
	out := make([]Value, len(d.order))
	for i, hk := range d.order {
		out[i] = d.keys[hk]
	}
	return out
}

func (d *Dict) Values() []Value {
	out := make([]Value, len(d.order))
	for i, hk := range d.order {
		out[i] = d.values[hk]
	}
	return out
}

func (d *Dict) Len() int { return len(d.order) }

func (d *Dict) String() string {
	parts := make([]string, len(d.order))
	for i, hk := range d.order {
		parts[i] = fmt.Sprintf("%s: %s", Stringify(d.keys[hk]), Stringify(d.values[hk]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Callable is anything invocable with a fixed or variadic argument
// vector (spec.md §3).
type Callable interface {
	Value
	Arity() int // -1 means variadic
	Call(interp *Interpreter, where token.Token, args []Value) (Value, error)
}

// Function is a user-defined function, lambda, or method body,
// capturing the environment current at its declaration (spec.md §3,
// §4.4 "Function call semantics").
type Function struct {
	Name          string // "" for lambdas
	Params        []token.Token
	Body          []ast.Stmt
	Closure       *Environment
	IsInitializer bool
}

func (f *Function) Arity() int { return len(f.Params) }

func (f *Function) String() string {
	if f.Name == "" {
		return "<fn>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}

// Bind returns a copy of f whose closure is wrapped with a `this`
// binding to instance — the "bound method" of spec.md §3/§4.4.
func (f *Function) Bind(instance *Instance) *Function {
	env := NewEnvironment(f.Closure)
	env.Define("this", instance)
	return &Function{
		Name:          f.Name,
		Params:        f.Params,
		Body:          f.Body,
		Closure:       env,
		IsInitializer: f.IsInitializer,
	}
}

func (f *Function) Call(interp *Interpreter, where token.Token, args []Value) (Value, error) {
	env := NewEnvironment(f.Closure)
	for i, p := range f.Params {
		env.Define(p.Lexeme, args[i])
	}

	ret, err := interp.executeBlock(f.Body, env)
	if sig, ok := asReturn(err); ok {
		if f.IsInitializer {
			v, _ := f.Closure.Get("this")
			return v, nil
		}
		return sig.Value, nil
	}
	if err != nil {
		return nil, err
	}

	if f.IsInitializer {
		v, _ := f.Closure.Get("this")
		return v, nil
	}
	_ = ret
	return NilVal, nil
}

// NativeFunction wraps a host function as a Callable (spec.md §4.5).
type NativeFunction struct {
	Name  string
	Arit  int // -1 means variadic
	Fn    func(interp *Interpreter, where token.Token, args []Value) (Value, error)
}

func (n *NativeFunction) Arity() int { return n.Arit }
func (n *NativeFunction) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
func (n *NativeFunction) Call(interp *Interpreter, where token.Token, args []Value) (Value, error) {
	return n.Fn(interp, where, args)
}

// Class is a Lox class: callable to construct an Instance (spec.md §3,
// §4.4 "Classes").
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
}

func (c *Class) String() string { return fmt.Sprintf("<class %s>", c.Name) }

func (c *Class) FindMethod(name string) (*Function, bool) {
	if m, ok := c.Methods[name]; ok {
		return m, true
	}
	if c.Superclass != nil {
		return c.Superclass.FindMethod(name)
	}
	return nil, false
}

func (c *Class) Arity() int {
	if init, ok := c.FindMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

func (c *Class) Call(interp *Interpreter, where token.Token, args []Value) (Value, error) {
	instance := &Instance{Class: c, Fields: make(map[string]Value)}
	if init, ok := c.FindMethod("init"); ok {
		if _, err := init.Bind(instance).Call(interp, where, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// Instance is a Lox object: a class pointer plus its own fields
// (spec.md §3).
type Instance struct {
	Class  *Class
	Fields map[string]Value
}

func (i *Instance) String() string { return fmt.Sprintf("<%s instance>", i.Class.Name) }

func (i *Instance) Get(name string) (Value, bool) {
	if v, ok := i.Fields[name]; ok {
		return v, true
	}
	if m, ok := i.Class.FindMethod(name); ok {
		return m.Bind(i), true
	}
	return nil, false
}

// Stringify renders a Value the way `print` and `str()` do (spec.md
// §6). It is the single formatting path for both, per SPEC_FULL.md §4.3.
func Stringify(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.String()
}

// TypeName returns the name `type(x)` reports (spec.md §4.5).
func TypeName(v Value) string {
	switch v.(type) {
	case Nil, nil:
		return "nil"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case *List:
		return "list"
	case *Dict:
		return "dict"
	case *Class:
		return "class"
	case *Instance:
		return "instance"
	case Callable:
		return "function"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Truthy implements spec.md §4.4: only Nil and false are falsy.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return false
	case nil:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// Equal implements identity-for-containers, value-for-scalars equality
// (spec.md §3, open question in DESIGN.md).
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case Number:
		bb, ok := b.(Number)
		return ok && a == bb
	case String:
		bb, ok := b.(String)
		return ok && a == bb
	case *List:
		bb, ok := b.(*List)
		return ok && a == bb
	case *Dict:
		bb, ok := b.(*Dict)
		return ok && a == bb
	case *Instance:
		bb, ok := b.(*Instance)
		return ok && a == bb
	case *Class:
		bb, ok := b.(*Class)
		return ok && a == bb
	default:
		return a == b
	}
}
