package interp

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/loxi-lang/loxi/token"
)

// builtinSpec is one row of the declarative native-function table
// (SPEC_FULL.md §4 item 4), grounded on the teacher's map-table idiom
// (lexer.getKeyword/getReservedSymbol) and on
// titivuk-go-interpreter/evaluator/builtins.go's map[string]*Builtin.
type builtinSpec struct {
	name  string
	arity int // -1 = variadic
	fn    func(it *Interpreter, where token.Token, args []Value) (Value, error)
}

// installBuiltins registers every native callable of spec.md §4.5 into
// globals.
func installBuiltins(it *Interpreter, globals *Environment) {
	for _, spec := range builtinTable {
		globals.Define(spec.name, &NativeFunction{Name: spec.name, Arit: spec.arity, Fn: spec.fn})
	}
}

var builtinTable = []builtinSpec{
	{"clock", 0, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		return Number(float64(time.Now().UnixNano()) / 1e9), nil
	}},
	{"len", 1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		switch v := args[0].(type) {
		case String:
			return Number(len([]rune(v))), nil
		case *List:
			return Number(len(v.Elements)), nil
		case *Dict:
			return Number(v.Len()), nil
		default:
			return nil, RuntimeErrorf(where, "argument to 'len' must be a string, list, or dict")
		}
	}},
	{"int", 1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		switch v := args[0].(type) {
		case Number:
			return Number(math.Trunc(float64(v))), nil
		case String:
			f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
			if err != nil {
				return nil, RuntimeErrorf(where, "cannot convert %q to a number", v)
			}
			return Number(math.Trunc(f)), nil
		case Bool:
			if v {
				return Number(1), nil
			}
			return Number(0), nil
		default:
			return nil, RuntimeErrorf(where, "cannot convert %s to int", TypeName(v))
		}
	}},
	{"float", 1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		switch v := args[0].(type) {
		case Number:
			return v, nil
		case String:
			f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
			if err != nil {
				return nil, RuntimeErrorf(where, "cannot convert %q to a number", v)
			}
			return Number(f), nil
		default:
			return nil, RuntimeErrorf(where, "cannot convert %s to float", TypeName(v))
		}
	}},
	{"str", 1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		return String(Stringify(args[0])), nil
	}},
	{"input", -1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		if len(args) > 1 {
			return nil, RuntimeErrorf(where, "expected 0 or 1 arguments but got %d", len(args))
		}
		if len(args) == 1 {
			fmt.Fprint(it.Stdout, Stringify(args[0]))
		}
		reader := bufio.NewReader(it.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return NilVal, nil
		}
		return String(strings.TrimRight(line, "\r\n")), nil
	}},
	{"min", 2, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		a, ok1 := args[0].(Number)
		b, ok2 := args[1].(Number)
		if !ok1 || !ok2 {
			return nil, RuntimeErrorf(where, "arguments to 'min' must be numbers")
		}
		if a < b {
			return a, nil
		}
		return b, nil
	}},
	{"max", 2, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		a, ok1 := args[0].(Number)
		b, ok2 := args[1].(Number)
		if !ok1 || !ok2 {
			return nil, RuntimeErrorf(where, "arguments to 'max' must be numbers")
		}
		if a > b {
			return a, nil
		}
		return b, nil
	}},
	{"abs", 1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		n, ok := args[0].(Number)
		if !ok {
			return nil, RuntimeErrorf(where, "argument to 'abs' must be a number")
		}
		return Number(math.Abs(float64(n))), nil
	}},
	{"floor", 1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		n, ok := args[0].(Number)
		if !ok {
			return nil, RuntimeErrorf(where, "argument to 'floor' must be a number")
		}
		return Number(math.Floor(float64(n))), nil
	}},
	{"ceil", 1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		n, ok := args[0].(Number)
		if !ok {
			return nil, RuntimeErrorf(where, "argument to 'ceil' must be a number")
		}
		return Number(math.Ceil(float64(n))), nil
	}},
	{"array", 0, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		return NewList(), nil
	}},
	{"hash", 0, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		return NewDict(), nil
	}},
	{"type", 1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
		return String(TypeName(args[0])), nil
	}},
}

// ---- host member protocols (spec.md §4.4 "Get/Set ... or a host
// object exposing a member protocol", §4.5 list/dict methods) ----

func listMember(l *List, name string) (Value, error) {
	switch name {
	case "get":
		return nativeMethod(1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			idx, err := indexFor(where, args[0], len(l.Elements))
			if err != nil {
				return nil, err
			}
			return l.Elements[idx], nil
		}), nil
	case "set":
		return nativeMethod(2, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			idx, err := indexFor(where, args[0], len(l.Elements))
			if err != nil {
				return nil, err
			}
			l.Elements[idx] = args[1]
			return NilVal, nil
		}), nil
	case "append":
		return nativeMethod(1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			l.Elements = append(l.Elements, args[0])
			return NilVal, nil
		}), nil
	case "pop":
		return nativeMethod(0, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			if len(l.Elements) == 0 {
				return nil, RuntimeErrorf(where, "pop from empty list")
			}
			last := l.Elements[len(l.Elements)-1]
			l.Elements = l.Elements[:len(l.Elements)-1]
			return last, nil
		}), nil
	case "copy":
		return nativeMethod(0, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			cp := make([]Value, len(l.Elements))
			copy(cp, l.Elements)
			return &List{Elements: cp}, nil
		}), nil
	case "len":
		return nativeMethod(0, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			return Number(len(l.Elements)), nil
		}), nil
	default:
		return nil, RuntimeErrorf(token.Token{}, "list has no method %q", name)
	}
}

func dictMember(d *Dict, name string) (Value, error) {
	switch name {
	case "get":
		return nativeMethod(1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			v, found, err := d.Get(args[0])
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, RuntimeErrorf(where, "key not found: %s", Stringify(args[0]))
			}
			return v, nil
		}), nil
	case "set":
		return nativeMethod(2, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			if err := d.Set(args[0], args[1]); err != nil {
				return nil, err
			}
			return NilVal, nil
		}), nil
	case "has":
		return nativeMethod(1, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			ok, err := d.Has(args[0])
			if err != nil {
				return nil, err
			}
			return Bool(ok), nil
		}), nil
	case "keys":
		return nativeMethod(0, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			return &List{Elements: d.Keys()}, nil
		}), nil
	case "values":
		return nativeMethod(0, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			return &List{Elements: d.Values()}, nil
		}), nil
	case "len":
		return nativeMethod(0, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			return Number(d.Len()), nil
		}), nil
	default:
		return nil, RuntimeErrorf(token.Token{}, "dict has no method %q", name)
	}
}

func stringMember(s String, name string) (Value, error) {
	switch name {
	case "len":
		return nativeMethod(0, func(it *Interpreter, where token.Token, args []Value) (Value, error) {
			return Number(len([]rune(s))), nil
		}), nil
	default:
		return nil, RuntimeErrorf(token.Token{}, "string has no method %q", name)
	}
}

func nativeMethod(arity int, fn func(it *Interpreter, where token.Token, args []Value) (Value, error)) *NativeFunction {
	return &NativeFunction{Name: "<bound native>", Arit: arity, Fn: fn}
}
