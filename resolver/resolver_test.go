package resolver

import (
	"testing"

	"github.com/loxi-lang/loxi/ast"
	"github.com/loxi-lang/loxi/lexer"
	"github.com/loxi-lang/loxi/parser"
)

func resolveSource(t *testing.T, src string) ([]ast.Stmt, Locals, error) {
	t.Helper()
	tokens, err := lexer.Lex(src)
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	p := parser.NewParser(tokens)
	program, err := p.Parse()
	if p.HasErrors() {
		t.Fatalf("Parse: %v", err)
	}
	locals, err := Resolve(program)
	return program, locals, err
}

func TestResolveLocalDistance(t *testing.T) {
	program, locals, err := resolveSource(t, `
		var a = "global";
		{
			var a = "outer";
			{
				print a;
			}
		}
	`)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	outerBlock := program[1].(*ast.BlockStmt)
	innerBlock := outerBlock.Stmts[1].(*ast.BlockStmt)
	printStmt := innerBlock.Stmts[0].(*ast.PrintStmt)
	variable := printStmt.Expr.(*ast.Variable)

	dist, ok := locals[variable]
	if !ok {
		t.Fatal("expected the inner `a` reference to resolve locally")
	}
	if dist != 1 {
		t.Errorf("distance = %d, want 1 (one scope hop to the outer block's `a`)", dist)
	}
}

func TestResolveGlobalIsUnresolved(t *testing.T) {
	_, locals, err := resolveSource(t, `
		var g = 1;
		print g;
	`)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(locals) != 0 {
		t.Errorf("expected no local distances for a global reference, got %v", locals)
	}
}

func TestResolveReadOwnInitializerIsError(t *testing.T) {
	_, _, err := resolveSource(t, `{ var a = a; }`)
	if err == nil {
		t.Fatal("expected an error reading a variable in its own initializer")
	}
}

func TestResolveDuplicateLocalIsError(t *testing.T) {
	_, _, err := resolveSource(t, `{ var a = 1; var a = 2; }`)
	if err == nil {
		t.Fatal("expected an error for a duplicate local declaration")
	}
}

func TestResolveDuplicateGlobalIsAllowed(t *testing.T) {
	_, _, err := resolveSource(t, `var a = 1; var a = 2;`)
	if err != nil {
		t.Errorf("global scope should tolerate redeclaration, got %v", err)
	}
}

func TestResolveReturnOutsideFunctionIsError(t *testing.T) {
	_, _, err := resolveSource(t, `return 1;`)
	if err == nil {
		t.Fatal("expected an error for return outside a function")
	}
}

func TestResolveThisOutsideClassIsError(t *testing.T) {
	_, _, err := resolveSource(t, `print this;`)
	if err == nil {
		t.Fatal("expected an error for 'this' outside a class")
	}
}

func TestResolveSelfInheritanceIsError(t *testing.T) {
	_, _, err := resolveSource(t, `class A < A {}`)
	if err == nil {
		t.Fatal("expected an error for a class inheriting from itself")
	}
}

func TestResolveSuperWithoutSuperclassIsError(t *testing.T) {
	_, _, err := resolveSource(t, `class A { m() { super.m(); } }`)
	if err == nil {
		t.Fatal("expected an error for 'super' in a class with no superclass")
	}
}

func TestResolveBreakOutsideLoopIsError(t *testing.T) {
	_, _, err := resolveSource(t, `break;`)
	if err == nil {
		t.Fatal("expected an error for 'break' outside a loop")
	}
}

func TestResolveReturnValueInInitializerIsError(t *testing.T) {
	_, _, err := resolveSource(t, `class A { init() { return 1; } }`)
	if err == nil {
		t.Fatal("expected an error for returning a value from an initializer")
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	program, locals1, err := resolveSource(t, `
		fun mk() {
			var i = 0;
			fun c() { i = i + 1; return i; }
			return c;
		}
	`)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	locals2, err := Resolve(program)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if len(locals1) != len(locals2) {
		t.Fatalf("resolving the same AST twice produced different-sized maps: %d vs %d", len(locals1), len(locals2))
	}
}
