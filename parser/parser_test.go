package parser

import (
	"testing"

	"github.com/loxi-lang/loxi/ast"
	"github.com/loxi-lang/loxi/lexer"
)

func parseSource(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	tokens, err := lexer.Lex(src)
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	p := NewParser(tokens)
	stmts, err := p.Parse()
	if p.HasErrors() {
		t.Fatalf("Parse errors: %v", err)
	}
	return stmts
}

func TestParseExpressionPrecedence(t *testing.T) {
	stmts := parseSource(t, "print 1 + 2 * 3;")
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	pr, ok := stmts[0].(*ast.PrintStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.PrintStmt", stmts[0])
	}
	bin, ok := pr.Expr.(*ast.Binary)
	if !ok {
		t.Fatalf("got %T, want *ast.Binary", pr.Expr)
	}
	if bin.Op.Lexeme != "+" {
		t.Errorf("top operator = %q, want '+' (multiplication binds tighter)", bin.Op.Lexeme)
	}
	if _, ok := bin.Right.(*ast.Binary); !ok {
		t.Errorf("right operand of + should be the * subexpression, got %T", bin.Right)
	}
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	stmts := parseSource(t, "var a; var b; a = b = 3;")
	exprStmt := stmts[2].(*ast.ExpressionStmt)
	assign, ok := exprStmt.Expr.(*ast.Assign)
	if !ok {
		t.Fatalf("got %T, want *ast.Assign", exprStmt.Expr)
	}
	if assign.Name.Lexeme != "a" {
		t.Errorf("outer assignment target = %q, want a", assign.Name.Lexeme)
	}
	if _, ok := assign.Value.(*ast.Assign); !ok {
		t.Errorf("value of outer assignment should itself be an assignment, got %T", assign.Value)
	}
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	tokens, err := lexer.Lex("1 + 2 = 3;")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	p := NewParser(tokens)
	p.Parse()
	if !p.HasErrors() {
		t.Fatal("expected a parse error for an invalid assignment target")
	}
}

func TestParseForDesugaring(t *testing.T) {
	stmts := parseSource(t, "for (var i = 0; i < 4; i = i + 1) print i;")
	block, ok := stmts[0].(*ast.BlockStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.BlockStmt", stmts[0])
	}
	if len(block.Stmts) != 2 {
		t.Fatalf("got %d statements in desugared for, want 2 (init, while)", len(block.Stmts))
	}
	if _, ok := block.Stmts[0].(*ast.VarStmt); !ok {
		t.Errorf("first statement should be the init VarStmt, got %T", block.Stmts[0])
	}
	while, ok := block.Stmts[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("second statement should be *ast.WhileStmt, got %T", block.Stmts[1])
	}
	if !while.IsForDesugared {
		t.Error("expected IsForDesugared to be true")
	}
	if while.Increment == nil {
		t.Error("expected Increment to be retained for continue")
	}
}

func TestParseClassWithSuperclass(t *testing.T) {
	stmts := parseSource(t, "class A {} class B < A { say() { print 1; } }")
	classB := stmts[1].(*ast.ClassStmt)
	if classB.Superclass == nil || classB.Superclass.Name.Lexeme != "A" {
		t.Fatalf("expected superclass A, got %v", classB.Superclass)
	}
	if len(classB.Methods) != 1 || classB.Methods[0].Name.Lexeme != "say" {
		t.Fatalf("expected one method 'say', got %v", classB.Methods)
	}
}

func TestParseFunctionParamLimit(t *testing.T) {
	var params string
	for i := 0; i < 256; i++ {
		if i > 0 {
			params += ","
		}
		params += "p" + string(rune('a'+i%26))
	}
	tokens, err := lexer.Lex("fun f(" + params + ") {}")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	p := NewParser(tokens)
	p.Parse()
	if !p.HasErrors() {
		t.Fatal("expected an error for more than 255 parameters")
	}
}

func TestParseSynchronizeRecoversAfterError(t *testing.T) {
	tokens, err := lexer.Lex("var ; var x = 1; print x;")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	p := NewParser(tokens)
	stmts, _ := p.Parse()
	if !p.HasErrors() {
		t.Fatal("expected a parse error for the malformed var")
	}
	found := false
	for _, s := range stmts {
		if _, ok := s.(*ast.PrintStmt); ok {
			found = true
		}
	}
	if !found {
		t.Errorf("expected parser to recover and still parse the print statement, got %v", stmts)
	}
}
