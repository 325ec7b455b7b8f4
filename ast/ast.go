// Package ast defines the two disjoint node families produced by the
// parser: expressions and statements. Every node is allocated exactly
// once as a pointer and never copied, so the pointer itself serves as
// the node's stable identity for the resolver's distance map (spec.md
// §3, §9).
package ast

import (
	"fmt"
	"strings"

	"github.com/loxi-lang/loxi/token"
)

// Expr is any expression node.
type Expr interface {
	fmt.Stringer
	exprNode()
}

// Stmt is any statement node.
type Stmt interface {
	fmt.Stringer
	stmtNode()
}

// ---- Expressions ----

type Literal struct {
	Value any
}

type Variable struct {
	Name token.Token
}

type Assign struct {
	Name  token.Token
	Value Expr
}

type Unary struct {
	Op    token.Token
	Right Expr
}

type Binary struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

type Logical struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

type Grouping struct {
	Inner Expr
}

type Call struct {
	Callee       Expr
	ClosingParen token.Token
	Args         []Expr
}

type Get struct {
	Object Expr
	Name   token.Token
}

type Set struct {
	Object Expr
	Name   token.Token
	Value  Expr
}

type This struct {
	Keyword token.Token
}

type Super struct {
	Keyword token.Token
	Method  token.Token
}

type Lambda struct {
	Keyword token.Token
	Params  []token.Token
	Body    []Stmt
}

type List struct {
	Bracket  token.Token
	Elements []Expr
}

type DictPair struct {
	Key   Expr
	Value Expr
}

type Dict struct {
	Brace token.Token
	Pairs []DictPair
}

type Index struct {
	Object  Expr
	Bracket token.Token
	Key     Expr
}

type IndexSet struct {
	Object  Expr
	Bracket token.Token
	Key     Expr
	Value   Expr
}

func (*Literal) exprNode()  {}
func (*Variable) exprNode() {}
func (*Assign) exprNode()   {}
func (*Unary) exprNode()    {}
func (*Binary) exprNode()   {}
func (*Logical) exprNode()  {}
func (*Grouping) exprNode() {}
func (*Call) exprNode()     {}
func (*Get) exprNode()      {}
func (*Set) exprNode()      {}
func (*This) exprNode()     {}
func (*Super) exprNode()    {}
func (*Lambda) exprNode()   {}
func (*List) exprNode()     {}
func (*Dict) exprNode()     {}
func (*Index) exprNode()    {}
func (*IndexSet) exprNode() {}

var (
	_ Expr = &Literal{}
	_ Expr = &Variable{}
	_ Expr = &Assign{}
	_ Expr = &Unary{}
	_ Expr = &Binary{}
	_ Expr = &Logical{}
	_ Expr = &Grouping{}
	_ Expr = &Call{}
	_ Expr = &Get{}
	_ Expr = &Set{}
	_ Expr = &This{}
	_ Expr = &Super{}
	_ Expr = &Lambda{}
	_ Expr = &List{}
	_ Expr = &Dict{}
	_ Expr = &Index{}
	_ Expr = &IndexSet{}
)

// ---- Statements ----

type ExpressionStmt struct {
	Expr Expr
}

type PrintStmt struct {
	Keyword token.Token
	Expr    Expr
}

type VarStmt struct {
	Name        token.Token
	Initializer Expr // nil if absent
}

type BlockStmt struct {
	Stmts []Stmt
}

type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil if absent
}

type WhileStmt struct {
	Cond            Expr
	Body            Stmt
	IsForDesugared  bool
	Increment       Expr // non-nil only when IsForDesugared
}

type FunctionStmt struct {
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}

type ReturnStmt struct {
	Keyword token.Token
	Value   Expr // nil if absent
}

type BreakStmt struct {
	Keyword token.Token
}

type ContinueStmt struct {
	Keyword token.Token
}

type ClassStmt struct {
	Name       token.Token
	Superclass *Variable // nil if absent
	Methods    []*FunctionStmt
}

type ThrowStmt struct {
	Keyword token.Token
	Value   Expr
}

type ExceptClause struct {
	Keyword token.Token
	Name    token.Token
	Block   *BlockStmt
}

type TryStmt struct {
	TryBlock     *BlockStmt
	ExceptBlocks []ExceptClause
	Finally      *BlockStmt // nil if absent
}

type ImportStmt struct {
	Keyword token.Token
	Path    string
}

func (*ExpressionStmt) stmtNode() {}
func (*PrintStmt) stmtNode()      {}
func (*VarStmt) stmtNode()        {}
func (*BlockStmt) stmtNode()      {}
func (*IfStmt) stmtNode()         {}
func (*WhileStmt) stmtNode()      {}
func (*FunctionStmt) stmtNode()   {}
func (*ReturnStmt) stmtNode()     {}
func (*BreakStmt) stmtNode()      {}
func (*ContinueStmt) stmtNode()   {}
func (*ClassStmt) stmtNode()      {}
func (*ThrowStmt) stmtNode()      {}
func (*TryStmt) stmtNode()        {}
func (*ImportStmt) stmtNode()     {}

var (
	_ Stmt = &ExpressionStmt{}
	_ Stmt = &PrintStmt{}
	_ Stmt = &VarStmt{}
	_ Stmt = &BlockStmt{}
	_ Stmt = &IfStmt{}
	_ Stmt = &WhileStmt{}
	_ Stmt = &FunctionStmt{}
	_ Stmt = &ReturnStmt{}
	_ Stmt = &BreakStmt{}
	_ Stmt = &ContinueStmt{}
	_ Stmt = &ClassStmt{}
	_ Stmt = &ThrowStmt{}
	_ Stmt = &TryStmt{}
	_ Stmt = &ImportStmt{}
)

// ---- pretty printing ----
//
// String() renders an s-expression form, grounded on the teacher's
// parenthesize helper (ast/ast.go, ast/repr.go).

func parenthesize(name string, parts ...fmt.Stringer) fmt.Stringer {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(name)
	for _, p := range parts {
		b.WriteString(" ")
		b.WriteString(p.String())
	}
	b.WriteString(")")
	return stringerString(b.String())
}

type stringerString string

func (s stringerString) String() string { return string(s) }

func exprsToStringers(exprs []Expr) []fmt.Stringer {
	out := make([]fmt.Stringer, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}

func (l *Literal) String() string {
	if l.Value == nil {
		return "nil"
	}
	return fmt.Sprintf("%v", l.Value)
}

func (v *Variable) String() string { return v.Name.Lexeme }

func (a *Assign) String() string {
	return parenthesize("= "+a.Name.Lexeme, a.Value).String()
}

func (u *Unary) String() string {
	return parenthesize(u.Op.Lexeme, u.Right).String()
}

func (b *Binary) String() string {
	return parenthesize(b.Op.Lexeme, b.Left, b.Right).String()
}

func (l *Logical) String() string {
	return parenthesize(l.Op.Lexeme, l.Left, l.Right).String()
}

func (g *Grouping) String() string {
	return parenthesize("group", g.Inner).String()
}

func (c *Call) String() string {
	return parenthesize("call", append([]fmt.Stringer{c.Callee}, exprsToStringers(c.Args)...)...).String()
}

func (g *Get) String() string {
	return parenthesize("."+g.Name.Lexeme, g.Object).String()
}

func (s *Set) String() string {
	return parenthesize("set."+s.Name.Lexeme, s.Object, s.Value).String()
}

func (t *This) String() string { return "this" }

func (s *Super) String() string { return "super." + s.Method.Lexeme }

func (l *Lambda) String() string { return "(lambda)" }

func (l *List) String() string {
	return parenthesize("list", exprsToStringers(l.Elements)...).String()
}

func (d *Dict) String() string { return "(dict)" }

func (i *Index) String() string {
	return parenthesize("index", i.Object, i.Key).String()
}

func (i *IndexSet) String() string {
	return parenthesize("indexset", i.Object, i.Key, i.Value).String()
}

func (s *ExpressionStmt) String() string { return parenthesize("expr", s.Expr).String() }
func (s *PrintStmt) String() string      { return parenthesize("print", s.Expr).String() }
func (s *VarStmt) String() string        { return "(var " + s.Name.Lexeme + ")" }
func (s *BlockStmt) String() string      { return "(block)" }
func (s *IfStmt) String() string         { return "(if)" }
func (s *WhileStmt) String() string      { return "(while)" }
func (s *FunctionStmt) String() string   { return "(fun " + s.Name.Lexeme + ")" }
func (s *ReturnStmt) String() string     { return "(return)" }
func (s *BreakStmt) String() string      { return "(break)" }
func (s *ContinueStmt) String() string   { return "(continue)" }
func (s *ClassStmt) String() string      { return "(class " + s.Name.Lexeme + ")" }
func (s *ThrowStmt) String() string      { return parenthesize("throw", s.Value).String() }
func (s *TryStmt) String() string        { return "(try)" }
func (s *ImportStmt) String() string     { return "(import " + s.Path + ")" }
