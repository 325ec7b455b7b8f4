// Package parser builds the statement/expression AST from a token
// stream using recursive descent with panic-mode error recovery
// (spec.md §4.2).
package parser

import (
	"strconv"

	"github.com/loxi-lang/loxi/ast"
	"github.com/loxi-lang/loxi/diag"
	"github.com/loxi-lang/loxi/token"
)

const maxParams = 255

// Parser consumes a token stream and produces a statement list. Parse
// errors are collected in sink; the caller must check HasErrors before
// handing the result to the resolver (spec.md §4.2, §7).
type Parser struct {
	tokens  []token.Token
	current int
	sink    diag.Sink
}

func NewParser(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse runs the full program grammar: program -> declaration* EOF.
func (p *Parser) Parse() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		stmts = append(stmts, p.declaration())
	}
	return stmts, p.sink.Err()
}

func (p *Parser) HasErrors() bool {
	return p.sink.HasErrors()
}

// parseError is a control-flow signal unwound by declaration's
// recover/synchronize, never observed outside this package.
type parseError struct{ err error }

func (p *Parser) errorf(where token.Token, format string, args ...any) parseError {
	d := diag.New(diag.ParseError, where, format, args...)
	p.sink.Report(d)
	return parseError{err: d}
}

func (p *Parser) recover(panicked func() ast.Stmt) (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); ok {
				p.synchronize()
				stmt = nil
				return
			}
			panic(r)
		}
	}()
	return panicked()
}

// declaration -> varDecl | funDecl | classDecl | importStmt | statement
func (p *Parser) declaration() ast.Stmt {
	return p.recover(func() ast.Stmt {
		switch {
		case p.match(token.VAR):
			return p.varDecl()
		case p.match(token.FUN):
			return p.function("function")
		case p.match(token.CLASS):
			return p.classDecl()
		case p.match(token.IMPORT):
			return p.importStmt()
		default:
			return p.statement()
		}
	})
}

func (p *Parser) varDecl() ast.Stmt {
	name := p.consume(token.IDENT, "expect variable name")
	var init ast.Expr
	if p.match(token.EQUAL) {
		init = p.expression()
	}
	p.consume(token.SEMICOLON, "expect ';' after variable declaration")
	return &ast.VarStmt{Name: name, Initializer: init}
}

func (p *Parser) function(kind string) *ast.FunctionStmt {
	name := p.consume(token.IDENT, "expect "+kind+" name")
	return p.functionBody(name, kind)
}

func (p *Parser) functionBody(name token.Token, kind string) *ast.FunctionStmt {
	p.consume(token.LEFTPAREN, "expect '(' after "+kind+" name")
	var params []token.Token
	if !p.check(token.RIGHTPAREN) {
		for {
			if len(params) >= maxParams {
				p.errorf(p.peek(), "can't have more than %d parameters", maxParams)
			}
			params = append(params, p.consume(token.IDENT, "expect parameter name"))
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHTPAREN, "expect ')' after parameters")
	p.consume(token.LEFTBRACE, "expect '{' before "+kind+" body")
	body := p.block()
	return &ast.FunctionStmt{Name: name, Params: params, Body: body}
}

func (p *Parser) classDecl() ast.Stmt {
	name := p.consume(token.IDENT, "expect class name")

	var super *ast.Variable
	if p.match(token.LESS) {
		superName := p.consume(token.IDENT, "expect superclass name")
		super = &ast.Variable{Name: superName}
	}

	p.consume(token.LEFTBRACE, "expect '{' before class body")
	var methods []*ast.FunctionStmt
	for !p.check(token.RIGHTBRACE) && !p.isAtEnd() {
		methodName := p.consume(token.IDENT, "expect method name")
		methods = append(methods, p.functionBody(methodName, "method"))
	}
	p.consume(token.RIGHTBRACE, "expect '}' after class body")

	return &ast.ClassStmt{Name: name, Superclass: super, Methods: methods}
}

func (p *Parser) importStmt() ast.Stmt {
	keyword := p.previous()
	pathTok := p.consume(token.STRING, "expect module path string")
	p.consume(token.SEMICOLON, "expect ';' after import")
	return &ast.ImportStmt{Keyword: keyword, Path: pathTok.Literal.(string)}
}

// statement -> exprStmt | printStmt | block | ifStmt | whileStmt
//            | forStmt | returnStmt | breakStmt | continueStmt
//            | throwStmt | tryStmt
func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(token.PRINT):
		return p.printStmt()
	case p.match(token.LEFTBRACE):
		return &ast.BlockStmt{Stmts: p.block()}
	case p.match(token.IF):
		return p.ifStmt()
	case p.match(token.WHILE):
		return p.whileStmt()
	case p.match(token.FOR):
		return p.forStmt()
	case p.match(token.RETURN):
		return p.returnStmt()
	case p.match(token.BREAK):
		kw := p.previous()
		p.consume(token.SEMICOLON, "expect ';' after 'break'")
		return &ast.BreakStmt{Keyword: kw}
	case p.match(token.CONTINUE):
		kw := p.previous()
		p.consume(token.SEMICOLON, "expect ';' after 'continue'")
		return &ast.ContinueStmt{Keyword: kw}
	case p.match(token.THROW):
		return p.throwStmt()
	case p.match(token.TRY):
		return p.tryStmt()
	default:
		return p.exprStmt()
	}
}

func (p *Parser) printStmt() ast.Stmt {
	kw := p.previous()
	value := p.expression()
	p.consume(token.SEMICOLON, "expect ';' after value")
	return &ast.PrintStmt{Keyword: kw, Expr: value}
}

func (p *Parser) exprStmt() ast.Stmt {
	expr := p.expression()
	p.consume(token.SEMICOLON, "expect ';' after expression")
	return &ast.ExpressionStmt{Expr: expr}
}

func (p *Parser) block() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.RIGHTBRACE) && !p.isAtEnd() {
		stmts = append(stmts, p.declaration())
	}
	p.consume(token.RIGHTBRACE, "expect '}' after block")
	return stmts
}

func (p *Parser) ifStmt() ast.Stmt {
	p.consume(token.LEFTPAREN, "expect '(' after 'if'")
	cond := p.expression()
	p.consume(token.RIGHTPAREN, "expect ')' after condition")

	thenBranch := p.statement()
	var elseBranch ast.Stmt
	if p.match(token.ELSE) {
		elseBranch = p.statement()
	}
	return &ast.IfStmt{Cond: cond, Then: thenBranch, Else: elseBranch}
}

func (p *Parser) whileStmt() ast.Stmt {
	p.consume(token.LEFTPAREN, "expect '(' after 'while'")
	cond := p.expression()
	p.consume(token.RIGHTPAREN, "expect ')' after condition")
	body := p.statement()
	return &ast.WhileStmt{Cond: cond, Body: body}
}

// forStmt desugars `for (init; cond; incr) body` into
// Block([init, While(cond, Block([body, incr]))]) per spec.md §4.2,
// retaining Increment on the While node so `continue` can still run it.
func (p *Parser) forStmt() ast.Stmt {
	p.consume(token.LEFTPAREN, "expect '(' after 'for'")

	var init ast.Stmt
	switch {
	case p.match(token.SEMICOLON):
		init = nil
	case p.match(token.VAR):
		init = p.varDecl()
	default:
		init = p.exprStmt()
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		cond = p.expression()
	}
	p.consume(token.SEMICOLON, "expect ';' after loop condition")

	var incr ast.Expr
	if !p.check(token.RIGHTPAREN) {
		incr = p.expression()
	}
	p.consume(token.RIGHTPAREN, "expect ')' after for clauses")

	body := p.statement()

	if cond == nil {
		cond = &ast.Literal{Value: true}
	}

	loopBody := body
	if incr != nil {
		loopBody = &ast.BlockStmt{Stmts: []ast.Stmt{body, &ast.ExpressionStmt{Expr: incr}}}
	}

	whileStmt := &ast.WhileStmt{Cond: cond, Body: loopBody, IsForDesugared: true, Increment: incr}

	if init == nil {
		return whileStmt
	}
	return &ast.BlockStmt{Stmts: []ast.Stmt{init, whileStmt}}
}

func (p *Parser) returnStmt() ast.Stmt {
	kw := p.previous()
	var value ast.Expr
	if !p.check(token.SEMICOLON) {
		value = p.expression()
	}
	p.consume(token.SEMICOLON, "expect ';' after return value")
	return &ast.ReturnStmt{Keyword: kw, Value: value}
}

func (p *Parser) throwStmt() ast.Stmt {
	kw := p.previous()
	value := p.expression()
	p.consume(token.SEMICOLON, "expect ';' after thrown value")
	return &ast.ThrowStmt{Keyword: kw, Value: value}
}

func (p *Parser) tryStmt() ast.Stmt {
	p.consume(token.LEFTBRACE, "expect '{' after 'try'")
	tryBlock := &ast.BlockStmt{Stmts: p.block()}

	var excepts []ast.ExceptClause
	for p.match(token.EXCEPT) {
		kw := p.previous()
		p.consume(token.LEFTPAREN, "expect '(' after 'except'")
		name := p.consume(token.IDENT, "expect exception variable name")
		p.consume(token.RIGHTPAREN, "expect ')' after exception variable")
		p.consume(token.LEFTBRACE, "expect '{' before except block")
		excepts = append(excepts, ast.ExceptClause{Keyword: kw, Name: name, Block: &ast.BlockStmt{Stmts: p.block()}})
	}

	var finally *ast.BlockStmt
	if p.match(token.FINALLY) {
		p.consume(token.LEFTBRACE, "expect '{' after 'finally'")
		finally = &ast.BlockStmt{Stmts: p.block()}
	}

	if len(excepts) == 0 && finally == nil {
		p.errorf(p.previous(), "expect 'except' or 'finally' after try block")
	}

	return &ast.TryStmt{TryBlock: tryBlock, ExceptBlocks: excepts, Finally: finally}
}

// ---- expressions ----

// expression -> assignment
func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

// assignment -> ( call "." )? IDENT "=" assignment
//             | call "[" expression "]" "=" assignment
//             | logic_or
func (p *Parser) assignment() ast.Expr {
	expr := p.or()

	if p.match(token.EQUAL) {
		equals := p.previous()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.Variable:
			return &ast.Assign{Name: target.Name, Value: value}
		case *ast.Get:
			return &ast.Set{Object: target.Object, Name: target.Name, Value: value}
		case *ast.Index:
			return &ast.IndexSet{Object: target.Object, Bracket: target.Bracket, Key: target.Key, Value: value}
		default:
			panic(p.errorf(equals, "invalid assignment target"))
		}
	}

	return expr
}

func (p *Parser) or() ast.Expr {
	expr := p.and()
	for p.match(token.OR) {
		op := p.previous()
		right := p.and()
		expr = &ast.Logical{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()
	for p.match(token.AND) {
		op := p.previous()
		right := p.equality()
		expr = &ast.Logical{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()
	for p.match(token.BANGEQUAL, token.EQUALEQUAL) {
		op := p.previous()
		right := p.comparison()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()
	for p.match(token.GREATER, token.GREATEREQUAL, token.LESS, token.LESSEQUAL) {
		op := p.previous()
		right := p.term()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()
	for p.match(token.MINUS, token.PLUS) {
		op := p.previous()
		right := p.factor()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()
	for p.match(token.STAR, token.SLASH, token.BACKSLASH, token.PERCENT, token.CARET) {
		op := p.previous()
		right := p.unary()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.match(token.BANG, token.MINUS) {
		op := p.previous()
		right := p.unary()
		return &ast.Unary{Op: op, Right: right}
	}
	return p.call()
}

// call -> primary ( "(" args? ")" | "." IDENT | "[" expression "]" )*
func (p *Parser) call() ast.Expr {
	expr := p.primary()

	for {
		switch {
		case p.match(token.LEFTPAREN):
			expr = p.finishCall(expr)
		case p.match(token.DOT):
			if p.match(token.IDENT) {
				name := p.previous()
				expr = &ast.Get{Object: expr, Name: name}
			} else {
				p.errorf(p.peek(), "expect property name after '.'")
			}
		case p.match(token.LEFTBRACKET):
			bracket := p.previous()
			key := p.expression()
			p.consume(token.RIGHTBRACKET, "expect ']' after index")
			expr = &ast.Index{Object: expr, Bracket: bracket, Key: key}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(token.RIGHTPAREN) {
		for {
			if len(args) >= maxParams {
				p.errorf(p.peek(), "can't have more than %d arguments", maxParams)
			}
			args = append(args, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	closingParen := p.consume(token.RIGHTPAREN, "expect ')' after arguments")
	return &ast.Call{Callee: callee, ClosingParen: closingParen, Args: args}
}

// primary -> NUMBER | STRING | "true" | "false" | "nil"
//          | "this" | "super" "." IDENT | IDENT
//          | "(" expression ")" | list | dict | lambda
func (p *Parser) primary() ast.Expr {
	switch {
	case p.match(token.FALSE):
		return &ast.Literal{Value: false}
	case p.match(token.TRUE):
		return &ast.Literal{Value: true}
	case p.match(token.NIL):
		return &ast.Literal{Value: nil}
	case p.match(token.NUMBER, token.STRING):
		return &ast.Literal{Value: p.previous().Literal}
	case p.match(token.THIS):
		return &ast.This{Keyword: p.previous()}
	case p.match(token.SUPER):
		keyword := p.previous()
		p.consume(token.DOT, "expect '.' after 'super'")
		method := p.consume(token.IDENT, "expect superclass method name")
		return &ast.Super{Keyword: keyword, Method: method}
	case p.match(token.IDENT):
		return &ast.Variable{Name: p.previous()}
	case p.match(token.LEFTPAREN):
		expr := p.expression()
		p.consume(token.RIGHTPAREN, "expect ')' after expression")
		return &ast.Grouping{Inner: expr}
	case p.match(token.LEFTBRACKET):
		return p.list()
	case p.match(token.LEFTBRACE):
		return p.dict()
	case p.match(token.LAMBDA):
		return p.lambda()
	default:
		panic(p.errorf(p.peek(), "expect expression"))
	}
}

func (p *Parser) list() ast.Expr {
	bracket := p.previous()
	var elems []ast.Expr
	if !p.check(token.RIGHTBRACKET) {
		for {
			elems = append(elems, p.expression())
			if !p.match(token.COMMA) {
				break
			}
			if p.check(token.RIGHTBRACKET) {
				break
			}
		}
	}
	p.consume(token.RIGHTBRACKET, "expect ']' after list elements")
	return &ast.List{Bracket: bracket, Elements: elems}
}

func (p *Parser) dict() ast.Expr {
	brace := p.previous()
	var pairs []ast.DictPair
	if !p.check(token.RIGHTBRACE) {
		for {
			key := p.expression()
			p.consume(token.COLON, "expect ':' after dict key")
			value := p.expression()
			pairs = append(pairs, ast.DictPair{Key: key, Value: value})
			if !p.match(token.COMMA) {
				break
			}
			if p.check(token.RIGHTBRACE) {
				break
			}
		}
	}
	p.consume(token.RIGHTBRACE, "expect '}' after dict entries")
	return &ast.Dict{Brace: brace, Pairs: pairs}
}

func (p *Parser) lambda() ast.Expr {
	keyword := p.previous()
	p.consume(token.LEFTPAREN, "expect '(' after 'lambda'")
	var params []token.Token
	if !p.check(token.RIGHTPAREN) {
		for {
			params = append(params, p.consume(token.IDENT, "expect parameter name"))
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHTPAREN, "expect ')' after lambda parameters")
	p.consume(token.LEFTBRACE, "expect '{' before lambda body")
	body := p.block()
	return &ast.Lambda{Keyword: keyword, Params: params, Body: body}
}

// ---- token stream helpers ----

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(k token.Kind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == k
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) consume(k token.Kind, message string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	panic(p.errorf(p.peek(), "%s, got %s", message, strconv.Quote(p.peek().Pretty())))
}

// synchronize discards tokens until a likely statement boundary, so
// parsing can keep reporting further errors (spec.md §4.2 panic-mode
// recovery).
func (p *Parser) synchronize() {
	p.advance()

	for !p.isAtEnd() {
		if p.previous().Kind == token.SEMICOLON {
			return
		}

		switch p.peek().Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN, token.THROW:
			return
		}

		p.advance()
	}
}
