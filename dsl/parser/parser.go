// Package parser implements a Pratt parser for the put/filter expression
// language, spec.md §4.H, producing a dsl/ast tree.
//
// Grounded on ha1tch-tsqlparser/parser/parser.go's precedence-table +
// registerPrefix/registerInfix + parseExpression(precedence) shape,
// retargeted from SQL clause parsing to the DSL's statement forms
// (begin/end, pattern-action, if/elif/else, while, do-while, C-style and
// map-iterating for, unset, emit/emitp/emitf, tee/print family, filter,
// func/subr/call) and its operator set (||, ^^, &&, ==/!=, </>/<=/>=,
// bitwise |,^,&,<<,>>, `.` concat, +/-, */ / //, %, unary !/-/~, ** right
// assoc, =~/!~, ?:).
package parser

import (
	"fmt"

	"github.com/carlodf/mlrq/dsl/ast"
	"github.com/carlodf/mlrq/dsl/lexer"
	"github.com/carlodf/mlrq/dsl/token"
)

const (
	_ int = iota
	LOWEST
	TERNARY
	LOGOR
	LOGXOR
	LOGAND
	EQUALITY
	RELATIONAL
	MATCHOP
	BITOR
	BITXOR
	BITAND
	SHIFT
	CONCAT
	SUM
	PRODUCT
	UNARY
	POWER
	CALL
	INDEX
)

var precedences = map[token.Type]int{
	token.QUESTION: TERNARY,
	token.OROR:     LOGOR,
	token.XORXOR:   LOGXOR,
	token.ANDAND:   LOGAND,
	token.EQ:       EQUALITY,
	token.NEQ:      EQUALITY,
	token.LT:       RELATIONAL,
	token.GT:       RELATIONAL,
	token.LE:       RELATIONAL,
	token.GE:       RELATIONAL,
	token.MATCH:    MATCHOP,
	token.NOTMATCH: MATCHOP,
	token.PIPE:     BITOR,
	token.CARET:    BITXOR,
	token.AMP:      BITAND,
	token.SHL:      SHIFT,
	token.SHR:      SHIFT,
	token.DOT:      CONCAT,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.STAR:     PRODUCT,
	token.SLASH:    PRODUCT,
	token.SLASHSLASH: PRODUCT,
	token.PERCENT:  PRODUCT,
	token.POW:      POWER,
	token.LPAREN:   CALL,
	token.LBRACKET: INDEX,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser turns a token stream into a dsl/ast.Program.
type Parser struct {
	l *lexer.Lexer

	curTok  token.Token
	peekTok token.Token

	errors []string

	prefixFns map[token.Type]prefixParseFn
	infixFns  map[token.Type]infixParseFn
}

// New constructs a Parser over l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.prefixFns = map[token.Type]prefixParseFn{}
	p.infixFns = map[token.Type]infixParseFn{}

	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.INT, p.parseIntLit)
	p.registerPrefix(token.FLOAT, p.parseFloatLit)
	p.registerPrefix(token.STRING, p.parseStringLit)
	p.registerPrefix(token.TRUE, p.parseBoolLit)
	p.registerPrefix(token.FALSE, p.parseBoolLit)
	p.registerPrefix(token.FIELD, p.parseField)
	p.registerPrefix(token.OOSVAR, p.parseOosvar)
	p.registerPrefix(token.BANG, p.parsePrefix)
	p.registerPrefix(token.MINUS, p.parsePrefix)
	p.registerPrefix(token.TILDE, p.parsePrefix)
	p.registerPrefix(token.LPAREN, p.parseGrouped)

	for _, t := range []token.Type{
		token.OROR, token.XORXOR, token.ANDAND, token.EQ, token.NEQ,
		token.LT, token.GT, token.LE, token.GE, token.MATCH, token.NOTMATCH,
		token.PIPE, token.CARET, token.AMP, token.SHL, token.SHR, token.DOT,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.SLASHSLASH,
		token.PERCENT,
	} {
		p.registerInfix(t, p.parseInfix)
	}
	p.registerInfix(token.POW, p.parsePowInfix) // right-associative
	p.registerInfix(token.QUESTION, p.parseTernary)
	p.registerInfix(token.LPAREN, p.parseCall)
	p.registerInfix(token.LBRACKET, p.parseIndex)

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) { p.prefixFns[t] = fn }
func (p *Parser) registerInfix(t token.Type, fn infixParseFn)   { p.infixFns[t] = fn }

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) curIs(t token.Type) bool  { return p.curTok.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peekTok.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekIs(t) {
		p.nextToken()
		return true
	}
	p.errors = append(p.errors, fmt.Sprintf("line %d: expected next token to be %d, got %d (%q)",
		p.peekTok.Line, t, p.peekTok.Type, p.peekTok.Literal))
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekTok.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curTok.Type]; ok {
		return pr
	}
	return LOWEST
}

// ParseProgram parses the whole token stream into a Program.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
	}
	return prog
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curTok.Type {
	case token.SEMICOLON:
		return nil
	case token.BEGIN:
		p.nextToken()
		body := p.parseBlock()
		return &ast.BeginStmt{Body: body}
	case token.END:
		p.nextToken()
		body := p.parseBlock()
		return &ast.EndStmt{Body: body}
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDoWhile()
	case token.FOR:
		return p.parseFor()
	case token.UNSET:
		return p.parseUnset()
	case token.EMIT, token.EMITP, token.EMITF:
		return p.parseEmit()
	case token.TEE, token.PRINT, token.PRINTN, token.EPRINT, token.EPRINTN, token.DUMP, token.EDUMP:
		return p.parseWrite()
	case token.FILTER:
		p.nextToken()
		cond := p.parseExpression(LOWEST)
		p.skipSemi()
		return &ast.FilterStmt{Cond: cond}
	case token.FUNC, token.SUBR:
		return p.parseFuncDef()
	case token.RETURN:
		p.nextToken()
		if p.curIs(token.SEMICOLON) || p.curIs(token.RBRACE) {
			return &ast.ReturnStmt{}
		}
		val := p.parseExpression(LOWEST)
		p.skipSemi()
		return &ast.ReturnStmt{Value: val}
	case token.CALL:
		return p.parseCallStmt()
	case token.VAR, token.INTKW, token.FLOATKW, token.NUMKW, token.STRKW, token.BOOLKW, token.MAP:
		return p.parseDeclAssign()
	case token.LBRACE:
		body := p.parseBlock()
		return &ast.PatternActionStmt{Body: body}
	default:
		return p.parseExprOrAssignOrPattern()
	}
}

func (p *Parser) skipSemi() {
	if p.peekIs(token.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	if !p.curIs(token.LBRACE) {
		p.errors = append(p.errors, fmt.Sprintf("line %d: expected '{'", p.curTok.Line))
		return &ast.BlockStmt{}
	}
	block := &ast.BlockStmt{}
	p.nextToken()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}
	return block
}

func (p *Parser) parseIf() ast.Statement {
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	then := p.parseBlock()
	stmt := &ast.IfStmt{Cond: cond, Then: then}
	for p.peekIs(token.ELIF) {
		p.nextToken()
		if !p.expectPeek(token.LPAREN) {
			return stmt
		}
		p.nextToken()
		ec := p.parseExpression(LOWEST)
		if !p.expectPeek(token.RPAREN) {
			return stmt
		}
		if !p.expectPeek(token.LBRACE) {
			return stmt
		}
		eb := p.parseBlock()
		stmt.Elif = append(stmt.Elif, ast.ElifClause{Cond: ec, Body: eb})
	}
	if p.peekIs(token.ELSE) {
		p.nextToken()
		if !p.expectPeek(token.LBRACE) {
			return stmt
		}
		stmt.Else = p.parseBlock()
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Statement {
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() ast.Statement {
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if !p.expectPeek(token.WHILE) {
		return nil
	}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	p.skipSemi()
	return &ast.DoWhileStmt{Body: body, Cond: cond}
}

// parseFor handles both C-style for(init;cond;step) and map-iterating
// for(k, v in expr) / for((k1,k2), v in expr).
func (p *Parser) parseFor() ast.Statement {
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()

	if p.curIs(token.LPAREN) {
		return p.parseForInMultiKey()
	}
	if p.curIs(token.IDENT) && p.peekIs(token.COMMA) {
		return p.parseForInSingleKey()
	}
	return p.parseForC()
}

func (p *Parser) parseForInSingleKey() ast.Statement {
	key := p.curTok.Literal
	p.nextToken() // ','
	p.nextToken()
	val := p.curTok.Literal
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	coll := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	return &ast.ForInStmt{KeyVars: []string{key}, ValVar: val, Coll: coll, Body: body}
}

func (p *Parser) parseForInMultiKey() ast.Statement {
	var keys []string
	p.nextToken() // first key ident
	keys = append(keys, p.curTok.Literal)
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		keys = append(keys, p.curTok.Literal)
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.COMMA) {
		return nil
	}
	p.nextToken()
	val := p.curTok.Literal
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	coll := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	return &ast.ForInStmt{KeyVars: keys, ValVar: val, Coll: coll, Body: body}
}

func (p *Parser) parseForC() ast.Statement {
	var init ast.Statement
	if !p.curIs(token.SEMICOLON) {
		init = p.parseStatement()
	}
	if !p.curIs(token.SEMICOLON) && !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.nextToken()
	var cond ast.Expression
	if !p.curIs(token.SEMICOLON) {
		cond = p.parseExpression(LOWEST)
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.nextToken()
	var step ast.Statement
	if !p.curIs(token.RPAREN) {
		step = p.parseStatement()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	return &ast.ForCStmt{Init: init, Cond: cond, Step: step, Body: body}
}

func (p *Parser) parseUnset() ast.Statement {
	p.nextToken()
	target := p.parseExpression(LOWEST)
	p.skipSemi()
	return &ast.UnsetStmt{Target: target}
}

func (p *Parser) parseEmit() ast.Statement {
	kind := ast.EmitPlain
	switch p.curTok.Type {
	case token.EMITP:
		kind = ast.EmitP
	case token.EMITF:
		kind = ast.EmitF
	}
	p.nextToken()
	stmt := &ast.EmitStmt{Kind: kind}
	stmt.Targets = append(stmt.Targets, p.parseExpression(LOWEST))
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		if kind == ast.EmitF {
			stmt.Targets = append(stmt.Targets, p.parseExpression(LOWEST))
			continue
		}
		if p.curIs(token.STRING) {
			stmt.Names = append(stmt.Names, p.curTok.Literal)
		}
	}
	p.skipSemi()
	return stmt
}

func (p *Parser) parseWrite() ast.Statement {
	var kind ast.WriteKind
	switch p.curTok.Type {
	case token.TEE:
		kind = ast.WriteTee
	case token.PRINT:
		kind = ast.WritePrint
	case token.PRINTN:
		kind = ast.WritePrintn
	case token.EPRINT:
		kind = ast.WriteEprint
	case token.EPRINTN:
		kind = ast.WriteEprintn
	case token.DUMP:
		kind = ast.WriteDump
	case token.EDUMP:
		kind = ast.WriteEdump
	}
	stmt := &ast.WriteStmt{Kind: kind}
	p.nextToken()
	// Arguments are parsed with a precedence floor of SHIFT (one level
	// below CONCAT) rather than LOWEST: >, >>, and | all double as both
	// a redirection suffix marker and a genuine infix operator (GT,
	// SHR, PIPE), so parsing an argument all the way down to LOWEST
	// would let a trailing `| "cmd"` or `> "file"` be swallowed as part
	// of the expression instead of being left for the redirect-suffix
	// switch below to see.
	if !p.curIs(token.SEMICOLON) && !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		stmt.Args = append(stmt.Args, p.parseExpression(SHIFT))
		for p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			stmt.Args = append(stmt.Args, p.parseExpression(SHIFT))
		}
	}
	switch {
	case p.peekIs(token.SHR):
		p.nextToken()
		stmt.Redirect = ast.RedirectAppend
		p.nextToken()
		stmt.Target = p.parseExpression(LOWEST)
	case p.peekIs(token.GT):
		p.nextToken()
		stmt.Redirect = ast.RedirectTruncate
		p.nextToken()
		stmt.Target = p.parseExpression(LOWEST)
	case p.peekIs(token.PIPE):
		p.nextToken()
		stmt.Redirect = ast.RedirectPipe
		p.nextToken()
		stmt.Target = p.parseExpression(LOWEST)
	}
	p.skipSemi()
	return stmt
}

func (p *Parser) parseFuncDef() ast.Statement {
	isSubr := p.curIs(token.SUBR)
	p.nextToken()
	name := p.curTok.Literal
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	var params []string
	if !p.peekIs(token.RPAREN) {
		p.nextToken()
		params = append(params, p.curTok.Literal)
		for p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			params = append(params, p.curTok.Literal)
		}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	return &ast.FuncDef{Name: name, Params: params, Body: body, IsSubr: isSubr}
}

func (p *Parser) parseCallStmt() ast.Statement {
	p.nextToken()
	name := p.curTok.Literal
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	args := p.parseExprList(token.RPAREN)
	p.skipSemi()
	return &ast.CallStmt{Name: name, Args: args}
}

// parseDeclAssign handles `var x = ...`, `int x = ...`, etc.
func (p *Parser) parseDeclAssign() ast.Statement {
	decl := p.curTok.Literal
	p.nextToken()
	target := p.parseExpression(LOWEST)
	if !p.peekIs(token.ASSIGN) {
		p.skipSemi()
		return &ast.AssignStmt{Target: target, Decl: decl}
	}
	p.nextToken()
	p.nextToken()
	val := p.parseExpression(LOWEST)
	p.skipSemi()
	return &ast.AssignStmt{Target: target, Decl: decl, Value: val}
}

var compoundOps = map[token.Type]string{
	token.PLUSEQ: "+", token.MINUSEQ: "-", token.STAREQ: "*",
	token.SLASHEQ: "/", token.DOTEQ: ".",
	token.OROREQ: "||", token.ANDANDEQ: "&&",
}

// parseExprOrAssignOrPattern disambiguates a bare expression statement,
// an assignment (plain or compound), and a `cond { ... }` pattern-action
// block, all of which start with an expression.
func (p *Parser) parseExprOrAssignOrPattern() ast.Statement {
	expr := p.parseExpression(LOWEST)

	if p.peekIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		val := p.parseExpression(LOWEST)
		p.skipSemi()
		return &ast.AssignStmt{Target: expr, Value: val}
	}
	if op, ok := compoundOps[p.peekTok.Type]; ok {
		p.nextToken()
		p.nextToken()
		rhs := p.parseExpression(LOWEST)
		val := ast.Expression(&ast.InfixExpr{Op: op, Left: expr, Right: rhs})
		p.skipSemi()
		return &ast.AssignStmt{Target: expr, Value: val}
	}
	if p.peekIs(token.LBRACE) {
		p.nextToken()
		body := p.parseBlock()
		return &ast.PatternActionStmt{Cond: expr, Body: body}
	}
	p.skipSemi()
	return &ast.ExprStmt{Expr: expr}
}

// ---- expression parsing ----

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixFns[p.curTok.Type]
	if prefix == nil {
		p.errors = append(p.errors, fmt.Sprintf("line %d: no prefix parse fn for %d (%q)",
			p.curTok.Line, p.curTok.Type, p.curTok.Literal))
		return nil
	}
	left := prefix()

	for !p.peekIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixFns[p.peekTok.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

var builtinNames = map[string]bool{
	"NR": true, "NF": true, "FNR": true, "FILENAME": true, "FILENUM": true,
	"M_PI": true, "M_E": true, "IPS": true, "IFS": true, "IRS": true,
	"OPS": true, "OFS": true, "ORS": true,
}

func (p *Parser) parseIdent() ast.Expression {
	if builtinNames[p.curTok.Literal] {
		return &ast.Builtin{Name: p.curTok.Literal}
	}
	return &ast.Ident{Name: p.curTok.Literal}
}

func (p *Parser) parseField() ast.Expression { return &ast.FieldExpr{Name: p.curTok.Literal} }

func (p *Parser) parseOosvar() ast.Expression {
	name := p.curTok.Literal
	ov := &ast.OosvarExpr{Name: name}
	for p.peekIs(token.LBRACKET) {
		p.nextToken()
		p.nextToken()
		idx := p.parseExpression(LOWEST)
		if !p.expectPeek(token.RBRACKET) {
			break
		}
		ov.Indices = append(ov.Indices, idx)
	}
	return ov
}

func (p *Parser) parseIntLit() ast.Expression {
	var v int64
	fmt.Sscanf(p.curTok.Literal, "%d", &v)
	return &ast.IntLit{Value: v}
}

func (p *Parser) parseFloatLit() ast.Expression {
	var v float64
	fmt.Sscanf(p.curTok.Literal, "%g", &v)
	return &ast.FloatLit{Value: v}
}

func (p *Parser) parseStringLit() ast.Expression { return &ast.StringLit{Value: p.curTok.Literal} }

func (p *Parser) parseBoolLit() ast.Expression {
	return &ast.BoolLit{Value: p.curTok.Type == token.TRUE}
}

func (p *Parser) parsePrefix() ast.Expression {
	op := p.curTok.Literal
	p.nextToken()
	right := p.parseExpression(UNARY)
	return &ast.PrefixExpr{Op: op, Right: right}
}

func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	op := p.curTok.Literal
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.InfixExpr{Op: op, Left: left, Right: right}
}

// parsePowInfix makes ** right-associative by parsing its RHS at one
// precedence level lower than its own.
func (p *Parser) parsePowInfix(left ast.Expression) ast.Expression {
	p.nextToken()
	right := p.parseExpression(POWER - 1)
	return &ast.InfixExpr{Op: "**", Left: left, Right: right}
}

func (p *Parser) parseTernary(cond ast.Expression) ast.Expression {
	p.nextToken()
	then := p.parseExpression(LOWEST)
	if !p.expectPeek(token.COLON) {
		return &ast.TernaryExpr{Cond: cond, Then: then}
	}
	p.nextToken()
	els := p.parseExpression(TERNARY)
	return &ast.TernaryExpr{Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseGrouped() ast.Expression {
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return expr
	}
	return expr
}

func (p *Parser) parseCall(fn ast.Expression) ast.Expression {
	name := ""
	if id, ok := fn.(*ast.Ident); ok {
		name = id.Name
	}
	args := p.parseExprList(token.RPAREN)
	return &ast.CallExpr{Name: name, Args: args}
}

func (p *Parser) parseIndex(left ast.Expression) ast.Expression {
	p.nextToken()
	idx := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RBRACKET) {
		return left
	}
	return &ast.IndexExpr{Base: left, Index: idx}
}

func (p *Parser) parseExprList(end token.Type) []ast.Expression {
	var list []ast.Expression
	if p.peekIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}
	if !p.expectPeek(end) {
		return list
	}
	return list
}
