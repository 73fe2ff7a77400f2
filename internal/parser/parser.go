// Package parser implements the syntax analysis for tinyjs.
// It uses Pratt parsing for expressions and recursive descent for statements.
package parser

import (
	"fmt"
	"strings"
	"tinyjs/internal/ast"
	"tinyjs/internal/diag"
	"tinyjs/internal/lexer"
	"tinyjs/internal/span"
	"tinyjs/internal/token"
)

// ============================================================
// Binding power (precedence) levels
// ============================================================

const (
	bpNone       = 0
	bpAssign     = 5  // = += -= *= /= %=  (right-assoc)
	bpTernary    = 7  // ?:
	bpOr         = 10 // ||
	bpAnd        = 20 // &&
	bpBitOr      = 22 // |
	bpBitXor     = 24 // ^
	bpBitAnd     = 26 // &
	bpEquality   = 30 // == != === !==
	bpComparison = 40 // < <= > >=
	bpShift      = 45 // << >> >>>
	bpAdditive   = 50 // + -
	bpMultiply   = 60 // * / %
	bpPrefix     = 70 // ! - + ~ typeof ++x --x
	bpPostfix    = 75 // x++ x--
	bpCall       = 80 // () [] .
)

// infixBP returns the left binding power for an infix/postfix operator.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.ASSIGN, token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN,
		token.SLASH_ASSIGN, token.PERCENT_ASSIGN:
		return bpAssign
	case token.QUESTION:
		return bpTernary
	case token.OR:
		return bpOr
	case token.AND:
		return bpAnd
	case token.PIPE:
		return bpBitOr
	case token.CARET:
		return bpBitXor
	case token.AMP:
		return bpBitAnd
	case token.EQ, token.NEQ, token.STRICT_EQ, token.STRICT_NEQ:
		return bpEquality
	case token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.SHL, token.SHR, token.USHR:
		return bpShift
	case token.PLUS, token.MINUS:
		return bpAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return bpMultiply
	case token.INC, token.DEC:
		return bpPostfix
	case token.LPAREN, token.LBRACKET, token.DOT:
		return bpCall
	default:
		return bpNone
	}
}

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  []diag.Diagnostic
}

// New creates a new parser from a token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// Parse lexes and parses source. Lexer problems are reported as a
// diag.StageLex list, parser problems as diag.StageParse.
func Parse(source, filename string) (*ast.Program, error) {
	tokens, lexDiags := lexer.New(source, filename).Tokenize()
	if err := diag.AsError(diag.StageLex, lexDiags); err != nil {
		return nil, err
	}
	prog, parseDiags := New(tokens).ParseProgram()
	if err := diag.AsError(diag.StageParse, parseDiags); err != nil {
		return nil, err
	}
	return prog, nil
}

// IsIncomplete reports whether err only complains about input ending too early,
// meaning more lines could complete the program.
func IsIncomplete(err error) bool {
	list, ok := err.(*diag.List)
	return ok && diag.Incomplete(list.Diags)
}

// ParseProgram parses all tokens and returns the AST root and diagnostics.
func (p *Parser) ParseProgram() (*ast.Program, []diag.Diagnostic) {
	prog := &ast.Program{}
	startPos := p.peek().Span.Start

	for !p.isAtEnd() {
		if stmt := p.parseStmtGuarded(); stmt != nil {
			prog.Body = append(prog.Body, stmt)
		}
	}

	prog.Span = span.Span{Start: startPos, End: p.peek().Span.End}
	return prog, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	tok := p.peek()
	p.errorAt(tok, "E2001", fmt.Sprintf("expected '%s', got %s", kind, describe(tok)))
	return tok, false
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

// errorAt records a diagnostic at tok. Errors at EOF are marked so callers can
// tell truncated input from malformed input.
func (p *Parser) errorAt(tok token.Token, code, msg string) {
	d := diag.Errorf(code, tok.Span, "%s", msg)
	d.AtEOF = tok.Kind == token.EOF
	p.diags = append(p.diags, d)
}

func describe(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of input"
	}
	return fmt.Sprintf("'%s'", tok.Lexeme)
}

// consumeSemicolon ends a simple statement. A semicolon is inserted before
// '}', at end of input, or where a line break precedes the next token.
func (p *Parser) consumeSemicolon() {
	if p.check(token.SEMICOLON) {
		p.advance()
		return
	}
	tok := p.peek()
	if tok.Kind == token.RBRACE || tok.Kind == token.EOF || tok.NewlineBefore {
		return
	}
	p.errorAt(tok, "E2004", fmt.Sprintf("expected ';' before %s", describe(tok)))
}

// ============================================================
// Error recovery
// ============================================================

// synchronize skips tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.check(token.SEMICOLON) {
			p.advance()
			return
		}
		// Stop at closing brace or the start of a new line
		if p.check(token.RBRACE) || p.peek().NewlineBefore {
			return
		}
		if p.match(token.KW_IF, token.KW_WHILE, token.KW_FOR, token.KW_FUNCTION,
			token.KW_VAR, token.KW_LET, token.KW_CONST, token.KW_RETURN,
			token.KW_BREAK, token.KW_CONTINUE) {
			return
		}
		p.advance()
	}
}

// parseStmtGuarded parses one statement and guarantees progress: a statement
// that reported errors is followed by resynchronization.
func (p *Parser) parseStmtGuarded() ast.Stmt {
	before, errs := p.pos, len(p.diags)
	stmt := p.parseStmt()
	if len(p.diags) > errs {
		if p.pos == before && !p.isAtEnd() {
			p.advance()
		}
		p.synchronize()
	}
	return stmt
}

// ============================================================
// Statement parsing
// ============================================================

func (p *Parser) parseStmt() ast.Stmt {
	switch p.peekKind() {
	case token.SEMICOLON:
		tok := p.advance()
		return &ast.EmptyStmt{StmtBase: makeStmtBase(tok.Span.Start, tok.Span.End)}
	case token.LBRACE:
		return p.parseBlock()
	case token.KW_IF:
		return p.parseIfStmt()
	case token.KW_WHILE:
		return p.parseWhileStmt()
	case token.KW_FOR:
		return p.parseForStmt()
	case token.KW_FUNCTION:
		return p.parseFuncDecl()
	case token.KW_RETURN:
		return p.parseReturnStmt()
	case token.KW_BREAK:
		return p.parseBreakStmt()
	case token.KW_CONTINUE:
		return p.parseContinueStmt()
	case token.KW_VAR, token.KW_LET, token.KW_CONST:
		stmt := p.parseVarDecl()
		p.consumeSemicolon()
		stmt.Span = p.makeSpan(stmt.Span.Start)
		return stmt
	default:
		return p.parseExprStmt()
	}
}

// parseBlock parses: { stmts }
func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.peek()
	block := &ast.BlockStmt{}

	if _, ok := p.expect(token.LBRACE); !ok {
		block.Span = p.makeSpan(start.Span.Start)
		return block
	}

	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if stmt := p.parseStmtGuarded(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}

	p.expect(token.RBRACE)
	block.Span = p.makeSpan(start.Span.Start)
	return block
}

// parseIfStmt parses: if ( expr ) stmt [ else stmt ]
func (p *Parser) parseIfStmt() *ast.IfStmt {
	start := p.advance() // consume 'if'
	stmt := &ast.IfStmt{}

	stmt.Condition = p.parseParenExpr()
	stmt.Then = p.parseStmt()
	if p.check(token.KW_ELSE) {
		p.advance()
		stmt.Else = p.parseStmt()
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseWhileStmt parses: while ( expr ) stmt
func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.advance() // consume 'while'
	stmt := &ast.WhileStmt{}
	stmt.Condition = p.parseParenExpr()
	stmt.Body = p.parseStmt()
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseForStmt parses: for ( [init]; [cond]; [update] ) stmt
func (p *Parser) parseForStmt() *ast.ForStmt {
	start := p.advance() // consume 'for'
	stmt := &ast.ForStmt{}

	if _, ok := p.expect(token.LPAREN); !ok {
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}

	// Init (optional)
	if !p.check(token.SEMICOLON) {
		if p.match(token.KW_VAR, token.KW_LET, token.KW_CONST) {
			stmt.Init = p.parseVarDecl()
		} else {
			expr := p.parseExpr(bpNone)
			stmt.Init = &ast.ExprStmt{StmtBase: makeStmtBase(expr.GetSpan().Start, expr.GetSpan().End), Expr: expr}
		}
	}
	p.expect(token.SEMICOLON)

	// Condition (optional)
	if !p.check(token.SEMICOLON) {
		stmt.Condition = p.parseExpr(bpNone)
	}
	p.expect(token.SEMICOLON)

	// Update (optional)
	if !p.check(token.RPAREN) {
		stmt.Update = p.parseExpr(bpNone)
	}
	p.expect(token.RPAREN)

	stmt.Body = p.parseStmt()
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseReturnStmt parses: return [expr]. A line break right after 'return'
// ends the statement.
func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.advance() // consume 'return'
	stmt := &ast.ReturnStmt{}

	next := p.peek()
	if !next.NewlineBefore && !p.match(token.SEMICOLON, token.RBRACE, token.EOF) {
		stmt.Value = p.parseExpr(bpNone)
	}
	p.consumeSemicolon()

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

func (p *Parser) parseBreakStmt() *ast.BreakStmt {
	start := p.advance()
	p.consumeSemicolon()
	return &ast.BreakStmt{StmtBase: makeStmtBase(start.Span.Start, p.prevEnd())}
}

func (p *Parser) parseContinueStmt() *ast.ContinueStmt {
	start := p.advance()
	p.consumeSemicolon()
	return &ast.ContinueStmt{StmtBase: makeStmtBase(start.Span.Start, p.prevEnd())}
}

// parseVarDecl parses: (var | let | const) IDENT [= expr] {, IDENT [= expr]}
// without the statement terminator, so for-loop headers can reuse it.
func (p *Parser) parseVarDecl() *ast.VarDeclStmt {
	start := p.advance() // consume keyword
	stmt := &ast.VarDeclStmt{Kind: start.Kind}

	for {
		nameTok, ok := p.expect(token.IDENT)
		if !ok {
			break
		}
		d := ast.Declarator{Name: nameTok.Lexeme}
		if p.check(token.ASSIGN) {
			p.advance()
			d.Init = p.parseExpr(bpAssign - 1)
		}
		d.Span = p.makeSpan(nameTok.Span.Start)
		stmt.Declarators = append(stmt.Declarators, d)

		if !p.check(token.COMMA) {
			break
		}
		p.advance()
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseExprStmt parses an expression statement.
func (p *Parser) parseExprStmt() ast.Stmt {
	expr := p.parseExpr(bpNone)
	p.consumeSemicolon()
	return &ast.ExprStmt{
		StmtBase: makeStmtBase(expr.GetSpan().Start, p.prevEnd()),
		Expr:     expr,
	}
}

// parseFuncDecl parses: function IDENT ( params ) { body }
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.advance() // consume 'function'
	decl := &ast.FuncDecl{}

	if nameTok, ok := p.expect(token.IDENT); ok {
		decl.Name = nameTok.Lexeme
	}
	decl.Params = p.parseParamList()
	decl.Body = p.parseBlock().Stmts
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseParamList parses: ( ident, ident, ... )
func (p *Parser) parseParamList() []string {
	var params []string

	if _, ok := p.expect(token.LPAREN); !ok {
		return params
	}

	if !p.check(token.RPAREN) {
		for {
			if nameTok, ok := p.expect(token.IDENT); ok {
				params = append(params, nameTok.Lexeme)
			} else {
				break
			}
			if !p.check(token.COMMA) {
				break
			}
			p.advance()
		}
	}

	p.expect(token.RPAREN)
	return params
}

// parseParenExpr parses: ( expr )
func (p *Parser) parseParenExpr() ast.Expr {
	p.expect(token.LPAREN)
	expr := p.parseExpr(bpNone)
	p.expect(token.RPAREN)
	return expr
}

// ============================================================
// Expression parsing (Pratt / precedence climbing)
// ============================================================

// parseExpr parses an expression with the given minimum binding power.
// It never returns nil; a missing operand is reported and replaced by an
// undefined literal.
func (p *Parser) parseExpr(minBP int) ast.Expr {
	left := p.nud()
	if left == nil {
		tok := p.peek()
		p.errorAt(tok, "E2002", fmt.Sprintf("expected expression, got %s", describe(tok)))
		return &ast.Literal{ExprBase: makeExprBase(tok.Span.Start, tok.Span.Start), Kind: ast.LitUndefined}
	}

	for {
		tok := p.peek()
		bp := infixBP(tok.Kind)
		if bp <= minBP {
			break
		}
		// x \n ++y is two statements
		if (tok.Kind == token.INC || tok.Kind == token.DEC) && tok.NewlineBefore {
			break
		}
		left = p.led(left)
	}

	return left
}

// nud handles prefix (null denotation) parsing.
func (p *Parser) nud() ast.Expr {
	tok := p.peek()
	base := makeExprBase(tok.Span.Start, tok.Span.End)

	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		kind := ast.LitNumber
		if isRadixLiteral(tok.Lexeme) {
			kind = ast.LitBinary
		}
		return &ast.Literal{ExprBase: base, Kind: kind, Raw: tok.Lexeme}
	case token.STRING:
		p.advance()
		return &ast.Literal{ExprBase: base, Kind: ast.LitString, Raw: tok.Lexeme}
	case token.REGEX:
		p.advance()
		return &ast.Literal{ExprBase: base, Kind: ast.LitRegEx, Raw: tok.Lexeme}
	case token.KW_TRUE, token.KW_FALSE:
		p.advance()
		return &ast.Literal{ExprBase: base, Kind: ast.LitBool, Raw: tok.Lexeme}
	case token.KW_NULL:
		p.advance()
		return &ast.Literal{ExprBase: base, Kind: ast.LitNull, Raw: tok.Lexeme}
	case token.KW_UNDEFINED:
		p.advance()
		return &ast.Literal{ExprBase: base, Kind: ast.LitUndefined, Raw: tok.Lexeme}

	case token.KW_THIS:
		p.advance()
		return &ast.ThisExpr{ExprBase: base}

	case token.IDENT:
		p.advance()
		return &ast.IdentExpr{ExprBase: base, Name: tok.Lexeme}

	case token.LPAREN:
		// Grouped expression: ( expr )
		p.advance()
		expr := p.parseExpr(bpNone)
		p.expect(token.RPAREN)
		return expr

	case token.BANG, token.MINUS, token.PLUS, token.TILDE, token.KW_TYPEOF:
		p.advance()
		operand := p.parseExpr(bpPrefix)
		return &ast.UnaryExpr{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Op:       tok.Kind,
			Operand:  operand,
		}

	case token.INC, token.DEC:
		p.advance()
		operand := p.parseExpr(bpPrefix)
		p.checkTarget(operand)
		return &ast.UpdateExpr{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Op:       tok.Kind,
			Prefix:   true,
			Target:   operand,
		}

	case token.KW_FUNCTION:
		return p.parseFuncExpr()

	case token.LBRACKET:
		return p.parseArrayLiteral()

	case token.LBRACE:
		return p.parseObjectLiteral()

	default:
		return nil
	}
}

// led handles infix/postfix (left denotation) parsing.
func (p *Parser) led(left ast.Expr) ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.ASSIGN, token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN,
		token.SLASH_ASSIGN, token.PERCENT_ASSIGN:
		p.advance()
		p.checkTarget(left)
		value := p.parseExpr(bpAssign - 1) // right-associative
		return &ast.AssignExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, value.GetSpan().End),
			Op:       tok.Kind,
			Target:   left,
			Value:    value,
		}

	case token.QUESTION:
		p.advance()
		then := p.parseExpr(bpNone)
		p.expect(token.COLON)
		els := p.parseExpr(bpTernary - 1)
		return &ast.TernaryExpr{
			ExprBase:  makeExprBase(left.GetSpan().Start, els.GetSpan().End),
			Condition: left,
			Then:      then,
			Else:      els,
		}

	case token.INC, token.DEC:
		p.advance()
		p.checkTarget(left)
		return &ast.UpdateExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, tok.Span.End),
			Op:       tok.Kind,
			Target:   left,
		}

	case token.LPAREN:
		return p.parseCallExpr(left)

	case token.LBRACKET:
		// Computed member: object[index]
		p.advance()
		index := p.parseExpr(bpNone)
		end, _ := p.expect(token.RBRACKET)
		return &ast.IndexExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, end.Span.End),
			Object:   left,
			Index:    index,
		}

	case token.DOT:
		// Member access: object.property (keywords are valid property names)
		p.advance()
		propTok := p.peek()
		if propTok.Kind == token.IDENT || propTok.Kind.IsKeyword() {
			p.advance()
		} else {
			p.errorAt(propTok, "E2005", fmt.Sprintf("expected property name, got %s", describe(propTok)))
		}
		return &ast.MemberExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, p.prevEnd()),
			Object:   left,
			Property: propTok.Lexeme,
		}

	default:
		// Remaining infix operators are binary and left-associative.
		bp := infixBP(tok.Kind)
		p.advance()
		right := p.parseExpr(bp)
		return &ast.BinaryExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
			Op:       tok.Kind,
			Left:     left,
			Right:    right,
		}
	}
}

// checkTarget reports expressions that cannot be assigned to.
func (p *Parser) checkTarget(target ast.Expr) {
	switch target.(type) {
	case *ast.IdentExpr, *ast.MemberExpr, *ast.IndexExpr:
		return
	}
	p.diags = append(p.diags, diag.Errorf("E2003", target.GetSpan(), "invalid assignment target"))
}

// parseCallExpr parses: callee ( args )
func (p *Parser) parseCallExpr(callee ast.Expr) *ast.CallExpr {
	p.advance() // consume '('
	var args []ast.Expr

	if !p.check(token.RPAREN) {
		args = append(args, p.parseExpr(bpNone))
		for p.check(token.COMMA) {
			p.advance()
			args = append(args, p.parseExpr(bpNone))
		}
	}
	end, _ := p.expect(token.RPAREN)

	return &ast.CallExpr{
		ExprBase: makeExprBase(callee.GetSpan().Start, end.Span.End),
		Callee:   callee,
		Args:     args,
	}
}

// parseFuncExpr parses: function [name] ( params ) { body }
func (p *Parser) parseFuncExpr() *ast.FuncExpr {
	start := p.advance() // consume 'function'
	expr := &ast.FuncExpr{}

	if p.check(token.IDENT) {
		expr.Name = p.advance().Lexeme
	}

	expr.Params = p.parseParamList()
	expr.Body = p.parseBlock().Stmts
	expr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return expr
}

// parseArrayLiteral parses: [ expr, expr, ... ]
func (p *Parser) parseArrayLiteral() *ast.ArrayLiteral {
	start := p.advance() // consume '['
	var elements []ast.Expr

	for !p.check(token.RBRACKET) && !p.isAtEnd() {
		elements = append(elements, p.parseExpr(bpAssign-1))
		if !p.check(token.COMMA) {
			break
		}
		p.advance() // trailing comma allowed
	}
	end, _ := p.expect(token.RBRACKET)

	return &ast.ArrayLiteral{
		ExprBase: makeExprBase(start.Span.Start, end.Span.End),
		Elements: elements,
	}
}

// parseObjectLiteral parses: { key: expr, ... } where key is an identifier,
// keyword, string or number.
func (p *Parser) parseObjectLiteral() *ast.ObjectLiteral {
	start := p.advance() // consume '{'
	obj := &ast.ObjectLiteral{}

	for !p.check(token.RBRACE) && !p.isAtEnd() {
		keyTok := p.peek()
		var key string
		switch {
		case keyTok.Kind == token.IDENT || keyTok.Kind.IsKeyword() || keyTok.Kind == token.NUMBER:
			key = keyTok.Lexeme
		case keyTok.Kind == token.STRING:
			key = lexer.Unquote(keyTok.Lexeme)
		default:
			p.errorAt(keyTok, "E2005", fmt.Sprintf("expected property name, got %s", describe(keyTok)))
			obj.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
			return obj
		}
		p.advance()
		p.expect(token.COLON)
		obj.Keys = append(obj.Keys, key)
		obj.Values = append(obj.Values, p.parseExpr(bpAssign-1))

		if !p.check(token.COMMA) {
			break
		}
		p.advance()
	}
	p.expect(token.RBRACE)

	obj.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return obj
}

func isRadixLiteral(lexeme string) bool {
	if len(lexeme) < 2 || lexeme[0] != '0' {
		return false
	}
	return strings.ContainsRune("xXoObB", rune(lexeme[1]))
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
