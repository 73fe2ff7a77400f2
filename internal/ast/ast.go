// Package ast defines the statement and expression tree consumed by the evaluator.
package ast

import (
	"tinyjs/internal/span"
	"tinyjs/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Program (root)
// ============================================================

// Program is a parsed source unit: a list of top-level statements.
type Program struct {
	NodeBase
	Body []Stmt
}

// ============================================================
// Expressions
// ============================================================

// LitKind tags a Literal.
type LitKind int

const (
	LitNumber LitKind = iota
	LitBinary // radix-prefixed number: 0x, 0o, 0b
	LitString
	LitBool
	LitNull
	LitUndefined
	LitRegEx
)

var litKindNames = [...]string{"Number", "Binary", "String", "Bool", "Null", "Undefined", "RegEx"}

func (k LitKind) String() string {
	if int(k) < len(litKindNames) {
		return litKindNames[k]
	}
	return "Unknown"
}

// Literal is a literal as written in the source. Raw keeps the exact text,
// quotes included for strings; the evaluator converts it to a value.
type Literal struct {
	ExprBase
	Kind LitKind
	Raw  string
}

// IdentExpr represents an identifier reference.
type IdentExpr struct {
	ExprBase
	Name string
}

// ThisExpr represents the 'this' keyword.
type ThisExpr struct {
	ExprBase
}

// UnaryExpr represents a prefix operation: !x, -x, +x, ~x, typeof x.
type UnaryExpr struct {
	ExprBase
	Op      token.Kind
	Operand Expr
}

// BinaryExpr represents a binary operation, including && and ||.
type BinaryExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// UpdateExpr represents ++x, x++, --x, x--.
type UpdateExpr struct {
	ExprBase
	Op     token.Kind // INC or DEC
	Prefix bool
	Target Expr // IdentExpr, MemberExpr or IndexExpr
}

// AssignExpr represents target = value or a compound form like target += value.
type AssignExpr struct {
	ExprBase
	Op     token.Kind // ASSIGN or one of the *_ASSIGN kinds
	Target Expr       // IdentExpr, MemberExpr or IndexExpr
	Value  Expr
}

// CallExpr represents a function call: f(a, b).
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// MemberExpr represents member access: a.b.
type MemberExpr struct {
	ExprBase
	Object   Expr
	Property string
}

// IndexExpr represents computed member access: a[k].
type IndexExpr struct {
	ExprBase
	Object Expr
	Index  Expr
}

// FuncExpr represents a function expression: function name?(params) { body }.
type FuncExpr struct {
	ExprBase
	Name   string // may be empty
	Params []string
	Body   []Stmt
}

// TernaryExpr represents cond ? then : else.
type TernaryExpr struct {
	ExprBase
	Condition Expr
	Then      Expr
	Else      Expr
}

// ArrayLiteral represents [a, b, c].
type ArrayLiteral struct {
	ExprBase
	Elements []Expr
}

// ObjectLiteral represents { key: value, ... }. Keys are already resolved to
// property names.
type ObjectLiteral struct {
	ExprBase
	Keys   []string
	Values []Expr
}

// ============================================================
// Statements
// ============================================================

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// Declarator is one name = init pair of a declaration.
type Declarator struct {
	Span span.Span
	Name string
	Init Expr // may be nil
}

// VarDeclStmt represents var/let/const with one or more declarators.
type VarDeclStmt struct {
	StmtBase
	Kind        token.Kind // KW_VAR, KW_LET or KW_CONST
	Declarators []Declarator
}

// BlockStmt represents { ... }.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt represents if (test) consequent else alternate.
type IfStmt struct {
	StmtBase
	Condition Expr
	Then      Stmt
	Else      Stmt // may be nil
}

// WhileStmt represents a while loop.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      Stmt
}

// ForStmt represents a C-style for loop: for (init; condition; update) body.
type ForStmt struct {
	StmtBase
	Init      Stmt // VarDeclStmt, ExprStmt, or nil
	Condition Expr // nil means loop forever
	Update    Expr // may be nil
	Body      Stmt
}

// FuncDecl represents function name(params) { body }.
type FuncDecl struct {
	StmtBase
	Name   string
	Params []string
	Body   []Stmt
}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	StmtBase
	Value Expr // may be nil
}

// BreakStmt represents a break statement.
type BreakStmt struct {
	StmtBase
}

// ContinueStmt represents a continue statement.
type ContinueStmt struct {
	StmtBase
}

// EmptyStmt represents a lone semicolon.
type EmptyStmt struct {
	StmtBase
}
