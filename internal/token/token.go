// Package token defines the token kinds produced by the lexer.
package token

import (
	"fmt"
	"tinyjs/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF

	// Literals
	IDENT  // x, foo, $el
	NUMBER // 12, 1.5e3, 0xff, 0b101
	STRING // "hi", 'hi' (lexeme keeps the quotes)
	REGEX  // /ab+c/gi

	// Operators
	ASSIGN  // =
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %
	BANG    // !
	TILDE   // ~
	AMP     // &
	PIPE    // |
	CARET   // ^
	SHL     // <<
	SHR     // >>
	USHR    // >>>

	EQ         // ==
	NEQ        // !=
	STRICT_EQ  // ===
	STRICT_NEQ // !==
	LT         // <
	LTE        // <=
	GT         // >
	GTE        // >=

	AND // &&
	OR  // ||

	INC // ++
	DEC // --

	// Compound assignment
	PLUS_ASSIGN    // +=
	MINUS_ASSIGN   // -=
	STAR_ASSIGN    // *=
	SLASH_ASSIGN   // /=
	PERCENT_ASSIGN // %=

	QUESTION // ?
	COLON    // :

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	DOT       // .
	SEMICOLON // ;

	// Keywords
	KW_VAR
	KW_LET
	KW_CONST
	KW_FUNCTION
	KW_RETURN
	KW_IF
	KW_ELSE
	KW_WHILE
	KW_FOR
	KW_BREAK
	KW_CONTINUE
	KW_TRUE
	KW_FALSE
	KW_NULL
	KW_UNDEFINED
	KW_THIS
	KW_TYPEOF
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",
	REGEX:  "REGEX",

	ASSIGN:  "=",
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	PERCENT: "%",
	BANG:    "!",
	TILDE:   "~",
	AMP:     "&",
	PIPE:    "|",
	CARET:   "^",
	SHL:     "<<",
	SHR:     ">>",
	USHR:    ">>>",

	EQ:         "==",
	NEQ:        "!=",
	STRICT_EQ:  "===",
	STRICT_NEQ: "!==",
	LT:         "<",
	LTE:        "<=",
	GT:         ">",
	GTE:        ">=",
	AND:        "&&",
	OR:         "||",
	INC:        "++",
	DEC:        "--",

	PLUS_ASSIGN:    "+=",
	MINUS_ASSIGN:   "-=",
	STAR_ASSIGN:    "*=",
	SLASH_ASSIGN:   "/=",
	PERCENT_ASSIGN: "%=",
	QUESTION:       "?",
	COLON:          ":",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	DOT:       ".",
	SEMICOLON: ";",

	KW_VAR:       "var",
	KW_LET:       "let",
	KW_CONST:     "const",
	KW_FUNCTION:  "function",
	KW_RETURN:    "return",
	KW_IF:        "if",
	KW_ELSE:      "else",
	KW_WHILE:     "while",
	KW_FOR:       "for",
	KW_BREAK:     "break",
	KW_CONTINUE:  "continue",
	KW_TRUE:      "true",
	KW_FALSE:     "false",
	KW_NULL:      "null",
	KW_UNDEFINED: "undefined",
	KW_THIS:      "this",
	KW_TYPEOF:    "typeof",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword returns true if the kind is a keyword.
func (k Kind) IsKeyword() bool {
	return k >= KW_VAR && k <= KW_TYPEOF
}

// IsLiteral returns true if the kind carries literal text (ident/number/string/regex).
func (k Kind) IsLiteral() bool {
	return k >= IDENT && k <= REGEX
}

// IsAssign reports whether k is = or a compound assignment operator.
func (k Kind) IsAssign() bool {
	return k == ASSIGN || (k >= PLUS_ASSIGN && k <= PERCENT_ASSIGN)
}

// EndsOperand reports whether a token of kind k can end an operand. The lexer
// uses it to tell a division slash from the start of a regex literal.
func (k Kind) EndsOperand() bool {
	switch k {
	case IDENT, NUMBER, STRING, REGEX, RPAREN, RBRACKET, RBRACE,
		KW_TRUE, KW_FALSE, KW_NULL, KW_UNDEFINED, KW_THIS, INC, DEC:
		return true
	}
	return false
}

var keywords = map[string]Kind{
	"var":       KW_VAR,
	"let":       KW_LET,
	"const":     KW_CONST,
	"function":  KW_FUNCTION,
	"return":    KW_RETURN,
	"if":        KW_IF,
	"else":      KW_ELSE,
	"while":     KW_WHILE,
	"for":       KW_FOR,
	"break":     KW_BREAK,
	"continue":  KW_CONTINUE,
	"true":      KW_TRUE,
	"false":     KW_FALSE,
	"null":      KW_NULL,
	"undefined": KW_UNDEFINED,
	"this":      KW_THIS,
	"typeof":    KW_TYPEOF,
}

// LookupIdent returns the keyword Kind for ident, or IDENT if it is not a keyword.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Token is a lexical token with its kind, source text and location.
type Token struct {
	Kind   Kind      `json:"kind"`
	Lexeme string    `json:"lexeme"`
	Span   span.Span `json:"span"`
	// NewlineBefore is set when at least one line break separates this token
	// from the previous one; the parser uses it for semicolon insertion.
	NewlineBefore bool `json:"newlineBefore,omitempty"`
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}
