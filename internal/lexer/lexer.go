// Package lexer turns source text into tokens for the parser.
package lexer

import (
	"fmt"
	"tinyjs/internal/diag"
	"tinyjs/internal/span"
	"tinyjs/internal/token"
	"unicode/utf8"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	sawNewline bool       // a line break was skipped since the last token
	prev       token.Kind // kind of the last emitted token, for regex detection

	diags []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
		prev:     token.ILLEGAL,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
// The last token is always EOF.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok := l.nextToken()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// ---- internal helpers ----

func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.source) {
		return 0
	}
	return l.source[l.pos+n]
}

func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

func (l *Lexer) addError(code string, s span.Span, msg string) {
	l.diags = append(l.diags, diag.Errorf(code, s, "%s", msg))
}

// skipTrivia skips whitespace and comments, remembering whether a line break was crossed.
func (l *Lexer) skipTrivia() {
	for l.pos < len(l.source) {
		ch := l.peek()
		switch {
		case ch == '\n':
			l.sawNewline = true
			l.advance()
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v':
			l.advance()
		case ch == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.source) && l.peek() != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekAt(1) == '*':
			l.skipBlockComment()
		default:
			return
		}
	}
}

func (l *Lexer) skipBlockComment() {
	start := l.curPos()
	l.advance() // /
	l.advance() // *
	for l.pos < len(l.source) {
		if l.peek() == '*' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			return
		}
		if l.peek() == '\n' {
			l.sawNewline = true
		}
		l.advance()
	}
	d := diag.Errorf("E1005", l.makeSpan(start), "unterminated block comment")
	d.AtEOF = true
	l.diags = append(l.diags, d)
}

func (l *Lexer) emit(kind token.Kind, lexeme string, start span.Position) token.Token {
	tok := token.Token{
		Kind:          kind,
		Lexeme:        lexeme,
		Span:          l.makeSpan(start),
		NewlineBefore: l.sawNewline,
	}
	l.sawNewline = false
	l.prev = kind
	return tok
}

// ---- token reading ----

func (l *Lexer) nextToken() token.Token {
	l.skipTrivia()

	start := l.curPos()
	if l.pos >= len(l.source) {
		return l.emit(token.EOF, "", start)
	}

	ch := l.peek()
	switch {
	case ch == '"' || ch == '\'':
		return l.readString(start, ch)
	case isDigit(ch) || (ch == '.' && isDigit(l.peekAt(1))):
		return l.readNumber(start)
	case isIdentStart(ch):
		return l.readIdentifier(start)
	case ch == '/' && !l.prev.EndsOperand():
		return l.readRegex(start)
	default:
		return l.readOperator(start)
	}
}

// readString reads a quoted string. The lexeme keeps the quotes and escapes
// untouched; the evaluator decodes literal text.
func (l *Lexer) readString(start span.Position, quote byte) token.Token {
	from := l.pos
	l.advance() // opening quote

	for l.pos < len(l.source) {
		ch := l.peek()
		switch ch {
		case quote:
			l.advance()
			return l.emit(token.STRING, l.source[from:l.pos], start)
		case '\n':
			l.addError("E1001", l.makeSpan(start), "unterminated string literal")
			return l.emit(token.STRING, l.source[from:l.pos]+string(quote), start)
		case '\\':
			l.advance()
			if l.pos < len(l.source) {
				l.advance()
			}
		default:
			l.advance()
		}
	}

	l.addError("E1001", l.makeSpan(start), "unterminated string literal")
	return l.emit(token.STRING, l.source[from:l.pos]+string(quote), start)
}

// readNumber reads decimal, hex (0x), octal (0o) and binary (0b) literals.
func (l *Lexer) readNumber(start span.Position) token.Token {
	from := l.pos

	if l.peek() == '0' {
		switch l.peekAt(1) {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			l.advance()
			l.advance()
			digits := 0
			for isHexDigit(l.peek()) {
				l.advance()
				digits++
			}
			if digits == 0 {
				l.addError("E1006", l.makeSpan(start), "missing digits after radix prefix")
			}
			return l.emit(token.NUMBER, l.source[from:l.pos], start)
		}
	}

	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	} else if l.peek() == '.' && !isIdentStart(l.peekAt(1)) {
		// "1." is a complete literal
		l.advance()
	}
	if e := l.peek(); e == 'e' || e == 'E' {
		n := 1
		if s := l.peekAt(1); s == '+' || s == '-' {
			n = 2
		}
		if isDigit(l.peekAt(n)) {
			for ; n > 0; n-- {
				l.advance()
			}
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}
	if isIdentStart(l.peek()) {
		for isIdentPart(l.peek()) {
			l.advance()
		}
		l.addError("E1006", l.makeSpan(start), fmt.Sprintf("invalid numeric literal %q", l.source[from:l.pos]))
	}
	return l.emit(token.NUMBER, l.source[from:l.pos], start)
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	from := l.pos
	for l.pos < len(l.source) && isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := l.source[from:l.pos]
	return l.emit(token.LookupIdent(lexeme), lexeme, start)
}

// readRegex reads /body/flags. The pattern is never compiled.
func (l *Lexer) readRegex(start span.Position) token.Token {
	from := l.pos
	l.advance() // opening /
	inClass := false
	for {
		if l.pos >= len(l.source) || l.peek() == '\n' {
			l.addError("E1004", l.makeSpan(start), "unterminated regular expression literal")
			return l.emit(token.REGEX, l.source[from:l.pos], start)
		}
		ch := l.advance()
		switch {
		case ch == '\\' && l.pos < len(l.source) && l.peek() != '\n':
			l.advance()
		case ch == '[':
			inClass = true
		case ch == ']':
			inClass = false
		case ch == '/' && !inClass:
			for isIdentPart(l.peek()) {
				l.advance()
			}
			return l.emit(token.REGEX, l.source[from:l.pos], start)
		}
	}
}

type opEntry struct {
	text string
	kind token.Kind
}

// operators is ordered longest first so the greedy match wins.
var operators = []opEntry{
	{">>>", token.USHR},
	{"===", token.STRICT_EQ},
	{"!==", token.STRICT_NEQ},
	{"==", token.EQ},
	{"!=", token.NEQ},
	{"<=", token.LTE},
	{">=", token.GTE},
	{"<<", token.SHL},
	{">>", token.SHR},
	{"&&", token.AND},
	{"||", token.OR},
	{"++", token.INC},
	{"--", token.DEC},
	{"+=", token.PLUS_ASSIGN},
	{"-=", token.MINUS_ASSIGN},
	{"*=", token.STAR_ASSIGN},
	{"/=", token.SLASH_ASSIGN},
	{"%=", token.PERCENT_ASSIGN},
	{"=", token.ASSIGN},
	{"+", token.PLUS},
	{"-", token.MINUS},
	{"*", token.STAR},
	{"/", token.SLASH},
	{"%", token.PERCENT},
	{"!", token.BANG},
	{"~", token.TILDE},
	{"&", token.AMP},
	{"|", token.PIPE},
	{"^", token.CARET},
	{"<", token.LT},
	{">", token.GT},
	{"?", token.QUESTION},
	{":", token.COLON},
	{"(", token.LPAREN},
	{")", token.RPAREN},
	{"{", token.LBRACE},
	{"}", token.RBRACE},
	{"[", token.LBRACKET},
	{"]", token.RBRACKET},
	{",", token.COMMA},
	{".", token.DOT},
	{";", token.SEMICOLON},
}

// readOperator reads an operator or delimiter token.
func (l *Lexer) readOperator(start span.Position) token.Token {
	rest := l.source[l.pos:]
	for _, op := range operators {
		if len(rest) >= len(op.text) && rest[:len(op.text)] == op.text {
			for range len(op.text) {
				l.advance()
			}
			return l.emit(op.kind, op.text, start)
		}
	}

	r, size := utf8.DecodeRuneInString(rest)
	for range size {
		l.advance()
	}
	l.addError("E1003", l.makeSpan(start), fmt.Sprintf("unexpected character: %q", r))
	return l.emit(token.ILLEGAL, string(r), start)
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch byte) bool {
	// Bytes of multi-byte UTF-8 sequences are accepted as identifier characters.
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
