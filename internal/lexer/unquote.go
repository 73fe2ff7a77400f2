package lexer

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Unquote strips the surrounding quotes of a string literal lexeme and decodes
// its escape sequences. Unknown escapes stand for the escaped character itself,
// and malformed \x or \u escapes are kept as written.
func Unquote(raw string) string {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		raw = raw[1 : len(raw)-1]
	}
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); {
		ch := raw[i]
		if ch != '\\' || i+1 >= len(raw) {
			b.WriteByte(ch)
			i++
			continue
		}
		esc := raw[i+1]
		i += 2
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case 'x':
			if r, ok := hexRune(raw, i, 2); ok {
				b.WriteRune(r)
				i += 2
			} else {
				b.WriteString(`\x`)
			}
		case 'u':
			r, n := unicodeEscape(raw, i)
			if n == 0 {
				b.WriteString(`\u`)
				break
			}
			i += n
			if utf16.IsSurrogate(r) && strings.HasPrefix(raw[i:], `\u`) {
				if lo, m := unicodeEscape(raw, i+2); m > 0 {
					if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
						r = pair
						i += 2 + m
					}
				}
			}
			b.WriteRune(r)
		default:
			// \' \" \\ and any other character stand for themselves
			r, size := utf8.DecodeRuneInString(raw[i-1:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	return b.String()
}

// unicodeEscape decodes the part after \u: either HHHH or {H...}. It returns
// the rune and the number of bytes consumed, 0 when malformed.
func unicodeEscape(s string, i int) (rune, int) {
	if i < len(s) && s[i] == '{' {
		end := strings.IndexByte(s[i:], '}')
		if end < 2 || end > 7 {
			return 0, 0
		}
		r, ok := hexRune(s, i+1, end-1)
		if !ok || r > utf8.MaxRune {
			return 0, 0
		}
		return r, end + 1
	}
	r, ok := hexRune(s, i, 4)
	if !ok {
		return 0, 0
	}
	return r, 4
}

func hexRune(s string, i, n int) (rune, bool) {
	if i+n > len(s) {
		return 0, false
	}
	var r rune
	for _, c := range []byte(s[i : i+n]) {
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, false
		}
		r = r<<4 | rune(d)
	}
	return r, true
}
