package runtime

import (
	"math"
	"strconv"
	"strings"
)

// ToNumber converts v to a number. Objects convert to NaN.
func ToNumber(v Value) float64 {
	switch x := v.(type) {
	case NumberVal:
		return float64(x)
	case BoolVal:
		if x {
			return 1
		}
		return 0
	case NullVal:
		return 0
	case StringVal:
		return StringToNumber(string(x))
	default:
		return math.NaN()
	}
}

// ToString converts v to its string form.
func ToString(v Value) string {
	return v.String()
}

// ToBoolean reports whether v is truthy.
func ToBoolean(v Value) bool {
	switch x := v.(type) {
	case UndefinedVal, NullVal:
		return false
	case BoolVal:
		return bool(x)
	case NumberVal:
		return x != 0 && !math.IsNaN(float64(x))
	case StringVal:
		return x != ""
	default:
		return true
	}
}

// ToUint32 applies the modulo-2^32 integer conversion used by >>>.
func ToUint32(v Value) uint32 {
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Mod(math.Trunc(f), 1<<32)
	if f < 0 {
		f += 1 << 32
	}
	return uint32(f)
}

// ToInt32 applies the signed 32-bit conversion used by bitwise operators.
func ToInt32(v Value) int32 {
	return int32(ToUint32(v))
}

// StringToNumber parses s the way numeric string conversion does: surrounding
// whitespace is ignored, the empty string is 0, and anything else that is not
// a decimal literal, a 0x/0o/0b integer or Infinity is NaN.
func StringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		if base := radixOf(s[1]); base != 0 {
			if f, ok := parseRadix(s[2:], base); ok {
				return f
			}
			return math.NaN()
		}
	}
	// strconv also accepts inf, nan, hex floats and underscores
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune("0123456789+-.eE", rune(s[i])) {
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

func radixOf(c byte) int {
	switch c {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	}
	return 0
}

// parseRadix accumulates digits in the given base into a float, so values past
// 2^64 lose precision instead of failing.
func parseRadix(digits string, base int) (float64, bool) {
	if digits == "" {
		return 0, false
	}
	var f float64
	for i := 0; i < len(digits); i++ {
		d, err := strconv.ParseUint(digits[i:i+1], 16, 8)
		if err != nil || int(d) >= base {
			return 0, false
		}
		f = f*float64(base) + float64(d)
	}
	return f, true
}

// parseNumericLiteral converts the raw text of a number literal.
func parseNumericLiteral(raw string) (float64, bool) {
	if len(raw) > 2 && raw[0] == '0' {
		if base := radixOf(raw[1]); base != 0 {
			return parseRadix(raw[2:], base)
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// NumberToString formats f with the shortest digits that round-trip, using
// plain notation for exponents in [-7, 21) and e-notation otherwise.
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0" // -0 too
	case f < 0:
		return "-" + NumberToString(-f)
	}

	s := strconv.FormatFloat(f, 'e', -1, 64) // d.ddde±xx
	mant, expPart, _ := strings.Cut(s, "e")
	digits := strings.Replace(mant, ".", "", 1)
	exp, _ := strconv.Atoi(expPart)
	k := len(digits)
	n := exp + 1 // position of the decimal point relative to digits

	switch {
	case k <= n && n <= 21:
		return digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return "0." + strings.Repeat("0", -n) + digits
	}

	sign := "+"
	if n-1 < 0 {
		sign = "-"
	}
	e := strconv.Itoa(abs(n - 1))
	if k == 1 {
		return digits + "e" + sign + e
	}
	return digits[:1] + "." + digits[1:] + "e" + sign + e
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// StrictEquals implements ===: no conversions, NaN is unequal to itself,
// objects compare by identity.
func StrictEquals(a, b Value) bool {
	switch x := a.(type) {
	case UndefinedVal:
		_, ok := b.(UndefinedVal)
		return ok
	case NullVal:
		_, ok := b.(NullVal)
		return ok
	case BoolVal:
		y, ok := b.(BoolVal)
		return ok && x == y
	case NumberVal:
		y, ok := b.(NumberVal)
		return ok && x == y
	case StringVal:
		y, ok := b.(StringVal)
		return ok && x == y
	case *ObjectVal:
		y, ok := b.(*ObjectVal)
		return ok && x == y
	}
	return false
}

// LooseEquals implements ==. Objects never convert to primitives here, so an
// object only equals itself.
func LooseEquals(a, b Value) bool {
	if isNullish(a) || isNullish(b) {
		return isNullish(a) && isNullish(b)
	}
	if a.TypeName() == b.TypeName() {
		return StrictEquals(a, b)
	}
	_, aObj := a.(*ObjectVal)
	_, bObj := b.(*ObjectVal)
	if aObj || bObj {
		return false
	}
	// remaining mixes of boolean, number and string compare numerically
	return ToNumber(a) == ToNumber(b)
}

func isNullish(v Value) bool {
	switch v.(type) {
	case UndefinedVal, NullVal:
		return true
	}
	return false
}
