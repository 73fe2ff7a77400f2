package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// InitJSON installs JSON.stringify and JSON.parse.
func InitJSON(global *ObjectVal, _ *Host) {
	j := NewObject()
	defineFunc(j, "stringify", 0, func(_ Value, args []Value) (Value, error) {
		s, ok, err := Stringify(arg(args, 0), jsonIndent(arg(args, 2)))
		if err != nil {
			return Undefined, err
		}
		if !ok {
			return Undefined, nil
		}
		return StringVal(s), nil
	})
	defineFunc(j, "parse", 1, func(_ Value, args []Value) (Value, error) {
		return ParseJSON(ToString(args[0]))
	})
	global.Set("JSON", j)
}

// jsonIndent turns the third stringify argument into an indent unit: a count
// of spaces up to 10, or the first 10 characters of a string.
func jsonIndent(v Value) string {
	switch x := v.(type) {
	case NumberVal:
		f := float64(x)
		if math.IsNaN(f) || f < 1 {
			return ""
		}
		return strings.Repeat(" ", int(math.Min(10, math.Trunc(f))))
	case StringVal:
		s := []rune(string(x))
		if len(s) > 10 {
			s = s[:10]
		}
		return string(s)
	}
	return ""
}

// ============================================================
// Serialization
// ============================================================

// Stringify serializes v as JSON. ok is false when v has no JSON form
// (undefined or a function). A cyclic structure is a JsonCycle error.
func Stringify(v Value, indent string) (s string, ok bool, err error) {
	if jsonSkipped(v) {
		return "", false, nil
	}
	w := &jsonWriter{indent: indent, active: map[*ObjectVal]bool{}}
	if err := w.write(v, 0); err != nil {
		return "", false, err
	}
	return w.b.String(), true, nil
}

// jsonSkipped reports values that object members omit and arrays write as null.
func jsonSkipped(v Value) bool {
	switch x := v.(type) {
	case UndefinedVal:
		return true
	case *ObjectVal:
		return x.IsCallable()
	}
	return false
}

type jsonWriter struct {
	b      strings.Builder
	indent string
	active map[*ObjectVal]bool // objects on the current path
}

func (w *jsonWriter) newline(depth int) {
	if w.indent == "" {
		return
	}
	w.b.WriteByte('\n')
	w.b.WriteString(strings.Repeat(w.indent, depth))
}

func (w *jsonWriter) write(v Value, depth int) error {
	switch x := v.(type) {
	case NullVal:
		w.b.WriteString("null")
	case BoolVal:
		w.b.WriteString(x.String())
	case NumberVal:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			w.b.WriteString("null")
		} else {
			w.b.WriteString(NumberToString(f))
		}
	case StringVal:
		w.b.WriteString(quoteJSON(string(x)))
	case *ObjectVal:
		if w.active[x] {
			return Errorf(KindJSONCycle, "converting circular structure to JSON")
		}
		w.active[x] = true
		defer delete(w.active, x)
		if x.IsArray() {
			return w.writeArray(x, depth)
		}
		return w.writeObject(x, depth)
	default:
		w.b.WriteString("null")
	}
	return nil
}

func (w *jsonWriter) writeArray(o *ObjectVal, depth int) error {
	elems := o.Elements()
	if len(elems) == 0 {
		w.b.WriteString("[]")
		return nil
	}
	w.b.WriteByte('[')
	for k, el := range elems {
		if k > 0 {
			w.b.WriteByte(',')
		}
		w.newline(depth + 1)
		if jsonSkipped(el) {
			w.b.WriteString("null")
			continue
		}
		if err := w.write(el, depth+1); err != nil {
			return err
		}
	}
	w.newline(depth)
	w.b.WriteByte(']')
	return nil
}

func (w *jsonWriter) writeObject(o *ObjectVal, depth int) error {
	var keys []string
	for _, k := range o.Keys() {
		if !jsonSkipped(o.GetField(k)) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		w.b.WriteString("{}")
		return nil
	}
	w.b.WriteByte('{')
	for n, k := range keys {
		if n > 0 {
			w.b.WriteByte(',')
		}
		w.newline(depth + 1)
		w.b.WriteString(quoteJSON(k))
		w.b.WriteByte(':')
		if w.indent != "" {
			w.b.WriteByte(' ')
		}
		if err := w.write(o.GetField(k), depth+1); err != nil {
			return err
		}
	}
	w.newline(depth)
	w.b.WriteByte('}')
	return nil
}

func quoteJSON(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// ============================================================
// Parsing
// ============================================================

// ParseJSON decodes text into runtime values. Objects keep their key order.
// Malformed input is a JsonSyntax error.
func ParseJSON(text string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := parseJSONValue(dec)
	if err != nil {
		return Undefined, Errorf(KindJSONSyntax, "%v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Undefined, Errorf(KindJSONSyntax, "unexpected data after JSON value at offset %d", dec.InputOffset())
	}
	return v, nil
}

func parseJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected end of JSON input")
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			var elems []Value
			for dec.More() {
				el, err := parseJSONValue(dec)
				if err != nil {
					return nil, err
				}
				elems = append(elems, el)
			}
			if err := expectDelim(dec, ']'); err != nil {
				return nil, err
			}
			return NewArray(elems...), nil
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key must be a string at offset %d", dec.InputOffset())
				}
				val, err := parseJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if err := expectDelim(dec, '}'); err != nil {
				return nil, err
			}
			return obj, nil
		}
		return nil, fmt.Errorf("unexpected %q at offset %d", rune(t), dec.InputOffset())
	case string:
		return StringVal(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, err
		}
		return NumberVal(f), nil
	case bool:
		return BoolVal(t), nil
	case nil:
		return Null, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("unexpected end of JSON input")
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q at offset %d", rune(want), dec.InputOffset())
	}
	return nil
}
