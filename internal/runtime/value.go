// Package runtime implements the value model, built-ins, scope stack and
// tree-walking evaluator for tinyjs.
package runtime

import (
	"strconv"
	"tinyjs/internal/ast"
)

// Value is the interface for all runtime values. Primitives are immutable Go
// values; *ObjectVal is a shared handle whose properties mutate in place.
type Value interface {
	// TypeName returns the typeof name: undefined, object, boolean, number,
	// string or function.
	TypeName() string
	// String returns the ToString conversion.
	String() string
}

// ---- Primitive values ----

// UndefinedVal is the undefined value.
type UndefinedVal struct{}

func (UndefinedVal) TypeName() string { return "undefined" }
func (UndefinedVal) String() string   { return "undefined" }

// NullVal represents null.
type NullVal struct{}

func (NullVal) TypeName() string { return "object" }
func (NullVal) String() string   { return "null" }

// BoolVal represents true or false.
type BoolVal bool

func (v BoolVal) TypeName() string { return "boolean" }
func (v BoolVal) String() string   { return strconv.FormatBool(bool(v)) }

// NumberVal is a double-precision number, NaN and the infinities included.
type NumberVal float64

func (v NumberVal) TypeName() string { return "number" }
func (v NumberVal) String() string   { return NumberToString(float64(v)) }

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return string(v) }

// Undefined and Null are the canonical instances.
var (
	Undefined Value = UndefinedVal{}
	Null      Value = NullVal{}
)

// ---- Functions ----

// HostFunc is the Go signature for built-in functions. Arguments are already
// evaluated; this is the receiver of the call.
type HostFunc func(this Value, args []Value) (Value, error)

// FuncVal is the callable part of a function object. Exactly one of Host and
// Body describes the behavior: host functions run Go code, user functions run
// their statement list in a fresh scope.
type FuncVal struct {
	Name    string
	Params  []string
	Body    []ast.Stmt
	Host    HostFunc
	MinArgs int // host functions only; fewer arguments is an Arity error
}

// IsHost reports whether f is implemented in Go.
func (f *FuncVal) IsHost() bool { return f.Host != nil }

// ---- Objects ----

// ObjectKind distinguishes array-shaped objects from plain ones.
type ObjectKind int

const (
	KindPlain ObjectKind = iota
	KindArray
)

// ObjectVal is a mutable, ordered property map. Functions are objects whose
// Fn field is set.
type ObjectVal struct {
	keys  []string
	props map[string]Value
	Kind  ObjectKind
	Fn    *FuncVal
}

// NewObject returns an empty plain object.
func NewObject() *ObjectVal {
	return &ObjectVal{props: make(map[string]Value)}
}

// NewArray returns an array-shaped object: keys "0".."n-1" plus length.
func NewArray(elems ...Value) *ObjectVal {
	o := &ObjectVal{props: make(map[string]Value, len(elems)+1), Kind: KindArray}
	for i, el := range elems {
		o.put(strconv.Itoa(i), el)
	}
	o.put("length", NumberVal(len(elems)))
	return o
}

// NewFunction wraps f in a function object.
func NewFunction(f *FuncVal) *ObjectVal {
	o := NewObject()
	o.Fn = f
	return o
}

// NewHostFunction returns a function object backed by Go code.
func NewHostFunction(name string, minArgs int, fn HostFunc) *ObjectVal {
	return NewFunction(&FuncVal{Name: name, Host: fn, MinArgs: minArgs})
}

func (o *ObjectVal) TypeName() string {
	if o.Fn != nil {
		return "function"
	}
	return "object"
}

func (o *ObjectVal) String() string { return "[object Object]" }

// IsArray reports whether o is array-shaped.
func (o *ObjectVal) IsArray() bool { return o.Kind == KindArray }

// IsCallable reports whether o can be called.
func (o *ObjectVal) IsCallable() bool { return o.Fn != nil }

// Get returns an own property.
func (o *ObjectVal) Get(name string) (Value, bool) {
	v, ok := o.props[name]
	return v, ok
}

// GetField returns an own property or Undefined.
func (o *ObjectVal) GetField(name string) Value {
	if v, ok := o.props[name]; ok {
		return v
	}
	return Undefined
}

// Has reports whether name is an own property.
func (o *ObjectVal) Has(name string) bool {
	_, ok := o.props[name]
	return ok
}

// Set inserts or replaces a property and returns the stored value. On arrays,
// writing an index at or past length grows length, and writing a smaller
// length drops the trailing indices.
func (o *ObjectVal) Set(name string, v Value) Value {
	if o.Kind == KindArray {
		if name == "length" {
			if n, ok := arrayIndex(v.String()); ok {
				o.truncate(n)
			}
		} else if idx, ok := arrayIndex(name); ok && idx >= o.Len() {
			o.put("length", NumberVal(idx+1))
		}
	}
	o.put(name, v)
	return v
}

// maxArrayLength bounds array lengths so a script cannot allocate without limit.
const maxArrayLength = 1 << 24

// CheckWrite reports whether setting name to v keeps an array within
// maxArrayLength. Non-array objects always pass.
func (o *ObjectVal) CheckWrite(name string, v Value) error {
	if o.Kind != KindArray {
		return nil
	}
	if name == "length" {
		if n, ok := arrayIndex(v.String()); ok && n > maxArrayLength {
			return Errorf(KindHost, "invalid array length %d", n)
		}
		return nil
	}
	if idx, ok := arrayIndex(name); ok && idx >= maxArrayLength {
		return Errorf(KindHost, "array index %d is past the maximum length %d", idx, maxArrayLength)
	}
	return nil
}

// Delete removes an own property.
func (o *ObjectVal) Delete(name string) {
	if _, ok := o.props[name]; !ok {
		return
	}
	delete(o.props, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the own property names in insertion order.
func (o *ObjectVal) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// EnumerableKeys returns Keys without the length of arrays.
func (o *ObjectVal) EnumerableKeys() []string {
	if o.Kind != KindArray {
		return o.Keys()
	}
	out := make([]string, 0, len(o.keys))
	for _, k := range o.keys {
		if k != "length" {
			out = append(out, k)
		}
	}
	return out
}

// Len returns the length property of an array, 0 for other objects.
func (o *ObjectVal) Len() int {
	if o.Kind != KindArray {
		return 0
	}
	if n, ok := o.props["length"].(NumberVal); ok && n >= 0 {
		return int(n)
	}
	return 0
}

// Elements returns the values at indices 0..length-1 of an array.
func (o *ObjectVal) Elements() []Value {
	n := o.Len()
	out := make([]Value, n)
	for i := range n {
		out[i] = o.GetField(strconv.Itoa(i))
	}
	return out
}

func (o *ObjectVal) put(name string, v Value) {
	if _, exists := o.props[name]; !exists {
		o.keys = append(o.keys, name)
	}
	o.props[name] = v
}

func (o *ObjectVal) truncate(n int) {
	for _, k := range o.Keys() {
		if idx, ok := arrayIndex(k); ok && idx >= n {
			o.Delete(k)
		}
	}
}

// arrayIndex parses a canonical array index: decimal digits, no leading zero.
func arrayIndex(s string) (int, bool) {
	if s == "" || len(s) > 10 || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}
	return int(n), true
}

// ---- Field access on arbitrary values ----

// GetField reads a property; non-object receivers yield Undefined.
func GetField(v Value, name string) Value {
	if o, ok := v.(*ObjectVal); ok {
		return o.GetField(name)
	}
	return Undefined
}

// SetField writes a property and returns the stored value; on non-object
// receivers it does nothing and returns Undefined.
func SetField(v Value, name string, val Value) Value {
	if o, ok := v.(*ObjectVal); ok {
		return o.Set(name, val)
	}
	return Undefined
}
