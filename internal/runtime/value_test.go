package runtime

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   Value
		want float64
	}{
		{Null, 0},
		{BoolVal(true), 1},
		{BoolVal(false), 0},
		{NumberVal(2.5), 2.5},
		{StringVal(""), 0},
		{StringVal("  42  "), 42},
		{StringVal("1e3"), 1000},
		{StringVal("0x1F"), 31},
		{StringVal("0b101"), 5},
		{StringVal("-Infinity"), math.Inf(-1)},
		{StringVal("1e400"), math.Inf(1)},
	}
	for _, tt := range tests {
		if got := ToNumber(tt.in); got != tt.want {
			t.Errorf("ToNumber(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, v := range []Value{Undefined, StringVal("abc"), StringVal("1_000"), StringVal("inf"), StringVal("0x"), NewObject()} {
		if got := ToNumber(v); !math.IsNaN(got) {
			t.Errorf("ToNumber(%#v) = %v, want NaN", v, got)
		}
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{Undefined, "undefined"},
		{Null, "null"},
		{BoolVal(true), "true"},
		{NumberVal(3), "3"},
		{NumberVal(-0.5), "-0.5"},
		{NumberVal(math.Copysign(0, -1)), "0"},
		{NumberVal(math.NaN()), "NaN"},
		{NumberVal(math.Inf(1)), "Infinity"},
		{NumberVal(math.Inf(-1)), "-Infinity"},
		{NumberVal(1e21), "1e+21"},
		{NumberVal(1e20), "100000000000000000000"},
		{NumberVal(1.5e-7), "1.5e-7"},
		{NumberVal(0.000001), "0.000001"},
		{NumberVal(123.456), "123.456"},
		{StringVal("s"), "s"},
		{NewObject(), "[object Object]"},
		{NewArray(NumberVal(1)), "[object Object]"},
	}
	for _, tt := range tests {
		if got := ToString(tt.in); got != tt.want {
			t.Errorf("ToString(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToBoolean(t *testing.T) {
	falsy := []Value{Undefined, Null, BoolVal(false), NumberVal(0), NumberVal(math.Copysign(0, -1)), NumberVal(math.NaN()), StringVal("")}
	truthy := []Value{BoolVal(true), NumberVal(-1), NumberVal(math.Inf(1)), StringVal("0"), StringVal("false"), NewObject(), NewArray()}

	for _, v := range falsy {
		if ToBoolean(v) {
			t.Errorf("ToBoolean(%#v) = true, want false", v)
		}
	}
	for _, v := range truthy {
		if !ToBoolean(v) {
			t.Errorf("ToBoolean(%#v) = false, want true", v)
		}
	}

	// re-deriving a boolean from a truthy or falsy stand-in is stable
	for _, v := range append(falsy, truthy...) {
		var stand Value = StringVal("")
		if ToBoolean(v) {
			stand = NumberVal(1)
		}
		if ToBoolean(stand) != ToBoolean(v) {
			t.Errorf("ToBoolean not idempotent for %#v", v)
		}
	}
}

func TestNumberStringRoundTrip(t *testing.T) {
	numbers := []float64{
		0, 1, -1, 0.1, 0.2 + 0.1, 1 / 3.0, 123456789, 1e21, 1e-7, 5e-324,
		math.MaxFloat64, -math.MaxFloat64, 2.5e-5, 1 << 53, math.Pi,
		math.Inf(1), math.Inf(-1),
	}
	for _, n := range numbers {
		got := ToNumber(StringVal(ToString(NumberVal(n))))
		if got != n {
			t.Errorf("round trip of %v gave %v (via %q)", n, got, ToString(NumberVal(n)))
		}
	}
	if !math.IsNaN(ToNumber(StringVal(ToString(NumberVal(math.NaN()))))) {
		t.Errorf("NaN did not round trip")
	}
}

func TestInt32Conversions(t *testing.T) {
	tests := []struct {
		in  float64
		i32 int32
		u32 uint32
	}{
		{0, 0, 0},
		{-1, -1, 4294967295},
		{4294967296, 0, 0},
		{2147483648, -2147483648, 2147483648},
		{3.9, 3, 3},
		{-3.9, -3, 4294967293},
		{math.NaN(), 0, 0},
		{math.Inf(1), 0, 0},
	}
	for _, tt := range tests {
		if got := ToInt32(NumberVal(tt.in)); got != tt.i32 {
			t.Errorf("ToInt32(%v) = %d, want %d", tt.in, got, tt.i32)
		}
		if got := ToUint32(NumberVal(tt.in)); got != tt.u32 {
			t.Errorf("ToUint32(%v) = %d, want %d", tt.in, got, tt.u32)
		}
	}
}

func TestFieldAccess(t *testing.T) {
	o := NewObject()
	if got := SetField(o, "a", NumberVal(1)); !StrictEquals(got, NumberVal(1)) {
		t.Errorf("SetField returned %v", got)
	}
	o.Set("b", StringVal("x"))
	o.Set("a", NumberVal(2))

	if diff := cmp.Diff([]string{"a", "b"}, o.Keys()); diff != "" {
		t.Errorf("key order (-want +got):\n%s", diff)
	}
	if !StrictEquals(GetField(o, "a"), NumberVal(2)) {
		t.Errorf("a = %v, want 2", GetField(o, "a"))
	}
	if _, ok := GetField(o, "missing").(UndefinedVal); !ok {
		t.Errorf("missing field should be undefined")
	}

	for _, prim := range []Value{Undefined, Null, NumberVal(1), StringVal("s"), BoolVal(true)} {
		if _, ok := GetField(prim, "x").(UndefinedVal); !ok {
			t.Errorf("GetField on %#v should be undefined", prim)
		}
		if _, ok := SetField(prim, "x", NumberVal(1)).(UndefinedVal); !ok {
			t.Errorf("SetField on %#v should be undefined", prim)
		}
	}

	o.Delete("a")
	if o.Has("a") || len(o.Keys()) != 1 {
		t.Errorf("delete left keys %v", o.Keys())
	}
}

func TestArrayShape(t *testing.T) {
	a := NewArray(StringVal("x"), StringVal("y"))
	if diff := cmp.Diff([]string{"0", "1", "length"}, a.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"0", "1"}, a.EnumerableKeys()); diff != "" {
		t.Errorf("enumerable keys (-want +got):\n%s", diff)
	}

	a.Set("4", BoolVal(true))
	if a.Len() != 5 {
		t.Errorf("length after index write = %d, want 5", a.Len())
	}
	a.Set("01", Null) // not an index
	if a.Len() != 5 {
		t.Errorf("non-canonical index changed length to %d", a.Len())
	}

	a.Set("length", NumberVal(1))
	if a.Has("1") || a.Has("4") || !a.Has("0") || !a.Has("01") {
		t.Errorf("truncate left keys %v", a.Keys())
	}
	if got := len(a.Elements()); got != 1 {
		t.Errorf("elements = %d, want 1", got)
	}
}

func TestTypeNames(t *testing.T) {
	fn := NewHostFunction("f", 0, func(Value, []Value) (Value, error) { return Undefined, nil })
	got := []string{
		Undefined.TypeName(), Null.TypeName(), BoolVal(true).TypeName(),
		NumberVal(1).TypeName(), StringVal("").TypeName(), NewObject().TypeName(), fn.TypeName(),
	}
	want := []string{"undefined", "object", "boolean", "number", "string", "object", "function"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("type names (-want +got):\n%s", diff)
	}
}

func TestEquals(t *testing.T) {
	o := NewObject()
	tests := []struct {
		a, b          Value
		loose, strict bool
	}{
		{NumberVal(1), StringVal("1"), true, false},
		{Null, Undefined, true, false},
		{Null, NumberVal(0), false, false},
		{BoolVal(false), StringVal(""), true, false},
		{NumberVal(math.NaN()), NumberVal(math.NaN()), false, false},
		{o, o, true, true},
		{o, NewObject(), false, false},
		{StringVal("[object Object]"), o, false, false},
		{StringVal("a"), StringVal("a"), true, true},
	}
	for _, tt := range tests {
		if got := LooseEquals(tt.a, tt.b); got != tt.loose {
			t.Errorf("LooseEquals(%v, %v) = %v", tt.a, tt.b, got)
		}
		if got := StrictEquals(tt.a, tt.b); got != tt.strict {
			t.Errorf("StrictEquals(%v, %v) = %v", tt.a, tt.b, got)
		}
	}
}

func TestInspect(t *testing.T) {
	arr := NewArray(NumberVal(1), StringVal("two"))
	arr.Set("extra", BoolVal(true))
	obj := NewObject()
	obj.Set("list", arr)
	obj.Set("my-key", Null)
	obj.Set("f", NewHostFunction("log", 0, nil))

	tests := []struct {
		in   Value
		want string
	}{
		{StringVal("raw"), "raw"},
		{NumberVal(1.5), "1.5"},
		{NewArray(), "[]"},
		{NewObject(), "{}"},
		{arr, "[ 1, 'two', extra: true ]"},
		{obj, "{ list: [ 1, 'two', extra: true ], 'my-key': null, f: [Function: log] }"},
		{NewArray(StringVal("it's")), `[ 'it\'s' ]`},
	}
	for _, tt := range tests {
		if got := Inspect(tt.in); got != tt.want {
			t.Errorf("Inspect = %q, want %q", got, tt.want)
		}
	}

	shared := NewObject()
	pair := NewArray(shared, shared)
	if got := Inspect(pair); got != "[ {}, {} ]" {
		t.Errorf("shared non-cyclic object printed as %q", got)
	}
}
