package runtime

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"tinyjs/internal/ast"
	"tinyjs/internal/parser"
)

// runSource parses and executes source code, returning captured console
// output followed by the inspected result, as the CLI prints it.
func runSource(source string, opts ...Option) (string, error) {
	prog, err := parser.Parse(source, "test.js")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	interp := NewInterpreter(&buf, opts...)
	result, err := interp.Run(prog)
	if err != nil {
		return buf.String(), err
	}
	if _, ok := result.(UndefinedVal); !ok {
		buf.WriteString(Inspect(result) + "\n")
	}
	return buf.String(), nil
}

func expectOutput(t *testing.T, source, expected string, opts ...Option) {
	t.Helper()
	out, err := runSource(source, opts...)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if strings.TrimRight(out, "\n") != strings.TrimRight(expected, "\n") {
		t.Errorf("output mismatch for %q:\nexpected: %q\ngot:      %q", source, expected, out)
	}
}

func expectError(t *testing.T, source, contains string, opts ...Option) {
	t.Helper()
	_, err := runSource(source, opts...)
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", contains)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Errorf("expected error containing %q, got: %v", contains, err)
	}
}

func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse(source, "test.js")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

// ---- Tests ----

func TestScenarios(t *testing.T) {
	tests := []struct{ source, want string }{
		{`1 + 2`, "3"},
		{`"hello" + " " + "world"`, "hello world"},
		{`var x = 10; var y = 4; x / y`, "2.5"},
		{`if (1 < 2) { console.log("yes"); } else { console.log("no"); }`, "yes\n"},
		{`var i = 0; while (i < 3) { console.log(i); i = i + 1; }`, "0\n1\n2\n"},
		{`function f(a, b) { return a * b; } f(3, 4)`, "12"},
	}
	for _, tt := range tests {
		expectOutput(t, tt.source, tt.want)
	}
}

func TestArithmetic(t *testing.T) {
	expectOutput(t, `1 + 2 * 3`, "7")
	expectOutput(t, `(1 + 2) * 3`, "9")
	expectOutput(t, `10 / 4`, "2.5")
	expectOutput(t, `10 % 3`, "1")
	expectOutput(t, `-7 % 3`, "-1")
	expectOutput(t, `0.1 + 0.2`, "0.30000000000000004")
	expectOutput(t, `1 / 0`, "Infinity")
	expectOutput(t, `-1 / 0`, "-Infinity")
	expectOutput(t, `0 / 0`, "NaN")
	expectOutput(t, `"6" * "7"`, "42")
	expectOutput(t, `0xff + 0b11`, "258")
	expectOutput(t, `1e21`, "1e+21")
}

func TestPlusOperator(t *testing.T) {
	expectOutput(t, `"a" + 1`, "a1")
	expectOutput(t, `"n: " + null`, "n: null")
	expectOutput(t, `"t" + true`, "ttrue")
	expectOutput(t, `console.log(1 + "a")`, "undefined")
	expectOutput(t, `console.log(true + 1)`, "undefined")
	expectOutput(t, `console.log(null + null)`, "undefined")
}

func TestStringEscapes(t *testing.T) {
	expectOutput(t, `console.log("a\tb")`, "a\tb")
	expectOutput(t, `console.log('it\'s')`, "it's")
	expectOutput(t, `console.log("\u0041\x42")`, "AB")
}

func TestEquality(t *testing.T) {
	expectOutput(t, `1 == "1"`, "true")
	expectOutput(t, `1 === "1"`, "false")
	expectOutput(t, `null == undefined`, "true")
	expectOutput(t, `null === undefined`, "false")
	expectOutput(t, `NaN == NaN`, "false")
	expectOutput(t, `var o = {}; o == o`, "true")
	expectOutput(t, `var a = {}; var b = {}; a == b`, "false")
	expectOutput(t, `true == 1`, "true")
	expectOutput(t, `"a" != "b"`, "true")
}

func TestComparison(t *testing.T) {
	expectOutput(t, `"abc" < "abd"`, "true")
	expectOutput(t, `"10" < "9"`, "true")
	expectOutput(t, `10 < 9`, "false")
	expectOutput(t, `"10" < 9`, "false")
	expectOutput(t, `NaN < 1`, "false")
	expectOutput(t, `undefined >= 0`, "false")
	expectOutput(t, `null >= 0`, "true")
}

func TestLogical(t *testing.T) {
	expectOutput(t, `0 || "x"`, "x")
	expectOutput(t, `"a" && "b"`, "b")
	expectOutput(t, `null && missing()`, "null")
	expectOutput(t, `1 || missing()`, "1")
	expectOutput(t, `!""`, "true")
	expectOutput(t, `!!{}`, "true")
}

func TestBitwise(t *testing.T) {
	expectOutput(t, `5 & 3`, "1")
	expectOutput(t, `5 | 3`, "7")
	expectOutput(t, `5 ^ 3`, "6")
	expectOutput(t, `~5`, "-6")
	expectOutput(t, `1 << 4`, "16")
	expectOutput(t, `1 << 33`, "2")
	expectOutput(t, `-16 >> 2`, "-4")
	expectOutput(t, `-1 >>> 0`, "4294967295")
	expectOutput(t, `4294967296 | 0`, "0")
}

func TestTypeof(t *testing.T) {
	tests := []struct{ expr, want string }{
		{`typeof 1`, "number"},
		{`typeof "s"`, "string"},
		{`typeof true`, "boolean"},
		{`typeof undefined`, "undefined"},
		{`typeof null`, "object"},
		{`typeof {}`, "object"},
		{`typeof []`, "object"},
		{`typeof function() {}`, "function"},
		{`typeof console.log`, "function"},
		{`typeof notDeclared`, "undefined"},
	}
	for _, tt := range tests {
		expectOutput(t, tt.expr, tt.want)
	}
}

func TestDeclarations(t *testing.T) {
	expectOutput(t, `
var x = 10
let y = x + 1
const z = y * 2
console.log(x, y, z)
`, "10 11 22\n")
	expectOutput(t, `var a, b = 2; console.log(a, b)`, "undefined 2\n")
	expectOutput(t, `var a = 1; var a = 2; a`, "2")
}

func TestCompoundAssign(t *testing.T) {
	expectOutput(t, `var x = 5; x += 3; x -= 1; x *= 2; x /= 7; x`, "2")
	expectOutput(t, `var x = 7; x %= 4; x`, "3")
	expectOutput(t, `var s = "a"; s += "b"; s`, "ab")
	expectOutput(t, `var o = {n: 1}; o.n += 4; o["n"] *= 2; o.n`, "10")
}

func TestUpdate(t *testing.T) {
	expectOutput(t, `var i = 1; var a = i++; var b = ++i; console.log(a, b, i)`, "1 3 3\n")
	expectOutput(t, `var i = 5; i--; --i; i`, "3")
	expectOutput(t, `var arr = [1]; arr[0]++; arr[0]`, "2")
	expectOutput(t, `var s = "4"; s++; s`, "5")
}

func TestAssignmentIsExpression(t *testing.T) {
	expectOutput(t, `var a; var b; a = b = 3; console.log(a, b)`, "3 3\n")
	expectOutput(t, `var x = 1; (x = 5)`, "5")
}

func TestIfElse(t *testing.T) {
	expectOutput(t, `
var x = 3
if (x > 5) {
  console.log("big")
} else if (x > 1) {
  console.log("medium")
} else {
  console.log("small")
}
`, "medium\n")
	expectOutput(t, `if (0) console.log("no"); else console.log("yes")`, "yes\n")
	expectOutput(t, `if ("") console.log("no")`, "")
}

func TestTernary(t *testing.T) {
	expectOutput(t, `var n = 4; n % 2 == 0 ? "even" : "odd"`, "even")
	expectOutput(t, `1 ? 2 ? "a" : "b" : "c"`, "a")
}

func TestWhileLoop(t *testing.T) {
	expectOutput(t, `
var i = 0
var sum = 0
while (i < 5) {
  sum = sum + i
  i = i + 1
}
sum
`, "10")
}

func TestBreakContinue(t *testing.T) {
	expectOutput(t, `
var i = 0
var sum = 0
while (i < 10) {
  i++
  if (i % 2 == 0) continue
  sum += i
}
sum
`, "25")
	expectOutput(t, `
var i = 0
while (true) {
  if (i == 3) {
    break
  }
  i = i + 1
}
i
`, "3")
}

func TestForLoop(t *testing.T) {
	expectOutput(t, `var out = ""; for (var i = 0; i < 3; i++) { out += i; } out`, "012")
	expectOutput(t, `
var total = 0
for (var i = 0; i < 10; i++) {
  if (i == 2) continue
  if (i == 5) break
  total += i
}
total
`, "8")
	expectOutput(t, `var n = 0; for (;;) { n++; if (n > 4) break; } n`, "5")
	expectOutput(t, `var k = 0; for (k = 10; k > 7; k--); k`, "7")
}

func TestNestedLoops(t *testing.T) {
	expectOutput(t, `
var pairs = 0
for (var a = 0; a < 3; a++) {
  for (var b = 0; b < 3; b++) {
    if (b > a) break
    pairs++
  }
}
pairs
`, "6")
}

func TestFunctions(t *testing.T) {
	expectOutput(t, `
function fib(n) {
  if (n < 2) return n
  return fib(n - 1) + fib(n - 2)
}
fib(15)
`, "610")
	expectOutput(t, `var sq = function(x) { return x * x; }; sq(5)`, "25")
	expectOutput(t, `function f(a, b) { return typeof b; } f(1)`, "undefined")
	expectOutput(t, `function f(a) { return a; } f(1, 2, 3)`, "1")
	expectOutput(t, `function f() {} console.log(f())`, "undefined\n")
	expectOutput(t, `function f() { return; } console.log(f())`, "undefined\n")
}

func TestReturnFromLoop(t *testing.T) {
	expectOutput(t, `
function find(arr, x) {
  for (var i = 0; i < arr.length; i++) {
    while (true) {
      if (arr[i] == x) return i
      break
    }
  }
  return -1
}
console.log(find([4, 5, 6], 6), find([1], 9))
`, "2 -1\n")
}

func TestHigherOrder(t *testing.T) {
	expectOutput(t, `
function apply(fn, v) { return fn(v); }
apply(function(n) { return n + 1; }, 41)
`, "42")
	expectOutput(t, `var ops = {double: function(n) { return n * 2; }}; ops["double"](21)`, "42")
}

func TestThis(t *testing.T) {
	expectOutput(t, `var o = {n: 2, get: function() { return this.n; }}; o.get()`, "2")
	expectOutput(t, `function g() { return this.marker; } var marker = 7; g()`, "7")
	expectOutput(t, `var o = {v: 1, f: function() { if (true) { return this.v; } }}; o.f()`, "1")
}

func TestObjectsAndArrays(t *testing.T) {
	expectOutput(t, `var o = {a: 1, "b c": 2}; o.a + o["b c"]`, "3")
	expectOutput(t, `var a = [1, 2, 3]; a.length`, "3")
	expectOutput(t, `var a = [1, 2, 3]; a[5] = 1; a.length`, "6")
	expectOutput(t, `var a = [1, 2, 3]; a.length = 1; a`, "[ 1 ]")
	expectOutput(t, `var o = {}; o.x = 1; o.y = {z: 2}; o.y.z = 3; o`, "{ x: 1, y: { z: 3 } }")
	expectOutput(t, `var a = []; a[a.length] = "p"; a[a.length] = "q"; a`, "[ 'p', 'q' ]")
	expectOutput(t, `var o = {}; o[1 + 1] = "two"; o["2"]`, "two")
}

func TestSharedObjects(t *testing.T) {
	expectOutput(t, `
var a = {n: 1}
var b = a
b.n = 2
function bump(o) { o.n++; }
bump(a)
a.n
`, "3")
}

func TestMemberOnPrimitive(t *testing.T) {
	expectOutput(t, `console.log("abc".length)`, "undefined\n")
	expectOutput(t, `var n = 1; n.x = 2; console.log(n.x)`, "undefined\n")
	expectOutput(t, `console.log(undefined.x)`, "undefined\n")
}

func TestInspectResult(t *testing.T) {
	expectOutput(t, `({a: 1, b: "x", c: [1, 2]})`, "{ a: 1, b: 'x', c: [ 1, 2 ] }")
	expectOutput(t, `[]`, "[]")
	expectOutput(t, `({})`, "{}")
	expectOutput(t, `console.log`, "[Function: log]")
	expectOutput(t, `(function() {})`, "[Function (anonymous)]")
	expectOutput(t, `var o = {}; o.self = o; o`, "{ self: [Circular] }")
	expectOutput(t, `null`, "null")
	expectOutput(t, `undefined`, "")
}

func TestScoping(t *testing.T) {
	expectOutput(t, `{ var x = 1; } x`, "1")
	expectOutput(t, `{ var x = 1; } typeof x`, "undefined", WithDeclarationMirroring(false))

	source := `
var x = 1
function f() {
  var x = 2
  x = 3
  return x
}
console.log(f(), x)
`
	expectOutput(t, source, "3 2\n")
	expectOutput(t, source, "3 1\n", WithDeclarationMirroring(false))

	expectOutput(t, `var n = 0; function inc() { n = n + 1; } inc(); inc(); n`, "2")
	expectOutput(t, `function f(p) { return p; } f(1); typeof p`, "undefined")
}

func TestRunResult(t *testing.T) {
	interp := NewInterpreter(&bytes.Buffer{})

	v, err := interp.Run(mustParse(t, `1; var x = 2;`))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !StrictEquals(v, NumberVal(1)) {
		t.Errorf("result = %v, want 1", v)
	}

	v, err = interp.Run(mustParse(t, `var y = 3`))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := v.(UndefinedVal); !ok {
		t.Errorf("result = %v, want undefined", v)
	}

	// state persists across runs
	v, err = interp.Run(mustParse(t, `x + y`))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !StrictEquals(v, NumberVal(5)) {
		t.Errorf("result = %v, want 5", v)
	}
}

func TestGlobals(t *testing.T) {
	interp := NewInterpreter(&bytes.Buffer{})
	if _, err := interp.Run(mustParse(t, `var x = 1;`)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := interp.GetGlobal("x"); !StrictEquals(got, NumberVal(1)) {
		t.Errorf("GetGlobal(x) = %v, want 1", got)
	}

	interp.SetGlobal("answer", NumberVal(41))
	v, err := interp.Run(mustParse(t, `answer + 1`))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !StrictEquals(v, NumberVal(42)) {
		t.Errorf("answer + 1 = %v, want 42", v)
	}
	if _, ok := interp.GetGlobal("nothing").(UndefinedVal); !ok {
		t.Errorf("GetGlobal(nothing) should be undefined")
	}
}

func TestScopeRestoredAfterCall(t *testing.T) {
	interp := NewInterpreter(&bytes.Buffer{})
	before := interp.CurrentScope()
	_, err := interp.Run(mustParse(t, `function f() { var inner = 1; { var deeper = 2; } return inner; } f()`))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if interp.CurrentScope() != before || interp.ScopeDepth() != 1 {
		t.Errorf("scope stack not restored: depth %d", interp.ScopeDepth())
	}

	// an error deep inside calls leaves the stack intact as well
	_, err = interp.Run(mustParse(t, `function g() { { missing(); } } g()`))
	if !IsKind(err, KindBadName) {
		t.Fatalf("expected BadName, got %v", err)
	}
	if interp.CurrentScope() != before || interp.ScopeDepth() != 1 {
		t.Errorf("scope stack not restored after error: depth %d", interp.ScopeDepth())
	}
}

func TestHostInitializer(t *testing.T) {
	add := func(global *ObjectVal, _ *Host) {
		defineFunc(global, "add", 2, func(_ Value, args []Value) (Value, error) {
			return NumberVal(ToNumber(args[0]) + ToNumber(args[1])), nil
		})
	}
	expectOutput(t, `add(2, 3)`, "5", WithInitializer(add))
	expectError(t, `add(2)`, "Arity: add expects at least 2 argument(s), got 1", WithInitializer(add))
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   ErrorKind
		msg    string
	}{
		{"unbound call", `missing()`, KindBadName, "BadName: missing is not defined"},
		{"call number", `var x = 1; x()`, KindNotCallable, "NotCallable: x is not a function"},
		{"call missing method", `var o = {}; o.f()`, KindNotCallable, "o.f is not a function"},
		{"call undefined", `undefined()`, KindNotCallable, "is not a function"},
		{"host arity", `Object.keys()`, KindArity, "Object.keys"},
		{"top-level return", `return 1`, KindUnsupportedForm, "return outside of function"},
		{"top-level break", `break`, KindUnsupportedForm, "break outside of loop"},
		{"break in function", `function f() { break; } f()`, KindUnsupportedForm, "break outside of loop in f"},
		{"json syntax", `JSON.parse("{")`, KindJSONSyntax, "JsonSyntax"},
		{"json cycle", `var o = {}; o.o = o; JSON.stringify(o)`, KindJSONCycle, "circular"},
		{"call non-function", `Function.call(1)`, KindNotCallable, "value is not a function"},
		{"recursion", `function r() { return r(); } r()`, KindInterrupted, "maximum call depth"},
		{"array length", `Array(-1)`, KindHost, "invalid array length -1"},
		{"huge index write", `var a = []; a[4000000000] = 1; JSON.stringify(a)`, KindHost, "array index 4000000000 is past the maximum length"},
		{"huge length write", `var a = [1]; a.length = 4000000000; a`, KindHost, "invalid array length 4000000000"},
		{"huge index update", `var a = []; a[16777216]++`, KindHost, "past the maximum length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runSource(tt.source)
			if err == nil {
				t.Fatalf("expected %s error, got nil", tt.kind)
			}
			if !IsKind(err, tt.kind) {
				t.Errorf("expected kind %s, got: %v", tt.kind, err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("expected error containing %q, got: %v", tt.msg, err)
			}
		})
	}
}

func TestErrorPosition(t *testing.T) {
	expectError(t, "var a = 1\n  missing()", "at 2:3")
	expectError(t, "Object.values()", "at 1:1")
}

func TestErrorStopsProgram(t *testing.T) {
	out, err := runSource(`console.log("before"); missing(); console.log("after")`)
	if !IsKind(err, KindBadName) {
		t.Fatalf("expected BadName, got %v", err)
	}
	if out != "before\n" {
		t.Errorf("output = %q, want only the first line", out)
	}
}

func TestStrictDivision(t *testing.T) {
	expectOutput(t, `1 / 0`, "Infinity")
	expectError(t, `1 / 0`, "DivisionByZero: 1 / 0", WithStrictDivision(true))
	expectError(t, `var x = 5; x %= 0`, "DivisionByZero", WithStrictDivision(true))
	expectOutput(t, `6 / 3`, "2", WithStrictDivision(true))
}

func TestLoopLimit(t *testing.T) {
	expectError(t, `while (true) {}`, "Interrupted: loop exceeded 100 iterations", WithLoopLimit(100))
	expectError(t, `for (;;) {}`, "Interrupted", WithLoopLimit(10))
	expectOutput(t, `var i = 0; while (i < 100) i++; i`, "100", WithLoopLimit(100))
}

func TestStepBudget(t *testing.T) {
	expectError(t, `var i = 0; while (i < 1000) { i++; }`, "Interrupted: step budget of 50 statements exhausted", WithStepBudget(50))
	expectOutput(t, `var i = 0; while (i < 3) { i++; } i`, "3", WithStepBudget(50))
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	interp := NewInterpreter(&bytes.Buffer{})
	_, err := interp.RunContext(ctx, mustParse(t, `while (true) {}`))
	if !IsKind(err, KindInterrupted) {
		t.Fatalf("expected Interrupted, got %v", err)
	}

	// the interpreter is usable again afterwards
	v, err := interp.Run(mustParse(t, `1 + 1`))
	if err != nil || !StrictEquals(v, NumberVal(2)) {
		t.Errorf("run after cancel = %v, %v", v, err)
	}
}

func TestDeterminism(t *testing.T) {
	source := `
var acc = []
for (var i = 0; i < 5; i++) { acc[i] = i * i; }
JSON.stringify({acc: acc, s: "x" + acc.length})
`
	first, err := runSource(source)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for range 3 {
		again, err := runSource(source)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if again != first {
			t.Fatalf("non-deterministic output: %q vs %q", first, again)
		}
	}
}

func TestArrayLengthBound(t *testing.T) {
	expectOutput(t, `var a = []; a[16777215] = 1; a.length`, "16777216")
	expectOutput(t, `var a = [1, 2]; a.length = 16777216; a.length = 1; a`, "[ 1 ]")
	expectOutput(t, `var o = {}; o[4000000000] = 1; Object.keys(o)`, "[ '4000000000' ]")

	expectError(t, `var a = [7]; a[4294967294] = 1`, "at 1:14")
}
