package runtime

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strings"
	"unicode/utf16"
)

// Host is the part of the interpreter that built-ins may use.
type Host struct {
	Out  io.Writer
	Rand *rand.Rand
	// Call invokes a function value with a receiver and arguments.
	Call func(fn, this Value, args []Value) (Value, error)
}

// Initializer installs one group of globals.
type Initializer func(global *ObjectVal, host *Host)

// DefaultInitializers populate the global object of every new interpreter,
// in this order.
var DefaultInitializers = []Initializer{
	InitObject,
	InitConsole,
	InitMath,
	InitArray,
	InitFunction,
	InitJSON,
	InitString,
	InitNumbers,
}

func defineFunc(o *ObjectVal, name string, minArgs int, fn HostFunc) {
	o.Set(name, NewHostFunction(name, minArgs, fn))
}

// arg returns the n-th argument, Undefined when missing.
func arg(args []Value, n int) Value {
	if n < len(args) {
		return args[n]
	}
	return Undefined
}

// InitConsole installs console.log.
func InitConsole(global *ObjectVal, host *Host) {
	console := NewObject()
	logLine := func(_ Value, args []Value) (Value, error) {
		parts := make([]string, len(args))
		for k, a := range args {
			parts[k] = ToString(a)
		}
		if _, err := fmt.Fprintln(host.Out, strings.Join(parts, " ")); err != nil {
			return Undefined, err
		}
		return Undefined, nil
	}
	defineFunc(console, "log", 0, logLine)
	defineFunc(console, "info", 0, logLine)
	global.Set("console", console)
}

// InitObject installs Object, Object.keys and Object.values.
func InitObject(global *ObjectVal, _ *Host) {
	object := NewHostFunction("Object", 0, func(_ Value, args []Value) (Value, error) {
		if o, ok := arg(args, 0).(*ObjectVal); ok {
			return o, nil
		}
		return NewObject(), nil
	})
	defineFunc(object, "keys", 1, func(_ Value, args []Value) (Value, error) {
		o, ok := args[0].(*ObjectVal)
		if !ok {
			return NewArray(), nil
		}
		keys := o.EnumerableKeys()
		out := make([]Value, len(keys))
		for k, key := range keys {
			out[k] = StringVal(key)
		}
		return NewArray(out...), nil
	})
	defineFunc(object, "values", 1, func(_ Value, args []Value) (Value, error) {
		o, ok := args[0].(*ObjectVal)
		if !ok {
			return NewArray(), nil
		}
		keys := o.EnumerableKeys()
		out := make([]Value, len(keys))
		for k, key := range keys {
			out[k] = o.GetField(key)
		}
		return NewArray(out...), nil
	})
	global.Set("Object", object)
}

// InitArray installs Array and Array.isArray.
func InitArray(global *ObjectVal, _ *Host) {
	array := NewHostFunction("Array", 0, func(_ Value, args []Value) (Value, error) {
		if len(args) == 1 {
			if n, ok := args[0].(NumberVal); ok {
				f := float64(n)
				if f < 0 || f != math.Trunc(f) || f > maxArrayLength {
					return Undefined, Errorf(KindHost, "invalid array length %s", NumberToString(f))
				}
				elems := make([]Value, int(f))
				for k := range elems {
					elems[k] = Undefined
				}
				return NewArray(elems...), nil
			}
		}
		return NewArray(args...), nil
	})
	defineFunc(array, "isArray", 0, func(_ Value, args []Value) (Value, error) {
		o, ok := arg(args, 0).(*ObjectVal)
		return BoolVal(ok && o.IsArray()), nil
	})
	global.Set("Array", array)
}

// InitFunction installs Function.call(fn, this, ...args).
func InitFunction(global *ObjectVal, host *Host) {
	function := NewObject()
	defineFunc(function, "call", 1, func(_ Value, args []Value) (Value, error) {
		var rest []Value
		if len(args) > 2 {
			rest = args[2:]
		}
		return host.Call(args[0], arg(args, 1), rest)
	})
	global.Set("Function", function)
}

// InitString installs String and String.fromCharCode.
func InitString(global *ObjectVal, _ *Host) {
	str := NewHostFunction("String", 0, func(_ Value, args []Value) (Value, error) {
		if len(args) == 0 {
			return StringVal(""), nil
		}
		return StringVal(ToString(args[0])), nil
	})
	defineFunc(str, "fromCharCode", 0, func(_ Value, args []Value) (Value, error) {
		units := make([]uint16, len(args))
		for k, a := range args {
			units[k] = uint16(ToUint32(a))
		}
		return StringVal(string(utf16.Decode(units))), nil
	})
	global.Set("String", str)
}

// InitNumbers installs NaN and Infinity.
func InitNumbers(global *ObjectVal, _ *Host) {
	global.Set("NaN", NumberVal(math.NaN()))
	global.Set("Infinity", NumberVal(math.Inf(1)))
}
