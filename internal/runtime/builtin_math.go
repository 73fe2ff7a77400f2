package runtime

import "math"

// InitMath installs the Math namespace.
func InitMath(global *ObjectVal, host *Host) {
	m := NewObject()

	unary := []struct {
		name string
		fn   func(float64) float64
	}{
		{"abs", math.Abs},
		{"floor", math.Floor},
		{"ceil", math.Ceil},
		{"round", roundHalfUp},
		{"trunc", math.Trunc},
		{"sign", sign},
		{"sqrt", math.Sqrt},
		{"log", math.Log},
		{"exp", math.Exp},
		{"sin", math.Sin},
		{"cos", math.Cos},
		{"tan", math.Tan},
	}
	for _, u := range unary {
		fn := u.fn
		defineFunc(m, u.name, 0, func(_ Value, args []Value) (Value, error) {
			return NumberVal(fn(ToNumber(arg(args, 0)))), nil
		})
	}

	defineFunc(m, "pow", 0, func(_ Value, args []Value) (Value, error) {
		return NumberVal(pow(ToNumber(arg(args, 0)), ToNumber(arg(args, 1)))), nil
	})
	defineFunc(m, "atan2", 0, func(_ Value, args []Value) (Value, error) {
		return NumberVal(math.Atan2(ToNumber(arg(args, 0)), ToNumber(arg(args, 1)))), nil
	})
	defineFunc(m, "min", 0, func(_ Value, args []Value) (Value, error) {
		out := math.Inf(1)
		for _, a := range args {
			out = math.Min(out, ToNumber(a))
		}
		return NumberVal(out), nil
	})
	defineFunc(m, "max", 0, func(_ Value, args []Value) (Value, error) {
		out := math.Inf(-1)
		for _, a := range args {
			out = math.Max(out, ToNumber(a))
		}
		return NumberVal(out), nil
	})
	defineFunc(m, "random", 0, func(_ Value, _ []Value) (Value, error) {
		return NumberVal(host.Rand.Float64()), nil
	})

	m.Set("PI", NumberVal(math.Pi))
	m.Set("E", NumberVal(math.E))
	global.Set("Math", m)
}

// roundHalfUp rounds to the nearest integer, ties toward +Infinity.
func roundHalfUp(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	return r
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return x // NaN, 0 and -0
}

// pow differs from math.Pow where the exponent is NaN or a base of ±1 is
// raised to an infinite power: both are NaN here.
func pow(x, y float64) float64 {
	if math.IsNaN(y) || (math.Abs(x) == 1 && math.IsInf(y, 0)) {
		return math.NaN()
	}
	return math.Pow(x, y)
}
