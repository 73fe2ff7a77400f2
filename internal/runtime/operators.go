package runtime

import (
	"math"
	"tinyjs/internal/span"
	"tinyjs/internal/token"
)

// binaryOp applies a non-short-circuit binary operator to evaluated operands.
func (i *Interpreter) binaryOp(op token.Kind, left, right Value, at span.Span) (Value, error) {
	switch op {
	case token.PLUS:
		return addValues(left, right), nil
	case token.MINUS:
		return NumberVal(ToNumber(left) - ToNumber(right)), nil
	case token.STAR:
		return NumberVal(ToNumber(left) * ToNumber(right)), nil
	case token.SLASH, token.PERCENT:
		a, b := ToNumber(left), ToNumber(right)
		if b == 0 && i.opts.strictDivision {
			return Undefined, newError(KindDivisionByZero, at, "%s %s 0", NumberToString(a), op)
		}
		if op == token.SLASH {
			return NumberVal(a / b), nil
		}
		return NumberVal(math.Mod(a, b)), nil

	case token.EQ:
		return BoolVal(LooseEquals(left, right)), nil
	case token.NEQ:
		return BoolVal(!LooseEquals(left, right)), nil
	case token.STRICT_EQ:
		return BoolVal(StrictEquals(left, right)), nil
	case token.STRICT_NEQ:
		return BoolVal(!StrictEquals(left, right)), nil
	case token.LT, token.LTE, token.GT, token.GTE:
		return BoolVal(compareValues(op, left, right)), nil

	case token.AMP:
		return NumberVal(ToInt32(left) & ToInt32(right)), nil
	case token.PIPE:
		return NumberVal(ToInt32(left) | ToInt32(right)), nil
	case token.CARET:
		return NumberVal(ToInt32(left) ^ ToInt32(right)), nil
	case token.SHL:
		return NumberVal(ToInt32(left) << (ToUint32(right) & 31)), nil
	case token.SHR:
		return NumberVal(ToInt32(left) >> (ToUint32(right) & 31)), nil
	case token.USHR:
		return NumberVal(ToUint32(left) >> (ToUint32(right) & 31)), nil
	}
	return Undefined, newError(KindUnsupportedForm, at, "operator %s", op)
}

// addValues implements +. Two numbers add and a string on the left
// concatenates the string form of the right; every other mix is undefined.
func addValues(left, right Value) Value {
	if a, ok := left.(NumberVal); ok {
		if b, ok := right.(NumberVal); ok {
			return a + b
		}
	}
	if s, ok := left.(StringVal); ok {
		return s + StringVal(ToString(right))
	}
	return Undefined
}

// compareValues orders two strings lexicographically and everything else by
// number. Any comparison involving NaN is false.
func compareValues(op token.Kind, left, right Value) bool {
	if ls, ok := left.(StringVal); ok {
		if rs, ok := right.(StringVal); ok {
			switch op {
			case token.LT:
				return ls < rs
			case token.LTE:
				return ls <= rs
			case token.GT:
				return ls > rs
			default:
				return ls >= rs
			}
		}
	}
	a, b := ToNumber(left), ToNumber(right)
	switch op {
	case token.LT:
		return a < b
	case token.LTE:
		return a <= b
	case token.GT:
		return a > b
	default:
		return a >= b
	}
}

// compoundOp maps a compound assignment to its binary operator.
func compoundOp(op token.Kind) token.Kind {
	switch op {
	case token.PLUS_ASSIGN:
		return token.PLUS
	case token.MINUS_ASSIGN:
		return token.MINUS
	case token.STAR_ASSIGN:
		return token.STAR
	case token.SLASH_ASSIGN:
		return token.SLASH
	case token.PERCENT_ASSIGN:
		return token.PERCENT
	}
	return op
}
