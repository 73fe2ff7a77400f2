package runtime

import (
	"tinyjs/internal/ast"
	"tinyjs/internal/lexer"
	"tinyjs/internal/span"
	"tinyjs/internal/token"
)

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return evalLiteral(e), nil

	case *ast.IdentExpr:
		if v, ok := i.lookup(e.Name); ok {
			return v, nil
		}
		return Undefined, nil

	case *ast.ThisExpr:
		return i.CurrentScope().This, nil

	case *ast.UnaryExpr:
		return i.evalUnary(e)

	case *ast.BinaryExpr:
		return i.evalBinary(e)

	case *ast.UpdateExpr:
		return i.evalUpdate(e)

	case *ast.AssignExpr:
		return i.evalAssign(e)

	case *ast.CallExpr:
		return i.evalCall(e)

	case *ast.MemberExpr:
		obj, err := i.evalExpr(e.Object)
		if err != nil {
			return Undefined, err
		}
		return GetField(obj, e.Property), nil

	case *ast.IndexExpr:
		obj, err := i.evalExpr(e.Object)
		if err != nil {
			return Undefined, err
		}
		idx, err := i.evalExpr(e.Index)
		if err != nil {
			return Undefined, err
		}
		return GetField(obj, ToString(idx)), nil

	case *ast.FuncExpr:
		return i.makeFunction(e.Name, e.Params, e.Body), nil

	case *ast.TernaryExpr:
		cond, err := i.evalExpr(e.Condition)
		if err != nil {
			return Undefined, err
		}
		if ToBoolean(cond) {
			return i.evalExpr(e.Then)
		}
		return i.evalExpr(e.Else)

	case *ast.ArrayLiteral:
		elems := make([]Value, 0, len(e.Elements))
		for _, el := range e.Elements {
			v, err := i.evalExpr(el)
			if err != nil {
				return Undefined, err
			}
			elems = append(elems, v)
		}
		return NewArray(elems...), nil

	case *ast.ObjectLiteral:
		obj := NewObject()
		for k, key := range e.Keys {
			v, err := i.evalExpr(e.Values[k])
			if err != nil {
				return Undefined, err
			}
			obj.Set(key, v)
		}
		return obj, nil

	default:
		return Undefined, newError(KindUnsupportedForm, expr.GetSpan(), "expression %T", expr)
	}
}

func evalLiteral(l *ast.Literal) Value {
	switch l.Kind {
	case ast.LitNumber, ast.LitBinary:
		if f, ok := parseNumericLiteral(l.Raw); ok {
			return NumberVal(f)
		}
		return Undefined
	case ast.LitString:
		return StringVal(lexer.Unquote(l.Raw))
	case ast.LitBool:
		return BoolVal(l.Raw == "true")
	case ast.LitNull:
		return Null
	default:
		// undefined, and regular expressions which have no runtime form
		return Undefined
	}
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	v, err := i.evalExpr(e.Operand)
	if err != nil {
		return Undefined, err
	}
	switch e.Op {
	case token.BANG:
		return BoolVal(!ToBoolean(v)), nil
	case token.MINUS:
		return NumberVal(-ToNumber(v)), nil
	case token.PLUS:
		return NumberVal(ToNumber(v)), nil
	case token.TILDE:
		return NumberVal(^ToInt32(v)), nil
	case token.KW_TYPEOF:
		return StringVal(v.TypeName()), nil
	}
	return Undefined, nil
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return Undefined, err
	}

	// && and || short-circuit and yield an operand, not a boolean
	switch e.Op {
	case token.AND:
		if !ToBoolean(left) {
			return left, nil
		}
		return i.evalExpr(e.Right)
	case token.OR:
		if ToBoolean(left) {
			return left, nil
		}
		return i.evalExpr(e.Right)
	}

	right, err := i.evalExpr(e.Right)
	if err != nil {
		return Undefined, err
	}
	return i.binaryOp(e.Op, left, right, e.Span)
}

// ============================================================
// Assignment targets
// ============================================================

// reference is a resolved assignment target: either a variable name or a
// property of an already evaluated object.
type reference struct {
	name   string
	obj    Value
	key    string
	member bool
}

func (i *Interpreter) resolveRef(target ast.Expr) (reference, error) {
	switch t := target.(type) {
	case *ast.IdentExpr:
		return reference{name: t.Name}, nil
	case *ast.MemberExpr:
		obj, err := i.evalExpr(t.Object)
		if err != nil {
			return reference{}, err
		}
		return reference{obj: obj, key: t.Property, member: true}, nil
	case *ast.IndexExpr:
		obj, err := i.evalExpr(t.Object)
		if err != nil {
			return reference{}, err
		}
		idx, err := i.evalExpr(t.Index)
		if err != nil {
			return reference{}, err
		}
		return reference{obj: obj, key: ToString(idx), member: true}, nil
	}
	return reference{}, newError(KindUnsupportedForm, target.GetSpan(), "invalid assignment target")
}

func (r reference) get(i *Interpreter) Value {
	if r.member {
		return GetField(r.obj, r.key)
	}
	if v, ok := i.lookup(r.name); ok {
		return v
	}
	return Undefined
}

func (r reference) set(i *Interpreter, v Value, at span.Span) error {
	if r.member {
		if o, ok := r.obj.(*ObjectVal); ok {
			if err := o.CheckWrite(r.key, v); err != nil {
				return asEvaluatorError(err, at)
			}
		}
		SetField(r.obj, r.key, v)
		return nil
	}
	i.assign(r.name, v)
	return nil
}

func (i *Interpreter) evalAssign(e *ast.AssignExpr) (Value, error) {
	ref, err := i.resolveRef(e.Target)
	if err != nil {
		return Undefined, err
	}

	var val Value
	if e.Op == token.ASSIGN {
		val, err = i.evalExpr(e.Value)
		if err != nil {
			return Undefined, err
		}
	} else {
		old := ref.get(i)
		rhs, err := i.evalExpr(e.Value)
		if err != nil {
			return Undefined, err
		}
		val, err = i.binaryOp(compoundOp(e.Op), old, rhs, e.Span)
		if err != nil {
			return Undefined, err
		}
	}

	if err := ref.set(i, val, e.Span); err != nil {
		return Undefined, err
	}
	return val, nil
}

func (i *Interpreter) evalUpdate(e *ast.UpdateExpr) (Value, error) {
	ref, err := i.resolveRef(e.Target)
	if err != nil {
		return Undefined, err
	}
	old := ToNumber(ref.get(i))
	updated := old + 1
	if e.Op == token.DEC {
		updated = old - 1
	}
	if err := ref.set(i, NumberVal(updated), e.Span); err != nil {
		return Undefined, err
	}
	if e.Prefix {
		return NumberVal(updated), nil
	}
	return NumberVal(old), nil
}

// ============================================================
// Calls
// ============================================================

// evalCall resolves the callee and its receiver: method calls bind the
// object the method was read from, plain calls bind the global object.
func (i *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	var callee Value
	var this Value = i.global

	switch c := e.Callee.(type) {
	case *ast.IdentExpr:
		v, ok := i.lookup(c.Name)
		if !ok {
			return Undefined, newError(KindBadName, c.Span, "%s is not defined", c.Name)
		}
		callee = v
	case *ast.MemberExpr:
		obj, err := i.evalExpr(c.Object)
		if err != nil {
			return Undefined, err
		}
		callee, this = GetField(obj, c.Property), obj
	case *ast.IndexExpr:
		obj, err := i.evalExpr(c.Object)
		if err != nil {
			return Undefined, err
		}
		idx, err := i.evalExpr(c.Index)
		if err != nil {
			return Undefined, err
		}
		callee, this = GetField(obj, ToString(idx)), obj
	default:
		v, err := i.evalExpr(e.Callee)
		if err != nil {
			return Undefined, err
		}
		callee = v
	}

	desc := describeCallee(e.Callee)
	if fn, ok := callee.(*ObjectVal); !ok || !fn.IsCallable() {
		return Undefined, newError(KindNotCallable, e.Span, "%s is not a function", desc)
	}

	args := make([]Value, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := i.evalExpr(a)
		if err != nil {
			return Undefined, err
		}
		args = append(args, v)
	}
	return i.callValue(callee, this, args, e.Span, desc)
}

// describeCallee renders a callee expression for error messages.
func describeCallee(e ast.Expr) string {
	switch c := e.(type) {
	case *ast.IdentExpr:
		return c.Name
	case *ast.ThisExpr:
		return "this"
	case *ast.MemberExpr:
		return describeCallee(c.Object) + "." + c.Property
	case *ast.IndexExpr:
		return describeCallee(c.Object) + "[...]"
	case *ast.CallExpr:
		return describeCallee(c.Callee) + "(...)"
	}
	return "expression"
}
