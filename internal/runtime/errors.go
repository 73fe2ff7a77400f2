package runtime

import (
	"errors"
	"fmt"
	"tinyjs/internal/span"
)

// ErrorKind classifies an EvaluatorError.
type ErrorKind string

const (
	KindUnsupportedForm ErrorKind = "UnsupportedForm"
	KindBadName         ErrorKind = "BadName"
	KindDivisionByZero  ErrorKind = "DivisionByZero"
	KindJSONCycle       ErrorKind = "JsonCycle"
	KindJSONSyntax      ErrorKind = "JsonSyntax"
	KindInterrupted     ErrorKind = "Interrupted"
	KindNotCallable     ErrorKind = "NotCallable"
	KindArity           ErrorKind = "Arity"
	KindHost            ErrorKind = "HostError"
)

// EvaluatorError is the only error type the evaluator returns.
type EvaluatorError struct {
	Kind   ErrorKind
	Detail string
	Span   span.Span // zero when raised inside a host function
}

// Error renders "<Kind>: <detail>", followed by the source position when known.
func (e *EvaluatorError) Error() string {
	msg := string(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Span.Start.IsValid() {
		msg += " at " + e.Span.Start.String()
	}
	return msg
}

func newError(kind ErrorKind, s span.Span, format string, args ...interface{}) *EvaluatorError {
	return &EvaluatorError{Kind: kind, Detail: fmt.Sprintf(format, args...), Span: s}
}

// Errorf builds an EvaluatorError without a position, for use by host functions.
func Errorf(kind ErrorKind, format string, args ...interface{}) *EvaluatorError {
	return newError(kind, span.Span{}, format, args...)
}

// IsKind reports whether err is, or wraps, an EvaluatorError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ee *EvaluatorError
	return errors.As(err, &ee) && ee.Kind == kind
}

// asEvaluatorError wraps foreign host errors and fills in a missing position.
func asEvaluatorError(err error, s span.Span) *EvaluatorError {
	var ee *EvaluatorError
	if !errors.As(err, &ee) {
		return &EvaluatorError{Kind: KindHost, Detail: err.Error(), Span: s}
	}
	if !ee.Span.Start.IsValid() {
		cp := *ee
		cp.Span = s
		return &cp
	}
	return ee
}
