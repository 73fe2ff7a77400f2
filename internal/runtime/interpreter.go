package runtime

import (
	"context"
	"io"
	"math/rand/v2"
	"tinyjs/internal/ast"
	"tinyjs/internal/span"

	"fortio.org/log"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone     ExecSignal = iota
	SigReturn              // return from function
	SigBreak               // break from loop
	SigContinue            // continue in loop
)

// ExecResult carries a control flow signal and an optional value: the return
// value for SigReturn, the expression value for an expression statement.
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Options
// ============================================================

const defaultMaxCallDepth = 1000

type options struct {
	loopLimit      int
	stepBudget     int
	strictDivision bool
	mirror         bool
	maxCallDepth   int
	rand           *rand.Rand
	initializers   []Initializer
}

// Option configures an Interpreter.
type Option func(*options)

// WithLoopLimit caps the iterations of every single while or for loop.
// Zero means unlimited.
func WithLoopLimit(n int) Option {
	return func(o *options) { o.loopLimit = n }
}

// WithStepBudget caps the number of statements one Run may execute.
// Zero means unlimited.
func WithStepBudget(n int) Option {
	return func(o *options) { o.stepBudget = n }
}

// WithStrictDivision makes / and % by zero fail with DivisionByZero instead
// of producing Infinity or NaN.
func WithStrictDivision(on bool) Option {
	return func(o *options) { o.strictDivision = on }
}

// WithDeclarationMirroring controls whether declarations in inner frames are
// also written to the global object. It is on by default.
func WithDeclarationMirroring(on bool) Option {
	return func(o *options) { o.mirror = on }
}

// WithMaxCallDepth bounds nested user function calls.
func WithMaxCallDepth(n int) Option {
	return func(o *options) { o.maxCallDepth = n }
}

// WithRand sets the source used by Math.random.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rand = r }
}

// WithInitializer installs an extra global after the built-ins.
func WithInitializer(init Initializer) Option {
	return func(o *options) { o.initializers = append(o.initializers, init) }
}

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks the AST and executes it. It is not safe for concurrent use.
type Interpreter struct {
	global *ObjectVal
	scopes []*Scope
	output io.Writer
	host   *Host
	opts   options

	ctx   context.Context
	steps int // statements left in the current run's budget
	depth int // nested user function calls
	trace bool
}

// NewInterpreter creates an interpreter whose global object holds the built-ins.
func NewInterpreter(output io.Writer, opts ...Option) *Interpreter {
	o := options{mirror: true, maxCallDepth: defaultMaxCallDepth}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	global := NewObject()
	interp := &Interpreter{
		global: global,
		scopes: []*Scope{{This: global, Vars: global, function: true}},
		output: output,
		opts:   o,
		ctx:    context.Background(),
	}
	interp.host = &Host{Out: output, Rand: o.rand, Call: interp.Call}
	for _, init := range DefaultInitializers {
		init(global, interp.host)
	}
	for _, init := range o.initializers {
		init(global, interp.host)
	}
	return interp
}

// SetGlobal stores a property on the global object and returns it.
func (i *Interpreter) SetGlobal(name string, v Value) Value {
	return i.global.Set(name, v)
}

// GetGlobal reads a property of the global object, Undefined when absent.
func (i *Interpreter) GetGlobal(name string) Value {
	return i.global.GetField(name)
}

// Global returns the global object.
func (i *Interpreter) Global() *ObjectVal {
	return i.global
}

// Run executes a program and returns the value of its last top-level
// expression statement, or Undefined when there is none.
func (i *Interpreter) Run(prog *ast.Program) (Value, error) {
	return i.RunContext(context.Background(), prog)
}

// RunContext is Run with cancellation: once ctx is done, the next statement
// fails with an Interrupted error.
func (i *Interpreter) RunContext(ctx context.Context, prog *ast.Program) (Value, error) {
	i.ctx = ctx
	i.steps = i.opts.stepBudget
	i.trace = log.LogVerbose()
	defer func() {
		i.ctx = context.Background()
		i.scopes = i.scopes[:1]
		i.depth = 0
	}()

	var last Value = Undefined
	for _, stmt := range prog.Body {
		result, err := i.execStmt(stmt)
		if err != nil {
			return Undefined, err
		}
		switch result.Signal {
		case SigReturn:
			return Undefined, newError(KindUnsupportedForm, stmt.GetSpan(), "return outside of function")
		case SigBreak:
			return Undefined, newError(KindUnsupportedForm, stmt.GetSpan(), "break outside of loop")
		case SigContinue:
			return Undefined, newError(KindUnsupportedForm, stmt.GetSpan(), "continue outside of loop")
		}
		if _, ok := stmt.(*ast.ExprStmt); ok {
			last = result.Value
		}
	}
	return last, nil
}

// tick charges one statement against the step budget and checks for cancellation.
func (i *Interpreter) tick(node ast.Node) error {
	select {
	case <-i.ctx.Done():
		return newError(KindInterrupted, node.GetSpan(), "evaluation cancelled (%v)", i.ctx.Err())
	default:
	}
	if i.opts.stepBudget > 0 {
		if i.steps <= 0 {
			return newError(KindInterrupted, node.GetSpan(), "step budget of %d statements exhausted", i.opts.stepBudget)
		}
		i.steps--
	}
	return nil
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (ExecResult, error) {
	if err := i.tick(stmt); err != nil {
		return resultNone, err
	}
	if i.trace {
		log.LogVf("exec %T at %s", stmt, stmt.GetSpan().Start)
	}

	switch s := stmt.(type) {
	case *ast.ExprStmt:
		v, err := i.evalExpr(s.Expr)
		if err != nil {
			return resultNone, err
		}
		return ExecResult{Signal: SigNone, Value: v}, nil

	case *ast.VarDeclStmt:
		for _, d := range s.Declarators {
			var val Value = Undefined
			if d.Init != nil {
				v, err := i.evalExpr(d.Init)
				if err != nil {
					return resultNone, err
				}
				val = v
			}
			i.declare(d.Name, val)
		}
		return resultNone, nil

	case *ast.FuncDecl:
		i.declare(s.Name, i.makeFunction(s.Name, s.Params, s.Body))
		return resultNone, nil

	case *ast.ReturnStmt:
		var val Value = Undefined
		if s.Value != nil {
			v, err := i.evalExpr(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.BreakStmt:
		return ExecResult{Signal: SigBreak}, nil

	case *ast.ContinueStmt:
		return ExecResult{Signal: SigContinue}, nil

	case *ast.BlockStmt:
		i.pushBlock()
		defer i.DestroyScope()
		return i.execStmts(s.Stmts)

	case *ast.IfStmt:
		return i.execIf(s)

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.ForStmt:
		return i.execFor(s)

	case *ast.EmptyStmt:
		return resultNone, nil

	default:
		return resultNone, newError(KindUnsupportedForm, stmt.GetSpan(), "statement %T", stmt)
	}
}

// execStmts runs statements in the current frame until one signals.
func (i *Interpreter) execStmts(stmts []ast.Stmt) (ExecResult, error) {
	for _, stmt := range stmts {
		result, err := i.execStmt(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execIf(s *ast.IfStmt) (ExecResult, error) {
	cond, err := i.evalExpr(s.Condition)
	if err != nil {
		return resultNone, err
	}
	if ToBoolean(cond) {
		return i.execStmt(s.Then)
	}
	if s.Else != nil {
		return i.execStmt(s.Else)
	}
	return resultNone, nil
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	for n := 0; ; n++ {
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !ToBoolean(cond) {
			return resultNone, nil
		}
		if err := i.checkLoop(n, s.Span); err != nil {
			return resultNone, err
		}

		result, err := i.execStmt(s.Body)
		if err != nil {
			return resultNone, err
		}
		switch result.Signal {
		case SigBreak:
			return resultNone, nil
		case SigReturn:
			return result, nil
		}
	}
}

func (i *Interpreter) execFor(s *ast.ForStmt) (ExecResult, error) {
	i.pushBlock()
	defer i.DestroyScope()

	if s.Init != nil {
		if _, err := i.execStmt(s.Init); err != nil {
			return resultNone, err
		}
	}

	for n := 0; ; n++ {
		if s.Condition != nil {
			cond, err := i.evalExpr(s.Condition)
			if err != nil {
				return resultNone, err
			}
			if !ToBoolean(cond) {
				return resultNone, nil
			}
		}
		if err := i.checkLoop(n, s.Span); err != nil {
			return resultNone, err
		}

		result, err := i.execStmt(s.Body)
		if err != nil {
			return resultNone, err
		}
		switch result.Signal {
		case SigBreak:
			return resultNone, nil
		case SigReturn:
			return result, nil
		}

		if s.Update != nil {
			if _, err := i.evalExpr(s.Update); err != nil {
				return resultNone, err
			}
		}
	}
}

// checkLoop fails once a loop is about to start iteration number limit+1.
func (i *Interpreter) checkLoop(n int, at span.Span) error {
	if i.opts.loopLimit > 0 && n >= i.opts.loopLimit {
		return newError(KindInterrupted, at, "loop exceeded %d iterations", i.opts.loopLimit)
	}
	return nil
}

// ============================================================
// Function calls
// ============================================================

func (i *Interpreter) makeFunction(name string, params []string, body []ast.Stmt) *ObjectVal {
	return NewFunction(&FuncVal{Name: name, Params: params, Body: body})
}

// Call invokes a function value with the given receiver and arguments.
func (i *Interpreter) Call(fn, this Value, args []Value) (Value, error) {
	desc := "value"
	if obj, ok := fn.(*ObjectVal); ok && obj.IsCallable() {
		desc = functionName(obj.Fn)
	}
	return i.callValue(fn, this, args, span.Span{}, desc)
}

func (i *Interpreter) callValue(callee, this Value, args []Value, at span.Span, desc string) (Value, error) {
	obj, ok := callee.(*ObjectVal)
	if !ok || obj.Fn == nil {
		return Undefined, newError(KindNotCallable, at, "%s is not a function", desc)
	}
	f := obj.Fn
	if !f.IsHost() {
		return i.callUser(f, this, args, at)
	}

	if len(args) < f.MinArgs {
		return Undefined, newError(KindArity, at, "%s expects at least %d argument(s), got %d", desc, f.MinArgs, len(args))
	}
	v, err := f.Host(this, args)
	if err != nil {
		return Undefined, asEvaluatorError(err, at)
	}
	if v == nil {
		v = Undefined
	}
	return v, nil
}

// callUser runs a user function in a fresh frame. The pending return signal
// is consumed here and nowhere else.
func (i *Interpreter) callUser(f *FuncVal, this Value, args []Value, at span.Span) (Value, error) {
	if i.depth >= i.opts.maxCallDepth {
		return Undefined, newError(KindInterrupted, at, "maximum call depth of %d exceeded", i.opts.maxCallDepth)
	}
	i.depth++
	defer func() { i.depth-- }()
	if i.trace {
		log.LogVf("call %s with %d args (depth %d)", functionName(f), len(args), i.depth)
	}

	scope := i.MakeScope(this)
	defer i.DestroyScope()
	for k, param := range f.Params {
		var v Value = Undefined
		if k < len(args) {
			v = args[k]
		}
		scope.Vars.Set(param, v)
	}

	result, err := i.execStmts(f.Body)
	if err != nil {
		return Undefined, err
	}
	switch result.Signal {
	case SigReturn:
		return result.Value, nil
	case SigBreak:
		return Undefined, newError(KindUnsupportedForm, at, "break outside of loop in %s", functionName(f))
	case SigContinue:
		return Undefined, newError(KindUnsupportedForm, at, "continue outside of loop in %s", functionName(f))
	}
	return Undefined, nil
}

func functionName(f *FuncVal) string {
	if f.Name == "" {
		return "(anonymous)"
	}
	return f.Name
}
