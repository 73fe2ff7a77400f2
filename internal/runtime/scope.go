package runtime

import (
	"fortio.org/log"
)

// Scope is one frame of the scope stack. Vars is an ordinary object so that
// variable lookup and property lookup are the same operation.
type Scope struct {
	This Value
	Vars *ObjectVal

	// function frames (and the global frame) stop name lookup; block frames
	// let it continue to the enclosing frame.
	function bool
}

// MakeScope pushes a function frame with the given receiver and returns it.
func (i *Interpreter) MakeScope(this Value) *Scope {
	return i.pushScope(this, true)
}

// DestroyScope pops the top frame. The global frame is never popped.
func (i *Interpreter) DestroyScope() *Scope {
	if len(i.scopes) <= 1 {
		return i.scopes[0]
	}
	top := i.scopes[len(i.scopes)-1]
	i.scopes[len(i.scopes)-1] = nil
	i.scopes = i.scopes[:len(i.scopes)-1]
	if i.trace {
		log.LogVf("scope pop (depth %d)", len(i.scopes))
	}
	return top
}

// CurrentScope returns the top frame.
func (i *Interpreter) CurrentScope() *Scope {
	return i.scopes[len(i.scopes)-1]
}

// ScopeDepth returns the number of frames, the global frame included.
func (i *Interpreter) ScopeDepth() int {
	return len(i.scopes)
}

func (i *Interpreter) pushScope(this Value, function bool) *Scope {
	s := &Scope{This: this, Vars: NewObject(), function: function}
	i.scopes = append(i.scopes, s)
	if i.trace {
		log.LogVf("scope push (depth %d, function=%v)", len(i.scopes), function)
	}
	return s
}

// pushBlock pushes a block frame that inherits the current receiver.
func (i *Interpreter) pushBlock() *Scope {
	return i.pushScope(i.CurrentScope().This, false)
}

// lookup resolves name from the top frame down to the innermost function
// frame, then falls back to the global object.
func (i *Interpreter) lookup(name string) (Value, bool) {
	for k := len(i.scopes) - 1; k > 0; k-- {
		s := i.scopes[k]
		if v, ok := s.Vars.Get(name); ok {
			return v, true
		}
		if s.function {
			break
		}
	}
	return i.global.Get(name)
}

// declare binds name in the top frame and, when mirroring is on, in the
// global object as well.
func (i *Interpreter) declare(name string, v Value) {
	top := i.CurrentScope().Vars
	top.Set(name, v)
	if i.opts.mirror && top != i.global {
		i.global.Set(name, v)
	}
}

// assign updates the nearest visible binding of name, creating a global
// binding when there is none.
func (i *Interpreter) assign(name string, v Value) {
	for k := len(i.scopes) - 1; k > 0; k-- {
		s := i.scopes[k]
		if s.Vars.Has(name) {
			s.Vars.Set(name, v)
			return
		}
		if s.function {
			break
		}
	}
	i.global.Set(name, v)
}
