package diag

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// Phase names the stage that detected an internal error.
type Phase string

const (
	PhaseLayout  Phase = "layout"
	PhaseSymbols Phase = "symbols"
	PhaseScope   Phase = "scope"
	PhaseLower   Phase = "lower"
	PhaseVerify  Phase = "verify"
)

// InternalError reports a violated compiler invariant.
type InternalError struct {
	Phase Phase
	Func  string // function being lowered, if any
	Msg   string
	Dump  string // in-progress module text, attached at the recovery boundary
}

func (e *InternalError) Error() string {
	var sb strings.Builder
	sb.WriteString("internal compiler error")
	if e.Phase != "" {
		sb.WriteString(" [")
		sb.WriteString(string(e.Phase))
		sb.WriteString("]")
	}
	if e.Func != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Func)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	return sb.String()
}

// Bail panics with an *InternalError.
func Bail(phase Phase, format string, args ...any) {
	panic(&InternalError{Phase: phase, Msg: fmt.Sprintf(format, args...)})
}

// Assert bails when cond is false.
func Assert(cond bool, phase Phase, format string, args ...any) {
	if !cond {
		Bail(phase, format, args...)
	}
}

// FromPanic returns r when it already is an *InternalError and otherwise
// wraps the panic value together with the current goroutine stack. Call it
// from the deferred function that recovered r so the stack still shows the
// panicking frames.
func FromPanic(phase Phase, r any) *InternalError {
	if ie, ok := r.(*InternalError); ok {
		return ie
	}
	return &InternalError{
		Phase: phase,
		Msg:   fmt.Sprintf("panic: %v\n%s", r, debug.Stack()),
	}
}

// Recover converts a panic into an *InternalError stored in *errp. Foreign
// panic values (runtime errors, library panics) are wrapped by FromPanic. It
// must be called directly by a deferred function.
//
//	defer diag.Recover(&err, func(ie *diag.InternalError) { ie.Dump = m.String() })
func Recover(errp *error, annotate func(*InternalError)) {
	r := recover()
	if r == nil {
		return
	}
	ie := FromPanic("", r)
	if annotate != nil {
		annotate(ie)
	}
	*errp = ie
}

// AsInternal reports whether err wraps an *InternalError.
func AsInternal(err error) (*InternalError, bool) {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
