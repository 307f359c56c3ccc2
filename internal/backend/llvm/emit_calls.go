package llvm

import (
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"bu/internal/ast"
	"bu/internal/diag"
	"bu/internal/symbols"
)

// voidResult stands in for the value of a call that returns nothing. The
// checker never lets it be used, so it is never dereferenced.
var voidResult = constant.NewInt(lltypes.I32, 0)

func (fe *funcEmitter) call(e *ast.Call) value.Value {
	sig := fe.sess.syms.Lookup(e.Callee)
	diag.Assert(sig.Kind != symbols.KindMethod, diag.PhaseLower, "free call of method %s", sig)
	return fe.emitCall(sig, nil, e)
}

// methodCall passes recv as the implicit first argument.
func (fe *funcEmitter) methodCall(owner string, recv value.Value, e *ast.Call) value.Value {
	sig := fe.sess.syms.LookupMethod(owner, e.Callee)
	return fe.emitCall(sig, []value.Value{recv}, e)
}

// emitCall lowers the explicit arguments as values in declaration order
// after any implicit leading arguments.
func (fe *funcEmitter) emitCall(sig *symbols.Signature, args []value.Value, e *ast.Call) value.Value {
	implicit := len(args)
	diag.Assert(implicit+len(e.Args) == len(sig.Params), diag.PhaseLower,
		"%s called with %d arguments", sig, implicit+len(e.Args))
	diag.Assert(e.Typ == sig.Result, diag.PhaseLower, "call of %s typed %v", sig, e.Typ)

	for i, a := range e.Args {
		want := sig.Params[implicit+i]
		diag.Assert(a.Type() == want, diag.PhaseLower,
			"argument %d of %s has type %v, want %v", i, sig, a.Type(), want)
		args = append(args, fe.value(a))
	}

	callee := fe.sess.function(sig)
	inst := fe.open().NewCall(callee, args...)
	if !sig.HasResult() {
		return voidResult
	}
	return inst
}
