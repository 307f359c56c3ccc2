package llvm

import (
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"bu/internal/ast"
	"bu/internal/diag"
	"bu/internal/types"
)

type accessMode uint8

const (
	valueMode accessMode = iota
	locationMode
)

// accessStep is one link of a member chain: a field name or a method call.
type accessStep struct {
	field  *ast.Name
	method *ast.Call
}

// flattenChain turns a.b.c() into its base expression and the steps in
// evaluation order, walking the left spine with an explicit stack so chain
// depth never turns into recursion depth.
func flattenChain(e *ast.Dot) (ast.Expr, []accessStep) {
	var stack []accessStep
	var cur ast.Expr = e
	for {
		d, ok := cur.(*ast.Dot)
		if !ok {
			break
		}
		switch m := d.Member.(type) {
		case *ast.Name:
			stack = append(stack, accessStep{field: m})
		case *ast.Call:
			stack = append(stack, accessStep{method: m})
		default:
			diag.Bail(diag.PhaseLower, "member of kind %T", d.Member)
		}
		cur = d.X
	}
	steps := make([]accessStep, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		steps = append(steps, stack[i])
	}
	return cur, steps
}

// member lowers a chain of field accesses and method calls. Field steps
// walk addresses; a method step loads its receiver by value and, if more
// steps follow, spills the result so the chain continues from an address.
func (fe *funcEmitter) member(e *ast.Dot, mode accessMode) value.Value {
	base, steps := flattenChain(e)

	addr := fe.location(base)
	typ := base.Type()
	var result value.Value // set when the last step was a method call

	for _, st := range steps {
		diag.Assert(typ.IsStruct(), diag.PhaseLower, "member access on %v", typ)
		if result != nil {
			addr = fe.spill(result, typ)
			result = nil
		}
		if st.field != nil {
			sl := fe.sess.layouts.Layout(typ.Name)
			idx := sl.FieldIndex(st.field.Ident)
			addr = fe.fieldAddr(typ, addr, idx)
			typ = sl.Field(idx).Type
			continue
		}

		recv := fe.load(typ, addr)
		result = fe.methodCall(typ.Name, recv, st.method)
		typ = st.method.Typ
	}

	if result != nil {
		if mode == locationMode {
			diag.Assert(!typ.IsNone(), diag.PhaseLower, "address of a value-less method result")
			return fe.spill(result, typ)
		}
		return result
	}
	if mode == locationMode {
		return addr
	}
	return fe.load(typ, addr)
}

// fieldAddr computes the address of field idx of the struct at addr.
func (fe *funcEmitter) fieldAddr(t types.Type, addr value.Value, idx int) value.Value {
	st := fe.sess.structType(t.Name)
	return fe.open().NewGetElementPtr(st, addr,
		constant.NewInt(lltypes.I32, 0),
		constant.NewInt(lltypes.I32, int64(idx)))
}

// structLit fills a temporary with the supplied fields in source order and
// returns its address.
func (fe *funcEmitter) structLit(e *ast.StructLit) value.Value {
	t := e.Type()
	sl := fe.sess.layouts.Layout(e.Struct)
	tmp := fe.alloca(t, "lit."+e.Struct)
	for _, f := range e.Fields {
		idx := sl.FieldIndex(f.Name)
		ft := sl.Field(idx).Type
		diag.Assert(f.Value.Type() == ft, diag.PhaseLower,
			"field %s.%s initialized with %v", e.Struct, f.Name, f.Value.Type())
		v := fe.value(f.Value)
		fe.open().NewStore(v, fe.fieldAddr(t, tmp.ptr, idx))
	}
	return tmp.ptr
}
