package llvm

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"

	"bu/internal/ast"
	"bu/internal/diag"
	"bu/internal/types"
)

// Expressions lower in one of two modes. Value mode (funcEmitter) yields a
// loaded value; location mode (locator) yields the address of the storage
// the expression denotes, spilling pure values into a temporary first.

var (
	_ ast.ExprVisitor[value.Value] = (*funcEmitter)(nil)
	_ ast.ExprVisitor[value.Value] = locator{}
)

func (fe *funcEmitter) value(e ast.Expr) value.Value {
	return ast.WalkExpr[value.Value](fe, e)
}

func (fe *funcEmitter) location(e ast.Expr) value.Value {
	return ast.WalkExpr[value.Value](locator{fe}, e)
}

func (fe *funcEmitter) VisitLiteral(e *ast.Literal) value.Value {
	return fe.sess.literal(e)
}

func (fe *funcEmitter) VisitName(e *ast.Name) value.Value {
	sl := fe.scopes.Resolve(e.Ident)
	return fe.open().NewLoad(sl.elem, sl.ptr)
}

func (fe *funcEmitter) VisitBinary(e *ast.Binary) value.Value {
	return fe.binary(e)
}

func (fe *funcEmitter) VisitUnary(e *ast.Unary) value.Value {
	x := fe.value(e.X)
	switch e.Op {
	case ast.OpNeg:
		diag.Assert(e.X.Type().IsInteger(), diag.PhaseLower, "negate of %v", e.X.Type())
		return fe.open().NewSub(constant.NewInt(fe.sess.intType(e.X.Type()), 0), x)
	case ast.OpNot:
		diag.Assert(e.X.Type() == types.Bool, diag.PhaseLower, "logical not of %v", e.X.Type())
		return fe.open().NewXor(x, constant.True)
	default:
		diag.Bail(diag.PhaseLower, "unknown unary operator %d", e.Op)
		return nil
	}
}

// VisitAssign stores into a name or a field and yields the stored value.
func (fe *funcEmitter) VisitAssign(e *ast.Assign) value.Value {
	switch t := e.Target.(type) {
	case *ast.Name:
	case *ast.Dot:
		_, isField := t.Member.(*ast.Name)
		diag.Assert(isField, diag.PhaseLower, "assignment to a method call result")
	default:
		diag.Bail(diag.PhaseLower, "assignment to non-location %T", e.Target)
	}
	diag.Assert(e.Target.Type() == e.Value.Type(), diag.PhaseLower,
		"assignment of %v to %v", e.Value.Type(), e.Target.Type())
	addr := fe.location(e.Target)
	v := fe.value(e.Value)
	fe.open().NewStore(v, addr)
	return v
}

func (fe *funcEmitter) VisitDot(e *ast.Dot) value.Value {
	return fe.member(e, valueMode)
}

func (fe *funcEmitter) VisitCall(e *ast.Call) value.Value {
	return fe.call(e)
}

func (fe *funcEmitter) VisitStructLit(e *ast.StructLit) value.Value {
	return fe.load(e.Type(), fe.structLit(e))
}

// locator lowers expressions in location mode.
type locator struct{ fe *funcEmitter }

func (l locator) VisitName(e *ast.Name) value.Value {
	return l.fe.scopes.Resolve(e.Ident).ptr
}

func (l locator) VisitDot(e *ast.Dot) value.Value {
	return l.fe.member(e, locationMode)
}

func (l locator) VisitStructLit(e *ast.StructLit) value.Value {
	return l.fe.structLit(e)
}

func (l locator) VisitLiteral(e *ast.Literal) value.Value { return l.materialize(e) }
func (l locator) VisitBinary(e *ast.Binary) value.Value   { return l.materialize(e) }
func (l locator) VisitUnary(e *ast.Unary) value.Value     { return l.materialize(e) }
func (l locator) VisitAssign(e *ast.Assign) value.Value   { return l.materialize(e) }
func (l locator) VisitCall(e *ast.Call) value.Value       { return l.materialize(e) }

func (l locator) materialize(e ast.Expr) value.Value {
	diag.Assert(!e.Type().IsNone(), diag.PhaseLower, "address of a value-less %T", e)
	return l.fe.spill(l.fe.value(e), e.Type())
}
