package llvm

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"

	"bu/internal/ast"
	"bu/internal/diag"
	"bu/internal/types"
)

func (fe *funcEmitter) binary(e *ast.Binary) value.Value {
	lt, rt := e.LHS.Type(), e.RHS.Type()
	diag.Assert(lt == rt, diag.PhaseLower, "operands of %s have types %v and %v", e.Op, lt, rt)

	switch e.Op {
	case ast.OpEq, ast.OpNe:
		diag.Assert(lt.IsInteger() || lt == types.Bool || lt.IsStruct(), diag.PhaseLower,
			"equality on %v", lt)
	case ast.OpAnd, ast.OpOr, ast.OpXor:
		diag.Assert(lt.IsInteger() || lt == types.Bool, diag.PhaseLower,
			"bitwise %s on %v", e.Op, lt)
	default:
		diag.Assert(lt.IsInteger(), diag.PhaseLower, "arithmetic %s on %v", e.Op, lt)
	}

	x := fe.value(e.LHS)
	y := fe.value(e.RHS)
	b := fe.open()
	signed := lt.IsSigned()

	switch e.Op {
	case ast.OpAdd:
		return b.NewAdd(x, y)
	case ast.OpSub:
		return b.NewSub(x, y)
	case ast.OpMul:
		return b.NewMul(x, y)
	case ast.OpDiv:
		if signed {
			return b.NewSDiv(x, y)
		}
		return b.NewUDiv(x, y)
	case ast.OpRem:
		if signed {
			return b.NewSRem(x, y)
		}
		return b.NewURem(x, y)
	case ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		return b.NewICmp(orderedPred(e.Op, signed), x, y)
	case ast.OpEq:
		return fe.equal(x, y, lt)
	case ast.OpNe:
		return fe.open().NewXor(fe.equal(x, y, lt), constant.True)
	case ast.OpAnd:
		return b.NewAnd(x, y)
	case ast.OpOr:
		return b.NewOr(x, y)
	case ast.OpXor:
		return b.NewXor(x, y)
	default:
		diag.Bail(diag.PhaseLower, "unknown binary operator %d", e.Op)
		return nil
	}
}

func orderedPred(op ast.BinaryOp, signed bool) enum.IPred {
	switch op {
	case ast.OpLt:
		return pick(signed, enum.IPredSLT, enum.IPredULT)
	case ast.OpGt:
		return pick(signed, enum.IPredSGT, enum.IPredUGT)
	case ast.OpLe:
		return pick(signed, enum.IPredSLE, enum.IPredULE)
	default:
		return pick(signed, enum.IPredSGE, enum.IPredUGE)
	}
}

func pick(signed bool, s, u enum.IPred) enum.IPred {
	if signed {
		return s
	}
	return u
}

// equal compares two values of type t. Structs compare field by field and
// the results are and-reduced; a struct without fields is always equal.
func (fe *funcEmitter) equal(x, y value.Value, t types.Type) value.Value {
	if !t.IsStruct() {
		return fe.open().NewICmp(enum.IPredEQ, x, y)
	}
	sl := fe.sess.layouts.Layout(t.Name)
	var acc value.Value = constant.True
	for i, f := range sl.Fields {
		idx, err := safecast.Conv[uint64](i)
		if err != nil {
			panic(fmt.Errorf("field index overflow: %w", err))
		}
		xf := fe.open().NewExtractValue(x, idx)
		yf := fe.open().NewExtractValue(y, idx)
		eq := fe.equal(xf, yf, f.Type)
		if i == 0 {
			acc = eq
			continue
		}
		acc = fe.open().NewAnd(acc, eq)
	}
	return acc
}
