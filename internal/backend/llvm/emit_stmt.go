package llvm

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"

	"bu/internal/ast"
	"bu/internal/diag"
	"bu/internal/types"
)

// flow is the exit state a lowered statement leaves the insertion block in.
type flow uint8

const (
	flowOpen   flow = iota // control may fall through
	flowClosed             // the block ended in a terminator
)

var _ ast.StmtVisitor[flow] = (*funcEmitter)(nil)

func (fe *funcEmitter) lowerStmt(s ast.Stmt) flow {
	return ast.WalkStmt[flow](fe, s)
}

// lowerBlock lowers statements in order inside a fresh scope. Statements
// after one that closes the block are unreachable and skipped.
func (fe *funcEmitter) lowerBlock(b *ast.Block) flow {
	fe.scopes.Enter()
	defer fe.scopes.Leave()
	for _, st := range b.Stmts {
		if fe.lowerStmt(st) == flowClosed {
			return flowClosed
		}
	}
	return flowOpen
}

func (fe *funcEmitter) VisitBlock(b *ast.Block) flow {
	return fe.lowerBlock(b)
}

func (fe *funcEmitter) VisitVarDecl(s *ast.VarDecl) flow {
	diag.Assert(s.Init.Type() == s.Type, diag.PhaseLower,
		"initializer of %s has type %v, want %v", s.Name, s.Init.Type(), s.Type)
	sl := fe.alloca(s.Type, s.Name)
	v := fe.value(s.Init)
	fe.open().NewStore(v, sl.ptr)
	// bound after the initializer, which still sees any outer binding
	fe.scopes.Bind(s.Name, sl)
	return flowOpen
}

// condition lowers a Bool expression and compares it against false.
func (fe *funcEmitter) condition(e ast.Expr) value.Value {
	diag.Assert(e.Type() == types.Bool, diag.PhaseLower, "condition of type %v", e.Type())
	v := fe.value(e)
	return fe.open().NewICmp(enum.IPredNE, v, constant.False)
}

// VisitIf creates the continuation block only when a branch falls through,
// or when there is no else branch to receive the false edge.
func (fe *funcEmitter) VisitIf(s *ast.If) flow {
	cond := fe.condition(s.Cond)
	thenBB := fe.newBlock("if.then")

	if s.Else == nil {
		endBB := fe.newBlock("if.end")
		fe.open().NewCondBr(cond, thenBB, endBB)
		fe.cur = thenBB
		if fe.lowerBlock(s.Then) == flowOpen {
			fe.cur.NewBr(endBB)
		}
		fe.cur = endBB
		return flowOpen
	}

	elseBB := fe.newBlock("if.else")
	fe.open().NewCondBr(cond, thenBB, elseBB)

	fe.cur = thenBB
	thenFlow := fe.lowerBlock(s.Then)
	thenEnd := fe.cur

	fe.cur = elseBB
	elseFlow := fe.lowerBlock(s.Else)
	elseEnd := fe.cur

	if thenFlow == flowClosed && elseFlow == flowClosed {
		return flowClosed
	}
	endBB := fe.newBlock("if.end")
	if thenFlow == flowOpen {
		thenEnd.NewBr(endBB)
	}
	if elseFlow == flowOpen {
		elseEnd.NewBr(endBB)
	}
	fe.cur = endBB
	return flowOpen
}

func (fe *funcEmitter) VisitWhile(s *ast.While) flow {
	condBB := fe.newBlock("while.cond")
	bodyBB := fe.newBlock("while.body")
	afterBB := fe.newBlock("while.end")

	fe.open().NewBr(condBB)
	fe.cur = condBB
	cond := fe.condition(s.Cond)
	fe.open().NewCondBr(cond, bodyBB, afterBB)

	fe.loops = append(fe.loops, loopTargets{brk: afterBB, cont: condBB})
	fe.cur = bodyBB
	if fe.lowerBlock(s.Body) == flowOpen {
		fe.cur.NewBr(condBB)
	}
	fe.loops = fe.loops[:len(fe.loops)-1]

	// reachable at least through the false edge of the condition
	fe.cur = afterBB
	return flowOpen
}

func (fe *funcEmitter) VisitReturn(s *ast.Return) flow {
	if s.Value == nil {
		diag.Assert(!fe.sig.HasResult(), diag.PhaseLower, "bare return in %s", fe.sig)
		fe.open().NewRet(nil)
		return flowClosed
	}
	diag.Assert(fe.sig.HasResult(), diag.PhaseLower, "return with value in %s", fe.sig)
	diag.Assert(s.Value.Type() == fe.sig.Result, diag.PhaseLower,
		"return of %v from %s", s.Value.Type(), fe.sig)
	v := fe.value(s.Value)
	fe.open().NewRet(v)
	return flowClosed
}

func (fe *funcEmitter) VisitExprStmt(s *ast.ExprStmt) flow {
	fe.value(s.X)
	return flowOpen
}

func (fe *funcEmitter) innermostLoop(what string) loopTargets {
	if len(fe.loops) == 0 {
		diag.Bail(diag.PhaseLower, "%s outside of a loop", what)
	}
	return fe.loops[len(fe.loops)-1]
}

// VisitBreak leaves the innermost loop. Scopes are compile-time only, so
// no cleanup is emitted; the enclosing lowerBlock calls pop them.
func (fe *funcEmitter) VisitBreak(*ast.Break) flow {
	fe.open().NewBr(fe.innermostLoop("break").brk)
	return flowClosed
}

func (fe *funcEmitter) VisitContinue(*ast.Continue) flow {
	fe.open().NewBr(fe.innermostLoop("continue").cont)
	return flowClosed
}
