package ast

import "fmt"

// StmtVisitor handles every statement kind. Implementations are checked by
// the compiler, so a new node kind cannot be silently ignored by a lowerer.
type StmtVisitor[R any] interface {
	VisitBlock(*Block) R
	VisitVarDecl(*VarDecl) R
	VisitIf(*If) R
	VisitWhile(*While) R
	VisitReturn(*Return) R
	VisitExprStmt(*ExprStmt) R
	VisitBreak(*Break) R
	VisitContinue(*Continue) R
}

// ExprVisitor handles every expression kind.
type ExprVisitor[R any] interface {
	VisitLiteral(*Literal) R
	VisitName(*Name) R
	VisitBinary(*Binary) R
	VisitUnary(*Unary) R
	VisitAssign(*Assign) R
	VisitDot(*Dot) R
	VisitCall(*Call) R
	VisitStructLit(*StructLit) R
}

// WalkStmt dispatches s to the matching visitor method.
func WalkStmt[R any](v StmtVisitor[R], s Stmt) R {
	switch s := s.(type) {
	case *Block:
		return v.VisitBlock(s)
	case *VarDecl:
		return v.VisitVarDecl(s)
	case *If:
		return v.VisitIf(s)
	case *While:
		return v.VisitWhile(s)
	case *Return:
		return v.VisitReturn(s)
	case *ExprStmt:
		return v.VisitExprStmt(s)
	case *Break:
		return v.VisitBreak(s)
	case *Continue:
		return v.VisitContinue(s)
	default:
		panic(fmt.Sprintf("ast: unknown statement %T", s))
	}
}

// WalkExpr dispatches e to the matching visitor method.
func WalkExpr[R any](v ExprVisitor[R], e Expr) R {
	switch e := e.(type) {
	case *Literal:
		return v.VisitLiteral(e)
	case *Name:
		return v.VisitName(e)
	case *Binary:
		return v.VisitBinary(e)
	case *Unary:
		return v.VisitUnary(e)
	case *Assign:
		return v.VisitAssign(e)
	case *Dot:
		return v.VisitDot(e)
	case *Call:
		return v.VisitCall(e)
	case *StructLit:
		return v.VisitStructLit(e)
	default:
		panic(fmt.Sprintf("ast: unknown expression %T", e))
	}
}
