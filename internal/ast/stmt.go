package ast

import "bu/internal/types"

// Stmt is the closed set of statement nodes.
type Stmt interface {
	Position() Pos
	stmtNode()
}

type (
	// Block is a braced statement list with its own scope.
	Block struct {
		Stmts []Stmt
		Pos   Pos
	}

	// VarDecl introduces a local: `let name: Type = Init;`.
	VarDecl struct {
		Name string
		Type types.Type
		Init Expr
		Pos  Pos
	}

	// If has an optional Else branch (nil when absent).
	If struct {
		Cond Expr
		Then *Block
		Else *Block
		Pos  Pos
	}

	While struct {
		Cond Expr
		Body *Block
		Pos  Pos
	}

	// Return carries an optional value (nil for a bare return).
	Return struct {
		Value Expr
		Pos   Pos
	}

	ExprStmt struct {
		X   Expr
		Pos Pos
	}

	Break struct {
		Pos Pos
	}

	Continue struct {
		Pos Pos
	}
)

func (s *Block) Position() Pos    { return s.Pos }
func (s *VarDecl) Position() Pos  { return s.Pos }
func (s *If) Position() Pos       { return s.Pos }
func (s *While) Position() Pos    { return s.Pos }
func (s *Return) Position() Pos   { return s.Pos }
func (s *ExprStmt) Position() Pos { return s.Pos }
func (s *Break) Position() Pos    { return s.Pos }
func (s *Continue) Position() Pos { return s.Pos }

func (*Block) stmtNode()    {}
func (*VarDecl) stmtNode()  {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*Return) stmtNode()   {}
func (*ExprStmt) stmtNode() {}
func (*Break) stmtNode()    {}
func (*Continue) stmtNode() {}
