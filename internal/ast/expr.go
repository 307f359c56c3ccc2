package ast

import "bu/internal/types"

// Expr is the closed set of expression nodes. Every node carries the type
// the checker resolved for it.
type Expr interface {
	Position() Pos
	Type() types.Type
	exprNode()
}

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpDiv
	OpRem
	OpLt
	OpGt
	OpLe
	OpGe
	OpEq
	OpNe
	OpAnd
	OpOr
	OpXor
)

var binaryOpText = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpRem: "%",
	OpLt: "<", OpGt: ">", OpLe: "<=", OpGe: ">=", OpEq: "==", OpNe: "!=",
	OpAnd: "&", OpOr: "|", OpXor: "^",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpText) && binaryOpText[op] != "" {
		return binaryOpText[op]
	}
	return "?"
}

// IsComparison reports whether op yields a Bool.
func (op BinaryOp) IsComparison() bool {
	return op >= OpLt && op <= OpNe
}

// ParseBinaryOp maps operator text to its BinaryOp.
func ParseBinaryOp(s string) (BinaryOp, bool) {
	for op, text := range binaryOpText {
		if text != "" && text == s {
			return BinaryOp(op), true
		}
	}
	return 0, false
}

// UnaryOp enumerates prefix operators.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota + 1 // -x on integers
	OpNot                    // !x on Bool
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	default:
		return "?"
	}
}

type (
	// Literal is a primitive constant spelled as source text, e.g. "42" or "true".
	Literal struct {
		Text string
		Typ  types.Type
		Pos  Pos
	}

	// Name references a local variable or parameter.
	Name struct {
		Ident string
		Typ   types.Type
		Pos   Pos
	}

	Binary struct {
		Op  BinaryOp
		LHS Expr
		RHS Expr
		Typ types.Type
		Pos Pos
	}

	Unary struct {
		Op  UnaryOp
		X   Expr
		Typ types.Type
		Pos Pos
	}

	// Assign stores Value into the location denoted by Target and yields it.
	Assign struct {
		Target Expr
		Value  Expr
		Typ    types.Type
		Pos    Pos
	}

	// Dot is member access. Member is a *Name for a field or a *Call for a
	// method of the struct X evaluates to.
	Dot struct {
		X      Expr
		Member Expr
		Typ    types.Type
		Pos    Pos
	}

	// Call invokes a function or extern by name. As the Member of a Dot it
	// names a method of the receiver's struct.
	Call struct {
		Callee string
		Args   []Expr
		Typ    types.Type
		Pos    Pos
	}

	// FieldInit is one `name: value` entry of a struct literal.
	FieldInit struct {
		Name  string
		Value Expr
	}

	StructLit struct {
		Struct string
		Fields []FieldInit // source order
		Pos    Pos
	}
)

func (e *Literal) Position() Pos   { return e.Pos }
func (e *Name) Position() Pos      { return e.Pos }
func (e *Binary) Position() Pos    { return e.Pos }
func (e *Unary) Position() Pos     { return e.Pos }
func (e *Assign) Position() Pos    { return e.Pos }
func (e *Dot) Position() Pos       { return e.Pos }
func (e *Call) Position() Pos      { return e.Pos }
func (e *StructLit) Position() Pos { return e.Pos }

func (e *Literal) Type() types.Type   { return e.Typ }
func (e *Name) Type() types.Type      { return e.Typ }
func (e *Binary) Type() types.Type    { return e.Typ }
func (e *Unary) Type() types.Type     { return e.Typ }
func (e *Assign) Type() types.Type    { return e.Typ }
func (e *Dot) Type() types.Type       { return e.Typ }
func (e *Call) Type() types.Type      { return e.Typ }
func (e *StructLit) Type() types.Type { return types.Struct(e.Struct) }

func (*Literal) exprNode()   {}
func (*Name) exprNode()      {}
func (*Binary) exprNode()    {}
func (*Unary) exprNode()     {}
func (*Assign) exprNode()    {}
func (*Dot) exprNode()       {}
func (*Call) exprNode()      {}
func (*StructLit) exprNode() {}
