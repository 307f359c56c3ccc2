// Package ast holds the type-checked program handed to the code generator.
//
// The tree is produced by the type checker: every expression carries its
// resolved type and every name it mentions is known to exist. The code
// generator never reports user errors against it; any inconsistency it finds
// is an internal compiler error.
package ast

import "bu/internal/types"

// ReceiverName is the implicit first parameter of every method.
const ReceiverName = "this"

// Pos is a 1-based source position. The zero value means unknown.
type Pos struct {
	Line int
	Col  int
}

// Program is one type-checked compilation unit.
type Program struct {
	Path      string // source path, used to name the artifacts
	Structs   []*Struct
	Functions []*Function
	Externs   []*Extern
}

// Field is a named struct member.
type Field struct {
	Name string
	Type types.Type
}

// Struct declares an aggregate and the methods bound to it.
type Struct struct {
	Name    string
	Fields  []Field
	Methods []*Function
	Pos     Pos
}

// Param is a named, typed function parameter.
type Param struct {
	Name string
	Type types.Type
}

// Function is a free function or, when listed in Struct.Methods, a method.
// Method parameter lists do not include the receiver.
type Function struct {
	Name   string
	Params []Param
	Result types.Type // types.None when the function yields no value
	Body   *Block
	Pos    Pos
}

// Extern declares a function implemented outside the program.
type Extern struct {
	Name   string
	Params []Param
	Result types.Type
	Pos    Pos
}

// Struct returns the struct declaration with the given name.
func (p *Program) Struct(name string) (*Struct, bool) {
	for _, s := range p.Structs {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}
