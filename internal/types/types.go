// Package types describes the resolved types the code generator consumes.
package types

import (
	"fmt"
	"unicode"
)

// Kind enumerates the supported kinds of types.
type Kind uint8

const (
	KindNone Kind = iota // no value (void result)
	KindBool
	KindInt  // signed integer, see Width
	KindUint // unsigned integer, see Width
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindStruct:
		return "struct"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers.
type Width uint8

const (
	WidthAny Width = 0 // pointer-sized (Usize)
	Width32  Width = 32
	Width64  Width = 64
)

// Type is a compact, comparable descriptor of a resolved type.
type Type struct {
	Kind  Kind
	Width Width  // for integers
	Name  string // for structs
}

var (
	None  = Type{Kind: KindNone}
	Bool  = Type{Kind: KindBool}
	I32   = Type{Kind: KindInt, Width: Width32}
	I64   = Type{Kind: KindInt, Width: Width64}
	U32   = Type{Kind: KindUint, Width: Width32}
	U64   = Type{Kind: KindUint, Width: Width64}
	Usize = Type{Kind: KindUint, Width: WidthAny}
)

// Struct returns the type of the named struct.
func Struct(name string) Type {
	return Type{Kind: KindStruct, Name: name}
}

func (t Type) IsNone() bool   { return t.Kind == KindNone }
func (t Type) IsStruct() bool { return t.Kind == KindStruct }

// IsInteger reports whether t belongs to the integer family.
func (t Type) IsInteger() bool {
	return t.Kind == KindInt || t.Kind == KindUint
}

// IsSigned reports whether t is a signed integer.
func (t Type) IsSigned() bool { return t.Kind == KindInt }

// String returns the source spelling of the type.
func (t Type) String() string {
	switch t.Kind {
	case KindNone:
		return "None"
	case KindBool:
		return "Bool"
	case KindInt:
		if t.Width == Width32 {
			return "I32"
		}
		return "I64"
	case KindUint:
		switch t.Width {
		case Width32:
			return "U32"
		case Width64:
			return "U64"
		default:
			return "Usize"
		}
	case KindStruct:
		return t.Name
	default:
		return t.Kind.String()
	}
}

var primitives = map[string]Type{
	"None":  None,
	"Bool":  Bool,
	"I32":   I32,
	"I64":   I64,
	"U32":   U32,
	"U64":   U64,
	"Usize": Usize,
}

// Parse converts a source spelling back to a Type. Identifiers that are not
// primitive names denote structs. The empty string is None.
func Parse(s string) (Type, error) {
	if s == "" {
		return None, nil
	}
	if t, ok := primitives[s]; ok {
		return t, nil
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return None, fmt.Errorf("invalid type name %q", s)
	}
	return Struct(s), nil
}
