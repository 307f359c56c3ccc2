// Package symbols records the signature of every callable before any body is
// lowered, so calls may reference functions declared later in the program.
package symbols

import (
	"strings"

	"bu/internal/ast"
	"bu/internal/types"
)

// Kind distinguishes the callables a program can reference.
type Kind uint8

const (
	KindFunction Kind = iota + 1
	KindMethod
	KindExtern
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindExtern:
		return "extern"
	default:
		return "unknown"
	}
}

// Signature describes a callable. For methods Params starts with the
// receiver, passed by value.
type Signature struct {
	Kind       Kind
	Name       string // source name
	Owner      string // owning struct for methods
	Symbol     string // backend symbol name
	Params     []types.Type
	ParamNames []string
	Result     types.Type // types.None when nothing is returned
}

// HasResult reports whether the callable yields a value.
func (s *Signature) HasResult() bool { return !s.Result.IsNone() }

// String renders the signature in source syntax.
func (s *Signature) String() string {
	var sb strings.Builder
	if s.Owner != "" {
		sb.WriteString(s.Owner)
		sb.WriteString(".")
	}
	sb.WriteString(s.Name)
	sb.WriteString("(")
	for i, p := range s.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if i < len(s.ParamNames) && s.ParamNames[i] != "" {
			sb.WriteString(s.ParamNames[i])
			sb.WriteString(": ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	if s.HasResult() {
		sb.WriteString(" -> ")
		sb.WriteString(s.Result.String())
	}
	return sb.String()
}

// MethodSymbol is the backend name of method name on struct owner.
func MethodSymbol(owner, name string) string {
	return owner + "_" + name
}

func signatureOf(kind Kind, owner, name string, params []ast.Param, result types.Type) *Signature {
	sig := &Signature{Kind: kind, Name: name, Owner: owner, Symbol: name, Result: result}
	if kind == KindMethod {
		sig.Symbol = MethodSymbol(owner, name)
		sig.Params = append(sig.Params, types.Struct(owner))
		sig.ParamNames = append(sig.ParamNames, ast.ReceiverName)
	}
	for _, p := range params {
		sig.Params = append(sig.Params, p.Type)
		sig.ParamNames = append(sig.ParamNames, p.Name)
	}
	return sig
}
