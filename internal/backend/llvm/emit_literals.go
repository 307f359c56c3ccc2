package llvm

import (
	"strconv"

	"github.com/llir/llvm/ir/constant"

	"bu/internal/ast"
	"bu/internal/diag"
	"bu/internal/types"
)

// literal builds a constant of the literal's resolved type. The text is
// parsed with that type's width and signedness.
func (s *Session) literal(e *ast.Literal) *constant.Int {
	switch e.Typ.Kind {
	case types.KindBool:
		b, err := strconv.ParseBool(e.Text)
		if err != nil {
			diag.Bail(diag.PhaseLower, "bool literal %q: %v", e.Text, err)
		}
		return constant.NewBool(b)
	case types.KindInt:
		typ := s.intType(e.Typ)
		v, err := strconv.ParseInt(e.Text, 0, s.intBits(e.Typ))
		if err != nil {
			diag.Bail(diag.PhaseLower, "%v literal %q: %v", e.Typ, e.Text, err)
		}
		return constant.NewInt(typ, v)
	case types.KindUint:
		typ := s.intType(e.Typ)
		bits := s.intBits(e.Typ)
		u, err := strconv.ParseUint(e.Text, 0, bits)
		if err != nil {
			diag.Bail(diag.PhaseLower, "%v literal %q: %v", e.Typ, e.Text, err)
		}
		return constant.NewInt(typ, signExtend(u, bits))
	default:
		diag.Bail(diag.PhaseLower, "literal of non-primitive type %v", e.Typ)
		return nil
	}
}

// signExtend reinterprets the low bits of u as a two's complement value.
// IR integers carry no signedness, so the bit pattern is all that matters.
func signExtend(u uint64, bits int) int64 {
	shift := 64 - bits
	return int64(u<<shift) >> shift //nolint:gosec // reinterpretation intended
}
