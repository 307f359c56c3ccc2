package llvm

import (
	lltypes "github.com/llir/llvm/ir/types"

	"bu/internal/diag"
	"bu/internal/types"
)

// llvmType maps a resolved type to its IR type. Bool is i1, integers keep
// their width, Usize is pointer-sized and structs use their named type
// definition.
func (s *Session) llvmType(t types.Type) lltypes.Type {
	switch t.Kind {
	case types.KindNone:
		return lltypes.Void
	case types.KindBool:
		return lltypes.I1
	case types.KindInt, types.KindUint:
		return s.intType(t)
	case types.KindStruct:
		return s.structType(t.Name)
	default:
		diag.Bail(diag.PhaseLower, "no IR type for %v", t)
		return nil
	}
}

func (s *Session) intType(t types.Type) *lltypes.IntType {
	switch t.Width {
	case types.Width32:
		return lltypes.I32
	case types.Width64:
		return lltypes.I64
	case types.WidthAny:
		if s.opts.Target.PtrSize == 4 {
			return lltypes.I32
		}
		return lltypes.I64
	default:
		diag.Bail(diag.PhaseLower, "unsupported integer width %d", t.Width)
		return nil
	}
}

// intBits is the bit width intType picks for t.
func (s *Session) intBits(t types.Type) int {
	return int(s.intType(t).BitSize)
}
