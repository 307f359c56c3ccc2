package layout

import (
	"bu/internal/diag"
	"bu/internal/types"
)

// TypeLayout is the ABI size and alignment of a type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int
}

// LayoutOf returns the layout of t. Struct types must already be registered.
func (m *Manager) LayoutOf(t types.Type) TypeLayout {
	switch t.Kind {
	case types.KindNone:
		return TypeLayout{Size: 0, Align: 1}
	case types.KindBool:
		return TypeLayout{Size: 1, Align: 1}
	case types.KindInt, types.KindUint:
		if t.Width == types.WidthAny {
			return m.ptrLayout()
		}
		return scalarLayoutBytes(int(t.Width) / 8)
	case types.KindStruct:
		sl := m.Layout(t.Name)
		return TypeLayout{Size: sl.Size, Align: sl.Align}
	default:
		diag.Bail(diag.PhaseLayout, "no layout for type %v", t)
		return TypeLayout{}
	}
}

// computeStruct fills offsets, size and alignment. Every struct sl contains
// by value must already be computed.
func (m *Manager) computeStruct(sl *StructLayout) {
	offset, align := 0, 1
	for i := range sl.Fields {
		f := &sl.Fields[i]
		fl := m.LayoutOf(f.Type)
		offset = roundUp(offset, fl.Align)
		f.Offset = offset
		offset += fl.Size
		align = max(align, fl.Align)
	}
	sl.Size = roundUp(offset, align)
	sl.Align = align
}

func (m *Manager) ptrLayout() TypeLayout {
	ptrSize := m.target.PtrSize
	ptrAlign := m.target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

func scalarLayoutBytes(size int) TypeLayout {
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}
