// Package layout orders struct declarations by containment and computes
// their field layouts.
package layout

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"bu/internal/ast"
	"bu/internal/diag"
	"bu/internal/types"
)

// FieldLayout is one positioned struct field.
type FieldLayout struct {
	Name   string
	Type   types.Type
	Offset int // bytes from the start of the struct
}

// StructLayout is the ordered, immutable field list of a struct.
type StructLayout struct {
	Name   string
	Fields []FieldLayout
	Size   int
	Align  int

	index map[string]int
}

// Manager owns every struct layout of one program.
type Manager struct {
	target     Target
	structs    map[string]*StructLayout
	order      []string
	registered bool
}

// NewManager creates an empty Manager for the specified target.
func NewManager(target Target) *Manager {
	return &Manager{target: target, structs: make(map[string]*StructLayout)}
}

// Target returns the ABI target layouts are computed for.
func (m *Manager) Target() Target { return m.target }

type structID uint32

// Register records every struct and computes the containment order: a
// struct is placed after every struct it holds by value. Structs that cannot
// be ordered contain each other by value and are reported as a cycle.
// Register may be called once.
func (m *Manager) Register(decls []*ast.Struct) error {
	diag.Assert(!m.registered, diag.PhaseLayout, "struct layouts registered twice")
	m.registered = true

	ids := make(map[string]structID, len(decls))
	for i, d := range decls {
		if _, dup := ids[d.Name]; dup {
			return &LayoutError{Kind: LayoutErrDuplicateStruct, Struct: d.Name}
		}
		id, err := safecast.Conv[structID](i)
		if err != nil {
			panic(fmt.Errorf("struct id overflow: %w", err))
		}
		ids[d.Name] = id
	}

	// edges[b] lists the structs that hold b by value.
	edges := make([][]structID, len(decls))
	indeg := make([]int, len(decls))
	for i, d := range decls {
		seenField := make(map[string]struct{}, len(d.Fields))
		seenDep := make(map[structID]struct{})
		for _, f := range d.Fields {
			if _, dup := seenField[f.Name]; dup {
				return &LayoutError{Kind: LayoutErrDuplicateField, Struct: d.Name, Field: f.Name}
			}
			seenField[f.Name] = struct{}{}
			if !f.Type.IsStruct() {
				continue
			}
			dep, ok := ids[f.Type.Name]
			if !ok {
				return &LayoutError{Kind: LayoutErrUnknownStruct, Struct: d.Name, Field: f.Name}
			}
			if _, dup := seenDep[dep]; dup {
				continue
			}
			seenDep[dep] = struct{}{}
			edges[dep] = append(edges[dep], ids[d.Name])
			indeg[i]++
		}
	}

	order := toposortKahn(edges, indeg)
	if len(order) != len(decls) {
		var cycle []string
		for i, d := range indeg {
			if d > 0 {
				cycle = append(cycle, decls[i].Name)
			}
		}
		slices.Sort(cycle)
		return &LayoutError{Kind: LayoutErrCycle, Cycle: cycle}
	}

	for _, id := range order {
		d := decls[id]
		sl := &StructLayout{
			Name:   d.Name,
			Fields: make([]FieldLayout, len(d.Fields)),
			index:  make(map[string]int, len(d.Fields)),
		}
		for i, f := range d.Fields {
			sl.Fields[i] = FieldLayout{Name: f.Name, Type: f.Type}
			sl.index[f.Name] = i
		}
		m.computeStruct(sl)
		m.structs[d.Name] = sl
		m.order = append(m.order, d.Name)
	}
	return nil
}

// toposortKahn consumes indeg in place; entries left positive are the nodes
// that could not be ordered. Each wave is sorted so the order follows
// declaration order among independent structs.
func toposortKahn(edges [][]structID, indeg []int) []structID {
	order := make([]structID, 0, len(indeg))
	current := make([]structID, 0, len(indeg))
	for i, d := range indeg {
		if d == 0 {
			current = append(current, structID(i)) //nolint:gosec // i < len(indeg), checked by Register
		}
	}

	for len(current) > 0 {
		next := make([]structID, 0)
		for _, id := range current {
			order = append(order, id)
			for _, to := range edges[id] {
				indeg[to]--
				if indeg[to] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}
	return order
}

// Order returns struct names in containment order.
func (m *Manager) Order() []string {
	return slices.Clone(m.order)
}

// Layout returns the layout of a registered struct.
func (m *Manager) Layout(name string) *StructLayout {
	sl, ok := m.structs[name]
	if !ok {
		diag.Bail(diag.PhaseLayout, "unknown struct %q", name)
	}
	return sl
}

// FieldIndex returns the position of field in struct name.
func (m *Manager) FieldIndex(name, field string) int {
	return m.Layout(name).FieldIndex(field)
}

// FieldIndex returns the position of field in the layout.
func (sl *StructLayout) FieldIndex(field string) int {
	idx, ok := sl.index[field]
	if !ok {
		diag.Bail(diag.PhaseLayout, "struct %s has no field %q", sl.Name, field)
	}
	return idx
}

// Field returns the field at idx.
func (sl *StructLayout) Field(idx int) FieldLayout {
	diag.Assert(idx >= 0 && idx < len(sl.Fields), diag.PhaseLayout, "struct %s has no field #%d", sl.Name, idx)
	return sl.Fields[idx]
}

// Describe renders every layout in containment order as IR comments, one
// header line per struct followed by its fields.
func (m *Manager) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; struct layouts for %s\n", m.Target().Triple)
	for _, name := range m.order {
		sl := m.structs[name]
		fmt.Fprintf(&sb, "; %s size %d align %d\n", sl.Name, sl.Size, sl.Align)
		for _, f := range sl.Fields {
			fmt.Fprintf(&sb, ";   +%-3d %s: %v\n", f.Offset, f.Name, f.Type)
		}
	}
	return sb.String()
}
