package layout_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"bu/internal/ast"
	"bu/internal/diag"
	"bu/internal/layout"
	"bu/internal/testkit"
	"bu/internal/types"
)

func register(t *testing.T, decls ...*ast.Struct) *layout.Manager {
	t.Helper()
	m := layout.NewManager(layout.X86_64LinuxGNU())
	if err := m.Register(decls); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return m
}

func TestOrderPlacesContainedStructsFirst(t *testing.T) {
	m := register(t,
		testkit.StructDecl("Wrapper", "outer", types.Struct("Outer")),
		testkit.StructDecl("Outer", "k", types.I32, "inner", types.Struct("Inner"), "again", types.Struct("Inner")),
		testkit.StructDecl("Inner", "v", types.I32),
		testkit.StructDecl("Lone", "flag", types.Bool),
	)
	order := m.Order()
	pos := func(name string) int { return slices.Index(order, name) }
	if pos("Inner") > pos("Outer") || pos("Outer") > pos("Wrapper") {
		t.Fatalf("containment order violated: %v", order)
	}
	// independent structs keep declaration order
	if !slices.Equal(order, []string{"Inner", "Lone", "Outer", "Wrapper"}) {
		t.Fatalf("order = %v", order)
	}
}

func TestCycleIsFatalAndDeterministic(t *testing.T) {
	for range 3 {
		m := layout.NewManager(layout.X86_64LinuxGNU())
		err := m.Register(testkit.CyclicProgram().Structs)
		var le *layout.LayoutError
		if !errors.As(err, &le) || le.Kind != layout.LayoutErrCycle {
			t.Fatalf("got %v, want cycle error", err)
		}
		if !slices.Equal(le.Cycle, []string{"A", "B"}) {
			t.Fatalf("cycle = %v, want [A B]", le.Cycle)
		}
	}
}

func TestSelfContainmentIsACycle(t *testing.T) {
	m := layout.NewManager(layout.X86_64LinuxGNU())
	err := m.Register([]*ast.Struct{testkit.StructDecl("Node", "next", types.Struct("Node"))})
	var le *layout.LayoutError
	if !errors.As(err, &le) || le.Kind != layout.LayoutErrCycle {
		t.Fatalf("got %v, want cycle error", err)
	}
}

func TestRegisterRejectsMalformedDecls(t *testing.T) {
	tests := []struct {
		name  string
		decls []*ast.Struct
		kind  layout.LayoutErrorKind
	}{
		{"unknown", []*ast.Struct{testkit.StructDecl("A", "b", types.Struct("Missing"))}, layout.LayoutErrUnknownStruct},
		{"dup struct", []*ast.Struct{testkit.StructDecl("A"), testkit.StructDecl("A")}, layout.LayoutErrDuplicateStruct},
		{"dup field", []*ast.Struct{testkit.StructDecl("A", "x", types.I32, "x", types.I64)}, layout.LayoutErrDuplicateField},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := layout.NewManager(layout.X86_64LinuxGNU()).Register(tc.decls)
			var le *layout.LayoutError
			if !errors.As(err, &le) || le.Kind != tc.kind {
				t.Fatalf("got %v, want kind %d", err, tc.kind)
			}
		})
	}
}

func TestFieldIndexIsStableAndDense(t *testing.T) {
	m := register(t, testkit.StructDecl("P", "a", types.I32, "b", types.Bool, "c", types.I64))
	seen := make(map[int]bool)
	for range 2 {
		for _, f := range []string{"a", "b", "c"} {
			seen[m.FieldIndex("P", f)] = true
		}
	}
	if len(seen) != 3 || !seen[0] || !seen[1] || !seen[2] {
		t.Fatalf("field indices = %v, want {0,1,2}", seen)
	}
	if m.FieldIndex("P", "c") != 2 {
		t.Fatalf("FieldIndex(c) = %d", m.FieldIndex("P", "c"))
	}
}

func TestFieldIndexUnknownIsInternalError(t *testing.T) {
	m := register(t, testkit.StructDecl("P", "a", types.I32))
	for _, tc := range []struct{ s, f string }{{"P", "zz"}, {"Q", "a"}} {
		func() {
			var err error
			defer func() {
				if _, ok := diag.AsInternal(err); !ok {
					t.Errorf("FieldIndex(%s, %s): got %v, want internal error", tc.s, tc.f, err)
				}
			}()
			defer diag.Recover(&err, nil)
			m.FieldIndex(tc.s, tc.f)
		}()
	}
}

func TestSizesAndOffsets(t *testing.T) {
	m := register(t,
		testkit.StructDecl("Inner", "flag", types.Bool, "n", types.I32),
		testkit.StructDecl("Outer", "b", types.Bool, "inner", types.Struct("Inner"), "w", types.I64, "u", types.Usize),
	)
	inner := m.Layout("Inner")
	if inner.Size != 8 || inner.Align != 4 || inner.Fields[1].Offset != 4 {
		t.Fatalf("Inner layout = %+v", inner)
	}
	outer := m.Layout("Outer")
	wantOffsets := []int{0, 4, 16, 24}
	for i, f := range outer.Fields {
		if f.Offset != wantOffsets[i] {
			t.Errorf("Outer.%s offset = %d, want %d", f.Name, f.Offset, wantOffsets[i])
		}
	}
	if outer.Size != 32 || outer.Align != 8 {
		t.Fatalf("Outer size/align = %d/%d, want 32/8", outer.Size, outer.Align)
	}
}

func TestUsizeFollowsTarget(t *testing.T) {
	m := layout.NewManager(layout.TargetFor("i686-pc-linux-gnu"))
	if err := m.Register(nil); err != nil {
		t.Fatal(err)
	}
	if got := m.LayoutOf(types.Usize); got.Size != 4 {
		t.Fatalf("usize size on i686 = %d, want 4", got.Size)
	}
	if got := layout.TargetFor("aarch64-apple-darwin"); got.PtrSize != 8 {
		t.Fatalf("aarch64 pointer size = %d", got.PtrSize)
	}
}

func TestDescribe(t *testing.T) {
	m := register(t,
		testkit.StructDecl("Outer", "flag", types.Bool, "inner", types.Struct("Inner")),
		testkit.StructDecl("Inner", "v", types.I64),
	)
	want := strings.Join([]string{
		"; struct layouts for x86_64-pc-linux-gnu",
		"; Inner size 8 align 8",
		";   +0   v: I64",
		"; Outer size 16 align 8",
		";   +0   flag: Bool",
		";   +8   inner: Inner",
		"",
	}, "\n")
	if got := m.Describe(); got != want {
		t.Fatalf("Describe() =\n%s\nwant\n%s", got, want)
	}
}
