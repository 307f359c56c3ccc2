package llvm

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
)

func TestVerifyAcceptsDeclarations(t *testing.T) {
	m := ir.NewModule()
	m.NewFunc("putchar", lltypes.I32, ir.NewParam("c", lltypes.I32))
	if err := Verify(m); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	tests := []struct {
		name  string
		build func(m *ir.Module)
		want  string
	}{
		{
			name: "open block",
			build: func(m *ir.Module) {
				f := m.NewFunc("f", lltypes.Void)
				f.NewBlock("entry")
			},
			want: "no terminator",
		},
		{
			name: "branch to entry",
			build: func(m *ir.Module) {
				f := m.NewFunc("f", lltypes.Void)
				entry := f.NewBlock("entry")
				loop := f.NewBlock("loop")
				entry.NewBr(loop)
				loop.NewBr(entry)
			},
			want: "branch to entry block",
		},
		{
			name: "branch into another function",
			build: func(m *ir.Module) {
				g := m.NewFunc("g", lltypes.Void)
				foreign := g.NewBlock("entry")
				foreign.NewRet(nil)
				f := m.NewFunc("f", lltypes.Void)
				f.NewBlock("entry").NewBr(foreign)
			},
			want: "another function",
		},
		{
			name: "ret void from i32 function",
			build: func(m *ir.Module) {
				f := m.NewFunc("f", lltypes.I32)
				f.NewBlock("entry").NewRet(nil)
			},
			want: "ret void in function returning i32",
		},
		{
			name: "ret of wrong width",
			build: func(m *ir.Module) {
				f := m.NewFunc("f", lltypes.I32)
				f.NewBlock("entry").NewRet(constant.NewInt(lltypes.I64, 1))
			},
			want: "ret i64 in function returning i32",
		},
		{
			name: "call arity",
			build: func(m *ir.Module) {
				callee := m.NewFunc("callee", lltypes.Void, ir.NewParam("x", lltypes.I32))
				f := m.NewFunc("f", lltypes.Void)
				entry := f.NewBlock("entry")
				entry.NewCall(callee)
				entry.NewRet(nil)
			},
			want: "with 0 arguments, want 1",
		},
		{
			name: "call argument type",
			build: func(m *ir.Module) {
				callee := m.NewFunc("callee", lltypes.Void, ir.NewParam("x", lltypes.I32))
				f := m.NewFunc("f", lltypes.Void)
				entry := f.NewBlock("entry")
				entry.NewCall(callee, constant.True)
				entry.NewRet(nil)
			},
			want: "argument 0 of @callee has type i1",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := ir.NewModule()
			tc.build(m)
			err := Verify(m)
			if err == nil {
				t.Fatal("Verify accepted a malformed module")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestVerifyReportsEveryFinding(t *testing.T) {
	m := ir.NewModule()
	m.NewFunc("a", lltypes.Void).NewBlock("entry")
	m.NewFunc("b", lltypes.I32).NewBlock("entry").NewRet(nil)

	err := Verify(m)
	if err == nil {
		t.Fatal("Verify accepted a malformed module")
	}
	for _, want := range []string{"@a", "@b"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestDumpSealsOpenBlocks(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("f", lltypes.I32)
	f.NewBlock("entry")

	out := Dump(m)
	if !strings.Contains(out, "unterminated at failure: @f %entry") {
		t.Fatalf("open block not reported:\n%s", out)
	}
	if !strings.Contains(out, "unreachable") {
		t.Fatalf("open block not sealed:\n%s", out)
	}
}
