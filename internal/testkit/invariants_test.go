package testkit

import (
	"strings"
	"testing"

	"bu/internal/ast"
	"bu/internal/types"
)

func TestSamplesSatisfyCheckerContract(t *testing.T) {
	for _, s := range Samples() {
		if err := CheckProgram(s.Program); err != nil {
			t.Errorf("%s: %v", s.Name, err)
		}
	}
	if err := CheckProgram(CyclicProgram()); err != nil {
		t.Errorf("cyclic: %v", err)
	}
}

func TestCheckProgramRejectsDrift(t *testing.T) {
	tests := []struct {
		name string
		fn   *ast.Function
		want string
	}{
		{
			name: "unbound",
			fn:   Fn("main", types.I32, Body(Ret(Ref("x", types.I32)))),
			want: "unbound name",
		},
		{
			name: "arity",
			fn:   Fn("main", types.I32, Body(Ret(Call("main", types.I32, Int(1))))),
			want: "1 arguments for 0 parameters",
		},
		{
			name: "break outside loop",
			fn:   Fn("main", types.None, Body(&ast.Break{})),
			want: "outside loop",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckProgram(&ast.Program{Functions: []*ast.Function{tc.fn}})
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v, want error containing %q", err, tc.want)
			}
		})
	}
}
