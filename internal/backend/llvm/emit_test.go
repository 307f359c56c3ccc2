package llvm

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/llir/llvm/ir"

	"bu/internal/ast"
	"bu/internal/diag"
	"bu/internal/layout"
	"bu/internal/testkit"
	"bu/internal/types"
)

func emit(t *testing.T, p *ast.Program) *ir.Module {
	t.Helper()
	if err := testkit.CheckProgram(p); err != nil {
		t.Fatalf("fixture violates checker contract: %v", err)
	}
	m, err := generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := Verify(m); err != nil {
		t.Fatalf("Verify: %v\n%s", err, m)
	}
	return m
}

// generate lowers p for x86-64 Linux in a fresh session.
func generate(p *ast.Program) (*ir.Module, error) {
	s := NewSession(Options{Target: layout.X86_64LinuxGNU()})
	err := s.Generate(p)
	return s.Module(), err
}

func findFunc(t *testing.T, m *ir.Module, name string) *ir.Func {
	t.Helper()
	for _, f := range m.Funcs {
		if f.Name() == name {
			return f
		}
	}
	t.Fatalf("function @%s not found in\n%s", name, m)
	return nil
}

func blockNames(f *ir.Func) []string {
	names := make([]string, 0, len(f.Blocks))
	for _, b := range f.Blocks {
		names = append(names, b.Name())
	}
	return names
}

func findBlock(t *testing.T, f *ir.Func, name string) *ir.Block {
	t.Helper()
	for _, b := range f.Blocks {
		if b.Name() == name {
			return b
		}
	}
	t.Fatalf("block %s not found in @%s: %v", name, f.Name(), blockNames(f))
	return nil
}

func succNames(b *ir.Block) []string {
	var out []string
	for _, s := range b.Term.Succs() {
		out = append(out, s.Name())
	}
	return out
}

func single(fn *ast.Function) *ast.Program {
	return &ast.Program{Path: "t.bu", Functions: []*ast.Function{fn}}
}

func TestSamplesLowerAndVerify(t *testing.T) {
	for _, s := range testkit.Samples() {
		t.Run(s.Name, func(t *testing.T) {
			m := emit(t, s.Program)
			if m.TargetTriple != "x86_64-pc-linux-gnu" {
				t.Fatalf("triple = %q", m.TargetTriple)
			}
			findFunc(t, m, "main")
		})
	}
}

func TestForwardAndMutualReferences(t *testing.T) {
	m := emit(t, testkit.ParityProgram())
	even := findFunc(t, m, "isEven")
	if len(even.Blocks) == 0 {
		t.Fatal("isEven has no body")
	}
	text := m.String()
	for _, want := range []string{"call i1 @isEven(i32 10)", "call i1 @isOdd("} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in\n%s", want, text)
		}
	}
}

func TestIfWithBothBranchesReturningHasNoContinuation(t *testing.T) {
	c := testkit.Ref("c", types.Bool)
	fn := testkit.Fn("pick", types.I32, testkit.Body(
		testkit.If(c, testkit.Body(testkit.Ret(testkit.Int(1))), testkit.Body(testkit.Ret(testkit.Int(2)))),
	), "c", types.Bool)

	f := findFunc(t, emit(t, single(fn)), "pick")
	if got := blockNames(f); !slices.Equal(got, []string{"entry", "if.then", "if.else"}) {
		t.Fatalf("blocks = %v", got)
	}
}

func TestIfWithOneReturningBranchJumpsOnce(t *testing.T) {
	c := testkit.Ref("c", types.Bool)
	x := testkit.Ref("x", types.I32)
	fn := testkit.Fn("pick", types.I32, testkit.Body(
		testkit.Let("x", types.I32, testkit.Int(0)),
		testkit.If(c,
			testkit.Body(testkit.Ret(testkit.Int(1))),
			testkit.Body(testkit.Do(testkit.Assign(x, testkit.Int(2))))),
		testkit.Ret(x),
	), "c", types.Bool)

	f := findFunc(t, emit(t, single(fn)), "pick")
	end := findBlock(t, f, "if.end")
	jumps := 0
	for _, b := range f.Blocks {
		if slices.Contains(succNames(b), end.Name()) {
			jumps++
			if b.Name() != "if.else" {
				t.Errorf("unexpected jump to if.end from %s", b.Name())
			}
		}
	}
	if jumps != 1 {
		t.Fatalf("jumps to if.end = %d, want 1", jumps)
	}
	if _, ok := findBlock(t, f, "if.then").Term.(*ir.TermRet); !ok {
		t.Fatal("then branch must end in ret")
	}
}

func TestIfWithoutElseAlwaysContinues(t *testing.T) {
	c := testkit.Ref("c", types.Bool)
	fn := testkit.Fn("f", types.None, testkit.Body(
		testkit.If(c, testkit.Body(&ast.Return{}), nil),
	), "c", types.Bool)

	f := findFunc(t, emit(t, single(fn)), "f")
	entry := findBlock(t, f, "entry")
	if got := succNames(entry); !slices.Equal(got, []string{"if.then", "if.end"}) {
		t.Fatalf("entry successors = %v", got)
	}
	if _, ok := findBlock(t, f, "if.end").Term.(*ir.TermRet); !ok {
		t.Fatal("void function must fall off with ret void")
	}
}

func TestWhileShape(t *testing.T) {
	f := findFunc(t, emit(t, testkit.LoopProgram()), "main")
	if got := blockNames(f); !slices.Equal(got, []string{"entry", "while.cond", "while.body", "while.end"}) {
		t.Fatalf("blocks = %v", got)
	}
	if got := succNames(findBlock(t, f, "while.cond")); !slices.Equal(got, []string{"while.body", "while.end"}) {
		t.Fatalf("cond successors = %v", got)
	}
	if got := succNames(findBlock(t, f, "while.body")); !slices.Equal(got, []string{"while.cond"}) {
		t.Fatalf("body must jump back to cond, got %v", got)
	}
}

func TestBreakAndContinueTargetInnermostLoop(t *testing.T) {
	f := findFunc(t, emit(t, testkit.BreakContinueProgram()), "main")
	// if.then holds the break, if.then1 the continue
	if got := succNames(findBlock(t, f, "if.then")); !slices.Equal(got, []string{"while.end"}) {
		t.Fatalf("break jumps to %v", got)
	}
	if got := succNames(findBlock(t, f, "if.then1")); !slices.Equal(got, []string{"while.cond"}) {
		t.Fatalf("continue jumps to %v", got)
	}
}

func TestNestedLoopsBreakInner(t *testing.T) {
	fn := testkit.Fn("f", types.None, testkit.Body(
		testkit.While(testkit.True(), testkit.Body(
			testkit.While(testkit.True(), testkit.Body(&ast.Break{})),
			&ast.Break{},
		)),
	))
	f := findFunc(t, emit(t, single(fn)), "f")
	if got := succNames(findBlock(t, f, "while.body1")); !slices.Equal(got, []string{"while.end1"}) {
		t.Fatalf("inner break jumps to %v", got)
	}
	if got := succNames(findBlock(t, f, "while.end1")); !slices.Equal(got, []string{"while.end"}) {
		t.Fatalf("outer break jumps to %v", got)
	}
}

func TestStatementsAfterReturnAreSkipped(t *testing.T) {
	fn := testkit.Fn("f", types.I32, testkit.Body(
		testkit.Ret(testkit.Int(1)),
		testkit.Ret(testkit.Int(2)),
	))
	f := findFunc(t, emit(t, single(fn)), "f")
	if len(f.Blocks) != 1 {
		t.Fatalf("blocks = %v", blockNames(f))
	}
	if strings.Contains(f.LLString(), "ret i32 2") {
		t.Fatalf("unreachable return lowered:\n%s", f.LLString())
	}
}

func TestFallthroughOfValueFunctionIsUnreachable(t *testing.T) {
	fn := testkit.Fn("f", types.I32, testkit.Body(
		testkit.While(testkit.True(), testkit.Body(testkit.Ret(testkit.Int(1)))),
	))
	f := findFunc(t, emit(t, single(fn)), "f")
	if _, ok := findBlock(t, f, "while.end").Term.(*ir.TermUnreachable); !ok {
		t.Fatalf("while.end must end in unreachable:\n%s", f.LLString())
	}
}

func TestMethodsTakeReceiverFirst(t *testing.T) {
	m := emit(t, testkit.ChainProgram())
	get := findFunc(t, m, "Inner_get")
	if len(get.Params) != 1 || get.Params[0].Name() != ast.ReceiverName {
		t.Fatalf("Inner_get params = %v", get.Params)
	}
	if !strings.Contains(m.String(), "call i32 @Inner_get(%Inner ") {
		t.Fatalf("method call does not pass the receiver by value:\n%s", m)
	}
}

func TestStructTypesFollowContainmentOrder(t *testing.T) {
	m := emit(t, testkit.ChainProgram())
	var names []string
	for _, td := range m.TypeDefs {
		names = append(names, td.Name())
	}
	if !slices.Equal(names, []string{"Inner", "Outer", "Wrapper"}) {
		t.Fatalf("type definitions = %v", names)
	}
}

func TestDeepChainLowersIteratively(t *testing.T) {
	const depth = 300
	structs := []*ast.Struct{testkit.StructDecl("S0", "v", types.I32)}
	for i := 1; i <= depth; i++ {
		structs = append(structs, testkit.StructDecl(fmt.Sprintf("S%d", i), "s", types.Struct(fmt.Sprintf("S%d", i-1))))
	}
	top := types.Struct(fmt.Sprintf("S%d", depth))
	var chain ast.Expr = testkit.Ref("x", top)
	for i := depth - 1; i >= 0; i-- {
		chain = testkit.Field(chain, "s", types.Struct(fmt.Sprintf("S%d", i)))
	}
	chain = testkit.Field(chain, "v", types.I32)

	fn := testkit.Fn("deep", types.I32, testkit.Body(testkit.Ret(chain)), "x", top)
	f := findFunc(t, emit(t, &ast.Program{Structs: structs, Functions: []*ast.Function{fn}}), "deep")

	geps := 0
	for _, inst := range f.Blocks[0].Insts {
		if _, ok := inst.(*ir.InstGetElementPtr); ok {
			geps++
		}
	}
	if geps != depth+1 {
		t.Fatalf("getelementptr count = %d, want %d", geps, depth+1)
	}
}

func TestStructEqualityIsFieldwise(t *testing.T) {
	point := types.Struct("P")
	fn := testkit.Fn("same", types.Bool, testkit.Body(
		testkit.Ret(testkit.Bin(ast.OpEq, testkit.Ref("a", point), testkit.Ref("b", point))),
	), "a", point, "b", point)
	p := &ast.Program{
		Structs:   []*ast.Struct{testkit.StructDecl("P", "x", types.I32, "ok", types.Bool)},
		Functions: []*ast.Function{fn},
	}
	text := findFunc(t, emit(t, p), "same").LLString()
	if strings.Count(text, "extractvalue") != 4 || !strings.Contains(text, "and i1") {
		t.Fatalf("expected field-wise comparison:\n%s", text)
	}
}

func TestAllocasLiveInEntryBlock(t *testing.T) {
	f := findFunc(t, emit(t, testkit.BreakContinueProgram()), "main")
	for _, b := range f.Blocks[1:] {
		for _, inst := range b.Insts {
			if _, ok := inst.(*ir.InstAlloca); ok {
				t.Fatalf("alloca outside entry in %s", b.Name())
			}
		}
	}
	for i, inst := range f.Blocks[0].Insts[:2] {
		if _, ok := inst.(*ir.InstAlloca); !ok {
			t.Fatalf("entry instruction %d is %T, want alloca", i, inst)
		}
	}
}

func TestCyclicStructsFailRegistration(t *testing.T) {
	_, err := generate(testkit.CyclicProgram())
	var le *layout.LayoutError
	if !errors.As(err, &le) || le.Kind != layout.LayoutErrCycle {
		t.Fatalf("got %v, want cycle error", err)
	}
}

func TestInternalErrorCarriesModuleDump(t *testing.T) {
	fn := testkit.Fn("broken", types.I32, testkit.Body(testkit.Ret(testkit.Ref("ghost", types.I32))))
	_, err := generate(single(fn))
	ie, ok := diag.AsInternal(err)
	if !ok {
		t.Fatalf("got %v, want internal error", err)
	}
	if !strings.Contains(ie.Msg, `"ghost"`) || !strings.Contains(ie.Func, "broken") {
		t.Fatalf("unexpected error: %+v", ie)
	}
	if !strings.Contains(ie.Dump, "define i32 @broken") {
		t.Fatalf("dump missing partial module:\n%s", ie.Dump)
	}
}

// Unsigned integers divide and compare as unsigned; signed ones as signed.
func TestSignednessSelectsInstructions(t *testing.T) {
	tests := []struct {
		typ  types.Type
		want []string
	}{
		{types.I32, []string{"sdiv i32", "srem i32", "icmp slt i32", "icmp sge i32"}},
		{types.I64, []string{"sdiv i64", "srem i64", "icmp slt i64", "icmp sge i64"}},
		{types.U32, []string{"udiv i32", "urem i32", "icmp ult i32", "icmp uge i32"}},
		{types.U64, []string{"udiv i64", "urem i64", "icmp ult i64", "icmp uge i64"}},
		{types.Usize, []string{"udiv i64", "urem i64", "icmp ult i64", "icmp uge i64"}},
	}
	for _, tc := range tests {
		t.Run(tc.typ.String(), func(t *testing.T) {
			a := func() *ast.Name { return testkit.Ref("a", tc.typ) }
			b := func() *ast.Name { return testkit.Ref("b", tc.typ) }
			fn := testkit.Fn("cmp", types.Bool, testkit.Body(
				testkit.Ret(testkit.Bin(ast.OpOr,
					testkit.Bin(ast.OpLt, testkit.Bin(ast.OpDiv, a(), b()), testkit.Bin(ast.OpRem, a(), b())),
					testkit.Bin(ast.OpGe, a(), b()))),
			), "a", tc.typ, "b", tc.typ)

			text := findFunc(t, emit(t, single(fn)), "cmp").LLString()
			for _, w := range tc.want {
				if !strings.Contains(text, w) {
					t.Errorf("missing %q in\n%s", w, text)
				}
			}
		})
	}
}

func TestForeignPanicBecomesInternalError(t *testing.T) {
	fn := testkit.Fn("broken", types.None, testkit.Body(&ast.ExprStmt{}))
	_, err := generate(single(fn))
	ie, ok := diag.AsInternal(err)
	if !ok {
		t.Fatalf("got %v, want internal error", err)
	}
	if ie.Phase != diag.PhaseLower || !strings.Contains(ie.Func, "broken") {
		t.Fatalf("unexpected error: %+v", ie)
	}
	if !strings.HasPrefix(ie.Msg, "panic: ") || !strings.Contains(ie.Msg, "goroutine") {
		t.Fatalf("panic value or stack missing:\n%s", ie.Msg)
	}
	if !strings.Contains(ie.Dump, "define void @broken") {
		t.Fatalf("dump missing partial module:\n%s", ie.Dump)
	}
}

func TestVarDeclInitializerTypeMismatchIsInternal(t *testing.T) {
	fn := testkit.Fn("widen", types.None, testkit.Body(
		testkit.Let("x", types.I64, testkit.Int(1)),
	))
	_, err := generate(single(fn))
	ie, ok := diag.AsInternal(err)
	if !ok {
		t.Fatalf("got %v, want internal error", err)
	}
	if !strings.Contains(ie.Msg, "initializer of x has type I32, want I64") {
		t.Fatalf("unexpected message: %q", ie.Msg)
	}
}

func TestLiterals(t *testing.T) {
	s := NewSession(Options{Target: layout.TargetFor("i686-pc-linux-gnu")})
	tests := []struct {
		lit  *ast.Literal
		want string
	}{
		{testkit.True(), "true"},
		{testkit.Lit("-7", types.I64), "-7"},
		{testkit.Lit("4294967295", types.U32), "-1"},
		{testkit.Lit("0x10", types.I32), "16"},
	}
	for _, tc := range tests {
		if got := s.literal(tc.lit).Ident(); got != tc.want {
			t.Errorf("literal %q as %v = %s, want %s", tc.lit.Text, tc.lit.Typ, got, tc.want)
		}
	}
	if got := s.literal(testkit.Lit("1", types.Usize)).Type().String(); got != "i32" {
		t.Errorf("usize on i686 lowers to %s, want i32", got)
	}

	var err error
	func() {
		defer diag.Recover(&err, nil)
		s.literal(testkit.Lit("300000000000", types.I32))
	}()
	if _, ok := diag.AsInternal(err); !ok {
		t.Fatalf("out of range literal: got %v, want internal error", err)
	}
}
