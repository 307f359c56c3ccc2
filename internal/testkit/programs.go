package testkit

import (
	"bu/internal/ast"
	"bu/internal/types"
)

// Sample is a fixture program together with the exit code `main` returns.
type Sample struct {
	Name     string
	Program  *ast.Program
	ExitCode int
	Stdout   string
}

// Samples returns fresh copies of every runnable fixture.
func Samples() []Sample {
	return []Sample{
		{Name: "add", Program: AddProgram(), ExitCode: 5},
		{Name: "point", Program: PointProgram(), ExitCode: 210},
		{Name: "loop", Program: LoopProgram(), ExitCode: 5},
		{Name: "chain", Program: ChainProgram(), ExitCode: 7},
		{Name: "parity", Program: ParityProgram(), ExitCode: 1},
		{Name: "breaks", Program: BreakContinueProgram(), ExitCode: 25},
		{Name: "putchar", Program: PutcharProgram(), ExitCode: 0, Stdout: "OK\n"},
	}
}

// AddProgram: fn add(a: I32, b: I32) -> I32 { return a + b; } main returns add(2, 3).
func AddProgram() *ast.Program {
	add := Fn("add", types.I32,
		Body(Ret(Bin(ast.OpAdd, Ref("a", types.I32), Ref("b", types.I32)))),
		"a", types.I32, "b", types.I32)
	main := Fn("main", types.I32, Body(Ret(Call("add", types.I32, Int(2), Int(3)))))
	return &ast.Program{Path: "add.bu", Functions: []*ast.Function{main, add}}
}

// PointProgram mutates one field of a struct literal and returns p.x + p.y*100.
func PointProgram() *ast.Program {
	point := types.Struct("Point")
	p := func() *ast.Name { return Ref("p", point) }
	main := Fn("main", types.I32, Body(
		Let("p", point, StructLit("Point", "x", Int(1), "y", Int(2))),
		Do(Assign(Field(p(), "x", types.I32), Int(10))),
		Ret(Bin(ast.OpAdd,
			Field(p(), "x", types.I32),
			Bin(ast.OpMul, Field(p(), "y", types.I32), Int(100)))),
	))
	return &ast.Program{
		Path:      "point.bu",
		Structs:   []*ast.Struct{StructDecl("Point", "x", types.I32, "y", types.I32)},
		Functions: []*ast.Function{main},
	}
}

// LoopProgram counts i from 0 to 5 with a while loop.
func LoopProgram() *ast.Program {
	i := func() *ast.Name { return Ref("i", types.I32) }
	main := Fn("main", types.I32, Body(
		Let("i", types.I32, Int(0)),
		While(Bin(ast.OpLt, i(), Int(5)), Body(
			Do(Assign(i(), Bin(ast.OpAdd, i(), Int(1)))),
		)),
		Ret(i()),
	))
	return &ast.Program{Path: "loop.bu", Functions: []*ast.Function{main}}
}

// ChainProgram resolves w.outer.inner.get() through three struct layouts.
// Wrapper is declared before the structs it contains.
func ChainProgram() *ast.Program {
	inner, outer, wrapper := types.Struct("Inner"), types.Struct("Outer"), types.Struct("Wrapper")

	innerDecl := StructDecl("Inner", "v", types.I32)
	innerDecl.Methods = []*ast.Function{
		Fn("get", types.I32, Body(Ret(Field(Ref(ast.ReceiverName, inner), "v", types.I32)))),
	}
	outerDecl := StructDecl("Outer", "k", types.I32, "inner", inner)
	wrapperDecl := StructDecl("Wrapper", "outer", outer)

	w := Ref("w", wrapper)
	main := Fn("main", types.I32, Body(
		Let("w", wrapper, StructLit("Wrapper",
			"outer", StructLit("Outer", "k", Int(1), "inner", StructLit("Inner", "v", Int(7))))),
		Ret(MethodCall(Field(Field(w, "outer", outer), "inner", inner), "get", types.I32)),
	))
	return &ast.Program{
		Path:      "chain.bu",
		Structs:   []*ast.Struct{wrapperDecl, outerDecl, innerDecl},
		Functions: []*ast.Function{main},
	}
}

// ParityProgram uses mutually recursive functions declared after main.
func ParityProgram() *ast.Program {
	n := func() *ast.Name { return Ref("n", types.I32) }
	parity := func(name, other string, base *ast.Literal) *ast.Function {
		return Fn(name, types.Bool, Body(
			If(Bin(ast.OpEq, n(), Int(0)), Body(Ret(base)), nil),
			Ret(Call(other, types.Bool, Bin(ast.OpSub, n(), Int(1)))),
		), "n", types.I32)
	}
	main := Fn("main", types.I32, Body(
		If(Call("isEven", types.Bool, Int(10)),
			Body(Ret(Int(1))),
			Body(Ret(Int(0)))),
	))
	return &ast.Program{
		Path: "parity.bu",
		Functions: []*ast.Function{
			main,
			parity("isEven", "isOdd", True()),
			parity("isOdd", "isEven", False()),
		},
	}
}

// BreakContinueProgram sums the odd numbers below 10 in an infinite loop.
func BreakContinueProgram() *ast.Program {
	i := func() *ast.Name { return Ref("i", types.I32) }
	sum := func() *ast.Name { return Ref("sum", types.I32) }
	main := Fn("main", types.I32, Body(
		Let("i", types.I32, Int(0)),
		Let("sum", types.I32, Int(0)),
		While(True(), Body(
			Do(Assign(i(), Bin(ast.OpAdd, i(), Int(1)))),
			If(Bin(ast.OpGt, i(), Int(10)), Body(&ast.Break{}), nil),
			If(Bin(ast.OpEq, Bin(ast.OpRem, i(), Int(2)), Int(0)), Body(&ast.Continue{}), nil),
			Do(Assign(sum(), Bin(ast.OpAdd, sum(), i()))),
		)),
		Ret(sum()),
	))
	return &ast.Program{Path: "breaks.bu", Functions: []*ast.Function{main}}
}

// PutcharProgram writes "OK\n" through an extern from a void helper.
func PutcharProgram() *ast.Program {
	emit := func(c int) ast.Stmt { return Do(Call("putchar", types.I32, Int(c))) }
	say := Fn("say", types.None, Body(emit('O'), emit('K'), emit('\n')))
	main := Fn("main", types.I32, Body(
		Do(Call("say", types.None)),
		Ret(Int(0)),
	))
	return &ast.Program{
		Path:      "putchar.bu",
		Functions: []*ast.Function{main, say},
		Externs: []*ast.Extern{{
			Name:   "putchar",
			Params: []ast.Param{{Name: "c", Type: types.I32}},
			Result: types.I32,
		}},
	}
}

// CyclicProgram contains A{b: B} and B{a: A}, which have no finite layout.
func CyclicProgram() *ast.Program {
	return &ast.Program{
		Path: "cyclic.bu",
		Structs: []*ast.Struct{
			StructDecl("A", "b", types.Struct("B")),
			StructDecl("B", "a", types.Struct("A")),
			StructDecl("C", "n", types.I32),
		},
		Functions: []*ast.Function{Fn("main", types.I32, Body(Ret(Int(0))))},
	}
}
