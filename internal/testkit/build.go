// Package testkit provides typed-program fixtures shared by the tests of the
// code generator, the build pipeline and the CLI.
package testkit

import (
	"strconv"

	"bu/internal/ast"
	"bu/internal/types"
)

// Int is an I32 literal.
func Int(v int) *ast.Literal {
	return &ast.Literal{Text: strconv.Itoa(v), Typ: types.I32}
}

// Lit is a literal of any primitive type.
func Lit(text string, t types.Type) *ast.Literal {
	return &ast.Literal{Text: text, Typ: t}
}

func True() *ast.Literal  { return Lit("true", types.Bool) }
func False() *ast.Literal { return Lit("false", types.Bool) }

// Ref is a typed name reference.
func Ref(name string, t types.Type) *ast.Name {
	return &ast.Name{Ident: name, Typ: t}
}

// Bin builds a binary expression. Comparisons are typed Bool, everything
// else takes the type of lhs.
func Bin(op ast.BinaryOp, lhs, rhs ast.Expr) *ast.Binary {
	t := lhs.Type()
	if op.IsComparison() {
		t = types.Bool
	}
	return &ast.Binary{Op: op, LHS: lhs, RHS: rhs, Typ: t}
}

func Neg(x ast.Expr) *ast.Unary { return &ast.Unary{Op: ast.OpNeg, X: x, Typ: x.Type()} }
func Not(x ast.Expr) *ast.Unary { return &ast.Unary{Op: ast.OpNot, X: x, Typ: types.Bool} }

func Assign(target, value ast.Expr) *ast.Assign {
	return &ast.Assign{Target: target, Value: value, Typ: target.Type()}
}

// Field is `x.name` with the field's resolved type.
func Field(x ast.Expr, name string, t types.Type) *ast.Dot {
	return &ast.Dot{X: x, Member: Ref(name, t), Typ: t}
}

// MethodCall is `x.name(args...)` with the method's result type.
func MethodCall(x ast.Expr, name string, result types.Type, args ...ast.Expr) *ast.Dot {
	return &ast.Dot{X: x, Member: Call(name, result, args...), Typ: result}
}

func Call(callee string, result types.Type, args ...ast.Expr) *ast.Call {
	return &ast.Call{Callee: callee, Args: args, Typ: result}
}

// StructLit takes alternating field names and values.
func StructLit(name string, kv ...any) *ast.StructLit {
	lit := &ast.StructLit{Struct: name}
	for i := 0; i+1 < len(kv); i += 2 {
		lit.Fields = append(lit.Fields, ast.FieldInit{Name: kv[i].(string), Value: kv[i+1].(ast.Expr)})
	}
	return lit
}

func Let(name string, t types.Type, init ast.Expr) *ast.VarDecl {
	return &ast.VarDecl{Name: name, Type: t, Init: init}
}

func Ret(v ast.Expr) *ast.Return { return &ast.Return{Value: v} }

func Do(x ast.Expr) *ast.ExprStmt { return &ast.ExprStmt{X: x} }

func Body(stmts ...ast.Stmt) *ast.Block { return &ast.Block{Stmts: stmts} }

func If(cond ast.Expr, then, els *ast.Block) *ast.If {
	return &ast.If{Cond: cond, Then: then, Else: els}
}

func While(cond ast.Expr, body *ast.Block) *ast.While {
	return &ast.While{Cond: cond, Body: body}
}

// Fn declares a function. params alternate names and types.
func Fn(name string, result types.Type, body *ast.Block, params ...any) *ast.Function {
	fn := &ast.Function{Name: name, Result: result, Body: body}
	for i := 0; i+1 < len(params); i += 2 {
		fn.Params = append(fn.Params, ast.Param{Name: params[i].(string), Type: params[i+1].(types.Type)})
	}
	return fn
}

// StructDecl declares a struct. fields alternate names and types.
func StructDecl(name string, fields ...any) *ast.Struct {
	s := &ast.Struct{Name: name}
	for i := 0; i+1 < len(fields); i += 2 {
		s.Fields = append(s.Fields, ast.Field{Name: fields[i].(string), Type: fields[i+1].(types.Type)})
	}
	return s
}
