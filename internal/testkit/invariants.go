package testkit

import (
	"fmt"

	"bu/internal/ast"
	"bu/internal/types"
)

// CheckProgram runs the subset of type-checker guarantees the code generator
// relies on, so hand-built fixtures cannot drift from the input contract:
// 1) names resolve to a binding of the same type
// 2) calls target a declared callable with matching arity and result
// 3) member accesses name an existing field or method of the receiver
// 4) break/continue only appear inside loops
func CheckProgram(p *ast.Program) error {
	c := &checker{prog: p, funcs: make(map[string]*ast.Function), externs: make(map[string]*ast.Extern)}
	for _, fn := range p.Functions {
		c.funcs[fn.Name] = fn
	}
	for _, ext := range p.Externs {
		c.externs[ext.Name] = ext
	}
	for _, fn := range p.Functions {
		if err := c.function(fn, nil); err != nil {
			return fmt.Errorf("func %s: %w", fn.Name, err)
		}
	}
	for _, s := range p.Structs {
		for _, m := range s.Methods {
			if err := c.function(m, s); err != nil {
				return fmt.Errorf("method %s.%s: %w", s.Name, m.Name, err)
			}
		}
	}
	return nil
}

type checker struct {
	prog    *ast.Program
	funcs   map[string]*ast.Function
	externs map[string]*ast.Extern

	scopes []map[string]types.Type
	loops  int
}

func (c *checker) function(fn *ast.Function, owner *ast.Struct) error {
	c.scopes = []map[string]types.Type{{}}
	c.loops = 0
	if owner != nil {
		c.scopes[0][ast.ReceiverName] = types.Struct(owner.Name)
	}
	for _, prm := range fn.Params {
		c.scopes[0][prm.Name] = prm.Type
	}
	return c.block(fn.Body)
}

func (c *checker) block(b *ast.Block) error {
	c.scopes = append(c.scopes, map[string]types.Type{})
	defer func() { c.scopes = c.scopes[:len(c.scopes)-1] }()
	for _, s := range b.Stmts {
		if err := c.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) stmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.Block:
		return c.block(s)
	case *ast.VarDecl:
		if err := c.expr(s.Init); err != nil {
			return err
		}
		if s.Init.Type() != s.Type {
			return fmt.Errorf("let %s: %v initialized with %v", s.Name, s.Type, s.Init.Type())
		}
		c.scopes[len(c.scopes)-1][s.Name] = s.Type
		return nil
	case *ast.If:
		if err := c.expr(s.Cond); err != nil {
			return err
		}
		if err := c.block(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			return c.block(s.Else)
		}
		return nil
	case *ast.While:
		if err := c.expr(s.Cond); err != nil {
			return err
		}
		c.loops++
		defer func() { c.loops-- }()
		return c.block(s.Body)
	case *ast.Return:
		if s.Value == nil {
			return nil
		}
		return c.expr(s.Value)
	case *ast.ExprStmt:
		return c.expr(s.X)
	case *ast.Break, *ast.Continue:
		if c.loops == 0 {
			return fmt.Errorf("%T outside loop", s)
		}
		return nil
	default:
		return fmt.Errorf("unknown statement %T", s)
	}
}

func (c *checker) lookup(name string) (types.Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i][name]; ok {
			return t, true
		}
	}
	return types.None, false
}

func (c *checker) expr(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.Literal:
		return nil
	case *ast.Name:
		t, ok := c.lookup(e.Ident)
		if !ok {
			return fmt.Errorf("unbound name %q", e.Ident)
		}
		if t != e.Typ {
			return fmt.Errorf("name %q typed %v, bound as %v", e.Ident, e.Typ, t)
		}
		return nil
	case *ast.Binary:
		if err := c.expr(e.LHS); err != nil {
			return err
		}
		return c.expr(e.RHS)
	case *ast.Unary:
		return c.expr(e.X)
	case *ast.Assign:
		if err := c.expr(e.Target); err != nil {
			return err
		}
		return c.expr(e.Value)
	case *ast.Dot:
		if err := c.expr(e.X); err != nil {
			return err
		}
		return c.member(e)
	case *ast.Call:
		return c.call(e, nil)
	case *ast.StructLit:
		decl, ok := c.prog.Struct(e.Struct)
		if !ok {
			return fmt.Errorf("unknown struct %q", e.Struct)
		}
		for _, f := range e.Fields {
			if !hasField(decl, f.Name) {
				return fmt.Errorf("struct %s has no field %q", decl.Name, f.Name)
			}
			if err := c.expr(f.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown expression %T", e)
	}
}

func (c *checker) member(d *ast.Dot) error {
	recv := d.X.Type()
	decl, ok := c.prog.Struct(recv.Name)
	if !recv.IsStruct() || !ok {
		return fmt.Errorf("member access on non-struct %v", recv)
	}
	switch m := d.Member.(type) {
	case *ast.Name:
		for _, f := range decl.Fields {
			if f.Name == m.Ident {
				if f.Type != m.Typ {
					return fmt.Errorf("field %s.%s typed %v, declared %v", decl.Name, m.Ident, m.Typ, f.Type)
				}
				return nil
			}
		}
		return fmt.Errorf("struct %s has no field %q", decl.Name, m.Ident)
	case *ast.Call:
		return c.call(m, decl)
	default:
		return fmt.Errorf("invalid member %T", d.Member)
	}
}

func (c *checker) call(call *ast.Call, owner *ast.Struct) error {
	var params []ast.Param
	var result types.Type
	switch {
	case owner != nil:
		var found *ast.Function
		for _, m := range owner.Methods {
			if m.Name == call.Callee {
				found = m
			}
		}
		if found == nil {
			return fmt.Errorf("struct %s has no method %q", owner.Name, call.Callee)
		}
		params, result = found.Params, found.Result
	case c.funcs[call.Callee] != nil:
		params, result = c.funcs[call.Callee].Params, c.funcs[call.Callee].Result
	case c.externs[call.Callee] != nil:
		params, result = c.externs[call.Callee].Params, c.externs[call.Callee].Result
	default:
		return fmt.Errorf("unknown callee %q", call.Callee)
	}
	if len(params) != len(call.Args) {
		return fmt.Errorf("%s: %d arguments for %d parameters", call.Callee, len(call.Args), len(params))
	}
	if result != call.Typ {
		return fmt.Errorf("%s: call typed %v, returns %v", call.Callee, call.Typ, result)
	}
	for _, a := range call.Args {
		if err := c.expr(a); err != nil {
			return err
		}
	}
	return nil
}

func hasField(s *ast.Struct, name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
