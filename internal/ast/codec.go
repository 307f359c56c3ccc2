package ast

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"bu/internal/types"
)

// Current schema version - increment when the wire format changes.
const programSchemaVersion uint16 = 1

// ErrSchemaMismatch is returned for typed-program files written by an
// incompatible checker.
var ErrSchemaMismatch = errors.New("typed program schema mismatch")

// filePayload is the on-disk envelope of a `.tast` typed program.
type filePayload struct {
	Schema  uint16
	Program wireProgram
}

type wireProgram struct {
	Path      string
	Structs   []wireStruct
	Functions []wireFunc
	Externs   []wireFunc
}

type wireStruct struct {
	Name    string
	Fields  []wireParam
	Methods []wireFunc
	Line    int `msgpack:",omitempty"`
	Col     int `msgpack:",omitempty"`
}

type wireParam struct {
	Name string
	Type string
}

type wireFunc struct {
	Name   string
	Params []wireParam
	Result string    `msgpack:",omitempty"`
	Body   *wireStmt `msgpack:",omitempty"` // nil for externs
	Line   int       `msgpack:",omitempty"`
	Col    int       `msgpack:",omitempty"`
}

type stmtKind uint8

const (
	wireBlock stmtKind = iota + 1
	wireVarDecl
	wireIf
	wireWhile
	wireReturn
	wireExprStmt
	wireBreak
	wireContinue
)

type wireStmt struct {
	Kind  stmtKind
	Stmts []wireStmt `msgpack:",omitempty"`
	Name  string     `msgpack:",omitempty"`
	Type  string     `msgpack:",omitempty"`
	X     *wireExpr  `msgpack:",omitempty"`
	Then  *wireStmt  `msgpack:",omitempty"` // also the loop body
	Else  *wireStmt  `msgpack:",omitempty"`
	Line  int        `msgpack:",omitempty"`
	Col   int        `msgpack:",omitempty"`
}

type exprKind uint8

const (
	wireLiteral exprKind = iota + 1
	wireName
	wireBinary
	wireUnary
	wireAssign
	wireDot
	wireCall
	wireStructLit
)

// wireExpr keeps operands in Args: lhs/rhs, target/value, receiver/member,
// call arguments or struct literal values (named by Fields).
type wireExpr struct {
	Kind   exprKind
	Text   string     `msgpack:",omitempty"`
	Op     uint8      `msgpack:",omitempty"`
	Type   string     `msgpack:",omitempty"`
	Args   []wireExpr `msgpack:",omitempty"`
	Fields []string   `msgpack:",omitempty"`
	Line   int        `msgpack:",omitempty"`
	Col    int        `msgpack:",omitempty"`
}

// Encode writes p to w as a schema-versioned msgpack document.
func Encode(w io.Writer, p *Program) error {
	payload := filePayload{Schema: programSchemaVersion, Program: encodeProgram(p)}
	if err := msgpack.NewEncoder(w).Encode(&payload); err != nil {
		return fmt.Errorf("encode typed program: %w", err)
	}
	return nil
}

// Decode reads a typed program written by Encode.
func Decode(r io.Reader) (*Program, error) {
	var payload filePayload
	if err := msgpack.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode typed program: %w", err)
	}
	if payload.Schema != programSchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, payload.Schema, programSchemaVersion)
	}
	return decodeProgram(&payload.Program)
}

// ReadFile decodes the typed program stored at path.
func ReadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// WriteFile encodes p into the file at path.
func WriteFile(path string, p *Program) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := Encode(bw, p); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeProgram(p *Program) wireProgram {
	out := wireProgram{Path: p.Path}
	for _, s := range p.Structs {
		ws := wireStruct{Name: s.Name, Line: s.Pos.Line, Col: s.Pos.Col}
		for _, f := range s.Fields {
			ws.Fields = append(ws.Fields, wireParam{Name: f.Name, Type: f.Type.String()})
		}
		for _, m := range s.Methods {
			ws.Methods = append(ws.Methods, encodeFunc(m))
		}
		out.Structs = append(out.Structs, ws)
	}
	for _, fn := range p.Functions {
		out.Functions = append(out.Functions, encodeFunc(fn))
	}
	for _, ext := range p.Externs {
		out.Externs = append(out.Externs, wireFunc{
			Name:   ext.Name,
			Params: encodeParams(ext.Params),
			Result: resultText(ext.Result),
			Line:   ext.Pos.Line,
			Col:    ext.Pos.Col,
		})
	}
	return out
}

func encodeParams(params []Param) []wireParam {
	out := make([]wireParam, 0, len(params))
	for _, p := range params {
		out = append(out, wireParam{Name: p.Name, Type: p.Type.String()})
	}
	return out
}

func resultText(t types.Type) string {
	if t.IsNone() {
		return ""
	}
	return t.String()
}

func encodeFunc(fn *Function) wireFunc {
	wf := wireFunc{
		Name:   fn.Name,
		Params: encodeParams(fn.Params),
		Result: resultText(fn.Result),
		Line:   fn.Pos.Line,
		Col:    fn.Pos.Col,
	}
	if fn.Body != nil {
		body := encodeStmt(fn.Body)
		wf.Body = &body
	}
	return wf
}

func encodeBlock(b *Block) *wireStmt {
	if b == nil {
		return nil
	}
	ws := encodeStmt(b)
	return &ws
}

func encodeStmt(s Stmt) wireStmt {
	ws := wireStmt{Line: s.Position().Line, Col: s.Position().Col}
	switch s := s.(type) {
	case *Block:
		ws.Kind = wireBlock
		for _, inner := range s.Stmts {
			ws.Stmts = append(ws.Stmts, encodeStmt(inner))
		}
	case *VarDecl:
		ws.Kind = wireVarDecl
		ws.Name = s.Name
		ws.Type = s.Type.String()
		ws.X = encodeExprPtr(s.Init)
	case *If:
		ws.Kind = wireIf
		ws.X = encodeExprPtr(s.Cond)
		ws.Then = encodeBlock(s.Then)
		ws.Else = encodeBlock(s.Else)
	case *While:
		ws.Kind = wireWhile
		ws.X = encodeExprPtr(s.Cond)
		ws.Then = encodeBlock(s.Body)
	case *Return:
		ws.Kind = wireReturn
		ws.X = encodeExprPtr(s.Value)
	case *ExprStmt:
		ws.Kind = wireExprStmt
		ws.X = encodeExprPtr(s.X)
	case *Break:
		ws.Kind = wireBreak
	case *Continue:
		ws.Kind = wireContinue
	default:
		panic(fmt.Sprintf("ast: cannot encode statement %T", s))
	}
	return ws
}

func encodeExprPtr(e Expr) *wireExpr {
	if e == nil {
		return nil
	}
	we := encodeExpr(e)
	return &we
}

func encodeExpr(e Expr) wireExpr {
	we := wireExpr{Line: e.Position().Line, Col: e.Position().Col}
	switch e := e.(type) {
	case *Literal:
		we.Kind, we.Text, we.Type = wireLiteral, e.Text, e.Typ.String()
	case *Name:
		we.Kind, we.Text, we.Type = wireName, e.Ident, e.Typ.String()
	case *Binary:
		we.Kind, we.Op, we.Type = wireBinary, uint8(e.Op), e.Typ.String()
		we.Args = []wireExpr{encodeExpr(e.LHS), encodeExpr(e.RHS)}
	case *Unary:
		we.Kind, we.Op, we.Type = wireUnary, uint8(e.Op), e.Typ.String()
		we.Args = []wireExpr{encodeExpr(e.X)}
	case *Assign:
		we.Kind, we.Type = wireAssign, e.Typ.String()
		we.Args = []wireExpr{encodeExpr(e.Target), encodeExpr(e.Value)}
	case *Dot:
		we.Kind, we.Type = wireDot, e.Typ.String()
		we.Args = []wireExpr{encodeExpr(e.X), encodeExpr(e.Member)}
	case *Call:
		we.Kind, we.Text, we.Type = wireCall, e.Callee, e.Typ.String()
		for _, a := range e.Args {
			we.Args = append(we.Args, encodeExpr(a))
		}
	case *StructLit:
		we.Kind, we.Text = wireStructLit, e.Struct
		for _, f := range e.Fields {
			we.Fields = append(we.Fields, f.Name)
			we.Args = append(we.Args, encodeExpr(f.Value))
		}
	default:
		panic(fmt.Sprintf("ast: cannot encode expression %T", e))
	}
	return we
}

func decodeProgram(wp *wireProgram) (*Program, error) {
	p := &Program{Path: wp.Path}
	for i := range wp.Structs {
		ws := &wp.Structs[i]
		s := &Struct{Name: ws.Name, Pos: Pos{Line: ws.Line, Col: ws.Col}}
		params, err := decodeParams(ws.Fields)
		if err != nil {
			return nil, fmt.Errorf("struct %s: %w", ws.Name, err)
		}
		for _, prm := range params {
			s.Fields = append(s.Fields, Field(prm))
		}
		for j := range ws.Methods {
			m, err := decodeFunc(&ws.Methods[j])
			if err != nil {
				return nil, fmt.Errorf("struct %s: %w", ws.Name, err)
			}
			s.Methods = append(s.Methods, m)
		}
		p.Structs = append(p.Structs, s)
	}
	for i := range wp.Functions {
		fn, err := decodeFunc(&wp.Functions[i])
		if err != nil {
			return nil, err
		}
		p.Functions = append(p.Functions, fn)
	}
	for i := range wp.Externs {
		wf := &wp.Externs[i]
		params, err := decodeParams(wf.Params)
		if err != nil {
			return nil, fmt.Errorf("extern %s: %w", wf.Name, err)
		}
		result, err := types.Parse(wf.Result)
		if err != nil {
			return nil, fmt.Errorf("extern %s: %w", wf.Name, err)
		}
		p.Externs = append(p.Externs, &Extern{
			Name:   wf.Name,
			Params: params,
			Result: result,
			Pos:    Pos{Line: wf.Line, Col: wf.Col},
		})
	}
	return p, nil
}

func decodeParams(in []wireParam) ([]Param, error) {
	out := make([]Param, 0, len(in))
	for _, wp := range in {
		t, err := types.Parse(wp.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", wp.Name, err)
		}
		out = append(out, Param{Name: wp.Name, Type: t})
	}
	return out, nil
}

func decodeFunc(wf *wireFunc) (*Function, error) {
	params, err := decodeParams(wf.Params)
	if err != nil {
		return nil, fmt.Errorf("func %s: %w", wf.Name, err)
	}
	result, err := types.Parse(wf.Result)
	if err != nil {
		return nil, fmt.Errorf("func %s: %w", wf.Name, err)
	}
	fn := &Function{Name: wf.Name, Params: params, Result: result, Pos: Pos{Line: wf.Line, Col: wf.Col}}
	if wf.Body == nil {
		return nil, fmt.Errorf("func %s: missing body", wf.Name)
	}
	fn.Body, err = decodeBlock(wf.Body)
	if err != nil {
		return nil, fmt.Errorf("func %s: %w", wf.Name, err)
	}
	return fn, nil
}

func decodeBlock(ws *wireStmt) (*Block, error) {
	if ws == nil {
		return nil, nil
	}
	s, err := decodeStmt(ws)
	if err != nil {
		return nil, err
	}
	b, ok := s.(*Block)
	if !ok {
		return nil, fmt.Errorf("%d:%d: expected block, got %T", ws.Line, ws.Col, s)
	}
	return b, nil
}

func decodeStmt(ws *wireStmt) (Stmt, error) {
	pos := Pos{Line: ws.Line, Col: ws.Col}
	switch ws.Kind {
	case wireBlock:
		b := &Block{Pos: pos}
		for i := range ws.Stmts {
			s, err := decodeStmt(&ws.Stmts[i])
			if err != nil {
				return nil, err
			}
			b.Stmts = append(b.Stmts, s)
		}
		return b, nil
	case wireVarDecl:
		t, err := types.Parse(ws.Type)
		if err != nil {
			return nil, err
		}
		init, err := decodeRequired(ws.X, pos)
		if err != nil {
			return nil, err
		}
		return &VarDecl{Name: ws.Name, Type: t, Init: init, Pos: pos}, nil
	case wireIf:
		cond, err := decodeRequired(ws.X, pos)
		if err != nil {
			return nil, err
		}
		then, err := decodeBlock(ws.Then)
		if err != nil {
			return nil, err
		}
		if then == nil {
			return nil, fmt.Errorf("%d:%d: if without then branch", pos.Line, pos.Col)
		}
		els, err := decodeBlock(ws.Else)
		if err != nil {
			return nil, err
		}
		return &If{Cond: cond, Then: then, Else: els, Pos: pos}, nil
	case wireWhile:
		cond, err := decodeRequired(ws.X, pos)
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(ws.Then)
		if err != nil {
			return nil, err
		}
		if body == nil {
			return nil, fmt.Errorf("%d:%d: while without body", pos.Line, pos.Col)
		}
		return &While{Cond: cond, Body: body, Pos: pos}, nil
	case wireReturn:
		ret := &Return{Pos: pos}
		if ws.X != nil {
			v, err := decodeExpr(ws.X)
			if err != nil {
				return nil, err
			}
			ret.Value = v
		}
		return ret, nil
	case wireExprStmt:
		x, err := decodeRequired(ws.X, pos)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{X: x, Pos: pos}, nil
	case wireBreak:
		return &Break{Pos: pos}, nil
	case wireContinue:
		return &Continue{Pos: pos}, nil
	default:
		return nil, fmt.Errorf("%d:%d: unknown statement kind %d", pos.Line, pos.Col, ws.Kind)
	}
}

func decodeRequired(we *wireExpr, pos Pos) (Expr, error) {
	if we == nil {
		return nil, fmt.Errorf("%d:%d: missing expression", pos.Line, pos.Col)
	}
	return decodeExpr(we)
}

func decodeExpr(we *wireExpr) (Expr, error) {
	pos := Pos{Line: we.Line, Col: we.Col}
	typ, err := types.Parse(we.Type)
	if err != nil {
		return nil, fmt.Errorf("%d:%d: %w", pos.Line, pos.Col, err)
	}
	args := make([]Expr, 0, len(we.Args))
	for i := range we.Args {
		a, err := decodeExpr(&we.Args[i])
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	arity := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%d:%d: expression kind %d wants %d operands, got %d", pos.Line, pos.Col, we.Kind, n, len(args))
		}
		return nil
	}

	switch we.Kind {
	case wireLiteral:
		return &Literal{Text: we.Text, Typ: typ, Pos: pos}, nil
	case wireName:
		return &Name{Ident: we.Text, Typ: typ, Pos: pos}, nil
	case wireBinary:
		if err := arity(2); err != nil {
			return nil, err
		}
		return &Binary{Op: BinaryOp(we.Op), LHS: args[0], RHS: args[1], Typ: typ, Pos: pos}, nil
	case wireUnary:
		if err := arity(1); err != nil {
			return nil, err
		}
		return &Unary{Op: UnaryOp(we.Op), X: args[0], Typ: typ, Pos: pos}, nil
	case wireAssign:
		if err := arity(2); err != nil {
			return nil, err
		}
		return &Assign{Target: args[0], Value: args[1], Typ: typ, Pos: pos}, nil
	case wireDot:
		if err := arity(2); err != nil {
			return nil, err
		}
		switch args[1].(type) {
		case *Name, *Call:
		default:
			return nil, fmt.Errorf("%d:%d: member must be a field name or a call, got %T", pos.Line, pos.Col, args[1])
		}
		return &Dot{X: args[0], Member: args[1], Typ: typ, Pos: pos}, nil
	case wireCall:
		return &Call{Callee: we.Text, Args: args, Typ: typ, Pos: pos}, nil
	case wireStructLit:
		if len(we.Fields) != len(args) {
			return nil, fmt.Errorf("%d:%d: struct literal has %d names for %d values", pos.Line, pos.Col, len(we.Fields), len(args))
		}
		lit := &StructLit{Struct: we.Text, Pos: pos}
		for i, name := range we.Fields {
			lit.Fields = append(lit.Fields, FieldInit{Name: name, Value: args[i]})
		}
		return lit, nil
	default:
		return nil, fmt.Errorf("%d:%d: unknown expression kind %d", pos.Line, pos.Col, we.Kind)
	}
}
