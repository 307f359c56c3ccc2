// Package llvm lowers a type-checked program into an LLVM IR module.
//
// Lowering runs in two passes over one Session. The first registers every
// struct layout and every callable signature and declares them in the
// module; the second lowers each body. Because all declarations exist before
// any body is lowered, calls may target functions declared later in the
// source.
package llvm

import (
	"strconv"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"

	"bu/internal/ast"
	"bu/internal/diag"
	"bu/internal/layout"
	"bu/internal/symbols"
	"bu/internal/trace"
)

// Options configure a lowering session.
type Options struct {
	Target      layout.Target
	Tracer      trace.Tracer
	TraceParent uint64 // span the per-function spans nest under
}

// Session owns everything shared by the function lowerers of one program:
// the module under construction, struct layouts, signatures and the backend
// handles created for them. It is not safe for concurrent use.
type Session struct {
	opts    Options
	mod     *ir.Module
	layouts *layout.Manager
	syms    *symbols.Table

	structTypes map[string]*lltypes.StructType
	funcs       map[string]*ir.Func // by backend symbol
	bodySpan    uint64
}

// NewSession creates a session with an empty module for opts.Target.
func NewSession(opts Options) *Session {
	if opts.Target.Triple == "" {
		opts.Target = layout.HostTarget()
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	mod := ir.NewModule()
	mod.TargetTriple = opts.Target.Triple
	return &Session{
		opts:        opts,
		mod:         mod,
		layouts:     layout.NewManager(opts.Target),
		syms:        symbols.NewTable(0),
		structTypes: make(map[string]*lltypes.StructType),
		funcs:       make(map[string]*ir.Func),
	}
}

// Module returns the module under construction.
func (s *Session) Module() *ir.Module { return s.mod }

// Layouts returns the struct layouts registered by Generate.
func (s *Session) Layouts() *layout.Manager { return s.layouts }

// Generate lowers the whole program into the session module. Struct cycles
// are reported as a *layout.LayoutError; violated invariants as a
// *diag.InternalError carrying the partially built module.
func (s *Session) Generate(p *ast.Program) (err error) {
	defer diag.Recover(&err, func(ie *diag.InternalError) {
		ie.Dump = Dump(s.mod)
	})

	if p.Path != "" {
		s.mod.SourceFilename = p.Path
	}
	if err := s.register(p); err != nil {
		return err
	}
	s.lowerBodies(p)
	return nil
}

// register is the first pass: layouts, struct types, signatures and function
// declarations.
func (s *Session) register(p *ast.Program) error {
	if err := s.layouts.Register(p.Structs); err != nil {
		return err
	}
	for _, name := range s.layouts.Order() {
		sl := s.layouts.Layout(name)
		fields := make([]lltypes.Type, 0, len(sl.Fields))
		for _, f := range sl.Fields {
			fields = append(fields, s.llvmType(f.Type))
		}
		def := s.mod.NewTypeDef(name, lltypes.NewStruct(fields...))
		st, ok := def.(*lltypes.StructType)
		diag.Assert(ok, diag.PhaseLower, "type definition of %s is %T", name, def)
		s.structTypes[name] = st
	}

	s.syms.Register(p)
	s.funcs = make(map[string]*ir.Func, s.syms.Len())
	for _, sig := range s.syms.All() {
		params := make([]*ir.Param, 0, len(sig.Params))
		for i, pt := range sig.Params {
			name := sig.ParamNames[i]
			if name == "" {
				name = "arg" + strconv.Itoa(i)
			}
			params = append(params, ir.NewParam(name, s.llvmType(pt)))
		}
		s.funcs[sig.Symbol] = s.mod.NewFunc(sig.Symbol, s.llvmType(sig.Result), params...)
	}
	return nil
}

// lowerBodies is the second pass. Methods come first, matching the order
// their declarations were emitted in.
func (s *Session) lowerBodies(p *ast.Program) {
	span := trace.Begin(s.opts.Tracer, trace.ScopePass, "lower-bodies", s.opts.TraceParent)
	s.bodySpan = span.ID()
	count := 0
	for _, st := range p.Structs {
		for _, m := range st.Methods {
			s.emitFunction(s.syms.LookupMethod(st.Name, m.Name), m)
			count++
		}
	}
	for _, fn := range p.Functions {
		s.emitFunction(s.syms.Lookup(fn.Name), fn)
		count++
	}
	span.WithExtra("funcs", strconv.Itoa(count)).End("")
}

func (s *Session) function(sig *symbols.Signature) *ir.Func {
	f, ok := s.funcs[sig.Symbol]
	if !ok {
		diag.Bail(diag.PhaseLower, "no declaration for %s", sig)
	}
	return f
}

func (s *Session) structType(name string) *lltypes.StructType {
	st, ok := s.structTypes[name]
	if !ok {
		diag.Bail(diag.PhaseLower, "no type definition for struct %q", name)
	}
	return st
}

// String renders the current module text.
func (s *Session) String() string {
	return s.mod.String()
}
