package llvm

import (
	"slices"
	"strconv"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"bu/internal/ast"
	"bu/internal/diag"
	"bu/internal/scope"
	"bu/internal/symbols"
	"bu/internal/trace"
	"bu/internal/types"
)

// slot is the stack storage of a local variable or parameter.
type slot struct {
	ptr  *ir.InstAlloca
	typ  types.Type
	elem lltypes.Type
}

// loopTargets are the jump targets of break and continue inside one loop.
type loopTargets struct {
	brk  *ir.Block // after-block
	cont *ir.Block // condition block
}

// funcEmitter lowers exactly one body. It is discarded afterwards.
type funcEmitter struct {
	sess *Session
	sig  *symbols.Signature
	fn   *ir.Func

	entry    *ir.Block
	cur      *ir.Block
	nallocas int // allocas at the head of entry

	scopes *scope.Stack[*slot]
	loops  []loopTargets
	names  map[string]int
}

func (s *Session) emitFunction(sig *symbols.Signature, decl *ast.Function) {
	span := trace.Begin(s.opts.Tracer, trace.ScopeFunc, "func:"+sig.Symbol, s.bodySpan)
	defer span.End("")
	defer func() {
		// name the function in internal errors raised while lowering it
		if r := recover(); r != nil {
			ie := diag.FromPanic(diag.PhaseLower, r)
			if ie.Func == "" {
				ie.Func = sig.String()
			}
			panic(ie)
		}
	}()

	fe := &funcEmitter{
		sess:   s,
		sig:    sig,
		fn:     s.function(sig),
		scopes: scope.New[*slot](),
		names:  make(map[string]int),
	}
	diag.Assert(len(fe.fn.Blocks) == 0, diag.PhaseLower, "body of %s lowered twice", sig)
	fe.entry = fe.fn.NewBlock(fe.uniq("entry"))
	fe.cur = fe.entry

	// parameters live in the outermost scope; the body block opens its own
	fe.scopes.Enter()
	for i, prm := range fe.fn.Params {
		sl := fe.alloca(sig.Params[i], sig.ParamNames[i]+".addr")
		fe.open().NewStore(prm, sl.ptr)
		fe.scopes.Bind(sig.ParamNames[i], sl)
	}

	if fe.lowerBlock(decl.Body) == flowOpen {
		if sig.HasResult() {
			fe.cur.NewUnreachable()
		} else {
			fe.cur.NewRet(nil)
		}
	}
	fe.scopes.Leave()
	diag.Assert(fe.scopes.Depth() == 0, diag.PhaseScope, "scope stack unbalanced after %s", sig)
}

// open returns the insertion block, which must not be terminated yet.
func (fe *funcEmitter) open() *ir.Block {
	if fe.cur.Term != nil {
		diag.Bail(diag.PhaseLower, "append to terminated block %s", fe.cur.Ident())
	}
	return fe.cur
}

// newBlock appends a block to the function without moving the insertion
// point.
func (fe *funcEmitter) newBlock(name string) *ir.Block {
	return fe.fn.NewBlock(fe.uniq(name))
}

// uniq returns name, suffixed with a counter when already used in this
// function.
func (fe *funcEmitter) uniq(name string) string {
	n := fe.names[name]
	fe.names[name] = n + 1
	if n == 0 {
		return name
	}
	return name + strconv.Itoa(n)
}

// alloca reserves a stack slot at the head of the entry block so every
// local is promotable to a register.
func (fe *funcEmitter) alloca(t types.Type, name string) *slot {
	elem := fe.sess.llvmType(t)
	inst := ir.NewAlloca(elem)
	inst.SetName(fe.uniq(name))
	fe.entry.Insts = slices.Insert(fe.entry.Insts, fe.nallocas, ir.Instruction(inst))
	fe.nallocas++
	return &slot{ptr: inst, typ: t, elem: elem}
}

// spill stores a value into a fresh temporary and returns its address.
func (fe *funcEmitter) spill(v value.Value, t types.Type) value.Value {
	sl := fe.alloca(t, "tmp")
	fe.open().NewStore(v, sl.ptr)
	return sl.ptr
}

func (fe *funcEmitter) load(t types.Type, ptr value.Value) value.Value {
	return fe.open().NewLoad(fe.sess.llvmType(t), ptr)
}
