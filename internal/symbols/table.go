package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"bu/internal/ast"
	"bu/internal/diag"
)

// SymbolID indexes a signature inside a Table. Zero is invalid.
type SymbolID uint32

const NoSymbolID SymbolID = 0

// key identifies a callable: free functions and externs by name, methods by
// (owner, name).
type key struct {
	owner string
	name  string
}

// Table aggregates the signatures of one program in registration order.
type Table struct {
	sigs    []*Signature // sigs[0] is unused
	byKey   map[key]SymbolID
	symbols map[string]SymbolID
}

// NewTable builds an empty table with a capacity hint.
func NewTable(capHint uint) *Table {
	n, err := safecast.Conv[int](capHint)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	t := &Table{
		sigs:    make([]*Signature, 1, n+1),
		byKey:   make(map[key]SymbolID, n),
		symbols: make(map[string]SymbolID, n),
	}
	return t
}

// Register records every callable of p: structs' methods first, then free
// functions, then externs.
func (t *Table) Register(p *ast.Program) {
	for _, s := range p.Structs {
		for _, m := range s.Methods {
			t.DeclareMethod(s.Name, m)
		}
	}
	for _, fn := range p.Functions {
		t.DeclareFunction(fn)
	}
	for _, ext := range p.Externs {
		t.DeclareExtern(ext)
	}
}

func (t *Table) DeclareFunction(fn *ast.Function) SymbolID {
	return t.add(key{name: fn.Name}, signatureOf(KindFunction, "", fn.Name, fn.Params, fn.Result))
}

func (t *Table) DeclareMethod(owner string, fn *ast.Function) SymbolID {
	return t.add(key{owner: owner, name: fn.Name}, signatureOf(KindMethod, owner, fn.Name, fn.Params, fn.Result))
}

func (t *Table) DeclareExtern(ext *ast.Extern) SymbolID {
	return t.add(key{name: ext.Name}, signatureOf(KindExtern, "", ext.Name, ext.Params, ext.Result))
}

func (t *Table) add(k key, sig *Signature) SymbolID {
	if _, dup := t.byKey[k]; dup {
		diag.Bail(diag.PhaseSymbols, "callable %s declared twice", sig.String())
	}
	if _, dup := t.symbols[sig.Symbol]; dup {
		diag.Bail(diag.PhaseSymbols, "backend symbol %q bound twice", sig.Symbol)
	}
	id, err := safecast.Conv[SymbolID](len(t.sigs))
	if err != nil {
		panic(fmt.Errorf("symbol id overflow: %w", err))
	}
	t.sigs = append(t.sigs, sig)
	t.byKey[k] = id
	t.symbols[sig.Symbol] = id
	return id
}

// TryLookup finds a free function or extern without failing.
func (t *Table) TryLookup(name string) (*Signature, bool) {
	id, ok := t.byKey[key{name: name}]
	if !ok {
		return nil, false
	}
	return t.sigs[id], true
}

// Lookup finds a free function or extern. A missing callee is an internal
// error: the checker resolved every call.
func (t *Table) Lookup(name string) *Signature {
	sig, ok := t.TryLookup(name)
	if !ok {
		diag.Bail(diag.PhaseSymbols, "unknown callee %q", name)
	}
	return sig
}

// LookupMethod finds method name of struct owner.
func (t *Table) LookupMethod(owner, name string) *Signature {
	id, ok := t.byKey[key{owner: owner, name: name}]
	if !ok {
		diag.Bail(diag.PhaseSymbols, "struct %s has no method %q", owner, name)
	}
	return t.sigs[id]
}

// All returns signatures in registration order.
func (t *Table) All() []*Signature {
	out := make([]*Signature, len(t.sigs)-1)
	copy(out, t.sigs[1:])
	return out
}

// Len reports the number of registered callables.
func (t *Table) Len() int { return len(t.sigs) - 1 }
