package symbols_test

import (
	"slices"
	"strings"
	"testing"

	"bu/internal/ast"
	"bu/internal/diag"
	"bu/internal/symbols"
	"bu/internal/testkit"
	"bu/internal/types"
)

func expectInternal(t *testing.T, want string, fn func()) {
	t.Helper()
	var err error
	func() {
		defer diag.Recover(&err, nil)
		fn()
	}()
	if _, ok := diag.AsInternal(err); !ok || !strings.Contains(err.Error(), want) {
		t.Fatalf("got %v, want internal error containing %q", err, want)
	}
}

func TestRegisterProgram(t *testing.T) {
	p := testkit.ChainProgram()
	p.Externs = append(p.Externs, &ast.Extern{Name: "putchar", Params: []ast.Param{{Name: "c", Type: types.I32}}, Result: types.I32})

	tab := symbols.NewTable(4)
	tab.Register(p)
	if tab.Len() != 3 {
		t.Fatalf("Len = %d, want 3", tab.Len())
	}

	get := tab.LookupMethod("Inner", "get")
	if get.Kind != symbols.KindMethod || get.Symbol != "Inner_get" {
		t.Fatalf("method signature = %+v", get)
	}
	if !slices.Equal(get.Params, []types.Type{types.Struct("Inner")}) {
		t.Fatalf("receiver not prepended: %v", get.Params)
	}
	if get.String() != "Inner.get(this: Inner) -> I32" {
		t.Fatalf("String() = %q", get.String())
	}

	if ext := tab.Lookup("putchar"); ext.Kind != symbols.KindExtern || !ext.HasResult() {
		t.Fatalf("extern signature = %+v", ext)
	}

	var order []string
	for _, sig := range tab.All() {
		order = append(order, sig.Symbol)
	}
	if !slices.Equal(order, []string{"Inner_get", "main", "putchar"}) {
		t.Fatalf("All() order = %v", order)
	}
}

func TestMethodsAreKeyedByOwner(t *testing.T) {
	tab := symbols.NewTable(0)
	fn := testkit.Fn("get", types.I32, testkit.Body())
	tab.DeclareMethod("A", fn)
	tab.DeclareMethod("B", fn)
	tab.DeclareFunction(fn)

	if tab.LookupMethod("A", "get").Symbol == tab.LookupMethod("B", "get").Symbol {
		t.Fatal("methods of different structs share a symbol")
	}
	if tab.Lookup("get").Kind != symbols.KindFunction {
		t.Fatal("free function shadowed by methods")
	}
}

func TestLookupFailuresAreInternal(t *testing.T) {
	tab := symbols.NewTable(0)
	tab.DeclareFunction(testkit.Fn("main", types.I32, testkit.Body()))

	if _, ok := tab.TryLookup("nope"); ok {
		t.Fatal("TryLookup found a missing callee")
	}
	expectInternal(t, `unknown callee "nope"`, func() { tab.Lookup("nope") })
	expectInternal(t, `has no method "main"`, func() { tab.LookupMethod("P", "main") })
	expectInternal(t, "declared twice", func() {
		tab.DeclareFunction(testkit.Fn("main", types.I32, testkit.Body()))
	})
}
