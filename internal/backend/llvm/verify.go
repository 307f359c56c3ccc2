package llvm

import (
	"errors"
	"fmt"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
)

// Verify checks the structural well-formedness the external toolchain
// relies on: every block of a defined function ends in exactly one
// terminator, branches stay inside their function and never target the
// entry block, returns agree with the signature and direct calls match
// their callee. All findings are reported together.
func Verify(m *ir.Module) error {
	var errs []error
	for _, f := range m.Funcs {
		errs = append(errs, verifyFunc(f)...)
	}
	return errors.Join(errs...)
}

func verifyFunc(f *ir.Func) []error {
	if len(f.Blocks) == 0 {
		return nil // declaration
	}
	var errs []error
	report := func(b *ir.Block, format string, args ...any) {
		errs = append(errs, fmt.Errorf("@%s %s: %s", f.Name(), b.Ident(), fmt.Sprintf(format, args...)))
	}

	owned := make(map[*ir.Block]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		owned[b] = true
	}
	entry := f.Blocks[0]
	retType := f.Sig.RetType

	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			if call, ok := inst.(*ir.InstCall); ok {
				if err := verifyCall(call); err != nil {
					report(b, "%v", err)
				}
			}
		}

		if b.Term == nil {
			report(b, "block has no terminator")
			continue
		}
		for _, succ := range b.Term.Succs() {
			switch {
			case !owned[succ]:
				report(b, "branch to block %s of another function", succ.Ident())
			case succ == entry:
				report(b, "branch to entry block")
			}
		}
		if ret, ok := b.Term.(*ir.TermRet); ok {
			switch {
			case ret.X == nil && !retType.Equal(lltypes.Void):
				report(b, "ret void in function returning %v", retType)
			case ret.X != nil && !ret.X.Type().Equal(retType):
				report(b, "ret %v in function returning %v", ret.X.Type(), retType)
			}
		}
	}
	return errs
}

func verifyCall(call *ir.InstCall) error {
	callee, ok := call.Callee.(*ir.Func)
	if !ok {
		return nil // indirect calls are never emitted
	}
	params := callee.Sig.Params
	if len(call.Args) != len(params) && !(callee.Sig.Variadic && len(call.Args) > len(params)) {
		return fmt.Errorf("call of @%s with %d arguments, want %d", callee.Name(), len(call.Args), len(params))
	}
	for i, p := range params {
		if got := call.Args[i].Type(); !got.Equal(p) {
			return fmt.Errorf("argument %d of @%s has type %v, want %v", i, callee.Name(), got, p)
		}
	}
	return nil
}
