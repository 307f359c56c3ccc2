package llvm

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"
)

// Dump renders a possibly incomplete module for diagnostics. Blocks still
// open are closed with unreachable first, since the printer requires a
// terminator; the header lists them.
func Dump(m *ir.Module) (out string) {
	var sealed []string
	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			if b.Term == nil {
				b.NewUnreachable()
				sealed = append(sealed, "@"+f.Name()+" %"+b.Name())
			}
		}
	}
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("; module could not be printed: %v\n", r)
		}
	}()
	var sb strings.Builder
	if len(sealed) > 0 {
		sb.WriteString("; unterminated at failure: " + strings.Join(sealed, ", ") + "\n")
	}
	sb.WriteString(m.String())
	return sb.String()
}
