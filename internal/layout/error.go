package layout

import (
	"fmt"
	"strings"
)

// LayoutErrorKind enumerates struct registration failures.
type LayoutErrorKind uint8

const (
	// LayoutErrCycle indicates structs that contain each other by value.
	LayoutErrCycle LayoutErrorKind = iota + 1
	LayoutErrUnknownStruct
	LayoutErrDuplicateStruct
	LayoutErrDuplicateField
)

// LayoutError is a fatal registration error. No layout is usable after one.
type LayoutError struct {
	Kind   LayoutErrorKind
	Struct string
	Field  string
	Cycle  []string // structs left unordered, sorted by name
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrCycle:
		return fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(e.Cycle, ", "))
	case LayoutErrUnknownStruct:
		return fmt.Sprintf("field %s.%s has unknown struct type", e.Struct, e.Field)
	case LayoutErrDuplicateStruct:
		return fmt.Sprintf("struct %s declared twice", e.Struct)
	case LayoutErrDuplicateField:
		return fmt.Sprintf("struct %s declares field %s twice", e.Struct, e.Field)
	default:
		return fmt.Sprintf("layout error kind=%d struct %s", e.Kind, e.Struct)
	}
}
