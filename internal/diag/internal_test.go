package diag

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func lowerSomething() (err error) {
	defer Recover(&err, func(ie *InternalError) {
		ie.Func = "main"
		ie.Dump = "define i32 @main()"
	})
	Bail(PhaseLower, "unknown name %q", "x")
	return nil
}

func TestRecoverAttachesContext(t *testing.T) {
	err := lowerSomething()
	ie, ok := AsInternal(err)
	if !ok {
		t.Fatalf("expected internal error, got %v", err)
	}
	if ie.Func != "main" || ie.Dump == "" {
		t.Fatalf("annotation not applied: %+v", ie)
	}
	want := `internal compiler error [lower] in main: unknown name "x"`
	if ie.Error() != want {
		t.Fatalf("Error() = %q, want %q", ie.Error(), want)
	}
}

func TestRecoverWrapsForeignPanics(t *testing.T) {
	annotated := false
	err := func() (err error) {
		defer Recover(&err, func(*InternalError) { annotated = true })
		var m map[string]int
		m["x"] = 1
		return nil
	}()
	ie, ok := AsInternal(err)
	if !ok {
		t.Fatalf("expected internal error, got %v", err)
	}
	if !annotated {
		t.Fatal("annotate not called for a foreign panic")
	}
	if !strings.Contains(ie.Msg, "assignment to entry in nil map") {
		t.Fatalf("panic value missing: %q", ie.Msg)
	}
	if !strings.Contains(ie.Msg, "TestRecoverWrapsForeignPanics") {
		t.Fatalf("stack missing: %q", ie.Msg)
	}
}

func TestFromPanicKeepsInternalErrors(t *testing.T) {
	orig := &InternalError{Phase: PhaseScope, Msg: "depth"}
	if got := FromPanic(PhaseLower, orig); got != orig {
		t.Fatalf("FromPanic replaced %v with %v", orig, got)
	}
	if got := FromPanic(PhaseLower, "boom"); got.Phase != PhaseLower || !strings.HasPrefix(got.Msg, "panic: boom") {
		t.Fatalf("FromPanic(boom) = %+v", got)
	}
}

func TestAssert(t *testing.T) {
	var err error
	func() {
		defer Recover(&err, nil)
		Assert(true, PhaseScope, "never")
		Assert(false, PhaseScope, "depth %d", 0)
	}()
	if err == nil || !strings.Contains(err.Error(), "depth 0") {
		t.Fatalf("got %v", err)
	}
}

func TestToolchainError(t *testing.T) {
	base := errors.New("exit status 1")
	e := &ToolchainError{Tool: "clang", Args: []string{"a.o", "-o", "a"}, Stderr: "undefined symbol: foo\n", Err: base}
	if !errors.Is(fmt.Errorf("link: %w", e), base) {
		t.Fatal("ToolchainError must unwrap to the exec error")
	}
	if e.Error() != "clang failed: undefined symbol: foo" {
		t.Fatalf("Error() = %q", e.Error())
	}
	if e.Command() != "clang a.o -o a" {
		t.Fatalf("Command() = %q", e.Command())
	}
	quiet := &ToolchainError{Tool: "llc", Err: base}
	if quiet.Error() != "llc failed: exit status 1" {
		t.Fatalf("Error() = %q", quiet.Error())
	}
}
