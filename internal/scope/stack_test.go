package scope

import (
	"strings"
	"testing"

	"bu/internal/diag"
)

func catch(fn func()) (err error) {
	defer diag.Recover(&err, nil)
	fn()
	return nil
}

func TestShadowingAndUnwinding(t *testing.T) {
	s := New[int]()
	s.Enter()
	s.Bind("x", 1)
	s.Bind("y", 2)

	s.Enter()
	s.Bind("x", 10)
	if got := s.Resolve("x"); got != 10 {
		t.Fatalf("inner x = %d, want 10", got)
	}
	if got := s.Resolve("y"); got != 2 {
		t.Fatalf("outer y through inner scope = %d, want 2", got)
	}
	s.Leave()

	if got := s.Resolve("x"); got != 1 {
		t.Fatalf("x after leave = %d, want 1", got)
	}
	if s.Depth() != 1 {
		t.Fatalf("Depth = %d, want 1", s.Depth())
	}
}

func TestInnerBindingsDieWithScope(t *testing.T) {
	s := New[string]()
	s.Enter()
	s.Enter()
	s.Bind("tmp", "slot")
	s.Leave()
	if _, ok := s.Lookup("tmp"); ok {
		t.Fatal("binding survived its scope")
	}
}

func TestMisuseIsInternalError(t *testing.T) {
	s := New[int]()
	tests := []struct {
		name string
		fn   func()
		want string
	}{
		{"leave empty", s.Leave, "empty scope stack"},
		{"bind empty", func() { s.Bind("x", 1) }, "outside any scope"},
		{"resolve missing", func() { s.Enter(); s.Resolve("ghost") }, `unresolved name "ghost"`},
	}
	for _, tc := range tests {
		err := catch(tc.fn)
		if _, ok := diag.AsInternal(err); !ok || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: got %v, want %q", tc.name, err, tc.want)
		}
	}
}
