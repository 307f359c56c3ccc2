package observ

import (
	"strings"
	"testing"
	"time"
)

func fakeClock(step time.Duration) func() time.Time {
	cur := time.Unix(0, 0)
	return func() time.Time {
		cur = cur.Add(step)
		return cur
	}
}

func TestTimerPhases(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(time.Millisecond)

	lower := tm.Begin("lower")
	tm.End(lower, "3 funcs")
	link := tm.Begin("link")
	tm.End(link, "")
	tm.End(42, "ignored")

	phases := tm.Phases()
	if len(phases) != 2 {
		t.Fatalf("got %d phases, want 2", len(phases))
	}
	if phases[0].Dur != time.Millisecond || phases[0].Note != "3 funcs" {
		t.Fatalf("unexpected first phase: %+v", phases[0])
	}
	if tm.Total() != 2*time.Millisecond {
		t.Fatalf("Total = %v, want 2ms", tm.Total())
	}

	sum := tm.Summary()
	for _, want := range []string{"lower", "// 3 funcs", "link", "total"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary missing %q:\n%s", want, sum)
		}
	}
}
