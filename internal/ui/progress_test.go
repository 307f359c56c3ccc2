package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"bu/internal/buildpipeline"
)

func TestApplyEventTracksStages(t *testing.T) {
	m := NewProgressModel("add.bu", nil).(*progressModel)
	if got := m.fraction(); got != 0 {
		t.Fatalf("fraction before events = %v", got)
	}

	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageLower, Status: buildpipeline.StatusDone, Elapsed: time.Millisecond})
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageVerify, Status: buildpipeline.StatusWorking})
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageRun, Status: buildpipeline.StatusSkipped})

	want := 2.0 / float64(len(buildpipeline.Stages))
	if got := m.fraction(); got != want {
		t.Fatalf("fraction = %v, want %v", got, want)
	}
	view := m.View()
	for _, s := range []string{"add.bu", "verifying", "skipped", "1ms"} {
		if !strings.Contains(view, s) {
			t.Errorf("view missing %q:\n%s", s, view)
		}
	}
}

func TestApplyEventShowsFailure(t *testing.T) {
	m := NewProgressModel("add.bu", nil).(*progressModel)
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageLink, Status: buildpipeline.StatusError, Err: errors.New("clang failed: undefined symbol")})
	if !strings.Contains(m.View(), "undefined symbol") {
		t.Fatalf("failure not rendered:\n%s", m.View())
	}
}

func TestUnknownStageIgnored(t *testing.T) {
	m := NewProgressModel("x", nil).(*progressModel)
	if cmd := m.applyEvent(buildpipeline.Event{Stage: "parse", Status: buildpipeline.StatusDone}); cmd != nil {
		t.Fatal("unknown stage produced a command")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a-much-longer-name", 8, "a-..."},
		{"abcdef", 2, "ab"},
		{"unbounded", 0, "unbounded"},
	}
	for _, tc := range tests {
		if got := truncate(tc.in, tc.width); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}
