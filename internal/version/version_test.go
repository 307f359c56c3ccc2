package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestBanner(t *testing.T) {
	prevNoColor := color.NoColor
	color.NoColor = true
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		color.NoColor = prevNoColor
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})

	tests := []struct {
		commit, date string
		want         string
	}{
		{"", "", "bu 1.2.3"},
		{"abc123", "", "bu 1.2.3 (abc123)"},
		{"abc123", "2026-01-15", "bu 1.2.3 (abc123, 2026-01-15)"},
		{"", "2026-01-15", "bu 1.2.3"},
	}
	Version = "1.2.3"
	for _, tc := range tests {
		GitCommit, BuildDate = tc.commit, tc.date
		if got := Banner(); got != tc.want {
			t.Errorf("Banner() = %q, want %q", got, tc.want)
		}
	}
}
