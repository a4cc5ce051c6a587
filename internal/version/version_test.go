package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func restore(t *testing.T) {
	t.Helper()
	v, c, b := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = v, c, b
	})
}

func TestInfo(t *testing.T) {
	restore(t)

	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"unknown commit", "1.0.0", "unknown", "1.0.0"},
		{"short commit", "1.0.0", "abc", "1.0.0"},
		{"exactly 7 chars", "2.0.0", "1234567", "2.0.0"},
		{"full hash", "1.0.0", "abc1234567890", "1.0.0 (abc1234)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version = tt.version
			Commit = tt.commit
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	restore(t)

	Version = "1.2.3"
	Commit = "abcdef123456"
	BuildDate = "2024-01-15"

	got := Full()
	for _, part := range []string{"relbench version 1.2.3", "Commit: abcdef123456", "Built: 2024-01-15"} {
		if !strings.Contains(got, part) {
			t.Errorf("Full() = %q, want to contain %q", got, part)
		}
	}
}

func TestApplyBuildSettings(t *testing.T) {
	restore(t)

	Commit = "unknown"
	BuildDate = "unknown"
	applyBuildSettings([]debug.BuildSetting{
		{Key: "vcs", Value: "git"},
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2024-06-01T10:00:00Z"},
	})
	if Commit != "0123456789abcdef" || BuildDate != "2024-06-01T10:00:00Z" {
		t.Errorf("applyBuildSettings() = %q, %q", Commit, BuildDate)
	}

	Commit = "pinned"
	applyBuildSettings([]debug.BuildSetting{{Key: "vcs.revision", Value: "other"}})
	if Commit != "pinned" {
		t.Errorf("ldflags commit overwritten: %q", Commit)
	}
}
