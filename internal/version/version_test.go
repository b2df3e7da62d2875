package version

import "testing"

func TestString(t *testing.T) {
	origVersion, origSHA, origTime := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = origVersion, origSHA, origTime }()

	Version, GitSHA, BuildTime = "v0.3.1", "abc1234", "2026-03-14T09:30:00Z"
	if got, want := String(), "v0.3.1 (commit abc1234, built 2026-03-14T09:30:00Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
