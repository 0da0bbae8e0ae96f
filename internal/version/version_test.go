package version

import (
	"runtime/debug"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func stubBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func stubVars(t *testing.T, version, commit string) {
	t.Helper()
	origVersion, origCommit := Version, GitCommit
	Version, GitCommit = version, commit
	t.Cleanup(func() { Version, GitCommit = origVersion, origCommit })
}

func TestLdflagsWin(t *testing.T) {
	stubVars(t, "v1.2.0", "3f2a9c1d0e")
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "v0.0.1"}})

	assert.Equal(t, "v1.2.0", GetVersion())
	assert.Equal(t, "3f2a9c1d0e", GetGitCommit())
	assert.Equal(t, "v1.2.0 (3f2a9c1)", GetShortVersion())
	assert.Equal(t, "sitepanel/v1.2.0", UserAgent(""))
	assert.Equal(t, "panel/v1.2.0", UserAgent("panel"))
}

func TestFallsBackToBuildInfo(t *testing.T) {
	stubVars(t, "dev", "unknown")
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abcdef0123"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	assert.Equal(t, "dev", GetVersion())
	assert.Equal(t, "abcdef0123", GetGitCommit())
	assert.Equal(t, "dev-abcdef0", GetShortVersion())
	assert.True(t, IsDirty())
	assert.True(t, GetBuildInfo().Dirty)
}

func TestNoBuildInfo(t *testing.T) {
	stubVars(t, "dev", "unknown")
	stubBuildInfo(t, nil)

	assert.Equal(t, "dev", GetShortVersion())
	assert.False(t, IsDirty())
}

func TestParseBuildTime(t *testing.T) {
	assert.True(t, parseBuildTime("unknown").IsZero())
	assert.True(t, parseBuildTime("yesterday").IsZero())
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), parseBuildTime("2026-03-01T12:00:00Z"))
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), parseBuildTime("2026-03-01 12:00:00"))
}
