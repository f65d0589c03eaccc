package version //nolint:testpackage // tests reset package-level build metadata.

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyBuildInfo(t *testing.T) {
	Version, Commit, Date = "dev", unknown, unknown

	t.Cleanup(func() { Version, Commit, Date = "dev", unknown, unknown })

	applyBuildInfo(&debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	})

	assert.Equal(t, "v1.2.0", Version)
	assert.Equal(t, "abc123", Commit)
	assert.Equal(t, "ordset v1.2.0 (commit: abc123, built: 2026-01-02T03:04:05Z)", String())
}

func TestApplyBuildInfoKeepsLinkerValues(t *testing.T) {
	Version, Commit, Date = "v9.9.9", "fixed", unknown

	t.Cleanup(func() { Version, Commit, Date = "dev", unknown, unknown })

	applyBuildInfo(&debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
	})

	assert.Equal(t, "v9.9.9", Version)
	assert.Equal(t, "fixed", Commit)
	assert.Equal(t, unknown, Date)
}
