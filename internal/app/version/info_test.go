package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInfoString(t *testing.T) {
	info := &BuildInfo{Version: "v1.2.3", Commit: "unknown", BuildTime: "unknown", Platform: "linux/amd64"}
	assert.Equal(t, "v1.2.3 linux/amd64", info.String())

	info.Commit = "0123456789abcdef"
	info.BuildTime = "2026-01-02T03:04:05Z"
	assert.Equal(t, "v1.2.3 (0123456) built 2026-01-02T03:04:05Z linux/amd64", info.String())
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.Equal(t, Version, info.Version)
	assert.True(t, strings.HasPrefix(info.GoVersion, "go"))
	assert.Contains(t, info.Platform, "/")
}
