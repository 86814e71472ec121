// Package version 提供构建版本信息，变量通过 -ldflags -X 注入
package version

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	Version   = "v0.1.0"
	Commit    = "unknown"
	BuildTime = "unknown" // RFC3339
)

// BuildInfo 构建信息
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetBuildInfo 获取完整构建信息
func GetBuildInfo() *BuildInfo {
	return &BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String 单行版本描述，用于 --version
func (b *BuildInfo) String() string {
	parts := []string{b.Version}
	if b.Commit != "unknown" {
		commit := b.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		parts = append(parts, "("+commit+")")
	}
	if b.BuildTime != "unknown" {
		parts = append(parts, "built "+b.BuildTime)
	}
	return fmt.Sprintf("%s %s", strings.Join(parts, " "), b.Platform)
}
