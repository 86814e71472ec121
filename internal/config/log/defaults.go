package log

import (
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值（CLI 场景）
const (
	// defaultLogLevel CLI 默认只输出 info 及以上
	defaultLogLevel = "info"

	// defaultToConsole 控制台输出写到 stderr，避免污染 stdout 上的 JSON 结果
	defaultToConsole = true

	// defaultFilePath 为空表示不写文件
	defaultFilePath = ""

	// === 日志轮转配置 ===

	// defaultMaxSize 单个日志文件最大 20MB
	defaultMaxSize = 20

	// defaultMaxBackups 最多保留 5 个历史文件
	defaultMaxBackups = 5

	// defaultMaxAge 历史文件保留 14 天
	defaultMaxAge = 14

	defaultCompress = true

	// === 调试配置 ===

	defaultEnableCaller     = false
	defaultEnableStacktrace = false
)

// 默认的日志级别映射
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}
