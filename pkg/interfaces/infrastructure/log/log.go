// Package log 定义 CLI 各模块共享的日志接口
//
// 业务代码只依赖本接口，具体实现位于 internal/core/infrastructure/log（基于 zap）。
// 测试中可以使用 NewNop 风格的实现替换。
package log

import "go.uber.org/zap"

// Logger 日志记录器接口
type Logger interface {
	// Debug 记录调试级别的日志
	Debug(msg string)
	Debugf(format string, args ...interface{})

	// Info 记录信息级别的日志
	Info(msg string)
	Infof(format string, args ...interface{})

	// Warn 记录警告级别的日志
	Warn(msg string)
	Warnf(format string, args ...interface{})

	// Error 记录错误级别的日志
	Error(msg string)
	Errorf(format string, args ...interface{})

	// With 返回附加了键值对字段的 Logger
	// 参数按 key1, value1, key2, value2 ... 的顺序传入
	With(args ...interface{}) Logger

	// Sync 刷新缓冲区
	Sync() error

	// GetZapLogger 获取底层 zap 记录器（供需要强类型字段的调用方使用）
	GetZapLogger() *zap.Logger
}

// 模块名称，作为 "module" 字段写入日志
const (
	ModuleContract  = "contract"
	ModuleBuilder   = "builder"
	ModuleTransport = "transport"
	ModuleWallet    = "wallet"
	ModuleCLI       = "cli"
)
