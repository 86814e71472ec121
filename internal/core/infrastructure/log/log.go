// Package log 提供基于 zap 的日志实现
// 控制台输出写到 stderr，文件输出使用 lumberjack 轮转
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	logconfig "github.com/golshanaramesh/atomicals-js/internal/config/log"
	logInterface "github.com/golshanaramesh/atomicals-js/pkg/interfaces/infrastructure/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _ logInterface.Logger = (*Logger)(nil)

// Logger 实现 logInterface.Logger
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

// New 根据配置创建日志记录器，控制台输出写到 stderr
func New(config *logconfig.Config) (logInterface.Logger, error) {
	return NewWithWriter(config, os.Stderr)
}

// NewWithWriter 与 New 相同，但控制台输出写到 console
func NewWithWriter(config *logconfig.Config, console io.Writer) (logInterface.Logger, error) {
	if config == nil {
		config = logconfig.New(nil)
	}
	level := zap.NewAtomicLevelAt(config.GetZapLevel())

	var cores []zapcore.Core
	if config.IsConsoleEnabled() && console != nil {
		cores = append(cores, zapcore.NewCore(config.CreateConsoleEncoder(), zapcore.AddSync(console), level))
	}

	if path := config.GetFilePath(); path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve log file path: %w", err)
		}
		writer, err := createFileWriter(absPath, config)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(config.CreateFileEncoder(), writer, level))
	}

	var zapOptions []zap.Option
	if config.IsCallerEnabled() {
		// 跳过一层封装，让调用位置指向业务代码
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if config.IsStacktraceEnabled() {
		zapOptions = append(zapOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zapOptions...)
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}, nil
}

// NewNop 返回丢弃所有输出的日志记录器（测试用）
func NewNop() logInterface.Logger {
	zapLogger := zap.NewNop()
	return &Logger{zapLogger: zapLogger, sugar: zapLogger.Sugar()}
}

// createFileWriter 创建带轮转的文件写入器
func createFileWriter(logPath string, config *logconfig.Config) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    config.GetMaxSize(), // megabytes
		MaxBackups: config.GetMaxBackups(),
		MaxAge:     config.GetMaxAge(), // days
		Compress:   config.IsCompressionEnabled(),
	}), nil
}

// toZapFields 将 key1, value1, key2, value2 ... 转换为 zap 字段
// 奇数个参数时丢弃最后一个
func toZapFields(args ...interface{}) []zap.Field {
	if len(args)%2 != 0 {
		args = args[:len(args)-1]
	}

	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

func (l *Logger) Debug(msg string) { l.sugar.Debug(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

func (l *Logger) Info(msg string) { l.sugar.Info(msg) }

func (l *Logger) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

func (l *Logger) Warn(msg string) { l.sugar.Warn(msg) }

func (l *Logger) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

func (l *Logger) Error(msg string) { l.sugar.Error(msg) }

func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With 返回一个带有额外字段的 Logger
func (l *Logger) With(args ...interface{}) logInterface.Logger {
	zapLogger := l.zapLogger.With(toZapFields(args...)...)
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}
}

// Sync 同步日志缓冲区到输出
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

// GetZapLogger 获取底层的 zap 日志记录器
func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zapLogger
}
