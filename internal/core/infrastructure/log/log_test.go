package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logconfig "github.com/golshanaramesh/atomicals-js/internal/config/log"
)

// TestInfoLog 测试控制台输出包含消息和级别
func TestInfoLog(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(logconfig.New(&logconfig.LogOptions{Level: "info", ToConsole: true}), &buf)
	require.NoError(t, err)

	logger.Info("resolve contract")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, "resolve contract")
	assert.Contains(t, out, "INFO")
}

// TestLevelFiltering 低于配置级别的日志不输出
func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(logconfig.New(&logconfig.LogOptions{Level: "warn", ToConsole: true}), &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Debugf("hidden %d", 2)
	logger.Warn("visible")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

// TestStructuredFileLogging 文件输出为 JSON 且带 With 字段
func TestStructuredFileLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cli.log")
	logger, err := NewWithWriter(logconfig.New(&logconfig.LogOptions{Level: "debug", FilePath: path}), nil)
	require.NoError(t, err)

	logger.With("module", "contract", "attempt", 2).Infof("hook applied for %s", "mycontract")
	require.NoError(t, logger.Sync())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, "contract", entry["module"])
	assert.EqualValues(t, 2, entry["attempt"])
	assert.Equal(t, "hook applied for mycontract", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestToZapFieldsDropsDanglingKey(t *testing.T) {
	fields := toZapFields("a", 1, "b")
	require.Len(t, fields, 1)
	assert.Equal(t, "a", fields[0].Key)
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.With("k", "v").Error("nothing")
	assert.NotNil(t, logger.GetZapLogger())
}
