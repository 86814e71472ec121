// Package output 负责命令结果的输出
//
// 结果数据写到 stdout，状态信息写到 stderr，保证 stdout 上的 JSON 可被脚本直接解析。
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pterm/pterm"
)

// Format 输出格式
type Format string

const (
	// FormatJSON 紧凑 JSON（默认）
	FormatJSON Format = "json"
	// FormatPretty 缩进 JSON
	FormatPretty Format = "pretty"
	// FormatText 人类可读的键值表
	FormatText Format = "text"
)

// ParseFormat 解析 --output 参数
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatPretty:
		return FormatPretty, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, pretty or text)", s)
	}
}

// Formatter 输出格式化器
type Formatter struct {
	format    Format
	writer    io.Writer // 数据输出
	logWriter io.Writer // 状态输出
	silent    bool
}

// NewFormatter 创建格式化器，writer 为 nil 时使用 stdout
func NewFormatter(format Format, writer io.Writer) *Formatter {
	if writer == nil {
		writer = os.Stdout
	}

	return &Formatter{
		format:    format,
		writer:    writer,
		logWriter: os.Stderr,
	}
}

// SetLogWriter 设置状态输出目标（默认 stderr）
func (f *Formatter) SetLogWriter(writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	f.logWriter = writer
}

// SetSilent 静默模式下只输出数据和错误
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Format 当前格式
func (f *Formatter) Format() Format {
	return f.format
}

// Print 按格式输出数据
func (f *Formatter) Print(data interface{}) error {
	switch f.format {
	case FormatPretty:
		return f.printJSON(data, true)
	case FormatText:
		return f.printText(data)
	default:
		return f.printJSON(data, false)
	}
}

func (f *Formatter) printJSON(data interface{}, pretty bool) error {
	var out []byte
	var err error

	if pretty {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := fmt.Fprintln(f.writer, string(out)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// printText 对象按键排序输出为两列表格，其他值直接打印
func (f *Formatter) printText(data interface{}) error {
	fields, ok := toFields(data)
	if !ok {
		if _, err := fmt.Fprintf(f.writer, "%v\n", data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := pterm.TableData{{"Key", "Value"}}
	for _, k := range keys {
		table = append(table, []string{k, formatValue(fields[k])})
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(table).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if _, err := fmt.Fprintln(f.writer, rendered); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// Section 输出分节标题
func (f *Formatter) Section(title string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprint(f.logWriter, pterm.DefaultSection.Sprint(title))
}

// PrintSuccess 成功消息
func (f *Formatter) PrintSuccess(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprintf(f.logWriter, "✅ %s\n", message)
}

// PrintError 错误消息，静默模式下同样输出
func (f *Formatter) PrintError(err error) {
	_, _ = fmt.Fprintf(f.logWriter, "❌ Error: %v\n", err)
}

// PrintWarning 警告消息
func (f *Formatter) PrintWarning(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprintf(f.logWriter, "⚠️  %s\n", message)
}

// PrintInfo 提示消息
func (f *Formatter) PrintInfo(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprintf(f.logWriter, "ℹ️  %s\n", message)
}

// ===== 辅助函数 =====

// toFields 通过 JSON 将结构体或 map 转为字段表
func toFields(data interface{}) (map[string]interface{}, bool) {
	if m, ok := data.(map[string]interface{}); ok {
		return m, true
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, false
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return "-"
	case bool:
		return fmt.Sprintf("%t", v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case int, int64, uint32, uint64:
		return fmt.Sprintf("%d", v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// ErrorOutput 错误输出结构
type ErrorOutput struct {
	Error struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// NewErrorOutput 创建错误输出
func NewErrorOutput(code string, message string, details interface{}) *ErrorOutput {
	out := &ErrorOutput{}
	out.Error.Code = code
	out.Error.Message = message
	out.Error.Details = details
	return out
}

// SuccessOutput 成功输出结构
type SuccessOutput struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// NewSuccessOutput 创建成功输出
func NewSuccessOutput(data interface{}, message string) *SuccessOutput {
	return &SuccessOutput{
		Success: true,
		Data:    data,
		Message: message,
	}
}
