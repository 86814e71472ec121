package contract

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
)

// 调用文件字段
const (
	FieldName   = "n"
	FieldUnlock = "u"
	FieldAuth   = "auth"
	FieldMethod = "m"
)

// CallPayload 校验通过的调用数据
type CallPayload struct {
	ContractName  string
	PayloadBytes  []byte
	AuthPublicKey []byte
	MethodNumber  int
	HasMethod     bool

	// Data 写入 envelope 的字段，u 已转换为字节
	Data map[string]any
}

// LoadCallFile 读取 JSON 调用文件
// 整数保持为 int64，其余数字为 float64
func LoadCallFile(path string) (map[string]any, error) {
	//nolint:gosec // G304: 路径由用户显式指定
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read call file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("call file is not a JSON object: %v", err)}
	}
	if raw == nil {
		return nil, &FormatError{Reason: "call file is empty"}
	}
	return normalizeNumbers(raw).(map[string]any), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalizeNumbers(item)
		}
		return t
	default:
		return v
	}
}

// ValidateCallData 校验调用数据，必须在任何网络调用之前执行
// 必需字段 n、u、auth；u 与 auth 为十六进制；m 可选，必须为整数
func ValidateCallData(raw map[string]any) (*CallPayload, error) {
	if raw == nil {
		return nil, &FormatError{Reason: "call data requires fields n, u and auth"}
	}

	name, err := requireString(raw, FieldName)
	if err != nil {
		return nil, err
	}
	unlockHex, err := requireString(raw, FieldUnlock)
	if err != nil {
		return nil, err
	}
	authHex, err := requireString(raw, FieldAuth)
	if err != nil {
		return nil, err
	}

	unlock, err := hex.DecodeString(strings.TrimPrefix(unlockHex, "0x"))
	if err != nil {
		return nil, &FormatError{Field: FieldUnlock, Reason: "must be hex"}
	}
	auth, err := hex.DecodeString(strings.TrimPrefix(authHex, "0x"))
	if err != nil {
		return nil, &FormatError{Field: FieldAuth, Reason: "must be hex"}
	}
	if _, err := btcec.ParsePubKey(auth); err != nil {
		return nil, &FormatError{Field: FieldAuth, Reason: "must be a secp256k1 public key"}
	}

	payload := &CallPayload{
		ContractName:  name,
		PayloadBytes:  unlock,
		AuthPublicKey: auth,
	}

	if m, ok := raw[FieldMethod]; ok {
		var n int
		switch v := m.(type) {
		case int64:
			n = int(v)
		case int:
			n = v
		default:
			return nil, &FormatError{Field: FieldMethod, Reason: "must be an integer"}
		}
		payload.MethodNumber = n
		payload.HasMethod = true
	}

	payload.Data = maps.Clone(raw)
	payload.Data[FieldUnlock] = unlock

	return payload, nil
}

func requireString(raw map[string]any, field string) (string, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return "", &FormatError{Field: field, Reason: "is required (call data requires fields n, u and auth)"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &FormatError{Field: field, Reason: "must be a string"}
	}
	if strings.TrimSpace(s) == "" {
		return "", &FormatError{Field: field, Reason: "must not be empty"}
	}
	return s, nil
}
