package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCallData(t *testing.T) map[string]any {
	t.Helper()
	return map[string]any{
		FieldName:   "mycontract",
		FieldUnlock: "deadbeef",
		FieldAuth:   newWallets(t).auth.PublicKey,
	}
}

func TestValidateCallDataAccepts(t *testing.T) {
	raw := validCallData(t)
	raw[FieldMethod] = int64(3)
	raw["extra"] = "kept"

	payload, err := ValidateCallData(raw)
	require.NoError(t, err)
	assert.Equal(t, "mycontract", payload.ContractName)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, payload.PayloadBytes)
	assert.Len(t, payload.AuthPublicKey, 33)
	assert.True(t, payload.HasMethod)
	assert.Equal(t, 3, payload.MethodNumber)

	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, payload.Data[FieldUnlock])
	assert.Equal(t, "kept", payload.Data["extra"])
	// 原始数据不被修改
	assert.Equal(t, "deadbeef", raw[FieldUnlock])
}

func TestValidateCallDataRequiresEachField(t *testing.T) {
	for _, field := range []string{FieldName, FieldUnlock, FieldAuth} {
		t.Run("missing "+field, func(t *testing.T) {
			raw := validCallData(t)
			_, err := ValidateCallData(raw)
			require.NoError(t, err)

			delete(raw, field)
			_, err = ValidateCallData(raw)

			var formatErr *FormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, field, formatErr.Field)
		})
	}
}

func TestValidateCallDataRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
	}{
		{"empty name", FieldName, ""},
		{"numeric name", FieldName, int64(5)},
		{"non-hex unlock", FieldUnlock, "zz"},
		{"non-hex auth", FieldAuth, "not-hex"},
		{"auth not a key", FieldAuth, "0102"},
		{"fractional method", FieldMethod, 1.5},
		{"string method", FieldMethod, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validCallData(t)
			raw[tt.field] = tt.value

			_, err := ValidateCallData(raw)
			var formatErr *FormatError
			assert.ErrorAs(t, err, &formatErr)
		})
	}

	_, err := ValidateCallData(nil)
	var formatErr *FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestLoadCallFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "call.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"n":"mycontract","u":"deadbeef","m":2,"f":1.25,"nested":{"k":[1,2]}}`), 0o600))

	raw, err := LoadCallFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mycontract", raw["n"])
	assert.Equal(t, int64(2), raw["m"])
	assert.Equal(t, 1.25, raw["f"])
	assert.Equal(t, []any{int64(1), int64(2)}, raw["nested"].(map[string]any)["k"])

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[1,2]`), 0o600))
	_, err = LoadCallFile(bad)
	var formatErr *FormatError
	assert.ErrorAs(t, err, &formatErr)

	_, err = LoadCallFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
