package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_WritesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().ElectrumEndpoint, cfg.ElectrumEndpoint)
	assert.Equal(t, int64(10), cfg.SatsByte)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be persisted")
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"network":"regtest","timeout":"5s","satsbyte":3}`), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "regtest", cfg.Network)
	assert.Equal(t, Duration(5*time.Second), cfg.Timeout)
	assert.Equal(t, int64(3), cfg.SatsByte)
	assert.Equal(t, int64(1000), cfg.SatsOutput)
	assert.Equal(t, "greedy", cfg.UTXOStrategy)
	assert.Equal(t, 3, cfg.RetryAttempts)
}

func TestLoadFrom_Errors(t *testing.T) {
	dir := t.TempDir()

	badJSON := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte(`{`), 0o600))
	_, err := LoadFrom(badJSON)
	assert.Error(t, err)

	badDuration := filepath.Join(dir, "duration.json")
	require.NoError(t, os.WriteFile(badDuration, []byte(`{"timeout":"soon"}`), 0o600))
	_, err = LoadFrom(badDuration)
	assert.Error(t, err)
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	cfg.Network = "testnet"
	cfg.RetryBackoff = Duration(2 * time.Second)
	require.NoError(t, cfg.SaveTo(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "2s", generic["retry_backoff"])

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestChainParams(t *testing.T) {
	tests := []struct {
		network string
		want    *chaincfg.Params
		wantErr bool
	}{
		{"", &chaincfg.MainNetParams, false},
		{"livenet", &chaincfg.MainNetParams, false},
		{"Testnet", &chaincfg.TestNet3Params, false},
		{"regtest", &chaincfg.RegressionNetParams, false},
		{"signet", &chaincfg.SigNetParams, false},
		{"dogecoin", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			cfg := &Config{Network: tt.network}
			params, err := cfg.ChainParams()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Name, params.Name)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"empty endpoint", func(c *Config) { c.ElectrumEndpoint = " " }, false},
		{"bad network", func(c *Config) { c.Network = "x" }, false},
		{"zero satsbyte", func(c *Config) { c.SatsByte = 0 }, false},
		{"negative satsoutput", func(c *Config) { c.SatsOutput = -1 }, false},
		{"decred backend", func(c *Config) { c.CurveBackend = "decred" }, true},
		{"unknown backend", func(c *Config) { c.CurveBackend = "openssl" }, false},
		{"first-fit strategy", func(c *Config) { c.UTXOStrategy = "first-fit" }, true},
		{"unknown strategy", func(c *Config) { c.UTXOStrategy = "largest" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvEndpoint:   "wss://electrum.example:50012",
		EnvWalletPath: "/tmp/w.json",
		EnvNetwork:    "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	cfg.ApplyEnv(lookup)
	assert.Equal(t, "wss://electrum.example:50012", cfg.ElectrumEndpoint)
	assert.Equal(t, "/tmp/w.json", cfg.WalletPath)
	assert.Equal(t, "mainnet", cfg.Network, "empty values do not override")
}

func TestDerivedOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.FilePath = "/tmp/atomicals.log"

	topts := cfg.TransportOptions()
	assert.Equal(t, 30*time.Second, topts.Timeout)
	assert.Equal(t, 3, topts.RetryAttempts)
	assert.Equal(t, 500*time.Millisecond, topts.RetryBackoff)

	assert.Equal(t, "info", cfg.LogOptions(false).Level)
	lopts := cfg.LogOptions(true)
	assert.Equal(t, "debug", lopts.Level)
	assert.Equal(t, "/tmp/atomicals.log", lopts.FilePath)
}
