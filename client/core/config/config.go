// Package config 管理 CLI 配置，默认位于 ~/.atomicals-cli/config.json
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/golshanaramesh/atomicals-js/client/core/builder"
	"github.com/golshanaramesh/atomicals-js/client/core/transport"
	logconfig "github.com/golshanaramesh/atomicals-js/internal/config/log"
	"github.com/golshanaramesh/atomicals-js/internal/core/infrastructure/crypto/secp256k1"
)

// 环境变量覆盖
const (
	EnvEndpoint   = "ELECTRUMX_PROXY_BASE_URL"
	EnvWalletPath = "WALLET_PATH"
	EnvNetwork    = "NETWORK"
)

// DirName 配置目录名
const DirName = ".atomicals-cli"

// Config CLI 配置
type Config struct {
	// 索引节点
	ElectrumEndpoint string   `json:"electrum_endpoint"` // http(s) 代理或 ws(s) 端点
	Timeout          Duration `json:"timeout"`           // 请求超时
	RetryAttempts    int      `json:"retry_attempts"`    // 重试次数
	RetryBackoff     Duration `json:"retry_backoff"`     // 退避时间

	// 链与钱包
	Network    string `json:"network"`     // mainnet/testnet/regtest/signet
	WalletPath string `json:"wallet_path"` // wallet.json 路径

	// 交易默认值
	SatsByte     int64  `json:"satsbyte"`
	SatsOutput   int64  `json:"satsoutput"`
	UTXOStrategy string `json:"utxo_strategy"` // greedy/first-fit

	// 曲线后端: btcec/decred
	CurveBackend string `json:"curve_backend"`

	Log LogConfig `json:"log"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `json:"level"`
	FilePath string `json:"file_path,omitempty"`
}

// Duration 时间duration(支持JSON序列化)
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(dur)
	return nil
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		ElectrumEndpoint: "https://ep.atomicalmarket.com/proxy",
		Timeout:          Duration(30 * time.Second),
		RetryAttempts:    3,
		RetryBackoff:     Duration(500 * time.Millisecond),
		Network:          "mainnet",
		WalletPath:       filepath.Join(homeDir, DirName, "wallet.json"),
		SatsByte:         10,
		SatsOutput:       1000,
		UTXOStrategy:     builder.StrategyGreedy,
		CurveBackend:     secp256k1.DefaultBackend,
		Log:              LogConfig{Level: "info"},
	}
}

// DefaultPath 默认配置文件路径
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, DirName, "config.json")
}

// Load 从默认路径加载配置
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom 加载配置；文件不存在时写出默认配置
// 未出现在文件中的字段保持默认值
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	//nolint:gosec // G304: 路径来自用户主目录或显式参数
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := cfg.SaveTo(path); err != nil {
			return nil, fmt.Errorf("saving default config: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv 用环境变量覆盖配置
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvEndpoint); ok && v != "" {
		c.ElectrumEndpoint = v
	}
	if v, ok := lookup(EnvWalletPath); ok && v != "" {
		c.WalletPath = v
	}
	if v, ok := lookup(EnvNetwork); ok && v != "" {
		c.Network = v
	}
}

// Save 保存到默认路径
func (c *Config) Save() error {
	return c.SaveTo(DefaultPath())
}

// SaveTo 保存配置
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ElectrumEndpoint) == "" {
		return errors.New("electrum_endpoint is required")
	}
	if _, err := c.ChainParams(); err != nil {
		return err
	}
	if c.SatsByte <= 0 {
		return fmt.Errorf("satsbyte must be positive, got %d", c.SatsByte)
	}
	if c.SatsOutput < 0 {
		return fmt.Errorf("satsoutput must not be negative, got %d", c.SatsOutput)
	}
	if _, err := builder.NewSelector(c.UTXOStrategy); err != nil {
		return err
	}
	if _, err := secp256k1.New(c.CurveBackend); err != nil {
		return err
	}
	return nil
}

// ChainParams 将网络名映射为链参数
func (c *Config) ChainParams() (*chaincfg.Params, error) {
	switch strings.ToLower(c.Network) {
	case "", "mainnet", "bitcoin", "livenet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", c.Network)
	}
}

// TransportOptions 传输层参数
func (c *Config) TransportOptions() transport.Options {
	return transport.Options{
		Timeout:       time.Duration(c.Timeout),
		RetryAttempts: c.RetryAttempts,
		RetryBackoff:  time.Duration(c.RetryBackoff),
	}
}

// LogOptions 日志参数
// verbose 时强制 debug 级别
func (c *Config) LogOptions(verbose bool) *logconfig.LogOptions {
	level := c.Log.Level
	if verbose {
		level = "debug"
	}
	return &logconfig.LogOptions{
		Level:     level,
		ToConsole: true,
		FilePath:  c.Log.FilePath,
	}
}
