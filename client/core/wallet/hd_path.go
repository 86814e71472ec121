package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// BIP86 相关常量
const (
	// BIP86Purpose 单密钥 taproot 输出的 purpose
	BIP86Purpose uint32 = 86

	// BitcoinCoinType 主网 coin type；atomicals 钱包在测试网也沿用 0
	BitcoinCoinType uint32 = 0

	// ExternalChain 外部链（主地址）
	ExternalChain uint32 = 0

	// InternalChain 内部链（资金地址）
	InternalChain uint32 = 1
)

// 默认派生路径
const (
	DefaultPrimaryPath = "m/86'/0'/0'/0/0"
	DefaultFundingPath = "m/86'/0'/0'/1/0"
)

// DerivationPath BIP32 五级派生路径 m/purpose'/coin'/account'/change/index
type DerivationPath struct {
	Purpose      uint32 `json:"purpose"`
	CoinType     uint32 `json:"coin_type"`
	Account      uint32 `json:"account"`
	Change       uint32 `json:"change"`
	AddressIndex uint32 `json:"address_index"`
}

// ParseDerivationPath 解析派生路径字符串
// 支持格式: m/86'/0'/0'/0/0 或 86'/0'/0'/0/0，硬化标记可写作 ' h H
func ParseDerivationPath(path string) (*DerivationPath, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "m/")
	path = strings.TrimPrefix(path, "M/")

	parts := strings.Split(path, "/")
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid derivation path: expected 5 components, got %d", len(parts))
	}

	dp := &DerivationPath{}
	var err error

	if dp.Purpose, err = parsePathComponent(parts[0], true); err != nil {
		return nil, fmt.Errorf("invalid purpose: %w", err)
	}
	if dp.CoinType, err = parsePathComponent(parts[1], true); err != nil {
		return nil, fmt.Errorf("invalid coin type: %w", err)
	}
	if dp.Account, err = parsePathComponent(parts[2], true); err != nil {
		return nil, fmt.Errorf("invalid account: %w", err)
	}
	if dp.Change, err = parsePathComponent(parts[3], false); err != nil {
		return nil, fmt.Errorf("invalid change: %w", err)
	}
	if dp.Change > InternalChain {
		return nil, fmt.Errorf("invalid change: expected 0 or 1, got %d", dp.Change)
	}
	if dp.AddressIndex, err = parsePathComponent(parts[4], false); err != nil {
		return nil, fmt.Errorf("invalid address index: %w", err)
	}

	return dp, nil
}

// parsePathComponent 解析路径组件
// requireHardened: 是否要求硬化派生；非硬化位置不接受硬化标记
func parsePathComponent(component string, requireHardened bool) (uint32, error) {
	isHardened := strings.HasSuffix(component, "'") || strings.HasSuffix(component, "H") || strings.HasSuffix(component, "h")

	if requireHardened && !isHardened {
		return 0, fmt.Errorf("hardened derivation required for %s", component)
	}
	if !requireHardened && isHardened {
		return 0, fmt.Errorf("unexpected hardened component %s", component)
	}

	component = strings.TrimRight(component, "'hH")
	value, err := strconv.ParseUint(component, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", component)
	}
	if value >= uint64(hdkeychain.HardenedKeyStart) {
		return 0, fmt.Errorf("component %d out of range", value)
	}

	return uint32(value), nil
}

// String 返回路径字符串表示
func (dp *DerivationPath) String() string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d",
		dp.Purpose,
		dp.CoinType,
		dp.Account,
		dp.Change,
		dp.AddressIndex,
	)
}

// Indexes 返回 hdkeychain 使用的子索引（前三级已加硬化偏移）
func (dp *DerivationPath) Indexes() []uint32 {
	return []uint32{
		dp.Purpose + hdkeychain.HardenedKeyStart,
		dp.CoinType + hdkeychain.HardenedKeyStart,
		dp.Account + hdkeychain.HardenedKeyStart,
		dp.Change,
		dp.AddressIndex,
	}
}
