package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

// ErrInvalidMnemonic 助记词校验失败
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// NewMnemonic 生成新的助记词（128 bits 熵，12 个单词）
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	return bip39.NewMnemonic(entropy)
}

// DeriveRecord 从助记词按路径派生钱包记录（BIP86 taproot 地址）
func DeriveRecord(phrase, passphrase, path string, net *chaincfg.Params) (*Record, error) {
	phrase = normalizeSpaces(phrase)
	if !bip39.IsMnemonicValid(phrase) {
		return nil, ErrInvalidMnemonic
	}

	dp, err := ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(phrase, passphrase)
	key, err := hdkeychain.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}
	for _, idx := range dp.Indexes() {
		if key, err = key.Derive(idx); err != nil {
			return nil, fmt.Errorf("derive %s: %w", dp, err)
		}
	}

	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extract private key: %w", err)
	}
	wif, err := btcutil.NewWIF(privKey, net, true)
	if err != nil {
		return nil, fmt.Errorf("encode wif: %w", err)
	}

	record, err := NewRecordFromWIF(wif.String(), net)
	if err != nil {
		return nil, err
	}
	record.Path = dp.String()
	return record, nil
}

// normalizeSpaces 规范化空格（将多个连续空格替换为单个空格）
func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
