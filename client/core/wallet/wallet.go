// Package wallet 提供钱包记录的加载与派生
//
// 钱包文件沿用 atomicals 的 wallet.json 结构：
//
//	{
//	  "phrase": "...",
//	  "primary": {"address": "...", "path": "m/86'/0'/0'/0/0", "WIF": "..."},
//	  "funding": {"address": "...", "path": "m/86'/0'/0'/1/0", "WIF": "..."},
//	  "imported": {"alias": {"address": "...", "WIF": "..."}}
//	}
//
// primary 通常作为授权身份（auth），funding 用于支付手续费。
package wallet

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// 内置别名
const (
	AliasPrimary = "primary"
	AliasFunding = "funding"
)

// ErrUnknownAlias 钱包中没有该别名
var ErrUnknownAlias = errors.New("unknown wallet alias")

// Record 钱包记录：地址、公钥与 WIF 私钥
type Record struct {
	Address   string `json:"address"`
	Path      string `json:"path,omitempty"`
	WIF       string `json:"WIF"`
	PublicKey string `json:"publicKey,omitempty"` // 压缩公钥十六进制，加载时由 WIF 计算
}

// File wallet.json 的内容
type File struct {
	Phrase   string             `json:"phrase,omitempty"`
	Primary  *Record            `json:"primary"`
	Funding  *Record            `json:"funding"`
	Imported map[string]*Record `json:"imported,omitempty"`
}

// NewRecordFromWIF 由 WIF 构造记录，地址为 BIP86 taproot 地址
func NewRecordFromWIF(wifStr string, net *chaincfg.Params) (*Record, error) {
	wif, err := decodeWIF(wifStr, net)
	if err != nil {
		return nil, err
	}
	addr, err := TaprootAddress(wif.PrivKey.PubKey(), net)
	if err != nil {
		return nil, err
	}
	return &Record{
		Address:   addr.EncodeAddress(),
		WIF:       wifStr,
		PublicKey: hex.EncodeToString(wif.PrivKey.PubKey().SerializeCompressed()),
	}, nil
}

// TaprootAddress 计算公钥的 BIP86（无脚本路径）taproot 地址
func TaprootAddress(pub *btcec.PublicKey, net *chaincfg.Params) (*btcutil.AddressTaproot, error) {
	outputKey := txscript.ComputeTaprootKeyNoScript(pub)
	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), net)
	if err != nil {
		return nil, fmt.Errorf("taproot address: %w", err)
	}
	return addr, nil
}

func decodeWIF(wifStr string, net *chaincfg.Params) (*btcutil.WIF, error) {
	wif, err := btcutil.DecodeWIF(wifStr)
	if err != nil {
		return nil, fmt.Errorf("decode wif: %w", err)
	}
	if !wif.IsForNet(net) {
		return nil, fmt.Errorf("wif is not for network %s", net.Name)
	}
	return wif, nil
}

// PrivateKey 解码 WIF
func (r *Record) PrivateKey(net *chaincfg.Params) (*btcec.PrivateKey, error) {
	wif, err := decodeWIF(r.WIF, net)
	if err != nil {
		return nil, err
	}
	return wif.PrivKey, nil
}

// PublicKeyBytes 返回压缩公钥
func (r *Record) PublicKeyBytes() ([]byte, error) {
	pub, err := hex.DecodeString(r.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if _, err := btcec.ParsePubKey(pub); err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return pub, nil
}

// Validate 校验并补全记录
//   - WIF 必须属于 net
//   - 公钥由 WIF 计算；若记录中已有公钥，必须一致
//   - 地址必须属于 net；taproot 地址必须与私钥匹配
func (r *Record) Validate(net *chaincfg.Params) error {
	if r == nil {
		return errors.New("wallet record is nil")
	}
	priv, err := r.PrivateKey(net)
	if err != nil {
		return err
	}

	pubHex := hex.EncodeToString(priv.PubKey().SerializeCompressed())
	if r.PublicKey != "" && r.PublicKey != pubHex {
		return fmt.Errorf("public key does not match wif")
	}
	r.PublicKey = pubHex

	addr, err := btcutil.DecodeAddress(r.Address, net)
	if err != nil {
		return fmt.Errorf("decode address %q: %w", r.Address, err)
	}
	if !addr.IsForNet(net) {
		return fmt.Errorf("address %s is not for network %s", r.Address, net.Name)
	}
	if _, ok := addr.(*btcutil.AddressTaproot); ok {
		expected, err := TaprootAddress(priv.PubKey(), net)
		if err != nil {
			return err
		}
		if expected.EncodeAddress() != addr.EncodeAddress() {
			return fmt.Errorf("address %s does not match wif", r.Address)
		}
	}
	return nil
}

// LoadWalletFile 读取并校验钱包文件
func LoadWalletFile(path string, net *chaincfg.Params) (*File, error) {
	//nolint:gosec // G304: 路径由用户显式指定
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wallet file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal wallet file: %w", err)
	}

	if f.Primary == nil || f.Funding == nil {
		return nil, errors.New("wallet file requires primary and funding records")
	}
	if err := f.Primary.Validate(net); err != nil {
		return nil, fmt.Errorf("primary: %w", err)
	}
	if err := f.Funding.Validate(net); err != nil {
		return nil, fmt.Errorf("funding: %w", err)
	}
	for alias, rec := range f.Imported {
		if err := rec.Validate(net); err != nil {
			return nil, fmt.Errorf("imported %s: %w", alias, err)
		}
	}
	return &f, nil
}

// Select 按别名返回记录
func (f *File) Select(alias string) (*Record, error) {
	switch alias {
	case "", AliasPrimary:
		return f.Primary, nil
	case AliasFunding:
		return f.Funding, nil
	}
	if rec, ok := f.Imported[alias]; ok {
		return rec, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAlias, alias)
}

// ErrWalletExists 目标路径已存在钱包文件
var ErrWalletExists = errors.New("wallet file already exists")

// NewFile 由助记词派生 primary 与 funding 记录
func NewFile(phrase, passphrase string, net *chaincfg.Params) (*File, error) {
	primary, err := DeriveRecord(phrase, passphrase, DefaultPrimaryPath, net)
	if err != nil {
		return nil, fmt.Errorf("primary: %w", err)
	}
	funding, err := DeriveRecord(phrase, passphrase, DefaultFundingPath, net)
	if err != nil {
		return nil, fmt.Errorf("funding: %w", err)
	}
	return &File{
		Phrase:  normalizeSpaces(phrase),
		Primary: primary,
		Funding: funding,
	}, nil
}

// SaveTo 写出钱包文件，权限 0600
// overwrite 为 false 时不覆盖已有文件
func (f *File) SaveTo(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrWalletExists, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create wallet dir: %w", err)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write wallet file: %w", err)
	}
	return nil
}
