// Package secp256k1 提供 secp256k1 椭圆曲线后端
//
// 后端以显式值的形式在进程启动时创建，并按引用传递给需要曲线运算的组件，
// 包内没有任何全局初始化。测试中可以替换为其他实现。
//
// 当前提供两个实现：
//   - btcec：github.com/btcsuite/btcd/btcec/v2
//   - decred：github.com/decred/dcrd/dcrec/secp256k1/v4
//
// 两者均使用 RFC6979 确定性 nonce 并输出 low-S 的 DER 签名。
package secp256k1

import (
	"fmt"
	"strings"
)

// 后端名称
const (
	BackendBtcec  = "btcec"
	BackendDecred = "decred"

	// DefaultBackend 默认后端
	DefaultBackend = BackendBtcec
)

const (
	// PrivateKeyLength 私钥长度
	PrivateKeyLength = 32
	// HashLength 待签名哈希长度
	HashLength = 32
)

// Curve secp256k1 曲线运算接口
type Curve interface {
	// Name 返回后端名称
	Name() string

	// PublicKey 由 32 字节私钥计算 33 字节压缩公钥
	PublicKey(privKey []byte) ([]byte, error)

	// SignDER 对 32 字节哈希签名，返回 DER 编码的签名
	SignDER(privKey, hash []byte) ([]byte, error)

	// VerifyDER 使用公钥（压缩或未压缩）验证 DER 签名
	VerifyDER(pubKey, hash, sig []byte) bool
}

// New 按名称创建曲线后端，空名称使用默认后端
func New(name string) (Curve, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendBtcec:
		return NewBtcecCurve(), nil
	case BackendDecred:
		return NewDecredCurve(), nil
	default:
		return nil, fmt.Errorf("unknown curve backend %q", name)
	}
}

func checkSignInputs(privKey, hash []byte) error {
	if len(privKey) != PrivateKeyLength {
		return &ErrInvalidKeyLength{Expected: PrivateKeyLength, Got: len(privKey)}
	}
	if len(hash) != HashLength {
		return &ErrInvalidHashLength{Expected: HashLength, Got: len(hash)}
	}
	return nil
}

// ErrInvalidKeyLength 私钥长度无效
type ErrInvalidKeyLength struct {
	Expected int
	Got      int
}

func (e *ErrInvalidKeyLength) Error() string {
	return fmt.Sprintf("invalid private key length: expected %d bytes, got %d", e.Expected, e.Got)
}

// ErrInvalidHashLength 哈希长度无效
type ErrInvalidHashLength struct {
	Expected int
	Got      int
}

func (e *ErrInvalidHashLength) Error() string {
	return fmt.Sprintf("invalid hash length: expected %d bytes, got %d", e.Expected, e.Got)
}
