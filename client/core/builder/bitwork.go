package builder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/wire"
)

// ErrBitworkExhausted sequence 空间内未找到满足 bitwork 的交易
var ErrBitworkExhausted = errors.New("bitwork search space exhausted")

// Bitwork 工作量前缀要求
// "abcd" 表示 txid 以 abcd 开头；"abcd.8" 还要求下一位十六进制数字 >= 8
type Bitwork struct {
	Prefix string `json:"prefix"`
	Ext    int    `json:"ext,omitempty"` // 0 表示无附加要求
}

// ParseBitwork 解析 "hex[.n]" 形式的 bitwork，n 取 1..15
func ParseBitwork(s string) (*Bitwork, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	prefix, extStr, hasExt := strings.Cut(s, ".")

	if prefix == "" || len(prefix) > 64 {
		return nil, fmt.Errorf("invalid bitwork %q: prefix must be 1..64 hex chars", s)
	}
	for _, c := range prefix {
		if !isHexDigit(c) {
			return nil, fmt.Errorf("invalid bitwork %q: non-hex prefix", s)
		}
	}

	bw := &Bitwork{Prefix: prefix}
	if hasExt {
		ext, err := strconv.Atoi(extStr)
		if err != nil || ext < 1 || ext > 15 {
			return nil, fmt.Errorf("invalid bitwork %q: extension must be 1..15", s)
		}
		if len(prefix) == 64 {
			return nil, fmt.Errorf("invalid bitwork %q: no room for extension", s)
		}
		bw.Ext = ext
	}
	return bw, nil
}

// String 返回规范形式
func (b *Bitwork) String() string {
	if b.Ext == 0 {
		return b.Prefix
	}
	return fmt.Sprintf("%s.%d", b.Prefix, b.Ext)
}

// Matches 判断 txid（大端十六进制显示形式）是否满足要求
func (b *Bitwork) Matches(txid string) bool {
	txid = strings.ToLower(txid)
	if !strings.HasPrefix(txid, b.Prefix) {
		return false
	}
	if b.Ext == 0 {
		return true
	}
	if len(txid) <= len(b.Prefix) {
		return false
	}
	next, err := strconv.ParseUint(txid[len(b.Prefix):len(b.Prefix)+1], 16, 8)
	return err == nil && int(next) >= b.Ext
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

// maxMiningSequence RBF 挖掘时 sequence 的上限，不使用 0xfffffffe 与 0xffffffff
const maxMiningSequence = math.MaxUint32 - 2

// mineNonce 变动 nonce 直到 txid 满足 bitwork
// rbf 为真时 nonce 写入输入 0 的 sequence，取值始终低于 0xfffffffe，交易本就声明 BIP125 替换；
// 否则所有输入保持 final sequence，nonce 写入 nLockTime，final 交易不校验 locktime 也不声明 RBF。
// txid 不含 witness，因此必须在签名之前调用
func mineNonce(ctx context.Context, tx *wire.MsgTx, rbf bool, bw *Bitwork, progress func(attempts uint64)) (uint64, error) {
	if bw == nil {
		return 0, nil
	}
	limit := uint64(math.MaxUint32)
	set := func(n uint32) { tx.LockTime = n }
	if rbf {
		limit = maxMiningSequence
		set = func(n uint32) { tx.TxIn[0].Sequence = n }
	}
	var attempts uint64
	for n := uint64(0); n <= limit; n++ {
		if attempts%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return attempts, err
			}
			if progress != nil && attempts > 0 {
				progress(attempts)
			}
		}
		attempts++
		set(uint32(n))
		if bw.Matches(tx.TxHash().String()) {
			return attempts, nil
		}
	}
	return attempts, ErrBitworkExhausted
}
