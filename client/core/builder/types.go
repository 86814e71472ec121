// Package builder 构建并广播 atomicals commit/reveal 交易对
//
// 流程：
//  1. 由资金 UTXO 构建 commit 交易，输出锁定到包含 envelope 的 taproot 脚本
//  2. 挖掘 bitworkc（仅变动输入 sequence），然后签名
//  3. 构建 reveal 草稿，调用一次 PreFinalizationHook
//  4. 校验余额，挖掘 bitworkr，按 tapscript 路径签名
//  5. 依次广播 commit 与 reveal（dry-run 时跳过）
package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"

	"github.com/golshanaramesh/atomicals-js/client/core/transport"
)

// 操作类型
const (
	OpTypeCall = "c"   // 合约调用
	OpTypeNew  = "new" // 合约注册
)

// 默认值
const (
	DefaultSatsByte            int64 = 10
	DefaultSatsOutput          int64 = 1000
	DefaultHookOutputAllowance int64 = 100 // vbytes，预留给 hook 追加的输出
	DustLimit                  int64 = 546
)

// Options 构建器配置
type Options struct {
	SatsByte            int64            `json:"satsbyte"`
	OpType              string           `json:"op_type"`
	RBF                 bool             `json:"rbf"`
	Meta                map[string]any   `json:"meta,omitempty"`
	Ctx                 map[string]any   `json:"ctx,omitempty"`
	Init                map[string]any   `json:"init,omitempty"`
	SatsOutput          int64            `json:"satsoutput"`
	DisableMiningChalk  bool             `json:"disable_mining_chalk"`
	DryRun              bool             `json:"dry_run"`
	HookOutputAllowance int64            `json:"hook_output_allowance"` // 仅在设置了 hook 时预留
	UTXOStrategy        string           `json:"utxo_strategy,omitempty"`
	Network             *chaincfg.Params `json:"-"`
}

func (o Options) withDefaults() Options {
	if o.SatsByte <= 0 {
		o.SatsByte = DefaultSatsByte
	}
	if o.SatsOutput <= 0 {
		o.SatsOutput = DefaultSatsOutput
	}
	if o.HookOutputAllowance <= 0 {
		o.HookOutputAllowance = DefaultHookOutputAllowance
	}
	if o.Network == nil {
		o.Network = &chaincfg.MainNetParams
	}
	return o
}

// Output reveal 交易的普通输出
type Output struct {
	Address string `json:"address"`
	Value   int64  `json:"value"`
}

// CommitReference 已定稿的 commit 输出
type CommitReference struct {
	TxID   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Value  int64  `json:"value"`
	Script []byte `json:"script"`
}

// PreFinalizationHook 在 reveal 签名与广播之前调用一次
// 返回错误时整个操作终止，不广播任何交易
type PreFinalizationHook interface {
	Apply(ctx context.Context, commit CommitReference, draft *RevealDraft) error
}

// RevealDraft reveal 交易草稿
// 只允许读取输出副本与追加输出，hook 返回后即封存
type RevealDraft struct {
	mu     sync.Mutex
	tx     *wire.MsgTx
	sealed bool
}

// NewRevealDraft 包装 reveal 交易，追加的输出直接写入 tx
func NewRevealDraft(tx *wire.MsgTx) *RevealDraft {
	return &RevealDraft{tx: tx}
}

// Outputs 返回当前输出的深拷贝（按顺序）
func (d *RevealDraft) Outputs() []*wire.TxOut {
	d.mu.Lock()
	defer d.mu.Unlock()

	outs := make([]*wire.TxOut, len(d.tx.TxOut))
	for i, out := range d.tx.TxOut {
		script := make([]byte, len(out.PkScript))
		copy(script, out.PkScript)
		outs[i] = wire.NewTxOut(out.Value, script)
	}
	return outs
}

// AddOutput 追加输出
func (d *RevealDraft) AddOutput(out *wire.TxOut) error {
	if out == nil {
		return errors.New("nil output")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sealed {
		return ErrDraftSealed
	}
	script := make([]byte, len(out.PkScript))
	copy(script, out.PkScript)
	d.tx.AddTxOut(wire.NewTxOut(out.Value, script))
	return nil
}

func (d *RevealDraft) seal() {
	d.mu.Lock()
	d.sealed = true
	d.mu.Unlock()
}

// Result 操作结果
type Result struct {
	CommitTxID string `json:"commit_txid"`
	RevealTxID string `json:"reveal_txid"`
	AtomicalID string `json:"atomical_id"`
	CommitHex  string `json:"commit_hex,omitempty"`
	RevealHex  string `json:"reveal_hex,omitempty"`
	CommitFee  int64  `json:"commit_fee"`
	RevealFee  int64  `json:"reveal_fee"`
	Broadcast  bool   `json:"broadcast"`
}

// ChainClient 构建器需要的链访问能力
type ChainClient interface {
	ListUnspent(ctx context.Context, scriptHash string) ([]*transport.UTXO, error)
	Broadcast(ctx context.Context, rawTxHex string) (string, error)
}

var (
	// ErrHookAlreadySet 已注册过 hook
	ErrHookAlreadySet = errors.New("pre-reveal hook already set")

	// ErrDraftSealed 草稿已封存
	ErrDraftSealed = errors.New("reveal draft is sealed")

	// ErrRevealUnderfunded hook 追加的输出超出预留的手续费
	ErrRevealUnderfunded = errors.New("reveal input does not cover outputs and fee")

	// ErrAlreadyStarted 构建器只能启动一次
	ErrAlreadyStarted = errors.New("builder already started")
)

// HookError hook 返回的错误
type HookError struct {
	Err error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("pre-reveal hook: %v", e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}
