package builder

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/golshanaramesh/atomicals-js/client/core/transport"
	"github.com/golshanaramesh/atomicals-js/pkg/interfaces/infrastructure/log"
)

const (
	sequenceFinal = wire.MaxTxInSequenceNum
	sequenceRBF   = wire.MaxTxInSequenceNum - 2
)

// OperationBuilder 单次 commit/reveal 操作的构建器
// 配置方法只能在 Start 之前调用；每个实例只能 Start 一次
type OperationBuilder struct {
	client ChainClient
	opts   Options
	logger log.Logger

	mu           sync.Mutex
	started      bool
	bitworkc     *Bitwork
	bitworkr     *Bitwork
	data         map[string]any
	requestName  string
	protocolName string
	deployScript []byte
	outputs      []Output
	hook         PreFinalizationHook
	now          func() time.Time
	nonce        func() int64
}

// NewOperationBuilder 创建构建器
func NewOperationBuilder(client ChainClient, opts Options, logger log.Logger) *OperationBuilder {
	return &OperationBuilder{
		client: client,
		opts:   opts.withDefaults(),
		logger: logger,
		now:    time.Now,
		nonce:  func() int64 { return rand.Int64N(10_000_000) },
	}
}

// Options 返回生效的配置
func (b *OperationBuilder) Options() Options {
	return b.opts
}

// SetBitworkCommit 设置 commit 交易的 bitwork；空字符串表示不需要
func (b *OperationBuilder) SetBitworkCommit(s string) error {
	bw, err := parseOptionalBitwork(s)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bitworkc = bw
	return nil
}

// SetBitworkReveal 设置 reveal 交易的 bitwork；空字符串表示不需要
func (b *OperationBuilder) SetBitworkReveal(s string) error {
	bw, err := parseOptionalBitwork(s)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bitworkr = bw
	return nil
}

func parseOptionalBitwork(s string) (*Bitwork, error) {
	if s == "" {
		return nil, nil
	}
	return ParseBitwork(s)
}

// SetData 设置 payload 数据字段
func (b *OperationBuilder) SetData(data map[string]any) error {
	if data == nil {
		return errors.New("nil data")
	}
	if _, ok := data["args"]; ok {
		return errors.New("data must not contain reserved key \"args\"")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = maps.Clone(data)
	return nil
}

// SetRequestContract 设置注册的合约名及其协议
func (b *OperationBuilder) SetRequestContract(name, protocol string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requestName = name
	b.protocolName = protocol
}

// SetContractDeployScript 设置部署脚本
func (b *OperationBuilder) SetContractDeployScript(script []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deployScript = append([]byte(nil), script...)
}

// AddOutput 追加 reveal 输出
func (b *OperationBuilder) AddOutput(out Output) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputs = append(b.outputs, out)
}

// SetPreRevealHook 注册 reveal 定稿前的 hook，最多一个
func (b *OperationBuilder) SetPreRevealHook(h PreFinalizationHook) error {
	if h == nil {
		return errors.New("nil hook")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hook != nil {
		return ErrHookAlreadySet
	}
	b.hook = h
	return nil
}

func (b *OperationBuilder) payloadLocked() map[string]any {
	payload := maps.Clone(b.data)
	if payload == nil {
		payload = map[string]any{}
	}

	args := map[string]any{
		"nonce": b.nonce(),
		"time":  b.now().Unix(),
	}
	if b.bitworkc != nil {
		args["bitworkc"] = b.bitworkc.String()
	}
	if b.bitworkr != nil {
		args["bitworkr"] = b.bitworkr.String()
	}
	if b.requestName != "" {
		args["request_contract"] = b.requestName
		args["instance_of_protocol"] = b.protocolName
	}
	payload["args"] = args

	if len(b.opts.Meta) > 0 {
		payload["meta"] = b.opts.Meta
	}
	if len(b.opts.Ctx) > 0 {
		payload["ctx"] = b.opts.Ctx
	}
	if len(b.opts.Init) > 0 {
		payload["init"] = b.opts.Init
	}
	if b.deployScript != nil {
		payload["code"] = b.deployScript
	}
	return payload
}

// Start 构建、签名并（非 dry-run 时）广播 commit 与 reveal
func (b *OperationBuilder) Start(ctx context.Context, fundingWIF string) (*Result, error) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	b.started = true
	payload := b.payloadLocked()
	outputs := append([]Output(nil), b.outputs...)
	hook := b.hook
	bitworkc, bitworkr := b.bitworkc, b.bitworkr
	b.mu.Unlock()

	if b.opts.OpType == "" {
		return nil, errors.New("op type not set")
	}
	selector, err := NewSelector(b.opts.UTXOStrategy)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, errors.New("reveal requires at least one output")
	}

	wif, err := btcutil.DecodeWIF(fundingWIF)
	if err != nil {
		return nil, fmt.Errorf("decode funding wif: %w", err)
	}
	if !wif.IsForNet(b.opts.Network) {
		return nil, fmt.Errorf("funding wif is not for network %s", b.opts.Network.Name)
	}
	fundingKey := wif.PrivKey
	fundingPkScript, err := txscript.PayToTaprootScript(txscript.ComputeTaprootKeyNoScript(fundingKey.PubKey()))
	if err != nil {
		return nil, fmt.Errorf("funding script: %w", err)
	}

	encoded, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	envelope, err := BuildEnvelopeScript(schnorr.SerializePubKey(fundingKey.PubKey()), b.opts.OpType, encoded)
	if err != nil {
		return nil, err
	}
	spend, err := newCommitSpend(fundingKey.PubKey(), envelope)
	if err != nil {
		return nil, err
	}

	revealOuts, err := b.resolveOutputs(outputs)
	if err != nil {
		return nil, err
	}

	// 1. reveal 手续费估算，决定 commit 输出金额
	revealEstimate := b.newRevealTx(&chainhash.Hash{}, revealOuts)
	revealEstimate.TxIn[0].Witness = scriptPathWitness(spend)
	// reveal 没有找零输出，预留只在 hook 可能追加输出时计入
	reserve := VirtualSize(revealEstimate)
	if hook != nil {
		reserve += b.opts.HookOutputAllowance
	}
	revealFee := FeeForVSize(reserve, b.opts.SatsByte)
	commitValue := revealFee + sumOutputs(revealOuts)

	b.logger.Infof("building %s operation: commit value %d sats, reveal fee reserve %d sats",
		b.opts.OpType, commitValue, revealFee)

	// 2. commit 交易
	commitTx, commitFee, prevOuts, err := b.buildCommit(ctx, fundingPkScript, spend.pkScript, commitValue, selector)
	if err != nil {
		return nil, fmt.Errorf("build commit: %w", err)
	}
	if err := b.mine(ctx, "commit", commitTx, bitworkc); err != nil {
		return nil, fmt.Errorf("mine commit: %w", err)
	}
	if err := signKeyPathInputs(commitTx, prevOuts, fundingKey); err != nil {
		return nil, fmt.Errorf("sign commit: %w", err)
	}
	commitHash := commitTx.TxHash()
	commit := CommitReference{
		TxID:   commitHash.String(),
		Vout:   0,
		Value:  commitValue,
		Script: append([]byte(nil), spend.pkScript...),
	}

	// 3. reveal 草稿与 hook
	revealTx := b.newRevealTx(&commitHash, revealOuts)
	if hook != nil {
		draft := NewRevealDraft(revealTx)
		err := hook.Apply(ctx, commit, draft)
		draft.seal()
		if err != nil {
			return nil, &HookError{Err: err}
		}
	}

	// 4. 余额校验
	revealTx.TxIn[0].Witness = scriptPathWitness(spend)
	required := FeeForVSize(VirtualSize(revealTx), b.opts.SatsByte)
	available := commitValue - sumOutputs(revealTx.TxOut)
	if available < required {
		return nil, fmt.Errorf("%w: available %d, required %d", ErrRevealUnderfunded, available, required)
	}
	revealTx.TxIn[0].Witness = nil

	// 5. reveal 挖掘与签名
	if err := b.mine(ctx, "reveal", revealTx, bitworkr); err != nil {
		return nil, fmt.Errorf("mine reveal: %w", err)
	}
	if err := signScriptPathInput(revealTx, commit, spend, fundingKey); err != nil {
		return nil, fmt.Errorf("sign reveal: %w", err)
	}

	commitHex, err := transport.EncodeTx(commitTx)
	if err != nil {
		return nil, err
	}
	revealHex, err := transport.EncodeTx(revealTx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		CommitTxID: commit.TxID,
		RevealTxID: revealTx.TxHash().String(),
		AtomicalID: fmt.Sprintf("%si%d", commit.TxID, commit.Vout),
		CommitHex:  commitHex,
		RevealHex:  revealHex,
		CommitFee:  commitFee,
		RevealFee:  available,
	}

	if b.opts.DryRun {
		b.logger.Infof("dry run: commit %s, reveal %s not broadcast", result.CommitTxID, result.RevealTxID)
		return result, nil
	}

	// 6. 广播
	if _, err := b.client.Broadcast(ctx, commitHex); err != nil {
		return nil, fmt.Errorf("broadcast commit: %w", err)
	}
	b.logger.Infof("commit broadcast: %s", result.CommitTxID)
	if _, err := b.client.Broadcast(ctx, revealHex); err != nil {
		return nil, fmt.Errorf("broadcast reveal: %w", err)
	}
	b.logger.Infof("reveal broadcast: %s", result.RevealTxID)
	result.Broadcast = true

	return result, nil
}

func (b *OperationBuilder) resolveOutputs(outputs []Output) ([]*wire.TxOut, error) {
	outs := make([]*wire.TxOut, 0, len(outputs))
	for _, o := range outputs {
		addr, err := btcutil.DecodeAddress(o.Address, b.opts.Network)
		if err != nil {
			return nil, fmt.Errorf("decode output address %q: %w", o.Address, err)
		}
		if !addr.IsForNet(b.opts.Network) {
			return nil, fmt.Errorf("output address %s is not for network %s", o.Address, b.opts.Network.Name)
		}
		if o.Value < DustLimit {
			return nil, fmt.Errorf("output value %d below dust limit %d", o.Value, DustLimit)
		}
		pkScript, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, fmt.Errorf("output script: %w", err)
		}
		outs = append(outs, wire.NewTxOut(o.Value, pkScript))
	}
	return outs, nil
}

func (b *OperationBuilder) sequence() uint32 {
	if b.opts.RBF {
		return sequenceRBF
	}
	return sequenceFinal
}

func (b *OperationBuilder) newRevealTx(commitHash *chainhash.Hash, outs []*wire.TxOut) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	in := wire.NewTxIn(wire.NewOutPoint(commitHash, 0), nil, nil)
	in.Sequence = b.sequence()
	tx.AddTxIn(in)
	for _, out := range outs {
		tx.AddTxOut(wire.NewTxOut(out.Value, append([]byte(nil), out.PkScript...)))
	}
	return tx
}

// buildCommit 选择资金 UTXO 并构建未签名的 commit 交易
// 返回交易、手续费以及签名所需的前序输出
func (b *OperationBuilder) buildCommit(
	ctx context.Context,
	fundingPkScript, commitPkScript []byte,
	commitValue int64,
	selector UTXOSelector,
) (*wire.MsgTx, int64, map[wire.OutPoint]*wire.TxOut, error) {
	listed, err := b.client.ListUnspent(ctx, transport.ElectrumScriptHash(fundingPkScript))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("list unspent: %w", err)
	}
	utxos := FundingUTXOs(listed, fundingPkScript)

	estimate := func(selected []UTXO, withChange bool) (*wire.MsgTx, int64, error) {
		tx, err := b.commitTx(selected, fundingPkScript, commitPkScript, commitValue, 0, withChange)
		if err != nil {
			return nil, 0, err
		}
		for _, in := range tx.TxIn {
			in.Witness = keyPathWitness()
		}
		return tx, FeeForVSize(VirtualSize(tx), b.opts.SatsByte), nil
	}

	target := btcutil.Amount(commitValue)
	for {
		selected, total, err := selector.Select(utxos, target)
		if err != nil {
			return nil, 0, nil, err
		}

		_, feeWithChange, err := estimate(selected, true)
		if err != nil {
			return nil, 0, nil, err
		}
		change := int64(total) - commitValue - feeWithChange

		var tx *wire.MsgTx
		var fee int64
		switch {
		case change >= DustLimit:
			tx, err = b.commitTx(selected, fundingPkScript, commitPkScript, commitValue, change, true)
			fee = feeWithChange
		default:
			_, feeNoChange, estErr := estimate(selected, false)
			if estErr != nil {
				return nil, 0, nil, estErr
			}
			if int64(total)-commitValue < feeNoChange {
				next := btcutil.Amount(commitValue + feeNoChange)
				if next <= target {
					next = target + 1
				}
				target = next
				continue
			}
			tx, err = b.commitTx(selected, fundingPkScript, commitPkScript, commitValue, 0, false)
			fee = int64(total) - commitValue
		}
		if err != nil {
			return nil, 0, nil, err
		}

		prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(selected))
		for i, u := range selected {
			prevOuts[tx.TxIn[i].PreviousOutPoint] = wire.NewTxOut(int64(u.Amount), u.ScriptPub)
		}
		return tx, fee, prevOuts, nil
	}
}

func (b *OperationBuilder) commitTx(
	selected []UTXO,
	fundingPkScript, commitPkScript []byte,
	commitValue, change int64,
	withChange bool,
) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(wire.TxVersion)
	for _, u := range selected {
		hash, err := chainhash.NewHashFromStr(u.TxHash)
		if err != nil {
			return nil, fmt.Errorf("utxo hash %q: %w", u.TxHash, err)
		}
		in := wire.NewTxIn(wire.NewOutPoint(hash, u.Vout), nil, nil)
		in.Sequence = b.sequence()
		tx.AddTxIn(in)
	}
	tx.AddTxOut(wire.NewTxOut(commitValue, commitPkScript))
	// 找零只回到资金地址，接收地址只出现在 reveal 输出中
	if withChange {
		tx.AddTxOut(wire.NewTxOut(change, fundingPkScript))
	}
	return tx, nil
}

func (b *OperationBuilder) mine(ctx context.Context, stage string, tx *wire.MsgTx, bw *Bitwork) error {
	if bw == nil {
		return nil
	}
	start := time.Now()
	progress := func(attempts uint64) {
		if !b.opts.DisableMiningChalk {
			b.logger.Debugf("mining %s bitwork %s: %d attempts", stage, bw, attempts)
		}
	}
	attempts, err := mineNonce(ctx, tx, b.opts.RBF, bw, progress)
	if err != nil {
		return err
	}
	b.logger.Infof("%s bitwork %s found after %d attempts in %s", stage, bw, attempts, time.Since(start).Round(time.Millisecond))
	return nil
}

func signKeyPathInputs(tx *wire.MsgTx, prevOuts map[wire.OutPoint]*wire.TxOut, key *btcec.PrivateKey) error {
	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	for i, in := range tx.TxIn {
		prev := fetcher.FetchPrevOutput(in.PreviousOutPoint)
		if prev == nil {
			return fmt.Errorf("missing previous output for input %d", i)
		}
		witness, err := txscript.TaprootWitnessSignature(tx, sigHashes, i, prev.Value, prev.PkScript, txscript.SigHashDefault, key)
		if err != nil {
			return err
		}
		in.Witness = witness
	}
	return nil
}

func signScriptPathInput(tx *wire.MsgTx, commit CommitReference, spend *commitSpend, key *btcec.PrivateKey) error {
	fetcher := txscript.NewCannedPrevOutputFetcher(commit.Script, commit.Value)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	sig, err := txscript.RawTxInTapscriptSignature(tx, sigHashes, 0, commit.Value, commit.Script, spend.leaf, txscript.SigHashDefault, key)
	if err != nil {
		return err
	}
	tx.TxIn[0].Witness = wire.TxWitness{sig, spend.script, spend.controlBlock}
	return nil
}
