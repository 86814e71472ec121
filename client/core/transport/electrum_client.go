package transport

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// ElectrumClient 基于 Caller 的类型化客户端
type ElectrumClient struct {
	caller Caller
}

var _ Client = (*ElectrumClient)(nil)

// NewElectrumClient 封装原始调用器
func NewElectrumClient(caller Caller) *ElectrumClient {
	return &ElectrumClient{caller: caller}
}

// GetByContract 实现 Client
func (c *ElectrumClient) GetByContract(ctx context.Context, name string) (*LookupResult, error) {
	return c.lookup(ctx, MethodGetByContract, name)
}

// GetByProtocol 实现 Client
func (c *ElectrumClient) GetByProtocol(ctx context.Context, name string) (*LookupResult, error) {
	return c.lookup(ctx, MethodGetByProtocol, name)
}

// lookup 解析按名称查找的返回
// 节点把已确认的 atomical_id 与候选列表放在 result 中，atomical_id 可能为 null；
// 部分代理把 candidates 放在外层，这里两处都接受。
func (c *ElectrumClient) lookup(ctx context.Context, method, name string) (*LookupResult, error) {
	var envelope struct {
		Result *struct {
			AtomicalRecord
			Candidates []Candidate `json:"candidates"`
		} `json:"result"`
		Candidates []Candidate `json:"candidates"`
	}
	if err := c.caller.Call(ctx, method, []interface{}{name}, &envelope); err != nil {
		return nil, err
	}

	out := &LookupResult{Candidates: envelope.Candidates}
	if envelope.Result != nil {
		if envelope.Result.AtomicalID != "" {
			record := envelope.Result.AtomicalRecord
			out.Result = &record
		}
		out.Candidates = append(out.Candidates, envelope.Result.Candidates...)
	}
	return out, nil
}

// GetAtomical 实现 Client
func (c *ElectrumClient) GetAtomical(ctx context.Context, atomicalID string) (*AtomicalRecord, error) {
	var envelope struct {
		Result *AtomicalRecord `json:"result"`
	}
	if err := c.caller.Call(ctx, MethodGetAtomical, []interface{}{atomicalID}, &envelope); err != nil {
		return nil, err
	}
	if envelope.Result == nil {
		return nil, &RPCError{Code: NotFoundCode, Message: fmt.Sprintf("atomical %s not found", atomicalID)}
	}
	return envelope.Result, nil
}

// ListUnspent 实现 Client
func (c *ElectrumClient) ListUnspent(ctx context.Context, scriptHash string) ([]*UTXO, error) {
	var utxos []*UTXO
	if err := c.caller.Call(ctx, MethodListUnspent, []interface{}{scriptHash}, &utxos); err != nil {
		return nil, err
	}
	return utxos, nil
}

// Broadcast 实现 Client
func (c *ElectrumClient) Broadcast(ctx context.Context, rawTxHex string) (string, error) {
	var txid string
	if err := c.caller.Call(ctx, MethodBroadcast, []interface{}{rawTxHex}, &txid); err != nil {
		return "", err
	}
	return txid, nil
}

// Ping 实现 Client
func (c *ElectrumClient) Ping(ctx context.Context) error {
	return c.caller.Call(ctx, MethodPing, []interface{}{}, nil)
}

// Close 实现 Client
func (c *ElectrumClient) Close() error {
	return c.caller.Close()
}

// ElectrumScriptHash 计算 ElectrumX 使用的脚本哈希：sha256(script) 反序后的十六进制
func ElectrumScriptHash(pkScript []byte) string {
	sum := sha256.Sum256(pkScript)
	for i, j := 0, len(sum)-1; i < j; i, j = i+1, j-1 {
		sum[i], sum[j] = sum[j], sum[i]
	}
	return hex.EncodeToString(sum[:])
}

// EncodeTx 序列化交易为十六进制（含 witness）
func EncodeTx(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("serialize tx: %w", err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}
