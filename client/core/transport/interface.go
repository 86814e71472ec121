// Package transport 提供 CLI 与 ElectrumX（atomicals 索引节点）通信的客户端
//
// 所有网络调用必须经由 Client 接口，业务代码不直接拼装 RPC 请求。
// 具体传输有两种：HTTP 代理（ProxyClient）与 WebSocket（WebSocketClient），
// 二者都实现 Caller，再由 ElectrumClient 封装为类型化的 Client。
package transport

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ElectrumX 方法名
const (
	MethodGetByContract = "blockchain.atomicals.get_by_contract"
	MethodGetByProtocol = "blockchain.atomicals.get_by_protocol"
	MethodGetAtomical   = "blockchain.atomicals.get"
	MethodListUnspent   = "blockchain.scripthash.listunspent"
	MethodBroadcast     = "blockchain.transaction.broadcast"
	MethodPing          = "server.ping"
)

// NotFoundCode 索引节点保留的"未找到"错误码
const NotFoundCode = 1

// Client 类型化的 ElectrumX 客户端接口
type Client interface {
	// GetByContract 按名称查找合约
	GetByContract(ctx context.Context, name string) (*LookupResult, error)

	// GetByProtocol 按名称查找协议
	GetByProtocol(ctx context.Context, name string) (*LookupResult, error)

	// GetAtomical 按 atomical id 获取完整记录（含 mint_data）
	GetAtomical(ctx context.Context, atomicalID string) (*AtomicalRecord, error)

	// ListUnspent 列出脚本哈希下的 UTXO
	ListUnspent(ctx context.Context, scriptHash string) ([]*UTXO, error)

	// Broadcast 广播原始交易，返回 txid
	Broadcast(ctx context.Context, rawTxHex string) (string, error)

	// Ping 检查节点是否可达
	Ping(ctx context.Context) error

	// Close 关闭连接
	Close() error
}

// Caller 原始 RPC 调用
// result 为 nil 时忽略返回值
type Caller interface {
	Call(ctx context.Context, method string, params []interface{}, result interface{}) error
	Close() error
}

// RPCError 节点返回的错误
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsNotFound 判断错误链中是否为"未找到"错误
func IsNotFound(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == NotFoundCode
}

// LookupResult 按名称查找的结果
// Result 为已确认的记录；Candidates 为尚未确认的候选
type LookupResult struct {
	Result     *AtomicalRecord `json:"result,omitempty"`
	Candidates []Candidate     `json:"candidates,omitempty"`
}

// Candidate 名称候选
type Candidate struct {
	AtomicalID           string `json:"atomical_id"`
	TxID                 string `json:"txid,omitempty"`
	CommitHeight         int64  `json:"commit_height,omitempty"`
	RevealLocationHeight int64  `json:"reveal_location_height,omitempty"`
}

// AtomicalRecord 索引节点返回的记录，只解析本 CLI 消费的字段
type AtomicalRecord struct {
	AtomicalID         string    `json:"atomical_id"`
	AtomicalNumber     int64     `json:"atomical_number,omitempty"`
	Type               string    `json:"type,omitempty"`
	Subtype            string    `json:"subtype,omitempty"`
	Contract           string    `json:"$contract,omitempty"`
	RequestContract    string    `json:"$request_contract,omitempty"`
	Protocol           string    `json:"$protocol,omitempty"`
	InstanceOfProtocol string    `json:"$instance_of_protocol,omitempty"`
	MintData           *MintData `json:"mint_data,omitempty"`
}

// MintData 记录的铸造数据
type MintData struct {
	Fields map[string]json.RawMessage `json:"fields,omitempty"`
}

// FieldBytes 读取以 {"$b": "<hex>"} 编码的字节字段
func (r *AtomicalRecord) FieldBytes(name string) ([]byte, error) {
	if r == nil || r.MintData == nil || r.MintData.Fields == nil {
		return nil, fmt.Errorf("record has no mint data")
	}
	raw, ok := r.MintData.Fields[name]
	if !ok {
		return nil, fmt.Errorf("mint data has no field %q", name)
	}

	var wrapped struct {
		B *string `json:"$b"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.B == nil {
		return nil, fmt.Errorf("field %q is not a $b byte field", name)
	}
	data, err := hex.DecodeString(strings.TrimPrefix(*wrapped.B, "0x"))
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	return data, nil
}

// UTXO scripthash.listunspent 返回的条目
// Atomicals 非空时表示该输出承载 atomical，不能作为手续费输入
type UTXO struct {
	TxHash    string   `json:"tx_hash"`
	TxPos     uint32   `json:"tx_pos"`
	Height    int64    `json:"height"`
	Value     int64    `json:"value"`
	Atomicals []string `json:"atomicals,omitempty"`
}
