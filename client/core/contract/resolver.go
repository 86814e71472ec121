package contract

import (
	"context"
	"fmt"

	"github.com/golshanaramesh/atomicals-js/client/core/transport"
	"github.com/golshanaramesh/atomicals-js/pkg/interfaces/infrastructure/log"
)

// RecordKind 查询的记录类型
type RecordKind string

const (
	KindContract RecordKind = "contract"
	KindProtocol RecordKind = "protocol"
)

// Outcome 查询结果分类
type Outcome int

const (
	// NotFound 索引节点明确返回未找到
	NotFound Outcome = iota
	// Found 存在已解析的记录
	Found
	// Pending 只有未确认的候选
	Pending
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Pending:
		return "pending"
	default:
		return "not_found"
	}
}

// FetchMode 查询方式
type FetchMode int

const (
	// FetchGet 找到后按 atomical id 重新获取完整记录（含 mint_data）
	FetchGet FetchMode = iota
	// FetchSummary 仅使用按名称查询返回的记录
	FetchSummary
)

// LookupClient 解析器依赖的索引节点接口
type LookupClient interface {
	GetByContract(ctx context.Context, name string) (*transport.LookupResult, error)
	GetByProtocol(ctx context.Context, name string) (*transport.LookupResult, error)
	GetAtomical(ctx context.Context, atomicalID string) (*transport.AtomicalRecord, error)
}

// Resolution 查询结果
// Outcome 为 Found 时 Record 非空；为 Pending 时 Candidates 非空
type Resolution struct {
	Kind       RecordKind
	Name       string
	Outcome    Outcome
	Record     *transport.AtomicalRecord
	Candidates []transport.Candidate
}

// CandidateIDs 返回候选的 atomical id
func (r *Resolution) CandidateIDs() []string {
	ids := make([]string, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		ids = append(ids, c.AtomicalID)
	}
	return ids
}

// ContractRecord 合约记录
type ContractRecord struct {
	Name               string `json:"name"`
	AtomicalID         string `json:"atomical_id"`
	InstanceOfProtocol string `json:"instance_of_protocol"`
}

// ProtocolRecord 协议记录
type ProtocolRecord struct {
	Name       string `json:"name"`
	AtomicalID string `json:"atomical_id"`
	LockScript []byte `json:"lock_script"`
}

// Resolver 按名称解析合约与协议
type Resolver struct {
	client LookupClient
	mode   FetchMode
	logger log.Logger
}

// NewResolver 创建解析器
func NewResolver(client LookupClient, mode FetchMode, logger log.Logger) *Resolver {
	return &Resolver{client: client, mode: mode, logger: logger}
}

// Resolve 查询名称
// 返回的 error 只可能是 *FatalLookupError
func (r *Resolver) Resolve(ctx context.Context, kind RecordKind, name string) (*Resolution, error) {
	var (
		lookup *transport.LookupResult
		err    error
	)
	switch kind {
	case KindContract:
		lookup, err = r.client.GetByContract(ctx, name)
	case KindProtocol:
		lookup, err = r.client.GetByProtocol(ctx, name)
	default:
		return nil, &FatalLookupError{Kind: kind, Name: name, Err: fmt.Errorf("unknown record kind")}
	}

	res := &Resolution{Kind: kind, Name: name, Outcome: NotFound}
	if err != nil {
		if transport.IsNotFound(err) {
			r.logger.Debugf("%s %q not found", kind, name)
			return res, nil
		}
		return nil, &FatalLookupError{Kind: kind, Name: name, Err: err}
	}
	if lookup == nil {
		return res, nil
	}

	switch {
	case lookup.Result != nil && lookup.Result.AtomicalID != "":
		res.Outcome = Found
		res.Record = lookup.Result
	case len(lookup.Candidates) > 0:
		res.Outcome = Pending
		res.Candidates = lookup.Candidates
		r.logger.Debugf("%s %q has %d unconfirmed candidates", kind, name, len(lookup.Candidates))
		return res, nil
	default:
		return res, nil
	}
	res.Candidates = lookup.Candidates

	if r.mode == FetchGet {
		full, err := r.client.GetAtomical(ctx, res.Record.AtomicalID)
		if err != nil {
			return nil, &FatalLookupError{Kind: kind, Name: name, Err: fmt.Errorf("get %s: %w", res.Record.AtomicalID, err)}
		}
		res.Record = mergeRecord(res.Record, full)
	}

	r.logger.Debugf("%s %q resolved to %s", kind, name, res.Record.AtomicalID)
	return res, nil
}

// mergeRecord 以完整记录为准，缺失的名称字段沿用摘要记录
func mergeRecord(summary, full *transport.AtomicalRecord) *transport.AtomicalRecord {
	if full == nil {
		return summary
	}
	merged := *full
	if merged.AtomicalID == "" {
		merged.AtomicalID = summary.AtomicalID
	}
	if merged.Contract == "" {
		merged.Contract = summary.Contract
	}
	if merged.RequestContract == "" {
		merged.RequestContract = summary.RequestContract
	}
	if merged.Protocol == "" {
		merged.Protocol = summary.Protocol
	}
	if merged.InstanceOfProtocol == "" {
		merged.InstanceOfProtocol = summary.InstanceOfProtocol
	}
	if merged.MintData == nil {
		merged.MintData = summary.MintData
	}
	return &merged
}

// RequireExisting 调用已有合约的策略：必须 Found
func RequireExisting(res *Resolution) error {
	switch res.Outcome {
	case Found:
		return nil
	case Pending:
		return &AmbiguousNameError{Kind: res.Kind, Name: res.Name, Candidates: res.CandidateIDs()}
	default:
		return &NotFoundError{Kind: res.Kind, Name: res.Name}
	}
}

// RequireAvailable 注册新合约的策略：必须 NotFound，未确认候选也视为占用
func RequireAvailable(res *Resolution) error {
	if res.Outcome == NotFound {
		return nil
	}
	return &DuplicateNameError{Name: res.Name}
}

// ContractFromResolution 转换为合约记录
func ContractFromResolution(res *Resolution) (*ContractRecord, error) {
	if err := RequireExisting(res); err != nil {
		return nil, err
	}
	if res.Record.InstanceOfProtocol == "" {
		return nil, &FormatError{Field: "$instance_of_protocol", Reason: fmt.Sprintf("missing on contract %q", res.Name)}
	}
	return &ContractRecord{
		Name:               res.Name,
		AtomicalID:         res.Record.AtomicalID,
		InstanceOfProtocol: res.Record.InstanceOfProtocol,
	}, nil
}

// ProtocolFromResolution 转换为协议记录，锁定脚本取自 mint_data.fields.code
func ProtocolFromResolution(res *Resolution) (*ProtocolRecord, error) {
	if err := RequireExisting(res); err != nil {
		return nil, err
	}
	code, err := res.Record.FieldBytes("code")
	if err != nil {
		return nil, &FormatError{Field: "mint_data.fields.code", Reason: err.Error()}
	}
	return &ProtocolRecord{
		Name:       res.Name,
		AtomicalID: res.Record.AtomicalID,
		LockScript: code,
	}, nil
}
