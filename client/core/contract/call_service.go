package contract

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/golshanaramesh/atomicals-js/client/core/builder"
	"github.com/golshanaramesh/atomicals-js/client/core/wallet"
	"github.com/golshanaramesh/atomicals-js/internal/core/infrastructure/crypto/secp256k1"
	"github.com/golshanaramesh/atomicals-js/pkg/interfaces/infrastructure/log"
)

// DefaultCallBitwork 调用默认的 commit bitwork
const DefaultCallBitwork = "a"

// ErrHookReused 签名 hook 只能执行一次
var ErrHookReused = errors.New("signature hook already applied")

// CallService 合约调用编排
type CallService struct {
	resolver *Resolver
	factory  BuilderFactory
	curve    secp256k1.Curve
	network  *chaincfg.Params
	logger   log.Logger
}

// NewCallService 创建合约调用服务
func NewCallService(
	resolver *Resolver,
	factory BuilderFactory,
	curve secp256k1.Curve,
	network *chaincfg.Params,
	logger log.Logger,
) *CallService {
	return &CallService{
		resolver: resolver,
		factory:  factory,
		curve:    curve,
		network:  network,
		logger:   logger,
	}
}

// CallRequest 合约调用请求
// CallData 非空时直接使用，否则读取 CallFile
type CallRequest struct {
	CallFile string
	CallData map[string]any
	Auth     *wallet.Record
	Funding  *wallet.Record
	Options  RequestOptions
}

// CallResult 合约调用结果
type CallResult struct {
	InvocationID string          `json:"invocation_id"`
	Contract     *ContractRecord `json:"contract"`
	Protocol     *ProtocolRecord `json:"protocol"`
	Result       *builder.Result `json:"result"`
}

// CallContract 调用已存在的合约
//
// 流程：
//  1. 读取调用文件，注入 auth 公钥并校验
//  2. 解析合约，再解析其 $instance_of_protocol 指向的协议
//  3. 配置构建器并注册签名 hook
//  4. Start：hook 在 reveal 定稿前签名并追加签名输出
func (s *CallService) CallContract(ctx context.Context, req *CallRequest) (*CallResult, error) {
	inv := newInvocation("call", s.logger)
	result, err := s.callContract(ctx, inv, req)
	if err != nil {
		return nil, inv.Fail(err)
	}
	if err := inv.Advance(StateDone); err != nil {
		return nil, inv.Fail(err)
	}
	result.InvocationID = inv.ID
	inv.Logger().Infof("call to %s complete: commit %s reveal %s",
		result.Contract.Name, result.Result.CommitTxID, result.Result.RevealTxID)
	return result, nil
}

func (s *CallService) callContract(ctx context.Context, inv *Invocation, req *CallRequest) (*CallResult, error) {
	if req == nil || req.Auth == nil || req.Funding == nil {
		return nil, errors.New("call request requires auth and funding wallets")
	}
	logger := inv.Logger()

	// 1. 校验调用数据
	raw := maps.Clone(req.CallData)
	if raw == nil {
		loaded, err := LoadCallFile(req.CallFile)
		if err != nil {
			return nil, err
		}
		raw = loaded
	}
	if err := req.Auth.Validate(s.network); err != nil {
		return nil, fmt.Errorf("auth wallet: %w", err)
	}
	if err := req.Funding.Validate(s.network); err != nil {
		return nil, fmt.Errorf("funding wallet: %w", err)
	}
	raw[FieldAuth] = req.Auth.PublicKey

	payload, err := ValidateCallData(raw)
	if err != nil {
		return nil, err
	}
	if err := inv.Advance(StateValidated); err != nil {
		return nil, err
	}

	// 2. 解析合约与协议
	contractRes, err := s.resolver.Resolve(ctx, KindContract, payload.ContractName)
	if err != nil {
		return nil, err
	}
	contract, err := ContractFromResolution(contractRes)
	if err != nil {
		return nil, err
	}
	if err := inv.Advance(StateContractResolved); err != nil {
		return nil, err
	}
	logger.Infof("contract %s resolved: %s (protocol %s)", contract.Name, contract.AtomicalID, contract.InstanceOfProtocol)

	protocolRes, err := s.resolver.Resolve(ctx, KindProtocol, contract.InstanceOfProtocol)
	if err != nil {
		return nil, err
	}
	protocol, err := ProtocolFromResolution(protocolRes)
	if err != nil {
		return nil, err
	}
	if err := inv.Advance(StateProtocolResolved); err != nil {
		return nil, err
	}
	logger.Infof("protocol %s resolved: %s", protocol.Name, protocol.AtomicalID)

	// 3. 配置构建器
	authKey, err := req.Auth.PrivateKey(s.network)
	if err != nil {
		return nil, fmt.Errorf("auth wallet: %w", err)
	}

	b := s.factory(req.Options.builderOptions(builder.OpTypeCall, s.network))
	bitworkc := req.Options.BitworkC
	if bitworkc == "" {
		bitworkc = DefaultCallBitwork
	}
	if err := b.SetBitworkCommit(bitworkc); err != nil {
		return nil, err
	}
	if req.Options.BitworkR != "" {
		if err := b.SetBitworkReveal(req.Options.BitworkR); err != nil {
			return nil, err
		}
	}
	if err := b.SetData(payload.Data); err != nil {
		return nil, err
	}
	b.AddOutput(builder.Output{Address: req.Funding.Address, Value: req.Options.receiverValue()})
	if err := inv.Advance(StateBuilderConfigured); err != nil {
		return nil, err
	}

	hook := &signatureHook{
		inv:        inv,
		curve:      s.curve,
		privKey:    authKey.Serialize(),
		pubKey:     payload.AuthPublicKey,
		unlock:     payload.PayloadBytes,
		lockScript: protocol.LockScript,
	}
	if err := b.SetPreRevealHook(hook); err != nil {
		return nil, err
	}
	if err := inv.Advance(StateAwaitingHook); err != nil {
		return nil, err
	}

	// 4. 构建、签名、广播
	result, err := b.Start(ctx, req.Funding.WIF)
	if err != nil {
		var hookErr *builder.HookError
		if errors.As(err, &hookErr) {
			return nil, hookErr.Err
		}
		return nil, err
	}
	if !hook.wasApplied() {
		return nil, errors.New("builder finished without invoking the signature hook")
	}

	return &CallResult{
		Contract: contract,
		Protocol: protocol,
		Result:   result,
	}, nil
}

// signatureHook 在 reveal 定稿前计算授权签名并追加签名输出
// 不持有草稿引用，不广播
type signatureHook struct {
	inv        *Invocation
	curve      secp256k1.Curve
	privKey    []byte
	pubKey     []byte
	unlock     []byte
	lockScript []byte

	mu      sync.Mutex
	applied bool
}

var _ builder.PreFinalizationHook = (*signatureHook)(nil)

// Apply 实现 builder.PreFinalizationHook
func (h *signatureHook) Apply(_ context.Context, commit builder.CommitReference, draft *builder.RevealDraft) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.applied {
		return ErrHookReused
	}
	h.applied = true

	// 签名输出追加之前的输出快照
	outputs := draft.Outputs()
	msg, err := BuildAuthorizationMessage(commit.TxID, commit.Vout, h.unlock, h.lockScript, outputs)
	if err != nil {
		return err
	}
	h.inv.Logger().Debugf("authorization message: %s", hex.EncodeToString(msg))

	sig, err := SignAuthorizationMessage(h.curve, h.privKey, h.pubKey, msg)
	if err != nil {
		return err
	}
	if err := EmbedSignature(draft, sig); err != nil {
		return err
	}

	h.inv.Logger().Infof("signature output appended for commit %s:%d", commit.TxID, commit.Vout)
	return h.inv.Advance(StateHookExecuted)
}

func (h *signatureHook) wasApplied() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.applied
}
