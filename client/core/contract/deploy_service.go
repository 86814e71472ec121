package contract

import (
	"context"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/golshanaramesh/atomicals-js/client/core/builder"
	"github.com/golshanaramesh/atomicals-js/client/core/wallet"
	"github.com/golshanaramesh/atomicals-js/pkg/interfaces/infrastructure/log"
)

// DeployScript 注册时写入的部署脚本
var DeployScript = []byte{0x00}

// DeployService 合约注册编排
type DeployService struct {
	resolver *Resolver
	factory  BuilderFactory
	network  *chaincfg.Params
	logger   log.Logger
}

// NewDeployService 创建合约注册服务
func NewDeployService(resolver *Resolver, factory BuilderFactory, network *chaincfg.Params, logger log.Logger) *DeployService {
	return &DeployService{
		resolver: resolver,
		factory:  factory,
		network:  network,
		logger:   logger,
	}
}

// DeployRequest 合约注册请求
// Address 为接收地址，为空时使用资金地址
type DeployRequest struct {
	ContractName string
	ProtocolName string
	Address      string
	Funding      *wallet.Record
	Options      RequestOptions
}

// DeployResult 合约注册结果
type DeployResult struct {
	InvocationID       string          `json:"invocation_id"`
	ContractName       string          `json:"contract_name"`
	ProtocolName       string          `json:"protocol_name"`
	ProtocolAtomicalID string          `json:"protocol_atomical_id,omitempty"`
	Result             *builder.Result `json:"result"`
}

// DeployContract 以协议实例的身份注册新合约
// 合约名必须未被占用、协议必须存在，两项检查通过之前不创建构建器
func (s *DeployService) DeployContract(ctx context.Context, req *DeployRequest) (*DeployResult, error) {
	inv := newInvocation("deploy", s.logger)
	result, err := s.deployContract(ctx, inv, req)
	if err != nil {
		return nil, inv.Fail(err)
	}
	if err := inv.Advance(StateDone); err != nil {
		return nil, inv.Fail(err)
	}
	result.InvocationID = inv.ID
	inv.Logger().Infof("contract %s requested: commit %s reveal %s",
		result.ContractName, result.Result.CommitTxID, result.Result.RevealTxID)
	return result, nil
}

func (s *DeployService) deployContract(ctx context.Context, inv *Invocation, req *DeployRequest) (*DeployResult, error) {
	if req == nil || req.Funding == nil {
		return nil, errors.New("deploy request requires a funding wallet")
	}
	if err := validateName("contract", req.ContractName); err != nil {
		return nil, err
	}
	if err := validateName("protocol", req.ProtocolName); err != nil {
		return nil, err
	}
	if err := req.Funding.Validate(s.network); err != nil {
		return nil, err
	}
	if err := inv.Advance(StateValidated); err != nil {
		return nil, err
	}

	contractRes, err := s.resolver.Resolve(ctx, KindContract, req.ContractName)
	if err != nil {
		return nil, err
	}
	if err := RequireAvailable(contractRes); err != nil {
		return nil, err
	}
	if err := inv.Advance(StateContractResolved); err != nil {
		return nil, err
	}

	protocolRes, err := s.resolver.Resolve(ctx, KindProtocol, req.ProtocolName)
	if err != nil {
		return nil, err
	}
	if protocolRes.Outcome == NotFound {
		return nil, &MissingProtocolError{Name: req.ProtocolName}
	}
	var protocolID string
	if protocolRes.Record != nil {
		protocolID = protocolRes.Record.AtomicalID
	}
	if err := inv.Advance(StateProtocolResolved); err != nil {
		return nil, err
	}

	address := req.Address
	if address == "" {
		address = req.Funding.Address
	}

	b := s.factory(req.Options.builderOptions(builder.OpTypeNew, s.network))
	b.SetRequestContract(req.ContractName, req.ProtocolName)
	if req.Options.BitworkC != "" {
		if err := b.SetBitworkCommit(req.Options.BitworkC); err != nil {
			return nil, err
		}
	}
	if req.Options.BitworkR != "" {
		if err := b.SetBitworkReveal(req.Options.BitworkR); err != nil {
			return nil, err
		}
	}
	b.SetContractDeployScript(DeployScript)
	b.AddOutput(builder.Output{Address: address, Value: req.Options.receiverValue()})
	if err := inv.Advance(StateBuilderConfigured); err != nil {
		return nil, err
	}

	result, err := b.Start(ctx, req.Funding.WIF)
	if err != nil {
		return nil, err
	}

	return &DeployResult{
		ContractName:       req.ContractName,
		ProtocolName:       req.ProtocolName,
		ProtocolAtomicalID: protocolID,
		Result:             result,
	}, nil
}

func validateName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return &FormatError{Field: field, Reason: "must not be empty"}
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return &FormatError{Field: field, Reason: "must not contain whitespace"}
	}
	return nil
}
