package contract

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/golshanaramesh/atomicals-js/client/core/builder"
	"github.com/golshanaramesh/atomicals-js/pkg/interfaces/infrastructure/log"
)

// TxBuilder 编排器使用的构建器能力
type TxBuilder interface {
	SetBitworkCommit(bitwork string) error
	SetBitworkReveal(bitwork string) error
	SetData(data map[string]any) error
	SetRequestContract(name, protocol string)
	SetContractDeployScript(script []byte)
	AddOutput(out builder.Output)
	SetPreRevealHook(hook builder.PreFinalizationHook) error
	Start(ctx context.Context, fundingWIF string) (*builder.Result, error)
}

// BuilderFactory 每次调用创建独立的构建器
type BuilderFactory func(opts builder.Options) TxBuilder

// NewBuilderFactory 返回基于 builder.OperationBuilder 的工厂
func NewBuilderFactory(client builder.ChainClient, logger log.Logger) BuilderFactory {
	return func(opts builder.Options) TxBuilder {
		return builder.NewOperationBuilder(client, opts, logger.With("module", log.ModuleBuilder))
	}
}

// RequestOptions 调用与注册共用的构建参数
type RequestOptions struct {
	SatsByte           int64          `json:"satsbyte"`
	SatsOutput         int64          `json:"satsoutput"`
	BitworkC           string         `json:"bitworkc,omitempty"`
	BitworkR           string         `json:"bitworkr,omitempty"`
	RBF                bool           `json:"rbf"`
	DryRun             bool           `json:"dry_run"`
	DisableMiningChalk bool           `json:"disable_mining_chalk"`
	UTXOStrategy       string         `json:"utxo_strategy,omitempty"`
	Meta               map[string]any `json:"meta,omitempty"`
	Ctx                map[string]any `json:"ctx,omitempty"`
	Init               map[string]any `json:"init,omitempty"`
}

func (o RequestOptions) builderOptions(opType string, net *chaincfg.Params) builder.Options {
	return builder.Options{
		SatsByte:           o.SatsByte,
		OpType:             opType,
		RBF:                o.RBF,
		Meta:               o.Meta,
		Ctx:                o.Ctx,
		Init:               o.Init,
		SatsOutput:         o.SatsOutput,
		DisableMiningChalk: o.DisableMiningChalk,
		DryRun:             o.DryRun,
		UTXOStrategy:       o.UTXOStrategy,
		Network:            net,
	}
}

func (o RequestOptions) receiverValue() int64 {
	if o.SatsOutput > 0 {
		return o.SatsOutput
	}
	return builder.DefaultSatsOutput
}
