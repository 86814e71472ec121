package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/golshanaramesh/atomicals-js/client/core/contract"
	"github.com/golshanaramesh/atomicals-js/client/core/wallet"
	"github.com/golshanaramesh/atomicals-js/pkg/interfaces/infrastructure/log"
)

// operationFlags call 与 deploy 共用的交易参数
type operationFlags struct {
	satsByte     int64
	satsOutput   int64
	bitworkC     string
	bitworkR     string
	auth         string
	funding      string
	receiver     string
	dryRun       bool
	rbf          bool
	disableChalk bool
	utxoStrategy string
}

var (
	callFlags   operationFlags
	deployFlags operationFlags
	getSummary  bool
)

// contractCmd 合约相关命令
var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "交互式合约",
	Long:  "调用、注册和查询交互式合约",
}

// contractCallCmd 调用合约
var contractCallCmd = &cobra.Command{
	Use:   "call <call-file>",
	Short: "调用合约",
	Long: `读取调用文件并调用已存在的合约

调用文件为 JSON 对象：
  n  合约名称
  u  调用载荷（十六进制）
  m  方法编号（可选）

auth 公钥由 --auth 指定的钱包记录注入，授权签名写入 reveal 交易的 OP_RETURN 输出。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := loadWallet()
		if err != nil {
			return err
		}
		auth, err := files.Select(callFlags.auth)
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}
		funding, err := files.Select(callFlags.funding)
		if err != nil {
			return fmt.Errorf("funding: %w", err)
		}

		ctx := cmd.Context()
		client, err := app.newClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(client, app.logger)

		svc := contract.NewCallService(
			contract.NewResolver(client, contract.FetchGet, app.logger.With("module", log.ModuleContract)),
			contract.NewBuilderFactory(client, app.logger),
			app.curve,
			app.net,
			app.logger,
		)

		app.formatter.Section("合约调用")
		app.formatter.PrintInfo(fmt.Sprintf("调用文件: %s", args[0]))
		app.formatter.PrintInfo(fmt.Sprintf("授权地址: %s", auth.Address))
		if callFlags.dryRun {
			app.formatter.PrintWarning("dry-run 模式：交易不会广播")
		}

		result, err := svc.CallContract(ctx, &contract.CallRequest{
			CallFile: args[0],
			Auth:     auth,
			Funding:  funding,
			Options:  callFlags.requestOptions(cmd),
		})
		if err != nil {
			return err
		}

		app.formatter.PrintSuccess(fmt.Sprintf("合约 %s 调用完成", result.Contract.Name))
		return app.formatter.Print(result)
	},
}

// contractDeployCmd 注册合约
var contractDeployCmd = &cobra.Command{
	Use:   "deploy <contract-name> <protocol-name>",
	Short: "注册合约",
	Long:  "以协议实例的身份注册新合约，合约名必须未被占用，协议必须已存在",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := loadWallet()
		if err != nil {
			return err
		}
		funding, err := files.Select(deployFlags.funding)
		if err != nil {
			return fmt.Errorf("funding: %w", err)
		}

		ctx := cmd.Context()
		client, err := app.newClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(client, app.logger)

		svc := contract.NewDeployService(
			contract.NewResolver(client, contract.FetchGet, app.logger.With("module", log.ModuleContract)),
			contract.NewBuilderFactory(client, app.logger),
			app.net,
			app.logger,
		)

		app.formatter.Section("合约注册")
		app.formatter.PrintInfo(fmt.Sprintf("合约: %s  协议: %s", args[0], args[1]))
		if deployFlags.dryRun {
			app.formatter.PrintWarning("dry-run 模式：交易不会广播")
		}

		result, err := svc.DeployContract(ctx, &contract.DeployRequest{
			ContractName: args[0],
			ProtocolName: args[1],
			Address:      deployFlags.receiver,
			Funding:      funding,
			Options:      deployFlags.requestOptions(cmd),
		})
		if err != nil {
			return err
		}

		app.formatter.PrintSuccess(fmt.Sprintf("合约 %s 注册请求已提交", result.ContractName))
		return app.formatter.Print(result)
	},
}

// contractGetCmd 查询合约
var contractGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "查询合约",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLookup(cmd, contract.KindContract, args[0])
	},
}

// resolutionView 查询结果的输出结构
type resolutionView struct {
	Kind               string   `json:"kind"`
	Name               string   `json:"name"`
	Outcome            string   `json:"outcome"`
	AtomicalID         string   `json:"atomical_id,omitempty"`
	AtomicalNumber     int64    `json:"atomical_number,omitempty"`
	InstanceOfProtocol string   `json:"instance_of_protocol,omitempty"`
	LockScript         string   `json:"lock_script,omitempty"`
	Candidates         []string `json:"candidates,omitempty"`
}

func newResolutionView(res *contract.Resolution) *resolutionView {
	view := &resolutionView{
		Kind:    string(res.Kind),
		Name:    res.Name,
		Outcome: res.Outcome.String(),
	}
	if len(res.Candidates) > 0 {
		view.Candidates = res.CandidateIDs()
	}
	if res.Record == nil {
		return view
	}
	view.AtomicalID = res.Record.AtomicalID
	view.AtomicalNumber = res.Record.AtomicalNumber
	view.InstanceOfProtocol = res.Record.InstanceOfProtocol
	if res.Kind == contract.KindProtocol {
		if proto, err := contract.ProtocolFromResolution(res); err == nil {
			view.LockScript = hex.EncodeToString(proto.LockScript)
		}
	}
	return view
}

func runLookup(cmd *cobra.Command, kind contract.RecordKind, name string) error {
	ctx := cmd.Context()
	client, err := app.newClient(ctx)
	if err != nil {
		return err
	}
	defer closeClient(client, app.logger)

	mode := contract.FetchGet
	if getSummary {
		mode = contract.FetchSummary
	}
	resolver := contract.NewResolver(client, mode, app.logger.With("module", log.ModuleContract))

	res, err := resolver.Resolve(ctx, kind, name)
	if err != nil {
		return err
	}
	if res.Outcome != contract.Found {
		app.formatter.PrintWarning(fmt.Sprintf("%s %q: %s", kind, name, res.Outcome))
	}
	return app.formatter.Print(newResolutionView(res))
}

// requestOptions 未显式设置的参数取配置文件中的默认值
func (f *operationFlags) requestOptions(cmd *cobra.Command) contract.RequestOptions {
	opts := contract.RequestOptions{
		SatsByte:           app.cfg.SatsByte,
		SatsOutput:         app.cfg.SatsOutput,
		BitworkC:           f.bitworkC,
		BitworkR:           f.bitworkR,
		RBF:                f.rbf,
		DryRun:             f.dryRun,
		DisableMiningChalk: f.disableChalk,
		UTXOStrategy:       app.cfg.UTXOStrategy,
	}
	if cmd.Flags().Changed("satsbyte") {
		opts.SatsByte = f.satsByte
	}
	if cmd.Flags().Changed("satsoutput") {
		opts.SatsOutput = f.satsOutput
	}
	if cmd.Flags().Changed("utxo-strategy") {
		opts.UTXOStrategy = f.utxoStrategy
	}
	return opts
}

func (f *operationFlags) register(cmd *cobra.Command, withAuth bool) {
	cmd.Flags().Int64Var(&f.satsByte, "satsbyte", 0, "手续费率 sat/vB (默认取配置)")
	cmd.Flags().Int64Var(&f.satsOutput, "satsoutput", 0, "接收输出金额 sats (默认取配置)")
	cmd.Flags().StringVar(&f.bitworkC, "bitworkc", "", "commit 交易的 bitwork 前缀，如 ab 或 abc.5")
	cmd.Flags().StringVar(&f.bitworkR, "bitworkr", "", "reveal 交易的 bitwork 前缀")
	cmd.Flags().StringVar(&f.funding, "funding", wallet.AliasFunding, "支付手续费的钱包别名")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "只构建与签名，不广播")
	cmd.Flags().BoolVar(&f.rbf, "rbf", false, "启用 RBF")
	cmd.Flags().BoolVar(&f.disableChalk, "disable-mining-chalk", false, "挖掘 bitwork 时不输出进度日志")
	cmd.Flags().StringVar(&f.utxoStrategy, "utxo-strategy", "", "资金 UTXO 选择策略 greedy|first-fit (默认取配置)")
	if withAuth {
		cmd.Flags().StringVar(&f.auth, "auth", wallet.AliasPrimary, "授权签名的钱包别名")
	}
}

func init() {
	callFlags.register(contractCallCmd, true)
	deployFlags.register(contractDeployCmd, false)
	contractDeployCmd.Flags().StringVar(&deployFlags.receiver, "address", "", "接收地址 (默认: 资金地址)")
	contractGetCmd.Flags().BoolVar(&getSummary, "summary", false, "仅使用按名称查询返回的摘要记录")

	contractCmd.AddCommand(contractCallCmd)
	contractCmd.AddCommand(contractDeployCmd)
	contractCmd.AddCommand(contractGetCmd)
}
