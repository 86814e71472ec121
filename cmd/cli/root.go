package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/cobra"

	"github.com/golshanaramesh/atomicals-js/client/core/config"
	"github.com/golshanaramesh/atomicals-js/client/core/output"
	"github.com/golshanaramesh/atomicals-js/client/core/transport"
	"github.com/golshanaramesh/atomicals-js/internal/app/version"
	logconfig "github.com/golshanaramesh/atomicals-js/internal/config/log"
	"github.com/golshanaramesh/atomicals-js/internal/core/infrastructure/crypto/secp256k1"
	corelog "github.com/golshanaramesh/atomicals-js/internal/core/infrastructure/log"
	"github.com/golshanaramesh/atomicals-js/pkg/interfaces/infrastructure/log"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigPath   string // 配置文件路径
	OutputFormat string // 输出格式
	Network      string // 覆盖配置中的网络
	Endpoint     string // 覆盖配置中的 ElectrumX 端点
	Silent       bool   // 静默模式
	Verbose      bool   // 详细模式
}

// appContext 命令运行时依赖，在 PersistentPreRunE 中创建
type appContext struct {
	cfg       *config.Config
	net       *chaincfg.Params
	curve     secp256k1.Curve
	logger    log.Logger
	formatter *output.Formatter
}

var (
	globalFlags GlobalFlags
	app         *appContext
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "atomicals",
	Short: "Atomicals 交互式合约命令行工具",
	Long: `Atomicals CLI - 交互式合约的调用与注册

通过 ElectrumX 索引节点解析合约与协议，构建 commit/reveal 交易对：
- 调用已存在的合约（授权签名嵌入 reveal 交易）
- 以协议实例的身份注册新合约
- 查询合约与协议记录

配置文件默认位于 ~/.atomicals-cli/config.json，首次运行时自动生成。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		app, err = newAppContext(globalFlags)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			_ = app.logger.Sync()
		}
	},
}

// Execute 执行根命令，Ctrl+C 会取消正在进行的挖掘与网络请求
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(reportError(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "配置文件路径 (默认: ~/.atomicals-cli/config.json)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.OutputFormat, "output", "o", "json", "输出格式: json|pretty|text")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Network, "network", "", "网络: mainnet|testnet|regtest|signet")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Endpoint, "endpoint", "", "ElectrumX 端点 (http(s) 代理或 ws(s))")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Silent, "silent", false, "静默模式 (仅输出结果)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "详细输出 (debug 日志)")

	rootCmd.AddCommand(contractCmd)
	rootCmd.AddCommand(protocolCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.Version = version.GetBuildInfo().String()
}

// newAppContext 加载配置并创建日志、曲线后端与格式化器
// 优先级：命令行标志 > 环境变量 > 配置文件
func newAppContext(flags GlobalFlags) (*appContext, error) {
	format, err := output.ParseFormat(flags.OutputFormat)
	if err != nil {
		return nil, err
	}
	formatter := output.NewFormatter(format, os.Stdout)
	formatter.SetSilent(flags.Silent)

	var cfg *config.Config
	if flags.ConfigPath != "" {
		cfg, err = config.LoadFrom(flags.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("加载配置: %w", err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	if flags.Network != "" {
		cfg.Network = flags.Network
	}
	if flags.Endpoint != "" {
		cfg.ElectrumEndpoint = flags.Endpoint
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	net, err := cfg.ChainParams()
	if err != nil {
		return nil, err
	}
	curve, err := secp256k1.New(cfg.CurveBackend)
	if err != nil {
		return nil, err
	}
	logger, err := corelog.New(logconfig.New(cfg.LogOptions(flags.Verbose)))
	if err != nil {
		return nil, fmt.Errorf("初始化日志: %w", err)
	}

	return &appContext{
		cfg:       cfg,
		net:       net,
		curve:     curve,
		logger:    logger.With("module", log.ModuleCLI),
		formatter: formatter,
	}, nil
}

// newClient 按配置连接 ElectrumX
func (a *appContext) newClient(ctx context.Context) (transport.Client, error) {
	client, err := transport.NewClient(ctx, a.cfg.ElectrumEndpoint, a.cfg.TransportOptions(),
		a.logger.With("module", log.ModuleTransport))
	if err != nil {
		return nil, fmt.Errorf("连接索引节点: %w", err)
	}
	return client, nil
}

func closeClient(client transport.Client, logger log.Logger) {
	if err := client.Close(); err != nil {
		logger.Warnf("close client: %v", err)
	}
}

// reportError 输出错误并返回退出码
func reportError(err error) int {
	code, exit := classifyError(err)
	if app == nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return exit
	}

	app.formatter.PrintError(err)
	if app.formatter.Format() != output.FormatText {
		_ = app.formatter.Print(output.NewErrorOutput(code, err.Error(), errorDetails(err)))
	}
	return exit
}
