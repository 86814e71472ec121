package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/golshanaramesh/atomicals-js/client/core/wallet"
)

var (
	walletPhrase     string
	walletPassphrase string
	walletForce      bool
)

// walletCmd 钱包命令
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "钱包管理",
	Long:  "创建和查看 wallet.json（primary 用于授权，funding 用于支付手续费）",
}

// walletInitCmd 创建钱包文件
var walletInitCmd = &cobra.Command{
	Use:   "init",
	Short: "创建钱包",
	Long:  "生成或导入助记词，按 BIP86 派生 primary 与 funding 记录并写入配置的钱包路径",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		phrase := walletPhrase
		if phrase == "" {
			var err error
			if phrase, err = wallet.NewMnemonic(); err != nil {
				return err
			}
		}

		file, err := wallet.NewFile(phrase, walletPassphrase, app.net)
		if err != nil {
			return err
		}
		if err := file.SaveTo(app.cfg.WalletPath, walletForce); err != nil {
			return err
		}

		app.formatter.PrintSuccess(fmt.Sprintf("钱包已写入 %s", app.cfg.WalletPath))
		if walletPhrase == "" {
			app.formatter.PrintWarning("请务必安全备份助记词，丢失将无法恢复钱包")
		}
		return app.formatter.Print(map[string]interface{}{
			"path":    app.cfg.WalletPath,
			"phrase":  file.Phrase,
			"primary": walletView(file.Primary),
			"funding": walletView(file.Funding),
		})
	},
}

// walletShowCmd 查看钱包地址
var walletShowCmd = &cobra.Command{
	Use:   "show",
	Short: "查看钱包地址",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := loadWallet()
		if err != nil {
			return err
		}

		imported := make(map[string]interface{}, len(file.Imported))
		for alias, rec := range file.Imported {
			imported[alias] = walletView(rec)
		}
		return app.formatter.Print(map[string]interface{}{
			"path":     app.cfg.WalletPath,
			"primary":  walletView(file.Primary),
			"funding":  walletView(file.Funding),
			"imported": imported,
		})
	},
}

// walletView 输出中不包含 WIF
func walletView(rec *wallet.Record) map[string]string {
	return map[string]string{
		"address":    rec.Address,
		"path":       rec.Path,
		"public_key": rec.PublicKey,
	}
}

// loadWallet 读取配置中的钱包文件
func loadWallet() (*wallet.File, error) {
	file, err := wallet.LoadWalletFile(app.cfg.WalletPath, app.net)
	if err != nil {
		return nil, fmt.Errorf("加载钱包 %s: %w", app.cfg.WalletPath, err)
	}
	return file, nil
}

func init() {
	walletInitCmd.Flags().StringVar(&walletPhrase, "phrase", "", "导入已有助记词 (默认生成新助记词)")
	walletInitCmd.Flags().StringVar(&walletPassphrase, "passphrase", "", "BIP39 口令")
	walletInitCmd.Flags().BoolVar(&walletForce, "force", false, "覆盖已有钱包文件")

	walletCmd.AddCommand(walletInitCmd)
	walletCmd.AddCommand(walletShowCmd)
}
