package main

import (
	"github.com/spf13/cobra"

	"github.com/golshanaramesh/atomicals-js/client/core/config"
)

// configCmd 配置命令
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "配置管理",
}

// configShowCmd 显示生效的配置（含环境变量与命令行覆盖）
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "显示当前配置",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.formatter.Print(app.cfg)
	},
}

// configResetCmd 将配置文件重置为默认值
var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "重置为默认配置",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()
		var err error
		if globalFlags.ConfigPath != "" {
			err = cfg.SaveTo(globalFlags.ConfigPath)
		} else {
			err = cfg.Save()
		}
		if err != nil {
			return err
		}
		app.formatter.PrintSuccess("配置已重置")
		return app.formatter.Print(cfg)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configResetCmd)
}
