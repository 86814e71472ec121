package main

import (
	"github.com/spf13/cobra"

	"github.com/golshanaramesh/atomicals-js/client/core/contract"
)

// protocolCmd 协议相关命令
var protocolCmd = &cobra.Command{
	Use:   "protocol",
	Short: "协议查询",
}

// protocolGetCmd 查询协议，输出包含锁定脚本
var protocolGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "查询协议",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLookup(cmd, contract.KindProtocol, args[0])
	},
}

func init() {
	protocolGetCmd.Flags().BoolVar(&getSummary, "summary", false, "仅使用按名称查询返回的摘要记录")
	protocolCmd.AddCommand(protocolGetCmd)
}
