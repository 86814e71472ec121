package main

import (
	"github.com/spf13/cobra"

	"github.com/golshanaramesh/atomicals-js/internal/app/version"
)

// versionCmd 输出构建信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.formatter.Print(version.GetBuildInfo())
	},
}
