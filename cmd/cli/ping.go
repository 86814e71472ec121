package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// pingCmd 检查索引节点是否可达
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "检查索引节点连通性",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := app.newClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(client, app.logger)

		start := time.Now()
		if err := client.Ping(ctx); err != nil {
			return fmt.Errorf("ping %s: %w", app.cfg.ElectrumEndpoint, err)
		}
		return app.formatter.Print(map[string]interface{}{
			"endpoint":   app.cfg.ElectrumEndpoint,
			"network":    app.net.Name,
			"latency_ms": time.Since(start).Milliseconds(),
		})
	},
}
