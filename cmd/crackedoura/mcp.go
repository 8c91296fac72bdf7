package main

import (
	"github.com/spf13/cobra"

	"github.com/crackedoura/backend/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve stored data as MCP tools on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sc, logger, err := bootStorage(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = sc.Close() }()

		if err := sc.InitSchema(cmd.Context()); err != nil {
			return err
		}

		logger.Info("MCP server ready, listening on stdio")
		return mcp.NewServer(sc, logger).Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
