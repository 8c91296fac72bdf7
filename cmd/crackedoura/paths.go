package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crackedoura/backend/internal/logging"
	"github.com/crackedoura/backend/internal/paths"
	"github.com/crackedoura/backend/internal/storage"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Resolve and print the data directory without opening the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		resolver := paths.NewResolver(logging.New(logging.ParseLevel(cfg.LogLevel)))

		out := cmd.OutOrStdout()
		if cfg.DataDir != "" {
			fmt.Fprintf(out, "data dir:  %s (configured)\n", cfg.DataDir)
			fmt.Fprintf(out, "database:  %s\n", filepath.Join(cfg.DataDir, storage.DatabaseFileName))
			return nil
		}

		res := resolver.Resolve()
		fmt.Fprintf(out, "data dir:  %s\n", res.Dir)
		fmt.Fprintf(out, "outcome:   %s\n", res.Outcome)
		if res.Primary != "" && res.Primary != res.Dir {
			fmt.Fprintf(out, "platform:  %s\n", res.Primary)
		}
		if res.Err != nil {
			fmt.Fprintf(out, "error:     %v\n", res.Err)
		}
		if res.Dir != "" {
			fmt.Fprintf(out, "database:  %s\n", filepath.Join(res.Dir, storage.DatabaseFileName))
		}
		if docs, err := resolver.DocumentsDir(); err == nil {
			fmt.Fprintf(out, "crash dir: %s\n", docs)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
