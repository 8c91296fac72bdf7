package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and any missing tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sc, _, err := bootStorage(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = sc.Close() }()

		if err := sc.InitSchema(cmd.Context()); err != nil {
			return err
		}
		version, err := sc.SchemaVersion(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "database %s ready (schema %s)\n", sc.Path(), version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
