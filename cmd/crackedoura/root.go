package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crackedoura/backend/internal/config"
	"github.com/crackedoura/backend/internal/crash"
	"github.com/crackedoura/backend/internal/logging"
	"github.com/crackedoura/backend/internal/paths"
	"github.com/crackedoura/backend/internal/schema"
	"github.com/crackedoura/backend/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:           "crackedoura",
	Short:         "CrackedOura backend: local data store for the dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (overrides "+config.EnvDataDir+" and platform resolution)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides "+config.EnvLogLevel+")")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// bootStorage opens the storage context. A data directory that fails the
// writability probe writes a crash report and exits the process.
func bootStorage(cfg config.Config) (*storage.Context, *slog.Logger, error) {
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	resolver := paths.NewResolver(logger)
	reporter := crash.NewReporter(resolver.DocumentsDir, logger)

	sc, err := storage.Boot(storage.Options{
		Resolver:     resolver,
		DataDir:      cfg.DataDir,
		Schema:       schema.Default(),
		MaxOpenConns: cfg.MaxOpenConns,
		Logger:       logger,
	}, reporter)
	if err != nil {
		return nil, nil, err
	}
	return sc, logger, nil
}
