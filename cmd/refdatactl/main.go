package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"refdata/internal/config"
	"refdata/internal/database"
	"refdata/internal/logger"
)

var Version = "dev"

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	rootCmd := &cobra.Command{
		Use:           "refdatactl",
		Short:         "Operations tool for the reference data service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase loads configuration and connects to the configured store.
func openDatabase() (*database.Manager, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	manager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	return manager, cfg, nil
}
