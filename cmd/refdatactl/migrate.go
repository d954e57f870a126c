package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"refdata/internal/logger"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := openDatabase()
			if err != nil {
				return err
			}
			defer manager.Close()

			if err := manager.Prepare(); err != nil {
				return err
			}
			logger.Get().Info("Migrations applied successfully")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [N]",
		Short: "Roll back N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				steps = n
			}

			manager, _, err := openDatabase()
			if err != nil {
				return err
			}
			defer manager.Close()

			if err := manager.MigrateDown(steps); err != nil {
				return err
			}
			logger.Get().Infof("Rolled back %d migration(s)", steps)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := openDatabase()
			if err != nil {
				return err
			}
			defer manager.Close()

			version, dirty, err := manager.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %d, Dirty: %v\n", version, dirty)
			return nil
		},
	})

	return cmd
}
