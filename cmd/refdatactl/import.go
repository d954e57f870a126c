package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"refdata/internal/services"
)

func importCmd() *cobra.Command {
	var entity, file, actor string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Run a bulk CSV insert without the HTTP server",
		Long: `Run the bulk importer against a CSV file and print the process request,
including the per-row report, as JSON.

Examples:
  refdatactl import --entity asset-class --file asset-classes.csv --actor ops`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()

			manager, _, err := openDatabase()
			if err != nil {
				return err
			}
			defer manager.Close()
			if err := manager.Prepare(); err != nil {
				return err
			}

			catalog := services.NewCatalog(manager.DB())
			proc, err := catalog.Imports.Import(cmd.Context(), entity, f, filepath.Base(file), actor)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(proc)
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "entity slug, e.g. asset-class or bond-security")
	cmd.Flags().StringVar(&file, "file", "", "path of the CSV file")
	cmd.Flags().StringVar(&actor, "actor", "refdatactl", "user recorded as the creator")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
