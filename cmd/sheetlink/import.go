package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/sheetlink/internal/application/handlers"
	"github.com/ersonp/sheetlink/internal/domain/services"
)

type importFlags struct {
	format     string
	delimiter  string
	encoding   string
	onConflict string
	trimSpace  bool
	dryRun     bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import spreadsheets as entities",
		Long: `Imports CSV, JSON or XLSX files. Each CSV or JSON file becomes one entity
named after the file; each sheet of a workbook becomes an entity named
"<file>.<sheet>". Column kinds are inferred from the cells.

Examples:
  sheetlink import users.csv accounts.xlsx
  sheetlink import export.txt --format csv --delimiter ";" --encoding windows-1252
  sheetlink import users.csv --on-conflict replace`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (csv, json, xlsx, auto)")
	cmd.Flags().StringVar(&flags.delimiter, "delimiter", "", "CSV field separator (default from config)")
	cmd.Flags().StringVar(&flags.encoding, "encoding", "", "CSV character set (default from config)")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", "", "Existing entity handling: skip or replace (default from config)")
	cmd.Flags().BoolVar(&flags.trimSpace, "trim-space", false, "Trim whitespace around cells")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")

	return cmd
}

func runImport(cmd *cobra.Command, files []string, flags importFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(deps *Deps) error {
		importCfg := deps.Config.Import
		if flags.delimiter != "" {
			importCfg.Delimiter = flags.delimiter
		}
		if flags.encoding != "" {
			importCfg.Encoding = flags.encoding
		}
		if flags.onConflict != "" {
			importCfg.OnConflict = flags.onConflict
		}

		strategy, err := services.ParseConflictStrategy(importCfg.OnConflict)
		if err != nil {
			return err
		}

		opts := handlers.ImportOptions{
			Format:     flags.format,
			Delimiter:  importCfg.DelimiterRune(),
			Encoding:   importCfg.Encoding,
			TrimSpace:  importCfg.TrimSpace || flags.trimSpace,
			DryRun:     flags.dryRun,
			OnConflict: strategy,
		}

		failed := 0
		for _, file := range files {
			result, err := deps.ImportHandler.Handle(ctx, file, opts)
			if err != nil {
				return fmt.Errorf("importing %s: %w", file, err)
			}

			for _, e := range result.Imported {
				verb := "Imported"
				if e.Replaced {
					verb = "Replaced"
				}
				if flags.dryRun {
					verb = "Would import"
				}
				fmt.Fprintf(out, "%s %s: %d columns, %d rows, %d values\n", verb, e.Name, e.Properties, e.Records, e.Values)
			}
			for _, name := range result.Skipped {
				fmt.Fprintf(out, "Skipped %s: already imported (use --on-conflict replace)\n", name)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", e.Error())
			}
			failed += len(result.Errors)
		}

		if failed > 0 {
			return fmt.Errorf("%d tables failed to import", failed)
		}
		return nil
	})
}
