package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newEntitiesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "entities",
		Short: "List imported entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntities(cmd, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func runEntities(cmd *cobra.Command, asJSON bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(deps *Deps) error {
		list, err := deps.CatalogHandler.HandleList(ctx)
		if err != nil {
			return fmt.Errorf("listing entities: %w", err)
		}

		if asJSON {
			return writeJSON(out, list)
		}

		if len(list) == 0 {
			fmt.Fprintln(out, "No entities found.")
			return nil
		}

		fmt.Fprintf(out, "%-30s %8s %8s  %s\n", "NAME", "COLUMNS", "ROWS", "SOURCE")
		for _, e := range list {
			fmt.Fprintf(out, "%-30s %8d %8d  %s\n", e.Name, e.PropertyCount, e.RecordCount, e.Source)
		}
		return nil
	})
}

func newDescribeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "describe ENTITY",
		Short: "Show the columns of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd, args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func runDescribe(cmd *cobra.Command, name string, asJSON bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(deps *Deps) error {
		desc, err := deps.CatalogHandler.HandleDescribe(ctx, name)
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(out, desc)
		}

		fmt.Fprintf(out, "%s (%d rows, from %s)\n\n", desc.Name, desc.Records, desc.Source)
		fmt.Fprintf(out, "  %-25s %-10s %7s  %s\n", "COLUMN", "KIND", "FILLED", "EXAMPLE")
		for _, c := range desc.Columns {
			fmt.Fprintf(out, "  %-25s %-10s %7d  %s\n", c.Name, c.Kind, c.Filled, c.Example)
		}
		return nil
	})
}

func newLinkableCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "linkable",
		Short: "List columns shared by two or more entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinkable(cmd, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func runLinkable(cmd *cobra.Command, asJSON bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(deps *Deps) error {
		linkable, err := deps.CatalogHandler.HandleLinkable(ctx)
		if err != nil {
			return fmt.Errorf("listing linkable columns: %w", err)
		}

		if asJSON {
			return writeJSON(out, linkable)
		}

		if len(linkable) == 0 {
			fmt.Fprintln(out, "No column is shared by two entities.")
			return nil
		}

		for _, p := range linkable {
			fmt.Fprintf(out, "%-25s %s\n", p.Name, strings.Join(p.Entities, ", "))
		}
		return nil
	})
}
