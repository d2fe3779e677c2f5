package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type groupsFlags struct {
	build   bool
	rebuild bool
	asJSON  bool
}

func newGroupsCmd() *cobra.Command {
	var flags groupsFlags

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List record groups, or group the current links",
		Long: `Lists stored record groups.

--build runs a grouping pass over the stored links, adding groups for rows
that are linked but not yet grouped. --rebuild discards every group first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroups(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.build, "build", false, "Group linked rows that are not grouped yet")
	cmd.Flags().BoolVar(&flags.rebuild, "rebuild", false, "Discard all groups and group again")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Output as JSON")

	return cmd
}

func runGroups(cmd *cobra.Command, flags groupsFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(deps *Deps) error {
		if flags.rebuild {
			if err := deps.CatalogHandler.HandleResetGroups(ctx); err != nil {
				return fmt.Errorf("resetting groups: %w", err)
			}
		}

		if flags.build || flags.rebuild {
			result, err := deps.LinkHandler.HandleGroup(ctx)
			if result != nil {
				printGroupResult(out, result)
			}
			return err
		}

		groups, err := deps.CatalogHandler.HandleGroups(ctx)
		if err != nil {
			return err
		}

		if flags.asJSON {
			return writeJSON(out, groups)
		}

		links, err := deps.CatalogHandler.HandleLinkCount(ctx)
		if err != nil {
			return err
		}

		if len(groups) == 0 {
			if links > 0 {
				fmt.Fprintf(out, "No groups. %d links stored; run 'sheetlink groups --build'.\n", links)
				return nil
			}
			fmt.Fprintln(out, "No groups. Run 'sheetlink link COLUMN' first.")
			return nil
		}

		fmt.Fprintf(out, "%d groups over %d links\n", len(groups), links)
		for _, g := range groups {
			fmt.Fprintf(out, "%s  %d rows\n", shortID(g.ID), len(g.Members))
		}
		return nil
	})
}
