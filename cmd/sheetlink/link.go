package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/sheetlink/internal/application/handlers"
	"github.com/ersonp/sheetlink/internal/domain/services"
)

func newLinkCmd() *cobra.Command {
	var noGroup bool

	cmd := &cobra.Command{
		Use:   "link COLUMN",
		Short: "Link rows with equal values in a shared column, then group them",
		Long: `Compares COLUMN across every pair of entities that have it and links rows
whose values are identical (same kind and same encoded value). Linked rows are
then grouped: every row reachable through links lands in one group.

Existing groups are never changed; new groups only collect rows that were not
grouped before. Use 'sheetlink groups --rebuild' to start over.

Examples:
  sheetlink link Name
  sheetlink link "Customer Id" --no-group`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(cmd, args[0], noGroup)
		},
	}

	cmd.Flags().BoolVar(&noGroup, "no-group", false, "Only create links")

	return cmd
}

func runLink(cmd *cobra.Command, column string, noGroup bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(deps *Deps) error {
		result, err := deps.LinkHandler.Handle(ctx, column, handlers.LinkOptions{NoGroup: noGroup})
		if result != nil && result.Links != nil {
			printLinkResult(out, result.Links)
		}
		if result != nil && result.Groups != nil {
			printGroupResult(out, result.Groups)
		}
		return err
	})
}

func printLinkResult(w io.Writer, r *services.LinkResult) {
	if len(r.Entities) < 2 {
		fmt.Fprintf(w, "Column %q is in %d entities; nothing to link.\n", r.Property, len(r.Entities))
		return
	}
	fmt.Fprintf(w, "Linked %q across %d entities (%d pairs): %d links, %d new\n",
		r.Property, len(r.Entities), r.Pairs, len(r.Links), r.Saved)
}

func printGroupResult(w io.Writer, r *services.GroupResult) {
	members := 0
	for _, g := range r.Groups {
		members += len(g.Members)
	}
	fmt.Fprintf(w, "Created %d groups with %d rows (%d already grouped, %d unlinked)\n",
		len(r.Groups), members, r.AlreadyGrouped, r.Isolated)
}
