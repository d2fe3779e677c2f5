// Package main provides the entry point for the sheetlink CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version         = "0.1.0-dev"
	globalWorkspace string
	globalVerbose   bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:           "sheetlink",
		Short:         "Link rows across spreadsheets on a shared column and group them",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalWorkspace, "workspace", "w", "", "Workspace to operate on (default: the only one)")
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newWorkspacesCmd(),
		newImportCmd(),
		newEntitiesCmd(),
		newDescribeCmd(),
		newLinkableCmd(),
		newLinkCmd(),
		newGroupsCmd(),
		newReportCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
