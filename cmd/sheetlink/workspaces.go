package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/sheetlink/internal/application/handlers"
	"github.com/ersonp/sheetlink/internal/infrastructure/config"
)

func newWorkspacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "Manage workspaces",
		RunE:  runWorkspacesList,
	}

	cmd.AddCommand(
		newWorkspacesListCmd(),
		newWorkspacesCreateCmd(),
		newWorkspacesDeleteCmd(),
	)

	return cmd
}

func newWorkspacesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all workspaces",
		RunE:  runWorkspacesList,
	}
}

func runWorkspacesList(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	workspaces, err := handlers.NewWorkspaceHandler(cwd).HandleList()
	if err != nil {
		return fmt.Errorf("loading workspaces: %w", err)
	}

	out := cmd.OutOrStdout()
	names := workspaces.Names()
	if len(names) == 0 {
		fmt.Fprintln(out, "No workspaces configured.")
		fmt.Fprintln(out, "Use 'sheetlink workspaces create NAME' to create a workspace.")
		return nil
	}

	fmt.Fprintf(out, "%-20s %s\n", "NAME", "DESCRIPTION")
	fmt.Fprintf(out, "%-20s %s\n", "----", "-----------")
	for _, name := range names {
		fmt.Fprintf(out, "%-20s %s\n", name, workspaces.Workspaces[name].Description)
	}

	return nil
}

func newWorkspacesCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new workspace",
		Long:  "Registers a workspace and creates its database. The first workspace also writes .sheetlink/config.yaml.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkspacesCreate(cmd, args[0], description)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Workspace description")

	return cmd
}

func runWorkspacesCreate(cmd *cobra.Command, name, description string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	handler := handlers.NewWorkspaceHandler(cwd)
	result, err := handler.HandleCreate(name, description)
	if err != nil {
		return err
	}
	if result.Initialized {
		fmt.Fprintf(out, "Initialized sheetlink in %s\n", config.ConfigDir(cwd))
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := openStore(ctx, cwd, cfg, name)
	if err == nil {
		err = db.EnsureSchema(ctx)
		db.Close()
	}
	if err != nil {
		if rerr := handler.HandleDelete(name); rerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not unregister workspace %q: %v\n", name, rerr)
		}
		return fmt.Errorf("creating workspace storage: %w", err)
	}

	fmt.Fprintf(out, "Created workspace %q\n", name)
	return nil
}

func newWorkspacesDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a workspace and its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkspacesDelete(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete even if the workspace contains entities")

	return cmd
}

func runWorkspacesDelete(cmd *cobra.Command, name string, force bool) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	workspaces, err := config.LoadWorkspaces(cwd)
	if err != nil {
		return fmt.Errorf("loading workspaces: %w", err)
	}
	if !workspaces.Exists(name) {
		return fmt.Errorf("workspace %q not found", name)
	}

	if !force {
		if count, err := countEntities(cmd, cwd, cfg, name); err == nil && count > 0 {
			return fmt.Errorf("workspace %q contains %d entities, use --force to delete", name, count)
		}
	}

	if err := dropStore(ctx, cwd, cfg, name); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not remove data for %q: %v\n", name, err)
	}

	if err := handlers.NewWorkspaceHandler(cwd).HandleDelete(name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted workspace %q\n", name)
	return nil
}

func countEntities(cmd *cobra.Command, basePath string, cfg *config.Config, workspace string) (int, error) {
	db, err := openStore(cmd.Context(), basePath, cfg, workspace)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	if err := db.EnsureSchema(cmd.Context()); err != nil {
		return 0, err
	}
	list, err := db.ListEntities(cmd.Context())
	return len(list), err
}
