package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ersonp/sheetlink/internal/application/handlers"
	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/ports"
	"github.com/ersonp/sheetlink/internal/domain/services"
	"github.com/ersonp/sheetlink/internal/infrastructure/config"
	"github.com/ersonp/sheetlink/internal/infrastructure/logging"
	"github.com/ersonp/sheetlink/internal/infrastructure/relationaldb/postgres"
	"github.com/ersonp/sheetlink/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config    *config.Config
	Workspace string
	Logger    *slog.Logger

	ImportHandler  *handlers.ImportHandler
	LinkHandler    *handlers.LinkHandler
	CatalogHandler *handlers.CatalogHandler
	ReportHandler  *handlers.ReportHandler
}

// withDeps loads config, opens the selected workspace and builds the
// handlers, then calls fn. The store is closed when fn returns.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
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

	workspace, err := workspaces.Resolve(globalWorkspace)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.Logging, globalVerbose)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}

	db, err := openStore(ctx, cwd, cfg, workspace)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	registry := codec.NewRegistry()
	logger = logger.With("workspace", workspace)

	deps := &Deps{
		Config:    cfg,
		Workspace: workspace,
		Logger:    logger,
		ImportHandler: handlers.NewImportHandler(
			services.NewImportService(db, db, registry, logger),
		),
		LinkHandler: handlers.NewLinkHandler(
			services.NewLinkingService(db, db, registry, logger),
			services.NewGroupingService(db, db, db, logger),
		),
		CatalogHandler: handlers.NewCatalogHandler(
			services.NewCatalogService(db, registry, logger), db, db,
		),
		ReportHandler: handlers.NewReportHandler(
			services.NewReportService(db, db, registry, logger),
		),
	}

	return fn(deps)
}

// openStore opens the workspace's database for the configured driver.
func openStore(ctx context.Context, basePath string, cfg *config.Config, workspace string) (ports.RelationalDB, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pgCfg := cfg.Storage.Postgres
		pgCfg.Schema = config.PostgresSchemaForWorkspace(workspace)
		repo, err := postgres.NewRepository(ctx, pgCfg)
		if err != nil {
			return nil, fmt.Errorf("creating postgres repository: %w", err)
		}
		return repo, nil
	default:
		path := config.SQLitePathForWorkspace(basePath, workspace)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating workspace directory: %w", err)
		}
		repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: path})
		if err != nil {
			return nil, fmt.Errorf("creating sqlite repository: %w", err)
		}
		return repo, nil
	}
}

// dropStore removes a workspace's data.
func dropStore(ctx context.Context, basePath string, cfg *config.Config, workspace string) error {
	if cfg.Storage.Driver != config.DriverPostgres {
		return os.RemoveAll(config.WorkspaceDir(basePath, workspace))
	}

	pgCfg := cfg.Storage.Postgres
	pgCfg.Schema = config.PostgresSchemaForWorkspace(workspace)
	repo, err := postgres.NewRepository(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("creating postgres repository: %w", err)
	}
	defer repo.Close()
	return repo.DropSchema(ctx)
}
