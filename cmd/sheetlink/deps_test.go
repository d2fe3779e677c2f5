package main

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/sheetlink/internal/domain/entities"
	"github.com/ersonp/sheetlink/internal/infrastructure/config"
)

func TestOpenStore_SQLitePerWorkspace(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()
	cfg := config.Default()

	db, err := openStore(ctx, tmpDir, cfg, "Q3 Billing")
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema(ctx))
	require.NoError(t, db.SaveEntity(ctx, entities.NewEntity("users", "users.csv")))
	require.NoError(t, db.Close())

	path := config.SQLitePathForWorkspace(tmpDir, "Q3 Billing")
	_, err = os.Stat(path)
	require.NoError(t, err, "database file is created inside the workspace directory")

	other, err := openStore(ctx, tmpDir, cfg, "other")
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.EnsureSchema(ctx))
	list, err := other.ListEntities(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "workspaces do not share data")
}

func TestDropStore_SQLite(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()
	cfg := config.Default()

	db, err := openStore(ctx, tmpDir, cfg, "main")
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema(ctx))
	require.NoError(t, db.Close())

	require.NoError(t, dropStore(ctx, tmpDir, cfg, "main"))

	_, err = os.Stat(config.WorkspaceDir(tmpDir, "main"))
	assert.True(t, os.IsNotExist(err))
}

func TestOpenStore_PostgresRequiresDSN(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverPostgres

	_, err := openStore(context.Background(), t.TempDir(), cfg, "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn is required")
}
