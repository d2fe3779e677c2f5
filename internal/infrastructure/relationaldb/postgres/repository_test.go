package postgres

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/entities"
	"github.com/ersonp/sheetlink/internal/domain/ports"
	"github.com/ersonp/sheetlink/internal/domain/services"
	"github.com/ersonp/sheetlink/internal/infrastructure/config"
)

var _ ports.RelationalDB = (*Repository)(nil)

var ignoreTimes = cmpopts.IgnoreFields(entities.Entity{}, "CreatedAt")

// setupTestRepo connects to the database named by SHEETLINK_POSTGRES_DSN and
// creates a throwaway schema. The test is skipped when the variable is unset.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv(config.EnvPostgresDSN)
	if dsn == "" {
		t.Skipf("%s not set", config.EnvPostgresDSN)
	}

	ctx := context.Background()
	schema := "sheetlink_test_" + uuid.NewString()[:8]
	repo, err := NewRepository(ctx, config.PostgresConfig{DSN: dsn, Schema: schema})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.DropSchema(context.Background())
		repo.Close()
	})

	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func buildEntity(t *testing.T, name string, headers []string, rows ...[]string) *entities.Entity {
	t.Helper()
	reg := codec.NewRegistry()
	e := entities.NewEntity(name, name+".csv")
	for _, h := range headers {
		e.AddProperty(h, codec.String)
	}
	for _, row := range rows {
		rec := e.AddRecord()
		for i, cell := range row {
			if cell == "" {
				continue
			}
			_, err := rec.SetValue(reg, &e.Properties[i], cell)
			require.NoError(t, err)
		}
	}
	return e
}

func TestNewRepository_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewRepository(ctx, config.PostgresConfig{Schema: "x"})
	assert.Error(t, err)

	_, err = NewRepository(ctx, config.PostgresConfig{DSN: "postgres://localhost/x"})
	assert.Error(t, err)
}

func TestRepository_Entities(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	users := buildEntity(t, "users", []string{"Name", "Id"}, []string{"Alice", "1"}, []string{"Bob", ""})
	accounts := buildEntity(t, "accounts", []string{"Name"}, []string{"Alice"})
	for _, e := range []*entities.Entity{users, accounts} {
		require.NoError(t, repo.SaveEntity(ctx, e))
	}

	found, err := repo.FindEntityByName(ctx, "users")
	require.NoError(t, err)
	if diff := cmp.Diff(users, found, ignoreTimes); diff != "" {
		t.Errorf("entity mismatch (-want +got):\n%s", diff)
	}

	missing, err := repo.FindEntityByName(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, repo.SaveEntity(ctx, buildEntity(t, "users", []string{"X"})))

	list, err := repo.ListEntities(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].RecordCount)

	byProp, err := repo.FindEntitiesByProperty(ctx, "Name")
	require.NoError(t, err)
	assert.Len(t, byProp, 2)

	ids, err := repo.ListRecordIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{users.Records[0].ID, users.Records[1].ID, accounts.Records[0].ID}, ids)
}

func TestRepository_LinkGroupDelete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	reg := codec.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := buildEntity(t, "users", []string{"Name"}, []string{"Alice"}, []string{"Bob"})
	accounts := buildEntity(t, "accounts", []string{"Name"}, []string{"Alice"}, []string{"Bob"})
	for _, e := range []*entities.Entity{users, accounts} {
		require.NoError(t, repo.SaveEntity(ctx, e))
	}

	linked, err := services.NewLinkingService(repo, repo, reg, logger).LinkByProperty(ctx, "Name")
	require.NoError(t, err)
	assert.Equal(t, 2, linked.Saved)

	count, err := repo.CountRecordLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	grouped, err := services.NewGroupingService(repo, repo, repo, logger).BuildGroups(ctx)
	require.NoError(t, err)
	require.Len(t, grouped.Groups, 2)

	stored, err := repo.ListRecordGroups(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, []string{users.Records[0].ID, accounts.Records[0].ID}, stored[0].RecordIDs())

	overlap, err := entities.NewRecordGroup([]string{users.Records[0].ID, users.Records[1].ID})
	require.NoError(t, err)
	err = repo.SaveRecordGroup(ctx, overlap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already belongs to a group")

	require.NoError(t, repo.DeleteEntity(ctx, users.ID))

	links, err := repo.ListRecordLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)

	stored, err = repo.ListRecordGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
