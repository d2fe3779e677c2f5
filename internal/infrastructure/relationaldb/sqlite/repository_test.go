package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
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

// setupTestRepo creates an in-memory SQLite repository for testing.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

// buildEntity creates an entity with typed values; empty cells are skipped.
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

func saveEntities(t *testing.T, repo *Repository, list ...*entities.Entity) {
	t.Helper()
	for _, e := range list {
		require.NoError(t, repo.SaveEntity(context.Background(), e))
	}
}

func TestNewRepository(t *testing.T) {
	t.Run("success with memory database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		defer repo.Close()
		assert.NotNil(t, repo)
	})

	t.Run("success with file database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sheetlink.db")
		repo, err := NewRepository(config.SQLiteConfig{Path: path})
		require.NoError(t, err)
		defer repo.Close()
		require.NoError(t, repo.EnsureSchema(context.Background()))
		assert.FileExists(t, path)
	})

	t.Run("error with empty path", func(t *testing.T) {
		_, err := NewRepository(config.SQLiteConfig{Path: ""})
		require.Error(t, err)
	})
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo := setupTestRepo(t)

	tables := []string{"entities", "properties", "records", "record_values", "record_links", "record_groups", "record_group_links"}
	for _, table := range tables {
		var count int
		err := repo.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}

	// Should not error when called again
	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestRepository_Entities(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	users := buildEntity(t, "users", []string{"Name", "Id", "Joined"},
		[]string{"Alice", "1", "2024-01-02"},
		[]string{"Bob", "", "02.01.2024"},
	)
	accounts := buildEntity(t, "accounts", []string{"Balance", "Name"}, []string{"1.50", "Alice"})
	logs := buildEntity(t, "logs", []string{"Message"}, []string{"hello"})
	saveEntities(t, repo, users, accounts, logs)

	t.Run("find by name round-trips", func(t *testing.T) {
		found, err := repo.FindEntityByName(ctx, "users")
		require.NoError(t, err)
		if diff := cmp.Diff(users, found, ignoreTimes); diff != "" {
			t.Errorf("entity mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("find missing returns nil", func(t *testing.T) {
		found, err := repo.FindEntityByName(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		err := repo.SaveEntity(ctx, buildEntity(t, "users", []string{"X"}))
		assert.Error(t, err)

		list, err := repo.ListEntities(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 3, "failed insert is rolled back")
	})

	t.Run("find by property", func(t *testing.T) {
		found, err := repo.FindEntitiesByProperty(ctx, "Name")
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, "users", found[0].Name)
		assert.Equal(t, "accounts", found[1].Name)
		if diff := cmp.Diff(accounts, found[1], ignoreTimes); diff != "" {
			t.Errorf("entity mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("list summaries", func(t *testing.T) {
		list, err := repo.ListEntities(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "users", list[0].Name)
		assert.Equal(t, 3, list[0].PropertyCount)
		assert.Equal(t, 2, list[0].RecordCount)
		assert.Equal(t, "logs", list[2].Name)
	})

	t.Run("list properties", func(t *testing.T) {
		props, err := repo.ListProperties(ctx)
		require.NoError(t, err)
		names := make([]string, len(props))
		for i, p := range props {
			names[i] = p.Name
		}
		assert.Equal(t, []string{"Name", "Id", "Joined", "Balance", "Name", "Message"}, names)
	})

	t.Run("list record ids", func(t *testing.T) {
		ids, err := repo.ListRecordIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{users.Records[0].ID, users.Records[1].ID, accounts.Records[0].ID, logs.Records[0].ID}, ids)
	})

	t.Run("load all", func(t *testing.T) {
		all, err := repo.LoadEntities(ctx)
		require.NoError(t, err)
		if diff := cmp.Diff([]*entities.Entity{users, accounts, logs}, all, ignoreTimes); diff != "" {
			t.Errorf("entities mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRepository_RecordLinks(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	a := buildEntity(t, "a", []string{"Name"}, []string{"x"}, []string{"y"})
	b := buildEntity(t, "b", []string{"Name"}, []string{"x"})
	saveEntities(t, repo, a, b)

	link := func(r1, r2 string) entities.RecordLink {
		l, err := entities.NewRecordLink(r1, r2, "Name")
		require.NoError(t, err)
		return l
	}

	n, err := repo.SaveRecordLinks(ctx, []entities.RecordLink{
		link(a.Records[0].ID, b.Records[0].ID),
		link(a.Records[1].ID, b.Records[0].ID),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Same pair in either orientation is ignored.
	n, err = repo.SaveRecordLinks(ctx, []entities.RecordLink{
		link(b.Records[0].ID, a.Records[0].ID),
		link(a.Records[0].ID, a.Records[1].ID),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := repo.CountRecordLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	links, err := repo.ListRecordLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, a.Records[0].ID, links[0].Record1ID)
	assert.Equal(t, "Name", links[0].Property)
	assert.Equal(t, entities.PairKey(a.Records[0].ID, a.Records[1].ID), links[2].PairKey())

	t.Run("unknown record rejected", func(t *testing.T) {
		_, err := repo.SaveRecordLinks(ctx, []entities.RecordLink{link("ghost-1", "ghost-2")})
		assert.Error(t, err)
	})
}

func TestRepository_RecordGroups(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	tbl := buildEntity(t, "t", []string{"Name"}, []string{"a"}, []string{"b"}, []string{"c"})
	saveEntities(t, repo, tbl)
	a, b, c := tbl.Records[0].ID, tbl.Records[1].ID, tbl.Records[2].ID

	group, err := entities.NewRecordGroup([]string{b, a})
	require.NoError(t, err)
	require.NoError(t, repo.SaveRecordGroup(ctx, group))

	grouped, err := repo.IsRecordGrouped(ctx, a)
	require.NoError(t, err)
	assert.True(t, grouped)
	grouped, err = repo.IsRecordGrouped(ctx, c)
	require.NoError(t, err)
	assert.False(t, grouped)

	t.Run("overlapping group rolled back", func(t *testing.T) {
		overlap, err := entities.NewRecordGroup([]string{c, a})
		require.NoError(t, err)
		err = repo.SaveRecordGroup(ctx, overlap)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already belongs to a group")

		grouped, err := repo.IsRecordGrouped(ctx, c)
		require.NoError(t, err)
		assert.False(t, grouped, "no half-saved group")
	})

	groups, err := repo.ListRecordGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, group.ID, groups[0].ID)
	assert.Equal(t, []string{b, a}, groups[0].RecordIDs())

	ids, err := repo.ListGroupedRecordIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, ids)

	require.NoError(t, repo.DeleteRecordGroups(ctx))
	groups, err = repo.ListRecordGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
	grouped, err = repo.IsRecordGrouped(ctx, a)
	require.NoError(t, err)
	assert.False(t, grouped)
}

func TestRepository_DeleteEntity(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	users := buildEntity(t, "users", []string{"Name"}, []string{"Alice"})
	accounts := buildEntity(t, "accounts", []string{"Name"}, []string{"Alice"}, []string{"Bob"})
	logs := buildEntity(t, "logs", []string{"Name"}, []string{"Bob"})
	saveEntities(t, repo, users, accounts, logs)

	l1, err := entities.NewRecordLink(users.Records[0].ID, accounts.Records[0].ID, "Name")
	require.NoError(t, err)
	l2, err := entities.NewRecordLink(accounts.Records[1].ID, logs.Records[0].ID, "Name")
	require.NoError(t, err)
	_, err = repo.SaveRecordLinks(ctx, []entities.RecordLink{l1, l2})
	require.NoError(t, err)

	g1, err := entities.NewRecordGroup([]string{users.Records[0].ID, accounts.Records[0].ID})
	require.NoError(t, err)
	g2, err := entities.NewRecordGroup([]string{accounts.Records[1].ID, logs.Records[0].ID})
	require.NoError(t, err)
	require.NoError(t, repo.SaveRecordGroup(ctx, g1))
	require.NoError(t, repo.SaveRecordGroup(ctx, g2))

	require.NoError(t, repo.DeleteEntity(ctx, users.ID))

	found, err := repo.FindEntityByName(ctx, "users")
	require.NoError(t, err)
	assert.Nil(t, found)

	links, err := repo.ListRecordLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, l2.ID, links[0].ID)

	groups, err := repo.ListRecordGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, g2.ID, groups[0].ID)

	grouped, err := repo.IsRecordGrouped(ctx, accounts.Records[0].ID)
	require.NoError(t, err)
	assert.False(t, grouped, "other members of a removed group become ungrouped")

	var values int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM record_values`).Scan(&values))
	assert.Equal(t, 3, values)
}

func TestRepository_LinkAndGroup(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	reg := codec.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := buildEntity(t, "users", []string{"Name"}, []string{"Alice"}, []string{"Bob"})
	accounts := buildEntity(t, "accounts", []string{"Name"}, []string{"Alice"})
	logs := buildEntity(t, "logs", []string{"Name"}, []string{"Alice"}, []string{"Carol"})
	saveEntities(t, repo, users, accounts, logs)

	linking := services.NewLinkingService(repo, repo, reg, logger)
	grouping := services.NewGroupingService(repo, repo, repo, logger)

	linked, err := linking.LinkByProperty(ctx, "Name")
	require.NoError(t, err)
	assert.Len(t, linked.Links, 3)
	assert.Equal(t, 3, linked.Saved)

	again, err := linking.LinkByProperty(ctx, "Name")
	require.NoError(t, err)
	assert.Zero(t, again.Saved)

	result, err := grouping.BuildGroups(ctx)
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	if diff := cmp.Diff(
		[]string{users.Records[0].ID, accounts.Records[0].ID, logs.Records[0].ID},
		result.Groups[0].RecordIDs(),
		cmpopts.SortSlices(func(a, b string) bool { return a < b }),
	); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}

	second, err := grouping.BuildGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Groups)

	stored, err := repo.ListRecordGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
