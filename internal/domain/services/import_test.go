package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/mocks"
	"github.com/ersonp/sheetlink/internal/infrastructure/parsers"
)

func newImportService(db *mocks.RelationalDB) *ImportService {
	return NewImportService(db, db, codec.NewRegistry(), discardLogger())
}

func TestImportService_BuildEntity(t *testing.T) {
	svc := newImportService(mocks.NewRelationalDB())
	table := &parsers.Table{
		Name:    "users.Sheet1",
		Source:  "users.xlsx",
		Headers: []string{" Name ", "Id", "Gutschrift", "Joined", "Mixed", "", "Ignored"},
		Rows: [][]string{
			{"Alice", "1", "10.50", "2024-01-02", "7", "x", "y"},
			{"Bob", "2", "3", "", "seven"},
			{"", "3"},
		},
	}

	entity, err := svc.BuildEntity(table)
	require.NoError(t, err)

	names := make([]string, len(entity.Properties))
	kinds := make([]codec.Kind, len(entity.Properties))
	for i, p := range entity.Properties {
		names[i] = p.Name
		kinds[i] = p.Kind
	}
	assert.Equal(t, []string{"Name", "Id", "Gutschrift", "Joined", "Mixed"}, names)
	assert.Equal(t, []codec.Kind{codec.String, codec.Integer, codec.String, codec.DateTime, codec.String}, kinds,
		"Gutschrift mixes decimal and integer cells")

	require.Len(t, entity.Records, 3)
	assert.Len(t, entity.Records[0].Values, 5)
	assert.Len(t, entity.Records[1].Values, 4, "empty Joined cell has no value")
	assert.Len(t, entity.Records[2].Values, 1)

	gutschrift, ok := entity.PropertyByName("Gutschrift")
	require.True(t, ok)
	v, ok := entity.Records[0].ValueFor(gutschrift.ID)
	require.True(t, ok)
	assert.Equal(t, codec.Decimal, v.Kind, "values keep their own inferred kind")
	assert.Equal(t, "10.50", v.Text)

	reg := codec.NewRegistry()
	for _, rec := range entity.Records {
		for i := range rec.Values {
			assert.NoError(t, rec.Values[i].Verify(reg))
		}
	}
}

func TestImportService_BuildEntity_Errors(t *testing.T) {
	svc := newImportService(mocks.NewRelationalDB())

	tests := []struct {
		name  string
		table parsers.Table
	}{
		{name: "no name", table: parsers.Table{Headers: []string{"A"}}},
		{name: "first header blank", table: parsers.Table{Name: "t", Headers: []string{" ", "A"}}},
		{name: "no headers", table: parsers.Table{Name: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BuildEntity(&tt.table)
			assert.Error(t, err)
		})
	}
}

func TestImportService_Import(t *testing.T) {
	tables := []parsers.Table{
		{Name: "users", Headers: []string{"Name"}, Rows: [][]string{{"Alice"}, {"Bob"}}},
		{Name: "accounts", Headers: []string{"Name"}, Rows: [][]string{{"Alice"}}},
		{Name: "users", Headers: []string{"Name"}},
		{Name: "broken", Headers: []string{""}},
	}

	db := mocks.NewRelationalDB()
	result, err := newImportService(db).Import(context.Background(), tables, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, []ImportedEntity{
		{Name: "users", Properties: 1, Records: 2, Values: 2},
		{Name: "accounts", Properties: 1, Records: 1, Values: 1},
	}, result.Imported)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "users", result.Errors[0].Table)
	assert.Equal(t, "broken", result.Errors[1].Table)
	assert.Len(t, db.Entities, 2)
}

func TestImportService_Import_TrimSpace(t *testing.T) {
	tables := []parsers.Table{{Name: "users", Headers: []string{"Name", "Id"}, Rows: [][]string{{" Alice ", " 7"}}}}

	db := mocks.NewRelationalDB()
	_, err := newImportService(db).Import(context.Background(), tables, ImportOptions{TrimSpace: true})
	require.NoError(t, err)

	entity, err := db.FindEntityByName(context.Background(), "users")
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, codec.Integer, entity.Properties[1].Kind)
	assert.Equal(t, "Alice", entity.Records[0].Values[0].Text)
	assert.Equal(t, " Alice ", tables[0].Rows[0][0], "input table is not modified")
}

func TestImportService_Import_Conflicts(t *testing.T) {
	first := []parsers.Table{{Name: "users", Headers: []string{"Name"}, Rows: [][]string{{"Alice"}}}}
	second := []parsers.Table{{Name: "users", Headers: []string{"Name"}, Rows: [][]string{{"Alice"}, {"Carol"}}}}

	t.Run("skip keeps the stored entity", func(t *testing.T) {
		db := mocks.NewRelationalDB()
		svc := newImportService(db)
		_, err := svc.Import(context.Background(), first, ImportOptions{})
		require.NoError(t, err)

		result, err := svc.Import(context.Background(), second, ImportOptions{OnConflict: ConflictSkip})
		require.NoError(t, err)
		assert.Equal(t, []string{"users"}, result.Skipped)
		assert.Empty(t, result.Imported)
		assert.Len(t, db.Entities[0].Records, 1)
	})

	t.Run("replace drops the entity with its links and groups", func(t *testing.T) {
		db := mocks.NewRelationalDB()
		svc := newImportService(db)
		_, err := svc.Import(context.Background(), append(first,
			parsers.Table{Name: "accounts", Headers: []string{"Name"}, Rows: [][]string{{"Alice"}}}), ImportOptions{})
		require.NoError(t, err)

		reg := codec.NewRegistry()
		_, err = NewLinkingService(db, db, reg, discardLogger()).LinkByProperty(context.Background(), "Name")
		require.NoError(t, err)
		_, err = NewGroupingService(db, db, db, discardLogger()).BuildGroups(context.Background())
		require.NoError(t, err)
		require.Len(t, db.Links, 1)
		require.Len(t, db.Groups, 1)

		result, err := svc.Import(context.Background(), second, ImportOptions{OnConflict: ConflictReplace})
		require.NoError(t, err)
		require.Len(t, result.Imported, 1)
		assert.True(t, result.Imported[0].Replaced)

		users, err := db.FindEntityByName(context.Background(), "users")
		require.NoError(t, err)
		assert.Len(t, users.Records, 2)
		assert.Empty(t, db.Links)
		assert.Empty(t, db.Groups)
	})

	t.Run("dry run saves nothing", func(t *testing.T) {
		db := mocks.NewRelationalDB()
		result, err := newImportService(db).Import(context.Background(), first, ImportOptions{DryRun: true})
		require.NoError(t, err)
		assert.Len(t, result.Imported, 1)
		assert.Empty(t, db.Entities)
	})
}

func TestImportService_Import_StoreError(t *testing.T) {
	db := mocks.NewRelationalDB()
	db.Err = errors.New("locked")
	tables := []parsers.Table{{Name: "users", Headers: []string{"Name"}}}

	_, err := newImportService(db).Import(context.Background(), tables, ImportOptions{})
	assert.ErrorContains(t, err, "looking up entity users: locked")
}

func TestParseConflictStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    ConflictStrategy
		wantErr bool
	}{
		{input: "", want: ConflictSkip},
		{input: "skip", want: ConflictSkip},
		{input: "REPLACE", want: ConflictReplace},
		{input: "overwrite", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConflictStrategy(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
