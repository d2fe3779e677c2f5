package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/services"
)

func TestImportHandler_Handle_CSVFile(t *testing.T) {
	app := newTestApp()
	path := writeFile(t, t.TempDir(), "users.csv", "Name,Id\nAlice,1\nBob,2\n")

	result, err := app.imports.Handle(context.Background(), path, ImportOptions{})

	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	assert.Equal(t, "users", result.Imported[0].Name)
	assert.Equal(t, 2, result.Imported[0].Records)

	entity, err := app.db.FindEntityByName(context.Background(), "users")
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, codec.Integer, entity.Properties[1].Kind)
}

func TestImportHandler_Handle_JSONFile(t *testing.T) {
	app := newTestApp()
	path := writeFile(t, t.TempDir(), "accounts.json", `[{"Name": "Alice", "Balance": 10.5}, {"Name": "Carol", "Balance": null}]`)

	result, err := app.imports.Handle(context.Background(), path, ImportOptions{})

	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	assert.Equal(t, 3, result.Imported[0].Values, "null cell has no value")
}

func TestImportHandler_Handle_ExplicitFormat(t *testing.T) {
	app := newTestApp()
	path := writeFile(t, t.TempDir(), "users.txt", "Name;Id\nAlice;1\n")

	result, err := app.imports.Handle(context.Background(), path, ImportOptions{Format: "csv", Delimiter: ';'})

	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	assert.Equal(t, 2, result.Imported[0].Properties)
}

func TestImportHandler_Handle_Conflict(t *testing.T) {
	app := newTestApp()
	dir := t.TempDir()
	path := writeFile(t, dir, "users.csv", "Name\nAlice\n")

	_, err := app.imports.Handle(context.Background(), path, ImportOptions{})
	require.NoError(t, err)

	result, err := app.imports.Handle(context.Background(), path, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, result.Skipped)

	result, err = app.imports.Handle(context.Background(), path, ImportOptions{OnConflict: services.ConflictReplace})
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	assert.True(t, result.Imported[0].Replaced)
	assert.Len(t, app.db.Entities, 1)
}

func TestImportHandler_Handle_Errors(t *testing.T) {
	app := newTestApp()
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		opts ImportOptions
	}{
		{"unsupported extension", writeFile(t, dir, "notes.txt", "x"), ImportOptions{}},
		{"unsupported format", writeFile(t, dir, "data.csv", "x"), ImportOptions{Format: "xml"}},
		{"missing file", dir + "/missing.csv", ImportOptions{}},
		{"malformed json", writeFile(t, dir, "bad.json", "{"), ImportOptions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.imports.Handle(context.Background(), tt.path, tt.opts)
			assert.Error(t, err)
		})
	}
}
