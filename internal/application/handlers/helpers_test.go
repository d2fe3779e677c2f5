package handlers

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/mocks"
	"github.com/ersonp/sheetlink/internal/domain/services"
)

// testApp wires every handler to one in-memory store.
type testApp struct {
	db      *mocks.RelationalDB
	imports *ImportHandler
	link    *LinkHandler
	catalog *CatalogHandler
	report  *ReportHandler
}

func newTestApp() *testApp {
	db := mocks.NewRelationalDB()
	reg := codec.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testApp{
		db:      db,
		imports: NewImportHandler(services.NewImportService(db, db, reg, logger)),
		link: NewLinkHandler(
			services.NewLinkingService(db, db, reg, logger),
			services.NewGroupingService(db, db, db, logger),
		),
		catalog: NewCatalogHandler(services.NewCatalogService(db, reg, logger), db, db),
		report:  NewReportHandler(services.NewReportService(db, db, reg, logger)),
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// importFiles imports name/content pairs through the import handler.
func (a *testApp) importFiles(t *testing.T, files ...[2]string) {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		result, err := a.imports.Handle(context.Background(), writeFile(t, dir, f[0], f[1]), ImportOptions{})
		require.NoError(t, err)
		require.Empty(t, result.Errors)
	}
}
