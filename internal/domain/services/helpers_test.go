package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/entities"
	"github.com/ersonp/sheetlink/internal/domain/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTable builds an entity from a header and rows; empty cells get no value.
func newTable(t *testing.T, reg *codec.Registry, name string, headers []string, rows ...[]string) *entities.Entity {
	t.Helper()
	e := entities.NewEntity(name, name+".csv")
	props := make([]*entities.Property, len(headers))
	for _, h := range headers {
		e.AddProperty(h, codec.String)
	}
	for i := range e.Properties {
		props[i] = &e.Properties[i]
	}
	for _, row := range rows {
		rec := e.AddRecord()
		for i, cell := range row {
			if cell == "" {
				continue
			}
			_, err := rec.SetValue(reg, props[i], cell)
			require.NoError(t, err)
		}
	}
	return e
}

func newStore(tables ...*entities.Entity) *mocks.RelationalDB {
	db := mocks.NewRelationalDB()
	db.Entities = append(db.Entities, tables...)
	return db
}

// pairSet returns the unordered pair keys of links.
func pairSet(links []entities.RecordLink) []string {
	keys := make([]string, len(links))
	for i := range links {
		keys[i] = links[i].PairKey()
	}
	return keys
}

func recordID(e *entities.Entity, row int) string {
	return e.Records[row].ID
}
