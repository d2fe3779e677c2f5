package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/mocks"
)

// linkedFixture imports three tables, links them on Name and groups them.
func linkedFixture(t *testing.T) (*mocks.RelationalDB, *codec.Registry) {
	t.Helper()
	reg := codec.NewRegistry()
	users := newTable(t, reg, "users.Sheet1", []string{"Name", "City"},
		[]string{"Alice", "Berlin"},
		[]string{"Carol", "Hamburg"},
	)
	payments := newTable(t, reg, "payments", []string{"Name", "Gutschrift"},
		[]string{"Alice", "10.50"},
		[]string{"Bob", "4"},
		[]string{"Carol", "1"},
	)
	refunds := newTable(t, reg, "refunds", []string{"Name", "Gutschrift"},
		[]string{"Alice", "3"},
		[]string{"Bob", "2"},
		[]string{"Carol", "n/a"},
	)
	db := newStore(users, payments, refunds)

	_, err := NewLinkingService(db, db, reg, discardLogger()).LinkByProperty(context.Background(), "Name")
	require.NoError(t, err)
	groups, err := NewGroupingService(db, db, db, discardLogger()).BuildGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups.Groups, 3)
	return db, reg
}

func TestReportService_Build(t *testing.T) {
	db, reg := linkedFixture(t)
	svc := NewReportService(db, db, reg, discardLogger())

	t.Run("anchor entity with sum column", func(t *testing.T) {
		report, err := svc.Build(context.Background(), ReportOptions{AnchorEntity: "users.Sheet1", SumColumn: "Gutschrift"})
		require.NoError(t, err)

		assert.Equal(t, []string{"Name", "City", "Gutschrift"}, report.Columns)
		require.Len(t, report.Rows, 2)
		assert.Equal(t, []string{"Alice", "Berlin", "13.50"}, report.Rows[0].Cells)
		assert.Equal(t, 3, report.Rows[0].Members)
		assert.Equal(t, []string{"Carol", "Hamburg", "1"}, report.Rows[1].Cells, "non-numeric cells are left out of the sum")
		assert.Equal(t, 1, report.Skipped, "Bob has no users row")
	})

	t.Run("first member anchors without an anchor entity", func(t *testing.T) {
		report, err := svc.Build(context.Background(), ReportOptions{})
		require.NoError(t, err)

		require.Len(t, report.Rows, 3)
		assert.Equal(t, []string{"Alice", "Berlin", ""}, report.Rows[0].Cells)
		assert.Equal(t, []string{"Carol", "Hamburg", ""}, report.Rows[1].Cells)
		assert.Equal(t, []string{"Bob", "", "4"}, report.Rows[2].Cells)
		assert.Zero(t, report.Skipped)
	})

	t.Run("options are normalized like column headers", func(t *testing.T) {
		report, err := svc.Build(context.Background(), ReportOptions{AnchorEntity: " users.Sheet1 ", SumColumn: " Gutschrift\t"})
		require.NoError(t, err)

		assert.Equal(t, []string{"Name", "City", "Gutschrift"}, report.Columns)
		require.Len(t, report.Rows, 2)
		assert.Equal(t, []string{"Alice", "Berlin", "13.50"}, report.Rows[0].Cells)
	})

	t.Run("sum column absent from every entity", func(t *testing.T) {
		report, err := svc.Build(context.Background(), ReportOptions{SumColumn: "Total"})
		require.NoError(t, err)

		assert.Equal(t, []string{"Name", "City", "Gutschrift", "Total"}, report.Columns)
		assert.Equal(t, "0", report.Rows[0].Cells[3])
	})
}

func TestReportService_Build_NoGroups(t *testing.T) {
	db := mocks.NewRelationalDB()
	report, err := NewReportService(db, db, codec.NewRegistry(), discardLogger()).Build(context.Background(), ReportOptions{})
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
	assert.Empty(t, report.Columns)
}
