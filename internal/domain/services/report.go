package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/entities"
	"github.com/ersonp/sheetlink/internal/domain/ports"
)

// ReportOptions selects how groups are flattened into rows.
type ReportOptions struct {
	// AnchorEntity names the entity whose member supplies the row's cells.
	// Empty means the first member of each group.
	AnchorEntity string
	// SumColumn, when set, is replaced by the sum of that column over the
	// group's other members.
	SumColumn string
}

// Report is one row per record group.
type Report struct {
	Columns []string    `json:"columns"`
	Rows    []ReportRow `json:"rows"`
	Skipped int         `json:"skipped"` // Groups without an anchor member
}

// ReportRow is the flattened view of one group.
type ReportRow struct {
	GroupID string   `json:"group_id"`
	Members int      `json:"members"`
	Cells   []string `json:"cells"`
}

// ReportService renders record groups as a table.
type ReportService struct {
	reader   ports.EntityReader
	groups   ports.GroupStore
	registry *codec.Registry
	logger   *slog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(
	reader ports.EntityReader,
	groups ports.GroupStore,
	registry *codec.Registry,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		reader:   reader,
		groups:   groups,
		registry: registry,
		logger:   loggerOrDefault(logger),
	}
}

type memberRecord struct {
	entity *entities.Entity
	record *entities.Record
}

// sumContext is wide enough for any sum of 96-bit coefficients.
var sumContext = apd.BaseContext.WithPrecision(64)

// Build flattens every stored group into a report row.
func (s *ReportService) Build(ctx context.Context, opts ReportOptions) (*Report, error) {
	opts.SumColumn = entities.NormalizePropertyName(opts.SumColumn)
	opts.AnchorEntity = strings.TrimSpace(opts.AnchorEntity)

	all, err := s.reader.LoadEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading entities: %w", err)
	}
	groups, err := s.groups.ListRecordGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}

	records := make(map[string]memberRecord)
	for _, e := range all {
		for i := range e.Records {
			records[e.Records[i].ID] = memberRecord{entity: e, record: &e.Records[i]}
		}
	}

	report := &Report{Columns: reportColumns(all, opts.SumColumn), Rows: []ReportRow{}}

	for _, g := range groups {
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}

		members := make([]memberRecord, 0, len(g.Members))
		for _, id := range g.RecordIDs() {
			m, ok := records[id]
			if !ok {
				return nil, fmt.Errorf("group %s: record not found: %s", g.ID, id)
			}
			members = append(members, m)
		}

		anchor := anchorIndex(members, opts.AnchorEntity)
		if anchor < 0 {
			report.Skipped++
			s.logger.Warn("group has no anchor member, skipping", "group", g.ID, "anchor", opts.AnchorEntity)
			continue
		}

		row := ReportRow{GroupID: g.ID, Members: len(members), Cells: make([]string, len(report.Columns))}
		for i, col := range report.Columns {
			if opts.SumColumn != "" && col == opts.SumColumn {
				sum, err := s.sum(members, anchor, col, g.ID)
				if err != nil {
					return nil, err
				}
				row.Cells[i] = sum
				continue
			}
			if v, ok := valueByName(members[anchor], col); ok {
				row.Cells[i] = v.Text
			}
		}
		report.Rows = append(report.Rows, row)
	}

	s.logger.Info("report built", "rows", len(report.Rows), "skipped", report.Skipped)
	return report, nil
}

// reportColumns lists distinct property names in first-seen order.
func reportColumns(all []*entities.Entity, sumColumn string) []string {
	var columns []string
	seen := make(map[string]bool)
	for _, e := range all {
		for _, p := range e.Properties {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			columns = append(columns, p.Name)
		}
	}
	if sumColumn != "" && !seen[sumColumn] {
		columns = append(columns, sumColumn)
	}
	return columns
}

func anchorIndex(members []memberRecord, anchorEntity string) int {
	if anchorEntity == "" {
		if len(members) == 0 {
			return -1
		}
		return 0
	}
	for i, m := range members {
		if m.entity.Name == anchorEntity {
			return i
		}
	}
	return -1
}

func valueByName(m memberRecord, name string) (*entities.Value, bool) {
	prop, ok := m.entity.PropertyByName(name)
	if !ok {
		return nil, false
	}
	return m.record.ValueFor(prop.ID)
}

// sum adds the numeric values of column over every member except the anchor.
func (s *ReportService) sum(members []memberRecord, anchor int, column, groupID string) (string, error) {
	total := apd.New(0, 0)
	for i, m := range members {
		if i == anchor {
			continue
		}
		v, ok := valueByName(m, column)
		if !ok {
			continue
		}
		cell, err := v.Decode(s.registry)
		if err != nil {
			return "", fmt.Errorf("group %s: %w", groupID, err)
		}

		var d *apd.Decimal
		switch c := cell.(type) {
		case codec.IntegerCell:
			d = apd.New(int64(c), 0)
		case codec.DecimalCell:
			d = c.Value
		default:
			s.logger.Warn("non-numeric value in sum column, skipping",
				"group", groupID, "entity", m.entity.Name, "column", column, "value", v.Text)
			continue
		}
		if _, err := sumContext.Add(total, total, d); err != nil {
			return "", fmt.Errorf("group %s: summing %s: %w", groupID, column, err)
		}
	}
	return total.Text('f'), nil
}
