package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/entities"
	"github.com/ersonp/sheetlink/internal/domain/ports"
	"github.com/ersonp/sheetlink/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle an entity name that already exists.
type ConflictStrategy string

const (
	// ConflictSkip keeps the stored entity and ignores the new table.
	ConflictSkip ConflictStrategy = "skip"
	// ConflictReplace deletes the stored entity, with its links and groups,
	// before saving the new table.
	ConflictReplace ConflictStrategy = "replace"
)

// ParseConflictStrategy validates a strategy name; empty means skip.
func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	switch ConflictStrategy(strings.ToLower(s)) {
	case "", ConflictSkip:
		return ConflictSkip, nil
	case ConflictReplace:
		return ConflictReplace, nil
	default:
		return "", fmt.Errorf("invalid conflict strategy %q (valid: skip, replace)", s)
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool             // Build entities without saving
	OnConflict ConflictStrategy // How to handle existing entity names
	TrimSpace  bool             // Strip surrounding whitespace from cells
}

// ImportError reports a table that could not be imported.
type ImportError struct {
	Table   string
	Message string
}

func (e ImportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ImportedEntity describes one entity built from a table.
type ImportedEntity struct {
	Name       string `json:"name"`
	Properties int    `json:"properties"`
	Records    int    `json:"records"`
	Values     int    `json:"values"`
	Replaced   bool   `json:"replaced,omitempty"`
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported []ImportedEntity
	Skipped  []string
	Errors   []ImportError
}

// ImportService turns parsed tables into typed entities.
type ImportService struct {
	reader   ports.EntityReader
	writer   ports.EntityWriter
	registry *codec.Registry
	logger   *slog.Logger
}

// NewImportService creates a new import service.
func NewImportService(
	reader ports.EntityReader,
	writer ports.EntityWriter,
	registry *codec.Registry,
	logger *slog.Logger,
) *ImportService {
	return &ImportService{
		reader:   reader,
		writer:   writer,
		registry: registry,
		logger:   loggerOrDefault(logger),
	}
}

// Import builds one entity per table and saves it.
func (s *ImportService) Import(ctx context.Context, tables []parsers.Table, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}
	inBatch := make(map[string]bool, len(tables))

	for i := range tables {
		table := &tables[i]
		if err := checkCancelled(ctx); err != nil {
			return result, err
		}

		if inBatch[table.Name] {
			result.Errors = append(result.Errors, ImportError{Table: table.Name, Message: "duplicate table name in this import"})
			continue
		}
		inBatch[table.Name] = true

		if opts.TrimSpace {
			table = trimTable(table)
		}

		entity, err := s.BuildEntity(table)
		if err != nil {
			result.Errors = append(result.Errors, ImportError{Table: table.Name, Message: err.Error()})
			continue
		}

		existing, err := s.reader.FindEntityByName(ctx, entity.Name)
		if err != nil {
			return result, fmt.Errorf("looking up entity %s: %w", entity.Name, err)
		}
		if existing != nil && opts.OnConflict != ConflictReplace {
			result.Skipped = append(result.Skipped, entity.Name)
			s.logger.Info("entity exists, skipping", "entity", entity.Name)
			continue
		}

		summary := summarize(entity)
		summary.Replaced = existing != nil

		if !opts.DryRun {
			if existing != nil {
				if err := s.writer.DeleteEntity(ctx, existing.ID); err != nil {
					return result, fmt.Errorf("deleting entity %s: %w", existing.Name, err)
				}
			}
			if err := s.writer.SaveEntity(ctx, entity); err != nil {
				return result, fmt.Errorf("saving entity %s: %w", entity.Name, err)
			}
		}

		result.Imported = append(result.Imported, summary)
		s.logger.Info("imported entity",
			"entity", entity.Name,
			"properties", summary.Properties,
			"records", summary.Records,
			"replaced", summary.Replaced,
			"dry_run", opts.DryRun)
	}

	return result, nil
}

// BuildEntity types a table. Columns end at the first blank header. A
// column's kind is the kind shared by all its non-empty cells, or String when
// they disagree. Empty cells get no Value.
func (s *ImportService) BuildEntity(table *parsers.Table) (*entities.Entity, error) {
	if strings.TrimSpace(table.Name) == "" {
		return nil, fmt.Errorf("table has no name")
	}

	headers := usableHeaders(table.Headers)
	if len(headers) == 0 {
		return nil, fmt.Errorf("no column headers")
	}

	entity := entities.NewEntity(table.Name, table.Source)
	for col, header := range headers {
		entity.AddProperty(header, s.columnKind(table.Rows, col))
	}

	for _, row := range table.Rows {
		rec := entity.AddRecord()
		for col := range headers {
			if col >= len(row) || strings.TrimSpace(row[col]) == "" {
				continue
			}
			if _, err := rec.SetValue(s.registry, &entity.Properties[col], row[col]); err != nil {
				return nil, fmt.Errorf("row %d: %w", rec.Position+1, err)
			}
		}
	}
	return entity, nil
}

func usableHeaders(headers []string) []string {
	for i, h := range headers {
		if strings.TrimSpace(h) == "" {
			return headers[:i]
		}
	}
	return headers
}

// trimTable returns a copy of table with every cell trimmed.
func trimTable(table *parsers.Table) *parsers.Table {
	out := *table
	out.Rows = make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		trimmed := make([]string, len(row))
		for j, cell := range row {
			trimmed[j] = strings.TrimSpace(cell)
		}
		out.Rows[i] = trimmed
	}
	return &out
}

func (s *ImportService) columnKind(rows [][]string, col int) codec.Kind {
	kind := codec.String
	seen := false
	for _, row := range rows {
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}
		k := s.registry.Infer(row[col]).Kind()
		if !seen {
			kind, seen = k, true
			continue
		}
		if k != kind {
			return codec.String
		}
	}
	return kind
}

func summarize(e *entities.Entity) ImportedEntity {
	summary := ImportedEntity{
		Name:       e.Name,
		Properties: len(e.Properties),
		Records:    len(e.Records),
	}
	for i := range e.Records {
		summary.Values += len(e.Records[i].Values)
	}
	return summary
}
