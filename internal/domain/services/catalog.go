package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/entities"
	"github.com/ersonp/sheetlink/internal/domain/ports"
)

// ColumnInfo describes one property of an entity.
type ColumnInfo struct {
	Name    string     `json:"name"`
	Kind    codec.Kind `json:"kind"`
	Example string     `json:"example,omitempty"` // First non-empty value, decoded
	Filled  int        `json:"filled"`            // Records holding a value
}

// EntityDescription is an entity with its columns.
type EntityDescription struct {
	Name    string       `json:"name"`
	Source  string       `json:"source"`
	Records int          `json:"records"`
	Columns []ColumnInfo `json:"columns"`
}

// LinkableProperty is a column name shared by several entities.
type LinkableProperty struct {
	Name     string   `json:"name"`
	Entities []string `json:"entities"`
}

// CatalogService answers questions about what has been imported.
type CatalogService struct {
	reader   ports.EntityReader
	registry *codec.Registry
	logger   *slog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(reader ports.EntityReader, registry *codec.Registry, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		reader:   reader,
		registry: registry,
		logger:   loggerOrDefault(logger),
	}
}

// ListEntities returns every imported entity.
func (s *CatalogService) ListEntities(ctx context.Context) ([]entities.EntitySummary, error) {
	list, err := s.reader.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	return list, nil
}

// DescribeEntity returns the columns of an entity with an example value each.
func (s *CatalogService) DescribeEntity(ctx context.Context, name string) (*EntityDescription, error) {
	entity, err := s.reader.FindEntityByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("finding entity: %w", err)
	}
	if entity == nil {
		return nil, fmt.Errorf("entity not found: %s", name)
	}

	desc := &EntityDescription{
		Name:    entity.Name,
		Source:  entity.Source,
		Records: len(entity.Records),
		Columns: make([]ColumnInfo, 0, len(entity.Properties)),
	}
	for _, prop := range entity.Properties {
		col := ColumnInfo{Name: prop.Name, Kind: prop.Kind}
		for i := range entity.Records {
			v, ok := entity.Records[i].ValueFor(prop.ID)
			if !ok {
				continue
			}
			col.Filled++
			if col.Filled > 1 {
				continue
			}
			cell, err := v.Decode(s.registry)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", prop.Name, err)
			}
			col.Example = cell.Text()
		}
		desc.Columns = append(desc.Columns, col)
	}
	return desc, nil
}

// LinkableProperties returns the property names owned by at least two
// entities, in the order they were first imported.
func (s *CatalogService) LinkableProperties(ctx context.Context) ([]LinkableProperty, error) {
	summaries, err := s.reader.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	names := make(map[string]string, len(summaries))
	for _, e := range summaries {
		names[e.ID] = e.Name
	}

	props, err := s.reader.ListProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}

	var order []string
	owners := make(map[string][]string)
	for _, p := range props {
		owned := owners[p.Name]
		if len(owned) > 0 && owned[len(owned)-1] == names[p.EntityID] {
			continue
		}
		if _, ok := owners[p.Name]; !ok {
			order = append(order, p.Name)
		}
		owners[p.Name] = append(owned, names[p.EntityID])
	}

	result := []LinkableProperty{}
	for _, name := range order {
		if len(owners[name]) < 2 {
			continue
		}
		result = append(result, LinkableProperty{Name: name, Entities: owners[name]})
	}
	return result, nil
}
