package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ersonp/sheetlink/internal/domain/entities"
	"github.com/ersonp/sheetlink/internal/domain/ports"
	"github.com/ersonp/sheetlink/internal/domain/services"
)

// CatalogHandler handles read-only catalog queries.
type CatalogHandler struct {
	service *services.CatalogService
	links   ports.LinkStore
	groups  ports.GroupStore
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *services.CatalogService, links ports.LinkStore, groups ports.GroupStore) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		links:   links,
		groups:  groups,
	}
}

// HandleList returns every imported entity.
func (h *CatalogHandler) HandleList(ctx context.Context) ([]entities.EntitySummary, error) {
	return h.service.ListEntities(ctx)
}

// HandleDescribe returns the columns of one entity.
func (h *CatalogHandler) HandleDescribe(ctx context.Context, name string) (*services.EntityDescription, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("entity name is required")
	}
	return h.service.DescribeEntity(ctx, name)
}

// HandleLinkable returns the column names shared by at least two entities.
func (h *CatalogHandler) HandleLinkable(ctx context.Context) ([]services.LinkableProperty, error) {
	return h.service.LinkableProperties(ctx)
}

// HandleGroups lists the stored record groups.
func (h *CatalogHandler) HandleGroups(ctx context.Context) ([]*entities.RecordGroup, error) {
	groups, err := h.groups.ListRecordGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	return groups, nil
}

// HandleLinkCount returns how many links are stored.
func (h *CatalogHandler) HandleLinkCount(ctx context.Context) (int, error) {
	n, err := h.links.CountRecordLinks(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting links: %w", err)
	}
	return n, nil
}

// HandleResetGroups removes every stored group so the next pass starts over.
func (h *CatalogHandler) HandleResetGroups(ctx context.Context) error {
	return h.groups.DeleteRecordGroups(ctx)
}
