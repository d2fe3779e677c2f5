package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/sheetlink/internal/domain/services"
)

// LinkHandler runs a linking pass followed by a grouping pass.
type LinkHandler struct {
	linking  *services.LinkingService
	grouping *services.GroupingService
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(linking *services.LinkingService, grouping *services.GroupingService) *LinkHandler {
	return &LinkHandler{
		linking:  linking,
		grouping: grouping,
	}
}

// LinkOptions configures a link request.
type LinkOptions struct {
	NoGroup bool // Stop after linking
}

// LinkResult contains the outcome of both passes. Groups is nil when
// grouping was not run.
type LinkResult struct {
	Links  *services.LinkResult  `json:"links"`
	Groups *services.GroupResult `json:"groups,omitempty"`
}

// Handle links records on column and then groups the whole link graph.
// Grouping only starts once linking has completed without error.
func (h *LinkHandler) Handle(ctx context.Context, column string, opts LinkOptions) (*LinkResult, error) {
	if column == "" {
		return nil, errors.New("column name is required")
	}

	links, err := h.linking.LinkByProperty(ctx, column)
	if err != nil {
		return &LinkResult{Links: links}, fmt.Errorf("linking on %q: %w", column, err)
	}

	result := &LinkResult{Links: links}
	if opts.NoGroup {
		return result, nil
	}

	groups, err := h.grouping.BuildGroups(ctx)
	result.Groups = groups
	if err != nil {
		return result, fmt.Errorf("grouping records: %w", err)
	}
	return result, nil
}

// HandleGroup runs a grouping pass on its own.
func (h *LinkHandler) HandleGroup(ctx context.Context) (*services.GroupResult, error) {
	return h.grouping.BuildGroups(ctx)
}
