package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ersonp/sheetlink/internal/domain/entities"
	"github.com/ersonp/sheetlink/internal/domain/ports"
)

// GroupResult summarizes one grouping pass.
type GroupResult struct {
	Groups         []*entities.RecordGroup `json:"groups"` // Groups created by this pass
	Records        int                     `json:"records"`
	AlreadyGrouped int                     `json:"already_grouped"`
	Isolated       int                     `json:"isolated"` // Records with no usable links
}

// GroupingService partitions linked records into groups.
type GroupingService struct {
	reader ports.EntityReader
	links  ports.LinkStore
	groups ports.GroupStore
	logger *slog.Logger
}

// NewGroupingService creates a new GroupingService.
func NewGroupingService(
	reader ports.EntityReader,
	links ports.LinkStore,
	groups ports.GroupStore,
	logger *slog.Logger,
) *GroupingService {
	return &GroupingService{
		reader: reader,
		links:  links,
		groups: groups,
		logger: loggerOrDefault(logger),
	}
}

// BuildGroups creates a group for every connected component of linked records
// that are not yet grouped. Existing groups are never changed, and a record
// that already belongs to a group is not walked through. Each group is stored
// as soon as its component is complete; on cancellation the groups stored so
// far are kept and returned with ErrCancelled.
func (s *GroupingService) BuildGroups(ctx context.Context) (*GroupResult, error) {
	result := &GroupResult{Groups: []*entities.RecordGroup{}}

	recordIDs, err := s.reader.ListRecordIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	links, err := s.links.ListRecordLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	groupedIDs, err := s.groups.ListGroupedRecordIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing grouped records: %w", err)
	}

	graph := newLinkGraph(links)
	grouped := make(map[string]bool, len(groupedIDs))
	for _, id := range groupedIDs {
		grouped[id] = true
	}
	visited := make(map[string]bool, len(recordIDs))
	result.Records = len(recordIDs)

	for _, root := range recordIDs {
		if err := checkCancelled(ctx); err != nil {
			return result, err
		}
		if visited[root] {
			continue
		}

		isGrouped, err := s.groups.IsRecordGrouped(ctx, root)
		if err != nil {
			return result, fmt.Errorf("checking group of record %s: %w", root, err)
		}
		if isGrouped {
			grouped[root] = true
			visited[root] = true
			result.AlreadyGrouped++
			continue
		}

		if !graph.hasEdges(root) {
			visited[root] = true
			result.Isolated++
			continue
		}

		members := graph.component(root, visited, func(id string) bool { return grouped[id] })
		if len(members) < entities.MinGroupSize {
			result.Isolated++
			continue
		}

		group, err := entities.NewRecordGroup(members)
		if err != nil {
			return result, fmt.Errorf("building group: %w", err)
		}
		if err := s.groups.SaveRecordGroup(ctx, group); err != nil {
			return result, fmt.Errorf("saving group: %w", err)
		}
		for _, id := range members {
			grouped[id] = true
		}
		result.Groups = append(result.Groups, group)

		s.logger.Debug("created record group", "group", group.ID, "members", len(members))
	}

	s.logger.Info("grouping complete",
		"records", result.Records,
		"groups", len(result.Groups),
		"already_grouped", result.AlreadyGrouped,
		"isolated", result.Isolated)
	return result, nil
}
