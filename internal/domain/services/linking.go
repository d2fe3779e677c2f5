package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/entities"
	"github.com/ersonp/sheetlink/internal/domain/ports"
)

// LinkResult summarizes one linking pass.
type LinkResult struct {
	Property string                `json:"property"`
	Entities []string              `json:"entities"` // Names of the participating entities
	Pairs    int                   `json:"pairs"`    // Entity pairs compared
	Links    []entities.RecordLink `json:"links"`    // Every link emitted by this pass
	Saved    int                   `json:"saved"`    // Links that were new to the store
}

// LinkingService connects records of different entities whose values for a
// shared column are identical.
type LinkingService struct {
	reader   ports.EntityReader
	links    ports.LinkStore
	registry *codec.Registry
	logger   *slog.Logger
}

// NewLinkingService creates a new LinkingService.
func NewLinkingService(
	reader ports.EntityReader,
	links ports.LinkStore,
	registry *codec.Registry,
	logger *slog.Logger,
) *LinkingService {
	return &LinkingService{
		reader:   reader,
		links:    links,
		registry: registry,
		logger:   loggerOrDefault(logger),
	}
}

// participant is an entity taking part in a linking pass, reduced to the
// records that hold a value for the linking column.
type participant struct {
	entity *entities.Entity
	keyed  []keyedRecord
	index  map[string][]string // match key -> record IDs in row order
}

type keyedRecord struct {
	recordID string
	key      string
}

// LinkByProperty compares every pair of entities exposing propertyName and
// emits a link for each pair of records whose values match byte for byte.
// Fewer than two such entities yields an empty result. Links are stored one
// entity pair at a time; on cancellation the pairs already stored are kept
// and the partial result is returned with ErrCancelled.
func (s *LinkingService) LinkByProperty(ctx context.Context, propertyName string) (*LinkResult, error) {
	propertyName = entities.NormalizePropertyName(propertyName)
	result := &LinkResult{Property: propertyName, Links: []entities.RecordLink{}}

	found, err := s.reader.FindEntitiesByProperty(ctx, propertyName)
	if err != nil {
		return nil, fmt.Errorf("finding entities with property %q: %w", propertyName, err)
	}

	participants, err := s.prepare(found, propertyName)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		result.Entities = append(result.Entities, p.entity.Name)
	}

	if len(participants) < 2 {
		s.logger.Warn("not enough entities to link",
			"property", propertyName,
			"entities", len(participants))
		return result, nil
	}

	for i := 0; i < len(participants); i++ {
		for j := i + 1; j < len(participants); j++ {
			if err := checkCancelled(ctx); err != nil {
				return result, err
			}

			pairLinks, err := joinParticipants(participants[i], participants[j], propertyName)
			if err != nil {
				return result, err
			}
			result.Pairs++

			if len(pairLinks) == 0 {
				continue
			}
			saved, err := s.links.SaveRecordLinks(ctx, pairLinks)
			if err != nil {
				return result, fmt.Errorf("saving links between %s and %s: %w",
					participants[i].entity.Name, participants[j].entity.Name, err)
			}
			result.Links = append(result.Links, pairLinks...)
			result.Saved += saved

			s.logger.Debug("linked entity pair",
				"left", participants[i].entity.Name,
				"right", participants[j].entity.Name,
				"links", len(pairLinks),
				"new", saved)
		}
	}

	s.logger.Info("linking complete",
		"property", propertyName,
		"entities", len(participants),
		"links", len(result.Links),
		"new", result.Saved)
	return result, nil
}

// prepare keys every participating record by its value for the column. All
// values are verified first, so a malformed or tampered value fails the pass
// before any link is stored.
func (s *LinkingService) prepare(found []*entities.Entity, propertyName string) ([]*participant, error) {
	seen := make(map[string]bool, len(found))
	participants := make([]*participant, 0, len(found))

	for _, e := range found {
		if seen[e.ID] {
			continue
		}
		prop, ok := e.PropertyByName(propertyName)
		if !ok {
			continue
		}
		seen[e.ID] = true

		p := &participant{entity: e, index: make(map[string][]string)}
		for i := range e.Records {
			rec := &e.Records[i]
			v, ok := rec.ValueFor(prop.ID)
			if !ok {
				continue
			}
			if err := v.Verify(s.registry); err != nil {
				return nil, fmt.Errorf("entity %s row %d: %w", e.Name, rec.Position+1, err)
			}
			key := v.MatchKey()
			p.keyed = append(p.keyed, keyedRecord{recordID: rec.ID, key: key})
			p.index[key] = append(p.index[key], rec.ID)
		}
		participants = append(participants, p)
	}
	return participants, nil
}

// joinParticipants is an equi-join on the match key. It emits links in the
// order a nested loop over left then right rows would.
func joinParticipants(left, right *participant, propertyName string) ([]entities.RecordLink, error) {
	var links []entities.RecordLink
	for _, kr := range left.keyed {
		for _, otherID := range right.index[kr.key] {
			link, err := entities.NewRecordLink(kr.recordID, otherID, propertyName)
			if err != nil {
				return nil, fmt.Errorf("linking %s: %w", kr.recordID, err)
			}
			links = append(links, link)
		}
	}
	return links, nil
}
