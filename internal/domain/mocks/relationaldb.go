package mocks

import (
	"context"
	"fmt"

	"github.com/ersonp/sheetlink/internal/domain/entities"
)

// RelationalDB is an in-memory implementation of ports.RelationalDB.
// Setting Err makes every call fail with it.
type RelationalDB struct {
	Entities []*entities.Entity
	Links    []entities.RecordLink
	Groups   []*entities.RecordGroup
	Err      error

	// SaveGroupErr fails SaveRecordGroup only.
	SaveGroupErr error
	// OnSaveRecordLinks runs after each successful SaveRecordLinks call.
	OnSaveRecordLinks func(links []entities.RecordLink)
	// OnSaveRecordGroup runs after each successful SaveRecordGroup call.
	OnSaveRecordGroup func(group *entities.RecordGroup)

	pairs   map[string]bool
	grouped map[string]string
}

// NewRelationalDB creates an empty store.
func NewRelationalDB() *RelationalDB {
	return &RelationalDB{
		pairs:   make(map[string]bool),
		grouped: make(map[string]string),
	}
}

// EnsureSchema is a no-op.
func (m *RelationalDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close is a no-op.
func (m *RelationalDB) Close() error {
	return nil
}

// Entity methods.

// ListEntities returns entity summaries in insertion order.
func (m *RelationalDB) ListEntities(_ context.Context) ([]entities.EntitySummary, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.EntitySummary, 0, len(m.Entities))
	for _, e := range m.Entities {
		result = append(result, entities.EntitySummary{
			ID:            e.ID,
			Name:          e.Name,
			Source:        e.Source,
			PropertyCount: len(e.Properties),
			RecordCount:   len(e.Records),
			CreatedAt:     e.CreatedAt,
		})
	}
	return result, nil
}

// FindEntityByName returns the named entity or nil.
func (m *RelationalDB) FindEntityByName(_ context.Context, name string) (*entities.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, e := range m.Entities {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, nil
}

// FindEntitiesByProperty returns entities owning a property with the name.
func (m *RelationalDB) FindEntitiesByProperty(_ context.Context, propertyName string) ([]*entities.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []*entities.Entity
	for _, e := range m.Entities {
		if _, ok := e.PropertyByName(propertyName); ok {
			result = append(result, e)
		}
	}
	return result, nil
}

// ListProperties returns the properties of every entity.
func (m *RelationalDB) ListProperties(_ context.Context) ([]entities.Property, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var props []entities.Property
	for _, e := range m.Entities {
		props = append(props, e.Properties...)
	}
	return props, nil
}

// LoadEntities returns every entity.
func (m *RelationalDB) LoadEntities(_ context.Context) ([]*entities.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]*entities.Entity, len(m.Entities))
	copy(result, m.Entities)
	return result, nil
}

// ListRecordIDs returns record IDs by entity then row.
func (m *RelationalDB) ListRecordIDs(_ context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var ids []string
	for _, e := range m.Entities {
		for i := range e.Records {
			ids = append(ids, e.Records[i].ID)
		}
	}
	return ids, nil
}

// SaveEntity stores an entity, rejecting duplicate names.
func (m *RelationalDB) SaveEntity(_ context.Context, entity *entities.Entity) error {
	if m.Err != nil {
		return m.Err
	}
	for _, e := range m.Entities {
		if e.Name == entity.Name {
			return fmt.Errorf("entity %q already exists", entity.Name)
		}
	}
	m.Entities = append(m.Entities, entity)
	return nil
}

// DeleteEntity removes an entity with its links and affected groups.
func (m *RelationalDB) DeleteEntity(_ context.Context, entityID string) error {
	if m.Err != nil {
		return m.Err
	}
	records := make(map[string]bool)
	kept := m.Entities[:0]
	for _, e := range m.Entities {
		if e.ID != entityID {
			kept = append(kept, e)
			continue
		}
		for i := range e.Records {
			records[e.Records[i].ID] = true
		}
	}
	m.Entities = kept

	links := m.Links[:0]
	for _, l := range m.Links {
		if records[l.Record1ID] || records[l.Record2ID] {
			delete(m.pairs, l.PairKey())
			continue
		}
		links = append(links, l)
	}
	m.Links = links

	groups := m.Groups[:0]
	for _, g := range m.Groups {
		touched := false
		for _, id := range g.RecordIDs() {
			if records[id] {
				touched = true
				break
			}
		}
		if !touched {
			groups = append(groups, g)
			continue
		}
		for _, id := range g.RecordIDs() {
			delete(m.grouped, id)
		}
	}
	m.Groups = groups
	return nil
}

// Link methods.

// SaveRecordLinks stores links not yet stored for their pair.
func (m *RelationalDB) SaveRecordLinks(_ context.Context, links []entities.RecordLink) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	inserted := 0
	for _, l := range links {
		key := l.PairKey()
		if m.pairs[key] {
			continue
		}
		m.pairs[key] = true
		m.Links = append(m.Links, l)
		inserted++
	}
	if m.OnSaveRecordLinks != nil {
		m.OnSaveRecordLinks(links)
	}
	return inserted, nil
}

// ListRecordLinks returns stored links in insertion order.
func (m *RelationalDB) ListRecordLinks(_ context.Context) ([]entities.RecordLink, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.RecordLink, len(m.Links))
	copy(result, m.Links)
	return result, nil
}

// CountRecordLinks returns the number of stored links.
func (m *RelationalDB) CountRecordLinks(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Links), nil
}

// Group methods.

// SaveRecordGroup stores a group, rejecting members that are already grouped.
func (m *RelationalDB) SaveRecordGroup(_ context.Context, group *entities.RecordGroup) error {
	if m.Err != nil {
		return m.Err
	}
	if m.SaveGroupErr != nil {
		return m.SaveGroupErr
	}
	for _, id := range group.RecordIDs() {
		if other, ok := m.grouped[id]; ok {
			return fmt.Errorf("record %s already belongs to group %s", id, other)
		}
	}
	for _, id := range group.RecordIDs() {
		m.grouped[id] = group.ID
	}
	m.Groups = append(m.Groups, group)
	if m.OnSaveRecordGroup != nil {
		m.OnSaveRecordGroup(group)
	}
	return nil
}

// IsRecordGrouped reports whether a record belongs to a group.
func (m *RelationalDB) IsRecordGrouped(_ context.Context, recordID string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	_, ok := m.grouped[recordID]
	return ok, nil
}

// ListGroupedRecordIDs returns every grouped record ID.
func (m *RelationalDB) ListGroupedRecordIDs(_ context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var ids []string
	for _, g := range m.Groups {
		ids = append(ids, g.RecordIDs()...)
	}
	return ids, nil
}

// ListRecordGroups returns groups in insertion order.
func (m *RelationalDB) ListRecordGroups(_ context.Context) ([]*entities.RecordGroup, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]*entities.RecordGroup, len(m.Groups))
	copy(result, m.Groups)
	return result, nil
}

// DeleteRecordGroups removes every group.
func (m *RelationalDB) DeleteRecordGroups(_ context.Context) error {
	if m.Err != nil {
		return m.Err
	}
	m.Groups = nil
	m.grouped = make(map[string]string)
	return nil
}
