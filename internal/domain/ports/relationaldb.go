package ports

import (
	"context"

	"github.com/ersonp/sheetlink/internal/domain/entities"
)

// EntityReader is the read view of imported tables.
type EntityReader interface {
	// ListEntities returns a summary of every entity, oldest first.
	ListEntities(ctx context.Context) ([]entities.EntitySummary, error)

	// FindEntityByName loads an entity with its properties, records and values.
	// Returns nil if no entity has that name.
	FindEntityByName(ctx context.Context, name string) (*entities.Entity, error)

	// FindEntitiesByProperty loads every entity owning at least one property
	// with the given name, oldest first.
	FindEntitiesByProperty(ctx context.Context, propertyName string) ([]*entities.Entity, error)

	// ListProperties returns every property, ordered by entity then position.
	ListProperties(ctx context.Context) ([]entities.Property, error)

	// LoadEntities loads every entity with its properties, records and values.
	LoadEntities(ctx context.Context) ([]*entities.Entity, error)

	// ListRecordIDs returns the ID of every record, ordered by entity then row.
	ListRecordIDs(ctx context.Context) ([]string, error)
}

// EntityWriter persists imported tables.
type EntityWriter interface {
	// SaveEntity inserts an entity with its properties, records and values.
	SaveEntity(ctx context.Context, entity *entities.Entity) error

	// DeleteEntity removes an entity, its rows, the links touching them and
	// every group one of its rows belonged to.
	DeleteEntity(ctx context.Context, entityID string) error
}

// LinkStore persists record links.
type LinkStore interface {
	// SaveRecordLinks stores links, ignoring any whose unordered record pair
	// is already stored. Returns the number of links actually inserted.
	SaveRecordLinks(ctx context.Context, links []entities.RecordLink) (int, error)

	// ListRecordLinks returns every stored link in insertion order.
	ListRecordLinks(ctx context.Context) ([]entities.RecordLink, error)

	// CountRecordLinks returns the number of stored links.
	CountRecordLinks(ctx context.Context) (int, error)
}

// GroupStore persists record groups.
type GroupStore interface {
	// SaveRecordGroup stores a group and all its memberships atomically.
	SaveRecordGroup(ctx context.Context, group *entities.RecordGroup) error

	// IsRecordGrouped reports whether a record already belongs to a group.
	IsRecordGrouped(ctx context.Context, recordID string) (bool, error)

	// ListGroupedRecordIDs returns the IDs of every record that belongs to a group.
	ListGroupedRecordIDs(ctx context.Context) ([]string, error)

	// ListRecordGroups returns every group with its members, oldest first.
	ListRecordGroups(ctx context.Context) ([]*entities.RecordGroup, error)

	// DeleteRecordGroups removes every group and membership.
	DeleteRecordGroups(ctx context.Context) error
}

// RelationalDB is a complete storage backend for one workspace.
type RelationalDB interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	EntityReader
	EntityWriter
	LinkStore
	GroupStore
}
