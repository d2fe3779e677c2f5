// Package entities contains core domain data structures.
package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/ersonp/sheetlink/internal/domain/codec"
)

// NewID returns a new opaque identifier (can be replaced in tests).
var NewID = func() string {
	return uuid.New().String()
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Entity is one imported table. It owns its columns (Properties) and rows
// (Records); both are only appended to during ingestion.
type Entity struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`   // Unique per workspace, e.g. "users.Sheet1"
	Source     string     `json:"source"` // File the table was read from
	Properties []Property `json:"properties,omitempty"`
	Records    []Record   `json:"records,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Property is a column of an Entity.
type Property struct {
	ID       string     `json:"id"`
	EntityID string     `json:"entity_id"`
	Name     string     `json:"name"`
	Kind     codec.Kind `json:"kind"`
	Position int        `json:"position"`
}

// NewEntity creates an empty entity.
func NewEntity(name, source string) *Entity {
	return &Entity{
		ID:        NewID(),
		Name:      name,
		Source:    source,
		CreatedAt: timeNow(),
	}
}

// AddProperty appends a column and returns it.
func (e *Entity) AddProperty(name string, kind codec.Kind) *Property {
	e.Properties = append(e.Properties, Property{
		ID:       NewID(),
		EntityID: e.ID,
		Name:     NormalizePropertyName(name),
		Kind:     kind,
		Position: len(e.Properties),
	})
	return &e.Properties[len(e.Properties)-1]
}

// AddRecord appends an empty row and returns it.
func (e *Entity) AddRecord() *Record {
	e.Records = append(e.Records, Record{
		ID:       NewID(),
		EntityID: e.ID,
		Position: len(e.Records),
	})
	return &e.Records[len(e.Records)-1]
}

// PropertyByName returns the first column with the given name.
func (e *Entity) PropertyByName(name string) (*Property, bool) {
	name = NormalizePropertyName(name)
	for i := range e.Properties {
		if e.Properties[i].Name == name {
			return &e.Properties[i], true
		}
	}
	return nil, false
}

// NormalizePropertyName trims a column header and puts it in Unicode NFC so
// that headers typed on different systems compare equal.
func NormalizePropertyName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// EntitySummary describes an entity without loading its rows.
type EntitySummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Source        string    `json:"source"`
	PropertyCount int       `json:"property_count"`
	RecordCount   int       `json:"record_count"`
	CreatedAt     time.Time `json:"created_at"`
}
