package entities

import (
	"errors"
	"fmt"

	"github.com/ersonp/sheetlink/internal/domain/codec"
)

// ErrValueMismatch means a stored value no longer agrees with its own text.
var ErrValueMismatch = errors.New("stored value does not match its text")

// Record is a row of an Entity. It holds at most one Value per Property;
// empty cells have no Value at all.
type Record struct {
	ID       string  `json:"id"`
	EntityID string  `json:"entity_id"`
	Position int     `json:"position"`
	Values   []Value `json:"values,omitempty"`
}

// Value is one cell. Data is the serialized form compared when linking,
// Text the cell as it was read, Kind the codec that produced Data.
type Value struct {
	ID         string     `json:"id"`
	RecordID   string     `json:"record_id"`
	PropertyID string     `json:"property_id"`
	Data       string     `json:"data"`
	Text       string     `json:"text"`
	Kind       codec.Kind `json:"kind"`
}

// SetValue infers the kind of text, serializes it and stores it for prop,
// replacing any earlier value for the same property.
func (r *Record) SetValue(reg *codec.Registry, prop *Property, text string) (*Value, error) {
	kind, data, err := reg.Serialize(text)
	if err != nil {
		return nil, fmt.Errorf("serializing %q: %w", prop.Name, err)
	}

	v := Value{
		ID:         NewID(),
		RecordID:   r.ID,
		PropertyID: prop.ID,
		Data:       data,
		Text:       text,
		Kind:       kind,
	}

	for i := range r.Values {
		if r.Values[i].PropertyID == prop.ID {
			v.ID = r.Values[i].ID
			r.Values[i] = v
			return &r.Values[i], nil
		}
	}
	r.Values = append(r.Values, v)
	return &r.Values[len(r.Values)-1], nil
}

// ValueFor returns the value stored for a property, if any.
func (r *Record) ValueFor(propertyID string) (*Value, bool) {
	for i := range r.Values {
		if r.Values[i].PropertyID == propertyID {
			return &r.Values[i], true
		}
	}
	return nil, false
}

// Decode returns the native value of v.
func (v *Value) Decode(reg *codec.Registry) (codec.Cell, error) {
	return reg.Decode(v.Kind, v.Data)
}

// Verify checks that Data decodes under Kind and that serializing Text again
// reproduces the same kind and bytes.
func (v *Value) Verify(reg *codec.Registry) error {
	if _, err := v.Decode(reg); err != nil {
		return err
	}
	kind, data, err := reg.Serialize(v.Text)
	if err != nil {
		return err
	}
	if kind != v.Kind || data != v.Data {
		return fmt.Errorf("%w: value %s: text %q serializes as %s %q, stored %s %q",
			ErrValueMismatch, v.ID, v.Text, kind, data, v.Kind, v.Data)
	}
	return nil
}

// MatchKey is the linking key of a value: kind and serialized bytes. Two
// values match only when their keys are identical.
func (v *Value) MatchKey() string {
	return v.Kind.String() + "\x00" + v.Data
}
