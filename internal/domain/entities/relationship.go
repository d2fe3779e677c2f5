package entities

import (
	"errors"
	"time"
)

// ErrSelfLink is returned when a link would join a record to itself.
var ErrSelfLink = errors.New("record cannot be linked to itself")

// RecordLink is an undirected edge asserting that two records describe the
// same subject. Property names the column whose values matched.
type RecordLink struct {
	ID        string    `json:"id"`
	Record1ID string    `json:"record1_id"`
	Record2ID string    `json:"record2_id"`
	Property  string    `json:"property"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecordLink creates a link between two distinct records.
func NewRecordLink(record1ID, record2ID, property string) (RecordLink, error) {
	if record1ID == record2ID {
		return RecordLink{}, ErrSelfLink
	}
	return RecordLink{
		ID:        NewID(),
		Record1ID: record1ID,
		Record2ID: record2ID,
		Property:  property,
		CreatedAt: timeNow(),
	}, nil
}

// PairKey identifies the unordered pair of records a link joins.
func (l *RecordLink) PairKey() string {
	return PairKey(l.Record1ID, l.Record2ID)
}

// PairKey builds the order-independent key for two record IDs.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
