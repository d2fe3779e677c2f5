package entities

import (
	"fmt"
	"time"
)

// RecordGroup is a connected component of linked records. A record belongs
// to at most one group and groups never have fewer than two members.
type RecordGroup struct {
	ID        string            `json:"id"`
	Members   []RecordGroupLink `json:"members"`
	CreatedAt time.Time         `json:"created_at"`
}

// RecordGroupLink joins a group and one member record.
type RecordGroupLink struct {
	ID            string `json:"id"`
	RecordGroupID string `json:"record_group_id"`
	RecordID      string `json:"record_id"`
}

// MinGroupSize is the smallest component that becomes a group.
const MinGroupSize = 2

// NewRecordGroup builds a group with one membership row per record.
func NewRecordGroup(recordIDs []string) (*RecordGroup, error) {
	if len(recordIDs) < MinGroupSize {
		return nil, fmt.Errorf("record group needs at least %d records, got %d", MinGroupSize, len(recordIDs))
	}

	g := &RecordGroup{
		ID:        NewID(),
		Members:   make([]RecordGroupLink, 0, len(recordIDs)),
		CreatedAt: timeNow(),
	}
	seen := make(map[string]bool, len(recordIDs))
	for _, id := range recordIDs {
		if seen[id] {
			return nil, fmt.Errorf("record %s listed twice in group", id)
		}
		seen[id] = true
		g.Members = append(g.Members, RecordGroupLink{
			ID:            NewID(),
			RecordGroupID: g.ID,
			RecordID:      id,
		})
	}
	return g, nil
}

// RecordIDs returns the member record IDs in membership order.
func (g *RecordGroup) RecordIDs() []string {
	ids := make([]string, len(g.Members))
	for i := range g.Members {
		ids[i] = g.Members[i].RecordID
	}
	return ids
}
