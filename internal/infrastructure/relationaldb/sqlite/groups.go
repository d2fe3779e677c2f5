package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ersonp/sheetlink/internal/domain/entities"
)

// SaveRecordGroup stores a group and its memberships in one transaction.
// A member that already belongs to a group fails the whole group.
func (r *Repository) SaveRecordGroup(ctx context.Context, group *entities.RecordGroup) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO record_groups (id, created_at) VALUES (?, ?)`,
			group.ID, group.CreatedAt); err != nil {
			return fmt.Errorf("saving group: %w", err)
		}

		for i, m := range group.Members {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO record_group_links (id, record_group_id, record_id, position) VALUES (?, ?, ?, ?)`,
				m.ID, group.ID, m.RecordID, i)
			if isUniqueViolation(err) {
				return fmt.Errorf("record %s already belongs to a group", m.RecordID)
			}
			if err != nil {
				return fmt.Errorf("saving group member %s: %w", m.RecordID, err)
			}
		}
		return nil
	})
}

// IsRecordGrouped reports whether a record belongs to a group.
func (r *Repository) IsRecordGrouped(ctx context.Context, recordID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM record_group_links WHERE record_id = ?)`, recordID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking group membership: %w", err)
	}
	return exists, nil
}

// ListGroupedRecordIDs returns the IDs of every grouped record.
func (r *Repository) ListGroupedRecordIDs(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, `SELECT record_id FROM record_group_links ORDER BY rowid`)
}

// ListRecordGroups returns every group with its members, oldest first.
func (r *Repository) ListRecordGroups(ctx context.Context) ([]*entities.RecordGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, created_at FROM record_groups ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}

	var groups []*entities.RecordGroup
	byID := make(map[string]*entities.RecordGroup)
	for rows.Next() {
		g := &entities.RecordGroup{}
		if err := rows.Scan(&g.ID, &g.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, g)
		byID[g.ID] = g
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}

	members, err := r.db.QueryContext(ctx, `
		SELECT id, record_group_id, record_id
		FROM record_group_links
		ORDER BY record_group_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying group members: %w", err)
	}
	defer members.Close()

	for members.Next() {
		var m entities.RecordGroupLink
		if err := members.Scan(&m.ID, &m.RecordGroupID, &m.RecordID); err != nil {
			return nil, fmt.Errorf("scanning group member: %w", err)
		}
		if g, ok := byID[m.RecordGroupID]; ok {
			g.Members = append(g.Members, m)
		}
	}
	return groups, members.Err()
}

// DeleteRecordGroups removes every group and membership.
func (r *Repository) DeleteRecordGroups(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM record_groups`); err != nil {
		return fmt.Errorf("deleting groups: %w", err)
	}
	return nil
}
