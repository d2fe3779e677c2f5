package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ersonp/sheetlink/internal/domain/entities"
)

// SaveRecordGroup stores a group and its memberships in one transaction.
func (r *Repository) SaveRecordGroup(ctx context.Context, group *entities.RecordGroup) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO record_groups (id, created_at) VALUES ($1, $2)`,
			group.ID, group.CreatedAt); err != nil {
			return fmt.Errorf("saving group: %w", err)
		}

		for i, m := range group.Members {
			_, err := tx.Exec(ctx,
				`INSERT INTO record_group_links (id, record_group_id, record_id, position) VALUES ($1, $2, $3, $4)`,
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
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM record_group_links WHERE record_id = $1)`, recordID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking group membership: %w", err)
	}
	return exists, nil
}

// ListGroupedRecordIDs returns the IDs of every grouped record.
func (r *Repository) ListGroupedRecordIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT gl.record_id
		FROM record_group_links gl
		JOIN record_groups g ON g.id = gl.record_group_id
		ORDER BY g.seq, gl.position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying grouped records: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ListRecordGroups returns every group with its members, oldest first.
func (r *Repository) ListRecordGroups(ctx context.Context) ([]*entities.RecordGroup, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, created_at FROM record_groups ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	groups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entities.RecordGroup, error) {
		g := &entities.RecordGroup{}
		err := row.Scan(&g.ID, &g.CreatedAt)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning groups: %w", err)
	}
	byID := make(map[string]*entities.RecordGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	rows, err = r.pool.Query(ctx, `
		SELECT id, record_group_id, record_id
		FROM record_group_links
		ORDER BY record_group_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying group members: %w", err)
	}
	members, err := pgx.CollectRows(rows, pgx.RowToStructByPos[entities.RecordGroupLink])
	if err != nil {
		return nil, fmt.Errorf("scanning group members: %w", err)
	}
	for _, m := range members {
		if g, ok := byID[m.RecordGroupID]; ok {
			g.Members = append(g.Members, m)
		}
	}
	return groups, nil
}

// DeleteRecordGroups removes every group and membership.
func (r *Repository) DeleteRecordGroups(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM record_groups`); err != nil {
		return fmt.Errorf("deleting groups: %w", err)
	}
	return nil
}
