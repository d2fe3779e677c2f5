package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ersonp/sheetlink/internal/domain/entities"
)

// SaveRecordLinks stores links, ignoring pairs that are already linked.
func (r *Repository) SaveRecordLinks(ctx context.Context, links []entities.RecordLink) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	inserted := 0
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO record_links (id, record1_id, record2_id, pair_key, property, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(pair_key) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("preparing link insert: %w", err)
		}
		defer stmt.Close()

		for i := range links {
			l := &links[i]
			res, err := stmt.ExecContext(ctx, l.ID, l.Record1ID, l.Record2ID, l.PairKey(), l.Property, l.CreatedAt)
			if err != nil {
				return fmt.Errorf("saving link: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("saving link: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListRecordLinks returns every link in insertion order.
func (r *Repository) ListRecordLinks(ctx context.Context) ([]entities.RecordLink, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, record1_id, record2_id, property, created_at
		FROM record_links
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	var links []entities.RecordLink
	for rows.Next() {
		var l entities.RecordLink
		if err := rows.Scan(&l.ID, &l.Record1ID, &l.Record2ID, &l.Property, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// CountRecordLinks returns the number of stored links.
func (r *Repository) CountRecordLinks(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM record_links`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting links: %w", err)
	}
	return count, nil
}
