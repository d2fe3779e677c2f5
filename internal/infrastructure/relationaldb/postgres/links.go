package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ersonp/sheetlink/internal/domain/entities"
)

// SaveRecordLinks stores links, ignoring pairs that are already linked.
func (r *Repository) SaveRecordLinks(ctx context.Context, links []entities.RecordLink) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	inserted := 0
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range links {
			l := &links[i]
			batch.Queue(`
				INSERT INTO record_links (id, record1_id, record2_id, pair_key, property, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (pair_key) DO NOTHING`,
				l.ID, l.Record1ID, l.Record2ID, l.PairKey(), l.Property, l.CreatedAt)
		}

		results := tx.SendBatch(ctx, batch)
		for range links {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return fmt.Errorf("saving link: %w", err)
			}
			inserted += int(tag.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListRecordLinks returns every link in insertion order.
func (r *Repository) ListRecordLinks(ctx context.Context) ([]entities.RecordLink, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, record1_id, record2_id, property, created_at
		FROM record_links
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.RecordLink, error) {
		var l entities.RecordLink
		err := row.Scan(&l.ID, &l.Record1ID, &l.Record2ID, &l.Property, &l.CreatedAt)
		return l, err
	})
}

// CountRecordLinks returns the number of stored links.
func (r *Repository) CountRecordLinks(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM record_links`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting links: %w", err)
	}
	return count, nil
}
