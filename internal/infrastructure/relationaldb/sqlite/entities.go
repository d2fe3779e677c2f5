package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/entities"
)

// SaveEntity inserts an entity with its properties, records and values.
func (r *Repository) SaveEntity(ctx context.Context, entity *entities.Entity) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entities (id, name, source, created_at) VALUES (?, ?, ?, ?)`,
			entity.ID, entity.Name, entity.Source, entity.CreatedAt)
		if err != nil {
			return fmt.Errorf("saving entity: %w", err)
		}

		for _, p := range entity.Properties {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO properties (id, entity_id, name, kind, position) VALUES (?, ?, ?, ?, ?)`,
				p.ID, entity.ID, p.Name, p.Kind.String(), p.Position)
			if err != nil {
				return fmt.Errorf("saving property %s: %w", p.Name, err)
			}
		}

		recStmt, err := tx.PrepareContext(ctx, `INSERT INTO records (id, entity_id, position) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing record insert: %w", err)
		}
		defer recStmt.Close()

		valStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO record_values (id, record_id, property_id, data, text, kind) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing value insert: %w", err)
		}
		defer valStmt.Close()

		for i := range entity.Records {
			rec := &entity.Records[i]
			if _, err := recStmt.ExecContext(ctx, rec.ID, entity.ID, rec.Position); err != nil {
				return fmt.Errorf("saving record %d: %w", rec.Position, err)
			}
			for _, v := range rec.Values {
				if _, err := valStmt.ExecContext(ctx, v.ID, rec.ID, v.PropertyID, v.Data, v.Text, v.Kind.String()); err != nil {
					return fmt.Errorf("saving value of record %d: %w", rec.Position, err)
				}
			}
		}
		return nil
	})
}

// DeleteEntity removes an entity. Groups containing any of its records are
// removed whole; properties, records, values and links go by cascade.
func (r *Repository) DeleteEntity(ctx context.Context, entityID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM record_groups WHERE id IN (
				SELECT gl.record_group_id
				FROM record_group_links gl
				JOIN records r ON r.id = gl.record_id
				WHERE r.entity_id = ?
			)`, entityID)
		if err != nil {
			return fmt.Errorf("deleting groups: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, entityID); err != nil {
			return fmt.Errorf("deleting entity: %w", err)
		}
		return nil
	})
}

// ListEntities returns a summary of every entity, oldest first.
func (r *Repository) ListEntities(ctx context.Context) ([]entities.EntitySummary, error) {
	query := `
		SELECT e.id, e.name, e.source, e.created_at,
			(SELECT COUNT(*) FROM properties p WHERE p.entity_id = e.id),
			(SELECT COUNT(*) FROM records r WHERE r.entity_id = e.id)
		FROM entities e
		ORDER BY e.rowid
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var result []entities.EntitySummary
	for rows.Next() {
		var s entities.EntitySummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Source, &s.CreatedAt, &s.PropertyCount, &s.RecordCount); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// FindEntityByName loads an entity by name. Returns nil if it does not exist.
func (r *Repository) FindEntityByName(ctx context.Context, name string) (*entities.Entity, error) {
	found, err := r.loadEntities(ctx, `e.name = ?`, name)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

// FindEntitiesByProperty loads every entity owning a property with the name.
func (r *Repository) FindEntitiesByProperty(ctx context.Context, propertyName string) ([]*entities.Entity, error) {
	return r.loadEntities(ctx, `e.id IN (SELECT entity_id FROM properties WHERE name = ?)`, propertyName)
}

// LoadEntities loads every entity.
func (r *Repository) LoadEntities(ctx context.Context) ([]*entities.Entity, error) {
	return r.loadEntities(ctx, `1 = 1`)
}

// ListProperties returns every property, ordered by entity then position.
func (r *Repository) ListProperties(ctx context.Context) ([]entities.Property, error) {
	query := `
		SELECT p.id, p.entity_id, p.name, p.kind, p.position
		FROM properties p
		JOIN entities e ON e.id = p.entity_id
		ORDER BY e.rowid, p.position
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	var result []entities.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// ListRecordIDs returns every record ID, ordered by entity then row.
func (r *Repository) ListRecordIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT r.id
		FROM records r
		JOIN entities e ON e.id = r.entity_id
		ORDER BY e.rowid, r.position
	`
	return r.queryStrings(ctx, query)
}

// loadEntities loads the entities matching filter (a condition on alias e)
// with all their rows. Each level is read with its own query so that no
// result set stays open while another is read.
func (r *Repository) loadEntities(ctx context.Context, filter string, args ...any) ([]*entities.Entity, error) {
	scope := `SELECT e.id FROM entities e WHERE ` + filter

	list, byID, err := r.queryEntities(ctx, filter, args)
	if err != nil || len(list) == 0 {
		return nil, err
	}

	if err := r.queryProperties(ctx, scope, args, byID); err != nil {
		return nil, err
	}
	if err := r.queryRecords(ctx, scope, args, byID); err != nil {
		return nil, err
	}

	records := make(map[string]*entities.Record)
	for _, e := range list {
		for i := range e.Records {
			records[e.Records[i].ID] = &e.Records[i]
		}
	}
	if err := r.queryValues(ctx, scope, args, records); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) queryEntities(ctx context.Context, filter string, args []any) ([]*entities.Entity, map[string]*entities.Entity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.name, e.source, e.created_at FROM entities e WHERE `+filter+` ORDER BY e.rowid`, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var list []*entities.Entity
	byID := make(map[string]*entities.Entity)
	for rows.Next() {
		e := &entities.Entity{}
		if err := rows.Scan(&e.ID, &e.Name, &e.Source, &e.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scanning entity: %w", err)
		}
		list = append(list, e)
		byID[e.ID] = e
	}
	return list, byID, rows.Err()
}

func (r *Repository) queryProperties(ctx context.Context, scope string, args []any, byID map[string]*entities.Entity) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.entity_id, p.name, p.kind, p.position
		FROM properties p
		WHERE p.entity_id IN (`+scope+`)
		ORDER BY p.entity_id, p.position`, args...)
	if err != nil {
		return fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return err
		}
		e := byID[p.EntityID]
		e.Properties = append(e.Properties, p)
	}
	return rows.Err()
}

func (r *Repository) queryRecords(ctx context.Context, scope string, args []any, byID map[string]*entities.Entity) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.entity_id, r.position
		FROM records r
		WHERE r.entity_id IN (`+scope+`)
		ORDER BY r.entity_id, r.position`, args...)
	if err != nil {
		return fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec entities.Record
		if err := rows.Scan(&rec.ID, &rec.EntityID, &rec.Position); err != nil {
			return fmt.Errorf("scanning record: %w", err)
		}
		e := byID[rec.EntityID]
		e.Records = append(e.Records, rec)
	}
	return rows.Err()
}

func (r *Repository) queryValues(ctx context.Context, scope string, args []any, records map[string]*entities.Record) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT v.id, v.record_id, v.property_id, v.data, v.text, v.kind
		FROM record_values v
		JOIN records r ON r.id = v.record_id
		JOIN properties p ON p.id = v.property_id
		WHERE r.entity_id IN (`+scope+`)
		ORDER BY r.entity_id, r.position, p.position`, args...)
	if err != nil {
		return fmt.Errorf("querying values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v    entities.Value
			kind string
		)
		if err := rows.Scan(&v.ID, &v.RecordID, &v.PropertyID, &v.Data, &v.Text, &kind); err != nil {
			return fmt.Errorf("scanning value: %w", err)
		}
		if v.Kind, err = codec.ParseKind(kind); err != nil {
			return fmt.Errorf("value %s: %w", v.ID, err)
		}
		rec := records[v.RecordID]
		rec.Values = append(rec.Values, v)
	}
	return rows.Err()
}

func scanProperty(rows *sql.Rows) (entities.Property, error) {
	var (
		p    entities.Property
		kind string
	)
	if err := rows.Scan(&p.ID, &p.EntityID, &p.Name, &kind, &p.Position); err != nil {
		return p, fmt.Errorf("scanning property: %w", err)
	}
	k, err := codec.ParseKind(kind)
	if err != nil {
		return p, fmt.Errorf("property %s: %w", p.Name, err)
	}
	p.Kind = k
	return p, nil
}

func (r *Repository) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
