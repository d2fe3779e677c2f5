package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ersonp/sheetlink/internal/domain/codec"
	"github.com/ersonp/sheetlink/internal/domain/entities"
)

// SaveEntity inserts an entity with its properties, records and values.
// Records and values are bulk-loaded with COPY.
func (r *Repository) SaveEntity(ctx context.Context, entity *entities.Entity) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO entities (id, name, source, created_at) VALUES ($1, $2, $3, $4)`,
			entity.ID, entity.Name, entity.Source, entity.CreatedAt)
		if err != nil {
			return fmt.Errorf("saving entity: %w", err)
		}

		props := make([][]any, len(entity.Properties))
		for i, p := range entity.Properties {
			props[i] = []any{p.ID, entity.ID, p.Name, p.Kind.String(), p.Position}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"properties"},
			[]string{"id", "entity_id", "name", "kind", "position"}, pgx.CopyFromRows(props)); err != nil {
			return fmt.Errorf("saving properties: %w", err)
		}

		records := make([][]any, len(entity.Records))
		var values [][]any
		for i := range entity.Records {
			rec := &entity.Records[i]
			records[i] = []any{rec.ID, entity.ID, rec.Position}
			for _, v := range rec.Values {
				values = append(values, []any{v.ID, rec.ID, v.PropertyID, v.Data, v.Text, v.Kind.String()})
			}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"records"},
			[]string{"id", "entity_id", "position"}, pgx.CopyFromRows(records)); err != nil {
			return fmt.Errorf("saving records: %w", err)
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"record_values"},
			[]string{"id", "record_id", "property_id", "data", "text", "kind"}, pgx.CopyFromRows(values)); err != nil {
			return fmt.Errorf("saving values: %w", err)
		}
		return nil
	})
}

// DeleteEntity removes an entity and every group one of its records was in.
func (r *Repository) DeleteEntity(ctx context.Context, entityID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			DELETE FROM record_groups WHERE id IN (
				SELECT gl.record_group_id
				FROM record_group_links gl
				JOIN records r ON r.id = gl.record_id
				WHERE r.entity_id = $1
			)`, entityID)
		if err != nil {
			return fmt.Errorf("deleting groups: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM entities WHERE id = $1`, entityID); err != nil {
			return fmt.Errorf("deleting entity: %w", err)
		}
		return nil
	})
}

// ListEntities returns a summary of every entity, oldest first.
func (r *Repository) ListEntities(ctx context.Context) ([]entities.EntitySummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.name, e.source, e.created_at,
			(SELECT COUNT(*) FROM properties p WHERE p.entity_id = e.id),
			(SELECT COUNT(*) FROM records r WHERE r.entity_id = e.id)
		FROM entities e
		ORDER BY e.seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.EntitySummary, error) {
		var s entities.EntitySummary
		err := row.Scan(&s.ID, &s.Name, &s.Source, &s.CreatedAt, &s.PropertyCount, &s.RecordCount)
		return s, err
	})
}

// FindEntityByName loads an entity by name. Returns nil if it does not exist.
func (r *Repository) FindEntityByName(ctx context.Context, name string) (*entities.Entity, error) {
	found, err := r.loadEntities(ctx, `e.name = $1`, name)
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
	return r.loadEntities(ctx, `e.id IN (SELECT entity_id FROM properties WHERE name = $1)`, propertyName)
}

// LoadEntities loads every entity.
func (r *Repository) LoadEntities(ctx context.Context) ([]*entities.Entity, error) {
	return r.loadEntities(ctx, `TRUE`)
}

// ListProperties returns every property, ordered by entity then position.
func (r *Repository) ListProperties(ctx context.Context) ([]entities.Property, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.entity_id, p.name, p.kind, p.position
		FROM properties p
		JOIN entities e ON e.id = p.entity_id
		ORDER BY e.seq, p.position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	return pgx.CollectRows(rows, scanProperty)
}

// ListRecordIDs returns every record ID, ordered by entity then row.
func (r *Repository) ListRecordIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id
		FROM records r
		JOIN entities e ON e.id = r.entity_id
		ORDER BY e.seq, r.position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *Repository) loadEntities(ctx context.Context, filter string, args ...any) ([]*entities.Entity, error) {
	scope := `SELECT e.id FROM entities e WHERE ` + filter

	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.name, e.source, e.created_at FROM entities e WHERE `+filter+` ORDER BY e.seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entities.Entity, error) {
		e := &entities.Entity{}
		err := row.Scan(&e.ID, &e.Name, &e.Source, &e.CreatedAt)
		return e, err
	})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	byID := make(map[string]*entities.Entity, len(list))
	for _, e := range list {
		byID[e.ID] = e
	}

	rows, err = r.pool.Query(ctx, `
		SELECT p.id, p.entity_id, p.name, p.kind, p.position
		FROM properties p
		WHERE p.entity_id IN (`+scope+`)
		ORDER BY p.entity_id, p.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	props, err := pgx.CollectRows(rows, scanProperty)
	if err != nil {
		return nil, err
	}
	for _, p := range props {
		byID[p.EntityID].Properties = append(byID[p.EntityID].Properties, p)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT r.id, r.entity_id, r.position
		FROM records r
		WHERE r.entity_id IN (`+scope+`)
		ORDER BY r.entity_id, r.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.Record, error) {
		var rec entities.Record
		err := row.Scan(&rec.ID, &rec.EntityID, &rec.Position)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning records: %w", err)
	}
	for _, rec := range recs {
		byID[rec.EntityID].Records = append(byID[rec.EntityID].Records, rec)
	}

	records := make(map[string]*entities.Record)
	for _, e := range list {
		for i := range e.Records {
			records[e.Records[i].ID] = &e.Records[i]
		}
	}

	rows, err = r.pool.Query(ctx, `
		SELECT v.id, v.record_id, v.property_id, v.data, v.text, v.kind
		FROM record_values v
		JOIN records r ON r.id = v.record_id
		JOIN properties p ON p.id = v.property_id
		WHERE r.entity_id IN (`+scope+`)
		ORDER BY r.entity_id, r.position, p.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying values: %w", err)
	}
	values, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.Value, error) {
		var (
			v    entities.Value
			kind string
		)
		if err := row.Scan(&v.ID, &v.RecordID, &v.PropertyID, &v.Data, &v.Text, &kind); err != nil {
			return v, err
		}
		k, err := codec.ParseKind(kind)
		v.Kind = k
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning values: %w", err)
	}
	for _, v := range values {
		rec := records[v.RecordID]
		rec.Values = append(rec.Values, v)
	}
	return list, nil
}

func scanProperty(row pgx.CollectableRow) (entities.Property, error) {
	var (
		p    entities.Property
		kind string
	)
	if err := row.Scan(&p.ID, &p.EntityID, &p.Name, &kind, &p.Position); err != nil {
		return p, fmt.Errorf("scanning property: %w", err)
	}
	k, err := codec.ParseKind(kind)
	if err != nil {
		return p, fmt.Errorf("property %s: %w", p.Name, err)
	}
	p.Kind = k
	return p, nil
}
