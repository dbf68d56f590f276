// This file implements the cache synchronizer: per-entity denormalized
// documents rewritten whole on every mutation, and batched rebuilds.
package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/pkg/types"
	"github.com/mesh-intelligence/facets/pkg/validate"
)

// defaultResyncBatch bounds transaction size when Resync is called without
// an explicit batch size.
const defaultResyncBatch = 500

// Refresh rebuilds ref's cache document from the value store, overwriting
// (never merging) the previous document. Idempotent. Entity types without a
// cache document are a no-op.
func (b *Backend) Refresh(ref types.EntityRef) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return err
	}
	if !b.config.CachesType(ref.Type) {
		return nil
	}

	err := b.inTx(func(tx *sql.Tx) error {
		return b.refreshLocked(tx, ref)
	})
	if err != nil {
		return b.storageErr("refresh", err,
			zap.String("entity", ref.ID), zap.String("entity_type", ref.Type))
	}
	return nil
}

// Resync rebuilds cache documents for every entity of entityType known to
// hold at least one value, in batches of batchSize. Each batch commits
// independently: a failing batch rolls back only itself and prior batches
// stay committed. Returns the count of entities processed.
func (b *Backend) Resync(entityType string, batchSize int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return 0, err
	}
	if batchSize <= 0 {
		batchSize = defaultResyncBatch
	}

	rows, err := b.db.Query(b.rebind(
		"SELECT DISTINCT entity_id FROM attribute_values WHERE entity_type = ? ORDER BY entity_id"),
		entityType)
	if err != nil {
		return 0, b.storageErr("resync", err, zap.String("entity_type", entityType))
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, b.storageErr("resync", err, zap.String("entity_type", entityType))
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, b.storageErr("resync", err, zap.String("entity_type", entityType))
	}

	processed := 0
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		err := b.inTx(func(tx *sql.Tx) error {
			for _, id := range batch {
				if err := b.refreshLocked(tx, types.EntityRef{ID: id, Type: entityType}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return processed, b.storageErr("resync", err,
				zap.String("entity_type", entityType),
				zap.Int("batch_start", start))
		}
		processed += len(batch)
	}
	return processed, nil
}

// refreshLocked rewrites the cache document for ref from the value rows
// visible to q. Callers hold b.mu; mutating callers pass their transaction
// so the document commits with the value write.
func (b *Backend) refreshLocked(q querier, ref types.EntityRef) error {
	values, err := b.readValues(q, ref)
	if err != nil {
		return err
	}

	doc := make(map[string]any, len(values))
	for name, val := range values {
		if d, ok := val.(time.Time); ok {
			doc[name] = d.Format(validate.DateLayout)
			continue
		}
		doc[name] = val
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding cache document: %w", err)
	}

	_, err = q.Exec(b.rebind(upsertCacheSQL(b.dialect)),
		ref.ID, ref.Type, string(data), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("writing cache document: %w", err)
	}
	return nil
}

// readCache loads and decodes ref's cache document. The second return is
// false when no document exists. Date values are re-typed to calendar dates
// through the catalog so cached and direct reads agree.
func (b *Backend) readCache(ref types.EntityRef) (map[string]any, bool, error) {
	var document string
	err := b.db.QueryRow(b.rebind(
		"SELECT document FROM attribute_cache WHERE entity_id = ? AND entity_type = ?"),
		ref.ID, ref.Type).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, b.storageErr("read cache", err,
			zap.String("entity", ref.ID), zap.String("entity_type", ref.Type))
	}

	doc := make(map[string]any)
	if err := json.Unmarshal([]byte(document), &doc); err != nil {
		return nil, false, b.storageErr("read cache", err,
			zap.String("entity", ref.ID), zap.String("entity_type", ref.Type))
	}

	dateAttrs, err := b.dateAttributeNames()
	if err != nil {
		return nil, false, b.storageErr("read cache", err,
			zap.String("entity", ref.ID), zap.String("entity_type", ref.Type))
	}
	for name, val := range doc {
		if !dateAttrs[name] {
			continue
		}
		if s, ok := val.(string); ok {
			if d, ok := validate.ParseDate(s); ok {
				doc[name] = d
			}
		}
	}
	return doc, true, nil
}

// dateAttributeNames returns the set of catalog attribute names with date
// type.
func (b *Backend) dateAttributeNames() (map[string]bool, error) {
	rows, err := b.db.Query(b.rebind("SELECT name FROM attributes WHERE type = ?"), types.TypeDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}
