// This file implements the attribute catalog: definition creation with
// complete constraint reporting, lookup, listing, and cascading deletion.
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

// timeLayout is the stored form of catalog and record timestamps.
const timeLayout = time.RFC3339

// Define registers a new attribute definition. Every violated constraint is
// collected into one DefinitionError; a taken name yields
// ErrDuplicateAttribute. The returned definition carries the generated id
// and creation time.
func (b *Backend) Define(def types.AttributeDefinition) (*types.AttributeDefinition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return nil, err
	}
	if v := validate.DefinitionViolations(def); len(v) > 0 {
		return nil, &types.DefinitionError{Name: def.Name, Violations: v}
	}

	var existing string
	err := b.db.QueryRow(b.rebind(
		"SELECT attribute_id FROM attributes WHERE name = ?"), def.Name).Scan(&existing)
	if err == nil {
		return nil, types.ErrDuplicateAttribute
	}
	if err != sql.ErrNoRows {
		return nil, b.storageErr("define", err, zap.String("attribute", def.Name))
	}

	def.AttributeID = newUUID()
	def.CreatedAt = time.Now().UTC()

	options, rules, err := marshalDefinition(def)
	if err != nil {
		return nil, fmt.Errorf("encoding definition %q: %w", def.Name, err)
	}

	required := 0
	if def.Required {
		required = 1
	}
	_, err = b.db.Exec(b.rebind(`INSERT INTO attributes
    (attribute_id, name, label, type, required, options, rules, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		def.AttributeID, def.Name, def.Label, def.Type, required,
		options, rules, def.CreatedAt.Format(timeLayout))
	if err != nil {
		return nil, b.storageErr("define", err, zap.String("attribute", def.Name))
	}
	return &def, nil
}

// Lookup returns the definition for name, or ErrAttributeNotFound.
func (b *Backend) Lookup(name string) (*types.AttributeDefinition, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}
	return b.lookupLocked(b.db, name)
}

// lookupLocked resolves one definition by name. Callers hold b.mu.
func (b *Backend) lookupLocked(q querier, name string) (*types.AttributeDefinition, error) {
	row := q.QueryRow(b.rebind(
		"SELECT attribute_id, name, label, type, required, options, rules, created_at FROM attributes WHERE name = ?"),
		name)
	def, err := hydrateAttribute(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.ErrAttributeNotFound
	}
	if err != nil {
		return nil, b.storageErr("lookup", err, zap.String("attribute", name))
	}
	return def, nil
}

// Attributes lists all definitions, oldest first.
func (b *Backend) Attributes() ([]*types.AttributeDefinition, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}

	rows, err := b.db.Query(
		"SELECT attribute_id, name, label, type, required, options, rules, created_at FROM attributes ORDER BY created_at, name")
	if err != nil {
		return nil, b.storageErr("list attributes", err)
	}
	defer rows.Close()

	var defs []*types.AttributeDefinition
	for rows.Next() {
		def, err := hydrateAttribute(rows.Scan)
		if err != nil {
			return nil, b.storageErr("list attributes", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, b.storageErr("list attributes", err)
	}
	if defs == nil {
		defs = []*types.AttributeDefinition{}
	}
	return defs, nil
}

// DeleteAttribute removes the definition and cascades to every value record
// referencing it, in one transaction. Cache documents of affected cached
// entities are rewritten inside the same transaction.
func (b *Backend) DeleteAttribute(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return err
	}

	def, err := b.lookupLocked(b.db, name)
	if err != nil {
		return err
	}

	affected, err := b.affectedCachedEntities(def.AttributeID)
	if err != nil {
		return b.storageErr("delete attribute", err, zap.String("attribute", name))
	}

	err = b.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(b.rebind(
			"DELETE FROM attribute_values WHERE attribute_id = ?"), def.AttributeID); err != nil {
			return fmt.Errorf("deleting value records: %w", err)
		}
		if _, err := tx.Exec(b.rebind(
			"DELETE FROM attributes WHERE attribute_id = ?"), def.AttributeID); err != nil {
			return fmt.Errorf("deleting definition: %w", err)
		}
		for _, ref := range affected {
			if err := b.refreshLocked(tx, ref); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return b.storageErr("delete attribute", err, zap.String("attribute", name))
	}
	return nil
}

// affectedCachedEntities lists entities that hold a value for the attribute
// and belong to a cached entity type.
func (b *Backend) affectedCachedEntities(attributeID string) ([]types.EntityRef, error) {
	rows, err := b.db.Query(b.rebind(
		"SELECT DISTINCT entity_id, entity_type FROM attribute_values WHERE attribute_id = ?"), attributeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []types.EntityRef
	for rows.Next() {
		var ref types.EntityRef
		if err := rows.Scan(&ref.ID, &ref.Type); err != nil {
			return nil, err
		}
		if b.config.CachesType(ref.Type) {
			refs = append(refs, ref)
		}
	}
	return refs, rows.Err()
}

// hydrateAttribute converts one catalog row into a definition. The scan
// argument abstracts over sql.Row and sql.Rows.
func hydrateAttribute(scan func(dest ...any) error) (*types.AttributeDefinition, error) {
	var (
		def       types.AttributeDefinition
		required  int
		options   sql.NullString
		rules     sql.NullString
		createdAt string
	)
	if err := scan(&def.AttributeID, &def.Name, &def.Label, &def.Type,
		&required, &options, &rules, &createdAt); err != nil {
		return nil, err
	}
	def.Required = required != 0
	if options.Valid && options.String != "" {
		if err := json.Unmarshal([]byte(options.String), &def.Options); err != nil {
			return nil, fmt.Errorf("parsing options: %w", err)
		}
	}
	if rules.Valid && rules.String != "" {
		if err := json.Unmarshal([]byte(rules.String), &def.Rules); err != nil {
			return nil, fmt.Errorf("parsing rules: %w", err)
		}
	}
	var err error
	def.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &def, nil
}

// marshalDefinition encodes the options and rules columns. Empty values
// store as NULL.
func marshalDefinition(def types.AttributeDefinition) (options, rules any, err error) {
	if len(def.Options) > 0 {
		data, err := json.Marshal(def.Options)
		if err != nil {
			return nil, nil, err
		}
		options = string(data)
	}
	if len(def.Rules) > 0 {
		data, err := json.Marshal(def.Rules)
		if err != nil {
			return nil, nil, err
		}
		rules = string(data)
	}
	return options, rules, nil
}
