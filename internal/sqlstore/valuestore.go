// This file implements the typed value store: validate-then-write upserts
// with slot selection, all-or-nothing batch writes, cache-preferring reads,
// and removal.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/pkg/types"
	"github.com/mesh-intelligence/facets/pkg/validate"
)

// SetOne validates, casts, and upserts one value for ref. The record write
// and the cache refresh (when ref's type carries a cache document) happen
// in one transaction: both commit or neither does.
func (b *Backend) SetOne(ref types.EntityRef, name string, raw any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return err
	}
	if !ref.Persisted() {
		return types.ErrEntityNotPersisted
	}

	def, err := b.lookupLocked(b.db, name)
	if err != nil {
		return err
	}
	val, verr := checkAndCast(*def, raw)
	if verr != nil {
		return verr
	}

	err = b.inTx(func(tx *sql.Tx) error {
		if err := b.upsertValue(tx, ref, def, val); err != nil {
			return err
		}
		if b.config.CachesType(ref.Type) {
			return b.refreshLocked(tx, ref)
		}
		return nil
	})
	if err != nil {
		return b.storageErr("set one", err,
			zap.String("entity", ref.ID),
			zap.String("entity_type", ref.Type),
			zap.String("attribute", name))
	}
	return nil
}

// SetMany writes a batch of values for ref. Phase one validates every entry
// (unknown attribute names included), collecting all failures into one
// ValidationError; if any entry fails, nothing is written. Phase two writes
// every record and refreshes the cache exactly once, in one transaction.
func (b *Backend) SetMany(ref types.EntityRef, values map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return err
	}
	if !ref.Persisted() {
		return types.ErrEntityNotPersisted
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	type pendingWrite struct {
		def *types.AttributeDefinition
		val any
	}

	var (
		writes []pendingWrite
		fields []types.FieldError
	)
	for _, name := range names {
		raw := values[name]
		def, err := b.lookupLocked(b.db, name)
		if errors.Is(err, types.ErrAttributeNotFound) {
			fields = append(fields, types.FieldError{
				Attribute: name,
				Label:     name,
				Message:   fmt.Sprintf("unknown attribute %q", name),
				Raw:       raw,
			})
			continue
		}
		if err != nil {
			return err
		}
		val, verr := checkAndCast(*def, raw)
		if verr != nil {
			fields = append(fields, verr.Fields...)
			continue
		}
		writes = append(writes, pendingWrite{def: def, val: val})
	}
	if len(fields) > 0 {
		return &types.ValidationError{Fields: fields}
	}

	err := b.inTx(func(tx *sql.Tx) error {
		for _, w := range writes {
			if err := b.upsertValue(tx, ref, w.def, w.val); err != nil {
				return err
			}
		}
		if b.config.CachesType(ref.Type) {
			return b.refreshLocked(tx, ref)
		}
		return nil
	})
	if err != nil {
		return b.storageErr("set many", err,
			zap.String("entity", ref.ID),
			zap.String("entity_type", ref.Type),
			zap.Strings("attributes", names))
	}
	return nil
}

// GetOne returns the stored (cast) value for name, or nil when unset. The
// cache document is preferred when ref's type carries one. Unknown
// attribute names yield ErrAttributeNotFound; an unset value is never an
// error.
func (b *Backend) GetOne(ref types.EntityRef, name string) (any, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}

	def, err := b.lookupLocked(b.db, name)
	if err != nil {
		return nil, err
	}

	if b.config.CachesType(ref.Type) {
		doc, ok, err := b.readCache(ref)
		if err != nil {
			return nil, err
		}
		if ok {
			return doc[name], nil
		}
	}

	row := b.db.QueryRow(b.rebind(
		"SELECT string_slot, number_slot, date_slot, boolean_slot FROM attribute_values WHERE entity_id = ? AND entity_type = ? AND attribute_id = ?"),
		ref.ID, ref.Type, def.AttributeID)
	val, err := scanSlots(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, b.storageErr("get one", err,
			zap.String("entity", ref.ID),
			zap.String("entity_type", ref.Type),
			zap.String("attribute", name))
	}
	return val, nil
}

// GetAll returns all stored values for ref keyed by attribute name, from
// the cache document when present, otherwise from the value store. Returns
// an empty map (never nil) when nothing is stored.
func (b *Backend) GetAll(ref types.EntityRef) (map[string]any, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}

	if b.config.CachesType(ref.Type) {
		doc, ok, err := b.readCache(ref)
		if err != nil {
			return nil, err
		}
		if ok {
			return doc, nil
		}
	}

	result, err := b.readValues(b.db, ref)
	if err != nil {
		return nil, b.storageErr("get all", err,
			zap.String("entity", ref.ID), zap.String("entity_type", ref.Type))
	}
	return result, nil
}

// Remove deletes the value record for name and refreshes the cache, in one
// transaction. Removing an unset value is a no-op.
func (b *Backend) Remove(ref types.EntityRef, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return err
	}

	def, err := b.lookupLocked(b.db, name)
	if err != nil {
		return err
	}

	err = b.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(b.rebind(
			"DELETE FROM attribute_values WHERE entity_id = ? AND entity_type = ? AND attribute_id = ?"),
			ref.ID, ref.Type, def.AttributeID); err != nil {
			return fmt.Errorf("deleting value record: %w", err)
		}
		if b.config.CachesType(ref.Type) {
			return b.refreshLocked(tx, ref)
		}
		return nil
	})
	if err != nil {
		return b.storageErr("remove", err,
			zap.String("entity", ref.ID),
			zap.String("entity_type", ref.Type),
			zap.String("attribute", name))
	}
	return nil
}

// checkAndCast runs the validate-then-cast pair and wraps failures in a
// ValidationError carrying the offending raw value.
func checkAndCast(def types.AttributeDefinition, raw any) (any, *types.ValidationError) {
	if msgs := validate.Validate(def, raw); len(msgs) > 0 {
		fields := make([]types.FieldError, len(msgs))
		for i, msg := range msgs {
			fields[i] = types.FieldError{Attribute: def.Name, Label: def.Label, Message: msg, Raw: raw}
		}
		return nil, &types.ValidationError{Fields: fields}
	}
	val, err := validate.Cast(def, raw)
	if err != nil {
		return nil, &types.ValidationError{Fields: []types.FieldError{{
			Attribute: def.Name,
			Label:     def.Label,
			Message:   fmt.Sprintf("%s cannot be stored as %s", def.Label, def.Type),
			Raw:       raw,
		}}}
	}
	return val, nil
}

// upsertValue writes one value record, populating only the slot matching
// the attribute's type and nulling the other three. A nil typed value
// produces an explicitly-null record (all slots null).
func (b *Backend) upsertValue(tx *sql.Tx, ref types.EntityRef, def *types.AttributeDefinition, val any) error {
	var (
		strSlot  any
		numSlot  any
		dateSlot any
		boolSlot any
	)
	if val != nil {
		switch def.Type {
		case types.TypeText, types.TypeSelect:
			strSlot = val.(string)
		case types.TypeNumber:
			numSlot = val.(float64)
		case types.TypeDate:
			dateSlot = val.(time.Time).Format(validate.DateLayout)
		case types.TypeBoolean:
			boolSlot = int64(0)
			if val.(bool) {
				boolSlot = int64(1)
			}
		default:
			return types.ErrUnknownType
		}
	}

	now := time.Now().UTC().Format(timeLayout)
	_, err := tx.Exec(b.rebind(upsertValueSQL(b.dialect)),
		ref.ID, ref.Type, def.AttributeID, def.Name,
		strSlot, numSlot, dateSlot, boolSlot, now, now)
	if err != nil {
		return fmt.Errorf("upserting value for %q: %w", def.Name, err)
	}
	return nil
}

// readValues reads every value row for ref directly from the value table.
func (b *Backend) readValues(q querier, ref types.EntityRef) (map[string]any, error) {
	rows, err := q.Query(b.rebind(
		"SELECT attribute_name, string_slot, number_slot, date_slot, boolean_slot FROM attribute_values WHERE entity_id = ? AND entity_type = ?"),
		ref.ID, ref.Type)
	if err != nil {
		return nil, fmt.Errorf("querying values: %w", err)
	}
	defer rows.Close()

	result := make(map[string]any)
	for rows.Next() {
		var name string
		val, err := scanSlots(func(dest ...any) error {
			return rows.Scan(append([]any{&name}, dest...)...)
		})
		if err != nil {
			return nil, fmt.Errorf("scanning value row: %w", err)
		}
		result[name] = val
	}
	return result, rows.Err()
}

// scanSlots reads the four typed slots and returns the populated one's
// value: string, float64, time.Time, or bool. All-null slots return nil.
func scanSlots(scan func(dest ...any) error) (any, error) {
	var (
		strSlot  sql.NullString
		numSlot  sql.NullFloat64
		dateSlot sql.NullString
		boolSlot sql.NullInt64
	)
	if err := scan(&strSlot, &numSlot, &dateSlot, &boolSlot); err != nil {
		return nil, err
	}
	switch {
	case strSlot.Valid:
		return strSlot.String, nil
	case numSlot.Valid:
		return numSlot.Float64, nil
	case dateSlot.Valid:
		d, ok := validate.ParseDate(dateSlot.String)
		if !ok {
			return nil, fmt.Errorf("parsing date slot %q", dateSlot.String)
		}
		return d, nil
	case boolSlot.Valid:
		return boolSlot.Int64 != 0, nil
	default:
		return nil, nil
	}
}
