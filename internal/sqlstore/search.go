// This file implements the search compiler: filter maps are evaluated into
// entity-id sets, one set per filter, combined with AND intersection or OR
// union. Predicates are built per attribute type and backend dialect
// through the capability adapter.
package sqlstore

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/pkg/types"
	"github.com/mesh-intelligence/facets/pkg/validate"
)

// idSet is an entity-id set.
type idSet map[string]struct{}

// Search returns the ids of entities matching every filter. Evaluation
// starts from the set of entities holding any value for entityType and
// intersects per-filter sets in turn, short-circuiting to empty as soon as
// an intersection empties. Result order is undefined.
func (b *Backend) Search(entityType string, filters types.Filter) ([]string, error) {
	return b.AdvancedSearch(entityType, filters, types.LogicAnd)
}

// AdvancedSearch combines per-filter id sets with the given logic: LogicAnd
// intersects, LogicOr unions.
func (b *Backend) AdvancedSearch(entityType string, filters types.Filter, logic string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}
	if logic != types.LogicAnd && logic != types.LogicOr {
		return nil, types.ErrInvalidLogic
	}

	universe, err := b.entityUniverse(entityType)
	if err != nil {
		return nil, b.storageErr("search", err, zap.String("entity_type", entityType))
	}
	if len(filters) == 0 {
		return setToSlice(universe), nil
	}

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	var result idSet
	if logic == types.LogicAnd {
		result = universe
	} else {
		result = idSet{}
	}

	for _, name := range names {
		matched, err := b.matchSet(entityType, name, filters[name], universe)
		if err != nil {
			return nil, err
		}
		if logic == types.LogicAnd {
			result = intersect(result, matched)
			if len(result) == 0 {
				return []string{}, nil
			}
		} else {
			for id := range matched {
				result[id] = struct{}{}
			}
		}
	}
	return setToSlice(result), nil
}

// SearchOrdered runs Search and orders the result by the named attribute's
// typed slot. Entities lacking the attribute sort last.
func (b *Backend) SearchOrdered(entityType string, filters types.Filter, orderBy string, descending bool) ([]string, error) {
	ids, err := b.Search(entityType, filters)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.ready(); err != nil {
		return nil, err
	}

	def, err := b.lookupLocked(b.db, orderBy)
	if err != nil {
		return nil, err
	}
	column, err := types.SlotColumn(def.Type)
	if err != nil {
		return nil, err
	}

	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	rows, err := b.db.Query(b.rebind(fmt.Sprintf(
		"SELECT entity_id FROM attribute_values WHERE entity_type = ? AND attribute_name = ? AND %s IS NOT NULL ORDER BY %s %s",
		column, column, direction)),
		entityType, orderBy)
	if err != nil {
		return nil, b.storageErr("search ordered", err,
			zap.String("entity_type", entityType), zap.String("attribute", orderBy))
	}
	defer rows.Close()

	matched := make(idSet, len(ids))
	for _, id := range ids {
		matched[id] = struct{}{}
	}

	ordered := make([]string, 0, len(ids))
	seen := make(idSet, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, b.storageErr("search ordered", err,
				zap.String("entity_type", entityType), zap.String("attribute", orderBy))
		}
		if _, ok := matched[id]; !ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	if err := rows.Err(); err != nil {
		return nil, b.storageErr("search ordered", err,
			zap.String("entity_type", entityType), zap.String("attribute", orderBy))
	}
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			ordered = append(ordered, id)
		}
	}
	return ordered, nil
}

// entityUniverse returns the ids of all entities holding at least one value
// for entityType. A per-row EAV model has no external roster of entity ids:
// an entity with zero rows anywhere is indistinguishable from a nonexistent
// entity, so this set is the universe NULL filters subtract from.
func (b *Backend) entityUniverse(entityType string) (idSet, error) {
	return b.idQuery(
		"SELECT DISTINCT entity_id FROM attribute_values WHERE entity_type = ?",
		entityType)
}

// matchSet computes the id set matching one filter entry.
func (b *Backend) matchSet(entityType, name string, entry any, universe idSet) (idSet, error) {
	cond := normalizeCondition(entry)
	if !types.IsValidOperator(cond.Operator) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidOperator, cond.Operator)
	}

	def, err := b.lookupLocked(b.db, name)
	if err != nil {
		return nil, err
	}
	column, err := types.SlotColumn(def.Type)
	if err != nil {
		return nil, err
	}

	base := "SELECT DISTINCT entity_id FROM attribute_values WHERE entity_type = ? AND attribute_name = ? AND "

	switch cond.Operator {
	case types.OpNull:
		// An entity with zero rows for the attribute matches NULL too:
		// (rows with a null slot) UNION (universe minus entities with a
		// non-null slot).
		nullSet, err := b.idQuery(base+column+" IS NULL", entityType, name)
		if err != nil {
			return nil, err
		}
		nonNull, err := b.idQuery(base+column+" IS NOT NULL", entityType, name)
		if err != nil {
			return nil, err
		}
		result := make(idSet, len(nullSet))
		for id := range nullSet {
			result[id] = struct{}{}
		}
		for id := range universe {
			if _, ok := nonNull[id]; !ok {
				result[id] = struct{}{}
			}
		}
		return result, nil

	case types.OpNotNull:
		return b.idQuery(base+column+" IS NOT NULL", entityType, name)

	case types.OpIn:
		candidates, err := toSlice(cond.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: IN requires an array for %q", types.ErrInvalidFilter, name)
		}
		if len(candidates) == 0 {
			return idSet{}, nil
		}
		args := []any{entityType, name}
		placeholders := make([]string, len(candidates))
		for i, c := range candidates {
			arg, err := b.filterArg(def, c)
			if err != nil {
				return nil, err
			}
			placeholders[i] = "?"
			args = append(args, arg)
		}
		return b.idQuery(base+column+" IN ("+strings.Join(placeholders, ", ")+")", args...)

	case types.OpBetween:
		lo, err := b.filterArg(def, cond.Min)
		if err != nil {
			return nil, err
		}
		hi, err := b.filterArg(def, cond.Max)
		if err != nil {
			return nil, err
		}
		return b.idQuery(base+column+" BETWEEN ? AND ?", entityType, name, lo, hi)

	case types.OpLike:
		term, ok := cond.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: LIKE requires a string for %q", types.ErrInvalidFilter, name)
		}
		var fragment string
		arg := term
		if cond.FullText {
			var wrap bool
			fragment, wrap = b.caps.FullTextFragment(column)
			if wrap {
				arg = "%" + escapeLike(term) + "%"
			}
		} else {
			fragment = b.caps.LikeFragment(column, cond.CaseSensitive)
			arg = "%" + escapeLike(term) + "%"
		}
		return b.idQuery(base+fragment, entityType, name, arg)

	default:
		arg, err := b.filterArg(def, cond.Value)
		if err != nil {
			return nil, err
		}
		fragment, err := b.caps.ComparisonFragment(def.Type, column, cond.Operator)
		if err != nil {
			return nil, err
		}
		return b.idQuery(base+fragment, entityType, name, arg)
	}
}

// filterArg casts a filter operand through the attribute's declared type
// and renders it as a driver argument. A string "5" against a number
// attribute becomes 5.0; against a text attribute the comparison stays
// lexicographic even for numeric-looking strings.
func (b *Backend) filterArg(def *types.AttributeDefinition, raw any) (any, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: operator needs a value for %q (use NULL to match unset)", types.ErrInvalidFilter, def.Name)
	}
	val, err := validate.Cast(*def, raw)
	if err != nil || val == nil {
		return nil, fmt.Errorf("%w: %v is not a valid %s value for %q", types.ErrInvalidFilter, raw, def.Type, def.Name)
	}
	switch v := val.(type) {
	case time.Time:
		return v.Format(validate.DateLayout), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return v, nil
	}
}

// idQuery runs a ?-placeholder query returning entity ids and collects them
// into a set.
func (b *Backend) idQuery(query string, args ...any) (idSet, error) {
	rows, err := b.db.Query(b.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying id set: %w", err)
	}
	defer rows.Close()

	result := idSet{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		result[id] = struct{}{}
	}
	return result, rows.Err()
}

// normalizeCondition turns a filter entry into an explicit Condition. A
// literal value is an implicit "="; a literal nil means "unset or
// explicitly null".
func normalizeCondition(entry any) types.Condition {
	switch v := entry.(type) {
	case nil:
		return types.Condition{Operator: types.OpNull}
	case types.Condition:
		if v.Operator == "" {
			v.Operator = types.OpEQ
		}
		return v
	case *types.Condition:
		c := *v
		if c.Operator == "" {
			c.Operator = types.OpEQ
		}
		return c
	default:
		return types.Condition{Value: entry, Operator: types.OpEQ}
	}
}

// toSlice converts any slice-typed value to []any.
func toSlice(v any) ([]any, error) {
	if v == nil {
		return nil, types.ErrInvalidFilter
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, types.ErrInvalidFilter
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// escapeLike escapes LIKE pattern metacharacters so user terms match
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// intersect returns the ids present in both sets.
func intersect(a, b idSet) idSet {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := idSet{}
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// setToSlice flattens a set; order is undefined.
func setToSlice(s idSet) []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}
