package types

import "time"

// ValueRecord is one stored (entity, attribute) -> typed value row.
// AttributeName is denormalized from the catalog for query speed. Exactly
// one slot is populated; the other three stay nil. A record with all four
// slots nil represents an explicitly-null value.
type ValueRecord struct {
	EntityID      string
	EntityType    string
	AttributeID   string
	AttributeName string
	StringSlot    *string
	NumberSlot    *float64
	DateSlot      *time.Time
	BooleanSlot   *bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Value returns the populated slot's value, or nil when every slot is null.
func (v ValueRecord) Value() any {
	switch {
	case v.StringSlot != nil:
		return *v.StringSlot
	case v.NumberSlot != nil:
		return *v.NumberSlot
	case v.DateSlot != nil:
		return *v.DateSlot
	case v.BooleanSlot != nil:
		return *v.BooleanSlot
	default:
		return nil
	}
}

// SlotColumn returns the value-table column backing the given attribute
// type. Adding a type means touching this switch, plus the validate, cast,
// and filter-coercion switches in pkg/validate.
func SlotColumn(attrType string) (string, error) {
	switch attrType {
	case TypeText, TypeSelect:
		return "string_slot", nil
	case TypeNumber:
		return "number_slot", nil
	case TypeDate:
		return "date_slot", nil
	case TypeBoolean:
		return "boolean_slot", nil
	default:
		return "", ErrUnknownType
	}
}
