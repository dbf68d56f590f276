package types

import "time"

// Attribute types determine which value slot a record populates and how raw
// values are validated and cast.
const (
	TypeText    = "text"
	TypeNumber  = "number"
	TypeDate    = "date"
	TypeBoolean = "boolean"
	TypeSelect  = "select"
)

// validTypes is the set of recognized attribute types.
var validTypes = map[string]bool{
	TypeText:    true,
	TypeNumber:  true,
	TypeDate:    true,
	TypeBoolean: true,
	TypeSelect:  true,
}

// IsValidType reports whether the given string is a recognized attribute type.
func IsValidType(t string) bool {
	return validTypes[t]
}

// Validation rule keys. Which keys are legal depends on the attribute type:
// text takes min/max/min_length/max_length (all length-based), number takes
// min/max (numeric compare), date takes after/before.
const (
	RuleMin       = "min"
	RuleMax       = "max"
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
	RuleAfter     = "after"
	RuleBefore    = "before"
)

// RuleToday is the sentinel date-rule value resolved to the current calendar
// date at evaluation time, not at definition time.
const RuleToday = "today"

// RuleKeysForType returns the legal rule keys for an attribute type.
// Boolean and select attributes accept no rules.
func RuleKeysForType(attrType string) map[string]bool {
	switch attrType {
	case TypeText:
		return map[string]bool{RuleMin: true, RuleMax: true, RuleMinLength: true, RuleMaxLength: true}
	case TypeNumber:
		return map[string]bool{RuleMin: true, RuleMax: true}
	case TypeDate:
		return map[string]bool{RuleAfter: true, RuleBefore: true}
	default:
		return nil
	}
}

// AttributeDefinition is a catalog entry describing one custom attribute.
// Name is the immutable identifier token; Label is what users see in
// validation messages. Options is mandatory and non-empty iff Type is
// select. Rules holds the per-type validation constraints.
type AttributeDefinition struct {
	AttributeID string         `json:"attribute_id"`
	Name        string         `json:"name"`
	Label       string         `json:"label"`
	Type        string         `json:"type"`
	Required    bool           `json:"required"`
	Options     []string       `json:"options,omitempty"`
	Rules       map[string]any `json:"rules,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// HasOption reports whether v is one of the definition's select options.
func (d AttributeDefinition) HasOption(v string) bool {
	for _, o := range d.Options {
		if o == v {
			return true
		}
	}
	return false
}
