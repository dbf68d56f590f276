package validate

import (
	"fmt"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// Cast converts raw to the typed representation for def's type: text and
// select become string, number becomes float64, boolean becomes bool, date
// becomes a calendar date (time.Time at midnight UTC). Null and empty
// inputs cast to nil.
//
// An unparsable date casts to nil without error, while Validate rejects the
// same input. Callers that must reject bad dates validate first; the value
// store always does.
func Cast(def types.AttributeDefinition, raw any) (any, error) {
	if isEmpty(raw) {
		return nil, nil
	}

	switch def.Type {
	case types.TypeText, types.TypeSelect:
		s, ok := stringForm(raw)
		if !ok {
			return nil, fmt.Errorf("cannot cast %T to %s", raw, def.Type)
		}
		return s, nil
	case types.TypeNumber:
		n, ok := Number(raw)
		if !ok {
			return nil, fmt.Errorf("cannot cast %v to number", raw)
		}
		return n, nil
	case types.TypeBoolean:
		b, ok := Truthy(raw)
		if !ok {
			return nil, fmt.Errorf("cannot cast %v to boolean", raw)
		}
		return b, nil
	case types.TypeDate:
		d, ok := ParseDate(raw)
		if !ok {
			return nil, nil
		}
		return d, nil
	default:
		return nil, types.ErrUnknownType
	}
}
