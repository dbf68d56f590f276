// Package validate implements the type and validation engine: type checks,
// custom-rule checks, and raw-to-typed casting against an attribute
// definition. Validation messages are worded with the attribute's label,
// never its internal name.
package validate

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// Validate checks raw against def and returns every failure message, or nil
// when the value is acceptable.
//
// Rule order: required emptiness first; a null or empty value on a
// non-required attribute passes (except the empty string on a select, which
// is never a member of the option list); then the type check; custom rules
// run only after the type check passes.
func Validate(def types.AttributeDefinition, raw any) []string {
	if isEmpty(raw) {
		if def.Required {
			return []string{fmt.Sprintf("%s is required", def.Label)}
		}
		if def.Type == types.TypeSelect {
			if s, ok := raw.(string); ok && s == "" {
				return []string{optionMessage(def)}
			}
		}
		return nil
	}

	if msg := typeCheck(def, raw); msg != "" {
		return []string{msg}
	}
	return ruleCheck(def, raw)
}

// typeCheck returns a failure message when raw does not fit def's type.
func typeCheck(def types.AttributeDefinition, raw any) string {
	switch def.Type {
	case types.TypeText:
		if _, ok := stringForm(raw); !ok {
			return fmt.Sprintf("%s must be text", def.Label)
		}
	case types.TypeNumber:
		if _, ok := Number(raw); !ok {
			return fmt.Sprintf("%s must be a number", def.Label)
		}
	case types.TypeBoolean:
		if _, ok := Truthy(raw); !ok {
			return fmt.Sprintf("%s must be a boolean", def.Label)
		}
	case types.TypeDate:
		if _, ok := ParseDate(raw); !ok {
			return fmt.Sprintf("%s must be a valid date", def.Label)
		}
	case types.TypeSelect:
		s, ok := raw.(string)
		if !ok || !def.HasOption(s) {
			return optionMessage(def)
		}
	default:
		return fmt.Sprintf("%s has unknown type %q", def.Label, def.Type)
	}
	return ""
}

// ruleCheck evaluates def's custom rules against a type-checked value.
func ruleCheck(def types.AttributeDefinition, raw any) []string {
	if len(def.Rules) == 0 {
		return nil
	}

	var msgs []string
	switch def.Type {
	case types.TypeText:
		s, _ := stringForm(raw)
		length := float64(len([]rune(s)))
		for _, key := range []string{types.RuleMin, types.RuleMinLength} {
			if bound, ok := ruleNumber(def.Rules[key]); ok && length < bound {
				msgs = append(msgs, fmt.Sprintf("%s must be at least %g characters", def.Label, bound))
				break
			}
		}
		for _, key := range []string{types.RuleMax, types.RuleMaxLength} {
			if bound, ok := ruleNumber(def.Rules[key]); ok && length > bound {
				msgs = append(msgs, fmt.Sprintf("%s must be at most %g characters", def.Label, bound))
				break
			}
		}
	case types.TypeNumber:
		n, _ := Number(raw)
		if bound, ok := ruleNumber(def.Rules[types.RuleMin]); ok && n < bound {
			msgs = append(msgs, fmt.Sprintf("%s must be at least %g", def.Label, bound))
		}
		if bound, ok := ruleNumber(def.Rules[types.RuleMax]); ok && n > bound {
			msgs = append(msgs, fmt.Sprintf("%s must be at most %g", def.Label, bound))
		}
	case types.TypeDate:
		d, _ := ParseDate(raw)
		if bound, ok := ruleDate(def.Rules[types.RuleAfter]); ok && !d.After(bound) {
			msgs = append(msgs, fmt.Sprintf("%s must be after %s", def.Label, bound.Format(DateLayout)))
		}
		if bound, ok := ruleDate(def.Rules[types.RuleBefore]); ok && !d.Before(bound) {
			msgs = append(msgs, fmt.Sprintf("%s must be before %s", def.Label, bound.Format(DateLayout)))
		}
	}
	return msgs
}

func optionMessage(def types.AttributeDefinition) string {
	return fmt.Sprintf("%s must be one of: %s", def.Label, strings.Join(def.Options, ", "))
}
