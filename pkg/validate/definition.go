package validate

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// namePattern constrains attribute identifier tokens: letters, digits and
// underscores, starting with a letter.
var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// DefinitionViolations returns every constraint def breaks, never stopping
// at the first. An empty result means the definition is acceptable.
func DefinitionViolations(def types.AttributeDefinition) []string {
	var v []string

	if !namePattern.MatchString(def.Name) {
		v = append(v, fmt.Sprintf("name %q must start with a letter and contain only letters, digits and underscores", def.Name))
	}
	if def.Label == "" {
		v = append(v, "label must not be empty")
	}
	if !types.IsValidType(def.Type) {
		v = append(v, fmt.Sprintf("unknown type %q", def.Type))
	}
	if def.Type == types.TypeSelect && len(def.Options) == 0 {
		v = append(v, "select attributes require a non-empty option list")
	}
	if def.Type != types.TypeSelect && len(def.Options) > 0 {
		v = append(v, "options are only valid for select attributes")
	}
	return append(v, ruleViolations(def)...)
}

// ruleViolations checks the rule map: legal keys for the type, numeric and
// date constraint values, and min <= max when both bounds are given.
func ruleViolations(def types.AttributeDefinition) []string {
	if len(def.Rules) == 0 {
		return nil
	}
	if !types.IsValidType(def.Type) {
		// Key legality depends on the type; the unknown-type violation is
		// already reported.
		return nil
	}

	allowed := types.RuleKeysForType(def.Type)
	keys := make([]string, 0, len(def.Rules))
	for k := range def.Rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var v []string
	for _, key := range keys {
		if !allowed[key] {
			v = append(v, fmt.Sprintf("rule %q is not valid for type %q", key, def.Type))
			continue
		}
		switch key {
		case types.RuleMin, types.RuleMax, types.RuleMinLength, types.RuleMaxLength:
			if _, ok := ruleNumber(def.Rules[key]); !ok {
				v = append(v, fmt.Sprintf("rule %q requires a numeric value", key))
			}
		case types.RuleAfter, types.RuleBefore:
			if _, ok := ruleDate(def.Rules[key]); !ok {
				v = append(v, fmt.Sprintf("rule %q requires a date or %q", key, types.RuleToday))
			}
		}
	}

	v = append(v, invertedBound(def.Rules, types.RuleMin, types.RuleMax)...)
	v = append(v, invertedBound(def.Rules, types.RuleMinLength, types.RuleMaxLength)...)
	return v
}

func invertedBound(rules map[string]any, minKey, maxKey string) []string {
	lo, okLo := ruleNumber(rules[minKey])
	hi, okHi := ruleNumber(rules[maxKey])
	if okLo && okHi && lo > hi {
		return []string{fmt.Sprintf("rule %q must not exceed %q", minKey, maxKey)}
	}
	return nil
}
