package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// fixedToday pins the "today" rule sentinel for deterministic date tests.
func fixedToday(t *testing.T, date string) {
	t.Helper()
	fixed, ok := ParseDate(date)
	if !ok {
		t.Fatalf("bad fixed date %q", date)
	}
	prev := today
	today = func() time.Time { return fixed }
	t.Cleanup(func() { today = prev })
}

func textDef(rules map[string]any) types.AttributeDefinition {
	return types.AttributeDefinition{Name: "nickname", Label: "Nickname", Type: types.TypeText, Rules: rules}
}

func TestValidateRequired(t *testing.T) {
	def := types.AttributeDefinition{Name: "age", Label: "Age", Type: types.TypeNumber, Required: true}

	tests := []struct {
		name    string
		raw     any
		wantMsg string
	}{
		{"nil fails", nil, "Age is required"},
		{"empty string fails", "", "Age is required"},
		{"zero passes", 0, ""},
		{"value passes", 25, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := Validate(def, tt.raw)
			if tt.wantMsg == "" {
				if len(msgs) != 0 {
					t.Fatalf("Validate(%v) = %v, want pass", tt.raw, msgs)
				}
				return
			}
			if len(msgs) != 1 || msgs[0] != tt.wantMsg {
				t.Fatalf("Validate(%v) = %v, want [%q]", tt.raw, msgs, tt.wantMsg)
			}
		})
	}
}

func TestValidateOptionalEmptyPasses(t *testing.T) {
	for _, attrType := range []string{types.TypeText, types.TypeNumber, types.TypeDate, types.TypeBoolean} {
		def := types.AttributeDefinition{Name: "a", Label: "A", Type: attrType}
		if msgs := Validate(def, nil); len(msgs) != 0 {
			t.Errorf("Validate(%s, nil) = %v, want pass", attrType, msgs)
		}
		if msgs := Validate(def, ""); len(msgs) != 0 {
			t.Errorf("Validate(%s, \"\") = %v, want pass", attrType, msgs)
		}
	}
}

func TestValidateTypeCheck(t *testing.T) {
	selectDef := types.AttributeDefinition{
		Name: "level", Label: "Seniority", Type: types.TypeSelect,
		Options: []string{"junior", "mid", "senior"},
	}

	tests := []struct {
		name string
		def  types.AttributeDefinition
		raw  any
		pass bool
	}{
		{"text accepts string", textDef(nil), "hello", true},
		{"text accepts numeric scalar", textDef(nil), 42, true},
		{"text rejects bool", textDef(nil), true, false},
		{"number accepts int", types.AttributeDefinition{Label: "Age", Type: types.TypeNumber}, 25, true},
		{"number accepts numeric string", types.AttributeDefinition{Label: "Age", Type: types.TypeNumber}, "25.5", true},
		{"number rejects text", types.AttributeDefinition{Label: "Age", Type: types.TypeNumber}, "not a number", false},
		{"boolean accepts true", types.AttributeDefinition{Label: "Active", Type: types.TypeBoolean}, true, true},
		{"boolean accepts 1", types.AttributeDefinition{Label: "Active", Type: types.TypeBoolean}, 1, true},
		{"boolean accepts TRUE string", types.AttributeDefinition{Label: "Active", Type: types.TypeBoolean}, "TRUE", true},
		{"boolean rejects 2", types.AttributeDefinition{Label: "Active", Type: types.TypeBoolean}, 2, false},
		{"boolean rejects yes", types.AttributeDefinition{Label: "Active", Type: types.TypeBoolean}, "yes", false},
		{"date accepts calendar form", types.AttributeDefinition{Label: "Hired", Type: types.TypeDate}, "2026-03-01", true},
		{"date accepts RFC3339", types.AttributeDefinition{Label: "Hired", Type: types.TypeDate}, "2026-03-01T10:30:00Z", true},
		{"date rejects garbage", types.AttributeDefinition{Label: "Hired", Type: types.TypeDate}, "yesterday-ish", false},
		{"select accepts member", selectDef, "mid", true},
		{"select rejects non-member", selectDef, "boss", false},
		{"select rejects non-string", selectDef, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := Validate(tt.def, tt.raw)
			if tt.pass && len(msgs) != 0 {
				t.Fatalf("Validate(%v) = %v, want pass", tt.raw, msgs)
			}
			if !tt.pass && len(msgs) == 0 {
				t.Fatalf("Validate(%v) passed, want failure", tt.raw)
			}
		})
	}
}

func TestValidateSelectEmptyString(t *testing.T) {
	// The empty string is never a member of the option list, even when the
	// attribute is not required. Nil still passes.
	def := types.AttributeDefinition{
		Name: "level", Label: "Seniority", Type: types.TypeSelect,
		Options: []string{"junior", "senior"},
	}
	if msgs := Validate(def, ""); len(msgs) != 1 || !strings.Contains(msgs[0], "one of") {
		t.Errorf("Validate(select, \"\") = %v, want option message", msgs)
	}
	if msgs := Validate(def, nil); len(msgs) != 0 {
		t.Errorf("Validate(select, nil) = %v, want pass", msgs)
	}
}

func TestValidateTextLengthRules(t *testing.T) {
	tests := []struct {
		name  string
		rules map[string]any
		raw   any
		pass  bool
	}{
		{"min length met", map[string]any{types.RuleMinLength: 3}, "abc", true},
		{"min length violated", map[string]any{types.RuleMinLength: 3}, "ab", false},
		{"min alias counts length", map[string]any{types.RuleMin: 3}, "ab", false},
		{"max length violated", map[string]any{types.RuleMaxLength: 5}, "abcdef", false},
		{"max alias counts length", map[string]any{types.RuleMax: 5}, "abcdef", false},
		{"runes not bytes", map[string]any{types.RuleMaxLength: 3}, "äöü", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := Validate(textDef(tt.rules), tt.raw)
			if tt.pass != (len(msgs) == 0) {
				t.Fatalf("Validate(%v) = %v, want pass=%v", tt.raw, msgs, tt.pass)
			}
		})
	}
}

func TestValidateNumberRules(t *testing.T) {
	def := types.AttributeDefinition{
		Name: "age", Label: "Age", Type: types.TypeNumber,
		Rules: map[string]any{types.RuleMin: 0, types.RuleMax: 120},
	}
	if msgs := Validate(def, 25); len(msgs) != 0 {
		t.Errorf("Validate(25) = %v, want pass", msgs)
	}
	if msgs := Validate(def, -1); len(msgs) != 1 || !strings.Contains(msgs[0], "at least 0") {
		t.Errorf("Validate(-1) = %v, want min message", msgs)
	}
	if msgs := Validate(def, 200); len(msgs) != 1 || !strings.Contains(msgs[0], "at most 120") {
		t.Errorf("Validate(200) = %v, want max message", msgs)
	}
}

func TestValidateDateRules(t *testing.T) {
	fixedToday(t, "2026-08-25")

	def := types.AttributeDefinition{
		Name: "birthday", Label: "Birthday", Type: types.TypeDate,
		Rules: map[string]any{types.RuleBefore: types.RuleToday},
	}
	if msgs := Validate(def, "1990-06-15"); len(msgs) != 0 {
		t.Errorf("Validate(past date) = %v, want pass", msgs)
	}
	// The bound itself is rejected; before means strictly before.
	if msgs := Validate(def, "2026-08-25"); len(msgs) != 1 {
		t.Errorf("Validate(today) = %v, want before-violation", msgs)
	}
	if msgs := Validate(def, "2030-01-01"); len(msgs) != 1 {
		t.Errorf("Validate(future date) = %v, want before-violation", msgs)
	}

	after := types.AttributeDefinition{
		Name: "renewal", Label: "Renewal", Type: types.TypeDate,
		Rules: map[string]any{types.RuleAfter: "2026-01-01"},
	}
	if msgs := Validate(after, "2026-01-02"); len(msgs) != 0 {
		t.Errorf("Validate(day after bound) = %v, want pass", msgs)
	}
	if msgs := Validate(after, "2026-01-01"); len(msgs) != 1 {
		t.Errorf("Validate(bound itself) = %v, want after-violation", msgs)
	}
}

func TestValidateMessagesUseLabel(t *testing.T) {
	def := types.AttributeDefinition{Name: "internal_age_field", Label: "Age", Type: types.TypeNumber}
	msgs := Validate(def, "not a number")
	if len(msgs) != 1 {
		t.Fatalf("Validate() = %v, want one message", msgs)
	}
	if strings.Contains(msgs[0], "internal_age_field") {
		t.Errorf("message %q leaks the internal name", msgs[0])
	}
	if !strings.Contains(msgs[0], "Age") {
		t.Errorf("message %q should use the label", msgs[0])
	}
}

func TestTruthySet(t *testing.T) {
	accepted := map[any]bool{
		true: true, false: false,
		1: true, 0: false,
		"1": true, "0": false,
		"true": true, "false": false,
		"TRUE": true, "False": false,
	}
	for raw, want := range accepted {
		got, ok := Truthy(raw)
		if !ok || got != want {
			t.Errorf("Truthy(%v) = (%v, %v), want (%v, true)", raw, got, ok, want)
		}
	}
	for _, raw := range []any{"yes", "no", 2, -1, 0.5, nil} {
		if _, ok := Truthy(raw); ok {
			t.Errorf("Truthy(%v) accepted, want rejection", raw)
		}
	}
}

func TestParseDateTruncates(t *testing.T) {
	d, ok := ParseDate("2026-03-01T18:45:12Z")
	if !ok {
		t.Fatal("ParseDate failed")
	}
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("ParseDate() = %v, want %v", d, want)
	}
}
