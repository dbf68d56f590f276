package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date form used in date slots and
// cache documents. Lexicographic order on this layout equals chronological
// order, which the search compiler relies on.
const DateLayout = "2006-01-02"

// dateLayouts are the accepted input forms, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// isEmpty reports whether raw is null or the empty string.
func isEmpty(raw any) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && s == ""
}

// isNumericScalar reports whether raw is a numeric Go scalar (not a
// numeric-looking string).
func isNumericScalar(raw any) bool {
	switch raw.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

// Number converts raw to a float64. Numeric scalars convert directly;
// strings are parsed. Anything else fails.
func Number(raw any) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Truthy converts raw to a bool. The accepted set is true, false, 1, 0,
// "1", "0", "true", "false" (case-insensitive).
func Truthy(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(v) {
		case "1", "true":
			return true, true
		case "0", "false":
			return false, true
		}
		return false, false
	default:
		n, ok := Number(raw)
		if !ok {
			return false, false
		}
		if n == 1 {
			return true, true
		}
		if n == 0 {
			return false, true
		}
		return false, false
	}
}

// ParseDate converts raw to a calendar date (midnight UTC). time.Time values
// are truncated; strings are tried against the accepted layouts.
func ParseDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return truncateToDate(v), true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return truncateToDate(t), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// today returns the current calendar date. Date rules holding the "today"
// sentinel resolve through this at evaluation time.
var today = func() time.Time {
	return truncateToDate(time.Now())
}

// stringForm renders a string or numeric scalar as its string form.
// Integral floats print without a fractional part, so 25 and 25.0 agree.
func stringForm(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		if isNumericScalar(raw) {
			return fmt.Sprintf("%d", raw), true
		}
		return "", false
	}
}

// ruleNumber reads a numeric rule constraint, accepting numeric scalars and
// numeric strings.
func ruleNumber(raw any) (float64, bool) {
	return Number(raw)
}

// ruleDate resolves a date rule constraint, honoring the "today" sentinel.
func ruleDate(raw any) (time.Time, bool) {
	if s, ok := raw.(string); ok && strings.EqualFold(s, "today") {
		return today(), true
	}
	return ParseDate(raw)
}
