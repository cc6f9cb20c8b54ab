// internal/report/coerce.go
package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

/*
 * Value coercion for condition matching and aggregation.
 *
 * Submission values arrive as JSON-decoded scalars (string, float64, bool,
 * json.Number) or lists ([]any, []string). Coercion is lenient and total:
 * a value that cannot be coerced to the requested shape yields (zero, false)
 * and the caller treats it as a non-match or excludes it from a reduction.
 * Coercion never returns an error; malformed user data must not abort a
 * report evaluation.
 */

// asNumber converts a scalar to float64 for numeric comparison and reduction.
// Numeric strings are accepted after trimming; booleans are rejected to avoid
// true≈1 ambiguity. Whitespace-only strings are not valid numbers.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// asBool normalizes common boolean encodings: true/"true"/"yes"/"1"/1 are
// true; false/"false"/"no"/"0"/0/""/nil are false. Unrecognized strings
// report !ok so equals/not_equals can treat them as non-matches.
func asBool(v any) (value, ok bool) {
	switch b := v.(type) {
	case nil:
		return false, true
	case bool:
		return b, true
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0", "":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

// dateLayouts are tried in order when parsing date values from submissions
// and filter inputs. RFC3339 first: that is the storage format.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

// asTime parses a scalar into a timestamp. Parse failures report !ok and the
// matcher treats them as non-matches, not errors.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	case float64:
		// Unix seconds; millisecond encodings are far beyond year 9999.
		return time.Unix(int64(t), 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

// stringify renders a scalar the way the UI displays it, for drilldown
// equality and dimension keys. Numbers drop trailing zeros; lists join with
// a comma so a multi-valued cell has a stable key.
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return s.String()
	case time.Time:
		return s.Format(time.RFC3339)
	case []any:
		parts := make([]string, len(s))
		for i, elem := range s {
			parts[i] = stringify(elem)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(s, ",")
	default:
		return fmt.Sprintf("%v", s)
	}
}

// valueList expands a row value into its scalar elements. Scalars become a
// single-element list; nil becomes an empty list. Used for multi-valued
// select semantics (row matches if any element matches).
func valueList(v any) []any {
	switch list := v.(type) {
	case nil:
		return nil
	case []any:
		return list
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

// splitList splits a comma-separated filter value into trimmed entries.
// Used by in/not_in and the two-ended between operators.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
