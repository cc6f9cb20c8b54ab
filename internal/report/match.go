// internal/report/match.go
package report

import (
	"strings"
	"time"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

/*
 * Single-condition matching.
 *
 * Evaluates one (field, operator, value) condition against one row. The
 * operator semantics depend on the field's canonical category:
 *
 *   text:    equals, not_equals, contains, starts_with, ends_with,
 *            is_empty, is_not_empty (substring operators case-insensitive)
 *   number:  equals, not_equals, greater_than, less_than, greater_equal,
 *            less_equal, between ("min,max")
 *   date:    equals (same calendar day), after, before, between,
 *            last_days/next_days (window anchored at the matcher's Now)
 *   select:  equals/not_equals (any-element semantics for multi-valued rows),
 *            in/not_in (comma-separated value list)
 *   boolean: equals/not_equals over normalized true/false encodings
 *
 * Missing row values coerce to the category's zero (empty string, 0, false);
 * unparseable values are non-matches. Matching never returns an error.
 *
 * Why function-based dispatch: one switch per category reads better than an
 * operator interface with eighteen single-line implementations, and matches
 * how the comparison layer elsewhere in this codebase is written.
 */

// Matcher evaluates filter conditions against rows using field metadata to
// select category semantics. Now anchors relative date windows; the planner
// passes one timestamp per evaluation so results are reproducible.
type Matcher struct {
	fields map[string]types.FieldDescriptor
	now    time.Time
}

// NewMatcher indexes field descriptors by ID. Conditions on unknown field IDs
// fall back to text semantics.
func NewMatcher(fields []types.FieldDescriptor, now time.Time) *Matcher {
	idx := make(map[string]types.FieldDescriptor, len(fields))
	for _, f := range fields {
		idx[f.ID] = f
	}
	return &Matcher{fields: idx, now: now}
}

// Match evaluates one condition against one row.
func (m *Matcher) Match(row types.Row, cond types.FilterCondition) bool {
	category := types.CategoryText
	if f, ok := m.fields[cond.Field]; ok {
		category = NormalizeCategory(string(f.Category))
	}

	raw := row.Values[cond.Field]

	switch category {
	case types.CategoryNumber:
		return matchNumber(raw, cond)
	case types.CategoryDate:
		return m.matchDate(raw, cond)
	case types.CategorySelect:
		return matchSelect(raw, cond)
	case types.CategoryBoolean:
		return matchBoolean(raw, cond)
	default:
		return matchText(raw, cond)
	}
}

// Results evaluates every condition against a row, producing the 1-indexed
// vector consumed by the logic expression.
func (m *Matcher) Results(row types.Row, conds []types.FilterCondition) []bool {
	results := make([]bool, len(conds))
	for i, cond := range conds {
		results[i] = m.Match(row, cond)
	}
	return results
}

func matchText(raw any, cond types.FilterCondition) bool {
	s := stringify(raw)
	switch cond.Operator {
	case types.OpEquals:
		return s == cond.Value
	case types.OpNotEquals:
		return s != cond.Value
	case types.OpContains:
		return strings.Contains(strings.ToLower(s), strings.ToLower(cond.Value))
	case types.OpStartsWith:
		return strings.HasPrefix(strings.ToLower(s), strings.ToLower(cond.Value))
	case types.OpEndsWith:
		return strings.HasSuffix(strings.ToLower(s), strings.ToLower(cond.Value))
	case types.OpIsEmpty:
		return s == ""
	case types.OpIsNotEmpty:
		return s != ""
	default:
		return false
	}
}

func matchNumber(raw any, cond types.FilterCondition) bool {
	// Missing value counts as 0; a present but non-numeric value never matches.
	var n float64
	if raw != nil {
		v, ok := asNumber(raw)
		if !ok {
			return false
		}
		n = v
	}

	if cond.Operator == types.OpBetween {
		bounds := splitList(cond.Value)
		if len(bounds) != 2 {
			return false
		}
		lo, okLo := asNumber(bounds[0])
		hi, okHi := asNumber(bounds[1])
		if !okLo || !okHi {
			return false
		}
		return n >= lo && n <= hi
	}

	target, ok := asNumber(cond.Value)
	if !ok {
		return false
	}

	switch cond.Operator {
	case types.OpEquals:
		return n == target
	case types.OpNotEquals:
		return n != target
	case types.OpGreaterThan:
		return n > target
	case types.OpLessThan:
		return n < target
	case types.OpGreaterEqual:
		return n >= target
	case types.OpLessEqual:
		return n <= target
	default:
		return false
	}
}

// sameDay compares calendar days, ignoring the time of day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (m *Matcher) matchDate(raw any, cond types.FilterCondition) bool {
	t, ok := asTime(raw)
	if !ok {
		return false
	}

	switch cond.Operator {
	case types.OpEquals:
		target, ok := asTime(cond.Value)
		return ok && sameDay(t, target)
	case types.OpAfter:
		target, ok := asTime(cond.Value)
		return ok && t.After(target)
	case types.OpBefore:
		target, ok := asTime(cond.Value)
		return ok && t.Before(target)
	case types.OpBetween:
		bounds := splitList(cond.Value)
		if len(bounds) != 2 {
			return false
		}
		start, okStart := asTime(bounds[0])
		end, okEnd := asTime(bounds[1])
		if !okStart || !okEnd {
			return false
		}
		// Inclusive by calendar day on both ends.
		if sameDay(t, start) || sameDay(t, end) {
			return true
		}
		return t.After(start) && t.Before(end)
	case types.OpLastDays:
		days, ok := asNumber(cond.Value)
		if !ok || days < 0 {
			return false
		}
		start := m.now.AddDate(0, 0, -int(days))
		return !t.Before(start) && !t.After(m.now)
	case types.OpNextDays:
		days, ok := asNumber(cond.Value)
		if !ok || days < 0 {
			return false
		}
		end := m.now.AddDate(0, 0, int(days))
		return !t.Before(m.now) && !t.After(end)
	default:
		return false
	}
}

func matchSelect(raw any, cond types.FilterCondition) bool {
	// Multi-valued cells use any-element semantics: the row matches when any
	// of its values matches the condition.
	elems := valueList(raw)

	switch cond.Operator {
	case types.OpEquals:
		for _, e := range elems {
			if stringify(e) == cond.Value {
				return true
			}
		}
		return false
	case types.OpNotEquals:
		for _, e := range elems {
			if stringify(e) == cond.Value {
				return false
			}
		}
		return true
	case types.OpIn, types.OpNotIn:
		allowed := make(map[string]struct{})
		for _, v := range splitList(cond.Value) {
			allowed[v] = struct{}{}
		}
		found := false
		for _, e := range elems {
			if _, ok := allowed[stringify(e)]; ok {
				found = true
				break
			}
		}
		if cond.Operator == types.OpIn {
			return found
		}
		return !found
	case types.OpIsEmpty:
		return len(elems) == 0 || stringify(raw) == ""
	case types.OpIsNotEmpty:
		return len(elems) > 0 && stringify(raw) != ""
	default:
		return false
	}
}

func matchBoolean(raw any, cond types.FilterCondition) bool {
	value, okValue := asBool(raw)
	target, okTarget := asBool(cond.Value)
	if !okValue || !okTarget {
		return false
	}

	switch cond.Operator {
	case types.OpEquals:
		return value == target
	case types.OpNotEquals:
		return value != target
	default:
		return false
	}
}
