// internal/report/drilldown.go
package report

import (
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

/*
 * Drilldown filter stack.
 *
 * An ordered set of clicked-value filters, at most one per field ID. A click
 * on an already-filtered field replaces that entry in place (position
 * unchanged); a click on a new field appends. Composition with the pipeline
 * is always AND by exact string equality on stringified row values, applied
 * after the filter-expression stage.
 *
 * The stack is an immutable value: every operation returns a new stack and
 * never mutates the receiver, so the planner stays referentially transparent
 * and snapshots of the stack can be compared or hashed safely.
 */

// DrilldownStack holds the active click-to-filter refinements.
// The zero value is an empty stack ready for use.
type DrilldownStack struct {
	filters []types.DrilldownFilter
}

// NewDrilldownStack builds a stack from existing filters, keeping the first
// position of each field ID and letting later duplicates replace the value.
func NewDrilldownStack(filters ...types.DrilldownFilter) DrilldownStack {
	s := DrilldownStack{}
	for _, f := range filters {
		s = s.Click(f.FieldID, f.Value, f.Label)
	}
	return s
}

// Click records a clicked value. An existing entry for the field is replaced
// in place; otherwise the filter is appended.
func (s DrilldownStack) Click(fieldID, value, label string) DrilldownStack {
	next := make([]types.DrilldownFilter, len(s.filters))
	copy(next, s.filters)

	for i, f := range next {
		if f.FieldID == fieldID {
			next[i].Value = value
			next[i].Label = label
			return DrilldownStack{filters: next}
		}
	}
	next = append(next, types.DrilldownFilter{FieldID: fieldID, Value: value, Label: label})
	return DrilldownStack{filters: next}
}

// Remove drops the entry for a field ID, if present.
func (s DrilldownStack) Remove(fieldID string) DrilldownStack {
	next := make([]types.DrilldownFilter, 0, len(s.filters))
	for _, f := range s.filters {
		if f.FieldID != fieldID {
			next = append(next, f)
		}
	}
	return DrilldownStack{filters: next}
}

// Reset clears all active filters.
func (s DrilldownStack) Reset() DrilldownStack {
	return DrilldownStack{}
}

// Active returns a copy of the active filters in click order.
func (s DrilldownStack) Active() []types.DrilldownFilter {
	out := make([]types.DrilldownFilter, len(s.filters))
	copy(out, s.filters)
	return out
}

// Len returns the number of active filters.
func (s DrilldownStack) Len() int {
	return len(s.filters)
}

// Matches reports whether a row satisfies every active filter (AND
// composition, exact equality after stringification; multi-valued cells
// match when any element equals the clicked value).
func (s DrilldownStack) Matches(row types.Row) bool {
	for _, f := range s.filters {
		raw := row.Values[f.FieldID]
		matched := false
		for _, elem := range valueList(raw) {
			if stringify(elem) == f.Value {
				matched = true
				break
			}
		}
		if !matched && stringify(raw) != f.Value {
			return false
		}
	}
	return true
}
