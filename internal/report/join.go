// internal/report/join.go
package report

import (
	"strings"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

/*
 * Two-form join execution.
 *
 * Builds a hash index of secondary rows keyed by the normalized value of the
 * secondary join field, then probes it once per primary row. Join keys are
 * compared case-insensitively on trimmed stringified values; empty keys
 * never match (NULL semantics), so rows missing the join field fall into
 * the unmatched bucket of whatever join type is in effect.
 *
 * Joined rows are synthetic: primary fields keep their bare IDs, secondary
 * fields are namespaced by their source form ID so colliding field IDs from
 * both forms stay distinguishable. The namespacing is identical across all
 * join types, including unmatched right-side rows in right/full joins.
 *
 * Semantics:
 *   inner - one row per (primary, matched secondary) pair, no-match primaries dropped
 *   left  - every primary emitted; secondary fields absent when unmatched
 *   right - every matched pair plus unmatched secondary rows
 *   full  - union of left and right; each unmatched row emitted once
 */

// namespaceSep separates a source form ID from a field ID in joined rows.
const namespaceSep = "::"

// NamespacedFieldID returns the field key used for secondary-form values on
// joined rows.
func NamespacedFieldID(formID, fieldID string) string {
	return formID + namespaceSep + fieldID
}

// joinKey normalizes a join-field value for equality matching.
// Empty keys are returned as "" and treated as never-matching by the caller.
func joinKey(v any) string {
	return strings.ToLower(strings.TrimSpace(stringify(v)))
}

// mergeRows builds the synthetic joined row for a (primary, secondary) pair.
func mergeRows(primary, secondary types.Row) types.Row {
	merged := primary.Clone()
	merged.ID = primary.ID + "+" + secondary.ID
	for fieldID, v := range secondary.Values {
		merged.Values[NamespacedFieldID(secondary.SourceFormID, fieldID)] = v
	}
	return merged
}

// namespacedOnly builds the emitted row for an unmatched secondary row in
// right/full joins: all values namespaced, primary fields absent.
func namespacedOnly(secondary types.Row) types.Row {
	row := types.Row{
		ID:           secondary.ID,
		SourceFormID: secondary.SourceFormID,
		Values:       make(map[string]any, len(secondary.Values)),
		SubmittedAt:  secondary.SubmittedAt,
	}
	for fieldID, v := range secondary.Values {
		row.Values[NamespacedFieldID(secondary.SourceFormID, fieldID)] = v
	}
	return row
}

// ExecuteJoin produces the joined working row set for an explicit join spec.
// Primary row order is preserved; unmatched secondary rows (right/full) are
// appended in secondary order.
func ExecuteJoin(primary, secondary []types.Row, spec types.JoinSpec) []types.Row {
	index := make(map[string][]int, len(secondary))
	for i, row := range secondary {
		key := joinKey(row.Values[spec.SecondaryFieldID])
		if key == "" {
			continue
		}
		index[key] = append(index[key], i)
	}

	matchedSecondary := make([]bool, len(secondary))
	var out []types.Row

	for _, p := range primary {
		key := joinKey(p.Values[spec.PrimaryFieldID])
		var matches []int
		if key != "" {
			matches = index[key]
		}

		if len(matches) == 0 {
			switch spec.JoinType {
			case types.JoinLeft, types.JoinFull:
				out = append(out, p.Clone())
			}
			continue
		}

		for _, i := range matches {
			matchedSecondary[i] = true
			out = append(out, mergeRows(p, secondary[i]))
		}
	}

	if spec.JoinType == types.JoinRight || spec.JoinType == types.JoinFull {
		for i, s := range secondary {
			if !matchedSecondary[i] {
				out = append(out, namespacedOnly(s))
			}
		}
	}

	return out
}

// JoinFieldDescriptors returns descriptors for the joined row shape: primary
// fields unchanged plus secondary fields re-keyed to their namespaced IDs, so
// filters and aggregations resolve categories for secondary fields too.
func JoinFieldDescriptors(fields []types.FieldDescriptor, secondaryFormID string) []types.FieldDescriptor {
	out := make([]types.FieldDescriptor, 0, len(fields)+4)
	for _, f := range fields {
		out = append(out, f)
		if f.SourceFormID == secondaryFormID {
			namespaced := f
			namespaced.ID = NamespacedFieldID(secondaryFormID, f.ID)
			out = append(out, namespaced)
		}
	}
	return out
}
