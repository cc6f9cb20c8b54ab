// internal/report/crossref.go
package report

import (
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

/*
 * Cross-reference composition.
 *
 * A cross-reference field on the primary form holds references (target row
 * IDs, scalar or list) into a target form, giving a 1-to-many relation
 * without an explicit join-field pair. Per primary row the relation emits a
 * synthetic numeric value:
 *
 *   count     - number of matching target rows
 *   aggregate - the configured reduction of the target metric field over
 *               the matching target rows
 *
 * Zero matches emit 0, never an error. A missing target form emits 0 for
 * every primary row and a single "not linked" warning for the UI.
 *
 * The synthetic value lands on a derived field ID (xref:<fieldId>) so it can
 * be selected as a metric or filtered like any numeric field downstream.
 */

// crossRefPrefix derives the synthetic field ID carrying cross-reference output.
const crossRefPrefix = "xref:"

// CrossRefResultFieldID returns the synthetic field ID a cross-reference spec
// writes its per-row value to.
func CrossRefResultFieldID(spec types.CrossRefSpec) string {
	return crossRefPrefix + spec.CrossRefFieldID
}

// CrossRefFieldDescriptor describes the synthetic numeric field so matching
// and aggregation treat it with number semantics.
func CrossRefFieldDescriptor(spec types.CrossRefSpec, primaryFormID string) types.FieldDescriptor {
	return types.FieldDescriptor{
		ID:           CrossRefResultFieldID(spec),
		Label:        "Linked " + spec.TargetFormID,
		Category:     types.CategoryNumber,
		SourceFormID: primaryFormID,
	}
}

// ApplyCrossRef annotates each primary row with its cross-reference value.
// Rows are cloned; inputs are never mutated. The second return value lists
// informational warnings ("not linked" when the target form is absent).
func ApplyCrossRef(primary, target []types.Row, spec types.CrossRefSpec) ([]types.Row, []string) {
	resultField := CrossRefResultFieldID(spec)

	var warnings []string
	if len(target) == 0 {
		warnings = append(warnings, "cross-reference target form "+spec.TargetFormID+" is not linked; counts default to 0")
	}

	byID := make(map[string]int, len(target))
	for i, row := range target {
		byID[row.ID] = i
	}

	out := make([]types.Row, 0, len(primary))
	for _, p := range primary {
		var matched []types.Row
		for _, ref := range valueList(p.Values[spec.CrossRefFieldID]) {
			if i, ok := byID[stringify(ref)]; ok {
				matched = append(matched, target[i])
			}
		}

		row := p.Clone()
		switch spec.Mode {
		case types.CrossRefAggregate:
			row.Values[resultField] = crossRefAggregate(matched, spec)
		default:
			row.Values[resultField] = float64(len(matched))
		}
		out = append(out, row)
	}

	return out, warnings
}

// crossRefAggregate reduces the target metric field over matched target rows.
// Count mode inside aggregate counts matched rows regardless of the metric.
func crossRefAggregate(matched []types.Row, spec types.CrossRefSpec) float64 {
	if spec.TargetAggregation == types.AggCount {
		return float64(len(matched))
	}
	var values []float64
	for _, row := range matched {
		if v, ok := asNumber(row.Values[spec.TargetMetricFieldID]); ok {
			values = append(values, v)
		}
	}
	return Reduce(spec.TargetAggregation, values)
}
