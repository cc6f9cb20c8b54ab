// internal/report/planner.go
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

/*
 * Report query planning.
 *
 * Fixed pipeline: join (explicit or cross-reference) -> expression-evaluated
 * filters -> drilldown stack -> aggregation or raw table output.
 *
 * Evaluate is a pure function of (fields, rows, config, drilldown, now):
 * identical inputs yield identical output, inputs are never mutated, and
 * there is no internal caching. Callers memoize externally, keyed on
 * Fingerprint plus their row set version.
 *
 * Degraded paths are structured results, never errors: invalid manual logic
 * falls back to the implicit conjunction and surfaces a ValidationResult;
 * incompatible join fields proceed with a warning and UsedFallback set;
 * a missing join/target form warns and continues with an empty secondary
 * row set. Errors escape only for programmer misuse (row sets beyond the
 * join size limit).
 */

// Mode distinguishes the planner's two output shapes.
type Mode string

const (
	ModeAggregate Mode = "aggregate"
	ModeTable     Mode = "table"
)

// MetricSeries carries the bucket list for one selected metric.
type MetricSeries struct {
	Field       string               `json:"field"`
	Aggregation types.Aggregation    `json:"aggregation"`
	Buckets     []types.ResultBucket `json:"buckets"`
}

// Request bundles the planner's inputs. Rows is keyed by source form ID and
// must include the primary form plus any joined or cross-referenced form.
type Request struct {
	Fields        []types.FieldDescriptor
	Rows          map[string][]types.Row
	PrimaryFormID string
	Config        types.ReportConfig
	Drilldown     DrilldownStack
	Now           time.Time
}

// Result is the planner's output. Buckets holds the first metric's series in
// aggregate mode (the shape chart widgets bind by default); Series carries
// every selected metric. Rows is populated in table mode only.
type Result struct {
	Mode         Mode                   `json:"mode"`
	Buckets      []types.ResultBucket   `json:"buckets,omitempty"`
	Series       []MetricSeries         `json:"series,omitempty"`
	Rows         []types.Row            `json:"rows,omitempty"`
	Validation   types.ValidationResult `json:"validation"`
	UsedFallback bool                   `json:"usedFallback"`
	Warnings     []string               `json:"warnings,omitempty"`
}

// Evaluate runs the full report pipeline over the request.
func Evaluate(req Request) (Result, error) {
	result := Result{Validation: types.ValidationResult{Valid: true}}
	cfg := req.Config

	if len(cfg.Filters) > types.MaxFilterConditions {
		return result, types.ErrTooManyConditions
	}

	rows := req.Rows[req.PrimaryFormID]
	if len(rows) > types.MaxJoinRows {
		return result, types.ErrTooManyRows
	}

	fields := req.Fields

	// Stage 1: join.
	switch {
	case cfg.Join != nil:
		spec := *cfg.Join
		secondary, ok := req.Rows[spec.SecondaryFormID]
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("join form %s has no rows loaded", spec.SecondaryFormID))
		}
		if len(secondary) > types.MaxJoinRows {
			return result, types.ErrTooManyRows
		}
		if warn := joinCompatWarning(fields, spec); warn != "" {
			result.Warnings = append(result.Warnings, warn)
			result.UsedFallback = true
		}
		rows = ExecuteJoin(rows, secondary, spec)
		fields = JoinFieldDescriptors(fields, spec.SecondaryFormID)

	case cfg.CrossRef != nil:
		spec := *cfg.CrossRef
		target := req.Rows[spec.TargetFormID]
		var warnings []string
		rows, warnings = ApplyCrossRef(rows, target, spec)
		result.Warnings = append(result.Warnings, warnings...)
		fields = append(append([]types.FieldDescriptor(nil), fields...), CrossRefFieldDescriptor(spec, req.PrimaryFormID))
	}

	// Stage 2: declared filters under the effective logic expression.
	if len(cfg.Filters) > 0 {
		expr, validation := EffectiveExpression(cfg, len(cfg.Filters))
		result.Validation = validation

		matcher := NewMatcher(fields, req.Now)
		filtered := make([]types.Row, 0, len(rows))
		for _, row := range rows {
			if expr.Eval(matcher.Results(row, cfg.Filters)) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	// Stage 3: drilldown refinements.
	if cfg.Drilldown.Enabled && req.Drilldown.Len() > 0 {
		refined := make([]types.Row, 0, len(rows))
		for _, row := range rows {
			if req.Drilldown.Matches(row) {
				refined = append(refined, row)
			}
		}
		rows = refined
	}

	// Stage 4: aggregate or table output.
	if len(cfg.Metrics) == 0 && len(cfg.Dimensions) == 0 {
		result.Mode = ModeTable
		result.Rows = rows
		return result, nil
	}

	result.Mode = ModeAggregate
	dimensions := cfg.Dimensions
	if len(dimensions) > types.MaxDimensions {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("dimension list truncated to the first %d entries", types.MaxDimensions))
		dimensions = dimensions[:types.MaxDimensions]
	}

	// Zero metrics in aggregate mode is a no-op: empty bucket list.
	result.Buckets = []types.ResultBucket{}
	for _, metric := range cfg.Metrics {
		series := MetricSeries{
			Field:       metric,
			Aggregation: cfg.AggregationFor(metric),
		}
		series.Buckets = Aggregate(rows, metric, series.Aggregation, dimensions)
		result.Series = append(result.Series, series)
	}
	if len(result.Series) > 0 {
		result.Buckets = result.Series[0].Buckets
	}

	return result, nil
}

// joinCompatWarning checks the declared join pair against field metadata.
// Missing descriptors or category mismatch yield a warning string; the join
// still runs on raw values (degraded fallback, not an error).
func joinCompatWarning(fields []types.FieldDescriptor, spec types.JoinSpec) string {
	var primaryField, secondaryField *types.FieldDescriptor
	for i := range fields {
		switch fields[i].ID {
		case spec.PrimaryFieldID:
			primaryField = &fields[i]
		case spec.SecondaryFieldID:
			secondaryField = &fields[i]
		}
	}
	if primaryField == nil || secondaryField == nil {
		return fmt.Sprintf("join fields %s/%s missing from metadata; joining on raw values", spec.PrimaryFieldID, spec.SecondaryFieldID)
	}
	if !Joinable(*primaryField, *secondaryField) {
		return fmt.Sprintf("join fields %s (%s) and %s (%s) are not type-compatible; joining on raw values",
			primaryField.ID, primaryField.Category, secondaryField.ID, secondaryField.Category)
	}
	return ""
}

// UniqueValues lists the distinct stringified values of a field across rows,
// first-seen order. Drilldown pickers use this to offer clickable values.
func UniqueValues(rows []types.Row, fieldID string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range rows {
		for _, elem := range valueList(row.Values[fieldID]) {
			s := stringify(elem)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	return out
}

// fingerprintPayload pins the serialized shape hashed by Fingerprint.
type fingerprintPayload struct {
	Config    types.ReportConfig      `json:"config"`
	Drilldown []types.DrilldownFilter `json:"drilldown"`
}

// Fingerprint returns a stable content hash of (config, drilldown stack) for
// caller-side memoization keys. Identical declarations hash identically.
func Fingerprint(cfg types.ReportConfig, stack DrilldownStack) string {
	payload, err := json.Marshal(fingerprintPayload{Config: cfg, Drilldown: stack.Active()})
	if err != nil {
		// ReportConfig is plain data; marshal cannot fail in practice.
		return ""
	}
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:])
}
