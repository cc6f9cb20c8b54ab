// internal/report/compat.go
package report

import (
	"strings"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

/*
 * Field compatibility resolution.
 *
 * Decides whether two fields can be joined and classifies fields into the
 * coarse categories consumed by filters, metrics, and dimension pickers.
 *
 * Joinability rule: fields join when their categories match after alias
 * normalization (number≈currency≈rating≈slider, text≈email≈url,
 * select≈dropdown≈radio≈status). A field with no counterpart category is
 * excluded from joinable lists but never removed from selection entirely.
 *
 * Fallback-on-empty: when a joinable-field list would be empty, the resolver
 * returns the full candidate list with UsedFallback=true instead of blocking
 * the user. Callers must surface a warning badge when the fallback is taken;
 * the flag is explicit result metadata so tests can assert on it.
 */

// CoarseCategory is the role a field can play in a report.
type CoarseCategory string

const (
	CoarseMetric    CoarseCategory = "metric"
	CoarseDimension CoarseCategory = "dimension"
	CoarseBoolean   CoarseCategory = "boolean"
	CoarseDate      CoarseCategory = "date"
	CoarseText      CoarseCategory = "text"
)

// categoryAliases maps raw form-builder type strings to canonical categories.
// Unknown raw types fall back to text, never an error.
var categoryAliases = map[string]types.FieldCategory{
	"number":      types.CategoryNumber,
	"numeric":     types.CategoryNumber,
	"integer":     types.CategoryNumber,
	"decimal":     types.CategoryNumber,
	"currency":    types.CategoryNumber,
	"rating":      types.CategoryNumber,
	"slider":      types.CategoryNumber,
	"text":        types.CategoryText,
	"textarea":    types.CategoryText,
	"string":      types.CategoryText,
	"email":       types.CategoryText,
	"url":         types.CategoryText,
	"select":      types.CategorySelect,
	"dropdown":    types.CategorySelect,
	"radio":       types.CategorySelect,
	"status":      types.CategorySelect,
	"multiselect": types.CategorySelect,
	"checkboxes":  types.CategorySelect,
	"date":        types.CategoryDate,
	"datetime":    types.CategoryDate,
	"boolean":     types.CategoryBoolean,
	"bool":        types.CategoryBoolean,
	"checkbox":    types.CategoryBoolean,
	"toggle":      types.CategoryBoolean,
	"switch":      types.CategoryBoolean,
}

// NormalizeCategory maps a raw field type string to its canonical category.
// Case-insensitive. Unknown types normalize to text so incomplete metadata
// degrades to string semantics instead of failing.
func NormalizeCategory(raw string) types.FieldCategory {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return c
	}
	return types.CategoryText
}

// Classify returns the coarse role of a field for pickers and validation.
// Number fields are metric-compatible; select fields are dimension-first.
func Classify(f types.FieldDescriptor) CoarseCategory {
	switch NormalizeCategory(string(f.Category)) {
	case types.CategoryNumber:
		return CoarseMetric
	case types.CategorySelect:
		return CoarseDimension
	case types.CategoryBoolean:
		return CoarseBoolean
	case types.CategoryDate:
		return CoarseDate
	default:
		return CoarseText
	}
}

// Joinable reports whether two fields can serve as a join pair.
func Joinable(a, b types.FieldDescriptor) bool {
	return NormalizeCategory(string(a.Category)) == NormalizeCategory(string(b.Category))
}

// JoinableFields filters candidates down to fields joinable with the anchor.
// Empty result triggers the degraded fallback: all candidates are returned
// and UsedFallback is true so the caller can flag possibly invalid pairs.
func JoinableFields(anchor types.FieldDescriptor, candidates []types.FieldDescriptor) (fields []types.FieldDescriptor, usedFallback bool) {
	for _, c := range candidates {
		if Joinable(anchor, c) {
			fields = append(fields, c)
		}
	}
	if len(fields) == 0 && len(candidates) > 0 {
		fields = append(fields, candidates...)
		return fields, true
	}
	return fields, false
}
