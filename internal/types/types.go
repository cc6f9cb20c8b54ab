// Package types provides domain models shared across report engine components.
//
// Zero-dependency design: types.go, report.go, and errors.go use only the
// standard library so the engine packages stay free of transitive weight.
// ID utilities in ids.go import uuid but are isolated for selective inclusion.
package types

import "time"

// FieldCategory is the canonical, pre-normalized category of a form field.
// Raw form-builder type strings (currency, dropdown, rating, ...) are mapped
// to one of these at the metadata boundary; the engine never branches on raw
// type strings.
type FieldCategory string

const (
	CategoryText    FieldCategory = "text"
	CategoryNumber  FieldCategory = "number"
	CategoryDate    FieldCategory = "date"
	CategoryBoolean FieldCategory = "boolean"
	CategorySelect  FieldCategory = "select"
)

// FieldOption is one selectable value of a select-category field.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDescriptor describes one form field. Immutable once loaded; owned by
// the metadata collaborator and referenced by ID everywhere else.
type FieldDescriptor struct {
	ID           string        `json:"id" db:"field_id"`
	Label        string        `json:"label" db:"label"`
	Category     FieldCategory `json:"category"`
	Options      []FieldOption `json:"options,omitempty"`
	SourceFormID string        `json:"sourceFormId" db:"form_id"`
}

// Row is a single form submission. Immutable per query; joins produce new
// synthetic rows whose Values map is the union of both sides, with secondary
// field IDs namespaced by source form to avoid collision.
//
// Values are scalars (string, float64, bool) or lists ([]any) as produced by
// JSON decoding of the stored submission payload.
type Row struct {
	ID           string         `json:"id"`
	SourceFormID string         `json:"sourceFormId"`
	Values       map[string]any `json:"values"`
	SubmittedAt  time.Time      `json:"submittedAt"`
}

// Clone returns a deep-enough copy of the row for safe mutation of Values.
// Value entries themselves are shared; the engine never mutates them.
func (r Row) Clone() Row {
	values := make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	r.Values = values
	return r
}

// Resource limits enforced by the report engine to keep evaluation bounded.
const (
	// MaxDimensions caps grouping depth. Charts render at most three nested
	// grouping levels; deeper grouping is clamped with a warning, not an error.
	MaxDimensions = 3

	// MaxFilterConditions bounds the condition vector referenced by a manual
	// logic expression. 64 conditions covers every observed report while
	// keeping per-row evaluation cost predictable.
	MaxFilterConditions = 64

	// MaxExpressionLength bounds manual filter logic text. 512 characters is
	// far beyond any hand-authored expression over 64 conditions.
	MaxExpressionLength = 512

	// MaxJoinRows caps the row count on either side of a join to prevent
	// unbounded joined-row fan-out in a single evaluation.
	MaxJoinRows = 250_000
)
