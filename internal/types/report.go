// internal/types/report.go
package types

/*
 * Declarative report configuration.
 *
 * ReportConfig is the full value-type declaration the planner consumes:
 * metrics, dimensions, per-metric aggregations, filter conditions plus an
 * optional manual boolean logic expression, one of joinConfig/crossRefConfig,
 * and the drilldown declaration. Treated as a value everywhere; any mutation
 * produces a new config so the planner stays pure.
 *
 * Wire-format agnostic: JSON tags match the serialized form stored by the
 * report store and accepted by the HTTP API.
 */

// Operator identifies one filter comparison. The operator set accepted for a
// condition depends on the category of the field it targets.
type Operator string

const (
	OpEquals       Operator = "equals"
	OpNotEquals    Operator = "not_equals"
	OpContains     Operator = "contains"
	OpStartsWith   Operator = "starts_with"
	OpEndsWith     Operator = "ends_with"
	OpIsEmpty      Operator = "is_empty"
	OpIsNotEmpty   Operator = "is_not_empty"
	OpGreaterThan  Operator = "greater_than"
	OpLessThan     Operator = "less_than"
	OpGreaterEqual Operator = "greater_equal"
	OpLessEqual    Operator = "less_equal"
	OpBetween      Operator = "between"
	OpAfter        Operator = "after"
	OpBefore       Operator = "before"
	OpLastDays     Operator = "last_days"
	OpNextDays     Operator = "next_days"
	OpIn           Operator = "in"
	OpNotIn        Operator = "not_in"
)

// Aggregation is the reduction applied to a metric within a dimension bucket.
type Aggregation string

const (
	AggCount  Aggregation = "count"
	AggSum    Aggregation = "sum"
	AggAvg    Aggregation = "avg"
	AggMin    Aggregation = "min"
	AggMax    Aggregation = "max"
	AggMedian Aggregation = "median"
	AggStdDev Aggregation = "stddev"
)

// JoinType selects join semantics for an explicit two-form join.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinFull  JoinType = "full"
)

// CrossRefMode selects what a cross-reference relation emits per primary row.
type CrossRefMode string

const (
	CrossRefCount     CrossRefMode = "count"
	CrossRefAggregate CrossRefMode = "aggregate"
)

// FilterCondition is one numbered filter unit. Conditions are 1-indexed by
// position; a manual logic expression references them by that index.
// Value encoding depends on the operator: between uses "min,max", in/not_in
// use a comma-separated list, is_empty/is_not_empty ignore it.
type FilterCondition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// MetricAggregation binds a metric field to its reduction function.
type MetricAggregation struct {
	Field       string      `json:"field"`
	Aggregation Aggregation `json:"aggregation"`
}

// JoinSpec declares an explicit join between the primary form and a secondary
// form on a matching field pair.
type JoinSpec struct {
	SecondaryFormID  string   `json:"secondaryFormId"`
	JoinType         JoinType `json:"joinType"`
	PrimaryFieldID   string   `json:"primaryFieldId"`
	SecondaryFieldID string   `json:"secondaryFieldId"`
}

// CrossRefSpec declares the cross-reference shortcut: a field on the primary
// form holds references to rows of the target form (1-to-many), so no join
// field pair is configured.
type CrossRefSpec struct {
	CrossRefFieldID     string       `json:"crossRefFieldId"`
	TargetFormID        string       `json:"targetFormId"`
	Mode                CrossRefMode `json:"mode"`
	TargetMetricFieldID string       `json:"targetMetricFieldId,omitempty"`
	TargetAggregation   Aggregation  `json:"targetAggregation,omitempty"`
}

// DrilldownConfig declares which fields respond to click-to-filter refinement.
type DrilldownConfig struct {
	Enabled bool     `json:"enabled"`
	Fields  []string `json:"fields,omitempty"`
}

// DrilldownFilter is one clicked-value refinement. At most one entry per
// field ID exists in a drilldown stack.
type DrilldownFilter struct {
	FieldID string `json:"fieldId"`
	Value   string `json:"value"`
	Label   string `json:"label"`
}

// ReportConfig is the complete declarative report definition.
type ReportConfig struct {
	Metrics               []string            `json:"metrics"`
	Dimensions            []string            `json:"dimensions"`
	MetricAggregations    []MetricAggregation `json:"metricAggregations,omitempty"`
	Filters               []FilterCondition   `json:"filters,omitempty"`
	FilterLogicExpression string              `json:"filterLogicExpression,omitempty"`
	UseManualFilterLogic  bool                `json:"useManualFilterLogic"`
	Join                  *JoinSpec           `json:"joinConfig,omitempty"`
	CrossRef              *CrossRefSpec       `json:"crossRefConfig,omitempty"`
	Drilldown             DrilldownConfig     `json:"drilldownConfig"`
}

// AggregationFor returns the configured reduction for a metric field.
// Defaults to sum when no explicit binding exists.
func (c ReportConfig) AggregationFor(field string) Aggregation {
	for _, ma := range c.MetricAggregations {
		if ma.Field == field {
			return ma.Aggregation
		}
	}
	return AggSum
}

// ResultBucket is the planner's output unit for aggregate mode.
// DimensionKey is the ordered tuple of grouping values, first-seen order.
type ResultBucket struct {
	DimensionKey []string `json:"dimensionKey"`
	Value        float64  `json:"value"`
	Count        int      `json:"count"`
}

// ValidationResult is the structured outcome of expression validation,
// surfaced directly to the UI for inline display.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
	Referenced []int  `json:"referenced,omitempty"`
}
