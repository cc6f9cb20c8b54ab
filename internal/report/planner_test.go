// internal/report/planner_test.go
package report

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

var planNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func plannerFixture() Request {
	fields := []types.FieldDescriptor{
		{ID: "status", Category: types.CategorySelect, SourceFormID: "tickets"},
		{ID: "amount", Category: types.CategoryNumber, SourceFormID: "tickets"},
		{ID: "customer", Category: types.CategoryText, SourceFormID: "tickets"},
	}
	rows := []types.Row{
		{ID: "r1", SourceFormID: "tickets", SubmittedAt: planNow,
			Values: map[string]any{"status": "Open", "amount": 10.0, "customer": "Acme"}},
		{ID: "r2", SourceFormID: "tickets", SubmittedAt: planNow,
			Values: map[string]any{"status": "Open", "amount": 20.0, "customer": "Globex"}},
		{ID: "r3", SourceFormID: "tickets", SubmittedAt: planNow,
			Values: map[string]any{"status": "Closed", "amount": 30.0, "customer": "Acme"}},
	}
	return Request{
		Fields:        fields,
		Rows:          map[string][]types.Row{"tickets": rows},
		PrimaryFormID: "tickets",
		Now:           planNow,
	}
}

func TestEvaluate_AggregateMode(t *testing.T) {
	req := plannerFixture()
	req.Config = types.ReportConfig{
		Metrics:    []string{"amount"},
		Dimensions: []string{"status"},
	}

	result, err := Evaluate(req)
	if err != nil {
		t.Fatal(err)
	}
	if result.Mode != ModeAggregate {
		t.Fatalf("Mode = %s, want aggregate", result.Mode)
	}
	if len(result.Buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(result.Buckets))
	}
	if result.Buckets[0].DimensionKey[0] != "Open" || result.Buckets[0].Value != 30 {
		t.Errorf("Open bucket = %+v, want sum 30", result.Buckets[0])
	}
	if result.Buckets[1].DimensionKey[0] != "Closed" || result.Buckets[1].Value != 30 {
		t.Errorf("Closed bucket = %+v, want sum 30", result.Buckets[1])
	}
	if !result.Validation.Valid {
		t.Error("validation should default to valid with no filters")
	}
}

func TestEvaluate_TableMode(t *testing.T) {
	req := plannerFixture()
	req.Config = types.ReportConfig{
		Filters: []types.FilterCondition{
			{Field: "status", Operator: types.OpEquals, Value: "Open"},
		},
	}

	result, err := Evaluate(req)
	if err != nil {
		t.Fatal(err)
	}
	if result.Mode != ModeTable {
		t.Fatalf("Mode = %s, want table", result.Mode)
	}
	if len(result.Rows) != 2 {
		t.Errorf("rows = %d, want the 2 open tickets", len(result.Rows))
	}
	if len(result.Buckets) != 0 {
		t.Error("table mode should not emit buckets")
	}
}

func TestEvaluate_FilterExpressionAppliedBeforeAggregation(t *testing.T) {
	req := plannerFixture()
	req.Config = types.ReportConfig{
		Metrics: []string{"amount"},
		Filters: []types.FilterCondition{
			{Field: "status", Operator: types.OpEquals, Value: "Open"},
			{Field: "amount", Operator: types.OpGreaterThan, Value: "15"},
		},
		UseManualFilterLogic:  true,
		FilterLogicExpression: "1 AND 2",
	}

	result, err := Evaluate(req)
	if err != nil {
		t.Fatal(err)
	}
	// Only r2 (Open, 20) survives both conditions.
	if len(result.Buckets) != 1 || result.Buckets[0].Value != 20 {
		t.Errorf("buckets = %v, want single sum 20", result.Buckets)
	}
}

func TestEvaluate_InvalidManualLogicFallsBack(t *testing.T) {
	req := plannerFixture()
	req.Config = types.ReportConfig{
		Metrics: []string{"amount"},
		Filters: []types.FilterCondition{
			{Field: "status", Operator: types.OpEquals, Value: "Open"},
			{Field: "amount", Operator: types.OpGreaterThan, Value: "15"},
		},
		UseManualFilterLogic:  true,
		FilterLogicExpression: "1 AND 7",
	}

	result, err := Evaluate(req)
	if err != nil {
		t.Fatal(err)
	}
	if result.Validation.Valid {
		t.Error("validation should flag the out-of-range reference")
	}
	// Fallback is the implicit conjunction 1 AND 2, same rows as the valid case.
	if len(result.Buckets) != 1 || result.Buckets[0].Value != 20 {
		t.Errorf("buckets = %v, want implicit-AND sum 20", result.Buckets)
	}
}

func TestEvaluate_DrilldownAfterFilters(t *testing.T) {
	req := plannerFixture()
	req.Config = types.ReportConfig{
		Metrics: []string{"amount"},
		Filters: []types.FilterCondition{
			{Field: "amount", Operator: types.OpGreaterThan, Value: "5"},
		},
		Drilldown: types.DrilldownConfig{Enabled: true, Fields: []string{"customer"}},
	}
	req.Drilldown = NewDrilldownStack(types.DrilldownFilter{FieldID: "customer", Value: "Acme"})

	result, err := Evaluate(req)
	if err != nil {
		t.Fatal(err)
	}
	// r1 and r3 carry customer Acme: 10 + 30.
	if len(result.Buckets) != 1 || result.Buckets[0].Value != 40 {
		t.Errorf("buckets = %v, want drilled-down sum 40", result.Buckets)
	}
}

func TestEvaluate_DrilldownIgnoredWhenDisabled(t *testing.T) {
	req := plannerFixture()
	req.Config = types.ReportConfig{Metrics: []string{"amount"}}
	req.Drilldown = NewDrilldownStack(types.DrilldownFilter{FieldID: "customer", Value: "Acme"})

	result, err := Evaluate(req)
	if err != nil {
		t.Fatal(err)
	}
	if result.Buckets[0].Value != 60 {
		t.Errorf("sum = %v, want 60 (stack inactive while drilldown disabled)", result.Buckets[0].Value)
	}
}

func TestEvaluate_JoinStageRunsFirst(t *testing.T) {
	req := plannerFixture()
	req.Fields = append(req.Fields,
		types.FieldDescriptor{ID: "company", Category: types.CategoryText, SourceFormID: "accounts"},
		types.FieldDescriptor{ID: "tier", Category: types.CategorySelect, SourceFormID: "accounts"},
	)
	req.Rows["accounts"] = []types.Row{
		{ID: "a1", SourceFormID: "accounts", SubmittedAt: planNow,
			Values: map[string]any{"company": "acme", "tier": "gold"}},
	}
	req.Config = types.ReportConfig{
		Metrics:    []string{"amount"},
		Dimensions: []string{NamespacedFieldID("accounts", "tier")},
		Join: &types.JoinSpec{
			SecondaryFormID:  "accounts",
			JoinType:         types.JoinInner,
			PrimaryFieldID:   "customer",
			SecondaryFieldID: "company",
		},
	}

	result, err := Evaluate(req)
	if err != nil {
		t.Fatal(err)
	}
	if result.UsedFallback {
		t.Errorf("UsedFallback = true with compatible text fields: %v", result.Warnings)
	}
	// Inner join keeps r1 and r3 (customer Acme, case-insensitive): 10 + 30
	// grouped under the joined tier value.
	if len(result.Buckets) != 1 {
		t.Fatalf("buckets = %v, want single gold bucket", result.Buckets)
	}
	if result.Buckets[0].DimensionKey[0] != "gold" || result.Buckets[0].Value != 40 {
		t.Errorf("bucket = %+v, want gold sum 40", result.Buckets[0])
	}
}

func TestEvaluate_IncompatibleJoinSetsFallback(t *testing.T) {
	req := plannerFixture()
	req.Fields = append(req.Fields,
		types.FieldDescriptor{ID: "opened", Category: types.CategoryDate, SourceFormID: "accounts"},
	)
	req.Rows["accounts"] = []types.Row{
		{ID: "a1", SourceFormID: "accounts", SubmittedAt: planNow,
			Values: map[string]any{"opened": "Acme"}},
	}
	req.Config = types.ReportConfig{
		Metrics: []string{"amount"},
		Join: &types.JoinSpec{
			SecondaryFormID:  "accounts",
			JoinType:         types.JoinInner,
			PrimaryFieldID:   "customer",
			SecondaryFieldID: "opened",
		},
	}

	result, err := Evaluate(req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.UsedFallback {
		t.Error("UsedFallback = false, want true for text/date join pair")
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a compatibility warning")
	}
	// The join still ran on raw values.
	if result.Buckets[0].Value != 10 {
		t.Errorf("sum = %v, want 10 from the single raw-value match", result.Buckets[0].Value)
	}
}

func TestEvaluate_CrossRefStage(t *testing.T) {
	req := plannerFixture()
	req.Rows["tickets"][0].Values["related"] = []any{"w1", "w2"}
	req.Rows["work"] = []types.Row{
		{ID: "w1", SourceFormID: "work", SubmittedAt: planNow, Values: map[string]any{}},
		{ID: "w2", SourceFormID: "work", SubmittedAt: planNow, Values: map[string]any{}},
	}
	spec := &types.CrossRefSpec{
		CrossRefFieldID: "related",
		TargetFormID:    "work",
		Mode:            types.CrossRefCount,
	}
	req.Config = types.ReportConfig{
		Metrics:  []string{CrossRefResultFieldID(*spec)},
		CrossRef: spec,
	}

	result, err := Evaluate(req)
	if err != nil {
		t.Fatal(err)
	}
	if result.Buckets[0].Value != 2 {
		t.Errorf("cross-ref count sum = %v, want 2", result.Buckets[0].Value)
	}
}

func TestEvaluate_DimensionClamp(t *testing.T) {
	req := plannerFixture()
	req.Config = types.ReportConfig{
		Metrics:    []string{"amount"},
		Dimensions: []string{"status", "customer", "amount", "status"},
	}

	result, err := Evaluate(req)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a truncation warning")
	}
	for _, b := range result.Buckets {
		if len(b.DimensionKey) != types.MaxDimensions {
			t.Errorf("tuple width = %d, want %d", len(b.DimensionKey), types.MaxDimensions)
		}
	}
}

func TestEvaluate_ZeroMetricsAggregateMode(t *testing.T) {
	req := plannerFixture()
	req.Config = types.ReportConfig{Dimensions: []string{"status"}}

	result, err := Evaluate(req)
	if err != nil {
		t.Fatal(err)
	}
	if result.Mode != ModeAggregate {
		t.Fatalf("Mode = %s, want aggregate when dimensions are set", result.Mode)
	}
	if len(result.Buckets) != 0 || result.Buckets == nil {
		t.Errorf("buckets = %v, want empty non-nil list", result.Buckets)
	}
}

func TestEvaluate_MultipleMetricSeries(t *testing.T) {
	req := plannerFixture()
	req.Config = types.ReportConfig{
		Metrics: []string{"amount", "amount"},
		MetricAggregations: []types.MetricAggregation{
			{Field: "amount", Aggregation: types.AggMax},
		},
	}

	result, err := Evaluate(req)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Series) != 2 {
		t.Fatalf("series = %d, want 2", len(result.Series))
	}
	if result.Series[0].Aggregation != types.AggMax {
		t.Errorf("aggregation = %s, want configured max", result.Series[0].Aggregation)
	}
	if result.Buckets[0].Value != 30 {
		t.Errorf("default buckets = %v, want first series max 30", result.Buckets)
	}
}

func TestEvaluate_TooManyConditions(t *testing.T) {
	req := plannerFixture()
	conds := make([]types.FilterCondition, types.MaxFilterConditions+1)
	for i := range conds {
		conds[i] = types.FilterCondition{Field: "status", Operator: types.OpIsNotEmpty}
	}
	req.Config = types.ReportConfig{Filters: conds}

	if _, err := Evaluate(req); !errors.Is(err, types.ErrTooManyConditions) {
		t.Errorf("err = %v, want ErrTooManyConditions", err)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	build := func() Request {
		req := plannerFixture()
		req.Config = types.ReportConfig{
			Metrics:    []string{"amount"},
			Dimensions: []string{"status"},
			Filters: []types.FilterCondition{
				{Field: "amount", Operator: types.OpGreaterThan, Value: "5"},
			},
		}
		return req
	}

	first, err := Evaluate(build())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Evaluate(build())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different results")
	}
}

func TestEvaluate_InputRowsNotMutated(t *testing.T) {
	req := plannerFixture()
	req.Rows["work"] = []types.Row{}
	req.Config = types.ReportConfig{
		Metrics: []string{"amount"},
		CrossRef: &types.CrossRefSpec{
			CrossRefFieldID: "related",
			TargetFormID:    "work",
			Mode:            types.CrossRefCount,
		},
	}

	if _, err := Evaluate(req); err != nil {
		t.Fatal(err)
	}
	for _, row := range req.Rows["tickets"] {
		if len(row.Values) != 3 {
			t.Errorf("input row %s mutated: %v", row.ID, row.Values)
		}
	}
}

func TestUniqueValues(t *testing.T) {
	rows := []types.Row{
		{ID: "a", Values: map[string]any{"tags": []any{"x", "y"}}},
		{ID: "b", Values: map[string]any{"tags": "x"}},
		{ID: "c", Values: map[string]any{"tags": ""}},
		{ID: "d", Values: map[string]any{"tags": "z"}},
	}
	got := UniqueValues(rows, "tags")
	want := []string{"x", "y", "z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueValues() = %v, want %v", got, want)
	}
}

func TestFingerprint(t *testing.T) {
	cfg := types.ReportConfig{Metrics: []string{"amount"}, Dimensions: []string{"status"}}
	stack := NewDrilldownStack(types.DrilldownFilter{FieldID: "status", Value: "Open"})

	a := Fingerprint(cfg, stack)
	b := Fingerprint(cfg, stack)
	if a == "" || a != b {
		t.Errorf("fingerprint not stable: %q vs %q", a, b)
	}

	other := Fingerprint(cfg, stack.Click("status", "Closed", ""))
	if other == a {
		t.Error("distinct drilldown states hashed identically")
	}

	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}
