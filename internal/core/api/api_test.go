package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/auth"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/config"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/store"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/report"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

var testStamp = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

// fakeForms serves fixture data without a database.
type fakeForms struct {
	forms  []store.FormSummary
	fields map[string][]types.FieldDescriptor
	rows   map[string][]types.Row
}

func (f *fakeForms) Forms(tenantID string) ([]store.FormSummary, error) {
	return f.forms, nil
}

func (f *fakeForms) Form(tenantID, formID string) (store.FormSummary, error) {
	for _, summary := range f.forms {
		if summary.ID == formID {
			return summary, nil
		}
	}
	return store.FormSummary{}, types.ErrUnknownForm
}

func (f *fakeForms) Fields(formID string) ([]types.FieldDescriptor, error) {
	fields, ok := f.fields[formID]
	if !ok {
		return nil, types.ErrUnknownForm
	}
	return fields, nil
}

func (f *fakeForms) Rows(formID string) ([]types.Row, error) {
	return f.rows[formID], nil
}

func (f *fakeForms) RowSets(primaryFormID string, cfg types.ReportConfig) (map[string][]types.Row, error) {
	sets := map[string][]types.Row{primaryFormID: f.rows[primaryFormID]}
	if cfg.Join != nil {
		sets[cfg.Join.SecondaryFormID] = f.rows[cfg.Join.SecondaryFormID]
	}
	if cfg.CrossRef != nil {
		sets[cfg.CrossRef.TargetFormID] = f.rows[cfg.CrossRef.TargetFormID]
	}
	return sets, nil
}

// fakeReports is an in-memory saved-report store.
type fakeReports struct {
	saved map[string]store.SavedReport
}

func (f *fakeReports) Get(tenantID, reportID string) (store.SavedReport, error) {
	saved, ok := f.saved[reportID]
	if !ok || saved.TenantID != tenantID {
		return store.SavedReport{}, types.ErrReportNotFound
	}
	return saved, nil
}

func (f *fakeReports) List(tenantID string) ([]store.SavedReport, error) {
	var out []store.SavedReport
	for _, saved := range f.saved {
		if saved.TenantID == tenantID {
			out = append(out, saved)
		}
	}
	return out, nil
}

func (f *fakeReports) Create(tenantID, formID, name string, cfg types.ReportConfig) (store.SavedReport, error) {
	saved := store.SavedReport{
		ID:        string(types.NewReportID()),
		TenantID:  tenantID,
		FormID:    formID,
		Name:      name,
		Config:    cfg,
		CreatedAt: testStamp,
		UpdatedAt: testStamp,
	}
	f.saved[saved.ID] = saved
	return saved, nil
}

func (f *fakeReports) Update(tenantID, reportID, name string, cfg types.ReportConfig) (store.SavedReport, error) {
	saved, err := f.Get(tenantID, reportID)
	if err != nil {
		return store.SavedReport{}, err
	}
	saved.Name = name
	saved.Config = cfg
	f.saved[reportID] = saved
	return saved, nil
}

func (f *fakeReports) Delete(tenantID, reportID string) error {
	if _, err := f.Get(tenantID, reportID); err != nil {
		return err
	}
	delete(f.saved, reportID)
	return nil
}

func fixtureForms() *fakeForms {
	return &fakeForms{
		forms: []store.FormSummary{
			{ID: "tickets", Title: "Tickets", CreatedAt: testStamp, SubmissionCount: 2},
		},
		fields: map[string][]types.FieldDescriptor{
			"tickets": {
				{ID: "status", Label: "Status", Category: types.CategorySelect, SourceFormID: "tickets"},
				{ID: "amount", Label: "Amount", Category: types.CategoryNumber, SourceFormID: "tickets"},
			},
		},
		rows: map[string][]types.Row{
			"tickets": {
				{ID: "r1", SourceFormID: "tickets", SubmittedAt: testStamp,
					Values: map[string]any{"status": "Open", "amount": 10.0}},
				{ID: "r2", SourceFormID: "tickets", SubmittedAt: testStamp,
					Values: map[string]any{"status": "Closed", "amount": 30.0}},
			},
		},
	}
}

// newTestRouter wires the service routes behind a stub tenant injector,
// standing in for the auth middleware.
func newTestRouter(t *testing.T, forms SubmissionStore, reports ReportStore) chi.Router {
	return newTestRouterWithConfig(t, forms, reports, config.DefaultReportAPIConfig())
}

func newTestRouterWithConfig(t *testing.T, forms SubmissionStore, reports ReportStore, cfg *config.ReportAPIConfig) chi.Router {
	t.Helper()

	service, err := NewReportAPIService(forms, reports, cfg,
		slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.ContextWithTenantID(req.Context(), "tenant-1")))
		})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Route("/forms", func(r chi.Router) {
			r.Get("/", service.ListForms)
			r.Route("/{formID}", func(r chi.Router) {
				r.Get("/", service.GetForm)
				r.Get("/fields", service.GetFormFields)
				r.Get("/fields/{fieldID}/values", service.GetFieldValues)
			})
		})
		r.Route("/reports", func(r chi.Router) {
			r.Post("/evaluate", service.EvaluateReport)
			r.Post("/validate-logic", service.ValidateLogic)
			r.Get("/", service.ListReports)
			r.Post("/", service.CreateReport)
			r.Get("/{reportID}", service.GetReport)
			r.Put("/{reportID}", service.UpdateReport)
			r.Delete("/{reportID}", service.DeleteReport)
		})
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEvaluateReport(t *testing.T) {
	router := newTestRouter(t, fixtureForms(), &fakeReports{saved: map[string]store.SavedReport{}})

	rec := doJSON(t, router, http.MethodPost, "/v1/reports/evaluate", evaluateRequest{
		FormID: "tickets",
		Config: types.ReportConfig{Metrics: []string{"amount"}, Dimensions: []string{"status"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Mode        report.Mode          `json:"mode"`
		Buckets     []types.ResultBucket `json:"buckets"`
		Fingerprint string               `json:"fingerprint"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, report.ModeAggregate, resp.Mode)
	require.Len(t, resp.Buckets, 2)
	assert.Equal(t, 10.0, resp.Buckets[0].Value)
	assert.Len(t, resp.Fingerprint, 64)
}

func TestEvaluateReport_WithDrilldown(t *testing.T) {
	router := newTestRouter(t, fixtureForms(), &fakeReports{saved: map[string]store.SavedReport{}})

	rec := doJSON(t, router, http.MethodPost, "/v1/reports/evaluate", evaluateRequest{
		FormID: "tickets",
		Config: types.ReportConfig{
			Metrics:   []string{"amount"},
			Drilldown: types.DrilldownConfig{Enabled: true, Fields: []string{"status"}},
		},
		Drilldown: []types.DrilldownFilter{{FieldID: "status", Value: "Open"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Buckets []types.ResultBucket `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Buckets, 1)
	assert.Equal(t, 10.0, resp.Buckets[0].Value)
}

func TestEvaluateReport_UnknownForm(t *testing.T) {
	router := newTestRouter(t, fixtureForms(), &fakeReports{saved: map[string]store.SavedReport{}})

	rec := doJSON(t, router, http.MethodPost, "/v1/reports/evaluate", evaluateRequest{
		FormID: "ghost",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvaluateReport_MissingFormID(t *testing.T) {
	router := newTestRouter(t, fixtureForms(), &fakeReports{saved: map[string]store.SavedReport{}})

	rec := doJSON(t, router, http.MethodPost, "/v1/reports/evaluate", evaluateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluateReport_RowLimit(t *testing.T) {
	cfg := config.DefaultReportAPIConfig()
	cfg.MaxRows = 1 // fixture has two submissions
	router := newTestRouterWithConfig(t, fixtureForms(), &fakeReports{saved: map[string]store.SavedReport{}}, cfg)

	rec := doJSON(t, router, http.MethodPost, "/v1/reports/evaluate", evaluateRequest{
		FormID: "tickets",
		Config: types.ReportConfig{Metrics: []string{"amount"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "exceeds maximum of 1")
}

func TestListForms(t *testing.T) {
	router := newTestRouter(t, fixtureForms(), &fakeReports{saved: map[string]store.SavedReport{}})

	rec := doJSON(t, router, http.MethodGet, "/v1/forms/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var forms []formSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &forms))
	require.Len(t, forms, 1)
	assert.Equal(t, "tickets", forms[0].ID)
	assert.Equal(t, 2, forms[0].SubmissionCount)
}

func TestGetForm(t *testing.T) {
	router := newTestRouter(t, fixtureForms(), &fakeReports{saved: map[string]store.SavedReport{}})

	rec := doJSON(t, router, http.MethodGet, "/v1/forms/tickets", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary formSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "Tickets", summary.Title)

	rec = doJSON(t, router, http.MethodGet, "/v1/forms/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateLogic(t *testing.T) {
	router := newTestRouter(t, fixtureForms(), &fakeReports{saved: map[string]store.SavedReport{}})

	t.Run("valid expression", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/reports/validate-logic", validateLogicRequest{
			Expression:     "(1 AND 2) OR NOT 3",
			ConditionCount: 3,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var result types.ValidationResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.Valid)
		assert.ElementsMatch(t, []int{1, 2, 3}, result.Referenced)
	})

	t.Run("out-of-range reference is a payload error not an HTTP error", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/reports/validate-logic", validateLogicRequest{
			Expression:     "1 AND 5",
			ConditionCount: 3,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var result types.ValidationResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.False(t, result.Valid)
		assert.Contains(t, result.Error, "Invalid condition numbers: 5")
		assert.Contains(t, result.Error, "Use numbers 1-3")
	})
}

func TestGetFormFields(t *testing.T) {
	router := newTestRouter(t, fixtureForms(), &fakeReports{saved: map[string]store.SavedReport{}})

	rec := doJSON(t, router, http.MethodGet, "/v1/forms/tickets/fields", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fields []fieldResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	require.Len(t, fields, 2)
	assert.Equal(t, types.CategorySelect, fields[0].Category)
	assert.Equal(t, report.CoarseMetric, fields[1].Role)
}

func TestGetFieldValues(t *testing.T) {
	router := newTestRouter(t, fixtureForms(), &fakeReports{saved: map[string]store.SavedReport{}})

	rec := doJSON(t, router, http.MethodGet, "/v1/forms/tickets/fields/status/values", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var values []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &values))
	assert.Equal(t, []string{"Open", "Closed"}, values)
}

func TestSavedReportCRUD(t *testing.T) {
	reports := &fakeReports{saved: map[string]store.SavedReport{}}
	router := newTestRouter(t, fixtureForms(), reports)

	// Create
	rec := doJSON(t, router, http.MethodPost, "/v1/reports/", upsertReportRequest{
		FormID: "tickets",
		Name:   "Open tickets by status",
		Config: types.ReportConfig{Metrics: []string{"amount"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created savedReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	// Get
	rec = doJSON(t, router, http.MethodGet, "/v1/reports/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Update
	rec = doJSON(t, router, http.MethodPut, "/v1/reports/"+created.ID, upsertReportRequest{
		FormID: "tickets",
		Name:   "Renamed",
		Config: types.ReportConfig{Metrics: []string{"amount"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated savedReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed", updated.Name)

	// List
	rec = doJSON(t, router, http.MethodGet, "/v1/reports/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []savedReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	// Delete
	rec = doJSON(t, router, http.MethodDelete, "/v1/reports/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/reports/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSavedReportHandlers_MalformedID(t *testing.T) {
	reports := &fakeReports{saved: map[string]store.SavedReport{}}
	router := newTestRouter(t, fixtureForms(), reports)

	// Malformed IDs are rejected before the store sees them.
	rec := doJSON(t, router, http.MethodGet, "/v1/reports/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/v1/reports/not-a-uuid", upsertReportRequest{
		FormID: "tickets",
		Name:   "Renamed",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/v1/reports/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Well-formed but absent IDs still map to 404.
	rec = doJSON(t, router, http.MethodGet, "/v1/reports/"+string(types.NewReportID()), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReport_MissingName(t *testing.T) {
	router := newTestRouter(t, fixtureForms(), &fakeReports{saved: map[string]store.SavedReport{}})

	rec := doJSON(t, router, http.MethodPost, "/v1/reports/", upsertReportRequest{FormID: "tickets"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
