package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/auth"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/store"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/report"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

// evaluateRequest is the body of POST /v1/reports/evaluate.
type evaluateRequest struct {
	FormID    string                  `json:"formId" validate:"required"`
	Config    types.ReportConfig      `json:"config"`
	Drilldown []types.DrilldownFilter `json:"drilldown,omitempty"`
}

// evaluateResponse wraps the planner result with its memoization key.
type evaluateResponse struct {
	report.Result
	Fingerprint string `json:"fingerprint"`
}

// EvaluateReport runs the full report pipeline over a form's submissions.
func (s *ReportAPIService) EvaluateReport(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	fields, err := s.forms.Fields(req.FormID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	rowSets, err := s.forms.RowSets(req.FormID, req.Config)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	for formID, rows := range rowSets {
		if len(rows) > s.cfg.MaxRows {
			writeError(w, http.StatusBadRequest,
				fmt.Errorf("form %s has %d submissions, exceeds maximum of %d", formID, len(rows), s.cfg.MaxRows))
			return
		}
	}

	stack := report.NewDrilldownStack(req.Drilldown...)
	result, err := report.Evaluate(report.Request{
		Fields:        fields,
		Rows:          rowSets,
		PrimaryFormID: req.FormID,
		Config:        req.Config,
		Drilldown:     stack,
		Now:           time.Now().UTC(),
	})
	if err != nil {
		// Limit violations are client errors: the report declaration asks
		// for more than one evaluation is allowed to chew through.
		if errors.Is(err, types.ErrTooManyConditions) || errors.Is(err, types.ErrTooManyRows) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Debug("report evaluated",
		"tenant_id", auth.TenantIDFromContext(r.Context()),
		"form_id", req.FormID,
		"mode", result.Mode,
		"used_fallback", result.UsedFallback)

	writeJSON(w, http.StatusOK, evaluateResponse{
		Result:      result,
		Fingerprint: report.Fingerprint(req.Config, stack),
	})
}

// validateLogicRequest is the body of POST /v1/reports/validate-logic.
type validateLogicRequest struct {
	Expression     string `json:"expression"`
	ConditionCount int    `json:"conditionCount" validate:"min=0"`
}

// ValidateLogic checks a manual filter logic expression without evaluating a
// report. Validation problems are payload, not HTTP errors: the UI shows them
// inline while the user types.
func (s *ReportAPIService) ValidateLogic(w http.ResponseWriter, r *http.Request) {
	var req validateLogicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// Over-length expressions surface as a validation payload like any other
	// parse problem, so the UI shows them inline.
	writeJSON(w, http.StatusOK, report.ValidateExpression(req.Expression, req.ConditionCount))
}

// savedReportResponse is the wire shape of a saved report.
type savedReportResponse struct {
	ID        string             `json:"id"`
	FormID    string             `json:"formId"`
	Name      string             `json:"name"`
	Config    types.ReportConfig `json:"config"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// upsertReportRequest is the body of report create and update calls.
type upsertReportRequest struct {
	FormID string             `json:"formId" validate:"required"`
	Name   string             `json:"name" validate:"required"`
	Config types.ReportConfig `json:"config"`
}

// ListReports returns every saved report of the calling tenant.
func (s *ReportAPIService) ListReports(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())

	reports, err := s.reports.List(tenantID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	out := make([]savedReportResponse, 0, len(reports))
	for _, saved := range reports {
		out = append(out, toSavedReportResponse(saved))
	}
	writeJSON(w, http.StatusOK, out)
}

// reportIDParam validates the {reportID} path parameter. A malformed ID can
// never name a stored report, so it fails before touching the store.
func reportIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := types.ParseReportID(chi.URLParam(r, "reportID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid report id: %w", err))
		return "", false
	}
	return string(id), true
}

// GetReport returns one saved report.
func (s *ReportAPIService) GetReport(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())

	reportID, ok := reportIDParam(w, r)
	if !ok {
		return
	}
	saved, err := s.reports.Get(tenantID, reportID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSavedReportResponse(saved))
}

// CreateReport persists a new saved report definition.
func (s *ReportAPIService) CreateReport(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())

	var req upsertReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	saved, err := s.reports.Create(tenantID, req.FormID, req.Name, req.Config)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.logger.Info("report created", "tenant_id", tenantID, "report_id", saved.ID, "form_id", saved.FormID)
	writeJSON(w, http.StatusCreated, toSavedReportResponse(saved))
}

// UpdateReport rewrites an existing saved report definition.
func (s *ReportAPIService) UpdateReport(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())

	reportID, ok := reportIDParam(w, r)
	if !ok {
		return
	}
	var req upsertReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	saved, err := s.reports.Update(tenantID, reportID, req.Name, req.Config)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSavedReportResponse(saved))
}

// DeleteReport removes a saved report.
func (s *ReportAPIService) DeleteReport(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())

	reportID, ok := reportIDParam(w, r)
	if !ok {
		return
	}
	if err := s.reports.Delete(tenantID, reportID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toSavedReportResponse(saved store.SavedReport) savedReportResponse {
	return savedReportResponse{
		ID:        saved.ID,
		FormID:    saved.FormID,
		Name:      saved.Name,
		Config:    saved.Config,
		CreatedAt: saved.CreatedAt,
		UpdatedAt: saved.UpdatedAt,
	}
}
