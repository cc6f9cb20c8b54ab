package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/auth"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/store"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/report"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

// formSummaryResponse is the wire shape of one form in listings.
type formSummaryResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	CreatedAt       time.Time `json:"createdAt"`
	SubmissionCount int       `json:"submissionCount"`
}

func toFormSummaryResponse(summary store.FormSummary) formSummaryResponse {
	return formSummaryResponse{
		ID:              summary.ID,
		Title:           summary.Title,
		CreatedAt:       summary.CreatedAt,
		SubmissionCount: summary.SubmissionCount,
	}
}

// ListForms returns every form of the calling tenant. The report builder
// offers these as primary, join, and cross-reference sources.
func (s *ReportAPIService) ListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := s.forms.Forms(auth.TenantIDFromContext(r.Context()))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	out := make([]formSummaryResponse, 0, len(forms))
	for _, summary := range forms {
		out = append(out, toFormSummaryResponse(summary))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetForm returns one form with its submission count.
func (s *ReportAPIService) GetForm(w http.ResponseWriter, r *http.Request) {
	summary, err := s.forms.Form(auth.TenantIDFromContext(r.Context()), chi.URLParam(r, "formID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFormSummaryResponse(summary))
}

// fieldResponse is the wire shape of one form field, with both the normalized
// category and the coarse role the report builder groups pickers by.
type fieldResponse struct {
	ID       string                `json:"id"`
	Label    string                `json:"label"`
	Category types.FieldCategory   `json:"category"`
	Role     report.CoarseCategory `json:"role"`
	Options  []types.FieldOption   `json:"options,omitempty"`
}

// GetFormFields returns the normalized field descriptors of a form.
// The report builder uses the categories to drive operator and metric pickers.
func (s *ReportAPIService) GetFormFields(w http.ResponseWriter, r *http.Request) {
	fields, err := s.forms.Fields(chi.URLParam(r, "formID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	out := make([]fieldResponse, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldResponse{
			ID:       f.ID,
			Label:    f.Label,
			Category: f.Category,
			Role:     report.Classify(f),
			Options:  f.Options,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetFieldValues returns the distinct values of a field across a form's
// submissions, first-seen order. Drilldown pickers offer these as clicks.
func (s *ReportAPIService) GetFieldValues(w http.ResponseWriter, r *http.Request) {
	rows, err := s.forms.Rows(chi.URLParam(r, "formID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	values := report.UniqueValues(rows, chi.URLParam(r, "fieldID"))
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, values)
}
