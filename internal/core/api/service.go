// Package api provides the HTTP handlers of the report API.
package api

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/config"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/core/store"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

// SubmissionStore is the form-data surface the handlers consume,
// implemented by *store.FormStore.
type SubmissionStore interface {
	Forms(tenantID string) ([]store.FormSummary, error)
	Form(tenantID, formID string) (store.FormSummary, error)
	Fields(formID string) ([]types.FieldDescriptor, error)
	Rows(formID string) ([]types.Row, error)
	RowSets(primaryFormID string, cfg types.ReportConfig) (map[string][]types.Row, error)
}

// ReportStore is the saved-report surface the handlers consume,
// implemented by *store.ReportStore.
type ReportStore interface {
	Get(tenantID, reportID string) (store.SavedReport, error)
	List(tenantID string) ([]store.SavedReport, error)
	Create(tenantID, formID, name string, cfg types.ReportConfig) (store.SavedReport, error)
	Update(tenantID, reportID, name string, cfg types.ReportConfig) (store.SavedReport, error)
	Delete(tenantID, reportID string) error
}

// ReportAPIService implements the report HTTP API.
// Thin orchestration layer delegating to the store and report packages.
type ReportAPIService struct {
	forms    SubmissionStore
	reports  ReportStore
	cfg      *config.ReportAPIConfig
	validate *validator.Validate
	logger   *slog.Logger
}

// NewReportAPIService creates the service instance with dependencies.
func NewReportAPIService(forms SubmissionStore, reports ReportStore, cfg *config.ReportAPIConfig, logger *slog.Logger) (*ReportAPIService, error) {
	if forms == nil {
		return nil, fmt.Errorf("forms store cannot be nil")
	}
	if reports == nil {
		return nil, fmt.Errorf("report store cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReportAPIService{
		forms:    forms,
		reports:  reports,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}, nil
}
