package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

// SavedReport is a persisted report definition owned by a tenant.
type SavedReport struct {
	ID        string
	TenantID  string
	FormID    string
	Name      string
	Config    types.ReportConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReportStore persists saved report definitions.
type ReportStore struct {
	queries Queries
}

// NewReportStore creates a store over loaded named queries.
func NewReportStore(queries Queries) *ReportStore {
	return &ReportStore{queries: queries}
}

// reportRow mirrors the reports table.
type reportRow struct {
	ReportID   string `db:"report_id"`
	TenantID   string `db:"tenant_id"`
	FormID     string `db:"form_id"`
	Name       string `db:"name"`
	ConfigJSON string `db:"config_json"`
	CreatedAt  string `db:"created_at"`
	UpdatedAt  string `db:"updated_at"`
}

func (r reportRow) toSavedReport() (SavedReport, error) {
	var cfg types.ReportConfig
	if err := json.Unmarshal([]byte(r.ConfigJSON), &cfg); err != nil {
		return SavedReport{}, fmt.Errorf("report %s has malformed config: %w", r.ReportID, err)
	}
	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return SavedReport{}, fmt.Errorf("report %s has malformed created_at: %w", r.ReportID, err)
	}
	updatedAt, err := time.Parse(time.RFC3339, r.UpdatedAt)
	if err != nil {
		return SavedReport{}, fmt.Errorf("report %s has malformed updated_at: %w", r.ReportID, err)
	}
	return SavedReport{
		ID:        r.ReportID,
		TenantID:  r.TenantID,
		FormID:    r.FormID,
		Name:      r.Name,
		Config:    cfg,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// Get loads one saved report scoped to a tenant.
func (s *ReportStore) Get(tenantID, reportID string) (SavedReport, error) {
	var row reportRow
	err := s.queries.Get("get-report", &row, tenantID, reportID)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedReport{}, types.ErrReportNotFound
	}
	if err != nil {
		return SavedReport{}, fmt.Errorf("load report %s: %w", reportID, err)
	}
	return row.toSavedReport()
}

// List returns every saved report of a tenant in creation order.
func (s *ReportStore) List(tenantID string) ([]SavedReport, error) {
	var rows []reportRow
	if err := s.queries.Select("list-reports", &rows, tenantID); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	reports := make([]SavedReport, 0, len(rows))
	for _, row := range rows {
		saved, err := row.toSavedReport()
		if err != nil {
			return nil, err
		}
		reports = append(reports, saved)
	}
	return reports, nil
}

// Create persists a new saved report and returns it with the generated ID.
func (s *ReportStore) Create(tenantID, formID, name string, cfg types.ReportConfig) (SavedReport, error) {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return SavedReport{}, fmt.Errorf("encode report config: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	saved := SavedReport{
		ID:        string(types.NewReportID()),
		TenantID:  tenantID,
		FormID:    formID,
		Name:      name,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.queries.Exec("insert-report",
		saved.ID, tenantID, formID, name, string(configJSON),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return SavedReport{}, fmt.Errorf("insert report: %w", err)
	}
	return saved, nil
}

// Update rewrites the name and config of an existing report.
func (s *ReportStore) Update(tenantID, reportID, name string, cfg types.ReportConfig) (SavedReport, error) {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return SavedReport{}, fmt.Errorf("encode report config: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	res, err := s.queries.Exec("update-report",
		name, string(configJSON), now.Format(time.RFC3339), tenantID, reportID)
	if err != nil {
		return SavedReport{}, fmt.Errorf("update report %s: %w", reportID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return SavedReport{}, types.ErrReportNotFound
	}

	return s.Get(tenantID, reportID)
}

// Delete removes a saved report.
func (s *ReportStore) Delete(tenantID, reportID string) error {
	res, err := s.queries.Exec("delete-report", tenantID, reportID)
	if err != nil {
		return fmt.Errorf("delete report %s: %w", reportID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrReportNotFound
	}
	return nil
}
