// Package store loads form metadata, submissions, and saved report
// definitions from the database into the planner's value types.
//
// The store is the normalization boundary: raw field_type strings from
// form_fields collapse into the five evaluation categories here, and
// values_json payloads decode into generic row maps. Everything downstream
// of the store works on types.FieldDescriptor and types.Row only.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/report"
	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

// Queries is the named-query surface the store needs, implemented by
// *db.Queries.
type Queries interface {
	Get(name string, dest interface{}, args ...interface{}) error
	Select(name string, dest interface{}, args ...interface{}) error
	Exec(name string, args ...interface{}) (sql.Result, error)
}

// FormStore reads form schemas and submissions.
type FormStore struct {
	queries Queries
}

// NewFormStore creates a store over loaded named queries.
func NewFormStore(queries Queries) *FormStore {
	return &FormStore{queries: queries}
}

// formRow mirrors the forms table.
type formRow struct {
	FormID    string `db:"form_id"`
	TenantID  string `db:"tenant_id"`
	Title     string `db:"title"`
	CreatedAt string `db:"created_at"`
}

// fieldRow mirrors the form_fields table.
type fieldRow struct {
	FieldID     string `db:"field_id"`
	FormID      string `db:"form_id"`
	Label       string `db:"label"`
	FieldType   string `db:"field_type"`
	OptionsJSON string `db:"options_json"`
}

// submissionRow mirrors the submissions table.
type submissionRow struct {
	SubmissionID string `db:"submission_id"`
	FormID       string `db:"form_id"`
	ValuesJSON   string `db:"values_json"`
	SubmittedAt  string `db:"submitted_at"`
}

// FormSummary describes a form for listings, with its submission volume.
type FormSummary struct {
	ID              string
	Title           string
	CreatedAt       time.Time
	SubmissionCount int
}

func (r formRow) toFormSummary(count int) (FormSummary, error) {
	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return FormSummary{}, fmt.Errorf("form %s has malformed created_at: %w", r.FormID, err)
	}
	return FormSummary{
		ID:              r.FormID,
		Title:           r.Title,
		CreatedAt:       createdAt,
		SubmissionCount: count,
	}, nil
}

// submissionCount returns how many submissions a form holds.
func (s *FormStore) submissionCount(formID string) (int, error) {
	var count int
	if err := s.queries.Get("count-form-submissions", &count, formID); err != nil {
		return 0, fmt.Errorf("count submissions for form %s: %w", formID, err)
	}
	return count, nil
}

// Forms returns every form of a tenant in creation order.
func (s *FormStore) Forms(tenantID string) ([]FormSummary, error) {
	var rows []formRow
	if err := s.queries.Select("list-forms", &rows, tenantID); err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}

	forms := make([]FormSummary, 0, len(rows))
	for _, row := range rows {
		count, err := s.submissionCount(row.FormID)
		if err != nil {
			return nil, err
		}
		summary, err := row.toFormSummary(count)
		if err != nil {
			return nil, err
		}
		forms = append(forms, summary)
	}
	return forms, nil
}

// Form loads one form scoped to a tenant.
// Unknown form IDs yield types.ErrUnknownForm.
func (s *FormStore) Form(tenantID, formID string) (FormSummary, error) {
	var row formRow
	err := s.queries.Get("get-form", &row, tenantID, formID)
	if errors.Is(err, sql.ErrNoRows) {
		return FormSummary{}, types.ErrUnknownForm
	}
	if err != nil {
		return FormSummary{}, fmt.Errorf("load form %s: %w", formID, err)
	}

	count, err := s.submissionCount(formID)
	if err != nil {
		return FormSummary{}, err
	}
	return row.toFormSummary(count)
}

// Fields returns the field descriptors of a form with categories normalized.
// Unknown form IDs yield types.ErrUnknownForm.
func (s *FormStore) Fields(formID string) ([]types.FieldDescriptor, error) {
	var rows []fieldRow
	if err := s.queries.Select("get-form-fields", &rows, formID); err != nil {
		return nil, fmt.Errorf("load fields for form %s: %w", formID, err)
	}
	if len(rows) == 0 {
		return nil, types.ErrUnknownForm
	}

	fields := make([]types.FieldDescriptor, 0, len(rows))
	for _, r := range rows {
		var options []types.FieldOption
		if r.OptionsJSON != "" && r.OptionsJSON != "[]" {
			if err := json.Unmarshal([]byte(r.OptionsJSON), &options); err != nil {
				return nil, fmt.Errorf("field %s has malformed options: %w", r.FieldID, err)
			}
		}
		fields = append(fields, types.FieldDescriptor{
			ID:           r.FieldID,
			Label:        r.Label,
			Category:     report.NormalizeCategory(r.FieldType),
			Options:      options,
			SourceFormID: r.FormID,
		})
	}
	return fields, nil
}

// Rows returns all submissions of a form decoded into planner rows.
func (s *FormStore) Rows(formID string) ([]types.Row, error) {
	var subs []submissionRow
	if err := s.queries.Select("get-form-submissions", &subs, formID); err != nil {
		return nil, fmt.Errorf("load submissions for form %s: %w", formID, err)
	}

	rows := make([]types.Row, 0, len(subs))
	for _, sub := range subs {
		values := make(map[string]any)
		if sub.ValuesJSON != "" {
			if err := json.Unmarshal([]byte(sub.ValuesJSON), &values); err != nil {
				return nil, fmt.Errorf("submission %s has malformed values: %w", sub.SubmissionID, err)
			}
		}
		submittedAt, err := time.Parse(time.RFC3339, sub.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("submission %s has malformed timestamp: %w", sub.SubmissionID, err)
		}
		rows = append(rows, types.Row{
			ID:           sub.SubmissionID,
			SourceFormID: sub.FormID,
			Values:       values,
			SubmittedAt:  submittedAt,
		})
	}
	return rows, nil
}

// RowSets loads the row sets of every form a report touches: the primary
// form plus the joined or cross-referenced form when configured.
func (s *FormStore) RowSets(primaryFormID string, cfg types.ReportConfig) (map[string][]types.Row, error) {
	sets := make(map[string][]types.Row)

	primary, err := s.Rows(primaryFormID)
	if err != nil {
		return nil, err
	}
	sets[primaryFormID] = primary

	var linked string
	switch {
	case cfg.Join != nil:
		linked = cfg.Join.SecondaryFormID
	case cfg.CrossRef != nil:
		linked = cfg.CrossRef.TargetFormID
	}
	if linked != "" && linked != primaryFormID {
		// A linked form with no submissions loads as an empty set; the
		// planner degrades with a warning rather than failing here.
		rows, err := s.Rows(linked)
		if err != nil {
			return nil, err
		}
		sets[linked] = rows
	}

	return sets, nil
}
