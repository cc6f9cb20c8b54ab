package types

import "github.com/google/uuid"

// ReportID identifies a saved report definition.
// String alias enables type safety while maintaining JSON string serialization.
type ReportID string

// NewReportID generates a UUIDv7 report identifier.
// Time-ordered IDs ensure sequential inserts cluster in B-tree pages.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewReportID() ReportID {
	return ReportID(uuid.Must(uuid.NewV7()).String())
}

// ParseReportID validates and converts a string to ReportID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseReportID(s string) (ReportID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return ReportID(s), nil
}
