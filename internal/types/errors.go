package types

import "errors"

// Sentinel errors for report engine operations.
//
// The engine never returns errors for malformed user input (bad expressions,
// unparseable values); those surface as ValidationResult or safe defaults.
// These sentinels cover programmer misuse and collaborator failures.
var (
	// ErrTooManyConditions indicates a filter list exceeds MaxFilterConditions.
	ErrTooManyConditions = errors.New("too many filter conditions")

	// ErrExpressionTooLong indicates a logic expression exceeds MaxExpressionLength.
	ErrExpressionTooLong = errors.New("filter logic expression too long")

	// ErrTooManyRows indicates a row set exceeds MaxJoinRows on one join side.
	ErrTooManyRows = errors.New("row set exceeds maximum join size")

	// ErrUnknownForm indicates a referenced form has no loaded metadata or rows.
	ErrUnknownForm = errors.New("unknown form")

	// ErrReportNotFound indicates a saved report ID does not exist.
	ErrReportNotFound = errors.New("report not found")
)
