package apperr

import "errors"

// Sentinel errors shared by every layer. Repos and services wrap them with
// fmt.Errorf("...: %w", ...); handlers map them to HTTP statuses with
// errors.Is.
var (
	// ErrParse marks a payload that cannot be read as delimited UTF-8 text.
	// Fatal for an ingestion: no rows are written.
	ErrParse = errors.New("payload is not parseable")
	// ErrValidation marks a single malformed row or request body.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a duplicate (inn, year) consolidated record.
	ErrConflict = errors.New("record already exists")
	// ErrNotFound marks a missing or non-owned entity.
	ErrNotFound = errors.New("not found")
	// ErrSizeLimit marks an upload payload over the configured ceiling.
	ErrSizeLimit = errors.New("payload exceeds size limit")
	// ErrUnauthorized marks a missing or invalid caller identity.
	ErrUnauthorized = errors.New("unauthorized")
)
