package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrUnrecognizedFormat indicates no vendor extractor applies to a file.
	// The file is skipped and reported; persisted rows are untouched.
	ErrUnrecognizedFormat = errors.New("unrecognized format")

	// ErrUnparsableTime indicates a single time token failed conversion.
	// Callers drop the affected lap and continue with the session.
	ErrUnparsableTime = errors.New("unparsable time")

	// ErrStructuralMismatch indicates an expected report section is absent.
	// Extractors return partial or nil data rather than failing the batch.
	ErrStructuralMismatch = errors.New("structural mismatch")

	// ErrDuplicateSession indicates the session already exists in the table.
	// This is a no-op skip signal, not a failure.
	ErrDuplicateSession = errors.New("duplicate session")

	// ErrExternalService indicates an external lookup (weather) failed.
	// Callers substitute a safe estimate; never fatal.
	ErrExternalService = errors.New("external service failure")

	// ErrNoInput indicates no recognizable input was found at all.
	// This is the only condition that halts a batch before any writes.
	ErrNoInput = errors.New("no recognizable input")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)
