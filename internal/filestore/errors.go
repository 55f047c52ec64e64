package filestore

import "errors"

var (
	// ErrNotFound signals that no record exists for the identity.
	ErrNotFound = errors.New("file not found")
	// ErrConflict signals that a concurrent writer won the race for the
	// same identity.
	ErrConflict = errors.New("version conflict")
	// ErrValidation signals malformed name, destination or tag input.
	ErrValidation = errors.New("invalid input")
	// ErrMetadataInconsistency signals that blob and metadata state have
	// diverged: one half of a two-step sequence completed and the other
	// failed. The resource needs reconciliation; the operation neither
	// definitely failed nor definitely succeeded.
	ErrMetadataInconsistency = errors.New("metadata inconsistency")
)
