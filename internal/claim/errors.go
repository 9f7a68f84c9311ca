package claim

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input: a missing field, a degenerate
// polygon, a non-positive credit amount.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a named field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// AuthorizationError reports a role or ownership failure.
type AuthorizationError struct {
	ActorID string
	Reason  string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// NotFoundError reports an unknown claim or credit identifier.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ConflictError reports an illegal state transition, typically a claim
// that has already been decided.
type ConflictError struct {
	ClaimID string
	Status  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("claim %s already decided: status is %s", e.ClaimID, e.Status)
}

// RateLimitError reports that a contributor hit the daily submission cap.
type RateLimitError struct {
	ContributorID string
	Limit         int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("daily submission limit of %d reached", e.Limit)
}

// StorageError wraps an underlying persistence failure. Callers see it as
// an opaque failure; the wrapped cause is for internal logging only.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s", e.Op)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err chains to a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err chains to a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err chains to a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsRateLimited reports whether err chains to a RateLimitError.
func IsRateLimited(err error) bool {
	var re *RateLimitError
	return errors.As(err, &re)
}

// IsAuthorization reports whether err chains to an AuthorizationError.
func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}
