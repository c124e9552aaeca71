package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrFetch is matched by every FetchError.
	ErrFetch = errors.New("backend fetch failed")
	// ErrSubmission is matched by every SubmissionError.
	ErrSubmission = errors.New("backend rejected submission")
)

// Validation codes surfaced to clients.
const (
	CodeMissingAccount     = "missing-account"
	CodeNoItems            = "no-items"
	CodeMissingProduct     = "missing-product"
	CodeInvalidRange       = "invalid-range"
	CodeInvalidDate        = "invalid-date"
	CodeInvalidSummaryType = "invalid-summary-type"
	CodeInvalidProduct     = "invalid-product"
	CodeUnknownField       = "unknown-field"
)

// ValidationError is a recoverable client-side check failure. The caller keeps
// its state and asks the user to correct the input.
type ValidationError struct {
	Code   string
	Fields map[string]string
}

// NewValidationError builds a ValidationError for code.
func NewValidationError(code string) *ValidationError {
	return &ValidationError{Code: code}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation: " + e.Code
	}
	return fmt.Sprintf("validation: %s %v", e.Code, e.Fields)
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IsValidationCode reports whether err is a ValidationError carrying code.
func IsValidationCode(err error, code string) bool {
	var verr *ValidationError
	return errors.As(err, &verr) && verr.Code == code
}

// FetchError wraps a failed read against the backend. Prior state should be
// left untouched and the read may be retried.
type FetchError struct {
	Op     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch %s: backend status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFetch) hold.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// SubmissionError reports that the backend refused or never received a create
// request. Status is zero when the backend was unreachable.
type SubmissionError struct {
	Kind   string
	Status int
	Detail string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("submit %s: backend status %d: %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("submit %s: %v", e.Kind, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSubmission) hold.
func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmission
}
