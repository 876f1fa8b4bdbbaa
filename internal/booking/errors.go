package booking

import (
	"errors"
	"strings"
)

var (
	// ErrMissingDate indicates the slot query carried no date.
	ErrMissingDate = errors.New("booking: date is required")
	// ErrInvalidDate indicates the date is not a real YYYY-MM-DD calendar date.
	ErrInvalidDate = errors.New("booking: invalid date format, expected YYYY-MM-DD")
	// ErrPastDate indicates the requested date lies before today in the business timezone.
	ErrPastDate = errors.New("booking: cannot book in the past")
	// ErrNotConfigured indicates the calendar or mail collaborator is missing.
	ErrNotConfigured = errors.New("booking service: collaborator is not configured")
)

// ValidationError lists the submission fields that failed validation.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "booking: invalid " + strings.Join(e.Fields, ", ")
}

// UpstreamError wraps a failed calendar or mail call.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return "booking: " + e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsClientError reports whether err should be answered with a 400.
func IsClientError(err error) bool {
	var verr *ValidationError
	return errors.Is(err, ErrMissingDate) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrPastDate) ||
		errors.As(err, &verr)
}
