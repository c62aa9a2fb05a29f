package service

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or rejected input attributed to a
// single field. Bad credentials and login throttling use this shape on
// the email field on purpose: the caller cannot tell an unknown account,
// a wrong password and a throttled key apart.
type ValidationError struct {
	Field    string
	Messages []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s", e.Field)
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field string, messages ...string) *ValidationError {
	return &ValidationError{Field: field, Messages: messages}
}

// Failure strings surfaced by login. The credentials message is shared
// by the unknown-email and wrong-password paths (anti-enumeration).
const (
	MsgFailedCredentials = "These credentials do not match our records."
	MsgEmailRequired     = "The email field is required."
	MsgEmailInvalid      = "The email field must be a valid email address."
	MsgPasswordRequired  = "The password field is required."
	MsgThrottled         = "Too many login attempts. Please try again in %d seconds."
)

// ErrUnauthenticated is returned when no valid session token accompanies
// a request that requires one.
var ErrUnauthenticated = errors.New("unauthenticated")

// Captioner outcomes. The pipeline branches on these with errors.Is and
// errors.As; anything else falls through to the generic internal error.
var (
	// ErrCaptionerRateLimited means the captioning service throttled us.
	ErrCaptionerRateLimited = errors.New("captioner rate limit exceeded")

	// ErrCaptionerUnavailable means the captioning service could not be
	// reached at all.
	ErrCaptionerUnavailable = errors.New("captioner unavailable")
)

// CaptionerError is a captioner-side failure that is neither throttling
// nor a connectivity problem (bad request, server error, malformed
// response body).
type CaptionerError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *CaptionerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("captioner error: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("captioner error: %s", e.Message)
}
