package collector

import (
	"errors"
	"fmt"
)

// ErrMissingToken is returned when no web-service token is configured.
var ErrMissingToken = errors.New("no API token configured")

// AuthError means the identity call failed. It is fatal for a check cycle.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuth reports whether err is, or wraps, an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// FetchError records a per-course fetch failure. The course degrades to
// having no items for the cycle.
type FetchError struct {
	CourseID int64
	Course   string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch grades for %q (id %d): %v", e.Course, e.CourseID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// APIError is an exception payload returned by the Moodle web service.
type APIError struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("moodle %s (%s): %s", e.Exception, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("moodle %s (%s)", e.Exception, e.ErrorCode)
}
