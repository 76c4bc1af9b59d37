package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error represents a backend API error.
type Error struct {
	// Code is the backend error code, when the response carried one.
	Code string `json:"code,omitempty"`

	// Message is the human-readable failure text.
	Message string `json:"message"`

	// HTTPStatus is the HTTP status code of the response.
	HTTPStatus int `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend: %s (code=%s, http=%d)", e.Message, e.Code, e.HTTPStatus)
	}
	return fmt.Sprintf("backend: %s (http=%d)", e.Message, e.HTTPStatus)
}

// IsAuth returns true if the backend rejected the credentials.
func (e *Error) IsAuth() bool {
	return e.HTTPStatus == 401 || e.HTTPStatus == 403
}

// IsServerError returns true for server-side failures.
func (e *Error) IsServerError() bool {
	return e.HTTPStatus >= 500
}

// AsError extracts *Error from an error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// parseError builds an *Error from an error response body.
func parseError(body []byte, httpStatus int) error {
	var e Error
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		e.HTTPStatus = httpStatus
		return &e
	}
	return &Error{Message: string(body), HTTPStatus: httpStatus}
}
