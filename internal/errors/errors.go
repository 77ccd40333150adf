package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrIdeaNotFound is returned when an idea is not found.
	ErrIdeaNotFound = errors.New("idea not found")
	// ErrForbidden is returned when the requester does not own the resource.
	ErrForbidden = errors.New("you do not have permission to perform this action")
	// ErrUnauthorized is returned when no valid credential was supplied.
	ErrUnauthorized = errors.New("authentication credentials were not provided")
	// ErrInvalidCredentials is returned when username or password is wrong or the account is inactive.
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid, revoked or expired.
	ErrInvalidRefreshToken = errors.New("token is invalid or expired")
	// ErrInvalidUID is returned when an activation uid cannot be decoded or names no user.
	ErrInvalidUID = errors.New("invalid user's uid")
	// ErrInvalidToken is returned when an activation token does not match or has expired.
	ErrInvalidToken = errors.New("invalid activation token")
	// ErrAlreadyActive is returned when activating an account that is already active.
	ErrAlreadyActive = errors.New("given token is stale")
)

const (
	detailNotFound     = "Not found."
	detailForbidden    = "You do not have permission to perform this action."
	detailUnauthorized = "Authentication credentials were not provided."
	detailCredentials  = "No active account found with the given credentials"
	detailRefresh      = "Token is invalid or expired"
	detailStale        = "Given token is stale"
	detailInternal     = "A server error occurred."

	// NonFieldErrors is the key used for errors that do not belong to one input field.
	NonFieldErrors = "non_field_errors"
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// ValidationError collects field-keyed input errors.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates a validation error with a single message.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any message was recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns e when it holds messages and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// HTTPError represents an HTTP error with status code and response body.
type HTTPError struct {
	StatusCode int
	Body       interface{}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d", e.StatusCode)
}

// NewHTTPError creates a new HTTP error with a detail body.
func NewHTTPError(statusCode int, detail, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Body:       ErrorResponse{Detail: detail, Code: code},
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return &HTTPError{StatusCode: http.StatusBadRequest, Body: validationErr.Fields}
	}

	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrIdeaNotFound):
		return NewHTTPError(http.StatusNotFound, detailNotFound, "NOT_FOUND")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, detailForbidden, "PERMISSION_DENIED")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, detailUnauthorized, "NOT_AUTHENTICATED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, detailCredentials, "NO_ACTIVE_ACCOUNT")
	case errors.Is(err, ErrInvalidRefreshToken):
		return NewHTTPError(http.StatusUnauthorized, detailRefresh, "TOKEN_NOT_VALID")
	case errors.Is(err, ErrInvalidUID):
		return &HTTPError{StatusCode: http.StatusBadRequest, Body: map[string][]string{"uid": {"Invalid user's UID "}}}
	case errors.Is(err, ErrInvalidToken):
		return &HTTPError{StatusCode: http.StatusBadRequest, Body: map[string][]string{"token": {"Invalid activation Token"}}}
	case errors.Is(err, ErrAlreadyActive):
		return NewHTTPError(http.StatusForbidden, detailStale, "PERMISSION_DENIED")
	default:
		return NewHTTPError(http.StatusInternalServerError, detailInternal, "INTERNAL_ERROR")
	}
}

// Message extracts a human readable message from an HTTP error body,
// preferring the detail and falling back to the first field message.
func Message(httpErr *HTTPError) string {
	switch body := httpErr.Body.(type) {
	case ErrorResponse:
		return body.Detail
	case map[string][]string:
		keys := make([]string, 0, len(body))
		for k := range body {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if len(body[k]) > 0 {
				return body[k][0]
			}
		}
	}
	return detailInternal
}
