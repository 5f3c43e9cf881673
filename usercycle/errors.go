package usercycle

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Typed errors returned by the client unwrap to one of these,
// so callers can branch with errors.Is.
var (
	// ErrInvalidConfig is matched by every *ConfigError.
	ErrInvalidConfig = errors.New("usercycle: invalid configuration")

	// ErrMissingAccessToken is returned by NewClient when no access token is set.
	ErrMissingAccessToken = errors.New("usercycle: access token is required")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("usercycle: validation failed")

	ErrResourceInvalid  = errors.New("usercycle: resource invalid")
	ErrUnauthorized     = errors.New("usercycle: unauthorized")
	ErrForbidden        = errors.New("usercycle: forbidden")
	ErrResourceNotFound = errors.New("usercycle: resource not found")
	ErrMethodNotAllowed = errors.New("usercycle: method not allowed")
	ErrNotAcceptable    = errors.New("usercycle: not acceptable")
	ErrServerError      = errors.New("usercycle: server error")
	ErrUnknown          = errors.New("usercycle: unknown error")
)

// ConfigError reports a Config that cannot produce a working client.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("usercycle: invalid configuration: %s: %s", e.Field, e.Msg)
}

// Is matches ErrInvalidConfig, and ErrMissingAccessToken for the token field.
func (e *ConfigError) Is(target error) bool {
	switch target {
	case ErrInvalidConfig:
		return true
	case ErrMissingAccessToken:
		return e.Field == "access_token"
	}
	return false
}

// ValidationError reports a request argument rejected before any network call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("usercycle: invalid %s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ErrorKind classifies a failed HTTP response.
type ErrorKind string

const (
	KindResourceInvalid  ErrorKind = "ResourceInvalid"
	KindUnauthorized     ErrorKind = "Unauthorized"
	KindForbidden        ErrorKind = "Forbidden"
	KindResourceNotFound ErrorKind = "ResourceNotFound"
	KindMethodNotAllowed ErrorKind = "MethodNotAllowed"
	KindNotAcceptable    ErrorKind = "NotAcceptable"
	KindServerError      ErrorKind = "ServerError"
	KindUnknownError     ErrorKind = "UnknownError"
)

var kindSentinels = map[ErrorKind]error{
	KindResourceInvalid:  ErrResourceInvalid,
	KindUnauthorized:     ErrUnauthorized,
	KindForbidden:        ErrForbidden,
	KindResourceNotFound: ErrResourceNotFound,
	KindMethodNotAllowed: ErrMethodNotAllowed,
	KindNotAcceptable:    ErrNotAcceptable,
	KindServerError:      ErrServerError,
	KindUnknownError:     ErrUnknown,
}

// KindForStatus maps an HTTP status code onto the service's error taxonomy.
// Statuses outside the known set are KindUnknownError.
func KindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindResourceInvalid
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindResourceNotFound
	case http.StatusMethodNotAllowed:
		return KindMethodNotAllowed
	case http.StatusNotAcceptable:
		return KindNotAcceptable
	case http.StatusInternalServerError:
		return KindServerError
	default:
		return KindUnknownError
	}
}

// APIError is returned for every non-2xx response. Body holds the raw
// response text, unparsed.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
}

func newAPIError(status int, body string) *APIError {
	return &APIError{
		Kind:       KindForStatus(status),
		StatusCode: status,
		Body:       body,
	}
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("usercycle: %s (status %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("usercycle: %s (status %d): %s", e.Kind, e.StatusCode, e.Body)
}

// Unwrap returns the sentinel for the error's kind.
func (e *APIError) Unwrap() error {
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		return sentinel
	}
	return ErrUnknown
}
