// Package errors provides structured CLI errors with exit codes and recovery
// suggestions, built from the client's typed errors.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/otherjamesbrown/usercycle/usercycle"
)

// ErrorCode represents a standardized error code.
type ErrorCode string

const (
	// ErrCodeServiceUnavailable indicates the API could not be reached or failed.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeAuthenticationFailed indicates the access token was rejected.
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	// ErrCodeValidationFailed indicates input validation failure.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrCodeConfiguration indicates missing or invalid configuration.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeNotFound indicates the requested resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeOperationFailed indicates a general operation failure.
	ErrCodeOperationFailed ErrorCode = "OPERATION_FAILED"
	// ErrCodeUsage indicates incorrect command usage.
	ErrCodeUsage ErrorCode = "USAGE_ERROR"
)

// Exit codes.
const (
	ExitGeneral     = 1
	ExitUsage       = 2
	ExitUnavailable = 3
)

// CLIError represents a structured CLI error with recovery suggestions.
type CLIError struct {
	Code       ErrorCode
	Message    string
	Suggestion string
	Details    string
	ExitCode   int
	Err        error
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Suggestion != "" {
		msg += "\n\nSuggestion: " + e.Suggestion
	}
	return msg
}

func (e *CLIError) Unwrap() error { return e.Err }

// NewServiceUnavailableError creates an error for an unreachable or failing API.
func NewServiceUnavailableError(endpoint string, cause error) *CLIError {
	return &CLIError{
		Code:       ErrCodeServiceUnavailable,
		Message:    "USERCycle API is unavailable",
		Details:    fmt.Sprintf("Endpoint: %s: %v", endpoint, cause),
		Suggestion: "Check network connectivity and the --host/--scheme settings, then try again.",
		ExitCode:   ExitUnavailable,
		Err:        cause,
	}
}

// NewAuthenticationError creates an error for rejected credentials.
func NewAuthenticationError(details string, cause error) *CLIError {
	return &CLIError{
		Code:       ErrCodeAuthenticationFailed,
		Message:    "Authentication failed",
		Details:    details,
		Suggestion: "Verify the access token (--access-token, USERCYCLE_AUTH_ACCESS_TOKEN or auth.access-token in the config file).",
		ExitCode:   ExitGeneral,
		Err:        cause,
	}
}

// NewConfigurationError creates an error for a client that cannot be built.
func NewConfigurationError(details string, cause error) *CLIError {
	return &CLIError{
		Code:       ErrCodeConfiguration,
		Message:    "Invalid configuration",
		Details:    details,
		Suggestion: "Set an access token with --access-token or USERCYCLE_AUTH_ACCESS_TOKEN.",
		ExitCode:   ExitUsage,
		Err:        cause,
	}
}

// NewValidationError creates an error for validation failures.
func NewValidationError(message, suggestion string) *CLIError {
	return &CLIError{
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		Details:    message,
		Suggestion: suggestion,
		ExitCode:   ExitUsage,
	}
}

// NewOperationError creates an error for operation failures.
func NewOperationError(message, suggestion string) *CLIError {
	return &CLIError{
		Code:       ErrCodeOperationFailed,
		Message:    "Operation failed",
		Details:    message,
		Suggestion: suggestion,
		ExitCode:   ExitGeneral,
	}
}

// NewUsageError creates an error for incorrect usage.
func NewUsageError(message string) *CLIError {
	return &CLIError{
		Code:       ErrCodeUsage,
		Message:    "Incorrect usage",
		Details:    message,
		Suggestion: "Run with --help for usage information.",
		ExitCode:   ExitUsage,
	}
}

// FromClientError translates an error returned by the usercycle client.
// endpoint is used in messages only. A *CLIError passes through unchanged.
func FromClientError(err error, endpoint string) *CLIError {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if stderrors.As(err, &cliErr) {
		return cliErr
	}

	if stderrors.Is(err, usercycle.ErrInvalidConfig) {
		return NewConfigurationError(err.Error(), err)
	}

	var valErr *usercycle.ValidationError
	if stderrors.As(err, &valErr) {
		e := NewValidationError(valErr.Error(), validationSuggestion(valErr.Field))
		e.Err = err
		return e
	}

	var apiErr *usercycle.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.Kind {
		case usercycle.KindUnauthorized, usercycle.KindForbidden:
			return NewAuthenticationError(fmt.Sprintf("%s (status %d)", apiErr.Kind, apiErr.StatusCode), err)
		case usercycle.KindServerError:
			return NewServiceUnavailableError(endpoint, err)
		case usercycle.KindResourceNotFound:
			return &CLIError{
				Code:       ErrCodeNotFound,
				Message:    "Resource not found",
				Details:    apiErr.Body,
				Suggestion: "Check the identifier; list events with 'usercycle events list'.",
				ExitCode:   ExitGeneral,
				Err:        err,
			}
		default:
			return &CLIError{
				Code:     ErrCodeOperationFailed,
				Message:  fmt.Sprintf("Request rejected: %s (status %d)", apiErr.Kind, apiErr.StatusCode),
				Details:  apiErr.Body,
				ExitCode: ExitGeneral,
				Err:      err,
			}
		}
	}

	if stderrors.Is(err, context.Canceled) {
		return &CLIError{
			Code:     ErrCodeOperationFailed,
			Message:  "Operation canceled",
			ExitCode: ExitGeneral,
			Err:      err,
		}
	}

	// Anything left is a transport failure.
	return NewServiceUnavailableError(endpoint, err)
}

func validationSuggestion(field string) string {
	switch field {
	case "occurred_at", "since":
		return fmt.Sprintf("Use the format %q, e.g. \"2012-04-18 10:30:00 UTC\".", "YYYY-MM-DD HH:MM:SS UTC")
	case "identity":
		return "Pass --identity with the user's identifier."
	default:
		return "Run with --help for usage information."
	}
}
