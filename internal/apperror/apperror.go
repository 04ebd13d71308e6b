// Package apperror defines the typed error taxonomy shared by every layer.
//
// The service layer returns these instead of raw errors so the HTTP and MCP
// boundaries can map each failure kind to a distinct status/code without
// string matching. The distinction matters to callers:
//
//   - ErrUnauthenticated → the credential was rejected; the user can fix it
//     by signing in again
//   - ErrUnavailable     → the identity provider could not be reached; the
//     caller may retry
//   - ErrUnknownTool     → the client asked for a tool we don't serve
//   - ErrInvalidArgument → a field failed validation (bad shape or range)
//   - ErrStorage         → the profile store failed; retryable, but never
//     silently treated as "profile defaulted"
//
// Infrastructure failure must never look like "access denied" — that is why
// ErrUnauthenticated and ErrUnavailable are separate roots.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnavailable     = errors.New("unavailable")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrStorage         = errors.New("storage failure")
)

type AppError struct {
	Err     error  // taxonomy root (one of the sentinels above)
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// InvalidArgument returns an AppError for a field that failed validation.
// The field name is carried so responses can identify which input was bad.
func InvalidArgument(field, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidArgument,
		Message: message,
		Field:   field,
	}
}

// Unauthenticated returns an AppError for a rejected credential.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// Unavailable returns an AppError for an unreachable or misbehaving
// identity provider. Callers should retry rather than re-authenticate.
func Unavailable(message string) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: message,
	}
}

// UnknownTool returns an AppError for a tool name this server doesn't serve.
func UnknownTool(name string) *AppError {
	return &AppError{
		Err:     ErrUnknownTool,
		Message: fmt.Sprintf("unknown tool: %s", name),
	}
}

// Storage wraps a persistence-layer fault. The underlying error stays on the
// chain for logging; the message is what callers see.
func Storage(op string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w during %s: %v", ErrStorage, op, err),
		Message: fmt.Sprintf("storage failure during %s", op),
	}
}

// Code returns the stable machine-readable code for an error, walking the
// chain with errors.Is. Unrecognized errors report "internal_error".
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "authentication_error"
	case errors.Is(err, ErrUnavailable):
		return "verification_unavailable"
	case errors.Is(err, ErrUnknownTool):
		return "unknown_tool"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}
