package xerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Common reusable application errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized access")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid stage transition")
	ErrConflict          = errors.New("conflict: resource already exists")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrInternal          = errors.New("internal server error")
	ErrUpstream          = errors.New("upstream service error")
	ErrUpstreamTimeout   = errors.New("upstream service timed out")
	ErrBusy              = errors.New("resource busy")
	ErrNotConfigured     = errors.New("feature not configured")
)

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ClientError is an error whose message is written for API callers.
// Only these reach a response body; any other error text stays in the logs.
type ClientError struct {
	kind error
	msg  string
}

func (e *ClientError) Error() string {
	return e.kind.Error() + ": " + e.msg
}

func (e *ClientError) Unwrap() error {
	return e.kind
}

// NewClientError builds a client-facing error of the given sentinel kind.
func NewClientError(kind error, format string, args ...any) error {
	return &ClientError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Invalid builds a validation error carrying a client-facing reason.
func Invalid(format string, args ...any) error {
	return NewClientError(ErrInvalidInput, format, args...)
}

// ClientMessage returns the caller-safe message in err's chain, if there is one.
func ClientMessage(err error) (string, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Error(), true
	}
	return "", false
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// HTTPStatus maps an error chain onto the status code returned to clients.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrBusy), errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a stable, machine-readable name for the error class.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicateEntry):
		return "conflict"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_stage_transition"
	case errors.Is(err, ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return "upstream_timeout"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	default:
		return "internal_error"
	}
}
