package crm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	xerrors "marketplace-service/internal/pkg/errors"
)

// APIError is a non-2xx answer from the CRM.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("crm %s %s: %d %s: %s", e.Method, e.Path, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("crm %s %s: %d", e.Method, e.Path, e.Status)
}

// Unwrap classifies the failure so callers can match on xerrors sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return xerrors.ErrInvalidInput
	case http.StatusNotFound:
		return xerrors.ErrNotFound
	default:
		return xerrors.ErrUpstream
	}
}

// classifyTransport maps a transport failure onto the xerrors taxonomy.
func classifyTransport(method, path string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("crm %s %s: %w", method, path, xerrors.ErrUpstreamTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("crm %s %s: %w", method, path, xerrors.ErrUpstreamTimeout)
	}
	return fmt.Errorf("crm %s %s: %w: %v", method, path, xerrors.ErrUpstream, err)
}
