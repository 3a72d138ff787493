// internal/websocket/errors.go
package websocket

import "errors"

var (
	ErrMissingAccount  = errors.New("account is required")
	ErrAccountMismatch = errors.New("account does not match token")
	ErrHubStopped      = errors.New("hub is not running")
)
