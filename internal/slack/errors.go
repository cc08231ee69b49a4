package slack

import (
	"errors"
	"fmt"
)

// Error definitions.
var (
	ErrConnection      = errors.New("slack connection failed")
	ErrInvalidResponse = errors.New("invalid response from slack")
	ErrNoToken         = errors.New("missing slack token")
)

// ConnectionError wraps a transport-level failure. The caller may
// retry with backoff; the connection state is unchanged.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("slack %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is matches the ErrConnection sentinel.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// APIError is a Web API call that came back ok=false. Code is the
// platform error string, e.g. "invalid_auth" or "channel_not_found".
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack api %s: %s", e.Method, e.Code)
}
