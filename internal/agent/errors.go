package agent

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode classifies agent failures.
type ErrorCode string

const (
	ErrCodeTimeout         ErrorCode = "TIMEOUT"             // deadline expired
	ErrCodeUnavailable     ErrorCode = "SERVICE_UNAVAILABLE" // backend unreachable
	ErrCodeExecFailed      ErrorCode = "EXEC_FAILED"         // subprocess exited non-zero
	ErrCodeInvalidResponse ErrorCode = "INVALID_RESPONSE"    // undecodable backend answer
	ErrCodeUnknown         ErrorCode = "UNKNOWN"             // unclassified
)

// Error is a structured agent failure.
type Error struct {
	Code    ErrorCode `json:"code"`
	Agent   string    `json:"agent"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Agent, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a structured agent failure.
func NewError(code ErrorCode, agent, message string, err error) *Error {
	return &Error{Code: code, Agent: agent, Message: message, Err: err}
}

// IsTimeout reports whether err is a deadline-expiry failure.
func IsTimeout(err error) bool {
	var agentErr *Error
	if errors.As(err, &agentErr) {
		return agentErr.Code == ErrCodeTimeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}
