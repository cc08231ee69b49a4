package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is the sentinel for configuration validation failures.
var ErrInvalid = errors.New("invalid configuration")

// ValidationError reports a configuration key that is missing or unusable.
type ValidationError struct {
	Key    string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Key, e.Reason)
}

// Is allows errors.Is to match against ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// ValidateCredentials checks that both workspace tokens are present.
// The check reads live values so tokens set after process start count.
func ValidateCredentials() error {
	if GetString("slack.bot_token") == "" {
		return &ValidationError{Key: "slack.bot_token", Reason: "required"}
	}
	if GetString("slack.app_token") == "" {
		return &ValidationError{Key: "slack.app_token", Reason: "required"}
	}
	return nil
}
