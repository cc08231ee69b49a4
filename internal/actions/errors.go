package actions

import (
	"errors"
	"fmt"
)

// Sentinel errors for the actions package.
var (
	// ErrUnknownAction is returned when a requested action is not on
	// the allow-list.
	ErrUnknownAction = errors.New("unknown action")

	// ErrActionAlreadyExists is returned when registering a name that
	// is already in use.
	ErrActionAlreadyExists = errors.New("action already exists")

	// ErrInvalidArgs is returned when action arguments are missing or
	// malformed.
	ErrInvalidArgs = errors.New("invalid action arguments")
)

// UnknownActionError identifies the rejected action name.
type UnknownActionError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action: %s", e.Name)
}

// Is allows errors.Is to match against ErrUnknownAction.
func (e *UnknownActionError) Is(target error) bool {
	return target == ErrUnknownAction
}

// Unwrap returns the underlying sentinel error.
func (e *UnknownActionError) Unwrap() error {
	return ErrUnknownAction
}

// ActionAlreadyExistsError identifies the duplicate action name.
type ActionAlreadyExistsError struct {
	Name string
}

// Error implements the error interface.
func (e *ActionAlreadyExistsError) Error() string {
	return fmt.Sprintf("action already exists: %s", e.Name)
}

// Is allows errors.Is to match against ErrActionAlreadyExists.
func (e *ActionAlreadyExistsError) Is(target error) bool {
	return target == ErrActionAlreadyExists
}

// Unwrap returns the underlying sentinel error.
func (e *ActionAlreadyExistsError) Unwrap() error {
	return ErrActionAlreadyExists
}

// InvalidArgsError describes which argument was rejected and why.
type InvalidArgsError struct {
	Action  string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *InvalidArgsError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid arguments for action %s: %s: %v", e.Action, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid arguments for action %s: %s", e.Action, e.Message)
}

// Is allows errors.Is to match against ErrInvalidArgs.
func (e *InvalidArgsError) Is(target error) bool {
	return target == ErrInvalidArgs
}

// Unwrap returns the underlying cause or sentinel error.
func (e *InvalidArgsError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrInvalidArgs
}

// NewUnknownActionError creates an UnknownActionError for the name.
func NewUnknownActionError(name string) error {
	return &UnknownActionError{Name: name}
}

// NewActionAlreadyExistsError creates an ActionAlreadyExistsError.
func NewActionAlreadyExistsError(name string) error {
	return &ActionAlreadyExistsError{Name: name}
}

// NewInvalidArgsError creates an InvalidArgsError with the details.
func NewInvalidArgsError(action, message string, cause error) error {
	return &InvalidArgsError{
		Action:  action,
		Message: message,
		Cause:   cause,
	}
}
