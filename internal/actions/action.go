// Package actions defines the allow-listed platform operations that
// can be invoked by name through the admin API.
package actions

import "context"

// Action is one invocable platform operation.
type Action interface {
	// Name returns the unique identifier for this action.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Execute runs the action with the given arguments. The context
	// carries timeout/cancellation control.
	Execute(ctx context.Context, args map[string]any) (Result, error)
}

// Result is the outcome of an action execution.
type Result struct {
	// Content is the main output, typically a short text summary.
	Content string `json:"content"`

	// Metadata carries structured output for API consumers.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// stringArg extracts a string argument.
func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// intArg extracts an integer argument. JSON-decoded numbers arrive as
// float64, so both forms are accepted.
func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
