package actions

import (
	"context"
	"sync"
)

// Registry manages the action allow-list.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry creates a new empty action registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
	}
}

// Register adds an action to the registry.
// Returns ErrActionAlreadyExists if the name is already in use.
func (r *Registry) Register(action Action) error {
	if action == nil {
		return NewInvalidArgsError("registry", "action cannot be nil", nil)
	}

	name := action.Name()
	if name == "" {
		return NewInvalidArgsError("registry", "action name cannot be empty", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[name]; exists {
		return NewActionAlreadyExistsError(name)
	}

	r.actions[name] = action
	return nil
}

// MustRegister adds an action and panics on error. Used for wiring
// the built-in allow-list during initialization.
func (r *Registry) MustRegister(action Action) {
	if err := r.Register(action); err != nil {
		panic(err)
	}
}

// Get retrieves an action by name.
func (r *Registry) Get(name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[name]
	return action, ok
}

// List returns all registered actions.
func (r *Registry) List() []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Action, 0, len(r.actions))
	for _, action := range r.actions {
		result = append(result, action)
	}
	return result
}

// Names returns the names of all registered actions.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.actions))
	for name := range r.actions {
		result = append(result, name)
	}
	return result
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// Execute runs an action by name.
// Returns ErrUnknownAction if the name is not on the allow-list.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (Result, error) {
	action, ok := r.Get(name)
	if !ok {
		return Result{}, NewUnknownActionError(name)
	}

	return action.Execute(ctx, args)
}
