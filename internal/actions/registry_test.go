package actions

import (
	"context"
	"errors"
	"testing"
)

// mockAction is a configurable fake for registry tests.
type mockAction struct {
	name        string
	description string
	execFn      func(ctx context.Context, args map[string]any) (Result, error)
}

func (m *mockAction) Name() string        { return m.name }
func (m *mockAction) Description() string { return m.description }
func (m *mockAction) Execute(ctx context.Context, args map[string]any) (Result, error) {
	if m.execFn == nil {
		return Result{}, nil
	}
	return m.execFn(ctx, args)
}

func TestRegistry(t *testing.T) {
	t.Run("NewRegistry", func(t *testing.T) {
		r := NewRegistry()
		if r == nil {
			t.Fatal("expected non-nil registry")
		}
		if r.Len() != 0 {
			t.Errorf("expected empty registry, got %d actions", r.Len())
		}
	})

	t.Run("Register and Get", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(&mockAction{name: "test"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, ok := r.Get("test")
		if !ok {
			t.Fatal("expected action to be found")
		}
		if got.Name() != "test" {
			t.Errorf("expected name 'test', got %q", got.Name())
		}

		_, ok = r.Get("nonexistent")
		if ok {
			t.Error("expected nonexistent action to not be found")
		}
	})

	t.Run("Register duplicate", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(&mockAction{name: "dup"}); err != nil {
			t.Fatalf("first register failed: %v", err)
		}

		err := r.Register(&mockAction{name: "dup"})
		if !errors.Is(err, ErrActionAlreadyExists) {
			t.Errorf("expected ErrActionAlreadyExists, got %v", err)
		}
	})

	t.Run("Register nil action", func(t *testing.T) {
		r := NewRegistry()
		err := r.Register(nil)
		if !errors.Is(err, ErrInvalidArgs) {
			t.Errorf("expected ErrInvalidArgs, got %v", err)
		}
	})

	t.Run("Register empty name", func(t *testing.T) {
		r := NewRegistry()
		err := r.Register(&mockAction{name: ""})
		if !errors.Is(err, ErrInvalidArgs) {
			t.Errorf("expected ErrInvalidArgs, got %v", err)
		}
	})

	t.Run("Execute", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister(&mockAction{
			name: "echo",
			execFn: func(ctx context.Context, args map[string]any) (Result, error) {
				text, _ := stringArg(args, "text")
				return Result{Content: text}, nil
			},
		})

		result, err := r.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if result.Content != "hi" {
			t.Errorf("Content = %q, want hi", result.Content)
		}
	})

	t.Run("Execute unknown action", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Execute(context.Background(), "missing", nil)
		if !errors.Is(err, ErrUnknownAction) {
			t.Errorf("expected ErrUnknownAction, got %v", err)
		}

		var unknownErr *UnknownActionError
		if !errors.As(err, &unknownErr) {
			t.Fatalf("error type = %T", err)
		}
		if unknownErr.Name != "missing" {
			t.Errorf("Name = %q, want missing", unknownErr.Name)
		}
	})

	t.Run("Names and List", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister(&mockAction{name: "a"})
		r.MustRegister(&mockAction{name: "b"})

		if len(r.Names()) != 2 {
			t.Errorf("Names() = %v, want 2 entries", r.Names())
		}
		if len(r.List()) != 2 {
			t.Errorf("List() returned %d actions, want 2", len(r.List()))
		}
	})
}
