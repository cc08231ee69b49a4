package agent

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"
)

// mockCmdBuilder records invocations and substitutes the spawned
// process.
type mockCmdBuilder struct {
	program []string
	calls   [][]string
	mu      sync.Mutex
}

func (m *mockCmdBuilder) build(ctx context.Context, name string, args ...string) *exec.Cmd {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string{name}, args...))
	m.mu.Unlock()

	return exec.CommandContext(ctx, m.program[0], m.program[1:]...)
}

func TestCommandResponder_Name(t *testing.T) {
	r := NewCommandResponder(CommandConfig{})
	if r.Name() != "command" {
		t.Errorf("Name() = %q, want command", r.Name())
	}
}

func TestCommandResponder_Defaults(t *testing.T) {
	r := NewCommandResponder(CommandConfig{})
	if r.command != DefaultCommand {
		t.Errorf("command = %q, want %q", r.command, DefaultCommand)
	}
	if len(r.args) != 1 || r.args[0] != "--print" {
		t.Errorf("args = %v, want [--print]", r.args)
	}
}

func TestCommandResponder_Respond(t *testing.T) {
	// cat echoes stdin, so the response is the composed input.
	builder := &mockCmdBuilder{program: []string{"cat"}}
	r := NewCommandResponder(CommandConfig{Command: "agent-cli", Args: []string{"--flag"}})
	r.cmdBuilder = builder.build

	resp, err := r.Respond(context.Background(), Request{
		Prompt:  "[Channel: C1] User U1 says: hello",
		Context: []string{"Recent events: []"},
	})
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	if !strings.Contains(resp.Text, "Recent events: []") {
		t.Errorf("context not forwarded on stdin: %q", resp.Text)
	}
	if !strings.HasSuffix(strings.TrimRight(resp.Text, "\n"), "User U1 says: hello") {
		t.Errorf("prompt should be the last stdin block: %q", resp.Text)
	}

	builder.mu.Lock()
	defer builder.mu.Unlock()
	if len(builder.calls) != 1 {
		t.Fatalf("spawned %d commands, want 1", len(builder.calls))
	}
	if builder.calls[0][0] != "agent-cli" || builder.calls[0][1] != "--flag" {
		t.Errorf("command line = %v", builder.calls[0])
	}
}

func TestCommandResponder_NoContext(t *testing.T) {
	builder := &mockCmdBuilder{program: []string{"cat"}}
	r := NewCommandResponder(CommandConfig{Command: "agent-cli"})
	r.cmdBuilder = builder.build

	resp, err := r.Respond(context.Background(), Request{Prompt: "just the prompt"})
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if resp.Text != "just the prompt" {
		t.Errorf("Text = %q, want the bare prompt", resp.Text)
	}
}

func TestCommandResponder_Timeout(t *testing.T) {
	builder := &mockCmdBuilder{program: []string{"sleep", "5"}}
	r := NewCommandResponder(CommandConfig{Command: "agent-cli"})
	r.cmdBuilder = builder.build

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Respond(ctx, Request{Prompt: "hello"})
	if err == nil {
		t.Fatal("want timeout error")
	}

	var agentErr *Error
	if !errors.As(err, &agentErr) {
		t.Fatalf("error type = %T", err)
	}
	if agentErr.Code != ErrCodeTimeout {
		t.Errorf("Code = %s, want %s", agentErr.Code, ErrCodeTimeout)
	}
	if !IsTimeout(err) {
		t.Error("IsTimeout should report true")
	}
}

func TestCommandResponder_ExecFailure(t *testing.T) {
	builder := &mockCmdBuilder{program: []string{"sh", "-c", "echo boom >&2; exit 3"}}
	r := NewCommandResponder(CommandConfig{Command: "agent-cli"})
	r.cmdBuilder = builder.build

	_, err := r.Respond(context.Background(), Request{Prompt: "hello"})
	if err == nil {
		t.Fatal("want exec error")
	}

	var agentErr *Error
	if !errors.As(err, &agentErr) {
		t.Fatalf("error type = %T", err)
	}
	if agentErr.Code != ErrCodeExecFailed {
		t.Errorf("Code = %s, want %s", agentErr.Code, ErrCodeExecFailed)
	}
	if !strings.Contains(agentErr.Message, "boom") {
		t.Errorf("Message = %q, want stderr content", agentErr.Message)
	}
	if IsTimeout(err) {
		t.Error("IsTimeout should report false")
	}
}
