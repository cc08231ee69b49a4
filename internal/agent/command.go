package agent

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Defaults for the command responder.
const (
	DefaultCommand = "claude"
)

// DefaultArgs are the default command arguments.
var DefaultArgs = []string{"--print"}

// CommandConfig configures a subprocess-backed responder.
type CommandConfig struct {
	Command string
	Args    []string
}

// CommandResponder runs an external command per request: context and
// prompt go in on stdin, the reply comes back on stdout.
type CommandResponder struct {
	command string
	args    []string

	// cmdBuilder lets tests substitute the spawned process.
	cmdBuilder func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewCommandResponder creates a command responder.
func NewCommandResponder(cfg CommandConfig) *CommandResponder {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.Args == nil {
		cfg.Args = DefaultArgs
	}

	return &CommandResponder{
		command:    cfg.Command,
		args:       cfg.Args,
		cmdBuilder: exec.CommandContext,
	}
}

// Name returns the responder name.
func (r *CommandResponder) Name() string {
	return "command"
}

// Respond runs one subprocess invocation bounded by ctx.
func (r *CommandResponder) Respond(ctx context.Context, req Request) (*Response, error) {
	cmd := r.cmdBuilder(ctx, r.command, r.args...)
	cmd.Stdin = strings.NewReader(composeInput(req))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewError(ErrCodeTimeout, r.Name(), "command timed out", ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, NewError(ErrCodeExecFailed, r.Name(), msg, err)
	}

	return &Response{Text: stdout.String()}, nil
}

// composeInput lays out the stdin document: context blocks first,
// blank-line separated, the prompt last.
func composeInput(req Request) string {
	if len(req.Context) == 0 {
		return req.Prompt
	}

	var b strings.Builder
	for _, block := range req.Context {
		b.WriteString(block)
		b.WriteString("\n\n")
	}
	b.WriteString(req.Prompt)
	return b.String()
}
