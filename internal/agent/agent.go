// Package agent defines the processing capability: something that
// takes one inbound message plus recent context and produces a reply.
package agent

import "context"

// Request carries the composed prompt for the current message and the
// serialized context blocks, oldest first.
type Request struct {
	Prompt  string
	Context []string
}

// Response is the agent's reply. Empty or whitespace-only text means
// the agent chose to stay silent; the caller decides what that means.
type Response struct {
	Text string
}

// Responder produces exactly one response per request. The context
// carries the dispatch deadline; implementations must honor it.
type Responder interface {
	Name() string
	Respond(ctx context.Context, req Request) (*Response, error)
}
