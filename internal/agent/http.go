package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Defaults for the HTTP responder.
const (
	DefaultEndpoint = "http://localhost:11434"
	DefaultModel    = "llama3.2"
)

// HTTPConfig configures an Ollama-compatible chat backend.
type HTTPConfig struct {
	Endpoint string
	Model    string
}

// HTTPResponder talks to an Ollama-compatible /api/chat endpoint.
// The request deadline comes from the caller's context.
type HTTPResponder struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// NewHTTPResponder creates an HTTP responder.
func NewHTTPResponder(cfg HTTPConfig) *HTTPResponder {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &HTTPResponder{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{},
	}
}

// Name returns the responder name.
func (r *HTTPResponder) Name() string {
	return "http"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

type chatErrorResponse struct {
	Error string `json:"error"`
}

// Respond sends one non-streaming chat completion.
func (r *HTTPResponder) Respond(ctx context.Context, req Request) (*Response, error) {
	messages := make([]chatMessage, 0, 2)
	if len(req.Context) > 0 {
		messages = append(messages, chatMessage{
			Role:    "system",
			Content: strings.Join(req.Context, "\n\n"),
		})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(chatRequest{
		Model:    r.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return nil, NewError(ErrCodeUnknown, r.Name(), "failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, NewError(ErrCodeUnknown, r.Name(), "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewError(ErrCodeTimeout, r.Name(), "request timed out", ctx.Err())
		}
		return nil, NewError(ErrCodeUnavailable, r.Name(), "backend unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(ErrCodeInvalidResponse, r.Name(), "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, r.handleErrorResponse(resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, NewError(ErrCodeInvalidResponse, r.Name(), "undecodable response", err)
	}

	return &Response{Text: chatResp.Message.Content}, nil
}

func (r *HTTPResponder) handleErrorResponse(statusCode int, body []byte) error {
	detail := ""
	var errResp chatErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		detail = errResp.Error
	}

	switch statusCode {
	case http.StatusNotFound:
		if detail == "" {
			detail = "model not found"
		}
		return NewError(ErrCodeUnavailable, r.Name(), detail, nil)
	case http.StatusServiceUnavailable:
		return NewError(ErrCodeUnavailable, r.Name(), "backend unavailable", nil)
	default:
		if detail == "" {
			detail = fmt.Sprintf("status %d", statusCode)
		}
		return NewError(ErrCodeInvalidResponse, r.Name(), detail, nil)
	}
}
