package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPResponder_Name(t *testing.T) {
	r := NewHTTPResponder(HTTPConfig{})
	assert.Equal(t, "http", r.Name())
}

func TestHTTPResponder_Respond(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "Recent events")
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "[Channel: C1] User U1 says: hi", req.Messages[1].Content)

		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "hello back"},
			Done:    true,
		})
	}))
	defer server.Close()

	r := NewHTTPResponder(HTTPConfig{Endpoint: server.URL, Model: "test-model"})
	resp, err := r.Respond(context.Background(), Request{
		Prompt:  "[Channel: C1] User U1 says: hi",
		Context: []string{"Recent events: []"},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello back", resp.Text)
}

func TestHTTPResponder_NoContextSkipsSystemMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: "ok"}})
	}))
	defer server.Close()

	r := NewHTTPResponder(HTTPConfig{Endpoint: server.URL})
	_, err := r.Respond(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
}

func TestHTTPResponder_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	r := NewHTTPResponder(HTTPConfig{Endpoint: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Respond(ctx, Request{Prompt: "hi"})
	require.Error(t, err)

	var agentErr *Error
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, ErrCodeTimeout, agentErr.Code)
	assert.True(t, IsTimeout(err))
}

func TestHTTPResponder_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(chatErrorResponse{Error: `model "nope" not found`})
	}))
	defer server.Close()

	r := NewHTTPResponder(HTTPConfig{Endpoint: server.URL, Model: "nope"})
	_, err := r.Respond(context.Background(), Request{Prompt: "hi"})

	var agentErr *Error
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, ErrCodeUnavailable, agentErr.Code)
	assert.Contains(t, agentErr.Message, "not found")
}

func TestHTTPResponder_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	r := NewHTTPResponder(HTTPConfig{Endpoint: server.URL})
	_, err := r.Respond(context.Background(), Request{Prompt: "hi"})

	var agentErr *Error
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, ErrCodeUnavailable, agentErr.Code)
}

func TestHTTPResponder_UndecodableResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	r := NewHTTPResponder(HTTPConfig{Endpoint: server.URL})
	_, err := r.Respond(context.Background(), Request{Prompt: "hi"})

	var agentErr *Error
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, ErrCodeInvalidResponse, agentErr.Code)
}
