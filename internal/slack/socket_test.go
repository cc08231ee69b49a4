package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// socketFixture wires an API server minting ws URLs to a websocket
// server driven by serve, mirroring the two-step socket mode connect.
func socketFixture(t *testing.T, serve func(conn *websocket.Conn, connNum int32)) (*Client, *int32) {
	t.Helper()

	var upgrader websocket.Upgrader
	var connCount int32

	wsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		serve(conn, atomic.AddInt32(&connCount, 1))
	}))
	t.Cleanup(wsServer.Close)

	wsURL := "ws" + strings.TrimPrefix(wsServer.URL, "http")
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/apps.connections.open", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "url": wsURL})
	}))
	t.Cleanup(apiServer.Close)

	return NewClient(Config{
		BotToken: "xoxb-test",
		AppToken: "xapp-test",
		APIBase:  apiServer.URL,
	}), &connCount
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, env map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(env))
}

func TestSocket_DeliversAndAcks(t *testing.T) {
	acks := make(chan string, 1)
	client, _ := socketFixture(t, func(conn *websocket.Conn, _ int32) {
		writeEnvelope(t, conn, map[string]any{"type": "hello"})
		writeEnvelope(t, conn, map[string]any{
			"envelope_id": "env-1",
			"type":        "events_api",
			"payload": map[string]any{
				"event": map[string]any{
					"type": "message", "channel": "C1", "user": "U1",
					"text": "hi", "ts": "1724300000.000100",
				},
			},
		})

		var ack map[string]string
		if err := conn.ReadJSON(&ack); err == nil {
			acks <- ack["envelope_id"]
		}
		conn.ReadMessage() // hold until the client closes
	})

	envs := make(chan Envelope, 1)
	var s *Socket
	s = NewSocket(client, func(env Envelope) {
		require.NoError(t, s.Ack(env))
		envs <- env
	})
	defer s.Close()

	require.NoError(t, s.Connect(context.Background()))
	listenDone := make(chan error, 1)
	go func() { listenDone <- s.Listen(context.Background()) }()

	select {
	case env := <-envs:
		assert.Equal(t, "env-1", env.EnvelopeID)
		assert.Equal(t, EnvelopeEventsAPI, env.Type)
		event, ok := env.MessageEvent()
		require.True(t, ok)
		assert.Equal(t, "hi", event.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for envelope")
	}

	select {
	case id := <-acks:
		assert.Equal(t, "env-1", id)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ack")
	}

	s.Close()
	select {
	case err := <-listenDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return after Close")
	}
}

func TestSocket_RedialsAfterServerDisconnect(t *testing.T) {
	client, connCount := socketFixture(t, func(conn *websocket.Conn, n int32) {
		if n == 1 {
			writeEnvelope(t, conn, map[string]any{
				"type":    "disconnect",
				"payload": map[string]any{"reason": "refresh_requested"},
			})
			return
		}
		writeEnvelope(t, conn, map[string]any{
			"envelope_id": "env-2",
			"type":        "events_api",
			"payload":     map[string]any{"event": map[string]any{"type": "message", "ts": "1.2"}},
		})
		conn.ReadMessage()
	})

	envs := make(chan Envelope, 1)
	s := NewSocket(client, func(env Envelope) { envs <- env })
	s.policy = &ReconnectPolicy{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   2.0,
	}
	defer s.Close()

	require.NoError(t, s.Connect(context.Background()))
	go s.Listen(context.Background())

	select {
	case env := <-envs:
		assert.Equal(t, "env-2", env.EnvelopeID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for envelope after redial")
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(connCount))
}

func TestSocket_CloseStopsListen(t *testing.T) {
	client, _ := socketFixture(t, func(conn *websocket.Conn, _ int32) {
		writeEnvelope(t, conn, map[string]any{"type": "hello"})
		conn.ReadMessage()
	})

	s := NewSocket(client, func(Envelope) {})
	require.NoError(t, s.Connect(context.Background()))

	listenDone := make(chan error, 1)
	go func() { listenDone <- s.Listen(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Close())

	select {
	case err := <-listenDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return after Close")
	}
}

func TestSocket_ConnectFailsWithoutServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(Config{BotToken: "xoxb-test", AppToken: "xapp-test", APIBase: server.URL})
	s := NewSocket(client, func(Envelope) {})

	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
}
