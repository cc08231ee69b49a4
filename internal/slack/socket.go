package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tether/pkg/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed between inbound frames before the read is abandoned.
	// The server pings well inside this window.
	pongWait = 90 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 1024 * 1024 // 1MB

	handshakeTimeout = 15 * time.Second
)

// errServerDisconnect marks a server-initiated refresh; the socket
// redials with a fresh URL without burning a retry.
var errServerDisconnect = errors.New("server requested disconnect")

// Handler receives each envelope carrying an envelope_id, called
// synchronously from the read loop so acks keep delivery order.
type Handler func(Envelope)

// session is one connection generation; redials mint a new one. The id
// correlates log lines across the pumps of a single generation.
type session struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Socket is a socket mode connection: it mints a wss URL via the Web
// API, pumps envelopes to the handler and redials on failures. Close
// is terminal; a restarted engine builds a new Socket.
type Socket struct {
	client  *Client
	policy  *ReconnectPolicy
	handler Handler
	log     *zerolog.Logger

	mu     sync.Mutex
	sess   *session
	closed chan struct{}
	once   sync.Once
}

// NewSocket creates a socket transport. The handler must ack every
// envelope it wants to keep off the redelivery path.
func NewSocket(client *Client, handler Handler) *Socket {
	return &Socket{
		client:  client,
		policy:  DefaultReconnectPolicy(),
		handler: handler,
		log:     logger.Component("socket"),
		closed:  make(chan struct{}),
	}
}

// Connect opens a fresh socket mode connection.
func (s *Socket) Connect(ctx context.Context) error {
	wssURL, err := s.client.ConnectionsOpen(ctx)
	if err != nil {
		var connErr *ConnectionError
		if errors.As(err, &connErr) {
			return err
		}
		return &ConnectionError{Op: "connections.open", Err: err}
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wssURL, nil)
	if err != nil {
		return &ConnectionError{Op: "dial", Err: err}
	}

	sess := &session{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.sess = sess
	s.mu.Unlock()

	s.log.Debug().Str("conn_id", sess.id).Msg("Socket connection opened")
	go s.writePump(sess)
	return nil
}

// Listen pumps envelopes until Close or ctx cancellation. Connection
// drops and server-initiated refreshes redial per the backoff policy;
// only an exhausted policy returns an error.
func (s *Socket) Listen(ctx context.Context) error {
	for {
		err := s.readLoop()
		if s.isClosed() || ctx.Err() != nil {
			return nil
		}

		if errors.Is(err, errServerDisconnect) {
			s.log.Info().Msg("Server requested socket refresh")
		} else {
			s.log.Warn().Err(err).Msg("Socket read failed, redialing")
		}

		if err := s.redial(ctx); err != nil {
			if s.isClosed() || ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (s *Socket) redial(ctx context.Context) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if !s.policy.ShouldRetry(attempt) {
			return &ConnectionError{Op: "redial", Err: fmt.Errorf("retries exhausted: %w", lastErr)}
		}

		delay := s.policy.NextDelay(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		case <-s.closed:
			return errors.New("socket closed")
		}

		if err := s.Connect(ctx); err != nil {
			lastErr = err
			s.log.Warn().Err(err).Int("attempt", attempt+1).Msg("Socket redial failed")
			continue
		}
		return nil
	}
}

// readLoop pumps frames from the current connection until it fails.
func (s *Socket) readLoop() error {
	sess := s.session()
	if sess == nil {
		return errors.New("socket not connected")
	}
	defer func() {
		close(sess.done)
		sess.conn.Close()
	}()

	conn := sess.conn
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Error().Err(err).Str("conn_id", sess.id).Msg("Socket read error")
			}
			return err
		}

		if err := s.handleFrame(message); err != nil {
			return err
		}
	}
}

// handleFrame routes one inbound frame.
func (s *Socket) handleFrame(message []byte) error {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		s.log.Error().Err(err).Msg("Failed to parse socket frame")
		return nil
	}

	switch env.Type {
	case EnvelopeHello:
		s.log.Info().Msg("Socket mode connection established")
		return nil

	case EnvelopeDisconnect:
		reason := ""
		if m := env.PayloadMap(); m != nil {
			reason, _ = m["reason"].(string)
		}
		s.log.Debug().Str("reason", reason).Msg("Disconnect envelope received")
		return errServerDisconnect

	default:
		if env.EnvelopeID == "" {
			s.log.Debug().Str("type", env.Type).Msg("Frame without envelope id dropped")
			return nil
		}
		s.handler(env)
		return nil
	}
}

// Ack acknowledges an envelope. Acks are queued on the ordered write
// path, so acks leave in delivery order.
func (s *Socket) Ack(env Envelope) error {
	data, err := json.Marshal(map[string]string{"envelope_id": env.EnvelopeID})
	if err != nil {
		return fmt.Errorf("encode ack: %w", err)
	}
	return s.enqueue(data)
}

func (s *Socket) enqueue(data []byte) error {
	sess := s.session()
	if sess == nil {
		return errors.New("socket not connected")
	}
	select {
	case sess.send <- data:
		return nil
	case <-sess.done:
		return errors.New("socket closed")
	}
}

// writePump serializes writes for one connection and keeps it pinged.
func (s *Socket) writePump(sess *session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sess.conn.Close()
	}()

	for {
		select {
		case message := <-sess.send:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.log.Error().Err(err).Msg("Socket write error")
				return
			}

		case <-ticker.C:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-sess.done:
			return
		}
	}
}

// Close tears the connection down. Listen returns nil after Close.
func (s *Socket) Close() error {
	s.once.Do(func() {
		close(s.closed)
		if sess := s.session(); sess != nil {
			sess.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			sess.conn.Close()
		}
	})
	return nil
}

func (s *Socket) session() *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

func (s *Socket) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
