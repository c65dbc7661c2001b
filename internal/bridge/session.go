package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingEvery      = (wsPongWait * 9) / 10
	wsMaxMessageSize = 1 << 20
	wsSendBuffer     = 32
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The host is a local editor process; origins are not meaningful.
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// session is one connected host.
type session struct {
	conn      *websocket.Conn
	remote    string
	send      chan Envelope
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

func newSession(conn *websocket.Conn, remote string, logger *slog.Logger) *session {
	return &session{
		conn:   conn,
		remote: remote,
		send:   make(chan Envelope, wsSendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// push queues env. When the buffer is full the oldest message is dropped.
func (s *session) push(env Envelope) {
	select {
	case s.send <- env:
		return
	default:
	}
	select {
	case <-s.send:
		s.logger.Warn("host session send buffer full, dropping oldest message", "remote", s.remote)
	default:
	}
	select {
	case s.send <- env:
	default:
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// writeLoop owns all writes to the connection. Closing the connection on
// exit unblocks readLoop.
func (s *session) writeLoop(ctx context.Context) {
	defer s.conn.Close()
	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "provider shutting down"))
			return
		case env := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := s.conn.WriteJSON(env); err != nil {
				s.logger.Debug("host session write failed", "remote", s.remote, "error", err)
				return
			}
		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop decodes inbound envelopes and passes them to handle in order.
// It returns when the connection fails or closes.
func (s *session) readLoop(ctx context.Context, handle func(context.Context, Envelope)) {
	s.conn.SetReadLimit(wsMaxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("host session closed unexpectedly", "remote", s.remote, "error", err)
			}
			return
		}
		// Any inbound traffic proves the host is alive.
		s.conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.push(errorEnvelope("", invalidArgument(errors.New("malformed envelope: "+err.Error()))))
			continue
		}
		handle(ctx, env)
	}
}
