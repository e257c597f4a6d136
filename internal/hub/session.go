package hub

import (
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Session is one live client connection tracked by a hub instance. It is
// ephemeral: created on upgrade, destroyed on close or transport error.
type Session struct {
	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
	addr     string
	joinedAt time.Time
	closed   bool // guarded by hub.mutex
	limiter  *rateLimiter
}

// NewSession wraps an upgraded connection for the given hub. The send
// channel is buffered so broadcasts never block the hub loop.
func NewSession(conn *websocket.Conn, h *Hub, addr string) *Session {
	if conn != nil {
		conn.SetReadLimit(h.opts.MaxMessageSize)
	}
	return &Session{
		conn:     conn,
		send:     make(chan []byte, 256),
		hub:      h,
		addr:     addr,
		joinedAt: time.Now().UTC(),
		limiter:  newRateLimiter(h.opts.RateLimitBurst, h.opts.RateLimitRefill),
	}
}

// JoinedAt returns when the session was created.
func (s *Session) JoinedAt() time.Time { return s.joinedAt }

// SendChan exposes the outbound queue for reading, used by tests and the
// write pump.
func (s *Session) SendChan() <-chan []byte { return s.send }

func (s *Session) setupReadConnection() {
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.hub.log.Warn("set read deadline failed", "addr", s.addr, "err", err)
	}
	s.conn.SetPongHandler(func(string) error {
		if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			s.hub.log.Warn("set read deadline in pong handler failed", "addr", s.addr, "err", err)
		}
		return nil
	})
}

// handleReadError logs the error by category and reports whether the read
// loop should stop.
func (s *Session) handleReadError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		s.hub.log.Warn("frame exceeded maximum size", "addr", s.addr, "limit", s.hub.opts.MaxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		s.hub.log.Info("session disconnected", "addr", s.addr, "err", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		s.hub.log.Info("session connection closed", "addr", s.addr, "err", err)
	default:
		s.hub.log.Warn("websocket read error", "addr", s.addr, "err", err)
	}
	return true
}

// readPump relays inbound frames to the hub loop until the connection
// fails or closes. A transport error removes only this session; the hub
// and its other sessions are untouched.
func (s *Session) readPump() {
	defer func() {
		s.hub.Unregister(s)
		if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
			s.hub.log.Warn("close in read pump failed", "addr", s.addr, "err", err)
		}
	}()

	s.setupReadConnection()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if s.handleReadError(err) {
				return
			}
			continue
		}

		if !s.limiter.allow() {
			s.hub.log.Warn("rate limit exceeded, frame dropped", "addr", s.addr)
			continue
		}

		s.hub.Inbound(s, payload)
	}
}

// writePump drains the send queue onto the wire, one JSON payload per
// frame, and keeps the connection alive with periodic pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
			s.hub.log.Warn("close in write pump failed", "addr", s.addr, "err", err)
		}
	}()

	for {
		select {
		case payload, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.hub.log.Warn("set write deadline failed", "addr", s.addr, "err", err)
				return
			}
			if !ok {
				// Hub removed the session; tell the peer we are done.
				if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
					s.hub.log.Warn("write close message failed", "addr", s.addr, "err", err)
				}
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !isExpectedCloseError(err) {
					s.hub.log.Warn("write failed", "addr", s.addr, "err", err)
				}
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.hub.log.Warn("set write deadline for ping failed", "addr", s.addr, "err", err)
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
