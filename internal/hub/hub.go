//go:generate go run go.uber.org/mock/mockgen -source=hub.go -destination=../mocks/mock_message_log.go -package=mocks
package hub

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/sitewise/chatrelay/internal/errs"
	"github.com/sitewise/chatrelay/internal/models"
)

// MessageLog is the durable append-only store the hub persists chat
// messages to. Implementations must be safe for concurrent use by many
// hub instances.
type MessageLog interface {
	Append(ctx context.Context, msg models.Message) (models.Message, error)
	ListBySite(ctx context.Context, siteID string) ([]models.Message, error)
}

// Options configures a Hub. Zero values fall back to sane defaults.
type Options struct {
	Log             *slog.Logger
	Messages        MessageLog
	Reply           ReplyGenerator
	MaxMessageSize  int64
	RateLimitBurst  int
	RateLimitRefill time.Duration
}

func (o *Options) applyDefaults() {
	if o.Log == nil {
		o.Log = slog.Default()
	}
	if o.Reply == nil {
		o.Reply = EchoReply{}
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 4096
	}
	if o.RateLimitBurst <= 0 {
		o.RateLimitBurst = 5
	}
	if o.RateLimitRefill <= 0 {
		o.RateLimitRefill = time.Second
	}
}

type inboundEvent struct {
	session *Session
	payload []byte
}

// Hub owns the live session set for one site. All membership changes and
// protocol handling run on the single Run goroutine, one event to
// completion (persistence included) before the next; the mutex exists so
// State can be read from HTTP goroutines and so sends can race safely with
// removal.
type Hub struct {
	siteID   string
	log      *slog.Logger
	messages MessageLog
	reply    ReplyGenerator
	opts     Options

	sessions     map[*Session]bool
	lastActivity *time.Time

	register   chan *Session
	unregister chan *Session
	inbound    chan inboundEvent

	mutex  sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// State is a point-in-time snapshot of hub liveness.
type State struct {
	SiteID            string  `json:"siteId"`
	ActiveConnections int     `json:"activeConnections"`
	LastActivity      *string `json:"lastActivity"`
}

// New creates a hub for the site. Call Run in its own goroutine before
// registering sessions.
func New(siteID string, opts Options) *Hub {
	opts.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		siteID:     siteID,
		log:        opts.Log.With("site_id", siteID),
		messages:   opts.Messages,
		reply:      opts.Reply,
		opts:       opts,
		sessions:   make(map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		inbound:    make(chan inboundEvent),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// SiteID returns the site this hub owns.
func (h *Hub) SiteID() string { return h.siteID }

// Register adds the session to the live set. The hub sends the ack event
// and starts the session pumps.
func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.ctx.Done():
	}
}

// Unregister removes the session from the live set. Safe to call for
// sessions already removed.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.ctx.Done():
	}
}

// Inbound hands a raw frame from the session to the hub event loop.
func (h *Hub) Inbound(s *Session, payload []byte) {
	select {
	case h.inbound <- inboundEvent{session: s, payload: payload}:
	case <-h.ctx.Done():
	}
}

// Run is the hub's event loop. Each branch runs to completion before the
// next event is taken, which is what keeps the session set and protocol
// handling consistent without per-handler locking.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownSessions()
			return

		case s := <-h.register:
			if s == nil {
				h.log.Warn("nil session registration skipped")
				continue
			}
			h.addSession(s)

		case s := <-h.unregister:
			h.removeSession(s, "unregistered")

		case ev := <-h.inbound:
			h.touchActivity()
			h.handleFrame(ev.session, ev.payload)
		}
	}
}

func (h *Hub) addSession(s *Session) {
	h.mutex.Lock()
	s.closed = false
	h.sessions[s] = true
	now := time.Now().UTC()
	h.lastActivity = &now
	count := len(h.sessions)
	h.mutex.Unlock()

	h.log.Info("session joined", "addr", s.addr, "active", count)

	if s.conn != nil {
		h.wg.Add(2)
		go func() {
			defer h.wg.Done()
			s.writePump()
		}()
		go func() {
			defer h.wg.Done()
			s.readPump()
		}()
	}

	// Ack goes to the new connection only, never broadcast.
	h.safeSend(s, encodeEvent(ackEvent(h.siteID, now)))
}

// removeSession drops a session from the live set. Idempotent: removing a
// session that is already gone is a no-op.
func (h *Hub) removeSession(s *Session, reason string) {
	h.mutex.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.sessions, s)
	s.closed = true
	count := len(h.sessions)
	h.mutex.Unlock()

	// Close the channel after releasing the lock.
	close(s.send)
	h.log.Info("session left", "addr", s.addr, "reason", reason, "active", count)
}

func (h *Hub) touchActivity() {
	h.mutex.Lock()
	now := time.Now().UTC()
	h.lastActivity = &now
	h.mutex.Unlock()
}

func (h *Hub) handleFrame(s *Session, payload []byte) {
	frame, err := parseInbound(payload)
	if err != nil {
		var pErr *errs.ProtocolError
		if !errors.As(err, &pErr) {
			pErr = &errs.ProtocolError{Reason: "Invalid JSON"}
		}
		h.log.Debug("malformed frame", "addr", s.addr, "err", err)
		h.safeSend(s, encodeEvent(errorEvent(pErr.Reason)))
		return
	}

	switch frame.Type {
	case TypeChat:
		h.handleChat(s, frame.Content)
	case TypeHistory:
		h.handleHistory(s)
	default:
		h.safeSend(s, encodeEvent(errorEvent("Unknown message type: "+frame.Type)))
	}
}

// handleChat runs the chat state machine for one submission: persist the
// user message, generate the reply, persist it, then broadcast the ordered
// pair to every live session including the originator.
func (h *Hub) handleChat(s *Session, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		h.safeSend(s, encodeEvent(errorEvent("Message content cannot be empty")))
		return
	}

	userMsg, err := h.messages.Append(h.ctx, models.Message{
		MsgID:   uuid.NewString(),
		SiteID:  h.siteID,
		Role:    models.RoleUser,
		Content: content,
	})
	if err != nil {
		h.log.Error("user message persist failed", "addr", s.addr, "err", err)
		h.safeSend(s, encodeEvent(errorEvent("Failed to process message")))
		return
	}

	replyContent, err := h.reply.Generate(h.ctx, content)
	if err != nil {
		h.log.Error("reply generation failed", "addr", s.addr, "err", err)
		h.safeSend(s, encodeEvent(errorEvent("Failed to process message")))
		return
	}

	assistantMsg, err := h.messages.Append(h.ctx, models.Message{
		MsgID:   uuid.NewString(),
		SiteID:  h.siteID,
		Role:    models.RoleAssistant,
		Content: replyContent,
	})
	if err != nil {
		h.log.Error("assistant message persist failed", "addr", s.addr, "err", err)
		h.safeSend(s, encodeEvent(errorEvent("Failed to process message")))
		return
	}

	h.broadcast(encodeEvents(messageEvent(userMsg), messageEvent(assistantMsg)))
}

func (h *Hub) handleHistory(s *Session) {
	messages, err := h.messages.ListBySite(h.ctx, h.siteID)
	if err != nil {
		h.log.Error("history fetch failed", "addr", s.addr, "err", err)
		h.safeSend(s, encodeEvent(errorEvent("Failed to fetch message history")))
		return
	}
	h.safeSend(s, encodeEvent(historyEvent(messages)))
}

// broadcast delivers the payload to a stable snapshot of the live set. A
// failed delivery never halts the remaining deliveries; failing sessions
// are removed afterwards so membership self-heals.
func (h *Hub) broadcast(payload []byte) {
	snapshot := h.sessionSnapshot()

	var failed []*Session
	for _, s := range snapshot {
		if !h.safeSend(s, payload) {
			failed = append(failed, s)
		}
	}

	for _, s := range failed {
		h.removeSession(s, "delivery failed")
	}
}

func (h *Hub) sessionSnapshot() []*Session {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return lo.Keys(h.sessions)
}

// safeSend queues the payload for one session without blocking. It reports
// false for sessions that are gone, closed, or whose buffer is full.
func (h *Hub) safeSend(s *Session, payload []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Warn("recovered from send on closed session", "panic", r)
			sent = false
		}
	}()

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.sessions[s]; !exists || s.closed {
		return false
	}

	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// State returns a point-in-time read of hub liveness with no side effects.
func (h *Hub) State() State {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var last *string
	if h.lastActivity != nil {
		formatted := h.lastActivity.Format(time.RFC3339)
		last = &formatted
	}
	return State{
		SiteID:            h.siteID,
		ActiveConnections: len(h.sessions),
		LastActivity:      last,
	}
}

func (h *Hub) shutdownSessions() {
	h.mutex.Lock()
	sessions := lo.Keys(h.sessions)
	h.mutex.Unlock()

	for _, s := range sessions {
		if s.conn != nil {
			if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
				h.log.Warn("session close failed", "addr", s.addr, "err", err)
			}
		}
	}
	h.log.Info("closed sessions on shutdown", "count", len(sessions))
}

// Shutdown stops the event loop, closes every live connection, and waits
// for the session goroutines to finish or the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-time.After(timeout):
		h.log.Warn("shutdown timeout reached, session goroutines may still be running")
		return context.DeadlineExceeded
	}
}
