// Package hub implements the per-site session hub: the stateful owner of
// one site's live WebSocket connections, the chat wire protocol, message
// persistence, and reply fan-out.
package hub

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sitewise/chatrelay/internal/errs"
	"github.com/sitewise/chatrelay/internal/models"
)

// Outbound event types.
const (
	EventAck     = "ack"
	EventMessage = "message"
	EventError   = "error"
	EventHistory = "history"
)

// Inbound frame types.
const (
	TypeChat    = "chat"
	TypeHistory = "history"
)

// InboundFrame is the JSON envelope clients send over the socket.
type InboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// parseInbound decodes a raw client frame. Failures are *errs.ProtocolError:
// recoverable, scoped to the offending connection.
func parseInbound(payload []byte) (InboundFrame, error) {
	var frame InboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return InboundFrame{}, &errs.ProtocolError{Reason: "Invalid JSON"}
	}
	return frame, nil
}

// Event is one outbound JSON event. Fields are populated per event type;
// empty fields are omitted from the wire representation.
type Event struct {
	Type      string           `json:"type"`
	Role      models.Role      `json:"role,omitempty"`
	Content   string           `json:"content,omitempty"`
	SiteID    string           `json:"siteId,omitempty"`
	MsgID     string           `json:"msg_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []models.Message `json:"messages,omitempty"`
}

func ackEvent(siteID string, at time.Time) Event {
	return Event{
		Type:      EventAck,
		Content:   "connected",
		SiteID:    siteID,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

func errorEvent(content string) Event {
	return Event{Type: EventError, Content: content}
}

func messageEvent(msg models.Message) Event {
	return Event{
		Type:      EventMessage,
		Role:      msg.Role,
		Content:   msg.Content,
		SiteID:    msg.SiteID,
		MsgID:     msg.MsgID,
		Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func historyEvent(messages []models.Message) Event {
	if messages == nil {
		messages = []models.Message{}
	}
	return Event{Type: EventHistory, Messages: messages}
}

func encodeEvent(e Event) []byte {
	raw, _ := json.Marshal(e)
	return raw
}

// encodeEvents marshals an ordered sequence of events as one JSON array so
// the relative order survives a single wire frame.
func encodeEvents(events ...Event) []byte {
	raw, _ := json.Marshal(events)
	return raw
}

// isExpectedCloseError checks if an error is expected during connection
// closure and therefore not worth logging loudly.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
