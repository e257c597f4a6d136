package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewise/chatrelay/internal/config"
	"github.com/sitewise/chatrelay/internal/hub"
	"github.com/sitewise/chatrelay/internal/usecase"
)

type wsEvent struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

// newRelayServer starts the full stack on an httptest server backed by an
// in-memory store.
func newRelayServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := newTestStore(t)
	log := discardLogger()
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	registry := hub.NewRegistry(hub.Options{Log: log, Messages: st, Reply: hub.EchoReply{}})
	handler := NewHandler(cfg, usecase.NewSites(st, log), st, registry, log)

	srv := httptest.NewServer(handler.Router(cfg))
	t.Cleanup(func() {
		registry.Shutdown(2 * time.Second)
		srv.Close()
	})
	return srv
}

func dialSite(t *testing.T, srv *httptest.Server, siteID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sites/" + siteID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	// Every accepted connection is greeted with an ack before anything else.
	ack := readSingleEvent(t, conn)
	require.Equal(t, "ack", ack.Type)
	require.Equal(t, "connected", ack.Content)
	return conn
}

func readSingleEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev wsEvent
	require.NoError(t, json.Unmarshal(payload, &ev))
	return ev
}

func readEventBatch(t *testing.T, conn *websocket.Conn) []wsEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var events []wsEvent
	require.NoError(t, json.Unmarshal(payload, &events))
	return events
}

func sendChat(t *testing.T, conn *websocket.Conn, content string) {
	t.Helper()
	frame, err := json.Marshal(map[string]string{"type": "chat", "content": content})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func TestChatRoundTripOverWebSocket(t *testing.T) {
	srv := newRelayServer(t)
	conn := dialSite(t, srv, "site-1")

	sendChat(t, conn, "hi")

	events := readEventBatch(t, conn)
	require.Len(t, events, 2)
	assert.Equal(t, "message", events[0].Type)
	assert.Equal(t, "user", events[0].Role)
	assert.Equal(t, "hi", events[0].Content)
	assert.Equal(t, "message", events[1].Type)
	assert.Equal(t, "assistant", events[1].Role)
	assert.Equal(t, "echo: hi", events[1].Content)

	// The pair must also be durable and visible through the history endpoint,
	// newest first.
	resp, err := http.Get(srv.URL + "/sites/site-1/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "assistant", body.Messages[0].Role)
	assert.Equal(t, "echo: hi", body.Messages[0].Content)
	assert.Equal(t, "user", body.Messages[1].Role)
	assert.Equal(t, "hi", body.Messages[1].Content)
}

func TestChatBroadcastReachesAllConnections(t *testing.T) {
	srv := newRelayServer(t)
	sender := dialSite(t, srv, "site-1")
	listener := dialSite(t, srv, "site-1")

	sendChat(t, sender, "hello room")

	for _, conn := range []*websocket.Conn{sender, listener} {
		events := readEventBatch(t, conn)
		require.Len(t, events, 2)
		assert.Equal(t, "hello room", events[0].Content)
		assert.Equal(t, "echo: hello room", events[1].Content)
	}
}

func TestChatErrorStaysWithOriginator(t *testing.T) {
	srv := newRelayServer(t)
	sender := dialSite(t, srv, "site-1")
	listener := dialSite(t, srv, "site-1")

	sendChat(t, sender, "   ")

	ev := readSingleEvent(t, sender)
	assert.Equal(t, "error", ev.Type)
	assert.Equal(t, "Message content cannot be empty", ev.Content)

	require.NoError(t, listener.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := listener.ReadMessage()
	assert.Error(t, err, "listener must not receive the originator's error")
}

func TestSitesAreIsolated(t *testing.T) {
	srv := newRelayServer(t)
	siteA := dialSite(t, srv, "site-a")
	siteB := dialSite(t, srv, "site-b")

	sendChat(t, siteA, "only for a")

	events := readEventBatch(t, siteA)
	require.Len(t, events, 2)

	require.NoError(t, siteB.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := siteB.ReadMessage()
	assert.Error(t, err, "traffic must not cross site boundaries")
}

func TestStateReflectsLiveConnections(t *testing.T) {
	srv := newRelayServer(t)
	dialSite(t, srv, "site-1")
	dialSite(t, srv, "site-1")

	resp, err := http.Get(srv.URL + "/sites/site-1/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var state struct {
		SiteID            string  `json:"siteId"`
		ActiveConnections int     `json:"activeConnections"`
		LastActivity      *string `json:"lastActivity"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, "site-1", state.SiteID)
	assert.Equal(t, 2, state.ActiveConnections)
}

func TestHistoryRequestOverWebSocket(t *testing.T) {
	srv := newRelayServer(t)
	conn := dialSite(t, srv, "site-1")

	sendChat(t, conn, "first")
	readEventBatch(t, conn)

	frame, err := json.Marshal(map[string]string{"type": "history"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type     string `json:"type"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(payload, &ev))
	assert.Equal(t, "history", ev.Type)
	require.Len(t, ev.Messages, 2)
	assert.Equal(t, "assistant", ev.Messages[0].Role)
	assert.Equal(t, "user", ev.Messages[1].Role)
}
