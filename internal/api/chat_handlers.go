package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/sitewise/chatrelay/internal/hub"
	"github.com/sitewise/chatrelay/internal/models"
)

// handleUpgrade accepts the per-site WebSocket connection. Requests that
// are not upgrade requests fail fast with 426 before any resource is held.
func (h *Handler) handleUpgrade(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		c.JSON(http.StatusUpgradeRequired, gin.H{"error": "Expected Web Socket upgrade"})
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.origins.check,
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.log.Warn("websocket upgrade failed", "addr", c.Request.RemoteAddr, "err", err)
		return
	}

	siteHub := h.registry.GetOrCreate(c.Param("site_id"))
	session := hub.NewSession(conn, siteHub, c.Request.RemoteAddr)
	siteHub.Register(session)
}

func (h *Handler) handleState(c *gin.Context) {
	siteHub := h.registry.GetOrCreate(c.Param("site_id"))
	c.JSON(http.StatusOK, siteHub.State())
}

func (h *Handler) handleHistory(c *gin.Context) {
	siteID := c.Param("site_id")

	messages, err := h.messages.ListBySite(c.Request.Context(), siteID)
	if err != nil {
		h.log.Error("history fetch failed", "site_id", siteID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch message history"})
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
