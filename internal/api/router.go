// Package api exposes the HTTP and WebSocket surface of the relay: site
// management, per-site state and history queries, and the connection
// upgrade endpoint.
package api

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/sitewise/chatrelay/internal/config"
	"github.com/sitewise/chatrelay/internal/hub"
	"github.com/sitewise/chatrelay/internal/usecase"
)

// Handler bundles the collaborators the HTTP surface needs.
type Handler struct {
	sites      *usecase.Sites
	messages   hub.MessageLog
	registry   *hub.Registry
	origins    *originChecker
	log        *slog.Logger
	production bool
}

// NewHandler wires the HTTP surface. messages is the same message log the
// hubs persist to; history reads go through it directly.
func NewHandler(cfg *config.Config, sites *usecase.Sites, messages hub.MessageLog, registry *hub.Registry, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		sites:      sites,
		messages:   messages,
		registry:   registry,
		origins:    newOriginChecker(cfg.AllowedOrigins, log),
		log:        log,
		production: cfg.IsProduction(),
	}
}

// Router builds the gin engine with all application routes and middleware.
func (h *Handler) Router(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(h.log), recovery(h.log, h.production))

	corsCfg := cors.DefaultConfig()
	if lo.Contains(cfg.AllowedOrigins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.handleHealth)

	sites := r.Group("/sites")
	{
		sites.POST("", h.handleCreateSite)
		sites.GET("/:site_id", h.handleGetSite)
		sites.GET("/:site_id/ws", h.handleUpgrade)
		sites.GET("/:site_id/state", h.handleState)
		sites.GET("/:site_id/history", h.handleHistory)
	}

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
