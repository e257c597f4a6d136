package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger emits one structured log line per request.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// recovery catches panics at the HTTP boundary, logs full detail, and
// returns a generic message. Diagnostic detail is included in the body
// only outside production.
func recovery(log *slog.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"panic", r,
					"stack", string(debug.Stack()),
				)
				body := gin.H{"error": "Internal server error"}
				if !production {
					body["detail"] = fmt.Sprint(r)
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}
