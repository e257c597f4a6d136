package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// NewServer creates the HTTP server with production timeout defaults.
// Upgraded WebSocket connections are hijacked and manage their own
// deadlines in the session pumps.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// ShutdownServer gracefully shuts down the HTTP server, waiting for active
// requests to finish or the timeout to elapse.
func ShutdownServer(server *http.Server, timeout time.Duration, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("http server shutdown failed", "err", err)
		return err
	}
	log.Info("http server shutdown completed")
	return nil
}
