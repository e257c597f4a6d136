package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	"github.com/sitewise/chatrelay/internal/api"
	"github.com/sitewise/chatrelay/internal/config"
	"github.com/sitewise/chatrelay/internal/hub"
	"github.com/sitewise/chatrelay/internal/store"
	"github.com/sitewise/chatrelay/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration load failed", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	db, err := store.Open(cfg.SQLitePath, log)
	if err != nil {
		log.Error("store open failed", "path", cfg.SQLitePath, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	var cache *store.HistoryCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = store.NewHistoryCache(client, cfg.HistoryCacheTTL, log)
		log.Info("history cache enabled", "addr", cfg.RedisAddr)
	}
	messages := store.NewCachedMessageLog(db, cache)

	registry := hub.NewRegistry(hub.Options{
		Log:             log,
		Messages:        messages,
		Reply:           hub.EchoReply{},
		MaxMessageSize:  cfg.MaxMessageSize,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitRefill: cfg.RateLimitRefillInterval,
	})

	sites := usecase.NewSites(db, log)
	handler := api.NewHandler(cfg, sites, messages, registry, log)
	server := api.NewServer(cfg.Addr(), handler.Router(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", "addr", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	if err := api.ShutdownServer(server, cfg.ShutdownTimeout, log); err != nil {
		log.Warn("server shutdown incomplete", "err", err)
	}
	registry.Shutdown(cfg.ShutdownTimeout)
	log.Info("shutdown complete")
}
