package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duochat/chat-app/internal/api"
	"github.com/duochat/chat-app/internal/chat"
	"github.com/duochat/chat-app/internal/config"
	"github.com/duochat/chat-app/internal/kv"
	"github.com/duochat/chat-app/internal/msglog"
	"github.com/duochat/chat-app/internal/presence"
	"github.com/duochat/chat-app/internal/ratelimit"
	"github.com/duochat/chat-app/internal/readmark"
	"github.com/duochat/chat-app/internal/relation"
	"github.com/duochat/chat-app/internal/typing"
)

func main() {
	cfg := config.FromEnv()

	// --- store ---
	var store kv.Store
	if cfg.RedisAddr != "" {
		redisStore, err := kv.NewRedis(cfg.RedisAddr)
		if err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		store = redisStore
	} else {
		// Single-process fallback. State is lost on restart and not shared
		// across instances; only suitable for local development.
		log.Printf("REDIS_ADDR is empty, using the in-memory store")
		store = kv.NewMemory()
	}
	defer store.Close()

	// --- stores and service ---
	presenceStore := presence.NewStore(store)
	svc := chat.NewService(
		chat.Config{
			RecentWindow:   cfg.RecentWindow,
			PartnerTimeout: cfg.PartnerTimeout,
			FanoutLimit:    cfg.FanoutLimit,
		},
		presenceStore,
		relation.NewStore(store, presenceStore),
		msglog.NewStore(store),
		readmark.NewStore(store),
		typing.NewStore(store, typing.Config{
			Staleness: cfg.TypingStaleness,
			MapTTL:    cfg.TypingTTL,
		}),
	)

	server := api.NewServer(svc, ratelimit.NewLimiter(store), store)

	log.Printf("duochat server starting")
	log.Printf("  listen_addr:      %s", cfg.ListenAddr)
	log.Printf("  redis_addr:       %q", cfg.RedisAddr)
	log.Printf("  recent_window:    %d", cfg.RecentWindow)
	log.Printf("  partner_timeout:  %s", cfg.PartnerTimeout)
	log.Printf("  typing_staleness: %s", cfg.TypingStaleness)
	log.Printf("  typing_ttl:       %s", cfg.TypingTTL)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, initiating graceful shutdown...", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("http server error: %v", err)
	}
	log.Printf("server stopped")
}
