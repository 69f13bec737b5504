package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/badminton-api/internal/auth"
	"github.com/gdg-garage/badminton-api/internal/cache"
	"github.com/gdg-garage/badminton-api/internal/config"
	"github.com/gdg-garage/badminton-api/internal/database"
	"github.com/gdg-garage/badminton-api/internal/events"
	"github.com/gdg-garage/badminton-api/internal/handlers"
	"github.com/gdg-garage/badminton-api/internal/notifier"
	"github.com/gdg-garage/badminton-api/internal/ratelimit"
	"github.com/gdg-garage/badminton-api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)
	defer database.Close(db)
	st := store.New(db)

	// Optional Discord notifications
	var discordNotifier notifier.Notifier
	if cfg.DiscordBotToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			log.Printf("Discord notifier not initialized: %v", err)
		} else {
			discordNotifier = notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID)
		}
	}

	// Optional response cache
	opts := handlers.Options{EnableCORS: cfg.EnableCORS, CORSOrigin: cfg.CORSOrigin}
	var invalidator handlers.CacheInvalidator
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unavailable at %s, response cache disabled: %v", cfg.RedisAddr, err)
		} else {
			opts.Cache = cache.NewResponseCache(rdb, cfg.CacheTTL)
			invalidator = cache.NewInvalidator(rdb)
		}
	}

	if cfg.AuthRateLimitRPS > 0 {
		opts.AuthLimiter = ratelimit.New(ratelimit.Config{
			RPS:   cfg.AuthRateLimitRPS,
			Burst: cfg.AuthRateLimitBurst,
		})
		defer opts.AuthLimiter.Close()
	}

	// Initialize Handlers
	authHandler := auth.NewAuthHandler(cfg, st)
	h := handlers.Handlers{
		Auth:          authHandler,
		Events:        handlers.NewEventHandler(events.NewManager(st, discordNotifier), invalidator, cfg.PublicURL),
		Registrations: handlers.NewRegistrationHandler(events.NewLedger(st, discordNotifier), invalidator),
		APIKeys:       handlers.NewAPIKeyHandler(st),
	}

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, h, opts)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start Server
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}
