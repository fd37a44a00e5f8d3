package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/humphreyhhui/LanguageGames/internal/api"
	"github.com/humphreyhhui/LanguageGames/internal/config"
	"github.com/humphreyhhui/LanguageGames/internal/content"
	"github.com/humphreyhhui/LanguageGames/internal/gateway"
	"github.com/humphreyhhui/LanguageGames/internal/repository"
	"github.com/humphreyhhui/LanguageGames/internal/service"
	"github.com/humphreyhhui/LanguageGames/pkg/database"
	jwtutil "github.com/humphreyhhui/LanguageGames/pkg/jwt"
	"github.com/humphreyhhui/LanguageGames/pkg/logger"
	"github.com/humphreyhhui/LanguageGames/pkg/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting LanguageGames server",
		"port", cfg.Port,
		"env", cfg.Env,
	)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	logger.Info("Database connection established")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Invalid Redis URL", "error", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", "error", err)
	}
	pingCancel()

	logger.Info("Redis connection established")

	// Repositories
	ratingRepo := repository.NewRatingRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	statsRepo := repository.NewStatsRepository(redisClient)

	// Services
	verifier := jwtutil.NewVerifier(cfg.JWTSecret)
	contentClient := content.New(cfg.ContentServiceURL, cfg.ContentServiceKey)
	roomService := service.NewRoomService()
	ratingService := service.NewRatingService(service.DefaultRatingConfig())
	sessionService := service.NewSessionService(roomService, ratingService, ratingRepo, sessionRepo, statsRepo)

	// Realtime gateway and hub
	hub := gateway.NewHub()
	go hub.Run()

	gw := gateway.New(hub, verifier, ratingRepo, contentClient, roomService, sessionService, ratingService, cfg)

	// Matchmaking scheduler; the gateway receives its match and status
	// callbacks, so the two are wired to each other.
	matchmakingService := service.NewMatchmakingService(roomService, gw, service.SchedulerConfig{
		TickInterval:      cfg.MatchTickInterval,
		StatusInterval:    cfg.QueueStatusInterval,
		FallbackThreshold: cfg.BotFallbackThreshold,
	})
	gw.SetScheduler(matchmakingService)
	matchmakingService.Start()

	logger.Info("Matchmaking scheduler started",
		"tickInterval", cfg.MatchTickInterval,
		"botFallbackThreshold", cfg.BotFallbackThreshold,
	)

	httpLimiter := ratelimit.NewRedisRateLimiter(redisClient, "http_ratelimit")

	router := api.SetupRouter(cfg, api.Deps{
		Hub:         hub,
		Gateway:     gw,
		Matchmaking: matchmakingService,
		StatsRepo:   statsRepo,
		RatingRepo:  ratingRepo,
		SessionRepo: sessionRepo,
		Verifier:    verifier,
		Limiter:     httpLimiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	matchmakingService.Stop()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
