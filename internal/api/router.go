package api

import (
	"github.com/gin-gonic/gin"
	"github.com/humphreyhhui/LanguageGames/internal/api/handlers"
	"github.com/humphreyhhui/LanguageGames/internal/api/middleware"
	"github.com/humphreyhhui/LanguageGames/internal/config"
	"github.com/humphreyhhui/LanguageGames/internal/gateway"
	"github.com/humphreyhhui/LanguageGames/internal/repository"
	"github.com/humphreyhhui/LanguageGames/internal/service"
	jwtutil "github.com/humphreyhhui/LanguageGames/pkg/jwt"
	"github.com/humphreyhhui/LanguageGames/pkg/ratelimit"
)

// Deps carries the already-wired application services into the router; the
// gateway and scheduler reference each other, so construction happens in
// main, not here.
type Deps struct {
	Hub         *gateway.Hub
	Gateway     *gateway.Gateway
	Matchmaking *service.MatchmakingService
	StatsRepo   *repository.StatsRepository
	RatingRepo  *repository.RatingRepository
	SessionRepo *repository.SessionRepository
	Verifier    *jwtutil.Verifier
	Limiter     *ratelimit.RedisRateLimiter
}

// SetupRouter builds the HTTP surface: the websocket upgrade endpoint plus
// the small read-only REST API.
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	queueHandler := handlers.NewQueueHandler(deps.Matchmaking)
	leaderboardHandler := handlers.NewLeaderboardHandler(deps.StatsRepo, cfg)
	ratingHandler := handlers.NewRatingHandler(deps.RatingRepo)
	sessionHandler := handlers.NewSessionHandler(deps.SessionRepo)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.Gateway)

	router.GET("/health", handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/ws", middleware.WebSocketUpgradeRateLimit(deps.Limiter), wsHandler.HandleWebSocket)

		v1.GET("/queues", middleware.PublicReadRateLimit(deps.Limiter), queueHandler.GetQueueSizes)
		v1.GET("/leaderboard/:category", middleware.PublicReadRateLimit(deps.Limiter), leaderboardHandler.GetLeaderboard)

		players := v1.Group("/players")
		players.Use(middleware.Auth(deps.Verifier))
		{
			players.GET("/me/ratings", ratingHandler.GetMyRatings)
			players.GET("/me/sessions", sessionHandler.GetMySessions)
		}
	}

	return router
}
