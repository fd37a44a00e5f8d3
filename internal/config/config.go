package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT (verification only; tokens are issued by the identity provider)
	JWTSecret string

	// Content service
	ContentServiceURL string
	ContentServiceKey string

	// CORS
	CORSAllowedOrigins []string

	// Matchmaking
	MatchTickInterval    time.Duration
	QueueStatusInterval  time.Duration
	BotFallbackThreshold time.Duration

	// Rooms
	RoomPurgeGracePeriod time.Duration

	// Gateway
	AuthHandshakeTimeout time.Duration
	ActionRateLimit      int
	ActionRateWindow     time.Duration
	GameplayRateLimit    int
	GameplayRateWindow   time.Duration

	// Game categories players can queue for
	Categories []string
}

func Load() (*Config, error) {
	// Load .env when present
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:            getEnv("JWT_SECRET", "your-secret-key"),
		ContentServiceURL:    getEnv("CONTENT_SERVICE_URL", "http://localhost:8090"),
		ContentServiceKey:    getEnv("CONTENT_SERVICE_KEY", ""),
		CORSAllowedOrigins:   parseList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		MatchTickInterval:    parseDuration(getEnv("MATCH_TICK_INTERVAL", "3s"), 3*time.Second),
		QueueStatusInterval:  parseDuration(getEnv("QUEUE_STATUS_INTERVAL", "5s"), 5*time.Second),
		BotFallbackThreshold: parseDuration(getEnv("BOT_FALLBACK_THRESHOLD", "45s"), 45*time.Second),
		RoomPurgeGracePeriod: parseDuration(getEnv("ROOM_PURGE_GRACE", "30s"), 30*time.Second),
		AuthHandshakeTimeout: parseDuration(getEnv("AUTH_HANDSHAKE_TIMEOUT", "10s"), 10*time.Second),
		ActionRateLimit:      parseInt(getEnv("ACTION_RATE_LIMIT", "5"), 5),
		ActionRateWindow:     parseDuration(getEnv("ACTION_RATE_WINDOW", "10s"), 10*time.Second),
		GameplayRateLimit:    parseInt(getEnv("GAMEPLAY_RATE_LIMIT", "60"), 60),
		GameplayRateWindow:   parseDuration(getEnv("GAMEPLAY_RATE_WINDOW", "10s"), 10*time.Second),
		Categories:           parseList(getEnv("GAME_CATEGORIES", "vocabulary,grammar,translation,idioms")),
	}

	return cfg, nil
}

// IsKnownCategory reports whether players may queue for the given category.
func (c *Config) IsKnownCategory(category string) bool {
	for _, known := range c.Categories {
		if known == category {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
