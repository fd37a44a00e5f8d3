package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// StatsRepository keeps aggregate play stats and the per-category
// leaderboard in Redis. Stats are best-effort: session end tolerates a
// failed write.
type StatsRepository struct {
	client *redis.Client
}

// LeaderboardEntry is one row of a category leaderboard.
type LeaderboardEntry struct {
	PlayerID string `json:"playerId"`
	Rating   int    `json:"rating"`
	Rank     int    `json:"rank"`
}

func NewStatsRepository(client *redis.Client) *StatsRepository {
	return &StatsRepository{client: client}
}

func statsKey(playerID, category string) string {
	return fmt.Sprintf("stats:%s:%s", playerID, category)
}

func leaderboardKey(category string) string {
	return fmt.Sprintf("leaderboard:%s", category)
}

// RecordSession bumps the player's games-played counter for the category and
// their win counter when won. All session modes count here, including bot
// fallback; only the leaderboard is ranked-only.
func (r *StatsRepository) RecordSession(ctx context.Context, playerID, category string, won bool) error {
	pipe := r.client.Pipeline()
	key := statsKey(playerID, category)
	pipe.HIncrBy(ctx, key, "games", 1)
	if won {
		pipe.HIncrBy(ctx, key, "wins", 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record session stats: %w", err)
	}
	return nil
}

// GetStats returns the player's games/wins counters for a category.
func (r *StatsRepository) GetStats(ctx context.Context, playerID, category string) (games, wins int, err error) {
	values, err := r.client.HGetAll(ctx, statsKey(playerID, category)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get stats: %w", err)
	}
	games, _ = strconv.Atoi(values["games"])
	wins, _ = strconv.Atoi(values["wins"])
	return games, wins, nil
}

// UpdateLeaderboard writes the player's new rating into the category ZSET.
// Called only for ranked human sessions.
func (r *StatsRepository) UpdateLeaderboard(ctx context.Context, playerID, category string, rating int) error {
	err := r.client.ZAdd(ctx, leaderboardKey(category), redis.Z{
		Score:  float64(rating),
		Member: playerID,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}
	return nil
}

// TopPlayers returns the highest-rated players of a category.
func (r *StatsRepository) TopPlayers(ctx context.Context, category string, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	results, err := r.client.ZRevRangeWithScores(ctx, leaderboardKey(category), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, z := range results {
		playerID, _ := z.Member.(string)
		entries = append(entries, LeaderboardEntry{
			PlayerID: playerID,
			Rating:   int(z.Score),
			Rank:     i + 1,
		})
	}
	return entries, nil
}

// Ping verifies the Redis connection.
func (r *StatsRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
