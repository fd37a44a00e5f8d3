package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/humphreyhhui/LanguageGames/internal/config"
	"github.com/humphreyhhui/LanguageGames/internal/repository"
)

type LeaderboardHandler struct {
	statsRepo *repository.StatsRepository
	cfg       *config.Config
}

func NewLeaderboardHandler(statsRepo *repository.StatsRepository, cfg *config.Config) *LeaderboardHandler {
	return &LeaderboardHandler{
		statsRepo: statsRepo,
		cfg:       cfg,
	}
}

// GetLeaderboard godoc
// @Summary Get category leaderboard
// @Description Top players ranked by rating in one category
// @Tags leaderboard
// @Accept json
// @Produce json
// @Param category path string true "Category name"
// @Param limit query int false "Number of top players to return" default(20)
// @Success 200 {object} map[string]interface{} "Leaderboard with player rankings"
// @Failure 400 {object} map[string]string "Unknown category"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /leaderboard/{category} [get]
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	category := c.Param("category")
	if !h.cfg.IsKnownCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown category",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	entries, err := h.statsRepo.TopPlayers(c.Request.Context(), category, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get leaderboard",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category":    category,
		"leaderboard": entries,
		"total":       len(entries),
	})
}
