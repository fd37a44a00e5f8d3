package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/humphreyhhui/LanguageGames/internal/repository"
)

type RatingHandler struct {
	ratingRepo *repository.RatingRepository
}

func NewRatingHandler(ratingRepo *repository.RatingRepository) *RatingHandler {
	return &RatingHandler{
		ratingRepo: ratingRepo,
	}
}

// GetMyRatings godoc
// @Summary Get the caller's ratings
// @Description Per-category ratings for the authenticated player
// @Tags ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Rating records"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /players/me/ratings [get]
func (h *RatingHandler) GetMyRatings(c *gin.Context) {
	playerID := c.GetString("playerId")

	records, err := h.ratingRepo.FindAllForPlayer(playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get ratings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playerId": playerID,
		"ratings":  records,
	})
}
