package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/humphreyhhui/LanguageGames/internal/repository"
)

type SessionHandler struct {
	sessionRepo *repository.SessionRepository
}

func NewSessionHandler(sessionRepo *repository.SessionRepository) *SessionHandler {
	return &SessionHandler{
		sessionRepo: sessionRepo,
	}
}

// GetMySessions godoc
// @Summary Get the caller's recent sessions
// @Description Most recent completed sessions for the authenticated player
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of sessions to return" default(20)
// @Success 200 {object} map[string]interface{} "Session records"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /players/me/sessions [get]
func (h *SessionHandler) GetMySessions(c *gin.Context) {
	playerID := c.GetString("playerId")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := h.sessionRepo.FindRecentByPlayer(playerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get sessions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playerId": playerID,
		"sessions": records,
	})
}
