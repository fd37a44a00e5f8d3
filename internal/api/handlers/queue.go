package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/humphreyhhui/LanguageGames/internal/service"
)

type QueueHandler struct {
	matchmaking *service.MatchmakingService
}

func NewQueueHandler(matchmaking *service.MatchmakingService) *QueueHandler {
	return &QueueHandler{
		matchmaking: matchmaking,
	}
}

// GetQueueSizes godoc
// @Summary Get matchmaking queue sizes
// @Description Current number of waiting players per category
// @Tags matchmaking
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Queue sizes keyed by category"
// @Router /queues [get]
func (h *QueueHandler) GetQueueSizes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"queues": h.matchmaking.QueueSizes(),
	})
}
