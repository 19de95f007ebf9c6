package handlers

import (
	"net/http"

	"pyramid_empire/internal/service"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard returns the top players by bricks.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit := service.ClampLeaderboardLimit(queryInt(c, "limit", 0))

	entries, err := h.GameService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": entries,
		"limit":       limit,
	})
}
