package handlers

import (
	"net/http"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/service"

	"github.com/gin-gonic/gin"
)

const HeaderSessionID = "X-Session-ID"

// Tap processes one tap of the caller.
func (h *Handler) Tap(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	res, err := h.GameService.Tap(c.Request.Context(), userID, service.TapMeta{
		SessionID: c.GetHeader(HeaderSessionID),
		IP:        c.ClientIP(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Progress(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	view, err := h.GameService.GetProgress(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Claim converts the caller's bricks into tokens.
func (h *Handler) Claim(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	res, err := h.GameService.Claim(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// TapHistory returns the caller's latest taps.
func (h *Handler) TapHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	taps, err := h.Taps.GetByUser(c.Request.Context(), userID, min(queryInt(c, "limit", 50), 200))
	if err != nil {
		writeError(c, err)
		return
	}
	if taps == nil {
		taps = []*domain.TapEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"taps": taps})
}
