package handlers

import (
	"net/http"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/service"

	"github.com/gin-gonic/gin"
)

type NonceRequest struct {
	Address string `json:"address" binding:"required"`
}

// Nonce issues the message the wallet has to sign.
func (h *Handler) Nonce(c *gin.Context) {
	var req NonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "address is required")
		return
	}

	res, err := h.AuthService.Nonce(c.Request.Context(), req.Address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type VerifyRequest struct {
	Address      string `json:"address" binding:"required"`
	Signature    string `json:"signature" binding:"required"`
	ReferralCode string `json:"referral_code"`
}

// Verify checks the signed nonce and returns a session token.
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "address and signature are required")
		return
	}

	ctx := service.WithClientInfo(c.Request.Context(), service.ClientInfo{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	res, err := h.AuthService.Verify(ctx, req.Address, req.Signature, req.ReferralCode)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.IsNew {
		c.JSON(http.StatusCreated, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Me returns the caller's account.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if user.IsBanned {
		writeError(c, domain.ErrUserBanned)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
