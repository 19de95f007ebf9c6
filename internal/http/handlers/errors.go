package handlers

import (
	"errors"
	"net/http"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/logger"

	"github.com/gin-gonic/gin"
)

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrCooldownActive, http.StatusTooManyRequests, "cooldown_active"},
	{domain.ErrNoEnergy, http.StatusBadRequest, "no_energy"},
	{domain.ErrAlreadyCompleted, http.StatusConflict, "already_completed"},
	{domain.ErrRequirementsNotMet, http.StatusBadRequest, "requirements_not_met"},
	{domain.ErrPaymentVerification, http.StatusBadRequest, "payment_verification_failed"},
	{domain.ErrValidation, http.StatusBadRequest, "validation_error"},
	{domain.ErrInsufficientBricks, http.StatusBadRequest, "insufficient_bricks"},
	{domain.ErrUserBanned, http.StatusForbidden, "user_banned"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
}

// writeError maps a service error to its status and the
// {"error", "code"[, "reason"]} body. Unknown errors are logged and hidden.
func writeError(c *gin.Context, err error) {
	var pe *domain.PaymentError
	if errors.As(err, &pe) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  pe.Message(),
			"code":   "payment_verification_failed",
			"reason": pe.Reason,
		})
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			msg := err.Error()
			if e.status == http.StatusServiceUnavailable {
				logger.FromContext(c.Request.Context()).Warn("dependency unavailable", "path", c.FullPath(), "error", err)
				msg = "service temporarily unavailable"
			}
			c.JSON(e.status, gin.H{"error": msg, "code": e.code})
			return
		}
	}

	logger.FromContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal_error"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "validation_error"})
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthorized"})
}
