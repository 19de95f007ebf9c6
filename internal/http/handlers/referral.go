package handlers

import (
	"context"
	"net/http"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralLister interface {
	GetByReferrer(ctx context.Context, referrerID int64, limit int) ([]domain.Referral, error)
}

// ReferralHandler handles referral-related requests
type ReferralHandler struct {
	svc  *service.ReferralService
	refs ReferralLister
}

func NewReferralHandler(svc *service.ReferralService, refs ReferralLister) *ReferralHandler {
	return &ReferralHandler{svc: svc, refs: refs}
}

// GetReferral returns the caller's code, link, counts and bonus.
func (h *ReferralHandler) GetReferral(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	info, err := h.svc.Info(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetReferralLink returns only the shareable invite link.
func (h *ReferralHandler) GetReferralLink(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	info, err := h.svc.Info(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": info.Code, "link": info.Link})
}

// GetReferrals lists the users the caller brought in.
func (h *ReferralHandler) GetReferrals(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	refs, err := h.refs.GetByReferrer(c.Request.Context(), userID, queryInt(c, "limit", 100))
	if err != nil {
		writeError(c, err)
		return
	}
	if refs == nil {
		refs = []domain.Referral{}
	}
	c.JSON(http.StatusOK, gin.H{"referrals": refs})
}
