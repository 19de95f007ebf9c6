package handlers

import (
	"net/http"

	"pyramid_empire/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.AdminService.GetStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) AdminListQuests(c *gin.Context) {
	quests, err := h.AdminService.ListQuests(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quests": quests})
}

func (h *Handler) AdminCreateQuest(c *gin.Context) {
	adminID, _ := getUserID(c)

	var q domain.Quest
	if err := c.ShouldBindJSON(&q); err != nil {
		badRequest(c, "invalid quest")
		return
	}
	q.ID = 0
	if err := h.AdminService.CreateQuest(c.Request.Context(), adminID, &q); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (h *Handler) AdminUpdateQuest(c *gin.Context) {
	adminID, _ := getUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		badRequest(c, "invalid quest id")
		return
	}

	var q domain.Quest
	if err := c.ShouldBindJSON(&q); err != nil {
		badRequest(c, "invalid quest")
		return
	}
	q.ID = id
	if err := h.AdminService.UpdateQuest(c.Request.Context(), adminID, &q); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *Handler) AdminDeleteQuest(c *gin.Context) {
	adminID, _ := getUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		badRequest(c, "invalid quest id")
		return
	}

	if err := h.AdminService.DeleteQuest(c.Request.Context(), adminID, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminSetBanned(c *gin.Context, banned bool) {
	adminID, _ := getUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		badRequest(c, "invalid user id")
		return
	}

	if err := h.AdminService.SetBanned(c.Request.Context(), adminID, id, banned); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id, "banned": banned})
}

func (h *Handler) AdminBan(c *gin.Context)   { h.adminSetBanned(c, true) }
func (h *Handler) AdminUnban(c *gin.Context) { h.adminSetBanned(c, false) }

type BoostRequest struct {
	Multiplier float64 `json:"multiplier" binding:"required"`
	Hours      int     `json:"hours" binding:"required"`
}

func (h *Handler) AdminBoost(c *gin.Context) {
	adminID, _ := getUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		badRequest(c, "invalid user id")
		return
	}

	var req BoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "multiplier and hours are required")
		return
	}

	p, err := h.AdminService.GrantBoost(c.Request.Context(), adminID, id, req.Multiplier, req.Hours)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": p})
}

type QuestBonusRequest struct {
	Days int `json:"days" binding:"required"`
}

func (h *Handler) AdminQuestBonus(c *gin.Context) {
	adminID, _ := getUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		badRequest(c, "invalid user id")
		return
	}

	var req QuestBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "days is required")
		return
	}

	p, err := h.AdminService.GrantQuestBonus(c.Request.Context(), adminID, id, req.Days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": p})
}

func (h *Handler) AdminPremium(c *gin.Context) {
	adminID, _ := getUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		badRequest(c, "invalid user id")
		return
	}

	u, err := h.AdminService.GrantPremium(c.Request.Context(), adminID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) AdminAudit(c *gin.Context) {
	logs, err := h.Audit.GetRecent(c.Request.Context(), c.Query("category"), queryInt(c, "limit", 100))
	if err != nil {
		writeError(c, err)
		return
	}
	if logs == nil {
		logs = []*domain.AuditLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
