package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetQuests lists active quests with the caller's completion and eligibility.
func (h *Handler) GetQuests(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	quests, err := h.QuestService.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quests": quests})
}

type CompleteQuestRequest struct {
	QuestID int64 `json:"questId" binding:"required"`
}

// CompleteQuest takes the quest from the body, or from the :id path
// segment on the legacy route.
func (h *Handler) CompleteQuest(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var questID int64
	if c.Param("id") != "" {
		if questID, ok = paramID(c, "id"); !ok {
			badRequest(c, "invalid quest id")
			return
		}
	} else {
		var req CompleteQuestRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.QuestID <= 0 {
			badRequest(c, "questId is required")
			return
		}
		questID = req.QuestID
	}

	res, err := h.QuestService.Complete(c.Request.Context(), userID, questID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
