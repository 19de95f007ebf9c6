package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ShopItems(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.ShopService.Items()})
}

type PurchaseRequest struct {
	ItemID string `json:"itemId" binding:"required"`
	TxHash string `json:"txHash" binding:"required"`
}

// Purchase redeems an on-chain USDC transfer for a shop item.
func (h *Handler) Purchase(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "itemId and txHash are required")
		return
	}

	res, err := h.ShopService.Purchase(c.Request.Context(), userID, req.ItemID, req.TxHash)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Transactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	txs, err := h.ShopService.Transactions(c.Request.Context(), userID, queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// TransactionByHash reports the status of a purchase the caller submitted.
func (h *Handler) TransactionByHash(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	t, err := h.ShopService.TransactionByHash(c.Request.Context(), userID, c.Param("hash"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": t})
}
