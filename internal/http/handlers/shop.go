package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type PurchaseRequest struct {
	Item string `json:"item"`
	Word string `json:"word"`
}

func (h *Handler) ShopCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": h.Shop.Categories(),
		"items":      h.Shop.Catalog(),
	})
}

func (h *Handler) ShopInventory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := h.Shop.Inventory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": items})
}

func (h *Handler) ShopPurchase(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}
	out, err := h.Shop.Purchase(c.Request.Context(), userID, req.Item, req.Word)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
