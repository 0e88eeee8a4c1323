package handlers

import (
	"strings"

	"fooddash/internal/models"
	"fooddash/internal/services"
	"fooddash/internal/utils"
	"fooddash/internal/validators"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService services.InventoryService
}

func NewInventoryHandler(inventoryService services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	restaurantID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}

	var req validators.StockAdjustRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateStruct(&req)) {
		return
	}

	item, err := h.inventoryService.AdjustStock(c.Request.Context(), actor, restaurantID, itemID, req.Delta, models.StockMode(req.Mode), strings.TrimSpace(req.Reason))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Stock updated successfully", item)
}

func (h *InventoryHandler) LowStock(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	restaurantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	items, err := h.inventoryService.ListLowStock(c.Request.Context(), actor, restaurantID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Low stock items retrieved successfully", items)
}

func (h *InventoryHandler) StockHistory(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	restaurantID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	movements, total, err := h.inventoryService.StockHistory(c.Request.Context(), actor, restaurantID, itemID, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Stock history retrieved successfully", movements, params, total)
}
