package handlers

import (
	"fooddash/internal/services"
	"fooddash/internal/utils"
	"fooddash/internal/validators"

	"github.com/gin-gonic/gin"
)

type LoyaltyHandler struct {
	loyaltyService services.LoyaltyService
}

func NewLoyaltyHandler(loyaltyService services.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{loyaltyService: loyaltyService}
}

func (h *LoyaltyHandler) GetSummary(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	summary, err := h.loyaltyService.GetSummary(c.Request.Context(), actor.ID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Loyalty summary retrieved successfully", summary)
}

func (h *LoyaltyHandler) ListRewards(c *gin.Context) {
	utils.SuccessResponse(c, "Rewards retrieved successfully", gin.H{
		"rewards": h.loyaltyService.Rewards(),
		"tiers":   h.loyaltyService.Tiers(),
	})
}

func (h *LoyaltyHandler) Redeem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req validators.RedeemRewardRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateStruct(&req)) {
		return
	}

	result, err := h.loyaltyService.Redeem(c.Request.Context(), actor.ID, req.RewardID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Reward redeemed successfully", result)
}

func (h *LoyaltyHandler) ListTransactions(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	transactions, total, err := h.loyaltyService.ListTransactions(c.Request.Context(), actor.ID, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Loyalty transactions retrieved successfully", transactions, params, total)
}
