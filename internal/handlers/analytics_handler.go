package handlers

import (
	"fooddash/internal/services"
	"fooddash/internal/utils"

	"github.com/gin-gonic/gin"
)

const defaultReportDays = 30

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) PlatformStats(c *gin.Context) {
	stats, err := h.analyticsService.PlatformStats(c.Request.Context(), queryInt(c, "days", defaultReportDays))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Platform statistics retrieved successfully", stats)
}

func (h *AnalyticsHandler) DailyTrend(c *gin.Context) {
	restaurantID, ok := optionalQueryID(c, "restaurant_id")
	if !ok {
		return
	}

	trend, err := h.analyticsService.DailyTrend(c.Request.Context(), queryInt(c, "days", defaultReportDays), restaurantID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Order trend retrieved successfully", trend)
}

func (h *AnalyticsHandler) TopRestaurants(c *gin.Context) {
	top, err := h.analyticsService.TopRestaurants(c.Request.Context(), queryInt(c, "days", defaultReportDays), queryInt(c, "limit", 10))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Top restaurants retrieved successfully", top)
}

func (h *AnalyticsHandler) RestaurantDashboard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	restaurantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	dashboard, err := h.analyticsService.RestaurantDashboard(c.Request.Context(), actor, restaurantID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Restaurant dashboard retrieved successfully", dashboard)
}

func (h *AnalyticsHandler) UserDashboard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	dashboard, err := h.analyticsService.UserDashboard(c.Request.Context(), actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Dashboard retrieved successfully", dashboard)
}
