package handlers

import (
	"fooddash/internal/models"
	"fooddash/internal/services"
	"fooddash/internal/utils"
	"fooddash/internal/validators"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	notifications, total, err := h.notificationService.List(c.Request.Context(), actor.ID, c.Query("unread") == "true", params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Notifications retrieved successfully", notifications, params, total)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), actor.ID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Unread count retrieved successfully", gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), actor.ID, id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), actor.ID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Notifications marked as read", gin.H{"updated": updated})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), actor.ID, id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Notification deleted successfully", nil)
}

func (h *NotificationHandler) RegisterDevice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req validators.DeviceTokenRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateStruct(&req)) {
		return
	}

	device := models.DeviceToken{Token: req.Token, Platform: models.DevicePlatform(req.Platform)}
	if err := h.notificationService.RegisterDevice(c.Request.Context(), actor.ID, device); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Device registered successfully", nil)
}

func (h *NotificationHandler) RemoveDevice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	token := c.Param("token")
	if token == "" {
		utils.BadRequestResponse(c, "Device token is required")
		return
	}

	if err := h.notificationService.RemoveDevice(c.Request.Context(), actor.ID, token); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Device removed successfully", nil)
}
