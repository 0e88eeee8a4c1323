package handlers

import (
	"strings"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/services"
	"fooddash/internal/utils"
	"fooddash/internal/validators"

	"github.com/gin-gonic/gin"
)

type RestaurantHandler struct {
	restaurantService services.RestaurantService
}

func NewRestaurantHandler(restaurantService services.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurantService: restaurantService}
}

// ListRestaurants lists active restaurants, optionally by cuisine. Admins may
// pass all=true to include inactive ones.
func (h *RestaurantHandler) ListRestaurants(c *gin.Context) {
	filter := interfaces.RestaurantFilter{
		Cuisine:    strings.TrimSpace(c.Query("cuisine")),
		ActiveOnly: true,
	}
	if actor, ok := currentActorIfAny(c); ok && actor.IsAdmin() && c.Query("all") == "true" {
		filter.ActiveOnly = false
	}

	params := utils.GetPaginationParams(c, "name", "rating.average")
	restaurants, total, err := h.restaurantService.ListRestaurants(c.Request.Context(), filter, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Restaurants retrieved successfully", restaurants, params, total)
}

func (h *RestaurantHandler) Nearby(c *gin.Context) {
	var query validators.NearbyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	if rejectInvalid(c, validators.ValidateStruct(&query)) {
		return
	}

	restaurants, err := h.restaurantService.Nearby(c.Request.Context(), query.Latitude, query.Longitude, query.RadiusKM, query.Limit)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Nearby restaurants retrieved successfully", restaurants)
}

func (h *RestaurantHandler) GetRestaurant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	restaurant, err := h.restaurantService.GetRestaurant(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Restaurant retrieved successfully", restaurant)
}

// GetMenu returns available items only unless all=true.
func (h *RestaurantHandler) GetMenu(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	items, err := h.restaurantService.ListMenu(c.Request.Context(), id, c.Query("all") != "true")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Menu retrieved successfully", items)
}

func (h *RestaurantHandler) ListOwned(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	restaurants, err := h.restaurantService.ListOwned(c.Request.Context(), actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Restaurants retrieved successfully", restaurants)
}

func (h *RestaurantHandler) CreateRestaurant(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req validators.RestaurantCreateRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateRestaurantCreate(&req)) {
		return
	}
	ownerID, _ := validators.ParseObjectID(req.OwnerID)

	restaurant, err := h.restaurantService.CreateRestaurant(c.Request.Context(), actor, &models.Restaurant{
		OwnerID:              ownerID,
		Name:                 strings.TrimSpace(req.Name),
		Description:          strings.TrimSpace(req.Description),
		Cuisine:              req.Cuisine,
		Phone:                req.Phone,
		Email:                req.Email,
		Address:              req.Address.ToModel(),
		Location:             geoPoint(req.Location),
		OperatingHours:       operatingHours(req.OperatingHours),
		DeliveryFee:          req.DeliveryFee,
		MinimumOrder:         req.MinimumOrder,
		EstimatedPrepMinutes: req.EstimatedPrepMinutes,
		Timezone:             req.Timezone,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Restaurant created successfully", restaurant)
}

func operatingHours(hours []validators.OperatingHoursRequest) []models.OperatingHours {
	out := make([]models.OperatingHours, 0, len(hours))
	for _, h := range hours {
		out = append(out, models.OperatingHours{
			Day:      strings.ToLower(h.Day),
			Open:     h.Open,
			Close:    h.Close,
			IsClosed: h.IsClosed,
		})
	}
	return out
}

func (h *RestaurantHandler) UpdateRestaurant(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.RestaurantUpdateRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateRestaurantUpdate(&req)) {
		return
	}

	restaurant, err := h.restaurantService.UpdateRestaurant(c.Request.Context(), actor, id, restaurantUpdates(&req))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Restaurant updated successfully", restaurant)
}

func restaurantUpdates(req *validators.RestaurantUpdateRequest) map[string]interface{} {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Cuisine != nil {
		updates["cuisine"] = req.Cuisine
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Address != nil {
		updates["address"] = req.Address.ToModel()
	}
	if point := geoPoint(req.Location); !point.IsZero() {
		updates["location"] = point
	}
	if req.OperatingHours != nil {
		updates["operating_hours"] = operatingHours(req.OperatingHours)
	}
	if req.DeliveryFee != nil {
		updates["delivery_fee"] = *req.DeliveryFee
	}
	if req.MinimumOrder != nil {
		updates["minimum_order"] = *req.MinimumOrder
	}
	if req.EstimatedPrepMinutes != nil {
		updates["estimated_prep_minutes"] = *req.EstimatedPrepMinutes
	}
	if req.Timezone != nil {
		updates["timezone"] = *req.Timezone
	}
	return updates
}

func (h *RestaurantHandler) ActivateRestaurant(c *gin.Context) {
	h.setActive(c, true)
}

func (h *RestaurantHandler) DeactivateRestaurant(c *gin.Context) {
	h.setActive(c, false)
}

func (h *RestaurantHandler) setActive(c *gin.Context, active bool) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	restaurant, err := h.restaurantService.SetActive(c.Request.Context(), actor, id, active)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Restaurant updated successfully", restaurant)
}

func (h *RestaurantHandler) UploadRestaurantImage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "An image file is required")
		return
	}
	defer file.Close()

	restaurant, err := h.restaurantService.UploadRestaurantImage(c.Request.Context(), actor, id, header.Filename, file)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Image uploaded successfully", restaurant)
}

func (h *RestaurantHandler) CreateMenuItem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	restaurantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.MenuItemRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateMenuItem(&req)) {
		return
	}

	item := &models.MenuItem{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Price:       req.Price,
		Options:     menuOptions(req.Options),
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
		Inventory: models.Inventory{
			CurrentStock:      req.CurrentStock,
			LowStockThreshold: req.LowStockThreshold,
			ReorderPoint:      req.ReorderPoint,
			CostPerUnit:       req.CostPerUnit,
		},
	}

	created, err := h.restaurantService.CreateMenuItem(c.Request.Context(), actor, restaurantID, item)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Menu item created successfully", created)
}

func menuOptions(options []validators.MenuOptionRequest) []models.MenuOption {
	out := make([]models.MenuOption, 0, len(options))
	for _, opt := range options {
		out = append(out, models.MenuOption{Name: strings.TrimSpace(opt.Name), Price: opt.Price})
	}
	return out
}

func (h *RestaurantHandler) UpdateMenuItem(c *gin.Context) {
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

	var req validators.MenuItemUpdateRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateMenuItemUpdate(&req)) {
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		updates["category"] = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Options != nil {
		updates["options"] = menuOptions(req.Options)
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}
	if req.LowStockThreshold != nil {
		updates["inventory.low_stock_threshold"] = *req.LowStockThreshold
	}
	if req.ReorderPoint != nil {
		updates["inventory.reorder_point"] = *req.ReorderPoint
	}
	if req.CostPerUnit != nil {
		updates["inventory.cost_per_unit"] = *req.CostPerUnit
	}

	item, err := h.restaurantService.UpdateMenuItem(c.Request.Context(), actor, restaurantID, itemID, updates)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Menu item updated successfully", item)
}

func (h *RestaurantHandler) DeleteMenuItem(c *gin.Context) {
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

	if err := h.restaurantService.DeleteMenuItem(c.Request.Context(), actor, restaurantID, itemID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Menu item deleted successfully", nil)
}

func (h *RestaurantHandler) UploadMenuItemImage(c *gin.Context) {
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

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "An image file is required")
		return
	}
	defer file.Close()

	item, err := h.restaurantService.UploadMenuItemImage(c.Request.Context(), actor, restaurantID, itemID, header.Filename, file)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Image uploaded successfully", item)
}
