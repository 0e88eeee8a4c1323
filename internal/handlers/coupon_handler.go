package handlers

import (
	"strings"

	"fooddash/internal/models"
	"fooddash/internal/services"
	"fooddash/internal/utils"
	"fooddash/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CouponHandler struct {
	couponService services.CouponService
}

func NewCouponHandler(couponService services.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// ValidateCoupon quotes the discount for an order value without reserving a
// use.
func (h *CouponHandler) ValidateCoupon(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req validators.CouponValidateRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateStruct(&req)) {
		return
	}
	var restaurantID *primitive.ObjectID
	if req.RestaurantID != "" {
		id, _ := validators.ParseObjectID(req.RestaurantID)
		restaurantID = &id
	}

	quote, err := h.couponService.Validate(c.Request.Context(), strings.ToUpper(strings.TrimSpace(req.Code)), actor.ID, req.OrderValue, restaurantID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Coupon is valid", quote)
}

func (h *CouponHandler) ListAvailable(c *gin.Context) {
	restaurantID, ok := optionalQueryID(c, "restaurant_id")
	if !ok {
		return
	}

	coupons, err := h.couponService.ListAvailable(c.Request.Context(), restaurantID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Coupons retrieved successfully", coupons)
}

func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req validators.CouponCreateRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateCouponCreate(&req)) {
		return
	}

	coupon := &models.Coupon{
		Code:                  req.Code,
		Description:           strings.TrimSpace(req.Description),
		DiscountType:          models.DiscountType(req.DiscountType),
		DiscountValue:         req.DiscountValue,
		MaxDiscountAmount:     req.MaxDiscountAmount,
		MinOrderValue:         req.MinOrderValue,
		StartDate:             req.StartDate,
		EndDate:               req.EndDate,
		UsageLimit:            models.UsageLimit{Total: req.TotalUsageLimit, PerUser: req.PerUserLimit},
		UserEligibility:       models.UserEligibility{NewUsersOnly: req.NewUsersOnly},
		ApplicableRestaurants: objectIDs(req.ApplicableRestaurants),
		IsActive:              req.IsActive == nil || *req.IsActive,
	}

	created, err := h.couponService.CreateCoupon(c.Request.Context(), actor, coupon)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Coupon created successfully", created)
}

func objectIDs(hexes []string) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, hex := range hexes {
		if id, err := validators.ParseObjectID(hex); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.CouponUpdateRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateCouponUpdate(&req)) {
		return
	}

	updates := map[string]interface{}{}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.DiscountType != nil {
		updates["discount_type"] = models.DiscountType(*req.DiscountType)
	}
	if req.DiscountValue != nil {
		updates["discount_value"] = *req.DiscountValue
	}
	if req.MaxDiscountAmount != nil {
		if *req.MaxDiscountAmount == 0 {
			updates["max_discount_amount"] = nil
		} else {
			updates["max_discount_amount"] = *req.MaxDiscountAmount
		}
	}
	if req.MinOrderValue != nil {
		updates["min_order_value"] = *req.MinOrderValue
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.TotalUsageLimit != nil {
		updates["usage_limit.total"] = *req.TotalUsageLimit
	}
	if req.PerUserLimit != nil {
		updates["usage_limit.per_user"] = *req.PerUserLimit
	}
	if req.NewUsersOnly != nil {
		updates["user_eligibility.new_users_only"] = *req.NewUsersOnly
	}
	if req.ApplicableRestaurants != nil {
		updates["applicable_restaurants"] = objectIDs(req.ApplicableRestaurants)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		utils.HandleError(c, utils.NewValidationError("nothing to update", nil))
		return
	}

	coupon, err := h.couponService.UpdateCoupon(c.Request.Context(), id, updates)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Coupon updated successfully", coupon)
}

func (h *CouponHandler) DeactivateCoupon(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	coupon, err := h.couponService.DeactivateCoupon(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Coupon deactivated successfully", coupon)
}

func (h *CouponHandler) GetCoupon(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	coupon, err := h.couponService.GetCoupon(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Coupon retrieved successfully", coupon)
}

func (h *CouponHandler) ListCoupons(c *gin.Context) {
	params := utils.GetPaginationParams(c, "code", "end_date", "usage_count")
	coupons, total, err := h.couponService.ListCoupons(c.Request.Context(), c.Query("active") == "true", params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Coupons retrieved successfully", coupons, params, total)
}
