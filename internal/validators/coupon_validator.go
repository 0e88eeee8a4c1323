package validators

import (
	"strings"
	"time"
)

type CouponCreateRequest struct {
	Code                  string    `json:"code" validate:"required,coupon_code"`
	Description           string    `json:"description" validate:"omitempty,max=500"`
	DiscountType          string    `json:"discount_type" validate:"required,discount_type"`
	DiscountValue         float64   `json:"discount_value" validate:"required,gt=0"`
	MaxDiscountAmount     *float64  `json:"max_discount_amount" validate:"omitempty,gt=0"`
	MinOrderValue         float64   `json:"min_order_value" validate:"gte=0"`
	StartDate             time.Time `json:"start_date" validate:"required"`
	EndDate               time.Time `json:"end_date" validate:"required"`
	TotalUsageLimit       int       `json:"total_usage_limit" validate:"gte=0"`
	PerUserLimit          int       `json:"per_user_limit" validate:"gte=0"`
	NewUsersOnly          bool      `json:"new_users_only"`
	ApplicableRestaurants []string  `json:"applicable_restaurants" validate:"omitempty,dive,object_id"`
	IsActive              *bool     `json:"is_active"`
}

type CouponUpdateRequest struct {
	Description           *string    `json:"description" validate:"omitempty,max=500"`
	DiscountType          *string    `json:"discount_type" validate:"omitempty,discount_type"`
	DiscountValue         *float64   `json:"discount_value" validate:"omitempty,gt=0"`
	MaxDiscountAmount     *float64   `json:"max_discount_amount" validate:"omitempty,gte=0"`
	MinOrderValue         *float64   `json:"min_order_value" validate:"omitempty,gte=0"`
	StartDate             *time.Time `json:"start_date"`
	EndDate               *time.Time `json:"end_date"`
	TotalUsageLimit       *int       `json:"total_usage_limit" validate:"omitempty,gte=0"`
	PerUserLimit          *int       `json:"per_user_limit" validate:"omitempty,gte=0"`
	NewUsersOnly          *bool      `json:"new_users_only"`
	ApplicableRestaurants []string   `json:"applicable_restaurants" validate:"omitempty,dive,object_id"`
	IsActive              *bool      `json:"is_active"`
}

type CouponValidateRequest struct {
	Code         string  `json:"code" validate:"required,coupon_code"`
	OrderValue   float64 `json:"order_value" validate:"gte=0"`
	RestaurantID string  `json:"restaurant_id" validate:"omitempty,object_id"`
}

func ValidateCouponCreate(req *CouponCreateRequest) ValidationErrors {
	errors := ValidateStruct(req)
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	if req.DiscountType == "percentage" && req.DiscountValue > 100 {
		errors = append(errors, ValidationError{
			Field:   "discount_value",
			Message: "Percentage discount cannot exceed 100",
		})
	}
	if !req.StartDate.IsZero() && !req.EndDate.After(req.StartDate) {
		errors = append(errors, ValidationError{
			Field:   "end_date",
			Message: "End date must be after start date",
		})
	}

	return errors
}

func ValidateCouponUpdate(req *CouponUpdateRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if req.DiscountType != nil && *req.DiscountType == "percentage" && req.DiscountValue != nil && *req.DiscountValue > 100 {
		errors = append(errors, ValidationError{
			Field:   "discount_value",
			Message: "Percentage discount cannot exceed 100",
		})
	}
	if req.StartDate != nil && req.EndDate != nil && !req.EndDate.After(*req.StartDate) {
		errors = append(errors, ValidationError{
			Field:   "end_date",
			Message: "End date must be after start date",
		})
	}

	return errors
}
