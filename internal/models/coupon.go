package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

func (d DiscountType) IsValid() bool {
	return d == DiscountTypePercentage || d == DiscountTypeFixed
}

type Coupon struct {
	ID                    primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Code                  string               `json:"code" bson:"code"`
	Description           string               `json:"description" bson:"description"`
	DiscountType          DiscountType         `json:"discount_type" bson:"discount_type"`
	DiscountValue         float64              `json:"discount_value" bson:"discount_value"`
	MaxDiscountAmount     *float64             `json:"max_discount_amount,omitempty" bson:"max_discount_amount,omitempty"`
	MinOrderValue         float64              `json:"min_order_value" bson:"min_order_value"`
	StartDate             time.Time            `json:"start_date" bson:"start_date"`
	EndDate               time.Time            `json:"end_date" bson:"end_date"`
	UsageLimit            UsageLimit           `json:"usage_limit" bson:"usage_limit"`
	UsageCount            int                  `json:"usage_count" bson:"usage_count"`
	UserEligibility       UserEligibility      `json:"user_eligibility" bson:"user_eligibility"`
	ApplicableRestaurants []primitive.ObjectID `json:"applicable_restaurants" bson:"applicable_restaurants"`
	IsActive              bool                 `json:"is_active" bson:"is_active"`
	CreatedBy             primitive.ObjectID   `json:"created_by" bson:"created_by"`
	CreatedAt             time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at" bson:"updated_at"`
}

// UsageLimit values of zero mean unlimited.
type UsageLimit struct {
	Total   int `json:"total" bson:"total"`
	PerUser int `json:"per_user" bson:"per_user"`
}

type UserEligibility struct {
	NewUsersOnly bool `json:"new_users_only" bson:"new_users_only"`
}

func (c *Coupon) AppliesTo(restaurantID primitive.ObjectID) bool {
	if len(c.ApplicableRestaurants) == 0 {
		return true
	}
	for _, id := range c.ApplicableRestaurants {
		if id == restaurantID {
			return true
		}
	}
	return false
}

type CouponQuote struct {
	CouponID       primitive.ObjectID `json:"coupon_id"`
	Code           string             `json:"code"`
	DiscountAmount float64            `json:"discount_amount"`
	FinalAmount    float64            `json:"final_amount"`
}

type CouponRedemption struct {
	CouponID       primitive.ObjectID `json:"coupon_id"`
	Code           string             `json:"code"`
	UserID         primitive.ObjectID `json:"user_id"`
	OrderID        primitive.ObjectID `json:"order_id"`
	DiscountAmount float64            `json:"discount_amount"`
	FinalAmount    float64            `json:"final_amount"`
	UsedAt         time.Time          `json:"used_at"`
}
