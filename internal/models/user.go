package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DevicePlatform string

const (
	DevicePlatformAndroid DevicePlatform = "android"
	DevicePlatformIOS     DevicePlatform = "ios"
	DevicePlatformWeb     DevicePlatform = "web"
)

// User is owned by the identity service; this service reads it and maintains
// the loyalty balance, coupon usage and device tokens.
type User struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	Email          string             `json:"email" bson:"email"`
	Phone          string             `json:"phone" bson:"phone"`
	Role           Role               `json:"role" bson:"role"`
	IsActive       bool               `json:"is_active" bson:"is_active"`
	LoyaltyPoints  int                `json:"loyalty_points" bson:"loyalty_points"`
	LifetimePoints int                `json:"lifetime_points" bson:"lifetime_points"`
	UsedCoupons    []UsedCoupon       `json:"used_coupons,omitempty" bson:"used_coupons"`
	DeviceTokens   []DeviceToken      `json:"-" bson:"device_tokens"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// UsedCoupon is the append-only record of one coupon application. A
// redemption whose order was never created is marked released, not removed.
type UsedCoupon struct {
	CouponID       primitive.ObjectID `json:"coupon_id" bson:"coupon_id"`
	OrderID        primitive.ObjectID `json:"order_id" bson:"order_id"`
	DiscountAmount float64            `json:"discount_amount" bson:"discount_amount"`
	UsedAt         time.Time          `json:"used_at" bson:"used_at"`
	ReleasedAt     *time.Time         `json:"released_at,omitempty" bson:"released_at,omitempty"`
}

type DeviceToken struct {
	Token     string         `json:"token" bson:"token"`
	Platform  DevicePlatform `json:"platform" bson:"platform"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
}

func (u *User) CouponUsageCount(couponID primitive.ObjectID) int {
	count := 0
	for _, used := range u.UsedCoupons {
		if used.CouponID == couponID && used.ReleasedAt == nil {
			count++
		}
	}
	return count
}
