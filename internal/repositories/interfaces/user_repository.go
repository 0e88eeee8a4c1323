package interfaces

import (
	"context"
	"time"

	"fooddash/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Count(ctx context.Context) (int64, error)

	// Loyalty balance
	AddLoyaltyPoints(ctx context.Context, userID primitive.ObjectID, points int) (*models.User, error)
	// RestoreLoyaltyPoints returns points to the balance without counting them
	// towards lifetime points.
	RestoreLoyaltyPoints(ctx context.Context, userID primitive.ObjectID, points int) (*models.User, error)
	// DeductLoyaltyPoints only succeeds while the balance covers points.
	DeductLoyaltyPoints(ctx context.Context, userID primitive.ObjectID, points int) (*models.User, error)

	// RecordCouponUse appends to used_coupons unless the user already reached
	// perUserLimit uses of the coupon. A limit of zero means unlimited.
	RecordCouponUse(ctx context.Context, userID primitive.ObjectID, use models.UsedCoupon, perUserLimit int) error
	// ReleaseCouponUse stamps released_at on the matching entry; the entry
	// stays in used_coupons but no longer counts against the per-user limit.
	ReleaseCouponUse(ctx context.Context, userID, couponID, orderID primitive.ObjectID, at time.Time) error

	RegisterDeviceToken(ctx context.Context, userID primitive.ObjectID, token models.DeviceToken) error
	RemoveDeviceToken(ctx context.Context, userID primitive.ObjectID, token string) error
}
