package interfaces

import (
	"context"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Coupon, error)
	List(ctx context.Context, activeOnly bool, params *utils.PaginationParams) ([]*models.Coupon, int64, error)
	ListAvailable(ctx context.Context, now time.Time, restaurantID *primitive.ObjectID) ([]*models.Coupon, error)

	// IncrementUsage bumps usage_count only while the coupon is active, inside
	// its window and below its total limit.
	IncrementUsage(ctx context.Context, id primitive.ObjectID, now time.Time) error
	DecrementUsage(ctx context.Context, id primitive.ObjectID) error
}
