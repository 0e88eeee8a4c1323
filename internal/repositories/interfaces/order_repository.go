package interfaces

import (
	"context"

	"fooddash/internal/models"
	"fooddash/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderGuard identifies the exact order state a write was computed from.
type OrderGuard struct {
	ID      primitive.ObjectID
	Status  models.OrderStatus
	Version int64
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter, params *utils.PaginationParams) ([]*models.Order, int64, error)
	CountByCustomer(ctx context.Context, customerID primitive.ObjectID) (int64, error)

	// UpdateGuarded applies set (and appends history when non-nil) only if the
	// order still matches guard. It bumps the version and returns the updated
	// order, or ErrConcurrentWrite when the guard no longer holds.
	UpdateGuarded(ctx context.Context, guard OrderGuard, set map[string]interface{}, history *models.StatusChange) (*models.Order, error)
}
