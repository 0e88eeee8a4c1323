package interfaces

import (
	"context"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LoyaltyRepository interface {
	// CreateTransaction returns ErrAlreadyEarned when an earned transaction
	// for the same order exists.
	CreateTransaction(ctx context.Context, tx *models.LoyaltyTransaction) error
	DeleteTransaction(ctx context.Context, id primitive.ObjectID) error
	ListByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.LoyaltyTransaction, int64, error)
	Recent(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.LoyaltyTransaction, error)

	FindExpired(ctx context.Context, now time.Time, limit int) ([]*models.LoyaltyTransaction, error)
	// ClaimExpiry marks an earned transaction processed; false means another
	// sweeper got there first.
	ClaimExpiry(ctx context.Context, id primitive.ObjectID) (bool, error)
	ReleaseExpiry(ctx context.Context, id primitive.ObjectID) error
}
