package interfaces

import (
	"context"

	"fooddash/internal/models"
	"fooddash/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewFilter struct {
	RestaurantID     *primitive.ObjectID
	UserID           *primitive.ObjectID
	ModerationStatus models.ModerationStatus
	FlaggedOnly      bool
	VisibleOnly      bool
}

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	ExistsForOrder(ctx context.Context, userID, orderID primitive.ObjectID) (bool, error)
	List(ctx context.Context, filter ReviewFilter, params *utils.PaginationParams) ([]*models.Review, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, set map[string]interface{}, edit *models.ReviewEdit) (*models.Review, error)
	AddFlag(ctx context.Context, id primitive.ObjectID, flag models.ReviewFlag) (*models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// RatingFor recomputes a restaurant's rating from its non-hidden reviews.
	RatingFor(ctx context.Context, restaurantID primitive.ObjectID) (models.Rating, error)
	CountPending(ctx context.Context) (int64, error)
}
