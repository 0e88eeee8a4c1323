package interfaces

import (
	"context"

	"fooddash/internal/models"
	"fooddash/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RestaurantFilter struct {
	OwnerID    *primitive.ObjectID
	Cuisine    string
	ActiveOnly bool
}

type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *models.Restaurant) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Restaurant, error)
	List(ctx context.Context, filter RestaurantFilter, params *utils.PaginationParams) ([]*models.Restaurant, int64, error)
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]*models.Restaurant, error)
	Nearby(ctx context.Context, latitude, longitude float64, maxDistanceMeters float64, limit int) ([]*models.Restaurant, error)
	Count(ctx context.Context, activeOnly bool) (int64, error)

	// AddRating folds one rating into the running average atomically.
	AddRating(ctx context.Context, id primitive.ObjectID, value float64) error
	SetRating(ctx context.Context, id primitive.ObjectID, rating models.Rating) error
}
