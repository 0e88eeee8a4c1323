package interfaces

import (
	"context"
	"time"

	"fooddash/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderTotals struct {
	Orders    int64
	Delivered int64
	Cancelled int64
	Revenue   float64
	ByStatus  map[models.OrderStatus]int64
}

type AnalyticsRepository interface {
	// OrderTotals aggregates orders created since `since`, optionally scoped
	// to a restaurant or customer. Revenue counts delivered orders only.
	OrderTotals(ctx context.Context, since time.Time, restaurantID, customerID *primitive.ObjectID) (*OrderTotals, error)
	DailyTrend(ctx context.Context, since time.Time, restaurantID *primitive.ObjectID) ([]models.DailyTrend, error)
	TopRestaurants(ctx context.Context, since time.Time, limit int) ([]models.TopRestaurant, error)
	TopItems(ctx context.Context, restaurantID primitive.ObjectID, since time.Time, limit int) ([]models.ItemSales, error)
	CountOpenDisputes(ctx context.Context) (int64, error)
}
