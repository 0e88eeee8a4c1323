package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fooddash/internal/utils"
)

// CacheService is the subset of pkg/cache the repositories use. A nil cache
// disables caching.
type CacheService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	collUsers          = "users"
	collRestaurants    = "restaurants"
	collMenuItems      = "menu_items"
	collStockMovements = "stock_movements"
	collOrders         = "orders"
	collCoupons        = "coupons"
	collLoyalty        = "loyalty_transactions"
	collReviews        = "reviews"
	collNotifications  = "notifications"
	collOutbox         = "outbox"
)

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]*T, error) {
	defer cursor.Close(ctx)

	results := make([]*T, 0)
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		results = append(results, &doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return results, nil
}

// findPaginated runs filter with the pagination params and returns the page
// plus the total match count.
func findPaginated[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, params *utils.PaginationParams) ([]*T, int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	cursor, err := coll.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find documents: %w", err)
	}

	items, err := decodeAll[T](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// findOne decodes a single document, mapping a miss to notFound.
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, notFound error) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to find %s: %w", coll.Name(), err)
	}
	return &doc, nil
}

// updateAndReturn applies update to the first document matching filter and
// returns it after the update.
func updateAndReturn[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, update interface{}, notFound error) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc T
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to update %s: %w", coll.Name(), err)
	}
	return &doc, nil
}
