package mongodb

import (
	"context"
	"fmt"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type analyticsRepository struct {
	orders *mongo.Collection
}

func NewAnalyticsRepository(db *mongo.Database) interfaces.AnalyticsRepository {
	return &analyticsRepository{
		orders: db.Collection(collOrders),
	}
}

func orderMatch(since time.Time, restaurantID, customerID *primitive.ObjectID) bson.M {
	match := bson.M{"created_at": bson.M{"$gte": since}}
	if restaurantID != nil {
		match["restaurant_id"] = *restaurantID
	}
	if customerID != nil {
		match["customer_id"] = *customerID
	}
	return match
}

func deliveredRevenue() bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{
		bson.M{"$eq": bson.A{"$status", models.OrderStatusDelivered}},
		"$pricing.total",
		0,
	}}}
}

func statusCount(status models.OrderStatus) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$status", status}}, 1, 0}}}
}

func (r *analyticsRepository) OrderTotals(ctx context.Context, since time.Time, restaurantID, customerID *primitive.ObjectID) (*interfaces.OrderTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: orderMatch(since, restaurantID, customerID)}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$status",
			"count":   bson.M{"$sum": 1},
			"revenue": deliveredRevenue(),
		}}},
	}

	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate order totals: %w", err)
	}
	defer cursor.Close(ctx)

	totals := &interfaces.OrderTotals{ByStatus: map[models.OrderStatus]int64{}}
	for cursor.Next(ctx) {
		var row struct {
			Status  models.OrderStatus `bson:"_id"`
			Count   int64              `bson:"count"`
			Revenue float64            `bson:"revenue"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode order totals: %w", err)
		}
		totals.ByStatus[row.Status] = row.Count
		totals.Orders += row.Count
		totals.Revenue += row.Revenue
		switch row.Status {
		case models.OrderStatusDelivered:
			totals.Delivered = row.Count
		case models.OrderStatusCancelled:
			totals.Cancelled = row.Count
		}
	}
	return totals, cursor.Err()
}

func (r *analyticsRepository) DailyTrend(ctx context.Context, since time.Time, restaurantID *primitive.ObjectID) ([]models.DailyTrend, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: orderMatch(since, restaurantID, nil)}},
		{{Key: "$group", Value: bson.M{
			"_id":       bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$created_at"}},
			"orders":    bson.M{"$sum": 1},
			"delivered": statusCount(models.OrderStatusDelivered),
			"cancelled": statusCount(models.OrderStatusCancelled),
			"revenue":   deliveredRevenue(),
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily trend: %w", err)
	}

	trend := make([]models.DailyTrend, 0)
	if err := cursor.All(ctx, &trend); err != nil {
		return nil, fmt.Errorf("failed to decode daily trend: %w", err)
	}
	return trend, nil
}

func (r *analyticsRepository) TopRestaurants(ctx context.Context, since time.Time, limit int) ([]models.TopRestaurant, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"created_at": bson.M{"$gte": since},
			"status":     models.OrderStatusDelivered,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$restaurant_id",
			"orders":  bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$pricing.total"},
		}}},
		{{Key: "$sort", Value: bson.M{"revenue": -1}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collRestaurants,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "restaurant",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$restaurant", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"orders":  1,
			"revenue": 1,
			"name":    "$restaurant.name",
			"rating":  "$restaurant.rating.average",
		}}},
	}

	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top restaurants: %w", err)
	}

	top := make([]models.TopRestaurant, 0)
	if err := cursor.All(ctx, &top); err != nil {
		return nil, fmt.Errorf("failed to decode top restaurants: %w", err)
	}
	return top, nil
}

func (r *analyticsRepository) TopItems(ctx context.Context, restaurantID primitive.ObjectID, since time.Time, limit int) ([]models.ItemSales, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"restaurant_id": restaurantID,
			"created_at":    bson.M{"$gte": since},
			"status":        bson.M{"$ne": models.OrderStatusCancelled},
		}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$items.menu_item_id",
			"name":     bson.M{"$first": "$items.name"},
			"quantity": bson.M{"$sum": "$items.quantity"},
			"revenue":  bson.M{"$sum": "$items.line_total"},
		}}},
		{{Key: "$sort", Value: bson.M{"quantity": -1}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top items: %w", err)
	}

	items := make([]models.ItemSales, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode top items: %w", err)
	}
	return items, nil
}

func (r *analyticsRepository) CountOpenDisputes(ctx context.Context) (int64, error) {
	count, err := r.orders.CountDocuments(ctx, bson.M{"dispute.state": models.DisputeStateOpen})
	if err != nil {
		return 0, fmt.Errorf("failed to count open disputes: %w", err)
	}
	return count, nil
}
