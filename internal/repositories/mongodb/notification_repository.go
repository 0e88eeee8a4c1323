package mongodb

import (
	"context"
	"fmt"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type notificationRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewNotificationRepository(db *mongo.Database, cache CacheService) interfaces.NotificationRepository {
	return &notificationRepository{
		collection: db.Collection(collNotifications),
		cache:      cache,
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	r.invalidateUnreadCount(ctx, notification.UserID)
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	filter := activeFilter(userID)
	if unreadOnly {
		filter["is_read"] = false
	}
	return findPaginated[models.Notification](ctx, r.collection, filter, params)
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	cacheKey := utils.CacheUnreadCountPrefix + userID.Hex()
	if r.cache != nil {
		var count int64
		if err := r.cache.Get(ctx, cacheKey, &count); err == nil {
			return count, nil
		}
	}

	filter := activeFilter(userID)
	filter["is_read"] = false

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	if r.cache != nil {
		r.cache.Set(ctx, cacheKey, count, utils.UnreadCountTTL)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	now := time.Now()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"is_read": true, "read_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.MatchedCount == 0 {
		return utils.ErrNotificationNotFound
	}

	r.invalidateUnreadCount(ctx, userID)
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	now := time.Now()
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}

	r.invalidateUnreadCount(ctx, userID)
	return result.ModifiedCount, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.DeletedCount == 0 {
		return utils.ErrNotificationNotFound
	}

	r.invalidateUnreadCount(ctx, userID)
	return nil
}

// DeleteExpired removes expired notifications ahead of the TTL monitor.
func (r *notificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired notifications: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *notificationRepository) invalidateUnreadCount(ctx context.Context, userID primitive.ObjectID) {
	if r.cache != nil {
		r.cache.Delete(ctx, utils.CacheUnreadCountPrefix+userID.Hex())
	}
}

func activeFilter(userID primitive.ObjectID) bson.M {
	return bson.M{
		"user_id": userID,
		"$or": bson.A{
			bson.M{"expires_at": nil},
			bson.M{"expires_at": bson.M{"$gt": time.Now()}},
		},
	}
}
