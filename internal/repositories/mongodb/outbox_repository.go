package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type outboxRepository struct {
	collection *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) interfaces.OutboxRepository {
	return &outboxRepository{
		collection: db.Collection(collOutbox),
	}
}

func (r *outboxRepository) Enqueue(ctx context.Context, msg *models.OutboxMessage) error {
	now := time.Now()
	msg.ID = primitive.NewObjectID()
	msg.Status = models.OutboxStatusPending
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if msg.NextAttemptAt.IsZero() {
		msg.NextAttemptAt = now
	}

	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to enqueue outbox message: %w", err)
	}
	return nil
}

func (r *outboxRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*models.OutboxMessage, error) {
	filter := bson.M{
		"status":          models.OutboxStatusPending,
		"next_attempt_at": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{"next_attempt_at": now.Add(lease), "updated_at": now}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}}).
		SetReturnDocument(options.After)

	claimed := make([]*models.OutboxMessage, 0, limit)
	for len(claimed) < limit {
		var msg models.OutboxMessage
		err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&msg)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return claimed, fmt.Errorf("failed to claim outbox message: %w", err)
		}
		claimed = append(claimed, &msg)
	}
	return claimed, nil
}

func (r *outboxRepository) MarkDone(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.OutboxStatusDone, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox message done: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, attempts int, lastErr string, nextAttempt time.Time, dead bool) error {
	status := models.OutboxStatusPending
	if dead {
		status = models.OutboxStatusDead
	}

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":          status,
			"attempts":        attempts,
			"last_error":      lastErr,
			"next_attempt_at": nextAttempt,
			"updated_at":      time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox message failed: %w", err)
	}
	return nil
}

func (r *outboxRepository) List(ctx context.Context, status models.OutboxStatus, params *utils.PaginationParams) ([]*models.OutboxMessage, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findPaginated[models.OutboxMessage](ctx, r.collection, filter, params)
}

func (r *outboxRepository) RequeueDead(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"status": models.OutboxStatusDead},
		bson.M{"$set": bson.M{
			"status":          models.OutboxStatusPending,
			"attempts":        0,
			"next_attempt_at": now,
			"updated_at":      now,
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue dead outbox messages: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *outboxRepository) CountByStatus(ctx context.Context) (map[models.OutboxStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count outbox messages: %w", err)
	}
	defer cursor.Close(ctx)

	counts := map[models.OutboxStatus]int64{}
	for cursor.Next(ctx) {
		var row struct {
			Status models.OutboxStatus `bson:"_id"`
			Count  int64               `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode outbox count: %w", err)
		}
		counts[row.Status] = row.Count
	}
	return counts, cursor.Err()
}
