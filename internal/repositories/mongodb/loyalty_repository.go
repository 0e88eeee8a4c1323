package mongodb

import (
	"context"
	"fmt"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type loyaltyRepository struct {
	collection *mongo.Collection
}

func NewLoyaltyRepository(db *mongo.Database) interfaces.LoyaltyRepository {
	return &loyaltyRepository{
		collection: db.Collection(collLoyalty),
	}
}

func (r *loyaltyRepository) CreateTransaction(ctx context.Context, tx *models.LoyaltyTransaction) error {
	tx.ID = primitive.NewObjectID()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, tx); err != nil {
		if database.IsDuplicateKey(err) {
			return utils.ErrAlreadyEarned
		}
		return fmt.Errorf("failed to create loyalty transaction: %w", err)
	}
	return nil
}

func (r *loyaltyRepository) DeleteTransaction(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete loyalty transaction: %w", err)
	}
	return nil
}

func (r *loyaltyRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.LoyaltyTransaction, int64, error) {
	return findPaginated[models.LoyaltyTransaction](ctx, r.collection, bson.M{"user_id": userID}, params)
}

func (r *loyaltyRepository) Recent(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.LoyaltyTransaction, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent loyalty transactions: %w", err)
	}
	return decodeAll[models.LoyaltyTransaction](ctx, cursor)
}

func (r *loyaltyRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*models.LoyaltyTransaction, error) {
	filter := bson.M{
		"type":             models.LoyaltyTransactionEarned,
		"expires_at":       bson.M{"$lte": now},
		"expiry_processed": false,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "expires_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired loyalty transactions: %w", err)
	}
	return decodeAll[models.LoyaltyTransaction](ctx, cursor)
}

func (r *loyaltyRepository) ClaimExpiry(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "expiry_processed": false},
		bson.M{"$set": bson.M{"expiry_processed": true}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim loyalty expiry: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *loyaltyRepository) ReleaseExpiry(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"expiry_processed": false}},
	)
	if err != nil {
		return fmt.Errorf("failed to release loyalty expiry: %w", err)
	}
	return nil
}
