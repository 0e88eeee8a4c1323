package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type reviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) interfaces.ReviewRepository {
	return &reviewRepository{
		collection: db.Collection(collReviews),
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	now := time.Now()
	review.ID = primitive.NewObjectID()
	review.CreatedAt = now
	review.UpdatedAt = now
	if review.Flags == nil {
		review.Flags = []models.ReviewFlag{}
	}
	if review.EditHistory == nil {
		review.EditHistory = []models.ReviewEdit{}
	}

	if _, err := r.collection.InsertOne(ctx, review); err != nil {
		if database.IsDuplicateKey(err) {
			return utils.ErrReviewExists
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	return findOne[models.Review](ctx, r.collection, bson.M{"_id": id}, utils.ErrReviewNotFound)
}

func (r *reviewRepository) ExistsForOrder(ctx context.Context, userID, orderID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "order_id": orderID})
	if err != nil {
		return false, fmt.Errorf("failed to check existing review: %w", err)
	}
	return count > 0, nil
}

func (r *reviewRepository) List(ctx context.Context, filter interfaces.ReviewFilter, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	query := params.GetSearchFilter([]string{"comment"})
	if filter.RestaurantID != nil {
		query["restaurant_id"] = *filter.RestaurantID
	}
	if filter.UserID != nil {
		query["user_id"] = *filter.UserID
	}
	if filter.ModerationStatus != "" {
		query["moderation_status"] = filter.ModerationStatus
	}
	if filter.FlaggedOnly {
		query["flags.0"] = bson.M{"$exists": true}
	}
	if filter.VisibleOnly {
		query["moderation_status"] = bson.M{"$in": bson.A{models.ModerationStatusPending, models.ModerationStatusApproved}}
	}

	return findPaginated[models.Review](ctx, r.collection, query, params)
}

func (r *reviewRepository) Update(ctx context.Context, id primitive.ObjectID, set map[string]interface{}, edit *models.ReviewEdit) (*models.Review, error) {
	set["updated_at"] = time.Now()
	update := bson.M{"$set": set}
	if edit != nil {
		update["$push"] = bson.M{"edit_history": edit}
	}
	return updateAndReturn[models.Review](ctx, r.collection, bson.M{"_id": id}, update, utils.ErrReviewNotFound)
}

func (r *reviewRepository) AddFlag(ctx context.Context, id primitive.ObjectID, flag models.ReviewFlag) (*models.Review, error) {
	// One flag per user per review.
	filter := bson.M{"_id": id, "flags.user_id": bson.M{"$ne": flag.UserID}}
	update := bson.M{
		"$push": bson.M{"flags": flag},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	review, err := updateAndReturn[models.Review](ctx, r.collection, filter, update, utils.ErrReviewNotFound)
	if errors.Is(err, utils.ErrReviewNotFound) {
		return r.GetByID(ctx, id)
	}
	return review, err
}

func (r *reviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.DeletedCount == 0 {
		return utils.ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepository) RatingFor(ctx context.Context, restaurantID primitive.ObjectID) (models.Rating, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"restaurant_id":     restaurantID,
			"moderation_status": bson.M{"$nin": bson.A{models.ModerationStatusHidden, models.ModerationStatusRejected}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$ratings.overall"},
			"count":   bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return models.Rating{}, fmt.Errorf("failed to aggregate restaurant rating: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Average float64 `bson:"average"`
		Count   int     `bson:"count"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return models.Rating{}, fmt.Errorf("failed to decode restaurant rating: %w", err)
		}
	}

	return models.Rating{
		Average: math.Round(result.Average*100) / 100,
		Count:   result.Count,
	}, nil
}

func (r *reviewRepository) CountPending(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"moderation_status": models.ModerationStatusPending})
	if err != nil {
		return 0, fmt.Errorf("failed to count pending reviews: %w", err)
	}
	return count, nil
}
