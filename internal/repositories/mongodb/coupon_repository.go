package mongodb

import (
	"context"
	"fmt"
	"strings"
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

type couponRepository struct {
	collection *mongo.Collection
}

func NewCouponRepository(db *mongo.Database) interfaces.CouponRepository {
	return &couponRepository{
		collection: db.Collection(collCoupons),
	}
}

func (r *couponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	now := time.Now()
	coupon.ID = primitive.NewObjectID()
	coupon.Code = strings.ToUpper(coupon.Code)
	coupon.CreatedAt = now
	coupon.UpdatedAt = now
	if coupon.ApplicableRestaurants == nil {
		coupon.ApplicableRestaurants = []primitive.ObjectID{}
	}

	if _, err := r.collection.InsertOne(ctx, coupon); err != nil {
		if database.IsDuplicateKey(err) {
			return utils.ErrCouponCodeTaken
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

func (r *couponRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	return findOne[models.Coupon](ctx, r.collection, bson.M{"_id": id}, utils.ErrCouponNotFound)
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return findOne[models.Coupon](ctx, r.collection, bson.M{"code": strings.ToUpper(strings.TrimSpace(code))}, utils.ErrCouponNotFound)
}

func (r *couponRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Coupon, error) {
	updates["updated_at"] = time.Now()
	if code, ok := updates["code"].(string); ok {
		updates["code"] = strings.ToUpper(code)
	}

	coupon, err := updateAndReturn[models.Coupon](ctx, r.collection, bson.M{"_id": id}, bson.M{"$set": updates}, utils.ErrCouponNotFound)
	if err != nil && database.IsDuplicateKey(err) {
		return nil, utils.ErrCouponCodeTaken
	}
	return coupon, err
}

func (r *couponRepository) List(ctx context.Context, activeOnly bool, params *utils.PaginationParams) ([]*models.Coupon, int64, error) {
	filter := params.GetSearchFilter([]string{"code", "description"})
	if activeOnly {
		filter["is_active"] = true
	}
	return findPaginated[models.Coupon](ctx, r.collection, filter, params)
}

func (r *couponRepository) ListAvailable(ctx context.Context, now time.Time, restaurantID *primitive.ObjectID) ([]*models.Coupon, error) {
	filter := bson.M{
		"is_active":  true,
		"start_date": bson.M{"$lte": now},
		"end_date":   bson.M{"$gte": now},
		"$or": bson.A{
			bson.M{"usage_limit.total": 0},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usage_count", "$usage_limit.total"}}},
		},
	}
	if restaurantID != nil {
		filter["$and"] = bson.A{
			bson.M{"$or": bson.A{
				bson.M{"applicable_restaurants": bson.M{"$size": 0}},
				bson.M{"applicable_restaurants": *restaurantID},
			}},
		}
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "end_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list available coupons: %w", err)
	}
	return decodeAll[models.Coupon](ctx, cursor)
}

func (r *couponRepository) IncrementUsage(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	filter := bson.M{
		"_id":        id,
		"is_active":  true,
		"start_date": bson.M{"$lte": now},
		"end_date":   bson.M{"$gte": now},
		"$or": bson.A{
			bson.M{"usage_limit.total": 0},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usage_count", "$usage_limit.total"}}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"usage_count": 1},
		"$set": bson.M{"updated_at": now},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return utils.ErrCouponExhausted
	}
	return nil
}

func (r *couponRepository) DecrementUsage(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "usage_count": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"usage_count": -1}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to decrement coupon usage: %w", err)
	}
	return nil
}
