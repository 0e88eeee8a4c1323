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

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection(collUsers),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, r.collection, bson.M{"_id": id}, utils.ErrUserNotFound)
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *userRepository) AddLoyaltyPoints(ctx context.Context, userID primitive.ObjectID, points int) (*models.User, error) {
	update := bson.M{
		"$inc": bson.M{"loyalty_points": points, "lifetime_points": points},
		"$set": bson.M{"updated_at": time.Now()},
	}
	return updateAndReturn[models.User](ctx, r.collection, bson.M{"_id": userID}, update, utils.ErrUserNotFound)
}

func (r *userRepository) RestoreLoyaltyPoints(ctx context.Context, userID primitive.ObjectID, points int) (*models.User, error) {
	update := bson.M{
		"$inc": bson.M{"loyalty_points": points},
		"$set": bson.M{"updated_at": time.Now()},
	}
	return updateAndReturn[models.User](ctx, r.collection, bson.M{"_id": userID}, update, utils.ErrUserNotFound)
}

func (r *userRepository) DeductLoyaltyPoints(ctx context.Context, userID primitive.ObjectID, points int) (*models.User, error) {
	filter := bson.M{
		"_id":            userID,
		"loyalty_points": bson.M{"$gte": points},
	}
	update := bson.M{
		"$inc": bson.M{"loyalty_points": -points},
		"$set": bson.M{"updated_at": time.Now()},
	}

	user, err := updateAndReturn[models.User](ctx, r.collection, filter, update, utils.ErrInsufficientPoints)
	if errors.Is(err, utils.ErrInsufficientPoints) {
		if _, getErr := r.GetByID(ctx, userID); getErr != nil {
			return nil, getErr
		}
	}
	return user, err
}

func (r *userRepository) RecordCouponUse(ctx context.Context, userID primitive.ObjectID, use models.UsedCoupon, perUserLimit int) error {
	filter := bson.M{"_id": userID}
	if perUserLimit > 0 {
		active := bson.M{"$and": bson.A{
			bson.M{"$eq": bson.A{"$$this.coupon_id", use.CouponID}},
			bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$$this.released_at", nil}}, nil}},
		}}
		filter["$expr"] = bson.M{
			"$lt": bson.A{
				bson.M{"$size": bson.M{"$filter": bson.M{
					"input": bson.M{"$ifNull": bson.A{"$used_coupons", bson.A{}}},
					"cond":  active,
				}}},
				perUserLimit,
			},
		}
	}

	update := bson.M{
		"$push": bson.M{"used_coupons": use},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to record coupon use: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, userID); err != nil {
			return err
		}
		return utils.ErrCouponUserLimit
	}
	return nil
}

func (r *userRepository) ReleaseCouponUse(ctx context.Context, userID, couponID, orderID primitive.ObjectID, at time.Time) error {
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{
			"use.coupon_id":   couponID,
			"use.order_id":    orderID,
			"use.released_at": bson.M{"$exists": false},
		}},
	})
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"used_coupons.$[use].released_at": at,
			"updated_at":                      time.Now(),
		}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("failed to release coupon use: %w", err)
	}
	return nil
}

func (r *userRepository) RegisterDeviceToken(ctx context.Context, userID primitive.ObjectID, token models.DeviceToken) error {
	if err := r.RemoveDeviceToken(ctx, userID, token.Token); err != nil {
		return err
	}

	token.UpdatedAt = time.Now()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"device_tokens": bson.M{"$each": bson.A{token}, "$slice": -10}}},
	)
	if err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}
	if result.MatchedCount == 0 {
		return utils.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) RemoveDeviceToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"device_tokens": bson.M{"token": token}}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove device token: %w", err)
	}
	return nil
}
