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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type restaurantRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewRestaurantRepository(db *mongo.Database, cache CacheService) interfaces.RestaurantRepository {
	return &restaurantRepository{
		collection: db.Collection(collRestaurants),
		cache:      cache,
	}
}

func (r *restaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	now := time.Now()
	restaurant.ID = primitive.NewObjectID()
	restaurant.CreatedAt = now
	restaurant.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, restaurant); err != nil {
		return fmt.Errorf("failed to create restaurant: %w", err)
	}
	return nil
}

func (r *restaurantRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error) {
	cacheKey := utils.CacheRestaurantPrefix + id.Hex()
	if r.cache != nil {
		var cached models.Restaurant
		if err := r.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	restaurant, err := findOne[models.Restaurant](ctx, r.collection, bson.M{"_id": id}, utils.ErrRestaurantNotFound)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.Set(ctx, cacheKey, restaurant, utils.RestaurantTTL)
	}
	return restaurant, nil
}

func (r *restaurantRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Restaurant, error) {
	updates["updated_at"] = time.Now()

	restaurant, err := updateAndReturn[models.Restaurant](ctx, r.collection, bson.M{"_id": id}, bson.M{"$set": updates}, utils.ErrRestaurantNotFound)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id)
	return restaurant, nil
}

func (r *restaurantRepository) List(ctx context.Context, filter interfaces.RestaurantFilter, params *utils.PaginationParams) ([]*models.Restaurant, int64, error) {
	query := params.GetSearchFilter([]string{"name", "cuisine", "address.city"})
	if filter.OwnerID != nil {
		query["owner_id"] = *filter.OwnerID
	}
	if filter.Cuisine != "" {
		query["cuisine"] = filter.Cuisine
	}
	if filter.ActiveOnly {
		query["is_active"] = true
	}

	return findPaginated[models.Restaurant](ctx, r.collection, query, params)
}

func (r *restaurantRepository) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]*models.Restaurant, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list owner restaurants: %w", err)
	}
	return decodeAll[models.Restaurant](ctx, cursor)
}

func (r *restaurantRepository) Nearby(ctx context.Context, latitude, longitude float64, maxDistanceMeters float64, limit int) ([]*models.Restaurant, error) {
	filter := bson.M{
		"is_active": true,
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    models.NewGeoPoint(latitude, longitude),
				"$maxDistance": maxDistanceMeters,
			},
		},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby restaurants: %w", err)
	}
	return decodeAll[models.Restaurant](ctx, cursor)
}

func (r *restaurantRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count restaurants: %w", err)
	}
	return count, nil
}

func (r *restaurantRepository) AddRating(ctx context.Context, id primitive.ObjectID, value float64) error {
	// Pipeline update so the average and count are read and written in one step.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"rating.average": bson.M{"$round": bson.A{
				bson.M{"$divide": bson.A{
					bson.M{"$add": bson.A{
						bson.M{"$multiply": bson.A{
							bson.M{"$ifNull": bson.A{"$rating.average", 0}},
							bson.M{"$ifNull": bson.A{"$rating.count", 0}},
						}},
						value,
					}},
					bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$rating.count", 0}}, 1}},
				}},
				2,
			}},
			"rating.count": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$rating.count", 0}}, 1}},
			"updated_at":   time.Now(),
		}}},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to add restaurant rating: %w", err)
	}
	if result.MatchedCount == 0 {
		return utils.ErrRestaurantNotFound
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *restaurantRepository) SetRating(ctx context.Context, id primitive.ObjectID, rating models.Rating) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"rating": rating, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set restaurant rating: %w", err)
	}
	if result.MatchedCount == 0 {
		return utils.ErrRestaurantNotFound
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *restaurantRepository) invalidate(ctx context.Context, id primitive.ObjectID) {
	if r.cache != nil {
		r.cache.Delete(ctx, utils.CacheRestaurantPrefix+id.Hex())
	}
}
