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
)

type orderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) interfaces.OrderRepository {
	return &orderRepository{
		collection: db.Collection(collOrders),
	}
}

// Create inserts order. The caller may preassign ID so that side effects can
// reference it before the insert.
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	now := time.Now()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.Version = 1
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return findOne[models.Order](ctx, r.collection, bson.M{"_id": id}, utils.ErrOrderNotFound)
}

func (r *orderRepository) List(ctx context.Context, filter models.OrderFilter, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	query := params.GetSearchFilter([]string{"order_number"})
	if filter.CustomerID != nil {
		query["customer_id"] = *filter.CustomerID
	}
	if filter.RestaurantID != nil {
		query["restaurant_id"] = *filter.RestaurantID
	} else if filter.RestaurantIDs != nil {
		query["restaurant_id"] = bson.M{"$in": filter.RestaurantIDs}
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.DisputeState != "" {
		query["dispute.state"] = filter.DisputeState
	}
	if filter.From != nil || filter.To != nil {
		created := bson.M{}
		if filter.From != nil {
			created["$gte"] = *filter.From
		}
		if filter.To != nil {
			created["$lte"] = *filter.To
		}
		query["created_at"] = created
	}

	return findPaginated[models.Order](ctx, r.collection, query, params)
}

func (r *orderRepository) CountByCustomer(ctx context.Context, customerID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"customer_id": customerID})
	if err != nil {
		return 0, fmt.Errorf("failed to count customer orders: %w", err)
	}
	return count, nil
}

func (r *orderRepository) UpdateGuarded(ctx context.Context, guard interfaces.OrderGuard, set map[string]interface{}, history *models.StatusChange) (*models.Order, error) {
	if set == nil {
		set = map[string]interface{}{}
	}
	set["updated_at"] = time.Now()

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
	if history != nil {
		update["$push"] = bson.M{"status_history": history}
	}

	filter := bson.M{
		"_id":     guard.ID,
		"status":  guard.Status,
		"version": guard.Version,
	}

	order, err := updateAndReturn[models.Order](ctx, r.collection, filter, update, interfaces.ErrConcurrentWrite)
	if errors.Is(err, interfaces.ErrConcurrentWrite) {
		if _, getErr := r.GetByID(ctx, guard.ID); getErr != nil {
			return nil, getErr
		}
	}
	return order, err
}
