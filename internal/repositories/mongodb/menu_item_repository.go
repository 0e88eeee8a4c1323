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

// appliedRefsRetained bounds the inline idempotence window. Older references
// are found through the stock_movements archive.
const appliedRefsRetained = 50

type menuItemRepository struct {
	collection *mongo.Collection
}

func NewMenuItemRepository(db *mongo.Database) interfaces.MenuItemRepository {
	return &menuItemRepository{
		collection: db.Collection(collMenuItems),
	}
}

func (r *menuItemRepository) Create(ctx context.Context, item *models.MenuItem) error {
	now := time.Now()
	item.ID = primitive.NewObjectID()
	item.Version = 1
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Inventory.StockHistory == nil {
		item.Inventory.StockHistory = []models.StockMovement{}
	}
	if item.Inventory.AppliedRefs == nil {
		item.Inventory.AppliedRefs = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
	}
	return nil
}

func (r *menuItemRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.MenuItem, error) {
	return findOne[models.MenuItem](ctx, r.collection, bson.M{"_id": id}, utils.ErrMenuItemNotFound)
}

func (r *menuItemRepository) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.MenuItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get menu items: %w", err)
	}
	return decodeAll[models.MenuItem](ctx, cursor)
}

func (r *menuItemRepository) ListByRestaurant(ctx context.Context, restaurantID primitive.ObjectID, availableOnly bool) ([]*models.MenuItem, error) {
	filter := bson.M{"restaurant_id": restaurantID}
	if availableOnly {
		filter["is_available"] = true
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}).
		SetProjection(bson.M{"inventory.stock_history": 0, "inventory.applied_refs": 0})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return decodeAll[models.MenuItem](ctx, cursor)
}

func (r *menuItemRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.MenuItem, error) {
	updates["updated_at"] = time.Now()
	update := bson.M{
		"$set": updates,
		"$inc": bson.M{"version": 1},
	}
	return updateAndReturn[models.MenuItem](ctx, r.collection, bson.M{"_id": id}, update, utils.ErrMenuItemNotFound)
}

func (r *menuItemRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	if result.DeletedCount == 0 {
		return utils.ErrMenuItemNotFound
	}
	return nil
}

func (r *menuItemRepository) ApplyStockUpdate(ctx context.Context, u interfaces.StockUpdate) (*models.MenuItem, error) {
	push := bson.M{
		"inventory.stock_history": bson.M{
			"$each":  bson.A{u.Movement},
			"$slice": -u.InlineHistory,
		},
	}
	if u.Movement.Reference != "" {
		push["inventory.applied_refs"] = bson.M{
			"$each":  bson.A{u.Movement.Reference},
			"$slice": -appliedRefsRetained,
		}
	}

	update := bson.M{
		"$set": bson.M{
			"inventory.current_stock": u.NewStock,
			"is_available":            u.IsAvailable,
			"updated_at":              u.Movement.Date,
		},
		"$inc":  bson.M{"version": 1},
		"$push": push,
	}

	filter := bson.M{"_id": u.ItemID, "version": u.ExpectedVersion}
	return updateAndReturn[models.MenuItem](ctx, r.collection, filter, update, interfaces.ErrConcurrentWrite)
}

func (r *menuItemRepository) ListLowStock(ctx context.Context, restaurantID primitive.ObjectID) ([]*models.MenuItem, error) {
	filter := bson.M{
		"restaurant_id": restaurantID,
		"$expr": bson.M{
			"$lte": bson.A{
				"$inventory.current_stock",
				bson.M{"$max": bson.A{"$inventory.reorder_point", "$inventory.low_stock_threshold"}},
			},
		},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "inventory.current_stock", Value: 1}}).
		SetProjection(bson.M{"inventory.stock_history": 0, "inventory.applied_refs": 0})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock items: %w", err)
	}
	return decodeAll[models.MenuItem](ctx, cursor)
}

type stockMovementRepository struct {
	collection *mongo.Collection
}

func NewStockMovementRepository(db *mongo.Database) interfaces.StockMovementRepository {
	return &stockMovementRepository{
		collection: db.Collection(collStockMovements),
	}
}

func (r *stockMovementRepository) Insert(ctx context.Context, movement *models.StockMovement) error {
	if movement.ID.IsZero() {
		movement.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, movement); err != nil {
		if database.IsDuplicateKey(err) {
			return nil
		}
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return nil
}

func (r *stockMovementRepository) HasReference(ctx context.Context, reference string) (bool, error) {
	if reference == "" {
		return false, nil
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"reference": reference}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up stock movement: %w", err)
	}
	return count > 0, nil
}

func (r *stockMovementRepository) ListByItem(ctx context.Context, itemID primitive.ObjectID, params *utils.PaginationParams) ([]*models.StockMovement, int64, error) {
	params.Sort = "date"
	return findPaginated[models.StockMovement](ctx, r.collection, bson.M{"item_id": itemID}, params)
}
