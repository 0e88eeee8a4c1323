package interfaces

import (
	"context"

	"fooddash/internal/models"
	"fooddash/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StockUpdate is a version-checked inventory write.
type StockUpdate struct {
	ItemID          primitive.ObjectID
	ExpectedVersion int64
	NewStock        int
	IsAvailable     bool
	Movement        models.StockMovement
	InlineHistory   int
}

type MenuItemRepository interface {
	Create(ctx context.Context, item *models.MenuItem) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.MenuItem, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.MenuItem, error)
	ListByRestaurant(ctx context.Context, restaurantID primitive.ObjectID, availableOnly bool) ([]*models.MenuItem, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.MenuItem, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// ApplyStockUpdate returns the updated item, or ErrConcurrentWrite when the
	// version no longer matches.
	ApplyStockUpdate(ctx context.Context, update StockUpdate) (*models.MenuItem, error)
	ListLowStock(ctx context.Context, restaurantID primitive.ObjectID) ([]*models.MenuItem, error)
}

type StockMovementRepository interface {
	Insert(ctx context.Context, movement *models.StockMovement) error
	// HasReference reports whether a movement with this reference was archived.
	HasReference(ctx context.Context, reference string) (bool, error)
	ListByItem(ctx context.Context, itemID primitive.ObjectID, params *utils.PaginationParams) ([]*models.StockMovement, int64, error)
}
