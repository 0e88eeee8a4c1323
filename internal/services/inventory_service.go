package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const stockWriteAttempts = 3

type InventoryService interface {
	AdjustStock(ctx context.Context, actor models.Actor, restaurantID, itemID primitive.ObjectID, delta int, mode models.StockMode, reason string) (*models.MenuItem, error)
	// ApplyOrderStock removes quantity for an order line. A repeated call
	// with the same reference is a no-op.
	ApplyOrderStock(ctx context.Context, restaurantID, itemID primitive.ObjectID, quantity int, reason, reference string) (*models.MenuItem, error)
	ListLowStock(ctx context.Context, actor models.Actor, restaurantID primitive.ObjectID) ([]*models.MenuItem, error)
	StockHistory(ctx context.Context, actor models.Actor, restaurantID, itemID primitive.ObjectID, params *utils.PaginationParams) ([]*models.StockMovement, int64, error)
}

type inventoryService struct {
	restaurantRepo interfaces.RestaurantRepository
	menuItemRepo   interfaces.MenuItemRepository
	movementRepo   interfaces.StockMovementRepository
	notifications  NotificationService
	inlineHistory  int
	logger         *logger.Logger
}

func NewInventoryService(
	restaurantRepo interfaces.RestaurantRepository,
	menuItemRepo interfaces.MenuItemRepository,
	movementRepo interfaces.StockMovementRepository,
	notifications NotificationService,
	inlineHistory int,
	log *logger.Logger,
) InventoryService {
	if log == nil {
		log = logger.NewNop()
	}
	if inlineHistory < 1 {
		inlineHistory = 1
	}
	return &inventoryService{
		restaurantRepo: restaurantRepo,
		menuItemRepo:   menuItemRepo,
		movementRepo:   movementRepo,
		notifications:  notifications,
		inlineHistory:  inlineHistory,
		logger:         log,
	}
}

// NextStock applies mode to current. remove clamps at zero.
func NextStock(current, delta int, mode models.StockMode) int {
	switch mode {
	case models.StockModeAdd:
		return current + delta
	case models.StockModeRemove:
		if delta > current {
			return 0
		}
		return current - delta
	case models.StockModeSet:
		return delta
	}
	return current
}

// NextAvailability turns an item off at zero stock and back on when stock
// rises from zero. Otherwise the current flag is kept.
func NextAvailability(available bool, previous, next int) bool {
	if next == 0 {
		return false
	}
	if previous == 0 {
		return true
	}
	return available
}

func (s *inventoryService) AdjustStock(ctx context.Context, actor models.Actor, restaurantID, itemID primitive.ObjectID, delta int, mode models.StockMode, reason string) (*models.MenuItem, error) {
	if delta < 0 {
		return nil, utils.NewValidationError(utils.ErrValidationFailed, map[string]string{"delta": "Delta cannot be negative"})
	}
	if !mode.IsValid() {
		return nil, utils.NewValidationError(utils.ErrValidationFailed, map[string]string{"mode": "Mode must be add, remove or set"})
	}

	restaurant, err := loadManagedRestaurant(ctx, s.restaurantRepo, actor, restaurantID)
	if err != nil {
		return nil, err
	}

	return s.adjust(ctx, restaurant, itemID, delta, mode, reason, "", actor.ID)
}

func (s *inventoryService) ApplyOrderStock(ctx context.Context, restaurantID, itemID primitive.ObjectID, quantity int, reason, reference string) (*models.MenuItem, error) {
	restaurant, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return s.adjust(ctx, restaurant, itemID, quantity, models.StockModeRemove, reason, reference, models.SystemActor.ID)
}

func (s *inventoryService) adjust(ctx context.Context, restaurant *models.Restaurant, itemID primitive.ObjectID, delta int, mode models.StockMode, reason, reference string, updatedBy primitive.ObjectID) (*models.MenuItem, error) {
	for attempt := 1; attempt <= stockWriteAttempts; attempt++ {
		item, err := s.menuItemRepo.GetByID(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if item.RestaurantID != restaurant.ID {
			return nil, utils.ErrMenuItemNotFound
		}
		if item.Inventory.HasApplied(reference) {
			return item, nil
		}
		if reference != "" {
			archived, err := s.movementRepo.HasReference(ctx, reference)
			if err != nil {
				return nil, err
			}
			if archived {
				return item, nil
			}
		}

		previous := item.Inventory.CurrentStock
		next := NextStock(previous, delta, mode)
		movement := models.StockMovement{
			ID:            primitive.NewObjectID(),
			ItemID:        item.ID,
			RestaurantID:  restaurant.ID,
			Date:          time.Now(),
			Type:          mode,
			Quantity:      delta,
			PreviousStock: previous,
			NewStock:      next,
			Reason:        reason,
			Reference:     reference,
			UpdatedBy:     updatedBy,
		}

		updated, err := s.menuItemRepo.ApplyStockUpdate(ctx, interfaces.StockUpdate{
			ItemID:          item.ID,
			ExpectedVersion: item.Version,
			NewStock:        next,
			IsAvailable:     NextAvailability(item.IsAvailable, previous, next),
			Movement:        movement,
			InlineHistory:   s.inlineHistory,
		})
		if errors.Is(err, interfaces.ErrConcurrentWrite) {
			s.logger.WithFields(map[string]interface{}{
				"item_id": itemID.Hex(),
				"attempt": attempt,
			}).Debug("Stock write lost a race, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := s.movementRepo.Insert(ctx, &movement); err != nil {
			s.logger.WithError(err).WithField("item_id", itemID.Hex()).Warn("Failed to archive stock movement")
		}

		s.alert(ctx, restaurant, updated, previous)
		return updated, nil
	}

	return nil, utils.ErrConcurrentWrite
}

// alert notifies the owner when stock lands in (0, threshold], or that the item
// became unavailable when it reaches zero.
func (s *inventoryService) alert(ctx context.Context, restaurant *models.Restaurant, item *models.MenuItem, previous int) {
	if s.notifications == nil {
		return
	}

	stock := item.Inventory.CurrentStock
	var payload *models.NotificationPayload
	switch {
	case stock > 0 && stock <= item.Inventory.LowStockThreshold:
		payload = &models.NotificationPayload{
			UserID:  restaurant.OwnerID,
			Type:    models.NotificationTypeLowStock,
			Title:   "Low stock",
			Message: fmt.Sprintf("%s is running low (%d left)", item.Name, stock),
		}
	case stock == 0 && previous > 0:
		payload = &models.NotificationPayload{
			UserID:  restaurant.OwnerID,
			Type:    models.NotificationTypeItemUnavailable,
			Title:   "Item unavailable",
			Message: fmt.Sprintf("%s is out of stock and was marked unavailable", item.Name),
		}
	default:
		return
	}

	payload.Data = map[string]string{
		"restaurant_id": restaurant.ID.Hex(),
		"item_id":       item.ID.Hex(),
		"stock":         strconv.Itoa(stock),
	}
	if _, err := s.notifications.Send(ctx, payload); err != nil {
		s.logger.WithError(err).WithField("item_id", item.ID.Hex()).Warn("Failed to send stock alert")
	}
}

func (s *inventoryService) ListLowStock(ctx context.Context, actor models.Actor, restaurantID primitive.ObjectID) ([]*models.MenuItem, error) {
	if _, err := loadManagedRestaurant(ctx, s.restaurantRepo, actor, restaurantID); err != nil {
		return nil, err
	}
	return s.menuItemRepo.ListLowStock(ctx, restaurantID)
}

func (s *inventoryService) StockHistory(ctx context.Context, actor models.Actor, restaurantID, itemID primitive.ObjectID, params *utils.PaginationParams) ([]*models.StockMovement, int64, error) {
	if _, err := loadManagedRestaurant(ctx, s.restaurantRepo, actor, restaurantID); err != nil {
		return nil, 0, err
	}

	item, err := s.menuItemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, 0, err
	}
	if item.RestaurantID != restaurantID {
		return nil, 0, utils.ErrMenuItemNotFound
	}

	return s.movementRepo.ListByItem(ctx, itemID, params)
}
