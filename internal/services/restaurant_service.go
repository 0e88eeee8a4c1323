package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/logger"
	"fooddash/pkg/maps"
	"fooddash/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxImageWidth        = 1200
	defaultNearbyRadiusM = 5000
	defaultNearbyLimit   = 20
)

type RestaurantService interface {
	// Restaurants
	CreateRestaurant(ctx context.Context, actor models.Actor, restaurant *models.Restaurant) (*models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, actor models.Actor, id primitive.ObjectID, updates map[string]interface{}) (*models.Restaurant, error)
	SetActive(ctx context.Context, actor models.Actor, id primitive.ObjectID, active bool) (*models.Restaurant, error)
	GetRestaurant(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context, filter interfaces.RestaurantFilter, params *utils.PaginationParams) ([]*models.Restaurant, int64, error)
	ListOwned(ctx context.Context, actor models.Actor) ([]*models.Restaurant, error)
	Nearby(ctx context.Context, latitude, longitude, radiusKm float64, limit int) ([]*models.Restaurant, error)
	UploadRestaurantImage(ctx context.Context, actor models.Actor, id primitive.ObjectID, filename string, r io.Reader) (*models.Restaurant, error)

	// Menu
	CreateMenuItem(ctx context.Context, actor models.Actor, restaurantID primitive.ObjectID, item *models.MenuItem) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, actor models.Actor, restaurantID, itemID primitive.ObjectID, updates map[string]interface{}) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, actor models.Actor, restaurantID, itemID primitive.ObjectID) error
	ListMenu(ctx context.Context, restaurantID primitive.ObjectID, availableOnly bool) ([]*models.MenuItem, error)
	UploadMenuItemImage(ctx context.Context, actor models.Actor, restaurantID, itemID primitive.ObjectID, filename string, r io.Reader) (*models.MenuItem, error)
}

type restaurantService struct {
	restaurantRepo interfaces.RestaurantRepository
	menuItemRepo   interfaces.MenuItemRepository
	geocoder       maps.Geocoder
	storage        storage.Provider
	cache          CacheService
	logger         *logger.Logger
}

// NewRestaurantService accepts a nil geocoder, in which case coordinates must
// be supplied, and a nil storage provider, which disables image uploads.
func NewRestaurantService(
	restaurantRepo interfaces.RestaurantRepository,
	menuItemRepo interfaces.MenuItemRepository,
	geocoder maps.Geocoder,
	storageProvider storage.Provider,
	cache CacheService,
	log *logger.Logger,
) RestaurantService {
	if log == nil {
		log = logger.NewNop()
	}
	if cache == nil {
		cache = NewCacheService(nil, log)
	}
	return &restaurantService{
		restaurantRepo: restaurantRepo,
		menuItemRepo:   menuItemRepo,
		geocoder:       geocoder,
		storage:        storageProvider,
		cache:          cache,
		logger:         log,
	}
}

func (s *restaurantService) CreateRestaurant(ctx context.Context, actor models.Actor, restaurant *models.Restaurant) (*models.Restaurant, error) {
	if !actor.IsAdmin() {
		return nil, utils.ErrNotPermitted
	}

	if restaurant.Location.IsZero() {
		point, err := s.geocode(ctx, restaurant.Address)
		if err != nil {
			return nil, err
		}
		restaurant.Location = point
	}
	if restaurant.Timezone == "" {
		restaurant.Timezone = "UTC"
	}
	restaurant.Rating = models.Rating{}
	restaurant.IsActive = true

	if err := s.restaurantRepo.Create(ctx, restaurant); err != nil {
		return nil, err
	}

	s.logger.LogUserAction(actor.ID, "restaurant_created", map[string]interface{}{
		"restaurant_id": restaurant.ID.Hex(),
		"owner_id":      restaurant.OwnerID.Hex(),
	})
	return restaurant, nil
}

func (s *restaurantService) geocode(ctx context.Context, address models.Address) (models.GeoPoint, error) {
	if s.geocoder == nil {
		return models.GeoPoint{}, utils.ErrGeocodingFailed.WithMessage("coordinates are required when geocoding is not configured")
	}
	if strings.TrimSpace(address.String()) == "" {
		return models.GeoPoint{}, utils.ErrGeocodingFailed.WithMessage("an address or coordinates are required")
	}

	result, err := s.geocoder.Geocode(ctx, address.String())
	if err != nil {
		if errors.Is(err, maps.ErrNoResults) {
			return models.GeoPoint{}, utils.ErrGeocodingFailed
		}
		return models.GeoPoint{}, fmt.Errorf("failed to geocode address: %w", err)
	}
	return models.NewGeoPoint(result.Coordinates.Latitude, result.Coordinates.Longitude), nil
}

// UpdateRestaurant re-geocodes when the address changes without new
// coordinates. Owners cannot reassign ownership or toggle activation.
func (s *restaurantService) UpdateRestaurant(ctx context.Context, actor models.Actor, id primitive.ObjectID, updates map[string]interface{}) (*models.Restaurant, error) {
	if _, err := loadManagedRestaurant(ctx, s.restaurantRepo, actor, id); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		delete(updates, "owner_id")
		delete(updates, "is_active")
	}
	delete(updates, "rating")

	if address, ok := updates["address"].(models.Address); ok {
		if _, hasLocation := updates["location"]; !hasLocation {
			point, err := s.geocode(ctx, address)
			if err != nil {
				return nil, err
			}
			updates["location"] = point
		}
	}
	if len(updates) == 0 {
		return nil, utils.NewValidationError("nothing to update", nil)
	}

	restaurant, err := s.restaurantRepo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateRestaurant(ctx, id)
	s.logger.LogUserAction(actor.ID, "restaurant_updated", map[string]interface{}{"restaurant_id": id.Hex()})
	return restaurant, nil
}

func (s *restaurantService) SetActive(ctx context.Context, actor models.Actor, id primitive.ObjectID, active bool) (*models.Restaurant, error) {
	if !actor.IsAdmin() {
		return nil, utils.ErrNotPermitted
	}
	restaurant, err := s.restaurantRepo.Update(ctx, id, map[string]interface{}{"is_active": active})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateRestaurant(ctx, id)
	s.logger.LogUserAction(actor.ID, "restaurant_activation_changed", map[string]interface{}{
		"restaurant_id": id.Hex(),
		"active":        active,
	})
	return restaurant, nil
}

func (s *restaurantService) GetRestaurant(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error) {
	return s.cache.Restaurant(ctx, id, func(ctx context.Context) (*models.Restaurant, error) {
		return s.restaurantRepo.GetByID(ctx, id)
	})
}

func (s *restaurantService) ListRestaurants(ctx context.Context, filter interfaces.RestaurantFilter, params *utils.PaginationParams) ([]*models.Restaurant, int64, error) {
	return s.restaurantRepo.List(ctx, filter, params)
}

func (s *restaurantService) ListOwned(ctx context.Context, actor models.Actor) ([]*models.Restaurant, error) {
	if !actor.IsRestaurant() && !actor.IsAdmin() {
		return nil, utils.ErrNotPermitted
	}
	return s.restaurantRepo.ListByOwner(ctx, actor.ID)
}

func (s *restaurantService) Nearby(ctx context.Context, latitude, longitude, radiusKm float64, limit int) ([]*models.Restaurant, error) {
	radius := radiusKm * 1000
	if radius <= 0 {
		radius = defaultNearbyRadiusM
	}
	if limit <= 0 || limit > utils.MaxPageSize {
		limit = defaultNearbyLimit
	}
	return s.restaurantRepo.Nearby(ctx, latitude, longitude, radius, limit)
}

func (s *restaurantService) UploadRestaurantImage(ctx context.Context, actor models.Actor, id primitive.ObjectID, filename string, r io.Reader) (*models.Restaurant, error) {
	if _, err := loadManagedRestaurant(ctx, s.restaurantRepo, actor, id); err != nil {
		return nil, err
	}

	uploaded, err := s.uploadImage(ctx, "restaurants", id.Hex(), filename, r)
	if err != nil {
		return nil, err
	}
	restaurant, err := s.restaurantRepo.Update(ctx, id, map[string]interface{}{"image_url": uploaded.URL})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateRestaurant(ctx, id)
	return restaurant, nil
}

func (s *restaurantService) CreateMenuItem(ctx context.Context, actor models.Actor, restaurantID primitive.ObjectID, item *models.MenuItem) (*models.MenuItem, error) {
	if _, err := loadManagedRestaurant(ctx, s.restaurantRepo, actor, restaurantID); err != nil {
		return nil, err
	}

	item.RestaurantID = restaurantID
	if item.Inventory.CurrentStock == 0 {
		item.IsAvailable = false
	}
	if err := s.menuItemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.LogUserAction(actor.ID, "menu_item_created", map[string]interface{}{
		"restaurant_id": restaurantID.Hex(),
		"item_id":       item.ID.Hex(),
	})
	return item, nil
}

// UpdateMenuItem edits catalog fields. Stock only changes through the
// inventory service so every change leaves a movement behind.
func (s *restaurantService) UpdateMenuItem(ctx context.Context, actor models.Actor, restaurantID, itemID primitive.ObjectID, updates map[string]interface{}) (*models.MenuItem, error) {
	item, err := s.loadManagedItem(ctx, actor, restaurantID, itemID)
	if err != nil {
		return nil, err
	}

	for key := range updates {
		if key == "inventory.current_stock" || key == "inventory" || strings.HasPrefix(key, "inventory.stock_history") || key == "restaurant_id" {
			delete(updates, key)
		}
	}
	if available, ok := updates["is_available"].(bool); ok && available && item.Inventory.CurrentStock == 0 {
		return nil, utils.ErrInsufficientStock.WithMessage("an item without stock cannot be made available")
	}
	if len(updates) == 0 {
		return nil, utils.NewValidationError("nothing to update", nil)
	}

	return s.menuItemRepo.Update(ctx, itemID, updates)
}

func (s *restaurantService) DeleteMenuItem(ctx context.Context, actor models.Actor, restaurantID, itemID primitive.ObjectID) error {
	item, err := s.loadManagedItem(ctx, actor, restaurantID, itemID)
	if err != nil {
		return err
	}
	if err := s.menuItemRepo.Delete(ctx, itemID); err != nil {
		return err
	}

	if item.ImageKey != "" && s.storage != nil {
		if err := s.storage.Delete(ctx, item.ImageKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.WithError(err).WithField("key", item.ImageKey).Warn("Failed to delete menu item image")
		}
	}
	s.logger.LogUserAction(actor.ID, "menu_item_deleted", map[string]interface{}{
		"restaurant_id": restaurantID.Hex(),
		"item_id":       itemID.Hex(),
	})
	return nil
}

func (s *restaurantService) ListMenu(ctx context.Context, restaurantID primitive.ObjectID, availableOnly bool) ([]*models.MenuItem, error) {
	return s.menuItemRepo.ListByRestaurant(ctx, restaurantID, availableOnly)
}

func (s *restaurantService) UploadMenuItemImage(ctx context.Context, actor models.Actor, restaurantID, itemID primitive.ObjectID, filename string, r io.Reader) (*models.MenuItem, error) {
	item, err := s.loadManagedItem(ctx, actor, restaurantID, itemID)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.uploadImage(ctx, "menu", restaurantID.Hex(), filename, r)
	if err != nil {
		return nil, err
	}

	updated, err := s.menuItemRepo.Update(ctx, itemID, map[string]interface{}{
		"image_url": uploaded.URL,
		"image_key": uploaded.Key,
	})
	if err != nil {
		return nil, err
	}
	if item.ImageKey != "" {
		if err := s.storage.Delete(ctx, item.ImageKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.WithError(err).WithField("key", item.ImageKey).Warn("Failed to delete replaced menu item image")
		}
	}
	return updated, nil
}

func (s *restaurantService) loadManagedItem(ctx context.Context, actor models.Actor, restaurantID, itemID primitive.ObjectID) (*models.MenuItem, error) {
	if _, err := loadManagedRestaurant(ctx, s.restaurantRepo, actor, restaurantID); err != nil {
		return nil, err
	}
	item, err := s.menuItemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.RestaurantID != restaurantID {
		return nil, utils.ErrMenuItemNotFound
	}
	return item, nil
}

func (s *restaurantService) uploadImage(ctx context.Context, folder, owner, filename string, r io.Reader) (*storage.UploadResponse, error) {
	if s.storage == nil {
		return nil, utils.NewStateError("UPLOADS_DISABLED", "image uploads are not configured")
	}
	if !utils.IsImageFile(filename) {
		return nil, utils.NewValidationError("unsupported image type", map[string]string{"image": "Only JPEG and PNG images are allowed"})
	}

	img, err := utils.ProcessImage(io.LimitReader(r, utils.MaxImageSize+1), maxImageWidth)
	if err != nil {
		return nil, utils.NewValidationError("invalid image", map[string]string{"image": err.Error()})
	}

	return s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          utils.GenerateUploadKey(folder, owner, img.Extension),
		Reader:       bytes.NewReader(img.Data),
		ContentType:  img.ContentType,
		Size:         int64(len(img.Data)),
		CacheControl: "public, max-age=31536000",
	})
}
