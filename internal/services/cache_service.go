package services

import (
	"context"
	"errors"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/utils"
	"fooddash/pkg/cache"
	"fooddash/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cache is the subset of the Redis cache the services need.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type CacheService interface {
	// UnreadCount returns the cached unread count, calling load on a miss.
	UnreadCount(ctx context.Context, userID primitive.ObjectID, load func(context.Context) (int64, error)) (int64, error)
	InvalidateUnread(ctx context.Context, userID primitive.ObjectID)

	Restaurant(ctx context.Context, id primitive.ObjectID, load func(context.Context) (*models.Restaurant, error)) (*models.Restaurant, error)
	InvalidateRestaurant(ctx context.Context, id primitive.ObjectID)
}

type cacheService struct {
	cache  Cache
	logger *logger.Logger
}

// NewCacheService falls through to the loader on any Redis error. A nil cache
// disables caching.
func NewCacheService(c Cache, log *logger.Logger) CacheService {
	if log == nil {
		log = logger.NewNop()
	}
	return &cacheService{cache: c, logger: log}
}

func (s *cacheService) UnreadCount(ctx context.Context, userID primitive.ObjectID, load func(context.Context) (int64, error)) (int64, error) {
	return remember(ctx, s, utils.CacheUnreadCountPrefix+userID.Hex(), utils.UnreadCountTTL, load)
}

func (s *cacheService) InvalidateUnread(ctx context.Context, userID primitive.ObjectID) {
	s.invalidate(ctx, utils.CacheUnreadCountPrefix+userID.Hex())
}

func (s *cacheService) Restaurant(ctx context.Context, id primitive.ObjectID, load func(context.Context) (*models.Restaurant, error)) (*models.Restaurant, error) {
	return remember(ctx, s, utils.CacheRestaurantPrefix+id.Hex(), utils.RestaurantTTL, load)
}

func (s *cacheService) InvalidateRestaurant(ctx context.Context, id primitive.ObjectID) {
	s.invalidate(ctx, utils.CacheRestaurantPrefix+id.Hex())
}

func (s *cacheService) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache invalidation failed")
	}
}

func remember[T any](ctx context.Context, s *cacheService, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return load(ctx)
	}

	var cached T
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if setErr := s.cache.Set(ctx, key, value, ttl); setErr != nil {
		s.logger.WithError(setErr).WithField("key", key).Warn("Cache write failed")
	}
	return value, nil
}
