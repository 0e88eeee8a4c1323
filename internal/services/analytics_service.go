package services

import (
	"context"
	"fmt"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/logger"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	platformStatsTTL  = 5 * time.Minute
	maxTrendDays      = 365
	defaultTrendDays  = 30
	defaultTopLimit   = 10
	dashboardTopItems = 5
	dashboardOrders   = 5
)

type AnalyticsService interface {
	// Platform reporting
	PlatformStats(ctx context.Context, days int) (*models.PlatformStats, error)
	DailyTrend(ctx context.Context, days int, restaurantID *primitive.ObjectID) ([]models.DailyTrend, error)
	TopRestaurants(ctx context.Context, days, limit int) ([]models.TopRestaurant, error)

	// Dashboards
	RestaurantDashboard(ctx context.Context, actor models.Actor, restaurantID primitive.ObjectID) (*models.RestaurantDashboard, error)
	UserDashboard(ctx context.Context, actor models.Actor) (*models.UserDashboard, error)
}

type analyticsService struct {
	analyticsRepo  interfaces.AnalyticsRepository
	orderRepo      interfaces.OrderRepository
	restaurantRepo interfaces.RestaurantRepository
	menuItemRepo   interfaces.MenuItemRepository
	userRepo       interfaces.UserRepository
	reviewRepo     interfaces.ReviewRepository
	loyalty        LoyaltyService
	notifications  NotificationService
	cache          Cache
	logger         *logger.Logger
	now            func() time.Time
}

func NewAnalyticsService(
	analyticsRepo interfaces.AnalyticsRepository,
	orderRepo interfaces.OrderRepository,
	restaurantRepo interfaces.RestaurantRepository,
	menuItemRepo interfaces.MenuItemRepository,
	userRepo interfaces.UserRepository,
	reviewRepo interfaces.ReviewRepository,
	loyalty LoyaltyService,
	notifications NotificationService,
	cache Cache,
	log *logger.Logger,
) AnalyticsService {
	if log == nil {
		log = logger.NewNop()
	}
	return &analyticsService{
		analyticsRepo:  analyticsRepo,
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
		menuItemRepo:   menuItemRepo,
		userRepo:       userRepo,
		reviewRepo:     reviewRepo,
		loyalty:        loyalty,
		notifications:  notifications,
		cache:          cache,
		logger:         log,
		now:            time.Now,
	}
}

func clampDays(days int) int {
	if days <= 0 {
		return defaultTrendDays
	}
	if days > maxTrendDays {
		return maxTrendDays
	}
	return days
}

func (s *analyticsService) since(days int) time.Time {
	return utils.StartOfDay(s.now().UTC().AddDate(0, 0, -(clampDays(days) - 1)))
}

func (s *analyticsService) PlatformStats(ctx context.Context, days int) (*models.PlatformStats, error) {
	days = clampDays(days)
	cacheKey := fmt.Sprintf("analytics:platform:%d", days)
	if s.cache != nil {
		var cached models.PlatformStats
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	stats := &models.PlatformStats{GeneratedAt: s.now().UTC()}
	var totals *interfaces.OrderTotals

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = s.analyticsRepo.OrderTotals(gctx, s.since(days), nil, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalRestaurants, err = s.restaurantRepo.Count(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveRestaurant, err = s.restaurantRepo.Count(gctx, true)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.userRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.OpenDisputes, err = s.analyticsRepo.CountOpenDisputes(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingReviews, err = s.reviewRepo.CountPending(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.TotalOrders = totals.Orders
	stats.DeliveredOrders = totals.Delivered
	stats.CancelledOrders = totals.Cancelled
	stats.Revenue = totals.Revenue
	stats.OrdersByStatus = totals.ByStatus
	stats.AverageOrder = averageOrder(totals.Revenue, totals.Delivered)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, stats, platformStatsTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache platform stats")
		}
	}
	return stats, nil
}

func averageOrder(revenue float64, delivered int64) float64 {
	if delivered == 0 {
		return 0
	}
	return utils.ToAmount(utils.Money(revenue).Div(decimal.NewFromInt(delivered)))
}

// DailyTrend returns one entry per day in the window, including days without
// orders.
func (s *analyticsService) DailyTrend(ctx context.Context, days int, restaurantID *primitive.ObjectID) ([]models.DailyTrend, error) {
	days = clampDays(days)
	since := s.since(days)

	rows, err := s.analyticsRepo.DailyTrend(ctx, since, restaurantID)
	if err != nil {
		return nil, err
	}
	return fillTrend(rows, since, days), nil
}

func fillTrend(rows []models.DailyTrend, since time.Time, days int) []models.DailyTrend {
	byDate := make(map[string]models.DailyTrend, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row
	}

	trend := make([]models.DailyTrend, 0, days)
	for i := 0; i < days; i++ {
		date := since.AddDate(0, 0, i).Format("2006-01-02")
		row, ok := byDate[date]
		if !ok {
			row = models.DailyTrend{Date: date}
		}
		trend = append(trend, row)
	}
	return trend
}

func (s *analyticsService) TopRestaurants(ctx context.Context, days, limit int) ([]models.TopRestaurant, error) {
	if limit <= 0 || limit > utils.MaxPageSize {
		limit = defaultTopLimit
	}
	return s.analyticsRepo.TopRestaurants(ctx, s.since(days), limit)
}

func (s *analyticsService) RestaurantDashboard(ctx context.Context, actor models.Actor, restaurantID primitive.ObjectID) (*models.RestaurantDashboard, error) {
	restaurant, err := loadManagedRestaurant(ctx, s.restaurantRepo, actor, restaurantID)
	if err != nil {
		return nil, err
	}

	dashboard := &models.RestaurantDashboard{Restaurant: restaurant}
	today := utils.StartOfDay(s.now().UTC())
	var totals *interfaces.OrderTotals

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = s.analyticsRepo.OrderTotals(gctx, today, &restaurantID, nil)
		return err
	})
	g.Go(func() (err error) {
		dashboard.TopItems, err = s.analyticsRepo.TopItems(gctx, restaurantID, s.since(defaultTrendDays), dashboardTopItems)
		return err
	})
	g.Go(func() (err error) {
		dashboard.LowStockItems, err = s.menuItemRepo.ListLowStock(gctx, restaurantID)
		return err
	})
	g.Go(func() (err error) {
		dashboard.Trend, err = s.DailyTrend(gctx, 7, &restaurantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dashboard.OrdersToday = totals.Orders
	dashboard.RevenueToday = totals.Revenue
	dashboard.OrdersByState = totals.ByStatus
	dashboard.ActiveOrders = activeOrders(totals.ByStatus)
	return dashboard, nil
}

func activeOrders(byStatus map[models.OrderStatus]int64) int64 {
	var active int64
	for status, count := range byStatus {
		if !status.IsTerminal() {
			active += count
		}
	}
	return active
}

func (s *analyticsService) UserDashboard(ctx context.Context, actor models.Actor) (*models.UserDashboard, error) {
	if !actor.IsCustomer() {
		return nil, utils.ErrNotPermitted
	}

	dashboard := &models.UserDashboard{}
	var totals *interfaces.OrderTotals

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		params := utils.NewPaginationParams(1, dashboardOrders, "created_at", "desc", "", "created_at")
		dashboard.RecentOrders, _, err = s.orderRepo.List(gctx, models.OrderFilter{CustomerID: &actor.ID}, params)
		return err
	})
	g.Go(func() (err error) {
		totals, err = s.analyticsRepo.OrderTotals(gctx, time.Time{}, nil, &actor.ID)
		return err
	})
	g.Go(func() (err error) {
		dashboard.Loyalty, err = s.loyalty.GetSummary(gctx, actor.ID)
		return err
	})
	g.Go(func() (err error) {
		dashboard.UnreadNotifications, err = s.notifications.UnreadCount(gctx, actor.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dashboard.TotalOrders = totals.Orders
	dashboard.TotalSpent = totals.Revenue
	dashboard.ActiveOrders = activeOrders(totals.ByStatus)
	return dashboard, nil
}
