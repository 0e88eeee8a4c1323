package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
)

type stubAnalytics struct {
	mu          sync.Mutex
	totals      interfaces.OrderTotals
	trend       []models.DailyTrend
	top         []models.TopRestaurant
	items       []models.ItemSales
	disputes    int64
	totalsCalls int
	err         error

	lastSince    time.Time
	lastCustomer *primitive.ObjectID
	lastLimit    int
}

func (s *stubAnalytics) OrderTotals(_ context.Context, since time.Time, _, customerID *primitive.ObjectID) (*interfaces.OrderTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalsCalls++
	s.lastSince = since
	s.lastCustomer = customerID
	if s.err != nil {
		return nil, s.err
	}
	totals := s.totals
	return &totals, nil
}

func (s *stubAnalytics) DailyTrend(context.Context, time.Time, *primitive.ObjectID) ([]models.DailyTrend, error) {
	return s.trend, nil
}

func (s *stubAnalytics) TopRestaurants(_ context.Context, _ time.Time, limit int) ([]models.TopRestaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit = limit
	return s.top, nil
}

func (s *stubAnalytics) TopItems(context.Context, primitive.ObjectID, time.Time, int) ([]models.ItemSales, error) {
	return s.items, nil
}

func (s *stubAnalytics) CountOpenDisputes(context.Context) (int64, error) {
	return s.disputes, nil
}

type analyticsFixture struct {
	svc         *analyticsService
	repo        *stubAnalytics
	cache       *memCache
	orders      *memOrders
	restaurant  *models.Restaurant
	customer    models.Actor
	owner       models.Actor
	admin       models.Actor
	lowStockPie *models.MenuItem
}

var analyticsNow = time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)

func newAnalyticsFixture(t *testing.T) *analyticsFixture {
	t.Helper()
	f := &analyticsFixture{
		customer: models.Actor{ID: primitive.NewObjectID(), Role: models.RoleCustomer},
		owner:    models.Actor{ID: primitive.NewObjectID(), Role: models.RoleRestaurant},
		admin:    models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin},
		repo: &stubAnalytics{
			totals: interfaces.OrderTotals{
				Orders:    12,
				Delivered: 3,
				Cancelled: 2,
				Revenue:   100,
				ByStatus: map[models.OrderStatus]int64{
					models.OrderStatusDelivered: 3,
					models.OrderStatusCancelled: 2,
					models.OrderStatusPending:   4,
					models.OrderStatusPreparing: 3,
				},
			},
			disputes: 1,
		},
		cache:  newMemCache(),
		orders: newMemOrders(),
	}
	f.restaurant = &models.Restaurant{ID: primitive.NewObjectID(), OwnerID: f.owner.ID, Name: "Pizzeria", IsActive: true}
	closed := &models.Restaurant{ID: primitive.NewObjectID(), Name: "Closed", IsActive: false}
	f.lowStockPie = &models.MenuItem{
		ID:           primitive.NewObjectID(),
		RestaurantID: f.restaurant.ID,
		Name:         "Margherita",
		IsAvailable:  true,
		Inventory:    models.Inventory{CurrentStock: 1, LowStockThreshold: 3},
	}

	users := newMemUsers(
		&models.User{ID: f.customer.ID, Role: models.RoleCustomer, LoyaltyPoints: 700, LifetimePoints: 700},
		&models.User{ID: f.owner.ID, Role: models.RoleRestaurant},
	)
	notificationRepo := &memNotifications{}
	reviews := newMemReviews()
	require.NoError(t, reviews.Create(context.Background(), &models.Review{
		UserID:           f.customer.ID,
		RestaurantID:     f.restaurant.ID,
		OrderID:          primitive.NewObjectID(),
		ModerationStatus: models.ModerationStatusPending,
	}))

	notifier := NewNotificationService(notificationRepo, users, nil, nil, nil, nil, 0, nil)
	_, err := notifier.Send(context.Background(), &models.NotificationPayload{
		UserID: f.customer.ID, Type: models.NotificationTypeGeneral, Title: "Hi", Message: "Welcome",
	})
	require.NoError(t, err)
	loyalty := NewLoyaltyService(users, &memLoyalty{}, 365*24*time.Hour, nil)

	f.svc = NewAnalyticsService(f.repo, f.orders, newMemRestaurants(f.restaurant, closed),
		newMemMenuItems(f.lowStockPie), users, reviews, loyalty, notifier, f.cache, nil).(*analyticsService)
	f.svc.now = func() time.Time { return analyticsNow }
	return f
}

func TestFillTrend(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.DailyTrend{
		{Date: "2026-03-02", Orders: 4, Delivered: 3, Revenue: 55.5},
		{Date: "2026-02-27", Orders: 9},
	}

	trend := fillTrend(rows, since, 3)
	require.Len(t, trend, 3)
	assert.Equal(t, models.DailyTrend{Date: "2026-03-01"}, trend[0])
	assert.Equal(t, rows[0], trend[1])
	assert.Equal(t, models.DailyTrend{Date: "2026-03-03"}, trend[2])
}

func TestAverageOrder(t *testing.T) {
	assert.Zero(t, averageOrder(120, 0))
	assert.Equal(t, 33.33, averageOrder(100, 3))
	assert.Equal(t, 12.5, averageOrder(25, 2))
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, defaultTrendDays, clampDays(0))
	assert.Equal(t, defaultTrendDays, clampDays(-4))
	assert.Equal(t, 7, clampDays(7))
	assert.Equal(t, maxTrendDays, clampDays(5000))
}

func TestAnalyticsService_PlatformStats(t *testing.T) {
	ctx := context.Background()
	f := newAnalyticsFixture(t)

	stats, err := f.svc.PlatformStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.TotalOrders)
	assert.Equal(t, int64(3), stats.DeliveredOrders)
	assert.Equal(t, 33.33, stats.AverageOrder)
	assert.Equal(t, int64(2), stats.TotalRestaurants)
	assert.Equal(t, int64(1), stats.ActiveRestaurant)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.OpenDisputes)
	assert.Equal(t, int64(1), stats.PendingReviews)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), f.repo.lastSince)
	assert.True(t, f.cache.has("analytics:platform:7"))

	f.repo.totals.Orders = 99
	cached, err := f.svc.PlatformStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(12), cached.TotalOrders, "served from cache")
	assert.Equal(t, int64(4), cached.OrdersByStatus[models.OrderStatusPending])
	assert.Equal(t, 1, f.repo.totalsCalls)

	fresh, err := f.svc.PlatformStats(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(99), fresh.TotalOrders)
}

func TestAnalyticsService_PlatformStatsFailure(t *testing.T) {
	f := newAnalyticsFixture(t)
	f.repo.err = errors.New("aggregation failed")

	_, err := f.svc.PlatformStats(context.Background(), 7)
	require.Error(t, err)
	assert.False(t, f.cache.has("analytics:platform:7"))
}

func TestAnalyticsService_DailyTrendAndTop(t *testing.T) {
	ctx := context.Background()
	f := newAnalyticsFixture(t)
	f.repo.trend = []models.DailyTrend{{Date: "2026-03-13", Orders: 2}}

	trend, err := f.svc.DailyTrend(ctx, 3, nil)
	require.NoError(t, err)
	require.Len(t, trend, 3)
	assert.Equal(t, "2026-03-12", trend[0].Date)
	assert.Equal(t, int64(2), trend[1].Orders)
	assert.Equal(t, "2026-03-14", trend[2].Date)

	_, err = f.svc.TopRestaurants(ctx, 30, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultTopLimit, f.repo.lastLimit)
	_, err = f.svc.TopRestaurants(ctx, 30, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, f.repo.lastLimit)
}

func TestAnalyticsService_RestaurantDashboard(t *testing.T) {
	ctx := context.Background()
	f := newAnalyticsFixture(t)
	f.repo.items = []models.ItemSales{{MenuItemID: f.lowStockPie.ID, Name: "Margherita", Quantity: 8, Revenue: 72}}

	_, err := f.svc.RestaurantDashboard(ctx, f.customer, f.restaurant.ID)
	assert.ErrorIs(t, err, utils.ErrNotPermitted)

	stranger := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleRestaurant}
	_, err = f.svc.RestaurantDashboard(ctx, stranger, f.restaurant.ID)
	assert.ErrorIs(t, err, utils.ErrNotPermitted)

	dashboard, err := f.svc.RestaurantDashboard(ctx, f.owner, f.restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, f.restaurant.ID, dashboard.Restaurant.ID)
	assert.Equal(t, int64(12), dashboard.OrdersToday)
	assert.Equal(t, int64(7), dashboard.ActiveOrders)
	assert.Len(t, dashboard.TopItems, 1)
	require.Len(t, dashboard.LowStockItems, 1)
	assert.Equal(t, f.lowStockPie.ID, dashboard.LowStockItems[0].ID)
	assert.Len(t, dashboard.Trend, 7)
}

func TestAnalyticsService_UserDashboard(t *testing.T) {
	ctx := context.Background()
	f := newAnalyticsFixture(t)
	for i := 0; i < 7; i++ {
		require.NoError(t, f.orders.Create(ctx, &models.Order{
			CustomerID: f.customer.ID,
			Status:     models.OrderStatusDelivered,
			CreatedAt:  analyticsNow.Add(-time.Duration(i) * time.Hour),
		}))
	}

	_, err := f.svc.UserDashboard(ctx, f.owner)
	assert.ErrorIs(t, err, utils.ErrNotPermitted)

	dashboard, err := f.svc.UserDashboard(ctx, f.customer)
	require.NoError(t, err)
	assert.Len(t, dashboard.RecentOrders, dashboardOrders)
	assert.Equal(t, int64(12), dashboard.TotalOrders)
	assert.Equal(t, 100.0, dashboard.TotalSpent)
	assert.Equal(t, int64(1), dashboard.UnreadNotifications)
	require.NotNil(t, dashboard.Loyalty)
	assert.Equal(t, models.LoyaltyLevelBronze, dashboard.Loyalty.Level)
	require.NotNil(t, f.repo.lastCustomer)
	assert.Equal(t, f.customer.ID, *f.repo.lastCustomer)
}
