package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlatformStats struct {
	TotalOrders      int64                 `json:"total_orders" bson:"total_orders"`
	DeliveredOrders  int64                 `json:"delivered_orders" bson:"delivered_orders"`
	CancelledOrders  int64                 `json:"cancelled_orders" bson:"cancelled_orders"`
	Revenue          float64               `json:"revenue" bson:"revenue"`
	AverageOrder     float64               `json:"average_order" bson:"average_order"`
	OrdersByStatus   map[OrderStatus]int64 `json:"orders_by_status" bson:"orders_by_status"`
	TotalRestaurants int64                 `json:"total_restaurants" bson:"total_restaurants"`
	ActiveRestaurant int64                 `json:"active_restaurants" bson:"active_restaurants"`
	TotalUsers       int64                 `json:"total_users" bson:"total_users"`
	OpenDisputes     int64                 `json:"open_disputes" bson:"open_disputes"`
	PendingReviews   int64                 `json:"pending_reviews" bson:"pending_reviews"`
	GeneratedAt      time.Time             `json:"generated_at" bson:"generated_at"`
}

type DailyTrend struct {
	Date      string  `json:"date" bson:"_id"`
	Orders    int64   `json:"orders" bson:"orders"`
	Delivered int64   `json:"delivered" bson:"delivered"`
	Cancelled int64   `json:"cancelled" bson:"cancelled"`
	Revenue   float64 `json:"revenue" bson:"revenue"`
}

type TopRestaurant struct {
	RestaurantID primitive.ObjectID `json:"restaurant_id" bson:"_id"`
	Name         string             `json:"name" bson:"name"`
	Orders       int64              `json:"orders" bson:"orders"`
	Revenue      float64            `json:"revenue" bson:"revenue"`
	Rating       float64            `json:"rating" bson:"rating"`
}

type ItemSales struct {
	MenuItemID primitive.ObjectID `json:"menu_item_id" bson:"_id"`
	Name       string             `json:"name" bson:"name"`
	Quantity   int64              `json:"quantity" bson:"quantity"`
	Revenue    float64            `json:"revenue" bson:"revenue"`
}

type RestaurantDashboard struct {
	Restaurant    *Restaurant           `json:"restaurant"`
	OrdersToday   int64                 `json:"orders_today"`
	RevenueToday  float64               `json:"revenue_today"`
	ActiveOrders  int64                 `json:"active_orders"`
	OrdersByState map[OrderStatus]int64 `json:"orders_by_status"`
	TopItems      []ItemSales           `json:"top_items"`
	LowStockItems []*MenuItem           `json:"low_stock_items"`
	Trend         []DailyTrend          `json:"trend"`
}

type UserDashboard struct {
	RecentOrders        []*Order        `json:"recent_orders"`
	ActiveOrders        int64           `json:"active_orders"`
	TotalOrders         int64           `json:"total_orders"`
	TotalSpent          float64         `json:"total_spent"`
	Loyalty             *LoyaltySummary `json:"loyalty"`
	UnreadNotifications int64           `json:"unread_notifications"`
}
