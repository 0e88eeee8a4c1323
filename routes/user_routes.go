package routes

import "github.com/gin-gonic/gin"

// SetupUserRoutes sets up the customer-facing API
func SetupUserRoutes(r *gin.RouterGroup, h Handlers) {
	// Browsing
	restaurants := r.Group("/restaurants")
	{
		restaurants.GET("", h.Restaurants.ListRestaurants)
		restaurants.GET("/nearby", h.Restaurants.Nearby)
		restaurants.GET("/:id", h.Restaurants.GetRestaurant)
		restaurants.GET("/:id/menu", h.Restaurants.GetMenu)
		restaurants.GET("/:id/reviews", h.Reviews.RestaurantReviews)
	}

	orders := r.Group("/orders")
	{
		orders.POST("", h.Orders.PlaceOrder)
		orders.GET("", h.Orders.ListOrders)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.POST("/:id/cancel", h.Orders.CancelOrder)
		orders.POST("/:id/dispute", h.Orders.OpenDispute)
	}

	coupons := r.Group("/coupons")
	{
		coupons.GET("", h.Coupons.ListAvailable)
		coupons.POST("/validate", h.Coupons.ValidateCoupon)
	}

	loyalty := r.Group("/loyalty")
	{
		loyalty.GET("", h.Loyalty.GetSummary)
		loyalty.GET("/rewards", h.Loyalty.ListRewards)
		loyalty.POST("/redeem", h.Loyalty.Redeem)
		loyalty.GET("/transactions", h.Loyalty.ListTransactions)
	}

	reviews := r.Group("/reviews")
	{
		reviews.POST("", h.Reviews.CreateReview)
		reviews.GET("", h.Reviews.ListReviews)
		reviews.PUT("/:id", h.Reviews.UpdateReview)
		reviews.DELETE("/:id", h.Reviews.DeleteReview)
		reviews.POST("/:id/flag", h.Reviews.FlagReview)
	}

	setupNotificationRoutes(r, h)

	r.GET("/dashboard", h.Analytics.UserDashboard)
}

// Notifications are identical for every role.
func setupNotificationRoutes(r *gin.RouterGroup, h Handlers) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.Notifications.ListNotifications)
		notifications.GET("/unread-count", h.Notifications.UnreadCount)
		notifications.PUT("/read-all", h.Notifications.MarkAllRead)
		notifications.PUT("/:id/read", h.Notifications.MarkRead)
		notifications.DELETE("/:id", h.Notifications.DeleteNotification)
	}

	devices := r.Group("/devices")
	{
		devices.POST("", h.Notifications.RegisterDevice)
		devices.DELETE("/:token", h.Notifications.RemoveDevice)
	}
}
