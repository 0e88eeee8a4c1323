package routes

import "github.com/gin-gonic/gin"

// SetupAdminRoutes sets up the back-office API
func SetupAdminRoutes(r *gin.RouterGroup, h Handlers) {
	restaurants := r.Group("/restaurants")
	{
		restaurants.GET("", h.Restaurants.ListRestaurants)
		restaurants.POST("", h.Restaurants.CreateRestaurant)
		restaurants.GET("/:id", h.Restaurants.GetRestaurant)
		restaurants.PUT("/:id", h.Restaurants.UpdateRestaurant)
		restaurants.POST("/:id/activate", h.Restaurants.ActivateRestaurant)
		restaurants.POST("/:id/deactivate", h.Restaurants.DeactivateRestaurant)
		restaurants.GET("/:id/menu", h.Restaurants.GetMenu)
		restaurants.GET("/:id/dashboard", h.Analytics.RestaurantDashboard)
	}

	orders := r.Group("/orders")
	{
		orders.GET("", h.Orders.ListOrders)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.POST("/:id/commands", h.Orders.ExecuteCommand)
	}

	coupons := r.Group("/coupons")
	{
		coupons.GET("", h.Coupons.ListCoupons)
		coupons.POST("", h.Coupons.CreateCoupon)
		coupons.GET("/:id", h.Coupons.GetCoupon)
		coupons.PUT("/:id", h.Coupons.UpdateCoupon)
		coupons.POST("/:id/deactivate", h.Coupons.DeactivateCoupon)
	}

	reviews := r.Group("/reviews")
	{
		reviews.GET("", h.Reviews.ListReviews)
		reviews.GET("/:id", h.Reviews.GetReview)
		reviews.PUT("/:id/moderate", h.Reviews.ModerateReview)
		reviews.DELETE("/:id", h.Reviews.DeleteReview)
	}

	analytics := r.Group("/analytics")
	{
		analytics.GET("/stats", h.Analytics.PlatformStats)
		analytics.GET("/trends", h.Analytics.DailyTrend)
		analytics.GET("/top-restaurants", h.Analytics.TopRestaurants)
	}

	system := r.Group("/system")
	{
		system.POST("/loyalty/expire", h.System.ExpireLoyalty)
		system.POST("/notifications/purge", h.System.PurgeNotifications)
		system.GET("/outbox", h.System.ListOutbox)
		system.GET("/outbox/stats", h.System.OutboxStats)
		system.POST("/outbox/replay", h.System.ReplayOutbox)
	}
}
