package routes

import "github.com/gin-gonic/gin"

// SetupRestaurantRoutes sets up the API for restaurant owners. Ownership of
// the :id restaurant is checked by the services.
func SetupRestaurantRoutes(r *gin.RouterGroup, h Handlers) {
	restaurants := r.Group("/restaurants")
	{
		restaurants.GET("", h.Restaurants.ListOwned)
		restaurants.GET("/:id", h.Restaurants.GetRestaurant)
		restaurants.PUT("/:id", h.Restaurants.UpdateRestaurant)
		restaurants.POST("/:id/image", h.Restaurants.UploadRestaurantImage)
		restaurants.GET("/:id/dashboard", h.Analytics.RestaurantDashboard)
		restaurants.GET("/:id/low-stock", h.Inventory.LowStock)

		// Menu management
		restaurants.GET("/:id/menu", h.Restaurants.GetMenu)
		restaurants.POST("/:id/menu", h.Restaurants.CreateMenuItem)
		restaurants.PUT("/:id/menu/:item_id", h.Restaurants.UpdateMenuItem)
		restaurants.DELETE("/:id/menu/:item_id", h.Restaurants.DeleteMenuItem)
		restaurants.POST("/:id/menu/:item_id/image", h.Restaurants.UploadMenuItemImage)

		// Inventory
		restaurants.POST("/:id/menu/:item_id/stock", h.Inventory.AdjustStock)
		restaurants.GET("/:id/menu/:item_id/stock", h.Inventory.StockHistory)
	}

	orders := r.Group("/orders")
	{
		orders.GET("", h.Orders.ListOrders)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.POST("/:id/commands", h.Orders.ExecuteCommand)
	}

	r.GET("/reviews", h.Reviews.ListReviews)

	setupNotificationRoutes(r, h)
}
