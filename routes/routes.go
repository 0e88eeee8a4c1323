package routes

import (
	"time"

	"fooddash/internal/handlers"
	"fooddash/internal/middleware"
	"fooddash/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router dispatches to.
type Handlers struct {
	Orders        *handlers.OrderHandler
	Restaurants   *handlers.RestaurantHandler
	Inventory     *handlers.InventoryHandler
	Coupons       *handlers.CouponHandler
	Loyalty       *handlers.LoyaltyHandler
	Reviews       *handlers.ReviewHandler
	Notifications *handlers.NotificationHandler
	Analytics     *handlers.AnalyticsHandler
	System        *handlers.SystemHandler
	Health        *handlers.HealthHandler
	WebSocket     *websocket.Handler
}

type Options struct {
	JWTSecret      string
	JWTIssuer      string
	RequestTimeout time.Duration
	RateLimiter    *middleware.RateLimiter
}

// Setup mounts the API on router. Global middleware (logging, recovery,
// CORS, request ids) is installed by the caller.
func Setup(router *gin.Engine, h Handlers, opts Options) {
	router.GET("/health", h.Health.Health)

	auth := middleware.AuthRequired(opts.JWTSecret, opts.JWTIssuer)
	router.GET("/ws", auth, h.WebSocket.HandleWebSocket)

	api := router.Group("/api")
	api.Use(auth)
	if opts.RateLimiter != nil {
		api.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
	}
	if opts.RequestTimeout > 0 {
		api.Use(middleware.TimeoutMiddleware(opts.RequestTimeout))
	}

	SetupUserRoutes(api.Group("/user", middleware.CustomerRequired()), h)
	SetupRestaurantRoutes(api.Group("/restaurant", middleware.RestaurantRequired()), h)
	SetupAdminRoutes(api.Group("/admin", middleware.AdminRequired()), h)
}
