package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fooddash/internal/config"
	"fooddash/internal/handlers"
	"fooddash/internal/middleware"
	"fooddash/internal/repositories/mongodb"
	"fooddash/internal/services"
	"fooddash/pkg/cache"
	"fooddash/pkg/database"
	"fooddash/pkg/events"
	"fooddash/pkg/logger"
	"fooddash/pkg/maps"
	"fooddash/pkg/push"
	"fooddash/pkg/sms"
	"fooddash/pkg/storage"
	"fooddash/pkg/websocket"
	"fooddash/routes"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		Caller:  cfg.App.Debug,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped with error")
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	// Storage backends
	mongo, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer mongo.Close()

	if cfg.Database.RunMigrations {
		migrator := database.NewMigrator(mongo.Database, database.MigrationOptions{
			StockHistoryRetention: cfg.Database.StockHistoryRetention,
		}, log)
		if err := migrator.Up(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	health := map[string]handlers.Pinger{"mongodb": mongo}

	var redisCache *cache.RedisCache
	var sharedCache services.Cache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisCache.Close()
		sharedCache = redisCache
		health["redis"] = redisCache
	}

	publisher := newPublisher(cfg.Kafka, log)
	defer publisher.Close()

	// External providers
	pushRouter := newPushRouter(ctx, cfg.Push, log)
	smsProvider := newSMSProvider(ctx, cfg.SMS, log)
	geocoder := newGeocoder(cfg.Maps, log)
	fileStorage, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Live updates
	hub := websocket.NewHub(log)
	relay := websocket.NewRelay(hub, redisCache, log)

	// Repositories
	db := mongo.Database
	var repoCache mongodb.CacheService
	if sharedCache != nil {
		repoCache = sharedCache
	}
	userRepo := mongodb.NewUserRepository(db)
	restaurantRepo := mongodb.NewRestaurantRepository(db, repoCache)
	menuItemRepo := mongodb.NewMenuItemRepository(db)
	movementRepo := mongodb.NewStockMovementRepository(db)
	orderRepo := mongodb.NewOrderRepository(db)
	couponRepo := mongodb.NewCouponRepository(db)
	loyaltyRepo := mongodb.NewLoyaltyRepository(db)
	reviewRepo := mongodb.NewReviewRepository(db)
	notificationRepo := mongodb.NewNotificationRepository(db, repoCache)
	outboxRepo := mongodb.NewOutboxRepository(db)
	analyticsRepo := mongodb.NewAnalyticsRepository(db)

	// Services
	cacheService := services.NewCacheService(sharedCache, log)
	var pushProvider push.PushProvider
	if pushRouter != nil {
		pushProvider = pushRouter
	}
	var geo maps.Geocoder
	if geocoder != nil {
		geo = geocoder
	}

	notificationService := services.NewNotificationService(notificationRepo, userRepo, relay, pushProvider, smsProvider, cacheService, cfg.Business.NotificationTTL, log)
	loyaltyService := services.NewLoyaltyService(userRepo, loyaltyRepo, cfg.Business.LoyaltyPointsExpiry, log)
	inventoryService := services.NewInventoryService(restaurantRepo, menuItemRepo, movementRepo, notificationService, cfg.Business.StockHistoryInline, log)
	couponService := services.NewCouponService(couponRepo, userRepo, orderRepo, log)
	effects := services.NewSideEffects(notificationService, loyaltyService, inventoryService, publisher, outboxRepo, log)
	orderService := services.NewOrderService(orderRepo, restaurantRepo, menuItemRepo, couponService, effects, geo, services.OrderSettings{
		TaxRate:        cfg.Business.TaxRate,
		ServiceFeeRate: cfg.Business.ServiceFeeRate,
		EnforceHours:   cfg.Business.EnforceOpeningHours,
	}, log)
	restaurantService := services.NewRestaurantService(restaurantRepo, menuItemRepo, geo, fileStorage, cacheService, log)
	reviewService := services.NewReviewService(reviewRepo, orderRepo, restaurantRepo, notificationService, log)
	analyticsService := services.NewAnalyticsService(analyticsRepo, orderRepo, restaurantRepo, menuItemRepo, userRepo, reviewRepo, loyaltyService, notificationService, sharedCache, log)

	outboxRelay := services.NewOutboxRelay(outboxRepo, effects, services.OutboxRelayConfig{
		MaxAttempts: cfg.Business.OutboxMaxAttempts,
		BatchSize:   cfg.Business.OutboxBatchSize,
		Lease:       time.Minute,
	}, log)
	worker := services.NewBackgroundWorker(loyaltyService, notificationService, outboxRelay, services.WorkerIntervals{
		LoyaltyExpiry:     cfg.Business.LoyaltySweepInterval,
		NotificationPurge: time.Hour,
		Outbox:            cfg.Business.OutboxPollInterval,
	}, log)

	// HTTP
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return fmt.Errorf("set trusted proxies: %w", err)
	}
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	if cfg.Storage.Provider == "local" {
		router.Static("/uploads", cfg.Storage.Local.BasePath)
	}

	routes.Setup(router, routes.Handlers{
		Orders:        handlers.NewOrderHandler(orderService),
		Restaurants:   handlers.NewRestaurantHandler(restaurantService),
		Inventory:     handlers.NewInventoryHandler(inventoryService),
		Coupons:       handlers.NewCouponHandler(couponService),
		Loyalty:       handlers.NewLoyaltyHandler(loyaltyService),
		Reviews:       handlers.NewReviewHandler(reviewService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Analytics:     handlers.NewAnalyticsHandler(analyticsService),
		System:        handlers.NewSystemHandler(worker, notificationService, outboxRelay),
		Health:        handlers.NewHealthHandler(health),
		WebSocket: websocket.NewHandler(hub, websocket.HandlerConfig{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			PingInterval:    cfg.WebSocket.PingInterval,
			PongTimeout:     cfg.WebSocket.PongTimeout,
			AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
		}),
	}, routes.Options{
		JWTSecret:      cfg.Security.JWTSecret,
		JWTIssuer:      cfg.Security.JWTIssuer,
		RequestTimeout: cfg.Security.RequestTimeout,
		RateLimiter:    middleware.NewRateLimiter(cfg.Security.RateLimitPerMinute, cfg.Security.RateLimitBurst),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error { return relay.Listen(gctx) })
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error {
		log.WithFields(map[string]interface{}{"port": cfg.App.Port, "env": cfg.App.Environment}).Info("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("shutting down HTTP server")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newPublisher(cfg *config.KafkaConfig, log *logger.Logger) events.Publisher {
	if !cfg.Enabled() {
		log.Info("no kafka brokers configured, order events are not published")
		return events.NopPublisher{}
	}
	return events.NewKafkaPublisher(cfg.Brokers, cfg.OrderTopic, cfg.WriteTimeout)
}

// newPushRouter returns nil when push is disabled or no platform could be
// configured.
func newPushRouter(ctx context.Context, cfg *config.PushConfig, log *logger.Logger) *push.Router {
	if !cfg.Enabled {
		return nil
	}

	router := push.NewRouter()
	registered := 0
	if cfg.FCM.ProjectID != "" {
		fcm, err := push.NewFCMProvider(ctx, cfg.FCM.ProjectID, cfg.FCM.Credentials)
		if err != nil {
			log.WithError(err).Warn("FCM disabled")
		} else {
			router.Register(push.PlatformAndroid, fcm)
			router.Register(push.PlatformWeb, fcm)
			registered++
		}
	}
	if cfg.APNS.KeyFile != "" {
		apns, err := push.NewAPNSProvider(cfg.APNS.KeyFile, cfg.APNS.KeyID, cfg.APNS.TeamID, cfg.APNS.BundleID, cfg.APNS.Production)
		if err != nil {
			log.WithError(err).Warn("APNS disabled")
		} else {
			router.Register(push.PlatformIOS, apns)
			registered++
		}
	}
	if registered == 0 {
		return nil
	}
	return router
}

func newSMSProvider(ctx context.Context, cfg *config.SMSConfig, log *logger.Logger) sms.SMSProvider {
	switch cfg.Provider {
	case "twilio":
		return sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	case "sns":
		provider, err := sms.NewAWSSNSProvider(ctx, cfg.AWS.Region, cfg.DefaultFrom)
		if err != nil {
			log.WithError(err).Warn("SNS SMS disabled")
			return nil
		}
		return provider
	default:
		return nil
	}
}

func newGeocoder(cfg *config.MapsConfig, log *logger.Logger) *maps.GoogleMapsProvider {
	if cfg.GoogleMapsAPIKey == "" {
		log.Warn("no Google Maps key, addresses are not geocoded")
		return nil
	}
	provider, err := maps.NewGoogleMapsProvider(cfg.GoogleMapsAPIKey)
	if err != nil {
		log.WithError(err).Warn("geocoding disabled")
		return nil
	}
	return provider
}

func newStorage(ctx context.Context, cfg *config.StorageConfig) (storage.Provider, error) {
	switch cfg.Provider {
	case "s3":
		return storage.NewS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.CDNDomain)
	case "gcs":
		return storage.NewGCSStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
	case "none":
		return nil, nil
	default:
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	}
}
