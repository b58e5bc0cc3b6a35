package main

import (
	"fmt"
	"os"
	"time"

	"github.com/invomate/backend-go/internal/api"
	"github.com/invomate/backend-go/internal/cache"
	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database"
	"github.com/invomate/backend-go/internal/database/repository"
	"github.com/invomate/backend-go/internal/database/service"
	"github.com/invomate/backend-go/internal/export"
	"github.com/invomate/backend-go/internal/handler"
	"github.com/invomate/backend-go/internal/logger"
	"github.com/invomate/backend-go/internal/middleware"
	syncsched "github.com/invomate/backend-go/internal/sync"
	"github.com/invomate/backend-go/internal/worker"
)

func main() {
	// 1. Config
	cfg := config.LoadConfig()

	// 2. Logger
	appLogger := logger.New(cfg)

	appLogger.Info("🚀 [Invomate] Starting backend...",
		"environment", cfg.AppEnv,
	)

	// 3. Connect to Database
	if err := database.ConnectDatabase(cfg, appLogger); err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		os.Exit(1)
	}

	db := database.GetDatabase()

	// 4. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	clientRepo := repository.NewClientRepository(db)
	productRepo := repository.NewProductRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	// 5. Initialize Usage Cache (Redis when available, in-memory otherwise)
	var usageCache cache.UsageCache
	redisCache, err := cache.NewRedisUsageCache(cfg, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to Redis, using in-memory usage cache", "error", err)
		usageCache = cache.NewMemoryUsageCache(time.Duration(cfg.UsageCacheTTL) * time.Second)
	} else {
		usageCache = redisCache
	}
	defer usageCache.Close()

	// Rate limiter for the permission pre-flight endpoints; falls back to
	// no-op when Redis is unreachable
	rateLimiter, err := middleware.NewRateLimiter(cfg, appLogger)
	if err != nil {
		rateLimiter = middleware.NewNoOpRateLimiter(appLogger)
	}
	defer rateLimiter.Close()

	// 6. Initialize Services
	usageService := service.NewUsageService(clientRepo, productRepo, invoiceRepo, usageRepo, usageCache, appLogger)
	subscriptionService := service.NewSubscriptionService(usageService, appLogger)
	authService := service.NewAuthService(userRepo, refreshTokenRepo, cfg, appLogger)
	userService := service.NewUserService(userRepo, usageRepo, usageService, appLogger)
	clientService := service.NewClientService(clientRepo, subscriptionService, appLogger)
	productService := service.NewProductService(productRepo, subscriptionService, appLogger)
	invoiceService := service.NewInvoiceService(invoiceRepo, subscriptionService, export.NewExporter(), appLogger)

	// 7. Initialize Handlers & Middleware
	authHandler := handler.NewAuthHandler(authService, appLogger)
	planHandler := handler.NewPlanHandler()
	userHandler := handler.NewUserHandler(userService, appLogger)
	clientHandler := handler.NewClientHandler(clientService, userService, appLogger)
	productHandler := handler.NewProductHandler(productService, userService, appLogger)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, userService, appLogger)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService, userService, rateLimiter, appLogger)
	authMiddleware := middleware.NewAuthMiddleware(authService, appLogger)

	// 8. Start Auto-Sync Scheduler
	pool := worker.NewPool(appLogger)
	backupStore := syncsched.NewNoopBackupStore(appLogger)
	scheduler := syncsched.NewScheduler(userRepo, backupStore, pool, cfg, appLogger)
	scheduler.Start()
	defer pool.Shutdown(30 * time.Second)

	// 9. Setup Router
	r := api.SetupRouter(
		authHandler,
		planHandler,
		userHandler,
		clientHandler,
		productHandler,
		invoiceHandler,
		subscriptionHandler,
		authMiddleware,
	)

	// 10. Start HTTP Server
	addr := fmt.Sprintf(":%s", cfg.ApiServicePort)
	appLogger.Info("🌍 [Invomate] HTTP Server running...", "port", addr)
	if err := r.Run(addr); err != nil {
		appLogger.Error("❌ HTTP Server failed to start", "error", err)
		os.Exit(1)
	}
}
