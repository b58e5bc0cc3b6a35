package api

import (
	"github.com/gin-gonic/gin"

	"github.com/invomate/backend-go/internal/handler"
	"github.com/invomate/backend-go/internal/middleware"
)

func SetupRouter(
	authHandler *handler.AuthHandler,
	planHandler *handler.PlanHandler,
	userHandler *handler.UserHandler,
	clientHandler *handler.ClientHandler,
	productHandler *handler.ProductHandler,
	invoiceHandler *handler.InvoiceHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	r := gin.Default()
	r.SetTrustedProxies(nil)

	// Public routes
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/api/v1/plans", planHandler.GetAllPlans)
	r.GET("/api/v1/plans/:tier", planHandler.GetPlan)

	// Auth routes (Public)
	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Protected API routes
	api := r.Group("/api/v1")
	api.Use(authMiddleware.RequireAuth())
	{
		api.GET("/me/profile", userHandler.GetProfile)
		api.GET("/me/usage", userHandler.GetUsage)
		api.PUT("/me/subscription", userHandler.UpdateSubscription)

		api.POST("/clients", clientHandler.Create)
		api.GET("/clients", clientHandler.List)
		api.GET("/clients/:id", clientHandler.Get)
		api.PUT("/clients/:id", clientHandler.Update)
		api.DELETE("/clients/:id", clientHandler.Delete)

		api.POST("/products", productHandler.Create)
		api.GET("/products", productHandler.List)
		api.GET("/products/:id", productHandler.Get)
		api.PUT("/products/:id", productHandler.Update)
		api.DELETE("/products/:id", productHandler.Delete)

		api.POST("/invoices", invoiceHandler.Create)
		api.GET("/invoices", invoiceHandler.List)
		api.GET("/invoices/:id", invoiceHandler.Get)
		api.PUT("/invoices/:id", invoiceHandler.Update)
		api.DELETE("/invoices/:id", invoiceHandler.Delete)
		api.POST("/invoices/:id/export", invoiceHandler.Export)
		api.POST("/invoices/:id/share", invoiceHandler.Share)

		api.GET("/subscription/plan", subscriptionHandler.GetCurrentPlan)
		api.GET("/subscription/can-create/:resource", subscriptionHandler.CanCreateResource)
		api.GET("/subscription/can-export/:format", subscriptionHandler.CanExportFormat)
		api.GET("/subscription/can-use-template/:name", subscriptionHandler.CanUseTemplate)
		api.GET("/subscription/can-use-feature/:key", subscriptionHandler.CanUseFeature)
		api.POST("/subscription/track", subscriptionHandler.TrackAction)
	}

	return r
}
