package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/chatterfix/backend/internal/application/services"
	"github.com/chatterfix/backend/internal/bootstrap"
	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/internal/interfaces/middleware"
	"github.com/chatterfix/backend/internal/interfaces/rest"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load .env when present; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("📦 Loaded .env file")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Initialize database connection
	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	if err := bootstrap.InitializeSystemData(db); err != nil {
		log.Fatalf("Failed to initialize system data: %v", err)
	}

	// Initialize service manager
	svcMgr := services.NewServiceManager(db, version)
	log.Println("🔧 Service manager initialized")

	// Create Gin router
	router := gin.Default()
	router.Use(middleware.Cors())
	router.Use(middleware.Metrics())

	// Initialize handlers
	healthHandler := rest.NewHealthHandler(svcMgr)
	authHandler := rest.NewAuthHandler(svcMgr)
	userHandler := rest.NewUserHandler(svcMgr)
	workOrderHandler := rest.NewWorkOrderHandler(svcMgr)
	assetHandler := rest.NewAssetHandler(svcMgr)
	inventoryHandler := rest.NewInventoryHandler(svcMgr)
	pmHandler := rest.NewPMHandler(svcMgr)
	aiHandler := rest.NewAIHandler(svcMgr)
	notificationHandler := rest.NewNotificationHandler(svcMgr)
	dashboardHandler := rest.NewDashboardHandler(svcMgr)
	analyticsHandler := rest.NewAnalyticsHandler(svcMgr)

	// Initialize middleware
	requireAuth := middleware.RequireAuth(svcMgr.Auth)
	requireAdmin := middleware.RequireAdmin()
	aiRateLimit := middleware.NewRateLimiter(constants.AIRequestsPerMinute).Middleware()

	// Health and metrics
	router.GET("/health", healthHandler.Liveness)
	router.GET("/health/full", healthHandler.Readiness)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Debug/pprof endpoints for goroutine debugging
	debug := router.Group("/debug/pprof")
	{
		debug.GET("/goroutine", gin.WrapH(http.DefaultServeMux))
		debug.GET("/heap", gin.WrapH(http.DefaultServeMux))
		debug.GET("/profile", gin.WrapH(http.DefaultServeMux))
		debug.GET("/trace", gin.WrapH(http.DefaultServeMux))
	}

	// API routes
	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetMe)
			auth.POST("/change-password", requireAuth, authHandler.ChangePassword)

			auth.POST("/register", requireAuth, requireAdmin, userHandler.Register)
			auth.GET("/users", requireAuth, userHandler.GetUsers)
			auth.GET("/users/:id", requireAuth, userHandler.GetUser)
			auth.PUT("/users/:id", requireAuth, requireAdmin, userHandler.UpdateUser)
			auth.DELETE("/users/:id", requireAuth, requireAdmin, userHandler.DeleteUser)
		}

		workOrders := api.Group("/work-orders")
		workOrders.Use(requireAuth)
		{
			workOrders.POST("", workOrderHandler.Create)
			workOrders.GET("", workOrderHandler.List)
			workOrders.GET("/:id", workOrderHandler.Get)
			workOrders.PATCH("/:id", workOrderHandler.Update)
			workOrders.DELETE("/:id", requireAdmin, workOrderHandler.Delete)
			workOrders.POST("/:id/assign", workOrderHandler.Assign)
			workOrders.POST("/:id/transition", workOrderHandler.Transition)
			workOrders.POST("/:id/comments", workOrderHandler.AddComment)
			workOrders.GET("/:id/comments", workOrderHandler.GetComments)
		}

		assets := api.Group("/assets")
		assets.Use(requireAuth)
		{
			assets.POST("", assetHandler.Create)
			assets.GET("", assetHandler.List)
			assets.GET("/:id", assetHandler.Get)
			assets.PATCH("/:id", assetHandler.Update)
			assets.DELETE("/:id", requireAdmin, assetHandler.Delete)
			assets.GET("/:id/children", assetHandler.GetChildren)
			assets.GET("/:id/history", assetHandler.GetHistory)
		}

		parts := api.Group("/parts")
		parts.Use(requireAuth)
		{
			parts.POST("", inventoryHandler.CreatePart)
			parts.GET("", inventoryHandler.ListParts)
			parts.GET("/low-stock", inventoryHandler.ListLowStock)
			parts.GET("/:id", inventoryHandler.GetPart)
			parts.PATCH("/:id", inventoryHandler.UpdatePart)
			parts.DELETE("/:id", requireAdmin, inventoryHandler.DeletePart)
			parts.POST("/:id/adjust", inventoryHandler.AdjustStock)
			parts.GET("/:id/movements", inventoryHandler.GetMovements)
		}

		suppliers := api.Group("/suppliers")
		suppliers.Use(requireAuth)
		{
			suppliers.POST("", inventoryHandler.CreateSupplier)
			suppliers.GET("", inventoryHandler.ListSuppliers)
			suppliers.GET("/:id", inventoryHandler.GetSupplier)
			suppliers.PUT("/:id", inventoryHandler.UpdateSupplier)
			suppliers.DELETE("/:id", requireAdmin, inventoryHandler.DeleteSupplier)
		}

		pmSchedules := api.Group("/pm-schedules")
		pmSchedules.Use(requireAuth)
		{
			pmSchedules.POST("", pmHandler.CreateSchedule)
			pmSchedules.GET("", pmHandler.ListSchedules)
			pmSchedules.GET("/:id", pmHandler.GetSchedule)
			pmSchedules.PUT("/:id", pmHandler.UpdateSchedule)
			pmSchedules.DELETE("/:id", pmHandler.DeleteSchedule)
			pmSchedules.POST("/:id/trigger", pmHandler.TriggerSchedule)
		}

		escalationRules := api.Group("/escalation-rules")
		escalationRules.Use(requireAuth, requireAdmin)
		{
			escalationRules.POST("", pmHandler.CreateRule)
			escalationRules.GET("", pmHandler.ListRules)
			escalationRules.GET("/:id", pmHandler.GetRule)
			escalationRules.PUT("/:id", pmHandler.UpdateRule)
			escalationRules.DELETE("/:id", pmHandler.DeleteRule)
		}

		ai := api.Group("/ai")
		ai.Use(requireAuth)
		{
			ai.POST("/chat", aiRateLimit, aiHandler.Chat)
			ai.GET("/providers", aiHandler.GetProviders)
			ai.GET("/conversations", aiHandler.ListConversations)
			ai.GET("/conversations/:id", aiHandler.GetConversation)
			ai.DELETE("/conversations/:id", aiHandler.DeleteConversation)
		}

		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.POST("/:id/read", notificationHandler.MarkAsRead)
		}

		dashboard := api.Group("/dashboard")
		dashboard.Use(requireAuth)
		{
			dashboard.GET("/summary", dashboardHandler.GetSummary)
			dashboard.GET("/my-work", dashboardHandler.GetMyWork)
		}

		analytics := api.Group("/analytics")
		analytics.Use(requireAuth, requireAdmin)
		{
			analytics.POST("/query", analyticsHandler.ExecuteQuery)
		}
	}

	// Start background workers
	svcMgr.StartWorkers()

	log.Println("\n═══════════════════════════════════════════════════════════════════════════")
	log.Println("🚀 ChatterFix Backend Started Successfully")
	log.Println("═══════════════════════════════════════════════════════════════════════════")
	log.Printf("\n📍 Server:          http://localhost:%s", port)
	log.Printf("🔐 Auth API:        http://localhost:%s/api/auth", port)
	log.Printf("🛠️  Work Orders:     http://localhost:%s/api/work-orders", port)
	log.Printf("🏭 Assets:          http://localhost:%s/api/assets", port)
	log.Printf("📦 Inventory:       http://localhost:%s/api/parts", port)
	log.Printf("🤖 AI Assistant:    http://localhost:%s/api/ai/chat", port)
	log.Printf("📈 Metrics:         http://localhost:%s/metrics", port)
	log.Printf("💚 Health check:    http://localhost:%s/health\n", port)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt, then drain workers and in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	svcMgr.StopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
