// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/licensehub/licensehub-backend/internal/config"
	"github.com/licensehub/licensehub-backend/internal/handlers"
	"github.com/licensehub/licensehub-backend/internal/middleware"
	"github.com/licensehub/licensehub-backend/internal/services"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db)
	directoryService := services.NewDirectoryService(db, cfg)
	inventoryService := services.NewInventoryService(db)
	requestService := services.NewRequestService(db, inventoryService, notificationService)
	issueService := services.NewIssueService(db)
	statsService := services.NewStatsService(db)

	var generator services.TextGenerator
	if cfg.AI.APIKey != "" {
		generator = services.NewCompletionClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)
	}
	insightsService := services.NewInsightsService(db, requestService, inventoryService, generator)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(directoryService)
	userHandler := handlers.NewUserHandler(directoryService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, directoryService)
	requestHandler := handlers.NewRequestHandler(requestService, directoryService)
	issueHandler := handlers.NewIssueHandler(issueService, directoryService)
	statsHandler := handlers.NewStatsHandler(statsService, inventoryService, directoryService)
	insightsHandler := handlers.NewInsightsHandler(insightsService, directoryService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, directoryService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		authed := v1.Group("")
		authed.Use(middleware.AuthRequired())
		{
			authed.GET("/auth/me", authHandler.Me)

			authed.GET("/users", middleware.AdminRequired(), userHandler.ListUsers)
			authed.PUT("/users/:id/profile", middleware.AdminRequired(), userHandler.UpdateUserProfile)
			authed.GET("/department-team", middleware.DeptHeadRequired(), userHandler.DepartmentTeam)
			authed.PUT("/profile/department", userHandler.UpdateOwnDepartment)

			authed.GET("/software", inventoryHandler.ListSoftware)
			authed.POST("/software", middleware.AdminRequired(), inventoryHandler.CreateSoftware)
			authed.PUT("/software/:id", middleware.AdminRequired(), inventoryHandler.UpdateSoftware)
			authed.DELETE("/software/:id", middleware.AdminRequired(), inventoryHandler.DeleteSoftware)

			authed.POST("/requests", requestHandler.CreateSelfRequest)
			authed.POST("/requests/directed", requestHandler.CreateDirectedRequest)
			authed.GET("/requests/pending", middleware.AdminRequired(), requestHandler.ListPendingForAdmin)
			authed.GET("/requests/team", middleware.DeptHeadRequired(), requestHandler.ListPendingForTeam)
			authed.GET("/requests/my-licenses", requestHandler.MyLicenses)
			authed.POST("/requests/:id/forward", middleware.DeptHeadRequired(), requestHandler.Forward)
			authed.POST("/requests/:id/resolve", middleware.AdminRequired(), requestHandler.Resolve)

			authed.POST("/issues", issueHandler.Create)
			authed.GET("/issues/mine", issueHandler.ListMine)
			authed.GET("/issues/team", middleware.DeptHeadRequired(), issueHandler.ListTeam)
			authed.GET("/issues", middleware.AdminRequired(), issueHandler.ListAll)
			authed.PUT("/issues/:id/status", issueHandler.UpdateStatus)

			authed.GET("/stats/dashboard", middleware.AdminRequired(), statsHandler.Dashboard)
			authed.GET("/stats/inventory", middleware.AdminRequired(), statsHandler.Inventory)

			authed.POST("/insights/run", middleware.AdminRequired(), insightsHandler.Run)
			authed.GET("/insights", middleware.AdminRequired(), insightsHandler.List)

			authed.GET("/notifications", notificationHandler.List)
			authed.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}
	}

	return r
}
