package routes

import (
	"log"

	"backend/config"
	"backend/controllers"
	"backend/middlewares"
	"backend/services"

	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	tokens, err := services.NewTokenService(config.App.JWTSecret, config.App.JWTAlgorithm)
	if err != nil {
		// Misconfiguration is fatal at startup, not per-request.
		log.Fatalf("token service: %v", err)
	}

	ml := services.NewMLClient(config.App.MLServiceURL)
	tasks := services.NewTaskService(&services.RedisBroker{Client: config.Redis})

	authCtl := controllers.NewAuthController(
		services.NewAuthService(config.DB, tokens, ml))
	syncCtl := controllers.NewSyncController(
		services.NewCatalogService(config.DB),
		services.NewProfileService(config.DB),
		services.NewConsumptionService(config.DB, tasks))
	activityCtl := controllers.NewActivityController(ml)

	r := gin.Default()

	r.GET("/", controllers.Health)
	r.GET("/health", controllers.Health)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
	}

	// Authed account routes
	me := r.Group("/api/auth")
	me.Use(middlewares.AuthMiddleware(tokens))
	{
		me.GET("/me", authCtl.Me)
		me.POST("/logout", authCtl.Logout)
	}

	// Offline-first sync routes. The catalog export is public, same as
	// the legacy API; everything user-scoped requires a token.
	r.GET("/api/sync/foods", syncCtl.SyncFoods)

	sync := r.Group("/api/sync")
	sync.Use(middlewares.AuthMiddleware(tokens))
	{
		sync.POST("/profile", syncCtl.SyncProfile)
		sync.POST("/consumptions", syncCtl.SyncConsumptions)
		sync.GET("/status", syncCtl.SyncStatus)
	}

	r.POST("/api/analyze-activity", activityCtl.AnalyzeActivity)

	return r
}
