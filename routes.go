package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/kendall-kelly/repair-shop-api/config"
	"github.com/kendall-kelly/repair-shop-api/controllers"
	"github.com/kendall-kelly/repair-shop-api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter builds the HTTP API. Everything under /api/v1 except the
// health, database status and local uploads endpoints requires a token.
func setupRouter(cfg *config.Config, logger logr.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		if !cfg.UsesS3() {
			v1.GET("/uploads/:filename", controllers.GetUploadedImage)
		}
	}

	authenticated := v1.Group("", middleware.EnsureValidToken(cfg))
	if cfg.RequiredScope != "" {
		authenticated.Use(middleware.RequireScope(cfg.RequiredScope))
	}
	{
		authenticated.POST("/users", controllers.CreateUser)
		authenticated.GET("/users/me", controllers.GetMyProfile)
		authenticated.PUT("/users/me", controllers.UpdateMyProfile)
		authenticated.GET("/users", controllers.ListUsers)

		authenticated.GET("/device-types", controllers.ListDeviceTypes)

		requests := authenticated.Group("/repair-requests")
		requests.POST("", controllers.CreateRepairRequest)
		requests.GET("", controllers.ListRepairRequests)
		requests.GET("/stats", controllers.GetRepairStats)
		requests.GET("/track/:code", controllers.TrackRepairRequest)
		requests.GET("/:id", controllers.GetRepairRequest)
		requests.GET("/:id/history", controllers.GetRepairRequestHistory)
		requests.POST("/:id/transitions", controllers.TransitionRepairRequest)
		requests.PUT("/:id/assign", controllers.AssignRepairRequest)
		requests.PUT("/:id/notes", controllers.UpdateRepairNotes)
		requests.GET("/:id/messages", controllers.GetMessages)
		requests.POST("/:id/messages", controllers.SendMessage)
		requests.GET("/:id/messages/stream", controllers.StreamMessages)
		requests.GET("/:id/images", controllers.ListRepairImages)
		requests.POST("/:id/images", controllers.UploadRepairImage)
		requests.POST("/:id/review", controllers.CreateReview)

		authenticated.GET("/technicians/:id/reviews", controllers.ListTechnicianReviews)
		authenticated.GET("/analytics", controllers.GetAnalytics)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Repair Shop API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// The migrator lists tables on every supported driver
	tables, err := db.WithContext(c.Request.Context()).Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
