package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pkowalczyk/autoshop-api/config"
	"github.com/pkowalczyk/autoshop-api/controllers"
	"github.com/pkowalczyk/autoshop-api/middleware"
	"github.com/pkowalczyk/autoshop-api/models"
	"github.com/pkowalczyk/autoshop-api/services"
)

func main() {
	log.Println("Starting Autoshop API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Config warning: %v", err)
		cfg = config.GetConfig()
	}
	setupLogging(cfg)

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Workshop{},
		&models.Employee{},
		&models.Client{},
		&models.Vehicle{},
		&models.Appointment{},
		&models.RepairItem{},
		&models.Part{},
		&models.ServiceRecord{},
		&models.TrainingData{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Load the segmentation classifier. A missing artifact is not fatal:
	// clients keep their current segments until a model is available.
	store, err := services.NewArtifactStore(cfg)
	if err != nil {
		logrus.WithError(err).Warn("Could not initialize classifier artifact store")
	} else if _, err := services.InitClassifier(store); err != nil {
		logrus.WithError(err).Warn("Running without a segmentation classifier")
	}

	// Wire the reaction pipeline
	services.InitPipeline(db, cfg.Discounts)

	// Initialize Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.Default())

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// Appointment mutation surface - every write here drives the
		// derived-state pipeline
		v1.POST("/appointments", controllers.CreateAppointment)
		v1.GET("/appointments/:id", controllers.GetAppointment)
		v1.POST("/appointments/:id/cancel", controllers.CancelAppointment)
		v1.DELETE("/appointments/:id", controllers.CancelAppointment)
		v1.PATCH("/appointments/:id/mileage", controllers.UpdateAppointmentMileage)
		v1.POST("/appointments/:id/repair-items", controllers.CreateRepairItem)
		v1.POST("/appointments/:id/parts", controllers.CreatePart)
		v1.PATCH("/repair-items/:id", controllers.UpdateRepairItem)
		v1.POST("/repair-items/:id/complete", controllers.CompleteRepairItem)
		v1.DELETE("/repair-items/:id", controllers.DeleteRepairItem)
		v1.PATCH("/parts/:id", controllers.UpdatePart)
		v1.DELETE("/parts/:id", controllers.DeletePart)

		// Segmentation
		v1.GET("/classifier/status", controllers.ClassifierStatus)
		v1.GET("/clients/:id/segment", controllers.GetClientSegment)
		v1.POST("/admin/segments/recompute", controllers.RecomputeSegments)
	}

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Autoshop API is running",
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
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
	})
}
