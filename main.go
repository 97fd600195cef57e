package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/config"
	"github.com/wigworks/wig-atelier-api/controllers"
	"github.com/wigworks/wig-atelier-api/middleware"
	"github.com/wigworks/wig-atelier-api/models"
	"github.com/wigworks/wig-atelier-api/services"
)

func main() {
	logrus.Info("Starting Wig Atelier API server...")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ConfigureLogging()

	db, err := config.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := config.CloseDatabase(db); err != nil {
			logrus.Warnf("Failed to close database: %v", err)
		}
	}()

	if err := db.AutoMigrate(
		&models.User{},
		&models.Inquiry{},
		&models.Order{},
		&models.Review{},
		&models.ReviewRevision{},
	); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}
	logrus.Info("Database migration completed successfully")

	s3Service, err := services.NewS3Service(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize S3 service: %v", err)
	}
	imageService := services.NewImageService(s3Service)

	router := setupRouter(cfg, db, imageService)

	addr := ":" + cfg.Port
	logrus.Infof("Server is running on http://localhost%s", addr)
	if err := router.Run(addr); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter wires the full HTTP surface: public inquiry intake and
// customer review endpoints, JWT-protected artisan endpoints, and the
// health/database probes.
func setupRouter(cfg *config.Config, db *gorm.DB, imageService services.ImageService) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.BaseURL}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	orderService := services.NewOrderService(db)
	reviewService := services.NewReviewService(db, cfg.BaseURL)
	inquiryService := services.NewInquiryService(db)
	auth0Service := services.NewAuth0Service(cfg)

	orderCtrl := controllers.NewOrderController(db, orderService)
	reviewCtrl := controllers.NewReviewController(db, reviewService)
	inquiryCtrl := controllers.NewInquiryController(db, inquiryService)
	userCtrl := controllers.NewUserController(db, auth0Service)
	uploadCtrl := controllers.NewUploadController(db, imageService)

	requireAuth := middleware.EnsureValidToken(cfg)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus(db))

		// Public: customers act without accounts
		v1.POST("/inquiries", inquiryCtrl.CreateInquiry)
		v1.GET("/reviews/token/:token", reviewCtrl.GetReviewByToken)
		v1.POST("/reviews/:id/approve", reviewCtrl.Approve)
		v1.POST("/reviews/:id/revision", reviewCtrl.RequestRevision)
		v1.POST("/reviews/:id/revision/:revisionId/confirm", reviewCtrl.ConfirmSatisfaction)

		// Artisan profile
		v1.POST("/users", requireAuth, userCtrl.CreateUser)
		v1.GET("/users/me", requireAuth, userCtrl.GetMyProfile)
		v1.PUT("/users/me", requireAuth, userCtrl.UpdateMyProfile)

		// Inquiry handling
		v1.GET("/inquiries", requireAuth, inquiryCtrl.ListInquiries)
		v1.GET("/inquiries/:id", requireAuth, inquiryCtrl.GetInquiry)
		v1.POST("/inquiries/:id/convert", requireAuth, inquiryCtrl.ConvertInquiry)
		v1.PUT("/inquiries/:id/reject", requireAuth, inquiryCtrl.RejectInquiry)

		// Order lifecycle
		v1.POST("/orders", requireAuth, orderCtrl.CreateOrder)
		v1.GET("/orders", requireAuth, orderCtrl.ListOrders)
		v1.GET("/orders/deadline-alerts", requireAuth, orderCtrl.DeadlineAlerts)
		v1.GET("/orders/:id", requireAuth, orderCtrl.GetOrder)
		v1.PUT("/orders/:id", requireAuth, orderCtrl.UpdateOrder)
		v1.PUT("/orders/:id/status", requireAuth, orderCtrl.SetStatus)
		v1.POST("/orders/:id/confirm-deposit", requireAuth, orderCtrl.ConfirmDeposit)
		v1.POST("/orders/:id/confirm-wig-received", requireAuth, orderCtrl.ConfirmWigReceived)
		v1.POST("/orders/:id/confirm-balance", requireAuth, orderCtrl.ConfirmBalance)
		v1.POST("/orders/:id/ship", requireAuth, orderCtrl.Ship)
		v1.POST("/orders/:id/complete", requireAuth, orderCtrl.Complete)
		v1.POST("/orders/:id/notes", requireAuth, orderCtrl.AddNote)
		v1.GET("/orders/:id/review", requireAuth, reviewCtrl.GetReviewByOrder)

		// Review workflow, artisan side
		v1.POST("/reviews", requireAuth, reviewCtrl.CreateReview)
		v1.GET("/reviews/:id", requireAuth, reviewCtrl.GetReview)
		v1.PUT("/reviews/:id/revision/:revisionId", requireAuth, reviewCtrl.SubmitRevisionResponse)

		// Uploads
		v1.POST("/uploads", requireAuth, uploadCtrl.UploadImage)
		v1.GET("/uploads/url", requireAuth, uploadCtrl.GetImageURL)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Wig Atelier API is running",
	})
}

// databaseStatus checks database connectivity
func databaseStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
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
}
