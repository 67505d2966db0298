package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/bookings"
	"github.com/chachabrian/tourbook-backend/internal/config"
	"github.com/chachabrian/tourbook-backend/internal/database"
	"github.com/chachabrian/tourbook-backend/internal/dispatch"
	"github.com/chachabrian/tourbook-backend/internal/documents"
	"github.com/chachabrian/tourbook-backend/internal/handlers"
	"github.com/chachabrian/tourbook-backend/internal/middleware"
	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/services"
	"github.com/chachabrian/tourbook-backend/internal/workspace"
	"github.com/chachabrian/tourbook-backend/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	utils.SetJWTSecret(cfg.JWTSecret)
	utils.ConfigureEmail(utils.EmailSettings{
		From:     cfg.EmailFrom,
		Password: cfg.EmailPassword,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		BaseURL:  cfg.BaseURL,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := database.InitDB(cfg.DSN(), cfg.GinMode == gin.DebugMode)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	redisClient, err := services.InitRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	feed := services.NewChangeFeed(redisClient)

	// Firebase is optional; push notifications are skipped without it
	if err := services.InitFirebase(ctx, cfg.FirebaseServiceAccountPath); err != nil {
		log.Printf("Firebase initialization warning: %v", err)
	}

	storage, err := services.NewStorage(services.StorageConfig{
		Region:    cfg.AWSRegion,
		AccessKey: cfg.AWSAccessKey,
		SecretKey: cfg.AWSSecretKey,
		Bucket:    cfg.AWSBucket,
		UploadDir: cfg.UploadDir,
		BaseURL:   cfg.BaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	var mailer documents.Mailer
	if utils.EmailConfigured() {
		mailer = documents.MailerFunc(utils.SendVenueEmail)
	} else {
		log.Println("Warning: SMTP not configured. Venue emails will be drafted but not sent.")
	}

	records := database.NewBookingRecords(db, feed)

	// The hub and the notifier read through the manager, which is built
	// after them; the closures below break the cycle.
	var manager *workspace.Manager
	source := bookingSourceFunc(func(ctx context.Context, ownerID uint) ([]models.Booking, error) {
		return manager.Bookings(ctx, ownerID)
	})
	hub := services.NewHub(source)
	notifier := services.NewStageNotifier(db, source)

	manager = workspace.NewManager(workspace.Config{
		Records: records,
		Feed:    feed,
		Dialogs: documents.All(storage, mailer, cfg.ArtistName),
		Hooks:   []dispatch.AdvanceHook{notifier.BookingAdvanced},
		OnChange: func(ownerID uint, event bookings.StoreEvent) {
			hub.NotifyOwner(ownerID, event)
			notifier.BookingSynced(ownerID, event)
		},
	})
	go hub.Run(ctx)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	r.Use(cors.New(corsConfig))

	if !storage.IsUsingS3() {
		r.Static("/uploads", storage.UploadDir())
	}

	r.GET("/health", func(c *gin.Context) {
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(503, gin.H{"status": "unavailable", "redis": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
		}

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
			}

			bookingRoutes := protected.Group("/bookings")
			{
				bookingRoutes.GET("", handlers.ListBookings(manager))
				bookingRoutes.POST("", handlers.CreateBooking(records, manager))
				bookingRoutes.POST("/reload", handlers.ReloadBookings(manager))
				bookingRoutes.GET("/:id", handlers.GetBooking(manager))
				bookingRoutes.PATCH("/:id", handlers.UpdateBooking(records, manager))
				bookingRoutes.DELETE("/:id", handlers.DeleteBooking(records))
				bookingRoutes.POST("/:id/actions", handlers.DispatchAction(manager))
				bookingRoutes.POST("/:id/actions/complete", handlers.CompleteAction(manager))
				bookingRoutes.POST("/:id/actions/dismiss", handlers.DismissAction(manager))
			}

			notifications := protected.Group("/notifications")
			{
				notifications.POST("/register-token", handlers.RegisterFCMToken(db))
				notifications.DELETE("/remove-token", handlers.RemoveFCMToken(db))
				notifications.POST("/test", handlers.TestNotification(db))
				notifications.GET("/preferences", handlers.GetNotificationPreferences(db))
				notifications.PUT("/preferences", handlers.UpdateNotificationPreferences(db))
			}

			protected.GET("/ws/status", handlers.HubStatus(hub))
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	stop()
	manager.Close()
	if err := redisClient.Close(); err != nil {
		log.Printf("Redis close failed: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Database close failed: %v", err)
	}

	log.Println("Server stopped")
}

type bookingSourceFunc func(ctx context.Context, ownerID uint) ([]models.Booking, error)

func (f bookingSourceFunc) Bookings(ctx context.Context, ownerID uint) ([]models.Booking, error) {
	return f(ctx, ownerID)
}
