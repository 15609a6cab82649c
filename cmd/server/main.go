package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/evoltcare/service-center-backend/internal/config"
	"github.com/evoltcare/service-center-backend/internal/database"
	"github.com/evoltcare/service-center-backend/internal/handlers"
	"github.com/evoltcare/service-center-backend/internal/middleware"
	"github.com/evoltcare/service-center-backend/internal/services"
	"github.com/evoltcare/service-center-backend/pkg/jwt"
	"github.com/evoltcare/service-center-backend/pkg/payos"
)

var version = "1.0.0"

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Infof("Starting EvoltCare Service Center Backend v%s", version)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Repositories
	centerRepo := database.NewCenterRepository(db)
	serviceRepo := database.NewServiceRepository(db)
	customerRepo := database.NewCustomerRepository(db)
	vehicleRepo := database.NewVehicleRepository(db)
	technicianRepo := database.NewTechnicianRepository(db)
	slotRepo := database.NewTechnicianSlotRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	workOrderRepo := database.NewWorkOrderRepository(db)
	invoiceRepo := database.NewInvoiceRepository(db)
	paymentRepo := database.NewPaymentRepository(db)
	auditRepo := database.NewPaymentAuditRepository(db, logger)

	// Payment provider
	payosClient := payos.NewClient(payos.Config{
		BaseURL:     cfg.Payment.BaseURL,
		ClientID:    cfg.Payment.ClientID,
		APIKey:      cfg.Payment.APIKey,
		ChecksumKey: cfg.Payment.ChecksumKey,
		ReturnURL:   cfg.Payment.ReturnURL,
		CancelURL:   cfg.Payment.CancelURL,
	}, logger)
	if !payosClient.IsConfigured() {
		logger.Warn("PayOS credentials missing, checkout links will fail")
	}

	// Hold store backend
	var holdStore services.HoldStore
	var memoryHolds *services.MemoryHoldStore
	switch cfg.Hold.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Hold.RedisAddr,
			Password: cfg.Hold.RedisPassword,
			DB:       cfg.Hold.RedisDB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		holdStore = services.NewRedisHoldStore(redisClient, logger)
		logger.Info("Using Redis slot hold store")
	default:
		memoryHolds = services.NewMemoryHoldStore(logger)
		holdStore = memoryHolds
		logger.Info("Using in-memory slot hold store")
	}

	// Services
	bookingService := services.NewBookingService(
		centerRepo, serviceRepo, customerRepo, vehicleRepo, technicianRepo,
		slotRepo, bookingRepo, holdStore, payosClient,
		services.BookingServiceConfig{HoldTTL: cfg.Hold.TTL},
		logger,
	)
	paymentService := services.NewPaymentService(
		bookingRepo, customerRepo, technicianRepo, slotRepo,
		workOrderRepo, invoiceRepo, paymentRepo, payosClient, logger,
	)

	sweepService := services.NewSweepService(bookingRepo, memoryHolds, cfg.Booking.OrphanThreshold, logger)
	if err := sweepService.Start(); err != nil {
		logger.Fatalf("Failed to start sweep service: %v", err)
	}
	defer sweepService.Stop()

	jwtService := jwt.NewService(cfg.JWT.Secret)

	// Handlers
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, auditRepo, logger)
	holdHandler := handlers.NewHoldHandler(holdStore, cfg.Hold.TTL, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))

	api := router.Group("/api/v1")
	{
		api.POST("/bookings", bookingHandler.CreateBooking)
		api.GET("/bookings/:ref", bookingHandler.GetBooking)
		api.POST("/bookings/:ref/payment-link", paymentHandler.CreatePaymentLink)

		api.POST("/payments/confirm", paymentHandler.ConfirmPayment)
		api.POST("/payments/webhook", paymentHandler.Webhook)

		api.POST("/holds", holdHandler.HoldSlot)
		api.POST("/holds/release", holdHandler.ReleaseSlot)

		staff := api.Group("/staff")
		staff.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole("staff"))
		{
			staff.GET("/holds", holdHandler.ListHolds)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Forced shutdown: %v", err)
	}
	logger.Info("Server stopped")
}

// requestLogger logs each request with latency and status
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})

		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request completed with server error")
		case c.Writer.Status() >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed")
		}
	}
}

// healthCheckHandler reports service and database health
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
