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
	"github.com/lagoonresort/reservation-backend/internal/cache"
	"github.com/lagoonresort/reservation-backend/internal/config"
	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/lagoonresort/reservation-backend/internal/handlers"
	"github.com/lagoonresort/reservation-backend/internal/metrics"
	"github.com/lagoonresort/reservation-backend/internal/middleware"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/internal/queue"
	"github.com/lagoonresort/reservation-backend/internal/services"
	"github.com/lagoonresort/reservation-backend/pkg/jwt"
	"github.com/lagoonresort/reservation-backend/pkg/mail"
	"github.com/lagoonresort/reservation-backend/pkg/sms"
	"github.com/lagoonresort/reservation-backend/pkg/validator"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Lagoon Resort reservation backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
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
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Repositories
	userRepository := database.NewUserRepository(db)
	refreshTokenRepository := database.NewRefreshTokenRepository(db)
	resetRepository := database.NewPasswordResetRepository(db)
	roomRepository := database.NewRoomRepository(db)
	amenityRepository := database.NewAmenityRepository(db)
	imageRepository := database.NewImageRepository(db)
	customerRepository := database.NewCustomerRepository(db)
	bookingRepository := database.NewBookingRepository(db)
	paymentRepository := database.NewPaymentRepository(db)

	// Infrastructure
	appMetrics := metrics.New()
	roomCache := newRoomCache(cfg, logger)
	publisher := newPublisher(cfg, logger)
	cards := newCardGateway(cfg, logger)
	notifier := services.NewNotificationService(newMailer(cfg, logger), newSMSGateway(cfg, logger), cfg.Server.PublicURL, logger)

	// Services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	phoneValidator := validator.NewPhoneValidator(cfg.SMS.CountryCode)
	auditService := services.NewAuditService(db, cfg.Security.EnableAuditLog)

	authService := services.NewAuthService(services.AuthServiceDeps{
		UserRepo:         userRepository,
		RefreshTokenRepo: refreshTokenRepository,
		ResetRepo:        resetRepository,
		JWT:              jwtService,
		Notifier:         notifier,
		PhoneValidator:   phoneValidator,
		BcryptCost:       cfg.Security.BcryptCost,
		ResetTTL:         cfg.Security.PasswordResetTTL,
		Logger:           logger,
	})
	pricingService := services.NewPricingService(roomRepository, logger)
	roomService := services.NewRoomService(roomRepository, amenityRepository, imageRepository, roomCache, logger)
	amenityService := services.NewAmenityService(amenityRepository, roomService, logger)
	imageService := services.NewImageService(imageRepository, roomRepository, roomService, logger)
	customerService := services.NewCustomerService(customerRepository, phoneValidator, logger)
	bookingService := services.NewBookingService(services.BookingServiceDeps{
		BookingRepo:  bookingRepository,
		RoomRepo:     roomRepository,
		CustomerRepo: customerRepository,
		PaymentRepo:  paymentRepository,
		Customers:    customerService,
		Rooms:        roomService,
		Cards:        cards,
		Notifier:     notifier,
		Publisher:    publisher,
		Metrics:      appMetrics,
		Logger:       logger,
	})
	paymentService := services.NewPaymentService(
		paymentRepository,
		bookingService,
		customerService,
		cards,
		cfg.PayFast,
		cfg.Stripe,
		appMetrics,
		logger,
	)

	var cronService *services.CronService
	if cfg.Scheduler.Enabled {
		cronService = services.NewCronService(
			pricingService,
			roomService,
			refreshTokenRepository,
			auditService,
			cfg.Scheduler.AuditRetention,
			logger,
		)
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
	}
	logger.Info("Services initialized")

	// Handlers
	auditor := handlers.NewAuditor(auditService, logger)
	authHandler := handlers.NewAuthHandler(authService, auditService, logger)
	roomHandler := handlers.NewRoomHandler(roomService, pricingService, auditor, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, auditor, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	amenityHandler := handlers.NewAmenityHandler(amenityService, auditor, logger)
	customerHandler := handlers.NewCustomerHandler(customerService, auditor, logger)
	imageHandler := handlers.NewImageHandler(imageService, auditor, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(appMetrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))
	router.GET("/metrics", gin.WrapH(appMetrics.Handler()))

	authRequired := middleware.AuthMiddleware(jwtService)
	staffOnly := middleware.RequireRole(models.RoleStaff, models.RoleAdmin)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := router.Group("/api")
	{
		authLimiter := middleware.NewIPRateLimiter(cfg.Security.AuthRatePerMinute, cfg.Security.AuthRateBurst)
		auth := api.Group("/auth", middleware.RateLimit(authLimiter, auditor.RateLimited))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
		}

		users := api.Group("/users/me", authRequired)
		{
			users.GET("/profile", authHandler.GetProfile)
			users.PUT("/profile", authHandler.UpdateProfile)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("", roomHandler.ListRooms)
			rooms.GET("/available", roomHandler.ListAvailableRooms)
			rooms.GET("/:id", roomHandler.GetRoom)
			rooms.GET("/:id/price", roomHandler.GetRoomPrice)

			rooms.POST("", authRequired, adminOnly, roomHandler.CreateRoom)
			rooms.PUT("/:id", authRequired, adminOnly, roomHandler.UpdateRoom)
			rooms.DELETE("/:id", authRequired, adminOnly, roomHandler.DeleteRoom)
			rooms.POST("/:id/reprice", authRequired, adminOnly, roomHandler.RepriceRoom)
			rooms.POST("/:id/amenities/:amenityId", authRequired, adminOnly, roomHandler.AttachAmenity)
			rooms.DELETE("/:id/amenities/:amenityId", authRequired, adminOnly, roomHandler.DetachAmenity)
		}

		amenities := api.Group("/amenities")
		{
			amenities.GET("", amenityHandler.ListAmenities)
			amenities.GET("/:id", amenityHandler.GetAmenity)
			amenities.POST("", authRequired, adminOnly, amenityHandler.CreateAmenity)
			amenities.PUT("/:id", authRequired, adminOnly, amenityHandler.UpdateAmenity)
			amenities.DELETE("/:id", authRequired, adminOnly, amenityHandler.DeleteAmenity)
		}

		images := api.Group("/images")
		{
			images.GET("", imageHandler.ListImages)
			images.GET("/:id", imageHandler.GetImage)
			images.POST("", authRequired, adminOnly, imageHandler.CreateImage)
			images.PUT("/:id", authRequired, adminOnly, imageHandler.UpdateImage)
			images.DELETE("/:id", authRequired, adminOnly, imageHandler.DeleteImage)
		}

		bookings := api.Group("/bookings")
		{
			// Guests book without an account
			bookings.POST("", bookingHandler.CreateBooking)

			staff := bookings.Group("", authRequired, staffOnly)
			staff.GET("", bookingHandler.ListBookings)
			staff.GET("/export", adminOnly, bookingHandler.ExportBookings)
			staff.GET("/:id", bookingHandler.GetBooking)
			staff.PUT("/:id", bookingHandler.UpdateBooking)
			staff.DELETE("/:id", adminOnly, bookingHandler.DeleteBooking)
			staff.POST("/:id/cancel", bookingHandler.CancelBooking)
			staff.POST("/:id/complete", bookingHandler.CompleteBooking)
			staff.POST("/:id/refund", adminOnly, bookingHandler.RefundBooking)
		}

		customers := api.Group("/customers", authRequired, staffOnly)
		{
			customers.GET("", customerHandler.ListCustomers)
			customers.GET("/:id", customerHandler.GetCustomer)
			customers.POST("", customerHandler.CreateCustomer)
			customers.PUT("/:id", customerHandler.UpdateCustomer)
			customers.DELETE("/:id", customerHandler.DeleteCustomer)
		}

		payment := api.Group("/payment")
		{
			if cfg.PayFast.Enabled {
				payment.POST("/payfast/:bookingId", paymentHandler.CreatePayFastRedirect)
				payment.POST("/notify", paymentHandler.Notify)
			}
			payment.POST("/stripe/:bookingId", paymentHandler.ChargeWithStripe)
		}
		api.GET("/payments", authRequired, staffOnly, paymentHandler.ListPayments)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	if cronService != nil {
		cronService.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

func newRoomCache(cfg *config.Config, logger *logrus.Logger) services.RoomCache {
	client, err := cache.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, room listings will not be cached")
		return cache.Noop{}
	}
	if client == nil {
		logger.Info("REDIS_ADDR not set, room listings will not be cached")
		return cache.Noop{}
	}
	return cache.NewRoomCache(client, cfg.Redis.RoomTTL)
}

func newPublisher(cfg *config.Config, logger *logrus.Logger) services.EventPublisher {
	if cfg.RabbitMQ.URL == "" {
		logger.Info("RABBITMQ_URL not set, booking events will be dropped")
		return queue.Discard{}
	}
	return queue.NewPublisher(cfg.RabbitMQ.URL)
}

func newCardGateway(cfg *config.Config, logger *logrus.Logger) services.CardGateway {
	if cfg.Stripe.SecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set, card payments are disabled")
		return services.DisabledGateway{}
	}
	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		LeveledLogger: logger,
	})
	return services.NewStripeGateway(cfg.Stripe.SecretKey, backends)
}

func newMailer(cfg *config.Config, logger *logrus.Logger) mail.Mailer {
	if cfg.SMTP.Host == "" {
		logger.Info("SMTP_HOST not set, emails will be logged instead of sent")
		return mail.NewLogMailer(logger)
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	})
}

func newSMSGateway(cfg *config.Config, logger *logrus.Logger) sms.SMSGateway {
	if cfg.SMS.Mode != "production" {
		logger.Info("SMS Gateway in development mode (no actual SMS will be sent)")
		return sms.NewLogGateway(logger)
	}
	return sms.NewDialogGateway(sms.DialogConfig{
		APIURL:   cfg.SMS.APIURL,
		Username: cfg.SMS.Username,
		Password: cfg.SMS.Password,
		Mask:     cfg.SMS.Mask,
	})
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
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
