package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lagoonresort/reservation-backend/internal/cache"
	"github.com/lagoonresort/reservation-backend/internal/config"
	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/lagoonresort/reservation-backend/internal/metrics"
	"github.com/lagoonresort/reservation-backend/internal/middleware"
	"github.com/lagoonresort/reservation-backend/internal/queue"
	"github.com/lagoonresort/reservation-backend/internal/services"
	"github.com/lagoonresort/reservation-backend/pkg/jwt"
	"github.com/lagoonresort/reservation-backend/pkg/mail"
	"github.com/lagoonresort/reservation-backend/pkg/sms"
	"github.com/lagoonresort/reservation-backend/pkg/validator"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassphrase = "jt7NOE43FZPn"

// setupTestDB creates a mock database for testing
func setupTestDB(t *testing.T) (*database.PostgresDB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// handlerEnv wires every handler over one sqlmock connection. Audit logging
// is disabled so tests only declare the queries of the code under test.
type handlerEnv struct {
	mock sqlmock.Sqlmock
	jwt  *jwt.Service

	auth      *AuthHandler
	rooms     *RoomHandler
	bookings  *BookingHandler
	payments  *PaymentHandler
	amenities *AmenityHandler
	customers *CustomerHandler
	images    *ImageHandler
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock := setupTestDB(t)
	logger := quietLogger()

	userRepo := database.NewUserRepository(db)
	refreshTokenRepo := database.NewRefreshTokenRepository(db)
	roomRepo := database.NewRoomRepository(db)
	amenityRepo := database.NewAmenityRepository(db)
	imageRepo := database.NewImageRepository(db)
	customerRepo := database.NewCustomerRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	paymentRepo := database.NewPaymentRepository(db)

	jwtService := jwt.NewService("test-secret", "test-refresh-secret", 1*time.Hour, 7*24*time.Hour)
	phoneValidator := validator.NewPhoneValidator("27")
	notifier := services.NewNotificationService(mail.NewLogMailer(logger), sms.NewLogGateway(logger), "http://localhost:4200", logger)
	auditService := services.NewAuditService(db, false)
	auditor := NewAuditor(auditService, logger)
	m := metrics.New()

	authService := services.NewAuthService(services.AuthServiceDeps{
		UserRepo:         userRepo,
		RefreshTokenRepo: refreshTokenRepo,
		ResetRepo:        database.NewPasswordResetRepository(db),
		JWT:              jwtService,
		Notifier:         notifier,
		PhoneValidator:   phoneValidator,
		BcryptCost:       bcrypt.MinCost,
		ResetTTL:         time.Hour,
		Logger:           logger,
	})
	pricing := services.NewPricingService(roomRepo, logger)
	rooms := services.NewRoomService(roomRepo, amenityRepo, imageRepo, cache.Noop{}, logger)
	customers := services.NewCustomerService(customerRepo, phoneValidator, logger)
	bookings := services.NewBookingService(services.BookingServiceDeps{
		BookingRepo:  bookingRepo,
		RoomRepo:     roomRepo,
		CustomerRepo: customerRepo,
		PaymentRepo:  paymentRepo,
		Customers:    customers,
		Rooms:        rooms,
		Cards:        services.DisabledGateway{},
		Notifier:     notifier,
		Publisher:    queue.Discard{},
		Metrics:      m,
		Logger:       logger,
	})
	payments := services.NewPaymentService(
		paymentRepo,
		bookings,
		customers,
		services.DisabledGateway{},
		config.PayFastConfig{
			Enabled:     true,
			Sandbox:     true,
			MerchantID:  "10000100",
			MerchantKey: "46f0cd694581a",
			Passphrase:  testPassphrase,
		},
		config.StripeConfig{Currency: "zar"},
		m,
		logger,
	)

	return &handlerEnv{
		mock:      mock,
		jwt:       jwtService,
		auth:      NewAuthHandler(authService, auditService, logger),
		rooms:     NewRoomHandler(rooms, pricing, auditor, logger),
		bookings:  NewBookingHandler(bookings, auditor, logger),
		payments:  NewPaymentHandler(payments, logger),
		amenities: NewAmenityHandler(services.NewAmenityService(amenityRepo, rooms, logger), auditor, logger),
		customers: NewCustomerHandler(customers, auditor, logger),
		images:    NewImageHandler(services.NewImageService(imageRepo, roomRepo, rooms, logger), auditor, logger),
	}
}

// setupAuthenticatedContext creates a Gin context with authenticated user
func setupAuthenticatedContext(userID uuid.UUID, email string, roles ...string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	// Set user context (simulating AuthMiddleware)
	c.Set(middleware.UserContextKey, middleware.UserContext{
		UserID: userID,
		Email:  email,
		Roles:  roles,
	})

	return c, w
}

// serve runs one request through a router holding a single route
func serve(method, pattern, target string, body interface{}, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Handle(method, pattern, handler)

	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}
