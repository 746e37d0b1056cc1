package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lagoonresort/reservation-backend/internal/config"
	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/lagoonresort/reservation-backend/internal/metrics"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/pkg/sms"
	"github.com/lagoonresort/reservation-backend/pkg/validator"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testPassphrase = "jt7NOE43FZPn"

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type countingCache struct {
	invalidations int
}

func (c *countingCache) GetRooms(context.Context) ([]models.Room, bool, error) { return nil, false, nil }
func (c *countingCache) SetRooms(context.Context, []models.Room) error         { return nil }
func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return nil
}

type publishedEvent struct {
	queue string
	event interface{}
}

type recordingPublisher struct {
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, queue string, event interface{}) error {
	p.events = append(p.events, publishedEvent{queue: queue, event: event})
	return nil
}

type fakeCardGateway struct {
	result   *ChargeResult
	err      error
	refundID string
	charges  int
	refunds  []string
}

func (g *fakeCardGateway) Charge(_ context.Context, _ int64, _, _ string, _ int64) (*ChargeResult, error) {
	g.charges++
	return g.result, g.err
}

func (g *fakeCardGateway) Refund(_ context.Context, paymentIntentID string) (string, error) {
	g.refunds = append(g.refunds, paymentIntentID)
	return g.refundID, nil
}

// testEnv wires every service over one sqlmock connection
type testEnv struct {
	db        *database.PostgresDB
	mock      sqlmock.Sqlmock
	mailer    *recordingMailer
	cache     *countingCache
	publisher *recordingPublisher
	cards     *fakeCardGateway

	pricing   *PricingService
	rooms     *RoomService
	customers *CustomerService
	bookings  *BookingService
	payments  *PaymentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := &database.PostgresDB{DB: sqlx.NewDb(sqlDB, "sqlmock")}
	logger := quietLogger()

	roomRepo := database.NewRoomRepository(db)
	amenityRepo := database.NewAmenityRepository(db)
	imageRepo := database.NewImageRepository(db)
	customerRepo := database.NewCustomerRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	paymentRepo := database.NewPaymentRepository(db)

	env := &testEnv{
		db:        db,
		mock:      mock,
		mailer:    &recordingMailer{},
		cache:     &countingCache{},
		publisher: &recordingPublisher{},
		cards:     &fakeCardGateway{},
	}

	m := metrics.New()
	notifier := NewNotificationService(env.mailer, sms.NewLogGateway(logger), "http://localhost:4200", logger)

	env.pricing = NewPricingService(roomRepo, logger)
	env.rooms = NewRoomService(roomRepo, amenityRepo, imageRepo, env.cache, logger)
	env.customers = NewCustomerService(customerRepo, validator.NewPhoneValidator("27"), logger)
	env.bookings = NewBookingService(BookingServiceDeps{
		BookingRepo:  bookingRepo,
		RoomRepo:     roomRepo,
		CustomerRepo: customerRepo,
		PaymentRepo:  paymentRepo,
		Customers:    env.customers,
		Rooms:        env.rooms,
		Cards:        env.cards,
		Notifier:     notifier,
		Publisher:    env.publisher,
		Metrics:      m,
		Logger:       logger,
	})
	env.payments = NewPaymentService(
		paymentRepo,
		env.bookings,
		env.customers,
		env.cards,
		config.PayFastConfig{
			Enabled:     true,
			Sandbox:     true,
			MerchantID:  "10000100",
			MerchantKey: "46f0cd694581a",
			Passphrase:  testPassphrase,
			NotifyURL:   "https://api.lagoonresort.example/api/payment/notify",
		},
		config.StripeConfig{Currency: "zar"},
		m,
		logger,
	)

	return env
}

var (
	roomRowColumns = []string{
		"id", "name", "category", "capacity", "base_price_cents", "dynamic_price_cents",
		"is_available", "description", "created_at", "updated_at",
	}
	customerRowColumns = []string{
		"id", "first_name", "last_name", "email", "phone", "user_id", "created_at", "updated_at",
	}
	bookingRowColumns = []string{
		"id", "room_id", "customer_id", "check_in", "check_out", "nights", "total_price_cents",
		"status", "refundable", "payment_intent_id", "created_at", "updated_at",
	}
)

func roomRows(id, basePriceCents int64, inService bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(roomRowColumns).
		AddRow(id, "Ocean Suite", "suite", 2, basePriceCents, basePriceCents, inService, "", now, now)
}

func customerRows(id int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(customerRowColumns).
		AddRow(id, "Ada", "Lovelace", "ada@example.com", "+27821234567", nil, now, now)
}

// bookingRows returns booking 42 for room 7 and customer 3, Dec 10-13 2025, 4320.00
func bookingRows(status models.BookingStatus, refundable bool, paymentIntentID interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(bookingRowColumns).AddRow(
		42, 7, 3,
		time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 13, 0, 0, 0, 0, time.UTC),
		3, 432000, string(status), refundable, paymentIntentID, now, now,
	)
}

func newCustomerRequest() models.CustomerRequest {
	return models.CustomerRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "Ada@Example.com",
		Phone:     "082 123 4567",
	}
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}
