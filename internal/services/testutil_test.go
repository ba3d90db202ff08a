package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/farellandr/hydrovibe/internal/models"
	"github.com/farellandr/hydrovibe/internal/payments"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testCallbackURL = "https://api.example.com/event-registration/callback-for-razorpay"

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

type fakeSMS struct {
	mu       sync.Mutex
	messages []sentSMS
	err      error
}

type sentSMS struct {
	To   string
	Body string
}

func (f *fakeSMS) Send(ctx context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentSMS{To: to, Body: body})
	return f.err
}

func (f *fakeSMS) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.messages)
	body := f.messages[len(f.messages)-1].Body
	return body[strings.LastIndex(body, " ")+1:]
}

type fakeGateway struct {
	mu         sync.Mutex
	createErr  error
	fetchErr   error
	statuses   map[string]*payments.Status
	requests   []payments.LinkRequest
	fetchCalls int
	beforeLink func()
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: map[string]*payments.Status{}}
}

func (f *fakeGateway) Name() string {
	return "fake"
}

func (f *fakeGateway) CreateLink(ctx context.Context, req payments.LinkRequest) (*payments.Link, error) {
	if f.beforeLink != nil {
		f.beforeLink()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.requests = append(f.requests, req)
	id := fmt.Sprintf("plink_%d", len(f.requests))
	return &payments.Link{ID: id, URL: "https://pay.example.com/" + id}, nil
}

func (f *fakeGateway) FetchStatus(ctx context.Context, lookup payments.Lookup) (*payments.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	key := lookup.PaymentID
	if key == "" {
		key = lookup.LinkID
	}
	status, ok := f.statuses[key]
	if !ok {
		return nil, errors.New("payment not found")
	}
	copied := *status
	return &copied, nil
}

// capture registers a captured payment with only the given reference. It is
// not tied to any link or amount.
func (f *fakeGateway) capture(paymentID, reference string, at time.Time) {
	f.set(paymentID, &payments.Status{PaymentID: paymentID, Captured: true, CapturedAt: at, Reference: reference})
}

func (f *fakeGateway) set(paymentID string, status *payments.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[paymentID] = status
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

type testEnv struct {
	db       *gorm.DB
	sms      *fakeSMS
	gateway  *fakeGateway
	tokens   *TokenService
	renderer *TicketRenderer
	otp      *OTPService
	bookings *BookingService
	payments *PaymentService
	events   *EventService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	logger := zap.NewNop()
	sms := &fakeSMS{}
	gateway := newFakeGateway()
	tokens := NewTokenService("test-secret", time.Hour, 7*24*time.Hour, NewGormRevocationStore(db))
	renderer := NewTicketRenderer("ticket-key")

	clock := func() time.Time { return testNow }

	otp := NewOTPService(db, sms, tokens, renderer, 10*time.Minute, logger)
	otp.now = clock
	bookings := NewBookingService(db, gateway, renderer, BookingConfig{
		Currency:    "INR",
		CallbackURL: testCallbackURL,
		Timeout:     time.Second,
	}, logger)
	bookings.now = clock
	paymentSvc := NewPaymentService(db, gateway, renderer, time.Second, logger)
	paymentSvc.now = clock
	events := NewEventService(db)
	events.now = clock

	return &testEnv{
		db:       db,
		sms:      sms,
		gateway:  gateway,
		tokens:   tokens,
		renderer: renderer,
		otp:      otp,
		bookings: bookings,
		payments: paymentSvc,
		events:   events,
	}
}

func (e *testEnv) createUser(t *testing.T, mobile string) *models.User {
	t.Helper()
	user := &models.User{Mobile: mobile, Password: "!", IsActive: true, DateJoined: testNow}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createEvent(t *testing.T, price int64, available int) (*models.Event, *models.TicketType) {
	t.Helper()
	event := &models.Event{
		Name:      "Hydrovibe",
		EventDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		StartTime: "16:00",
		EndTime:   "23:59",
		Active:    true,
	}
	require.NoError(t, e.db.Create(event).Error)

	ticketType := &models.TicketType{
		EventID:   event.ID,
		Name:      "General",
		Price:     price,
		Total:     available,
		Available: available,
	}
	require.NoError(t, e.db.Create(ticketType).Error)
	return event, ticketType
}

func (e *testEnv) available(t *testing.T, ticketTypeID uuid.UUID) int {
	t.Helper()
	var ticketType models.TicketType
	require.NoError(t, e.db.First(&ticketType, "id = ?", ticketTypeID).Error)
	return ticketType.Available
}

func (e *testEnv) booking(t *testing.T, reference string) *models.Booking {
	t.Helper()
	var booking models.Booking
	require.NoError(t, e.db.First(&booking, "payment_reference = ?", reference).Error)
	return &booking
}

// capturePayment registers a captured payment as the provider would report
// it for the booking with reference: its link, reference and amount.
func (e *testEnv) capturePayment(t *testing.T, paymentID, reference string, at time.Time) {
	t.Helper()
	booking := e.booking(t, reference)
	e.gateway.set(paymentID, &payments.Status{
		PaymentID:  paymentID,
		LinkID:     booking.PaymentLinkID,
		Captured:   true,
		CapturedAt: at,
		Reference:  booking.PaymentReference,
		Amount:     booking.PaymentAmount,
	})
}

func bookingInput(event *models.Event, ticketType *models.TicketType, quantity int) BookingInput {
	return BookingInput{
		Name:          "Asha",
		Age:           models.Age25To40,
		Mobile:        "+919876543210",
		Email:         "asha@example.com",
		Gender:        models.GenderFemale,
		EventID:       event.ID.String(),
		TicketTypeID:  ticketType.ID.String(),
		Quantity:      quantity,
		AttendingTime: models.AttendingAfternoon,
		Location:      "Indiranagar",
	}
}
