package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/models"
	"github.com/farellandr/hydrovibe/internal/payments"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingInput struct {
	Name                string `json:"name" binding:"required,max=100"`
	Age                 string `json:"age" binding:"required,oneof=18-24 25-40 41-55 55+"`
	Mobile              string `json:"mobile" binding:"required,mobile"`
	Email               string `json:"email" binding:"omitempty,email,max=254"`
	Gender              string `json:"gender" binding:"required,oneof=Male Female 'Rather Not To Say'"`
	EventID             string `json:"event_id" binding:"required,uuid"`
	TicketTypeID        string `json:"ticket_type_id" binding:"required,uuid"`
	Quantity            int    `json:"quantity" binding:"required,min=1"`
	AttendingTime       string `json:"attending_time" binding:"required,oneof=4PM-8PM 8PM-12PM"`
	CabFacilityRequired bool   `json:"cab_facility_required"`
	Location            string `json:"location" binding:"omitempty,max=255"`
	Address             string `json:"address" binding:"omitempty,max=1000"`
}

type BookingResult struct {
	BookingID   uuid.UUID `json:"booking_id"`
	Reference   string    `json:"reference"`
	PaymentLink string    `json:"payment_link"`
	Amount      int64     `json:"amount"`
}

type BookingView struct {
	models.Booking
	Ticket string `json:"ticket,omitempty"`
}

type BookingConfig struct {
	Currency    string
	CallbackURL string
	Timeout     time.Duration
}

type BookingService struct {
	db       *gorm.DB
	gateway  payments.Gateway
	renderer *TicketRenderer
	validate *validator.Validate
	logger   *zap.Logger
	cfg      BookingConfig
	now      func() time.Time
}

func NewBookingService(db *gorm.DB, gateway payments.Gateway, renderer *TicketRenderer, cfg BookingConfig, logger *zap.Logger) *BookingService {
	return &BookingService{
		db:       db,
		gateway:  gateway,
		renderer: renderer,
		validate: helpers.NewValidator(),
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

func insufficientInventory(available int) *helpers.AppError {
	return helpers.NewError(helpers.KindInsufficientInventory, fmt.Sprintf("Only %d tickets are available.", available))
}

// CreateBooking binds the caller's profile, opens a payment link and then
// reserves inventory and records the booking in one transaction. Nothing is
// persisted for the booking when the payment provider fails.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, input BookingInput) (*BookingResult, error) {
	if err := helpers.ValidateStruct(s.validate, input); err != nil {
		return nil, err
	}
	mobile, _ := helpers.NormalizeMobile(input.Mobile)
	eventID := uuid.MustParse(input.EventID)
	ticketTypeID := uuid.MustParse(input.TicketTypeID)

	profile, err := s.ensureProfile(ctx, userID, mobile, input)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}

	var ticketType models.TicketType
	err = s.db.WithContext(ctx).
		Preload("Event").
		Where("id = ? AND event_id = ?", ticketTypeID, eventID).
		First(&ticketType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helpers.NewError(helpers.KindNotFound, "Ticket type not found for this event.")
		}
		return nil, err
	}
	if input.Quantity > ticketType.Available {
		return nil, insufficientInventory(ticketType.Available)
	}

	amount := ticketType.Price * int64(input.Quantity)
	reference := uuid.NewString()

	linkReq := payments.LinkRequest{
		Reference:   reference,
		Amount:      amount,
		Currency:    s.cfg.Currency,
		Name:        profile.Name,
		Mobile:      helpers.InternationalMobile(mobile),
		CallbackURL: s.cfg.CallbackURL,
	}
	if profile.Email != nil {
		linkReq.Email = *profile.Email
	}
	if ticketType.Event != nil {
		linkReq.Description = fmt.Sprintf("%s - %s x%d", ticketType.Event.Name, ticketType.Name, input.Quantity)
	}

	linkCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	link, err := s.gateway.CreateLink(linkCtx, linkReq)
	cancel()
	if err != nil {
		return nil, helpers.WrapError(helpers.KindPaymentProvider, "Unable to create payment link. Please try again later.", err)
	}

	booking := models.Booking{
		UserID:              userID,
		EventID:             eventID,
		TicketTypeID:        ticketTypeID,
		Quantity:            input.Quantity,
		AttendingTime:       input.AttendingTime,
		CabFacilityRequired: input.CabFacilityRequired,
		Location:            input.Location,
		PaymentReference:    reference,
		PaymentLinkID:       link.ID,
		PaymentAmount:       amount,
		PaymentLink:         link.URL,
		CreatedAt:           s.now().UTC(),
	}
	if input.Address != "" {
		address := input.Address
		booking.Address = &address
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reserved := tx.Model(&models.TicketType{}).
			Where("id = ? AND available >= ?", ticketTypeID, input.Quantity).
			Update("available", gorm.Expr("available - ?", input.Quantity))
		if reserved.Error != nil {
			return reserved.Error
		}
		if reserved.RowsAffected == 0 {
			var current models.TicketType
			if err := tx.Select("available").Where("id = ?", ticketTypeID).First(&current).Error; err != nil {
				return err
			}
			return insufficientInventory(current.Available)
		}
		return tx.Create(&booking).Error
	})
	if err != nil {
		s.logger.Warn("booking not recorded, payment link left unused",
			zap.String("reference", reference),
			zap.String("payment_link_id", link.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", reference),
		zap.Int64("amount", amount),
		zap.Int("quantity", input.Quantity),
	)

	return &BookingResult{
		BookingID:   booking.ID,
		Reference:   reference,
		PaymentLink: link.URL,
		Amount:      amount,
	}, nil
}

// ensureProfile creates the profile on first booking. Later bookings keep the
// stored values.
func (s *BookingService) ensureProfile(ctx context.Context, userID uuid.UUID, mobile string, input BookingInput) (*models.Profile, error) {
	profile := models.Profile{
		UserID:    userID,
		Name:      input.Name,
		Age:       input.Age,
		Mobile:    mobile,
		Gender:    input.Gender,
		CreatedAt: s.now().UTC(),
	}
	if input.Email != "" {
		email := input.Email
		profile.Email = &email
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&profile)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 1 {
		return &profile, nil
	}

	var existing models.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// ListBookings returns the user's bookings newest first with the ticket of
// every paid one.
func (s *BookingService) ListBookings(ctx context.Context, userID uuid.UUID, page, limit int) ([]BookingView, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Booking{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Event").
		Preload("TicketType").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}

	views := make([]BookingView, 0, len(bookings))
	for i := range bookings {
		view := BookingView{Booking: bookings[i]}
		if bookings[i].PaymentCompleted {
			ticket, err := s.renderer.Render(&bookings[i])
			if err != nil {
				return nil, 0, err
			}
			view.Ticket = ticket
		}
		views = append(views, view)
	}
	return views, total, nil
}

func (s *BookingService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helpers.NewError(helpers.KindNotFound, "Profile not found.")
		}
		return nil, err
	}
	return &profile, nil
}

// TicketImage returns the QR PNG of one of the user's paid bookings.
func (s *BookingService) TicketImage(ctx context.Context, userID uuid.UUID, reference string) ([]byte, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("TicketType").
		Where("payment_reference = ? AND user_id = ?", reference, userID).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helpers.NewError(helpers.KindNotFound, "Booking not found.")
		}
		return nil, err
	}
	if !booking.PaymentCompleted {
		return nil, helpers.NewError(helpers.KindValidation, "Payment for this booking is not completed.")
	}
	return s.renderer.PNG(&booking)
}
