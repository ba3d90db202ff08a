package services

import (
	"context"
	"errors"
	"time"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/models"
	"github.com/farellandr/hydrovibe/internal/payments"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PaymentStatusResult struct {
	Completed bool   `json:"completed"`
	Ticket    string `json:"ticket,omitempty"`
}

type PaymentService struct {
	db       *gorm.DB
	gateway  payments.Gateway
	renderer *TicketRenderer
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewPaymentService(db *gorm.DB, gateway payments.Gateway, renderer *TicketRenderer, timeout time.Duration, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		db:       db,
		gateway:  gateway,
		renderer: renderer,
		logger:   logger,
		timeout:  timeout,
		now:      time.Now,
	}
}

// HandleCallback reconciles a provider notification with its booking. It is
// safe to replay: only the first captured delivery changes the booking.
// Unknown references are recorded and ignored. The provider is asked about the
// booking's own link, and its record must carry the booking reference and
// amount before the booking completes. The returned outcome is one of the
// models.Notification* values.
func (s *PaymentService) HandleCallback(ctx context.Context, providerPaymentID, reference string) (string, error) {
	logger := s.logger.With(
		zap.String("reference", reference),
		zap.String("provider_payment_id", providerPaymentID),
	)

	var booking models.Booking
	err := s.db.WithContext(ctx).Where("payment_reference = ?", reference).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("payment callback for unknown reference")
		return s.record(ctx, providerPaymentID, reference, models.NotificationUnknownReference)
	}
	if err != nil {
		return "", err
	}

	if booking.PaymentCompleted {
		logger.Info("payment callback for completed booking ignored")
		return s.record(ctx, providerPaymentID, reference, models.NotificationAlreadyCompleted)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	status, err := s.gateway.FetchStatus(fetchCtx, payments.Lookup{
		PaymentID: providerPaymentID,
		LinkID:    booking.PaymentLinkID,
	})
	cancel()
	if err != nil {
		logger.Error("payment status fetch failed", zap.Error(err))
		s.record(ctx, providerPaymentID, reference, models.NotificationFetchFailed)
		return models.NotificationFetchFailed, helpers.WrapError(helpers.KindPaymentProvider, "Unable to confirm payment with the provider.", err)
	}

	if !status.Captured {
		logger.Info("payment not captured yet")
		return s.record(ctx, providerPaymentID, reference, models.NotificationNotCaptured)
	}
	if status.Reference != booking.PaymentReference || status.LinkID != booking.PaymentLinkID {
		logger.Warn("captured payment does not belong to this booking",
			zap.String("payment_reference", status.Reference),
			zap.String("payment_link_id", status.LinkID),
		)
		return s.record(ctx, providerPaymentID, reference, models.NotificationMismatch)
	}
	if status.Amount != booking.PaymentAmount {
		logger.Warn("captured amount does not match booking",
			zap.Int64("captured_amount", status.Amount),
			zap.Int64("booking_amount", booking.PaymentAmount),
		)
		return s.record(ctx, providerPaymentID, reference, models.NotificationAmountMismatch)
	}

	capturedAt := status.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = s.now().UTC()
	}
	vendorPaymentID := status.PaymentID
	if vendorPaymentID == "" {
		vendorPaymentID = providerPaymentID
	}

	completed := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND payment_completed = ?", booking.ID, false).
		Updates(map[string]interface{}{
			"payment_completed":    true,
			"payment_completed_at": capturedAt,
			"vendor_payment_id":    vendorPaymentID,
		})
	if completed.Error != nil {
		return "", completed.Error
	}
	if completed.RowsAffected == 0 {
		return s.record(ctx, providerPaymentID, reference, models.NotificationAlreadyCompleted)
	}

	logger.Info("booking payment completed", zap.String("booking_id", booking.ID.String()))
	return s.record(ctx, providerPaymentID, reference, models.NotificationCompleted)
}

func (s *PaymentService) record(ctx context.Context, providerPaymentID, reference, outcome string) (string, error) {
	notification := models.PaymentNotification{
		Provider:          s.gateway.Name(),
		Reference:         reference,
		ProviderPaymentID: providerPaymentID,
		Outcome:           outcome,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		s.logger.Error("record payment notification", zap.String("reference", reference), zap.Error(err))
	}
	return outcome, nil
}

// VerifyCallback checks provider signed redirect parameters when the gateway
// supports it.
func (s *PaymentService) VerifyCallback(params map[string]string) error {
	verifier, ok := s.gateway.(payments.CallbackVerifier)
	if !ok {
		return nil
	}
	return verifier.VerifyCallback(params)
}

// CheckStatus reports the stored completion state of a booking. It never
// calls the provider or writes.
func (s *PaymentService) CheckStatus(ctx context.Context, reference string) (*PaymentStatusResult, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("TicketType").
		Where("payment_reference = ?", reference).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helpers.NewError(helpers.KindNotFound, "Booking not found.")
		}
		return nil, err
	}

	result := &PaymentStatusResult{Completed: booking.PaymentCompleted}
	if booking.PaymentCompleted {
		ticket, err := s.renderer.Render(&booking)
		if err != nil {
			return nil, err
		}
		result.Ticket = ticket
	}
	return result, nil
}
