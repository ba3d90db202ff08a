package services

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services bundles everything handlers reach through the request context.
type Services struct {
	DB       *gorm.DB
	Logger   *zap.Logger
	OTP      *OTPService
	Tokens   *TokenService
	Bookings *BookingService
	Payments *PaymentService
	Events   *EventService
	Tickets  *TicketRenderer

	// PaymentRedirectURL is where the payer's browser lands after a callback.
	PaymentRedirectURL string
}
