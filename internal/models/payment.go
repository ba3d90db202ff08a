package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationCompleted        = "completed"
	NotificationAlreadyCompleted = "already_completed"
	NotificationNotCaptured      = "not_captured"
	NotificationUnknownReference = "unknown_reference"
	NotificationMismatch         = "reference_mismatch"
	NotificationAmountMismatch   = "amount_mismatch"
	NotificationFetchFailed      = "fetch_failed"
)

// PaymentNotification records one provider callback delivery and what it did.
type PaymentNotification struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	Provider          string    `gorm:"size:20;not null"`
	Reference         string    `gorm:"size:64;index"`
	ProviderPaymentID string    `gorm:"size:100"`
	Outcome           string    `gorm:"size:30;not null"`
	CreatedAt         time.Time
}

func (notification *PaymentNotification) BeforeCreate(tx *gorm.DB) (err error) {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	return
}
