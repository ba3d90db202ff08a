package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AttendingAfternoon = "4PM-8PM"
	AttendingEvening   = "8PM-12PM"
)

// Booking is created only after the payment link exists and inventory has
// been reserved. PaymentCompleted only ever goes from false to true.
type Booking struct {
	ID                  uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	UserID              uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	User                *User       `gorm:"foreignKey:UserID" json:"-"`
	EventID             uuid.UUID   `gorm:"type:uuid;not null;index" json:"event_id"`
	Event               *Event      `gorm:"foreignKey:EventID" json:"event,omitempty"`
	TicketTypeID        uuid.UUID   `gorm:"type:uuid;not null" json:"ticket_type_id"`
	TicketType          *TicketType `gorm:"foreignKey:TicketTypeID" json:"ticket_type,omitempty"`
	Quantity            int         `gorm:"not null" json:"quantity"`
	AttendingTime       string      `gorm:"size:10;not null" json:"attending_time"`
	CabFacilityRequired bool        `gorm:"not null" json:"cab_facility_required"`
	Location            string      `gorm:"size:255;not null" json:"location"`
	Address             *string     `json:"address"`
	PaymentReference    string      `gorm:"size:64;uniqueIndex;not null" json:"payment_reference"`
	PaymentLinkID       string      `gorm:"size:100;index" json:"-"`
	VendorPaymentID     *string     `gorm:"size:100" json:"vendor_payment_id"`
	PaymentAmount       int64       `gorm:"not null" json:"payment_amount"`
	PaymentLink         string      `gorm:"not null" json:"payment_link"`
	PaymentCompleted    bool        `gorm:"not null;index" json:"payment_completed"`
	PaymentCompletedAt  *time.Time  `json:"payment_completed_at"`
	CreatedAt           time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time   `json:"-"`
}

func (booking *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return
}
