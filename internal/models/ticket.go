package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketType is a priced category of admission. Available only moves through
// the guarded decrement in the booking service and never drops below zero.
type TicketType struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
	Event     *Event    `gorm:"foreignKey:EventID" json:"-"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	Price     int64     `gorm:"not null" json:"price"`
	Total     int       `gorm:"not null" json:"total"`
	Available int       `gorm:"not null;check:available >= 0" json:"available"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (ticketType *TicketType) BeforeCreate(tx *gorm.DB) (err error) {
	if ticketType.ID == uuid.Nil {
		ticketType.ID = uuid.New()
	}
	return
}
