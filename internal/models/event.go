package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID          uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	Name        string       `gorm:"size:100;not null" json:"name"`
	EventDate   time.Time    `gorm:"type:date;not null;index" json:"event_date"`
	StartTime   string       `gorm:"size:5;not null" json:"start_time"`
	EndTime     string       `gorm:"size:5;not null" json:"end_time"`
	Active      bool         `gorm:"not null;index" json:"active"`
	TicketTypes []TicketType `gorm:"foreignKey:EventID" json:"ticket_types,omitempty"`
	CreatedAt   time.Time    `json:"-"`
	UpdatedAt   time.Time    `json:"-"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
