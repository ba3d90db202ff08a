package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Mobile     string    `gorm:"size:10;uniqueIndex;not null" json:"mobile"`
	Password   string    `gorm:"not null" json:"-"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	IsStaff    bool      `gorm:"not null" json:"is_staff"`
	DateJoined time.Time `gorm:"not null" json:"date_joined"`
	UpdatedAt  time.Time `json:"-"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return
}
