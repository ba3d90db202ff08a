package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OTP struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	User      *User     `gorm:"foreignKey:UserID"`
	Code      string    `gorm:"size:6;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	Active    bool      `gorm:"not null;index"`
}

func (OTP) TableName() string {
	return "otps"
}

func (otp *OTP) BeforeCreate(tx *gorm.DB) (err error) {
	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}
	return
}

// IsExpired reports whether the code is no longer usable at t.
func (otp *OTP) IsExpired(t time.Time) bool {
	return !t.Before(otp.ExpiresAt)
}
