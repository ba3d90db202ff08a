package models

import (
	"time"

	"github.com/google/uuid"
)

type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:64"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}
