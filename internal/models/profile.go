package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	Age18To24 = "18-24"
	Age25To40 = "25-40"
	Age41To55 = "41-55"
	Age55Plus = "55+"

	GenderMale      = "Male"
	GenderFemale    = "Female"
	GenderRatherNot = "Rather Not To Say"
)

type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Age       string    `gorm:"size:5;not null" json:"age"`
	Mobile    string    `gorm:"size:10;not null" json:"mobile"`
	Email     *string   `gorm:"size:254" json:"email"`
	Gender    string    `gorm:"size:20;not null" json:"gender"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (profile *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	return
}
