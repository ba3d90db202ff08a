package services

import (
	"context"
	"errors"
	"time"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/models"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

type EventService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

// LatestEvent returns the earliest active event dated today or later, with
// its ticket types.
func (s *EventService) LatestEvent(ctx context.Context) (*models.Event, error) {
	today := now.With(s.now().UTC()).BeginningOfDay()

	var event models.Event
	err := s.db.WithContext(ctx).
		Preload("TicketTypes", func(db *gorm.DB) *gorm.DB {
			return db.Order("price asc")
		}).
		Where("active = ? AND event_date >= ?", true, today).
		Order("event_date asc").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helpers.NewError(helpers.KindNotFound, "No active event available")
		}
		return nil, err
	}

	soldOut := true
	for _, ticketType := range event.TicketTypes {
		if ticketType.Available > 0 {
			soldOut = false
			break
		}
	}
	if soldOut {
		return nil, helpers.NewError(helpers.KindNotFound, "No tickets available for this event")
	}

	return &event, nil
}
