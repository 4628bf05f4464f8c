package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event rows are owned by the external catalog service; this service
// only reads them (start time drives refund eligibility).
type Event struct {
	gorm.Model
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	Venue       string    `gorm:"not null"`
	StartTime   time.Time `gorm:"not null"`
	EndTime     time.Time `gorm:"not null"`
	TicketTypes []TicketType
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
