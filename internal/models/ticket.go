package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketType is a fungible pool of identically priced inventory units.
// UnitPrice is in minor currency units, never a float. Quantity
// counters live in the ledger, not on this row.
type TicketType struct {
	gorm.Model
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	Name           string    `gorm:"not null"`
	UnitPrice      int       `gorm:"not null"`
	TotalQuantity  int       `gorm:"not null"`
	LimitPerPerson int       `gorm:"not null"`
	EventID        uuid.UUID
	Event          Event
}

func (ticketType *TicketType) BeforeCreate(tx *gorm.DB) (err error) {
	if ticketType.ID == uuid.Nil {
		ticketType.ID = uuid.New()
	}
	return
}
