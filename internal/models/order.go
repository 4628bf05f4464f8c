package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderPaid           OrderStatus = "PAID"
	OrderCancelled      OrderStatus = "CANCELLED"
	OrderRefunding      OrderStatus = "REFUNDING"
	OrderRefunded       OrderStatus = "REFUNDED"
	OrderCompleted      OrderStatus = "COMPLETED"
)

// Terminal reports whether no further transition may leave the status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderCancelled, OrderRefunded, OrderCompleted:
		return true
	case OrderPendingPayment, OrderPaid, OrderRefunding:
		return false
	}
	return false
}

// Order is owned exclusively by the order manager. UnitPrice is the
// snapshot taken at reservation time so the price cannot drift under
// the buyer; Total is always UnitPrice * Quantity.
type Order struct {
	gorm.Model
	ID              uuid.UUID   `gorm:"type:uuid;primary_key"`
	BuyerID         uuid.UUID   `gorm:"type:uuid;not null;index"`
	TicketTypeID    uuid.UUID   `gorm:"type:uuid;not null;index"`
	TicketType      TicketType
	Quantity        int         `gorm:"not null"`
	UnitPrice       int         `gorm:"not null"`
	Total           int         `gorm:"not null"`
	Status          OrderStatus `gorm:"type:varchar(20);not null"`
	PaymentDeadline time.Time   `gorm:"not null"`
	PaidAt          *time.Time
	TicketUsed      bool `gorm:"not null;default:false"`
}

func (order *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return
}
