package storage

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raihanpk/tiketku/internal/models"
)

// PurchaseCounter answers how many units a buyer already owns for a
// ticket type. Cancelled and refunded orders no longer count against
// the per-person limit.
type PurchaseCounter struct {
	db *gorm.DB
}

func NewPurchaseCounter(db *gorm.DB) *PurchaseCounter {
	return &PurchaseCounter{db: db}
}

func (c *PurchaseCounter) OutstandingAndPaidQuantity(ctx context.Context, buyerID, ticketTypeID uuid.UUID) (int, error) {
	countedStatuses := []models.OrderStatus{
		models.OrderPendingPayment,
		models.OrderPaid,
		models.OrderRefunding,
		models.OrderCompleted,
	}

	var owned int
	err := c.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("buyer_id = ? AND ticket_type_id = ? AND status IN ?", buyerID, ticketTypeID, countedStatuses).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&owned).Error
	return owned, err
}
