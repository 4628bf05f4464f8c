package storage

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raihanpk/tiketku/internal/models"
)

// OrderRepository is the write-through store behind the order manager.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) SaveOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) UpdateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *OrderRepository) SaveRefund(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *OrderRepository) UpdateRefund(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Save(refund).Error
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// AllOrders feeds the manager's restart recovery.
func (r *OrderRepository) AllOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&out).Error
	return out, err
}

// AllRefunds feeds the manager's restart recovery.
func (r *OrderRepository) AllRefunds(ctx context.Context) ([]models.Refund, error) {
	var out []models.Refund
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&out).Error
	return out, err
}

// SoldQuantity is the number of units permanently deducted for a ticket
// type, used to rebuild ledger pools at startup. Refunded orders stay
// counted: refunds do not restock.
func (r *OrderRepository) SoldQuantity(ctx context.Context, ticketTypeID uuid.UUID) (int, error) {
	soldStatuses := []models.OrderStatus{
		models.OrderPaid,
		models.OrderRefunding,
		models.OrderRefunded,
		models.OrderCompleted,
	}

	var sold int
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("ticket_type_id = ? AND status IN ?", ticketTypeID, soldStatuses).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sold).Error
	return sold, err
}
