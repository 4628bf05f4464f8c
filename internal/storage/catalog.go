package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raihanpk/tiketku/internal/models"
	"github.com/raihanpk/tiketku/internal/orders"
)

// Catalog reads event and ticket-type rows owned by the external
// catalog service. Database errors are mapped to the order manager's
// sentinel errors at this boundary.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) TicketType(ctx context.Context, id uuid.UUID) (*models.TicketType, error) {
	var ticketType models.TicketType
	if err := c.db.WithContext(ctx).First(&ticketType, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orders.ErrTicketTypeNotFound
		}
		return nil, err
	}
	return &ticketType, nil
}

func (c *Catalog) Event(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := c.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orders.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}
