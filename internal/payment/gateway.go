package payment

import (
	"context"

	"github.com/raihanpk/tiketku/internal/models"
)

// Intent is the provider-side payment handle for an order. The buyer
// completes payment at URL; the provider later delivers exactly one
// terminal callback (settled or failed) for the order.
type Intent struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Gateway initiates a payment intent with the external provider. It is
// never called while the order manager holds a lock.
type Gateway interface {
	Initiate(ctx context.Context, order *models.Order) (Intent, error)
}
