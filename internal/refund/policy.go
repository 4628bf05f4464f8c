package refund

import (
	"errors"
	"time"

	"github.com/raihanpk/tiketku/internal/models"
)

var (
	ErrOrderNotRefundable = errors.New("order is not in a refundable state")
	ErrTooCloseToEvent    = errors.New("too close to event start")
)

// MinNotice is how far ahead of the event a refund may still be
// requested.
const MinNotice = 48 * time.Hour

// feePercent is the flat handling fee withheld from every refund.
const feePercent = 10

// Assessment is the outcome of an eligible refund evaluation. Fee and
// Amount are in minor currency units and always sum to the order total.
type Assessment struct {
	Fee    int
	Amount int
}

// Evaluate applies the refund policy to an order. It is pure: no state
// is read beyond the arguments and none is written. Only PAID orders
// qualify, and only while the event is at least MinNotice away.
func Evaluate(order *models.Order, eventStart, now time.Time) (Assessment, error) {
	if order.Status != models.OrderPaid {
		return Assessment{}, ErrOrderNotRefundable
	}
	if eventStart.Sub(now) < MinNotice {
		return Assessment{}, ErrTooCloseToEvent
	}

	fee := Fee(order.Total)
	return Assessment{Fee: fee, Amount: order.Total - fee}, nil
}

// Fee computes the handling fee in integer minor units, rounding half
// up. Floating point never touches money.
func Fee(total int) int {
	return (total*feePercent + 50) / 100
}
