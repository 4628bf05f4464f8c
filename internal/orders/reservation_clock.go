package orders

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raihanpk/tiketku/internal/clock"
)

// ReservationClock tracks one cancellable deadline timer per order.
// Disarm wins instantly when an order leaves PENDING_PAYMENT; a timer
// callback that already fired finds a non-pending order and backs off.
type ReservationClock struct {
	clk    clock.Clock
	mu     sync.Mutex
	timers map[uuid.UUID]clock.Timer
}

func newReservationClock(clk clock.Clock) *ReservationClock {
	return &ReservationClock{
		clk:    clk,
		timers: make(map[uuid.UUID]clock.Timer),
	}
}

// Arm schedules fn at the given instant. A deadline already in the past
// fires immediately. The timer forgets itself before running fn, so fn
// may re-enter the clock.
func (rc *ReservationClock) Arm(orderID uuid.UUID, at time.Time, fn func()) {
	d := at.Sub(rc.clk.Now())
	if d < 0 {
		d = 0
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if old, ok := rc.timers[orderID]; ok {
		old.Stop()
	}
	rc.timers[orderID] = rc.clk.AfterFunc(d, func() {
		rc.forget(orderID)
		fn()
	})
}

// Disarm cancels the order's timer, if still pending.
func (rc *ReservationClock) Disarm(orderID uuid.UUID) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if t, ok := rc.timers[orderID]; ok {
		t.Stop()
		delete(rc.timers, orderID)
	}
}

func (rc *ReservationClock) forget(orderID uuid.UUID) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.timers, orderID)
}
