package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raihanpk/tiketku/internal/clock"
	"github.com/raihanpk/tiketku/internal/ledger"
	"github.com/raihanpk/tiketku/internal/models"
	"github.com/raihanpk/tiketku/internal/refund"
)

// DefaultHoldDuration is how long an unpaid reservation keeps its
// inventory before the deadline releases it.
const DefaultHoldDuration = 15 * time.Minute

const maxNoteLength = 500

// Catalog supplies event and ticket-type data. Rows are owned by the
// external catalog service and read-only here.
type Catalog interface {
	TicketType(ctx context.Context, id uuid.UUID) (*models.TicketType, error)
	Event(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// PurchaseCounter answers how many units a buyer already owns for a
// ticket type, counting outstanding and paid orders.
type PurchaseCounter interface {
	OutstandingAndPaidQuantity(ctx context.Context, buyerID, ticketTypeID uuid.UUID) (int, error)
}

// Repository is the write-through persistence behind the manager's
// in-memory records.
type Repository interface {
	SaveOrder(ctx context.Context, order *models.Order) error
	UpdateOrder(ctx context.Context, order *models.Order) error
	SaveRefund(ctx context.Context, refund *models.Refund) error
	UpdateRefund(ctx context.Context, refund *models.Refund) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error)
}

// orderEntry pairs an order with its inventory hold. Every state read
// or transition happens under mu; that single authoritative check is
// what resolves the settle-versus-expire race. ID, BuyerID,
// TicketTypeID and Quantity never change after creation and may be read
// without the lock.
type orderEntry struct {
	mu    sync.Mutex
	order *models.Order
	hold  ledger.Hold
}

// refundEntry binds one refund record to the order that owns it. An
// order can accumulate several records over time (a rejection leaves
// its row behind and a later request gets a fresh one), so each refund
// ID resolves to its own record. The owner's mutex guards the record.
type refundEntry struct {
	owner  *orderEntry
	record *models.Refund
}

// Manager owns all order and refund records and is the only component
// that mutates them. Inventory is only ever touched through the
// ledger's three operations.
type Manager struct {
	ledger       *ledger.Ledger
	catalog      Catalog
	counter      PurchaseCounter
	repo         Repository
	clock        clock.Clock
	deadlines    *ReservationClock
	holdDuration time.Duration

	mu      sync.RWMutex
	entries map[uuid.UUID]*orderEntry
	refunds map[uuid.UUID]*refundEntry
}

type Option func(*Manager)

// WithHoldDuration overrides the default payment deadline window.
func WithHoldDuration(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.holdDuration = d
		}
	}
}

func NewManager(led *ledger.Ledger, catalog Catalog, counter PurchaseCounter, repo Repository, clk clock.Clock, opts ...Option) *Manager {
	m := &Manager{
		ledger:       led,
		catalog:      catalog,
		counter:      counter,
		repo:         repo,
		clock:        clk,
		deadlines:    newReservationClock(clk),
		holdDuration: DefaultHoldDuration,
		entries:      make(map[uuid.UUID]*orderEntry),
		refunds:      make(map[uuid.UUID]*refundEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) entry(orderID uuid.UUID) (*orderEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return e, nil
}

func (m *Manager) refundEntry(refundID uuid.UUID) (*refundEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	re, ok := m.refunds[refundID]
	if !ok {
		return nil, ErrRefundNotFound
	}
	return re, nil
}

func (m *Manager) armDeadline(orderID uuid.UUID, at time.Time) {
	m.deadlines.Arm(orderID, at, func() {
		if err := m.OnDeadlineExpired(context.Background(), orderID); err != nil {
			log.Printf("order %s: deadline expiry: %v", orderID, err)
		}
	})
}

// CreateOrder reserves inventory, snapshots the unit price and arms the
// payment deadline. The reservation is all-or-nothing: any failure
// after the hold was granted releases it again.
func (m *Manager) CreateOrder(ctx context.Context, buyerID, ticketTypeID uuid.UUID, quantity int) (models.Order, error) {
	ticketType, err := m.catalog.TicketType(ctx, ticketTypeID)
	if err != nil {
		return models.Order{}, err
	}
	if quantity < 1 || quantity > ticketType.LimitPerPerson {
		return models.Order{}, ErrInvalidQuantity
	}

	owned, err := m.counter.OutstandingAndPaidQuantity(ctx, buyerID, ticketTypeID)
	if err != nil {
		return models.Order{}, fmt.Errorf("purchase counter: %w", err)
	}
	if owned+quantity > ticketType.LimitPerPerson {
		return models.Order{}, ErrLimitExceeded
	}

	hold, err := m.ledger.Reserve(ticketTypeID, quantity)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientInventory) {
			return models.Order{}, ErrSoldOut
		}
		return models.Order{}, err
	}

	now := m.clock.Now()
	order := &models.Order{
		ID:              uuid.New(),
		BuyerID:         buyerID,
		TicketTypeID:    ticketTypeID,
		Quantity:        quantity,
		UnitPrice:       ticketType.UnitPrice,
		Total:           ticketType.UnitPrice * quantity,
		Status:          models.OrderPendingPayment,
		PaymentDeadline: now.Add(m.holdDuration),
	}
	order.CreatedAt = now

	e := &orderEntry{order: order, hold: hold}
	m.mu.Lock()
	m.entries[order.ID] = e
	m.mu.Unlock()

	if err := m.repo.SaveOrder(ctx, order); err != nil {
		m.mu.Lock()
		delete(m.entries, order.ID)
		m.mu.Unlock()
		if relErr := m.ledger.Release(hold); relErr != nil {
			log.Printf("order %s: release after failed save: %v", order.ID, relErr)
		}
		return models.Order{}, fmt.Errorf("persist order: %w", err)
	}

	m.armDeadline(order.ID, order.PaymentDeadline)
	return *order, nil
}

// OnPaymentSettled is the gateway's settlement callback. It commits the
// hold and marks the order PAID, unless the deadline has already
// passed; a late settlement is never committed, so the inventory
// invariant cannot be violated by a slow gateway.
func (m *Manager) OnPaymentSettled(ctx context.Context, orderID uuid.UUID) error {
	e, err := m.entry(orderID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.order.Status {
	case models.OrderPendingPayment:
		now := m.clock.Now()
		if now.After(e.order.PaymentDeadline) {
			// The money was captured late. Run the expiry transition and
			// leave reconciliation to the gateway's out-of-band process.
			log.Printf("order %s: settlement after deadline, cancelling", orderID)
			m.expireLocked(ctx, e)
			return ErrLateSettlement
		}
		if err := m.ledger.Commit(e.hold); err != nil {
			return fmt.Errorf("commit hold: %w", err)
		}
		e.order.Status = models.OrderPaid
		e.order.PaidAt = &now
		m.deadlines.Disarm(orderID)
		m.persistOrder(ctx, e.order)
		return nil
	case models.OrderCancelled:
		log.Printf("order %s: settlement for a cancelled order", orderID)
		return ErrLateSettlement
	case models.OrderPaid, models.OrderRefunding, models.OrderRefunded, models.OrderCompleted:
		return ErrInvalidOrderState
	}
	return ErrInvalidOrderState
}

// OnPaymentFailed is the gateway's terminal failure callback: the hold
// goes back to the pool immediately instead of waiting out the
// deadline. Racing the expiry timer is expected and harmless.
func (m *Manager) OnPaymentFailed(ctx context.Context, orderID uuid.UUID) error {
	e, err := m.entry(orderID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.order.Status != models.OrderPendingPayment {
		log.Printf("order %s: payment failure on %s order, ignoring", orderID, e.order.Status)
		return nil
	}
	m.expireLocked(ctx, e)
	return nil
}

// OnDeadlineExpired is invoked by the reservation clock. Losing the
// race against a concurrent settlement is expected, not an error.
func (m *Manager) OnDeadlineExpired(ctx context.Context, orderID uuid.UUID) error {
	e, err := m.entry(orderID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.order.Status != models.OrderPendingPayment {
		log.Printf("order %s: deadline fired on %s order, ignoring", orderID, e.order.Status)
		return nil
	}
	m.expireLocked(ctx, e)
	return nil
}

// CancelOrder is the buyer's explicit cancellation of an unpaid order.
func (m *Manager) CancelOrder(ctx context.Context, orderID, buyerID uuid.UUID) error {
	e, err := m.entry(orderID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.order.BuyerID != buyerID {
		return ErrNotOrderOwner
	}
	if e.order.Status != models.OrderPendingPayment {
		return ErrInvalidOrderState
	}
	m.expireLocked(ctx, e)
	return nil
}

// expireLocked releases the hold and cancels the order. Caller holds
// e.mu and has verified the order is PENDING_PAYMENT.
func (m *Manager) expireLocked(ctx context.Context, e *orderEntry) {
	if err := m.ledger.Release(e.hold); err != nil {
		log.Printf("order %s: release hold: %v", e.order.ID, err)
	}
	e.order.Status = models.OrderCancelled
	m.deadlines.Disarm(e.order.ID)
	m.persistOrder(ctx, e.order)
}

// RequestRefund validates the request against the refund policy and, if
// eligible, moves the order to REFUNDING with a PENDING_REVIEW record.
// Ineligible requests mutate nothing.
func (m *Manager) RequestRefund(ctx context.Context, orderID, buyerID uuid.UUID, reason models.RefundReason, note string) (models.Refund, error) {
	if !reason.Valid() {
		return models.Refund{}, ErrInvalidRefundReason
	}
	if len(note) > maxNoteLength {
		return models.Refund{}, ErrNoteTooLong
	}

	e, err := m.entry(orderID)
	if err != nil {
		return models.Refund{}, err
	}

	// Catalog lookups stay outside the order lock; the fields they need
	// are immutable after creation.
	ticketType, err := m.catalog.TicketType(ctx, e.order.TicketTypeID)
	if err != nil {
		return models.Refund{}, err
	}
	event, err := m.catalog.Event(ctx, ticketType.EventID)
	if err != nil {
		return models.Refund{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.order.BuyerID != buyerID {
		return models.Refund{}, ErrNotOrderOwner
	}

	now := m.clock.Now()
	assessment, err := refund.Evaluate(e.order, event.StartTime, now)
	if err != nil {
		return models.Refund{}, err
	}

	record := &models.Refund{
		ID:          uuid.New(),
		OrderID:     orderID,
		Reason:      reason,
		Note:        note,
		Fee:         assessment.Fee,
		Amount:      assessment.Amount,
		Status:      models.RefundPendingReview,
		RequestedAt: now,
	}
	record.CreatedAt = now

	// The request is all-or-nothing: if the record cannot be persisted
	// the order stays PAID and the caller sees the failure.
	if err := m.repo.SaveRefund(ctx, record); err != nil {
		return models.Refund{}, fmt.Errorf("persist refund: %w", err)
	}

	e.order.Status = models.OrderRefunding
	m.mu.Lock()
	m.refunds[record.ID] = &refundEntry{owner: e, record: record}
	m.mu.Unlock()

	m.persistOrder(ctx, e.order)
	return *record, nil
}

// ReviewRefund records the operator's decision. A rejection returns the
// order to PAID.
func (m *Manager) ReviewRefund(ctx context.Context, refundID uuid.UUID, approved bool) (models.Refund, error) {
	re, err := m.refundEntry(refundID)
	if err != nil {
		return models.Refund{}, err
	}

	e := re.owner
	e.mu.Lock()
	defer e.mu.Unlock()

	record := re.record
	if record.Status != models.RefundPendingReview {
		return models.Refund{}, ErrInvalidRefundState
	}
	if e.order.Status != models.OrderRefunding {
		return models.Refund{}, ErrInvalidOrderState
	}

	if approved {
		record.Status = models.RefundApproved
	} else {
		record.Status = models.RefundRejected
		e.order.Status = models.OrderPaid
		m.persistOrder(ctx, e.order)
	}
	if err := m.repo.UpdateRefund(ctx, record); err != nil {
		log.Printf("refund %s: persist: %v", record.ID, err)
	}
	return *record, nil
}

// SettleRefund is the external settlement confirmation: the refund
// completes and the order becomes REFUNDED. Sold units stay sold;
// refunds do not restock the pool.
func (m *Manager) SettleRefund(ctx context.Context, refundID uuid.UUID) (models.Refund, error) {
	re, err := m.refundEntry(refundID)
	if err != nil {
		return models.Refund{}, err
	}

	e := re.owner
	e.mu.Lock()
	defer e.mu.Unlock()

	record := re.record
	switch record.Status {
	case models.RefundPendingReview, models.RefundApproved:
		if e.order.Status != models.OrderRefunding {
			return models.Refund{}, ErrInvalidOrderState
		}
		record.Status = models.RefundCompleted
		e.order.Status = models.OrderRefunded
		m.persistOrder(ctx, e.order)
		if err := m.repo.UpdateRefund(ctx, record); err != nil {
			log.Printf("refund %s: persist: %v", record.ID, err)
		}
		return *record, nil
	case models.RefundRejected, models.RefundCompleted:
		return models.Refund{}, ErrInvalidRefundState
	}
	return models.Refund{}, ErrInvalidRefundState
}

// CompleteOrder is the post-event external trigger.
func (m *Manager) CompleteOrder(ctx context.Context, orderID uuid.UUID) error {
	e, err := m.entry(orderID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.order.Status != models.OrderPaid {
		return ErrInvalidOrderState
	}
	e.order.Status = models.OrderCompleted
	m.persistOrder(ctx, e.order)
	return nil
}

// MarkTicketUsed burns the entry ticket of a paid order once.
func (m *Manager) MarkTicketUsed(ctx context.Context, orderID uuid.UUID) error {
	e, err := m.entry(orderID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.order.Status {
	case models.OrderPaid, models.OrderCompleted:
	default:
		return ErrInvalidOrderState
	}
	if e.order.TicketUsed {
		return ErrTicketUsed
	}
	e.order.TicketUsed = true
	m.persistOrder(ctx, e.order)
	return nil
}

func (m *Manager) GetOrder(orderID uuid.UUID) (models.Order, error) {
	e, err := m.entry(orderID)
	if err != nil {
		return models.Order{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.order, nil
}

func (m *Manager) GetRefund(refundID uuid.UUID) (models.Refund, error) {
	re, err := m.refundEntry(refundID)
	if err != nil {
		return models.Refund{}, err
	}

	re.owner.mu.Lock()
	defer re.owner.mu.Unlock()
	return *re.record, nil
}

func (m *Manager) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	return m.repo.ListByBuyer(ctx, buyerID)
}

// Restore rebuilds in-memory state from persisted rows after a restart.
// Pending orders re-reserve their hold (an exhausted pool cancels the
// order) and re-arm their deadline; deadlines already in the past fire
// immediately.
func (m *Manager) Restore(ctx context.Context, persisted []models.Order, refunds []models.Refund) error {
	for i := range persisted {
		order := persisted[i]
		e := &orderEntry{order: &order}

		if order.Status == models.OrderPendingPayment {
			hold, err := m.ledger.Reserve(order.TicketTypeID, order.Quantity)
			if err != nil {
				log.Printf("order %s: cannot restore hold (%v), cancelling", order.ID, err)
				order.Status = models.OrderCancelled
				m.persistOrder(ctx, &order)
			} else {
				e.hold = hold
			}
		}

		m.mu.Lock()
		m.entries[order.ID] = e
		m.mu.Unlock()

		if order.Status == models.OrderPendingPayment {
			m.armDeadline(order.ID, order.PaymentDeadline)
		}
	}

	// Every persisted refund keeps its own identity; rejected records
	// from earlier requests stay readable next to the order's current
	// one.
	for i := range refunds {
		record := refunds[i]
		m.mu.RLock()
		e, ok := m.entries[record.OrderID]
		m.mu.RUnlock()
		if !ok {
			log.Printf("refund %s: no order %s, skipping", record.ID, record.OrderID)
			continue
		}
		m.mu.Lock()
		m.refunds[record.ID] = &refundEntry{owner: e, record: &record}
		m.mu.Unlock()
	}
	return nil
}

// persistOrder is write-through: the in-memory record is authoritative,
// a failed write is logged and retried by the next transition.
func (m *Manager) persistOrder(ctx context.Context, order *models.Order) {
	if err := m.repo.UpdateOrder(ctx, order); err != nil {
		log.Printf("order %s: persist: %v", order.ID, err)
	}
}
