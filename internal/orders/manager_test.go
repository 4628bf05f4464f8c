package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/raihanpk/tiketku/internal/clock"
	"github.com/raihanpk/tiketku/internal/ledger"
	"github.com/raihanpk/tiketku/internal/models"
	"github.com/raihanpk/tiketku/internal/refund"
)

type fakeCatalog struct {
	types  map[uuid.UUID]*models.TicketType
	events map[uuid.UUID]*models.Event
}

func (c *fakeCatalog) TicketType(_ context.Context, id uuid.UUID) (*models.TicketType, error) {
	tt, ok := c.types[id]
	if !ok {
		return nil, ErrTicketTypeNotFound
	}
	return tt, nil
}

func (c *fakeCatalog) Event(_ context.Context, id uuid.UUID) (*models.Event, error) {
	ev, ok := c.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return ev, nil
}

type fakeCounter struct {
	mu    sync.Mutex
	owned map[uuid.UUID]int
}

func (c *fakeCounter) OutstandingAndPaidQuantity(_ context.Context, buyerID, _ uuid.UUID) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owned[buyerID], nil
}

type memRepository struct {
	mu            sync.Mutex
	orders        map[uuid.UUID]models.Order
	refunds       map[uuid.UUID]models.Refund
	refundSaveErr error
}

func newMemRepository() *memRepository {
	return &memRepository{
		orders:  make(map[uuid.UUID]models.Order),
		refunds: make(map[uuid.UUID]models.Refund),
	}
}

func (r *memRepository) SaveOrder(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

func (r *memRepository) UpdateOrder(ctx context.Context, order *models.Order) error {
	return r.SaveOrder(ctx, order)
}

func (r *memRepository) SaveRefund(_ context.Context, record *models.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refundSaveErr != nil {
		return r.refundSaveErr
	}
	r.refunds[record.ID] = *record
	return nil
}

func (r *memRepository) UpdateRefund(ctx context.Context, record *models.Refund) error {
	return r.SaveRefund(ctx, record)
}

func (r *memRepository) ListByBuyer(_ context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Order
	for _, o := range r.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

type fixture struct {
	manager *Manager
	ledger  *ledger.Ledger
	clock   *clock.Manual
	repo    *memRepository
	counter *fakeCounter

	eventID      uuid.UUID
	ticketTypeID uuid.UUID
	buyerID      uuid.UUID
}

const (
	testUnitPrice = 144400
	testCapacity  = 10
	testLimit     = 4
)

var testStart = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ledger:       ledger.New(),
		clock:        clock.NewManual(testStart),
		repo:         newMemRepository(),
		counter:      &fakeCounter{owned: make(map[uuid.UUID]int)},
		eventID:      uuid.New(),
		ticketTypeID: uuid.New(),
		buyerID:      uuid.New(),
	}

	if err := f.ledger.Register(f.ticketTypeID, testCapacity, 0); err != nil {
		t.Fatalf("register pool: %v", err)
	}

	catalog := &fakeCatalog{
		types: map[uuid.UUID]*models.TicketType{
			f.ticketTypeID: {
				ID:             f.ticketTypeID,
				Name:           "Tribune A",
				UnitPrice:      testUnitPrice,
				TotalQuantity:  testCapacity,
				LimitPerPerson: testLimit,
				EventID:        f.eventID,
			},
		},
		events: map[uuid.UUID]*models.Event{
			f.eventID: {
				ID:        f.eventID,
				Title:     "Arena Show",
				StartTime: testStart.Add(30 * 24 * time.Hour),
			},
		},
	}

	f.manager = NewManager(f.ledger, catalog, f.counter, f.repo, f.clock)
	return f
}

func (f *fixture) snapshot(t *testing.T) ledger.Snapshot {
	t.Helper()
	snap, err := f.ledger.Snapshot(f.ticketTypeID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

func (f *fixture) createOrder(t *testing.T, quantity int) models.Order {
	t.Helper()
	order, err := f.manager.CreateOrder(context.Background(), f.buyerID, f.ticketTypeID, quantity)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func (f *fixture) payOrder(t *testing.T, orderID uuid.UUID) {
	t.Helper()
	if err := f.manager.OnPaymentSettled(context.Background(), orderID); err != nil {
		t.Fatalf("settle payment: %v", err)
	}
}

func TestCreateOrderSnapshotsPriceAndArmsDeadline(t *testing.T) {
	f := newFixture(t)

	order := f.createOrder(t, 2)
	if order.Status != models.OrderPendingPayment {
		t.Fatalf("status = %s", order.Status)
	}
	if order.UnitPrice != testUnitPrice || order.Total != 2*testUnitPrice {
		t.Fatalf("price snapshot: unit %d total %d", order.UnitPrice, order.Total)
	}
	if want := testStart.Add(DefaultHoldDuration); !order.PaymentDeadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", order.PaymentDeadline, want)
	}

	snap := f.snapshot(t)
	if snap.Available != testCapacity-2 || snap.Held != 2 {
		t.Fatalf("pool after create: %+v", snap)
	}
}

func TestCreateOrderQuantityBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, quantity := range []int{0, -1, testLimit + 1} {
		_, err := f.manager.CreateOrder(ctx, f.buyerID, f.ticketTypeID, quantity)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("quantity %d: expected ErrInvalidQuantity, got %v", quantity, err)
		}
	}
	snap := f.snapshot(t)
	if snap.Available != testCapacity {
		t.Fatalf("rejected orders touched the pool: %+v", snap)
	}
}

func TestCreateOrderHonorsCumulativeLimit(t *testing.T) {
	f := newFixture(t)
	f.counter.owned[f.buyerID] = testLimit - 1

	if _, err := f.manager.CreateOrder(context.Background(), f.buyerID, f.ticketTypeID, 2); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	f.createOrder(t, 1)
}

func TestCreateOrderSoldOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < testCapacity/2; i++ {
		buyer := uuid.New()
		if _, err := f.manager.CreateOrder(ctx, buyer, f.ticketTypeID, 2); err != nil {
			t.Fatalf("order %d: %v", i, err)
		}
	}

	_, err := f.manager.CreateOrder(ctx, uuid.New(), f.ticketTypeID, 1)
	if !errors.Is(err, ErrSoldOut) {
		t.Fatalf("expected ErrSoldOut, got %v", err)
	}
}

func TestSettlementCommitsHold(t *testing.T) {
	f := newFixture(t)

	order := f.createOrder(t, 3)
	f.clock.Advance(5 * time.Minute)
	f.payOrder(t, order.ID)

	got, err := f.manager.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != models.OrderPaid || got.PaidAt == nil {
		t.Fatalf("after settlement: status %s paidAt %v", got.Status, got.PaidAt)
	}

	snap := f.snapshot(t)
	if snap.Sold != 3 || snap.Held != 0 || snap.Available != testCapacity-3 {
		t.Fatalf("pool after settlement: %+v", snap)
	}

	// The gateway delivers exactly one terminal notification; a second
	// settlement is a state conflict, not a double commit.
	if err := f.manager.OnPaymentSettled(context.Background(), order.ID); !errors.Is(err, ErrInvalidOrderState) {
		t.Fatalf("second settlement: expected ErrInvalidOrderState, got %v", err)
	}
}

func TestDeadlineExpiryReleasesHold(t *testing.T) {
	f := newFixture(t)

	order := f.createOrder(t, 2)
	f.clock.Advance(DefaultHoldDuration + time.Second)

	got, err := f.manager.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != models.OrderCancelled {
		t.Fatalf("after expiry: status %s", got.Status)
	}

	snap := f.snapshot(t)
	if snap.Available != testCapacity || snap.Held != 0 || snap.Sold != 0 {
		t.Fatalf("pool after expiry: %+v", snap)
	}
}

func TestLateSettlementAfterExpiry(t *testing.T) {
	f := newFixture(t)

	order := f.createOrder(t, 2)
	f.clock.Advance(DefaultHoldDuration + time.Minute)

	err := f.manager.OnPaymentSettled(context.Background(), order.ID)
	if !errors.Is(err, ErrLateSettlement) {
		t.Fatalf("expected ErrLateSettlement, got %v", err)
	}

	got, _ := f.manager.GetOrder(order.ID)
	if got.Status != models.OrderCancelled {
		t.Fatalf("late settlement moved order to %s", got.Status)
	}
	snap := f.snapshot(t)
	if snap.Sold != 0 || snap.Available != testCapacity {
		t.Fatalf("late settlement re-deducted inventory: %+v", snap)
	}
}

func TestLateSettlementBeforeTimerFires(t *testing.T) {
	f := newFixture(t)

	order := f.createOrder(t, 2)
	// Move the clock reading past the deadline without running the
	// timer, simulating a settlement that beats a lagging expiry job.
	f.clock.Set(order.PaymentDeadline.Add(time.Second))

	err := f.manager.OnPaymentSettled(context.Background(), order.ID)
	if !errors.Is(err, ErrLateSettlement) {
		t.Fatalf("expected ErrLateSettlement, got %v", err)
	}

	got, _ := f.manager.GetOrder(order.ID)
	if got.Status != models.OrderCancelled {
		t.Fatalf("order status = %s", got.Status)
	}
	snap := f.snapshot(t)
	if snap.Available != testCapacity || snap.Held != 0 {
		t.Fatalf("pool: %+v", snap)
	}

	// The expiry timer then fires against the cancelled order as a
	// harmless no-op.
	f.clock.Advance(time.Minute)
	snap = f.snapshot(t)
	if snap.Available != testCapacity {
		t.Fatalf("timer no-op changed the pool: %+v", snap)
	}
}

func TestSettleExpireRaceHasExactlyOneWinner(t *testing.T) {
	for i := 0; i < 50; i++ {
		f := newFixture(t)
		order := f.createOrder(t, 1)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = f.manager.OnPaymentSettled(context.Background(), order.ID)
		}()
		go func() {
			defer wg.Done()
			_ = f.manager.OnDeadlineExpired(context.Background(), order.ID)
		}()
		wg.Wait()

		got, err := f.manager.GetOrder(order.ID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		snap := f.snapshot(t)
		switch got.Status {
		case models.OrderPaid:
			if snap.Sold != 1 || snap.Held != 0 || snap.Available != testCapacity-1 {
				t.Fatalf("paid winner, pool %+v", snap)
			}
		case models.OrderCancelled:
			if snap.Sold != 0 || snap.Held != 0 || snap.Available != testCapacity {
				t.Fatalf("cancelled winner, pool %+v", snap)
			}
		default:
			t.Fatalf("race left order in %s", got.Status)
		}
	}
}

func TestPaymentFailureReleasesHold(t *testing.T) {
	f := newFixture(t)

	order := f.createOrder(t, 2)
	if err := f.manager.OnPaymentFailed(context.Background(), order.ID); err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	got, _ := f.manager.GetOrder(order.ID)
	if got.Status != models.OrderCancelled {
		t.Fatalf("status = %s", got.Status)
	}
	if snap := f.snapshot(t); snap.Available != testCapacity {
		t.Fatalf("pool: %+v", snap)
	}
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 1)
	if err := f.manager.CancelOrder(ctx, order.ID, uuid.New()); !errors.Is(err, ErrNotOrderOwner) {
		t.Fatalf("foreign cancel: expected ErrNotOrderOwner, got %v", err)
	}
	if err := f.manager.CancelOrder(ctx, order.ID, f.buyerID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.manager.CancelOrder(ctx, order.ID, f.buyerID); !errors.Is(err, ErrInvalidOrderState) {
		t.Fatalf("second cancel: expected ErrInvalidOrderState, got %v", err)
	}
}

func TestRefundLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 2)
	f.payOrder(t, order.ID)

	record, err := f.manager.RequestRefund(ctx, order.ID, f.buyerID, models.ReasonCannotAttend, "family emergency")
	if err != nil {
		t.Fatalf("request refund: %v", err)
	}
	if record.Status != models.RefundPendingReview {
		t.Fatalf("refund status = %s", record.Status)
	}
	if record.Fee+record.Amount != order.Total {
		t.Fatalf("refund split %d + %d != %d", record.Fee, record.Amount, order.Total)
	}
	if record.Fee != refund.Fee(order.Total) {
		t.Fatalf("fee = %d", record.Fee)
	}

	got, _ := f.manager.GetOrder(order.ID)
	if got.Status != models.OrderRefunding {
		t.Fatalf("order status = %s", got.Status)
	}

	// A second request while the first is in flight is refused.
	if _, err := f.manager.RequestRefund(ctx, order.ID, f.buyerID, models.ReasonOther, ""); !errors.Is(err, refund.ErrOrderNotRefundable) {
		t.Fatalf("double request: expected ErrOrderNotRefundable, got %v", err)
	}

	if _, err := f.manager.ReviewRefund(ctx, record.ID, true); err != nil {
		t.Fatalf("review: %v", err)
	}
	settled, err := f.manager.SettleRefund(ctx, record.ID)
	if err != nil {
		t.Fatalf("settle refund: %v", err)
	}
	if settled.Status != models.RefundCompleted {
		t.Fatalf("settled status = %s", settled.Status)
	}

	got, _ = f.manager.GetOrder(order.ID)
	if got.Status != models.OrderRefunded {
		t.Fatalf("order status = %s", got.Status)
	}

	// Refunds do not restock: the units stay sold.
	snap := f.snapshot(t)
	if snap.Sold != 2 || snap.Available != testCapacity-2 {
		t.Fatalf("pool after refund: %+v", snap)
	}

	if _, err := f.manager.SettleRefund(ctx, record.ID); !errors.Is(err, ErrInvalidRefundState) {
		t.Fatalf("second settle: expected ErrInvalidRefundState, got %v", err)
	}
}

func TestRefundRejectionReturnsOrderToPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 1)
	f.payOrder(t, order.ID)

	record, err := f.manager.RequestRefund(ctx, order.ID, f.buyerID, models.ReasonBoughtWrong, "")
	if err != nil {
		t.Fatalf("request refund: %v", err)
	}
	rejected, err := f.manager.ReviewRefund(ctx, record.ID, false)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if rejected.Status != models.RefundRejected {
		t.Fatalf("status = %s", rejected.Status)
	}

	got, _ := f.manager.GetOrder(order.ID)
	if got.Status != models.OrderPaid {
		t.Fatalf("order status = %s", got.Status)
	}

	if _, err := f.manager.SettleRefund(ctx, record.ID); !errors.Is(err, ErrInvalidRefundState) {
		t.Fatalf("settle after rejection: expected ErrInvalidRefundState, got %v", err)
	}
}

func TestRefundReRequestAfterRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 1)
	f.payOrder(t, order.ID)

	first, err := f.manager.RequestRefund(ctx, order.ID, f.buyerID, models.ReasonScheduleConflict, "")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := f.manager.ReviewRefund(ctx, first.ID, false); err != nil {
		t.Fatalf("reject: %v", err)
	}

	second, err := f.manager.RequestRefund(ctx, order.ID, f.buyerID, models.ReasonCannotAttend, "second try")
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("second request reused the first refund ID")
	}

	// The rejected record keeps its identity and history.
	got, err := f.manager.GetRefund(first.ID)
	if err != nil {
		t.Fatalf("get first refund: %v", err)
	}
	if got.ID != first.ID || got.Status != models.RefundRejected || got.Reason != models.ReasonScheduleConflict {
		t.Fatalf("stale refund ID resolved to %+v", got)
	}
	if got, err := f.manager.GetRefund(second.ID); err != nil || got.Status != models.RefundPendingReview {
		t.Fatalf("second refund: %+v, %v", got, err)
	}

	// Operator actions on the rejected record stay refused.
	if _, err := f.manager.ReviewRefund(ctx, first.ID, true); !errors.Is(err, ErrInvalidRefundState) {
		t.Fatalf("review rejected record: expected ErrInvalidRefundState, got %v", err)
	}
	if _, err := f.manager.SettleRefund(ctx, first.ID); !errors.Is(err, ErrInvalidRefundState) {
		t.Fatalf("settle rejected record: expected ErrInvalidRefundState, got %v", err)
	}

	// Both records reached the store.
	f.repo.mu.Lock()
	stored := len(f.repo.refunds)
	f.repo.mu.Unlock()
	if stored != 2 {
		t.Fatalf("stored refunds = %d, want 2", stored)
	}

	if _, err := f.manager.ReviewRefund(ctx, second.ID, true); err != nil {
		t.Fatalf("approve second: %v", err)
	}
	if _, err := f.manager.SettleRefund(ctx, second.ID); err != nil {
		t.Fatalf("settle second: %v", err)
	}
	gotOrder, _ := f.manager.GetOrder(order.ID)
	if gotOrder.Status != models.OrderRefunded {
		t.Fatalf("order status = %s", gotOrder.Status)
	}

	// Both records survive a restart under their own IDs.
	persisted, err := f.manager.ListBuyerOrders(ctx, f.buyerID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var refundRows []models.Refund
	f.repo.mu.Lock()
	for _, r := range f.repo.refunds {
		refundRows = append(refundRows, r)
	}
	f.repo.mu.Unlock()

	restartLedger := ledger.New()
	if err := restartLedger.Register(f.ticketTypeID, testCapacity, 1); err != nil {
		t.Fatalf("register: %v", err)
	}
	restarted := NewManager(restartLedger, &fakeCatalog{}, f.counter, f.repo, f.clock)
	if err := restarted.Restore(ctx, persisted, refundRows); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got, err := restarted.GetRefund(first.ID); err != nil || got.Status != models.RefundRejected {
		t.Fatalf("restored first refund: %+v, %v", got, err)
	}
	if got, err := restarted.GetRefund(second.ID); err != nil || got.Status != models.RefundCompleted {
		t.Fatalf("restored second refund: %+v, %v", got, err)
	}
}

func TestRefundRequestSurfacesPersistFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 1)
	f.payOrder(t, order.ID)

	saveErr := errors.New("connection refused")
	f.repo.mu.Lock()
	f.repo.refundSaveErr = saveErr
	f.repo.mu.Unlock()

	if _, err := f.manager.RequestRefund(ctx, order.ID, f.buyerID, models.ReasonOther, ""); !errors.Is(err, saveErr) {
		t.Fatalf("expected the save error, got %v", err)
	}

	// The failed request mutated nothing: the order is still PAID and
	// no record was stored.
	got, _ := f.manager.GetOrder(order.ID)
	if got.Status != models.OrderPaid {
		t.Fatalf("order status = %s", got.Status)
	}
	f.repo.mu.Lock()
	stored := len(f.repo.refunds)
	f.repo.mu.Unlock()
	if stored != 0 {
		t.Fatalf("stored refunds = %d, want 0", stored)
	}

	f.repo.mu.Lock()
	f.repo.refundSaveErr = nil
	f.repo.mu.Unlock()
	if _, err := f.manager.RequestRefund(ctx, order.ID, f.buyerID, models.ReasonOther, ""); err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
}

func TestRefundTooCloseToEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 1)
	f.payOrder(t, order.ID)

	// Jump to 47 hours before the event.
	f.clock.Set(testStart.Add(30*24*time.Hour - 47*time.Hour))

	_, err := f.manager.RequestRefund(ctx, order.ID, f.buyerID, models.ReasonScheduleConflict, "")
	if !errors.Is(err, refund.ErrTooCloseToEvent) {
		t.Fatalf("expected ErrTooCloseToEvent, got %v", err)
	}
	got, _ := f.manager.GetOrder(order.ID)
	if got.Status != models.OrderPaid {
		t.Fatalf("ineligible request mutated the order: %s", got.Status)
	}
}

func TestRefundRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 1)
	f.payOrder(t, order.ID)

	if _, err := f.manager.RequestRefund(ctx, order.ID, f.buyerID, models.RefundReason("changed_mind"), ""); !errors.Is(err, ErrInvalidRefundReason) {
		t.Fatalf("expected ErrInvalidRefundReason, got %v", err)
	}
	long := make([]byte, maxNoteLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := f.manager.RequestRefund(ctx, order.ID, f.buyerID, models.ReasonOther, string(long)); !errors.Is(err, ErrNoteTooLong) {
		t.Fatalf("expected ErrNoteTooLong, got %v", err)
	}
	if _, err := f.manager.RequestRefund(ctx, order.ID, uuid.New(), models.ReasonOther, ""); !errors.Is(err, ErrNotOrderOwner) {
		t.Fatalf("expected ErrNotOrderOwner, got %v", err)
	}
}

func TestCompleteOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 1)
	if err := f.manager.CompleteOrder(ctx, order.ID); !errors.Is(err, ErrInvalidOrderState) {
		t.Fatalf("complete unpaid: expected ErrInvalidOrderState, got %v", err)
	}

	f.payOrder(t, order.ID)
	if err := f.manager.CompleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, _ := f.manager.GetOrder(order.ID)
	if got.Status != models.OrderCompleted {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestMarkTicketUsed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 1)
	if err := f.manager.MarkTicketUsed(ctx, order.ID); !errors.Is(err, ErrInvalidOrderState) {
		t.Fatalf("unpaid ticket: expected ErrInvalidOrderState, got %v", err)
	}

	f.payOrder(t, order.ID)
	if err := f.manager.MarkTicketUsed(ctx, order.ID); err != nil {
		t.Fatalf("mark used: %v", err)
	}
	if err := f.manager.MarkTicketUsed(ctx, order.ID); !errors.Is(err, ErrTicketUsed) {
		t.Fatalf("second use: expected ErrTicketUsed, got %v", err)
	}
}

func TestRestoreRearmsPendingOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 2)
	persisted, err := f.manager.ListBuyerOrders(ctx, f.buyerID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	// Fresh engine over the same persisted rows, as after a restart.
	restartLedger := ledger.New()
	if err := restartLedger.Register(f.ticketTypeID, testCapacity, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	restarted := NewManager(restartLedger, &fakeCatalog{}, f.counter, f.repo, f.clock)
	if err := restarted.Restore(ctx, persisted, nil); err != nil {
		t.Fatalf("restore: %v", err)
	}

	snap, err := restartLedger.Snapshot(f.ticketTypeID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Held != 2 {
		t.Fatalf("restored pool: %+v", snap)
	}

	f.clock.Advance(DefaultHoldDuration + time.Second)
	got, err := restarted.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != models.OrderCancelled {
		t.Fatalf("restored order did not expire: %s", got.Status)
	}
}
